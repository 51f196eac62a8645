package ugen

import "testing"

// constGen emits a fixed value and counts how often it generates.
type constGen struct {
	Unit
	val   float64
	count int
}

func newConst(v float64) *constGen { return &constGen{val: v} }

func (c *constGen) Generate(out Block) {
	c.count++
	for ch := range out {
		for i := range out[ch] {
			out[ch][i] = c.val
		}
	}
}

// seqGen plays back a fixed sample sequence on every channel.
type seqGen struct {
	Unit
	samples []float64
	pos     int
}

func newSeq(samples ...float64) *seqGen { return &seqGen{samples: samples} }

func (s *seqGen) Generate(out Block) {
	for i := range out[0] {
		var v float64
		if s.pos < len(s.samples) {
			v = s.samples[s.pos]
		}
		for ch := range out {
			out[ch][i] = v
		}
		s.pos++
	}
}

func testGraph(frames, channels int) *Graph {
	return NewGraph(Config{SampleRate: 1000, BlockFrames: frames, Channels: channels})
}

func TestPullGeneratesOncePerBlock(t *testing.T) {
	g := testGraph(4, 1)

	src := newConst(0.25)
	srcH := g.Add(src)

	sum := NewSummer()
	sumH := g.Add(sum)
	in1 := sum.NextInput()
	in2 := sum.NextInput()

	if err := g.Patch(srcH, sumH, in1.Name()); err != nil {
		t.Fatal(err)
	}
	if err := g.Patch(srcH, sumH, in2.Name()); err != nil {
		t.Fatal(err)
	}

	out := NewBlock(g.Config())
	g.Pull(sumH, out)

	if src.count != 1 {
		t.Fatalf("source generated %d times in one block, want 1", src.count)
	}
	for i, v := range out[0] {
		if v != 0.5 {
			t.Fatalf("sample %d = %v, want 0.5 (both terminals observing the same block)", i, v)
		}
	}

	g.Pull(sumH, out)
	if src.count != 2 {
		t.Fatalf("source generated %d times over two blocks, want 2", src.count)
	}
}

func TestPatchUnpatchRestoresState(t *testing.T) {
	g := testGraph(4, 1)

	src := newConst(1)
	srcH := g.Add(src)

	sum := NewSummer()
	sumH := g.Add(sum)
	in := sum.NextInput()
	in.SetValue(0.7)

	if err := g.Patch(srcH, sumH, in.Name()); err != nil {
		t.Fatal(err)
	}
	if !in.Patched() {
		t.Fatal("terminal not patched after Patch")
	}
	if got := g.Consumers(srcH); len(got) != 1 || got[0] != sumH {
		t.Fatalf("consumers = %v, want [%d]", got, sumH)
	}

	g.Unpatch(srcH, sumH, in.Name())

	if in.Patched() {
		t.Fatal("terminal still patched after Unpatch")
	}
	if in.Value() != 0.7 {
		t.Fatalf("terminal value = %v after patch/unpatch, want the prior 0.7", in.Value())
	}
	if got := g.Consumers(srcH); len(got) != 0 {
		t.Fatalf("residual consumers after unpatch: %v", got)
	}
}

func TestPatchReplacesExistingConnection(t *testing.T) {
	g := testGraph(4, 1)

	a := newConst(0.25)
	aH := g.Add(a)
	b := newConst(0.5)
	bH := g.Add(b)

	sum := NewSummer()
	sumH := g.Add(sum)
	in := sum.NextInput()

	if err := g.Patch(aH, sumH, in.Name()); err != nil {
		t.Fatal(err)
	}
	if err := g.Patch(bH, sumH, in.Name()); err != nil {
		t.Fatal(err)
	}

	if got := g.Consumers(aH); len(got) != 0 {
		t.Fatalf("replaced producer still has consumers: %v", got)
	}

	out := NewBlock(g.Config())
	g.Pull(sumH, out)
	if out[0][0] != 0.5 {
		t.Fatalf("output %v, want the replacing producer's 0.5", out[0][0])
	}
}

func TestControlTerminalObservesOneValuePerBlock(t *testing.T) {
	g := testGraph(4, 1)

	amp := newSeq(0.5, 0.9, 0.1, 0.2)
	ampH := g.Add(amp)

	osc := NewOscil(0, 1, NewWavetable([]float64{1, 1}))
	oscH := g.Add(osc)
	if err := g.Patch(ampH, oscH, "amplitude"); err != nil {
		t.Fatal(err)
	}

	out := NewBlock(g.Config())
	g.Pull(oscH, out)

	// the control terminal sees only the first frame of the block
	for i, v := range out[0] {
		if v != 0.5 {
			t.Fatalf("sample %d = %v, want 0.5", i, v)
		}
	}
}

func TestPatchErrors(t *testing.T) {
	g := testGraph(4, 1)
	src := newConst(1)
	srcH := g.Add(src)

	if err := g.Patch(srcH, Handle(42), "audio"); err == nil {
		t.Fatal("expected error patching to a handle that was never added")
	}

	sumH := g.Add(NewSummer())
	if err := g.Patch(srcH, sumH, "nope"); err == nil {
		t.Fatal("expected error patching to an unknown terminal")
	}
}

func TestRemoveDetachesBothSides(t *testing.T) {
	g := testGraph(4, 1)

	src := newConst(1)
	srcH := g.Add(src)

	sum := NewSummer()
	sumH := g.Add(sum)
	in := sum.NextInput()
	if err := g.Patch(srcH, sumH, in.Name()); err != nil {
		t.Fatal(err)
	}

	g.Remove(srcH)

	if in.Patched() {
		t.Fatal("terminal still patched after producer removal")
	}
	if got := g.Consumers(srcH); got != nil {
		t.Fatalf("removed node reports consumers: %v", got)
	}
}
