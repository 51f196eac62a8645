package ugen

import (
	"math"
	"testing"
)

// pullSample runs a one-frame graph and returns the single output sample.
func pullSample(g *Graph, root Handle, out Block) float64 {
	g.Pull(root, out)
	return out[0][0]
}

func adsrFixture(t *testing.T) (*Graph, *ADSR, Handle, Block) {
	t.Helper()
	g := NewGraph(Config{SampleRate: 1000, BlockFrames: 1, Channels: 1})

	src := newConst(1)
	srcH := g.Add(src)
	env := NewADSR(1, 0.1, 0.1, 0.5, 0.1, 0, 0)
	envH := g.Add(env)
	if err := g.Patch(srcH, envH, "audio"); err != nil {
		t.Fatal(err)
	}
	return g, env, envH, NewBlock(g.Config())
}

func TestADSRBeforeNoteOn(t *testing.T) {
	g, env, envH, out := adsrFixture(t)

	for i := 0; i < 10; i++ {
		if v := pullSample(g, envH, out); v != 0 {
			t.Fatalf("sample %d = %v before noteOn, want beforeAmplitude * input = 0", i, v)
		}
	}
	if env.Stage() != StageBefore {
		t.Fatalf("stage %v, want StageBefore", env.Stage())
	}
}

func TestADSRAttackRises(t *testing.T) {
	g, env, envH, out := adsrFixture(t)

	env.NoteOn()
	prev := 0.0
	for i := 0; i < 50; i++ {
		v := pullSample(g, envH, out)
		if v <= prev {
			t.Fatalf("attack sample %d = %v, not rising from %v", i, v, prev)
		}
		if v >= 1 {
			t.Fatalf("attack sample %d = %v, overshot maxAmplitude", i, v)
		}
		prev = v
	}
	if env.Stage() != StageAttack {
		t.Fatalf("stage %v mid-attack, want StageAttack", env.Stage())
	}
}

func TestADSRSustainHolds(t *testing.T) {
	g, env, envH, out := adsrFixture(t)

	env.NoteOn()
	// run through attack (100 samples) and decay (100 samples)
	var v float64
	for i := 0; i < 250; i++ {
		v = pullSample(g, envH, out)
	}
	if env.Stage() != StageSustain {
		t.Fatalf("stage %v after attack+decay, want StageSustain", env.Stage())
	}
	if math.Abs(v-0.5) > 1e-9 {
		t.Fatalf("sustain output %v, want sustainLevel*maxAmplitude = 0.5", v)
	}
}

func TestADSRNoteOffDuringAttackReleasesSmoothly(t *testing.T) {
	g, env, envH, out := adsrFixture(t)

	env.NoteOn()
	var last float64
	for i := 0; i < 50; i++ {
		last = pullSample(g, envH, out)
	}

	env.NoteOff()
	v := pullSample(g, envH, out)
	if env.Stage() != StageRelease {
		t.Fatalf("stage %v after noteOff, want StageRelease", env.Stage())
	}
	// no discontinuity: the first release sample steps from the attack
	// amplitude, it does not jump
	if math.Abs(v-last) > 0.05 {
		t.Fatalf("amplitude jumped from %v to %v at the release transition", last, v)
	}

	prev := v
	for i := 0; i < 80; i++ {
		v = pullSample(g, envH, out)
		if v > prev {
			t.Fatalf("release sample %d = %v, rising above %v", i, v, prev)
		}
		prev = v
	}
}

func TestADSRAfterRelease(t *testing.T) {
	g, env, envH, out := adsrFixture(t)

	env.NoteOn()
	for i := 0; i < 20; i++ {
		pullSample(g, envH, out)
	}
	env.NoteOff()
	// release is 0.1s = 100 samples
	for i := 0; i < 120; i++ {
		pullSample(g, envH, out)
	}
	if env.Stage() != StageAfter {
		t.Fatalf("stage %v, want StageAfter", env.Stage())
	}
	if v := pullSample(g, envH, out); v != 0 {
		t.Fatalf("output %v after release, want afterAmplitude * input = 0", v)
	}
}

func TestADSRRetriggerAfterRelease(t *testing.T) {
	g, env, envH, out := adsrFixture(t)

	env.NoteOn()
	for i := 0; i < 20; i++ {
		pullSample(g, envH, out)
	}
	env.NoteOff()
	for i := 0; i < 120; i++ {
		pullSample(g, envH, out)
	}
	if env.Stage() != StageAfter {
		t.Fatalf("stage %v before retrigger, want StageAfter", env.Stage())
	}

	env.NoteOn()
	if env.Stage() != StageAttack {
		t.Fatalf("stage %v after retrigger, want StageAttack", env.Stage())
	}
	prev := pullSample(g, envH, out)
	for i := 0; i < 40; i++ {
		v := pullSample(g, envH, out)
		if v <= prev {
			t.Fatalf("retriggered attack sample %d = %v, not rising from %v", i, v, prev)
		}
		prev = v
	}
}

func TestADSRUnpatchAfterRelease(t *testing.T) {
	g := NewGraph(Config{SampleRate: 1000, BlockFrames: 1, Channels: 1})

	src := newConst(1)
	srcH := g.Add(src)
	env := NewADSR(1, 0.01, 0.01, 0.5, 0.01, 0, 0)
	envH := g.Add(env)
	if err := g.Patch(srcH, envH, "audio"); err != nil {
		t.Fatal(err)
	}

	sum := NewSummer()
	sumH := g.Add(sum)
	in := sum.NextInput()
	if err := g.Patch(envH, sumH, in.Name()); err != nil {
		t.Fatal(err)
	}

	env.UnpatchAfterRelease()
	env.NoteOn()
	out := NewBlock(g.Config())
	for i := 0; i < 5; i++ {
		g.Pull(sumH, out)
	}
	env.NoteOff()

	for i := 0; i < 50; i++ {
		g.Pull(sumH, out)
	}

	if in.Patched() {
		t.Fatal("summer terminal still patched after the envelope finished")
	}
	if got := g.Consumers(envH); got != nil {
		t.Fatalf("finished envelope still in the graph with consumers %v", got)
	}
}
