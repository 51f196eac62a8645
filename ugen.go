package ugen

import (
	"fmt"
	"sync"
)

// Rate classifies an input terminal. Audio terminals observe a full block of
// samples per pull, control terminals observe a single value per block.
type Rate int

const (
	Audio Rate = iota
	Control
)

// Config carries the fixed parameters shared by every node in a graph.
type Config struct {
	SampleRate  float64
	BlockFrames int
	Channels    int
}

// DefaultConfig is CD-rate stereo with a 512-frame block.
var DefaultConfig = Config{SampleRate: 44100, BlockFrames: 512, Channels: 2}

// Block is one output block, one sample slice per channel.
type Block [][]float64

// NewBlock allocates a block sized for cfg.
func NewBlock(cfg Config) Block {
	b := make(Block, cfg.Channels)
	for ch := range b {
		b[ch] = make([]float64, cfg.BlockFrames)
	}
	return b
}

func (b Block) zero() {
	for ch := range b {
		for i := range b[ch] {
			b[ch][i] = 0
		}
	}
}

func (b Block) copyFrom(src Block) {
	for ch := range b {
		copy(b[ch], src[ch])
	}
}

// Handle is a stable index identifying a node within a Graph. Handles stay
// valid across patching; a freed handle may be reused by a later Add.
type Handle int

// None marks an unpatched terminal.
const None Handle = -1

// Generator is the contract every unit generator implements: expose its input
// terminals and fill one output block from their current values. Generate is
// only ever called by the owning graph, once per block.
type Generator interface {
	Inputs() []*Input
	Generate(out Block)
}

// ConfigAware generators are told the graph parameters when added. Everything
// embedding Unit gets this for free.
type ConfigAware interface {
	Configure(cfg Config)
}

// Finisher generators can ask for their own removal from the graph; the graph
// checks Finished after each block a node generates and removes it once true.
type Finisher interface {
	Finished() bool
}

// Input is a typed terminal owned by exactly one generator. It is patched
// from at most one upstream node and retains the last observed values when
// unpatched.
type Input struct {
	name string
	rate Rate
	src  Handle
	buf  Block   // audio rate: last observed block
	val  float64 // control rate: last observed value
}

func (in *Input) Name() string { return in.name }

func (in *Input) Rate() Rate { return in.rate }

// Patched reports whether an upstream node currently feeds this terminal.
func (in *Input) Patched() bool { return in.src != None }

// Values returns the last observed samples for one channel of an audio
// terminal.
func (in *Input) Values(ch int) []float64 {
	if in.buf == nil {
		return nil
	}
	return in.buf[ch]
}

// Value returns the last observed value of a control terminal.
func (in *Input) Value() float64 { return in.val }

// SetValue primes the terminal with a value to hold while unpatched.
func (in *Input) SetValue(v float64) {
	in.val = v
	for ch := range in.buf {
		for i := range in.buf[ch] {
			in.buf[ch][i] = v
		}
	}
}

func (in *Input) observe(src Block) {
	if in.rate == Control {
		in.val = src[0][0]
		return
	}
	in.buf.copyFrom(src)
}

// Unit is the base carried by every generator in this package. It owns the
// terminal list and the graph config.
type Unit struct {
	cfg Config
	ins []*Input
}

// In creates and registers a named terminal.
func (u *Unit) In(name string, rate Rate) *Input {
	in := &Input{name: name, rate: rate, src: None}
	u.ins = append(u.ins, in)
	return in
}

func (u *Unit) Inputs() []*Input { return u.ins }

func (u *Unit) Config() Config { return u.cfg }

func (u *Unit) Configure(cfg Config) {
	u.cfg = cfg
	for _, in := range u.ins {
		if in.rate == Audio {
			prev := in.buf
			in.buf = NewBlock(cfg)
			if prev != nil {
				in.buf.copyFrom(prev)
			}
		}
	}
}

type node struct {
	gen    Generator
	out    Block
	serial uint64
	// sinks counts, per consumer handle, how many of its terminals this
	// node feeds.
	sinks map[Handle]int
}

// Graph is an arena of unit generators wired by patches. All methods are safe
// to call from a control goroutine while an audio goroutine is pulling
// blocks; one mutex covers both topology and evaluation, so a pull observes
// no partially applied mutation.
type Graph struct {
	cfg Config

	mu       sync.Mutex
	nodes    []*node
	free     []Handle
	serial   uint64
	finished []Handle
}

func NewGraph(cfg Config) *Graph {
	if cfg.SampleRate <= 0 {
		cfg.SampleRate = DefaultConfig.SampleRate
	}
	if cfg.BlockFrames <= 0 {
		cfg.BlockFrames = DefaultConfig.BlockFrames
	}
	if cfg.Channels <= 0 {
		cfg.Channels = DefaultConfig.Channels
	}
	return &Graph{cfg: cfg}
}

func (g *Graph) Config() Config { return g.cfg }

// Add registers a generator and returns its handle.
func (g *Graph) Add(gen Generator) Handle {
	g.mu.Lock()
	defer g.mu.Unlock()

	if ca, ok := gen.(ConfigAware); ok {
		ca.Configure(g.cfg)
	}
	n := &node{
		gen:   gen,
		out:   NewBlock(g.cfg),
		sinks: make(map[Handle]int),
	}
	if len(g.free) > 0 {
		h := g.free[len(g.free)-1]
		g.free = g.free[:len(g.free)-1]
		g.nodes[h] = n
		return h
	}
	g.nodes = append(g.nodes, n)
	return Handle(len(g.nodes) - 1)
}

// Remove detaches a node from everything it feeds and everything feeding it,
// then frees its slot.
func (g *Graph) Remove(h Handle) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.remove(h)
}

func (g *Graph) remove(h Handle) {
	n := g.node(h)
	if n == nil {
		return
	}
	// iterate a snapshot so detaching is safe mid-iteration
	sinks := make([]Handle, 0, len(n.sinks))
	for s := range n.sinks {
		sinks = append(sinks, s)
	}
	for _, s := range sinks {
		sn := g.node(s)
		if sn == nil {
			continue
		}
		for _, in := range sn.gen.Inputs() {
			if in.src == h {
				in.src = None
			}
		}
	}
	for _, in := range n.gen.Inputs() {
		if in.src != None {
			g.unpatch(in.src, h, in.name)
		}
	}
	g.nodes[h] = nil
	g.free = append(g.free, h)
}

// Patch connects src's output to the named terminal of dst. An empty name
// selects dst's first audio terminal. A terminal holds one upstream at a
// time; patching over an existing connection replaces it.
func (g *Graph) Patch(src, dst Handle, input string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	sn := g.node(src)
	dn := g.node(dst)
	if sn == nil || dn == nil {
		return fmt.Errorf("patch %d -> %d: no such node", src, dst)
	}
	in := findInput(dn.gen, input)
	if in == nil {
		return fmt.Errorf("patch %d -> %d: no input %q", src, dst, input)
	}
	if in.src != None {
		g.unpatch(in.src, dst, in.name)
	}
	in.src = src
	sn.sinks[dst]++
	return nil
}

// Unpatch disconnects src from the named terminal of dst. It is a no-op when
// no such connection exists.
func (g *Graph) Unpatch(src, dst Handle, input string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.unpatch(src, dst, input)
}

func (g *Graph) unpatch(src, dst Handle, input string) {
	sn := g.node(src)
	dn := g.node(dst)
	if sn == nil || dn == nil {
		return
	}
	in := findInput(dn.gen, input)
	if in == nil || in.src != src {
		return
	}
	in.src = None
	sn.sinks[dst]--
	if sn.sinks[dst] <= 0 {
		delete(sn.sinks, dst)
	}
}

// Consumers returns the handles currently fed by h.
func (g *Graph) Consumers(h Handle) []Handle {
	g.mu.Lock()
	defer g.mu.Unlock()
	n := g.node(h)
	if n == nil {
		return nil
	}
	out := make([]Handle, 0, len(n.sinks))
	for s := range n.sinks {
		out = append(out, s)
	}
	return out
}

// Pull evaluates one block rooted at h into out. Every node reachable from h
// generates at most once; nodes pulled through several terminals reuse their
// cached block.
func (g *Graph) Pull(h Handle, out Block) {
	g.mu.Lock()
	defer g.mu.Unlock()

	n := g.node(h)
	if n == nil {
		reportf("pull on removed node %d", h)
		out.zero()
		return
	}
	g.serial++
	g.eval(h)
	out.copyFrom(n.out)

	// removals requested by nodes during this block
	for _, fh := range g.finished {
		g.remove(fh)
	}
	g.finished = g.finished[:0]
}

func (g *Graph) eval(h Handle) *node {
	n := g.node(h)
	if n == nil || n.serial == g.serial {
		return n
	}
	// mark before recursing so a feedback edge observes last block's output
	n.serial = g.serial
	for _, in := range n.gen.Inputs() {
		if in.src == None {
			continue
		}
		if src := g.eval(in.src); src != nil {
			in.observe(src.out)
		}
	}
	n.gen.Generate(n.out)
	if f, ok := n.gen.(Finisher); ok && f.Finished() {
		g.finished = append(g.finished, h)
	}
	return n
}

func (g *Graph) node(h Handle) *node {
	if h < 0 || int(h) >= len(g.nodes) {
		return nil
	}
	return g.nodes[h]
}

func findInput(gen Generator, name string) *Input {
	for _, in := range gen.Inputs() {
		if name == "" && in.rate == Audio {
			return in
		}
		if in.name == name {
			return in
		}
	}
	return nil
}
