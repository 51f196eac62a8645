package ugen

import "fmt"

// Summer mixes any number of producers into one block. Each producer gets its
// own audio terminal from NextInput, so several instruments or voices can
// feed a single output root.
type Summer struct {
	Unit
	n int
}

func NewSummer() *Summer {
	return &Summer{}
}

// NextInput creates a fresh audio terminal and returns it; patch a producer
// to its name.
func (s *Summer) NextInput() *Input {
	s.n++
	in := s.In(fmt.Sprintf("in%d", s.n), Audio)
	if s.cfg.BlockFrames > 0 {
		in.buf = NewBlock(s.cfg)
	}
	return in
}

func (s *Summer) Generate(out Block) {
	out.zero()
	for _, in := range s.Inputs() {
		if !in.Patched() {
			continue
		}
		for ch := range out {
			src := in.Values(ch)
			for i := range out[ch] {
				out[ch][i] += src[i]
			}
		}
	}
}
