package ugen

// ToneInstrument is a minimal Instrument: one wavetable oscillator shaped by
// an ADSR, patched into a terminal of its output node. It stays patched
// between notes; the envelope's before/after amplitudes keep it silent.
type ToneInstrument struct {
	g   *Graph
	osc *Oscil
	env *ADSR

	oscH Handle
	envH Handle
}

// NewTone builds a tone instrument playing freq at amp through the given
// table, patched into the named terminal of sink.
func NewTone(g *Graph, freq, amp float64, table *Wavetable, sink Handle, input string) (*ToneInstrument, error) {
	t := &ToneInstrument{
		g:   g,
		osc: NewOscil(freq, amp, table),
		env: NewADSR(1, 0.01, 0.05, 0.7, 0.2, 0, 0),
	}
	t.oscH = g.Add(t.osc)
	t.envH = g.Add(t.env)
	if err := g.Patch(t.oscH, t.envH, "audio"); err != nil {
		return nil, err
	}
	if err := g.Patch(t.envH, sink, input); err != nil {
		return nil, err
	}
	return t, nil
}

// Envelope exposes the instrument's ADSR for parameter changes.
func (t *ToneInstrument) Envelope() *ADSR { return t.env }

// SetFreq retunes the oscillator.
func (t *ToneInstrument) SetFreq(freq float64) { t.osc.SetFreq(freq) }

func (t *ToneInstrument) NoteOn(duration float64) {
	t.env.NoteOn()
}

func (t *ToneInstrument) NoteOff() {
	t.env.NoteOff()
}
