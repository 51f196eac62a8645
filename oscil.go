package ugen

import "math"

// Oscil reads a wavetable at a phase that advances by frequency/sampleRate
// every sample. Frequency and amplitude can be set directly or driven by
// control-rate patches.
type Oscil struct {
	Unit
	// Frequency drives the oscillator frequency in Hz when patched.
	Frequency *Input
	// Amplitude drives the output amplitude when patched.
	Amplitude *Input

	table *Wavetable
	freq  float64
	amp   float64
	phase float64
}

func NewOscil(freq, amp float64, table *Wavetable) *Oscil {
	o := &Oscil{table: table, freq: freq, amp: amp}
	o.Frequency = o.In("frequency", Control)
	o.Amplitude = o.In("amplitude", Control)
	return o
}

func (o *Oscil) SetFreq(freq float64) { o.freq = freq }

func (o *Oscil) SetAmp(amp float64) { o.amp = amp }

// NoteFreq converts a MIDI note number to its frequency in Hz.
func NoteFreq(note int64) float64 {
	return 440 * math.Pow(2, (float64(note)-69)/12)
}

func (o *Oscil) Generate(out Block) {
	if o.Frequency.Patched() {
		o.freq = o.Frequency.Value()
	}
	if o.Amplitude.Patched() {
		o.amp = o.Amplitude.Value()
	}
	for i := 0; i < len(out[0]); i++ {
		v := o.amp * o.table.Value(o.phase)
		for ch := range out {
			out[ch][i] = v
		}
		_, o.phase = math.Modf(o.phase + o.freq/o.cfg.SampleRate)
		if o.phase < 0 {
			o.phase++
		}
	}
}
