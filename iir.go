package ugen

import "sync"

// IIRFilter runs the generic recursive filter
//
//	y[n] = sum(a[i]*x[n-i]) - sum(b[j]*y[n-j-1])
//
// over whatever coefficients a concrete design (ChebFilter here) installs.
// The mutex makes coefficient swaps and the recursion mutually exclusive, so
// a control goroutine changing cutoff mid-block never exposes half-updated
// coefficients to the audio goroutine.
type IIRFilter struct {
	Unit
	// Audio is the signal to filter.
	Audio *Input
	// Cutoff optionally drives the cutoff frequency at control rate.
	Cutoff *Input

	mu         sync.Mutex
	a, b       []float64
	hin, hout  [][]float64 // per-channel delay lines
	freq       float64
	sampleRate float64

	// recalc is installed by the concrete design and re-derives a and b
	// from the current parameters.
	recalc func()
}

func (f *IIRFilter) initFilter(freq, sampleRate float64) {
	f.Audio = f.In("audio", Audio)
	f.Cutoff = f.In("cutoff", Control)
	f.freq = freq
	f.sampleRate = sampleRate
}

// Freq returns the current cutoff frequency.
func (f *IIRFilter) Freq() float64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.freq
}

// SetFreq changes the cutoff frequency and re-derives the coefficients.
func (f *IIRFilter) SetFreq(freq float64) {
	f.mu.Lock()
	if freq == f.freq {
		f.mu.Unlock()
		return
	}
	f.freq = freq
	f.mu.Unlock()
	if f.recalc != nil {
		f.recalc()
	}
}

// SampleRate returns the rate the coefficients are designed for.
func (f *IIRFilter) SampleRate() float64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sampleRate
}

// Coefficients returns copies of the feed-forward and feedback sequences.
func (f *IIRFilter) Coefficients() (a, b []float64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a = append([]float64(nil), f.a...)
	b = append([]float64(nil), f.b...)
	return a, b
}

// setCoefficients installs a new design and resizes the delay lines to
// max(len(a), len(b)+1). Callers hold f.mu.
func (f *IIRFilter) setCoefficients(a, b []float64, channels int) {
	f.a = a
	f.b = b
	mem := len(a)
	if len(b)+1 > mem {
		mem = len(b) + 1
	}
	if channels < 1 {
		channels = 1
	}
	f.hin = make([][]float64, channels)
	f.hout = make([][]float64, channels)
	for ch := range f.hin {
		f.hin[ch] = make([]float64, mem)
		f.hout[ch] = make([]float64, mem)
	}
}

func (f *IIRFilter) Configure(cfg Config) {
	f.Unit.Configure(cfg)
	f.mu.Lock()
	changed := cfg.SampleRate != f.sampleRate
	f.sampleRate = cfg.SampleRate
	resize := len(f.hin) != cfg.Channels
	f.mu.Unlock()
	if (changed || resize) && f.recalc != nil {
		f.recalc()
	}
}

func (f *IIRFilter) Generate(out Block) {
	if f.Cutoff.Patched() {
		f.SetFreq(f.Cutoff.Value())
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if len(f.a) == 0 || len(f.hin) < len(out) {
		// no usable design; pass the input through untouched
		for ch := range out {
			src := f.Audio.Values(ch)
			if src == nil {
				for i := range out[ch] {
					out[ch][i] = 0
				}
				continue
			}
			copy(out[ch], src)
		}
		return
	}
	for ch := range out {
		src := f.Audio.Values(ch)
		hin := f.hin[ch]
		hout := f.hout[ch]
		for i := range out[ch] {
			for k := len(hin) - 1; k > 0; k-- {
				hin[k] = hin[k-1]
			}
			if src != nil {
				hin[0] = src[i]
			} else {
				hin[0] = 0
			}
			var y float64
			for k, ak := range f.a {
				y += ak * hin[k]
			}
			for k, bk := range f.b {
				y -= bk * hout[k]
			}
			for k := len(hout) - 1; k > 0; k-- {
				hout[k] = hout[k-1]
			}
			hout[0] = y
			out[ch][i] = y
		}
	}
}
