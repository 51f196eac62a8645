package ugen

import "math"

// This Chebyshev coefficient synthesis follows the BASIC program in chapter
// 20 of The Scientist and Engineer's Guide to Digital Signal Processing
// (dspguide.com/ch20.htm).

// FilterType selects the pass band of a ChebFilter.
type FilterType int

const (
	Lowpass FilterType = iota + 1
	Highpass
)

// ChebFilter is an IIR filter whose coefficients come from the Chebyshev
// design method. It is defined by a pass type, a cutoff frequency, an even
// pole count in [2, 20] and a pass-band ripple percentage. More ripple buys a
// sharper rolloff. High pole counts combined with extreme cutoffs go
// unstable; that combination is not detected here, matching the source
// design.
type ChebFilter struct {
	IIRFilter

	typ     FilterType
	ripple  float64
	poles   int
	canCalc bool
}

// NewChebFilter designs a Chebyshev filter for audio at sampleRate. ripple is
// a percentage, e.g. 0.5 for 0.5% pass-band ripple.
func NewChebFilter(freq float64, typ FilterType, ripple float64, poles int, sampleRate float64) *ChebFilter {
	f := &ChebFilter{}
	f.initFilter(freq, sampleRate)
	f.recalc = f.calcCoeff
	f.SetType(typ)
	f.ripple = ripple
	f.SetPoles(poles)
	f.canCalc = true
	f.calcCoeff()
	return f
}

// SetType switches between Lowpass and Highpass. Anything else is reported
// and replaced by Lowpass.
func (f *ChebFilter) SetType(t FilterType) {
	if t != Lowpass && t != Highpass {
		reportf("invalid filter type, defaulting to low pass")
		t = Lowpass
	}
	f.mu.Lock()
	f.typ = t
	f.mu.Unlock()
	f.calcCoeff()
}

func (f *ChebFilter) Type() FilterType {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.typ
}

// SetRipple sets the pass-band ripple percentage.
func (f *ChebFilter) SetRipple(r float64) {
	f.mu.Lock()
	f.ripple = r
	f.mu.Unlock()
	f.calcCoeff()
}

func (f *ChebFilter) Ripple() float64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.ripple
}

// SetPoles sets the pole count. It must be even and at least 2; otherwise the
// call is reported and the previous design is kept. Counts above 20 are
// reported but still used.
func (f *ChebFilter) SetPoles(p int) {
	if p < 2 {
		reportf("ChebFilter.SetPoles: the number of poles must be at least 2")
		return
	}
	if p%2 != 0 {
		reportf("ChebFilter.SetPoles: the number of poles must be even")
		return
	}
	if p > 20 {
		reportf("ChebFilter.SetPoles: the maximum number of poles is 20")
	}
	f.mu.Lock()
	f.poles = p
	f.mu.Unlock()
	f.calcCoeff()
}

func (f *ChebFilter) Poles() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.poles
}

// GetSetter exposes control-change targets for knob binds.
func (f *ChebFilter) GetSetter(k string) func(float64) {
	switch k {
	case "cutoff":
		return f.SetFreq
	case "ripple":
		return f.SetRipple
	default:
		return nil
	}
}

func (f *ChebFilter) calcCoeff() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.canCalc {
		return
	}

	// running coefficient arrays the pole-pair sections cascade into; the
	// extra head room follows the dspguide layout
	var ca, cb, ta, tb [23]float64
	var pa [3]float64
	var pb [2]float64
	ca[2] = 1
	cb[2] = 1

	for p := 1; p <= f.poles/2; p++ {
		f.calcTwoPole(p, &pa, &pb)
		ta = ca
		tb = cb
		// convolve the new section into the cascade
		for i := 2; i < 23; i++ {
			ca[i] = pa[0]*ta[i] + pa[1]*ta[i-1] + pa[2]*ta[i-2]
			cb[i] = tb[i] - pb[0]*tb[i-1] - pb[1]*tb[i-2]
		}
	}

	cb[2] = 0
	for i := 0; i < 21; i++ {
		ca[i] = ca[i+2]
		cb[i] = -cb[i+2]
	}

	// normalize so the pass band peaks at unity gain: DC for lowpass,
	// Nyquist for highpass
	var sa, sb float64
	sign := 1.0
	for i := 0; i < 21; i++ {
		if f.typ == Lowpass {
			sa += ca[i]
			sb += cb[i]
		} else {
			sa += ca[i] * sign
			sb += cb[i] * sign
			sign = -sign
		}
	}
	gain := sa / (1 - sb)
	for i := 0; i < 21; i++ {
		ca[i] /= gain
	}

	// cb holds the feedback terms in the dspguide's additive convention
	// starting at index 1; the recursion in IIRFilter subtracts, so flip
	// the sign on the way out.
	a := make([]float64, f.poles+1)
	b := make([]float64, f.poles)
	copy(a, ca[:len(a)])
	for j := range b {
		b[j] = -cb[j+1]
	}
	f.setCoefficients(a, b, f.cfg.Channels)
}

// calcTwoPole designs the digital section for pole pair p: an analog pole on
// the unit circle, optionally warped onto the Chebyshev ellipse, converted to
// a 2-pole digital prototype and then moved to the target cutoff by the
// LP-to-LP or LP-to-HP spectral transform.
func (f *ChebFilter) calcTwoPole(p int, pa *[3]float64, pb *[2]float64) {
	np := float64(f.poles)
	angle := math.Pi/(np*2) + float64(p-1)*math.Pi/np
	rp := -math.Cos(angle)
	ip := math.Sin(angle)

	if f.ripple > 0 {
		es := 1 / math.Sqrt(math.Pow(100.0/(100.0-f.ripple), 2)-1)
		vx := (1 / np) * math.Log(es+math.Sqrt(es*es+1))
		kx := (1 / np) * math.Log(es+math.Sqrt(es*es-1))
		kx = (math.Exp(kx) + math.Exp(-kx)) / 2
		rp *= ((math.Exp(vx) - math.Exp(-vx)) / 2) / kx
		ip *= ((math.Exp(vx) + math.Exp(-vx)) / 2) / kx
	}

	// s-domain to z-domain at the reference cutoff
	t := 2 * math.Tan(0.5)
	w := 2 * math.Pi * (f.freq / f.sampleRate)
	m := rp*rp + ip*ip
	d := 4 - 4*rp*t + m*t*t
	x0 := (t * t) / d
	x1 := (2 * t * t) / d
	x2 := (t * t) / d
	y1 := (8 - 2*m*t*t) / d
	y2 := (-4 - 4*rp*t - m*t*t) / d

	var k float64
	if f.typ == Highpass {
		k = -math.Cos(w/2+0.5) / math.Cos(w/2-0.5)
	} else {
		k = math.Sin(0.5-w/2) / math.Sin(0.5+w/2)
	}
	d = 1 + y1*k - y2*k*k
	pa[0] = (x0 - x1*k + x2*k*k) / d
	pa[1] = (-2*x0*k + x1 + x1*k*k - 2*x2*k) / d
	pa[2] = (x0*k*k - x1*k + x2) / d
	pb[0] = (2*k + y1 + y1*k*k - 2*y2*k) / d
	pb[1] = (-(k * k) - y1*k + y2) / d
	if f.typ == Highpass {
		pa[1] = -pa[1]
		pb[0] = -pb[0]
	}
}
