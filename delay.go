package ugen

// Delay feeds its input back through a circular buffer, mixing the delayed
// signal with the dry one.
type Delay struct {
	Unit
	Audio *Input
	// DelTime optionally drives the delay time (seconds) at control rate.
	DelTime *Input

	maxTime  float64
	delTime  float64
	feedback float64
	passDry  bool

	buf [][]float64
	pos int
}

// NewDelay builds a delay holding up to maxTime seconds, initially delaying
// by delTime with the given feedback amount. passDry mixes the dry signal
// into the output.
func NewDelay(maxTime, delTime, feedback float64, passDry bool) *Delay {
	d := &Delay{
		maxTime:  maxTime,
		delTime:  delTime,
		feedback: feedback,
		passDry:  passDry,
	}
	d.Audio = d.In("audio", Audio)
	d.DelTime = d.In("delTime", Control)
	return d
}

func (d *Delay) SetDelTime(t float64) {
	if t > d.maxTime {
		t = d.maxTime
	}
	d.delTime = t
}

func (d *Delay) SetFeedback(f float64) { d.feedback = f }

// GetSetter exposes control-change targets for knob binds.
func (d *Delay) GetSetter(k string) func(float64) {
	switch k {
	case "delTime":
		return d.SetDelTime
	case "feedback":
		return d.SetFeedback
	default:
		return nil
	}
}

func (d *Delay) Configure(cfg Config) {
	d.Unit.Configure(cfg)
	frames := int(d.maxTime*cfg.SampleRate) + 1
	d.buf = make([][]float64, cfg.Channels)
	for ch := range d.buf {
		d.buf[ch] = make([]float64, frames)
	}
	d.pos = 0
}

func (d *Delay) Generate(out Block) {
	if d.DelTime.Patched() {
		d.SetDelTime(d.DelTime.Value())
	}
	frames := int(d.delTime * d.cfg.SampleRate)
	if frames < 1 {
		frames = 1
	}
	for i := 0; i < len(out[0]); i++ {
		for ch := range out {
			src := d.Audio.Values(ch)
			var x float64
			if src != nil {
				x = src[i]
			}
			wet := d.buf[ch][d.pos%len(d.buf[ch])]
			d.buf[ch][(d.pos+frames)%len(d.buf[ch])] = (x + wet) * d.feedback
			if d.passDry {
				out[ch][i] = x + wet
			} else {
				out[ch][i] = wet
			}
		}
		d.pos++
	}
}
