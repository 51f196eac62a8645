package ugen

// EnvStage identifies where an ADSR envelope is in its life cycle.
type EnvStage int

const (
	StageBefore EnvStage = iota
	StageAttack
	StageDecay
	StageSustain
	StageRelease
	StageAfter
)

// ADSR shapes its audio input with a standard attack-decay-sustain-release
// envelope driven by NoteOn and NoteOff. Each stage approaches its target
// with
//
//	amp += (target - amp) * step / remaining
//
// where remaining shrinks every sample, so stages decelerate into their
// targets rather than ramping linearly.
type ADSR struct {
	Unit
	// Audio is the signal the envelope scales.
	Audio *Input

	maxAmp    float64
	attack    float64
	decay     float64
	sustain   float64
	release   float64
	beforeAmp float64
	afterAmp  float64

	amp         float64
	step        float64
	timeFromOn  float64
	timeFromOff float64
	on          bool
	off         bool

	unpatchAfter bool
}

// NewADSR builds an envelope. Times are in seconds, sustain is a fraction of
// maxAmp, beforeAmp and afterAmp scale the input outside the envelope.
func NewADSR(maxAmp, attack, decay, sustain, release, beforeAmp, afterAmp float64) *ADSR {
	a := &ADSR{
		maxAmp:      maxAmp,
		attack:      attack,
		decay:       decay,
		sustain:     sustain,
		release:     release,
		beforeAmp:   beforeAmp,
		afterAmp:    afterAmp,
		amp:         beforeAmp,
		timeFromOn:  -1,
		timeFromOff: -1,
	}
	a.Audio = a.In("audio", Audio)
	return a
}

// SetParameters changes every envelope parameter at once.
func (a *ADSR) SetParameters(maxAmp, attack, decay, sustain, release, beforeAmp, afterAmp float64) {
	a.maxAmp = maxAmp
	a.attack = attack
	a.decay = decay
	a.sustain = sustain
	a.release = release
	a.beforeAmp = beforeAmp
	a.afterAmp = afterAmp
}

// NoteOn starts the envelope from the attack stage. Retriggering a released
// envelope restarts the attack from the current amplitude.
func (a *ADSR) NoteOn() {
	a.timeFromOn = 0
	a.on = true
	a.off = false
	a.timeFromOff = -1
}

// NoteOff moves the envelope into its release stage, wherever it was.
func (a *ADSR) NoteOff() {
	a.timeFromOff = 0
	a.off = true
}

// UnpatchAfterRelease asks the owning graph to remove this node once the
// release has run out.
func (a *ADSR) UnpatchAfterRelease() {
	a.unpatchAfter = true
}

// Finished reports whether the envelope has fully released and asked for
// removal.
func (a *ADSR) Finished() bool {
	return a.unpatchAfter && a.on && a.off && a.timeFromOff > a.release
}

// Stage reports the current envelope stage.
func (a *ADSR) Stage() EnvStage {
	switch {
	case !a.on:
		return StageBefore
	case a.off && a.timeFromOff > a.release:
		return StageAfter
	case a.off:
		return StageRelease
	case a.timeFromOn <= a.attack:
		return StageAttack
	case a.timeFromOn <= a.attack+a.decay:
		return StageDecay
	default:
		return StageSustain
	}
}

// Amplitude reports the current envelope level.
func (a *ADSR) Amplitude() float64 { return a.amp }

func (a *ADSR) Configure(cfg Config) {
	a.Unit.Configure(cfg)
	a.step = 1 / cfg.SampleRate
}

func (a *ADSR) Generate(out Block) {
	for i := 0; i < len(out[0]); i++ {
		var scale float64
		switch {
		case !a.on:
			scale = a.beforeAmp
		case a.off && a.timeFromOff > a.release:
			scale = a.afterAmp
		default:
			if !a.off {
				switch {
				case a.timeFromOn <= a.attack:
					remain := a.attack - a.timeFromOn
					a.amp += (a.maxAmp - a.amp) * a.step / remain
				case a.timeFromOn <= a.attack+a.decay:
					remain := a.attack + a.decay - a.timeFromOn
					a.amp += (a.sustain*a.maxAmp - a.amp) * a.step / remain
				default:
					a.amp = a.sustain * a.maxAmp
				}
				a.timeFromOn += a.step
			} else {
				remain := a.release - a.timeFromOff
				a.amp += (a.afterAmp - a.amp) * a.step / remain
				a.timeFromOff += a.step
			}
			scale = a.amp
		}
		for ch := range out {
			src := a.Audio.Values(ch)
			if src == nil {
				out[ch][i] = 0
				continue
			}
			out[ch][i] = scale * src[i]
		}
	}
}
