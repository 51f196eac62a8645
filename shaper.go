package ugen

// WaveShaper distorts its audio input by using it as a lookup index into a
// mapping wavetable. Input is expected in [-1, 1]; it is scaled by the map
// amplitude, normalized to a [0, 1] index and either clamped at the table
// edges or wrapped around them. The looked-up value is scaled by the output
// amplitude.
type WaveShaper struct {
	Unit
	Audio *Input
	// MapAmplitude scales the input before the table lookup.
	MapAmplitude *Input
	// OutAmplitude scales the looked-up value.
	OutAmplitude *Input

	mapAmp float64
	outAmp float64
	wrap   bool
	shape  *Wavetable
}

func NewWaveShaper(outAmp, mapAmp float64, shape *Wavetable, wrap bool) *WaveShaper {
	ws := &WaveShaper{
		mapAmp: mapAmp,
		outAmp: outAmp,
		wrap:   wrap,
		shape:  shape,
	}
	ws.Audio = ws.In("audio", Audio)
	ws.MapAmplitude = ws.In("mapAmplitude", Control)
	ws.OutAmplitude = ws.In("outAmplitude", Control)
	return ws
}

func (ws *WaveShaper) Generate(out Block) {
	if ws.MapAmplitude.Patched() {
		ws.mapAmp = ws.MapAmplitude.Value()
	}
	if ws.OutAmplitude.Patched() {
		ws.outAmp = ws.OutAmplitude.Value()
	}
	for ch := range out {
		src := ws.Audio.Values(ch)
		for i := range out[ch] {
			var x float64
			if src != nil {
				x = src[i]
			}
			index := (ws.mapAmp*x)/2 + 0.5
			if ws.wrap {
				for index < 0 {
					index++
				}
				for index >= 1 {
					index--
				}
			} else if index > 1 {
				index = 1
			} else if index < 0 {
				index = 0
			}
			out[ch][i] = ws.outAmp * ws.shape.Value(index)
		}
	}
}
