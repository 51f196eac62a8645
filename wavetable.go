package ugen

import "math"

// Wavetable is a sampled waveform looked up by a normalized index in [0, 1],
// with linear interpolation between entries.
type Wavetable struct {
	table []float64
}

func NewWavetable(table []float64) *Wavetable {
	return &Wavetable{table: table}
}

// Value interpolates the waveform at a normalized position.
func (w *Wavetable) Value(at float64) float64 {
	pos := at * float64(len(w.table)-1)
	lo := int(pos)
	if lo < 0 {
		return w.table[0]
	}
	if lo >= len(w.table)-1 {
		return w.table[len(w.table)-1]
	}
	frac := pos - float64(lo)
	return w.table[lo] + frac*(w.table[lo+1]-w.table[lo])
}

// Size returns the number of table entries.
func (w *Wavetable) Size() int { return len(w.table) }

// SineTable samples one cycle of a sine into size entries.
func SineTable(size int) *Wavetable {
	t := make([]float64, size)
	for i := range t {
		t[i] = math.Sin(2 * math.Pi * float64(i) / float64(size-1))
	}
	return NewWavetable(t)
}

// SawTable samples one falling sawtooth cycle into size entries.
func SawTable(size int) *Wavetable {
	t := make([]float64, size)
	for i := range t {
		_, phase := math.Modf(float64(i) / float64(size-1))
		t[i] = 1 - 2*phase
	}
	return NewWavetable(t)
}

// TriangleTable samples one triangle cycle into size entries.
func TriangleTable(size int) *Wavetable {
	t := make([]float64, size)
	for i := range t {
		phase := float64(i) / float64(size-1)
		t[i] = 1 - 4*math.Abs(math.Round(phase)-phase)
	}
	return NewWavetable(t)
}

// SquareTable samples one square cycle into size entries.
func SquareTable(size int) *Wavetable {
	t := make([]float64, size)
	for i := range t {
		if float64(i) < float64(size)/2 {
			t[i] = 1
		} else {
			t[i] = -1
		}
	}
	return NewWavetable(t)
}

// LinearTable interpolates the given breakpoints evenly across size entries.
// Handy for building waveshaping transfer curves.
func LinearTable(size int, points ...float64) *Wavetable {
	t := make([]float64, size)
	if len(points) == 0 {
		return NewWavetable(t)
	}
	if len(points) == 1 {
		for i := range t {
			t[i] = points[0]
		}
		return NewWavetable(t)
	}
	for i := range t {
		pos := float64(i) / float64(size-1) * float64(len(points)-1)
		lo := int(pos)
		if lo >= len(points)-1 {
			t[i] = points[len(points)-1]
			continue
		}
		frac := pos - float64(lo)
		t[i] = points[lo] + frac*(points[lo+1]-points[lo])
	}
	return NewWavetable(t)
}
