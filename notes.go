package ugen

import (
	"math"
	"sync"
)

// Instrument is anything the note scheduler can start and stop. What a
// NoteOn actually does, and what the instrument is made of, is entirely up
// to the implementation.
type Instrument interface {
	NoteOn(duration float64)
	NoteOff()
}

type noteKind int

const (
	noteOn noteKind = iota
	noteOff
)

// noteEvent is a tagged variant: kind selects which instrument call dispatch
// makes, duration only matters for noteOn.
type noteEvent struct {
	kind     noteKind
	inst     Instrument
	duration float64
}

func (e noteEvent) dispatch() {
	switch e.kind {
	case noteOn:
		e.inst.NoteOn(e.duration)
	case noteOff:
		e.inst.NoteOff()
	}
}

// NoteManager schedules note on/off events at exact sample indices. "now" is
// the current sample index, advanced by one on every unpaused Tick. Events
// are stored against the absolute index they fire at; events landing on the
// same index dispatch in insertion order.
//
// AddEvent and Tick hold the same lock, so scheduling from a control
// goroutine never interleaves with dispatch on the audio goroutine.
type NoteManager struct {
	mu             sync.Mutex
	sampleRate     float64
	tempo          float64
	noteOffset     float64
	durationFactor float64
	now            int
	paused         bool
	events         map[int][]noteEvent
}

func NewNoteManager(sampleRate float64) *NoteManager {
	return &NoteManager{
		sampleRate:     sampleRate,
		tempo:          60,
		durationFactor: 1,
		events:         make(map[int][]noteEvent),
	}
}

// AddEvent schedules a note. startTime and duration are in beats relative to
// now; the conversion to sample indices uses the current tempo, note offset
// and duration factor.
func (nm *NoteManager) AddEvent(startTime, duration float64, inst Instrument) {
	nm.mu.Lock()
	defer nm.mu.Unlock()

	on := nm.now + int(math.Round(nm.sampleRate*(startTime+nm.noteOffset)*60/nm.tempo))
	off := on + int(math.Round(nm.sampleRate*duration*nm.durationFactor*60/nm.tempo))
	nm.events[on] = append(nm.events[on], noteEvent{kind: noteOn, inst: inst, duration: duration})
	nm.events[off] = append(nm.events[off], noteEvent{kind: noteOff, inst: inst})
}

// Tick dispatches every event scheduled for the current sample index, drops
// that entry and advances now. While paused it does nothing.
func (nm *NoteManager) Tick() {
	nm.mu.Lock()
	defer nm.mu.Unlock()

	if nm.paused {
		return
	}
	if pending, ok := nm.events[nm.now]; ok {
		for _, e := range pending {
			e.dispatch()
		}
		delete(nm.events, nm.now)
	}
	nm.now++
}

// Pause freezes dispatch without resetting now. Scheduling stays possible
// and is computed against the frozen now, which is the point: queueing a
// large batch of notes while paused keeps their relative timestamps exact.
func (nm *NoteManager) Pause() {
	nm.mu.Lock()
	defer nm.mu.Unlock()
	nm.paused = true
}

// Resume unfreezes dispatch.
func (nm *NoteManager) Resume() {
	nm.mu.Lock()
	defer nm.mu.Unlock()
	nm.paused = false
}

// Now returns the current sample index.
func (nm *NoteManager) Now() int {
	nm.mu.Lock()
	defer nm.mu.Unlock()
	return nm.now
}

// SetTempo sets the tempo in beats per minute.
func (nm *NoteManager) SetTempo(bpm float64) {
	nm.mu.Lock()
	defer nm.mu.Unlock()
	nm.tempo = bpm
}

// SetNoteOffset adds a fixed number of beats to every scheduled start time.
func (nm *NoteManager) SetNoteOffset(beats float64) {
	nm.mu.Lock()
	defer nm.mu.Unlock()
	nm.noteOffset = beats
}

// SetDurationFactor scales every scheduled duration.
func (nm *NoteManager) SetDurationFactor(factor float64) {
	nm.mu.Lock()
	defer nm.mu.Unlock()
	nm.durationFactor = factor
}
