package ugen

import (
	"fmt"
	"sync"

	"github.com/rakyll/portmidi"
)

// Settable is implemented by nodes exposing named control-change targets.
type Settable interface {
	GetSetter(string) func(float64)
}

// Setter applies one control value.
type Setter func(float64)

type knobBind struct {
	mapf func(int64) float64
	sf   Setter
}

func (kb *knobBind) update(val int64) {
	kb.sf(kb.mapf(val))
}

// MidiController turns hardware note events into Instrument calls and CC
// knob turns into Setter calls. Instruments are created per note through the
// newInst callback and reused while the controller runs.
type MidiController struct {
	stream  *portmidi.Stream
	newInst func(freq float64) Instrument

	// mu guards both maps; binds and notes may arrive from other
	// goroutines while run is reading events
	mu        sync.Mutex
	active    map[int64]Instrument
	knobBinds map[int64]*knobBind
}

// OpenController opens a MIDI input device and starts reading from it.
func OpenController(id portmidi.DeviceID, newInst func(freq float64) Instrument) (*MidiController, error) {
	in, err := portmidi.NewInputStream(id, 1024)
	if err != nil {
		return nil, fmt.Errorf("opening midi input %d: %w", id, err)
	}

	mc := newController(newInst)
	mc.stream = in
	go mc.run()
	return mc, nil
}

// NewMockController builds a controller without a device, for tests and
// keyboard-driven use.
func NewMockController(newInst func(freq float64) Instrument) *MidiController {
	return newController(newInst)
}

func newController(newInst func(freq float64) Instrument) *MidiController {
	return &MidiController{
		newInst:   newInst,
		active:    make(map[int64]Instrument),
		knobBinds: make(map[int64]*knobBind),
	}
}

func (mc *MidiController) Shutdown() {
	if mc.stream != nil {
		mc.stream.Close()
	}
}

// BindKnob routes a CC knob to a setter through a range-mapping func.
func (mc *MidiController) BindKnob(knobid int64, s Setter, rangeMapFunc func(int64) float64) {
	if s == nil {
		reportf("nil setter passed to bind knob %d", knobid)
		return
	}
	mc.mu.Lock()
	mc.knobBinds[knobid] = &knobBind{mapf: rangeMapFunc, sf: s}
	mc.mu.Unlock()
}

func (mc *MidiController) run() {
	for {
		events, err := mc.stream.Read(1024)
		if err != nil {
			reportf("midi read: %v", err)
			return
		}
		for _, event := range events {
			mc.handle(event)
		}
	}
}

func (mc *MidiController) handle(event portmidi.Event) {
	switch event.Status {
	case 0x90:
		mc.StartNote(event.Data1)
	case 0x80:
		mc.StopNote(event.Data1)
	case 0xb0:
		mc.mu.Lock()
		kb, ok := mc.knobBinds[event.Data1]
		mc.mu.Unlock()
		if ok {
			kb.update(event.Data2)
		}
	}
}

// StartNote begins playing a MIDI note number.
func (mc *MidiController) StartNote(note int64) {
	mc.mu.Lock()
	inst, ok := mc.active[note]
	if !ok {
		inst = mc.newInst(NoteFreq(note))
		if inst == nil {
			mc.mu.Unlock()
			return
		}
		mc.active[note] = inst
	}
	mc.mu.Unlock()
	// held notes have no scheduled duration
	inst.NoteOn(0)
}

// StopNote releases a MIDI note number.
func (mc *MidiController) StopNote(note int64) {
	mc.mu.Lock()
	inst, ok := mc.active[note]
	mc.mu.Unlock()
	if !ok {
		reportf("stop for note %d that was never started", note)
		return
	}
	inst.NoteOff()
}
