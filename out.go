package ugen

// Output bridges a graph root to the beep streaming world. It satisfies
// beep.Streamer: every Stream call pulls blocks from the graph on demand and
// ticks the note scheduler once per sample, so it can sit directly under
// speaker.Play or wav.Encode.
type Output struct {
	g     *Graph
	root  Handle
	notes *NoteManager

	block Block
	pos   int
}

func NewOutput(g *Graph, root Handle) *Output {
	return &Output{
		g:     g,
		root:  root,
		notes: NewNoteManager(g.Config().SampleRate),
		block: NewBlock(g.Config()),
		pos:   g.Config().BlockFrames,
	}
}

// Notes exposes the scheduler driving this output.
func (o *Output) Notes() *NoteManager { return o.notes }

// PlayNote schedules a note startTime beats from now for duration beats.
func (o *Output) PlayNote(startTime, duration float64, inst Instrument) {
	o.notes.AddEvent(startTime, duration, inst)
}

func (o *Output) SetTempo(bpm float64) { o.notes.SetTempo(bpm) }

func (o *Output) SetNoteOffset(beats float64) { o.notes.SetNoteOffset(beats) }

func (o *Output) SetDurationFactor(factor float64) { o.notes.SetDurationFactor(factor) }

// PauseNotes freezes note dispatch for bulk scheduling.
func (o *Output) PauseNotes() { o.notes.Pause() }

// ResumeNotes resumes note dispatch.
func (o *Output) ResumeNotes() { o.notes.Resume() }

// Stream fills samples with graph output, pulling a fresh block whenever the
// previous one runs out. Mono graphs play on both sides.
func (o *Output) Stream(samples [][2]float64) (int, bool) {
	for i := range samples {
		if o.pos >= len(o.block[0]) {
			// tick once per sample of the block about to be pulled,
			// so scheduled notes land before their block renders
			for t := 0; t < len(o.block[0]); t++ {
				o.notes.Tick()
			}
			o.g.Pull(o.root, o.block)
			o.pos = 0
		}
		left := o.block[0][o.pos]
		right := left
		if len(o.block) > 1 {
			right = o.block[1][o.pos]
		}
		samples[i][0] = left
		samples[i][1] = right
		o.pos++
	}
	return len(samples), true
}

func (o *Output) Err() error { return nil }
