package main

import (
	"fmt"
	"math/cmplx"
	"os"
	"sync"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/speaker"
	"github.com/gopxl/beep/wav"
	"github.com/maddyblue/go-dsp/fft"
	"github.com/rakyll/portmidi"
	"github.com/veandco/go-sdl2/sdl"

	"github.com/audiolith/ugen"
)

const (
	sampleRate   = 44100
	screenWidth  = 1000
	screenHeight = 600
)

// scopeTap sits between the speaker and the rig, keeping a mono ring of the
// most recent left-channel samples for the scope to snapshot.
type scopeTap struct {
	sub beep.Streamer

	lk   sync.Mutex
	ring []float64
	head int
}

func newScopeTap(sub beep.Streamer, frames int) *scopeTap {
	return &scopeTap{sub: sub, ring: make([]float64, frames)}
}

func (s *scopeTap) Stream(samples [][2]float64) (int, bool) {
	n, ok := s.sub.Stream(samples)

	s.lk.Lock()
	for _, sample := range samples[:n] {
		s.ring[s.head] = sample[0]
		s.head = (s.head + 1) % len(s.ring)
	}
	s.lk.Unlock()
	return n, ok
}

// Snapshot copies the oldest ring samples into buf, oldest first.
func (s *scopeTap) Snapshot(buf []float64) {
	s.lk.Lock()
	defer s.lk.Unlock()

	for i := range buf {
		buf[i] = s.ring[(s.head+i)%len(s.ring)]
	}
}

func (s *scopeTap) Err() error { return nil }

// rig is the demo patch: tone instruments into a summer, through a Chebyshev
// lowpass and a balance, out to a beep streamer.
type rig struct {
	g      *ugen.Graph
	summer *ugen.Summer
	sumH   ugen.Handle
	filter *ugen.ChebFilter
	out    *ugen.Output

	table *ugen.Wavetable

	insts map[int64]*ugen.ToneInstrument
}

func setupRig() (*rig, error) {
	g := ugen.NewGraph(ugen.Config{SampleRate: sampleRate, BlockFrames: 512, Channels: 2})

	summer := ugen.NewSummer()
	sumH := g.Add(summer)

	filter := ugen.NewChebFilter(1800, ugen.Lowpass, 0.5, 4, sampleRate)
	filtH := g.Add(filter)
	if err := g.Patch(sumH, filtH, "audio"); err != nil {
		return nil, err
	}

	bal := ugen.NewBalance(0)
	balH := g.Add(bal)
	if err := g.Patch(filtH, balH, "audio"); err != nil {
		return nil, err
	}

	return &rig{
		g:      g,
		summer: summer,
		sumH:   sumH,
		filter: filter,
		out:    ugen.NewOutput(g, balH),
		table:  ugen.SineTable(2048),
		insts:  make(map[int64]*ugen.ToneInstrument),
	}, nil
}

func (r *rig) instrument(note int64) *ugen.ToneInstrument {
	inst, ok := r.insts[note]
	if !ok {
		in := r.summer.NextInput()
		var err error
		inst, err = ugen.NewTone(r.g, ugen.NoteFreq(note), 0.3, r.table, r.sumH, in.Name())
		if err != nil {
			fmt.Println("building instrument:", err)
			os.Exit(1)
		}
		r.insts[note] = inst
	}
	return inst
}

func playDemo() {
	r, err := setupRig()
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}

	sr := beep.SampleRate(sampleRate)
	speaker.Init(sr, sr.N(time.Second/10))
	speaker.Play(r.out)

	r.out.SetTempo(120)
	r.out.PauseNotes()
	for i, note := range []int64{60, 64, 67, 72, 67, 64, 60} {
		r.out.PlayNote(float64(i)/2, 0.45, r.instrument(note))
	}
	r.out.ResumeNotes()

	time.Sleep(time.Second * 4)
}

func renderDemo(path string) {
	r, err := setupRig()
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}

	r.out.SetTempo(120)
	r.out.PauseNotes()
	for i, note := range []int64{60, 64, 67, 72} {
		r.out.PlayNote(float64(i)/2, 0.45, r.instrument(note))
	}
	r.out.ResumeNotes()

	fi, err := os.Create(path)
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	defer fi.Close()

	total := sampleRate * 3
	var n int
	var clip beep.StreamerFunc = func(samples [][2]float64) (int, bool) {
		if n >= total {
			return 0, false
		}
		if remain := total - n; remain < len(samples) {
			samples = samples[:remain]
		}
		on, ok := r.out.Stream(samples)
		n += on
		return on, ok
	}

	if err := wav.Encode(fi, clip, beep.Format{
		SampleRate:  sampleRate,
		NumChannels: 2,
		Precision:   2,
	}); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	fmt.Println("wrote", path)
}

func midiDemo() {
	portmidi.Initialize()
	defer portmidi.Terminate()

	r, err := setupRig()
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}

	sr := beep.SampleRate(sampleRate)
	speaker.Init(sr, sr.N(time.Second/10))
	speaker.Play(r.out)

	mc, err := ugen.OpenController(portmidi.DefaultInputDeviceID(), func(freq float64) ugen.Instrument {
		in := r.summer.NextInput()
		inst, err := ugen.NewTone(r.g, freq, 0.3, r.table, r.sumH, in.Name())
		if err != nil {
			fmt.Println("building instrument:", err)
			return nil
		}
		return inst
	})
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	defer mc.Shutdown()

	mc.BindKnob(1, r.filter.GetSetter("cutoff"), func(v int64) float64 {
		return 40 + float64(v)*10000/127
	})

	select {}
}

var keyNotes = map[sdl.Keycode]int64{
	sdl.K_a: 60,
	sdl.K_s: 62,
	sdl.K_d: 64,
	sdl.K_f: 65,
	sdl.K_g: 67,
	sdl.K_h: 69,
	sdl.K_j: 71,
	sdl.K_k: 72,
	sdl.K_l: 74,
}

func drawDemo() {
	if err := sdl.Init(sdl.INIT_EVERYTHING); err != nil {
		fmt.Println("Failed to initialize SDL:", err)
		os.Exit(1)
	}
	defer sdl.Quit()

	window, err := sdl.CreateWindow("ugen scope", sdl.WINDOWPOS_UNDEFINED, sdl.WINDOWPOS_UNDEFINED, screenWidth, screenHeight, sdl.WINDOW_SHOWN)
	if err != nil {
		fmt.Println("Failed to create window:", err)
		os.Exit(1)
	}
	defer window.Destroy()

	renderer, err := sdl.CreateRenderer(window, -1, sdl.RENDERER_ACCELERATED)
	if err != nil {
		fmt.Println("Failed to create renderer:", err)
		os.Exit(1)
	}
	defer renderer.Destroy()

	r, err := setupRig()
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}

	tap := newScopeTap(r.out, 10000)

	sr := beep.SampleRate(sampleRate)
	speaker.Init(sr, sr.N(time.Second/20))
	speaker.Play(tap)

	keystates := make(map[int]bool)
	dataPoints := make([]float64, 2000)

	running := true
	var octaveAdjust int64
	for running {
		for event := sdl.PollEvent(); event != nil; event = sdl.PollEvent() {
			switch event := event.(type) {
			case *sdl.QuitEvent:
				running = false
			case *sdl.KeyboardEvent:
				note, isNote := keyNotes[event.Keysym.Sym]
				if isNote {
					note += octaveAdjust
				}

				if event.Type == sdl.KEYUP {
					v := int(event.Keysym.Sym)
					if keystates[v] {
						delete(keystates, v)
						if isNote {
							r.instrument(note).NoteOff()
						} else {
							switch event.Keysym.Sym {
							case sdl.K_z:
								octaveAdjust -= 12
							case sdl.K_x:
								octaveAdjust += 12
							}
						}
					}
				} else if event.Type == sdl.KEYDOWN {
					if keystates[int(event.Keysym.Sym)] {
						continue
					}
					keystates[int(event.Keysym.Sym)] = true
					if isNote {
						r.instrument(note).NoteOn(0)
					}
				}
			}
		}

		if len(keystates) > 0 {
			tap.Snapshot(dataPoints)
		}

		fftResult := fft.FFTReal(dataPoints)

		magnitudeSpectrum := make([]float64, len(fftResult)/2+1)
		for i, c := range fftResult[:len(magnitudeSpectrum)] {
			magnitudeSpectrum[i] = cmplx.Abs(c) / float64(len(dataPoints))
		}

		renderer.SetDrawColor(255, 255, 255, 255)
		renderer.Clear()

		graphData(renderer, dataPoints[:500], 50, 50, 600, 200, -1, 1)
		graphData(renderer, magnitudeSpectrum[:100], 50, 300, 600, 200, 0, 0.5)

		renderer.Present()
	}
}

func graphData(renderer *sdl.Renderer, dataPoints []float64, x, y, width, height int32, minval, maxval float64) {
	renderer.SetDrawColor(0, 0, 0, 255)
	renderer.DrawLine(x, y+height/2, x+width, y+height/2)
	renderer.DrawLine(x, y, x, y+height)

	spread := maxval - minval
	plot := func(i int) (int32, int32) {
		px := x + int32(float64(i)*float64(width)/float64(len(dataPoints)-1))
		py := y + height - int32((dataPoints[i]-minval)/spread*float64(height))
		return px, py
	}
	renderer.SetDrawColor(255, 0, 0, 255)
	x1, y1 := plot(0)
	for i := 1; i < len(dataPoints); i++ {
		x2, y2 := plot(i)
		renderer.DrawLine(x1, y1, x2, y2)
		x1, y1 = x2, y2
	}
}

func main() {
	cmd := "play"
	if len(os.Args) > 1 {
		cmd = os.Args[1]
	}

	switch cmd {
	case "play":
		playDemo()
	case "draw":
		drawDemo()
	case "midi":
		midiDemo()
	case "render":
		path := "output.wav"
		if len(os.Args) > 2 {
			path = os.Args[2]
		}
		renderDemo(path)
	default:
		fmt.Println("usage: ugendemo [play|draw|midi|render]")
		os.Exit(1)
	}
}
