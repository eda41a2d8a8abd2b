package engine

import (
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/m0ppers/gl-instancing/engine/profiler"
	"github.com/m0ppers/gl-instancing/engine/renderer"
	"github.com/m0ppers/gl-instancing/engine/window"
)

type engine struct {
	quitChannel chan struct{}
	quitOnce    sync.Once // Ensures quitChannel is only closed once

	window  window.Window
	backend renderer.RendererBackend

	profiler         *profiler.Profiler
	profilingEnabled bool

	frameCallback func(frame int, deltaTime float32)

	renderFrameLimit time.Duration // minimum frame duration; 0 = uncapped
	runDuration      time.Duration // 0 = until the window closes

	now   func() time.Time
	stats Stats
}

// Stats summarizes the most recent Run.
type Stats struct {
	// Frames is the number of completed frames.
	Frames int

	// Elapsed is the wall time spent in the frame loop.
	Elapsed time.Duration

	// AverageFPS is Frames divided by Elapsed.
	AverageFPS float64
}

// Engine drives a single Renderer: it builds the renderer's program, prepares it and runs the
// frame loop on the calling goroutine, which must be locked to the main OS thread.
type Engine interface {
	// Window returns the window the engine presents to.
	//
	// Returns:
	//   - window.Window: the engine window
	Window() window.Window

	// Backend returns the backend the engine draws through.
	//
	// Returns:
	//   - renderer.RendererBackend: the engine backend
	Backend() renderer.RendererBackend

	// EnableProfiler turns on the once-per-interval frame rate report.
	EnableProfiler()

	// DisableProfiler turns off the frame rate report.
	DisableProfiler()

	// SetFrameCallback sets the function called after every completed frame.
	//
	// Parameters:
	//   - callback: function receiving the frame index and the time since the previous frame
	SetFrameCallback(callback func(frame int, deltaTime float32))

	// SetRenderFrameLimit sets an optional render frame rate cap in frames per second.
	//
	// Parameters:
	//   - fps: maximum render frames per second (0 = uncapped)
	SetRenderFrameLimit(fps float64)

	// Run creates the renderer's program, prepares the renderer and draws it every frame until
	// the window closes, Quit is called or the run duration elapses. The renderer is finished
	// and the program released before Run returns, on success and on failure.
	//
	// Parameters:
	//   - r: the renderer to draw
	//
	// Returns:
	//   - error: an error wrapping ErrProgramCreation or ErrResourceCreation
	Run(r renderer.Renderer) error

	// Quit stops the frame loop after the in-flight frame. Safe to call from any goroutine.
	Quit()

	// Stats returns the statistics of the most recent Run.
	//
	// Returns:
	//   - Stats: frames, elapsed time and average frame rate
	Stats() Stats
}

var _ Engine = &engine{}

// NewEngine creates a new Engine with the specified options.
// WithWindow and WithBackend are required before Run.
//
// Parameters:
//   - options: variadic list of EngineBuilderOption functions
//
// Returns:
//   - Engine: the configured engine
func NewEngine(options ...EngineBuilderOption) Engine {
	e := &engine{
		quitChannel:      make(chan struct{}),
		profiler:         profiler.NewProfiler(),
		profilingEnabled: false,
		now:              time.Now,
	}

	for _, opt := range options {
		opt(e)
	}

	if e.window != nil {
		e.window.SetResizeCallback(func(width, height int) {
			if e.backend != nil {
				e.backend.Resize(width, height)
			}
		})
		e.window.SetKeyDownCallback(func(keyCode uint32) {
			if keyCode == uint32(glfw.KeyQ) {
				e.Quit()
			}
		})
	}

	return e
}

func (e *engine) Window() window.Window {
	return e.window
}

func (e *engine) Backend() renderer.RendererBackend {
	return e.backend
}

func (e *engine) EnableProfiler() {
	e.profilingEnabled = true
}

func (e *engine) DisableProfiler() {
	e.profilingEnabled = false
}

func (e *engine) SetFrameCallback(callback func(frame int, deltaTime float32)) {
	e.frameCallback = callback
}

func (e *engine) SetRenderFrameLimit(fps float64) {
	if fps <= 0 {
		e.renderFrameLimit = 0
		return
	}
	e.renderFrameLimit = time.Duration(float64(time.Second) / fps)
}

func (e *engine) Quit() {
	e.quitOnce.Do(func() {
		close(e.quitChannel)
	})
}

func (e *engine) quitting() bool {
	select {
	case <-e.quitChannel:
		return true
	default:
		return false
	}
}

func (e *engine) Stats() Stats {
	return e.stats
}

func (e *engine) Run(r renderer.Renderer) error {
	if e.window == nil || e.backend == nil {
		return fmt.Errorf("%w: engine needs a window and a backend", ErrResourceCreation)
	}
	defer r.Finish()

	program, err := e.backend.CreateProgram(r.Shader())
	if err != nil {
		return fmt.Errorf("%w: %w", ErrProgramCreation, err)
	}
	defer e.backend.ReleaseProgram(program)

	if err := r.Prepare(program); err != nil {
		return fmt.Errorf("%w: %w", ErrResourceCreation, err)
	}

	log.Printf("[Engine] drawing %d objects x %d vertices with the %s renderer on %s",
		r.NumObjects(), r.NumVertices(), r.Kind(), e.backend.Type())

	e.stats = Stats{}
	if e.profilingEnabled {
		e.profiler.Reset()
	}

	start := e.now()
	lastFrame := start
	e.window.SetUpdateCallback(func() bool {
		if e.quitting() {
			return false
		}
		frameStart := e.now()
		if e.runDuration > 0 && frameStart.Sub(start) >= e.runDuration {
			return false
		}

		if e.profilingEnabled {
			e.profiler.Tick()
		}

		if err := e.backend.BeginFrame(); err != nil {
			log.Printf("[Engine] skipping frame: %v", err)
			return true
		}
		e.backend.UseProgram(program)
		r.Draw()
		e.backend.EndFrame()

		dt := float32(frameStart.Sub(lastFrame).Seconds())
		lastFrame = frameStart
		if e.frameCallback != nil {
			e.frameCallback(e.stats.Frames, dt)
		}
		e.stats.Frames++

		if e.renderFrameLimit > 0 {
			if remaining := e.renderFrameLimit - e.now().Sub(frameStart); remaining > 0 {
				time.Sleep(remaining)
			}
		}
		return true
	})
	e.window.ProcessMessages()
	e.window.SetUpdateCallback(nil)

	e.stats.Elapsed = e.now().Sub(start)
	if e.stats.Elapsed > 0 {
		e.stats.AverageFPS = float64(e.stats.Frames) / e.stats.Elapsed.Seconds()
	}
	log.Printf("[Engine] %d frames in %s (%.1f fps average)", e.stats.Frames, e.stats.Elapsed.Round(time.Millisecond), e.stats.AverageFPS)

	return nil
}
