package engine

import (
	"time"

	"github.com/m0ppers/gl-instancing/engine/profiler"
	"github.com/m0ppers/gl-instancing/engine/renderer"
	"github.com/m0ppers/gl-instancing/engine/window"
)

// EngineBuilderOption is a functional option for configuring an Engine.
// Use the With* functions to create options that are applied directly to the engine instance.
type EngineBuilderOption func(*engine)

// WithProfiling enables or disables performance profiling output.
//
// Parameters:
//   - enabled: if true, enables performance profiling
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithProfiling(enabled bool) EngineBuilderOption {
	return func(e *engine) {
		e.profilingEnabled = enabled
	}
}

// WithProfiler replaces the default profiler, e.g. to enable memory statistics.
//
// Parameters:
//   - p: the profiler to tick every frame
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithProfiler(p *profiler.Profiler) EngineBuilderOption {
	return func(e *engine) {
		e.profiler = p
	}
}

// WithWindow sets the window the engine presents to and polls.
//
// Parameters:
//   - w: a created Window instance
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithWindow(w window.Window) EngineBuilderOption {
	return func(e *engine) {
		e.window = w
	}
}

// WithBackend sets the backend the engine builds programs and draws through.
//
// Parameters:
//   - b: a created RendererBackend
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithBackend(b renderer.RendererBackend) EngineBuilderOption {
	return func(e *engine) {
		e.backend = b
	}
}

// WithRunDuration stops every Run after the given wall time. Pass 0 to run until the window closes (default).
//
// Parameters:
//   - d: the run duration
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithRunDuration(d time.Duration) EngineBuilderOption {
	return func(e *engine) {
		if d < 0 {
			d = 0
		}
		e.runDuration = d
	}
}

// WithRenderFrameLimit sets an optional render frame rate cap in frames per second.
// Pass 0 to uncap the render loop (default).
//
// Parameters:
//   - fps: maximum render frames per second (0 = uncapped)
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithRenderFrameLimit(fps float64) EngineBuilderOption {
	return func(e *engine) {
		e.SetRenderFrameLimit(fps)
	}
}

// WithFrameCallback sets the function called after every completed frame.
//
// Parameters:
//   - callback: function receiving the frame index and the time since the previous frame
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithFrameCallback(callback func(frame int, deltaTime float32)) EngineBuilderOption {
	return func(e *engine) {
		e.frameCallback = callback
	}
}
