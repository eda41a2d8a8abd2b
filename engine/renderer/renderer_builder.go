package renderer

import (
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
)

// RendererBuilderOption is a functional option applied to a renderer during construction via NewRenderer.
type RendererBuilderOption func(*base)

// WithSeed sets the seed of the pseudo-random generator used to build the template and offsets.
// Renderers built with the same seed and counts draw identical geometry.
//
// Parameters:
//   - seed: the generator seed
//
// Returns:
//   - RendererBuilderOption: a function that applies the seed option to a renderer
func WithSeed(seed uint32) RendererBuilderOption {
	return func(b *base) {
		b.seed = seed
	}
}

// WithFlatTemplate zeroes the z coordinate of every template vertex.
//
// Returns:
//   - RendererBuilderOption: a function that applies the flat template option to a renderer
func WithFlatTemplate() RendererBuilderOption {
	return func(b *base) {
		b.flatTemplate = true
	}
}

// WithExpandWorkers splits the standard renderer's host-side expansion into up to workers
// tasks run on the pool given by WithExpandPool. Values below 2, or no pool, expand serially.
// A Registry built with this option creates and owns the pool itself. The instanced renderer
// ignores this option.
//
// Parameters:
//   - workers: the maximum number of pool workers
//
// Returns:
//   - RendererBuilderOption: a function that applies the expand workers option to a renderer
func WithExpandWorkers(workers int) RendererBuilderOption {
	return func(b *base) {
		b.expandWorkers = workers
	}
}

// WithExpandPool sets the worker pool the standard renderer expands on. The pool is owned by
// the caller, outlives the renderer and is never stopped by it.
//
// Parameters:
//   - pool: a running pool, typically from NewExpandPool
//
// Returns:
//   - RendererBuilderOption: a function that applies the expand pool option to a renderer
func WithExpandPool(pool worker.DynamicWorkerPool) RendererBuilderOption {
	return func(b *base) {
		b.expandPool = pool
	}
}

// NewExpandPool creates a worker pool sized for WithExpandWorkers(workers).
//
// Parameters:
//   - workers: the number of pool workers
//
// Returns:
//   - worker.DynamicWorkerPool: the running pool; stop it once no renderer uses it
func NewExpandPool(workers int) worker.DynamicWorkerPool {
	return worker.NewDynamicWorkerPool(workers, workers, 1*time.Second)
}

func withFinishHook(hook func(Renderer)) RendererBuilderOption {
	return func(b *base) {
		b.onFinish = hook
	}
}
