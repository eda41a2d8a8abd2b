package renderer

import (
	"log"
	"sync"

	"github.com/Carmen-Shannon/automation/tools/worker"
)

// Registry hands out at most one live Renderer per Kind. The first Get for a kind
// constructs it; later Gets return the same instance and ignore their counts until
// Finish evicts it, after which the next Get builds a fresh one.
//
// When built WithExpandWorkers(n >= 2) the registry owns one expand pool shared by every
// renderer it builds. FinishAll stops it; the next Get starts a new one.
type Registry struct {
	mu        *sync.Mutex
	backend   RendererBackend
	options   []RendererBuilderOption
	renderers map[Kind]Renderer

	expandWorkers int
	expandPool    worker.DynamicWorkerPool
}

// NewRegistry creates an empty Registry whose renderers draw through backend.
//
// Parameters:
//   - backend: the backend every renderer is built for
//   - options: RendererBuilderOption values applied to every renderer the registry builds
//
// Returns:
//   - *Registry: the new registry
func NewRegistry(backend RendererBackend, options ...RendererBuilderOption) *Registry {
	scratch := base{}
	for _, opt := range options {
		opt(&scratch)
	}
	return &Registry{
		mu:            &sync.Mutex{},
		backend:       backend,
		options:       options,
		renderers:     make(map[Kind]Renderer),
		expandWorkers: scratch.expandWorkers,
	}
}

// Get returns the live renderer for kind, constructing it with the given counts if none exists.
//
// Parameters:
//   - kind: the drawing strategy
//   - numVertices: vertices per object, used only when constructing
//   - numObjects: number of objects, used only when constructing
//
// Returns:
//   - Renderer: the live renderer for kind
//   - error: an error wrapping ErrUnknownKind if kind is not supported
func (g *Registry) Get(kind Kind, numVertices, numObjects int) (Renderer, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if r, ok := g.renderers[kind]; ok {
		if r.NumVertices() != numVertices || r.NumObjects() != numObjects {
			log.Printf("[Registry] reusing %s renderer %s with %d vertices x %d objects, ignoring requested %d x %d",
				kind, r.ID(), r.NumVertices(), r.NumObjects(), numVertices, numObjects)
		}
		return r, nil
	}

	opts := append([]RendererBuilderOption{}, g.options...)
	if g.expandWorkers >= 2 && kind == KindStandard {
		if g.expandPool == nil {
			g.expandPool = NewExpandPool(g.expandWorkers)
		}
		opts = append(opts, WithExpandPool(g.expandPool))
	}
	opts = append(opts, withFinishHook(g.evict))
	r, err := NewRenderer(kind, g.backend, numVertices, numObjects, opts...)
	if err != nil {
		return nil, err
	}
	g.renderers[kind] = r
	return r, nil
}

// Lookup returns the live renderer for kind without constructing one.
//
// Parameters:
//   - kind: the drawing strategy
//
// Returns:
//   - Renderer: the live renderer, or nil
//   - bool: whether a live renderer exists
func (g *Registry) Lookup(kind Kind) (Renderer, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	r, ok := g.renderers[kind]
	return r, ok
}

// Len returns the number of live renderers.
func (g *Registry) Len() int {
	g.mu.Lock()
	defer g.mu.Unlock()

	return len(g.renderers)
}

// FinishAll finishes every live renderer, leaving the registry empty, and stops the expand pool.
func (g *Registry) FinishAll() {
	g.mu.Lock()
	live := make([]Renderer, 0, len(g.renderers))
	for _, r := range g.renderers {
		live = append(live, r)
	}
	g.mu.Unlock()

	for _, r := range live {
		r.Finish()
	}

	g.mu.Lock()
	pool := g.expandPool
	g.expandPool = nil
	g.mu.Unlock()
	if pool != nil {
		pool.Stop()
	}
}

func (g *Registry) evict(r Renderer) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if cur, ok := g.renderers[r.Kind()]; ok && cur.ID() == r.ID() {
		delete(g.renderers, r.Kind())
	}
}
