package renderer

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/google/uuid"
	"github.com/m0ppers/gl-instancing/engine/geometry"
	"github.com/m0ppers/gl-instancing/engine/renderer/shader"
)

// ErrUnknownKind is returned when a renderer name does not match any Kind.
var ErrUnknownKind = errors.New("unknown renderer")

// Kind selects the drawing strategy of a Renderer. It is fixed at construction.
type Kind int

const (
	// KindStandard expands every instance into one vertex buffer and issues one draw per object.
	KindStandard Kind = iota + 1

	// KindInstanced uploads the template once plus a per-instance offset buffer and issues a
	// single instanced draw.
	KindInstanced
)

// Kinds returns every supported Kind in name order.
func Kinds() []Kind {
	return []Kind{KindInstanced, KindStandard}
}

func (k Kind) String() string {
	switch k {
	case KindStandard:
		return "standard"
	case KindInstanced:
		return "instanced"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// ParseKind maps a renderer name to its Kind.
//
// Parameters:
//   - name: "standard" or "instanced"
//
// Returns:
//   - Kind: the matching Kind
//   - error: an error wrapping ErrUnknownKind for any other name
func ParseKind(name string) (Kind, error) {
	for _, k := range Kinds() {
		if k.String() == name {
			return k, nil
		}
	}
	names := make([]string, 0, len(Kinds()))
	for _, k := range Kinds() {
		names = append(names, k.String())
	}
	return 0, fmt.Errorf("%w: renderer %s is unknown. Supported renderers: %s", ErrUnknownKind, name, strings.Join(names, ", "))
}

// Renderer draws numObjects copies of a numVertices template through a RendererBackend.
//
// The lifecycle is strict: Prepare once, Draw once per frame, Finish once at shutdown.
// Both counts are fixed for the lifetime of the Renderer.
type Renderer interface {
	// ID returns the unique identity of this renderer instance.
	//
	// Returns:
	//   - uuid.UUID: the instance identity
	ID() uuid.UUID

	// Kind returns the drawing strategy of this renderer.
	//
	// Returns:
	//   - Kind: the renderer kind
	Kind() Kind

	// NumVertices returns the number of vertices per object.
	//
	// Returns:
	//   - int: vertices per object
	NumVertices() int

	// NumObjects returns the number of objects drawn each frame.
	//
	// Returns:
	//   - int: object count
	NumObjects() int

	// Shader returns the shader sources the renderer's program must be built from.
	//
	// Returns:
	//   - shader.Source: the shader source bundle
	Shader() shader.Source

	// Prepare generates the host-side geometry and uploads it into GPU buffers.
	// Attribute locations are fixed by the shader sources, so the program is not queried.
	// Calling Prepare more than once is not supported.
	//
	// Parameters:
	//   - program: the program built from Shader()
	//
	// Returns:
	//   - error: an error if a GPU buffer could not be created
	Prepare(program Program) error

	// Draw issues the draw commands for one frame. Every attribute stream enabled by Draw
	// is disabled again before it returns.
	Draw()

	// Finish releases all host and GPU memory owned by the renderer. It is safe to call
	// without a prior Prepare. After Finish the renderer must not be used again.
	Finish()
}

// base holds the state shared by every Renderer implementation.
type base struct {
	mu *sync.Mutex

	id          uuid.UUID
	kind        Kind
	backend     RendererBackend
	numVertices int
	numObjects  int

	seed          uint32
	flatTemplate  bool
	expandWorkers int
	expandPool    worker.DynamicWorkerPool

	onFinish func(Renderer)
	finished bool
}

// NewRenderer constructs a Renderer of the given kind directly, outside of any Registry.
//
// Parameters:
//   - kind: the drawing strategy
//   - backend: the backend the renderer draws through
//   - numVertices: vertices per object
//   - numObjects: number of objects
//   - options: variadic list of RendererBuilderOption functions
//
// Returns:
//   - Renderer: the new renderer
//   - error: an error wrapping ErrUnknownKind if kind is not supported
func NewRenderer(kind Kind, backend RendererBackend, numVertices, numObjects int, options ...RendererBuilderOption) (Renderer, error) {
	b := base{
		mu:          &sync.Mutex{},
		id:          uuid.New(),
		kind:        kind,
		backend:     backend,
		numVertices: numVertices,
		numObjects:  numObjects,
		seed:        geometry.DefaultSeed,
	}
	for _, opt := range options {
		opt(&b)
	}

	var r Renderer
	switch kind {
	case KindStandard:
		r = &standardRenderer{base: b}
	case KindInstanced:
		r = &instancedRenderer{base: b}
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownKind, kind)
	}

	log.Printf("[Renderer] working with %s renderer (%d vertices x %d objects, seed %d)", kind, numVertices, numObjects, b.seed)
	return r, nil
}

func (b *base) ID() uuid.UUID {
	return b.id
}

func (b *base) Kind() Kind {
	return b.kind
}

func (b *base) NumVertices() int {
	return b.numVertices
}

func (b *base) NumObjects() int {
	return b.numObjects
}

// generator returns a fresh generator and the template drawn from it. The offsets must be
// drawn from the same generator afterwards.
func (b *base) generator() (*geometry.Generator, geometry.Template) {
	g := geometry.NewGenerator(b.seed)
	var opts []geometry.TemplateOption
	if b.flatTemplate {
		opts = append(opts, geometry.WithFlatTemplate())
	}
	return g, g.Template(b.numVertices, opts...)
}

func (b *base) label(part string) string {
	return b.kind.String() + " " + part
}

// release frees the given buffers and runs the finish hook exactly once.
func (b *base) release(self Renderer, buffers ...*Buffer) {
	for _, buf := range buffers {
		if *buf != 0 {
			b.backend.ReleaseBuffer(*buf)
			*buf = 0
		}
	}

	b.mu.Lock()
	already := b.finished
	b.finished = true
	hook := b.onFinish
	b.mu.Unlock()

	if !already && hook != nil {
		hook(self)
	}
}
