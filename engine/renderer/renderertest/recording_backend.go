// Package renderertest provides a GPU-free renderer.RendererBackend that records every
// command it receives, for use in tests.
package renderertest

import (
	"slices"
	"sync"

	"github.com/m0ppers/gl-instancing/engine/renderer"
	"github.com/m0ppers/gl-instancing/engine/renderer/shader"
)

// Operation names recorded by RecordingBackend.
const (
	OpCreateProgram       = "CreateProgram"
	OpUseProgram          = "UseProgram"
	OpReleaseProgram      = "ReleaseProgram"
	OpCreateVertexBuffer  = "CreateVertexBuffer"
	OpReleaseBuffer       = "ReleaseBuffer"
	OpEnableStream        = "EnableStream"
	OpDisableStream       = "DisableStream"
	OpDrawArrays          = "DrawArrays"
	OpDrawArraysInstanced = "DrawArraysInstanced"
	OpBeginFrame          = "BeginFrame"
	OpEndFrame            = "EndFrame"
	OpResize              = "Resize"
	OpClose               = "Close"
)

// Call is one recorded backend command and its integer arguments.
type Call struct {
	Op   string
	Args []int
}

// RecordingBackend is an in-memory renderer.RendererBackend.
type RecordingBackend struct {
	mu *sync.Mutex

	// FailProgram, when set, is returned by CreateProgram.
	FailProgram error

	// FailBuffer, when set, is returned by CreateVertexBuffer once FailBufferAfter buffers
	// have been created successfully.
	FailBuffer      error
	FailBufferAfter int

	// FailFrame, when set, is returned by BeginFrame.
	FailFrame error

	calls      []Call
	next       uint32
	programs   map[renderer.Program]shader.Source
	buffers    map[renderer.Buffer][]float32
	labels     map[renderer.Buffer]string
	enabled    map[uint32]renderer.VertexStream
	created    int
	closed     bool
	current    renderer.Program
	drawnVerts int
}

var _ renderer.RendererBackend = &RecordingBackend{}

// New returns an empty RecordingBackend.
func New() *RecordingBackend {
	return &RecordingBackend{
		mu:       &sync.Mutex{},
		programs: make(map[renderer.Program]shader.Source),
		buffers:  make(map[renderer.Buffer][]float32),
		labels:   make(map[renderer.Buffer]string),
		enabled:  make(map[uint32]renderer.VertexStream),
	}
}

func (b *RecordingBackend) record(op string, args ...int) {
	b.calls = append(b.calls, Call{Op: op, Args: args})
}

func (b *RecordingBackend) Type() renderer.RendererBackendType {
	return renderer.BackendTypeGL
}

func (b *RecordingBackend) CreateProgram(src shader.Source) (renderer.Program, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.record(OpCreateProgram)
	if b.FailProgram != nil {
		return 0, b.FailProgram
	}
	b.next++
	p := renderer.Program(b.next)
	b.programs[p] = src
	return p, nil
}

func (b *RecordingBackend) UseProgram(p renderer.Program) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.record(OpUseProgram, int(p))
	b.current = p
}

func (b *RecordingBackend) ReleaseProgram(p renderer.Program) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if p == 0 {
		return
	}
	b.record(OpReleaseProgram, int(p))
	delete(b.programs, p)
}

func (b *RecordingBackend) CreateVertexBuffer(label string, data []float32) (renderer.Buffer, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.record(OpCreateVertexBuffer, len(data))
	if b.FailBuffer != nil && b.created >= b.FailBufferAfter {
		return 0, b.FailBuffer
	}
	b.created++
	b.next++
	buf := renderer.Buffer(b.next)
	b.buffers[buf] = slices.Clone(data)
	b.labels[buf] = label
	return buf, nil
}

func (b *RecordingBackend) ReleaseBuffer(buf renderer.Buffer) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if buf == 0 {
		return
	}
	b.record(OpReleaseBuffer, int(buf))
	delete(b.buffers, buf)
	delete(b.labels, buf)
}

func (b *RecordingBackend) EnableStream(s renderer.VertexStream) {
	b.mu.Lock()
	defer b.mu.Unlock()

	divisor := 0
	if s.Attribute.PerInstance {
		divisor = 1
	}
	b.record(OpEnableStream, int(s.Attribute.Location), int(s.Buffer), divisor)
	b.enabled[s.Attribute.Location] = s
}

func (b *RecordingBackend) DisableStream(s renderer.VertexStream) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.record(OpDisableStream, int(s.Attribute.Location))
	delete(b.enabled, s.Attribute.Location)
}

func (b *RecordingBackend) DrawArrays(first, count int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.record(OpDrawArrays, first, count)
	b.drawnVerts += count
}

func (b *RecordingBackend) DrawArraysInstanced(first, count, instances int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.record(OpDrawArraysInstanced, first, count, instances)
	b.drawnVerts += count * instances
}

func (b *RecordingBackend) BeginFrame() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.record(OpBeginFrame)
	if b.FailFrame != nil {
		return b.FailFrame
	}
	return nil
}

func (b *RecordingBackend) EndFrame() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.record(OpEndFrame)
}

func (b *RecordingBackend) Resize(width, height int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.record(OpResize, width, height)
}

func (b *RecordingBackend) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.record(OpClose)
	b.closed = true
}

// Mark records an arbitrary op, letting fakes interleave their own events with backend calls.
func (b *RecordingBackend) Mark(op string, args ...int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.record(op, args...)
}

// Calls returns a copy of every recorded call in order.
func (b *RecordingBackend) Calls() []Call {
	b.mu.Lock()
	defer b.mu.Unlock()

	return slices.Clone(b.calls)
}

// Ops returns the recorded operation names in order.
func (b *RecordingBackend) Ops() []string {
	b.mu.Lock()
	defer b.mu.Unlock()

	ops := make([]string, len(b.calls))
	for i, c := range b.calls {
		ops[i] = c.Op
	}
	return ops
}

// Count returns how many times op was recorded.
func (b *RecordingBackend) Count(op string) int {
	b.mu.Lock()
	defer b.mu.Unlock()

	n := 0
	for _, c := range b.calls {
		if c.Op == op {
			n++
		}
	}
	return n
}

// CallsOf returns every recorded call of op in order.
func (b *RecordingBackend) CallsOf(op string) []Call {
	b.mu.Lock()
	defer b.mu.Unlock()

	var out []Call
	for _, c := range b.calls {
		if c.Op == op {
			out = append(out, c)
		}
	}
	return out
}

// DrawCalls returns the number of draw commands of either kind.
func (b *RecordingBackend) DrawCalls() int {
	return b.Count(OpDrawArrays) + b.Count(OpDrawArraysInstanced)
}

// DrawnVertices returns the total number of vertices submitted across all draws.
func (b *RecordingBackend) DrawnVertices() int {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.drawnVerts
}

// BufferData returns a copy of the data uploaded into buf, if it is still live.
func (b *RecordingBackend) BufferData(buf renderer.Buffer) ([]float32, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	data, ok := b.buffers[buf]
	return slices.Clone(data), ok
}

// BufferByLabel returns the live buffer created with label.
func (b *RecordingBackend) BufferByLabel(label string) (renderer.Buffer, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for buf, l := range b.labels {
		if l == label {
			return buf, true
		}
	}
	return 0, false
}

// LiveBuffers returns the number of created buffers not yet released.
func (b *RecordingBackend) LiveBuffers() int {
	b.mu.Lock()
	defer b.mu.Unlock()

	return len(b.buffers)
}

// LivePrograms returns the number of created programs not yet released.
func (b *RecordingBackend) LivePrograms() int {
	b.mu.Lock()
	defer b.mu.Unlock()

	return len(b.programs)
}

// EnabledLocations returns the attribute locations currently enabled, sorted.
func (b *RecordingBackend) EnabledLocations() []uint32 {
	b.mu.Lock()
	defer b.mu.Unlock()

	locs := make([]uint32, 0, len(b.enabled))
	for loc := range b.enabled {
		locs = append(locs, loc)
	}
	slices.Sort(locs)
	return locs
}

// CurrentProgram returns the program most recently passed to UseProgram.
func (b *RecordingBackend) CurrentProgram() renderer.Program {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.current
}

// Closed reports whether Close was called.
func (b *RecordingBackend) Closed() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.closed
}

// Reset clears the recorded call log without touching live resources.
func (b *RecordingBackend) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.calls = nil
	b.drawnVerts = 0
}
