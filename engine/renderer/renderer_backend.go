package renderer

import (
	"fmt"
	"strings"

	"github.com/m0ppers/gl-instancing/engine/renderer/shader"
)

// RendererBackendType identifies the GPU backend implementation used by the renderers.
type RendererBackendType int

const (
	// BackendTypeGL selects the OpenGL 3.3 core backend.
	BackendTypeGL RendererBackendType = iota

	// BackendTypeWGPU selects the WebGPU-based rendering backend.
	BackendTypeWGPU
)

func (t RendererBackendType) String() string {
	switch t {
	case BackendTypeGL:
		return "gl"
	case BackendTypeWGPU:
		return "wgpu"
	default:
		return fmt.Sprintf("RendererBackendType(%d)", int(t))
	}
}

// ParseBackendType maps a backend name ("gl" or "wgpu") to its RendererBackendType.
//
// Parameters:
//   - name: the backend name, case-insensitive
//
// Returns:
//   - RendererBackendType: the matching backend type
//   - error: an error if the name is not a known backend
func ParseBackendType(name string) (RendererBackendType, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "gl", "opengl":
		return BackendTypeGL, nil
	case "wgpu", "webgpu":
		return BackendTypeWGPU, nil
	default:
		return 0, fmt.Errorf("backend %q is unknown. Supported backends: gl, wgpu", name)
	}
}

// PresentMode controls how rendered frames are presented to the display surface.
type PresentMode int

const (
	// PresentModeUncapped presents frames immediately without waiting for vertical blank.
	// This is the default so the frame counter measures raw throughput.
	PresentModeUncapped PresentMode = iota

	// PresentModeVSync waits for the next vertical blank before presenting, capping frame rate
	// to the monitor's refresh rate.
	PresentModeVSync
)

// Program is an opaque handle to a linked shader program (GL) or render pipeline (WebGPU).
// The zero value means no program.
type Program uint32

// Buffer is an opaque handle to a GPU vertex buffer. The zero value means no buffer.
type Buffer uint32

// VertexStream binds a GPU buffer to a shader attribute for the duration of a draw.
type VertexStream struct {
	Buffer    Buffer
	Attribute shader.Attribute
}

// RendererBackend is the GPU command surface the renderers draw through.
// Implementations exist for OpenGL and WebGPU; every method must be called from the
// thread that owns the graphics context.
type RendererBackend interface {
	// Type returns the backend's RendererBackendType.
	Type() RendererBackendType

	// CreateProgram compiles and links the shader source for this backend.
	// Compile and link diagnostics are logged and returned in the error.
	//
	// Parameters:
	//   - src: the shader source bundle
	//
	// Returns:
	//   - Program: the program handle
	//   - error: an error if compilation or linking fails
	CreateProgram(src shader.Source) (Program, error)

	// UseProgram makes the program current for subsequent draws.
	//
	// Parameters:
	//   - p: the program to bind
	UseProgram(p Program)

	// ReleaseProgram destroys the program. Releasing the zero Program is a no-op.
	//
	// Parameters:
	//   - p: the program to release
	ReleaseProgram(p Program)

	// CreateVertexBuffer allocates a static GPU vertex buffer and uploads data into it.
	//
	// Parameters:
	//   - label: a debug label for the buffer
	//   - data: the float data to upload
	//
	// Returns:
	//   - Buffer: the buffer handle
	//   - error: an error if the buffer could not be created
	CreateVertexBuffer(label string, data []float32) (Buffer, error)

	// ReleaseBuffer destroys the buffer. Releasing the zero Buffer is a no-op.
	//
	// Parameters:
	//   - b: the buffer to release
	ReleaseBuffer(b Buffer)

	// EnableStream binds the stream's buffer to its attribute location and enables it,
	// with a per-instance divisor when the attribute is per-instance.
	//
	// Parameters:
	//   - s: the stream to enable
	EnableStream(s VertexStream)

	// DisableStream disables the stream's attribute and resets its divisor.
	//
	// Parameters:
	//   - s: the stream to disable
	DisableStream(s VertexStream)

	// DrawArrays draws count vertices as triangles starting at first.
	//
	// Parameters:
	//   - first: the first vertex
	//   - count: the number of vertices
	DrawArrays(first, count int)

	// DrawArraysInstanced draws count vertices as triangles, instances times.
	//
	// Parameters:
	//   - first: the first vertex
	//   - count: the number of vertices per instance
	//   - instances: the number of instances
	DrawArraysInstanced(first, count, instances int)

	// BeginFrame starts a frame and clears the color target.
	//
	// Returns:
	//   - error: an error if the frame target could not be acquired
	BeginFrame() error

	// EndFrame finishes the frame and presents it (buffer swap).
	EndFrame()

	// Resize reconfigures the backend for a new framebuffer size.
	//
	// Parameters:
	//   - width: the new width in pixels
	//   - height: the new height in pixels
	Resize(width, height int)

	// Close releases every resource the backend still owns.
	Close()
}
