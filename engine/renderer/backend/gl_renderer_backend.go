package backend

import (
	"fmt"
	"log"
	"strings"
	"sync"
	"unsafe"

	"github.com/go-gl/gl/v3.3-core/gl"
	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/m0ppers/gl-instancing/engine/renderer"
	"github.com/m0ppers/gl-instancing/engine/renderer/shader"
	"github.com/m0ppers/gl-instancing/engine/window"
)

type glRendererBackendImpl struct {
	mu     *sync.Mutex
	window window.Window

	// vao is the single vertex array object bound for the backend's lifetime; core profile
	// requires one to be bound for any attribute setup.
	vao uint32

	clearColor mgl32.Vec4
}

var _ renderer.RendererBackend = &glRendererBackendImpl{}

// newGLRendererBackend loads the GL function pointers for the window's current context and
// sets up the shared vertex array and clear state.
func newGLRendererBackend(win window.Window, cfg backendConfig) (*glRendererBackendImpl, error) {
	if win.ClientAPI() != window.ClientAPIOpenGL {
		return nil, fmt.Errorf("window has no OpenGL context (client API %s)", win.ClientAPI())
	}
	if err := gl.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize OpenGL: %w", err)
	}
	log.Printf("[Renderer] OpenGL version: %s", gl.GoStr(gl.GetString(gl.VERSION)))
	log.Printf("[Renderer] OpenGL renderer: %s (%s)", gl.GoStr(gl.GetString(gl.RENDERER)), gl.GoStr(gl.GetString(gl.VENDOR)))
	log.Printf("[Renderer] GLSL version: %s", gl.GoStr(gl.GetString(gl.SHADING_LANGUAGE_VERSION)))

	b := &glRendererBackendImpl{
		mu:         &sync.Mutex{},
		window:     win,
		clearColor: cfg.clearColor,
	}

	gl.GenVertexArrays(1, &b.vao)
	gl.BindVertexArray(b.vao)
	gl.ClearColor(b.clearColor[0], b.clearColor[1], b.clearColor[2], b.clearColor[3])
	b.setSwapInterval(cfg.presentMode)
	b.Resize(win.Width(), win.Height())

	return b, nil
}

func (b *glRendererBackendImpl) setSwapInterval(mode renderer.PresentMode) {
	switch mode {
	case renderer.PresentModeVSync:
		glfw.SwapInterval(1)
	default:
		glfw.SwapInterval(0)
	}
}

func (b *glRendererBackendImpl) Type() renderer.RendererBackendType {
	return renderer.BackendTypeGL
}

func (b *glRendererBackendImpl) CreateProgram(src shader.Source) (renderer.Program, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	vs, err := compileGLShader(src.GLSL(shader.ShaderTypeVertex), gl.VERTEX_SHADER)
	if err != nil {
		return 0, fmt.Errorf("%s %s shader: %w", src.Key, shader.ShaderTypeVertex, err)
	}
	defer gl.DeleteShader(vs)

	fs, err := compileGLShader(src.GLSL(shader.ShaderTypeFragment), gl.FRAGMENT_SHADER)
	if err != nil {
		return 0, fmt.Errorf("%s %s shader: %w", src.Key, shader.ShaderTypeFragment, err)
	}
	defer gl.DeleteShader(fs)

	program := gl.CreateProgram()
	gl.AttachShader(program, vs)
	gl.AttachShader(program, fs)
	gl.LinkProgram(program)

	var status int32
	gl.GetProgramiv(program, gl.LINK_STATUS, &status)
	if status == gl.FALSE {
		var logLength int32
		gl.GetProgramiv(program, gl.INFO_LOG_LENGTH, &logLength)
		infoLog := strings.Repeat("\x00", int(logLength+1))
		gl.GetProgramInfoLog(program, logLength, nil, gl.Str(infoLog))
		gl.DeleteProgram(program)

		msg := strings.TrimRight(infoLog, "\x00")
		log.Printf("[Renderer] failed to link %s program: %s", src.Key, msg)
		return 0, fmt.Errorf("failed to link %s program: %s", src.Key, msg)
	}

	gl.DetachShader(program, vs)
	gl.DetachShader(program, fs)

	return renderer.Program(program), nil
}

// compileGLShader compiles a single GLSL stage, logging the info log on failure.
func compileGLShader(source string, shaderType uint32) (uint32, error) {
	s := gl.CreateShader(shaderType)

	csources, free := gl.Strs(source + "\x00")
	gl.ShaderSource(s, 1, csources, nil)
	free()
	gl.CompileShader(s)

	var status int32
	gl.GetShaderiv(s, gl.COMPILE_STATUS, &status)
	if status == gl.FALSE {
		var logLength int32
		gl.GetShaderiv(s, gl.INFO_LOG_LENGTH, &logLength)
		infoLog := strings.Repeat("\x00", int(logLength+1))
		gl.GetShaderInfoLog(s, logLength, nil, gl.Str(infoLog))
		gl.DeleteShader(s)

		msg := strings.TrimRight(infoLog, "\x00")
		log.Printf("[Renderer] shader compile failed: %s", msg)
		return 0, fmt.Errorf("failed to compile: %s", msg)
	}

	return s, nil
}

func (b *glRendererBackendImpl) UseProgram(p renderer.Program) {
	gl.UseProgram(uint32(p))
}

func (b *glRendererBackendImpl) ReleaseProgram(p renderer.Program) {
	if p == 0 {
		return
	}
	gl.DeleteProgram(uint32(p))
}

func (b *glRendererBackendImpl) CreateVertexBuffer(label string, data []float32) (renderer.Buffer, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	var vbo uint32
	gl.GenBuffers(1, &vbo)
	gl.BindBuffer(gl.ARRAY_BUFFER, vbo)

	// gl.Ptr panics on an empty slice
	var ptr unsafe.Pointer
	if len(data) > 0 {
		ptr = gl.Ptr(data)
	}
	gl.BufferData(gl.ARRAY_BUFFER, len(data)*4, ptr, gl.STATIC_DRAW)
	gl.BindBuffer(gl.ARRAY_BUFFER, 0)

	if code := gl.GetError(); code != gl.NO_ERROR {
		gl.DeleteBuffers(1, &vbo)
		return 0, fmt.Errorf("failed to upload %s (%d bytes): GL error 0x%x", label, len(data)*4, code)
	}

	return renderer.Buffer(vbo), nil
}

func (b *glRendererBackendImpl) ReleaseBuffer(buf renderer.Buffer) {
	if buf == 0 {
		return
	}
	id := uint32(buf)
	gl.DeleteBuffers(1, &id)
}

func (b *glRendererBackendImpl) EnableStream(s renderer.VertexStream) {
	loc := s.Attribute.Location

	gl.EnableVertexAttribArray(loc)
	gl.BindBuffer(gl.ARRAY_BUFFER, uint32(s.Buffer))
	gl.VertexAttribPointer(loc, int32(s.Attribute.Components), gl.FLOAT, false, 0, gl.PtrOffset(0))
	if s.Attribute.PerInstance {
		gl.VertexAttribDivisor(loc, 1)
	}
}

func (b *glRendererBackendImpl) DisableStream(s renderer.VertexStream) {
	loc := s.Attribute.Location

	if s.Attribute.PerInstance {
		gl.VertexAttribDivisor(loc, 0)
	}
	gl.DisableVertexAttribArray(loc)
}

func (b *glRendererBackendImpl) DrawArrays(first, count int) {
	gl.DrawArrays(gl.TRIANGLES, int32(first), int32(count))
}

func (b *glRendererBackendImpl) DrawArraysInstanced(first, count, instances int) {
	gl.DrawArraysInstanced(gl.TRIANGLES, int32(first), int32(count), int32(instances))
}

func (b *glRendererBackendImpl) BeginFrame() error {
	gl.Clear(gl.COLOR_BUFFER_BIT)
	return nil
}

func (b *glRendererBackendImpl) EndFrame() {
	b.window.SwapBuffers()
}

func (b *glRendererBackendImpl) Resize(width, height int) {
	if width <= 0 || height <= 0 {
		return
	}
	gl.Viewport(0, 0, int32(width), int32(height))
}

func (b *glRendererBackendImpl) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.vao != 0 {
		gl.BindVertexArray(0)
		gl.DeleteVertexArrays(1, &b.vao)
		b.vao = 0
	}
}
