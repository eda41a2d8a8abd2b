package backend

import (
	"errors"
	"fmt"
	"log"
	"runtime"
	"sync"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/m0ppers/gl-instancing/common"
	"github.com/m0ppers/gl-instancing/engine/renderer"
	"github.com/m0ppers/gl-instancing/engine/renderer/shader"
	"github.com/m0ppers/gl-instancing/engine/window"
)

// wgpuProgram is a render pipeline plus the shader source it was built from; the source
// maps attribute locations to vertex buffer slots.
type wgpuProgram struct {
	pipeline *wgpu.RenderPipeline
	source   shader.Source
}

type wgpuRendererBackendImpl struct {
	mu     *sync.Mutex
	device *wgpu.Device
	queue  *wgpu.Queue

	instance *wgpu.Instance
	adapter  *wgpu.Adapter
	surface  *wgpu.Surface

	surfaceFormat        *wgpu.TextureFormat
	renderPassDescriptor *wgpu.RenderPassDescriptor

	presentMode wgpu.PresentMode // defaults to PresentModeImmediate (Uncapped)
	clearColor  wgpu.Color

	// Frame state for batched rendering across multiple draw calls
	frameEncoder *wgpu.CommandEncoder
	framePass    *wgpu.RenderPassEncoder
	frameSurface *wgpu.Texture
	frameView    *wgpu.TextureView

	next     uint32
	programs map[renderer.Program]*wgpuProgram
	buffers  map[renderer.Buffer]*wgpu.Buffer
	current  *wgpuProgram
}

var _ renderer.RendererBackend = &wgpuRendererBackendImpl{}

func newWGPURendererBackend(win window.Window, cfg backendConfig) (*wgpuRendererBackendImpl, error) {
	runtime.LockOSThread()

	surfaceDescriptor := win.SurfaceDescriptor()
	if surfaceDescriptor == nil {
		return nil, errors.New("window has no surface descriptor")
	}

	w := &wgpuRendererBackendImpl{
		mu:          &sync.Mutex{},
		instance:    wgpu.CreateInstance(nil),
		presentMode: wgpu.PresentModeImmediate,
		clearColor: wgpu.Color{
			R: float64(cfg.clearColor[0]),
			G: float64(cfg.clearColor[1]),
			B: float64(cfg.clearColor[2]),
			A: float64(cfg.clearColor[3]),
		},
		programs: make(map[renderer.Program]*wgpuProgram),
		buffers:  make(map[renderer.Buffer]*wgpu.Buffer),
	}
	if cfg.presentMode == renderer.PresentModeVSync {
		w.presentMode = wgpu.PresentModeFifo
	}
	w.surface = w.instance.CreateSurface(surfaceDescriptor)

	a, err := w.instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		ForceFallbackAdapter: cfg.forceFallbackAdapter,
		CompatibleSurface:    w.surface,
	})
	if err != nil {
		w.Close()
		return nil, fmt.Errorf("failed to request adapter: %w", err)
	}
	w.adapter = a

	d, err := a.RequestDevice(&wgpu.DeviceDescriptor{
		Label: "Main Device",
	})
	if err != nil {
		w.Close()
		return nil, fmt.Errorf("failed to request device: %w", err)
	}
	w.device = d
	w.queue = d.GetQueue()
	log.Printf("[Renderer] WebGPU device ready (fallback adapter: %t)", cfg.forceFallbackAdapter)

	w.Resize(win.Width(), win.Height())

	return w, nil
}

func (b *wgpuRendererBackendImpl) Type() renderer.RendererBackendType {
	return renderer.BackendTypeWGPU
}

// Resize is a wrapper for boilerplate logic required when calling Configure on a surface.
// A zero-sized framebuffer (minimized window) keeps the previous configuration.
func (b *wgpuRendererBackendImpl) Resize(width, height int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if width <= 0 || height <= 0 {
		return
	}

	capabilities := b.surface.GetCapabilities(b.adapter)
	b.surfaceFormat = &capabilities.Formats[0]

	b.surface.Configure(b.adapter, b.device, &wgpu.SurfaceConfiguration{
		Usage:       wgpu.TextureUsageRenderAttachment,
		Format:      *b.surfaceFormat,
		Width:       uint32(width),
		Height:      uint32(height),
		PresentMode: b.presentMode,
		AlphaMode:   capabilities.AlphaModes[0],
	})

	b.renderPassDescriptor = &wgpu.RenderPassDescriptor{
		ColorAttachments: []wgpu.RenderPassColorAttachment{
			{
				View:       nil, // set per-frame to the swapchain view
				LoadOp:     wgpu.LoadOpClear,
				StoreOp:    wgpu.StoreOpStore,
				ClearValue: b.clearColor,
			},
		},
	}
}

func (b *wgpuRendererBackendImpl) CreateProgram(src shader.Source) (renderer.Program, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.surfaceFormat == nil {
		return 0, errors.New("surface is not configured")
	}

	module, err := b.device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label: src.Key,
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{
			Code: src.WGSL,
		},
	})
	if err != nil {
		log.Printf("[Renderer] failed to compile %s shader module: %v", src.Key, err)
		return 0, fmt.Errorf("failed to compile %s shader module: %w", src.Key, err)
	}
	defer module.Release()

	pipelineLayout, err := b.device.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		Label: src.Key,
	})
	if err != nil {
		return 0, fmt.Errorf("failed to create %s pipeline layout: %w", src.Key, err)
	}
	defer pipelineLayout.Release()

	// one buffer slot per attribute, in Attributes order
	vertexLayouts := make([]wgpu.VertexBufferLayout, 0, len(src.Attributes))
	for _, a := range src.Attributes {
		format, err := vertexFormat(a.Components)
		if err != nil {
			return 0, fmt.Errorf("%s attribute %s: %w", src.Key, a.Name, err)
		}
		stepMode := wgpu.VertexStepModeVertex
		if a.PerInstance {
			stepMode = wgpu.VertexStepModeInstance
		}
		vertexLayouts = append(vertexLayouts, wgpu.VertexBufferLayout{
			ArrayStride: uint64(a.Stride()),
			StepMode:    stepMode,
			Attributes: []wgpu.VertexAttribute{
				{
					Format:         format,
					Offset:         0,
					ShaderLocation: a.Location,
				},
			},
		})
	}

	created, err := b.device.CreateRenderPipeline(&wgpu.RenderPipelineDescriptor{
		Label:  src.Key + " Render Pipeline",
		Layout: pipelineLayout,
		Vertex: wgpu.VertexState{
			Module:     module,
			EntryPoint: shader.VertexEntryPoint,
			Buffers:    vertexLayouts,
		},
		Fragment: &wgpu.FragmentState{
			Module:     module,
			EntryPoint: shader.FragmentEntryPoint,
			Targets: []wgpu.ColorTargetState{
				{
					Format:    *b.surfaceFormat,
					WriteMask: wgpu.ColorWriteMaskAll,
				},
			},
		},
		Primitive: wgpu.PrimitiveState{
			Topology:  wgpu.PrimitiveTopologyTriangleList,
			FrontFace: wgpu.FrontFaceCCW,
			CullMode:  wgpu.CullModeNone,
		},
		Multisample: wgpu.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
	})
	if err != nil {
		log.Printf("[Renderer] failed to create %s render pipeline: %v", src.Key, err)
		return 0, fmt.Errorf("failed to create %s render pipeline: %w", src.Key, err)
	}

	b.next++
	p := renderer.Program(b.next)
	b.programs[p] = &wgpuProgram{pipeline: created, source: src}
	return p, nil
}

func vertexFormat(components int) (wgpu.VertexFormat, error) {
	switch components {
	case 1:
		return wgpu.VertexFormatFloat32, nil
	case 2:
		return wgpu.VertexFormatFloat32x2, nil
	case 3:
		return wgpu.VertexFormatFloat32x3, nil
	case 4:
		return wgpu.VertexFormatFloat32x4, nil
	default:
		return 0, fmt.Errorf("unsupported component count %d", components)
	}
}

func (b *wgpuRendererBackendImpl) UseProgram(p renderer.Program) {
	b.mu.Lock()
	defer b.mu.Unlock()

	prog, ok := b.programs[p]
	if !ok {
		return
	}
	b.current = prog
	if b.framePass != nil {
		b.framePass.SetPipeline(prog.pipeline)
	}
}

func (b *wgpuRendererBackendImpl) ReleaseProgram(p renderer.Program) {
	b.mu.Lock()
	defer b.mu.Unlock()

	prog, ok := b.programs[p]
	if !ok {
		return
	}
	if b.current == prog {
		b.current = nil
	}
	prog.pipeline.Release()
	delete(b.programs, p)
}

func (b *wgpuRendererBackendImpl) CreateVertexBuffer(label string, data []float32) (renderer.Buffer, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	// WebGPU rejects zero-sized vertex bindings, so an empty upload still gets one vertex of storage.
	size := uint64(len(data) * 4)
	if size == 0 {
		size = 4 * 4
	}

	buf, err := b.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label:            label,
		Size:             size,
		Usage:            wgpu.BufferUsageVertex | wgpu.BufferUsageCopyDst,
		MappedAtCreation: false,
	})
	if err != nil {
		return 0, fmt.Errorf("failed to create %s (%d bytes): %w", label, size, err)
	}
	if len(data) > 0 {
		if err := b.queue.WriteBuffer(buf, 0, common.SliceToBytes(data)); err != nil {
			buf.Release()
			return 0, fmt.Errorf("failed to upload %s: %w", label, err)
		}
	}

	b.next++
	handle := renderer.Buffer(b.next)
	b.buffers[handle] = buf
	return handle, nil
}

func (b *wgpuRendererBackendImpl) ReleaseBuffer(handle renderer.Buffer) {
	b.mu.Lock()
	defer b.mu.Unlock()

	buf, ok := b.buffers[handle]
	if !ok {
		return
	}
	buf.Release()
	delete(b.buffers, handle)
}

func (b *wgpuRendererBackendImpl) EnableStream(s renderer.VertexStream) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.framePass == nil || b.current == nil {
		return
	}
	buf, ok := b.buffers[s.Buffer]
	if !ok {
		return
	}
	slot, ok := b.current.source.Slot(s.Attribute.Location)
	if !ok {
		return
	}
	b.framePass.SetVertexBuffer(uint32(slot), buf, 0, wgpu.WholeSize)
}

// DisableStream is a no-op: vertex buffer bindings only live as long as the render pass.
func (b *wgpuRendererBackendImpl) DisableStream(renderer.VertexStream) {}

func (b *wgpuRendererBackendImpl) DrawArrays(first, count int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.framePass == nil || count <= 0 {
		return
	}
	b.framePass.Draw(uint32(count), 1, uint32(first), 0)
}

func (b *wgpuRendererBackendImpl) DrawArraysInstanced(first, count, instances int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.framePass == nil || count <= 0 || instances <= 0 {
		return
	}
	b.framePass.Draw(uint32(count), uint32(instances), uint32(first), 0)
}

func (b *wgpuRendererBackendImpl) BeginFrame() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	// If a previous frame's surface texture is still held, do not acquire another one.
	if b.frameSurface != nil {
		return fmt.Errorf("previous frame surface not yet presented")
	}
	if b.renderPassDescriptor == nil {
		return fmt.Errorf("surface is not configured")
	}

	surfaceTexture, err := b.surface.GetCurrentTexture()
	if err != nil {
		return err
	}

	view, err := surfaceTexture.CreateView(nil)
	if err != nil {
		surfaceTexture.Release()
		return err
	}

	encoder, err := b.device.CreateCommandEncoder(nil)
	if err != nil {
		view.Release()
		surfaceTexture.Release()
		return err
	}

	b.renderPassDescriptor.ColorAttachments[0].View = view
	pass := encoder.BeginRenderPass(b.renderPassDescriptor)

	b.frameEncoder = encoder
	b.framePass = pass
	b.frameSurface = surfaceTexture
	b.frameView = view

	if b.current != nil {
		pass.SetPipeline(b.current.pipeline)
	}

	return nil
}

// EndFrame ends the render pass, submits the command buffer and presents the surface.
func (b *wgpuRendererBackendImpl) EndFrame() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.framePass == nil {
		return
	}
	b.framePass.End()
	b.framePass.Release()
	b.framePass = nil

	commandBuffer, err := b.frameEncoder.Finish(nil)
	if err != nil {
		log.Printf("[Renderer] failed to finish frame: %v", err)
		b.frameEncoder.Release()
		b.frameEncoder = nil
		b.releaseFrameTarget()
		return
	}

	b.queue.Submit(commandBuffer)
	commandBuffer.Release()
	b.frameEncoder.Release()
	b.frameEncoder = nil

	b.surface.Present()
	b.releaseFrameTarget()
}

func (b *wgpuRendererBackendImpl) releaseFrameTarget() {
	if b.frameView != nil {
		b.frameView.Release()
		b.frameView = nil
	}
	if b.frameSurface != nil {
		b.frameSurface.Release()
		b.frameSurface = nil
	}
}

func (b *wgpuRendererBackendImpl) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	for h, buf := range b.buffers {
		buf.Release()
		delete(b.buffers, h)
	}
	for p, prog := range b.programs {
		prog.pipeline.Release()
		delete(b.programs, p)
	}
	b.current = nil

	if b.queue != nil {
		b.queue.Release()
		b.queue = nil
	}
	if b.device != nil {
		b.device.Release()
		b.device = nil
	}
	if b.adapter != nil {
		b.adapter.Release()
		b.adapter = nil
	}
	if b.surface != nil {
		b.surface.Release()
		b.surface = nil
	}
	if b.instance != nil {
		b.instance.Release()
		b.instance = nil
	}
}
