package renderer

import (
	"fmt"

	"github.com/m0ppers/gl-instancing/engine/geometry"
	"github.com/m0ppers/gl-instancing/engine/renderer/shader"
)

type instancedRenderer struct {
	base

	vertices []float32
	offsets  []float32

	vbuffer Buffer
	obuffer Buffer

	positionStream VertexStream
	offsetStream   VertexStream
}

var _ Renderer = &instancedRenderer{}

func (r *instancedRenderer) Shader() shader.Source {
	return shader.Instanced()
}

func (r *instancedRenderer) Prepare(Program) error {
	g, tmpl := r.generator()
	r.vertices = tmpl.Flatten()
	r.offsets = geometry.Compact(g.Offsets(r.numObjects))

	src := r.Shader()
	positionSlot, _ := src.Slot(shader.PositionLocation)
	offsetSlot, _ := src.Slot(shader.OffsetLocation)

	vbuf, err := r.backend.CreateVertexBuffer(r.label("vertex buffer"), r.vertices)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", r.label("vertex buffer"), err)
	}
	r.vbuffer = vbuf

	obuf, err := r.backend.CreateVertexBuffer(r.label("offset buffer"), r.offsets)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", r.label("offset buffer"), err)
	}
	r.obuffer = obuf

	r.positionStream = VertexStream{Buffer: vbuf, Attribute: src.Attributes[positionSlot]}
	r.offsetStream = VertexStream{Buffer: obuf, Attribute: src.Attributes[offsetSlot]}
	return nil
}

func (r *instancedRenderer) Draw() {
	if r.vbuffer == 0 || r.obuffer == 0 {
		return
	}

	r.backend.EnableStream(r.positionStream)
	r.backend.EnableStream(r.offsetStream)
	r.backend.DrawArraysInstanced(0, r.numVertices, r.numObjects)
	r.backend.DisableStream(r.offsetStream)
	r.backend.DisableStream(r.positionStream)
}

func (r *instancedRenderer) Finish() {
	r.vertices = nil
	r.offsets = nil
	r.release(r, &r.vbuffer, &r.obuffer)
}
