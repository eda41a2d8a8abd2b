package renderer

import (
	"fmt"
	"sync"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/m0ppers/gl-instancing/common"
	"github.com/m0ppers/gl-instancing/engine/geometry"
	"github.com/m0ppers/gl-instancing/engine/renderer/shader"
)

// minObjectsPerExpandTask keeps pool tasks large enough to be worth scheduling.
const minObjectsPerExpandTask = 256

type standardRenderer struct {
	base

	vertices []float32
	vbuffer  Buffer
	stream   VertexStream
}

var _ Renderer = &standardRenderer{}

func (r *standardRenderer) Shader() shader.Source {
	return shader.Standard()
}

func (r *standardRenderer) Prepare(Program) error {
	g, tmpl := r.generator()
	offsets := g.Offsets(r.numObjects)
	r.vertices = r.expand(tmpl, offsets)

	buf, err := r.backend.CreateVertexBuffer(r.label("vertex buffer"), r.vertices)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", r.label("vertex buffer"), err)
	}
	r.vbuffer = buf
	r.stream = VertexStream{Buffer: buf, Attribute: r.Shader().Attributes[0]}
	return nil
}

// expand fills the host buffer, splitting the objects across the expand pool when one is set.
func (r *standardRenderer) expand(tmpl geometry.Template, offsets geometry.Offsets) []float32 {
	tasks := min(r.expandWorkers, len(offsets)/minObjectsPerExpandTask)
	if tasks < 2 || r.expandPool == nil {
		return geometry.Expand(tmpl, offsets)
	}

	dst := make([]float32, geometry.ExpandedLen(len(tmpl), len(offsets)))
	chunk := common.CeilDiv(len(offsets), tasks)

	var wg sync.WaitGroup
	for id, from := 0, 0; from < len(offsets); id, from = id+1, from+chunk {
		to := min(from+chunk, len(offsets))
		wg.Add(1)
		r.expandPool.SubmitTask(worker.Task{
			ID: id,
			Do: func() (any, error) {
				defer wg.Done()
				geometry.ExpandRange(dst, tmpl, offsets, from, to)
				return nil, nil
			},
		})
	}
	wg.Wait()

	return dst
}

func (r *standardRenderer) Draw() {
	if r.vbuffer == 0 {
		return
	}

	r.backend.EnableStream(r.stream)
	for i := 0; i < r.numObjects; i++ {
		r.backend.DrawArrays(i*r.numVertices, r.numVertices)
	}
	r.backend.DisableStream(r.stream)
}

func (r *standardRenderer) Finish() {
	r.vertices = nil
	r.release(r, &r.vbuffer)
}
