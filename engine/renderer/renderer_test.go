package renderer_test

import (
	"errors"
	"testing"

	"github.com/m0ppers/gl-instancing/engine/geometry"
	"github.com/m0ppers/gl-instancing/engine/renderer"
	"github.com/m0ppers/gl-instancing/engine/renderer/renderertest"
	"github.com/m0ppers/gl-instancing/engine/renderer/shader"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func prepared(t *testing.T, kind renderer.Kind, nv, no int, opts ...renderer.RendererBuilderOption) (renderer.Renderer, *renderertest.RecordingBackend) {
	t.Helper()
	backend := renderertest.New()
	r, err := renderer.NewRenderer(kind, backend, nv, no, opts...)
	require.NoError(t, err)
	p, err := backend.CreateProgram(r.Shader())
	require.NoError(t, err)
	require.NoError(t, r.Prepare(p))
	backend.Reset()
	return r, backend
}

func TestParseKind(t *testing.T) {
	k, err := renderer.ParseKind("standard")
	require.NoError(t, err)
	assert.Equal(t, renderer.KindStandard, k)

	k, err = renderer.ParseKind("instanced")
	require.NoError(t, err)
	assert.Equal(t, renderer.KindInstanced, k)

	_, err = renderer.ParseKind("bogus")
	require.Error(t, err)
	assert.True(t, errors.Is(err, renderer.ErrUnknownKind))
	assert.Contains(t, err.Error(), "renderer bogus is unknown. Supported renderers: instanced, standard")
}

func TestParseBackendType(t *testing.T) {
	bt, err := renderer.ParseBackendType("GL")
	require.NoError(t, err)
	assert.Equal(t, renderer.BackendTypeGL, bt)

	bt, err = renderer.ParseBackendType("wgpu")
	require.NoError(t, err)
	assert.Equal(t, renderer.BackendTypeWGPU, bt)

	_, err = renderer.ParseBackendType("vulkan")
	assert.Error(t, err)
}

func TestNewRenderer_unknownKind(t *testing.T) {
	_, err := renderer.NewRenderer(renderer.Kind(42), renderertest.New(), 3, 3)
	assert.ErrorIs(t, err, renderer.ErrUnknownKind)
}

func TestStandard_drawIssuesOneDrawPerObject(t *testing.T) {
	r, backend := prepared(t, renderer.KindStandard, 4, 6)
	r.Draw()

	draws := backend.CallsOf(renderertest.OpDrawArrays)
	require.Len(t, draws, 6)
	for i, d := range draws {
		assert.Equal(t, []int{i * 4, 4}, d.Args)
	}
	assert.Zero(t, backend.Count(renderertest.OpDrawArraysInstanced))
	assert.Equal(t, 24, backend.DrawnVertices())
	assert.Empty(t, backend.EnabledLocations())
}

func TestStandard_uploadsExpandedGeometry(t *testing.T) {
	backend := renderertest.New()
	r, err := renderer.NewRenderer(renderer.KindStandard, backend, 5, 7, renderer.WithSeed(99))
	require.NoError(t, err)
	require.NoError(t, r.Prepare(0))

	buf, ok := backend.BufferByLabel("standard vertex buffer")
	require.True(t, ok)
	data, _ := backend.BufferData(buf)

	g := geometry.NewGenerator(99)
	tmpl := g.Template(5)
	assert.Equal(t, geometry.Expand(tmpl, g.Offsets(7)), data)
	assert.Len(t, data, 5*7*3)
}

func TestStandard_parallelExpandMatchesSerial(t *testing.T) {
	serial, serialBackend := prepared(t, renderer.KindStandard, 3, 2000)
	pool := renderer.NewExpandPool(4)
	t.Cleanup(pool.Stop)
	parallel, parallelBackend := prepared(t, renderer.KindStandard, 3, 2000, renderer.WithExpandWorkers(4), renderer.WithExpandPool(pool))
	defer serial.Finish()
	defer parallel.Finish()

	sb, _ := serialBackend.BufferByLabel("standard vertex buffer")
	pb, _ := parallelBackend.BufferByLabel("standard vertex buffer")
	want, _ := serialBackend.BufferData(sb)
	got, _ := parallelBackend.BufferData(pb)
	assert.Equal(t, want, got)
}

func TestInstanced_drawIssuesSingleInstancedDraw(t *testing.T) {
	r, backend := prepared(t, renderer.KindInstanced, 4, 6)
	r.Draw()

	draws := backend.CallsOf(renderertest.OpDrawArraysInstanced)
	require.Len(t, draws, 1)
	assert.Equal(t, []int{0, 4, 6}, draws[0].Args)
	assert.Zero(t, backend.Count(renderertest.OpDrawArrays))
	assert.Equal(t, 24, backend.DrawnVertices())

	enables := backend.CallsOf(renderertest.OpEnableStream)
	require.Len(t, enables, 2)
	assert.Equal(t, int(shader.PositionLocation), enables[0].Args[0])
	assert.Equal(t, 0, enables[0].Args[2], "positions advance per vertex")
	assert.Equal(t, int(shader.OffsetLocation), enables[1].Args[0])
	assert.Equal(t, 1, enables[1].Args[2], "offsets advance per instance")
	assert.Empty(t, backend.EnabledLocations())
}

func TestInstanced_uploadsTemplateAndOffsets(t *testing.T) {
	backend := renderertest.New()
	r, err := renderer.NewRenderer(renderer.KindInstanced, backend, 3, 4)
	require.NoError(t, err)
	require.NoError(t, r.Prepare(0))

	vb, ok := backend.BufferByLabel("instanced vertex buffer")
	require.True(t, ok)
	ob, ok := backend.BufferByLabel("instanced offset buffer")
	require.True(t, ok)

	vertices, _ := backend.BufferData(vb)
	offsets, _ := backend.BufferData(ob)

	g := geometry.NewGenerator(geometry.DefaultSeed)
	tmpl := g.Template(3)
	assert.Equal(t, tmpl.Flatten(), vertices)
	assert.Equal(t, geometry.Compact(g.Offsets(4)), offsets)
	assert.Equal(t, []float32{0, 0, 0}, offsets[:3])
}

func TestStrategies_drawSameGeometry(t *testing.T) {
	sbackend := renderertest.New()
	std, err := renderer.NewRenderer(renderer.KindStandard, sbackend, 6, 9)
	require.NoError(t, err)
	require.NoError(t, std.Prepare(0))
	ibackend := renderertest.New()
	inst, err := renderer.NewRenderer(renderer.KindInstanced, ibackend, 6, 9)
	require.NoError(t, err)
	require.NoError(t, inst.Prepare(0))

	expandedBuf, _ := sbackend.BufferByLabel("standard vertex buffer")
	expanded, _ := sbackend.BufferData(expandedBuf)
	vb, _ := ibackend.BufferByLabel("instanced vertex buffer")
	ob, _ := ibackend.BufferByLabel("instanced offset buffer")
	vertices, _ := ibackend.BufferData(vb)
	offsets, _ := ibackend.BufferData(ob)

	// instance i vertex j as the instanced shader computes it: offset + position
	stride := len(vertices)
	for i := 0; i < 9; i++ {
		for j := 0; j < stride; j++ {
			want := vertices[j] + offsets[i*3+j%3]
			assert.InDelta(t, want, expanded[i*stride+j], 1e-6)
		}
	}
}

func TestFinish_releasesEverything(t *testing.T) {
	for _, kind := range renderer.Kinds() {
		t.Run(kind.String(), func(t *testing.T) {
			backend := renderertest.New()
			r, err := renderer.NewRenderer(kind, backend, 3, 3)
			require.NoError(t, err)
			require.NoError(t, r.Prepare(0))
			require.NotZero(t, backend.LiveBuffers())

			r.Finish()
			assert.Zero(t, backend.LiveBuffers())
		})
	}
}

func TestFinish_withoutPrepareIsSafe(t *testing.T) {
	for _, kind := range renderer.Kinds() {
		backend := renderertest.New()
		r, err := renderer.NewRenderer(kind, backend, 3, 3)
		require.NoError(t, err)
		assert.NotPanics(t, r.Finish)
		assert.Zero(t, backend.Count(renderertest.OpReleaseBuffer))
	}
}

func TestDraw_beforePrepareIsNoop(t *testing.T) {
	for _, kind := range renderer.Kinds() {
		backend := renderertest.New()
		r, err := renderer.NewRenderer(kind, backend, 3, 3)
		require.NoError(t, err)
		r.Draw()
		assert.Zero(t, backend.DrawCalls())
	}
}

func TestPrepare_bufferFailure(t *testing.T) {
	backend := renderertest.New()
	backend.FailBuffer = errors.New("out of memory")
	backend.FailBufferAfter = 1

	r, err := renderer.NewRenderer(renderer.KindInstanced, backend, 3, 3)
	require.NoError(t, err)
	err = r.Prepare(0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "instanced offset buffer")

	// the vertex buffer created before the failure is still released on Finish
	r.Finish()
	assert.Zero(t, backend.LiveBuffers())
}

func TestZeroObjects(t *testing.T) {
	r, backend := prepared(t, renderer.KindStandard, 3, 0)
	r.Draw()
	assert.Zero(t, backend.Count(renderertest.OpDrawArrays))

	ri, ibackend := prepared(t, renderer.KindInstanced, 3, 0)
	ri.Draw()
	draws := ibackend.CallsOf(renderertest.OpDrawArraysInstanced)
	require.Len(t, draws, 1)
	assert.Equal(t, 0, draws[0].Args[2])
}
