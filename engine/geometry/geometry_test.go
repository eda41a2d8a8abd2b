package geometry

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerator_matchesANSICRand(t *testing.T) {
	g := NewGenerator(1)
	got := make([]int, 5)
	for i := range got {
		got[i] = g.Next()
	}
	assert.Equal(t, []int{16838, 5758, 10113, 17515, 31051}, got)
}

func TestGenerator_range(t *testing.T) {
	g := NewGenerator(DefaultSeed)
	for i := 0; i < 10000; i++ {
		v := g.Next()
		require.GreaterOrEqual(t, v, 0)
		require.LessOrEqual(t, v, RandMax)
	}
}

func TestGenerateTemplate_coordinateRange(t *testing.T) {
	tmpl := GenerateTemplate(500, 42)
	require.Len(t, tmpl, 500)
	for _, v := range tmpl {
		for _, c := range v {
			assert.GreaterOrEqual(t, c, float32(-0.1))
			assert.Less(t, c, float32(0.1))
		}
	}
}

func TestGenerateTemplate_zNotZeroedByDefault(t *testing.T) {
	tmpl := GenerateTemplate(64, DefaultSeed)
	nonZero := 0
	for _, v := range tmpl {
		if v[2] != 0 {
			nonZero++
		}
	}
	assert.Greater(t, nonZero, 0, "reference behaviour draws z like every other coordinate")
}

func TestGenerateTemplate_flat(t *testing.T) {
	ref := GenerateTemplate(16, DefaultSeed)
	flat := GenerateTemplate(16, DefaultSeed, WithFlatTemplate())
	for i := range flat {
		assert.Equal(t, float32(0), flat[i][2])
		assert.Equal(t, ref[i][0], flat[i][0])
		assert.Equal(t, ref[i][1], flat[i][1])
	}

	// the generator advances identically, so offsets drawn afterwards do not change
	g1 := NewGenerator(DefaultSeed)
	g1.Template(16)
	g2 := NewGenerator(DefaultSeed)
	g2.Template(16, WithFlatTemplate())
	assert.Equal(t, g1.Offsets(8), g2.Offsets(8))
}

func TestBuildOffsets(t *testing.T) {
	for _, n := range []int{1, 2, 7, 100} {
		offsets := BuildOffsets(n, 99)
		require.Len(t, offsets, n)
		assert.Equal(t, mgl32.Vec2{0, 0}, offsets[0])
		for _, o := range offsets[1:] {
			for _, c := range o {
				assert.GreaterOrEqual(t, c, float32(-1))
				assert.Less(t, c, float32(1))
			}
		}
	}
	assert.Empty(t, BuildOffsets(0, 99))
}

func TestExpand_length(t *testing.T) {
	cases := []struct{ vertices, objects int }{
		{1, 1}, {3, 4}, {20, 20}, {7, 1}, {1, 13},
	}
	for _, c := range cases {
		g := NewGenerator(DefaultSeed)
		tmpl := g.Template(c.vertices)
		buf := Expand(tmpl, g.Offsets(c.objects))
		assert.Len(t, buf, c.objects*c.vertices*3)
		assert.Equal(t, ExpandedLen(c.vertices, c.objects), len(buf))
	}
}

func TestExpand_coordinates(t *testing.T) {
	g := NewGenerator(DefaultSeed)
	tmpl := g.Template(5)
	offsets := g.Offsets(6)
	buf := Expand(tmpl, offsets)
	flat := tmpl.Flatten()

	stride := len(flat)
	for i, off := range offsets {
		for j, base := range flat {
			got := buf[i*stride+j]
			switch j % 3 {
			case 0:
				assert.Equal(t, base+off[0], got, "instance %d index %d", i, j)
			case 1:
				assert.Equal(t, base+off[1], got, "instance %d index %d", i, j)
			case 2:
				assert.Equal(t, base, got, "instance %d index %d", i, j)
			}
		}
	}
}

func TestExpand_singleObjectIsTemplate(t *testing.T) {
	g := NewGenerator(DefaultSeed)
	tmpl := g.Template(3)
	buf := Expand(tmpl, g.Offsets(1))
	assert.Equal(t, tmpl.Flatten(), buf)
}

func TestExpandRange_disjointRangesMatchSerial(t *testing.T) {
	g := NewGenerator(7)
	tmpl := g.Template(11)
	offsets := g.Offsets(9)

	want := Expand(tmpl, offsets)
	got := make([]float32, ExpandedLen(len(tmpl), len(offsets)))
	ExpandRange(got, tmpl, offsets, 4, 9)
	ExpandRange(got, tmpl, offsets, 0, 4)
	assert.Equal(t, want, got)
}

func TestCompact(t *testing.T) {
	offsets := Offsets{{0, 0}, {0.5, -0.25}, {-1, 0.75}}
	assert.Equal(t, []float32{0, 0, 0, 0.5, -0.25, 0, -1, 0.75, 0}, Compact(offsets))
}

// Regression fixture for numVertices=3, numObjects=4, seed=1234.
func TestFixture_seed1234(t *testing.T) {
	g := NewGenerator(DefaultSeed)
	tmpl := g.Template(3)
	offsets := g.Offsets(4)

	assert.Equal(t, Template{
		{0.0558, 0.096, 0.0307},
		{-0.0275, 0.0832, -0.0681},
		{-0.0961, -0.0413, -0.0017},
	}, tmpl)
	assert.Equal(t, Offsets{
		{0, 0},
		{-0.766, 0.389},
		{-0.221, -0.643},
		{-0.322, -0.111},
	}, offsets)

	assert.Equal(t, tmpl, GenerateTemplate(3, DefaultSeed))

	// a fresh generator starts offsets at the first draw instead of after the template
	assert.Equal(t, Offsets{{0, 0}, {0.558, 0.96}, {0.307, -0.275}, {0.832, -0.681}}, BuildOffsets(4, DefaultSeed))
}
