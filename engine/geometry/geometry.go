// Package geometry builds the host-side vertex data compared by the renderers: a shared
// pseudo-random template mesh and the per-instance offsets that position its copies.
package geometry

import "github.com/go-gl/mathgl/mgl32"

// ComponentsPerVertex is the number of float32 values per vertex position.
const ComponentsPerVertex = 3

// Template is the shared base shape, one position per vertex, before any offset is applied.
type Template []mgl32.Vec3

// Offsets holds one 2D translation per instance. Offsets[0] is always the zero vector.
type Offsets []mgl32.Vec2

// TemplateOption is a functional option applied during template generation.
type TemplateOption func(*templateConfig)

type templateConfig struct {
	flat bool
}

// WithFlatTemplate zeroes the z coordinate of every generated vertex. The generator is still
// advanced for every coordinate so the offsets drawn afterwards are unaffected.
//
// Returns:
//   - TemplateOption: option function to apply
func WithFlatTemplate() TemplateOption {
	return func(c *templateConfig) {
		c.flat = true
	}
}

// GenerateTemplate creates a template of numVertices vertices from a fresh generator.
//
// Parameters:
//   - numVertices: the number of vertices in the template
//   - seed: the generator seed
//   - options: optional TemplateOption values
//
// Returns:
//   - Template: the generated template
func GenerateTemplate(numVertices int, seed uint32, options ...TemplateOption) Template {
	return NewGenerator(seed).Template(numVertices, options...)
}

// BuildOffsets creates numObjects offsets from a fresh generator.
//
// Parameters:
//   - numObjects: the number of instances
//   - seed: the generator seed
//
// Returns:
//   - Offsets: the generated offsets
func BuildOffsets(numObjects int, seed uint32) Offsets {
	return NewGenerator(seed).Offsets(numObjects)
}

// Flatten returns the template as a tightly packed x,y,z float slice.
//
// Returns:
//   - []float32: numVertices*3 floats
func (t Template) Flatten() []float32 {
	out := make([]float32, len(t)*ComponentsPerVertex)
	for i, v := range t {
		copy(out[i*ComponentsPerVertex:], v[:])
	}
	return out
}

// Expand materializes every instance into one buffer: instance i occupies
// [i*len(template)*3, (i+1)*len(template)*3) and holds the template with offsets[i]
// added to x and y. z is copied unchanged.
//
// Parameters:
//   - template: the shared template
//   - offsets: one offset per instance
//
// Returns:
//   - []float32: len(offsets)*len(template)*3 floats
func Expand(template Template, offsets Offsets) []float32 {
	dst := make([]float32, ExpandedLen(len(template), len(offsets)))
	ExpandRange(dst, template, offsets, 0, len(offsets))
	return dst
}

// ExpandedLen returns the float count of an expanded buffer.
func ExpandedLen(numVertices, numObjects int) int {
	if numVertices <= 0 || numObjects <= 0 {
		return 0
	}
	return numObjects * numVertices * ComponentsPerVertex
}

// ExpandRange writes instances [from, to) into dst, which must already be sized by ExpandedLen.
// Disjoint ranges touch disjoint parts of dst, so ranges may be filled concurrently.
//
// Parameters:
//   - dst: the destination buffer
//   - template: the shared template
//   - offsets: one offset per instance
//   - from: first instance to write
//   - to: one past the last instance to write
func ExpandRange(dst []float32, template Template, offsets Offsets, from, to int) {
	stride := len(template) * ComponentsPerVertex
	for i := from; i < to; i++ {
		off := offsets[i]
		base := i * stride
		for v, p := range template {
			d := base + v*ComponentsPerVertex
			dst[d] = p[0] + off[0]
			dst[d+1] = p[1] + off[1]
			dst[d+2] = p[2]
		}
	}
}

// Compact packs the offsets as x,y,0 triples for a per-instance vertex attribute.
//
// Parameters:
//   - offsets: one offset per instance
//
// Returns:
//   - []float32: len(offsets)*3 floats
func Compact(offsets Offsets) []float32 {
	out := make([]float32, len(offsets)*ComponentsPerVertex)
	for i, o := range offsets {
		out[i*ComponentsPerVertex] = o[0]
		out[i*ComponentsPerVertex+1] = o[1]
	}
	return out
}
