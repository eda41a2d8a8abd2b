package shader

import (
	_ "embed"
	"fmt"
)

// ShaderType identifies the pipeline stage a shader string belongs to.
type ShaderType int

const (
	// ShaderTypeVertex is the vertex stage.
	ShaderTypeVertex ShaderType = iota

	// ShaderTypeFragment is the fragment stage.
	ShaderTypeFragment
)

func (t ShaderType) String() string {
	switch t {
	case ShaderTypeVertex:
		return "vertex"
	case ShaderTypeFragment:
		return "fragment"
	default:
		return fmt.Sprintf("ShaderType(%d)", int(t))
	}
}

// Attribute locations are fixed by explicit layout qualifiers in every shader.
const (
	// PositionLocation is the location of the per-vertex model-space position.
	PositionLocation uint32 = 0

	// OffsetLocation is the location of the per-instance translation.
	OffsetLocation uint32 = 1
)

var (
	//go:embed assets/standard.vert.glsl
	standardVertexGLSL string

	//go:embed assets/instanced.vert.glsl
	instancedVertexGLSL string

	//go:embed assets/solid.frag.glsl
	solidFragmentGLSL string

	//go:embed assets/standard.wgsl
	standardWGSL string

	//go:embed assets/instanced.wgsl
	instancedWGSL string
)

// Attribute describes one float vertex input of a shader.
type Attribute struct {
	// Name is the variable name in the GLSL source.
	Name string

	// Location is the attribute location (GLSL) or shader location (WGSL).
	Location uint32

	// Components is the number of float32 components (1-4).
	Components int

	// PerInstance advances the attribute once per instance instead of once per vertex.
	PerInstance bool
}

// Stride returns the tightly packed byte stride of the attribute.
//
// Returns:
//   - int: Components * 4
func (a Attribute) Stride() int {
	return a.Components * 4
}

// Source bundles every shader string a renderer variant needs, for each supported backend,
// along with the vertex inputs the sources declare.
type Source struct {
	// Key is a short unique name for the shader pair, used for labels and logs.
	Key string

	// VertexGLSL and FragmentGLSL are GLSL 330 core sources.
	VertexGLSL   string
	FragmentGLSL string

	// WGSL is a single module containing both VertexEntryPoint and FragmentEntryPoint.
	WGSL string

	// Attributes lists the vertex inputs in buffer slot order.
	Attributes []Attribute
}

// WGSL entry point names shared by every module.
const (
	VertexEntryPoint   = "vs_main"
	FragmentEntryPoint = "fs_main"
)

var (
	positionAttribute = Attribute{Name: "vertexPosition_modelspace", Location: PositionLocation, Components: 3}
	offsetAttribute   = Attribute{Name: "offset", Location: OffsetLocation, Components: 3, PerInstance: true}
)

// Standard returns the shaders for the expanded-geometry renderer: position only.
//
// Returns:
//   - Source: the standard shader source bundle
func Standard() Source {
	return Source{
		Key:          "standard",
		VertexGLSL:   standardVertexGLSL,
		FragmentGLSL: solidFragmentGLSL,
		WGSL:         standardWGSL,
		Attributes:   []Attribute{positionAttribute},
	}
}

// Instanced returns the shaders for the instanced renderer: per-vertex position plus a
// per-instance offset added in the vertex stage.
//
// Returns:
//   - Source: the instanced shader source bundle
func Instanced() Source {
	return Source{
		Key:          "instanced",
		VertexGLSL:   instancedVertexGLSL,
		FragmentGLSL: solidFragmentGLSL,
		WGSL:         instancedWGSL,
		Attributes:   []Attribute{positionAttribute, offsetAttribute},
	}
}

// GLSL returns the GLSL source for the given stage.
//
// Parameters:
//   - t: the shader stage
//
// Returns:
//   - string: the GLSL source, or "" for an unknown stage
func (s Source) GLSL(t ShaderType) string {
	switch t {
	case ShaderTypeVertex:
		return s.VertexGLSL
	case ShaderTypeFragment:
		return s.FragmentGLSL
	default:
		return ""
	}
}

// Slot returns the buffer slot of the attribute bound at location.
//
// Parameters:
//   - location: the attribute location
//
// Returns:
//   - int: the index into Attributes
//   - bool: false if no attribute uses location
func (s Source) Slot(location uint32) (int, bool) {
	for i, a := range s.Attributes {
		if a.Location == location {
			return i, true
		}
	}
	return 0, false
}
