package geometry

// DefaultSeed is the seed the demo has always used for its geometry.
const DefaultSeed uint32 = 1234

// RandMax is the largest value Next can return.
const RandMax = 32767

// Generator is a linear congruential generator with the classic ANSI C rand() constants.
// A single Generator is shared by template and offset generation so that, for a fixed seed,
// the template is drawn first and the offsets second, always in that order.
type Generator struct {
	state uint32
}

// NewGenerator creates a Generator seeded with the given value.
//
// Parameters:
//   - seed: the initial generator state
//
// Returns:
//   - *Generator: the seeded generator
func NewGenerator(seed uint32) *Generator {
	return &Generator{state: seed}
}

// Next advances the generator and returns a value in [0, RandMax].
//
// Returns:
//   - int: the next pseudo-random value
func (g *Generator) Next() int {
	g.state = g.state*1103515245 + 12345
	return int((g.state / 65536) % (RandMax + 1))
}

// Template draws numVertices vertices from the generator.
//
// Parameters:
//   - numVertices: the number of vertices in the template
//   - options: optional TemplateOption values
//
// Returns:
//   - Template: the generated template
func (g *Generator) Template(numVertices int, options ...TemplateOption) Template {
	cfg := templateConfig{}
	for _, opt := range options {
		opt(&cfg)
	}

	t := make(Template, numVertices)
	for i := range t {
		for c := 0; c < 3; c++ {
			v := templateCoordinate(g.Next())
			if c == 2 && cfg.flat {
				v = 0
			}
			t[i][c] = v
		}
	}
	return t
}

// Offsets draws numObjects per-instance offsets from the generator.
// The first offset is always the zero vector and consumes no draws.
//
// Parameters:
//   - numObjects: the number of instances
//
// Returns:
//   - Offsets: the generated offsets
func (g *Generator) Offsets(numObjects int) Offsets {
	if numObjects <= 0 {
		return Offsets{}
	}
	o := make(Offsets, numObjects)
	for i := 1; i < numObjects; i++ {
		o[i][0] = offsetCoordinate(g.Next())
		o[i][1] = offsetCoordinate(g.Next())
	}
	return o
}

func templateCoordinate(draw int) float32 {
	return float32(draw%2000-1000) / 10000.0
}

func offsetCoordinate(draw int) float32 {
	return float32(draw%2000-1000) / 1000.0
}
