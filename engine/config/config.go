// Package config holds the run configuration of gl-instancing: built-in defaults, an optional
// YAML file, and validation of the combined result.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/m0ppers/gl-instancing/common"
	"github.com/m0ppers/gl-instancing/engine/geometry"
	"github.com/m0ppers/gl-instancing/engine/renderer"
	"github.com/m0ppers/gl-instancing/engine/renderer/backend"
	"github.com/m0ppers/gl-instancing/engine/window"
	"gopkg.in/yaml.v3"
)

var (
	// ErrInvalidConfig is wrapped by every configuration error.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrMissingRenderer means no renderer name was given.
	ErrMissingRenderer = errors.New("no renderer given")
)

// Config is the complete run configuration. Field names double as YAML keys.
type Config struct {
	Renderer      string        `yaml:"renderer"`
	Vertices      int           `yaml:"vertices"`
	Objects       int           `yaml:"objects"`
	Seed          uint32        `yaml:"seed"`
	Backend       string        `yaml:"backend"`
	Duration      time.Duration `yaml:"duration"`
	FlatTemplate  bool          `yaml:"flat_template"`
	ExpandWorkers int           `yaml:"expand_workers"`
	VSync         bool          `yaml:"vsync"`
	SoftwareGPU   bool          `yaml:"software_gpu"`
	Width         int           `yaml:"width"`
	Height        int           `yaml:"height"`
	Title         string        `yaml:"title"`
	Profile       bool          `yaml:"profile"`
	FrameLimit    float64       `yaml:"frame_limit"`
	Bench         Bench         `yaml:"bench"`
}

// Bench configures the ramp benchmark.
type Bench struct {
	// Start is the object count of the first step.
	Start int `yaml:"start"`

	// Factor multiplies the object count after every step.
	Factor float64 `yaml:"factor"`

	// Threshold is the frame rate below which the ramp stops.
	Threshold float64 `yaml:"threshold"`

	// Interval is how long each step runs.
	Interval time.Duration `yaml:"interval"`

	// Max is the largest object count tried.
	Max int `yaml:"max"`
}

// Default returns the built-in configuration: 20 vertices, 20 objects, seed 1234, the GL
// backend and an 800x600 window. The renderer is left empty; it must always be chosen.
//
// Returns:
//   - Config: the default configuration
func Default() Config {
	return Config{
		Vertices: 20,
		Objects:  20,
		Seed:     geometry.DefaultSeed,
		Backend:  renderer.BackendTypeGL.String(),
		Width:    window.DefaultWidth,
		Height:   window.DefaultHeight,
		Title:    window.DefaultTitle,
		Bench: Bench{
			Start:     100,
			Factor:    2,
			Threshold: 30,
			Interval:  3 * time.Second,
			Max:       1 << 20,
		},
	}
}

// Load reads a YAML file over the defaults. Keys absent from the file keep their default
// value; unknown keys are rejected.
//
// Parameters:
//   - path: the YAML file path
//
// Returns:
//   - Config: the merged configuration, not yet validated
//   - error: an error wrapping ErrInvalidConfig if the file cannot be read or parsed
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes YAML over the defaults, like Load.
//
// Parameters:
//   - data: the YAML document
//
// Returns:
//   - Config: the merged configuration, not yet validated
//   - error: an error wrapping ErrInvalidConfig if the document cannot be parsed
func Parse(data []byte) (Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	cfg.Title = common.Coalesce(cfg.Title, window.DefaultTitle)
	cfg.Backend = common.Coalesce(cfg.Backend, renderer.BackendTypeGL.String())
	return cfg, nil
}

// Validate checks the configuration for a complete run.
//
// Returns:
//   - error: an error wrapping ErrInvalidConfig describing the first problem found
func (c Config) Validate() error {
	if c.Renderer == "" {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, ErrMissingRenderer)
	}
	if _, err := renderer.ParseKind(c.Renderer); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if _, err := renderer.ParseBackendType(c.Backend); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	switch {
	case c.Vertices < 0:
		return invalid("vertices must not be negative, got %d", c.Vertices)
	case c.Objects < 0:
		return invalid("objects must not be negative, got %d", c.Objects)
	case c.Width <= 0 || c.Height <= 0:
		return invalid("window size must be positive, got %dx%d", c.Width, c.Height)
	case c.Duration < 0:
		return invalid("duration must not be negative, got %s", c.Duration)
	case c.ExpandWorkers < 0:
		return invalid("expand workers must not be negative, got %d", c.ExpandWorkers)
	case c.FrameLimit < 0:
		return invalid("frame limit must not be negative, got %g", c.FrameLimit)
	}
	return nil
}

// ValidateBench checks the benchmark settings in addition to Validate.
//
// Returns:
//   - error: an error wrapping ErrInvalidConfig describing the first problem found
func (c Config) ValidateBench() error {
	if err := c.Validate(); err != nil {
		return err
	}
	b := c.Bench
	switch {
	case b.Start <= 0:
		return invalid("bench start must be positive, got %d", b.Start)
	case b.Factor <= 1:
		return invalid("bench factor must be greater than 1, got %g", b.Factor)
	case b.Threshold <= 0:
		return invalid("bench threshold must be positive, got %g", b.Threshold)
	case b.Interval <= 0:
		return invalid("bench interval must be positive, got %s", b.Interval)
	case b.Max < b.Start:
		return invalid("bench max %d is below start %d", b.Max, b.Start)
	}
	return nil
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidConfig, fmt.Sprintf(format, args...))
}

// Kind returns the parsed renderer kind. Call Validate first.
func (c Config) Kind() renderer.Kind {
	k, _ := renderer.ParseKind(c.Renderer)
	return k
}

// BackendType returns the parsed backend type. Call Validate first.
func (c Config) BackendType() renderer.RendererBackendType {
	t, _ := renderer.ParseBackendType(c.Backend)
	return t
}

// WindowOptions returns the window options for this configuration.
func (c Config) WindowOptions() []window.WindowBuilderOption {
	return []window.WindowBuilderOption{
		window.WithTitle(c.Title),
		window.WithWidth(c.Width),
		window.WithHeight(c.Height),
		window.WithClientAPI(backend.ClientAPI(c.BackendType())),
	}
}

// BackendOptions returns the backend options for this configuration.
func (c Config) BackendOptions() []backend.BackendBuilderOption {
	mode := renderer.PresentModeUncapped
	if c.VSync {
		mode = renderer.PresentModeVSync
	}
	return []backend.BackendBuilderOption{
		backend.WithPresentMode(mode),
		backend.WithClearColor(backend.DefaultClearColor),
		backend.WithForceSoftwareRenderer(c.SoftwareGPU),
	}
}

// RendererOptions returns the renderer options for this configuration.
func (c Config) RendererOptions() []renderer.RendererBuilderOption {
	opts := []renderer.RendererBuilderOption{
		renderer.WithSeed(c.Seed),
		renderer.WithExpandWorkers(c.ExpandWorkers),
	}
	if c.FlatTemplate {
		opts = append(opts, renderer.WithFlatTemplate())
	}
	return opts
}
