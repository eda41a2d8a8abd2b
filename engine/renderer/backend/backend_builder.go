package backend

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/m0ppers/gl-instancing/engine/renderer"
)

// BackendBuilderOption is a functional option applied to a backend during construction via NewRendererBackend.
type BackendBuilderOption func(*backendConfig)

type backendConfig struct {
	presentMode          renderer.PresentMode
	clearColor           mgl32.Vec4
	forceFallbackAdapter bool
}

// DefaultClearColor is the dark blue the color target is cleared to every frame.
var DefaultClearColor = mgl32.Vec4{0, 0, 0.3, 1}

// WithPresentMode sets the surface present mode which controls how frames are delivered to the display.
//
// Parameters:
//   - mode: the PresentMode to use (VSync or Uncapped)
//
// Returns:
//   - BackendBuilderOption: a function that applies the present mode option to a backend
func WithPresentMode(mode renderer.PresentMode) BackendBuilderOption {
	return func(c *backendConfig) {
		c.presentMode = mode
	}
}

// WithClearColor sets the RGBA color the backend clears the color target to at the start of each frame.
//
// Parameters:
//   - color: the clear color
//
// Returns:
//   - BackendBuilderOption: a function that applies the clear color option to a backend
func WithClearColor(color mgl32.Vec4) BackendBuilderOption {
	return func(c *backendConfig) {
		c.clearColor = color
	}
}

// WithForceSoftwareRenderer forces WGPU to use a CPU/software fallback adapter instead of
// hardware GPU acceleration. This requires a software Vulkan ICD to be installed on the system
// (e.g. SwiftShader or lavapipe). The GL backend ignores this option.
//
// Parameters:
//   - force: true to force the software fallback adapter, false to use hardware (default)
//
// Returns:
//   - BackendBuilderOption: a function that applies the force software renderer option to a backend
func WithForceSoftwareRenderer(force bool) BackendBuilderOption {
	return func(c *backendConfig) {
		c.forceFallbackAdapter = force
	}
}
