// Package backend implements renderer.RendererBackend on top of a real graphics API:
// OpenGL 3.3 core through go-gl, or WebGPU through cogentcore/webgpu.
package backend

import (
	"fmt"

	"github.com/m0ppers/gl-instancing/engine/renderer"
	"github.com/m0ppers/gl-instancing/engine/window"
)

// NewRendererBackend creates the backend of the given type for an already created window.
// The window's client API must match ClientAPI(backendType).
//
// Parameters:
//   - backendType: the backend implementation to create
//   - win: the window the backend presents to
//   - options: variadic list of BackendBuilderOption functions
//
// Returns:
//   - renderer.RendererBackend: the created backend
//   - error: an error if the backend could not be initialized
func NewRendererBackend(backendType renderer.RendererBackendType, win window.Window, options ...BackendBuilderOption) (renderer.RendererBackend, error) {
	cfg := backendConfig{
		presentMode: renderer.PresentModeUncapped,
		clearColor:  DefaultClearColor,
	}
	for _, opt := range options {
		opt(&cfg)
	}

	switch backendType {
	case renderer.BackendTypeGL:
		return newGLRendererBackend(win, cfg)
	case renderer.BackendTypeWGPU:
		return newWGPURendererBackend(win, cfg)
	default:
		return nil, fmt.Errorf("unsupported renderer backend type: %s", backendType)
	}
}

// ClientAPI returns the window client API a backend type requires: an OpenGL context for
// the GL backend, none for WebGPU, which creates its own surface.
//
// Parameters:
//   - backendType: the backend type
//
// Returns:
//   - window.ClientAPI: the required client API
func ClientAPI(backendType renderer.RendererBackendType) window.ClientAPI {
	if backendType == renderer.BackendTypeWGPU {
		return window.ClientAPINone
	}
	return window.ClientAPIOpenGL
}
