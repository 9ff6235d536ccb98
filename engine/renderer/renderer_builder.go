package renderer

import (
	"github.com/Carmen-Shannon/oxy-crowd/engine/renderer/pipeline"
)

// BackendOption is a functional option applied to a WGPUBackend during construction.
type BackendOption func(*WGPUBackend)

// WithPipeline replaces the pipeline description registered under key.
//
// Parameters:
//   - key: one of the pipeline.Key* constants
//   - p: the pipeline description
//
// Returns:
//   - BackendOption: a function that applies the pipeline option to a backend
func WithPipeline(key string, p pipeline.Pipeline) BackendOption {
	return func(b *WGPUBackend) {
		b.pipelines[key] = p
	}
}

// WithPresentMode sets the surface present mode which controls how frames are delivered to the display.
//
// Parameters:
//   - mode: the PresentMode to use (VSync or Uncapped)
//
// Returns:
//   - BackendOption: a function that applies the present mode option to a backend
func WithPresentMode(mode PresentMode) BackendOption {
	return func(b *WGPUBackend) {
		b.presentMode = presentMode(mode)
	}
}

// WithMSAA sets the multisample anti-aliasing sample count. The default is MSAA4x.
//
// Parameters:
//   - count: MSAAOff or MSAA4x
//
// Returns:
//   - BackendOption: a function that applies the MSAA option to a backend
func WithMSAA(count MSAASampleCount) BackendOption {
	return func(b *WGPUBackend) {
		if count == 0 {
			count = MSAAOff
		}
		b.sampleCount = count
	}
}

// WithForceSoftwareRenderer forces WGPU to use a CPU/software fallback adapter instead of
// hardware GPU acceleration. This requires a software Vulkan ICD to be installed on the system
// (e.g. SwiftShader or lavapipe).
//
// Parameters:
//   - force: true to force the software fallback adapter
//
// Returns:
//   - BackendOption: a function that applies the force software renderer option to a backend
func WithForceSoftwareRenderer(force bool) BackendOption {
	return func(b *WGPUBackend) {
		b.forceFallbackAdapter = force
	}
}

// WithMaxInstances sets how many billboard instances one frame may draw across all cameras and
// passes. Draws beyond it are dropped.
func WithMaxInstances(n int) BackendOption {
	return func(b *WGPUBackend) {
		if n > 0 {
			b.maxInstances = n
		}
	}
}
