package pipeline

import "github.com/cogentcore/webgpu/wgpu"

// PipelineBuilderOption is a functional option used to configure a Pipeline during construction.
type PipelineBuilderOption func(*pipeline)

// WithFragmentEntry selects the fragment entry point of the billboard shader.
func WithFragmentEntry(entry string) PipelineBuilderOption {
	return func(p *pipeline) {
		p.fragmentEntry = entry
	}
}

// WithDepthCompare sets the depth test. The main character pass uses LessEqual so it passes on
// the depth the prepass wrote.
func WithDepthCompare(fn wgpu.CompareFunction) PipelineBuilderOption {
	return func(p *pipeline) {
		p.depthCompare = fn
	}
}

// WithDepthWriteEnabled turns depth writes on or off.
func WithDepthWriteEnabled(enabled bool) PipelineBuilderOption {
	return func(p *pipeline) {
		p.depthWriteEnabled = enabled
	}
}

// WithDepthBias offsets the depth of every fragment.
//
// Parameters:
//   - bias: constant bias in depth units
//   - slopeScale: bias scaled by the polygon depth slope
//
// Returns:
//   - PipelineBuilderOption: option function to apply
func WithDepthBias(bias int32, slopeScale float32) PipelineBuilderOption {
	return func(p *pipeline) {
		p.depthBias = bias
		p.depthBiasSlopeScale = slopeScale
	}
}

// WithBlendEnabled enables alpha blending with the pipeline's blend state.
func WithBlendEnabled(enabled bool) PipelineBuilderOption {
	return func(p *pipeline) {
		p.blendEnabled = enabled
	}
}

// WithWriteMask sets the color channels the pipeline writes. ColorWriteMaskNone makes a
// depth-only pass.
func WithWriteMask(mask wgpu.ColorWriteMask) PipelineBuilderOption {
	return func(p *pipeline) {
		p.writeMask = mask
	}
}
