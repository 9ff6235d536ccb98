package material

import "github.com/Carmen-Shannon/oxy-crowd/common"

// MaterialBuilderOption is a functional option used to configure a Material during construction.
type MaterialBuilderOption func(*material)

// WithName sets the material's debug name.
func WithName(name string) MaterialBuilderOption {
	return func(m *material) {
		m.name = name
	}
}

// WithBaseColor sets the RGBA color multiplied into every fragment.
//
// Parameters:
//   - c: linear RGBA color
//
// Returns:
//   - MaterialBuilderOption: a function that sets the base color
func WithBaseColor(c [4]float32) MaterialBuilderOption {
	return func(m *material) {
		m.baseColor = c
	}
}

// WithAlphaCutoff sets the alpha below which fragments are discarded.
func WithAlphaCutoff(cutoff float32) MaterialBuilderOption {
	return func(m *material) {
		m.alphaCutoff = cutoff
	}
}

// WithTexture sets the sprite texture and its sampler.
//
// Parameters:
//   - tex: staged RGBA pixels (must outlive the material)
//   - sampler: sampler configuration; zero fields fall back to backend defaults
//
// Returns:
//   - MaterialBuilderOption: a function that sets the texture
func WithTexture(tex *common.TextureStagingData, sampler common.SamplerStagingData) MaterialBuilderOption {
	return func(m *material) {
		m.texture = tex
		m.sampler = sampler
	}
}
