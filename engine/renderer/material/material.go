package material

import (
	"sync/atomic"

	"github.com/Carmen-Shannon/oxy-crowd/common"
)

var materialCount atomic.Uint64

// material is the implementation of the Material interface.
type material struct {
	id          uint64
	name        string
	baseColor   [4]float32
	alphaCutoff float32
	texture     *common.TextureStagingData
	sampler     common.SamplerStagingData
}

// Material describes how a billboard quad is shaded: an optional sprite texture, its sampler, a
// base color multiplied into every fragment and an alpha cutoff below which fragments are
// discarded.
type Material interface {
	// ID returns a process-unique identifier used for sorting and GPU resource caching.
	ID() uint64

	// Name returns the material's debug name.
	Name() string

	// BaseColor returns the RGBA color multiplied into every fragment.
	BaseColor() [4]float32

	// AlphaCutoff returns the alpha below which fragments are discarded.
	AlphaCutoff() float32

	// Texture returns the staged sprite texture, or nil for an untextured material.
	Texture() *common.TextureStagingData

	// Sampler returns the sampler configuration of the texture.
	Sampler() common.SamplerStagingData
}

var _ Material = &material{}

// NewMaterial creates an untextured white material with an alpha cutoff of 0.5.
//
// Parameters:
//   - options: functional options
//
// Returns:
//   - Material: the material
func NewMaterial(options ...MaterialBuilderOption) Material {
	m := &material{
		id:          materialCount.Add(1),
		baseColor:   [4]float32{1, 1, 1, 1},
		alphaCutoff: 0.5,
	}
	for _, opt := range options {
		opt(m)
	}
	return m
}

func (m *material) ID() uint64 {
	return m.id
}

func (m *material) Name() string {
	return m.name
}

func (m *material) BaseColor() [4]float32 {
	return m.baseColor
}

func (m *material) AlphaCutoff() float32 {
	return m.alphaCutoff
}

func (m *material) Texture() *common.TextureStagingData {
	return m.texture
}

func (m *material) Sampler() common.SamplerStagingData {
	return m.sampler
}
