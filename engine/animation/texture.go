package animation

import (
	"github.com/Carmen-Shannon/oxy-crowd/common"
	"github.com/cogentcore/webgpu/wgpu"
)

// Texture is a sprite sheet handle: the decoded pixels plus the sampler it should be drawn with.
type Texture struct {
	// Key identifies the texture to renderer backends.
	Key string
	// Path is the file the pixels were loaded from, empty for generated sheets.
	Path string

	common.TextureStagingData
	Sampler common.SamplerStagingData
}

// pixelArtSampler keeps sprite frames crisp and stops neighbouring frames from bleeding in.
var pixelArtSampler = common.SamplerStagingData{
	AddressModeU: wgpu.AddressModeClampToEdge,
	AddressModeV: wgpu.AddressModeClampToEdge,
	AddressModeW: wgpu.AddressModeClampToEdge,
	MagFilter:    wgpu.FilterModeNearest,
	MinFilter:    wgpu.FilterModeNearest,
	MipmapFilter: wgpu.MipmapFilterModeNearest,
}

// LoadTexture decodes a PNG or JPEG sprite sheet from disk.
//
// Parameters:
//   - key: backend key for the texture
//   - path: image file path
//
// Returns:
//   - *Texture: the decoded sheet
//   - error: error if the file cannot be read or decoded
func LoadTexture(key, path string) (*Texture, error) {
	data, err := common.DecodeImageFile(path)
	if err != nil {
		return nil, err
	}
	return &Texture{
		Key:                key,
		Path:               path,
		TextureStagingData: data,
		Sampler:            pixelArtSampler,
	}, nil
}
