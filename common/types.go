// package common contains common types that are used throughout this engine. They are not interface-wrapped structs, just plain structs that express
// commonly used data-types.
package common

import (
	"bytes"
	"fmt"
	"image"
	"image/draw"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"os"

	"github.com/cogentcore/webgpu/wgpu"
)

// Rect is a normalized texture rectangle (u, v, width, height) with the origin at the top-left
// of the texture. Its memory layout matches a WGSL vec4<f32>.
type Rect struct {
	X, Y, W, H float32
}

// Span is a contiguous index range [Start, Start+Count).
type Span struct {
	Start int
	Count int
}

// End returns the exclusive end index of the span.
func (s Span) End() int {
	return s.Start + s.Count
}

// TextureStagingData holds RGBA pixel data for a texture pending GPU upload.
type TextureStagingData struct {
	// Pixels is the RGBA pixel data, 4 bytes per pixel, row-major from the top-left.
	Pixels []byte
	// Width is the width of the texture in pixels.
	Width uint32
	// Height is the height of the texture in pixels.
	Height uint32
}

// SamplerStagingData holds the configuration for a sampler pending GPU creation.
// Zero values fall back to the backend defaults (linear filtering, repeat addressing).
type SamplerStagingData struct {
	// AddressModeU, AddressModeV, AddressModeW specify the addressing mode outside [0, 1].
	AddressModeU, AddressModeV, AddressModeW wgpu.AddressMode
	// MagFilter and MinFilter specify the filtering mode for magnification and minification.
	MagFilter, MinFilter wgpu.FilterMode
	// MipmapFilter specifies the filtering mode for mipmap level selection.
	MipmapFilter wgpu.MipmapFilterMode
}

// DecodeImage decodes a PNG or JPEG stream into RGBA staging data.
// Reference: https://pkg.go.dev/image
//
// Parameters:
//   - r: the encoded image stream
//
// Returns:
//   - TextureStagingData: the decoded pixels and dimensions
//   - error: error if decoding fails
func DecodeImage(r io.Reader) (TextureStagingData, error) {
	img, _, err := image.Decode(r)
	if err != nil {
		return TextureStagingData{}, fmt.Errorf("failed to decode image: %w", err)
	}

	bounds := img.Bounds()
	rgba := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(rgba, rgba.Bounds(), img, bounds.Min, draw.Src)

	return TextureStagingData{
		Pixels: rgba.Pix,
		Width:  uint32(bounds.Dx()),
		Height: uint32(bounds.Dy()),
	}, nil
}

// DecodeImageFile opens and decodes an image file from disk.
//
// Parameters:
//   - path: path to a PNG or JPEG file
//
// Returns:
//   - TextureStagingData: the decoded pixels and dimensions
//   - error: error if the file cannot be read or decoded
func DecodeImageFile(path string) (TextureStagingData, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return TextureStagingData{}, fmt.Errorf("failed to open texture file %s: %w", path, err)
	}
	tex, err := DecodeImage(bytes.NewReader(data))
	if err != nil {
		return TextureStagingData{}, fmt.Errorf("texture file %s: %w", path, err)
	}
	return tex, nil
}
