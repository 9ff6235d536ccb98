package camera

import (
	"encoding/binary"
	"math"
	"unsafe"
)

// GPUCameraUniform is the GPU-aligned camera uniform. Layout matches the WGSL Camera struct of the
// billboard shader (80 bytes).
type GPUCameraUniform struct {
	ViewProj       [16]float32 // offset  0: mat4x4<f32>
	CameraPosition [3]float32  // offset 64: vec3<f32>
	_pad           float32     // offset 76
}

// Size returns the size of the GPUCameraUniform struct in bytes.
func (g *GPUCameraUniform) Size() int {
	return int(unsafe.Sizeof(*g))
}

// Marshal serializes the uniform into dst, which must hold at least Size bytes, and returns the
// written slice.
//
// Parameters:
//   - dst: destination buffer reused across frames
//
// Returns:
//   - []byte: dst[:Size()]
func (g *GPUCameraUniform) Marshal(dst []byte) []byte {
	buf := dst[:g.Size()]
	for i := range 16 {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(g.ViewProj[i]))
	}
	for i := range 3 {
		binary.LittleEndian.PutUint32(buf[64+i*4:], math.Float32bits(g.CameraPosition[i]))
	}
	binary.LittleEndian.PutUint32(buf[76:], 0)
	return buf
}

// Uniform builds the GPU uniform for cam.
func Uniform(cam Camera) GPUCameraUniform {
	return GPUCameraUniform{
		ViewProj:       cam.ViewProjectionMatrix(),
		CameraPosition: cam.Position(),
	}
}
