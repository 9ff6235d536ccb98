package common

import (
	"math"
	"unsafe"
)

// Mat4 is a 4x4 matrix stored in column-major order (WebGPU convention).
// Element (row r, column c) lives at index c*4 + r.
type Mat4 [16]float32

// Vec3 is a plain three component vector.
type Vec3 [3]float32

// IdentityMat4 returns a fresh identity matrix.
func IdentityMat4() Mat4 {
	var m Mat4
	Identity(m[:])
	return m
}

// Identity resets a 4x4 matrix (flat slice) to the identity matrix.
// The matrix is stored in column-major order.
//
// Parameters:
//   - m: destination slice (must be at least 16 elements)
func Identity(m []float32) {
	for i := range m {
		m[i] = 0
	}
	m[0], m[5], m[10], m[15] = 1, 1, 1, 1
}

// SliceToBytes converts any slice to a byte slice for GPU buffer uploads.
// Uses unsafe pointer operations to create a view into the original data.
// WARNING: The returned slice shares memory with the input - do not modify.
//
// Parameters:
//   - data: source slice of any type
//
// Returns:
//   - []byte: byte slice view of the input data, or nil if input is empty
func SliceToBytes[T any](data []T) []byte {
	if len(data) == 0 {
		return nil
	}
	var zero T
	size := unsafe.Sizeof(zero)
	return unsafe.Slice((*byte)(unsafe.Pointer(&data[0])), int(size)*len(data))
}

// Mul4 multiplies two 4x4 matrices and stores the result in out (out = a * b).
// All matrices are column-major. out may alias a or b.
//
// Parameters:
//   - out: destination slice (must be at least 16 elements)
//   - a: left-hand matrix (16 elements)
//   - b: right-hand matrix (16 elements)
func Mul4(out, a, b []float32) {
	var buf [16]float32
	for i := 0; i < 4; i++ { // column of B
		for j := 0; j < 4; j++ { // row of A
			sum := float32(0)
			for k := 0; k < 4; k++ {
				sum += a[k*4+j] * b[i*4+k]
			}
			buf[i*4+j] = sum
		}
	}
	copy(out, buf[:])
}

// Perspective creates a perspective projection matrix for WebGPU clip space [0, 1].
//
// Parameters:
//   - out: destination slice (must be at least 16 elements)
//   - fovY: vertical field of view in radians
//   - aspect: viewport aspect ratio (width/height)
//   - near: near clipping plane distance (must be > 0)
//   - far: far clipping plane distance (must be > near)
func Perspective(out []float32, fovY, aspect, near, far float32) {
	f := 1.0 / float32(math.Tan(float64(fovY)/2.0))
	Identity(out)

	out[0] = f / aspect
	out[5] = f
	out[10] = far / (near - far)
	out[11] = -1.0
	out[14] = (near * far) / (near - far)
	out[15] = 0.0
}

// BuildModelMatrix constructs a model matrix from position, Euler rotation (Y * X * Z) and scale.
//
// Parameters:
//   - out: destination slice (must be at least 16 elements)
//   - pos: translation in world space
//   - rot: rotation angles in radians around each axis
//   - scale: scale factors along each axis
func BuildModelMatrix(out []float32, pos, rot, scale Vec3) {
	cx, sx := cosSin(rot[0])
	cy, sy := cosSin(rot[1])
	cz, sz := cosSin(rot[2])

	out[0] = (cy*cz + sy*sx*sz) * scale[0]
	out[1] = (cx * sz) * scale[0]
	out[2] = (-sy*cz + cy*sx*sz) * scale[0]
	out[3] = 0

	out[4] = (cy*-sz + sy*sx*cz) * scale[1]
	out[5] = (cx * cz) * scale[1]
	out[6] = (sy*sz + cy*sx*cz) * scale[1]
	out[7] = 0

	out[8] = (sy * cx) * scale[2]
	out[9] = (-sx) * scale[2]
	out[10] = (cy * cx) * scale[2]
	out[11] = 0

	out[12], out[13], out[14], out[15] = pos[0], pos[1], pos[2], 1
}

func cosSin(a float32) (float32, float32) {
	s, c := math.Sincos(float64(a))
	return float32(c), float32(s)
}

// LookAt creates a view matrix that positions and orients the camera.
//
// Parameters:
//   - out: destination slice (must be at least 16 elements)
//   - eye: camera position in world space
//   - center: target point the camera looks at
//   - up: up vector defining camera orientation (typically 0,1,0)
func LookAt(out []float32, eye, center, up Vec3) {
	z := normalize3(Vec3{eye[0] - center[0], eye[1] - center[1], eye[2] - center[2]})
	x := normalize3(cross3(up, z))
	y := cross3(z, x)

	out[0], out[4], out[8], out[12] = x[0], x[1], x[2], -dot3(x, eye)
	out[1], out[5], out[9], out[13] = y[0], y[1], y[2], -dot3(y, eye)
	out[2], out[6], out[10], out[14] = z[0], z[1], z[2], -dot3(z, eye)
	out[3], out[7], out[11], out[15] = 0, 0, 0, 1
}

// LookRotation writes a rotation whose local +Z axis points along forward, with local +Y kept as
// close to up as possible, followed by a translation to position. A zero forward, or a forward
// parallel to up, leaves the rotation part as identity.
//
// Parameters:
//   - out: destination slice (must be at least 16 elements)
//   - forward: direction the local +Z axis should face
//   - up: world up vector
//   - position: translation written into the last column
func LookRotation(out []float32, forward, up, position Vec3) {
	Identity(out)
	out[12], out[13], out[14] = position[0], position[1], position[2]

	if dot3(forward, forward) == 0 {
		return
	}
	z := normalize3(forward)
	x := cross3(up, z)
	if dot3(x, x) < 1e-12 {
		return
	}
	x = normalize3(x)
	y := cross3(z, x)

	out[0], out[1], out[2] = x[0], x[1], x[2]
	out[4], out[5], out[6] = y[0], y[1], y[2]
	out[8], out[9], out[10] = z[0], z[1], z[2]
}

func dot3(a, b Vec3) float32 {
	return a[0]*b[0] + a[1]*b[1] + a[2]*b[2]
}

func cross3(a, b Vec3) Vec3 {
	return Vec3{
		a[1]*b[2] - a[2]*b[1],
		a[2]*b[0] - a[0]*b[2],
		a[0]*b[1] - a[1]*b[0],
	}
}

func normalize3(v Vec3) Vec3 {
	l := float32(math.Sqrt(float64(dot3(v, v))))
	if l == 0 {
		return v
	}
	return Vec3{v[0] / l, v[1] / l, v[2] / l}
}

// Normalize returns v scaled to unit length, or v unchanged when it has zero length.
func (v Vec3) Normalize() Vec3 {
	return normalize3(v)
}

// Sub returns v - o.
func (v Vec3) Sub(o Vec3) Vec3 {
	return Vec3{v[0] - o[0], v[1] - o[1], v[2] - o[2]}
}
