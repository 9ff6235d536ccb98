package common

import "math"

// Plane is the set of points p with dot(Normal, p) + Distance = 0.
type Plane struct {
	Normal   [3]float32
	Distance float32
}

// SignedDistance returns the distance from the plane to v, positive on the inner side.
func (p Plane) SignedDistance(v Vec3) float32 {
	return p.Normal[0]*v[0] + p.Normal[1]*v[1] + p.Normal[2]*v[2] + p.Distance
}

// Frustum is the view volume of a camera as six inward-facing planes.
type Frustum struct {
	Planes [6]Plane
}

// Plane indices into Frustum.Planes.
const (
	FrustumLeft = iota
	FrustumRight
	FrustumBottom
	FrustumTop
	FrustumNear
	FrustumFar
)

// frustumRows lists, per plane, the clip-space row combined with the w row and its sign.
var frustumRows = [6]struct {
	row  int
	sign float32
}{
	FrustumLeft:   {0, 1},
	FrustumRight:  {0, -1},
	FrustumBottom: {1, 1},
	FrustumTop:    {1, -1},
	FrustumNear:   {2, 1},
	FrustumFar:    {2, -1},
}

// ExtractFrustumFromMatrix builds the frustum of a column-major view-projection matrix by adding
// or subtracting each clip row to the w row (Gribb/Hartmann). The planes are normalized.
//
// Parameters:
//   - viewProj: projection * view, 16 column-major values
//
// Returns:
//   - Frustum: the world-space frustum
func ExtractFrustumFromMatrix(viewProj []float32) Frustum {
	// element (row r, column c) lives at c*4 + r
	at := func(r, c int) float32 { return viewProj[c*4+r] }

	var f Frustum
	for i, fr := range frustumRows {
		p := &f.Planes[i]
		for c := 0; c < 3; c++ {
			p.Normal[c] = at(3, c) + fr.sign*at(fr.row, c)
		}
		p.Distance = at(3, 3) + fr.sign*at(fr.row, 3)

		n := float32(math.Sqrt(float64(p.Normal[0]*p.Normal[0] + p.Normal[1]*p.Normal[1] + p.Normal[2]*p.Normal[2])))
		if n > 0 {
			p.Normal[0] /= n
			p.Normal[1] /= n
			p.Normal[2] /= n
			p.Distance /= n
		}
	}
	return f
}

// ContainsSphere reports whether any part of the sphere lies inside the frustum.
//
// Parameters:
//   - center: sphere center in world space
//   - radius: sphere radius
//
// Returns:
//   - bool: false only when the sphere is entirely outside one plane
func (f *Frustum) ContainsSphere(center Vec3, radius float32) bool {
	for _, p := range f.Planes {
		if p.SignedDistance(center) < -radius {
			return false
		}
	}
	return true
}
