package crowd

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// Hit is the result of one avoidance probe. The zero value means nothing was hit.
type Hit struct {
	// Normal is the surface normal at the hit point, zero when nothing was hit.
	Normal [3]float32
	// Distance is the ray distance to the hit point.
	Distance float32
}

// Blocked reports whether the probe hit a surface.
func (h Hit) Blocked() bool {
	n := h.Normal
	return n[0]*n[0]+n[1]*n[1]+n[2]*n[2] > 1e-12
}

// Collider is anything an avoidance ray can hit.
type Collider interface {
	// Raycast casts a ray from origin along the unit direction dir and reports the nearest hit
	// within maxDist.
	Raycast(origin, dir r3.Vec, maxDist float64) (Hit, bool)
}

// Obstacles is a set of axis-aligned boxes.
type Obstacles []r3.Box

var _ Collider = Obstacles(nil)

// Raycast returns the nearest box face hit by the ray.
func (o Obstacles) Raycast(origin, dir r3.Vec, maxDist float64) (Hit, bool) {
	best := Hit{}
	found := false
	for _, b := range o {
		d, n, ok := rayBox(origin, dir, b, maxDist)
		if !ok {
			continue
		}
		if !found || float32(d) < best.Distance {
			best = Hit{Normal: toFloat32(n), Distance: float32(d)}
			found = true
		}
	}
	return best, found
}

// rayBox is the slab test. An origin inside the box hits at distance 0 with the normal facing
// against the ray.
func rayBox(origin, dir r3.Vec, b r3.Box, maxDist float64) (float64, r3.Vec, bool) {
	o := [3]float64{origin.X, origin.Y, origin.Z}
	d := [3]float64{dir.X, dir.Y, dir.Z}
	lo := [3]float64{b.Min.X, b.Min.Y, b.Min.Z}
	hi := [3]float64{b.Max.X, b.Max.Y, b.Max.Z}

	tNear, tFar := math.Inf(-1), math.Inf(1)
	axis, sign := -1, 0.0
	for a := 0; a < 3; a++ {
		if math.Abs(d[a]) < 1e-12 {
			if o[a] < lo[a] || o[a] > hi[a] {
				return 0, r3.Vec{}, false
			}
			continue
		}
		t1 := (lo[a] - o[a]) / d[a]
		t2 := (hi[a] - o[a]) / d[a]
		s := -1.0
		if t1 > t2 {
			t1, t2 = t2, t1
			s = 1
		}
		if t1 > tNear {
			tNear, axis, sign = t1, a, s
		}
		if t2 < tFar {
			tFar = t2
		}
		if tNear > tFar || tFar < 0 {
			return 0, r3.Vec{}, false
		}
	}
	if axis < 0 {
		return 0, r3.Vec{}, false
	}
	if tNear < 0 {
		return 0, r3.Scale(-1, dir), true
	}
	if tNear > maxDist {
		return 0, r3.Vec{}, false
	}
	var n [3]float64
	n[axis] = sign
	return tNear, r3.Vec{X: n[0], Y: n[1], Z: n[2]}, true
}

// Arena is the inside of the rectangular bound [-ExtentX, ExtentX] x [-ExtentZ, ExtentZ].
// Its walls face inward, so a ray leaving the arena hits them. A ray that already left the arena
// and still moves outward hits at distance 0.
type Arena struct {
	ExtentX float64
	ExtentZ float64
}

var _ Collider = Arena{}

// Raycast returns the nearest wall hit by the ray.
func (a Arena) Raycast(origin, dir r3.Vec, maxDist float64) (Hit, bool) {
	best := Hit{}
	found := false
	try := func(t float64, n [3]float32) {
		if t < 0 {
			t = 0
		}
		if t > maxDist {
			return
		}
		if !found || float32(t) < best.Distance {
			best = Hit{Normal: n, Distance: float32(t)}
			found = true
		}
	}

	switch {
	case dir.X > 0:
		try((a.ExtentX-origin.X)/dir.X, [3]float32{-1, 0, 0})
	case dir.X < 0:
		try((-a.ExtentX-origin.X)/dir.X, [3]float32{1, 0, 0})
	}
	switch {
	case dir.Z > 0:
		try((a.ExtentZ-origin.Z)/dir.Z, [3]float32{0, 0, -1})
	case dir.Z < 0:
		try((-a.ExtentZ-origin.Z)/dir.Z, [3]float32{0, 0, 1})
	}
	return best, found
}

// Colliders combines several colliders; the nearest hit wins.
type Colliders []Collider

var _ Collider = Colliders(nil)

// Raycast returns the nearest hit over every member.
func (cs Colliders) Raycast(origin, dir r3.Vec, maxDist float64) (Hit, bool) {
	best := Hit{}
	found := false
	for _, c := range cs {
		if c == nil {
			continue
		}
		h, ok := c.Raycast(origin, dir, maxDist)
		if ok && (!found || h.Distance < best.Distance) {
			best, found = h, true
		}
	}
	return best, found
}

// Probe casts one ray per entity in [start, end) from its position along its velocity and writes
// the result into hits. Entities only touch their own slot, so disjoint ranges may run in parallel.
//
// Parameters:
//   - positions: flat xyz positions (read only)
//   - velocities: flat xyz velocities (read only)
//   - hits: per-entity results (written)
//   - length: ray length
//   - world: collider to cast against (nil clears every slot)
//   - start, end: half-open entity range
func Probe(positions, velocities []float32, hits []Hit, length float32, world Collider, start, end int) {
	for i := start; i < end; i++ {
		hits[i] = Hit{}
		if world == nil {
			continue
		}
		v := vecAt(velocities, i)
		if r3.Norm2(v) == 0 {
			continue
		}
		if h, ok := world.Raycast(vecAt(positions, i), r3.Unit(v), float64(length)); ok {
			hits[i] = h
		}
	}
}

func vecAt(arr []float32, i int) r3.Vec {
	return r3.Vec{X: float64(arr[i*3]), Y: float64(arr[i*3+1]), Z: float64(arr[i*3+2])}
}

func toFloat32(v r3.Vec) [3]float32 {
	return [3]float32{float32(v.X), float32(v.Y), float32(v.Z)}
}
