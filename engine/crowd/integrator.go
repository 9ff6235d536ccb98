package crowd

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-crowd/common"
	"github.com/Carmen-Shannon/oxy-crowd/engine/animation"
	"github.com/Carmen-Shannon/oxy-crowd/engine/entity_store"
	"gonum.org/v1/gonum/blas/blas32"
	"gonum.org/v1/gonum/spatial/r3"
)

// Boundary selects how entities are kept inside the arena.
type Boundary int

const (
	// BoundaryWrap teleports an entity past an extent to the opposite edge.
	BoundaryWrap Boundary = iota
	// BoundaryReflect adds the arena walls to the probe colliders, reversing entities that are
	// about to cross a wall.
	BoundaryReflect
)

// String returns the configuration name of the policy.
func (b Boundary) String() string {
	switch b {
	case BoundaryWrap:
		return "wrap"
	case BoundaryReflect:
		return "reflect"
	default:
		return fmt.Sprintf("Boundary(%d)", int(b))
	}
}

// ParseBoundary maps a configuration name to a Boundary.
func ParseBoundary(s string) (Boundary, error) {
	switch s {
	case "", "wrap":
		return BoundaryWrap, nil
	case "reflect":
		return BoundaryReflect, nil
	default:
		return 0, fmt.Errorf("crowd: unknown boundary policy %q", s)
	}
}

// MoveParams are the per-frame inputs of the move step, copied into the chain at schedule time.
type MoveParams struct {
	Camera   r3.Vec
	Elapsed  float64
	Delta    float32
	Boundary Boundary
	ExtentX  float32
	ExtentZ  float32
	Table    *animation.FrameTable
}

var up = common.Vec3{0, 1, 0}

// Move integrates, classifies and selects the frame of every entity in [start, end).
// Per entity: reverse velocity on a blocked probe, advance position by velocity * Delta, apply
// the wrap boundary, pick the sprite sector, select the frame rectangle and rebuild the
// camera-facing placement.
//
// Parameters:
//   - l: the lease of the in-flight chain
//   - hits: probe results of this frame
//   - p: frame inputs
//   - start, end: half-open entity range
func Move(l *entity_store.Lease, hits []Hit, p MoveParams, start, end int) {
	if end <= start {
		return
	}
	pos, vel := l.Positions, l.Velocities

	for i := start; i < end; i++ {
		if hits[i].Blocked() {
			vel[i*3], vel[i*3+1], vel[i*3+2] = -vel[i*3], -vel[i*3+1], -vel[i*3+2]
		}
	}

	n := (end - start) * 3
	blas32.Axpy(p.Delta,
		blas32.Vector{N: n, Inc: 1, Data: vel[start*3 : end*3]},
		blas32.Vector{N: n, Inc: 1, Data: pos[start*3 : end*3]},
	)

	camera := common.Vec3{float32(p.Camera.X), float32(p.Camera.Y), float32(p.Camera.Z)}
	for i := start; i < end; i++ {
		if p.Boundary == BoundaryWrap {
			pos[i*3] = wrap(pos[i*3], p.ExtentX)
			pos[i*3+2] = wrap(pos[i*3+2], p.ExtentZ)
		}

		position := common.Vec3{pos[i*3], pos[i*3+1], pos[i*3+2]}
		dir := Classify(p.Camera, vecAt(pos, i), vecAt(vel, i))
		if p.Table != nil {
			l.Rects[i] = p.Table.Select(i, p.Elapsed, dir)
		}
		common.LookRotation(l.Placements[i][:], position.Sub(camera), up, position)
	}
}

func wrap(v, extent float32) float32 {
	if extent <= 0 {
		return v
	}
	switch {
	case v > extent:
		return -extent
	case v < -extent:
		return extent
	}
	return v
}
