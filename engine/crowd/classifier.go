package crowd

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

const (
	// FacingThreshold separates the facing sectors from the diagonal ones on the forward axis.
	FacingThreshold = 0.84
	// SideThreshold separates the diagonal sectors from the side ones on the forward axis.
	SideThreshold = 0.40
)

var forward = r3.Vec{Z: 1}

// Sector quantizes a normalized camera-relative direction into one of eight sectors.
// Thresholds compare with a strict greater-than, so a value equal to a threshold falls into the
// lower branch.
//
//	d.z >  0.84               -> 4 (facing camera)
//	0.84 >= d.z >  0.40       -> 3 (d.x > 0) or 5
//	0.40 >= d.z > -0.40       -> 2 (d.x > 0) or 6
//	-0.40 >= d.z > -0.84      -> 1 (d.x > 0) or 7
//	d.z <= -0.84              -> 0 (facing away)
func Sector(d r3.Vec) int {
	right := d.X > 0
	switch {
	case d.Z > FacingThreshold:
		return 4
	case d.Z > SideThreshold:
		if right {
			return 3
		}
		return 5
	case d.Z > -SideThreshold:
		if right {
			return 2
		}
		return 6
	case d.Z > -FacingThreshold:
		if right {
			return 1
		}
		return 7
	default:
		return 0
	}
}

// CameraRelative rotates velocity by the rotation that maps the horizontal camera-to-entity
// direction onto world +Z. If the entity sits directly above or below the camera the velocity is
// returned unchanged.
//
// Parameters:
//   - camera: camera position
//   - position: entity position
//   - velocity: entity velocity
//
// Returns:
//   - r3.Vec: the velocity expressed in the camera-forward frame (not normalized)
func CameraRelative(camera, position, velocity r3.Vec) r3.Vec {
	dir := r3.Sub(position, camera)
	dir.Y = 0
	if r3.Norm2(dir) == 0 {
		return velocity
	}
	dir = r3.Unit(dir)

	cos := r3.Dot(dir, forward)
	axis := r3.Cross(dir, forward)
	if r3.Norm2(axis) < 1e-18 {
		if cos > 0 {
			return velocity
		}
		// Antiparallel: any perpendicular axis works; Y keeps the frame horizontal.
		return r3.NewRotation(math.Pi, r3.Vec{Y: 1}).Rotate(velocity)
	}
	angle := math.Acos(math.Max(-1, math.Min(1, cos)))
	return r3.NewRotation(angle, r3.Unit(axis)).Rotate(velocity)
}

// Classify returns the direction sector of an entity seen from camera. The camera-relative vector
// is normalized before quantization; a zero velocity stays zero and lands in sector 6.
func Classify(camera, position, velocity r3.Vec) int {
	d := CameraRelative(camera, position, velocity)
	if r3.Norm2(d) > 0 {
		d = r3.Unit(d)
	}
	return Sector(d)
}
