package camera

import (
	"math"
	"sync"

	"github.com/Carmen-Shannon/oxy-crowd/common"
)

// Orbit moves a camera on a sphere around a target point. Azimuth is the horizontal angle around
// Y, elevation the angle above the horizontal plane.
type Orbit struct {
	mu *sync.Mutex

	target    common.Vec3
	radius    float32
	azimuth   float32
	elevation float32

	minElevation float32
	maxElevation float32
	minRadius    float32

	paused bool

	// speed is the azimuth change in radians per second.
	speed float32
}

// NewOrbit creates an orbit around target.
//
// Parameters:
//   - target: the point the camera circles and looks at
//   - radius: distance from the target
//   - elevation: angle above the ground plane in radians
//   - speed: azimuth change in radians per second (0 keeps the camera still)
//
// Returns:
//   - *Orbit: the orbit
func NewOrbit(target common.Vec3, radius, elevation, speed float32) *Orbit {
	o := &Orbit{
		mu:           &sync.Mutex{},
		target:       target,
		radius:       radius,
		minElevation: 0.05,
		minRadius:    1,
		maxElevation: float32(math.Pi/2 - 0.1),
		speed:        speed,
	}
	o.elevation = clamp(elevation, o.minElevation, o.maxElevation)
	return o
}

// Advance rotates the orbit by speed * dt and writes the resulting eye and target into cam.
//
// Parameters:
//   - dt: elapsed time in seconds
//   - cam: the camera to move
func (o *Orbit) Advance(dt float32, cam Camera) {
	o.mu.Lock()
	if !o.paused {
		o.azimuth += o.speed * dt
	}
	pos := o.position()
	target := o.target
	o.mu.Unlock()

	cam.SetTarget(target)
	cam.SetPosition(pos)
}

// Position returns the current eye position.
func (o *Orbit) Position() common.Vec3 {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.position()
}

// SetElevation changes the elevation, clamped to stay above the ground and below the pole.
func (o *Orbit) SetElevation(elevation float32) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.elevation = clamp(elevation, o.minElevation, o.maxElevation)
}

// Rotate turns the orbit by the given angles in radians. Elevation stays clamped.
func (o *Orbit) Rotate(dAzimuth, dElevation float32) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.azimuth += dAzimuth
	o.elevation = clamp(o.elevation+dElevation, o.minElevation, o.maxElevation)
}

// Zoom moves the eye towards (negative delta) or away from the target. The radius never drops
// below one unit.
func (o *Orbit) Zoom(delta float32) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.radius = max(o.radius+delta, o.minRadius)
}

// Radius returns the distance from the target.
func (o *Orbit) Radius() float32 {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.radius
}

// TogglePause stops or resumes the automatic rotation and returns true when paused.
func (o *Orbit) TogglePause() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.paused = !o.paused
	return o.paused
}

// position computes the eye from the spherical coordinates. Caller must hold the mutex.
func (o *Orbit) position() common.Vec3 {
	sinElev, cosElev := math.Sincos(float64(o.elevation))
	sinAzim, cosAzim := math.Sincos(float64(o.azimuth))
	return common.Vec3{
		o.target[0] + o.radius*float32(cosElev*sinAzim),
		o.target[1] + o.radius*float32(sinElev),
		o.target[2] + o.radius*float32(cosElev*cosAzim),
	}
}

func clamp(v, lo, hi float32) float32 {
	return max(lo, min(v, hi))
}
