package camera

import (
	"math"
	"sync"

	"github.com/Carmen-Shannon/oxy-crowd/common"
)

// cameraImpl is the implementation of the Camera interface.
type cameraImpl struct {
	mu *sync.Mutex

	label string

	position common.Vec3
	target   common.Vec3
	up       common.Vec3

	fov    float32
	aspect float32
	near   float32
	far    float32

	viewMatrix           common.Mat4
	projectionMatrix     common.Mat4
	viewProjectionMatrix common.Mat4
	frustum              common.Frustum
}

// Camera is a perspective look-at camera. Matrices and the frustum are recomputed whenever a
// parameter changes, so readers always see a consistent set.
type Camera interface {
	// Label returns the camera's debug label.
	Label() string

	// Position returns the eye position in world space.
	Position() common.Vec3

	// Target returns the point the camera looks at.
	Target() common.Vec3

	// Up returns the camera's up vector.
	Up() common.Vec3

	// Fov returns the vertical field of view in radians.
	Fov() float32

	// Aspect returns the viewport aspect ratio (width / height).
	Aspect() float32

	// Near returns the near clipping plane distance.
	Near() float32

	// Far returns the far clipping plane distance.
	Far() float32

	// ViewMatrix returns the world-to-view matrix.
	ViewMatrix() common.Mat4

	// ProjectionMatrix returns the view-to-clip matrix (WebGPU depth range [0, 1]).
	ProjectionMatrix() common.Mat4

	// ViewProjectionMatrix returns projection * view.
	ViewProjectionMatrix() common.Mat4

	// Frustum returns the world-space view frustum used for culling.
	Frustum() common.Frustum

	// SetPosition moves the eye.
	SetPosition(p common.Vec3)

	// SetTarget changes the look-at point.
	SetTarget(t common.Vec3)

	// SetAspect changes the aspect ratio, typically after a window resize.
	SetAspect(aspect float32)

	// SetFov changes the vertical field of view in radians.
	SetFov(fov float32)
}

var _ Camera = &cameraImpl{}

// NewCamera creates a camera at (0, 5, -10) looking at the origin with a 45 degree field of view.
//
// Parameters:
//   - options: functional options to configure the camera
//
// Returns:
//   - Camera: the camera with up-to-date matrices
func NewCamera(options ...CameraBuilderOption) Camera {
	c := &cameraImpl{
		mu:       &sync.Mutex{},
		label:    "camera",
		position: common.Vec3{0, 5, -10},
		up:       common.Vec3{0, 1, 0},
		fov:      45.0 * (math.Pi / 180.0),
		aspect:   1.0,
		near:     0.1,
		far:      200.0,
	}
	for _, option := range options {
		option(c)
	}
	c.updateMatrices()
	return c
}

func (c *cameraImpl) Label() string {
	return c.label
}

func (c *cameraImpl) Position() common.Vec3 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.position
}

func (c *cameraImpl) Target() common.Vec3 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.target
}

func (c *cameraImpl) Up() common.Vec3 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.up
}

func (c *cameraImpl) Fov() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.fov
}

func (c *cameraImpl) Aspect() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.aspect
}

func (c *cameraImpl) Near() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.near
}

func (c *cameraImpl) Far() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.far
}

func (c *cameraImpl) ViewMatrix() common.Mat4 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.viewMatrix
}

func (c *cameraImpl) ProjectionMatrix() common.Mat4 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.projectionMatrix
}

func (c *cameraImpl) ViewProjectionMatrix() common.Mat4 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.viewProjectionMatrix
}

func (c *cameraImpl) Frustum() common.Frustum {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.frustum
}

func (c *cameraImpl) SetPosition(p common.Vec3) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.position = p
	c.updateMatrices()
}

func (c *cameraImpl) SetTarget(t common.Vec3) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.target = t
	c.updateMatrices()
}

func (c *cameraImpl) SetAspect(aspect float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if aspect <= 0 {
		return
	}
	c.aspect = aspect
	c.updateMatrices()
}

func (c *cameraImpl) SetFov(fov float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fov = fov
	c.updateMatrices()
}

// updateMatrices recomputes view, projection, view-projection and frustum.
// Caller must hold the mutex (or own c exclusively during construction).
func (c *cameraImpl) updateMatrices() {
	common.LookAt(c.viewMatrix[:], c.position, c.target, c.up)
	common.Perspective(c.projectionMatrix[:], c.fov, c.aspect, c.near, c.far)
	common.Mul4(c.viewProjectionMatrix[:], c.projectionMatrix[:], c.viewMatrix[:])
	c.frustum = common.ExtractFrustumFromMatrix(c.viewProjectionMatrix[:])
}
