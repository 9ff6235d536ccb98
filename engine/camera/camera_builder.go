package camera

import "github.com/Carmen-Shannon/oxy-crowd/common"

// CameraBuilderOption is a functional option used to configure a Camera during construction.
type CameraBuilderOption func(*cameraImpl)

// WithLabel sets the camera's debug label.
func WithLabel(label string) CameraBuilderOption {
	return func(c *cameraImpl) {
		c.label = label
	}
}

// WithPosition sets the eye position.
//
// Parameters:
//   - p: world-space eye position
//
// Returns:
//   - CameraBuilderOption: a function that sets the camera position
func WithPosition(p common.Vec3) CameraBuilderOption {
	return func(c *cameraImpl) {
		c.position = p
	}
}

// WithTarget sets the look-at point.
//
// Parameters:
//   - t: world-space target
//
// Returns:
//   - CameraBuilderOption: a function that sets the camera target
func WithTarget(t common.Vec3) CameraBuilderOption {
	return func(c *cameraImpl) {
		c.target = t
	}
}

// WithUp sets the camera's up vector.
func WithUp(up common.Vec3) CameraBuilderOption {
	return func(c *cameraImpl) {
		c.up = up
	}
}

// WithFov sets the vertical field of view in radians.
func WithFov(fov float32) CameraBuilderOption {
	return func(c *cameraImpl) {
		c.fov = fov
	}
}

// WithAspect sets the aspect ratio (width / height).
func WithAspect(aspect float32) CameraBuilderOption {
	return func(c *cameraImpl) {
		c.aspect = aspect
	}
}

// WithClipPlanes sets the near and far clipping plane distances.
//
// Parameters:
//   - near: near plane distance (must be > 0)
//   - far: far plane distance (must be > near)
//
// Returns:
//   - CameraBuilderOption: a function that sets both clip planes
func WithClipPlanes(near, far float32) CameraBuilderOption {
	return func(c *cameraImpl) {
		c.near = near
		c.far = far
	}
}
