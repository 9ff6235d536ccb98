package renderer

import (
	"github.com/Carmen-Shannon/oxy-crowd/common"
	"github.com/Carmen-Shannon/oxy-crowd/engine/light"
)

// PresentMode controls how rendered frames are presented to the display surface.
type PresentMode int

const (
	// PresentModeVSync waits for the next vertical blank before presenting, capping frame rate
	// to the monitor's refresh rate. Eliminates tearing.
	PresentModeVSync PresentMode = iota

	// PresentModeUncapped presents frames immediately without waiting for vertical blank.
	// May cause screen tearing but provides the lowest latency.
	PresentModeUncapped
)

// MSAASampleCount controls the number of samples used for multisample anti-aliasing (MSAA).
// WebGPU guarantees support for 1 (off) and 4; higher values are adapter-dependent.
type MSAASampleCount uint32

const (
	// MSAAOff disables multisample anti-aliasing (sample count 1).
	MSAAOff MSAASampleCount = 1

	// MSAA4x enables 4x multisample anti-aliasing. This is the default.
	MSAA4x MSAASampleCount = 4
)

// CameraParams are the per-camera shader parameters.
type CameraParams struct {
	Label          string
	View           common.Mat4
	Projection     common.Mat4
	ViewProjection common.Mat4
	Position       common.Vec3
}

// Backend records and submits the GPU work of a frame. The driver calls, per frame:
// BeginFrame once; then per camera SetupCamera, Clear, optionally SetLightGlobals, any number of
// Draw calls and Submit; and Present once at the end.
type Backend interface {
	// BeginFrame acquires the frame's render target.
	BeginFrame() error

	// SetupCamera uploads the camera parameters used by the following draws.
	SetupCamera(params CameraParams)

	// Clear starts the camera's pass, clearing color to c and depth to 1.
	Clear(c [4]float32) error

	// SetLightGlobals uploads the directional light parameters.
	SetLightGlobals(g light.Globals)

	// Draw records one instanced draw command.
	Draw(cmd *DrawCommand)

	// Submit ends the camera's pass and submits its commands.
	Submit() error

	// Present shows the frame.
	Present()
}
