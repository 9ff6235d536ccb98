package camera

import (
	"math"
	"testing"

	"github.com/Carmen-Shannon/oxy-crowd/common"
)

func TestCameraFrustumFollowsPosition(t *testing.T) {
	cam := NewCamera(
		WithPosition(common.Vec3{0, 5, -20}),
		WithTarget(common.Vec3{0, 0, 0}),
		WithAspect(16.0/9.0),
		WithClipPlanes(0.1, 100),
	)

	f := cam.Frustum()
	if !f.ContainsSphere(common.Vec3{0, 0, 0}, 1) {
		t.Error("target should be visible")
	}
	if f.ContainsSphere(common.Vec3{0, 0, -40}, 1) {
		t.Error("point behind the camera should be culled")
	}

	cam.SetPosition(common.Vec3{0, 5, -200})
	f = cam.Frustum()
	if f.ContainsSphere(common.Vec3{0, 0, 0}, 1) {
		t.Error("target beyond the far plane should be culled after moving")
	}
}

func TestCameraViewMatrixMovesEyeToOrigin(t *testing.T) {
	eye := common.Vec3{3, 4, -5}
	cam := NewCamera(WithPosition(eye), WithTarget(common.Vec3{0, 0, 0}))
	v := cam.ViewMatrix()

	// Transform the eye: view * (eye, 1) must be the origin.
	for r := 0; r < 3; r++ {
		s := v[r]*eye[0] + v[4+r]*eye[1] + v[8+r]*eye[2] + v[12+r]
		if math.Abs(float64(s)) > 1e-5 {
			t.Fatalf("row %d of view*eye = %v, want 0", r, s)
		}
	}
}

func TestOrbitAdvance(t *testing.T) {
	cam := NewCamera()
	o := NewOrbit(common.Vec3{0, 0, 0}, 10, 0, float32(math.Pi/2))

	o.Advance(1, cam)
	p := cam.Position()
	// A quarter turn from azimuth 0 lands on +X; elevation clamps slightly above the ground.
	if p[0] < 9.9 || math.Abs(float64(p[2])) > 1e-4 || p[1] <= 0 {
		t.Errorf("position after a quarter turn = %v", p)
	}
	if cam.Target() != (common.Vec3{}) {
		t.Errorf("target = %v, want origin", cam.Target())
	}
}

func TestOrbitControls(t *testing.T) {
	cam := NewCamera()
	o := NewOrbit(common.Vec3{0, 0, 0}, 10, 0.5, 1)

	o.Zoom(-20)
	if o.Radius() != 1 {
		t.Errorf("radius after zooming past the target = %v, want 1", o.Radius())
	}
	o.Zoom(4)
	if o.Radius() != 5 {
		t.Errorf("radius = %v, want 5", o.Radius())
	}

	if !o.TogglePause() {
		t.Fatal("first toggle must pause")
	}
	before := o.Position()
	o.Advance(2, cam)
	if cam.Position() != before {
		t.Errorf("paused orbit moved from %v to %v", before, cam.Position())
	}

	o.Rotate(0, 10)
	if p := o.Position(); p[1] < 4.9 {
		t.Errorf("elevation above the pole must clamp near the top, eye = %v", p)
	}
	if o.TogglePause() {
		t.Error("second toggle must resume")
	}
}

func TestUniformMarshal(t *testing.T) {
	cam := NewCamera(WithPosition(common.Vec3{1, 2, 3}))
	u := Uniform(cam)
	buf := u.Marshal(make([]byte, 128))
	if len(buf) != 80 {
		t.Fatalf("len = %d, want 80", len(buf))
	}
	if got := math.Float32frombits(uint32(buf[68]) | uint32(buf[69])<<8 | uint32(buf[70])<<16 | uint32(buf[71])<<24); got != 2 {
		t.Errorf("camera y = %v, want 2", got)
	}
}
