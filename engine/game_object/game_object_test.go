package game_object

import (
	"math"
	"testing"

	"github.com/Carmen-Shannon/oxy-crowd/common"
	"github.com/Carmen-Shannon/oxy-crowd/engine/renderer"
)

func TestRenderableFollowsTransform(t *testing.T) {
	obj := NewGameObject(
		WithLabel("ground"),
		WithLayer(renderer.LayerBackground, renderer.QueueOpaque),
		WithPosition(common.Vec3{1, 0, 2}),
		WithRotation(common.Vec3{-math.Pi / 2, 0, 0}),
		WithScale(common.Vec3{30, 20, 1}),
	)

	r := obj.Renderable()
	if r.Layer != renderer.LayerBackground || r.Label != "ground" {
		t.Errorf("Renderable() = %+v", r)
	}
	if r.Transform[12] != 1 || r.Transform[13] != 0 || r.Transform[14] != 2 {
		t.Errorf("translation = %v", r.Transform[12:15])
	}
	wantRadius := 0.5 * float32(math.Sqrt(30*30+20*20))
	if math.Abs(float64(r.Radius-wantRadius)) > 1e-4 {
		t.Errorf("Radius = %v, want %v", r.Radius, wantRadius)
	}

	obj.SetPosition(common.Vec3{5, 0, 5})
	if c := obj.Renderable().Center; c != (common.Vec3{5, 0, 5}) {
		t.Errorf("Center after move = %v", c)
	}
}

func TestIDsAreUnique(t *testing.T) {
	a, b := NewGameObject(), NewGameObject()
	if a.ID() == b.ID() {
		t.Errorf("two objects share ID %d", a.ID())
	}
	if !a.Enabled() {
		t.Errorf("new object is disabled")
	}
	a.SetEnabled(false)
	if a.Enabled() {
		t.Errorf("SetEnabled(false) had no effect")
	}
}
