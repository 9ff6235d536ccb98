package scene

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-crowd/common"
	"github.com/Carmen-Shannon/oxy-crowd/engine/camera"
	"github.com/Carmen-Shannon/oxy-crowd/engine/game_object"
	"github.com/Carmen-Shannon/oxy-crowd/engine/light"
	"github.com/Carmen-Shannon/oxy-crowd/engine/renderer"
)

func testCamera() camera.Camera {
	return camera.NewCamera(
		camera.WithPosition(common.Vec3{0, 0, -10}),
		camera.WithTarget(common.Vec3{0, 0, 0}),
	)
}

func labels(rs []renderer.Renderable, _ int) map[string]bool {
	out := make(map[string]bool, len(rs))
	for _, r := range rs {
		out[r.Label] = true
	}
	return out
}

func TestCullKeepsVisibleQuads(t *testing.T) {
	cam := testCamera()
	s := NewScene("test", cam)

	s.AddRenderable(renderer.Renderable{Label: "front", Layer: renderer.LayerBackground, Center: common.Vec3{0, 0, 0}, Radius: 1})
	s.AddRenderable(renderer.Renderable{Label: "behind", Layer: renderer.LayerBackground, Center: common.Vec3{0, 0, -50}, Radius: 1})
	hidden := game_object.NewGameObject(game_object.WithLabel("hidden"), game_object.WithEnabled(false))
	s.Add(hidden)

	visible, culled := s.Cull(cam.Frustum(), nil)
	got := labels(visible, culled)
	if !got["front"] || got["behind"] || got["hidden"] {
		t.Errorf("Cull() = %v, want only front", got)
	}
	if culled != 1 {
		t.Errorf("Cull() culled %d, want 1 (disabled objects are not counted)", culled)
	}

	s.SetCullingDisabled(true)
	got = labels(s.Cull(cam.Frustum(), nil))
	if !got["front"] || !got["behind"] || got["hidden"] {
		t.Errorf("Cull() with culling disabled = %v", got)
	}
}

func TestCullTracksGameObjects(t *testing.T) {
	cam := testCamera()
	s := NewScene("test", cam)
	obj := game_object.NewGameObject(game_object.WithLabel("mover"), game_object.WithPosition(common.Vec3{0, 0, -50}))
	s.Add(obj)

	if got := labels(s.Cull(cam.Frustum(), nil)); got["mover"] {
		t.Fatalf("object behind the camera was not culled")
	}
	obj.SetPosition(common.Vec3{0, 0, 5})
	if got := labels(s.Cull(cam.Frustum(), nil)); !got["mover"] {
		t.Errorf("object moved into view was culled")
	}
}

func TestRemove(t *testing.T) {
	s := NewScene("test", testCamera())
	e := s.AddRenderable(renderer.Renderable{Label: "a"})
	s.AddRenderable(renderer.Renderable{Label: "b"})
	if s.Count() != 2 {
		t.Fatalf("Count() = %d, want 2", s.Count())
	}
	if !s.Remove(e) {
		t.Errorf("Remove reported false for a live entity")
	}
	if s.Remove(e) {
		t.Errorf("second Remove reported true")
	}
	if s.Count() != 1 {
		t.Errorf("Count() = %d after Remove, want 1", s.Count())
	}
	s.Clear()
	if s.Count() != 0 {
		t.Errorf("Count() = %d after Clear", s.Count())
	}
}

func TestDirectionalLightByInsertionOrder(t *testing.T) {
	point := light.NewLight(light.LightTypePoint)
	disabled := light.NewLight(light.LightTypeDirectional, light.WithEnabled(false))
	first := light.NewLight(light.LightTypeDirectional, light.WithIntensity(2))
	second := light.NewLight(light.LightTypeDirectional)

	s := NewScene("test", testCamera(), WithLights(point, disabled))
	if s.DirectionalLight() != nil {
		t.Fatalf("DirectionalLight() returned a light when none is enabled")
	}

	fe := s.AddLight(first)
	s.AddLight(second)
	if s.DirectionalLight() != first {
		t.Errorf("DirectionalLight() did not return the first enabled directional light")
	}
	if got := s.Lights(); len(got) != 4 || got[0] != point || got[3] != second {
		t.Errorf("Lights() order = %v", got)
	}

	s.Remove(fe)
	if s.DirectionalLight() != second {
		t.Errorf("DirectionalLight() after removing the first = %v", s.DirectionalLight())
	}
}

func TestCameras(t *testing.T) {
	main := testCamera()
	s := NewScene("test", main)
	s.AddCamera(camera.NewCamera(camera.WithLabel("minimap")))
	s.AddCamera(nil)

	cams := s.Cameras()
	if len(cams) != 2 || cams[0] != main || s.Camera() != main {
		t.Errorf("Cameras() = %d cameras, primary preserved = %v", len(cams), cams[0] == main)
	}
}

func TestNewScenePanicsWithoutCamera(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Errorf("NewScene(nil camera) did not panic")
		}
	}()
	NewScene("test", nil)
}
