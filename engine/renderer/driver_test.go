package renderer

import (
	"errors"
	"slices"
	"testing"

	"github.com/Carmen-Shannon/oxy-crowd/common"
	"github.com/Carmen-Shannon/oxy-crowd/engine/camera"
	"github.com/Carmen-Shannon/oxy-crowd/engine/light"
	"github.com/Carmen-Shannon/oxy-crowd/engine/renderer/material"
)

type staticScene struct {
	items  []Renderable
	hidden int
	light  light.Light
}

func (s *staticScene) Cull(_ common.Frustum, out []Renderable) ([]Renderable, int) {
	return append(out, s.items...), s.hidden
}

func (s *staticScene) DirectionalLight() light.Light {
	return s.light
}

func (s *staticScene) Ambient() [3]float32 {
	return [3]float32{0.2, 0.2, 0.2}
}

func quad(label string, layer Layer, queue Queue, mat material.Material, z float32) Renderable {
	return Renderable{
		Label:     label,
		Layer:     layer,
		Queue:     queue,
		Material:  mat,
		Transform: common.IdentityMat4(),
		Center:    common.Vec3{0, 0, z},
		Radius:    1,
	}
}

func listWith(name, label string, pass PassKind, n int) *CommandList {
	l := NewCommandList(name, 1)
	l.Append(DrawCommand{
		Label:      label,
		Pass:       pass,
		Instances:  n,
		Transforms: make([]common.Mat4, n),
	})
	return l
}

func ops(events []BackendEvent) []string {
	out := make([]string, 0, len(events))
	for _, e := range events {
		out = append(out, e.String())
	}
	return out
}

func TestRenderPassOrder(t *testing.T) {
	matA := material.NewMaterial(material.WithName("a"))
	matB := material.NewMaterial(material.WithName("b"))

	scene := &staticScene{
		items: []Renderable{
			quad("bg_far", LayerBackground, QueueOpaque, nil, 30),
			quad("bg_near", LayerBackground, QueueOpaque, nil, 5),
			quad("char_b", LayerCharacter, QueueOpaque, matB, 2),
			quad("char_a_far", LayerCharacter, QueueOpaque, matA, 20),
			quad("char_a_near", LayerCharacter, QueueTransparent, matA, 3),
			quad("shadow_near", LayerShadow, QueueTransparent, nil, 1),
			quad("shadow_far", LayerShadow, QueueTransparent, nil, 9),
		},
		light: light.NewLight(light.LightTypeDirectional),
	}

	backend := NewHeadlessBackend()
	d := NewDriver(backend)
	d.Register(BeforeOpaque, listWith("depth", "crowd_depth", PassDepthPrepass, 3))
	d.Register(BeforeAlpha, listWith("main", "crowd_main", PassMain, 3))
	d.Register(AfterAlpha, listWith("shadow", "crowd_shadow", PassShadow, 3))

	cam := camera.NewCamera(camera.WithLabel("main"), camera.WithPosition(common.Vec3{0, 0, 0}), camera.WithTarget(common.Vec3{0, 0, 1}))
	if err := d.Render([]camera.Camera{cam}, scene); err != nil {
		t.Fatalf("Render: %v", err)
	}

	want := []string{
		"begin", "camera", "clear", "light",
		"draw(depth_prepass,crowd_depth,3)",
		"draw(background,bg_near,1)",
		"draw(background,bg_far,1)",
		"draw(depth_prepass,char_b,1)",
		"draw(depth_prepass,char_a_far,1)",
		"draw(main,crowd_main,3)",
	}
	// material a was created first, so its group comes before b
	want = append(want,
		"draw(main,char_a_near,1)",
		"draw(main,char_a_far,1)",
		"draw(main,char_b,1)",
		"draw(shadow,shadow_far,1)",
		"draw(shadow,shadow_near,1)",
		"draw(shadow,crowd_shadow,3)",
		"submit", "present",
	)

	got := ops(backend.Events())
	if !slices.Equal(got, want) {
		t.Fatalf("event order\n got: %v\nwant: %v", got, want)
	}

	stats := d.Stats()
	if stats.Cameras != 1 || stats.DrawCalls != 12 || stats.Instances != 18 {
		t.Errorf("Stats() = %+v", stats)
	}
}

func TestRenderSkipsMissingLight(t *testing.T) {
	backend := NewHeadlessBackend()
	d := NewDriver(backend)
	cam := camera.NewCamera()

	if err := d.Render([]camera.Camera{cam}, &staticScene{}); err != nil {
		t.Fatalf("Render: %v", err)
	}
	if err := d.Render([]camera.Camera{cam}, nil); err != nil {
		t.Fatalf("Render without scene: %v", err)
	}
	for _, e := range backend.Events() {
		if e.Op == "light" {
			t.Fatalf("light globals pushed without a directional light")
		}
	}
}

func TestRenderCountsCulledPerCamera(t *testing.T) {
	d := NewDriver(NewHeadlessBackend())
	scene := &staticScene{
		items:  []Renderable{quad("visible", LayerBackground, QueueOpaque, nil, 5)},
		hidden: 3,
	}
	cams := []camera.Camera{camera.NewCamera(camera.WithLabel("left")), camera.NewCamera(camera.WithLabel("right"))}

	if err := d.Render(cams, scene); err != nil {
		t.Fatalf("Render: %v", err)
	}
	if got := d.Stats().Culled; got != 6 {
		t.Errorf("Stats().Culled = %d, want 6", got)
	}

	if err := d.Render(cams[:1], nil); err != nil {
		t.Fatalf("Render without scene: %v", err)
	}
	if got := d.Stats().Culled; got != 0 {
		t.Errorf("Stats().Culled = %d after a frame without a scene, want 0", got)
	}
}

func TestRenderPresentsOncePerFrame(t *testing.T) {
	backend := NewHeadlessBackend()
	d := NewDriver(backend)
	d.Register(BeforeAlpha, listWith("main", "crowd_main", PassMain, 2))

	cams := []camera.Camera{
		camera.NewCamera(camera.WithLabel("left")),
		camera.NewCamera(camera.WithLabel("right")),
	}
	if err := d.Render(cams, nil); err != nil {
		t.Fatalf("Render: %v", err)
	}

	counts := map[string]int{}
	drawsPerCamera := map[string]int{}
	for _, e := range backend.Events() {
		counts[e.Op]++
		if e.Op == "draw" {
			drawsPerCamera[e.Camera]++
		}
	}
	if counts["begin"] != 1 || counts["present"] != 1 {
		t.Errorf("begin/present = %d/%d, want 1/1", counts["begin"], counts["present"])
	}
	if counts["submit"] != 2 || counts["clear"] != 2 {
		t.Errorf("submit/clear = %d/%d, want 2/2", counts["submit"], counts["clear"])
	}
	if drawsPerCamera["left"] != 1 || drawsPerCamera["right"] != 1 {
		t.Errorf("draws per camera = %v", drawsPerCamera)
	}
}

func TestRenderNoCameras(t *testing.T) {
	backend := NewHeadlessBackend()
	d := NewDriver(backend)
	if err := d.Render(nil, nil); err != nil {
		t.Fatalf("Render: %v", err)
	}
	if n := len(backend.Events()); n != 0 {
		t.Errorf("recorded %d events for an empty camera list", n)
	}
}

func TestRenderBeginFrameError(t *testing.T) {
	boom := errors.New("surface lost")
	d := NewDriver(NewHeadlessBackend(WithBeginFrameError(boom)))
	err := d.Render([]camera.Camera{camera.NewCamera()}, nil)
	if !errors.Is(err, boom) {
		t.Fatalf("Render error = %v, want %v", err, boom)
	}
}

func TestRegisterDeregister(t *testing.T) {
	d := NewDriver(NewHeadlessBackend())
	l := NewCommandList("crowd", 1)

	d.Register(BeforeAlpha, l)
	d.Register(BeforeAlpha, l)
	if n := len(d.Lists(BeforeAlpha)); n != 1 {
		t.Fatalf("Lists(BeforeAlpha) has %d entries after duplicate register, want 1", n)
	}
	if d.Deregister(AfterAlpha, l) {
		t.Errorf("Deregister at the wrong point reported true")
	}
	if !d.Deregister(BeforeAlpha, l) {
		t.Errorf("Deregister reported false for a registered list")
	}
	if d.Deregister(BeforeAlpha, l) {
		t.Errorf("second Deregister reported true")
	}
	if n := len(d.Lists(BeforeAlpha)); n != 0 {
		t.Errorf("Lists(BeforeAlpha) has %d entries after deregister", n)
	}
}

func TestDriversAreIndependent(t *testing.T) {
	b1, b2 := NewHeadlessBackend(), NewHeadlessBackend()
	d1, d2 := NewDriver(b1), NewDriver(b2)
	d1.Register(BeforeAlpha, listWith("one", "one", PassMain, 4))

	cams := []camera.Camera{camera.NewCamera()}
	if err := d1.Render(cams, nil); err != nil {
		t.Fatal(err)
	}
	if err := d2.Render(cams, nil); err != nil {
		t.Fatal(err)
	}
	if b1.Instances() != 4 || b2.Instances() != 0 {
		t.Errorf("instances = %d/%d, want 4/0", b1.Instances(), b2.Instances())
	}
}

func TestDrawCommandInstanceCount(t *testing.T) {
	tests := []struct {
		name       string
		instances  int
		transforms int
		want       int
	}{
		{"full", 3, 3, 3},
		{"clamped to transforms", 5, 2, 2},
		{"negative", -1, 2, 0},
		{"empty", 0, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := DrawCommand{Instances: tt.instances, Transforms: make([]common.Mat4, tt.transforms)}
			if got := cmd.InstanceCount(); got != tt.want {
				t.Errorf("InstanceCount() = %d, want %d", got, tt.want)
			}
		})
	}
}
