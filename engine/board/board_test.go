package board

import (
	"image/color"
	"math"
	"slices"
	"testing"

	"github.com/Carmen-Shannon/oxy-crowd/common"
	"github.com/Carmen-Shannon/oxy-crowd/engine/animation"
	"github.com/Carmen-Shannon/oxy-crowd/engine/camera"
	"github.com/Carmen-Shannon/oxy-crowd/engine/crowd"
	"github.com/Carmen-Shannon/oxy-crowd/engine/entity_store"
	rl "github.com/gen2brain/raylib-go/raylib"
)

func translation(x, y, z float32) common.Mat4 {
	m := common.IdentityMat4()
	m[12], m[13], m[14] = x, y, z
	return m
}

func TestBoardSourceAndPosition(t *testing.T) {
	var b Board
	b.SetRect(common.Rect{X: 0.25, Y: 0.5, W: 0.125, H: 0.25})
	b.SetPlacement(translation(1, 0.5, -3))

	if got, want := b.Source(256, 128), rl.NewRectangle(64, 64, 32, 32); got != want {
		t.Errorf("Source = %+v, want %+v", got, want)
	}
	if got, want := b.Position(), rl.NewVector3(1, 0.5, -3); got != want {
		t.Errorf("Position = %+v, want %+v", got, want)
	}
}

func TestSortBackToFront(t *testing.T) {
	s := NewStage(4)
	xs := []float32{2, 10, -1, 5}
	for i, x := range xs {
		s.Board(i).SetPlacement(translation(x, 0, 0))
	}

	got := s.SortBackToFront(common.Vec3{0, 0, 0})
	if want := []int{1, 3, 0, 2}; !slices.Equal(got, want) {
		t.Errorf("order = %v, want %v", got, want)
	}

	got = s.SortBackToFront(common.Vec3{10, 0, 0})
	if want := []int{2, 0, 3, 1}; !slices.Equal(got, want) {
		t.Errorf("order from +x = %v, want %v", got, want)
	}
}

func TestStageWithBoardConsumer(t *testing.T) {
	const n = 5
	tex := &animation.Texture{Key: "sheet"}
	s := NewStage(n, WithBoardSize(2, 3))
	if s.Len() != n || s.size != rl.NewVector2(2, 3) {
		t.Fatalf("stage len/size = %d/%+v", s.Len(), s.size)
	}

	consumer := crowd.NewBoardConsumer(s.Boards(), tex)

	store, err := entity_store.New(n)
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < n; i++ {
		store.SetRect(i, common.Rect{X: float32(i) / 8, W: 0.125, H: 0.125})
	}
	consumer.Consume(store)

	for i := 0; i < n; i++ {
		b := s.Board(i)
		if b.Texture() != tex {
			t.Errorf("board %d texture not assigned", i)
		}
		if got := b.Rect().X; got != float32(i)/8 {
			t.Errorf("board %d rect x = %v, want %v", i, got, float32(i)/8)
		}
	}
}

func TestToColor(t *testing.T) {
	tests := []struct {
		in   [4]float32
		want color.RGBA
	}{
		{[4]float32{0, 0, 0, 0.5}, color.RGBA{A: 128}},
		{[4]float32{1, 2, -1, 1}, color.RGBA{R: 255, G: 255, B: 0, A: 255}},
	}
	for _, tt := range tests {
		if got := toColor(tt.in); got != tt.want {
			t.Errorf("toColor(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestCamera3D(t *testing.T) {
	cam := camera.NewCamera(
		camera.WithPosition(common.Vec3{0, 5, 10}),
		camera.WithTarget(common.Vec3{0, 0, 0}),
		camera.WithFov(math.Pi/4),
	)
	rc := Camera3D(cam)
	if rc.Position != rl.NewVector3(0, 5, 10) || rc.Target != rl.NewVector3(0, 0, 0) {
		t.Errorf("camera eye/target = %+v/%+v", rc.Position, rc.Target)
	}
	if math.Abs(float64(rc.Fovy)-45) > 1e-4 {
		t.Errorf("Fovy = %v, want 45 degrees", rc.Fovy)
	}
	if rc.Projection != rl.CameraPerspective {
		t.Errorf("projection = %v, want perspective", rc.Projection)
	}
}
