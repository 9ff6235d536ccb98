package crowd

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-crowd/common"
	"github.com/Carmen-Shannon/oxy-crowd/engine/animation"
	"github.com/Carmen-Shannon/oxy-crowd/engine/entity_store"
	"gonum.org/v1/gonum/spatial/r3"
)

// indexedTable returns a table whose rectangle at flat index k has X == k.
func indexedTable(t *testing.T, animationLength int) *animation.FrameTable {
	t.Helper()
	rects := make([]common.Rect, animationLength*animation.DirectionCount)
	for k := range rects {
		rects[k] = common.Rect{X: float32(k), W: 1, H: 1}
	}
	table, err := animation.NewFrameTable(rects, animationLength, nil)
	if err != nil {
		t.Fatalf("NewFrameTable: %v", err)
	}
	return table
}

func TestMove(t *testing.T) {
	table := indexedTable(t, 2)
	store, err := entity_store.New(3)
	if err != nil {
		t.Fatal(err)
	}
	for i, p := range []common.Vec3{{0, 0.5, 0}, {0, 0.5, 0}, {9.8, 0.5, 0}} {
		store.SetPosition(i, p)
		store.SetVelocity(i, common.Vec3{1, 0, 0})
	}

	hits := []Hit{{}, {Normal: [3]float32{-1, 0, 0}}, {}}
	params := MoveParams{
		Camera:   r3.Vec{Z: -100},
		Elapsed:  0.01,
		Delta:    0.5,
		Boundary: BoundaryWrap,
		ExtentX:  10,
		ExtentZ:  10,
		Table:    table,
	}

	lease := store.Lease()
	Move(lease, hits, params, 0, 3)
	lease.Return()

	tests := []struct {
		pos     common.Vec3
		vel     common.Vec3
		wantDir int
	}{
		{common.Vec3{0.5, 0.5, 0}, common.Vec3{1, 0, 0}, 2},
		{common.Vec3{-0.5, 0.5, 0}, common.Vec3{-1, 0, 0}, 6},
		{common.Vec3{-10, 0.5, 0}, common.Vec3{1, 0, 0}, 2},
	}
	for i, tt := range tests {
		if got := store.Position(i); got != tt.pos {
			t.Errorf("entity %d position = %v, want %v", i, got, tt.pos)
		}
		if got := store.Velocity(i); got != tt.vel {
			t.Errorf("entity %d velocity = %v, want %v", i, got, tt.vel)
		}
		if got, want := store.Rect(i), table.Select(i, params.Elapsed, tt.wantDir); got != want {
			t.Errorf("entity %d rect = %v, want %v", i, got, want)
		}
		m := store.Placements()[i]
		if m[12] != tt.pos[0] || m[13] != tt.pos[1] || m[14] != tt.pos[2] || m[15] != 1 {
			t.Errorf("entity %d placement translation = %v, want %v", i, m[12:16], tt.pos)
		}
	}
}

func TestWrap(t *testing.T) {
	tests := []struct {
		v, extent, want float32
	}{
		{5, 10, 5},
		{10, 10, 10},
		{10.1, 10, -10},
		{-10.1, 10, 10},
		{50, 0, 50},
	}
	for _, tt := range tests {
		if got := wrap(tt.v, tt.extent); got != tt.want {
			t.Errorf("wrap(%v, %v) = %v, want %v", tt.v, tt.extent, got, tt.want)
		}
	}
}

func TestParseBoundary(t *testing.T) {
	for _, b := range []Boundary{BoundaryWrap, BoundaryReflect} {
		got, err := ParseBoundary(b.String())
		if err != nil || got != b {
			t.Errorf("ParseBoundary(%q) = %v, %v", b.String(), got, err)
		}
	}
	if _, err := ParseBoundary("bounce"); err == nil {
		t.Error("expected an error for an unknown policy")
	}
}
