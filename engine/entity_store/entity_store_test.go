package entity_store

import (
	"errors"
	"math"
	"math/rand/v2"
	"testing"

	"github.com/Carmen-Shannon/oxy-crowd/common"
)

func mustPanic(t *testing.T, name string, fn func()) {
	t.Helper()
	defer func() {
		if recover() == nil {
			t.Errorf("%s: expected panic", name)
		}
	}()
	fn()
}

func TestNewRejectsInvalidCount(t *testing.T) {
	for _, n := range []int{0, -3} {
		if _, err := New(n); !errors.Is(err, ErrInvalidCount) {
			t.Errorf("New(%d) err = %v, want ErrInvalidCount", n, err)
		}
	}
}

func TestArraysShareEntityCount(t *testing.T) {
	s, err := New(37)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	s.Spawn(rand.New(rand.NewPCG(1, 2)), SpawnRect{MinX: -10, MinZ: -10, MaxX: 10, MaxZ: 10}, 0.5, 1)

	if err := s.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if got := len(s.Positions()) / 3; got != 37 {
		t.Errorf("positions = %d entities, want 37", got)
	}
	if got := len(s.Rects()); got != 37 {
		t.Errorf("rects = %d, want 37", got)
	}
	if got := len(s.Placements()); got != 37 {
		t.Errorf("placements = %d, want 37", got)
	}
}

func TestSpawnStaysInAreaWithUnitHeading(t *testing.T) {
	s, _ := New(200)
	area := SpawnRect{MinX: -14, MinZ: -14, MaxX: 14, MaxZ: 14}
	s.Spawn(rand.New(rand.NewPCG(7, 7)), area, 0.5, 1)

	for i := 0; i < s.Count(); i++ {
		p := s.Position(i)
		if p[0] < area.MinX || p[0] > area.MaxX || p[2] < area.MinZ || p[2] > area.MaxZ || p[1] != 0.5 {
			t.Fatalf("entity %d spawned at %v outside %+v", i, p, area)
		}
		v := s.Velocity(i)
		if v[1] != 0 {
			t.Fatalf("entity %d has vertical velocity %v", i, v)
		}
		if l := math.Hypot(float64(v[0]), float64(v[2])); math.Abs(l-1) > 1e-5 {
			t.Fatalf("entity %d velocity length %v, want 1", i, l)
		}
		m := s.Placements()[i]
		if m[12] != p[0] || m[13] != p[1] || m[14] != p[2] {
			t.Fatalf("entity %d placement translation %v, want %v", i, m[12:15], p)
		}
	}
}

func TestLeaseBlocksReadsAndRelease(t *testing.T) {
	s, _ := New(4)
	l := s.Lease()

	if !s.Leased() {
		t.Fatal("store should report leased")
	}
	mustPanic(t, "Rects while leased", func() { s.Rects() })
	mustPanic(t, "Position while leased", func() { s.Position(0) })
	mustPanic(t, "SetRect while leased", func() { s.SetRect(0, common.Rect{}) })
	mustPanic(t, "second Lease", func() { s.Lease() })
	mustPanic(t, "Release while leased", func() { _ = s.Release() })

	l.Rects[2] = common.Rect{X: 0.5, Y: 0.25, W: 0.125, H: 0.125}
	l.Return()
	l.Return()

	if s.Leased() {
		t.Fatal("store still leased after Return")
	}
	if got := s.Rect(2); got.X != 0.5 || got.W != 0.125 {
		t.Errorf("write through lease lost: %+v", got)
	}
}

func TestReleaseTwice(t *testing.T) {
	s, _ := New(3)
	if err := s.Release(); err != nil {
		t.Fatalf("first Release: %v", err)
	}
	if err := s.Release(); !errors.Is(err, ErrReleased) {
		t.Errorf("second Release err = %v, want ErrReleased", err)
	}
	if !s.Released() {
		t.Error("Released() = false after Release")
	}
	if err := s.Validate(); !errors.Is(err, ErrReleased) {
		t.Errorf("Validate after Release = %v, want ErrReleased", err)
	}
	mustPanic(t, "Lease after Release", func() { s.Lease() })
}
