package batcher

import (
	"errors"
	"math/rand/v2"
	"slices"
	"testing"

	"github.com/Carmen-Shannon/oxy-crowd/common"
	"github.com/Carmen-Shannon/oxy-crowd/engine/camera"
	"github.com/Carmen-Shannon/oxy-crowd/engine/entity_store"
	"github.com/Carmen-Shannon/oxy-crowd/engine/renderer"
)

func TestChunks(t *testing.T) {
	tests := []struct {
		name string
		n, b int
		want []int
	}{
		{"trailing partial chunk", 1201, 500, []int{500, 500, 201}},
		{"exact multiple", 1000, 500, []int{500, 500}},
		{"smaller than capacity", 7, 500, []int{7}},
		{"capacity one", 3, 1, []int{1, 1, 1}},
		{"empty", 0, 500, nil},
		{"zero capacity", 10, 0, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Chunks(tt.n, tt.b); !slices.Equal(got, tt.want) {
				t.Errorf("Chunks(%d, %d) = %v, want %v", tt.n, tt.b, got, tt.want)
			}
		})
	}
}

func TestNewRejectsInvalidSizes(t *testing.T) {
	if _, err := New(10, 0); !errors.Is(err, ErrInvalidCapacity) {
		t.Errorf("New(10, 0) error = %v, want ErrInvalidCapacity", err)
	}
	if _, err := New(0, 500); !errors.Is(err, ErrInvalidCount) {
		t.Errorf("New(0, 500) error = %v, want ErrInvalidCount", err)
	}
}

func spawnedStore(t *testing.T, n int) *entity_store.Store {
	t.Helper()
	s, err := entity_store.New(n)
	if err != nil {
		t.Fatalf("entity_store.New: %v", err)
	}
	s.Spawn(rand.New(rand.NewPCG(1, 2)), entity_store.SpawnRect{MinX: -20, MinZ: -10, MaxX: 20, MaxZ: 10}, 0.5, 1)
	for i := 0; i < n; i++ {
		s.SetRect(i, common.Rect{X: float32(i), W: 0.125, H: 0.125})
	}
	return s
}

func TestConsumeBuildsOneCommandPerChunkAndPass(t *testing.T) {
	const n = 1201
	store := spawnedStore(t, n)
	b, err := New(n, DefaultCapacity)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	b.Consume(store)

	want := []int{500, 500, 201}
	for _, list := range []*renderer.CommandList{b.DepthList(), b.MainList(), b.ShadowList()} {
		cmds := list.Commands()
		if len(cmds) != len(want) {
			t.Fatalf("%s has %d commands, want %d", list.Name(), len(cmds), len(want))
		}
		for k, cmd := range cmds {
			if cmd.InstanceCount() != want[k] {
				t.Errorf("%s[%d] draws %d instances, want %d", list.Name(), k, cmd.InstanceCount(), want[k])
			}
		}
	}

	placements := store.Placements()
	rects := store.Rects()
	positions := store.Positions()
	for k, span := range b.Spans() {
		depth := b.DepthList().Commands()[k]
		main := b.MainList().Commands()[k]
		shadow := b.ShadowList().Commands()[k]
		if depth.Pass != renderer.PassDepthPrepass || main.Pass != renderer.PassMain || shadow.Pass != renderer.PassShadow {
			t.Fatalf("chunk %d has wrong passes", k)
		}
		if &depth.Transforms[0] != &main.Transforms[0] {
			t.Errorf("chunk %d: depth and main passes do not share scratch", k)
		}
		for j := 0; j < span.Count; j++ {
			i := span.Start + j
			if main.Transforms[j] != placements[i] || main.Rects[j] != rects[i] {
				t.Fatalf("chunk %d instance %d does not match entity %d", k, j, i)
			}
			m := shadow.Transforms[j]
			if m[12] != positions[i*3] || m[14] != positions[i*3+2] {
				t.Fatalf("shadow %d translation = (%v, %v), want entity position", i, m[12], m[14])
			}
			if m[0] != 0.4 || m[5] != 0 || m[6] != 0.4 || m[13] != 0.1 {
				t.Fatalf("shadow %d lost the template: %v", i, m)
			}
		}
	}
}

func TestConsumeIsStableAcrossFrames(t *testing.T) {
	const n = 1000
	store := spawnedStore(t, n)
	b, err := New(n, DefaultCapacity)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	b.Consume(store)
	first := b.Spans()
	scratch := &b.MainList().Commands()[1].Transforms[0]

	allocs := testing.AllocsPerRun(10, func() { b.Consume(store) })
	if allocs != 0 {
		t.Errorf("Consume allocated %.0f times per frame, want 0", allocs)
	}
	if !slices.Equal(first, b.Spans()) {
		t.Errorf("chunk boundaries moved between frames")
	}
	if &b.MainList().Commands()[1].Transforms[0] != scratch {
		t.Errorf("scratch buffer was reallocated")
	}
	if got := Chunks(n, DefaultCapacity); !slices.Equal(got, []int{500, 500}) {
		t.Errorf("Chunks(1000, 500) = %v", got)
	}
	if b.Frames() != 12 {
		t.Errorf("Frames() = %d, want 12", b.Frames())
	}
}

func TestConsumeCopiesInsteadOfAliasing(t *testing.T) {
	store := spawnedStore(t, 3)
	b, err := New(3, 2)
	if err != nil {
		t.Fatal(err)
	}
	b.Consume(store)
	before := b.MainList().Commands()[0].Rects[0]

	store.SetRect(0, common.Rect{X: 99})
	if got := b.MainList().Commands()[0].Rects[0]; got != before {
		t.Errorf("scratch changed with the store: %v", got)
	}
}

func TestShadowScratchKeepsTemplate(t *testing.T) {
	const n = 7
	store := spawnedStore(t, n)
	tmpl := ShadowTemplate()
	tmpl[0], tmpl[13], tmpl[15] = 0.25, 0.05, 1
	b, err := New(n, 4, WithShadowTemplate(tmpl))
	if err != nil {
		t.Fatal(err)
	}
	for k := range b.slots {
		for j, m := range b.slots[k].shadows {
			if m != tmpl {
				t.Fatalf("slot %d shadow %d = %v before the first frame, want the template", k, j, m)
			}
		}
	}

	b.Consume(store)
	b.Consume(store)

	positions := store.Positions()
	for k, span := range b.Spans() {
		shadows := b.slots[k].shadows
		for j, m := range shadows {
			want := tmpl
			if j < span.Count {
				i := span.Start + j
				want[12], want[14] = positions[i*3], positions[i*3+2]
			}
			if m != want {
				t.Errorf("slot %d shadow %d = %v, want %v", k, j, m, want)
			}
		}
	}
}

func TestWithoutShadows(t *testing.T) {
	store := spawnedStore(t, 10)
	b, err := New(10, 4, WithShadows(false))
	if err != nil {
		t.Fatal(err)
	}
	b.Consume(store)
	if b.ShadowList().Len() != 0 {
		t.Errorf("shadow list has %d commands with shadows disabled", b.ShadowList().Len())
	}
}

func TestRegisterWithDriver(t *testing.T) {
	const n = 1201
	store := spawnedStore(t, n)
	b, err := New(n, DefaultCapacity, WithLabel("crowd"))
	if err != nil {
		t.Fatal(err)
	}
	b.Consume(store)

	backend := renderer.NewHeadlessBackend()
	d := renderer.NewDriver(backend)
	b.Register(d)
	b.Register(d)

	if err := d.Render([]camera.Camera{camera.NewCamera()}, nil); err != nil {
		t.Fatalf("Render: %v", err)
	}

	var passes []renderer.PassKind
	for _, e := range backend.Events() {
		if e.Op == "draw" {
			passes = append(passes, e.Pass)
		}
	}
	want := []renderer.PassKind{
		renderer.PassDepthPrepass, renderer.PassDepthPrepass, renderer.PassDepthPrepass,
		renderer.PassMain, renderer.PassMain, renderer.PassMain,
		renderer.PassShadow, renderer.PassShadow, renderer.PassShadow,
	}
	if !slices.Equal(passes, want) {
		t.Errorf("draw passes = %v, want %v", passes, want)
	}
	if backend.Instances() != 3*n {
		t.Errorf("instances = %d, want %d", backend.Instances(), 3*n)
	}

	if !b.Deregister(d) {
		t.Errorf("Deregister reported false")
	}
	if b.Deregister(d) {
		t.Errorf("second Deregister reported true")
	}
	for _, p := range []renderer.InsertionPoint{renderer.BeforeOpaque, renderer.BeforeAlpha, renderer.AfterAlpha} {
		if len(d.Lists(p)) != 0 {
			t.Errorf("lists left at %s after Deregister", p)
		}
	}
}
