// Package batcher turns crowd entity state into instanced draw commands. The entities are split
// into fixed-size chunks; every chunk owns scratch arrays allocated once, and each frame the
// chunk's placements and rects are copied in and referenced by one draw command per pass.
package batcher

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/Carmen-Shannon/oxy-crowd/common"
	"github.com/Carmen-Shannon/oxy-crowd/engine/entity_store"
	"github.com/Carmen-Shannon/oxy-crowd/engine/renderer"
	"github.com/Carmen-Shannon/oxy-crowd/engine/renderer/material"
)

// DefaultCapacity is the number of instances per draw command unless New is given another.
const DefaultCapacity = 500

var (
	// ErrInvalidCapacity is returned when a batcher is created with a non-positive capacity.
	ErrInvalidCapacity = errors.New("batcher: batch capacity must be positive")
	// ErrInvalidCount is returned when a batcher is created for a non-positive entity count.
	ErrInvalidCount = errors.New("batcher: entity count must be positive")
)

// ShadowTemplate returns the default shadow placement: the unit quad laid flat on the ground,
// squashed to 40% and lifted 0.1 above it. Consume overwrites only its X and Z translation.
func ShadowTemplate() common.Mat4 {
	m := common.IdentityMat4()
	m[0] = 0.4
	m[5] = 0
	m[6] = 0.4
	m[13] = 0.1
	return m
}

// Chunks splits n entities into batches of at most b: ceil(n/b) sizes, all b except a shorter
// last one. It returns nil when n <= 0 or b <= 0.
//
// Parameters:
//   - n: entity count
//   - b: batch capacity
//
// Returns:
//   - []int: the chunk sizes in index order
func Chunks(n, b int) []int {
	spans := common.Partition(n, b)
	if spans == nil {
		return nil
	}
	sizes := make([]int, len(spans))
	for i, s := range spans {
		sizes[i] = s.Count
	}
	return sizes
}

// slot is the scratch storage of one chunk.
type slot struct {
	span       common.Span
	placements []common.Mat4
	rects      []common.Rect
	shadows    []common.Mat4
}

// Batcher is the instanced draw producer of one crowd. It implements crowd.Consumer.
type Batcher struct {
	mu *sync.Mutex

	label    string
	count    int
	capacity int
	slots    []slot

	depth  *renderer.CommandList
	main   *renderer.CommandList
	shadow *renderer.CommandList

	// labels are formatted once so Consume does not allocate
	depthLabels  []string
	mainLabels   []string
	shadowLabels []string

	material       material.Material
	shadowMaterial material.Material
	shadowTemplate common.Mat4
	shadowTint     [4]float32
	shadows        bool

	drivers []*renderer.Driver
	frames  int
}

// New creates a batcher for count entities drawn capacity at a time. All scratch storage and the
// three command lists are allocated here and reused for the batcher's lifetime.
//
// Parameters:
//   - count: entity count of the crowd
//   - capacity: instances per draw command (B)
//   - opts: batcher options
//
// Returns:
//   - *Batcher: the batcher
//   - error: ErrInvalidCount or ErrInvalidCapacity
func New(count, capacity int, opts ...BatcherOption) (*Batcher, error) {
	if count <= 0 {
		return nil, ErrInvalidCount
	}
	if capacity <= 0 {
		return nil, ErrInvalidCapacity
	}

	b := &Batcher{
		mu:             &sync.Mutex{},
		label:          "crowd",
		count:          count,
		capacity:       capacity,
		shadowTemplate: ShadowTemplate(),
		shadowTint:     [4]float32{0, 0, 0, 0.5},
		shadows:        true,
	}
	for _, opt := range opts {
		opt(b)
	}
	b.shadowMaterial = common.Coalesce(b.shadowMaterial, b.material)

	spans := common.Partition(count, capacity)
	b.slots = make([]slot, len(spans))
	b.depthLabels = make([]string, len(spans))
	b.mainLabels = make([]string, len(spans))
	b.shadowLabels = make([]string, len(spans))
	for i, span := range spans {
		b.slots[i] = slot{
			span:       span,
			placements: make([]common.Mat4, capacity),
			rects:      make([]common.Rect, capacity),
		}
		if b.shadows {
			b.slots[i].shadows = make([]common.Mat4, capacity)
			for j := range b.slots[i].shadows {
				b.slots[i].shadows[j] = b.shadowTemplate
			}
		}
		b.depthLabels[i] = fmt.Sprintf("%s_depth_%d", b.label, i)
		b.mainLabels[i] = fmt.Sprintf("%s_main_%d", b.label, i)
		b.shadowLabels[i] = fmt.Sprintf("%s_shadow_%d", b.label, i)
	}

	b.depth = renderer.NewCommandList(b.label+"_depth", len(spans))
	b.main = renderer.NewCommandList(b.label+"_main", len(spans))
	b.shadow = renderer.NewCommandList(b.label+"_shadow", len(spans))

	return b, nil
}

// Count returns the entity count the batcher was built for.
func (b *Batcher) Count() int {
	return b.count
}

// Capacity returns the per-command instance capacity.
func (b *Batcher) Capacity() int {
	return b.capacity
}

// Spans returns the chunk index ranges.
func (b *Batcher) Spans() []common.Span {
	out := make([]common.Span, len(b.slots))
	for i, s := range b.slots {
		out[i] = s.span
	}
	return out
}

// DepthList returns the depth prepass command list.
func (b *Batcher) DepthList() *renderer.CommandList {
	return b.depth
}

// MainList returns the main pass command list.
func (b *Batcher) MainList() *renderer.CommandList {
	return b.main
}

// ShadowList returns the shadow pass command list.
func (b *Batcher) ShadowList() *renderer.CommandList {
	return b.shadow
}

// Frames returns how many times Consume rebuilt the lists.
func (b *Batcher) Frames() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.frames
}

// Consume copies the store's placements and rects into the chunk scratch arrays and rebuilds the
// three command lists. It must not run while a driver renders those lists; the crowd scheduler
// calls it between frames.
//
// Parameters:
//   - store: the crowd state, readable (not leased)
func (b *Batcher) Consume(store *entity_store.Store) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if n := store.Count(); n != b.count {
		panic(fmt.Sprintf("batcher: store holds %d entities, batcher was built for %d", n, b.count))
	}
	placements := store.Placements()
	rects := store.Rects()
	positions := store.Positions()

	b.depth.Reset()
	b.main.Reset()
	b.shadow.Reset()

	for k := range b.slots {
		s := &b.slots[k]
		start, end, n := s.span.Start, s.span.End(), s.span.Count

		copy(s.placements, placements[start:end])
		copy(s.rects, rects[start:end])

		b.depth.Append(renderer.DrawCommand{
			Label:      b.depthLabels[k],
			Pass:       renderer.PassDepthPrepass,
			Material:   b.material,
			Instances:  n,
			Transforms: s.placements[:n],
			Rects:      s.rects[:n],
		})
		b.main.Append(renderer.DrawCommand{
			Label:      b.mainLabels[k],
			Pass:       renderer.PassMain,
			Material:   b.material,
			Instances:  n,
			Transforms: s.placements[:n],
			Rects:      s.rects[:n],
		})

		if !b.shadows {
			continue
		}
		// the template was filled in by New; only the ground translation changes
		for j := 0; j < n; j++ {
			s.shadows[j][12] = positions[(start+j)*3]
			s.shadows[j][14] = positions[(start+j)*3+2]
		}
		b.shadow.Append(renderer.DrawCommand{
			Label:      b.shadowLabels[k],
			Pass:       renderer.PassShadow,
			Material:   b.shadowMaterial,
			Instances:  n,
			Transforms: s.shadows[:n],
			Rects:      s.rects[:n],
			Tint:       b.shadowTint,
		})
	}
	b.frames++
}

// Register plugs the lists into d: depth before the opaque pass, main before the alpha pass and
// shadows after it.
func (b *Batcher) Register(d *renderer.Driver) {
	b.mu.Lock()
	defer b.mu.Unlock()

	d.Register(renderer.BeforeOpaque, b.depth)
	d.Register(renderer.BeforeAlpha, b.main)
	if b.shadows {
		d.Register(renderer.AfterAlpha, b.shadow)
	}
	for _, existing := range b.drivers {
		if existing == d {
			return
		}
	}
	b.drivers = append(b.drivers, d)
	slog.Info("batcher: registered", "label", b.label, "chunks", len(b.slots), "capacity", b.capacity)
}

// Deregister removes the lists from d.
//
// Returns:
//   - bool: true if the batcher was registered with d
func (b *Batcher) Deregister(d *renderer.Driver) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	d.Deregister(renderer.BeforeOpaque, b.depth)
	d.Deregister(renderer.BeforeAlpha, b.main)
	d.Deregister(renderer.AfterAlpha, b.shadow)
	for i, existing := range b.drivers {
		if existing == d {
			b.drivers = append(b.drivers[:i], b.drivers[i+1:]...)
			return true
		}
	}
	return false
}

// Close deregisters the batcher from every driver it was registered with.
func (b *Batcher) Close() {
	b.mu.Lock()
	drivers := append([]*renderer.Driver(nil), b.drivers...)
	b.mu.Unlock()
	for _, d := range drivers {
		b.Deregister(d)
	}
}
