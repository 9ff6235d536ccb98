// Package entity_store holds the per-entity simulation state of a crowd as a structure of arrays.
//
// Every array is indexed by the same entity index. The arrays are owned exclusively by the Store;
// while a Lease is outstanding the in-flight chain holding it is the only writer and every read
// accessor panics, which keeps consumers from observing half-written frames.
package entity_store

import (
	"errors"
	"math"
	"math/rand/v2"
	"sync"
	"sync/atomic"

	"github.com/Carmen-Shannon/oxy-crowd/common"
)

var (
	// ErrInvalidCount is returned when a store is created with a non-positive entity count.
	ErrInvalidCount = errors.New("entity_store: entity count must be positive")
	// ErrReleased is returned when a released store is released again.
	ErrReleased = errors.New("entity_store: store already released")
)

// Store is the structure-of-arrays entity state.
type Store struct {
	mu *sync.Mutex

	count int

	positions  []float32 // xyz, stride 3
	velocities []float32 // xyz, stride 3
	rects      []common.Rect
	placements []common.Mat4

	leased   atomic.Bool
	released bool
}

// SpawnRect is the rectangle on the ground plane entities are spawned in.
type SpawnRect struct {
	MinX, MinZ float32
	MaxX, MaxZ float32
}

// New allocates a store for count entities. Placements start as identity matrices.
//
// Parameters:
//   - count: number of entities (must be > 0)
//
// Returns:
//   - *Store: the allocated store
//   - error: ErrInvalidCount when count <= 0
func New(count int) (*Store, error) {
	if count <= 0 {
		return nil, ErrInvalidCount
	}
	s := &Store{
		mu:         &sync.Mutex{},
		count:      count,
		positions:  make([]float32, count*3),
		velocities: make([]float32, count*3),
		rects:      make([]common.Rect, count),
		placements: make([]common.Mat4, count),
	}
	for i := range s.placements {
		s.placements[i] = common.IdentityMat4()
	}
	return s, nil
}

// Count returns the number of entities.
func (s *Store) Count() int {
	return s.count
}

// Spawn scatters every entity uniformly over area at height y with a random horizontal unit
// velocity scaled by speed. Placements become translations to the spawn position.
//
// Parameters:
//   - rng: random source (seeded by the caller for reproducible runs)
//   - area: spawn rectangle on the XZ plane
//   - y: spawn height
//   - speed: velocity magnitude
func (s *Store) Spawn(rng *rand.Rand, area SpawnRect, y, speed float32) {
	s.assertWritable("Spawn")
	for i := 0; i < s.count; i++ {
		x := area.MinX + rng.Float32()*(area.MaxX-area.MinX)
		z := area.MinZ + rng.Float32()*(area.MaxZ-area.MinZ)

		// Uniform angle keeps the heading distribution isotropic.
		a := rng.Float64() * 2 * math.Pi
		sin, cos := math.Sincos(a)

		s.setVec(s.positions, i, common.Vec3{x, y, z})
		s.setVec(s.velocities, i, common.Vec3{float32(cos) * speed, 0, float32(sin) * speed})

		m := common.IdentityMat4()
		m[12], m[13], m[14] = x, y, z
		s.placements[i] = m
	}
}

// Validate checks the structural invariant that every array holds exactly Count entries.
func (s *Store) Validate() error {
	if s.released {
		return ErrReleased
	}
	if len(s.positions) != s.count*3 || len(s.velocities) != s.count*3 ||
		len(s.rects) != s.count || len(s.placements) != s.count {
		return errors.New("entity_store: array lengths diverged from entity count")
	}
	return nil
}

// Leased reports whether an in-flight chain currently owns the arrays.
func (s *Store) Leased() bool {
	return s.leased.Load()
}

// Released reports whether the store's arrays were released.
func (s *Store) Released() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.released
}

// Release drops every array. Releasing while a lease is outstanding is a lifetime violation and
// panics; callers must complete the in-flight chain first.
//
// Returns:
//   - error: ErrReleased if the store was already released
func (s *Store) Release() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.leased.Load() {
		panic("entity_store: Release called while leased to an in-flight chain")
	}
	if s.released {
		return ErrReleased
	}
	s.positions = nil
	s.velocities = nil
	s.rects = nil
	s.placements = nil
	s.released = true
	return nil
}

// Positions returns the flat xyz position array (stride 3).
func (s *Store) Positions() []float32 {
	s.assertReadable("Positions")
	return s.positions
}

// Velocities returns the flat xyz velocity array (stride 3).
func (s *Store) Velocities() []float32 {
	s.assertReadable("Velocities")
	return s.velocities
}

// Rects returns the selected draw rectangle of every entity.
func (s *Store) Rects() []common.Rect {
	s.assertReadable("Rects")
	return s.rects
}

// Placements returns the placement matrix of every entity.
func (s *Store) Placements() []common.Mat4 {
	s.assertReadable("Placements")
	return s.placements
}

// Position returns the position of entity i.
func (s *Store) Position(i int) common.Vec3 {
	s.assertReadable("Position")
	return common.Vec3{s.positions[i*3], s.positions[i*3+1], s.positions[i*3+2]}
}

// Velocity returns the velocity of entity i.
func (s *Store) Velocity(i int) common.Vec3 {
	s.assertReadable("Velocity")
	return common.Vec3{s.velocities[i*3], s.velocities[i*3+1], s.velocities[i*3+2]}
}

// Rect returns the draw rectangle of entity i.
func (s *Store) Rect(i int) common.Rect {
	s.assertReadable("Rect")
	return s.rects[i]
}

// SetPosition overwrites the position of entity i.
func (s *Store) SetPosition(i int, p common.Vec3) {
	s.assertWritable("SetPosition")
	s.setVec(s.positions, i, p)
}

// SetVelocity overwrites the velocity of entity i.
func (s *Store) SetVelocity(i int, v common.Vec3) {
	s.assertWritable("SetVelocity")
	s.setVec(s.velocities, i, v)
}

// SetRect overwrites the draw rectangle of entity i.
func (s *Store) SetRect(i int, r common.Rect) {
	s.assertWritable("SetRect")
	s.rects[i] = r
}

func (s *Store) setVec(arr []float32, i int, v common.Vec3) {
	arr[i*3], arr[i*3+1], arr[i*3+2] = v[0], v[1], v[2]
}

func (s *Store) assertReadable(op string) {
	if s.leased.Load() {
		panic("entity_store: " + op + " read while leased to an in-flight chain")
	}
}

func (s *Store) assertWritable(op string) {
	if s.leased.Load() {
		panic("entity_store: " + op + " write while leased to an in-flight chain")
	}
	if s.released {
		panic("entity_store: " + op + " on a released store")
	}
}
