// Package crowd simulates a crowd of billboard characters: per frame every entity probes ahead for
// obstacles, moves, picks its camera-relative sprite direction and selects an animation frame.
// The work runs as a chain of parallel jobs whose results are consumed one frame later.
package crowd

import (
	"fmt"
	"log/slog"
	"math/rand/v2"

	"github.com/Carmen-Shannon/oxy-crowd/engine/animation"
	"github.com/Carmen-Shannon/oxy-crowd/engine/entity_store"
)

// SystemConfig describes the initial population of a System.
type SystemConfig struct {
	// Count is the number of entities.
	Count int
	// Spawn is the ground rectangle entities start in.
	Spawn entity_store.SpawnRect
	// SpawnHeight is the y coordinate of every entity.
	SpawnHeight float32
	// Speed is the initial velocity magnitude.
	Speed float32
	// Seed seeds the spawn random source.
	Seed uint64
}

// System owns one crowd: its entity store, frame table and frame scheduler.
type System struct {
	cfg       SystemConfig
	store     *entity_store.Store
	table     *animation.FrameTable
	scheduler *FrameScheduler
	closed    bool
}

// NewSystem allocates and spawns a crowd. Entity i starts with rectangle i mod table length.
//
// Parameters:
//   - table: the validated animation frame table
//   - cfg: population description
//   - opts: options forwarded to the FrameScheduler
//
// Returns:
//   - *System: the crowd, idle until the first Update
//   - error: error if the store cannot be allocated
func NewSystem(table *animation.FrameTable, cfg SystemConfig, opts ...FrameSchedulerOption) (*System, error) {
	if table == nil {
		return nil, fmt.Errorf("crowd: NewSystem requires a frame table")
	}
	store, err := entity_store.New(cfg.Count)
	if err != nil {
		return nil, fmt.Errorf("failed to create entity store: %w", err)
	}

	rng := rand.New(rand.NewPCG(cfg.Seed, cfg.Seed^0x9e3779b97f4a7c15))
	store.Spawn(rng, cfg.Spawn, cfg.SpawnHeight, cfg.Speed)
	for i := 0; i < store.Count(); i++ {
		store.SetRect(i, table.Rect(i%table.Len()))
	}
	if err := store.Validate(); err != nil {
		return nil, err
	}

	s := &System{
		cfg:       cfg,
		store:     store,
		table:     table,
		scheduler: NewFrameScheduler(store, table, opts...),
	}
	slog.Info("crowd: system created",
		"entities", store.Count(),
		"table_len", table.Len(),
		"animation_length", table.AnimationLength(),
		"boundary", s.scheduler.boundary.String(),
		"batch", s.scheduler.batchSize,
	)
	return s, nil
}

// Count returns the number of entities.
func (s *System) Count() int {
	return s.store.Count()
}

// Store returns the entity store. Reads are only valid while the scheduler is idle, which is the
// case inside Consumer.Consume.
func (s *System) Store() *entity_store.Store {
	return s.store
}

// Table returns the animation frame table.
func (s *System) Table() *animation.FrameTable {
	return s.table
}

// Scheduler returns the frame scheduler.
func (s *System) Scheduler() *FrameScheduler {
	return s.scheduler
}

// AddConsumer registers a per-frame consumer of the simulation results.
func (s *System) AddConsumer(c Consumer) {
	s.scheduler.AddConsumer(c)
}

// Update advances the crowd by one frame of the scheduler protocol.
func (s *System) Update(in FrameInputs) error {
	return s.scheduler.Update(in)
}

// Close completes the in-flight chain, stops the scheduler's executor and releases the entity
// arrays. The System owns any executor passed through WithExecutor. Calling Close twice returns
// entity_store.ErrReleased.
func (s *System) Close() error {
	s.scheduler.Shutdown()
	s.scheduler.Executor().Close()
	if err := s.store.Release(); err != nil {
		return err
	}
	s.closed = true
	slog.Info("crowd: system released", "entities", s.store.Count(), "frames", s.scheduler.Frames())
	return nil
}
