package crowd

import (
	"errors"
	"sync"
	"time"

	"github.com/Carmen-Shannon/oxy-crowd/common"
	"github.com/Carmen-Shannon/oxy-crowd/engine/animation"
	"github.com/Carmen-Shannon/oxy-crowd/engine/entity_store"
	"github.com/Carmen-Shannon/oxy-crowd/engine/job"
	"gonum.org/v1/gonum/spatial/r3"
)

// ErrShutdown is returned by Update after Shutdown.
var ErrShutdown = errors.New("crowd: frame scheduler is shut down")

// State is the scheduler's per-frame state.
type State int

const (
	// StateIdle means no chain is in flight and the store may be read.
	StateIdle State = iota
	// StateInFlight means a probe/move chain holds the store's lease.
	StateInFlight
)

// String returns the state name.
func (s State) String() string {
	if s == StateInFlight {
		return "in-flight"
	}
	return "idle"
}

// FrameInputs are the external per-frame inputs of the simulation. They are read, never mutated.
type FrameInputs struct {
	// CameraPosition is the active camera's world position.
	CameraPosition common.Vec3
	// Elapsed is the wall-clock time since start in seconds.
	Elapsed float64
	// Delta is the frame time step in seconds.
	Delta float32
}

// Consumer receives the store once per frame after the previous chain completed.
type Consumer interface {
	// Consume reads the results of the previous frame's chain. The store must not be retained.
	Consume(store *entity_store.Store)
}

// FrameSchedulerOption configures a FrameScheduler.
type FrameSchedulerOption func(*FrameScheduler)

// WithExecutor sets the executor running the chain's chunks. The caller keeps ownership of ex;
// a System built with this option closes it on teardown.
func WithExecutor(ex job.Executor) FrameSchedulerOption {
	return func(s *FrameScheduler) {
		s.executor = ex
	}
}

// WithBatchSize sets the number of entities per parallel chunk.
func WithBatchSize(n int) FrameSchedulerOption {
	return func(s *FrameScheduler) {
		s.batchSize = n
	}
}

// WithBoundary sets the boundary policy and the arena extents.
func WithBoundary(b Boundary, extentX, extentZ float32) FrameSchedulerOption {
	return func(s *FrameScheduler) {
		s.boundary = b
		s.extentX = extentX
		s.extentZ = extentZ
	}
}

// WithProbeScale sets the ray length multiplier applied to the frame delta.
func WithProbeScale(scale float32) FrameSchedulerOption {
	return func(s *FrameScheduler) {
		s.probeScale = scale
	}
}

// WithColliders sets the static colliders the avoidance probe casts against.
func WithColliders(c Collider) FrameSchedulerOption {
	return func(s *FrameScheduler) {
		s.colliders = c
	}
}

// WithFlattenCamera controls whether the camera is projected to the ground plane (y = 0) before
// the chain uses it. Enabled by default.
func WithFlattenCamera(flatten bool) FrameSchedulerOption {
	return func(s *FrameScheduler) {
		s.flattenCamera = flatten
	}
}

// WithSynchronous makes Update complete the chain it scheduled before returning. The one frame
// latency is kept but simulation no longer overlaps rendering.
func WithSynchronous(sync bool) FrameSchedulerOption {
	return func(s *FrameScheduler) {
		s.synchronous = sync
	}
}

// WithConsumers appends consumers notified on every Update.
func WithConsumers(cs ...Consumer) FrameSchedulerOption {
	return func(s *FrameScheduler) {
		s.consumers = append(s.consumers, cs...)
	}
}

// FrameScheduler runs the per-frame probe -> move chain on worker goroutines.
//
// Each Update blocks until the previous chain finished, hands the now stable store to the
// consumers, then schedules a chain for the current inputs and returns without waiting for it.
// Consumers therefore always see the state computed from the previous Update's inputs.
//
// Consumers run outside the state lock and may call State, Frames, LastWait, Wait and AddConsumer.
// They must not call Update or Shutdown.
type FrameScheduler struct {
	// update serializes Update and Shutdown; mu guards the fields below.
	update *sync.Mutex
	mu     *sync.Mutex

	store *entity_store.Store
	table *animation.FrameTable

	executor      job.Executor
	ownsExecutor  bool
	batchSize     int
	boundary      Boundary
	extentX       float32
	extentZ       float32
	probeScale    float32
	colliders     Collider
	flattenCamera bool
	synchronous   bool
	consumers     []Consumer

	hits   []Hit
	world  Collider
	lease  *entity_store.Lease
	handle *job.Handle
	state  State
	closed bool

	frames   uint64
	lastWait time.Duration
}

// NewFrameScheduler creates a scheduler over store. The scheduler does not own the store; release
// it only after Shutdown.
//
// Parameters:
//   - store: the entity state
//   - table: the animation frame table used for frame selection
//   - opts: scheduler options
//
// Returns:
//   - *FrameScheduler: the idle scheduler
func NewFrameScheduler(store *entity_store.Store, table *animation.FrameTable, opts ...FrameSchedulerOption) *FrameScheduler {
	if store == nil {
		panic("crowd: NewFrameScheduler requires a non-nil Store")
	}
	s := &FrameScheduler{
		update:        &sync.Mutex{},
		mu:            &sync.Mutex{},
		store:         store,
		table:         table,
		boundary:      BoundaryWrap,
		extentX:       22.5,
		extentZ:       15,
		probeScale:    3,
		flattenCamera: true,
		hits:          make([]Hit, store.Count()),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.executor == nil {
		s.executor = job.NewPoolExecutor(0, 0)
		s.ownsExecutor = true
	}
	if s.batchSize <= 0 {
		s.batchSize = job.BatchSize(store.Count(), job.Workers(s.executor), 64)
	}

	s.world = s.colliders
	if s.boundary == BoundaryReflect {
		arena := Arena{ExtentX: float64(s.extentX), ExtentZ: float64(s.extentZ)}
		if s.colliders != nil {
			s.world = Colliders{s.colliders, arena}
		} else {
			s.world = arena
		}
	}
	return s
}

// AddConsumer registers another consumer.
func (s *FrameScheduler) AddConsumer(c Consumer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.consumers = append(s.consumers, c)
}

// State returns the current state.
func (s *FrameScheduler) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Frames returns the number of chains scheduled so far.
func (s *FrameScheduler) Frames() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.frames
}

// LastWait returns how long the most recent Update blocked on the previous chain.
func (s *FrameScheduler) LastWait() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastWait
}

// Update runs one frame of the protocol: wait for the previous chain, hand its results to the
// consumers, schedule the chain for in and return.
//
// Parameters:
//   - in: this frame's camera position and timing
//
// Returns:
//   - error: ErrShutdown after Shutdown
func (s *FrameScheduler) Update(in FrameInputs) error {
	s.update.Lock()
	defer s.update.Unlock()

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrShutdown
	}
	start := time.Now()
	s.waitLocked()
	s.lastWait = time.Since(start)
	consumers := s.consumers
	s.mu.Unlock()

	// the store stays idle here: only Update and Shutdown lease it and both hold s.update
	for _, c := range consumers {
		c.Consume(s.store)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.scheduleLocked(in)

	if s.synchronous {
		s.waitLocked()
	}
	return nil
}

// Wait blocks until the in-flight chain, if any, completed and returns the store's lease.
func (s *FrameScheduler) Wait() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.waitLocked()
}

// Shutdown force-completes the in-flight chain, stops the default executor if the scheduler
// created it and refuses later updates. It is safe to call more than once.
func (s *FrameScheduler) Shutdown() {
	s.update.Lock()
	defer s.update.Unlock()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.waitLocked()
	if s.ownsExecutor {
		s.executor.Close()
	}
	s.closed = true
}

// Executor returns the executor running the chain's chunks.
func (s *FrameScheduler) Executor() job.Executor {
	return s.executor
}

func (s *FrameScheduler) waitLocked() {
	if s.handle == nil {
		return
	}
	s.handle.Complete()
	s.lease.Return()
	s.handle = nil
	s.lease = nil
	s.state = StateIdle
}

func (s *FrameScheduler) scheduleLocked(in FrameInputs) {
	camera := r3.Vec{X: float64(in.CameraPosition[0]), Y: float64(in.CameraPosition[1]), Z: float64(in.CameraPosition[2])}
	if s.flattenCamera {
		camera.Y = 0
	}

	lease := s.store.Lease()
	hits := s.hits
	world := s.world
	length := s.probeScale * in.Delta
	params := MoveParams{
		Camera:   camera,
		Elapsed:  in.Elapsed,
		Delta:    in.Delta,
		Boundary: s.boundary,
		ExtentX:  s.extentX,
		ExtentZ:  s.extentZ,
		Table:    s.table,
	}

	n := lease.Count()
	probe := job.ScheduleParallel(s.executor, n, s.batchSize, func(start, end int) {
		Probe(lease.Positions, lease.Velocities, hits, length, world, start, end)
	})
	move := job.ScheduleParallel(s.executor, n, s.batchSize, func(start, end int) {
		Move(lease, hits, params, start, end)
	}, probe)

	s.lease = lease
	s.handle = move
	s.state = StateInFlight
	s.frames++
}
