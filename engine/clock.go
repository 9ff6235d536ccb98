package engine

import (
	"sync"
	"time"
)

// MaxDelta caps the frame delta a real clock reports, so a stall (debugger, window drag) does not
// move the crowd through walls in a single step.
const MaxDelta float32 = 1.0 / 3.0

// Clock supplies the per-frame time inputs of the simulation.
type Clock interface {
	// Tick advances the clock by one frame.
	//
	// Returns:
	//   - elapsed: seconds since the clock started
	//   - delta: seconds since the previous Tick
	Tick() (elapsed float64, delta float32)
}

// realClock reads wall-clock time.
type realClock struct {
	mu    sync.Mutex
	now   func() time.Time
	start time.Time
	last  time.Time
}

// NewRealClock returns a wall-clock Clock started now. Deltas are capped at MaxDelta.
func NewRealClock() Clock {
	return newRealClock(time.Now)
}

func newRealClock(now func() time.Time) *realClock {
	t := now()
	return &realClock{now: now, start: t, last: t}
}

func (c *realClock) Tick() (float64, float32) {
	c.mu.Lock()
	defer c.mu.Unlock()

	t := c.now()
	delta := min(float32(t.Sub(c.last).Seconds()), MaxDelta)
	c.last = t
	return t.Sub(c.start).Seconds(), delta
}

// FixedClock advances by a constant step on every Tick. Headless runs and tests use it to make
// frames reproducible.
type FixedClock struct {
	mu      sync.Mutex
	step    float32
	elapsed float64
}

var _ Clock = &FixedClock{}

// NewFixedClock creates a clock that advances by step seconds per Tick.
//
// Parameters:
//   - step: seconds per frame (values <= 0 use 1/60)
//
// Returns:
//   - *FixedClock: the clock at elapsed 0
func NewFixedClock(step float32) *FixedClock {
	if step <= 0 {
		step = 1.0 / 60.0
	}
	return &FixedClock{step: step}
}

// Tick advances elapsed by the step.
func (c *FixedClock) Tick() (float64, float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.elapsed += float64(c.step)
	return c.elapsed, c.step
}

// Elapsed returns the current elapsed time without advancing.
func (c *FixedClock) Elapsed() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.elapsed
}
