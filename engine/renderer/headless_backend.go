package renderer

import (
	"fmt"
	"sync"

	"github.com/Carmen-Shannon/oxy-crowd/engine/light"
)

// BackendEvent is one recorded backend call of a HeadlessBackend.
type BackendEvent struct {
	// Op is the call name: "begin", "camera", "clear", "light", "draw", "submit" or "present".
	Op string
	// Camera is the label of the camera the call belongs to.
	Camera string
	// Label and Pass describe a "draw" call.
	Label     string
	Pass      PassKind
	Instances int
}

// String returns a compact form used in test failures.
func (e BackendEvent) String() string {
	if e.Op == "draw" {
		return fmt.Sprintf("draw(%s,%s,%d)", e.Pass, e.Label, e.Instances)
	}
	return e.Op
}

// HeadlessBackend is a Backend that records every call instead of touching a GPU. It backs the
// headless demo mode and the renderer tests.
type HeadlessBackend struct {
	mu *sync.Mutex

	record    bool
	events    []BackendEvent
	camera    CameraParams
	globals   light.Globals
	frames    int
	draws     int
	instances int
	beginErr  error
}

// HeadlessOption configures a HeadlessBackend.
type HeadlessOption func(*HeadlessBackend)

// WithEventRecording toggles keeping the per-call event log. Counters are always kept.
func WithEventRecording(enabled bool) HeadlessOption {
	return func(b *HeadlessBackend) {
		b.record = enabled
	}
}

// WithBeginFrameError makes every BeginFrame fail with err.
func WithBeginFrameError(err error) HeadlessOption {
	return func(b *HeadlessBackend) {
		b.beginErr = err
	}
}

// NewHeadlessBackend creates a recording backend.
//
// Parameters:
//   - opts: headless options; event recording is on by default
//
// Returns:
//   - *HeadlessBackend: the backend
func NewHeadlessBackend(opts ...HeadlessOption) *HeadlessBackend {
	b := &HeadlessBackend{
		mu:     &sync.Mutex{},
		record: true,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

var _ Backend = (*HeadlessBackend)(nil)

func (b *HeadlessBackend) push(e BackendEvent) {
	if !b.record {
		return
	}
	e.Camera = b.camera.Label
	b.events = append(b.events, e)
}

// BeginFrame implements Backend.
func (b *HeadlessBackend) BeginFrame() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.beginErr != nil {
		return b.beginErr
	}
	b.camera = CameraParams{}
	b.push(BackendEvent{Op: "begin"})
	return nil
}

// SetupCamera implements Backend.
func (b *HeadlessBackend) SetupCamera(params CameraParams) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.camera = params
	b.push(BackendEvent{Op: "camera"})
}

// Clear implements Backend.
func (b *HeadlessBackend) Clear(c [4]float32) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.push(BackendEvent{Op: "clear"})
	return nil
}

// SetLightGlobals implements Backend.
func (b *HeadlessBackend) SetLightGlobals(g light.Globals) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.globals = g
	b.push(BackendEvent{Op: "light"})
}

// Draw implements Backend.
func (b *HeadlessBackend) Draw(cmd *DrawCommand) {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := cmd.InstanceCount()
	b.draws++
	b.instances += n
	b.push(BackendEvent{Op: "draw", Label: cmd.Label, Pass: cmd.Pass, Instances: n})
}

// Submit implements Backend.
func (b *HeadlessBackend) Submit() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.push(BackendEvent{Op: "submit"})
	return nil
}

// Present implements Backend.
func (b *HeadlessBackend) Present() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.frames++
	b.push(BackendEvent{Op: "present"})
}

// Events returns a copy of the recorded calls.
func (b *HeadlessBackend) Events() []BackendEvent {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]BackendEvent, len(b.events))
	copy(out, b.events)
	return out
}

// Reset drops the recorded calls and counters.
func (b *HeadlessBackend) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = b.events[:0]
	b.frames, b.draws, b.instances = 0, 0, 0
}

// Frames returns the number of presented frames.
func (b *HeadlessBackend) Frames() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.frames
}

// DrawCalls returns the number of recorded draw calls.
func (b *HeadlessBackend) DrawCalls() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.draws
}

// Instances returns the total number of drawn instances.
func (b *HeadlessBackend) Instances() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.instances
}

// LightGlobals returns the last uploaded light parameters.
func (b *HeadlessBackend) LightGlobals() light.Globals {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.globals
}

// Camera returns the last camera parameters.
func (b *HeadlessBackend) Camera() CameraParams {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.camera
}
