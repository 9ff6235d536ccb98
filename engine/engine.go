// Package engine runs the frame loop: per frame it ticks the clock, advances every crowd
// simulation through its scheduler protocol, renders the active scene and records statistics.
package engine

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Carmen-Shannon/oxy-crowd/engine/camera"
	"github.com/Carmen-Shannon/oxy-crowd/engine/crowd"
	"github.com/Carmen-Shannon/oxy-crowd/engine/profiler"
	"github.com/Carmen-Shannon/oxy-crowd/engine/renderer"
	"github.com/Carmen-Shannon/oxy-crowd/engine/scene"
	"github.com/Carmen-Shannon/oxy-crowd/engine/window"
	"github.com/Carmen-Shannon/oxy-crowd/telemetry"
)

// ErrClosed is returned by Step, RunFrames and Run after Close.
var ErrClosed = errors.New("engine: closed")

// Simulation is a per-frame system driven by the engine. *crowd.System implements it.
type Simulation interface {
	// Update waits for the previous frame's work, publishes it and schedules the next frame.
	Update(in crowd.FrameInputs) error

	// Close completes any in-flight work and releases the simulation's memory.
	Close() error
}

// Resizer is implemented by backends whose render target follows the window size.
type Resizer interface {
	ConfigureSurface(width, height int) error
}

// engine implements the Engine interface.
// Coordinates the tick, render and window threads.
type engine struct {
	mu *sync.Mutex

	tickRateChannel chan time.Duration

	running atomic.Bool
	wg      sync.WaitGroup

	quitChannel chan struct{}
	quitOnce    sync.Once

	window   window.Window
	driver   *renderer.Driver
	clock    Clock
	recorder *telemetry.Recorder

	profiler         *profiler.Profiler
	profilingEnabled atomic.Bool

	engineTickRate time.Duration
	tickCallback   func(deltaTime float32)
	renderCallback func(deltaTime float32)

	scenes      map[int]scene.Scene
	simulations []Simulation

	renderFrameLimit time.Duration

	// pendingResize holds the latest window size until the render goroutine applies it.
	pendingResize atomic.Pointer[[2]int]

	frame  uint64
	last   FrameStats
	err    error
	closed bool
}

// FrameStats summarizes the most recent Step.
type FrameStats struct {
	Frame     uint64
	Elapsed   float64
	Delta     float32
	FrameTime time.Duration
	SimWait   time.Duration
	Render    time.Duration
	Draw      renderer.FrameStats
}

// Engine is the main entry point for the crowd demos.
// It orchestrates the tick loop, the render loop and window management.
type Engine interface {
	// Window returns the window, or nil for headless engines.
	Window() window.Window

	// Driver returns the render pipeline driver, or nil when rendering is disabled.
	Driver() *renderer.Driver

	// EnableProfiler enables periodic profiler records in the log.
	EnableProfiler()

	// DisableProfiler disables profiler output.
	DisableProfiler()

	// SetTickRate sets the fixed tick callback rate in ticks per second.
	// If the engine is running, the change takes effect immediately.
	SetTickRate(fps float64)

	// SetTickCallback registers the function called at the fixed tick rate while Run is active.
	// RunFrames calls it once per frame instead, with the frame delta.
	SetTickCallback(callback func(deltaTime float32))

	// SetRenderCallback registers the function called after each rendered frame.
	SetRenderCallback(callback func(deltaTime float32))

	// SetRenderFrameLimit caps the render loop in frames per second. 0 uncaps it.
	SetRenderFrameLimit(fps float64)

	// AddScene registers a scene under a key. The active scene with the lowest key is rendered and
	// its primary camera feeds the simulations.
	AddScene(key int, s scene.Scene)

	// RemoveScene removes the scene stored under key.
	RemoveScene(key int)

	// Scene returns the scene stored under key, or nil.
	Scene(key int) scene.Scene

	// Scenes returns a copy of the registered scenes.
	Scenes() map[int]scene.Scene

	// AddSimulation appends a simulation updated every frame, in registration order.
	AddSimulation(sim Simulation)

	// Step runs exactly one frame on the calling goroutine.
	//
	// Returns:
	//   - error: the first simulation or render error of the frame
	Step() error

	// RunFrames runs n frames on the calling goroutine. Used by headless runs and tests.
	//
	// Parameters:
	//   - n: number of frames
	//
	// Returns:
	//   - error: the first error, after which no further frame runs
	RunFrames(n int) error

	// Run renders on its own goroutine and pumps window events on the calling goroutine until
	// the window closes or Quit is called. Without a window it blocks until Quit.
	//
	// Returns:
	//   - error: the error that stopped the render loop, if any
	Run() error

	// Quit signals all engine goroutines to stop. Safe to call multiple times.
	Quit()

	// Close completes and releases every simulation and flushes telemetry. Call after Run returns.
	Close() error

	// LastFrame returns the statistics of the most recent frame.
	LastFrame() FrameStats
}

// NewEngine creates a new Engine instance with the provided options.
//
// Parameters:
//   - options: functional options for engine configuration
//
// Returns:
//   - Engine: the newly created engine
func NewEngine(options ...EngineBuilderOption) Engine {
	e := &engine{
		mu:              &sync.Mutex{},
		tickRateChannel: make(chan time.Duration, 1),
		quitChannel:     make(chan struct{}),
		scenes:          make(map[int]scene.Scene),
		engineTickRate:  time.Second / 60,
	}

	for _, opt := range options {
		opt(e)
	}

	if e.clock == nil {
		e.clock = NewRealClock()
	}
	if e.profiler == nil {
		e.profiler = profiler.NewProfiler()
	}

	if e.window != nil {
		e.window.SetResizeCallback(func(width, height int) {
			e.pendingResize.Store(&[2]int{width, height})
		})
	}

	return e
}

func (e *engine) Window() window.Window {
	return e.window
}

func (e *engine) Driver() *renderer.Driver {
	return e.driver
}

func (e *engine) Step() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.step()
}

// step runs one frame. Caller must hold mu.
func (e *engine) step() error {
	if e.closed {
		return ErrClosed
	}
	frameStart := time.Now()
	elapsed, delta := e.clock.Tick()

	active := e.activeScene()
	e.applyResize()

	in := crowd.FrameInputs{Elapsed: elapsed, Delta: delta}
	var cameras []camera.Camera
	if active != nil {
		cameras = active.Cameras()
		if c := active.Camera(); c != nil {
			in.CameraPosition = c.Position()
		}
	}

	simStart := time.Now()
	for i, sim := range e.simulations {
		if err := sim.Update(in); err != nil {
			return fmt.Errorf("simulation %d: %w", i, err)
		}
	}
	simWait := time.Since(simStart)

	renderStart := time.Now()
	var draw renderer.FrameStats
	if e.driver != nil && active != nil {
		if err := e.driver.Render(cameras, active); err != nil {
			return fmt.Errorf("render: %w", err)
		}
		draw = e.driver.Stats()
	}
	renderTime := time.Since(renderStart)

	if e.renderCallback != nil {
		e.renderCallback(delta)
	}

	e.frame++
	e.last = FrameStats{
		Frame:     e.frame,
		Elapsed:   elapsed,
		Delta:     delta,
		FrameTime: time.Since(frameStart),
		SimWait:   simWait,
		Render:    renderTime,
		Draw:      draw,
	}

	if e.profilingEnabled.Load() {
		e.profiler.Tick()
	}

	return e.recorder.Record(telemetry.FrameRecord{
		Frame:     int(e.frame),
		ElapsedS:  elapsed,
		FrameMs:   ms(e.last.FrameTime),
		SimWaitMs: ms(simWait),
		RenderMs:  ms(renderTime),
		DrawCalls: draw.DrawCalls,
		Instances: draw.Instances,
		Culled:    draw.Culled,
	})
}

// activeScene returns the active scene with the lowest key, or nil.
func (e *engine) activeScene() scene.Scene {
	keys := make([]int, 0, len(e.scenes))
	for k, s := range e.scenes {
		if s.Active() {
			keys = append(keys, k)
		}
	}
	if len(keys) == 0 {
		return nil
	}
	return e.scenes[slices.Min(keys)]
}

// applyResize reconfigures the backend surface and camera aspect after a window resize.
func (e *engine) applyResize() {
	size := e.pendingResize.Swap(nil)
	if size == nil {
		return
	}
	width, height := size[0], size[1]
	if e.driver != nil {
		if r, ok := e.driver.Backend().(Resizer); ok {
			if err := r.ConfigureSurface(width, height); err != nil {
				slog.Warn("engine: surface resize failed", "width", width, "height", height, "error", err)
			}
		}
	}
	aspect := float32(width) / float32(height)
	for _, s := range e.scenes {
		for _, c := range s.Cameras() {
			c.SetAspect(aspect)
		}
	}
}

func (e *engine) RunFrames(n int) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	for i := 0; i < n; i++ {
		if e.tickCallback != nil {
			e.tickCallback(e.stepDelta())
		}
		if err := e.step(); err != nil {
			return err
		}
	}
	return nil
}

// stepDelta is the delta handed to the tick callback in RunFrames: the previous frame's delta,
// or the nominal tick period before the first frame.
func (e *engine) stepDelta() float32 {
	if e.frame == 0 {
		return float32(e.engineTickRate.Seconds())
	}
	return e.last.Delta
}

func (e *engine) Run() error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return ErrClosed
	}
	e.mu.Unlock()

	e.running.Store(true)
	slog.Info("engine: running",
		"scenes", len(e.Scenes()),
		"simulations", len(e.simulations),
		"windowed", e.window != nil,
	)
	e.handle()

	if e.window != nil {
		e.window.ProcessMessages()
		e.signalQuit()
	}
	e.wg.Wait()
	e.running.Store(false)

	e.mu.Lock()
	defer e.mu.Unlock()
	return e.err
}

// Quit signals all engine goroutines to stop and shuts down the engine.
// Safe to call multiple times; subsequent calls are no-ops due to sync.Once.
func (e *engine) Quit() {
	e.signalQuit()
}

// signalQuit closes the quit channel to signal all goroutines to exit, and asks the window to
// leave its message loop.
func (e *engine) signalQuit() {
	e.quitOnce.Do(func() {
		close(e.quitChannel)
		if e.window != nil {
			e.window.RequestClose()
		}
	})
}

// handle launches the tick and render goroutines.
// Each goroutine is tracked by the engine's WaitGroup.
func (e *engine) handle() {
	e.wg.Add(2)
	go e.handleEngine()
	go e.handleRender()
}

// handleEngine fires the tick callback at the configured rate and listens for dynamic rate
// changes via tickRateChannel. Exits when the quit channel is closed.
func (e *engine) handleEngine() {
	defer e.wg.Done()

	ticker := time.NewTicker(e.engineTickRate)
	defer ticker.Stop()

	lastTick := time.Now()

	for {
		select {
		case <-e.quitChannel:
			return
		case <-ticker.C:
			now := time.Now()
			dt := float32(now.Sub(lastTick).Seconds())
			lastTick = now

			if e.tickCallback != nil {
				e.tickCallback(dt)
			}
		case newRate := <-e.tickRateChannel:
			ticker.Reset(newRate)
			e.engineTickRate = newRate
		}
	}
}

// handleRender steps frames until quit. Errors and panics stop the loop and signal quit.
func (e *engine) handleRender() {
	defer e.wg.Done()
	defer func() {
		if r := recover(); r != nil {
			slog.Error("engine: render goroutine recovered from panic", "panic", r)
			e.mu.Lock()
			if e.err == nil {
				e.err = fmt.Errorf("render goroutine panic: %v", r)
			}
			e.mu.Unlock()
			e.signalQuit()
		}
	}()

	for {
		select {
		case <-e.quitChannel:
			return
		default:
		}

		frameStart := time.Now()
		limit, err := e.renderFrame()
		if err != nil {
			slog.Error("engine: frame failed", "error", err)
			e.signalQuit()
			return
		}

		if limit > 0 {
			if remaining := limit - time.Since(frameStart); remaining > 0 {
				select {
				case <-e.quitChannel:
					return
				case <-time.After(remaining):
				}
			}
		}
	}
}

// renderFrame steps one frame for the render goroutine and returns the current frame limit.
func (e *engine) renderFrame() (time.Duration, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	err := e.step()
	if err != nil && e.err == nil {
		e.err = err
	}
	return e.renderFrameLimit, err
}

func (e *engine) Close() error {
	e.signalQuit()

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return ErrClosed
	}
	e.closed = true

	var errs []error
	for _, sim := range e.simulations {
		if err := sim.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if err := e.recorder.Close(); err != nil {
		errs = append(errs, fmt.Errorf("closing telemetry: %w", err))
	}
	slog.Info("engine: closed", "frames", e.frame)
	return errors.Join(errs...)
}

func (e *engine) LastFrame() FrameStats {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.last
}

// EnableProfiler enables performance profiling output to the log.
func (e *engine) EnableProfiler() {
	e.profilingEnabled.Store(true)
}

// DisableProfiler disables performance profiling output.
func (e *engine) DisableProfiler() {
	e.profilingEnabled.Store(false)
}

// SetTickRate sets the engine tick rate in ticks per second.
// If the engine is running, the change takes effect immediately.
func (e *engine) SetTickRate(fps float64) {
	if fps <= 0 {
		fps = 60
	}
	newRate := time.Duration(float64(time.Second) / fps)

	if !e.running.Load() {
		e.engineTickRate = newRate
		return
	}
	// Replace a pending update rather than block.
	select {
	case e.tickRateChannel <- newRate:
	default:
		select {
		case <-e.tickRateChannel:
		default:
		}
		e.tickRateChannel <- newRate
	}
}

// SetTickCallback registers the function called each engine tick.
func (e *engine) SetTickCallback(callback func(deltaTime float32)) {
	e.tickCallback = callback
}

// SetRenderCallback registers the function called each render frame.
func (e *engine) SetRenderCallback(callback func(deltaTime float32)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.renderCallback = callback
}

// SetRenderFrameLimit sets an optional render frame rate cap.
// Pass 0 to uncap the render loop.
func (e *engine) SetRenderFrameLimit(fps float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.renderFrameLimit = frameDuration(fps)
}

func (e *engine) AddScene(key int, s scene.Scene) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.scenes[key] = s
}

func (e *engine) RemoveScene(key int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.scenes, key)
}

func (e *engine) Scene(key int) scene.Scene {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.scenes[key]
}

func (e *engine) Scenes() map[int]scene.Scene {
	e.mu.Lock()
	defer e.mu.Unlock()
	cp := make(map[int]scene.Scene, len(e.scenes))
	for k, v := range e.scenes {
		cp[k] = v
	}
	return cp
}

func (e *engine) AddSimulation(sim Simulation) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.simulations = append(e.simulations, sim)
}

func frameDuration(fps float64) time.Duration {
	if fps <= 0 {
		return 0
	}
	return time.Duration(float64(time.Second) / fps)
}

func ms(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
