package engine

import (
	"time"

	"github.com/Carmen-Shannon/oxy-crowd/engine/profiler"
	"github.com/Carmen-Shannon/oxy-crowd/engine/renderer"
	"github.com/Carmen-Shannon/oxy-crowd/engine/scene"
	"github.com/Carmen-Shannon/oxy-crowd/engine/window"
	"github.com/Carmen-Shannon/oxy-crowd/telemetry"
)

// EngineBuilderOption is a functional option for configuring an Engine.
// Use the With* functions to create options that are applied directly to the engine instance.
type EngineBuilderOption func(*engine)

// WithProfiling enables or disables performance profiling output.
//
// Parameters:
//   - enabled: if true, enables performance profiling
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithProfiling(enabled bool) EngineBuilderOption {
	return func(e *engine) {
		e.profilingEnabled.Store(enabled)
	}
}

// WithProfiler replaces the default profiler.
func WithProfiler(p *profiler.Profiler) EngineBuilderOption {
	return func(e *engine) {
		e.profiler = p
	}
}

// WithTickRate sets the engine tick rate in ticks per second.
// Values <= 0 will be treated as the default (60Hz).
//
// Parameters:
//   - fps: target ticks per second (default 60)
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithTickRate(fps float64) EngineBuilderOption {
	return func(e *engine) {
		if fps <= 0 {
			fps = 60.0
		}
		e.engineTickRate = time.Duration(float64(time.Second) / fps)
	}
}

// WithWindow attaches a window. Run then pumps its events and stops when it closes, and window
// resizes reconfigure the backend surface and camera aspect.
//
// Parameters:
//   - w: an open Window
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithWindow(w window.Window) EngineBuilderOption {
	return func(e *engine) {
		e.window = w
	}
}

// WithDriver sets the render pipeline driver. Without one, frames only advance simulations.
func WithDriver(d *renderer.Driver) EngineBuilderOption {
	return func(e *engine) {
		e.driver = d
	}
}

// WithClock sets the frame clock (default: NewRealClock).
func WithClock(c Clock) EngineBuilderOption {
	return func(e *engine) {
		e.clock = c
	}
}

// WithRecorder sets the telemetry recorder that receives one row per frame. nil disables output.
func WithRecorder(r *telemetry.Recorder) EngineBuilderOption {
	return func(e *engine) {
		e.recorder = r
	}
}

// WithScene registers a scene at the given key during engine construction.
//
// Parameters:
//   - key: lower keys take precedence when several scenes are active
//   - s: the Scene to register
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithScene(key int, s scene.Scene) EngineBuilderOption {
	return func(e *engine) {
		e.scenes[key] = s
	}
}

// WithSimulation registers a simulation updated every frame.
func WithSimulation(sim Simulation) EngineBuilderOption {
	return func(e *engine) {
		e.simulations = append(e.simulations, sim)
	}
}

// WithRenderFrameLimit sets an optional render frame rate cap in frames per second.
// Pass 0 to uncap the render loop (default).
//
// Parameters:
//   - fps: maximum render frames per second (0 = uncapped)
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithRenderFrameLimit(fps float64) EngineBuilderOption {
	return func(e *engine) {
		e.renderFrameLimit = frameDuration(fps)
	}
}
