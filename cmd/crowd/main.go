// Command crowd runs the instanced crowd demo: a parallel crowd simulation drawn as batched
// billboards through the wgpu backend, or through the headless backend with -headless.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"math"
	"os"

	"github.com/Carmen-Shannon/oxy-crowd/common"
	"github.com/Carmen-Shannon/oxy-crowd/config"
	"github.com/Carmen-Shannon/oxy-crowd/engine"
	"github.com/Carmen-Shannon/oxy-crowd/engine/animation"
	"github.com/Carmen-Shannon/oxy-crowd/engine/batcher"
	"github.com/Carmen-Shannon/oxy-crowd/engine/camera"
	"github.com/Carmen-Shannon/oxy-crowd/engine/game_object"
	"github.com/Carmen-Shannon/oxy-crowd/engine/light"
	"github.com/Carmen-Shannon/oxy-crowd/engine/renderer"
	"github.com/Carmen-Shannon/oxy-crowd/engine/renderer/material"
	"github.com/Carmen-Shannon/oxy-crowd/engine/scene"
	"github.com/Carmen-Shannon/oxy-crowd/engine/window"
	"github.com/Carmen-Shannon/oxy-crowd/internal/demo"
	"github.com/go-gl/glfw/v3.3/glfw"
)

const (
	// dragRadiansPerPixel converts cursor drag distance into orbit rotation.
	dragRadiansPerPixel = 0.005
	// zoomPerNotch is the radius change per mouse wheel notch.
	zoomPerNotch = 1.5
)

func main() {
	configPath := flag.String("config", "", "path to config YAML file (empty = use defaults)")
	headless := flag.Bool("headless", false, "render through the headless backend, no window")
	frames := flag.Int("frames", 600, "frames to run in headless mode")
	logFormat := flag.String("log", "json", "log format: json or text")
	profileMode := flag.String("profile", "", "write a pprof profile: cpu or mem")
	outputDir := flag.String("output-dir", "", "telemetry directory (overrides config)")
	flag.Parse()

	logger, err := demo.Logger(os.Stdout, *logFormat)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	slog.SetDefault(logger)

	if err := config.Init(*configPath); err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	cfg := config.Cfg()
	if *outputDir != "" {
		cfg.Telemetry.OutputDir = *outputDir
	}

	prof, err := demo.StartProfile(*profileMode, cfg.Telemetry.OutputDir)
	if err != nil {
		slog.Error("failed to start profiling", "error", err)
		os.Exit(1)
	}

	err = run(cfg, *headless, *frames)
	prof.Stop()
	if err != nil {
		slog.Error("crowd demo failed", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, headless bool, frames int) error {
	table, err := demo.FrameTable(cfg)
	if err != nil {
		return err
	}

	crowdBatcher, err := newBatcher(cfg, table.Texture())
	if err != nil {
		return err
	}
	defer crowdBatcher.Close()

	sys, err := demo.System(cfg, table, crowdBatcher)
	if err != nil {
		return err
	}

	var (
		win     window.Window
		backend renderer.Backend
		clock   engine.Clock
	)
	if headless {
		backend = renderer.NewHeadlessBackend(renderer.WithEventRecording(false))
		clock = engine.NewFixedClock(float32(1 / cfg.Engine.TickRate))
	} else {
		win, err = window.NewWindow(
			window.WithTitle(cfg.Render.Title),
			window.WithSize(cfg.Render.Width, cfg.Render.Height),
		)
		if err != nil {
			sys.Close()
			return fmt.Errorf("failed to open window: %w", err)
		}
		defer win.Close()

		gpu, err := renderer.NewWGPUBackend(win.SurfaceDescriptor(), win.Width(), win.Height(),
			renderer.WithPresentMode(presentMode(cfg.Render.VSync)),
			renderer.WithMSAA(renderer.MSAASampleCount(cfg.Render.MSAA)),
			renderer.WithMaxInstances(cfg.Render.MaxInstances),
		)
		if err != nil {
			sys.Close()
			return fmt.Errorf("failed to create renderer: %w", err)
		}
		defer gpu.Release()
		backend = gpu
		clock = engine.NewRealClock()
	}

	driver := renderer.NewDriver(backend, renderer.WithClearColor(cfg.Derived.ClearColor32))
	crowdBatcher.Register(driver)

	width, height := cfg.Render.Width, cfg.Render.Height
	if win != nil {
		width, height = win.Width(), win.Height()
	}
	cam, orbit := demo.Camera(cfg, demo.Aspect(width, height))
	sc := newScene(cfg, cam)

	rec, err := demo.Recorder(cfg)
	if err != nil {
		sys.Close()
		return err
	}

	opts := []engine.EngineBuilderOption{
		engine.WithClock(clock),
		engine.WithDriver(driver),
		engine.WithScene(0, sc),
		engine.WithSimulation(sys),
		engine.WithRecorder(rec),
		engine.WithTickRate(cfg.Engine.TickRate),
		engine.WithRenderFrameLimit(cfg.Engine.FrameLimit),
		engine.WithProfiling(cfg.Engine.Profiling),
	}
	if win != nil {
		opts = append(opts, engine.WithWindow(win))
		bindControls(win, orbit)
	}
	eng := engine.NewEngine(opts...)
	eng.SetTickCallback(func(dt float32) {
		orbit.Advance(dt, cam)
	})

	slog.Info("crowd demo started",
		"entities", sys.Count(),
		"capacity", crowdBatcher.Capacity(),
		"chunks", cfg.Derived.Chunks,
		"headless", headless,
	)

	if headless {
		err = eng.RunFrames(frames)
	} else {
		err = eng.Run()
	}
	last := eng.LastFrame()
	if cerr := eng.Close(); err == nil {
		err = cerr
	}

	slog.Info("crowd demo finished",
		"frames", last.Frame,
		"elapsed_s", last.Elapsed,
		"draw_calls", last.Draw.DrawCalls,
		"instances", last.Draw.Instances,
	)
	return err
}

// newBatcher builds the instanced batcher with its sprite and shadow materials.
func newBatcher(cfg *config.Config, tex *animation.Texture) (*batcher.Batcher, error) {
	sprite := material.NewMaterial(
		material.WithName("crowd"),
		material.WithBaseColor([4]float32{1, 1, 1, 1}),
		material.WithAlphaCutoff(0.5),
		material.WithTexture(&tex.TextureStagingData, tex.Sampler),
	)
	shadow := material.NewMaterial(
		material.WithName("crowd shadow"),
		material.WithBaseColor([4]float32{1, 1, 1, 1}),
		material.WithAlphaCutoff(0.5),
		material.WithTexture(&tex.TextureStagingData, tex.Sampler),
	)
	return batcher.New(cfg.Crowd.Count, cfg.Batch.Capacity,
		batcher.WithLabel("crowd"),
		batcher.WithMaterial(sprite),
		batcher.WithShadowMaterial(shadow),
		batcher.WithShadowTint(cfg.Derived.ShadowTint32),
		batcher.WithShadows(cfg.Batch.Shadows),
	)
}

// newScene creates the scene holding the ground, the obstacles and the sun.
func newScene(cfg *config.Config, cam camera.Camera) scene.Scene {
	rc := cfg.Render
	sun := light.NewLight(light.LightTypeDirectional,
		light.WithDirection(float32(rc.Light.Direction[0]), float32(rc.Light.Direction[1]), float32(rc.Light.Direction[2])),
		light.WithColor(float32(rc.Light.Color[0]), float32(rc.Light.Color[1]), float32(rc.Light.Color[2])),
		light.WithIntensity(float32(rc.Light.Intensity)),
	)
	sc := scene.NewScene("crowd", cam,
		scene.WithLights(sun),
		scene.WithAmbient([3]float32{float32(rc.Light.Ambient[0]), float32(rc.Light.Ambient[1]), float32(rc.Light.Ambient[2])}),
	)

	if size := float32(rc.Ground.Size); size > 0 {
		ground := material.NewMaterial(
			material.WithName("ground"),
			material.WithBaseColor(to32(rc.Ground.Color)),
		)
		sc.Add(game_object.NewGameObject(
			game_object.WithLabel("ground"),
			game_object.WithLayer(renderer.LayerBackground, renderer.QueueOpaque),
			game_object.WithMaterial(ground),
			game_object.WithRotation(common.Vec3{-math.Pi / 2, 0, 0}),
			game_object.WithScale(common.Vec3{size, size, 1}),
		))
	}

	wall := material.NewMaterial(
		material.WithName("obstacle"),
		material.WithBaseColor([4]float32{0.45, 0.45, 0.5, 1}),
	)
	for i, box := range demo.Obstacles(cfg) {
		c, sz := box.Center(), box.Size()
		sc.Add(game_object.NewGameObject(
			game_object.WithLabel(fmt.Sprintf("obstacle %d", i)),
			game_object.WithLayer(renderer.LayerBackground, renderer.QueueOpaque),
			game_object.WithMaterial(wall),
			game_object.WithPosition(common.Vec3{float32(c.X), float32(c.Y), float32(c.Z)}),
			game_object.WithScale(common.Vec3{float32(sz.X), float32(sz.Y), 1}),
		))
	}
	return sc
}

// bindControls maps left-drag to orbit rotation, the wheel to zoom and P to pausing the orbit.
func bindControls(win window.Window, orbit *camera.Orbit) {
	win.SetDragCallback(func(dx, dy float32) {
		orbit.Rotate(-dx*dragRadiansPerPixel, dy*dragRadiansPerPixel)
	})
	win.SetScrollCallback(func(delta float32) {
		orbit.Zoom(-delta * zoomPerNotch)
	})
	win.SetKeyDownCallback(func(key uint32) {
		if key == uint32(glfw.KeyP) {
			slog.Info("orbit toggled", "paused", orbit.TogglePause())
		}
	})
}

func presentMode(vsync bool) renderer.PresentMode {
	if vsync {
		return renderer.PresentModeVSync
	}
	return renderer.PresentModeUncapped
}

func to32(c [4]float64) [4]float32 {
	return [4]float32{float32(c[0]), float32(c[1]), float32(c[2]), float32(c[3])}
}
