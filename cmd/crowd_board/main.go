// Command crowd_board runs the non-instanced crowd demo: every entity owns a raylib billboard that
// the simulation updates through a board consumer, and each billboard is drawn on its own.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"runtime"

	"github.com/Carmen-Shannon/oxy-crowd/config"
	"github.com/Carmen-Shannon/oxy-crowd/engine"
	"github.com/Carmen-Shannon/oxy-crowd/engine/board"
	"github.com/Carmen-Shannon/oxy-crowd/engine/camera"
	"github.com/Carmen-Shannon/oxy-crowd/engine/crowd"
	"github.com/Carmen-Shannon/oxy-crowd/engine/scene"
	"github.com/Carmen-Shannon/oxy-crowd/internal/demo"
	rl "github.com/gen2brain/raylib-go/raylib"
)

const (
	dragRadiansPerPixel = 0.005
	zoomPerNotch        = 1.5
	// boardCountWarning is the population above which one draw call per entity gets slow.
	boardCountWarning = 5000
)

func init() {
	// raylib must be driven from the main thread.
	runtime.LockOSThread()
}

func main() {
	configPath := flag.String("config", "", "path to config YAML file (empty = use defaults)")
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

	err = run(cfg)
	prof.Stop()
	if err != nil {
		slog.Error("crowd board demo failed", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	if cfg.Crowd.Count > boardCountWarning {
		slog.Warn("large crowd for the per-entity renderer", "entities", cfg.Crowd.Count)
	}

	table, err := demo.FrameTable(cfg)
	if err != nil {
		return err
	}

	stage := board.NewStage(cfg.Crowd.Count,
		board.WithGround(float32(cfg.Render.Ground.Size), to32(cfg.Render.Ground.Color)),
		board.WithShadows(cfg.Batch.Shadows, cfg.Derived.ShadowTint32),
		board.WithObstacles(demo.Obstacles(cfg)),
	)
	sys, err := demo.System(cfg, table, crowd.NewBoardConsumer(stage.Boards(), table.Texture()))
	if err != nil {
		return err
	}

	flags := uint32(rl.FlagWindowResizable)
	if cfg.Render.VSync {
		flags |= rl.FlagVsyncHint
	}
	rl.SetConfigFlags(flags)
	rl.InitWindow(int32(cfg.Render.Width), int32(cfg.Render.Height), cfg.Render.Title+" (boards)")
	defer rl.CloseWindow()
	defer stage.Unload()
	if cfg.Engine.FrameLimit > 0 {
		rl.SetTargetFPS(int32(cfg.Engine.FrameLimit))
	}

	cam, orbit := demo.Camera(cfg, demo.Aspect(rl.GetScreenWidth(), rl.GetScreenHeight()))

	rec, err := demo.Recorder(cfg)
	if err != nil {
		sys.Close()
		return err
	}

	eng := engine.NewEngine(
		engine.WithScene(0, scene.NewScene("crowd", cam)),
		engine.WithSimulation(sys),
		engine.WithRecorder(rec),
		engine.WithTickRate(cfg.Engine.TickRate),
		engine.WithProfiling(cfg.Engine.Profiling),
	)
	background := rl.NewColor(
		uint8(cfg.Derived.ClearColor32[0]*255),
		uint8(cfg.Derived.ClearColor32[1]*255),
		uint8(cfg.Derived.ClearColor32[2]*255),
		255,
	)
	eng.SetTickCallback(func(dt float32) {
		handleInput(orbit, cam)
		orbit.Advance(dt, cam)
	})
	eng.SetRenderCallback(func(float32) {
		rl.BeginDrawing()
		rl.ClearBackground(background)
		stage.Draw(cam)
		rl.DrawFPS(10, 10)
		rl.EndDrawing()
	})

	slog.Info("crowd board demo started", "entities", sys.Count(), "boards", stage.Len())

	for !rl.WindowShouldClose() {
		if err = eng.RunFrames(1); err != nil {
			break
		}
	}
	last := eng.LastFrame()
	if cerr := eng.Close(); err == nil {
		err = cerr
	}

	slog.Info("crowd board demo finished", "frames", last.Frame, "elapsed_s", last.Elapsed)
	return err
}

// handleInput maps left-drag to orbit rotation, the wheel to zoom, P to pausing the orbit and
// window resizes to the camera aspect.
func handleInput(orbit *camera.Orbit, cam camera.Camera) {
	if rl.IsMouseButtonDown(rl.MouseButtonLeft) {
		d := rl.GetMouseDelta()
		orbit.Rotate(-d.X*dragRadiansPerPixel, d.Y*dragRadiansPerPixel)
	}
	if wheel := rl.GetMouseWheelMove(); wheel != 0 {
		orbit.Zoom(-wheel * zoomPerNotch)
	}
	if rl.IsKeyPressed(rl.KeyP) {
		slog.Info("orbit toggled", "paused", orbit.TogglePause())
	}
	if rl.IsWindowResized() {
		cam.SetAspect(demo.Aspect(rl.GetScreenWidth(), rl.GetScreenHeight()))
	}
}

func to32(c [4]float64) [4]float32 {
	return [4]float32{float32(c[0]), float32(c[1]), float32(c[2]), float32(c[3])}
}
