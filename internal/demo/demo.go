// Package demo assembles the pieces shared by the crowd commands from a loaded configuration.
package demo

import (
	"fmt"
	"io"
	"log/slog"
	"path/filepath"

	"github.com/Carmen-Shannon/oxy-crowd/common"
	"github.com/Carmen-Shannon/oxy-crowd/config"
	"github.com/Carmen-Shannon/oxy-crowd/engine/animation"
	"github.com/Carmen-Shannon/oxy-crowd/engine/camera"
	"github.com/Carmen-Shannon/oxy-crowd/engine/crowd"
	"github.com/Carmen-Shannon/oxy-crowd/engine/entity_store"
	"github.com/Carmen-Shannon/oxy-crowd/engine/job"
	"github.com/Carmen-Shannon/oxy-crowd/telemetry"
	"github.com/pkg/profile"
	"gonum.org/v1/gonum/spatial/r3"
)

// SheetKey is the texture key of the crowd's sprite sheet.
const SheetKey = "crowd_sheet"

// Logger builds the process logger.
//
// Parameters:
//   - w: log destination
//   - format: "json" (default) or "text"
//
// Returns:
//   - *slog.Logger: the logger
//   - error: error if format is unknown
func Logger(w io.Writer, format string) (*slog.Logger, error) {
	switch format {
	case "", "json":
		return slog.New(slog.NewJSONHandler(w, nil)), nil
	case "text":
		return slog.New(slog.NewTextHandler(w, nil)), nil
	}
	return nil, fmt.Errorf("unknown log format %q (want json or text)", format)
}

// Stopper ends a profiling session.
type Stopper interface {
	Stop()
}

type noopStopper struct{}

func (noopStopper) Stop() {}

// StartProfile starts a pprof session written to dir.
//
// Parameters:
//   - mode: "" (off), "cpu" or "mem"
//   - dir: output directory, "." when empty
//
// Returns:
//   - Stopper: call Stop before exiting to flush the profile
//   - error: error if mode is unknown
func StartProfile(mode, dir string) (Stopper, error) {
	if dir == "" {
		dir = "."
	}
	switch mode {
	case "":
		return noopStopper{}, nil
	case "cpu":
		return profile.Start(profile.CPUProfile, profile.ProfilePath(dir), profile.NoShutdownHook), nil
	case "mem":
		return profile.Start(profile.MemProfileAllocs, profile.ProfilePath(dir), profile.NoShutdownHook), nil
	}
	return nil, fmt.Errorf("unknown profile mode %q (want cpu or mem)", mode)
}

// FrameTable loads the sprite atlas named by the configuration, or generates a placeholder sheet
// when no atlas is configured.
//
// Parameters:
//   - cfg: the effective configuration
//
// Returns:
//   - *animation.FrameTable: the validated table
//   - error: error if the atlas or texture cannot be loaded, or the table length is wrong
func FrameTable(cfg *config.Config) (*animation.FrameTable, error) {
	a := cfg.Animation

	var (
		tex   *animation.Texture
		rects []common.Rect
		err   error
	)
	if a.Atlas == "" {
		var records []animation.SpriteRecord
		tex, records = animation.GenerateSheet(SheetKey, a.Prefix, a.Sheet.FrameWidth, a.Sheet.FrameHeight, a.Length)
		rects, err = animation.NormalizeRecords(records, a.Prefix, tex.Width, tex.Height)
	} else {
		tex, err = animation.LoadTexture(SheetKey, a.Texture)
		if err != nil {
			return nil, fmt.Errorf("loading sprite texture: %w", err)
		}
		rects, err = animation.LoadAtlasFile(a.Atlas, a.Prefix, tex.Width, tex.Height)
	}
	if err != nil {
		return nil, fmt.Errorf("loading sprite atlas: %w", err)
	}

	table, err := animation.NewFrameTable(rects, a.Length, tex)
	if err != nil {
		return nil, err
	}
	slog.Info("demo: frame table ready",
		"atlas", a.Atlas,
		"texture", tex.Key,
		"width", tex.Width,
		"height", tex.Height,
		"len", table.Len(),
	)
	return table, nil
}

// Obstacles converts the configured boxes.
func Obstacles(cfg *config.Config) []r3.Box {
	boxes := make([]r3.Box, 0, len(cfg.Obstacles))
	for _, o := range cfg.Obstacles {
		boxes = append(boxes, r3.Box{
			Min: r3.Vec{X: o.Min[0], Y: o.Min[1], Z: o.Min[2]},
			Max: r3.Vec{X: o.Max[0], Y: o.Max[1], Z: o.Max[2]},
		})
	}
	return boxes
}

// System spawns the crowd described by cfg.
//
// Parameters:
//   - cfg: the effective configuration
//   - table: the frame table entities animate through
//   - consumers: per-frame consumers of the simulation results
//
// Returns:
//   - *crowd.System: the crowd
//   - error: error if the boundary policy is unknown or the store cannot be allocated
func System(cfg *config.Config, table *animation.FrameTable, consumers ...crowd.Consumer) (*crowd.System, error) {
	c := cfg.Crowd
	boundary, err := crowd.ParseBoundary(c.Boundary)
	if err != nil {
		return nil, err
	}

	ex := job.NewPoolExecutor(c.Workers, 0)
	opts := []crowd.FrameSchedulerOption{
		crowd.WithExecutor(ex),
		crowd.WithBoundary(boundary, cfg.Derived.ExtentX32, cfg.Derived.ExtentZ32),
		crowd.WithProbeScale(cfg.Derived.ProbeScale32),
		crowd.WithFlattenCamera(c.FlattenCamera),
		crowd.WithSynchronous(c.Synchronous),
		crowd.WithConsumers(consumers...),
	}
	if c.JobBatch > 0 {
		opts = append(opts, crowd.WithBatchSize(c.JobBatch))
	}
	if boxes := Obstacles(cfg); len(boxes) > 0 {
		opts = append(opts, crowd.WithColliders(crowd.Obstacles(boxes)))
	}

	sys, err := crowd.NewSystem(table, crowd.SystemConfig{
		Count: c.Count,
		Spawn: entity_store.SpawnRect{
			MinX: float32(c.Spawn.MinX),
			MinZ: float32(c.Spawn.MinZ),
			MaxX: float32(c.Spawn.MaxX),
			MaxZ: float32(c.Spawn.MaxZ),
		},
		SpawnHeight: cfg.Derived.SpawnHeight32,
		Speed:       cfg.Derived.Speed32,
		Seed:        c.Seed,
	}, opts...)
	if err != nil {
		ex.Close()
		return nil, err
	}
	return sys, nil
}

// Camera creates the viewing camera and the orbit that moves it.
//
// Parameters:
//   - cfg: the effective configuration
//   - aspect: viewport width / height
//
// Returns:
//   - camera.Camera: the camera, already placed at the start of the orbit
//   - *camera.Orbit: the orbit around the arena center
func Camera(cfg *config.Config, aspect float32) (camera.Camera, *camera.Orbit) {
	cc := cfg.Render.Camera
	cam := camera.NewCamera(
		camera.WithLabel("orbit"),
		camera.WithFov(cfg.Derived.FovRad32),
		camera.WithAspect(aspect),
		camera.WithClipPlanes(float32(cc.Near), float32(cc.Far)),
	)
	orbit := camera.NewOrbit(common.Vec3{}, float32(cc.OrbitRadius), float32(cc.OrbitElevation), float32(cc.OrbitSpeed))
	orbit.Advance(0, cam)
	return cam, orbit
}

// Recorder opens the telemetry output directory and snapshots the effective configuration next
// to the CSV. An empty directory disables telemetry and returns a nil recorder.
//
// Parameters:
//   - cfg: the effective configuration
//
// Returns:
//   - *telemetry.Recorder: the recorder, or nil
//   - error: error if the directory or a file cannot be written
func Recorder(cfg *config.Config) (*telemetry.Recorder, error) {
	rec, err := telemetry.Create(cfg.Telemetry.OutputDir, telemetry.WithFlushEvery(cfg.Telemetry.FlushEvery))
	if err != nil || rec == nil {
		return nil, err
	}
	if err := cfg.WriteYAML(filepath.Join(rec.Dir(), "config.yaml")); err != nil {
		rec.Close()
		return nil, err
	}
	slog.Info("demo: telemetry enabled", "dir", rec.Dir())
	return rec, nil
}

// Aspect returns width / height, or 1 for a degenerate size.
func Aspect(width, height int) float32 {
	if width <= 0 || height <= 0 {
		return 1
	}
	return float32(width) / float32(height)
}
