// Package config loads the demo configuration: embedded defaults overlaid with an optional YAML file.
package config

import (
	_ "embed"
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config holds every tunable of the crowd demos.
type Config struct {
	Crowd     CrowdConfig      `yaml:"crowd"`
	Animation AnimationConfig  `yaml:"animation"`
	Batch     BatchConfig      `yaml:"batch"`
	Obstacles []ObstacleConfig `yaml:"obstacles"`
	Render    RenderConfig     `yaml:"render"`
	Engine    EngineConfig     `yaml:"engine"`
	Telemetry TelemetryConfig  `yaml:"telemetry"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// CrowdConfig describes the simulated population.
type CrowdConfig struct {
	Count         int        `yaml:"count"`
	Spawn         RectConfig `yaml:"spawn"`
	SpawnHeight   float64    `yaml:"spawn_height"`
	Speed         float64    `yaml:"speed"`
	Boundary      string     `yaml:"boundary"` // wrap or reflect
	ExtentX       float64    `yaml:"extent_x"`
	ExtentZ       float64    `yaml:"extent_z"`
	ProbeScale    float64    `yaml:"probe_scale"` // ray length = probe_scale * delta time
	JobBatch      int        `yaml:"job_batch"`   // entities per parallel chunk, 0 = derived from workers
	Workers       int        `yaml:"workers"`     // 0 = GOMAXPROCS
	Synchronous   bool       `yaml:"synchronous"`
	FlattenCamera bool       `yaml:"flatten_camera"`
	Seed          uint64     `yaml:"seed"`
}

// RectConfig is a ground-plane rectangle.
type RectConfig struct {
	MinX float64 `yaml:"min_x"`
	MinZ float64 `yaml:"min_z"`
	MaxX float64 `yaml:"max_x"`
	MaxZ float64 `yaml:"max_z"`
}

// AnimationConfig locates the sprite sheet. An empty atlas generates a procedural sheet.
type AnimationConfig struct {
	Atlas   string      `yaml:"atlas"`
	Texture string      `yaml:"texture"`
	Prefix  string      `yaml:"prefix"`
	Length  int         `yaml:"length"` // frames per direction
	Sheet   SheetConfig `yaml:"sheet"`
}

// SheetConfig sizes the generated sprite sheet.
type SheetConfig struct {
	FrameWidth  int `yaml:"frame_width"`
	FrameHeight int `yaml:"frame_height"`
}

// BatchConfig configures the instanced draw batcher.
type BatchConfig struct {
	Capacity   int        `yaml:"capacity"`
	Shadows    bool       `yaml:"shadows"`
	ShadowTint [4]float64 `yaml:"shadow_tint"`
}

// ObstacleConfig is an axis-aligned box the crowd steers away from.
type ObstacleConfig struct {
	Min [3]float64 `yaml:"min"`
	Max [3]float64 `yaml:"max"`
}

// RenderConfig configures the window and the scene.
type RenderConfig struct {
	Width        int          `yaml:"width"`
	Height       int          `yaml:"height"`
	Title        string       `yaml:"title"`
	ClearColor   [4]float64   `yaml:"clear_color"`
	VSync        bool         `yaml:"vsync"`
	MSAA         int          `yaml:"msaa"`
	MaxInstances int          `yaml:"max_instances"`
	Ground       GroundConfig `yaml:"ground"`
	Light        LightConfig  `yaml:"light"`
	Camera       CameraConfig `yaml:"camera"`
}

// GroundConfig describes the background plane.
type GroundConfig struct {
	Size  float64    `yaml:"size"`
	Color [4]float64 `yaml:"color"`
}

// LightConfig describes the directional light.
type LightConfig struct {
	Direction [3]float64 `yaml:"direction"`
	Color     [3]float64 `yaml:"color"`
	Intensity float64    `yaml:"intensity"`
	Ambient   [3]float64 `yaml:"ambient"`
}

// CameraConfig describes the orbiting camera.
type CameraConfig struct {
	FovDeg         float64 `yaml:"fov_deg"`
	Near           float64 `yaml:"near"`
	Far            float64 `yaml:"far"`
	OrbitRadius    float64 `yaml:"orbit_radius"`
	OrbitElevation float64 `yaml:"orbit_elevation"` // radians above the ground
	OrbitSpeed     float64 `yaml:"orbit_speed"`     // radians per second
}

// EngineConfig configures the frame loop.
type EngineConfig struct {
	TickRate   float64 `yaml:"tick_rate"`
	FrameLimit float64 `yaml:"frame_limit"` // 0 = uncapped
	Profiling  bool    `yaml:"profiling"`
}

// TelemetryConfig configures CSV output.
type TelemetryConfig struct {
	OutputDir  string `yaml:"output_dir"` // empty disables output
	FlushEvery int    `yaml:"flush_every"`
}

// DerivedConfig holds values computed from the loaded configuration.
type DerivedConfig struct {
	ExtentX32     float32
	ExtentZ32     float32
	Speed32       float32
	SpawnHeight32 float32
	ProbeScale32  float32
	FovRad32      float32
	TableLen      int // animation length * 8 directions
	Chunks        int // instanced draw calls per pass
	ClearColor32  [4]float32
	ShadowTint32  [4]float32
}

// global holds the loaded configuration.
var global *Config

// Init loads configuration from the given path, or uses embedded defaults if path is empty.
// Must be called before Cfg().
func Init(path string) error {
	cfg, err := Load(path)
	if err != nil {
		return err
	}
	global = cfg
	return nil
}

// MustInit is like Init but panics on error.
func MustInit(path string) {
	if err := Init(path); err != nil {
		panic(fmt.Sprintf("config: failed to initialize: %v", err))
	}
}

// Cfg returns the global configuration. Panics if Init was not called.
func Cfg() *Config {
	if global == nil {
		panic("config: Cfg() called before Init()")
	}
	return global
}

// Load reads the embedded defaults, overlays the YAML file at path (if any) and validates the result.
//
// Parameters:
//   - path: user configuration file, empty for defaults only
//
// Returns:
//   - *Config: the effective configuration
//   - error: error if a file cannot be read or parsed, or a value is out of range
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		if err := Overlay(cfg, data); err != nil {
			return nil, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg.computeDerived()
	return cfg, nil
}

// Overlay unmarshals data into cfg. Only keys present in data are overwritten; lists such as
// obstacles are replaced as a whole.
func Overlay(cfg *Config, data []byte) error {
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parsing config file: %w", err)
	}
	return nil
}

// Validate checks the values no component can recover from.
func (c *Config) Validate() error {
	switch {
	case c.Crowd.Count <= 0:
		return fmt.Errorf("config: crowd.count must be positive, got %d", c.Crowd.Count)
	case c.Crowd.Boundary != "wrap" && c.Crowd.Boundary != "reflect":
		return fmt.Errorf("config: crowd.boundary must be wrap or reflect, got %q", c.Crowd.Boundary)
	case c.Crowd.ExtentX <= 0 || c.Crowd.ExtentZ <= 0:
		return fmt.Errorf("config: crowd extents must be positive")
	case c.Animation.Length <= 0:
		return fmt.Errorf("config: animation.length must be positive, got %d", c.Animation.Length)
	case c.Batch.Capacity <= 0:
		return fmt.Errorf("config: batch.capacity must be positive, got %d", c.Batch.Capacity)
	case c.Engine.TickRate <= 0:
		return fmt.Errorf("config: engine.tick_rate must be positive, got %v", c.Engine.TickRate)
	}
	for i, o := range c.Obstacles {
		for k := 0; k < 3; k++ {
			if o.Min[k] > o.Max[k] {
				return fmt.Errorf("config: obstacle %d has min > max on axis %d", i, k)
			}
		}
	}
	return nil
}

// computeDerived calculates values derived from loaded config.
func (c *Config) computeDerived() {
	c.Derived.ExtentX32 = float32(c.Crowd.ExtentX)
	c.Derived.ExtentZ32 = float32(c.Crowd.ExtentZ)
	c.Derived.Speed32 = float32(c.Crowd.Speed)
	c.Derived.SpawnHeight32 = float32(c.Crowd.SpawnHeight)
	c.Derived.ProbeScale32 = float32(c.Crowd.ProbeScale)
	c.Derived.FovRad32 = float32(c.Render.Camera.FovDeg * math.Pi / 180)
	c.Derived.TableLen = c.Animation.Length * 8
	c.Derived.Chunks = (c.Crowd.Count + c.Batch.Capacity - 1) / c.Batch.Capacity
	for i := range 4 {
		c.Derived.ClearColor32[i] = float32(c.Render.ClearColor[i])
		c.Derived.ShadowTint32[i] = float32(c.Batch.ShadowTint[i])
	}
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
