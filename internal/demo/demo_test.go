package demo

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Carmen-Shannon/oxy-crowd/config"
	"github.com/Carmen-Shannon/oxy-crowd/engine/crowd"
)

func loadDefaults(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	return cfg
}

func TestLogger(t *testing.T) {
	tests := []struct {
		format  string
		want    string
		wantErr bool
	}{
		{format: "", want: `"msg":"hello"`},
		{format: "json", want: `"msg":"hello"`},
		{format: "text", want: "msg=hello"},
		{format: "xml", wantErr: true},
	}
	for _, tt := range tests {
		var buf bytes.Buffer
		logger, err := Logger(&buf, tt.format)
		if tt.wantErr {
			if err == nil {
				t.Errorf("Logger(%q) returned no error", tt.format)
			}
			continue
		}
		if err != nil {
			t.Fatalf("Logger(%q): %v", tt.format, err)
		}
		logger.Info("hello")
		if !strings.Contains(buf.String(), tt.want) {
			t.Errorf("Logger(%q) output %q, want %q", tt.format, buf.String(), tt.want)
		}
	}
}

func TestStartProfileModes(t *testing.T) {
	s, err := StartProfile("", "")
	if err != nil {
		t.Fatalf("StartProfile off: %v", err)
	}
	s.Stop()

	if _, err := StartProfile("gpu", ""); err == nil {
		t.Error("unknown profile mode must fail")
	}
}

func TestFrameTableGenerated(t *testing.T) {
	cfg := loadDefaults(t)
	table, err := FrameTable(cfg)
	if err != nil {
		t.Fatalf("FrameTable: %v", err)
	}
	if table.Len() != cfg.Derived.TableLen {
		t.Errorf("table len = %d, want %d", table.Len(), cfg.Derived.TableLen)
	}
	if table.Texture().Key != SheetKey {
		t.Errorf("texture key = %q, want %q", table.Texture().Key, SheetKey)
	}
}

func TestFrameTableMissingAtlas(t *testing.T) {
	cfg := loadDefaults(t)
	cfg.Animation.Atlas = filepath.Join(t.TempDir(), "missing.csv")
	cfg.Animation.Texture = filepath.Join(t.TempDir(), "missing.png")
	if _, err := FrameTable(cfg); err == nil {
		t.Error("FrameTable with a missing texture must fail")
	}
}

func TestObstacles(t *testing.T) {
	cfg := loadDefaults(t)
	cfg.Obstacles = []config.ObstacleConfig{{Min: [3]float64{-1, 0, 2}, Max: [3]float64{1, 2, 3}}}

	boxes := Obstacles(cfg)
	if len(boxes) != 1 {
		t.Fatalf("boxes = %d, want 1", len(boxes))
	}
	if boxes[0].Min.X != -1 || boxes[0].Max.Z != 3 {
		t.Errorf("box = %+v", boxes[0])
	}
}

func TestSystemFromDefaults(t *testing.T) {
	cfg := loadDefaults(t)
	cfg.Crowd.Count = 64
	cfg.Crowd.Workers = 2

	table, err := FrameTable(cfg)
	if err != nil {
		t.Fatal(err)
	}
	sys, err := System(cfg, table)
	if err != nil {
		t.Fatalf("System: %v", err)
	}
	defer sys.Close()

	if sys.Count() != 64 {
		t.Errorf("count = %d, want 64", sys.Count())
	}
	for i := 0; i < 3; i++ {
		if err := sys.Update(crowd.FrameInputs{Elapsed: float64(i) / 60, Delta: 1.0 / 60}); err != nil {
			t.Fatalf("Update %d: %v", i, err)
		}
	}

	cfg.Crowd.Boundary = "bounce"
	if _, err := System(cfg, table); err == nil {
		t.Error("unknown boundary must fail")
	}
}

func TestCameraStartsOnOrbit(t *testing.T) {
	cfg := loadDefaults(t)
	cam, orbit := Camera(cfg, Aspect(1280, 720))
	if cam.Position() != orbit.Position() {
		t.Errorf("camera at %v, orbit at %v", cam.Position(), orbit.Position())
	}
	if got := Aspect(0, 10); got != 1 {
		t.Errorf("Aspect(0, 10) = %v, want 1", got)
	}
}

func TestRecorderWritesConfigSnapshot(t *testing.T) {
	cfg := loadDefaults(t)

	rec, err := Recorder(cfg)
	if err != nil || rec != nil {
		t.Fatalf("Recorder without output dir = %v, %v; want nil, nil", rec, err)
	}

	cfg.Telemetry.OutputDir = filepath.Join(t.TempDir(), "run")
	rec, err = Recorder(cfg)
	if err != nil {
		t.Fatalf("Recorder: %v", err)
	}
	defer rec.Close()

	data, err := os.ReadFile(filepath.Join(cfg.Telemetry.OutputDir, "config.yaml"))
	if err != nil {
		t.Fatalf("reading snapshot: %v", err)
	}
	if !strings.Contains(string(data), "count: 1800") {
		t.Errorf("snapshot missing crowd count:\n%s", data)
	}
}
