package telemetry

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const wantHeader = "frame,elapsed_s,frame_ms,sim_wait_ms,render_ms,draw_calls,instances,culled"

func TestRecorderHeaderOnce(t *testing.T) {
	var buf bytes.Buffer
	r := NewRecorder(&buf, WithFlushEvery(2))

	for i := 1; i <= 5; i++ {
		if err := r.Record(FrameRecord{Frame: i, DrawCalls: 9, Instances: 3600}); err != nil {
			t.Fatalf("Record(%d): %v", i, err)
		}
	}
	if got := strings.Count(buf.String(), "\n"); got != 5 {
		t.Fatalf("lines before flush = %d, want 5 (header + 4 rows)", got)
	}
	if err := r.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 6 {
		t.Fatalf("lines = %d, want 6:\n%s", len(lines), buf.String())
	}
	if lines[0] != wantHeader {
		t.Errorf("header = %q, want %q", lines[0], wantHeader)
	}
	if strings.Count(buf.String(), "frame,") != 1 {
		t.Errorf("header written more than once:\n%s", buf.String())
	}
	if !strings.HasPrefix(lines[5], "5,") || !strings.HasSuffix(lines[5], ",9,3600,0") {
		t.Errorf("last row = %q", lines[5])
	}
}

func TestNilRecorder(t *testing.T) {
	var r *Recorder
	if err := r.Record(FrameRecord{Frame: 1}); err != nil {
		t.Errorf("Record on nil: %v", err)
	}
	if err := r.Flush(); err != nil {
		t.Errorf("Flush on nil: %v", err)
	}
	if err := r.Close(); err != nil {
		t.Errorf("Close on nil: %v", err)
	}
	if r.Dir() != "" {
		t.Errorf("Dir on nil = %q", r.Dir())
	}
}

func TestCreate(t *testing.T) {
	r, err := Create("")
	if err != nil || r != nil {
		t.Fatalf("Create(\"\") = %v, %v; want nil, nil", r, err)
	}

	dir := filepath.Join(t.TempDir(), "out")
	r, err = Create(dir)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if r.Dir() != dir {
		t.Errorf("Dir = %q, want %q", r.Dir(), dir)
	}
	if err := r.Record(FrameRecord{Frame: 7}); err != nil {
		t.Fatalf("Record: %v", err)
	}
	if err := r.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, PerfFileName))
	if err != nil {
		t.Fatalf("reading perf.csv: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 2 || lines[0] != wantHeader || !strings.HasPrefix(lines[1], "7,") {
		t.Errorf("perf.csv =\n%s", data)
	}
}
