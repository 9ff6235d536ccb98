// Package telemetry writes per-frame performance rows as CSV.
package telemetry

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/gocarina/gocsv"
)

// PerfFileName is the file Create writes into the output directory.
const PerfFileName = "perf.csv"

// FrameRecord is one frame's timings and draw counters.
type FrameRecord struct {
	Frame     int     `csv:"frame"`
	ElapsedS  float64 `csv:"elapsed_s"`
	FrameMs   float64 `csv:"frame_ms"`
	SimWaitMs float64 `csv:"sim_wait_ms"`
	RenderMs  float64 `csv:"render_ms"`
	DrawCalls int     `csv:"draw_calls"`
	Instances int     `csv:"instances"`
	Culled    int     `csv:"culled"`
}

// Recorder buffers frame records and writes them as CSV. A nil *Recorder accepts every call and
// does nothing, so output can be disabled by passing nil around.
type Recorder struct {
	mu sync.Mutex

	w      io.Writer
	closer io.Closer
	dir    string

	headerWritten bool
	flushEvery    int
	pending       []FrameRecord
}

// RecorderOption configures a Recorder.
type RecorderOption func(*Recorder)

// WithFlushEvery sets how many records are buffered before they are written. Values below one
// write every record immediately.
func WithFlushEvery(n int) RecorderOption {
	return func(r *Recorder) {
		r.flushEvery = max(n, 1)
	}
}

// NewRecorder writes records to w. The caller keeps ownership of w.
//
// Parameters:
//   - w: destination of the CSV stream
//   - opts: functional options
//
// Returns:
//   - *Recorder: the recorder
func NewRecorder(w io.Writer, opts ...RecorderOption) *Recorder {
	r := &Recorder{w: w, flushEvery: 60}
	for _, opt := range opts {
		opt(r)
	}
	r.pending = make([]FrameRecord, 0, r.flushEvery)
	return r
}

// Create makes dir and opens dir/perf.csv. An empty dir disables output and returns a nil Recorder.
//
// Parameters:
//   - dir: output directory
//   - opts: functional options
//
// Returns:
//   - *Recorder: the recorder, or nil when dir is empty
//   - error: error if the directory or file cannot be created
func Create(dir string, opts ...RecorderOption) (*Recorder, error) {
	if dir == "" {
		return nil, nil
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}
	f, err := os.Create(filepath.Join(dir, PerfFileName))
	if err != nil {
		return nil, fmt.Errorf("creating %s: %w", PerfFileName, err)
	}
	r := NewRecorder(f, opts...)
	r.closer = f
	r.dir = dir
	return r, nil
}

// Dir returns the output directory, or "" for writer-backed and nil recorders.
func (r *Recorder) Dir() string {
	if r == nil {
		return ""
	}
	return r.dir
}

// Record buffers one frame and writes the buffer once it is full.
//
// Parameters:
//   - rec: the frame's record
//
// Returns:
//   - error: error if a write fails
func (r *Recorder) Record(rec FrameRecord) error {
	if r == nil {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	r.pending = append(r.pending, rec)
	if len(r.pending) < r.flushEvery {
		return nil
	}
	return r.flush()
}

// Flush writes every buffered record.
func (r *Recorder) Flush() error {
	if r == nil {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.flush()
}

// flush writes pending records, with the header on the first write only. Caller must hold mu.
func (r *Recorder) flush() error {
	if len(r.pending) == 0 {
		return nil
	}
	if !r.headerWritten {
		if err := gocsv.Marshal(r.pending, r.w); err != nil {
			return fmt.Errorf("writing perf: %w", err)
		}
		r.headerWritten = true
	} else {
		if err := gocsv.MarshalWithoutHeaders(r.pending, r.w); err != nil {
			return fmt.Errorf("writing perf: %w", err)
		}
	}
	r.pending = r.pending[:0]
	return nil
}

// Close flushes and closes the file opened by Create.
func (r *Recorder) Close() error {
	if r == nil {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	err := r.flush()
	if r.closer != nil {
		if cerr := r.closer.Close(); cerr != nil && err == nil {
			err = cerr
		}
		r.closer = nil
	}
	return err
}
