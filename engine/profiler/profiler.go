// Package profiler logs frame rate, frame time distribution and memory statistics at a fixed interval.
package profiler

import (
	"log/slog"
	"runtime"
	"slices"
	"time"

	"gonum.org/v1/gonum/stat"
)

// Report is one interval's statistics.
type Report struct {
	FPS           float64
	FrameMeanMs   float64
	FrameStdDevMs float64
	FrameP95Ms    float64
	HeapMB        float64
	SysMB         float64
	AllocRateMBps float64
	GCCount       uint32
	LastPauseUs   uint64
	MaxPauseUs    uint64
}

// Profiler collects frame times and logs a Report once per interval.
type Profiler struct {
	logger         *slog.Logger
	updateInterval time.Duration
	now            func() time.Time

	lastTime  time.Time
	lastFrame time.Time
	frames    []float64
	sorted    []float64

	memStats       runtime.MemStats
	lastGCCount    uint32
	lastTotalAlloc uint64

	last Report
}

// ProfilerOption configures a Profiler.
type ProfilerOption func(*Profiler)

// WithInterval sets how often a report is produced.
func WithInterval(d time.Duration) ProfilerOption {
	return func(p *Profiler) {
		if d > 0 {
			p.updateInterval = d
		}
	}
}

// WithLogger sets the logger reports are written to.
func WithLogger(l *slog.Logger) ProfilerOption {
	return func(p *Profiler) {
		if l != nil {
			p.logger = l
		}
	}
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) ProfilerOption {
	return func(p *Profiler) {
		if now != nil {
			p.now = now
		}
	}
}

// NewProfiler creates a Profiler with a one second interval logging to slog.Default().
//
// Parameters:
//   - opts: functional options
//
// Returns:
//   - *Profiler: the profiler
func NewProfiler(opts ...ProfilerOption) *Profiler {
	p := &Profiler{
		logger:         slog.Default(),
		updateInterval: time.Second,
		now:            time.Now,
		frames:         make([]float64, 0, 256),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.lastTime = p.now()
	p.lastFrame = p.lastTime
	return p
}

// Tick records one frame. The frame time is the time since the previous Tick.
//
// Returns:
//   - bool: true if a report was logged on this tick
func (p *Profiler) Tick() bool {
	current := p.now()
	return p.record(current, current.Sub(p.lastFrame))
}

// Record adds a frame of the given duration and logs a report when the interval has elapsed.
//
// Parameters:
//   - frame: the frame's duration
//
// Returns:
//   - bool: true if a report was logged
func (p *Profiler) Record(frame time.Duration) bool {
	return p.record(p.now(), frame)
}

func (p *Profiler) record(current time.Time, frame time.Duration) bool {
	p.lastFrame = current
	p.frames = append(p.frames, float64(frame)/float64(time.Millisecond))

	elapsed := current.Sub(p.lastTime)
	if elapsed < p.updateInterval {
		return false
	}

	p.last = p.report(elapsed)
	p.logger.Info("profiler",
		"fps", p.last.FPS,
		"frame_ms_mean", p.last.FrameMeanMs,
		"frame_ms_stddev", p.last.FrameStdDevMs,
		"frame_ms_p95", p.last.FrameP95Ms,
		"heap_mb", p.last.HeapMB,
		"sys_mb", p.last.SysMB,
		"alloc_mb_s", p.last.AllocRateMBps,
		"gc", p.last.GCCount,
		"gc_last_pause_us", p.last.LastPauseUs,
		"gc_max_pause_us", p.last.MaxPauseUs,
	)

	p.frames = p.frames[:0]
	p.lastTime = current
	return true
}

// Last returns the most recent report.
func (p *Profiler) Last() Report {
	return p.last
}

func (p *Profiler) report(elapsed time.Duration) Report {
	r := Report{FPS: float64(len(p.frames)) / elapsed.Seconds()}

	if len(p.frames) > 0 {
		r.FrameMeanMs, r.FrameStdDevMs = stat.MeanStdDev(p.frames, nil)
		p.sorted = append(p.sorted[:0], p.frames...)
		slices.Sort(p.sorted)
		r.FrameP95Ms = stat.Quantile(0.95, stat.Empirical, p.sorted, nil)
	}

	runtime.ReadMemStats(&p.memStats)
	r.HeapMB = float64(p.memStats.Alloc) / 1024 / 1024
	r.SysMB = float64(p.memStats.Sys) / 1024 / 1024
	r.AllocRateMBps = float64(p.memStats.TotalAlloc-p.lastTotalAlloc) / 1024 / 1024 / elapsed.Seconds()

	gcCount := p.memStats.NumGC
	r.GCCount = gcCount
	if gcCount > 0 {
		// PauseNs is a ring of the last 256 pauses.
		r.LastPauseUs = p.memStats.PauseNs[(gcCount-1)%256] / 1000
		start := p.lastGCCount
		if gcCount-start > 256 {
			start = gcCount - 256
		}
		for i := start; i < gcCount; i++ {
			r.MaxPauseUs = max(r.MaxPauseUs, p.memStats.PauseNs[i%256]/1000)
		}
	}

	p.lastGCCount = gcCount
	p.lastTotalAlloc = p.memStats.TotalAlloc
	return r
}
