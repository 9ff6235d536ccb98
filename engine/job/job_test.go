package job

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func executors() map[string]Executor {
	return map[string]Executor{
		"inline": NewInlineExecutor(),
		"pool":   NewPoolExecutor(4, 64),
	}
}

func TestScheduleParallelCoversEveryIndexOnce(t *testing.T) {
	for name, ex := range executors() {
		t.Run(name, func(t *testing.T) {
			const n = 1037
			hits := make([]int32, n)
			h := ScheduleParallel(ex, n, 64, func(start, end int) {
				for i := start; i < end; i++ {
					atomic.AddInt32(&hits[i], 1)
				}
			})
			h.Complete()

			for i, c := range hits {
				if c != 1 {
					t.Fatalf("index %d visited %d times", i, c)
				}
			}
			if !h.IsCompleted() {
				t.Error("IsCompleted = false after Complete")
			}
		})
	}
}

func TestDependencyOrdering(t *testing.T) {
	for name, ex := range executors() {
		t.Run(name, func(t *testing.T) {
			const n = 500
			stage := make([]int32, n)

			first := ScheduleParallel(ex, n, 50, func(start, end int) {
				time.Sleep(time.Millisecond)
				for i := start; i < end; i++ {
					atomic.StoreInt32(&stage[i], 1)
				}
			})
			var violations atomic.Int32
			second := ScheduleParallel(ex, n, 50, func(start, end int) {
				for i := start; i < end; i++ {
					if atomic.LoadInt32(&stage[i]) != 1 {
						violations.Add(1)
					}
				}
			}, first)
			second.Complete()

			if v := violations.Load(); v != 0 {
				t.Errorf("%d elements ran before their dependency", v)
			}
			if !first.IsCompleted() {
				t.Error("dependency not complete after dependent completed")
			}
		})
	}
}

func TestScheduleParallelDoesNotBlockCaller(t *testing.T) {
	release := make(chan struct{})
	gate := ScheduleParallel(NewInlineExecutor(), 1, 1, func(int, int) { <-release })

	start := time.Now()
	h := ScheduleParallel(NewInlineExecutor(), 10, 1, func(int, int) {}, gate)
	if time.Since(start) > 100*time.Millisecond {
		t.Fatal("ScheduleParallel blocked on its dependency")
	}
	if h.IsCompleted() {
		t.Fatal("job completed before its dependency")
	}
	close(release)
	h.Complete()
}

func TestZeroCountAndNilHandles(t *testing.T) {
	var called sync.Once
	h := ScheduleParallel(NewInlineExecutor(), 0, 8, func(int, int) { called.Do(func() { t.Error("fn called for empty range") }) })
	h.Complete()

	var nilHandle *Handle
	nilHandle.Complete()
	if !nilHandle.IsCompleted() {
		t.Error("nil handle should be complete")
	}
	Combine(Completed(), h, nilHandle).Complete()
}

func TestBatchSize(t *testing.T) {
	if got := BatchSize(1800, 3, 32); got != 150 {
		t.Errorf("BatchSize(1800, 3, 32) = %d, want 150", got)
	}
	if got := BatchSize(100, 8, 32); got != 32 {
		t.Errorf("BatchSize(100, 8, 32) = %d, want 32", got)
	}
	if got := BatchSize(0, 0, 0); got != 1 {
		t.Errorf("BatchSize(0, 0, 0) = %d, want 1", got)
	}
}

func TestExecutorCloseIsIdempotent(t *testing.T) {
	for name, ex := range executors() {
		t.Run(name, func(t *testing.T) {
			var ran atomic.Int32
			ScheduleParallel(ex, 10, 2, func(int, int) { ran.Add(1) }).Complete()
			ex.Close()
			ex.Close()
			if ran.Load() != 5 {
				t.Errorf("ran %d chunks, want 5", ran.Load())
			}
		})
	}
}
