// Package job schedules chunked parallel-for work on a worker pool and chains it through
// completion handles, so an orchestrating goroutine can hand off a whole task graph without
// blocking and synchronize on it exactly once later.
package job

import (
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/Carmen-Shannon/oxy-crowd/common"
)

// Executor runs submitted functions on worker goroutines.
type Executor interface {
	// Submit queues fn for execution. Submit may block while the executor's queue is full.
	Submit(fn func())
	// Close stops the executor's workers. Tasks must not be submitted afterwards. Close is safe to
	// call more than once.
	Close()
}

// poolExecutor runs tasks on a DynamicWorkerPool. Workers persist across frames, avoiding
// per-frame goroutine spawn/teardown overhead.
type poolExecutor struct {
	pool    worker.DynamicWorkerPool
	workers int
	nextID  atomic.Int64
	stop    sync.Once
}

var _ Executor = &poolExecutor{}

// NewPoolExecutor creates an executor backed by a dynamic worker pool.
//
// Parameters:
//   - workers: maximum worker count (<= 0 selects NumCPU-1, at least 1)
//   - queueSize: task queue capacity (<= 0 selects 256)
//
// Returns:
//   - Executor: the pool-backed executor
func NewPoolExecutor(workers, queueSize int) Executor {
	if workers <= 0 {
		workers = max(runtime.NumCPU()-1, 1)
	}
	if queueSize <= 0 {
		queueSize = 256
	}
	return &poolExecutor{
		pool:    worker.NewDynamicWorkerPool(workers, queueSize, 1*time.Second),
		workers: workers,
	}
}

func (e *poolExecutor) Submit(fn func()) {
	id := int(e.nextID.Add(1))
	e.pool.SubmitTask(worker.Task{
		ID: id,
		Do: func() (any, error) {
			fn()
			return nil, nil
		},
	})
}

func (e *poolExecutor) Close() {
	e.stop.Do(func() { e.pool.Stop() })
}

// Workers returns the worker count an executor was configured with, or 1 for executors that do
// not report one.
func Workers(ex Executor) int {
	if p, ok := ex.(*poolExecutor); ok {
		return p.workers
	}
	return 1
}

// inlineExecutor runs every task on the submitting goroutine.
type inlineExecutor struct{}

// NewInlineExecutor returns an executor that runs tasks synchronously inside Submit.
// Chains scheduled on it still complete on the chain's own goroutine, never on the caller of
// ScheduleParallel.
func NewInlineExecutor() Executor {
	return inlineExecutor{}
}

func (inlineExecutor) Submit(fn func()) {
	fn()
}

func (inlineExecutor) Close() {}

// Handle tracks completion of one scheduled job.
type Handle struct {
	done chan struct{}
}

// Completed returns a handle that is already complete.
func Completed() *Handle {
	h := &Handle{done: make(chan struct{})}
	close(h.done)
	return h
}

// Complete blocks until the job and everything it depends on finished. A nil handle is complete.
func (h *Handle) Complete() {
	if h == nil {
		return
	}
	<-h.done
}

// IsCompleted reports whether the job finished without blocking.
func (h *Handle) IsCompleted() bool {
	if h == nil {
		return true
	}
	select {
	case <-h.done:
		return true
	default:
		return false
	}
}

// Done exposes the completion channel for select statements.
func (h *Handle) Done() <-chan struct{} {
	return h.done
}

// ScheduleParallel runs fn over [0, count) in chunks of at most batchSize on ex once every
// dependency completed. It returns immediately; the returned handle completes after the last
// chunk returned.
//
// Parameters:
//   - ex: executor running the chunks
//   - count: number of elements
//   - batchSize: maximum elements per chunk (<= 0 runs a single chunk)
//   - fn: chunk body receiving the half-open range [start, end)
//   - deps: handles that must complete before any chunk starts
//
// Returns:
//   - *Handle: completion handle of the whole parallel-for
func ScheduleParallel(ex Executor, count, batchSize int, fn func(start, end int), deps ...*Handle) *Handle {
	h := &Handle{done: make(chan struct{})}
	if batchSize <= 0 {
		batchSize = max(count, 1)
	}

	go func() {
		defer close(h.done)
		for _, d := range deps {
			d.Complete()
		}

		spans := common.Partition(count, batchSize)
		var wg sync.WaitGroup
		wg.Add(len(spans))
		for _, s := range spans {
			start, end := s.Start, s.End()
			ex.Submit(func() {
				defer wg.Done()
				fn(start, end)
			})
		}
		wg.Wait()
	}()

	return h
}

// Combine returns a handle that completes once every handle in hs completed.
func Combine(hs ...*Handle) *Handle {
	h := &Handle{done: make(chan struct{})}
	go func() {
		defer close(h.done)
		for _, d := range hs {
			d.Complete()
		}
	}()
	return h
}

// BatchSize picks a chunk size for count elements that keeps roughly four chunks per worker and
// never drops below minBatch.
func BatchSize(count, workers, minBatch int) int {
	workers = max(workers, 1)
	return max(minBatch, (count+workers*4-1)/(workers*4), 1)
}
