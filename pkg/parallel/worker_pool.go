// Package parallel provides the engine's parallel execution primitives:
// a bounded worker pool with a map-reduce helper for flat scans (degree
// sums, bulk page uploads) and a fork/join pool for recursive partition
// bisection inside a compute step.
package parallel

import (
	"context"
	"runtime"
	"sync"
	"sync/atomic"
	"time"
)

// PoolConfig configures the worker pool behavior.
type PoolConfig struct {
	// MaxWorkers is the maximum number of concurrent workers.
	// Default: min(runtime.NumCPU(), 8), raised to at least 2
	MaxWorkers int

	// CollectMetrics enables collection of execution metrics.
	CollectMetrics bool
}

// DefaultPoolConfig returns a default pool configuration.
func DefaultPoolConfig() PoolConfig {
	workers := runtime.NumCPU()
	if workers > 8 {
		workers = 8 // Cap at 8 to avoid excessive overhead
	}
	if workers < 2 {
		workers = 2
	}
	return PoolConfig{MaxWorkers: workers}
}

// WithWorkers returns a new config with the specified number of workers.
func (c PoolConfig) WithWorkers(n int) PoolConfig {
	c.MaxWorkers = n
	return c
}

// WithMetrics returns a new config with metrics collection enabled.
func (c PoolConfig) WithMetrics() PoolConfig {
	c.CollectMetrics = true
	return c
}

// PoolMetrics summarizes one ExecuteFunc run: task counts plus wall-time
// figures the caller can log or fold into export stats.
type PoolMetrics struct {
	TotalTasks     int64
	CompletedTasks int64
	FailedTasks    int64
	TotalDuration  time.Duration
	MaxTaskTime    time.Duration
	MinTaskTime    time.Duration
}

// TaskResult pairs one input with the outcome of running it.
type TaskResult[T any, R any] struct {
	Input    T
	Result   R
	Error    error
	Duration time.Duration
}

// WorkerPool runs one function over a slice of inputs with bounded
// concurrency. Workers claim inputs through a shared atomic cursor, so
// dispatch needs no channel and fast tasks never queue behind slow ones
// assigned to the same worker.
type WorkerPool[T any, R any] struct {
	config  PoolConfig
	mu      sync.Mutex
	metrics PoolMetrics
}

// NewWorkerPool creates a worker pool with the given configuration.
func NewWorkerPool[T any, R any](config PoolConfig) *WorkerPool[T, R] {
	if config.MaxWorkers <= 0 {
		config.MaxWorkers = DefaultPoolConfig().MaxWorkers
	}
	return &WorkerPool[T, R]{config: config}
}

// ExecuteFunc runs fn once per input, at most MaxWorkers at a time, and
// returns one TaskResult per input in input order. Inputs not yet claimed
// when ctx is cancelled are recorded with ctx's error instead of running.
func (p *WorkerPool[T, R]) ExecuteFunc(ctx context.Context, inputs []T, fn func(ctx context.Context, input T) (R, error)) []TaskResult[T, R] {
	if len(inputs) == 0 {
		return nil
	}

	started := time.Now()
	results := make([]TaskResult[T, R], len(inputs))

	var cursor atomic.Int64
	var wg sync.WaitGroup
	workers := min(p.config.MaxWorkers, len(inputs))

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				idx := int(cursor.Add(1)) - 1
				if idx >= len(inputs) {
					return
				}
				if err := ctx.Err(); err != nil {
					results[idx] = TaskResult[T, R]{Input: inputs[idx], Error: err}
					continue
				}
				taskStart := time.Now()
				out, err := fn(ctx, inputs[idx])
				elapsed := time.Since(taskStart)
				results[idx] = TaskResult[T, R]{Input: inputs[idx], Result: out, Error: err, Duration: elapsed}
				if p.config.CollectMetrics {
					p.record(elapsed, err)
				}
			}
		}()
	}
	wg.Wait()

	if p.config.CollectMetrics {
		p.mu.Lock()
		p.metrics.TotalDuration = time.Since(started)
		p.mu.Unlock()
	}
	return results
}

// record folds one task outcome into the pool metrics.
func (p *WorkerPool[T, R]) record(elapsed time.Duration, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.metrics.TotalTasks++
	if err != nil {
		p.metrics.FailedTasks++
	} else {
		p.metrics.CompletedTasks++
	}
	if elapsed > p.metrics.MaxTaskTime {
		p.metrics.MaxTaskTime = elapsed
	}
	if p.metrics.MinTaskTime == 0 || elapsed < p.metrics.MinTaskTime {
		p.metrics.MinTaskTime = elapsed
	}
}

// Metrics returns a snapshot of the metrics collected so far.
func (p *WorkerPool[T, R]) Metrics() PoolMetrics {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.metrics
}

// MapReduce applies mapper to each item in parallel and folds the mapped
// values with reducer. Mapper errors do not exist in this shape; mappers
// that can fail should use ExecuteFunc directly.
func MapReduce[T any, M any, R any](
	ctx context.Context,
	items []T,
	config PoolConfig,
	mapper func(ctx context.Context, item T) M,
	reducer func(mapped []M) R,
) R {
	if len(items) == 0 {
		var zero R
		return zero
	}

	pool := NewWorkerPool[T, M](config)
	results := pool.ExecuteFunc(ctx, items, func(ctx context.Context, item T) (M, error) {
		return mapper(ctx, item), nil
	})

	mapped := make([]M, len(results))
	for i, r := range results {
		mapped[i] = r.Result
	}
	return reducer(mapped)
}

// Range is a half-open [Start, End) index range, used to hand a flat scan
// to MapReduce without materializing one task per element: callers chunk
// [0, N) into a handful of Ranges and map over those instead.
type Range struct {
	Start, End int64
}

// SplitRange chunks [0, n) into at most k contiguous Ranges of roughly
// equal size. k <= 0 falls back to the default worker count.
func SplitRange(n int64, k int) []Range {
	if n <= 0 {
		return nil
	}
	if k <= 0 {
		k = DefaultPoolConfig().MaxWorkers
	}
	chunk := (n + int64(k) - 1) / int64(k)
	out := make([]Range, 0, k)
	for start := int64(0); start < n; start += chunk {
		end := start + chunk
		if end > n {
			end = n
		}
		out = append(out, Range{Start: start, End: end})
	}
	return out
}
