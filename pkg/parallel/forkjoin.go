package parallel

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// ForkJoinPool bounds the number of goroutines a recursive divide-and-
// conquer workload may run concurrently. Unlike WorkerPool (flat
// chunk-and-join over a fixed slice), ForkJoinPool is built for workloads
// that recursively bisect their own input — the BSP compute step
// splitting a partition at each recursion level — so the fan-out shape is
// a tree, not a single flat wave. A buffered channel acts as the
// semaphore; Go's goroutine scheduler combined with errgroup.Wait gives us
// the "join" half without a bespoke work-stealing deque.
type ForkJoinPool struct {
	sem chan struct{}
}

// NewForkJoinPool creates a pool allowing at most concurrency extra
// goroutines to be in flight at once. concurrency <= 0 means "available
// parallelism".
func NewForkJoinPool(concurrency int) *ForkJoinPool {
	if concurrency <= 0 {
		concurrency = runtime.GOMAXPROCS(0)
	}
	return &ForkJoinPool{sem: make(chan struct{}, concurrency)}
}

// Fork runs left in the calling goroutine and right on a pooled goroutine
// when a slot is free, joining on both before returning the first error
// encountered. Slot acquisition never blocks: a caller deep in a
// recursive fork tree already holds slots up its ancestry, so waiting here
// would deadlock the pool — instead a saturated pool degrades to running
// both halves sequentially in the caller.
func (p *ForkJoinPool) Fork(ctx context.Context, left, right func(ctx context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	select {
	case p.sem <- struct{}{}:
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			defer func() { <-p.sem }()
			return right(gctx)
		})
		if err := left(gctx); err != nil {
			_ = g.Wait() // join before surfacing, the barrier must hold
			return err
		}
		return g.Wait()
	default:
		if err := left(ctx); err != nil {
			return err
		}
		return right(ctx)
	}
}
