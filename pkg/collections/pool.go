// Package collections provides the shared data structures the engine's
// hot paths lean on: pooled page buffers and the atomic vote-to-halt
// bitset.
package collections

import (
	"sync"
)

// SlicePool recycles equally-sized slices across allocations. The paged
// huge arrays draw their page buffers from one of these, so a driver that
// builds and drops a node value store per run reuses pages instead of
// re-allocating every one of them from scratch.
type SlicePool[T any] struct {
	pool sync.Pool
}

// NewSlicePool creates a pool whose fresh slices carry capacity pageCap.
// pageCap <= 0 falls back to 256.
func NewSlicePool[T any](pageCap int) *SlicePool[T] {
	if pageCap <= 0 {
		pageCap = 256
	}
	p := &SlicePool[T]{}
	p.pool.New = func() interface{} {
		buf := make([]T, 0, pageCap)
		return &buf
	}
	return p
}

// Get returns a zero-length slice, freshly allocated or recycled.
func (p *SlicePool[T]) Get() *[]T {
	return p.pool.Get().(*[]T)
}

// Put hands a slice back for reuse, truncating it first. The backing
// array is retained, so the next Get sees stale element values past the
// truncated length; callers re-fill to their own default before use.
func (p *SlicePool[T]) Put(buf *[]T) {
	if buf == nil {
		return
	}
	*buf = (*buf)[:0]
	p.pool.Put(buf)
}

// Int64SlicePool is a shared pool for []int64 page-sized scratch buffers.
var Int64SlicePool = NewSlicePool[int64](256)

// GetInt64Slice gets a slice from the shared pool.
func GetInt64Slice() *[]int64 {
	return Int64SlicePool.Get()
}

// PutInt64Slice returns a slice to the shared pool.
func PutInt64Slice(buf *[]int64) {
	Int64SlicePool.Put(buf)
}
