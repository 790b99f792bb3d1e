package bsp

import (
	"sync"

	"github.com/bspgraph/engine/pkg/errors"
)

// bucket is a single vertex's message backlog: an append-only slice
// guarded by its own mutex. Go has no lock-free "grow a slice" primitive,
// so sends take a narrow per-vertex lock rather than a CAS loop over
// len[v]; the effect is the same (lock-free across vertices, serialized
// only for concurrent senders to the *same* vertex) and reads during
// compute are always single-threaded per vertex so they never contend
// with it.
type bucket struct {
	mu   sync.Mutex
	msgs []float64
	head int
}

func (b *bucket) push(m float64, maxLen int) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if maxLen > 0 && len(b.msgs)-b.head >= maxLen {
		return errors.Wrap(errors.CodeResourceError, "message queue exceeds max_messages_per_vertex", nil)
	}
	b.msgs = append(b.msgs, m)
	return nil
}

func (b *bucket) drain() []float64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.head >= len(b.msgs) {
		return nil
	}
	out := b.msgs[b.head:]
	b.head = len(b.msgs)
	return out
}

func (b *bucket) reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.msgs = nil
	b.head = 0
}

// SyncMessageQueue is the double-buffered message queue: writers append
// to current[v]; readers at superstep k consume
// previous[v], which was current[v] at the end of superstep k-1.
// SwapAndClear is an O(1) pointer exchange followed by an immediate
// O(N) reset of every bucket in the new current generation.
type SyncMessageQueue struct {
	n       int64
	maxLen  int
	current []bucket
	prev    []bucket
}

// NewSyncMessageQueue allocates a sync queue over n vertices. maxLen <= 0
// means unbounded per-vertex queue length.
func NewSyncMessageQueue(n int64, maxLen int) *SyncMessageQueue {
	return &SyncMessageQueue{
		n:       n,
		maxLen:  maxLen,
		current: make([]bucket, n),
		prev:    make([]bucket, n),
	}
}

// SendTo appends m to v's current-generation queue. Messages become
// visible to v only after the next SwapAndClear.
func (q *SyncMessageQueue) SendTo(v int64, m float64) error {
	if v < 0 || v >= q.n {
		return errors.Wrap(errors.CodeBoundsError, "send to out-of-range vertex", errIndexOutOfRange(v, q.n))
	}
	return q.current[v].push(m, q.maxLen)
}

// Previous drains v's previous-generation inbox: the messages sent to v
// during the prior superstep.
func (q *SyncMessageQueue) Previous(v int64) []float64 {
	if v < 0 || v >= q.n {
		return nil
	}
	return q.prev[v].drain()
}

// HasPrevious reports whether v has any unread message in the previous
// generation, without consuming it.
func (q *SyncMessageQueue) HasPrevious(v int64) bool {
	if v < 0 || v >= q.n {
		return false
	}
	b := &q.prev[v]
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.head < len(b.msgs)
}

// SwapAndClear exchanges current and previous and resets the new current
// generation to empty. Called once per superstep boundary.
func (q *SyncMessageQueue) SwapAndClear() {
	q.current, q.prev = q.prev, q.current
	for i := range q.current {
		q.current[i].reset()
	}
}

// asyncBucket is a single vertex's async queue: one growable slice with a
// head and tail, compacted cooperatively by the next writer once head
// grows past the compaction threshold relative to capacity.
type asyncBucket struct {
	mu   sync.Mutex
	msgs []float64
	head int
}

const asyncCompactionThreshold = 2 // compact once head >= cap/threshold... see push()

func (b *asyncBucket) push(m float64, maxLen int) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.head > 0 && b.head*asyncCompactionThreshold >= cap(b.msgs) {
		b.compactLocked()
	}
	if maxLen > 0 && len(b.msgs)-b.head >= maxLen {
		return errors.Wrap(errors.CodeResourceError, "message queue exceeds max_messages_per_vertex", nil)
	}
	b.msgs = append(b.msgs, m)
	return nil
}

func (b *asyncBucket) compactLocked() {
	n := len(b.msgs) - b.head
	compacted := make([]float64, n, max(n*2, 4))
	copy(compacted, b.msgs[b.head:])
	b.msgs = compacted
	b.head = 0
}

func (b *asyncBucket) pop() (float64, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.head >= len(b.msgs) {
		return 0, false
	}
	m := b.msgs[b.head]
	b.head++
	return m, true
}

func (b *asyncBucket) len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.msgs) - b.head
}

// AsyncMessageQueue keeps a single growable buffer per vertex: push
// advances tail, pop advances head, and compaction is cooperative (the
// next writer compacts before growing) rather than a background task.
type AsyncMessageQueue struct {
	n      int64
	maxLen int
	slots  []asyncBucket
}

// NewAsyncMessageQueue allocates an async queue over n vertices.
func NewAsyncMessageQueue(n int64, maxLen int) *AsyncMessageQueue {
	return &AsyncMessageQueue{n: n, maxLen: maxLen, slots: make([]asyncBucket, n)}
}

// SendTo pushes m onto v's queue; it may be observed in the same
// superstep (async semantics).
func (q *AsyncMessageQueue) SendTo(v int64, m float64) error {
	if v < 0 || v >= q.n {
		return errors.Wrap(errors.CodeBoundsError, "send to out-of-range vertex", errIndexOutOfRange(v, q.n))
	}
	return q.slots[v].push(m, q.maxLen)
}

// Pop removes and returns the oldest unread message for v, or ok=false if
// v's queue is empty.
func (q *AsyncMessageQueue) Pop(v int64) (float64, bool) {
	if v < 0 || v >= q.n {
		return 0, false
	}
	return q.slots[v].pop()
}

// Len reports how many unread messages are queued for v.
func (q *AsyncMessageQueue) Len(v int64) int {
	if v < 0 || v >= q.n {
		return 0
	}
	return q.slots[v].len()
}

// Compact is a no-op placeholder satisfying the Messenger interface's
// superstep-boundary hook: async compaction is cooperative (see push)
// rather than driven at the barrier, so there is nothing to do here
// beyond what the next send already performs.
func (q *AsyncMessageQueue) Compact() {}
