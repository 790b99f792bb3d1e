package bsp

import (
	"sync/atomic"

	"github.com/bspgraph/engine/pkg/errors"
)

// MessageIterator yields the messages queued for one vertex during one
// superstep. Calling it repeatedly after exhaustion returns ok=false.
type MessageIterator func() (value float64, ok bool)

// Messenger is the transport abstraction shared by sync/async queues and
// the reducing messenger: compute contexts send through it and read their
// own inbox through it; the driver swaps/compacts it at superstep
// boundaries.
type Messenger interface {
	// SendTo delivers m from sender to target. Out-of-range targets fail
	// fast rather than silently dropping the message.
	SendTo(sender, target int64, m float64) error

	// Receive returns an iterator over target's inbox for the superstep
	// currently being computed.
	Receive(target int64) MessageIterator

	// HasInbox reports whether target has at least one message, without
	// consuming it. Used by the compute step to decide whether a halted,
	// otherwise-silent vertex needs visiting.
	HasInbox(target int64) bool

	// InitIteration resets per-superstep bookkeeping (the
	// has-sent-message flag). Reducing messengers reset their slots to
	// identity in Swap, not here.
	InitIteration()

	// HasSentMessage reports whether SendTo was called at all during the
	// superstep just finished, for the driver's convergence check.
	HasSentMessage() bool

	// Swap performs the superstep-boundary transition: sync queues swap
	// generations, async queues compact lazily (a no-op here), reducing
	// messengers swap generations and reset the consumed one to identity.
	Swap()
}

// SenderAware is implemented by messengers that can report which sender's
// message produced the value observed by a reader; only the reducing
// messenger with track_sender enabled supports this.
type SenderAware interface {
	Sender(target int64) (int64, bool)
}

// ---- Sync messenger --------------------------------------------------

// SyncMessenger is a Messenger backed by a SyncMessageQueue: sends land in
// the current generation, reads observe the previous generation, and
// Swap is an O(1) generation exchange.
type SyncMessenger struct {
	q    *SyncMessageQueue
	sent atomic.Bool
}

// NewSyncMessenger wraps queue as a Messenger.
func NewSyncMessenger(queue *SyncMessageQueue) *SyncMessenger {
	return &SyncMessenger{q: queue}
}

func (m *SyncMessenger) SendTo(_, target int64, v float64) error {
	if err := m.q.SendTo(target, v); err != nil {
		return err
	}
	m.sent.Store(true)
	return nil
}

func (m *SyncMessenger) Receive(target int64) MessageIterator {
	msgs := m.q.Previous(target)
	i := 0
	return func() (float64, bool) {
		if i >= len(msgs) {
			return 0, false
		}
		v := msgs[i]
		i++
		return v, true
	}
}

func (m *SyncMessenger) HasInbox(target int64) bool { return m.q.HasPrevious(target) }
func (m *SyncMessenger) InitIteration()             { m.sent.Store(false) }
func (m *SyncMessenger) HasSentMessage() bool       { return m.sent.Load() }
func (m *SyncMessenger) Swap()                      { m.q.SwapAndClear() }

// ---- Async messenger --------------------------------------------------

// AsyncMessenger is a Messenger backed by an AsyncMessageQueue: sends may
// be observed by the recipient in the same superstep, at most once each,
// in unspecified order.
type AsyncMessenger struct {
	q    *AsyncMessageQueue
	sent atomic.Bool
}

// NewAsyncMessenger wraps queue as a Messenger.
func NewAsyncMessenger(queue *AsyncMessageQueue) *AsyncMessenger {
	return &AsyncMessenger{q: queue}
}

func (m *AsyncMessenger) SendTo(_, target int64, v float64) error {
	if err := m.q.SendTo(target, v); err != nil {
		return err
	}
	m.sent.Store(true)
	return nil
}

func (m *AsyncMessenger) Receive(target int64) MessageIterator {
	return func() (float64, bool) {
		return m.q.Pop(target)
	}
}

func (m *AsyncMessenger) HasInbox(target int64) bool { return m.q.Len(target) > 0 }
func (m *AsyncMessenger) InitIteration()             { m.sent.Store(false) }
func (m *AsyncMessenger) HasSentMessage() bool       { return m.sent.Load() }
func (m *AsyncMessenger) Swap()                      { m.q.Compact() }

// ---- Reducing messenger ------------------------------------------------

// reducingBuffer is one generation of a ReducingMessenger's slots: a
// reduced value plus a has-been-written flag per vertex, and an optional
// sender slot.
type reducingBuffer struct {
	slots    *AtomicPagedDoubleArray
	hasValue *AtomicPagedLongArray
	senders  *AtomicPagedLongArray // nil unless track_sender
}

func newReducingBuffer(n int64, identity float64, trackSender bool) *reducingBuffer {
	b := &reducingBuffer{
		slots:    NewAtomicPagedDoubleArray(n, identity),
		hasValue: NewAtomicPagedLongArray(n, 0),
	}
	if trackSender {
		b.senders = NewAtomicPagedLongArray(n, -1)
	}
	return b
}

func (b *reducingBuffer) reset(identity float64) {
	for i := int64(0); i < b.slots.Size(); i++ {
		b.slots.SetAtomic(i, identity)
		b.hasValue.SetAtomic(i, 0)
		if b.senders != nil {
			b.senders.SetAtomic(i, -1)
		}
	}
}

// ReducingMessenger replaces the per-vertex queue with a single reduced
// slot plus an optional sender slot. Like the sync queue it is
// double-buffered: sends during superstep K land in the current
// generation, while reads during superstep K observe generation K-1;
// Swap exchanges the two, so what superstep K wrote becomes readable in
// K+1, and resets the consumed K-1 generation to identity, readying it
// for K+1's writes. Updates are CAS loops
// over the slot's bit pattern; the sender recorded is whichever CAS
// happened to win under contention, not necessarily the sender whose
// message produced the extremal value (documented known limitation).
type ReducingMessenger struct {
	reducer     Reducer
	trackSender bool
	current     *reducingBuffer
	prev        *reducingBuffer
	sent        atomic.Bool
}

// NewReducingMessenger allocates a reducing messenger over n vertices.
func NewReducingMessenger(n int64, reducer Reducer, trackSender bool) *ReducingMessenger {
	identity := reducer.Identity()
	return &ReducingMessenger{
		reducer:     reducer,
		trackSender: trackSender,
		current:     newReducingBuffer(n, identity, trackSender),
		prev:        newReducingBuffer(n, identity, trackSender),
	}
}

func (m *ReducingMessenger) SendTo(sender, target int64, v float64) error {
	slots := m.current.slots
	if target < 0 || target >= slots.Size() {
		return errors.Wrap(errors.CodeBoundsError, "send to out-of-range vertex", errIndexOutOfRange(target, slots.Size()))
	}
	for {
		old := slots.Get(target)
		next := m.reducer.Combine(old, v)
		if slots.CompareAndSet(target, old, next) {
			if m.trackSender {
				m.current.senders.SetAtomic(target, sender)
			}
			m.current.hasValue.SetAtomic(target, 1)
			m.sent.Store(true)
			return nil
		}
	}
}

// Receive yields the previous generation's reduced value once (None if
// the slot was never written during that superstep).
func (m *ReducingMessenger) Receive(target int64) MessageIterator {
	done := false
	return func() (float64, bool) {
		if done || target < 0 || target >= m.prev.slots.Size() {
			return 0, false
		}
		done = true
		if m.prev.hasValue.Get(target) == 0 {
			return 0, false
		}
		return m.prev.slots.Get(target), true
	}
}

func (m *ReducingMessenger) HasInbox(target int64) bool {
	if target < 0 || target >= m.prev.slots.Size() {
		return false
	}
	return m.prev.hasValue.Get(target) != 0
}

// Sender reports the sender whose CAS most recently won for target in
// the generation currently readable, if sender tracking is enabled.
func (m *ReducingMessenger) Sender(target int64) (int64, bool) {
	if !m.trackSender || target < 0 || target >= m.prev.slots.Size() {
		return 0, false
	}
	if m.prev.hasValue.Get(target) == 0 {
		return 0, false
	}
	return m.prev.senders.Get(target), true
}

// InitIteration clears the has-sent-message flag. The slot generations
// themselves are reset by Swap, not here: InitIteration runs immediately
// before a superstep's compute, which still needs to read what the prior
// superstep wrote into what is now the previous generation.
func (m *ReducingMessenger) InitIteration() {
	m.sent.Store(false)
}

func (m *ReducingMessenger) HasSentMessage() bool { return m.sent.Load() }

// Swap exchanges generations: the buffer just written (current) becomes
// readable next superstep (prev), and the old prev — already consumed —
// is reset to identity and reused as the new current.
func (m *ReducingMessenger) Swap() {
	m.current, m.prev = m.prev, m.current
	m.current.reset(m.reducer.Identity())
}
