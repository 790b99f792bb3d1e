package bsp

import (
	"github.com/bspgraph/engine/pkg/collections"
)

// vertexIO bundles the collaborators a per-vertex context borrows from the
// driver: the schema-backed store, the messenger, the topology and the
// vote-to-halt bitset. It is embedded by InitContext and ComputeContext so
// both share the same read/write surface without duplicating methods.
type vertexIO struct {
	nodeID    int64
	store     *NodeValueStore
	graph     Graph
	messenger Messenger
	halted    *collections.AtomicBitset
}

// NodeID returns the vertex this context is bound to.
func (c *vertexIO) NodeID() int64 { return c.nodeID }

// NodeCount returns N, the total number of vertices.
func (c *vertexIO) NodeCount() int64 { return c.graph.NodeCount() }

// Degree returns this vertex's out-degree.
func (c *vertexIO) Degree() int64 { return c.graph.Degree(c.nodeID) }

// OriginalID returns the external identifier for this vertex.
func (c *vertexIO) OriginalID() int64 { return c.graph.OriginalID(c.nodeID) }

// SetLongValue writes this vertex's scalar long property.
func (c *vertexIO) SetLongValue(key string, value int64) error {
	return c.store.SetLong(key, c.nodeID, value)
}

// SetDoubleValue writes this vertex's scalar double property.
func (c *vertexIO) SetDoubleValue(key string, value float64) error {
	return c.store.SetDouble(key, c.nodeID, value)
}

// SetLongArrayValue writes this vertex's long-array property.
func (c *vertexIO) SetLongArrayValue(key string, value []int64) error {
	return c.store.SetLongArray(key, c.nodeID, value)
}

// SetDoubleArrayValue writes this vertex's double-array property.
func (c *vertexIO) SetDoubleArrayValue(key string, value []float64) error {
	return c.store.SetDoubleArray(key, c.nodeID, value)
}

// LongValue reads this vertex's own scalar long property.
func (c *vertexIO) LongValue(key string) (int64, error) { return c.store.LongValue(key, c.nodeID) }

// DoubleValue reads this vertex's own scalar double property.
func (c *vertexIO) DoubleValue(key string) (float64, error) {
	return c.store.DoubleValue(key, c.nodeID)
}

// LongArrayValue reads this vertex's own long-array property.
func (c *vertexIO) LongArrayValue(key string) ([]int64, error) {
	return c.store.LongArrayValue(key, c.nodeID)
}

// DoubleArrayValue reads this vertex's own double-array property.
func (c *vertexIO) DoubleArrayValue(key string) ([]float64, error) {
	return c.store.DoubleArrayValue(key, c.nodeID)
}

// InitContext is the capability set exposed to a vertex program's Init
// callback, invoked exactly once per vertex during superstep 0. It never
// escapes the Init call that receives it.
type InitContext struct {
	vertexIO
}

// ComputeContext is the capability set exposed to a vertex program's
// Compute callback for every superstep after initialization. In addition
// to InitContext's property access it exposes the superstep number,
// message send/receive and voting.
type ComputeContext struct {
	vertexIO
	superstep int
	votedHalt *bool
}

// Superstep returns the current superstep number, 0-based.
func (c *ComputeContext) Superstep() int { return c.superstep }

// IsInitialSuperstep reports whether this is superstep 0.
func (c *ComputeContext) IsInitialSuperstep() bool { return c.superstep == 0 }

// SendTo sends m to target from this vertex. Sending to a vertex outside
// [0, N) fails fast rather than silently dropping the message.
func (c *ComputeContext) SendTo(target int64, m float64) error {
	return c.messenger.SendTo(c.nodeID, target, m)
}

// SendToNeighbors sends m to every outbound neighbor reported by the
// graph collaborator. Self-loops are included iff the collaborator's
// ForEachNeighbor reports them; this context applies no implicit
// filtering.
func (c *ComputeContext) SendToNeighbors(m float64) error {
	var firstErr error
	c.graph.ForEachNeighbor(c.nodeID, func(target int64, _ float64) {
		if firstErr != nil {
			return
		}
		if err := c.messenger.SendTo(c.nodeID, target, m); err != nil {
			firstErr = err
		}
	})
	return firstErr
}

// ForEachNeighbor enumerates this vertex's outbound neighbors, passing the
// target id and its edge weight (0 if unweighted).
func (c *ComputeContext) ForEachNeighbor(fn func(target int64, weight float64)) {
	c.graph.ForEachNeighbor(c.nodeID, fn)
}

// Messages returns an iterator over the messages addressed to this
// vertex in the current superstep (previous superstep's sends for sync
// messaging; at-most-once, unspecified order for async and reducing
// messaging).
func (c *ComputeContext) Messages() MessageIterator {
	return c.messenger.Receive(c.nodeID)
}

// MessageSender reports the sender whose message produced the value this
// vertex is currently observing, if the active messenger tracks senders.
// Under contended reduction the reported sender may not be the one whose
// message produced the winning value.
func (c *ComputeContext) MessageSender() (int64, bool) {
	if sa, ok := c.messenger.(SenderAware); ok {
		return sa.Sender(c.nodeID)
	}
	return 0, false
}

// VoteToHalt marks this vertex as having nothing more to do. It wakes
// again only if it receives a message in a later superstep.
func (c *ComputeContext) VoteToHalt() {
	*c.votedHalt = true
}

// MasterComputeContext is the read-mostly capability set passed to the
// optional master-compute hook after every superstep.
type MasterComputeContext struct {
	superstep int
	nodeCount int64
	store     *NodeValueStore
	halt      bool
}

// Superstep returns the superstep that just finished.
func (c *MasterComputeContext) Superstep() int { return c.superstep }

// NodeCount returns N.
func (c *MasterComputeContext) NodeCount() int64 { return c.nodeCount }

// LongValue reads vertex v's scalar long property (read-only, any
// vertex — master compute is not bound to a single vertex).
func (c *MasterComputeContext) LongValue(key string, v int64) (int64, error) {
	return c.store.LongValue(key, v)
}

// DoubleValue reads vertex v's scalar double property.
func (c *MasterComputeContext) DoubleValue(key string, v int64) (float64, error) {
	return c.store.DoubleValue(key, v)
}

// Halt requests the driver stop after this superstep, reporting
// convergence.
func (c *MasterComputeContext) Halt() { c.halt = true }

// Halted reports whether Halt was called during this invocation.
func (c *MasterComputeContext) Halted() bool { return c.halt }

// MasterCompute is the optional callback invoked after every compute step
// with a read-only view of the run. Returning true forces termination.
type MasterCompute func(ctx *MasterComputeContext) bool
