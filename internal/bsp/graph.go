// Package bsp implements the Bulk Synchronous Parallel graph computation
// core: paged value storage, vote-to-halt tracking, partitioning, the
// messenger layer and the superstep driver loop. Topology storage, schema
// parsing and telemetry sinks are consumed through the narrow interfaces
// declared in this file and in progress.go; the driver never mutates the
// graph it is given.
package bsp

// Graph is the read-only topology collaborator the driver walks during a
// run. Implementations own node identity, degree and adjacency; the driver
// never translates ids on its own and never mutates the graph.
type Graph interface {
	// NodeCount returns N, the number of vertices in [0, N).
	NodeCount() int64

	// RelationshipCount returns the total number of edges.
	RelationshipCount() int64

	// Degree returns the out-degree of v (in-degree if the collaborator
	// was built bidirectionally).
	Degree(v int64) int64

	// ForEachNeighbor invokes fn once per outbound neighbor of v, passing
	// the target id and an edge weight (0 if the graph is unweighted).
	// Iteration order is the collaborator's own and is not guaranteed
	// stable across calls.
	ForEachNeighbor(v int64, fn func(target int64, weight float64))

	// OriginalID maps an internal vertex id back to the caller's external
	// identifier space.
	OriginalID(v int64) int64

	// InternalID maps an external identifier back to an internal vertex
	// id, if one is mapped.
	InternalID(original int64) (int64, bool)

	// IsMultiGraph reports whether the graph may contain parallel edges
	// between the same pair of vertices.
	IsMultiGraph() bool
}
