package bsp

import (
	"context"

	"github.com/bspgraph/engine/pkg/collections"
	"github.com/bspgraph/engine/pkg/errors"
	"github.com/bspgraph/engine/pkg/parallel"
)

// sequentialThreshold is the partition size below which ComputeStep
// executes a partition in the calling goroutine instead of splitting it
// further via fork/join.
const sequentialThreshold = 1024

// VertexProgram is a user's per-vertex algorithm: Init runs once per
// vertex during superstep 0, Compute runs for every active vertex in
// every superstep, including superstep 0 right after Init. A non-nil
// error aborts the run as a
// compute-error carrying the failing superstep.
type VertexProgram interface {
	Init(ctx *InitContext) error
	Compute(ctx *ComputeContext) error
}

// ComputeStep executes one superstep of a VertexProgram over a partition,
// recursively bisecting large partitions across a ForkJoinPool and
// running small ones (or all of them, if UseForkJoin is false) in the
// calling goroutine. It is stateless across supersteps; the driver builds
// a fresh ComputeStep invocation (via Execute) for every superstep.
type ComputeStep struct {
	Store       *NodeValueStore
	Graph       Graph
	Messenger   Messenger
	Halted      *collections.AtomicBitset
	Program     VertexProgram
	Strategy    Strategy
	Degree      DegreeFunc
	Pool        *parallel.ForkJoinPool
	UseForkJoin bool
}

// ExecuteAll runs superstep over every partition, recursively halving the
// partition list through the pool so distinct partitions execute on
// distinct workers. The join of the root call is the superstep's global
// barrier. Within each partition, Execute subdivides further when
// UseForkJoin is enabled; the partition-level fan-out here happens
// regardless, since partitions were sized for exactly this parallelism.
func (cs *ComputeStep) ExecuteAll(ctx context.Context, partitions []Partition, superstep int) error {
	switch len(partitions) {
	case 0:
		return nil
	case 1:
		return cs.Execute(ctx, partitions[0], superstep)
	}
	mid := len(partitions) / 2
	return cs.Pool.Fork(ctx,
		func(ctx context.Context) error { return cs.ExecuteAll(ctx, partitions[:mid], superstep) },
		func(ctx context.Context) error { return cs.ExecuteAll(ctx, partitions[mid:], superstep) },
	)
}

// Execute runs superstep over partition, recursing into ForkJoinPool when
// the partition is larger than sequentialThreshold and UseForkJoin is
// enabled.
func (cs *ComputeStep) Execute(ctx context.Context, partition Partition, superstep int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !cs.UseForkJoin || partition.Count <= sequentialThreshold {
		return cs.executeSequential(partition, superstep)
	}

	left, right := partition.Split(cs.Strategy, cs.Degree)
	if right.Count == 0 {
		return cs.executeSequential(left, superstep)
	}
	return cs.Pool.Fork(ctx,
		func(ctx context.Context) error { return cs.Execute(ctx, left, superstep) },
		func(ctx context.Context) error { return cs.Execute(ctx, right, superstep) },
	)
}

func (cs *ComputeStep) executeSequential(partition Partition, superstep int) error {
	for v := partition.Start; v < partition.End(); v++ {
		hasInbox := cs.Messenger.HasInbox(v)
		if superstep != 0 {
			if cs.Halted.Test(int(v)) && !hasInbox {
				continue
			}
		}

		cs.Halted.Clear(int(v))

		io := vertexIO{nodeID: v, store: cs.Store, graph: cs.Graph, messenger: cs.Messenger, halted: cs.Halted}

		if superstep == 0 {
			ictx := &InitContext{vertexIO: io}
			if err := cs.Program.Init(ictx); err != nil {
				return errors.Wrap(errors.CodeComputeError, "vertex program failed", err)
			}
		}

		// Compute also runs at superstep 0, immediately after Init: the
		// driver's control flow is init-then-compute for every active
		// vertex in the first superstep, not init-instead-of-compute —
		// otherwise a vertex
		// program could never send its first round of messages, since
		// InitContext carries no SendTo.
		votedHalt := false
		cctx := &ComputeContext{vertexIO: io, superstep: superstep, votedHalt: &votedHalt}
		if err := cs.Program.Compute(cctx); err != nil {
			return errors.Wrap(errors.CodeComputeError, "vertex program failed", err)
		}
		if votedHalt {
			cs.Halted.Set(int(v))
		}
	}
	return nil
}
