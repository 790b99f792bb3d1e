package bsp

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/bspgraph/engine/algorithms/testgraph"
	"github.com/bspgraph/engine/pkg/collections"
	"github.com/bspgraph/engine/pkg/model"
	"github.com/bspgraph/engine/pkg/parallel"
)

// countingProgram records which vertices saw Init/Compute and always votes
// to halt immediately, so executeSequential's skip logic is observable.
// The mutex makes it safe under fork/join execution, where vertices run
// on multiple goroutines.
type countingProgram struct {
	mu       sync.Mutex
	inited   map[int64]bool
	computed map[int64]int
}

func newCountingProgram() *countingProgram {
	return &countingProgram{inited: make(map[int64]bool), computed: make(map[int64]int)}
}

func (p *countingProgram) Init(ctx *InitContext) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.inited[ctx.NodeID()] = true
	return nil
}

func (p *countingProgram) Compute(ctx *ComputeContext) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.computed[ctx.NodeID()]++
	ctx.VoteToHalt()
	return nil
}

func (p *countingProgram) computedCount(v int64) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.computed[v]
}

func newTestComputeStep(t *testing.T, n int64, program VertexProgram) (*ComputeStep, *NodeValueStore) {
	t.Helper()
	g := testgraph.New(n, nil)
	schema, err := model.NewSchema(model.NewLongProperty("x", 0))
	require.NoError(t, err)
	store := NewNodeValueStore(schema, n)
	halted := collections.NewAtomicBitset(int(n))
	messenger := NewSyncMessenger(NewSyncMessageQueue(n, 0))
	return &ComputeStep{
		Store:     store,
		Graph:     g,
		Messenger: messenger,
		Halted:    halted,
		Program:   program,
		Strategy:  StrategyRange,
		Degree:    func(v int64) int64 { return 0 },
		Pool:      parallel.NewForkJoinPool(2),
	}, store
}

func TestComputeStepRunsInitOnlyAtSuperstepZero(t *testing.T) {
	program := newCountingProgram()
	step, _ := newTestComputeStep(t, 5, program)

	require.NoError(t, step.Execute(context.Background(), Partition{Start: 0, Count: 5}, 0))
	require.Len(t, program.inited, 5)
	require.Equal(t, 1, program.computed[0])
}

func TestComputeStepSkipsHaltedVertexWithNoInbox(t *testing.T) {
	program := newCountingProgram()
	step, _ := newTestComputeStep(t, 3, program)

	require.NoError(t, step.Execute(context.Background(), Partition{Start: 0, Count: 3}, 0))
	require.Equal(t, 1, program.computed[0])

	// every vertex voted to halt at superstep 0 and has no inbox, so a
	// later superstep should skip them all.
	require.NoError(t, step.Execute(context.Background(), Partition{Start: 0, Count: 3}, 1))
	require.Equal(t, 1, program.computed[0])
}

func TestComputeStepWakesHaltedVertexWithInbox(t *testing.T) {
	program := newCountingProgram()
	step, _ := newTestComputeStep(t, 3, program)

	require.NoError(t, step.Execute(context.Background(), Partition{Start: 0, Count: 3}, 0))

	require.NoError(t, step.Messenger.SendTo(1, 0, 42))
	step.Messenger.Swap()

	require.NoError(t, step.Execute(context.Background(), Partition{Start: 0, Count: 3}, 1))
	require.Equal(t, 2, program.computed[0])
	require.Equal(t, 1, program.computed[1]) // no inbox, stays halted
}

func TestComputeStepExecuteAllCoversEveryPartition(t *testing.T) {
	program := newCountingProgram()
	step, _ := newTestComputeStep(t, 100, program)

	// Many small partitions, each far below sequentialThreshold: the
	// partition-level fan-out must still visit every vertex exactly once.
	parts, err := BuildRangePartitions(100, 8)
	require.NoError(t, err)
	require.Greater(t, len(parts), 1)

	require.NoError(t, step.ExecuteAll(context.Background(), parts, 0))
	require.Len(t, program.inited, 100)
	for v := int64(0); v < 100; v++ {
		require.Equal(t, 1, program.computedCount(v))
	}
}

func TestComputeStepExecuteAllEmptyPartitionList(t *testing.T) {
	step, _ := newTestComputeStep(t, 4, newCountingProgram())
	require.NoError(t, step.ExecuteAll(context.Background(), nil, 0))
}

func TestComputeStepForkJoinMatchesSequentialResult(t *testing.T) {
	program := newCountingProgram()
	step, _ := newTestComputeStep(t, 4000, program)
	step.UseForkJoin = true

	require.NoError(t, step.Execute(context.Background(), Partition{Start: 0, Count: 4000}, 0))
	require.Len(t, program.inited, 4000)
	for v := int64(0); v < 4000; v++ {
		require.Equal(t, 1, program.computedCount(v))
	}
}

type erroringProgram struct{}

func (erroringProgram) Init(ctx *InitContext) error { return nil }
func (erroringProgram) Compute(ctx *ComputeContext) error {
	return errTestCompute
}

var errTestCompute = errors.New("boom")

func TestComputeStepWrapsVertexProgramError(t *testing.T) {
	step, _ := newTestComputeStep(t, 2, erroringProgram{})
	err := step.Execute(context.Background(), Partition{Start: 0, Count: 2}, 0)
	require.Error(t, err)
}
