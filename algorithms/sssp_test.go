package algorithms_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/bspgraph/engine/algorithms"
	"github.com/bspgraph/engine/algorithms/testgraph"
	"github.com/bspgraph/engine/internal/bsp"
)

func TestSSSPLineGraph(t *testing.T) {
	g := testgraph.New(4, []testgraph.Edge{
		{From: 0, To: 1, Weight: 1},
		{From: 1, To: 2, Weight: 1},
		{From: 2, To: 3, Weight: 1},
	})
	schema, err := algorithms.SSSPSchema()
	require.NoError(t, err)

	opts := bsp.Options{
		MaxIterations: 20,
		Partitioning:  bsp.StrategyRange,
		Reducer:       bsp.Min(),
	}
	d, err := bsp.NewDriver(g, schema, algorithms.NewSSSP(0), opts, nil, nil, nil)
	require.NoError(t, err)

	result, status, err := d.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, bsp.StatusDone, status)
	require.True(t, result.DidConverge)
	require.Equal(t, 4, result.RanIterations)

	dist := result.NodeValues.DoubleValues[algorithms.DistanceKey]
	require.Equal(t, []float64{0, 1, 2, 3}, dist)
}

func TestSSSPUnreachableVertexStaysInfinite(t *testing.T) {
	g := testgraph.New(3, []testgraph.Edge{{From: 0, To: 1, Weight: 5}})
	schema, err := algorithms.SSSPSchema()
	require.NoError(t, err)

	d, err := bsp.NewDriver(g, schema, algorithms.NewSSSP(0), bsp.Options{Reducer: bsp.Min()}, nil, nil, nil)
	require.NoError(t, err)

	result, _, err := d.Run(context.Background())
	require.NoError(t, err)
	dist := result.NodeValues.DoubleValues[algorithms.DistanceKey]
	require.Equal(t, 0.0, dist[0])
	require.Equal(t, 5.0, dist[1])
	require.True(t, dist[2] > 1e300) // +Inf, unreachable
}
