package vizgraph_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/bspgraph/engine/algorithms/testgraph"
	"github.com/bspgraph/engine/internal/testutil"
	"github.com/bspgraph/engine/internal/vizgraph"
	"github.com/bspgraph/engine/pkg/model"
)

func TestBuildMaterializesNodesAndEdges(t *testing.T) {
	g := testgraph.New(3, []testgraph.Edge{{From: 0, To: 1}, {From: 1, To: 2}})
	result := &model.Result{
		NodeValues: model.PublicPropertyMap{
			LongValues:   map[string][]int64{"component": {0, 0, 0}},
			DoubleValues: map[string][]float64{"rank": {0.1, 0.2, 0.3}},
		},
		RanIterations: 4,
		DidConverge:   true,
	}

	out := vizgraph.Build(g, result)
	require.Equal(t, int64(3), out.NodeCount)
	require.Len(t, out.Nodes, 3)
	require.Len(t, out.Edges, 2)
	require.Equal(t, int64(0), out.Nodes[0].LongProperties["component"])
	require.InDelta(t, 0.3, out.Nodes[2].DoubleProperties["rank"], 1e-9)
}

func TestWriteJSONAndGzipRoundTripToDisk(t *testing.T) {
	g := testgraph.New(2, []testgraph.Edge{{From: 0, To: 1}})
	result := &model.Result{
		NodeValues:    model.PublicPropertyMap{LongValues: map[string][]int64{"x": {1, 2}}},
		RanIterations: 1,
		DidConverge:   true,
	}
	out := vizgraph.Build(g, result)

	dir := t.TempDir()
	jsonPath := filepath.Join(dir, "graph.json")
	require.NoError(t, vizgraph.WriteJSON(out, jsonPath))

	testutil.AssertJSONEqual(t, `{
		"nodeCount": 2,
		"ranIterations": 1,
		"didConverge": true,
		"nodes": [
			{"id": 0, "originalId": 0, "longProperties": {"x": 1}},
			{"id": 1, "originalId": 1, "longProperties": {"x": 2}}
		],
		"edges": [
			{"source": 0, "target": 1, "weight": 0}
		]
	}`, testutil.ReadFile(t, jsonPath))

	gzPath := filepath.Join(dir, "graph.json.gz")
	require.NoError(t, vizgraph.WriteGzip(out, gzPath))
	info, err := os.Stat(gzPath)
	require.NoError(t, err)
	require.Greater(t, info.Size(), int64(0))
}
