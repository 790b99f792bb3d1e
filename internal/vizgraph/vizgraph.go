// Package vizgraph renders a finished BSP run into a plain Node/Edge view
// suitable for export, with vertices carrying their final public-property
// values.
package vizgraph

import (
	"github.com/bspgraph/engine/internal/bsp"
	"github.com/bspgraph/engine/pkg/model"
	"github.com/bspgraph/engine/pkg/writer"
)

// Node is one vertex of a finished run, carrying its external id and every
// public property the schema declared.
type Node struct {
	ID               int64              `json:"id"`
	OriginalID       int64              `json:"originalId"`
	LongProperties   map[string]int64   `json:"longProperties,omitempty"`
	DoubleProperties map[string]float64 `json:"doubleProperties,omitempty"`
}

// Edge is one directed adjacency reported by the graph collaborator.
type Edge struct {
	Source int64   `json:"source"`
	Target int64   `json:"target"`
	Weight float64 `json:"weight"`
}

// Graph is the exportable view of a finished run: every vertex with its
// public properties, plus the topology that produced them.
type Graph struct {
	NodeCount     int64   `json:"nodeCount"`
	RanIterations int     `json:"ranIterations"`
	DidConverge   bool    `json:"didConverge"`
	Nodes         []*Node `json:"nodes"`
	Edges         []*Edge `json:"edges"`
}

// Build materializes a Graph from g's topology and result's public
// properties. g and result must describe the same run: result.NodeValues'
// slices are indexed by the same internal vertex ids g exposes.
func Build(g bsp.Graph, result *model.Result) *Graph {
	n := g.NodeCount()
	out := &Graph{
		NodeCount:     n,
		RanIterations: result.RanIterations,
		DidConverge:   result.DidConverge,
		Nodes:         make([]*Node, 0, n),
		Edges:         make([]*Edge, 0, g.RelationshipCount()),
	}

	for v := int64(0); v < n; v++ {
		node := &Node{ID: v, OriginalID: g.OriginalID(v)}
		for key, vals := range result.NodeValues.LongValues {
			if node.LongProperties == nil {
				node.LongProperties = make(map[string]int64)
			}
			node.LongProperties[key] = vals[v]
		}
		for key, vals := range result.NodeValues.DoubleValues {
			if node.DoubleProperties == nil {
				node.DoubleProperties = make(map[string]float64)
			}
			node.DoubleProperties[key] = vals[v]
		}
		out.Nodes = append(out.Nodes, node)

		g.ForEachNeighbor(v, func(target int64, weight float64) {
			out.Edges = append(out.Edges, &Edge{Source: v, Target: target, Weight: weight})
		})
	}

	return out
}

// WriteJSON writes g as pretty-printed JSON to path.
func WriteJSON(g *Graph, path string) error {
	return writer.NewPrettyJSONWriter[*Graph]().WriteToFile(g, path)
}

// WriteGzip writes g as gzipped JSON to path, for exports too large to
// keep as plain text.
func WriteGzip(g *Graph, path string) error {
	return writer.NewGzipWriter[*Graph]().WriteToFile(g, path)
}
