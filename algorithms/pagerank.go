// Package algorithms holds the vertex programs shipped with the engine:
// PageRank, SSSP, weakly connected components and label propagation. Each
// is a thin bsp.VertexProgram built on the property store and messenger
// primitives in internal/bsp.
package algorithms

import (
	"github.com/bspgraph/engine/internal/bsp"
	"github.com/bspgraph/engine/pkg/model"
)

// RankKey is the public property PageRank writes its result under.
const RankKey = "rank"

// PageRankSchema declares the single public double property PageRank uses.
func PageRankSchema() (*model.Schema, error) {
	return model.NewSchema(model.NewDoubleProperty(RankKey, 0))
}

// PageRank computes the classic damped PageRank: rank(v) = (1-d)/N +
// d * sum(rank(u)/out_degree(u)) over in-neighbors u. It expects the
// driver to be configured with the Sum reducer, since every vertex's
// inbox is the sum of its neighbors' contributions, not an ordered list
// of individual messages.
type PageRank struct {
	Damping float64
}

// NewPageRank builds a PageRank program with the given damping factor.
func NewPageRank(damping float64) *PageRank {
	return &PageRank{Damping: damping}
}

// Init seeds every vertex's rank at 1/N.
func (p *PageRank) Init(ctx *bsp.InitContext) error {
	n := ctx.NodeCount()
	if n == 0 {
		return ctx.SetDoubleValue(RankKey, 0)
	}
	return ctx.SetDoubleValue(RankKey, 1/float64(n))
}

// Compute folds the inbox sum into this superstep's rank (skipped at the
// initial superstep, which has no inbox yet) and sends rank/out_degree to
// every neighbor. Dangling vertices (out_degree 0) spread their rank
// evenly over all vertices instead, so the total rank mass stays at 1
// rather than leaking out of the system each superstep.
func (p *PageRank) Compute(ctx *bsp.ComputeContext) error {
	rank, err := ctx.DoubleValue(RankKey)
	if err != nil {
		return err
	}
	if !ctx.IsInitialSuperstep() {
		sum := 0.0
		msgs := ctx.Messages()
		for m, ok := msgs(); ok; m, ok = msgs() {
			sum += m
		}
		n := ctx.NodeCount()
		rank = (1-p.Damping)/float64(n) + p.Damping*sum
		if err := ctx.SetDoubleValue(RankKey, rank); err != nil {
			return err
		}
	}
	degree := ctx.Degree()
	if degree == 0 {
		n := ctx.NodeCount()
		share := rank / float64(n)
		for t := int64(0); t < n; t++ {
			if err := ctx.SendTo(t, share); err != nil {
				return err
			}
		}
		return nil
	}
	share := rank / float64(degree)
	return ctx.SendToNeighbors(share)
}
