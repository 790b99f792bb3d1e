package algorithms

import (
	"math"

	"github.com/bspgraph/engine/internal/bsp"
	"github.com/bspgraph/engine/pkg/model"
)

// DistanceKey is the public property SSSP writes its result under.
const DistanceKey = "dist"

// SSSPSchema declares the single public double property SSSP uses.
func SSSPSchema() (*model.Schema, error) {
	return model.NewSchema(model.NewDoubleProperty(DistanceKey, math.Inf(1)))
}

// SSSP computes single-source shortest paths from Source with the Min
// reducer: every vertex tracks the shortest distance seen so far and,
// whenever it improves, relays dist+edge_weight to its neighbors. A
// vertex votes to halt after every Compute call and only wakes again
// when a new (possibly improving) distance message arrives, so the run
// quiesces on its own once no further improvement propagates.
type SSSP struct {
	Source int64
}

// NewSSSP builds an SSSP program rooted at source.
func NewSSSP(source int64) *SSSP {
	return &SSSP{Source: source}
}

// Init sets dist(source)=0 and dist(v)=+Inf for every other vertex.
func (s *SSSP) Init(ctx *bsp.InitContext) error {
	if ctx.NodeID() == s.Source {
		return ctx.SetDoubleValue(DistanceKey, 0)
	}
	return ctx.SetDoubleValue(DistanceKey, math.Inf(1))
}

// Compute folds the minimum of this superstep's inbox into the running
// distance and, at the initial superstep or when that lowers the
// distance, relays the distance plus each outbound edge's weight to
// neighbors, provided the distance is finite.
func (s *SSSP) Compute(ctx *bsp.ComputeContext) error {
	dist, err := ctx.DoubleValue(DistanceKey)
	if err != nil {
		return err
	}
	improved := ctx.IsInitialSuperstep()
	if !ctx.IsInitialSuperstep() {
		msgs := ctx.Messages()
		for m, ok := msgs(); ok; m, ok = msgs() {
			if m < dist {
				dist = m
				improved = true
			}
		}
		if err := ctx.SetDoubleValue(DistanceKey, dist); err != nil {
			return err
		}
	}
	if improved && !math.IsInf(dist, 1) {
		var firstErr error
		ctx.ForEachNeighbor(func(target int64, weight float64) {
			if firstErr != nil {
				return
			}
			w := weight
			if w == 0 {
				w = 1
			}
			firstErr = ctx.SendTo(target, dist+w)
		})
		if firstErr != nil {
			return firstErr
		}
	}
	ctx.VoteToHalt()
	return nil
}
