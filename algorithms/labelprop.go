package algorithms

import (
	"github.com/bspgraph/engine/internal/bsp"
	"github.com/bspgraph/engine/pkg/model"
)

// LabelKey is the public property label propagation writes its result
// under.
const LabelKey = "label"

// LabelPropagationSchema declares the single public long property label
// propagation uses.
func LabelPropagationSchema() (*model.Schema, error) {
	return model.NewSchema(model.NewLongProperty(LabelKey, 0))
}

// LabelPropagation runs community detection by synchronous label
// propagation: every vertex adopts the most frequent label among its
// current inbox, breaking ties toward the smaller label id. Unlike WCC's
// reduced minimum, this needs the full multiset of incoming labels per
// superstep, so it is meant to run over a queued (non-reducing)
// messenger rather than the Sum/Min/Max/Count reducers.
type LabelPropagation struct{}

// Init labels every vertex with its own internal id.
func (l *LabelPropagation) Init(ctx *bsp.InitContext) error {
	return ctx.SetLongValue(LabelKey, ctx.NodeID())
}

// Compute tallies the labels seen in the inbox and adopts the plurality
// label, then relays its (possibly unchanged) label to every neighbor.
func (l *LabelPropagation) Compute(ctx *bsp.ComputeContext) error {
	label, err := ctx.LongValue(LabelKey)
	if err != nil {
		return err
	}
	if !ctx.IsInitialSuperstep() {
		counts := make(map[int64]int)
		msgs := ctx.Messages()
		for m, ok := msgs(); ok; m, ok = msgs() {
			counts[int64(m)]++
		}
		if len(counts) > 0 {
			best, bestCount := label, 0
			if c, ok := counts[label]; ok {
				bestCount = c
			}
			for candidate, count := range counts {
				if count > bestCount || (count == bestCount && candidate < best) {
					best, bestCount = candidate, count
				}
			}
			if best != label {
				label = best
				if err := ctx.SetLongValue(LabelKey, label); err != nil {
					return err
				}
			}
		}
	}
	if err := ctx.SendToNeighbors(float64(label)); err != nil {
		return err
	}
	ctx.VoteToHalt()
	return nil
}
