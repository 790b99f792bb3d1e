package algorithms

import (
	"github.com/bspgraph/engine/internal/bsp"
	"github.com/bspgraph/engine/pkg/model"
)

// ComponentKey is the public property WCC writes its result under.
const ComponentKey = "component"

// WCCSchema declares the single public long property WCC uses.
func WCCSchema() (*model.Schema, error) {
	return model.NewSchema(model.NewLongProperty(ComponentKey, 0))
}

// WCC computes weakly connected components with the Min reducer: every
// vertex starts labeled with its own id and repeatedly adopts the
// smallest label seen among its neighbors until no label changes. It
// relies on the graph collaborator reporting edges in both directions
// for an originally undirected relationship — the engine's Graph
// interface only walks outbound edges, so an asymmetric adjacency list
// yields strongly-reachable components, not weakly connected ones.
type WCC struct{}

// Init labels every vertex with its own internal id.
func (w *WCC) Init(ctx *bsp.InitContext) error {
	return ctx.SetLongValue(ComponentKey, ctx.NodeID())
}

// Compute adopts the minimum label seen this superstep and, only when
// that actually lowers its own label, relays the new label to every
// neighbor. It votes to halt unconditionally and wakes again only when a
// smaller label arrives.
func (w *WCC) Compute(ctx *bsp.ComputeContext) error {
	label, err := ctx.LongValue(ComponentKey)
	if err != nil {
		return err
	}
	changed := ctx.IsInitialSuperstep()
	if !ctx.IsInitialSuperstep() {
		msgs := ctx.Messages()
		for m, ok := msgs(); ok; m, ok = msgs() {
			if c := int64(m); c < label {
				label = c
				changed = true
			}
		}
		if changed {
			if err := ctx.SetLongValue(ComponentKey, label); err != nil {
				return err
			}
		}
	}
	if changed {
		if err := ctx.SendToNeighbors(float64(label)); err != nil {
			return err
		}
	}
	ctx.VoteToHalt()
	return nil
}
