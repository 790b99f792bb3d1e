package bsp

import (
	"context"
	"runtime"
	"strings"
	"time"

	"github.com/bspgraph/engine/pkg/collections"
	bspconfig "github.com/bspgraph/engine/pkg/config"
	bspErrors "github.com/bspgraph/engine/pkg/errors"
	"github.com/bspgraph/engine/pkg/model"
	"github.com/bspgraph/engine/pkg/parallel"
	"github.com/bspgraph/engine/pkg/utils"
)

// Options is the driver's resolved configuration, one field per tunable
// knob. Build it from pkg/config.DriverConfig with OptionsFromConfig, or
// construct it directly for tests.
type Options struct {
	MaxIterations              int
	Concurrency                int
	IsAsynchronous             bool
	Partitioning               Strategy
	UseForkJoin                bool
	TrackSender                bool
	Reducer                    Reducer
	RelationshipWeightProperty string
	MaxMessagesPerVertex       int
}

// OptionsFromConfig resolves pkg/config.DriverConfig (as loaded by viper)
// into an Options value, parsing the partitioning/reducer strings and
// deferring "auto" partitioning's final decision to Driver construction
// (it depends on the graph's edge count).
func OptionsFromConfig(cfg bspconfig.DriverConfig) (Options, error) {
	opts := Options{
		MaxIterations:              cfg.MaxIterations,
		Concurrency:                cfg.Concurrency,
		IsAsynchronous:             cfg.IsAsynchronous,
		UseForkJoin:                cfg.UseForkJoin,
		TrackSender:                cfg.TrackSender,
		RelationshipWeightProperty: cfg.RelationshipWeightProperty,
		MaxMessagesPerVertex:       cfg.MaxMessagesPerVertex,
	}
	switch strings.ToLower(cfg.Partitioning) {
	case "", "auto":
		opts.Partitioning = -1 // resolved by NewDriver against the graph
	case "range":
		opts.Partitioning = StrategyRange
	case "number_aligned":
		opts.Partitioning = StrategyNumberAligned
	case "degree":
		opts.Partitioning = StrategyDegree
	default:
		return Options{}, bspErrors.Wrap(bspErrors.CodeConfigError, "unknown partitioning strategy "+cfg.Partitioning, nil)
	}
	if cfg.Reducer != "" {
		r, ok := ReducerByName(strings.ToLower(cfg.Reducer))
		if !ok {
			return Options{}, bspErrors.Wrap(bspErrors.CodeConfigError, "unknown reducer "+cfg.Reducer, nil)
		}
		opts.Reducer = r
	}
	return opts, nil
}

// Status is the BSP driver's terminal state machine outcome.
type Status int

const (
	// StatusDone is reached when the run converges, exhausts
	// max_iterations, or master-compute requests a stop.
	StatusDone Status = iota
	// StatusFailed is reached on a compute-error.
	StatusFailed
	// StatusCancelled is reached when the caller's context is done at a
	// superstep boundary.
	StatusCancelled
)

// Driver orchestrates the BSP superstep loop: it owns the node value
// store, messenger, vote-to-halt bitset and partitions for the lifetime
// of one Run call.
type Driver struct {
	graph   Graph
	schema  *model.Schema
	program VertexProgram
	opts    Options
	sink    ProgressSink
	master  MasterCompute
	logger  utils.Logger
}

// NewDriver validates schema and opts against graph and builds a Driver
// ready to Run. Schema validation happens in model.NewSchema; here the
// driver only resolves "auto" partitioning and checks reducer/kind
// compatibility is left to the caller's schema design (the reducer
// operates on raw float64 slots, not a named property, so there is
// nothing further to check at this layer).
func NewDriver(graph Graph, schema *model.Schema, program VertexProgram, opts Options, sink ProgressSink, master MasterCompute, logger utils.Logger) (*Driver, error) {
	if graph == nil {
		return nil, bspErrors.Wrap(bspErrors.CodeConfigError, "graph collaborator is required", nil)
	}
	if program == nil {
		return nil, bspErrors.Wrap(bspErrors.CodeConfigError, "vertex program is required", nil)
	}
	if opts.MaxIterations <= 0 {
		opts.MaxIterations = 20
	}
	if opts.Partitioning == -1 {
		if graph.RelationshipCount() > 0 {
			opts.Partitioning = StrategyDegree
		} else {
			opts.Partitioning = StrategyRange
		}
	}
	if sink == nil {
		sink = NoopProgressSink{}
	}
	if logger == nil {
		logger = utils.GetGlobalLogger()
	}
	return &Driver{graph: graph, schema: schema, program: program, opts: opts, sink: sink, master: master, logger: logger}, nil
}

// Run executes the superstep loop to completion: Initializing through
// Terminating -> Done/Failed, or Cancelled if ctx is done at a barrier.
// It allocates the store, messenger and bitset for this call only and
// releases them (by letting the Driver value be collected) once Run
// returns; no state survives across calls.
func (d *Driver) Run(ctx context.Context) (*model.Result, Status, error) {
	n := d.graph.NodeCount()

	if n == 0 {
		d.sink.Log(utils.LevelInfo, "driver: empty graph, nothing to run")
		return &model.Result{NodeValues: model.NewPublicPropertyMap(), RanIterations: 0, DidConverge: true}, StatusDone, nil
	}

	store := NewNodeValueStore(d.schema, n)
	halted := collections.NewAtomicBitset(int(n))

	degree := func(v int64) int64 { return d.graph.Degree(v) }

	var parts []Partition
	var err error
	switch d.opts.Partitioning {
	case StrategyDegree:
		parts, err = BuildDegreePartitions(ctx, n, d.concurrency(), degree)
	case StrategyNumberAligned:
		parts, err = BuildNumberAlignedPartitions(n, d.concurrency())
	default:
		parts, err = BuildRangePartitions(n, d.concurrency())
	}
	if err != nil {
		return nil, StatusFailed, err
	}
	d.sink.Log(utils.LevelDebug, "driver: built %d partitions (strategy=%v)", len(parts), d.opts.Partitioning)

	messenger := d.newMessenger(n)
	pool := parallel.NewForkJoinPool(d.concurrency())

	step := &ComputeStep{
		Store:       store,
		Graph:       d.graph,
		Messenger:   messenger,
		Halted:      halted,
		Program:     d.program,
		Strategy:    d.opts.Partitioning,
		Degree:      degree,
		Pool:        pool,
		UseForkJoin: d.opts.UseForkJoin,
	}

	ran := 0
	converged := false

	for superstep := 0; superstep < d.opts.MaxIterations; superstep++ {
		if err := ctx.Err(); err != nil {
			d.sink.Log(utils.LevelWarn, "driver: cancelled at superstep %d", superstep)
			return nil, StatusCancelled, bspErrors.Wrap(bspErrors.CodeCancelled, "run cancelled", err)
		}

		d.sink.BeginSuperstep(superstep)
		start := timeNow()
		messenger.InitIteration()

		if err := step.ExecuteAll(ctx, parts, superstep); err != nil {
			d.sink.Log(utils.LevelError, "driver: compute error at superstep %d: %v", superstep, err)
			return nil, StatusFailed, err
		}

		sent := messenger.HasSentMessage()
		active := n - int64(halted.Cardinality())
		elapsed := timeNow() - start
		d.sink.EndSuperstep(superstep, SuperstepStats{Superstep: superstep, MessagesSent: sent, ActiveVertex: active, Elapsed: elapsed})
		ran = superstep + 1

		masterHalt := false
		if d.master != nil {
			mctx := &MasterComputeContext{superstep: superstep, nodeCount: n, store: store}
			masterHalt = d.master(mctx) || mctx.Halted()
		}

		allHalted := active == 0
		if masterHalt {
			converged = true
			break
		}
		if allHalted && !sent {
			converged = true
			break
		}
		if superstep+1 >= d.opts.MaxIterations {
			converged = false
			break
		}

		messenger.Swap()
	}

	store.DropPrivate()
	result := &model.Result{NodeValues: store.PublicProperties(), RanIterations: ran, DidConverge: converged}
	store.ReleasePublic()
	d.sink.Log(utils.LevelInfo, "driver: done after %d supersteps (converged=%v)", ran, converged)
	return result, StatusDone, nil
}

func (d *Driver) concurrency() int {
	if d.opts.Concurrency > 0 {
		return d.opts.Concurrency
	}
	return runtime.GOMAXPROCS(0)
}

func (d *Driver) newMessenger(n int64) Messenger {
	if d.opts.Reducer != nil {
		return NewReducingMessenger(n, d.opts.Reducer, d.opts.TrackSender)
	}
	if d.opts.IsAsynchronous {
		return NewAsyncMessenger(NewAsyncMessageQueue(n, d.opts.MaxMessagesPerVertex))
	}
	return NewSyncMessenger(NewSyncMessageQueue(n, d.opts.MaxMessagesPerVertex))
}

func timeNow() int64 {
	return time.Now().UnixNano()
}
