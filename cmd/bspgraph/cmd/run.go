package cmd

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/bspgraph/engine/algorithms"
	"github.com/bspgraph/engine/algorithms/testgraph"
	"github.com/bspgraph/engine/internal/bsp"
	"github.com/bspgraph/engine/internal/objectstore"
	"github.com/bspgraph/engine/internal/repository"
	"github.com/bspgraph/engine/internal/storage"
	"github.com/bspgraph/engine/internal/vizgraph"
	bspconfig "github.com/bspgraph/engine/pkg/config"
	"github.com/bspgraph/engine/pkg/model"
	"github.com/bspgraph/engine/pkg/telemetry"
)

var (
	edgesFile   string
	algoName    string
	ssspSource  int64
	outputFile  string
	exportRunID string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a vertex program over an edge-list graph",
	RunE:  runRun,
}

func init() {
	runCmd.Flags().StringVar(&edgesFile, "edges", "", "path to an edge-list file (required): one \"from to [weight]\" triple per line")
	runCmd.Flags().StringVar(&algoName, "algorithm", "pagerank", "pagerank, sssp, wcc or labelprop")
	runCmd.Flags().Int64Var(&ssspSource, "source", 0, "source vertex for sssp")
	runCmd.Flags().StringVar(&outputFile, "output", "", "write the result as JSON to this path instead of stdout")
	runCmd.Flags().StringVar(&exportRunID, "export-run-id", "", "also export the result as binary pages to the configured storage backend, under this run id")
	_ = runCmd.MarkFlagRequired("edges")
	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, err := bspconfig.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	opts, err := bsp.OptionsFromConfig(cfg.Driver)
	if err != nil {
		return fmt.Errorf("resolve driver options: %w", err)
	}

	n, edges, err := loadEdgeList(edgesFile)
	if err != nil {
		return fmt.Errorf("load edge list: %w", err)
	}
	// The edge list's third column is only surfaced to vertex programs
	// when a weight property is configured; otherwise the graph is
	// treated as unweighted.
	if opts.RelationshipWeightProperty == "" {
		for i := range edges {
			edges[i].Weight = 0
		}
	}
	g := testgraph.New(n, edges)

	schema, program, err := buildProgram(algoName, ssspSource)
	if err != nil {
		return err
	}

	ctx := context.Background()
	shutdown, err := telemetry.Init(ctx)
	if err != nil {
		GetLogger().Warn("telemetry init failed, continuing without tracing: %v", err)
	} else {
		defer shutdown(ctx)
	}

	var sink bsp.ProgressSink = bsp.NewLogProgressSink(GetLogger(), nil)
	if telemetry.Enabled() {
		sink = bsp.NewOtelProgressSink(ctx, "bspgraph", GetLogger())
	}
	driver, err := bsp.NewDriver(g, schema, program, opts, sink, nil, GetLogger())
	if err != nil {
		return fmt.Errorf("build driver: %w", err)
	}

	result, status, err := driver.Run(ctx)
	if err != nil {
		return fmt.Errorf("run failed (status=%v): %w", status, err)
	}

	if exportRunID != "" {
		store, err := storage.NewStorage(&cfg.Storage)
		if err != nil {
			return fmt.Errorf("open storage backend: %w", err)
		}
		stats, err := objectstore.ExportResult(ctx, store, exportRunID, result)
		if err != nil {
			return fmt.Errorf("export result: %w", err)
		}
		GetLogger().Info("exported %d result pages under run id %s in %v", stats.Pages, exportRunID, stats.Elapsed)

		if cfg.Database.Type != "" {
			db, err := repository.NewGormDB(&cfg.Database)
			if err != nil {
				return fmt.Errorf("open result database: %w", err)
			}
			defer repository.Close(db)
			if err := repository.NewGormResultRepository(db).SaveResult(ctx, exportRunID, result); err != nil {
				return fmt.Errorf("save result: %w", err)
			}
			GetLogger().Info("saved result rows under run id %s", exportRunID)
		}
	}

	if outputFile != "" {
		out := vizgraph.Build(g, result)
		if err := vizgraph.WriteJSON(out, outputFile); err != nil {
			return fmt.Errorf("write output: %w", err)
		}
		fmt.Printf("wrote %d nodes, %d edges to %s\n", len(out.Nodes), len(out.Edges), outputFile)
		return nil
	}

	fmt.Printf("ran_iterations=%d did_converge=%v\n", result.RanIterations, result.DidConverge)
	for key, vals := range result.NodeValues.LongValues {
		fmt.Printf("%s: %v\n", key, vals)
	}
	for key, vals := range result.NodeValues.DoubleValues {
		fmt.Printf("%s: %v\n", key, vals)
	}
	return nil
}

func buildProgram(name string, ssspSource int64) (*model.Schema, bsp.VertexProgram, error) {
	switch strings.ToLower(name) {
	case "pagerank":
		schema, err := algorithms.PageRankSchema()
		return schema, algorithms.NewPageRank(0.85), err
	case "sssp":
		schema, err := algorithms.SSSPSchema()
		return schema, algorithms.NewSSSP(ssspSource), err
	case "wcc":
		schema, err := algorithms.WCCSchema()
		return schema, &algorithms.WCC{}, err
	case "labelprop":
		schema, err := algorithms.LabelPropagationSchema()
		return schema, &algorithms.LabelPropagation{}, err
	default:
		return nil, nil, fmt.Errorf("unknown algorithm %q (want pagerank, sssp, wcc or labelprop)", name)
	}
}

func loadEdgeList(path string) (int64, []testgraph.Edge, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, nil, err
	}
	defer f.Close()

	var edges []testgraph.Edge
	var maxID int64 = -1
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 2 {
			return 0, nil, fmt.Errorf("malformed edge line %q", line)
		}
		from, err := strconv.ParseInt(fields[0], 10, 64)
		if err != nil {
			return 0, nil, fmt.Errorf("malformed from id %q: %w", fields[0], err)
		}
		to, err := strconv.ParseInt(fields[1], 10, 64)
		if err != nil {
			return 0, nil, fmt.Errorf("malformed to id %q: %w", fields[1], err)
		}
		weight := 0.0
		if len(fields) >= 3 {
			weight, err = strconv.ParseFloat(fields[2], 64)
			if err != nil {
				return 0, nil, fmt.Errorf("malformed weight %q: %w", fields[2], err)
			}
		}
		edges = append(edges, testgraph.Edge{From: from, To: to, Weight: weight})
		if from > maxID {
			maxID = from
		}
		if to > maxID {
			maxID = to
		}
	}
	if err := scanner.Err(); err != nil {
		return 0, nil, err
	}
	return maxID + 1, edges, nil
}
