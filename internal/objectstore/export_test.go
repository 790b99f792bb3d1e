package objectstore_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/bspgraph/engine/internal/objectstore"
	"github.com/bspgraph/engine/internal/storage"
	"github.com/bspgraph/engine/pkg/model"
)

func TestExportAndImportRoundTripLongProperty(t *testing.T) {
	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	vals := make([]int64, 10000)
	for i := range vals {
		vals[i] = int64(i) * 2
	}
	result := &model.Result{
		NodeValues: model.PublicPropertyMap{LongValues: map[string][]int64{"component": vals}},
	}

	ctx := context.Background()
	stats, err := objectstore.ExportResult(ctx, store, "run-1", result)
	require.NoError(t, err)
	require.Equal(t, int64(3), stats.Pages) // 10000 values at 4096 per page
	require.Equal(t, int64(0), stats.FailedPages)

	got, err := objectstore.ImportLongProperty(ctx, store, "run-1", "component", int64(len(vals)))
	require.NoError(t, err)
	require.Equal(t, vals, got)
}

func TestExportAndImportRoundTripDoubleProperty(t *testing.T) {
	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	vals := []float64{0.1, 0.2, 0.3, 0.4}
	result := &model.Result{
		NodeValues: model.PublicPropertyMap{DoubleValues: map[string][]float64{"rank": vals}},
	}

	ctx := context.Background()
	stats, err := objectstore.ExportResult(ctx, store, "run-2", result)
	require.NoError(t, err)
	require.Equal(t, int64(1), stats.Pages)

	got, err := objectstore.ImportDoubleProperty(ctx, store, "run-2", "rank", int64(len(vals)))
	require.NoError(t, err)
	require.InDeltaSlice(t, vals, got, 1e-12)
}

func TestExportResultSkipsEmptyProperties(t *testing.T) {
	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	result := &model.Result{
		NodeValues: model.PublicPropertyMap{LongValues: map[string][]int64{"empty": {}}},
	}
	stats, err := objectstore.ExportResult(context.Background(), store, "run-3", result)
	require.NoError(t, err)
	require.Equal(t, int64(0), stats.Pages)
}
