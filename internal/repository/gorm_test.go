package repository

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/bspgraph/engine/pkg/model"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&RunRow{}, &VertexPropertyRow{}))
	return db
}

func TestGormResultRepository_SaveAndGet(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormResultRepository(db)
	ctx := context.Background()

	result := &model.Result{
		NodeValues: model.PublicPropertyMap{
			LongValues:   map[string][]int64{"component": {0, 0, 0, 3, 3, 3}},
			DoubleValues: map[string][]float64{"rank": {0.1, 0.3, 0.3, 0.3}},
		},
		RanIterations: 4,
		DidConverge:   true,
	}

	require.NoError(t, repo.SaveResult(ctx, "run-1", result))

	got, err := repo.GetResult(ctx, "run-1")
	require.NoError(t, err)
	require.Equal(t, 4, got.RanIterations)
	require.True(t, got.DidConverge)
	require.Equal(t, []int64{0, 0, 0, 3, 3, 3}, got.NodeValues.LongValues["component"])
	require.Equal(t, []float64{0.1, 0.3, 0.3, 0.3}, got.NodeValues.DoubleValues["rank"])
}

func TestGormResultRepository_SaveAndGetArrayProperties(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormResultRepository(db)
	ctx := context.Background()

	result := &model.Result{
		NodeValues: model.PublicPropertyMap{
			LongValues:   map[string][]int64{},
			DoubleValues: map[string][]float64{},
			LongArrayValues: map[string][][]int64{
				"paths": {{0, 1, 2}, nil, {2}},
			},
			DoubleArrayValues: map[string][][]float64{
				"embedding": {{0.5, -1.25}, {3.5}, nil},
			},
		},
		RanIterations: 2,
		DidConverge:   true,
	}

	require.NoError(t, repo.SaveResult(ctx, "run-arrays", result))

	got, err := repo.GetResult(ctx, "run-arrays")
	require.NoError(t, err)
	require.Equal(t, []int64{0, 1, 2}, got.NodeValues.LongArrayValues["paths"][0])
	require.Nil(t, got.NodeValues.LongArrayValues["paths"][1]) // unset slot stays unset
	require.Equal(t, []int64{2}, got.NodeValues.LongArrayValues["paths"][2])
	require.Equal(t, []float64{0.5, -1.25}, got.NodeValues.DoubleArrayValues["embedding"][0])
	require.Equal(t, []float64{3.5}, got.NodeValues.DoubleArrayValues["embedding"][1])
}

func TestPackUnpackRoundTrip(t *testing.T) {
	longs := []int64{0, -1, 1 << 40}
	require.Equal(t, longs, unpackLongs(packLongs(longs)))

	doubles := []float64{0, -2.5, 1e300}
	require.Equal(t, doubles, unpackDoubles(packDoubles(doubles)))
}

func TestGormResultRepository_SaveOverwritesPriorRun(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormResultRepository(db)
	ctx := context.Background()

	first := &model.Result{
		NodeValues:    model.PublicPropertyMap{LongValues: map[string][]int64{"dist": {0, 1, 2}}, DoubleValues: map[string][]float64{}},
		RanIterations: 2,
	}
	require.NoError(t, repo.SaveResult(ctx, "run-2", first))

	second := &model.Result{
		NodeValues:    model.PublicPropertyMap{LongValues: map[string][]int64{"dist": {0, 1}}, DoubleValues: map[string][]float64{}},
		RanIterations: 1,
		DidConverge:   true,
	}
	require.NoError(t, repo.SaveResult(ctx, "run-2", second))

	got, err := repo.GetResult(ctx, "run-2")
	require.NoError(t, err)
	require.Equal(t, 1, got.RanIterations)
	require.Equal(t, []int64{0, 1}, got.NodeValues.LongValues["dist"])
}

func TestGormResultRepository_GetResult_NotFound(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormResultRepository(db)

	_, err := repo.GetResult(context.Background(), "missing")
	require.Error(t, err)
}

func TestGormResultRepository_DeleteResult_QueryShape(t *testing.T) {
	// Exercises the delete statements GORM emits against a mocked
	// connection, without needing a live database.
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer sqlDB.Close()

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{})
	require.NoError(t, err)

	repo := NewGormResultRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM "bsp_vertex_property"`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`DELETE FROM "bsp_run"`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	require.NoError(t, repo.DeleteResult(context.Background(), "run-mocked"))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGormResultRepository_DeleteResult(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormResultRepository(db)
	ctx := context.Background()

	result := &model.Result{
		NodeValues: model.PublicPropertyMap{
			LongValues:   map[string][]int64{"dist": {0, 1}},
			DoubleValues: map[string][]float64{},
		},
	}
	require.NoError(t, repo.SaveResult(ctx, "run-3", result))
	require.NoError(t, repo.DeleteResult(ctx, "run-3"))

	_, err := repo.GetResult(ctx, "run-3")
	require.Error(t, err)
}
