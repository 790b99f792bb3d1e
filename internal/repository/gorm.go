package repository

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"github.com/bspgraph/engine/pkg/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormResultRepository implements ResultRepository using GORM.
type GormResultRepository struct {
	db *gorm.DB
}

// NewGormResultRepository creates a new GormResultRepository.
func NewGormResultRepository(db *gorm.DB) *GormResultRepository {
	return &GormResultRepository{db: db}
}

// SaveResult persists result under runID inside a single transaction,
// replacing any rows previously saved for that run.
func (r *GormResultRepository) SaveResult(ctx context.Context, runID string, result *model.Result) error {
	if runID == "" {
		return fmt.Errorf("repository: empty run id")
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("run_id = ?", runID).Delete(&VertexPropertyRow{}).Error; err != nil {
			return fmt.Errorf("failed to clear prior vertex properties: %w", err)
		}

		run := RunRow{
			RunID:         runID,
			RanIterations: result.RanIterations,
			DidConverge:   result.DidConverge,
		}
		if err := tx.Clauses(clause.OnConflict{UpdateAll: true}).Create(&run).Error; err != nil {
			return fmt.Errorf("failed to save run summary: %w", err)
		}

		rows := rowsFromResult(runID, result)
		if len(rows) == 0 {
			return nil
		}
		const batchSize = 500
		if err := tx.CreateInBatches(rows, batchSize).Error; err != nil {
			return fmt.Errorf("failed to save vertex properties: %w", err)
		}
		return nil
	})
}

// GetResult reconstructs a previously saved result for runID.
func (r *GormResultRepository) GetResult(ctx context.Context, runID string) (*model.Result, error) {
	var run RunRow
	if err := r.db.WithContext(ctx).Where("run_id = ?", runID).First(&run).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("result not found: %s", runID)
		}
		return nil, fmt.Errorf("failed to get run summary: %w", err)
	}

	var rows []VertexPropertyRow
	if err := r.db.WithContext(ctx).Where("run_id = ?", runID).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to get vertex properties: %w", err)
	}

	return resultFromRows(run, rows), nil
}

// DeleteResult removes a previously saved result.
func (r *GormResultRepository) DeleteResult(ctx context.Context, runID string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("run_id = ?", runID).Delete(&VertexPropertyRow{}).Error; err != nil {
			return fmt.Errorf("failed to delete vertex properties: %w", err)
		}
		if err := tx.Where("run_id = ?", runID).Delete(&RunRow{}).Error; err != nil {
			return fmt.Errorf("failed to delete run summary: %w", err)
		}
		return nil
	})
}

func rowsFromResult(runID string, result *model.Result) []VertexPropertyRow {
	rows := make([]VertexPropertyRow, 0)
	for key, values := range result.NodeValues.LongValues {
		for vertexID, v := range values {
			v := v
			rows = append(rows, VertexPropertyRow{
				RunID: runID, VertexID: int64(vertexID), PropertyKey: key,
				Kind: "long", LongValue: &v,
			})
		}
	}
	for key, values := range result.NodeValues.DoubleValues {
		for vertexID, v := range values {
			v := v
			rows = append(rows, VertexPropertyRow{
				RunID: runID, VertexID: int64(vertexID), PropertyKey: key,
				Kind: "double", DoubleValue: &v,
			})
		}
	}
	// Array-valued slots: a nil slice is logically "unset" and gets no
	// row; reading the run back reproduces the nil.
	for key, arrays := range result.NodeValues.LongArrayValues {
		for vertexID, arr := range arrays {
			if arr == nil {
				continue
			}
			rows = append(rows, VertexPropertyRow{
				RunID: runID, VertexID: int64(vertexID), PropertyKey: key,
				Kind: "long_array", ArrayValue: packLongs(arr),
			})
		}
	}
	for key, arrays := range result.NodeValues.DoubleArrayValues {
		for vertexID, arr := range arrays {
			if arr == nil {
				continue
			}
			rows = append(rows, VertexPropertyRow{
				RunID: runID, VertexID: int64(vertexID), PropertyKey: key,
				Kind: "double_array", ArrayValue: packDoubles(arr),
			})
		}
	}
	return rows
}

// packLongs encodes values as consecutive little-endian int64s, the blob
// layout of a "long_array" row.
func packLongs(values []int64) []byte {
	out := make([]byte, 8*len(values))
	for i, v := range values {
		binary.LittleEndian.PutUint64(out[8*i:], uint64(v))
	}
	return out
}

func unpackLongs(blob []byte) []int64 {
	out := make([]int64, len(blob)/8)
	for i := range out {
		out[i] = int64(binary.LittleEndian.Uint64(blob[8*i:]))
	}
	return out
}

// packDoubles encodes values as consecutive little-endian float64 bit
// patterns, the blob layout of a "double_array" row.
func packDoubles(values []float64) []byte {
	out := make([]byte, 8*len(values))
	for i, v := range values {
		binary.LittleEndian.PutUint64(out[8*i:], math.Float64bits(v))
	}
	return out
}

func unpackDoubles(blob []byte) []float64 {
	out := make([]float64, len(blob)/8)
	for i := range out {
		out[i] = math.Float64frombits(binary.LittleEndian.Uint64(blob[8*i:]))
	}
	return out
}

func resultFromRows(run RunRow, rows []VertexPropertyRow) *model.Result {
	result := &model.Result{
		NodeValues:    model.NewPublicPropertyMap(),
		RanIterations: run.RanIterations,
		DidConverge:   run.DidConverge,
	}

	maxVertex := make(map[string]int64)
	for _, row := range rows {
		if row.VertexID > maxVertex[row.PropertyKey] {
			maxVertex[row.PropertyKey] = row.VertexID
		}
	}

	for _, row := range rows {
		switch row.Kind {
		case "long":
			arr := result.NodeValues.LongValues[row.PropertyKey]
			if arr == nil {
				arr = make([]int64, maxVertex[row.PropertyKey]+1)
				result.NodeValues.LongValues[row.PropertyKey] = arr
			}
			if row.LongValue != nil {
				arr[row.VertexID] = *row.LongValue
			}
		case "double":
			arr := result.NodeValues.DoubleValues[row.PropertyKey]
			if arr == nil {
				arr = make([]float64, maxVertex[row.PropertyKey]+1)
				result.NodeValues.DoubleValues[row.PropertyKey] = arr
			}
			if row.DoubleValue != nil {
				arr[row.VertexID] = *row.DoubleValue
			}
		case "long_array":
			arrs := result.NodeValues.LongArrayValues[row.PropertyKey]
			if arrs == nil {
				arrs = make([][]int64, maxVertex[row.PropertyKey]+1)
				result.NodeValues.LongArrayValues[row.PropertyKey] = arrs
			}
			arrs[row.VertexID] = unpackLongs(row.ArrayValue)
		case "double_array":
			arrs := result.NodeValues.DoubleArrayValues[row.PropertyKey]
			if arrs == nil {
				arrs = make([][]float64, maxVertex[row.PropertyKey]+1)
				result.NodeValues.DoubleArrayValues[row.PropertyKey] = arrs
			}
			arrs[row.VertexID] = unpackDoubles(row.ArrayValue)
		}
	}
	return result
}
