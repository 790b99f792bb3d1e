// Package repository provides optional GORM-backed persistence for a
// finished BSP run's public properties. It is read/write only after the
// driver reaches Done; it is not checkpointing and never touches driver
// state mid-run.
package repository

import (
	"context"

	"github.com/bspgraph/engine/pkg/model"
)

// ResultRepository persists and retrieves a finished run's public
// properties, one row per vertex per property.
type ResultRepository interface {
	// SaveResult persists result under runID, replacing any rows
	// previously saved for that run.
	SaveResult(ctx context.Context, runID string, result *model.Result) error

	// GetResult reconstructs a previously saved result for runID.
	GetResult(ctx context.Context, runID string) (*model.Result, error)

	// DeleteResult removes a previously saved result.
	DeleteResult(ctx context.Context, runID string) error
}
