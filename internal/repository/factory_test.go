package repository

import (
	"path/filepath"
	"testing"

	"github.com/bspgraph/engine/pkg/config"
	"github.com/stretchr/testify/require"
)

func TestNewGormDB_SQLite(t *testing.T) {
	dir := t.TempDir()
	cfg := &config.DatabaseConfig{
		Type:     "sqlite",
		Database: filepath.Join(dir, "bspgraph.db"),
	}

	db, err := NewGormDB(cfg)
	require.NoError(t, err)
	defer Close(db)

	require.NoError(t, HealthCheck(t.Context(), db))
	require.NotNil(t, RawDB(db))
}

func TestNewGormDB_UnsupportedType(t *testing.T) {
	cfg := &config.DatabaseConfig{Type: "clickhouse"}

	_, err := NewGormDB(cfg)
	require.Error(t, err)
}
