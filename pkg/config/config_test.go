package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_DefaultValues(t *testing.T) {
	dir := t.TempDir()
	configFile := filepath.Join(dir, "config.yaml")
	content := `
storage:
  type: local
`
	err := os.WriteFile(configFile, []byte(content), 0644)
	require.NoError(t, err)

	cfg, err := Load(configFile)
	require.NoError(t, err)
	assert.NotNil(t, cfg)

	assert.Equal(t, 20, cfg.Driver.MaxIterations)
	assert.Equal(t, 0, cfg.Driver.Concurrency)
	assert.False(t, cfg.Driver.IsAsynchronous)
	assert.Equal(t, "auto", cfg.Driver.Partitioning)
	assert.True(t, cfg.Driver.UseForkJoin)
	assert.False(t, cfg.Driver.TrackSender)
	assert.Equal(t, "", cfg.Driver.Reducer)
	assert.Equal(t, 0, cfg.Driver.MaxMessagesPerVertex)
}

func TestLoad_CustomValues(t *testing.T) {
	dir := t.TempDir()
	configFile := filepath.Join(dir, "config.yaml")
	content := `
driver:
  max_iterations: 50
  concurrency: 4
  is_asynchronous: true
  partitioning: degree
  reducer: min
  track_sender: true
  max_messages_per_vertex: 1000
database:
  type: postgres
  host: db.example.com
  port: 5432
  database: bspgraph
  user: admin
  password: secret
storage:
  type: local
  local_path: /tmp/storage
`
	err := os.WriteFile(configFile, []byte(content), 0644)
	require.NoError(t, err)

	cfg, err := Load(configFile)
	require.NoError(t, err)

	assert.Equal(t, 50, cfg.Driver.MaxIterations)
	assert.Equal(t, 4, cfg.Driver.Concurrency)
	assert.True(t, cfg.Driver.IsAsynchronous)
	assert.Equal(t, "degree", cfg.Driver.Partitioning)
	assert.Equal(t, "min", cfg.Driver.Reducer)
	assert.True(t, cfg.Driver.TrackSender)
	assert.Equal(t, 1000, cfg.Driver.MaxMessagesPerVertex)
	assert.Equal(t, "db.example.com", cfg.Database.Host)
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, "bspgraph", cfg.Database.Database)
}

func TestLoad_InvalidDatabaseType(t *testing.T) {
	dir := t.TempDir()
	configFile := filepath.Join(dir, "config.yaml")
	content := `
database:
  type: clickhouse
storage:
  type: local
`
	err := os.WriteFile(configFile, []byte(content), 0644)
	require.NoError(t, err)

	_, err = Load(configFile)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported database type")
}

func TestLoad_InvalidPartitioning(t *testing.T) {
	dir := t.TempDir()
	configFile := filepath.Join(dir, "config.yaml")
	content := `
driver:
  partitioning: random
`
	err := os.WriteFile(configFile, []byte(content), 0644)
	require.NoError(t, err)

	_, err = Load(configFile)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported driver.partitioning")
}

func TestLoad_COSWithCredentials(t *testing.T) {
	dir := t.TempDir()
	configFile := filepath.Join(dir, "config.yaml")
	content := `
storage:
  type: cos
  bucket: test-bucket
  region: ap-guangzhou
  secret_id: test-id
  secret_key: test-key
`
	err := os.WriteFile(configFile, []byte(content), 0644)
	require.NoError(t, err)

	cfg, err := Load(configFile)
	require.NoError(t, err)
	assert.Equal(t, "cos", cfg.Storage.Type)
	assert.Equal(t, "test-bucket", cfg.Storage.Bucket)
}

func TestValidate_InvalidMaxIterations(t *testing.T) {
	cfg := &Config{
		Driver: DriverConfig{
			MaxIterations: 0,
			Partitioning:  "auto",
		},
	}

	err := cfg.Validate()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "max_iterations must be positive")
}

func TestValidate_InvalidReducer(t *testing.T) {
	cfg := &Config{
		Driver: DriverConfig{
			MaxIterations: 20,
			Partitioning:  "auto",
			Reducer:       "average",
		},
	}

	err := cfg.Validate()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported driver.reducer")
}

func TestGetRunDir(t *testing.T) {
	cfg := &Config{
		Storage: StorageConfig{
			LocalPath: "/tmp/data",
		},
	}

	runDir := cfg.GetRunDir("run-123")
	assert.Equal(t, "/tmp/data/run-123", runDir)
}

func TestEnsureDataDir(t *testing.T) {
	dir := t.TempDir()
	dataDir := filepath.Join(dir, "storage", "data")

	cfg := &Config{
		Storage: StorageConfig{
			LocalPath: dataDir,
		},
	}

	err := cfg.EnsureDataDir()
	require.NoError(t, err)

	_, err = os.Stat(dataDir)
	assert.NoError(t, err)
}

func TestLoad_FileNotFound(t *testing.T) {
	cfg, err := Load("/nonexistent/path/config.yaml")
	require.NoError(t, err)
	assert.NotNil(t, cfg)
}

func TestLoadFromReader(t *testing.T) {
	content := []byte(`
driver:
  max_iterations: 10
database:
  type: mysql
  host: mysql.local
storage:
  type: local
`)
	cfg, err := LoadFromReader("yaml", content)
	require.NoError(t, err)
	assert.Equal(t, 10, cfg.Driver.MaxIterations)
	assert.Equal(t, "mysql", cfg.Database.Type)
	assert.Equal(t, "mysql.local", cfg.Database.Host)
}
