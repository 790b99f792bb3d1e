// Package testutil provides small shared helpers for the engine's tests:
// throwaway files and directories, an edge-list fixture builder, and a
// JSON equality assertion.
package testutil

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// TempDir creates a temporary directory for testing and returns its path.
// The directory is automatically cleaned up when the test completes.
func TempDir(t *testing.T) string {
	t.Helper()
	dir, err := os.MkdirTemp("", "bspgraph-test-*")
	if err != nil {
		t.Fatalf("failed to create temp dir: %v", err)
	}
	t.Cleanup(func() {
		os.RemoveAll(dir)
	})
	return dir
}

// TempFileWithName creates a temporary file with the given name and content.
func TempFileWithName(t *testing.T, name, content string) string {
	t.Helper()
	dir := TempDir(t)
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write temp file: %v", err)
	}
	return path
}

// WriteFile writes content to a file in the given directory.
func WriteFile(t *testing.T, dir, filename, content string) string {
	t.Helper()
	path := filepath.Join(dir, filename)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}
	return path
}

// ReadFile reads a file and returns its contents.
func ReadFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read file %s: %v", path, err)
	}
	return string(data)
}

// FileExists checks if a file exists.
func FileExists(t *testing.T, path string) bool {
	t.Helper()
	_, err := os.Stat(path)
	return err == nil
}

// EdgeListFile writes a "from to [weight]" edge-list file, one edge per
// line, and returns its path. Each edge is 2 or 3 values.
func EdgeListFile(t *testing.T, edges ...[]float64) string {
	t.Helper()
	var sb strings.Builder
	for _, e := range edges {
		switch len(e) {
		case 2:
			fmt.Fprintf(&sb, "%d %d\n", int64(e[0]), int64(e[1]))
		case 3:
			fmt.Fprintf(&sb, "%d %d %g\n", int64(e[0]), int64(e[1]), e[2])
		default:
			t.Fatalf("edge needs 2 or 3 values, got %d", len(e))
		}
	}
	return TempFileWithName(t, "edges.txt", sb.String())
}
