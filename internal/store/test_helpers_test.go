package store

import (
	"path/filepath"
	"testing"

	"github.com/kortbus/sdlgen/internal/ir"
)

// createTestStore creates a store backed by a temp-dir database for testing.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// createTestRun creates a test run record with minimal required fields.
// Seq is left zero; the store assigns it on write.
func createTestRun(id, contextName string) ir.RunRecord {
	return ir.RunRecord{
		ID:            id,
		Context:       contextName,
		ProfileDigest: "profile-digest",
		HeaderDigest:  "header-digest",
		OutputDigest:  "output-digest",
		OutputPath:    contextName + "vk.go",
		ToolVersion:   "0.1.0",
		CreatedAt:     "2024-01-01T00:00:00Z",
	}
}
