package store

import (
	"path/filepath"
	"testing"

	"github.com/roach88/reindex/internal/ir"
	"github.com/roach88/reindex/internal/reindex"
)

// createTestStore creates a new store in a temp directory with
// deterministic IDs "idx-1", "idx-2", ...
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path, WithIDGenerator(NewFixedGenerator("idx-1", "idx-2", "idx-3", "idx-4")))
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// testRecords returns records keyed by "team" (grouped) and "id" (unique).
func testRecords() []any {
	return []any{
		ir.Record{"id": "u1", "team": "red", "score": int64(10)},
		ir.Record{"id": "u2", "team": "blue", "score": 2.5},
		ir.Record{"id": "u3", "team": "red", "tags": []any{"x", "y"}},
		ir.Record{"id": "u4", "team": int64(7), "nested": ir.Record{"ok": true}},
	}
}

func mustReindex(t *testing.T, input any, by any, opts reindex.Options) *reindex.Result {
	t.Helper()
	r, err := reindex.Reindex(input, by, opts)
	if err != nil {
		t.Fatalf("Reindex() failed: %v", err)
	}
	return r
}
