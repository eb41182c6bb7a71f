package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/roach88/reindex/internal/ir"
	"github.com/roach88/reindex/internal/reindex"
)

func TestOpen_CreatesNewDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer s.Close()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Error("database file was not created")
	}
}

func TestOpen_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	for i := 0; i < 3; i++ {
		s, err := Open(path)
		if err != nil {
			t.Fatalf("Open() iteration %d failed: %v", i, err)
		}
		s.Close()
	}

	s, err := Open(path)
	if err != nil {
		t.Fatalf("final Open() failed: %v", err)
	}
	defer s.Close()

	for _, table := range []string{"indexes", "entries"} {
		var name string
		err := s.db.QueryRow(
			"SELECT name FROM sqlite_master WHERE type='table' AND name=?",
			table,
		).Scan(&name)
		if err != nil {
			t.Errorf("table %q not found after idempotent opens: %v", table, err)
		}
	}

	var version int
	if err := s.db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		t.Fatalf("user_version: %v", err)
	}
	if version != currentSchemaVersion {
		t.Errorf("user_version = %d, want %d", version, currentSchemaVersion)
	}
}

func TestOpen_Pragmas(t *testing.T) {
	s := createTestStore(t)

	checks := map[string]string{
		"journal_mode": "wal",
		"foreign_keys": "1",
		"busy_timeout": "5000",
		"synchronous":  "1",
	}
	for name, want := range checks {
		if err := s.verifyPragma(name, want); err != nil {
			t.Error(err)
		}
	}
}

func TestSaveAndLoad_Unique(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	input := testRecords()
	r := mustReindex(t, input, "id", reindex.Options{Strict: true})

	meta, err := s.SaveIndex(ctx, SaveRequest{Name: "users", Result: r, SourceHash: ir.MustSourceHash(input)})
	if err != nil {
		t.Fatalf("SaveIndex() failed: %v", err)
	}

	want := IndexMeta{
		ID:         "idx-1",
		Name:       "users",
		Path:       reindex.Path{"id"},
		Mode:       reindex.ModeUnique,
		Strict:     true,
		SourceHash: ir.MustSourceHash(input),
		Records:    4,
		Keys:       4,
		Seq:        1,
	}
	if diff := cmp.Diff(want, meta); diff != "" {
		t.Errorf("SaveIndex() meta mismatch (-want +got):\n%s", diff)
	}

	loaded, err := s.LoadIndex(ctx, "users")
	if err != nil {
		t.Fatalf("LoadIndex() failed: %v", err)
	}
	if diff := cmp.Diff(r, loaded); diff != "" {
		t.Errorf("LoadIndex() mismatch (-want +got):\n%s", diff)
	}
}

func TestSaveAndLoad_GroupedKeepsOrder(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	r := mustReindex(t, testRecords(), "team", reindex.Options{Group: true})
	if _, err := s.SaveIndex(ctx, SaveRequest{Name: "teams", Result: r}); err != nil {
		t.Fatalf("SaveIndex() failed: %v", err)
	}

	loaded, err := s.LoadIndex(ctx, "idx-1")
	if err != nil {
		t.Fatalf("LoadIndex() failed: %v", err)
	}
	if diff := cmp.Diff(r, loaded); diff != "" {
		t.Errorf("LoadIndex() mismatch (-want +got):\n%s", diff)
	}

	red := loaded.Grouped[ir.KeyString("red")]
	if len(red) != 2 || red[0]["id"] != "u1" || red[1]["id"] != "u3" {
		t.Errorf("group red = %v, want u1 then u3", red)
	}
}

func TestSaveIndex_NameTaken(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	r := mustReindex(t, testRecords(), "id", reindex.Options{})
	if _, err := s.SaveIndex(ctx, SaveRequest{Name: "users", Result: r}); err != nil {
		t.Fatalf("first SaveIndex() failed: %v", err)
	}

	_, err := s.SaveIndex(ctx, SaveRequest{Name: "users", Result: r})
	if !errors.Is(err, ErrNameTaken) {
		t.Fatalf("second SaveIndex() error = %v, want ErrNameTaken", err)
	}

	list, err := s.ListIndexes(ctx)
	if err != nil {
		t.Fatalf("ListIndexes() failed: %v", err)
	}
	if len(list) != 1 {
		t.Errorf("ListIndexes() returned %d indexes, want 1", len(list))
	}

	var entries int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM entries").Scan(&entries); err != nil {
		t.Fatalf("count entries: %v", err)
	}
	if entries != 4 {
		t.Errorf("entries = %d, want 4 (failed save must roll back)", entries)
	}
}

func TestSaveIndex_Validation(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	if _, err := s.SaveIndex(ctx, SaveRequest{Name: "", Result: &reindex.Result{}}); err == nil {
		t.Error("SaveIndex() with empty name should fail")
	}
	if _, err := s.SaveIndex(ctx, SaveRequest{Name: "x"}); err == nil {
		t.Error("SaveIndex() without result should fail")
	}
}

func TestListIndexes_Ordering(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	empty, err := s.ListIndexes(ctx)
	if err != nil {
		t.Fatalf("ListIndexes() failed: %v", err)
	}
	if empty == nil || len(empty) != 0 {
		t.Errorf("ListIndexes() on empty store = %#v, want empty non-nil slice", empty)
	}

	r := mustReindex(t, testRecords(), "id", reindex.Options{})
	for _, name := range []string{"zeta", "alpha", "mid"} {
		if _, err := s.SaveIndex(ctx, SaveRequest{Name: name, Result: r}); err != nil {
			t.Fatalf("SaveIndex(%s) failed: %v", name, err)
		}
	}

	list, err := s.ListIndexes(ctx)
	if err != nil {
		t.Fatalf("ListIndexes() failed: %v", err)
	}
	var names []string
	for _, m := range list {
		names = append(names, m.Name)
	}
	if diff := cmp.Diff([]string{"zeta", "alpha", "mid"}, names); diff != "" {
		t.Errorf("ListIndexes() order mismatch (-want +got):\n%s", diff)
	}
}

func TestLookup(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	r := mustReindex(t, testRecords(), "team", reindex.Options{Group: true})
	if _, err := s.SaveIndex(ctx, SaveRequest{Name: "teams", Result: r}); err != nil {
		t.Fatalf("SaveIndex() failed: %v", err)
	}

	tests := []struct {
		name string
		key  ir.Key
		ids  []string
	}{
		{"string key group", ir.KeyString("red"), []string{"u1", "u3"}},
		{"string key single", ir.KeyString("blue"), []string{"u2"}},
		{"int key", ir.KeyInt(7), []string{"u4"}},
		{"absent key", ir.KeyString("green"), []string{}},
		{"int is not string", ir.KeyString("7"), []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			recs, err := s.Lookup(ctx, "teams", tt.key)
			if err != nil {
				t.Fatalf("Lookup() failed: %v", err)
			}
			ids := []string{}
			for _, rec := range recs {
				ids = append(ids, rec["id"].(string))
			}
			if diff := cmp.Diff(tt.ids, ids); diff != "" {
				t.Errorf("Lookup() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestLookup_CachedMatchesDatabase(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	r := mustReindex(t, testRecords(), "id", reindex.Options{})
	if _, err := s.SaveIndex(ctx, SaveRequest{Name: "users", Result: r}); err != nil {
		t.Fatalf("SaveIndex() failed: %v", err)
	}

	fromDB, err := s.Lookup(ctx, "users", ir.KeyString("u2"))
	if err != nil {
		t.Fatalf("Lookup() failed: %v", err)
	}

	if _, err := s.LoadIndex(ctx, "users"); err != nil {
		t.Fatalf("LoadIndex() failed: %v", err)
	}
	fromCache, err := s.Lookup(ctx, "users", ir.KeyString("u2"))
	if err != nil {
		t.Fatalf("cached Lookup() failed: %v", err)
	}

	if diff := cmp.Diff(fromDB, fromCache); diff != "" {
		t.Errorf("cached lookup differs (-db +cache):\n%s", diff)
	}
	if missing, _ := s.Lookup(ctx, "users", ir.KeyString("nobody")); missing == nil || len(missing) != 0 {
		t.Errorf("cached Lookup() of absent key = %#v, want empty slice", missing)
	}
}

func TestSaveAndLookup_UnnormalizedKeys(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	composed, decomposed := "\u00e9", "e\u0301"
	input := []any{
		ir.Record{"id": composed, "n": int64(1)},
		ir.Record{"id": decomposed, "n": int64(2), "label": decomposed},
	}
	r := mustReindex(t, input, "id", reindex.Options{Strict: true})
	if len(r.Unique) != 2 {
		t.Fatalf("Reindex() produced %d keys, want 2", len(r.Unique))
	}

	if _, err := s.SaveIndex(ctx, SaveRequest{Name: "accents", Result: r}); err != nil {
		t.Fatalf("SaveIndex() failed: %v", err)
	}

	lookupN := func(stage string, key string, want int64) {
		t.Helper()
		recs, err := s.Lookup(ctx, "accents", ir.KeyString(key))
		if err != nil {
			t.Fatalf("%s: Lookup(%q) failed: %v", stage, key, err)
		}
		if len(recs) != 1 || recs[0]["n"] != want {
			t.Errorf("%s: Lookup(%q) = %v, want one record with n=%d", stage, key, recs, want)
		}
	}

	lookupN("database", composed, 1)
	lookupN("database", decomposed, 2)

	loaded, err := s.LoadIndex(ctx, "accents")
	if err != nil {
		t.Fatalf("LoadIndex() failed: %v", err)
	}
	if diff := cmp.Diff(r, loaded); diff != "" {
		t.Errorf("LoadIndex() mismatch (-want +got):\n%s", diff)
	}

	lookupN("cache", composed, 1)
	lookupN("cache", decomposed, 2)
}

func TestDeleteIndex(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	r := mustReindex(t, testRecords(), "id", reindex.Options{})
	if _, err := s.SaveIndex(ctx, SaveRequest{Name: "users", Result: r}); err != nil {
		t.Fatalf("SaveIndex() failed: %v", err)
	}
	if _, err := s.LoadIndex(ctx, "users"); err != nil {
		t.Fatalf("LoadIndex() failed: %v", err)
	}

	meta, err := s.DeleteIndex(ctx, "users")
	if err != nil {
		t.Fatalf("DeleteIndex() failed: %v", err)
	}
	if meta.ID != "idx-1" {
		t.Errorf("DeleteIndex() returned ID %q, want idx-1", meta.ID)
	}

	var entries int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM entries").Scan(&entries); err != nil {
		t.Fatalf("count entries: %v", err)
	}
	if entries != 0 {
		t.Errorf("entries after delete = %d, want 0 (cascade)", entries)
	}

	if _, err := s.LoadIndex(ctx, "users"); !errors.Is(err, ErrNotFound) {
		t.Errorf("LoadIndex() after delete error = %v, want ErrNotFound", err)
	}
	if _, err := s.DeleteIndex(ctx, "users"); !errors.Is(err, ErrNotFound) {
		t.Errorf("second DeleteIndex() error = %v, want ErrNotFound", err)
	}

	// The name is free again.
	if _, err := s.SaveIndex(ctx, SaveRequest{Name: "users", Result: r}); err != nil {
		t.Errorf("SaveIndex() after delete failed: %v", err)
	}
}

func TestGetIndex_IDBeatsName(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	r := mustReindex(t, testRecords(), "id", reindex.Options{})
	if _, err := s.SaveIndex(ctx, SaveRequest{Name: "first", Result: r}); err != nil {
		t.Fatalf("SaveIndex() failed: %v", err)
	}
	// A second index named after the first one's ID.
	if _, err := s.SaveIndex(ctx, SaveRequest{Name: "idx-1", Result: r}); err != nil {
		t.Fatalf("SaveIndex() failed: %v", err)
	}

	meta, err := s.GetIndex(ctx, "idx-1")
	if err != nil {
		t.Fatalf("GetIndex() failed: %v", err)
	}
	if meta.Name != "first" {
		t.Errorf("GetIndex(idx-1) resolved to %q, want the index with that ID", meta.Name)
	}
}

func TestRecordCodecRoundTrip(t *testing.T) {
	s := createTestStore(t)

	rec := ir.Record{
		"s":      "café",
		"nfd":    "e\u0301",
		"i":      int64(-42),
		"big":    int64(9007199254740993),
		"f":      0.125,
		"b":      false,
		"null":   nil,
		"nested": ir.Record{"list": []any{int64(1), "two", nil}},
	}

	blob, err := s.encodeRecord(rec)
	if err != nil {
		t.Fatalf("encodeRecord() failed: %v", err)
	}
	got, err := s.decodeRecord(blob)
	if err != nil {
		t.Fatalf("decodeRecord() failed: %v", err)
	}
	if diff := cmp.Diff(rec, got); diff != "" {
		t.Errorf("codec round trip mismatch (-want +got):\n%s", diff)
	}

	if _, err := s.decodeRecord([]byte("not zstd")); err == nil {
		t.Error("decodeRecord() of garbage should fail")
	}
}

func TestFixedGenerator(t *testing.T) {
	g := NewFixedGenerator("a", "b")
	if got := g.Generate(); got != "a" {
		t.Errorf("first Generate() = %q, want a", got)
	}
	if got := g.Generate(); got != "b" {
		t.Errorf("second Generate() = %q, want b", got)
	}

	defer func() {
		if recover() == nil {
			t.Error("Generate() past the end should panic")
		}
	}()
	g.Generate()
}

func TestUUIDv7Generator(t *testing.T) {
	var g UUIDv7Generator
	a, b := g.Generate(), g.Generate()
	if len(a) != 36 || a == b {
		t.Errorf("Generate() = %q, %q; want two distinct 36-char UUIDs", a, b)
	}
}
