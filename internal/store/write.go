package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/mattn/go-sqlite3"

	"github.com/roach88/reindex/internal/reindex"
)

// SaveRequest describes an index to persist.
type SaveRequest struct {
	// Name is the user-facing handle; it must be unique in the store.
	Name string

	// Result is the reindex output to store.
	Result *reindex.Result

	// SourceHash identifies the input the result was built from
	// (see ir.SourceHash). Optional.
	SourceHash string
}

// SaveIndex stores req.Result under req.Name in one transaction and returns
// the metadata of the new index. Saving under an existing name fails with
// ErrNameTaken and leaves the store unchanged.
func (s *Store) SaveIndex(ctx context.Context, req SaveRequest) (IndexMeta, error) {
	if req.Name == "" {
		return IndexMeta{}, errors.New("save index: name is required")
	}
	if req.Result == nil {
		return IndexMeta{}, errors.New("save index: result is required")
	}
	r := req.Result

	pathJSON, err := marshalPath(r.Path)
	if err != nil {
		return IndexMeta{}, fmt.Errorf("save index: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return IndexMeta{}, fmt.Errorf("save index: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	var seq int64
	if err := tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(seq), 0) + 1 FROM indexes`).Scan(&seq); err != nil {
		return IndexMeta{}, fmt.Errorf("save index: next seq: %w", err)
	}

	meta := IndexMeta{
		ID:         s.ids.Generate(),
		Name:       req.Name,
		Path:       r.Path,
		Mode:       r.Mode,
		Strict:     r.Strict,
		SourceHash: req.SourceHash,
		Records:    r.Records,
		Dropped:    r.Dropped,
		Keys:       r.Len(),
		Seq:        seq,
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO indexes
		(id, name, path, mode, strict, source_hash, record_count, dropped_count, key_count, seq)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		meta.ID,
		meta.Name,
		pathJSON,
		string(meta.Mode),
		meta.Strict,
		meta.SourceHash,
		meta.Records,
		meta.Dropped,
		meta.Keys,
		meta.Seq,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return IndexMeta{}, fmt.Errorf("save index %q: %w", req.Name, ErrNameTaken)
		}
		return IndexMeta{}, fmt.Errorf("save index: insert: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO entries (index_id, key, key_hash, position, record)
		VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		return IndexMeta{}, fmt.Errorf("save index: prepare entries: %w", err)
	}
	defer stmt.Close()

	entries := 0
	for _, k := range r.Keys() {
		keyJSON, keyHash, err := marshalKey(k)
		if err != nil {
			return IndexMeta{}, fmt.Errorf("save index: %w", err)
		}
		for pos, rec := range r.Lookup(k) {
			blob, err := s.encodeRecord(rec)
			if err != nil {
				return IndexMeta{}, fmt.Errorf("save index: key %s: %w", keyJSON, err)
			}
			if _, err := stmt.ExecContext(ctx, meta.ID, keyJSON, keyHash, pos, blob); err != nil {
				return IndexMeta{}, fmt.Errorf("save index: insert entry: %w", err)
			}
			entries++
		}
	}

	if err := tx.Commit(); err != nil {
		return IndexMeta{}, fmt.Errorf("save index: commit: %w", err)
	}

	slog.Debug("index saved", "id", meta.ID, "name", meta.Name, "keys", meta.Keys, "entries", entries)
	return meta, nil
}

// DeleteIndex removes an index (by ID or name) and its entries.
func (s *Store) DeleteIndex(ctx context.Context, ref string) (IndexMeta, error) {
	meta, err := s.GetIndex(ctx, ref)
	if err != nil {
		return IndexMeta{}, err
	}

	if _, err := s.db.ExecContext(ctx, `DELETE FROM indexes WHERE id = ?`, meta.ID); err != nil {
		return IndexMeta{}, fmt.Errorf("delete index: %w", err)
	}
	s.cache.Remove(meta.ID)

	slog.Debug("index deleted", "id", meta.ID, "name", meta.Name)
	return meta, nil
}

func isUniqueViolation(err error) bool {
	var se sqlite3.Error
	if errors.As(err, &se) {
		return se.ExtendedCode == sqlite3.ErrConstraintUnique
	}
	return false
}
