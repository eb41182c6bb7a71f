package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/reindex/internal/ir"
	"github.com/roach88/reindex/internal/reindex"
)

var (
	// ErrNotFound is returned when no index matches an ID or name.
	ErrNotFound = errors.New("index not found")

	// ErrNameTaken is returned when saving under a name already in use.
	ErrNameTaken = errors.New("index name already exists")
)

// IndexMeta describes a saved index.
type IndexMeta struct {
	ID         string       `json:"id" yaml:"id"`
	Name       string       `json:"name" yaml:"name"`
	Path       reindex.Path `json:"path" yaml:"path"`
	Mode       reindex.Mode `json:"mode" yaml:"mode"`
	Strict     bool         `json:"strict" yaml:"strict"`
	SourceHash string       `json:"source_hash,omitempty" yaml:"source_hash,omitempty"`
	Records    int          `json:"records" yaml:"records"`
	Dropped    int          `json:"dropped" yaml:"dropped"`
	Keys       int          `json:"keys" yaml:"keys"`
	Seq        int64        `json:"seq" yaml:"seq"`
}

const selectMeta = `
	SELECT id, name, path, mode, strict, source_hash, record_count, dropped_count, key_count, seq
	FROM indexes
`

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanMeta(row rowScanner) (IndexMeta, error) {
	var (
		meta     IndexMeta
		pathJSON string
		mode     string
	)
	err := row.Scan(
		&meta.ID,
		&meta.Name,
		&pathJSON,
		&mode,
		&meta.Strict,
		&meta.SourceHash,
		&meta.Records,
		&meta.Dropped,
		&meta.Keys,
		&meta.Seq,
	)
	if err != nil {
		return IndexMeta{}, err
	}

	path, err := unmarshalPath(pathJSON)
	if err != nil {
		return IndexMeta{}, fmt.Errorf("index %s: %w", meta.ID, err)
	}
	meta.Path = path
	meta.Mode = reindex.Mode(mode)
	return meta, nil
}

// GetIndex returns the metadata of the index whose ID or name is ref.
// An exact ID match takes precedence over a name match.
func (s *Store) GetIndex(ctx context.Context, ref string) (IndexMeta, error) {
	meta, err := scanMeta(s.db.QueryRowContext(ctx, selectMeta+`WHERE id = ?`, ref))
	if errors.Is(err, sql.ErrNoRows) {
		meta, err = scanMeta(s.db.QueryRowContext(ctx, selectMeta+`WHERE name = ?`, ref))
	}
	if errors.Is(err, sql.ErrNoRows) {
		return IndexMeta{}, fmt.Errorf("%w: %s", ErrNotFound, ref)
	}
	if err != nil {
		return IndexMeta{}, fmt.Errorf("get index: %w", err)
	}
	return meta, nil
}

// ListIndexes returns every saved index in save order.
// Returns an empty slice (not nil) for an empty store.
func (s *Store) ListIndexes(ctx context.Context) ([]IndexMeta, error) {
	rows, err := s.db.QueryContext(ctx, selectMeta+`ORDER BY seq ASC, id COLLATE BINARY ASC`)
	if err != nil {
		return nil, fmt.Errorf("list indexes: %w", err)
	}
	defer rows.Close()

	out := []IndexMeta{}
	for rows.Next() {
		meta, err := scanMeta(rows)
		if err != nil {
			return nil, fmt.Errorf("list indexes: %w", err)
		}
		out = append(out, meta)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate indexes: %w", err)
	}
	return out, nil
}

// LoadIndex rebuilds the saved result for ref (ID or name).
//
// The returned Result may be shared with other callers through the cache
// and must be treated as read-only.
func (s *Store) LoadIndex(ctx context.Context, ref string) (*reindex.Result, error) {
	meta, err := s.GetIndex(ctx, ref)
	if err != nil {
		return nil, err
	}
	if r, ok := s.cache.Get(meta.ID); ok {
		return r, nil
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT key, record
		FROM entries
		WHERE index_id = ?
		ORDER BY key COLLATE BINARY ASC, position ASC
	`, meta.ID)
	if err != nil {
		return nil, fmt.Errorf("load index: %w", err)
	}
	defer rows.Close()

	r := &reindex.Result{
		Mode:    meta.Mode,
		Path:    meta.Path,
		Strict:  meta.Strict,
		Records: meta.Records,
		Dropped: meta.Dropped,
	}
	switch meta.Mode {
	case reindex.ModeGrouped:
		r.Grouped = make(reindex.Grouped, meta.Keys)
	default:
		r.Unique = make(reindex.Unique, meta.Keys)
	}

	for rows.Next() {
		k, rec, err := s.scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("load index %s: %w", meta.Name, err)
		}
		if r.Mode == reindex.ModeGrouped {
			r.Grouped[k] = append(r.Grouped[k], rec)
		} else {
			r.Unique[k] = rec
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate entries: %w", err)
	}

	s.cache.Add(meta.ID, r)
	return r, nil
}

// Lookup returns the records stored under key in the index ref, in their
// original order. Returns an empty slice (not nil) when the key is absent.
func (s *Store) Lookup(ctx context.Context, ref string, key ir.Key) ([]ir.Record, error) {
	meta, err := s.GetIndex(ctx, ref)
	if err != nil {
		return nil, err
	}
	if r, ok := s.cache.Get(meta.ID); ok {
		if recs := r.Lookup(key); recs != nil {
			return recs, nil
		}
		return []ir.Record{}, nil
	}

	keyJSON, keyHash, err := marshalKey(key)
	if err != nil {
		return nil, fmt.Errorf("lookup: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT key, record
		FROM entries
		WHERE index_id = ? AND key_hash = ? AND key = ?
		ORDER BY position ASC
	`, meta.ID, keyHash, keyJSON)
	if err != nil {
		return nil, fmt.Errorf("lookup: %w", err)
	}
	defer rows.Close()

	out := []ir.Record{}
	for rows.Next() {
		_, rec, err := s.scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("lookup: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate entries: %w", err)
	}
	return out, nil
}

func (s *Store) scanEntry(rows *sql.Rows) (ir.Key, ir.Record, error) {
	var (
		keyJSON string
		blob    []byte
	)
	if err := rows.Scan(&keyJSON, &blob); err != nil {
		return nil, nil, err
	}
	k, err := unmarshalKey(keyJSON)
	if err != nil {
		return nil, nil, err
	}
	rec, err := s.decodeRecord(blob)
	if err != nil {
		return nil, nil, fmt.Errorf("key %s: %w", keyJSON, err)
	}
	return k, rec, nil
}
