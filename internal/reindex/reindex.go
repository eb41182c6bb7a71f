package reindex

import (
	"log/slog"

	"github.com/roach88/reindex/internal/ir"
)

// Mode tags which shape a Result holds.
type Mode string

const (
	ModeUnique  Mode = "unique"
	ModeGrouped Mode = "grouped"
)

// Result is the tagged outcome of Reindex. Exactly one of Unique and
// Grouped is set, as named by Mode.
type Result struct {
	Mode    Mode
	Path    Path
	Strict  bool
	Unique  Unique
	Grouped Grouped

	// Records is the number of input records.
	Records int

	// Dropped is the number of records whose key was absent (loose mode only).
	Dropped int
}

// Keys returns the result's keys in CompareKeys order.
func (r *Result) Keys() []ir.Key {
	if r.Mode == ModeGrouped {
		return r.Grouped.Keys()
	}
	return r.Unique.Keys()
}

// Len returns the number of distinct keys.
func (r *Result) Len() int {
	if r.Mode == ModeGrouped {
		return len(r.Grouped)
	}
	return len(r.Unique)
}

// Lookup returns the records stored under k: a one-element slice for a
// unique result, the whole group for a grouped one, nil if k is absent.
func (r *Result) Lookup(k ir.Key) []ir.Record {
	if r.Mode == ModeGrouped {
		return r.Grouped[k]
	}
	if rec, ok := r.Unique[k]; ok {
		return []ir.Record{rec}
	}
	return nil
}

// Index builds a one-to-one lookup of input keyed by the value at path.
// A key produced by two records fails with DUPLICATE_KEY.
func Index(input any, path Path, strict bool) (Unique, error) {
	r, err := run(input, path, Options{Strict: strict})
	if err != nil {
		return nil, err
	}
	return r.Unique, nil
}

// Group builds a one-to-many lookup of input keyed by the value at path.
// Each group lists its records in input order.
func Group(input any, path Path, strict bool) (Grouped, error) {
	r, err := run(input, path, Options{Strict: strict, Group: true})
	if err != nil {
		return nil, err
	}
	return r.Grouped, nil
}

// Reindex is the flag-driven entry point. by is a key or a sequence of keys
// (see NewPath); opts.Group selects the shape recorded in Result.Mode.
func Reindex(input any, by any, opts Options) (*Result, error) {
	path, err := NewPath(by)
	if err != nil {
		return nil, err
	}
	return run(input, path, opts)
}

func run(input any, path Path, opts Options) (*Result, error) {
	if len(path) == 0 {
		return nil, newPathTypeError("by", path)
	}
	if opts.Workers < 0 {
		return nil, newFlagTypeError("workers", "non-negative integer", opts.Workers)
	}

	records, err := Normalize(input)
	if err != nil {
		return nil, err
	}

	resolve := newResolver(records, path, opts.Strict, opts.Workers)
	result := &Result{Path: path, Strict: opts.Strict}

	var c counts
	if opts.Group {
		result.Mode = ModeGrouped
		result.Grouped, c, err = aggregateGrouped(records, resolve)
	} else {
		result.Mode = ModeUnique
		result.Unique, c, err = aggregateUnique(records, path, resolve)
	}
	if err != nil {
		return nil, err
	}

	result.Records = c.records
	result.Dropped = c.dropped

	slog.Debug("reindex complete",
		"mode", result.Mode,
		"path", path.String(),
		"records", result.Records,
		"keys", result.Len(),
		"dropped", result.Dropped,
		"workers", opts.Workers,
	)
	return result, nil
}
