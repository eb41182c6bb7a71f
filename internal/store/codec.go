package store

import (
	"encoding/json"
	"fmt"

	"github.com/roach88/reindex/internal/ir"
	"github.com/roach88/reindex/internal/reindex"
)

// marshalPath converts a Path to JSON TEXT for storage. Segments are kept
// byte for byte.
func marshalPath(p reindex.Path) (string, error) {
	data, err := ir.MarshalExact([]string(p))
	if err != nil {
		return "", fmt.Errorf("marshal path: %w", err)
	}
	return string(data), nil
}

// unmarshalPath parses a stored path.
func unmarshalPath(data string) (reindex.Path, error) {
	var keys []string
	if err := json.Unmarshal([]byte(data), &keys); err != nil {
		return nil, fmt.Errorf("unmarshal path: %w", err)
	}
	return reindex.NewPath(keys)
}

// marshalKey returns the stored form of a key: its exact JSON literal and
// its hash reinterpreted as int64 (SQLite integers are signed). Both are
// computed from the unnormalized key, so the column and the hash agree.
func marshalKey(k ir.Key) (string, int64, error) {
	data, err := ir.MarshalKey(k)
	if err != nil {
		return "", 0, fmt.Errorf("marshal key: %w", err)
	}
	return string(data), int64(k.Hash()), nil
}

// unmarshalKey parses a stored key literal.
func unmarshalKey(data string) (ir.Key, error) {
	k, err := ir.ParseKey([]byte(data))
	if err != nil {
		return nil, fmt.Errorf("unmarshal key: %w", err)
	}
	return k, nil
}

// encodeRecord renders rec as exact JSON (sorted keys, strings unnormalized)
// and compresses it with zstd. EncodeAll is safe for concurrent use on a
// shared encoder.
func (s *Store) encodeRecord(rec ir.Record) ([]byte, error) {
	data, err := ir.MarshalExact(rec)
	if err != nil {
		return nil, fmt.Errorf("encode record: %w", err)
	}
	return s.enc.EncodeAll(data, make([]byte, 0, len(data)/2)), nil
}

// decodeRecord reverses encodeRecord. Numbers come back as int64 or float64.
func (s *Store) decodeRecord(blob []byte) (ir.Record, error) {
	data, err := s.dec.DecodeAll(blob, nil)
	if err != nil {
		return nil, fmt.Errorf("decode record: zstd: %w", err)
	}
	v, err := ir.UnmarshalValue(data)
	if err != nil {
		return nil, fmt.Errorf("decode record: %w", err)
	}
	rec, ok := ir.AsRecord(ir.NormalizeValue(v))
	if !ok {
		return nil, fmt.Errorf("decode record: stored value is not a mapping")
	}
	return rec, nil
}
