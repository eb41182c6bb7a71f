package reindex

import (
	"github.com/roach88/reindex/internal/ir"
)

// Path is an ordered, non-empty sequence of keys addressing a value inside
// nested records. Path{"b", "c"} addresses rec["b"]["c"].
type Path []string

// String renders the path as a JSON array of keys.
func (p Path) String() string {
	b, err := ir.MarshalCanonical([]string(p))
	if err != nil {
		return "[]"
	}
	return string(b)
}

// NewPath builds a Path from a decoded argument.
//
// A string is a path of length 1. A []string, or a []any whose elements are
// all strings, is used in order. Anything else, including an empty
// sequence, fails with INVALID_PATH_TYPE.
func NewPath(by any) (Path, error) {
	switch v := by.(type) {
	case string:
		return Path{v}, nil
	case Path:
		return checkPath(v, by)
	case []string:
		return checkPath(Path(v), by)
	case []any:
		p := make(Path, len(v))
		for i, elem := range v {
			s, ok := elem.(string)
			if !ok {
				return nil, newPathTypeError("by", by)
			}
			p[i] = s
		}
		return checkPath(p, by)
	default:
		return nil, newPathTypeError("by", by)
	}
}

func checkPath(p Path, raw any) (Path, error) {
	if len(p) == 0 {
		return nil, newPathTypeError("by", raw)
	}
	return p, nil
}

// Resolve walks rec along path and returns the key found there.
//
// Loose mode (strict == false) never fails: any shape mismatch, missing key,
// or non-scalar terminal value yields ok == false and the remaining path is
// not evaluated.
//
// Strict mode fails on the first mismatch with PATH_TYPE (a segment is not a
// mapping), PATH_KEY (a key is missing), or NON_SCALAR_KEY (the terminal value
// is a mapping, sequence, null or NaN). Errors report the record as index 0.
func Resolve(rec ir.Record, path Path, strict bool) (ir.Key, bool, error) {
	return resolveAt(rec, path, strict, 0)
}

// resolveAt is Resolve for the record at position index in the input.
func resolveAt(rec ir.Record, path Path, strict bool, index int) (ir.Key, bool, error) {
	v, found, err := walk(rec, path, strict, index)
	if err != nil || !found {
		return nil, false, err
	}

	k, ok := ir.KeyOf(v)
	if !ok {
		if strict {
			return nil, false, newNonScalarError(path, index, v)
		}
		return nil, false, nil
	}
	return k, true, nil
}

// walk follows path through nested mappings. found is false when a loose
// walk stopped early.
func walk(rec ir.Record, path Path, strict bool, index int) (v any, found bool, err error) {
	var cur any = rec
	for depth, seg := range path {
		m, ok := cur.(map[string]any)
		if !ok {
			if strict {
				return nil, false, newWalkTypeError(path, depth, index, cur)
			}
			return nil, false, nil
		}

		next, exists := m[seg]
		if !exists {
			if strict {
				return nil, false, newMissingKeyError(path, depth, index)
			}
			return nil, false, nil
		}
		cur = next
	}
	return cur, true, nil
}
