package ir

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"
	"unicode/utf16"
)

// Record is a single data item: a string-keyed mapping whose values are
// strings, numbers, booleans, nil, nested mappings or sequences.
//
// Record is an alias so that values produced by encoding/json, yaml.v3 and
// CUE decoding are Records without conversion. Records are referenced, not
// copied, by everything in this module.
type Record = map[string]any

// AsRecord reports whether v is a mapping usable as a Record.
func AsRecord(v any) (Record, bool) {
	rec, ok := v.(map[string]any)
	return rec, ok
}

// SortedKeys returns the record's keys in RFC 8785 canonical order (UTF-16 code units).
// CRITICAL: Go's sort.Strings uses UTF-8 which produces DIFFERENT order.
func SortedKeys(rec Record) []string {
	keys := make([]string, 0, len(rec))
	for k := range rec {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, compareKeysRFC8785)
	return keys
}

// compareKeysRFC8785 compares strings using UTF-16 code unit ordering
// as required by RFC 8785 (Canonical JSON).
func compareKeysRFC8785(a, b string) int {
	a16 := utf16.Encode([]rune(a))
	b16 := utf16.Encode([]rune(b))

	minLen := min(len(a16), len(b16))
	for i := 0; i < minLen; i++ {
		if a16[i] != b16[i] {
			if a16[i] < b16[i] {
				return -1
			}
			return 1
		}
	}

	switch {
	case len(a16) < len(b16):
		return -1
	case len(a16) > len(b16):
		return 1
	}
	return 0
}

// UnmarshalValue decodes a single JSON document into plain Go values.
// Objects become Records, arrays become []any, and numbers are kept as
// json.Number so integers never lose precision.
func UnmarshalValue(data []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("unexpected data after top-level JSON value")
	}
	return v, nil
}

// NormalizeValue converts a freshly decoded document into a single set of
// value kinds: mappings with non-string keys are re-keyed by their formatted
// key, typed slices become []any, and numbers become int64 or float64.
// Numbers neither can hold exactly (integers beyond int64, literals beyond
// float64) stay json.Number or uint64. Records and []any values are
// rewritten in place.
//
// YAML decoders hand back map[any]any for mappings with non-string keys and
// plain ints, so every loader passes its output through here to give the
// reindexer the same value kinds regardless of source format.
func NormalizeValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		for k, elem := range val {
			val[k] = NormalizeValue(elem)
		}
		return val
	case map[any]any:
		rec := make(Record, len(val))
		for k, elem := range val {
			rec[fmt.Sprint(k)] = NormalizeValue(elem)
		}
		return rec
	case []any:
		for i, elem := range val {
			val[i] = NormalizeValue(elem)
		}
		return val
	case []map[string]any:
		out := make([]any, len(val))
		for i, elem := range val {
			out[i] = NormalizeValue(elem)
		}
		return out
	case json.Number:
		if n, err := val.Int64(); err == nil {
			return n
		}
		if !isIntegerLiteral(val) {
			if f, err := val.Float64(); err == nil {
				return f
			}
		}
		return val
	case int:
		return int64(val)
	case int32:
		return int64(val)
	case uint64:
		if val <= 1<<63-1 {
			return int64(val)
		}
		return val
	case float32:
		return float64(val)
	default:
		return v
	}
}

// isIntegerLiteral reports whether n has no fraction or exponent.
func isIntegerLiteral(n json.Number) bool {
	return !strings.ContainsAny(string(n), ".eE")
}
