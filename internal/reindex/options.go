package reindex

import (
	"encoding/json"
	"math"
)

// Options selects the resolution and aggregation policies.
type Options struct {
	// Strict makes every record resolve or the whole call fail.
	Strict bool

	// Group selects grouped aggregation instead of unique aggregation.
	Group bool

	// Workers > 1 resolves records concurrently before a sequential merge.
	// Results and errors are identical to the sequential pass.
	Workers int
}

// ParseOptions reads options from a decoded configuration mapping
// (a YAML scenario, a CUE job, etc.). Missing entries keep their zero
// value. Unknown entries are ignored.
func ParseOptions(raw map[string]any) (Options, error) {
	var opts Options
	var err error

	if opts.Strict, err = ParseFlag("strict", raw["strict"]); err != nil {
		return Options{}, err
	}
	if opts.Group, err = ParseFlag("group", raw["group"]); err != nil {
		return Options{}, err
	}
	if opts.Workers, err = ParseWorkers(raw["workers"]); err != nil {
		return Options{}, err
	}
	return opts, nil
}

// ParseFlag accepts only a real boolean (or nil, meaning false).
// Truthy strings and numbers are rejected with INVALID_FLAG_TYPE.
func ParseFlag(name string, v any) (bool, error) {
	switch b := v.(type) {
	case nil:
		return false, nil
	case bool:
		return b, nil
	default:
		return false, newFlagTypeError(name, "bool", v)
	}
}

// ParseWorkers accepts a non-negative integer (or nil, meaning 0).
func ParseWorkers(v any) (int, error) {
	var n int64
	switch w := v.(type) {
	case nil:
		return 0, nil
	case int:
		n = int64(w)
	case int64:
		n = w
	case json.Number:
		i, err := w.Int64()
		if err != nil {
			return 0, newFlagTypeError("workers", "non-negative integer", v)
		}
		n = i
	case float64:
		if w != math.Trunc(w) {
			return 0, newFlagTypeError("workers", "non-negative integer", v)
		}
		n = int64(w)
	default:
		return 0, newFlagTypeError("workers", "non-negative integer", v)
	}
	if n < 0 || n > math.MaxInt32 {
		return 0, newFlagTypeError("workers", "non-negative integer", v)
	}
	return int(n), nil
}
