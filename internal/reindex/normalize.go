package reindex

import (
	"github.com/roach88/reindex/internal/ir"
)

// Normalize coerces input into a sequence of records without copying them.
//
// A single mapping becomes a one-element sequence. A sequence is returned in
// order; every element must be a mapping. Anything else fails with
// INVALID_INPUT_KIND.
func Normalize(input any) ([]ir.Record, error) {
	switch v := input.(type) {
	case map[string]any:
		return []ir.Record{v}, nil
	case []ir.Record:
		return v, nil
	case []any:
		records := make([]ir.Record, len(v))
		for i, elem := range v {
			rec, ok := ir.AsRecord(elem)
			if !ok {
				return nil, newInputKindError(i, elem)
			}
			records[i] = rec
		}
		return records, nil
	default:
		return nil, newInputKindError(-1, input)
	}
}
