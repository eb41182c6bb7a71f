package reindex

import (
	"slices"

	"github.com/roach88/reindex/internal/ir"
)

// Unique maps each key to the one record that produced it.
type Unique map[ir.Key]ir.Record

// Keys returns the keys in CompareKeys order.
func (u Unique) Keys() []ir.Key {
	return sortedKeys(u)
}

// Grouped maps each key to the records sharing it, in input order.
type Grouped map[ir.Key][]ir.Record

// Keys returns the keys in CompareKeys order.
func (g Grouped) Keys() []ir.Key {
	return sortedKeys(g)
}

func sortedKeys[V any](m map[ir.Key]V) []ir.Key {
	keys := make([]ir.Key, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, ir.CompareKeys)
	return keys
}

// resolveFunc returns the resolution of the record at index i.
type resolveFunc func(i int) (ir.Key, bool, error)

// counts tracks what an aggregation pass did with its input.
type counts struct {
	records int
	dropped int
}

// aggregateUnique inserts records in input order and fails on the first
// key seen twice. Absent keys are skipped.
func aggregateUnique(records []ir.Record, path Path, resolve resolveFunc) (Unique, counts, error) {
	out := make(Unique, len(records))
	firstSeen := make(map[ir.Key]int, len(records))
	c := counts{records: len(records)}

	for i, rec := range records {
		k, ok, err := resolve(i)
		if err != nil {
			return nil, c, err
		}
		if !ok {
			c.dropped++
			continue
		}
		if prev, dup := firstSeen[k]; dup {
			return nil, c, newDuplicateKeyError(path, k, prev, i)
		}
		firstSeen[k] = i
		out[k] = rec
	}
	return out, c, nil
}

// aggregateGrouped appends records to their key's group in input order.
// Absent keys are skipped.
func aggregateGrouped(records []ir.Record, resolve resolveFunc) (Grouped, counts, error) {
	out := make(Grouped)
	c := counts{records: len(records)}

	for i, rec := range records {
		k, ok, err := resolve(i)
		if err != nil {
			return nil, c, err
		}
		if !ok {
			c.dropped++
			continue
		}
		out[k] = append(out[k], rec)
	}
	return out, c, nil
}
