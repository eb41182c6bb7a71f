package reindex

import (
	"golang.org/x/sync/errgroup"

	"github.com/roach88/reindex/internal/ir"
)

type resolution struct {
	key ir.Key
	ok  bool
	err error
}

// sequentialResolver resolves each record on demand, so a strict failure
// stops the pass at the failing record.
func sequentialResolver(records []ir.Record, path Path, strict bool) resolveFunc {
	return func(i int) (ir.Key, bool, error) {
		return resolveAt(records[i], path, strict, i)
	}
}

// parallelResolver resolves every record up front across workers goroutines,
// each taking a contiguous chunk, and stores the outcome in the record's own
// slot. Errors are kept per slot rather than returned to the group so the
// aggregator still reports the lowest-index failure, exactly as a
// sequential pass would.
func parallelResolver(records []ir.Record, path Path, strict bool, workers int) resolveFunc {
	slots := make([]resolution, len(records))
	chunk := (len(records) + workers - 1) / workers

	var g errgroup.Group
	g.SetLimit(workers)
	for start := 0; start < len(records); start += chunk {
		end := min(start+chunk, len(records))
		g.Go(func() error {
			for i := start; i < end; i++ {
				k, ok, err := resolveAt(records[i], path, strict, i)
				slots[i] = resolution{key: k, ok: ok, err: err}
			}
			return nil
		})
	}
	_ = g.Wait()

	return func(i int) (ir.Key, bool, error) {
		s := slots[i]
		return s.key, s.ok, s.err
	}
}

func newResolver(records []ir.Record, path Path, strict bool, workers int) resolveFunc {
	if workers <= 1 || len(records) < 2 {
		return sequentialResolver(records, path, strict)
	}
	return parallelResolver(records, path, strict, workers)
}
