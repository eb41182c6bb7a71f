package harness

import (
	"context"
	"fmt"
	"reflect"

	"github.com/google/go-cmp/cmp"

	"github.com/roach88/reindex/internal/ir"
	"github.com/roach88/reindex/internal/reindex"
	"github.com/roach88/reindex/internal/store"
)

// parallelWorkers is the worker count used to re-run a scenario when
// checking that concurrent resolution changes nothing.
const parallelWorkers = 4

// checkProperties verifies the invariants every successful result must
// satisfy and returns one message per violation.
func checkProperties(s *Scenario, input any, r *reindex.Result) []string {
	var msgs []string
	msgs = append(msgs, checkCoverage(r)...)
	msgs = append(msgs, checkConsistency(r)...)
	msgs = append(msgs, checkOrder(input, r)...)
	msgs = append(msgs, checkParallel(s, input, r)...)
	msgs = append(msgs, checkPersistence(s, r)...)
	return msgs
}

// checkCoverage: indexed records plus dropped records account for the input.
func checkCoverage(r *reindex.Result) []string {
	indexed := len(r.Unique)
	for _, recs := range r.Grouped {
		indexed += len(recs)
	}
	if indexed+r.Dropped != r.Records {
		return []string{fmt.Sprintf("property coverage: %d indexed + %d dropped != %d records", indexed, r.Dropped, r.Records)}
	}
	if r.Strict && r.Dropped != 0 {
		return []string{fmt.Sprintf("property coverage: strict run dropped %d records", r.Dropped)}
	}
	return nil
}

// checkConsistency: every record resolves to the key it is stored under.
func checkConsistency(r *reindex.Result) []string {
	var msgs []string
	for _, k := range r.Keys() {
		for _, rec := range r.Lookup(k) {
			got, ok, _ := reindex.Resolve(rec, r.Path, false)
			if !ok || got != k {
				msgs = append(msgs, fmt.Sprintf("property consistency: record under key %s resolves to %v", k, got))
			}
		}
	}
	return msgs
}

// checkOrder: records within a group appear in input order.
func checkOrder(input any, r *reindex.Result) []string {
	if r.Mode != reindex.ModeGrouped {
		return nil
	}
	records, err := reindex.Normalize(input)
	if err != nil {
		return []string{fmt.Sprintf("property order: %v", err)}
	}

	position := make(map[uintptr]int, len(records))
	for i, rec := range records {
		position[reflect.ValueOf(rec).Pointer()] = i
	}

	var msgs []string
	for _, k := range r.Keys() {
		last := -1
		for _, rec := range r.Grouped[k] {
			pos := position[reflect.ValueOf(rec).Pointer()]
			if pos <= last {
				msgs = append(msgs, fmt.Sprintf("property order: group %s is not in input order", k))
				break
			}
			last = pos
		}
	}
	return msgs
}

// checkParallel: a multi-worker run yields the same result as the scenario's own.
func checkParallel(s *Scenario, input any, r *reindex.Result) []string {
	_, opts, err := s.Options()
	if err != nil {
		return []string{fmt.Sprintf("property parallel: %v", err)}
	}
	if opts.Workers > 1 {
		opts.Workers = 0
	} else {
		opts.Workers = parallelWorkers
	}

	other, err := reindex.Reindex(input, r.Path, opts)
	if err != nil {
		return []string{fmt.Sprintf("property parallel: workers=%d failed: %v", opts.Workers, err)}
	}
	if diff := cmp.Diff(r, other); diff != "" {
		return []string{fmt.Sprintf("property parallel: workers=%d differs (-scenario +other):\n%s", opts.Workers, diff)}
	}
	return nil
}

// checkPersistence: saving to a fresh in-memory store and loading back
// renders the same snapshot, compared without string normalization.
func checkPersistence(s *Scenario, r *reindex.Result) []string {
	st, err := store.Open(":memory:", store.WithIDGenerator(store.NewFixedGenerator("harness-"+s.Name)))
	if err != nil {
		return []string{fmt.Sprintf("property persistence: %v", err)}
	}
	defer st.Close()

	ctx := context.Background()
	if _, err := st.SaveIndex(ctx, store.SaveRequest{Name: s.Name, Result: r}); err != nil {
		return []string{fmt.Sprintf("property persistence: save: %v", err)}
	}
	loaded, err := st.LoadIndex(ctx, s.Name)
	if err != nil {
		return []string{fmt.Sprintf("property persistence: load: %v", err)}
	}

	want, err := ir.MarshalExact(Snapshot(s.Name, r, nil))
	if err != nil {
		return []string{fmt.Sprintf("property persistence: %v", err)}
	}
	got, err := ir.MarshalExact(Snapshot(s.Name, loaded, nil))
	if err != nil {
		return []string{fmt.Sprintf("property persistence: %v", err)}
	}
	if string(want) != string(got) {
		return []string{fmt.Sprintf("property persistence: loaded index differs:\n  saved:  %s\n  loaded: %s", want, got)}
	}
	return nil
}
