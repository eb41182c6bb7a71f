package harness

import (
	"errors"
	"fmt"

	"github.com/google/go-cmp/cmp"

	"github.com/roach88/reindex/internal/ir"
	"github.com/roach88/reindex/internal/reindex"
)

func execute(s *Scenario, input any) (*reindex.Result, error) {
	path, opts, err := s.Options()
	if err != nil {
		return nil, err
	}
	return reindex.Reindex(input, path, opts)
}

// evaluateExpect compares an outcome with the scenario's expectations and
// returns one message per mismatch.
func evaluateExpect(exp Expect, got *reindex.Result, gotErr error) []string {
	if exp.Error != "" {
		if gotErr == nil {
			return []string{fmt.Sprintf("expected error %s, got a %s result with %d keys", exp.Error, got.Mode, got.Len())}
		}
		if !errors.Is(gotErr, &reindex.Error{Code: reindex.ErrorCode(exp.Error)}) {
			return []string{fmt.Sprintf("expected error %s, got: %v", exp.Error, gotErr)}
		}
		return nil
	}

	if gotErr != nil {
		return []string{fmt.Sprintf("unexpected error: %v", gotErr)}
	}

	var msgs []string
	switch {
	case exp.Entries != nil:
		if got.Mode != reindex.ModeUnique {
			return []string{fmt.Sprintf("expected a unique result, got %s", got.Mode)}
		}
		want := make(reindex.Unique, len(exp.Entries))
		for _, e := range exp.Entries {
			k, _ := ir.KeyOf(e.Key)
			want[k] = e.Record
		}
		if diff := cmp.Diff(want, got.Unique); diff != "" {
			msgs = append(msgs, fmt.Sprintf("entries mismatch (-want +got):\n%s", diff))
		}
	case exp.Groups != nil:
		if got.Mode != reindex.ModeGrouped {
			return []string{fmt.Sprintf("expected a grouped result, got %s", got.Mode)}
		}
		want := make(reindex.Grouped, len(exp.Groups))
		for _, g := range exp.Groups {
			k, _ := ir.KeyOf(g.Key)
			want[k] = g.Records
		}
		if diff := cmp.Diff(want, got.Grouped); diff != "" {
			msgs = append(msgs, fmt.Sprintf("groups mismatch (-want +got):\n%s", diff))
		}
	}

	if exp.Dropped != nil && *exp.Dropped != got.Dropped {
		msgs = append(msgs, fmt.Sprintf("expected %d dropped records, got %d", *exp.Dropped, got.Dropped))
	}
	return msgs
}
