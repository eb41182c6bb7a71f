package harness

import (
	"errors"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/reindex/internal/ir"
	"github.com/roach88/reindex/internal/reindex"
)

// Snapshot renders a reindex outcome as a canonical-JSON-ready map.
//
// A successful result lists its keys in ir.CompareKeys order:
//
//	{"dropped":0,"entries":[{"key":1,"record":{...}}],"mode":"unique","path":["id"],"records":1,"scenario":"..."}
//
// A failure records the error code and message:
//
//	{"error":{"code":"DUPLICATE_KEY","message":"..."},"scenario":"..."}
func Snapshot(name string, r *reindex.Result, err error) map[string]any {
	if err != nil {
		code, msg := string(reindex.CodeOf(err)), err.Error()
		var re *reindex.Error
		if errors.As(err, &re) {
			msg = re.Message
		}
		return map[string]any{
			"scenario": name,
			"error": map[string]any{
				"code":    code,
				"message": msg,
			},
		}
	}

	snap := RenderResult(r)
	snap["scenario"] = name
	return snap
}

// RenderResult renders a successful result as a canonical-JSON-ready map
// with mode, path, records, dropped and either entries or groups.
func RenderResult(r *reindex.Result) map[string]any {
	snap := map[string]any{
		"mode":    string(r.Mode),
		"path":    []string(r.Path),
		"records": r.Records,
		"dropped": r.Dropped,
	}

	keys := r.Keys()
	if r.Mode == reindex.ModeGrouped {
		groups := make([]any, len(keys))
		for i, k := range keys {
			recs := r.Grouped[k]
			list := make([]any, len(recs))
			for j, rec := range recs {
				list[j] = rec
			}
			groups[i] = map[string]any{"key": k, "records": list}
		}
		snap["groups"] = groups
	} else {
		entries := make([]any, len(keys))
		for i, k := range keys {
			entries[i] = map[string]any{"key": k, "record": r.Unique[k]}
		}
		snap["entries"] = entries
	}
	return snap
}

// GoldenBytes returns the canonical JSON snapshot of a scenario result.
func GoldenBytes(scenario *Scenario, result *Result) ([]byte, error) {
	return ir.MarshalCanonical(Snapshot(scenario.Name, result.Outcome, result.Err))
}

// RunWithGolden executes a scenario and compares its snapshot against
// testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns the run result; the test fails (via goldie) if the snapshot
// doesn't match. Expectation and property failures are left to the caller.
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}

	if err := AssertGolden(t, scenario.Name, scenario, result); err != nil {
		return nil, err
	}
	return result, nil
}

// AssertGolden compares an existing result's snapshot against the golden
// file goldenName.
func AssertGolden(t *testing.T, goldenName string, scenario *Scenario, result *Result) error {
	t.Helper()

	data, err := GoldenBytes(scenario, result)
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, goldenName, data)
	return nil
}
