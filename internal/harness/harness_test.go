package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/reindex/internal/ir"
	"github.com/roach88/reindex/internal/reindex"
)

func mustParse(t *testing.T, yaml string) *Scenario {
	t.Helper()
	s, err := ParseScenario([]byte(yaml))
	require.NoError(t, err)
	return s
}

func TestRunPasses(t *testing.T) {
	s := mustParse(t, `
name: pass
description: "expected entries match"
input: {id: x, v: 1}
by: id
expect:
  entries: [{key: x, record: {id: x, v: 1}}]
  dropped: 0
`)

	result, err := Run(s)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
	assert.Empty(t, result.Errors)
	require.NotNil(t, result.Outcome)
	assert.Equal(t, reindex.ModeUnique, result.Outcome.Mode)
}

func TestRunReportsMismatches(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{
			name: "wrong record",
			yaml: `
name: wrong_record
description: d
input: [{id: x, v: 1}]
by: id
expect:
  entries: [{key: x, record: {id: x, v: 2}}]
`,
			want: "entries mismatch",
		},
		{
			name: "wrong group order",
			yaml: `
name: wrong_order
description: d
input: [{g: 1, n: a}, {g: 1, n: b}]
by: g
group: true
expect:
  groups: [{key: 1, records: [{g: 1, n: b}, {g: 1, n: a}]}]
`,
			want: "groups mismatch",
		},
		{
			name: "expected error did not happen",
			yaml: `
name: no_error
description: d
input: [{id: x}]
by: id
expect:
  error: DUPLICATE_KEY
`,
			want: "expected error DUPLICATE_KEY",
		},
		{
			name: "different error",
			yaml: `
name: other_error
description: d
input: [{id: x}, {id: x}]
by: id
expect:
  error: PATH_KEY
`,
			want: "got: DUPLICATE_KEY",
		},
		{
			name: "unexpected error",
			yaml: `
name: unexpected
description: d
input: [{id: x}, {id: x}]
by: id
expect:
  entries: []
`,
			want: "unexpected error",
		},
		{
			name: "wrong mode",
			yaml: `
name: wrong_mode
description: d
input: [{id: x}]
by: id
group: true
expect:
  entries: [{key: x, record: {id: x}}]
`,
			want: "expected a unique result",
		},
		{
			name: "wrong dropped",
			yaml: `
name: wrong_dropped
description: d
input: [{id: x}, {}]
by: id
expect:
  entries: [{key: x, record: {id: x}}]
  dropped: 0
`,
			want: "expected 0 dropped records, got 1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := Run(mustParse(t, tt.yaml))
			require.NoError(t, err)
			assert.False(t, result.Pass)
			require.NotEmpty(t, result.Errors)
			assert.Contains(t, result.Errors[0], tt.want)
		})
	}
}

func TestRunInputFileMissing(t *testing.T) {
	s := mustParse(t, `
name: missing_file
description: d
input_file: /nonexistent/input.json
by: id
expect: {entries: []}
`)

	_, err := Run(s)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "load input_file")
}

func TestPropertiesHoldForLargeInput(t *testing.T) {
	input := make([]any, 200)
	for i := range input {
		rec := ir.Record{"id": int64(i), "bucket": int64(i % 9)}
		if i%13 == 0 {
			delete(rec, "bucket")
		}
		input[i] = rec
	}
	s := &Scenario{Name: "large", By: "bucket", Group: true}

	r, err := reindex.Reindex(input, "bucket", reindex.Options{Group: true})
	require.NoError(t, err)
	assert.Empty(t, checkProperties(s, input, r))
}

func TestPropertiesDetectViolations(t *testing.T) {
	a := ir.Record{"k": "x"}
	b := ir.Record{"k": "x"}
	input := []any{a, b}

	// Group out of input order.
	r := &reindex.Result{
		Mode:    reindex.ModeGrouped,
		Path:    reindex.Path{"k"},
		Grouped: reindex.Grouped{ir.KeyString("x"): {b, a}},
		Records: 2,
	}
	assert.NotEmpty(t, checkOrder(input, r))

	// Record filed under the wrong key.
	r = &reindex.Result{
		Mode:    reindex.ModeUnique,
		Path:    reindex.Path{"k"},
		Unique:  reindex.Unique{ir.KeyString("y"): a},
		Records: 1,
	}
	assert.NotEmpty(t, checkConsistency(r))

	// Record lost without being counted as dropped.
	r = &reindex.Result{
		Mode:    reindex.ModeUnique,
		Path:    reindex.Path{"k"},
		Unique:  reindex.Unique{ir.KeyString("x"): a},
		Records: 2,
	}
	assert.NotEmpty(t, checkCoverage(r))
}
