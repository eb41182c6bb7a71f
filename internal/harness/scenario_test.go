package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/reindex/internal/ir"
	"github.com/roach88/reindex/internal/reindex"
)

func TestParseScenarioValid(t *testing.T) {
	s, err := ParseScenario([]byte(`
name: ok
description: "minimal"
input: [{id: 1, tags: {x: 2}}]
by: [tags, x]
workers: 3
expect:
  entries:
    - key: 2
      record: {id: 1, tags: {x: 2}}
`))
	require.NoError(t, err)

	assert.Equal(t, []any{ir.Record{"id": int64(1), "tags": ir.Record{"x": int64(2)}}}, s.Input)
	assert.Equal(t, []any{"tags", "x"}, s.By)
	assert.Equal(t, int64(3), s.Workers)
	require.Len(t, s.Expect.Entries, 1)
	assert.Equal(t, int64(2), s.Expect.Entries[0].Key)

	path, opts, err := s.Options()
	require.NoError(t, err)
	assert.Equal(t, reindex.Path{"tags", "x"}, path)
	assert.Equal(t, reindex.Options{Workers: 3}, opts)
}

func TestParseScenarioRejects(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{
			name: "unknown field",
			yaml: "name: x\ndescription: d\ninput: []\nby: a\nexpect: {entries: []}\nstrcit: true\n",
			want: "strcit",
		},
		{
			name: "missing name",
			yaml: "description: d\ninput: []\nby: a\nexpect: {entries: []}\n",
			want: "name is required",
		},
		{
			name: "missing description",
			yaml: "name: x\ninput: []\nby: a\nexpect: {entries: []}\n",
			want: "description is required",
		},
		{
			name: "missing input",
			yaml: "name: x\ndescription: d\nby: a\nexpect: {entries: []}\n",
			want: "input or input_file is required",
		},
		{
			name: "both inputs",
			yaml: "name: x\ndescription: d\ninput: []\ninput_file: a.json\nby: a\nexpect: {entries: []}\n",
			want: "mutually exclusive",
		},
		{
			name: "missing by",
			yaml: "name: x\ndescription: d\ninput: []\nexpect: {entries: []}\n",
			want: "by is required",
		},
		{
			name: "no expectation",
			yaml: "name: x\ndescription: d\ninput: []\nby: a\nexpect: {}\n",
			want: "exactly one of",
		},
		{
			name: "two expectations",
			yaml: "name: x\ndescription: d\ninput: []\nby: a\nexpect: {entries: [], groups: []}\n",
			want: "exactly one of",
		},
		{
			name: "unknown code",
			yaml: "name: x\ndescription: d\ninput: []\nby: a\nexpect: {error: KEY_ERROR}\n",
			want: "unknown error code",
		},
		{
			name: "dropped with error",
			yaml: "name: x\ndescription: d\ninput: []\nby: a\nexpect: {error: PATH_KEY, dropped: 0}\n",
			want: "dropped cannot be combined",
		},
		{
			name: "non-scalar entry key",
			yaml: "name: x\ndescription: d\ninput: []\nby: a\nexpect: {entries: [{key: [1], record: {}}]}\n",
			want: "key must be a scalar",
		},
		{
			name: "empty group",
			yaml: "name: x\ndescription: d\ninput: []\nby: a\nexpect: {groups: [{key: 1, records: []}]}\n",
			want: "records must be non-empty",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseScenario([]byte(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoadScenarioMissingFile(t *testing.T) {
	_, err := LoadScenario(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read scenario file")
}

func TestLoadScenarioResolvesInputFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "data.json"), []byte(`[{"id": "a"}]`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "s.yaml"), []byte(`
name: from_file
description: "input_file is relative to the scenario"
input_file: data.json
by: id
expect:
  entries: [{key: a, record: {id: a}}]
`), 0o644))

	s, err := LoadScenario(filepath.Join(dir, "s.yaml"))
	require.NoError(t, err)

	input, err := s.LoadInput()
	require.NoError(t, err)
	assert.Equal(t, []any{ir.Record{"id": "a"}}, input)
}
