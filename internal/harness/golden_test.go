package harness

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScenarioCorpusMatchesGolden(t *testing.T) {
	files, err := filepath.Glob("testdata/scenarios/*.yaml")
	require.NoError(t, err)
	require.NotEmpty(t, files)

	for _, file := range files {
		name := strings.TrimSuffix(filepath.Base(file), ".yaml")
		t.Run(name, func(t *testing.T) {
			scenario, err := LoadScenario(file)
			require.NoError(t, err)
			assert.Equal(t, name, scenario.Name, "scenario name must match its file name")

			result, err := RunWithGolden(t, scenario)
			require.NoError(t, err)
			assert.True(t, result.Pass, "errors: %v", result.Errors)
		})
	}
}

func TestSnapshotIsDeterministic(t *testing.T) {
	scenario, err := LoadScenario("testdata/scenarios/grouped_by_a.yaml")
	require.NoError(t, err)

	var first []byte
	for i := 0; i < 5; i++ {
		result, err := Run(scenario)
		require.NoError(t, err)
		data, err := GoldenBytes(scenario, result)
		require.NoError(t, err)
		if first == nil {
			first = data
			continue
		}
		assert.Equal(t, string(first), string(data))
	}
}
