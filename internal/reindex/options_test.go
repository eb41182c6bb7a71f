package reindex

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseOptions(t *testing.T) {
	opts, err := ParseOptions(map[string]any{
		"strict":  true,
		"group":   false,
		"workers": 4,
		"other":   "ignored",
	})
	require.NoError(t, err)
	assert.Equal(t, Options{Strict: true, Workers: 4}, opts)

	opts, err = ParseOptions(nil)
	require.NoError(t, err)
	assert.Equal(t, Options{}, opts)
}

func TestParseOptionsRejectsNonBool(t *testing.T) {
	tests := []struct {
		name  string
		raw   map[string]any
		field string
	}{
		{"strict string", map[string]any{"strict": "yes"}, "strict"},
		{"strict int", map[string]any{"strict": 1}, "strict"},
		{"group string", map[string]any{"group": "true"}, "group"},
		{"workers string", map[string]any{"workers": "4"}, "workers"},
		{"workers negative", map[string]any{"workers": -1}, "workers"},
		{"workers fraction", map[string]any{"workers": 1.5}, "workers"},
		{"workers bad number", map[string]any{"workers": json.Number("2.5")}, "workers"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseOptions(tt.raw)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidFlagType)

			var re *Error
			require.ErrorAs(t, err, &re)
			assert.Equal(t, tt.field, re.Field)
		})
	}
}

func TestParseWorkers(t *testing.T) {
	for _, v := range []any{int64(3), json.Number("3"), 3.0, 3} {
		n, err := ParseWorkers(v)
		require.NoError(t, err)
		assert.Equal(t, 3, n)
	}
}

func TestReindexRejectsNegativeWorkers(t *testing.T) {
	_, err := Reindex([]any{}, "a", Options{Workers: -2})
	assert.ErrorIs(t, err, ErrInvalidFlagType)
}

func TestErrorIsByCode(t *testing.T) {
	err := newDuplicateKeyError(Path{"a"}, nil, 0, 1)
	assert.ErrorIs(t, err, ErrDuplicateKey)
	assert.NotErrorIs(t, err, ErrPathKey)
	assert.Contains(t, err.Message, "value null")
	assert.False(t, err.Is(assert.AnError))

	assert.Equal(t, ErrorCode(""), CodeOf(assert.AnError))
	assert.Equal(t, "PATH_KEY", ErrPathKey.Error())
}
