package ir

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalCanonicalBasic(t *testing.T) {
	tests := []struct {
		name     string
		input    any
		expected string
	}{
		{"null", nil, "null"},
		{"string", "hello", `"hello"`},
		{"empty string", "", `""`},
		{"int", 42, "42"},
		{"int64", int64(-100), "-100"},
		{"uint8", uint8(7), "7"},
		{"max int64", int64(math.MaxInt64), "9223372036854775807"},
		{"integral float", 3.0, "3"},
		{"fractional float", 1.5, "1.5"},
		{"json number int", json.Number("12"), "12"},
		{"json number float", json.Number("0.25"), "0.25"},
		{"bool true", true, "true"},
		{"empty array", []any{}, "[]"},
		{"empty object", Record{}, "{}"},
		{"mixed array", []any{1, "a", false, nil}, `[1,"a",false,null]`},
		{"simple object", Record{"a": 1}, `{"a":1}`},
		{"string key", KeyString("A1"), `"A1"`},
		{"int key", KeyInt(3), "3"},
		{"typed slice", []map[string]any{{"a": 1}}, `[{"a":1}]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := MarshalCanonical(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, string(result))
		})
	}
}

func TestMarshalCanonicalSortedKeys(t *testing.T) {
	obj := Record{
		"zebra": 1,
		"alpha": 2,
		"beta":  3,
	}

	result, err := MarshalCanonical(obj)
	require.NoError(t, err)
	assert.Equal(t, `{"alpha":2,"beta":3,"zebra":1}`, string(result))
}

func TestMarshalCanonicalNestedSortedKeys(t *testing.T) {
	obj := Record{
		"z": Record{
			"b": 1,
			"a": []any{Record{"y": true, "x": false}},
		},
		"a": 3,
	}

	result, err := MarshalCanonical(obj)
	require.NoError(t, err)
	assert.Equal(t, `{"a":3,"z":{"a":[{"x":false,"y":true}],"b":1}}`, string(result))
}

func TestMarshalCanonicalUTF16Ordering(t *testing.T) {
	// U+E000 vs U+10000 - UTF-16 order differs from UTF-8
	obj := Record{
		"\uE000":     1, // UTF-16: 0xE000
		"\U00010000": 2, // UTF-16: 0xD800, 0xDC00 (surrogate pair)
	}

	result, err := MarshalCanonical(obj)
	require.NoError(t, err)

	expected := "{\"\U00010000\":2,\"\uE000\":1}"
	assert.Equal(t, expected, string(result))
}

func TestMarshalCanonicalNoHTMLEscape(t *testing.T) {
	result, err := MarshalCanonical("<script>alert('x') & more</script>")
	require.NoError(t, err)
	assert.Equal(t, `"<script>alert('x') & more</script>"`, string(result))
	assert.NotContains(t, string(result), `\u003c`)
	assert.NotContains(t, string(result), `\u0026`)
}

func TestMarshalCanonicalLineSeparators(t *testing.T) {
	result, err := MarshalCanonical("a\u2028b\u2029c")
	require.NoError(t, err)
	assert.Equal(t, "\"a\u2028b\u2029c\"", string(result))

	// A literal backslash followed by the text u2028 stays escaped.
	result, err = MarshalCanonical(`x\u2028`)
	require.NoError(t, err)
	assert.Equal(t, `"x\\u2028"`, string(result))
}

func TestMarshalCanonicalNFC(t *testing.T) {
	// "e" + combining acute accent normalizes to a single code point.
	result, err := MarshalCanonical("e\u0301")
	require.NoError(t, err)
	assert.Equal(t, "\"\u00e9\"", string(result))
}

func TestMarshalExactKeepsDecomposedStrings(t *testing.T) {
	rec := Record{"e\u0301": "e\u0301", "k": KeyString("e\u0301")}

	exact, err := MarshalExact(rec)
	require.NoError(t, err)
	assert.Equal(t, "{\"e\u0301\":\"e\u0301\",\"k\":\"e\u0301\"}", string(exact))

	canonical, err := MarshalCanonical(rec)
	require.NoError(t, err)
	assert.Equal(t, "{\"k\":\"\u00e9\",\"\u00e9\":\"\u00e9\"}", string(canonical))
}

func TestMarshalCanonicalRejectsNonFinite(t *testing.T) {
	_, err := MarshalCanonical(math.NaN())
	require.Error(t, err)

	_, err = MarshalCanonical(Record{"x": math.Inf(1)})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `value for key "x"`)
}

func TestMarshalCanonicalUnsupported(t *testing.T) {
	_, err := MarshalCanonical(struct{}{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported type")

	_, err = MarshalCanonical(map[int]any{1: "a"})
	require.Error(t, err)
}

func TestMarshalCanonicalDeterministic(t *testing.T) {
	rec := Record{"c": 3, "a": 1, "b": Record{"z": 1, "y": 2}}

	first, err := MarshalCanonical(rec)
	require.NoError(t, err)
	for i := 0; i < 20; i++ {
		again, err := MarshalCanonical(rec)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}
