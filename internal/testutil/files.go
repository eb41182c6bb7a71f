package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// PeopleJSON is a small record set used across command tests. Two people
// share a city; one has no address.
const PeopleJSON = `[
  {"id": "p1", "name": "Ada", "age": 31, "address": {"city": "Oslo"}},
  {"id": "p2", "name": "Bo", "age": 47, "address": {"city": "Bergen"}},
  {"id": "p3", "name": "Cy", "age": 31, "address": {"city": "Oslo"}},
  {"id": "p4", "name": "Di", "age": 22}
]`

// WriteFile writes content to dir/name, creating parent directories, and
// returns the full path.
func WriteFile(t testing.TB, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}
