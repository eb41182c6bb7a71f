package cli

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"

	"github.com/roach88/reindex/internal/store"
	"github.com/roach88/reindex/internal/testutil"
)

// newTestRootOptions returns options with a fresh database in a temp dir
// and deterministic index IDs ("idx-1", "idx-2", ...).
func newTestRootOptions(t *testing.T, format string) *RootOptions {
	t.Helper()
	return &RootOptions{
		Format: format,
		DB:     filepath.Join(t.TempDir(), "test.db"),
		StoreOptions: []store.Option{
			store.WithIDGenerator(testutil.NewIDSequence("idx")),
		},
	}
}

// runCommand executes cmd with args and returns stdout and stderr.
func runCommand(cmd *cobra.Command, stdin string, args ...string) (string, string, error) {
	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(errOut)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)

	err := cmd.Execute()
	return out.String(), errOut.String(), err
}

// writePeople writes the shared people fixture and returns its path.
func writePeople(t *testing.T) string {
	t.Helper()
	return testutil.WriteFile(t, t.TempDir(), "people.json", testutil.PeopleJSON)
}
