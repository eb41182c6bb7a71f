// Command reindex keys collections of records by a path and keeps named
// snapshots of the result in SQLite.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/reindex/internal/cli"
)

func main() {
	err := cli.NewRootCommand().Execute()
	if err != nil {
		fmt.Fprintln(os.Stderr, "reindex:", err)
	}
	os.Exit(cli.GetExitCode(err))
}
