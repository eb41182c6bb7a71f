package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

// NewDropCommand creates the drop command.
func NewDropCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "drop <index>",
		Short: "Delete a saved index",
		Long: `Delete a saved index and all of its entries. The index is named by ID
or by the name it was saved under; the name can be reused afterwards.

Exit codes:
  0 - Success
  2 - Command error (index not found, database errors)

Examples:
  reindex drop people --db people.db`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDrop(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runDrop(opts *RootOptions, ref string, cmd *cobra.Command) error {
	ctx := context.Background()
	formatter := newFormatter(opts, cmd)

	st, err := opts.openStore()
	if err != nil {
		return failStore(formatter, err)
	}
	defer st.Close()

	meta, err := st.DeleteIndex(ctx, ref)
	if err != nil {
		return failStore(formatter, err)
	}

	if formatter.Structured() {
		return formatter.Success(meta)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "dropped %s (%s)\n", meta.Name, meta.ID)
	return nil
}
