package cli

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

// NewListCommand creates the list command.
func NewListCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List saved indexes",
		Long: `List the indexes saved in the database, oldest first.

Exit codes:
  0 - Success
  2 - Command error (database errors)

Examples:
  reindex list --db people.db
  reindex list --db people.db --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(rootOpts, cmd)
		},
	}

	return cmd
}

func runList(opts *RootOptions, cmd *cobra.Command) error {
	ctx := context.Background()
	formatter := newFormatter(opts, cmd)

	st, err := opts.openStore()
	if err != nil {
		return failStore(formatter, err)
	}
	defer st.Close()

	metas, err := st.ListIndexes(ctx)
	if err != nil {
		return failStore(formatter, err)
	}

	if formatter.Structured() {
		return formatter.Success(metas)
	}

	w := cmd.OutOrStdout()
	if len(metas) == 0 {
		fmt.Fprintln(w, "No indexes saved.")
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tMODE\tPATH\tKEYS\tRECORDS\tDROPPED\tSTRICT\tID")
	for _, m := range metas {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%d\t%t\t%s\n",
			m.Name, m.Mode, m.Path, m.Keys, m.Records, m.Dropped, m.Strict, m.ID)
	}
	return tw.Flush()
}
