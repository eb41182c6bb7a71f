package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/reindex/internal/ir"
)

// LookupOptions holds flags for the lookup command.
type LookupOptions struct {
	*RootOptions
	String bool // treat the key argument as a string literal
}

// LookupOutput is the structured payload of the lookup command.
type LookupOutput struct {
	Index   string      `json:"index" yaml:"index"`
	Key     ir.Key      `json:"key" yaml:"key"`
	Records []ir.Record `json:"records" yaml:"records"`
}

// NewLookupCommand creates the lookup command.
func NewLookupCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &LookupOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "lookup <index> <key>",
		Short: "Fetch the records stored under a key",
		Long: `Fetch the records a saved index holds under a key. The index is named
by ID or by the name it was saved under.

The key is parsed as a JSON scalar, so 7 is an integer key, true a
boolean key and "7" a string key. Anything that is not a JSON scalar
is taken as a string; --string forces that reading.

A key with no records prints nothing and exits 0.

Exit codes:
  0 - Success
  2 - Command error (index not found, database errors)

Examples:
  reindex lookup people p1 --db people.db
  reindex lookup by-age 31 --db people.db
  reindex lookup by-age 31 --string --db people.db`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLookup(opts, args[0], args[1], cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.String, "string", false, "treat the key as a string")

	return cmd
}

func runLookup(opts *LookupOptions, ref, rawKey string, cmd *cobra.Command) error {
	ctx := context.Background()
	formatter := newFormatter(opts.RootOptions, cmd)

	key := parseKeyArg(rawKey, opts.String)
	formatter.VerboseLog("Looking up %s key %s in %s", key.Kind(), describeKey(key), ref)

	st, err := opts.openStore()
	if err != nil {
		return failStore(formatter, err)
	}
	defer st.Close()

	meta, err := st.GetIndex(ctx, ref)
	if err != nil {
		return failStore(formatter, err)
	}

	records, err := st.Lookup(ctx, meta.ID, key)
	if err != nil {
		return failStore(formatter, err)
	}

	if formatter.Structured() {
		return formatter.Success(LookupOutput{
			Index:   meta.Name,
			Key:     key,
			Records: records,
		})
	}

	if err := writeRecordsText(cmd.OutOrStdout(), records, ""); err != nil {
		return WrapExitError(ExitCommandError, "failed to render records", err)
	}
	return nil
}

// parseKeyArg reads a command-line key as a JSON scalar, falling back to
// the raw string.
func parseKeyArg(raw string, forceString bool) ir.Key {
	if forceString {
		return ir.KeyString(raw)
	}
	k, err := ir.ParseKey([]byte(raw))
	if err != nil {
		return ir.KeyString(raw)
	}
	return k
}

// describeKey renders a key for messages.
func describeKey(k ir.Key) string {
	data, err := ir.MarshalKey(k)
	if err != nil {
		return fmt.Sprint(k)
	}
	return string(data)
}
