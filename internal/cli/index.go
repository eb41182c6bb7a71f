package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/reindex/internal/harness"
	"github.com/roach88/reindex/internal/ir"
	"github.com/roach88/reindex/internal/reindex"
	"github.com/roach88/reindex/internal/source"
	"github.com/roach88/reindex/internal/store"
)

// IndexOptions holds flags for the index command.
type IndexOptions struct {
	*RootOptions
	By          []string // path segments, outermost first
	Strict      bool
	Group       bool
	Workers     int
	InputFormat string // overrides detection by extension
	Save        string // name to save the result under
}

// NewIndexCommand creates the index command.
func NewIndexCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &IndexOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "index <input>",
		Short: "Reindex records by a key path",
		Long: `Load records from a file (or "-" for stdin) and key them by the value
found at the path given with --by. Repeat --by to descend into nested
mappings: --by address --by city keys by record["address"]["city"].

Input format is chosen by extension (.json, .ndjson/.jsonl, .yaml/.yml,
.cue, or a CUE package directory) unless --input-format is set. Stdin
is read as JSON by default.

With --save the result is stored in the database under a unique name
for later lookup.

Exit codes:
  0 - Success
  1 - Reindex failed (duplicate key, missing key in strict mode, invalid input)
  2 - Command error (unreadable input, database errors, name taken)

Examples:
  reindex index people.json --by id
  reindex index people.ndjson --by address --by city --group
  reindex index people.yaml --by id --strict --save people --db people.db
  cat people.json | reindex index - --by id --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runIndex(opts, args[0], cmd)
		},
	}

	defaultWorkers := 0
	if rootOpts.Config != nil {
		defaultWorkers = rootOpts.Config.Workers
	}

	cmd.Flags().StringArrayVar(&opts.By, "by", nil, "key path segment (repeatable, required)")
	_ = cmd.MarkFlagRequired("by")
	cmd.Flags().BoolVar(&opts.Strict, "strict", false, "fail when a record has no scalar value at the path")
	cmd.Flags().BoolVar(&opts.Group, "group", false, "collect records sharing a key instead of failing")
	cmd.Flags().IntVar(&opts.Workers, "workers", defaultWorkers, "resolve keys with N goroutines (0 or 1 is sequential)")
	cmd.Flags().StringVar(&opts.InputFormat, "input-format", "", "input format (json|ndjson|yaml|cue)")
	cmd.Flags().StringVar(&opts.Save, "save", "", "save the result under this name")

	return cmd
}

// IndexOutput is the structured payload of the index command.
type IndexOutput struct {
	Result map[string]any   `json:"result" yaml:"result"`
	Saved  *store.IndexMeta `json:"saved,omitempty" yaml:"saved,omitempty"`
}

func runIndex(opts *IndexOptions, inputPath string, cmd *cobra.Command) error {
	ctx := context.Background()
	formatter := newFormatter(opts.RootOptions, cmd)

	input, err := loadInput(cmd, inputPath, opts.InputFormat)
	if err != nil {
		return failLoad(formatter, err)
	}
	formatter.VerboseLog("Loaded input from %s", inputPath)

	r, err := reindex.Reindex(input, opts.By, reindex.Options{
		Strict:  opts.Strict,
		Group:   opts.Group,
		Workers: opts.Workers,
	})
	if err != nil {
		return failReindex(formatter, err)
	}

	out := IndexOutput{Result: harness.RenderResult(r)}

	if opts.Save != "" {
		meta, err := saveResult(ctx, opts, input, r)
		if err != nil {
			return failStore(formatter, err)
		}
		out.Saved = &meta
	}

	if formatter.Structured() {
		return formatter.Success(out)
	}

	w := cmd.OutOrStdout()
	if err := writeResultText(w, r); err != nil {
		return WrapExitError(ExitCommandError, "failed to render result", err)
	}
	if out.Saved != nil {
		fmt.Fprintf(w, "saved as %s (%s)\n", out.Saved.Name, out.Saved.ID)
	}
	return nil
}

// loadInput reads the command input; "-" reads the command's stdin.
func loadInput(cmd *cobra.Command, path, formatName string) (any, error) {
	var format source.Format
	if formatName != "" {
		f, err := source.ParseFormat(formatName)
		if err != nil {
			return nil, err
		}
		format = f
	}

	if path == source.Stdin {
		if format == "" {
			format = source.FormatJSON
		}
		return source.LoadReader(cmd.InOrStdin(), format)
	}
	if format != "" {
		return source.LoadAs(path, format)
	}
	return source.Load(path)
}

func saveResult(ctx context.Context, opts *IndexOptions, input any, r *reindex.Result) (store.IndexMeta, error) {
	hash, err := ir.SourceHash(input)
	if err != nil {
		return store.IndexMeta{}, fmt.Errorf("hash input: %w", err)
	}

	st, err := opts.openStore()
	if err != nil {
		return store.IndexMeta{}, err
	}
	defer st.Close()

	return st.SaveIndex(ctx, store.SaveRequest{
		Name:       opts.Save,
		Result:     r,
		SourceHash: hash,
	})
}

// writeResultText renders a result as a summary line followed by one line
// per key. Keys and records are canonical JSON.
func writeResultText(w io.Writer, r *reindex.Result) error {
	fmt.Fprintf(w, "%s index on %s: %d keys from %d records (%d dropped)\n",
		r.Mode, r.Path, r.Len(), r.Records, r.Dropped)

	for _, k := range r.Keys() {
		key, err := ir.MarshalKey(k)
		if err != nil {
			return err
		}
		if r.Mode == reindex.ModeUnique {
			rec, err := ir.MarshalCanonical(r.Unique[k])
			if err != nil {
				return err
			}
			fmt.Fprintf(w, "%s\t%s\n", key, rec)
			continue
		}

		group := r.Grouped[k]
		fmt.Fprintf(w, "%s (%d)\n", key, len(group))
		if err := writeRecordsText(w, group, "\t"); err != nil {
			return err
		}
	}
	return nil
}

func writeRecordsText(w io.Writer, records []ir.Record, indent string) error {
	for _, rec := range records {
		data, err := ir.MarshalCanonical(rec)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%s%s\n", indent, data)
	}
	return nil
}

// failLoad reports an input that could not be read or decoded.
func failLoad(formatter *OutputFormatter, err error) error {
	var le *source.LoadError
	if !errors.As(err, &le) {
		return formatter.Fail(ExitCommandError, ErrCodeGeneric, err.Error(), nil)
	}

	msg := le.Message
	if le.Err != nil && le.Err.Error() != le.Message {
		msg = fmt.Sprintf("%s: %v", le.Message, le.Err)
	}
	details := map[string]any{}
	if le.Path != "" {
		details["path"] = le.Path
	}
	if le.Line > 0 {
		details["line"] = le.Line
	}
	if len(details) == 0 {
		return formatter.Fail(ExitCommandError, le.Code, msg, nil)
	}
	return formatter.Fail(ExitCommandError, le.Code, msg, details)
}

// failReindex reports a reindex error with its code and record position.
func failReindex(formatter *OutputFormatter, err error) error {
	var re *reindex.Error
	if !errors.As(err, &re) {
		return formatter.Fail(ExitFailure, ErrCodeGeneric, err.Error(), nil)
	}

	details := map[string]any{}
	if re.Path != nil {
		details["path"] = []string(re.Path)
	}
	switch re.Code {
	case reindex.CodeDuplicateKey:
		details["first_index"] = re.FirstIndex
		details["index"] = re.Index
	case reindex.CodePathKey, reindex.CodePathType, reindex.CodeNonScalarKey:
		details["index"] = re.Index
	case reindex.CodeInvalidInputKind:
		if re.Index >= 0 {
			details["index"] = re.Index
		}
	case reindex.CodeInvalidFlagType, reindex.CodeInvalidPathType:
		details["field"] = re.Field
	}
	if len(details) == 0 {
		return formatter.Fail(ExitFailure, string(re.Code), re.Message, nil)
	}
	return formatter.Fail(ExitFailure, string(re.Code), re.Message, details)
}

// failStore reports a database error.
func failStore(formatter *OutputFormatter, err error) error {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return formatter.Fail(ExitCommandError, ErrCodeNotFound, err.Error(), nil)
	case errors.Is(err, store.ErrNameTaken):
		return formatter.Fail(ExitCommandError, ErrCodeNameTaken, err.Error(), nil)
	default:
		return formatter.Fail(ExitCommandError, ErrCodeStore, err.Error(), nil)
	}
}
