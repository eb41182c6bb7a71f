package cli

import (
	"fmt"
	"log/slog"
	"slices"

	"github.com/spf13/cobra"

	"github.com/roach88/reindex/internal/config"
	"github.com/roach88/reindex/internal/store"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose bool
	Format  string // "text" | "json" | "yaml"
	DB      string // SQLite database for saved indexes

	// Config supplies defaults resolved from .env and the environment.
	Config *config.Config

	// StoreOptions are applied whenever a command opens the database.
	StoreOptions []store.Option
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{FormatText, FormatJSON, FormatYAML}

// NewRootCommand creates the root command for the reindex CLI.
func NewRootCommand() *cobra.Command {
	cfg, cfgErr := config.Load()
	if cfgErr != nil {
		cfg, _ = config.FromEnv(func(string) string { return "" })
	}
	opts := &RootOptions{Config: cfg}

	cmd := &cobra.Command{
		Use:   "reindex",
		Short: "reindex - key records by a path",
		Long: `Turn a collection of records into a lookup keyed by the value found
at a path inside each record, and keep named snapshots in SQLite.

Defaults come from REINDEX_DB, REINDEX_FORMAT, REINDEX_WORKERS and
REINDEX_LOG_LEVEL (a .env file in the working directory is read first).`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cfgErr != nil {
				return WrapExitError(ExitCommandError, "invalid configuration", cfgErr)
			}
			if !isValidFormat(opts.Format) {
				return NewExitError(ExitCommandError,
					fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
			}
			setupLogging(cmd, opts)
			return nil
		},
	}

	// Global flags
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", cfg.Format, "output format (text|json|yaml)")
	cmd.PersistentFlags().StringVar(&opts.DB, "db", cfg.DB, "path to SQLite database")

	// Add subcommands
	cmd.AddCommand(NewIndexCommand(opts))
	cmd.AddCommand(NewLookupCommand(opts))
	cmd.AddCommand(NewListCommand(opts))
	cmd.AddCommand(NewDropCommand(opts))
	cmd.AddCommand(NewTestCommand(opts))

	return cmd
}

// setupLogging installs a text handler on the command's stderr. --verbose
// forces debug level; otherwise the configured level applies.
func setupLogging(cmd *cobra.Command, opts *RootOptions) {
	level := opts.Config.LogLevel
	if opts.Verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	return slices.Contains(ValidFormats, format)
}

// newFormatter builds the output formatter for a command invocation.
func newFormatter(opts *RootOptions, cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(), // Verbose logs go to stderr to avoid corrupting structured output
		Verbose:   opts.Verbose,
	}
}

// openStore opens the configured database.
func (o *RootOptions) openStore() (*store.Store, error) {
	return store.Open(o.DB, o.StoreOptions...)
}
