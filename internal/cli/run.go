package cli

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/roach88/relquery/sqlexec"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	SchemaDir string
	Root      string
	Request   string
	DBPath    string
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run [param...]",
		Short: "Compose request parameters and execute against SQLite",
		Long: `Compose filter/sort/include parameters into SQL and execute the
query against a SQLite database, printing result rows.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRun(opts, args, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.SchemaDir, "schema", "", "schema directory (CUE files)")
	cmd.Flags().StringVar(&opts.Root, "root", "", "root entity name")
	cmd.Flags().StringVar(&opts.Request, "request", "", "YAML request file (replaces --root and params)")
	cmd.Flags().StringVar(&opts.DBPath, "db", "", "SQLite database path")
	_ = cmd.MarkFlagRequired("schema")
	_ = cmd.MarkFlagRequired("db")

	return cmd
}

func runRun(opts *RunOptions, args []string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	q, reg, err := composeQuery(opts.SchemaDir, opts.Root, opts.Request, args, formatter)
	if err != nil {
		return err
	}

	logger := zerolog.Nop()
	if opts.Verbose {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: cmd.ErrOrStderr()}).
			With().Timestamp().Logger()
	}

	exec, err := sqlexec.Open(opts.DBPath, logger)
	if err != nil {
		formatter.WriteError("DB_OPEN_FAILED", err.Error())
		return WrapExitError(ExitCommandError, "database open failed", err)
	}
	defer exec.Close()

	rows, err := exec.Run(cmd.Context(), q, reg)
	if err != nil {
		formatter.WriteError("EXECUTE_FAILED", err.Error())
		return WrapExitError(ExitFailure, "execution failed", err)
	}

	if opts.Format == "json" {
		if rows == nil {
			rows = []sqlexec.Row{}
		}
		return formatter.WriteJSON(CLIResponse{Status: "ok", Data: rows})
	}

	writeRowsText(formatter, rows)
	return nil
}

// writeRowsText prints rows one per line with sorted columns, so output is
// stable across runs.
func writeRowsText(formatter *OutputFormatter, rows []sqlexec.Row) {
	fmt.Fprintf(formatter.Writer, "%d row(s)\n", len(rows))
	for _, row := range rows {
		cols := make([]string, 0, len(row))
		for col := range row {
			cols = append(cols, col)
		}
		sort.Strings(cols)

		parts := make([]string, 0, len(cols))
		for _, col := range cols {
			parts = append(parts, fmt.Sprintf("%s=%v", col, row[col]))
		}
		fmt.Fprintln(formatter.Writer, strings.Join(parts, "  "))
	}
}

// Execute runs the root command and exits with the mapped code.
func Execute() {
	cmd := NewRootCommand()
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(GetExitCode(err))
	}
}
