package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/relquery/params"
	"github.com/roach88/relquery/plan"
	"github.com/roach88/relquery/query"
	"github.com/roach88/relquery/schema"
	"github.com/roach88/relquery/sqlgen"
)

// CompileOptions holds flags for the compile command.
type CompileOptions struct {
	*RootOptions
	SchemaDir string
	Root      string
	Request   string // optional YAML request file
}

// CompileResult is the JSON payload for a compiled query.
type CompileResult struct {
	Root string   `json:"root"`
	SQL  string   `json:"sql"`
	Args []any    `json:"args"`
	Join []string `json:"joined_paths,omitempty"`
}

// NewCompileCommand creates the compile command.
func NewCompileCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CompileOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "compile [param...]",
		Short: "Compose request parameters into parameterized SQL",
		Long: `Compose filter/sort/include parameters into a single parameterized
SELECT against the declared schema, without executing it.

Parameters use the same syntax as the query string:

  relquery compile --schema ./schema --root rocket \
      'filter[name]=Apollo' 'sort=-age' 'include=space_center'`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompile(opts, args, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.SchemaDir, "schema", "", "schema directory (CUE files)")
	cmd.Flags().StringVar(&opts.Root, "root", "", "root entity name")
	cmd.Flags().StringVar(&opts.Request, "request", "", "YAML request file (replaces --root and params)")
	_ = cmd.MarkFlagRequired("schema")

	return cmd
}

func runCompile(opts *CompileOptions, args []string, cmd *cobra.Command) error {
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

	sql, sqlArgs, err := sqlgen.Compile(q, reg)
	if err != nil {
		formatter.WriteError("COMPILE_FAILED", err.Error())
		return WrapExitError(ExitFailure, "compile failed", err)
	}

	if sqlArgs == nil {
		sqlArgs = []any{}
	}
	result := CompileResult{Root: q.Root(), SQL: sql, Args: sqlArgs}
	for _, path := range q.Bindings() {
		result.Join = append(result.Join, path.String())
	}

	if opts.Format == "json" {
		return formatter.WriteJSON(CLIResponse{Status: "ok", Data: result})
	}

	fmt.Fprintln(formatter.Writer, sql)
	if len(sqlArgs) > 0 {
		fmt.Fprintf(formatter.Writer, "-- args: %v\n", sqlArgs)
	}
	return nil
}

// composeQuery runs the shared front half of compile and run: load schema,
// assemble parameters, parse, plan.
func composeQuery(schemaDir, root, requestPath string, args []string, formatter *OutputFormatter) (query.Query, *schema.Registry, error) {
	reg, err := schema.Load(schemaDir)
	if err != nil {
		formatter.WriteError("SCHEMA_LOAD_FAILED", err.Error())
		return query.Query{}, nil, WrapExitError(ExitCommandError, "schema load failed", err)
	}
	formatter.VerboseLog("loaded schema: %d entities", len(reg.Entities()))

	rawParams := args
	if requestPath != "" {
		reqFile, loadErr := LoadRequestFile(requestPath)
		if loadErr != nil {
			formatter.WriteError("REQUEST_LOAD_FAILED", loadErr.Error())
			return query.Query{}, nil, WrapExitError(ExitCommandError, "request load failed", loadErr)
		}
		root = reqFile.Root
		rawParams = reqFile.Params
	}
	if root == "" {
		err := fmt.Errorf("--root is required (or provide --request)")
		formatter.WriteError("MISSING_ROOT", err.Error())
		return query.Query{}, nil, WrapExitError(ExitCommandError, "missing root", err)
	}
	if _, ok := reg.Entity(root); !ok {
		err := fmt.Errorf("schema does not declare entity %q", root)
		formatter.WriteError("UNKNOWN_ROOT", err.Error())
		return query.Query{}, nil, WrapExitError(ExitCommandError, "unknown root entity", err)
	}

	pairs, err := paramPairs(rawParams)
	if err != nil {
		formatter.WriteError("BAD_PARAMETER", err.Error())
		return query.Query{}, nil, WrapExitError(ExitCommandError, "bad parameter", err)
	}

	req, err := params.Parse(root, pairs, reg)
	if err != nil {
		formatter.WriteError("PARSE_FAILED", err.Error())
		return query.Query{}, nil, WrapExitError(ExitFailure, "parse failed", err)
	}
	formatter.VerboseLog("parsed %d filter(s), %d sort(s), %d include(s)",
		len(req.Filters), len(req.Sorts), len(req.Includes))

	q, err := plan.Build(query.New(root), req, reg)
	if err != nil {
		formatter.WriteError("PLAN_FAILED", err.Error())
		return query.Query{}, nil, WrapExitError(ExitFailure, "plan failed", err)
	}
	formatter.VerboseLog("planned %d join(s)", len(q.Bindings()))

	return q, reg, nil
}
