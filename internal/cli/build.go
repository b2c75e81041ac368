package cli

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/roach88/druidq/internal/doc"
	"github.com/roach88/druidq/internal/filter"
	"github.com/roach88/druidq/internal/qctx"
	"github.com/roach88/druidq/internal/query"
	"github.com/roach88/druidq/internal/schema"
)

// queryIDAuto asks --query-id for a fresh UUIDv7 per query.
const queryIDAuto = "auto"

// ContextFlags are the query context flags shared by build and exec.
type ContextFlags struct {
	DataSource   string
	TimeoutMS    int64
	PadIntervals bool
	QueryID      string
	FilterFile   string

	// IDGenerator overrides the generator behind --query-id=auto (for testing).
	IDGenerator qctx.IDGenerator
}

func (c *ContextFlags) register(fs *pflag.FlagSet) {
	fs.StringVar(&c.DataSource, "data-source", "", "point the query (or its innermost query data source) at this data source")
	fs.Int64Var(&c.TimeoutMS, "timeout", 0, "set context.timeout in milliseconds")
	fs.BoolVar(&c.PadIntervals, "pad-intervals", false, "widen intervals to whole granularity buckets")
	fs.StringVar(&c.QueryID, "query-id", "", `set context.queryId ("auto" generates a UUIDv7)`)
	fs.StringVar(&c.FilterFile, "filter-file", "", "join the filter document in this file into the query filter")
}

// contexts returns the contexts the flags ask for, outermost first.
func (c *ContextFlags) contexts() ([]qctx.Context, error) {
	var out []qctx.Context
	if c.DataSource != "" {
		out = append(out, qctx.DataSource(c.DataSource))
	}
	if c.TimeoutMS < 0 {
		return nil, &LoadError{Code: ErrCodeInvalidArg, Message: fmt.Sprintf("invalid --timeout %d: must not be negative", c.TimeoutMS)}
	}
	if c.TimeoutMS > 0 {
		out = append(out, qctx.Timeout(c.TimeoutMS))
	}
	if c.FilterFile != "" {
		f, err := loadFilter(c.FilterFile)
		if err != nil {
			return nil, err
		}
		out = append(out, qctx.Filter("filter-file", f))
	}
	if c.PadIntervals {
		out = append(out, qctx.PadIntervals())
	}
	if c.QueryID != "" {
		out = append(out, qctx.QueryID(c.idGenerator()))
	}
	return out, nil
}

func (c *ContextFlags) idGenerator() qctx.IDGenerator {
	if c.QueryID != queryIDAuto {
		return constantID(c.QueryID)
	}
	if c.IDGenerator != nil {
		return c.IDGenerator
	}
	return qctx.UUIDv7Generator{}
}

type constantID string

func (id constantID) Generate() string { return string(id) }

func loadFilter(path string) (filter.Filter, error) {
	obj, err := LoadDocument(path)
	if err != nil {
		return filter.Filter{}, err
	}
	f := filter.Wrap(obj)
	if err := schema.Check(filter.Family, f.Object); err != nil {
		return filter.Filter{}, fmt.Errorf("filter file %s: %w", path, err)
	}
	return f, nil
}

// process runs q through contexts and checks the result still holds.
func process(ctx context.Context, contexts []qctx.Context, q query.Query) (query.Query, error) {
	var out query.Query
	err := qctx.WithinAll(ctx, contexts, func(ctx context.Context) error {
		processed, err := qctx.Process(ctx, q)
		if err != nil {
			return err
		}
		if err := schema.Check(query.Family, processed.Object); err != nil {
			return err
		}
		out = processed
		return nil
	})
	return out, err
}

// BuildOptions holds flags for the build command.
type BuildOptions struct {
	*RootOptions
	ContextFlags
	Indent bool
}

// NewBuildCommand creates the build command.
func NewBuildCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &BuildOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "build <file>",
		Short: "Apply context flags to a query and print its canonical JSON",
		Long: `Load a query document, validate it, apply the context flags and print
the result as canonical JSON (sorted keys, camelCase field names).

Example:
  druidq build --data-source wikipedia --timeout 30000 query.yaml
  druidq build --pad-intervals --query-id auto query.cue`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBuild(opts, args[0], cmd)
		},
	}

	opts.ContextFlags.register(cmd.Flags())
	cmd.Flags().BoolVar(&opts.Indent, "indent", false, "indent the JSON output")

	return cmd
}

func runBuild(opts *BuildOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	q, err := prepareQuery(cmd.Context(), formatter, &opts.ContextFlags, path)
	if err != nil {
		return err
	}

	encoded, err := doc.MarshalCanonical(q.Object)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeGeneric, err.Error(), nil)
	}

	if formatter.JSON() {
		return formatter.Respond(CLIResponse{
			Data:    json.RawMessage(encoded),
			QueryID: queryID(q),
		})
	}
	formatter.PrintJSON(encoded, opts.Indent)
	return nil
}

// prepareQuery loads, validates and processes the query at path, reporting
// failures through formatter.
func prepareQuery(ctx context.Context, formatter *OutputFormatter, flags *ContextFlags, path string) (query.Query, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	obj, err := LoadDocument(path)
	if err != nil {
		code, msg := loadErrorCode(err)
		return query.Query{}, formatter.Fail(ExitCommandError, code, msg, nil)
	}
	formatter.VerboseLog("Loaded %s", path)

	q, err := query.Parse(obj)
	if err != nil {
		return query.Query{}, reportQueryError(formatter, err)
	}

	contexts, err := flags.contexts()
	if err != nil {
		if violations := schema.Violations(err); violations != nil {
			return query.Query{}, outputViolations(formatter, violations)
		}
		code, msg := loadErrorCode(err)
		return query.Query{}, formatter.Fail(ExitCommandError, code, msg, nil)
	}
	for _, c := range contexts {
		formatter.VerboseLog("Entering context %s", c.Name)
	}

	processed, err := process(ctx, contexts, q)
	if err != nil {
		return query.Query{}, reportQueryError(formatter, err)
	}
	return processed, nil
}

func reportQueryError(formatter *OutputFormatter, err error) error {
	if violations := schema.Violations(err); violations != nil {
		return outputViolations(formatter, violations)
	}
	return formatter.Fail(ExitFailure, ErrCodeGeneric, err.Error(), nil)
}

func queryID(q query.Query) string {
	ctx, ok := q.Context()
	if !ok {
		return ""
	}
	id, _ := ctx.GetString("queryId")
	return id
}
