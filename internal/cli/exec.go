package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/roach88/druidq/internal/broker"
	"github.com/roach88/druidq/internal/query"
	"github.com/roach88/druidq/internal/schema"
	"github.com/roach88/druidq/internal/store"
)

// ExecOptions holds flags for the exec command.
type ExecOptions struct {
	*RootOptions
	ContextFlags
	History   string
	NoHistory bool
}

// NewExecCommand creates the exec command.
func NewExecCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ExecOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "exec <file>",
		Short: "Send a query to the Druid broker",
		Long: `Load a query document, apply the context flags, send it to the configured
broker and print the response.

--data-source and --timeout override broker.data_source and
broker.timeout_ms from the configuration. When a history database is
configured (history.path or --history) every execution is recorded.

Example:
  druidq exec --config druidq.yaml --data-source wikipedia query.json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExec(opts, args[0], cmd)
		},
	}

	opts.ContextFlags.register(cmd.Flags())
	cmd.Flags().StringVar(&opts.History, "history", "", "record the execution in this SQLite database (overrides history.path)")
	cmd.Flags().BoolVar(&opts.NoHistory, "no-history", false, "do not record the execution")

	return cmd
}

func runExec(opts *ExecOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := opts.loadConfig()
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeConfig, err.Error(), nil)
	}
	log := opts.logger(cfg, formatter)

	if opts.TimeoutMS < 0 {
		return formatter.Fail(ExitCommandError, ErrCodeInvalidArg,
			fmt.Sprintf("invalid --timeout %d: must not be negative", opts.TimeoutMS), nil)
	}
	brokerCfg := cfg.Broker
	if opts.DataSource != "" {
		brokerCfg.DataSource = opts.DataSource
	}
	if opts.TimeoutMS > 0 {
		brokerCfg.TimeoutMS = opts.TimeoutMS
	}

	// The client applies dataSource and timeout itself.
	local := opts.ContextFlags
	local.DataSource, local.TimeoutMS = "", 0
	q, err := prepareQuery(ctx, formatter, &local, path)
	if err != nil {
		return err
	}

	client := broker.NewFromConfig(brokerCfg, broker.WithLogger(log))
	formatter.VerboseLog("Broker %s", client.Endpoint())

	prepared, err := client.Prepare(ctx, q)
	if err != nil {
		return reportQueryError(formatter, err)
	}

	resp, sendErr := client.Send(ctx, prepared)
	if err := recordExecution(ctx, opts, cfg.History.Path, log, prepared, resp, sendErr); err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeHistory, err.Error(), nil)
	}
	if sendErr != nil {
		return reportBrokerError(formatter, sendErr)
	}

	if formatter.JSON() {
		return formatter.Respond(CLIResponse{
			Data:    resp.Body,
			QueryID: queryID(prepared),
		})
	}
	formatter.PrintJSON(resp.Body, true)
	formatter.VerboseLog("Completed in %s", resp.Elapsed)
	return nil
}

func reportBrokerError(formatter *OutputFormatter, err error) error {
	var (
		timeoutErr *broker.TimeoutError
		execErr    *broker.ExecutionError
	)
	switch {
	case errors.As(err, &timeoutErr):
		return formatter.Fail(ExitFailure, ErrCodeTimeout, timeoutErr.Error(), nil)
	case errors.As(err, &execErr):
		var details any
		if len(execErr.Response) > 0 {
			details = execErr.Response
		}
		return formatter.Fail(ExitFailure, ErrCodeBroker, execErr.Error(), details)
	case schema.IsSchemaError(err):
		return outputViolations(formatter, schema.Violations(err))
	default:
		return formatter.Fail(ExitFailure, ErrCodeBroker, err.Error(), nil)
	}
}

// recordExecution appends the outcome to the history database, if one is
// configured.
func recordExecution(ctx context.Context, opts *ExecOptions, configured string, log zerolog.Logger,
	sent query.Query, resp *broker.Response, sendErr error) error {
	path := configured
	if opts.History != "" {
		path = opts.History
	}
	if path == "" || opts.NoHistory {
		return nil
	}

	st, err := store.Open(path)
	if err != nil {
		return fmt.Errorf("open history: %w", err)
	}
	defer func() {
		if closeErr := st.Close(); closeErr != nil {
			log.Error().Err(closeErr).Msg("error closing history database")
		}
	}()

	e, err := store.FromQuery(sent)
	if err != nil {
		return err
	}
	switch {
	case sendErr == nil:
		e.Status = store.StatusOK
		e.Duration = resp.Elapsed
	case broker.IsTimeout(sendErr):
		e.Status = store.StatusTimeout
		e.Error = sendErr.Error()
		var te *broker.TimeoutError
		if errors.As(sendErr, &te) {
			e.Duration = te.Elapsed
		}
	default:
		e.Status = store.StatusError
		e.Error = sendErr.Error()
	}

	recorded, err := st.Record(ctx, e)
	if err != nil {
		return err
	}
	log.Debug().Str("id", recorded.ID).Int64("seq", recorded.Seq).Str("status", recorded.Status).Msg("execution recorded")
	return nil
}
