package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/druidq/internal/broker"
)

// SchemaOptions holds flags for the schema command.
type SchemaOptions struct {
	*RootOptions
	DataSource string
}

// NewSchemaCommand creates the schema command.
func NewSchemaCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SchemaOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:           "schema",
		Short:         "List a data source's dimensions and metrics",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSchema(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.DataSource, "data-source", "", "data source to describe (overrides broker.data_source)")

	return cmd
}

func runSchema(opts *SchemaOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := opts.loadConfig()
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeConfig, err.Error(), nil)
	}
	brokerCfg := cfg.Broker
	if opts.DataSource != "" {
		brokerCfg.DataSource = opts.DataSource
	}
	if brokerCfg.DataSource == "" {
		return formatter.Fail(ExitCommandError, ErrCodeInvalidArg, "a data source is required (--data-source or broker.data_source)", nil)
	}

	client := broker.NewFromConfig(brokerCfg, broker.WithLogger(opts.logger(cfg, formatter)))

	s, err := client.FetchSchema(ctx)
	if err != nil {
		return reportBrokerError(formatter, err)
	}

	if formatter.JSON() {
		return formatter.Success(s)
	}
	fmt.Fprintf(formatter.Writer, "dimensions: %s\n", strings.Join(s.Dimensions, ", "))
	fmt.Fprintf(formatter.Writer, "metrics:    %s\n", strings.Join(s.Metrics, ", "))
	return nil
}
