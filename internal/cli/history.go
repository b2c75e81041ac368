package cli

import (
	"context"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/druidq/internal/store"
)

// HistoryOptions holds flags for the history command.
type HistoryOptions struct {
	*RootOptions
	Database string
	Limit    int
	Hash     string
}

// HistoryEntry is one execution as printed by the history command.
type HistoryEntry struct {
	Seq        int64  `json:"seq"`
	ID         string `json:"id"`
	QueryHash  string `json:"query_hash"`
	QueryType  string `json:"query_type"`
	DataSource string `json:"data_source,omitempty"`
	Status     string `json:"status"`
	Error      string `json:"error,omitempty"`
	DurationMS int64  `json:"duration_ms"`
	RecordedAt string `json:"recorded_at"`
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HistoryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded query executions",
		Long: `List executions recorded by exec, newest first.

With --hash only executions of that exact query are listed, oldest first.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "history database (overrides history.path)")
	cmd.Flags().IntVarP(&opts.Limit, "limit", "n", 20, "maximum entries to list (0 for all)")
	cmd.Flags().StringVar(&opts.Hash, "hash", "", "only list executions of the query with this hash")

	return cmd
}

func runHistory(opts *HistoryOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	path := opts.Database
	if path == "" {
		cfg, err := opts.loadConfig()
		if err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeConfig, err.Error(), nil)
		}
		path = cfg.History.Path
	}
	if path == "" {
		return formatter.Fail(ExitCommandError, ErrCodeHistory, "no history database configured (--db or history.path)", nil)
	}

	st, err := store.Open(path)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeHistory, err.Error(), nil)
	}
	defer st.Close()

	var executions []store.Execution
	if opts.Hash != "" {
		executions, err = st.ByHash(ctx, opts.Hash)
	} else {
		executions, err = st.Recent(ctx, opts.Limit)
	}
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeHistory, err.Error(), nil)
	}

	entries := make([]HistoryEntry, len(executions))
	for i, e := range executions {
		entries[i] = HistoryEntry{
			Seq:        e.Seq,
			ID:         e.ID,
			QueryHash:  e.QueryHash,
			QueryType:  e.QueryType,
			DataSource: e.DataSource,
			Status:     e.Status,
			Error:      e.Error,
			DurationMS: e.Duration.Milliseconds(),
			RecordedAt: e.RecordedAt.UTC().Format(time.RFC3339),
		}
	}

	if formatter.JSON() {
		return formatter.Success(entries)
	}
	if len(entries) == 0 {
		fmt.Fprintln(formatter.Writer, "No executions recorded")
		return nil
	}

	w := tabwriter.NewWriter(formatter.Writer, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SEQ\tRECORDED\tTYPE\tDATASOURCE\tSTATUS\tDURATION\tHASH")
	for _, e := range entries {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%dms\t%s\n",
			e.Seq, e.RecordedAt, e.QueryType, e.DataSource, e.Status, e.DurationMS, shortHash(e.QueryHash))
	}
	return w.Flush()
}

func shortHash(h string) string {
	if len(h) > 12 {
		return h[:12]
	}
	return h
}
