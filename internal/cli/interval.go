package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/druidq/internal/temporal"
)

// IntervalOptions holds flags for the interval command.
type IntervalOptions struct {
	*RootOptions
	Interval string
	Start    string
	End      string
	Duration string
	Units    temporal.Units
	EndNow   bool
	PadBy    string

	Buckets    int
	Choices    []string
	Resolution string

	// Now overrides the clock behind --now (for testing).
	Now func() time.Time
}

// IntervalResult is the JSON payload of the interval command.
type IntervalResult struct {
	Interval    string `json:"interval"`
	Start       string `json:"start,omitempty"`
	End         string `json:"end,omitempty"`
	Granularity string `json:"granularity,omitempty"`
}

// NewIntervalCommand creates the interval command.
func NewIntervalCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &IntervalOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "interval",
		Short: "Build a Druid interval string",
		Long: `Build an ISO-8601 interval from a start, an end and a duration (any two,
or all three when consistent), or from a whole --interval.

The duration is either --duration (an ISO-8601 period such as P1D) or the
unit flags (--days 1 --hours 6). --pad-by widens the result to whole
buckets, given as a Go duration (90m) or a granularity (hour, day, ...).
--buckets picks a granularity that splits the interval into about that
many buckets.

Example:
  druidq interval --start 2017-01-01 --days 7
  druidq interval --end 2017-01-08T06:30:00 --weeks 1 --pad-by day
  druidq interval --interval 2017-01-01/2017-02-01 --buckets 10 --choices P1D,PT6H`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInterval(opts, cmd)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.Interval, "interval", "", "a whole interval, start/end, start/period or period/end")
	f.StringVar(&opts.Start, "start", "", "start timestamp")
	f.StringVar(&opts.End, "end", "", "end timestamp")
	f.StringVar(&opts.Duration, "duration", "", "ISO-8601 period")
	f.IntVar(&opts.Units.Years, "years", 0, "duration years")
	f.IntVar(&opts.Units.Months, "months", 0, "duration months")
	f.IntVar(&opts.Units.Weeks, "weeks", 0, "duration weeks")
	f.IntVar(&opts.Units.Days, "days", 0, "duration days")
	f.IntVar(&opts.Units.Hours, "hours", 0, "duration hours")
	f.IntVar(&opts.Units.Minutes, "minutes", 0, "duration minutes")
	f.IntVar(&opts.Units.Seconds, "seconds", 0, "duration seconds")
	f.BoolVar(&opts.EndNow, "now", false, "end a start-only or duration-only interval at the current time")
	f.StringVar(&opts.PadBy, "pad-by", "", "pad to whole buckets of a Go duration or granularity")
	f.IntVar(&opts.Buckets, "buckets", 0, "suggest a granularity giving about this many buckets")
	f.StringSliceVar(&opts.Choices, "choices", nil, "candidate periods for --buckets")
	f.StringVar(&opts.Resolution, "resolution", "", "round the --buckets granularity to a multiple of this period")

	return cmd
}

func runInterval(opts *IntervalOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	spec := temporal.IntervalSpec{
		Interval: opts.Interval,
		Units:    opts.Units,
	}
	if opts.Start != "" {
		spec.Start = opts.Start
	}
	if opts.End != "" {
		spec.End = opts.End
	}
	if opts.Duration != "" {
		spec.Duration = opts.Duration
	}
	if opts.EndNow {
		spec.Now = opts.Now
		if spec.Now == nil {
			spec.Now = time.Now
		}
	}

	iv, err := temporal.NewInterval(spec)
	if err != nil {
		return formatter.Fail(ExitFailure, ErrCodeInvalidArg, err.Error(), nil)
	}

	if opts.PadBy != "" {
		delta, err := padDelta(opts.PadBy)
		if err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeInvalidArg, err.Error(), nil)
		}
		if iv, err = temporal.Pad(iv, delta); err != nil {
			return formatter.Fail(ExitFailure, ErrCodeInvalidArg, err.Error(), nil)
		}
		formatter.VerboseLog("Padded by %s", delta)
	}

	result := IntervalResult{Interval: iv.String()}
	if start, end, ok := iv.Resolve(); ok {
		result.Start = temporal.FormatTimestamp(start)
		result.End = temporal.FormatTimestamp(end)
	}

	if opts.Buckets != 0 {
		g, err := temporal.SelectGranularity(iv, opts.Buckets, temporal.SelectOptions{
			Choices:    opts.Choices,
			Resolution: opts.Resolution,
		})
		if err != nil {
			return formatter.Fail(ExitFailure, ErrCodeInvalidArg, err.Error(), nil)
		}
		result.Granularity = g
	}

	if formatter.JSON() {
		return formatter.Success(result)
	}
	fmt.Fprintln(formatter.Writer, result.Interval)
	if result.Granularity != "" {
		fmt.Fprintf(formatter.Writer, "granularity: %s\n", result.Granularity)
	}
	return nil
}

// padDelta reads --pad-by as a granularity token first, then as a Go
// duration.
func padDelta(s string) (time.Duration, error) {
	if g, err := temporal.NewSimpleGranularity(s); err == nil {
		delta, ok := g.Delta()
		if !ok {
			return 0, fmt.Errorf("invalid --pad-by %q: granularity has no fixed width", s)
		}
		return delta, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid --pad-by %q: expecting a granularity or a duration such as 90m", s)
	}
	return d, nil
}
