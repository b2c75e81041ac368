package cli

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIntervalCommand(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"start and units", []string{"--start", "2017-01-01", "--days", "7"}, "2017-01-01/P7D"},
		{"start and end", []string{"--start", "2017-01-01", "--end", "2017-01-02"}, "2017-01-01/2017-01-02"},
		{"end and duration", []string{"--end", "2017-01-08", "--duration", "P1W"}, "P1W/2017-01-08"},
		{"weeks", []string{"--end", "2017-01-08", "--weeks", "1"}, "P1W/2017-01-08"},
		{"whole interval", []string{"--interval", "2017-01-01/2017-02-01"}, "2017-01-01/2017-02-01"},
		{"pad by granularity", []string{"--start", "2017-01-01T06:30:00", "--hours", "1", "--pad-by", "day"},
			"2017-01-01T00:00:00/2017-01-02T00:00:00"},
		{"pad by duration", []string{"--interval", "2017-01-01T06:10:00/2017-01-01T06:50:00", "--pad-by", "30m"},
			"2017-01-01T06:00:00/2017-01-01T07:00:00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := runCLI(t, append([]string{"interval"}, tt.args...)...)
			require.NoError(t, err)
			assert.Equal(t, tt.want+"\n", out)
		})
	}
}

func TestIntervalBuckets(t *testing.T) {
	out, err := runCLI(t, "--format", "json", "interval",
		"--interval", "2017-01-01/2017-01-11", "--buckets", "10", "--choices", "PT1H,P1D,P1W")
	require.NoError(t, err)

	var resp struct {
		Data IntervalResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "P1D", resp.Data.Granularity)
	assert.Equal(t, "2017-01-01T00:00:00", resp.Data.Start)
	assert.Equal(t, "2017-01-11T00:00:00", resp.Data.End)
}

func TestIntervalNow(t *testing.T) {
	now := time.Date(2017, 1, 2, 12, 0, 0, 0, time.UTC)
	opts := &IntervalOptions{
		RootOptions: &RootOptions{Format: "text"},
		Start:       "2017-01-01",
		EndNow:      true,
		Now:         func() time.Time { return now },
	}

	out := &bytes.Buffer{}
	cmd := NewIntervalCommand(opts.RootOptions)
	cmd.SetOut(out)
	require.NoError(t, runInterval(opts, cmd))
	assert.Equal(t, "2017-01-01/2017-01-02T12:00:00\n", out.String())
}

func TestIntervalErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		code int
	}{
		{"nothing given", nil, ExitFailure},
		{"end only", []string{"--end", "2017-01-01"}, ExitFailure},
		{"bad pad", []string{"--interval", "2017-01-01/2017-01-02", "--pad-by", "fortnight"}, ExitCommandError},
		{"pad all", []string{"--interval", "2017-01-01/2017-01-02", "--pad-by", "all"}, ExitCommandError},
		{"pad bare duration", []string{"--duration", "P1D", "--pad-by", "day"}, ExitFailure},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := runCLI(t, append([]string{"interval"}, tt.args...)...)
			require.Error(t, err)
			assert.Equal(t, tt.code, GetExitCode(err))
		})
	}
}
