package cli

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/druidq/internal/schema"
)

func TestValidateValidQuery(t *testing.T) {
	out, err := runCLI(t, "validate", testdata("timeseries.yaml"))
	require.NoError(t, err)
	assert.Contains(t, out, "✓ Valid timeseries query")
}

func TestValidateValidQueryJSON(t *testing.T) {
	out, err := runCLI(t, "--format", "json", "validate", testdata("timeseries.json"))
	require.NoError(t, err)

	var resp struct {
		Status string           `json:"status"`
		Data   ValidationResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.True(t, resp.Data.Valid)
	assert.Equal(t, "timeseries", resp.Data.QueryType)
	assert.Len(t, resp.Data.Hash, 64)
}

func TestValidateReportsEveryViolation(t *testing.T) {
	out, err := runCLI(t, "validate", testdata("invalid.json"))
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, err.Error(), "3 error(s)")

	assert.Contains(t, out, "✗ Invalid Druid query")
	assert.Contains(t, out, "Missing field: granularity required for type: timeseries")
	assert.Contains(t, out, "Missing field: aggregations required for type: timeseries")
	assert.Contains(t, out, "Field intervals has mismatched type")
}

func TestValidateViolationsJSON(t *testing.T) {
	out, err := runCLI(t, "--format", "json", "validate", testdata("invalid.json"))
	require.Error(t, err)

	var resp struct {
		Status string           `json:"status"`
		Data   ValidationResult `json:"data"`
		Error  CLIError         `json:"error"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "error", resp.Status)
	assert.False(t, resp.Data.Valid)
	assert.Len(t, resp.Data.Errors, 3)
	for _, v := range resp.Data.Errors {
		assert.Contains(t, []string{schema.ErrMissingField, schema.ErrMismatchedType}, v.Code)
	}
}

func TestValidateExecutable(t *testing.T) {
	out, err := runCLI(t, "validate", "--executable", testdata("timeseries.json"))
	require.Error(t, err)
	assert.Contains(t, out, "Invalid dataSource: missing")
}

func TestValidateMissingFile(t *testing.T) {
	out, err := runCLI(t, "validate", "/nonexistent/query.json")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), ErrCodeNotFound)
	assert.Contains(t, out, "file not found")
}
