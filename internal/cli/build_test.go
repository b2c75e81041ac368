package cli

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/druidq/internal/doc"
	"github.com/roach88/druidq/internal/qctx"
	"github.com/roach88/druidq/internal/testutil"
)

func TestBuildAppliesContextFlags(t *testing.T) {
	out, err := runCLI(t, "build",
		"--data-source", "wikipedia",
		"--timeout", "5000",
		"--pad-intervals",
		"--query-id", "q-1",
		"--filter-file", testdata("filter.json"),
		testdata("timeseries.yaml"))
	require.NoError(t, err)

	testutil.AssertGolden(t, "build_with_contexts", []byte(out))
}

func TestBuildWithoutFlagsIsCanonical(t *testing.T) {
	out, err := runCLI(t, "build", testdata("timeseries.json"))
	require.NoError(t, err)

	obj, err := LoadDocument(testdata("timeseries.json"))
	require.NoError(t, err)
	canonical, err := doc.MarshalCanonical(obj)
	require.NoError(t, err)
	assert.Equal(t, string(canonical)+"\n", out)
}

func TestBuildJSONCarriesQueryID(t *testing.T) {
	out, err := runCLI(t, "--format", "json", "build", "--query-id", "q-7", testdata("timeseries.cue"))
	require.NoError(t, err)

	var resp struct {
		Status  string          `json:"status"`
		Data    json.RawMessage `json:"data"`
		QueryID string          `json:"query_id"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "q-7", resp.QueryID)
	assert.Contains(t, string(resp.Data), `"queryId":"q-7"`)
}

func TestContextFlags_AutoQueryID(t *testing.T) {
	flags := ContextFlags{QueryID: queryIDAuto, IDGenerator: qctx.NewSequenceGenerator("generated")}
	contexts, err := flags.contexts()
	require.NoError(t, err)
	require.Len(t, contexts, 1)
	assert.Equal(t, qctx.NameQueryID, contexts[0].Name)

	assert.Equal(t, "generated", flags.idGenerator().Generate())
	assert.IsType(t, qctx.UUIDv7Generator{}, (&ContextFlags{QueryID: queryIDAuto}).idGenerator())
	assert.Equal(t, constantID("fixed"), (&ContextFlags{QueryID: "fixed"}).idGenerator())
}

func TestContextFlags_Order(t *testing.T) {
	flags := ContextFlags{
		DataSource:   "wikipedia",
		TimeoutMS:    1000,
		PadIntervals: true,
		QueryID:      "q",
		FilterFile:   testdata("filter.json"),
	}
	contexts, err := flags.contexts()
	require.NoError(t, err)

	names := make([]string, len(contexts))
	for i, c := range contexts {
		names[i] = c.Name
	}
	assert.Equal(t, []string{qctx.NameDataSource, qctx.NameTimeout, "filter-file", qctx.NameIntervalPadding, qctx.NameQueryID}, names)
}

func TestBuildRejectsNegativeTimeout(t *testing.T) {
	_, err := runCLI(t, "build", "--timeout", "-1", testdata("timeseries.json"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), ErrCodeInvalidArg)
}

func TestBuildRejectsInvalidFilterFile(t *testing.T) {
	out, err := runCLI(t, "build", "--filter-file", testdata("timeseries.json"), testdata("timeseries.json"))
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "Invalid filter type")
}

func TestBuildInvalidQuery(t *testing.T) {
	out, err := runCLI(t, "build", testdata("invalid.json"))
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "Missing field: granularity")
}
