package cli

import (
	"bytes"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// runCLI executes the root command with args and returns stdout.
func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	out, errOut := &bytes.Buffer{}, &bytes.Buffer{}
	cmd := NewRootCommand()
	cmd.SetOut(out)
	cmd.SetErr(errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func testdata(name string) string {
	return filepath.Join("testdata", name)
}

// brokerConfig writes a config file pointing at srv and returns its path.
func brokerConfig(t *testing.T, srv *httptest.Server, extra string) string {
	t.Helper()
	u, err := url.Parse(srv.URL)
	require.NoError(t, err)
	host, port, err := net.SplitHostPort(u.Host)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "druidq.yaml")
	body := fmt.Sprintf("broker:\n  host: %s\n  port: %s\n  path: druid/v2\nlog:\n  level: error\n%s", host, port, extra)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

// fakeBroker answers every request with status and body, remembering the
// last request body.
func fakeBroker(t *testing.T, status int, body string, got *[]byte) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got != nil {
			buf := &bytes.Buffer{}
			_, _ = buf.ReadFrom(r.Body)
			*got = buf.Bytes()
		}
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}
