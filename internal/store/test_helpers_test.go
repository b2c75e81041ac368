package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/roach88/druidq/internal/testutil"
)

var testEpoch = time.Date(2017, 1, 1, 0, 0, 0, 0, time.UTC)

// createTestStore opens a store in a temp dir with a one-second step clock.
func createTestStore(t *testing.T, opts ...Option) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	clock := testutil.NewStepClock(testEpoch, time.Second)
	s, err := Open(path, append([]Option{WithClock(clock.Now)}, opts...)...)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}
