package testutil

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/druidq/internal/doc"
)

// AssertGolden compares data against testdata/golden/{name}.golden in the
// calling package.
//
// To regenerate golden files, run:
//
//	go test ./internal/... -update
func AssertGolden(t *testing.T, name string, data []byte) {
	t.Helper()
	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, data)
}

// AssertGoldenDocument compares the canonical JSON of obj against a golden
// file. Canonical encoding makes the file independent of key order.
func AssertGoldenDocument(t *testing.T, name string, obj doc.Object) {
	t.Helper()
	data, err := doc.MarshalCanonical(obj)
	if err != nil {
		t.Fatalf("canonical encoding of %s: %v", name, err)
	}
	AssertGolden(t, name, data)
}
