package testutil

// FixedIDGenerator generates the same ID every time.
//
// It satisfies qctx.IDGenerator, so a queryId context built from it stamps
// byte-identical documents across runs, which keeps golden output stable.
//
// Thread-safety: FixedIDGenerator is stateless and safe for concurrent use.
type FixedIDGenerator struct {
	id string
}

// NewFixedIDGenerator creates a new fixed ID generator.
//
// If id is empty, Generate() returns "test-query-default".
func NewFixedIDGenerator(id string) *FixedIDGenerator {
	if id == "" {
		id = "test-query-default"
	}
	return &FixedIDGenerator{id: id}
}

// Generate returns the fixed ID.
func (g *FixedIDGenerator) Generate() string {
	return g.id
}

// Func adapts the generator to the func() string form store.WithIDGenerator
// takes.
func (g *FixedIDGenerator) Func() func() string {
	return g.Generate
}
