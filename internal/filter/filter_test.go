package filter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/druidq/internal/doc"
	"github.com/roach88/druidq/internal/schema"
)

func mustSelector(t *testing.T, dimension string, value any) Filter {
	t.Helper()
	f, err := Selector(dimension, value)
	require.NoError(t, err)
	return f
}

func TestNewRejectsUnknownKind(t *testing.T) {
	_, err := New("INVALID", doc.Fields{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `Invalid filter type "INVALID". Valid types: and, bound, columnComparison,`)
}

func TestBuildNormalizesKeys(t *testing.T) {
	f, err := New(KindExtraction, doc.Fields{
		"dimension":     "country",
		"output_name":   "country",
		"extraction_fn": map[string]any{"type": "partial", "expr": "^US$"},
	})
	require.NoError(t, err)
	assert.Contains(t, f.Object, "outputName")
	assert.Contains(t, f.Object, "extractionFn")
}

func TestBuildDoesNotValidate(t *testing.T) {
	f, err := Build(KindSelector, doc.Fields{"value": "x"})
	require.NoError(t, err)

	vs := Validate(f)
	require.Len(t, vs, 1)
	assert.Equal(t, "Missing field: dimension required for type: selector", vs[0].Message)
}

func TestSelectorEncodesBooleans(t *testing.T) {
	assert.Equal(t, doc.String("t"), mustSelector(t, "is_active", true).Object["value"])
	assert.Equal(t, doc.String("f"), mustSelector(t, "is_active", false).Object["value"])
	assert.Equal(t, doc.Null{}, mustSelector(t, "is_active", nil).Object["value"])
}

func TestNegateAlwaysWraps(t *testing.T) {
	f := mustSelector(t, "is_active", "t")

	once := Negate(f)
	twice := Negate(once)

	assert.Equal(t, KindNot, once.Kind())
	assert.Equal(t, KindNot, twice.Kind())

	inner, ok := twice.Object.GetObject("field")
	require.True(t, ok)
	assert.True(t, Wrap(inner).Equal(once))

	innermost, ok := inner.GetObject("field")
	require.True(t, ok)
	assert.True(t, Wrap(innermost).Equal(f))
	assert.Empty(t, Validate(twice))
}

func TestJoinEdgeCases(t *testing.T) {
	a := mustSelector(t, "a", "1")

	_, err := Join()
	assert.ErrorIs(t, err, ErrNothingToJoin)

	_, err = Join(Filter{}, Filter{})
	assert.ErrorIs(t, err, ErrNothingToJoin)

	got, err := Join(a)
	require.NoError(t, err)
	assert.True(t, got.Equal(a))

	got, err = Join(Filter{}, a)
	require.NoError(t, err)
	assert.True(t, got.Equal(a), "empty filters are skipped")
}

func TestJoinPlainFilters(t *testing.T) {
	active := mustSelector(t, "is_active", "t")
	browser := mustSelector(t, "browser", "Chrome")

	got, err := Join(active, browser)
	require.NoError(t, err)
	assert.True(t, got.Equal(And(active, browser)))
}

func TestDisjoinPlainFilters(t *testing.T) {
	active := mustSelector(t, "is_active", "t")
	browser := mustSelector(t, "browser", "Chrome")

	got, err := Disjoin(active, browser)
	require.NoError(t, err)
	assert.True(t, got.Equal(Or(active, browser)))
}

func TestDisjoinAlwaysProducesOr(t *testing.T) {
	a, b, c, d := mustSelector(t, "a", "1"), mustSelector(t, "b", "2"), mustSelector(t, "c", "3"), mustSelector(t, "d", "4")

	tests := []struct {
		name string
		in   []Filter
		want Filter
	}{
		{"two ands", []Filter{And(a, b), And(c, d)}, Or(And(a, b), And(c, d))},
		{"two ors", []Filter{Or(a, b), Or(c, d)}, Or(a, b, c, d)},
		{"or then plain", []Filter{Or(a, b), c}, Or(a, b, c)},
		{"plain then or", []Filter{c, Or(a, b)}, Or(c, a, b)},
		{"and and plain", []Filter{And(a, b), c}, Or(And(a, b), c)},
		{"and and or", []Filter{And(a, b), Or(c, d)}, Or(And(a, b), c, d)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Disjoin(tt.in...)
			require.NoError(t, err)
			assert.Equal(t, KindOr, got.Kind())
			assert.True(t, got.Equal(tt.want), "got %s", mustJSON(t, got))
		})
	}
}

func TestJoinSingleFilterIsCopy(t *testing.T) {
	a := mustSelector(t, "a", "1")

	for _, combine := range []func(...Filter) (Filter, error){Join, Disjoin} {
		got, err := combine(Filter{}, a)
		require.NoError(t, err)
		require.True(t, got.Equal(a))

		got.Object["value"] = doc.String("changed")
		assert.Equal(t, doc.String("1"), a.Object["value"])
	}
}

func TestJoinFlattensSameKind(t *testing.T) {
	a, b, c, d := mustSelector(t, "a", "1"), mustSelector(t, "b", "2"), mustSelector(t, "c", "3"), mustSelector(t, "d", "4")

	tests := []struct {
		name string
		in   []Filter
		want Filter
	}{
		{"two ands", []Filter{And(a, b), And(c, d)}, And(a, b, c, d)},
		{"two ors", []Filter{Or(a, b), Or(c)}, Or(a, b, c)},
		{"and then plain", []Filter{And(a, b), c}, And(a, b, c)},
		{"plain then and", []Filter{c, And(a, b)}, And(c, a, b)},
		{"or and plain", []Filter{Or(a, b), c}, And(Or(a, b), c)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Join(tt.in...)
			require.NoError(t, err)
			assert.True(t, got.Equal(tt.want), "got %s", mustJSON(t, got))
		})
	}
}

func TestJoinAssociativeUnderFlattening(t *testing.T) {
	a, b, c := And(mustSelector(t, "a", "1")), And(mustSelector(t, "b", "2")), And(mustSelector(t, "c", "3"))

	ab, err := Join(a, b)
	require.NoError(t, err)
	left, err := Join(ab, c)
	require.NoError(t, err)

	flat, err := Join(a, b, c)
	require.NoError(t, err)

	assert.True(t, left.Equal(flat))
	assert.Len(t, flat.Children(), 3)
}

func TestJoinValidatesEveryInput(t *testing.T) {
	ok := mustSelector(t, "a", "1")
	bad1, err := Build(KindSelector, doc.Fields{"value": "x"})
	require.NoError(t, err)
	bad2, err := Build(KindRegex, doc.Fields{"dimension": 3, "pattern": "x"})
	require.NoError(t, err)

	_, err = Join(ok, bad1, bad2)
	require.Error(t, err)

	vs := schema.Violations(err)
	require.Len(t, vs, 2)
	assert.Equal(t, "filters[1].dimension", vs[0].Field)
	assert.Equal(t, "filters[2].dimension", vs[1].Field)
}

func TestJoinDoesNotAliasInputs(t *testing.T) {
	a, b := mustSelector(t, "a", "1"), mustSelector(t, "b", "2")
	joined, err := Join(a, b)
	require.NoError(t, err)

	joined.Children()[0].Object["value"] = doc.String("changed")
	assert.Equal(t, doc.String("1"), a.Object["value"])
}

func TestExtend(t *testing.T) {
	f := mustSelector(t, "country", "US")
	g, err := f.Extend(doc.Fields{"extraction_fn": map[string]any{"type": "upper"}})
	require.NoError(t, err)

	assert.NotContains(t, f.Object, "extractionFn")
	assert.Contains(t, g.Object, "extractionFn")
	assert.Empty(t, Validate(g))
}

func mustJSON(t *testing.T, f Filter) string {
	t.Helper()
	b, err := doc.MarshalCanonical(f.Object)
	require.NoError(t, err)
	return string(b)
}
