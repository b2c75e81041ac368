package filter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/druidq/internal/doc"
)

func TestTranslateComparisons(t *testing.T) {
	tests := []struct {
		name string
		expr Expr
		want string
	}{
		{
			name: "field equals value",
			expr: Expr{Op: "==", Left: Field("browser"), Right: Value("Chrome")},
			want: `{"dimension":"browser","type":"selector","value":"Chrome"}`,
		},
		{
			name: "value equals field",
			expr: Expr{Op: "==", Left: Value(true), Right: Field("is_active")},
			want: `{"dimension":"is_active","type":"selector","value":"t"}`,
		},
		{
			name: "field equals field",
			expr: Expr{Op: "==", Left: Field("a"), Right: Field("b")},
			want: `{"dimensions":["a","b"],"type":"columnComparison"}`,
		},
		{
			name: "not equal",
			expr: Expr{Op: "!=", Left: Field("browser"), Right: Value("Chrome")},
			want: `{"field":{"dimension":"browser","type":"selector","value":"Chrome"},"type":"not"}`,
		},
		{
			name: "greater than string",
			expr: Expr{Op: ">", Left: Field("deleted"), Right: Value("42")},
			want: `{"dimension":"deleted","lower":"42","lowerStrict":true,"ordering":"alphanumeric","type":"bound"}`,
		},
		{
			name: "greater than number",
			expr: Expr{Op: ">", Left: Field("deleted"), Right: Value(42)},
			want: `{"dimension":"deleted","lower":42,"lowerStrict":true,"ordering":"numeric","type":"bound"}`,
		},
		{
			name: "less or equal",
			expr: Expr{Op: "<=", Left: Field("deleted"), Right: Value(42)},
			want: `{"dimension":"deleted","ordering":"numeric","type":"bound","upper":42,"upperStrict":false}`,
		},
		{
			name: "value less than field",
			expr: Expr{Op: "<", Left: Value(42), Right: Field("deleted")},
			want: `{"dimension":"deleted","lower":42,"lowerStrict":true,"ordering":"numeric","type":"bound"}`,
		},
		{
			name: "value greater or equal field",
			expr: Expr{Op: ">=", Left: Value(42), Right: Field("deleted")},
			want: `{"dimension":"deleted","ordering":"numeric","type":"bound","upper":42,"upperStrict":false}`,
		},
		{
			name: "startswith",
			expr: Expr{Op: "startswith", Left: Field("browser"), Right: Value([]string{"Chrom", "Fire"})},
			want: `{"dimension":"browser","pattern":"^Chrom.*|^Fire.*","type":"regex"}`,
		},
		{
			name: "endswith",
			expr: Expr{Op: "endswith", Left: Field("browser"), Right: Value([]string{"Chrom", "Fire"})},
			want: `{"dimension":"browser","pattern":".*Chrom$|.*Fire$","type":"regex"}`,
		},
		{
			name: "in single",
			expr: Expr{Op: "in", Left: Field("country"), Right: Value([]any{"US"})},
			want: `{"dimension":"country","type":"selector","value":"US"}`,
		},
		{
			name: "not in",
			expr: Expr{Op: "not in", Left: Field("country"), Right: Value([]any{"US", "CA"})},
			want: `{"field":{"fields":[{"dimension":"country","type":"selector","value":"US"},{"dimension":"country","type":"selector","value":"CA"}],"type":"or"},"type":"not"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Translate(tt.expr)
			require.NoError(t, err)
			assert.Equal(t, tt.want, mustJSON(t, got))
			assert.Empty(t, Validate(got))
		})
	}
}

func TestTranslateRejectsUnsupported(t *testing.T) {
	tests := []struct {
		name string
		expr Expr
		want string
	}{
		{"constant equality", Expr{Op: "==", Left: Value(1), Right: Value(1)}, "constant comparisons"},
		{"column inequality", Expr{Op: "<", Left: Field("a"), Right: Field("b")}, "column-comparison inequalities"},
		{"dynamic in", Expr{Op: "in", Left: Value("x"), Right: Field("a")}, "dynamic containment"},
		{"unknown operator", Expr{Op: "~"}, "unknown operator"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Translate(tt.expr)
			require.Error(t, err)
			var te *TranslateError
			require.ErrorAs(t, err, &te)
			assert.Contains(t, te.Message, tt.want)
		})
	}
}

func TestTranslateCombinators(t *testing.T) {
	expr := Expr{Op: "and", Operands: []Expr{
		{Op: "==", Left: Field("a"), Right: Value("1")},
		{Op: "in", Left: Field("b"), Right: Value([]any{})},
		{Op: "not", Operand: &Expr{Op: "==", Left: Field("c"), Right: Value("3")}},
	}}

	got, err := Translate(expr)
	require.NoError(t, err)
	assert.Equal(t, KindAnd, got.Kind())
	require.Len(t, got.Children(), 2, "empty in-list drops out")
	assert.Equal(t, KindNot, got.Children()[1].Kind())

	empty, err := Translate(Expr{Op: "or"})
	require.NoError(t, err)
	assert.True(t, empty.IsZero())
}

func TestParseExpr(t *testing.T) {
	v, err := doc.UnmarshalValue([]byte(`{
		"type": "and",
		"filters": [
			{"type": ">", "left": {"type": "field", "field": "deleted"}, "right": {"type": "value", "value": 42}},
			{"type": "not", "filter": {"type": "in", "left": {"type": "field", "field": "country"}, "right": {"type": "value", "value": ["US"]}}}
		]
	}`))
	require.NoError(t, err)

	expr, err := ParseExpr(v.(doc.Object))
	require.NoError(t, err)
	require.Len(t, expr.Operands, 2)
	assert.Equal(t, Field("deleted"), expr.Operands[0].Left)
	assert.Equal(t, Value(int64(42)), expr.Operands[0].Right)

	f, err := Translate(expr)
	require.NoError(t, err)
	assert.Equal(t,
		`{"fields":[{"dimension":"deleted","lower":42,"lowerStrict":true,"ordering":"numeric","type":"bound"},{"field":{"dimension":"country","type":"selector","value":"US"},"type":"not"}],"type":"and"}`,
		mustJSON(t, f))
}

func TestParseExprErrors(t *testing.T) {
	_, err := ParseExpr(doc.Object{})
	require.Error(t, err)

	_, err = ParseExpr(doc.Object{"type": doc.String("=="), "left": doc.Object{"type": doc.String("column")}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `left operand has unknown type "column"`)
}
