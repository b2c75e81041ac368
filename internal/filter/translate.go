package filter

import (
	"fmt"
	"strings"

	"github.com/roach88/druidq/internal/doc"
)

// Operand is one side of a comparison: a field reference or a constant.
type Operand struct {
	Field   string
	Value   any
	IsField bool
}

// Field refers to a dimension.
func Field(name string) Operand {
	return Operand{Field: name, IsField: true}
}

// Value is a constant.
func Value(v any) Operand {
	return Operand{Value: v}
}

// Expr is a generic comparison tree that Translate turns into Druid filters.
//
// Comparison operators (==, !=, <, <=, >, >=, in, not in, startswith,
// endswith) use Left and Right. and/or use Operands; not uses Operand.
type Expr struct {
	Op       string
	Left     Operand
	Right    Operand
	Operands []Expr
	Operand  *Expr
}

// TranslateError reports an expression Druid cannot evaluate.
type TranslateError struct {
	Op      string
	Message string
}

// Error implements the error interface.
func (e *TranslateError) Error() string {
	return fmt.Sprintf("translate %s: %s", e.Op, e.Message)
}

func unsupported(op, msg string) error {
	return &TranslateError{Op: op, Message: msg}
}

// Translate converts an expression into a filter. Expressions that select
// nothing to filter on (an empty and/or, an empty in-list) translate to the
// empty Filter.
func Translate(e Expr) (Filter, error) {
	switch e.Op {
	case "==", "!=":
		return translateEquality(e)
	case "<", "<=", ">", ">=":
		return translateInequality(e)
	case "in", "not in":
		return translateContains(e)
	case "startswith", "endswith", "endwith":
		return translateAffix(e)
	case "and", "or":
		return translateCombine(e)
	case "not":
		if e.Operand == nil {
			return Filter{}, nil
		}
		inner, err := Translate(*e.Operand)
		if err != nil || inner.IsZero() {
			return inner, err
		}
		return Negate(inner), nil
	default:
		return Filter{}, unsupported(e.Op, "unknown operator")
	}
}

func translateEquality(e Expr) (Filter, error) {
	l, r := e.Left, e.Right
	var (
		f   Filter
		err error
	)
	switch {
	case !l.IsField && !r.IsField:
		return Filter{}, unsupported(e.Op, "Druid does not support constant comparisons")
	case l.IsField && r.IsField:
		f = ColumnComparison(l.Field, r.Field)
	case l.IsField:
		f, err = Selector(l.Field, r.Value)
	default:
		f, err = Selector(r.Field, l.Value)
	}
	if err != nil {
		return Filter{}, err
	}
	if e.Op == "!=" {
		return Negate(f), nil
	}
	return f, nil
}

func translateInequality(e Expr) (Filter, error) {
	l, r := e.Left, e.Right
	switch {
	case l.IsField && r.IsField:
		return Filter{}, unsupported(e.Op, "Druid does not support column-comparison inequalities")
	case !l.IsField && !r.IsField:
		return Filter{}, unsupported(e.Op, "Druid does not support constant comparisons")
	}

	fieldOnLeft := l.IsField
	field, value := l.Field, r.Value
	if !fieldOnLeft {
		field, value = r.Field, l.Value
	}

	ordering := "alphanumeric"
	if isNumber(value) {
		ordering = "numeric"
	}
	strict := e.Op == "<" || e.Op == ">"
	lessThan := e.Op == "<" || e.Op == "<="

	// field < v and v > field both bound the field from above.
	if lessThan == fieldOnLeft {
		return Bound(field, BoundOptions{Upper: value, UpperStrict: strict, Ordering: ordering})
	}
	return Bound(field, BoundOptions{Lower: value, LowerStrict: strict, Ordering: ordering})
}

func translateContains(e Expr) (Filter, error) {
	if !e.Left.IsField || e.Right.IsField {
		return Filter{}, unsupported(e.Op, "Druid does not support dynamic containment checks")
	}
	values, err := valueList(e.Op, e.Right.Value)
	if err != nil {
		return Filter{}, err
	}

	selectors := make([]Filter, 0, len(values))
	for _, v := range values {
		s, err := Selector(e.Left.Field, v)
		if err != nil {
			return Filter{}, err
		}
		selectors = append(selectors, s)
	}

	var f Filter
	switch len(selectors) {
	case 0:
		return Filter{}, nil
	case 1:
		f = selectors[0]
	default:
		f = Or(selectors...)
	}
	if e.Op == "not in" {
		return Negate(f), nil
	}
	return f, nil
}

func translateAffix(e Expr) (Filter, error) {
	if !e.Left.IsField || e.Right.IsField {
		return Filter{}, unsupported(e.Op, "Druid does not support dynamic patterns")
	}
	values, err := valueList(e.Op, e.Right.Value)
	if err != nil {
		return Filter{}, err
	}

	patterns := make([]string, len(values))
	for i, v := range values {
		s, ok := v.(string)
		if !ok {
			return Filter{}, unsupported(e.Op, fmt.Sprintf("pattern must be a string, found %T", v))
		}
		if e.Op == "startswith" {
			patterns[i] = "^" + s + ".*"
		} else {
			patterns[i] = ".*" + s + "$"
		}
	}
	return Regex(e.Left.Field, strings.Join(patterns, "|")), nil
}

func translateCombine(e Expr) (Filter, error) {
	var children []Filter
	for _, sub := range e.Operands {
		f, err := Translate(sub)
		if err != nil {
			return Filter{}, err
		}
		if !f.IsZero() {
			children = append(children, f)
		}
	}
	if len(children) == 0 {
		return Filter{}, nil
	}
	if e.Op == "and" {
		return And(children...), nil
	}
	return Or(children...), nil
}

func valueList(op string, v any) ([]any, error) {
	switch vals := v.(type) {
	case []any:
		return vals, nil
	case []string:
		out := make([]any, len(vals))
		for i, s := range vals {
			out[i] = s
		}
		return out, nil
	case string:
		return []any{vals}, nil
	default:
		return nil, unsupported(op, fmt.Sprintf("expected a list of values, found %T", v))
	}
}

func isNumber(v any) bool {
	switch v.(type) {
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64:
		return true
	case doc.Int, doc.Float:
		return true
	}
	return false
}

// ParseExpr reads an expression from its document form:
//
//	{"type": ">", "left": {"type": "field", "field": "x"}, "right": {"type": "value", "value": 3}}
//	{"type": "and", "filters": [...]}
//	{"type": "not", "filter": {...}}
func ParseExpr(obj doc.Object) (Expr, error) {
	op, ok := obj.GetString("type")
	if !ok {
		return Expr{}, unsupported("", "expression has no type")
	}
	e := Expr{Op: op}

	switch op {
	case "and", "or":
		arr, _ := obj["filters"].(doc.Array)
		for i, v := range arr {
			sub, ok := v.(doc.Object)
			if !ok {
				return Expr{}, unsupported(op, fmt.Sprintf("filters[%d] is not an object", i))
			}
			parsed, err := ParseExpr(sub)
			if err != nil {
				return Expr{}, err
			}
			e.Operands = append(e.Operands, parsed)
		}
	case "not":
		sub, ok := obj.GetObject("filter")
		if !ok {
			return Expr{}, unsupported(op, "missing filter")
		}
		parsed, err := ParseExpr(sub)
		if err != nil {
			return Expr{}, err
		}
		e.Operand = &parsed
	default:
		var err error
		if e.Left, err = parseOperand(op, obj, "left"); err != nil {
			return Expr{}, err
		}
		if e.Right, err = parseOperand(op, obj, "right"); err != nil {
			return Expr{}, err
		}
	}
	return e, nil
}

func parseOperand(op string, obj doc.Object, side string) (Operand, error) {
	o, ok := obj.GetObject(side)
	if !ok {
		return Operand{}, unsupported(op, "missing "+side+" operand")
	}
	kind, _ := o.GetString("type")
	switch kind {
	case "field":
		name, _ := o.GetString("field")
		return Field(name), nil
	case "value":
		return Value(goValue(o["value"])), nil
	default:
		return Operand{}, unsupported(op, fmt.Sprintf("%s operand has unknown type %q", side, kind))
	}
}

// goValue converts a document value back to the Go form Translate expects.
func goValue(v doc.Value) any {
	switch val := v.(type) {
	case doc.String:
		return string(val)
	case doc.Int:
		return int64(val)
	case doc.Float:
		return float64(val)
	case doc.Bool:
		return bool(val)
	case doc.Array:
		out := make([]any, len(val))
		for i, elem := range val {
			out[i] = goValue(elem)
		}
		return out
	case doc.Null, nil:
		return nil
	default:
		return val
	}
}
