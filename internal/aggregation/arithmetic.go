package aggregation

import (
	"fmt"
	"strconv"

	"github.com/roach88/druidq/internal/doc"
)

var fnNames = map[string]string{
	"/": "div",
	"+": "add",
	"-": "sub",
	"*": "mul",
}

// Arithmetic combines two operands with fn. Operands may be numbers (turned
// into constants), Aggregations (turned into field accessors) or
// PostAggregations. An empty name is derived as "<left>__<fn>__<right>".
func Arithmetic(fn string, left, right any, name string) (PostAggregation, error) {
	short, ok := fnNames[fn]
	if !ok {
		return PostAggregation{}, fmt.Errorf("operator must be one of + - * /, found %q", fn)
	}
	l, err := toPost(left)
	if err != nil {
		return PostAggregation{}, fmt.Errorf("left operand: %w", err)
	}
	r, err := toPost(right)
	if err != nil {
		return PostAggregation{}, fmt.Errorf("right operand: %w", err)
	}
	if name == "" {
		name = l.Name() + "__" + short + "__" + r.Name()
	}
	return NewPost(PostArithmetic, doc.Fields{
		"fn":     fn,
		"fields": []any{l, r},
		"name":   name,
	})
}

// Divide is Arithmetic("/", left, right, "").
func Divide(left, right any) (PostAggregation, error) {
	return Arithmetic("/", left, right, "")
}

// Multiply is Arithmetic("*", left, right, "").
func Multiply(left, right any) (PostAggregation, error) {
	return Arithmetic("*", left, right, "")
}

// Add is Arithmetic("+", left, right, "").
func Add(left, right any) (PostAggregation, error) {
	return Arithmetic("+", left, right, "")
}

// Subtract is Arithmetic("-", left, right, "").
func Subtract(left, right any) (PostAggregation, error) {
	return Arithmetic("-", left, right, "")
}

// Rate divides numerator by denominator. Strings name aggregator outputs and
// become field accessors.
func Rate(numerator, denominator any, name string) (PostAggregation, error) {
	num, err := rateOperand(numerator)
	if err != nil {
		return PostAggregation{}, fmt.Errorf("numerator: %w", err)
	}
	den, err := rateOperand(denominator)
	if err != nil {
		return PostAggregation{}, fmt.Errorf("denominator: %w", err)
	}
	return Arithmetic("/", num, den, name)
}

func rateOperand(v any) (any, error) {
	if field, ok := v.(string); ok {
		return NewPost(PostFieldAccess, doc.Fields{"fieldName": field})
	}
	return v, nil
}

func toPost(v any) (PostAggregation, error) {
	switch val := v.(type) {
	case PostAggregation:
		return val, nil
	case Aggregation:
		return ToFieldAccess(val, "")
	case int:
		return constant(doc.Int(val), strconv.Itoa(val))
	case int64:
		return constant(doc.Int(val), strconv.FormatInt(val, 10))
	case float64:
		return constant(doc.Float(val), strconv.FormatFloat(val, 'f', -1, 64))
	default:
		return PostAggregation{}, fmt.Errorf("value must be a number, Aggregation or PostAggregation, found %T", v)
	}
}

func constant(v doc.Value, label string) (PostAggregation, error) {
	return NewPost(PostConstant, doc.Fields{"value": v, "name": "constant__" + label})
}
