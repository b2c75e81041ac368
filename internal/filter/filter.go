// Package filter builds and combines Druid filter documents.
//
// A Filter is a document discriminated by "type". Composite filters hold
// their children under "fields" (and, or) or "field" (not). Join and Disjoin
// flatten composites of the same kind instead of nesting them; Negate always
// wraps.
package filter

import (
	"errors"

	"github.com/roach88/druidq/internal/doc"
	"github.com/roach88/druidq/internal/schema"
)

// Filter kinds.
const (
	KindSelector         = "selector"
	KindRegex            = "regex"
	KindAnd              = "and"
	KindOr               = "or"
	KindNot              = "not"
	KindIn               = "in"
	KindLike             = "like"
	KindBound            = "bound"
	KindInterval         = "interval"
	KindColumnComparison = "columnComparison"
	KindJavaScript       = "javascript"
	KindExtraction       = "extraction"
	KindSearch           = "search"
)

// ErrNothingToJoin is returned by Join and Disjoin when every input is empty.
var ErrNothingToJoin = errors.New("no filters to join")

// Family is the filter rule table.
var Family = &schema.Family{Name: "filter", Discriminant: "type"}

func init() {
	child := schema.DocumentOf(Family)
	children := schema.ListOf(child)
	extractionFn := schema.Object
	bound := schema.Union(schema.String, schema.Number)

	Family.Kinds = map[string]schema.Rules{
		KindSelector: {
			Required: map[string]schema.FieldType{"dimension": schema.String, "value": schema.Any},
			Optional: map[string]schema.FieldType{"extractionFn": extractionFn},
		},
		KindRegex: {
			Required: map[string]schema.FieldType{"dimension": schema.String, "pattern": schema.String},
			Optional: map[string]schema.FieldType{"extractionFn": extractionFn},
		},
		KindAnd: {Required: map[string]schema.FieldType{"fields": children}},
		KindOr:  {Required: map[string]schema.FieldType{"fields": children}},
		KindNot: {Required: map[string]schema.FieldType{"field": child}},
		KindIn: {
			Required: map[string]schema.FieldType{"dimension": schema.String, "values": schema.List},
			Optional: map[string]schema.FieldType{"extractionFn": extractionFn},
		},
		KindLike: {
			Required: map[string]schema.FieldType{"dimension": schema.String, "pattern": schema.String},
			Optional: map[string]schema.FieldType{"escape": schema.String, "extractionFn": extractionFn},
		},
		KindBound: {
			Required: map[string]schema.FieldType{"dimension": schema.String},
			Optional: map[string]schema.FieldType{
				"extractionFn": extractionFn,
				"ordering":     schema.OneOf(Orderings...),
				"lower":        bound,
				"lowerStrict":  schema.Bool,
				"upper":        bound,
				"upperStrict":  schema.Bool,
			},
		},
		KindInterval: {
			Required: map[string]schema.FieldType{"dimension": schema.String, "intervals": schema.ListOf(schema.String)},
			Optional: map[string]schema.FieldType{"extractionFn": extractionFn},
		},
		KindColumnComparison: {
			Required: map[string]schema.FieldType{"dimensions": schema.List},
		},
		KindJavaScript: {
			Required: map[string]schema.FieldType{"dimension": schema.String, "function": schema.String},
			Optional: map[string]schema.FieldType{"extractionFn": extractionFn},
		},
		KindExtraction: {
			Required: map[string]schema.FieldType{
				"dimension":    schema.String,
				"outputName":   schema.String,
				"extractionFn": extractionFn,
			},
		},
		KindSearch: {
			Required: map[string]schema.FieldType{"dimension": schema.String, "query": schema.Object},
			Optional: map[string]schema.FieldType{"extractionFn": extractionFn},
		},
	}
}

// Bound orderings accepted by Druid.
var Orderings = []string{"lexicographic", "alphanumeric", "numeric", "strlen", "version"}

// Filter is a filter document. The zero Filter is empty and is skipped by
// Join and Disjoin.
type Filter struct {
	doc.Object
}

// Wrap treats an existing document as a filter without validating it.
func Wrap(obj doc.Object) Filter {
	return Filter{Object: obj}
}

// Build creates a filter of the given kind without validating it.
func Build(kind string, fields doc.Fields) (Filter, error) {
	obj, err := doc.New(fields)
	if err != nil {
		return Filter{}, err
	}
	obj["type"] = doc.String(kind)
	return Filter{Object: Family.ApplyDefaults(obj)}, nil
}

// New creates a filter and validates it.
func New(kind string, fields doc.Fields) (Filter, error) {
	f, err := Build(kind, fields)
	if err != nil {
		return Filter{}, err
	}
	if err := schema.Check(Family, f.Object); err != nil {
		return Filter{}, err
	}
	return f, nil
}

// Validate returns every rule f breaks.
func Validate(f Filter) []schema.Violation {
	return schema.Validate(Family, f.Object)
}

// Kind returns the filter type, or "" for an empty filter.
func (f Filter) Kind() string {
	return Family.KindOf(f.Object)
}

// IsZero reports whether f is the empty filter.
func (f Filter) IsZero() bool {
	return len(f.Object) == 0
}

// Extend returns a copy of f with fields merged in.
func (f Filter) Extend(fields doc.Fields) (Filter, error) {
	obj, err := f.Object.Extend(fields)
	if err != nil {
		return Filter{}, err
	}
	return Filter{Object: obj}, nil
}

// Equal reports whether both filters have the same content.
func (f Filter) Equal(other Filter) bool {
	return f.Object.Equal(other.Object)
}

// Negate returns a not filter wrapping f.
func (f Filter) Negate() Filter {
	return Negate(f)
}

// Children returns the children of an and/or filter.
func (f Filter) Children() []Filter {
	arr, _ := f.Object["fields"].(doc.Array)
	out := make([]Filter, 0, len(arr))
	for _, v := range arr {
		if obj, ok := v.(doc.Object); ok {
			out = append(out, Filter{Object: obj})
		}
	}
	return out
}
