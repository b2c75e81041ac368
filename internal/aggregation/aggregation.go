// Package aggregation builds Druid aggregator and post-aggregator documents.
//
// Mathematical aggregators (longSum, doubleMax, ...) share one rule set.
// WithFilter turns any aggregator into a filtered aggregator, and Dedupe
// drops later entries whose name repeats an earlier one.
package aggregation

import (
	"fmt"

	"github.com/roach88/druidq/internal/doc"
	"github.com/roach88/druidq/internal/filter"
	"github.com/roach88/druidq/internal/schema"
)

// Aggregator kinds.
const (
	KindCount       = "count"
	KindLongSum     = "longSum"
	KindDoubleSum   = "doubleSum"
	KindFloatSum    = "floatSum"
	KindLongMin     = "longMin"
	KindLongMax     = "longMax"
	KindDoubleMin   = "doubleMin"
	KindDoubleMax   = "doubleMax"
	KindFloatMin    = "floatMin"
	KindFloatMax    = "floatMax"
	KindHyperUnique = "hyperUnique"
	KindCardinality = "cardinality"
	KindJavaScript  = "javascript"
	KindFiltered    = "filtered"
)

// MathematicalKinds share the name/fieldName rule set.
var MathematicalKinds = []string{
	KindLongSum, KindDoubleSum, KindFloatSum,
	KindLongMin, KindLongMax,
	KindDoubleMin, KindDoubleMax,
	KindFloatMin, KindFloatMax,
}

// Family is the aggregator rule table.
var Family = &schema.Family{Name: "aggregation", Discriminant: "type"}

func init() {
	kinds := schema.Shared(schema.Rules{
		Required: map[string]schema.FieldType{"name": schema.String, "fieldName": schema.String},
		Optional: map[string]schema.FieldType{"expression": schema.String},
	}, MathematicalKinds...)

	kinds[KindCount] = schema.Rules{
		Required:  map[string]schema.FieldType{"name": schema.String},
		Forbidden: []string{"fieldName"},
	}
	kinds[KindHyperUnique] = schema.Rules{
		Required: map[string]schema.FieldType{"fieldName": schema.String},
		Optional: map[string]schema.FieldType{
			"name":               schema.String,
			"isInputHyperUnique": schema.Bool,
			"round":              schema.Bool,
		},
		Defaults: defaultNameFromField,
	}
	kinds[KindCardinality] = schema.Rules{
		Required: map[string]schema.FieldType{"name": schema.String, "fields": schema.List},
		Optional: map[string]schema.FieldType{"byRow": schema.Bool, "round": schema.Bool},
	}
	kinds[KindJavaScript] = schema.Rules{
		Required: map[string]schema.FieldType{
			"name":        schema.String,
			"fieldNames":  schema.ListOf(schema.String),
			"fnAggregate": schema.String,
			"fnCombine":   schema.String,
			"fnReset":     schema.String,
		},
	}
	kinds[KindFiltered] = schema.Rules{
		Required: map[string]schema.FieldType{
			"filter":     schema.DocumentOf(filter.Family),
			"aggregator": schema.DocumentOf(Family),
		},
		Optional: map[string]schema.FieldType{"name": schema.String},
		Defaults: propagateFilteredName,
	}

	Family.Kinds = kinds
}

// defaultNameFromField names an unnamed document after its fieldName.
func defaultNameFromField(obj doc.Object) {
	if name, _ := obj.GetString("name"); name != "" {
		return
	}
	if field, ok := obj["fieldName"]; ok {
		obj["name"] = field
	}
}

// propagateFilteredName gives the inner aggregator the outer name, else keeps
// its own, else falls back to its fieldName.
func propagateFilteredName(obj doc.Object) {
	inner, ok := obj.GetObject("aggregator")
	if !ok {
		return
	}
	name, ok := obj["name"]
	if !ok {
		if _, named := inner["name"]; named {
			return
		}
		if name, ok = inner["fieldName"]; !ok {
			return
		}
	}
	inner = inner.Clone()
	inner["name"] = name
	obj["aggregator"] = inner
}

// Aggregation is an aggregator document.
type Aggregation struct {
	doc.Object
}

// Wrap treats an existing document as an aggregation without validating it.
func Wrap(obj doc.Object) Aggregation {
	return Aggregation{Object: obj}
}

// Build creates an aggregation without validating it. Defaults (derived
// names) are applied.
func Build(kind string, fields doc.Fields) (Aggregation, error) {
	obj, err := doc.New(fields)
	if err != nil {
		return Aggregation{}, err
	}
	obj["type"] = doc.String(kind)
	return Aggregation{Object: Family.ApplyDefaults(obj)}, nil
}

// New creates an aggregation and validates it.
func New(kind string, fields doc.Fields) (Aggregation, error) {
	a, err := Build(kind, fields)
	if err != nil {
		return Aggregation{}, err
	}
	if err := schema.Check(Family, a.Object); err != nil {
		return Aggregation{}, err
	}
	return a, nil
}

// Validate returns every rule a breaks.
func Validate(a Aggregation) []schema.Violation {
	return schema.Validate(Family, a.Object)
}

// Kind returns the aggregator type.
func (a Aggregation) Kind() string {
	return Family.KindOf(a.Object)
}

// IsFiltered reports whether a wraps another aggregator.
func (a Aggregation) IsFiltered() bool {
	return a.Kind() == KindFiltered
}

// Aggregator returns the inner aggregator of a filtered aggregation, or a
// itself.
func (a Aggregation) Aggregator() Aggregation {
	if a.IsFiltered() {
		if inner, ok := a.Object.GetObject("aggregator"); ok {
			return Aggregation{Object: inner}
		}
	}
	return a
}

// Name returns the output name, looking through filtered aggregations.
func (a Aggregation) Name() string {
	if a.IsFiltered() {
		if name, ok := a.Object.GetString("name"); ok {
			return name
		}
	}
	name, _ := a.Aggregator().Object.GetString("name")
	return name
}

// SetName returns a copy of a with the given output name.
func (a Aggregation) SetName(name string) Aggregation {
	out := a.Object.Clone()
	if a.IsFiltered() {
		if inner, ok := out.GetObject("aggregator"); ok {
			inner["name"] = doc.String(name)
		}
		if _, ok := out["name"]; ok {
			out["name"] = doc.String(name)
		}
		return Aggregation{Object: out}
	}
	out["name"] = doc.String(name)
	return Aggregation{Object: out}
}

// Extend returns a copy of a with fields merged in.
func (a Aggregation) Extend(fields doc.Fields) (Aggregation, error) {
	obj, err := a.Object.Extend(fields)
	if err != nil {
		return Aggregation{}, err
	}
	return Aggregation{Object: obj}, nil
}

// Equal reports whether both aggregations have the same content.
func (a Aggregation) Equal(other Aggregation) bool {
	return a.Object.Equal(other.Object)
}

// WithFilter wraps agg in a filtered aggregation. A filtered input is
// unwrapped first and its filter joined with fs. Both agg and every filter are
// validated beforehand and all violations are reported together.
func WithFilter(agg Aggregation, fs ...filter.Filter) (Aggregation, error) {
	violations := schema.ValidateAt(Family, agg.Object, "aggregator")
	for i, f := range fs {
		if f.IsZero() {
			continue
		}
		violations = append(violations, schema.ValidateAt(filter.Family, f.Object, filterPath(i))...)
	}
	if err := schema.NewError(violations); err != nil {
		return Aggregation{}, err
	}

	all := fs
	if agg.IsFiltered() {
		if existing, ok := agg.Object.GetObject("filter"); ok {
			all = append([]filter.Filter{filter.Wrap(existing)}, fs...)
		}
	}
	joined, err := filter.Join(all...)
	if err != nil {
		return Aggregation{}, err
	}

	fields := doc.Fields{
		"filter":     joined,
		"aggregator": agg.Aggregator().Object.Clone(),
	}
	if agg.IsFiltered() {
		if name, ok := agg.Object["name"]; ok {
			fields["name"] = name
		}
	}
	return New(KindFiltered, fields)
}

func filterPath(i int) string {
	return fmt.Sprintf("filters[%d]", i)
}
