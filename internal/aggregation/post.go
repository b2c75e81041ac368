package aggregation

import (
	"github.com/roach88/druidq/internal/doc"
	"github.com/roach88/druidq/internal/schema"
)

// Post-aggregator kinds.
const (
	PostArithmetic             = "arithmetic"
	PostConstant               = "constant"
	PostFieldAccess            = "fieldAccess"
	PostFinalizingFieldAccess  = "finalizingFieldAccess"
	PostHyperUniqueCardinality = "hyperUniqueCardinality"
	PostJavaScript             = "javascript"
)

// Arithmetic functions Druid understands.
var ArithmeticFns = []string{"+", "-", "*", "/", "quotient"}

// PostFamily is the post-aggregator rule table.
var PostFamily = &schema.Family{Name: "postAggregation", Discriminant: "type"}

func init() {
	accessor := schema.Rules{
		Required: map[string]schema.FieldType{"fieldName": schema.String},
		Optional: map[string]schema.FieldType{"name": schema.String},
		Defaults: defaultNameFromField,
	}

	PostFamily.Kinds = map[string]schema.Rules{
		PostArithmetic: {
			Required: map[string]schema.FieldType{
				"name":   schema.String,
				"fn":     schema.OneOf(ArithmeticFns...),
				"fields": schema.ListOf(schema.DocumentOf(PostFamily)),
			},
			Optional: map[string]schema.FieldType{"ordering": schema.OneOf("numericFirst")},
		},
		PostConstant: {
			Required: map[string]schema.FieldType{"name": schema.String, "value": schema.Number},
		},
		PostFieldAccess:            accessor,
		PostFinalizingFieldAccess:  accessor,
		PostHyperUniqueCardinality: accessor,
		PostJavaScript: {
			Required: map[string]schema.FieldType{
				"name":       schema.String,
				"fieldNames": schema.ListOf(schema.String),
				"function":   schema.String,
			},
		},
	}
}

// PostAggregation is a post-aggregator document.
type PostAggregation struct {
	doc.Object
}

// WrapPost treats an existing document as a post-aggregation without
// validating it.
func WrapPost(obj doc.Object) PostAggregation {
	return PostAggregation{Object: obj}
}

// BuildPost creates a post-aggregation without validating it.
func BuildPost(kind string, fields doc.Fields) (PostAggregation, error) {
	obj, err := doc.New(fields)
	if err != nil {
		return PostAggregation{}, err
	}
	obj["type"] = doc.String(kind)
	return PostAggregation{Object: PostFamily.ApplyDefaults(obj)}, nil
}

// NewPost creates a post-aggregation and validates it.
func NewPost(kind string, fields doc.Fields) (PostAggregation, error) {
	p, err := BuildPost(kind, fields)
	if err != nil {
		return PostAggregation{}, err
	}
	if err := schema.Check(PostFamily, p.Object); err != nil {
		return PostAggregation{}, err
	}
	return p, nil
}

// ValidatePost returns every rule p breaks.
func ValidatePost(p PostAggregation) []schema.Violation {
	return schema.Validate(PostFamily, p.Object)
}

// Kind returns the post-aggregator type.
func (p PostAggregation) Kind() string {
	return PostFamily.KindOf(p.Object)
}

// Name returns the output name.
func (p PostAggregation) Name() string {
	name, _ := p.Object.GetString("name")
	return name
}

// Equal reports whether both post-aggregations have the same content.
func (p PostAggregation) Equal(other PostAggregation) bool {
	return p.Object.Equal(other.Object)
}

// ToFieldAccess returns a fieldAccess post-aggregation reading a's output.
// An empty name reuses a's name.
func ToFieldAccess(a Aggregation, name string) (PostAggregation, error) {
	field := a.Name()
	if name == "" {
		name = field
	}
	return NewPost(PostFieldAccess, doc.Fields{"fieldName": field, "name": name})
}
