// Package query builds and validates Druid query documents.
//
// Every query kind has a rule table keyed by queryType. Build never
// validates; New validates and reports every violation at once. dataSource
// and context are accepted on every kind but only checked by Executable,
// since query contexts usually fill them in just before execution.
package query

import (
	"github.com/roach88/druidq/internal/aggregation"
	"github.com/roach88/druidq/internal/doc"
	"github.com/roach88/druidq/internal/filter"
	"github.com/roach88/druidq/internal/schema"
)

// Query kinds.
const (
	KindDataSourceMetadata = "dataSourceMetadata"
	KindGroupBy            = "groupBy"
	KindScan               = "scan"
	KindSegmentMetadata    = "segmentMetadata"
	KindTimeBoundary       = "timeBoundary"
	KindTimeseries         = "timeseries"
	KindTopN               = "topN"
)

// Family is the query rule table.
var Family = &schema.Family{Name: "query", Discriminant: "queryType"}

var (
	granularityType  = schema.Union(schema.String, schema.Object)
	intervalsType    = schema.Union(schema.String, schema.ListOf(schema.String))
	aggregationsType = schema.ListOf(schema.DocumentOf(aggregation.Family))
	postAggsType     = schema.ListOf(schema.DocumentOf(aggregation.PostFamily))
	filterType       = schema.DocumentOf(filter.Family)
)

func init() {
	kinds := map[string]schema.Rules{
		KindDataSourceMetadata: {},
		KindTimeseries: {
			Required: map[string]schema.FieldType{
				"granularity":  granularityType,
				"aggregations": aggregationsType,
				"intervals":    intervalsType,
			},
			Optional: map[string]schema.FieldType{
				"descending":       schema.Bool,
				"filter":           filterType,
				"postAggregations": postAggsType,
			},
		},
		KindGroupBy: {
			Required: map[string]schema.FieldType{
				"dimensions":   schema.List,
				"granularity":  granularityType,
				"aggregations": aggregationsType,
				"intervals":    intervalsType,
			},
			Optional: map[string]schema.FieldType{
				"filter":           filterType,
				"postAggregations": postAggsType,
				"having":           schema.Object,
				"limitSpec":        schema.Object,
			},
		},
		KindScan: {
			Required: map[string]schema.FieldType{
				"intervals": intervalsType,
			},
			Optional: map[string]schema.FieldType{
				"batchSize":    schema.Int,
				"limit":        schema.Int,
				"resultFormat": schema.String,
				"columns":      schema.ListOf(schema.String),
				"filter":       filterType,
			},
		},
		KindSegmentMetadata: {
			Optional: map[string]schema.FieldType{
				"analysisTypes":          schema.ListOf(schema.String),
				"intervals":              intervalsType,
				"lenientAggregatorMerge": schema.Bool,
				"merge":                  schema.Bool,
				"toInclude":              schema.Union(schema.List, schema.Object),
			},
		},
		KindTimeBoundary: {
			Optional: map[string]schema.FieldType{
				"bound":  schema.OneOf("maxTime", "minTime"),
				"filter": filterType,
			},
		},
		KindTopN: {
			Required: map[string]schema.FieldType{
				"aggregations": aggregationsType,
				"dimension":    schema.String,
				"granularity":  granularityType,
				"metric":       schema.String,
				"intervals":    intervalsType,
				"threshold":    schema.Int,
			},
			Optional: map[string]schema.FieldType{
				"filter":           filterType,
				"postAggregations": postAggsType,
			},
		},
	}

	for kind, rules := range kinds {
		optional := make(map[string]schema.FieldType, len(rules.Optional)+2)
		for k, t := range rules.Optional {
			optional[k] = t
		}
		optional["context"] = schema.Object
		optional["dataSource"] = schema.Union(schema.String, schema.Object)
		rules.Optional = optional
		kinds[kind] = rules
	}

	Family.Kinds = kinds
}

// Query is a query document.
type Query struct {
	doc.Object
}

// Wrap treats an existing document as a query without validating it.
func Wrap(obj doc.Object) Query {
	return Query{Object: obj}
}

// Build creates a query without validating it. An empty kind leaves the
// queryType to fields, where it may be spelled query_type or queryType.
func Build(kind string, fields doc.Fields) (Query, error) {
	obj, err := doc.New(fields)
	if err != nil {
		return Query{}, err
	}
	if kind != "" {
		obj["queryType"] = doc.String(kind)
	}
	return Query{Object: Family.ApplyDefaults(obj)}, nil
}

// New creates a query and validates it.
func New(kind string, fields doc.Fields) (Query, error) {
	q, err := Build(kind, fields)
	if err != nil {
		return Query{}, err
	}
	if err := schema.Check(Family, q.Object); err != nil {
		return Query{}, err
	}
	return q, nil
}

// Parse validates a decoded document as a query. Keys are canonicalized
// first, so documents written in snake_case are accepted.
func Parse(obj doc.Object) (Query, error) {
	fields := make(doc.Fields, len(obj))
	for k, v := range obj {
		fields[k] = v
	}
	return New("", fields)
}

// Validate returns every rule q breaks.
func Validate(q Query) []schema.Violation {
	return schema.Validate(Family, q.Object)
}

// Kind returns the queryType.
func (q Query) Kind() string {
	return Family.KindOf(q.Object)
}

// Clone returns a deep copy of q.
func (q Query) Clone() Query {
	return Query{Object: q.Object.Clone()}
}

// Extend returns a copy of q with fields merged in.
func (q Query) Extend(fields doc.Fields) (Query, error) {
	obj, err := q.Object.Extend(fields)
	if err != nil {
		return Query{}, err
	}
	return Query{Object: obj}, nil
}

// Equal reports whether both queries have the same content.
func (q Query) Equal(other Query) bool {
	return q.Object.Equal(other.Object)
}

// Hash returns the content hash of q. Equal queries hash equally.
func (q Query) Hash() (string, error) {
	return doc.Hash(doc.DomainQuery, q.Object)
}

// Filter returns the query filter, if any.
func (q Query) Filter() (filter.Filter, bool) {
	obj, ok := q.Object.GetObject("filter")
	if !ok {
		return filter.Filter{}, false
	}
	return filter.Wrap(obj), true
}

// Context returns the query context document, if any.
func (q Query) Context() (doc.Object, bool) {
	return q.Object.GetObject("context")
}
