package query

import (
	"fmt"

	"github.com/roach88/druidq/internal/doc"
	"github.com/roach88/druidq/internal/filter"
	"github.com/roach88/druidq/internal/schema"
)

// WithFilter returns a copy of q whose filter is f joined with any existing
// filter.
func WithFilter(q Query, f filter.Filter) (Query, error) {
	existing, _ := q.Filter()
	joined, err := filter.Join(existing, f)
	if err != nil {
		return Query{}, fmt.Errorf("filter query: %w", err)
	}
	out := q.Clone()
	out.Object["filter"] = joined.Object.Clone()
	return out, nil
}

// Subquery wraps q as a query data source.
func Subquery(q Query) doc.Object {
	return doc.Object{
		"type":  doc.String("query"),
		"query": q.Object.Clone(),
	}
}

// Inner returns the query nested in a query data source.
func (q Query) Inner() (Query, bool) {
	ds, ok := q.Object.GetObject("dataSource")
	if !ok {
		return Query{}, false
	}
	inner, ok := ds.GetObject("query")
	if !ok || len(inner) == 0 {
		return Query{}, false
	}
	return Query{Object: inner}, true
}

// WithDataSource returns a copy of q reading from name. For a query data
// source the innermost query's dataSource is replaced instead.
func WithDataSource(q Query, name string) Query {
	out := q.Clone()
	target := out.Object
	for {
		ds, ok := target.GetObject("dataSource")
		if !ok || ds["type"] != doc.String("query") {
			break
		}
		inner, ok := ds.GetObject("query")
		if !ok {
			break
		}
		target = inner
	}
	target["dataSource"] = doc.String(name)
	return out
}

// DataSource returns the name q reads from, looking through query data
// sources.
func (q Query) DataSource() (string, bool) {
	if inner, ok := q.Inner(); ok {
		return inner.DataSource()
	}
	return q.Object.GetString("dataSource")
}

// Executable checks what Build defers: dataSource must be a name or a query
// data source.
func Executable(q Query) error {
	if _, ok := q.Object.GetString("dataSource"); ok {
		return nil
	}
	if _, ok := q.Inner(); ok {
		return nil
	}
	return schema.NewError([]schema.Violation{{
		Field:   "dataSource",
		Code:    schema.ErrInvalidValue,
		Message: "Invalid dataSource: " + render(q.Object["dataSource"]),
	}})
}

func render(v doc.Value) string {
	if v == nil {
		return "missing"
	}
	if s, ok := v.(doc.String); ok {
		return string(s)
	}
	b, err := doc.MarshalCanonical(v)
	if err != nil {
		return doc.TypeName(v)
	}
	return string(b)
}
