package qctx

import (
	"context"
	"fmt"

	"github.com/roach88/druidq/internal/doc"
	"github.com/roach88/druidq/internal/filter"
	"github.com/roach88/druidq/internal/query"
	"github.com/roach88/druidq/internal/temporal"
)

// Context is a named transform ready to be entered.
type Context struct {
	Name      string
	Transform Transform
}

// Within runs body with c entered. See the package-level Within.
func (c Context) Within(ctx context.Context, body func(context.Context) error) error {
	return Within(ctx, c.Name, c.Transform, body)
}

// WithinAll runs body with every context entered, the first outermost.
func WithinAll(ctx context.Context, contexts []Context, body func(context.Context) error) error {
	if len(contexts) == 0 {
		return body(ctx)
	}
	return contexts[0].Within(ctx, func(ctx context.Context) error {
		return WithinAll(ctx, contexts[1:], body)
	})
}

// Context names used by the built-in contexts.
const (
	NameDataSource      = "dataSource"
	NameTimeout         = "timeout"
	NameIntervalPadding = "interval-padding"
	NameQueryID         = "queryId"
)

// DataSource points queries at name. Query data sources have their innermost
// query redirected instead.
func DataSource(name string) Context {
	return Context{Name: NameDataSource, Transform: func(q query.Query) (query.Query, error) {
		return query.WithDataSource(q, name), nil
	}}
}

// Filter joins f into every query's filter. name keeps several filter
// contexts apart.
func Filter(name string, f filter.Filter) Context {
	return Context{Name: name, Transform: func(q query.Query) (query.Query, error) {
		return query.WithFilter(q, f)
	}}
}

// Timeout sets context.timeout in milliseconds, keeping other context keys.
func Timeout(millis int64) Context {
	return Context{Name: NameTimeout, Transform: func(q query.Query) (query.Query, error) {
		return mergeContext(q, "timeout", doc.Int(millis)), nil
	}}
}

// IDGenerator produces query IDs.
type IDGenerator interface {
	Generate() string
}

// QueryID stamps context.queryId with a fresh ID per processed query.
func QueryID(gen IDGenerator) Context {
	return Context{Name: NameQueryID, Transform: func(q query.Query) (query.Query, error) {
		return mergeContext(q, "queryId", doc.String(gen.Generate())), nil
	}}
}

func mergeContext(q query.Query, key string, v doc.Value) query.Query {
	out := q.Clone()
	ctx, ok := out.Context()
	if !ok {
		ctx = doc.Object{}
	}
	ctx[key] = v
	out.Object["context"] = ctx
	return out
}

// PadIntervals widens every interval to whole buckets of the query's
// granularity. Queries without intervals, and granularities without a fixed
// width (all, none), pass through unchanged.
func PadIntervals() Context {
	return Context{Name: NameIntervalPadding, Transform: padQueryIntervals}
}

func padQueryIntervals(q query.Query) (query.Query, error) {
	raw, ok := q.Object["granularity"]
	if !ok {
		return q, nil
	}
	g, err := temporal.ParseGranularity(raw)
	if err != nil {
		return query.Query{}, err
	}
	delta, ok := temporal.GranularityDelta(g)
	if !ok {
		return q, nil
	}

	switch iv := q.Object["intervals"].(type) {
	case doc.String:
		padded, err := temporal.PadString(string(iv), delta)
		if err != nil {
			return query.Query{}, err
		}
		q.Object["intervals"] = doc.String(padded)
	case doc.Array:
		out := make(doc.Array, len(iv))
		for i, elem := range iv {
			s, ok := elem.(doc.String)
			if !ok {
				return query.Query{}, fmt.Errorf("intervals[%d]: expecting string, found %s", i, doc.TypeName(elem))
			}
			padded, err := temporal.PadString(string(s), delta)
			if err != nil {
				return query.Query{}, fmt.Errorf("intervals[%d]: %w", i, err)
			}
			out[i] = doc.String(padded)
		}
		q.Object["intervals"] = out
	}
	return q, nil
}
