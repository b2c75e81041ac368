package qctx

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/druidq/internal/doc"
	"github.com/roach88/druidq/internal/query"
)

func mustQuery(t *testing.T, kind string, fields doc.Fields) query.Query {
	t.Helper()
	q, err := query.New(kind, fields)
	require.NoError(t, err)
	return q
}

// appendMark records the transform order in context.marks.
func appendMark(mark string) Transform {
	return func(q query.Query) (query.Query, error) {
		ctx, ok := q.Context()
		if !ok {
			ctx = doc.Object{}
		}
		marks, _ := ctx["marks"].(doc.Array)
		ctx["marks"] = append(marks, doc.String(mark))
		q.Object["context"] = ctx
		return q, nil
	}
}

func marks(t *testing.T, q query.Query) []string {
	t.Helper()
	ctx, ok := q.Context()
	if !ok {
		return nil
	}
	arr, _ := ctx["marks"].(doc.Array)
	out := make([]string, len(arr))
	for i, v := range arr {
		out[i] = string(v.(doc.String))
	}
	return out
}

func TestProcessAppliesOutermostFirst(t *testing.T) {
	s := NewStack()
	q := mustQuery(t, query.KindTimeBoundary, doc.Fields{})

	a, err := s.Enter("a", appendMark("A"))
	require.NoError(t, err)
	b, err := s.Enter("b", appendMark("B"))
	require.NoError(t, err)

	out, err := s.Process(q)
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B"}, marks(t, out))
	assert.Equal(t, []string{"a", "b"}, s.Names())

	b.Exit()
	a.Exit()

	out, err = s.Process(q)
	require.NoError(t, err)
	assert.True(t, out.Equal(q))
	assert.Equal(t, 0, s.Len())
}

func TestProcessDoesNotMutateInput(t *testing.T) {
	s := NewStack()
	_, err := s.Enter("a", appendMark("A"))
	require.NoError(t, err)

	q := mustQuery(t, query.KindTimeBoundary, doc.Fields{"context": map[string]any{"priority": 1}})
	before := q.Clone()

	_, err = s.Process(q)
	require.NoError(t, err)
	assert.True(t, q.Equal(before))
}

func TestNilStackIsIdentity(t *testing.T) {
	var s *Stack
	q := mustQuery(t, query.KindTimeBoundary, doc.Fields{"dataSource": "a"})
	out, err := s.Process(q)
	require.NoError(t, err)
	assert.True(t, out.Equal(q))

	out, err = Process(context.Background(), q)
	require.NoError(t, err)
	assert.True(t, out.Equal(q))
}

func TestEnterRejectsDuplicateName(t *testing.T) {
	s := NewStack()
	_, err := s.Enter("dataSource", appendMark("A"))
	require.NoError(t, err)

	_, err = s.Enter("dataSource", appendMark("B"))
	require.Error(t, err)
	assert.Equal(t, "duplicate context key: dataSource", err.Error())
	assert.Equal(t, 1, s.Len())
}

func TestExitOutOfOrderPanics(t *testing.T) {
	s := NewStack()
	a, err := s.Enter("a", appendMark("A"))
	require.NoError(t, err)
	b, err := s.Enter("b", appendMark("B"))
	require.NoError(t, err)

	assert.Panics(t, func() { a.Exit() })

	b.Exit()
	a.Exit()
	assert.Panics(t, func() { a.Exit() })
}

func TestProcessWrapsTransformError(t *testing.T) {
	s := NewStack()
	boom := errors.New("boom")
	_, err := s.Enter("broken", func(query.Query) (query.Query, error) { return query.Query{}, boom })
	require.NoError(t, err)

	_, err = s.Process(mustQuery(t, query.KindTimeBoundary, doc.Fields{}))
	require.ErrorIs(t, err, boom)
	assert.Equal(t, "context broken: boom", err.Error())
}

func TestWithinNests(t *testing.T) {
	ctx := NewContext(context.Background())
	q := mustQuery(t, query.KindTimeBoundary, doc.Fields{})

	err := Within(ctx, "a", appendMark("A"), func(ctx context.Context) error {
		return Within(ctx, "b", appendMark("B"), func(ctx context.Context) error {
			out, err := Process(ctx, q)
			require.NoError(t, err)
			assert.Equal(t, []string{"A", "B"}, marks(t, out))
			return nil
		})
	})
	require.NoError(t, err)

	s, ok := FromContext(ctx)
	require.True(t, ok)
	assert.Equal(t, 0, s.Len())
}

func TestWithinExitsOnErrorAndPanic(t *testing.T) {
	ctx := NewContext(context.Background())
	boom := errors.New("boom")

	err := Within(ctx, "a", appendMark("A"), func(context.Context) error { return boom })
	require.ErrorIs(t, err, boom)
	s, _ := FromContext(ctx)
	assert.Equal(t, 0, s.Len())

	assert.Panics(t, func() {
		_ = Within(ctx, "a", appendMark("A"), func(context.Context) error { panic("body") })
	})
	s, _ = FromContext(ctx)
	assert.Equal(t, 0, s.Len())

	// the name is free again
	err = Within(ctx, "a", appendMark("A"), func(context.Context) error { return nil })
	require.NoError(t, err)
}

func TestEnterLeavesParentUnchanged(t *testing.T) {
	parent := NewContext(context.Background())
	q := mustQuery(t, query.KindTimeBoundary, doc.Fields{})

	child, err := Enter(parent, "a", appendMark("A"))
	require.NoError(t, err)

	out, err := Process(child, q)
	require.NoError(t, err)
	assert.Equal(t, []string{"A"}, marks(t, out))

	out, err = Process(parent, q)
	require.NoError(t, err)
	assert.Empty(t, marks(t, out))

	_, err = Enter(child, "a", appendMark("B"))
	require.Error(t, err)
	assert.Equal(t, "duplicate context key: a", err.Error())

	_, err = Enter(parent, "a", nil)
	require.Error(t, err)
}

func TestNewContextHidesOuterTransforms(t *testing.T) {
	q := mustQuery(t, query.KindTimeBoundary, doc.Fields{})
	outer, err := Enter(context.Background(), "a", appendMark("A"))
	require.NoError(t, err)

	inner := NewContext(outer)
	out, err := Process(inner, q)
	require.NoError(t, err)
	assert.Empty(t, marks(t, out))

	s, ok := FromContext(inner)
	require.True(t, ok)
	assert.Equal(t, 0, s.Len())
}

func TestFromContextReturnsSnapshot(t *testing.T) {
	ctx, err := Enter(context.Background(), "a", appendMark("A"))
	require.NoError(t, err)

	s, ok := FromContext(ctx)
	require.True(t, ok)
	_, err = s.Enter("b", appendMark("B"))
	require.NoError(t, err)

	again, _ := FromContext(ctx)
	assert.Equal(t, []string{"a"}, again.Names())
}

func TestWithinWithoutStackAttachesOne(t *testing.T) {
	q := mustQuery(t, query.KindTimeBoundary, doc.Fields{})
	err := Within(context.Background(), "a", appendMark("A"), func(ctx context.Context) error {
		out, err := Process(ctx, q)
		require.NoError(t, err)
		assert.Equal(t, []string{"A"}, marks(t, out))
		return nil
	})
	require.NoError(t, err)
}

func TestStacksIsolatedAcrossGoroutines(t *testing.T) {
	q := mustQuery(t, query.KindTimeBoundary, doc.Fields{})

	var wg sync.WaitGroup
	results := make([][]string, 8)
	for i := range results {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			ctx := NewContext(context.Background())
			mark := string(rune('A' + i))
			_ = Within(ctx, "mark", appendMark(mark), func(ctx context.Context) error {
				out, err := Process(ctx, q)
				if err == nil {
					results[i] = marks(t, out)
				}
				return err
			})
		}()
	}
	wg.Wait()

	for i, got := range results {
		assert.Equal(t, []string{string(rune('A' + i))}, got)
	}
}

func TestSiblingGoroutinesOnOneParent(t *testing.T) {
	q := mustQuery(t, query.KindTimeBoundary, doc.Fields{})
	parent, err := Enter(context.Background(), "base", appendMark("base"))
	require.NoError(t, err)

	start := make(chan struct{})
	entered := make(chan struct{}, 2)
	var wg sync.WaitGroup
	results := make([][]string, 2)
	names := make([][]string, 2)
	for i, mark := range []string{"A", "B"} {
		i, mark := i, mark
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = Within(parent, "mark", appendMark(mark), func(ctx context.Context) error {
				// both siblings are inside their scope before either processes
				entered <- struct{}{}
				<-start
				out, err := Process(ctx, q)
				if err != nil {
					return err
				}
				results[i] = marks(t, out)
				s, _ := FromContext(ctx)
				names[i] = s.Names()
				return nil
			})
		}()
	}
	<-entered
	<-entered
	close(start)
	wg.Wait()

	assert.Equal(t, []string{"base", "A"}, results[0])
	assert.Equal(t, []string{"base", "B"}, results[1])
	assert.Equal(t, []string{"base", "mark"}, names[0])
	assert.Equal(t, []string{"base", "mark"}, names[1])

	s, _ := FromContext(parent)
	assert.Equal(t, []string{"base"}, s.Names())
}
