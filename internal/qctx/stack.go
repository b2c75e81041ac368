// Package qctx applies scoped transformations to queries before execution.
//
// A Stack holds named transforms in the order they were entered. Process
// folds them over a query outermost first.
//
// Transforms also travel in a context.Context. Enter and Within derive a
// child context holding an immutable link to the parent's transforms, so
// leaving a scope is dropping the child context. Goroutines that fan out from
// one parent see the parent's transforms plus their own and never each
// other's.
//
// Thread-safety: context-carried transforms are immutable and safe for
// concurrent use. An explicit Stack belongs to one goroutine.
package qctx

import (
	"context"
	"fmt"
	"slices"

	"github.com/roach88/druidq/internal/query"
)

// Transform rewrites a query. It receives a private copy and may modify it.
type Transform func(query.Query) (query.Query, error)

type entry struct {
	name      string
	transform Transform
}

// Stack is an ordered set of named transforms.
type Stack struct {
	entries []entry
}

// NewStack returns an empty stack.
func NewStack() *Stack {
	return &Stack{}
}

// Scope is the handle returned by Enter. Exit removes its transform.
type Scope struct {
	stack  *Stack
	name   string
	depth  int
	exited bool
}

// Enter pushes a named transform. Entering a name that is already active is
// an error.
func (s *Stack) Enter(name string, transform Transform) (*Scope, error) {
	if transform == nil {
		return nil, fmt.Errorf("context %q: nil transform", name)
	}
	if slices.ContainsFunc(s.entries, func(e entry) bool { return e.name == name }) {
		return nil, fmt.Errorf("duplicate context key: %s", name)
	}
	s.entries = append(s.entries, entry{name: name, transform: transform})
	return &Scope{stack: s, name: name, depth: len(s.entries)}, nil
}

// Push enters c.
func (s *Stack) Push(c Context) (*Scope, error) {
	return s.Enter(c.Name, c.Transform)
}

// Exit pops the scope's transform. Scopes must exit in reverse entry order;
// exiting any other scope, or exiting twice, panics.
func (sc *Scope) Exit() {
	s := sc.stack
	if sc.exited {
		panic(fmt.Sprintf("qctx: scope %q exited twice", sc.name))
	}
	if len(s.entries) != sc.depth || s.entries[sc.depth-1].name != sc.name {
		panic(fmt.Sprintf("qctx: scope %q exited out of order (active: %v)", sc.name, s.Names()))
	}
	s.entries = s.entries[:sc.depth-1]
	sc.exited = true
}

// Name returns the scope's context name.
func (sc *Scope) Name() string {
	return sc.name
}

// Names returns the active context names, outermost first.
func (s *Stack) Names() []string {
	names := make([]string, len(s.entries))
	for i, e := range s.entries {
		names[i] = e.name
	}
	return names
}

// Len returns the number of active contexts.
func (s *Stack) Len() int {
	return len(s.entries)
}

// Process applies every active transform to a copy of q, outermost first.
// A nil or empty stack returns an equal copy of q.
func (s *Stack) Process(q query.Query) (query.Query, error) {
	out := q.Clone()
	if s == nil {
		return out, nil
	}
	for _, e := range s.entries {
		next, err := e.transform(out)
		if err != nil {
			return query.Query{}, fmt.Errorf("context %s: %w", e.name, err)
		}
		out = next
	}
	return out, nil
}

// frame is one entered transform in a context chain. Frames are never
// modified after creation.
type frame struct {
	parent *frame
	entry  entry
}

func (f *frame) has(name string) bool {
	for ; f != nil; f = f.parent {
		if f.entry.name == name {
			return true
		}
	}
	return false
}

func (f *frame) entries() []entry {
	var out []entry
	for ; f != nil; f = f.parent {
		out = append(out, f.entry)
	}
	slices.Reverse(out)
	return out
}

type stackKey struct{}

func frameFrom(ctx context.Context) (*frame, bool) {
	f, ok := ctx.Value(stackKey{}).(*frame)
	return f, ok
}

// NewContext returns a child of ctx carrying an empty stack. Transforms
// entered on ctx are not visible through the child.
func NewContext(ctx context.Context) context.Context {
	return context.WithValue(ctx, stackKey{}, (*frame)(nil))
}

// FromContext returns a snapshot of the transforms carried by ctx. Changing
// the returned Stack does not affect ctx.
func FromContext(ctx context.Context) (*Stack, bool) {
	f, ok := frameFrom(ctx)
	if !ok {
		return nil, false
	}
	return &Stack{entries: f.entries()}, true
}

// Process applies the transforms carried by ctx to q. Without any it returns
// a copy of q.
func Process(ctx context.Context, q query.Query) (query.Query, error) {
	s, _ := FromContext(ctx)
	return s.Process(q)
}

// Enter returns a child of ctx with transform entered under name. ctx itself
// is unchanged.
func Enter(ctx context.Context, name string, transform Transform) (context.Context, error) {
	if transform == nil {
		return nil, fmt.Errorf("context %q: nil transform", name)
	}
	parent, _ := frameFrom(ctx)
	if parent.has(name) {
		return nil, fmt.Errorf("duplicate context key: %s", name)
	}
	next := &frame{parent: parent, entry: entry{name: name, transform: transform}}
	return context.WithValue(ctx, stackKey{}, next), nil
}

// Within runs body with a child of ctx that has transform entered under
// name. The transform is gone once body returns, whatever the return path.
func Within(ctx context.Context, name string, transform Transform, body func(context.Context) error) error {
	child, err := Enter(ctx, name, transform)
	if err != nil {
		return err
	}
	return body(child)
}
