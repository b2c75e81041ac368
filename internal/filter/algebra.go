package filter

import (
	"fmt"

	"github.com/roach88/druidq/internal/doc"
	"github.com/roach88/druidq/internal/schema"
)

// Join combines filters with and.
//
// Empty filters are dropped first. A single remaining filter is returned as
// a copy. When every filter is an and (or every filter is an or) their children
// are concatenated into one composite of that kind. Otherwise the result is a
// new and whose children are the inputs, with the children of any and input
// spliced in place. Inputs are validated before combining and all violations
// are reported together.
func Join(fs ...Filter) (Filter, error) {
	return combine(KindAnd, fs, true)
}

// Disjoin combines filters with or. The result is always an or: children of
// or inputs are spliced in, every other input becomes one child.
func Disjoin(fs ...Filter) (Filter, error) {
	return combine(KindOr, fs, false)
}

// Negate returns {type: not, field: f}. A not filter is wrapped again rather
// than unwrapped.
func Negate(f Filter) Filter {
	return Filter{Object: doc.Object{
		"type":  doc.String(KindNot),
		"field": f.Object.Clone(),
	}}
}

// combine builds a kind composite. With adoptKind set, inputs that are all
// and (or all or) keep their own kind.
func combine(kind string, fs []Filter, adoptKind bool) (Filter, error) {
	type indexed struct {
		pos int
		f   Filter
	}
	var inputs []indexed
	for i, f := range fs {
		if !f.IsZero() {
			inputs = append(inputs, indexed{pos: i, f: f})
		}
	}

	switch len(inputs) {
	case 0:
		return Filter{}, ErrNothingToJoin
	case 1:
		return Filter{Object: inputs[0].f.Object.Clone()}, nil
	}

	var violations []schema.Violation
	for _, in := range inputs {
		violations = append(violations,
			schema.ValidateAt(Family, in.f.Object, fmt.Sprintf("filters[%d]", in.pos))...)
	}
	if err := schema.NewError(violations); err != nil {
		return Filter{}, err
	}

	target := kind
	first := inputs[0].f.Kind()
	if adoptKind && (first == KindAnd || first == KindOr) {
		same := true
		for _, in := range inputs[1:] {
			if in.f.Kind() != first {
				same = false
				break
			}
		}
		if same {
			target = first
		}
	}

	var children doc.Array
	for _, in := range inputs {
		if in.f.Kind() == target {
			for _, c := range in.f.Children() {
				children = append(children, c.Object.Clone())
			}
			continue
		}
		children = append(children, in.f.Object.Clone())
	}

	return Filter{Object: doc.Object{
		"type":   doc.String(target),
		"fields": children,
	}}, nil
}
