package schema

import (
	"slices"

	"github.com/roach88/druidq/internal/doc"
)

// Family is a set of document kinds sharing one discriminant field.
type Family struct {
	// Name is used in messages ("filter", "aggregation", "query").
	Name string

	// Discriminant is the field selecting the rule table ("type", "queryType").
	Discriminant string

	// Kinds maps each discriminant value to its rules.
	Kinds map[string]Rules
}

// Rules describes the fields one kind accepts.
type Rules struct {
	Required  map[string]FieldType
	Optional  map[string]FieldType
	Forbidden []string

	// Defaults fills in fields derived from the others. It receives a private
	// copy of the document and may modify it in place.
	Defaults func(doc.Object)
}

// Lookup returns the rules for a kind.
func (f *Family) Lookup(kind string) (Rules, bool) {
	r, ok := f.Kinds[kind]
	return r, ok
}

// KindNames returns every registered kind, sorted.
func (f *Family) KindNames() []string {
	names := make([]string, 0, len(f.Kinds))
	for k := range f.Kinds {
		names = append(names, k)
	}
	slices.Sort(names)
	return names
}

// KindOf returns the discriminant value of obj, or "" when it is absent or
// not a string.
func (f *Family) KindOf(obj doc.Object) string {
	kind, _ := obj.GetString(f.Discriminant)
	return kind
}

// ApplyDefaults returns a copy of obj with the kind's defaults applied.
// Documents of unknown kind are returned as a plain copy.
func (f *Family) ApplyDefaults(obj doc.Object) doc.Object {
	out := obj.Clone()
	if out == nil {
		out = doc.Object{}
	}
	if r, ok := f.Lookup(f.KindOf(out)); ok && r.Defaults != nil {
		r.Defaults(out)
	}
	return out
}

// Shared returns a rule table where every listed kind uses the same rules.
// Mathematical aggregators (longSum, doubleMax, ...) are declared this way.
func Shared(rules Rules, kinds ...string) map[string]Rules {
	out := make(map[string]Rules, len(kinds))
	for _, k := range kinds {
		out[k] = rules
	}
	return out
}
