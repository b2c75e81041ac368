package schema

import (
	"slices"
	"strings"

	"github.com/roach88/druidq/internal/doc"
)

// Kind is a bit set of basic value kinds.
type Kind uint8

const (
	KindString Kind = 1 << iota
	KindInt
	KindFloat
	KindBool
	KindList
	KindObject
	KindNull

	KindNumber = KindInt | KindFloat
	KindAny    = KindString | KindNumber | KindBool | KindList | KindObject | KindNull
)

var kindNames = []struct {
	kind Kind
	name string
}{
	{KindString, "string"},
	{KindNumber, "number"},
	{KindInt, "int"},
	{KindFloat, "float"},
	{KindBool, "bool"},
	{KindList, "list"},
	{KindObject, "object"},
	{KindNull, "null"},
}

func (k Kind) String() string {
	if k == KindAny {
		return "any"
	}
	var parts []string
	rest := k
	for _, kn := range kindNames {
		if rest&kn.kind == kn.kind && kn.kind != 0 {
			parts = append(parts, kn.name)
			rest &^= kn.kind
		}
	}
	if len(parts) == 0 {
		return "nothing"
	}
	return strings.Join(parts, " or ")
}

func kindOf(v doc.Value) Kind {
	switch v.(type) {
	case doc.String:
		return KindString
	case doc.Int:
		return KindInt
	case doc.Float:
		return KindFloat
	case doc.Bool:
		return KindBool
	case doc.Array:
		return KindList
	case doc.Object:
		return KindObject
	case doc.Null:
		return KindNull
	default:
		return 0
	}
}

// FieldType is the expected type of one field.
type FieldType struct {
	kinds    Kind
	literals []string
	family   *Family
	elem     *FieldType
}

// Basic field types.
var (
	String = FieldType{kinds: KindString}
	Int    = FieldType{kinds: KindInt}
	Number = FieldType{kinds: KindNumber}
	Bool   = FieldType{kinds: KindBool}
	List   = FieldType{kinds: KindList}
	Object = FieldType{kinds: KindObject}
	Any    = FieldType{kinds: KindAny}
)

// Union accepts a value matching any of the given types. Element and document
// constraints of the members are kept; literal sets are not.
func Union(types ...FieldType) FieldType {
	var out FieldType
	for _, t := range types {
		out.kinds |= t.kinds
		if t.family != nil {
			out.family = t.family
		}
		if t.elem != nil {
			out.elem = t.elem
		}
	}
	return out
}

// OneOf accepts a string equal to one of the literals.
func OneOf(literals ...string) FieldType {
	sorted := slices.Clone(literals)
	slices.Sort(sorted)
	return FieldType{kinds: KindString, literals: sorted}
}

// DocumentOf accepts an object that is itself a valid member of family.
func DocumentOf(family *Family) FieldType {
	return FieldType{kinds: KindObject, family: family}
}

// ListOf accepts a list whose every element matches elem.
func ListOf(elem FieldType) FieldType {
	return FieldType{kinds: KindList, elem: &elem}
}

// Describe renders the type as it appears in mismatch messages.
func (t FieldType) Describe() string {
	switch {
	case len(t.literals) > 0:
		return "one of " + strings.Join(t.literals, ", ")
	case t.kinds == KindObject && t.family != nil:
		return t.family.Name
	case t.kinds == KindList && t.elem != nil:
		return "list of " + t.elem.Describe()
	}
	return t.kinds.String()
}

// Accepts reports whether v has one of the type's basic kinds.
func (t FieldType) Accepts(v doc.Value) bool {
	return t.kinds&kindOf(v) != 0
}
