package schema

import (
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/druidq/internal/doc"
)

// Validate checks obj against family and returns every violation found.
// An empty result means obj is valid.
func Validate(family *Family, obj doc.Object) []Violation {
	return ValidateAt(family, obj, "")
}

// ValidateAt is Validate for a document nested under path. Field names in the
// resulting violations are prefixed with path.
func ValidateAt(family *Family, obj doc.Object, path string) []Violation {
	v := &validator{}
	v.validateDocument(family, obj, path)
	return v.violations
}

// Check validates obj and returns a *SchemaError when anything is wrong.
func Check(family *Family, obj doc.Object) error {
	return NewError(Validate(family, obj))
}

// validator accumulates violations during traversal.
type validator struct {
	violations []Violation
}

func (v *validator) add(code, field, format string, args ...any) {
	v.violations = append(v.violations, Violation{
		Field:   field,
		Message: fmt.Sprintf(format, args...),
		Code:    code,
	})
}

func join(path, field string) string {
	if path == "" {
		return field
	}
	return path + "." + field
}

func (v *validator) validateDocument(family *Family, obj doc.Object, path string) {
	kind := family.KindOf(obj)
	rules, ok := family.Lookup(kind)
	if !ok {
		rendered := kind
		if raw, present := obj[family.Discriminant]; present && kind == "" {
			b, _ := doc.MarshalCanonical(raw)
			rendered = string(b)
		}
		msg := fmt.Sprintf("Invalid %s type %q. Valid types: %s",
			family.Name, rendered, strings.Join(family.KindNames(), ", "))
		if path != "" {
			msg = path + ": " + msg
		}
		v.add(ErrUnknownType, join(path, family.Discriminant), "%s", msg)
		return
	}

	for _, field := range sortedFields(rules.Required) {
		fullPath := join(path, field)
		val, present := obj[field]
		if !present {
			v.add(ErrMissingField, fullPath, "Missing field: %s required for type: %s", fullPath, kind)
			continue
		}
		v.checkField(rules.Required[field], val, fullPath)
	}

	for _, field := range sortedFields(rules.Optional) {
		if val, present := obj[field]; present {
			v.checkField(rules.Optional[field], val, join(path, field))
		}
	}

	for _, field := range rules.Forbidden {
		if _, present := obj[field]; present {
			fullPath := join(path, field)
			v.add(ErrForbiddenField, fullPath, "Field %s is not allowed for type: %s", fullPath, kind)
		}
	}
}

func (v *validator) checkField(t FieldType, val doc.Value, path string) {
	if !t.Accepts(val) {
		v.add(ErrMismatchedType, path, "Field %s has mismatched type (expecting %s, found %s)",
			path, t.Describe(), doc.TypeName(val))
		return
	}

	if len(t.literals) > 0 {
		s, _ := val.(doc.String)
		if !slices.Contains(t.literals, string(s)) {
			v.add(ErrInvalidValue, path, "Field %s has invalid value %q (expecting %s)",
				path, string(s), t.Describe())
		}
		return
	}

	switch typed := val.(type) {
	case doc.Object:
		if t.family != nil {
			v.validateDocument(t.family, typed, path)
		}
	case doc.Array:
		if t.elem != nil {
			for i, elem := range typed {
				v.checkField(*t.elem, elem, fmt.Sprintf("%s[%d]", path, i))
			}
		}
	}
}

func sortedFields(m map[string]FieldType) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
