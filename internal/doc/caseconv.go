package doc

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// CamelCase converts a snake_case field name to camelCase. The first word is
// left as written; every later word is capitalized with the rest lowercased,
// so "query_type" becomes "queryType" and "queryType" is returned unchanged.
func CamelCase(name string) string {
	if !strings.Contains(name, "_") {
		return name
	}

	// A Caser keeps state between calls and must not be shared.
	title := cases.Title(language.Und)

	words := strings.Split(name, "_")
	var b strings.Builder
	b.Grow(len(name))
	b.WriteString(words[0])
	for _, w := range words[1:] {
		b.WriteString(title.String(w))
	}
	return b.String()
}

// CamelCaseKeys returns a copy of fields with every top-level key converted.
// Later keys win when two names collapse onto the same camelCase form; use New
// when a collision should be an error instead.
func CamelCaseKeys(fields Fields) Fields {
	out := make(Fields, len(fields))
	for k, v := range fields {
		out[CamelCase(k)] = v
	}
	return out
}
