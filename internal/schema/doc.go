// Package schema validates documents against per-kind field rules.
//
// Every discriminated family (queries, filters, aggregations,
// post-aggregations) is described by a Family: the name of its discriminant
// field and a table of Rules keyed by discriminant value. Rules are plain data.
// Validation is one lookup followed by one pass over the table, and it
// accumulates every violation instead of stopping at the first.
//
// Families reference each other through DocumentOf, so a query's filter is
// checked against the filter family with violations reported under their
// dotted path (filter.fields[1].dimension).
//
// Violation codes (E200-E299):
//
//	E201  discriminant absent or unrecognized
//	E202  required field missing
//	E203  field value has the wrong type
//	E204  field not allowed for the kind
//	E205  field value outside its enumerated set
package schema
