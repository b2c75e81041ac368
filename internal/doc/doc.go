// Package doc provides the structural document model shared by every Druid
// query component.
//
// A document is an Object: a mapping from camelCase field name to a sealed
// Value (Null, String, Int, Float, Bool, Array, Object). Documents are plain
// data. The per-kind field rules that give them meaning live in package
// schema; this package knows nothing about queries, filters or aggregations.
//
// Key design constraints:
//   - Field names are canonicalized once, at construction (CamelCase)
//   - Equality is by canonical encoding, never by map iteration order
//   - Helpers that "modify" a document return a new one (Extend, Merge, Without)
//   - doc imports nothing internal, so every other package may import it
package doc
