package aggregation

// Named is anything with an output name.
type Named interface {
	Name() string
}

// Dedupe keeps the first item for each name, in input order. Items without a
// name are always kept.
func Dedupe[T Named](items []T) []T {
	seen := make(map[string]bool, len(items))
	out := make([]T, 0, len(items))
	for _, item := range items {
		name := item.Name()
		if name != "" {
			if seen[name] {
				continue
			}
			seen[name] = true
		}
		out = append(out, item)
	}
	return out
}
