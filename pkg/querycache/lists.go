package querycache

// UpdateWhere returns a copy of items with fn applied to every matching item.
// The input slice is left as is, which keeps optimistic rollbacks exact.
func UpdateWhere[T any](items []T, match func(T) bool, fn func(T) T) []T {
	out := make([]T, len(items))
	for i, item := range items {
		if match(item) {
			out[i] = fn(item)
			continue
		}
		out[i] = item
	}
	return out
}

// RemoveWhere returns a copy of items without the matching ones.
func RemoveWhere[T any](items []T, match func(T) bool) []T {
	out := make([]T, 0, len(items))
	for _, item := range items {
		if !match(item) {
			out = append(out, item)
		}
	}
	return out
}
