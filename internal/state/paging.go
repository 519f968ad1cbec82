package state

import "strings"

// Filter returns the items whose haystack contains q, ignoring case. An
// empty q, or a nil haystack, returns items unchanged.
func Filter[T any](items []T, q string, haystack func(T) string) []T {
	q = strings.ToLower(strings.TrimSpace(q))
	if q == "" || haystack == nil {
		return items
	}
	var out []T
	for _, it := range items {
		if strings.Contains(strings.ToLower(haystack(it)), q) {
			out = append(out, it)
		}
	}
	return out
}

// Paginate returns page p of items, size rows per page.
func Paginate[T any](items []T, p, size int) []T {
	if size <= 0 || p < 0 {
		return nil
	}
	start := p * size
	if start >= len(items) {
		return nil
	}
	end := start + size
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}

// PageCount returns the number of pages needed for n rows. It is at least
// one so an empty list still has a first page.
func PageCount(n, size int) int {
	if size <= 0 || n <= 0 {
		return 1
	}
	return (n + size - 1) / size
}
