package pagination

// Count returns the number of pages needed for n items at the given page
// size. Zero items still means one (empty) page so the current page number
// can stay within [1, Count].
func Count(n, size int) int {
	if size <= 0 {
		return 1
	}
	pages := (n + size - 1) / size
	if pages < 1 {
		return 1
	}
	return pages
}

// Clamp forces a 1-based page number into [1, totalPages].
func Clamp(page, totalPages int) int {
	if totalPages < 1 {
		totalPages = 1
	}
	if page < 1 {
		return 1
	}
	if page > totalPages {
		return totalPages
	}
	return page
}

// Slice returns the window of items belonging to the 1-based page.
// Out-of-range pages yield an empty slice.
func Slice[T any](items []T, page, size int) []T {
	if size <= 0 || page < 1 {
		return nil
	}
	start := (page - 1) * size
	if start >= len(items) {
		return nil
	}
	end := start + size
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}
