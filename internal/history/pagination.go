package history

// Ellipsis marks a collapsed run in a page-number strip.
const Ellipsis = -1

// PageNumbers builds the page-number strip for a pagination control:
// always the first page, the last page, the current page and its
// immediate neighbors; every other run collapses into a single Ellipsis
// marker.
func PageNumbers(current, total int) []int {
	if total <= 0 {
		return nil
	}
	if current < 1 {
		current = 1
	}
	if current > total {
		current = total
	}

	var strip []int
	prev := 0
	for p := 1; p <= total; p++ {
		if p != 1 && p != total && (p < current-1 || p > current+1) {
			continue
		}
		if prev != 0 && p-prev > 1 {
			strip = append(strip, Ellipsis)
		}
		strip = append(strip, p)
		prev = p
	}
	return strip
}
