package extract

// PageRange is an optional inclusive 1-indexed page selection. A zero value
// on either side means "unbounded" on that side; the zero PageRange selects
// every page.
type PageRange struct {
	Start int
	End   int
}

// IsFull reports whether the range selects the whole document.
func (pr PageRange) IsFull() bool {
	return pr.Start == 0 && pr.End == 0
}

// Clamp resolves the effective [first, last] page numbers for a document
// with total pages. Bounds are clamped to [1, total]; the returned ok is
// false when the document has no pages or the range is empty after clamping.
func (pr PageRange) Clamp(total int) (first, last int, ok bool) {
	if total <= 0 {
		return 0, 0, false
	}
	first = 1
	if pr.Start > 1 {
		first = pr.Start
	}
	if first > total {
		return 0, 0, false
	}
	last = total
	if pr.End > 0 && pr.End < total {
		last = pr.End
	}
	if first > last {
		return 0, 0, false
	}
	return first, last, true
}
