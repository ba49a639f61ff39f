package history

import (
	"sort"

	"github.com/takumi/specgen/internal/domain"
)

// DefaultPageSize matches what the backend UI paginates with.
const DefaultPageSize = 10

// View holds the full history collection in memory and paginates it
// client-side. The collection is fetched once; page changes never
// re-fetch.
type View struct {
	entries  []domain.HistoryEntry
	pageSize int
	page     int // 1-based
}

// NewView sorts the entries descending by recency and opens page 1. The
// recency key is the start time; entries whose start time cannot be
// parsed are ordered by a lexicographic compare of the raw strings.
func NewView(entries []domain.HistoryEntry, pageSize int) *View {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	v := &View{
		entries:  append([]domain.HistoryEntry(nil), entries...),
		pageSize: pageSize,
		page:     1,
	}
	v.sortByRecency()
	return v
}

func (v *View) sortByRecency() {
	sort.SliceStable(v.entries, func(i, j int) bool {
		ti, tj := v.entries[i].StartedAt(), v.entries[j].StartedAt()
		if !ti.IsZero() || !tj.IsZero() {
			return ti.After(tj)
		}
		return v.entries[i].StartTime > v.entries[j].StartTime
	})
}

// Len returns the total number of entries.
func (v *View) Len() int {
	return len(v.entries)
}

// TotalPages returns the number of pages; an empty collection still has
// one (empty) page so the "no history" row has somewhere to render.
func (v *View) TotalPages() int {
	if len(v.entries) == 0 {
		return 1
	}
	return (len(v.entries) + v.pageSize - 1) / v.pageSize
}

// Page returns the current 1-based page index.
func (v *View) Page() int {
	return v.page
}

// SetPage moves to page n, clamped into [1, TotalPages].
func (v *View) SetPage(n int) {
	if n < 1 {
		n = 1
	}
	if max := v.TotalPages(); n > max {
		n = max
	}
	v.page = n
}

// HasPrev reports whether a previous page exists.
func (v *View) HasPrev() bool { return v.page > 1 }

// HasNext reports whether a next page exists.
func (v *View) HasNext() bool { return v.page < v.TotalPages() }

// Rows returns the entries of the current page.
func (v *View) Rows() []domain.HistoryEntry {
	start := (v.page - 1) * v.pageSize
	if start >= len(v.entries) {
		return nil
	}
	end := start + v.pageSize
	if end > len(v.entries) {
		end = len(v.entries)
	}
	return v.entries[start:end]
}

// Find looks up an entry by its instance id.
func (v *View) Find(instanceID string) (*domain.HistoryEntry, bool) {
	for i := range v.entries {
		if v.entries[i].InstanceID == instanceID {
			return &v.entries[i], true
		}
	}
	return nil, false
}

// Remove deletes the entry with the given instance id from the in-memory
// collection and clamps the current page down if it fell out of range.
// Returns false when the id is unknown; the collection is then untouched.
func (v *View) Remove(instanceID string) bool {
	for i := range v.entries {
		if v.entries[i].InstanceID == instanceID {
			v.entries = append(v.entries[:i], v.entries[i+1:]...)
			v.SetPage(v.page)
			return true
		}
	}
	return false
}
