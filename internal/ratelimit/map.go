package ratelimit

import "time"

// Map maps categories to rate limit deadlines.
//
// A rate limit is in effect for a given category if either the category's
// deadline or the deadline for the special CategoryAll has not yet expired.
// Expired entries are inert and need not be purged.
type Map map[Category]Deadline

// IsRateLimited returns true if the category is currently rate limited.
func (m Map) IsRateLimited(c Category) bool {
	return m.isRateLimited(c, time.Now())
}

func (m Map) isRateLimited(c Category, now time.Time) bool {
	return m.Deadline(c).After(Deadline(now))
}

// Deadline returns the deadline when the rate limit for the given category
// or the special CategoryAll expires, whichever is furthest into the
// future. The stricter limit always governs.
func (m Map) Deadline(c Category) Deadline {
	categoryDeadline := m[c]
	allDeadline := m[CategoryAll]
	if categoryDeadline.After(allDeadline) {
		return categoryDeadline
	}
	return allDeadline
}

// Merge merges the other map into m. If a category appears in both maps,
// the deadline furthest into the future wins.
func (m Map) Merge(other Map) {
	for c, d := range other {
		if d.After(m[c]) {
			m[c] = d
		}
	}
}
