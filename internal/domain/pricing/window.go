package pricing

import "time"

// Window is an optional activity time window. A nil Start means the window
// has always been open; a nil End means it never closes. Both bounds are
// inclusive.
type Window struct {
	Start *time.Time
	End   *time.Time
}

// Contains reports whether now falls inside the window. A nil Window means
// no time constraint at all, so it contains every instant.
func (w *Window) Contains(now time.Time) bool {
	if w == nil {
		return true
	}
	if w.Start != nil && now.Before(*w.Start) {
		return false
	}
	if w.End != nil && now.After(*w.End) {
		return false
	}
	return true
}
