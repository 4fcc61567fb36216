package schedule

import (
	"strings"

	"planboard/internal/model"
)

// Filters is a set of independent predicates combined by logical AND over the
// unexpanded event list. The zero value is all-permissive.
type Filters struct {
	// NumberOrder is a case-sensitive substring match on the order number.
	NumberOrder string
	// Codart is an exact match on the product/line code.
	Codart string
	// MinDuration keeps events lasting at least this many minutes.
	MinDuration int
	// ClientName is a case-insensitive substring match on the client name.
	ClientName string
}

// Match reports whether the event passes every configured predicate.
func (f Filters) Match(ev model.CalendarEvent) bool {
	if f.NumberOrder != "" && !strings.Contains(ev.NumberOrder, f.NumberOrder) {
		return false
	}
	if f.Codart != "" && ev.Codart != f.Codart {
		return false
	}
	if f.MinDuration > 0 && ev.Minutes < f.MinDuration {
		return false
	}
	if f.ClientName != "" && !strings.Contains(strings.ToLower(ev.ClientName), strings.ToLower(f.ClientName)) {
		return false
	}
	return true
}

// Apply filters the event list, preserving order. With default filters the
// input comes back unchanged.
func (f Filters) Apply(events []model.CalendarEvent) []model.CalendarEvent {
	if f == (Filters{}) {
		return events
	}
	out := make([]model.CalendarEvent, 0, len(events))
	for _, ev := range events {
		if f.Match(ev) {
			out = append(out, ev)
		}
	}
	return out
}

// Reset restores every predicate to its permissive default atomically.
func (f *Filters) Reset() {
	*f = Filters{}
}
