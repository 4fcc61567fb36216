package schedule

import (
	"time"

	"planboard/internal/model"
)

// SplitByDay expands an event crossing local midnight into one slice per
// calendar day touched. Slices are end-exclusive at midnight: a slice
// crossing into the next day ends exactly at 00:00 and the next slice starts
// there, so slice minutes always sum to the real elapsed minutes. Events
// contained in a single day (or with a degenerate range) come back as a
// single shallow copy.
func SplitByDay(ev model.CalendarEvent) []model.CalendarEvent {
	if !ev.Start.Before(ev.End) || ev.SameDay() {
		return []model.CalendarEvent{ev}
	}

	// Termination guard: one slice per day spanned, plus one.
	maxSlices := int(ev.End.Sub(ev.Start).Hours()/24) + 2

	out := make([]model.CalendarEvent, 0, maxSlices)
	cur := ev.Start
	for i := 0; i < maxSlices && cur.Before(ev.End); i++ {
		end := nextMidnight(cur)
		if end.After(ev.End) {
			end = ev.End
		}
		slice := ev
		slice.Start = cur
		slice.End = end
		slice.Minutes = int(end.Sub(cur) / time.Minute)
		out = append(out, slice)
		cur = end
	}
	return out
}

// nextMidnight returns 00:00 of the day after t, in t's location.
func nextMidnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d+1, 0, 0, 0, 0, t.Location())
}

// startOfDay returns 00:00 of t's day, in t's location.
func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
