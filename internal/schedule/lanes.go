package schedule

import (
	"slices"
	"time"

	"planboard/internal/model"
)

// AssignLanes sorts events ascending by start time and greedily partitions
// them into display lanes: each event goes into the first lane whose last
// event ends strictly before this event's start, opening a new lane when none
// fits. Lane indexes are 0-based. The result is deterministic for identical
// input order; it is a first-fit partition, not a globally minimal one.
func AssignLanes(events []model.CalendarEvent) []model.CalendarEvent {
	out := make([]model.CalendarEvent, len(events))
	copy(out, events)
	slices.SortStableFunc(out, func(a, b model.CalendarEvent) int {
		return a.Start.Compare(b.Start)
	})

	// laneEnds[i] is the end of the last event placed in lane i.
	var laneEnds []time.Time
	for i := range out {
		placed := false
		for lane, end := range laneEnds {
			if end.Before(out[i].Start) {
				out[i].Lane = lane
				laneEnds[lane] = out[i].End
				placed = true
				break
			}
		}
		if !placed {
			out[i].Lane = len(laneEnds)
			laneEnds = append(laneEnds, out[i].End)
		}
	}
	return out
}
