package schedule

import (
	"time"

	"planboard/internal/model"
)

// LaneHeight is the vertical pixel height of one event row inside a cell.
const LaneHeight = 22

// CellEvent is one laid-out slice inside an hour cell. Offset and Width are
// percentages of the hour column; Top is the vertical pixel position derived
// from the lane index.
type CellEvent struct {
	Event  model.CalendarEvent
	Lane   int
	Offset float64
	Width  float64
	Top    int
}

// Cell is one (day, hour) cell of the week grid.
type Cell struct {
	Day      int
	Hour     int
	Events   []CellEvent
	Overflow int
}

// WeekGrid is the precomputed layout of one ISO week. Cells are indexed
// [day][hour-column]; Hours lists the visible hour of each column.
type WeekGrid struct {
	Week  time.Time
	Days  [7]time.Time
	Hours []int
	Cells [7][]Cell
}

// BuildWeekGrid expands events into day slices, resolves the slices touching
// every (day, hour) cell of the week starting at week (Monday 00:00), and
// lays each cell out in lanes. The day x hour map is computed once per
// (events, week) pair; cells only reference it.
func BuildWeekGrid(events []model.CalendarEvent, week time.Time, dayStart, dayEnd, maxLanes int) *WeekGrid {
	g := &WeekGrid{Week: week}
	for d := 0; d < 7; d++ {
		g.Days[d] = week.AddDate(0, 0, d)
	}
	for h := dayStart; h <= dayEnd; h++ {
		g.Hours = append(g.Hours, h)
	}

	// Precompute day x hour -> slices once, then lay out per cell.
	byCell := make(map[[2]int][]model.CalendarEvent)
	for _, ev := range events {
		for _, slice := range SplitByDay(ev) {
			day := dayIndex(week, slice.Start)
			if day < 0 {
				continue
			}
			first, last := touchedHours(slice)
			for h := first; h <= last; h++ {
				key := [2]int{day, h}
				byCell[key] = append(byCell[key], slice)
			}
		}
	}

	for d := 0; d < 7; d++ {
		g.Cells[d] = make([]Cell, len(g.Hours))
		for i, h := range g.Hours {
			g.Cells[d][i] = layoutCell(d, h, byCell[[2]int{d, h}], maxLanes)
		}
	}
	return g
}

// EventsForCell resolves the event slices touching the given (day, hour)
// cell of the week starting at week. A slice touches a cell when its day
// matches and it either starts at that hour or starts earlier and reaches it;
// a multi-hour slice therefore appears in every hour column it spans.
func EventsForCell(events []model.CalendarEvent, week time.Time, day, hour int) []model.CalendarEvent {
	var out []model.CalendarEvent
	for _, ev := range events {
		for _, slice := range SplitByDay(ev) {
			if dayIndex(week, slice.Start) != day {
				continue
			}
			first, last := touchedHours(slice)
			if hour >= first && hour <= last {
				out = append(out, slice)
			}
		}
	}
	return out
}

// dayIndex returns the 0-based weekday offset of t within the week starting
// at week, or -1 when t falls outside it.
func dayIndex(week time.Time, t time.Time) int {
	d := int(startOfDay(t).Sub(week) / (24 * time.Hour))
	if d < 0 || d > 6 {
		return -1
	}
	return d
}

// touchedHours returns the inclusive hour-column range a slice occupies on
// its own day. The end hour counts even when the slice carries zero minutes
// into it; a slice running to midnight stops at column 23.
func touchedHours(slice model.CalendarEvent) (first, last int) {
	first = slice.Start.Hour()
	last = slice.End.Hour()
	if slice.End.Day() != slice.Start.Day() {
		// End-exclusive slice running to next midnight.
		last = 23
	}
	if last < first {
		last = first
	}
	return first, last
}

// layoutCell lane-assigns the slices of one cell and positions each slice
// horizontally within the hour column: offset proportional to the start
// minute when the slice starts in this hour, width proportional to the
// minutes falling inside the hour, clamped to the remaining column.
func layoutCell(day, hour int, slices []model.CalendarEvent, maxLanes int) Cell {
	cell := Cell{Day: day, Hour: hour}
	if len(slices) == 0 {
		return cell
	}

	for _, slice := range AssignLanes(slices) {
		offset := 0.0
		if slice.Start.Hour() == hour {
			offset = float64(slice.Start.Minute()) / 60 * 100
		}

		hourStart := time.Date(slice.Start.Year(), slice.Start.Month(), slice.Start.Day(), hour, 0, 0, 0, slice.Start.Location())
		hourEnd := hourStart.Add(time.Hour)
		from, to := slice.Start, slice.End
		if from.Before(hourStart) {
			from = hourStart
		}
		if to.After(hourEnd) {
			to = hourEnd
		}
		width := 0.0
		if to.After(from) {
			width = float64(to.Sub(from)/time.Minute) / 60 * 100
		}
		if width > 100-offset {
			width = 100 - offset
		}

		if slice.Lane >= maxLanes {
			cell.Overflow++
		}
		cell.Events = append(cell.Events, CellEvent{
			Event:  slice,
			Lane:   slice.Lane,
			Offset: offset,
			Width:  width,
			Top:    slice.Lane * LaneHeight,
		})
	}
	return cell
}
