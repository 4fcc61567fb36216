package schedule

import (
	"time"

	"planboard/internal/model"
)

// Cursor tracks the currently displayed ISO week (Monday 00:00) and an
// optional selected single day. The clock is injectable for tests.
type Cursor struct {
	Week     time.Time
	Selected time.Time // zero when no single day is selected

	now func() time.Time
}

// NewCursor returns a cursor on the current real-world ISO week.
func NewCursor(now func() time.Time) *Cursor {
	if now == nil {
		now = time.Now
	}
	return &Cursor{Week: StartOfWeek(now()), now: now}
}

// StartOfWeek returns the Monday 00:00 of the ISO week containing t.
func StartOfWeek(t time.Time) time.Time {
	day := startOfDay(t)
	wd := int(day.Weekday())
	if wd == 0 {
		wd = 7 // Sunday belongs to the week started the previous Monday
	}
	return day.AddDate(0, 0, 1-wd)
}

// Prev moves the cursor one week back.
func (c *Cursor) Prev() {
	c.Week = c.Week.AddDate(0, 0, -7)
}

// Next moves the cursor one week forward.
func (c *Cursor) Next() {
	c.Week = c.Week.AddDate(0, 0, 7)
}

// Today resets the cursor to the current real-world ISO week and clears the
// day selection.
func (c *Cursor) Today() {
	c.Week = StartOfWeek(c.now())
	c.Selected = time.Time{}
}

// Pick selects a single day and realigns the week to it. A zero time clears
// the selection and resets to the current week.
func (c *Cursor) Pick(d time.Time) {
	if d.IsZero() {
		c.Today()
		return
	}
	c.Selected = startOfDay(d)
	c.Week = StartOfWeek(d)
}

// SnapTo realigns the cursor to the ISO week of the first event, in filtered
// response order, and reports whether it moved. It never moves when the week
// already matches or a day is selected, so callers cannot loop on it.
func (c *Cursor) SnapTo(events []model.CalendarEvent) bool {
	if len(events) == 0 || !c.Selected.IsZero() {
		return false
	}
	week := StartOfWeek(events[0].Start)
	if week.Equal(c.Week) {
		return false
	}
	c.Week = week
	return true
}
