package schedule

import (
	"testing"
	"time"

	"planboard/internal/model"
)

func event(id int, start, end time.Time) model.CalendarEvent {
	return model.CalendarEvent{
		ID:      id,
		Start:   start,
		End:     end,
		Minutes: int(end.Sub(start) / time.Minute),
	}
}

func at(day, hour, min int) time.Time {
	return time.Date(2024, time.January, day, hour, min, 0, 0, time.Local)
}

func TestSplitByDaySingleDayIdentity(t *testing.T) {
	ev := event(1, at(1, 9, 0), at(1, 12, 30))

	got := SplitByDay(ev)
	if len(got) != 1 {
		t.Fatalf("expected one slice, got %d", len(got))
	}
	if got[0] != ev {
		t.Errorf("slice differs from input: %+v", got[0])
	}
}

func TestSplitByDayDegenerateRange(t *testing.T) {
	ev := event(1, at(2, 9, 0), at(1, 9, 0))
	got := SplitByDay(ev)
	if len(got) != 1 {
		t.Fatalf("expected a single copy for start >= end, got %d slices", len(got))
	}
}

func TestSplitByDayCrossMidnight(t *testing.T) {
	// 2024-01-01 22:00 -> 2024-01-02 02:00, 240 minutes.
	ev := event(1, at(1, 22, 0), at(2, 2, 0))

	got := SplitByDay(ev)
	if len(got) != 2 {
		t.Fatalf("expected two slices, got %d", len(got))
	}

	if !got[0].Start.Equal(at(1, 22, 0)) || !got[0].End.Equal(at(2, 0, 0)) {
		t.Errorf("first slice range wrong: %v -> %v", got[0].Start, got[0].End)
	}
	if got[0].Minutes != 120 {
		t.Errorf("first slice minutes = %d, want 120", got[0].Minutes)
	}
	if !got[1].Start.Equal(at(2, 0, 0)) || !got[1].End.Equal(at(2, 2, 0)) {
		t.Errorf("second slice range wrong: %v -> %v", got[1].Start, got[1].End)
	}
	if got[1].Minutes != 120 {
		t.Errorf("second slice minutes = %d, want 120", got[1].Minutes)
	}

	if got[0].Minutes+got[1].Minutes != ev.Minutes {
		t.Errorf("slice minutes sum %d, elapsed %d", got[0].Minutes+got[1].Minutes, ev.Minutes)
	}
}

func TestSplitByDayMultiDayTotality(t *testing.T) {
	// Wednesday 10:30 through Saturday 06:15.
	ev := event(1, at(3, 10, 30), at(6, 6, 15))

	got := SplitByDay(ev)
	if len(got) != 4 {
		t.Fatalf("expected 4 slices, got %d", len(got))
	}

	sum := 0
	for i, s := range got {
		sum += s.Minutes
		if i > 0 && !s.Start.Equal(got[i-1].End) {
			t.Errorf("slice %d not contiguous: starts %v, previous ended %v", i, s.Start, got[i-1].End)
		}
		if i > 0 && i < len(got)-1 {
			if s.Start.Hour() != 0 || s.Start.Minute() != 0 {
				t.Errorf("inner slice %d does not start at midnight: %v", i, s.Start)
			}
		}
	}
	if want := int(ev.End.Sub(ev.Start) / time.Minute); sum != want {
		t.Errorf("slice minutes sum %d, elapsed %d", sum, want)
	}

	// Every slice lands on a distinct day.
	days := map[int]bool{}
	for _, s := range got {
		d := s.Start.Day()
		if days[d] {
			t.Errorf("duplicate slice day %d", d)
		}
		days[d] = true
	}
}
