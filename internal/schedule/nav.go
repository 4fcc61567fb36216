package schedule

import "planboard/internal/model"

// clientEvents returns the positions of cur and of every event sharing cur's
// client, in input order.
func clientEvents(events []model.CalendarEvent, cur model.CalendarEvent) (group []model.CalendarEvent, pos int) {
	pos = -1
	for _, ev := range events {
		if ev.ClientID != cur.ClientID {
			continue
		}
		if ev.ID == cur.ID {
			pos = len(group)
		}
		group = append(group, ev)
	}
	return group, pos
}

// NextForClient returns the event after cur among the events sharing cur's
// client, wrapping past the last one to the first. The second return is false
// when cur is not in the list.
func NextForClient(events []model.CalendarEvent, cur model.CalendarEvent) (model.CalendarEvent, bool) {
	group, pos := clientEvents(events, cur)
	if pos < 0 {
		return model.CalendarEvent{}, false
	}
	return group[(pos+1)%len(group)], true
}

// PrevForClient is the inverse of NextForClient, wrapping before the first
// event to the last.
func PrevForClient(events []model.CalendarEvent, cur model.CalendarEvent) (model.CalendarEvent, bool) {
	group, pos := clientEvents(events, cur)
	if pos < 0 {
		return model.CalendarEvent{}, false
	}
	return group[(pos-1+len(group))%len(group)], true
}
