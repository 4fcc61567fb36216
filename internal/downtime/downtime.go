// Package downtime overlays factory downtime windows (maintenance, cleaning,
// plant holidays) on the planning board. Windows come from ICS feeds and may
// recur; recurrences are expanded into the visible range only.
package downtime

import (
	"bytes"
	"context"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/teambition/rrule-go"

	appLog "planboard/internal/log"
	"planboard/internal/model"
	"planboard/internal/planning"
)

const (
	// blockedColor is the fixed board color for downtime windows.
	blockedColor = "#9e9e9e"

	// defaultMaxOccurrences caps recurrence expansion per event.
	defaultMaxOccurrences = 500
)

// Feed identifies one downtime ICS source.
type Feed struct {
	ID   string
	URL  string
	Name string
}

// Loader fetches and expands downtime feeds. Fetching shares the backend
// Fetcher so feed bodies get the same cache-and-fall-back behavior; a dead
// feed yields its last known windows instead of blanking the board.
type Loader struct {
	fetcher *planning.Fetcher
	feeds   []Feed
	maxOcc  int
}

// NewLoader constructs a Loader over the given feeds.
func NewLoader(fetcher *planning.Fetcher, feeds []Feed) *Loader {
	return &Loader{fetcher: fetcher, feeds: feeds, maxOcc: defaultMaxOccurrences}
}

// Events returns the blocked windows touching [rangeStart, rangeEnd),
// expanded into loc. Individual feed failures are logged and skipped.
func (l *Loader) Events(ctx context.Context, rangeStart, rangeEnd time.Time, loc *time.Location) []model.CalendarEvent {
	if loc == nil {
		loc = time.Local
	}

	var out []model.CalendarEvent
	for _, feed := range l.feeds {
		if feed.URL == "" {
			continue
		}
		body, _, err := l.fetcher.Get(ctx, feed.URL)
		if err != nil {
			appLog.Error("downtime feed fetch failed", err, "id", feed.ID)
			continue
		}
		events, err := l.expandFeed(feed, body, rangeStart, rangeEnd, loc)
		if err != nil {
			appLog.Error("downtime feed parse failed", err, "id", feed.ID)
			continue
		}
		out = append(out, events...)
	}
	return out
}

func (l *Loader) expandFeed(feed Feed, body []byte, rangeStart, rangeEnd time.Time, loc *time.Location) ([]model.CalendarEvent, error) {
	cal, err := ical.ParseCalendar(bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	var out []model.CalendarEvent
	for _, ve := range cal.Events() {
		start, err := ve.GetStartAt()
		if err != nil {
			continue
		}
		end, err := ve.GetEndAt()
		if err != nil || !end.After(start) {
			continue
		}
		span := end.Sub(start)

		title := feed.Name
		if p := ve.GetProperty(ical.ComponentPropertySummary); p != nil && p.Value != "" {
			title = p.Value
		}

		var starts []time.Time
		if p := ve.GetProperty(ical.ComponentPropertyRrule); p != nil && p.Value != "" {
			rule, rerr := rrule.StrToRRule(p.Value)
			if rerr != nil {
				appLog.Error("downtime rrule invalid", rerr, "id", feed.ID, "rrule", p.Value)
				continue
			}
			rule.DTStart(start)
			starts = rule.Between(rangeStart.Add(-span), rangeEnd, true)
			if len(starts) > l.maxOcc {
				appLog.Warn("downtime recurrence truncated", "id", feed.ID, "count", len(starts), "cap", l.maxOcc)
				starts = starts[:l.maxOcc]
			}
		} else {
			starts = []time.Time{start}
		}

		exdates := exdateSet(ve)

		for _, s := range starts {
			if _, skip := exdates[s.UTC().Format(time.RFC3339)]; skip {
				continue
			}
			occStart := s.In(loc)
			occEnd := occStart.Add(span)
			if !occEnd.After(rangeStart) || !occStart.Before(rangeEnd) {
				continue
			}
			out = append(out, model.CalendarEvent{
				Title:   title,
				Color:   blockedColor,
				Start:   occStart,
				End:     occEnd,
				Minutes: int(span / time.Minute),
				Blocked: true,
			})
		}
	}
	return out, nil
}

// exdateSet collects EXDATE values keyed by UTC RFC3339 form.
func exdateSet(ve *ical.VEvent) map[string]struct{} {
	out := make(map[string]struct{})
	for _, p := range ve.GetProperties(ical.ComponentPropertyExdate) {
		for _, part := range strings.Split(p.Value, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			if t, err := parseICSTime(part); err == nil {
				out[t.UTC().Format(time.RFC3339)] = struct{}{}
			}
		}
	}
	return out
}

// parseICSTime parses the basic ICS date / date-time forms used by EXDATE.
func parseICSTime(v string) (time.Time, error) {
	if strings.HasSuffix(v, "Z") {
		return time.Parse("20060102T150405Z", v)
	}
	if strings.Contains(v, "T") {
		return time.ParseInLocation("20060102T150405", v, time.Local)
	}
	return time.ParseInLocation("20060102", v, time.Local)
}
