package web

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	ics "github.com/arran4/golang-ical"

	appLog "planboard/internal/log"
	"planboard/internal/model"
	"planboard/internal/schedule"
)

var spanishDays = [7]string{"lunes", "martes", "miércoles", "jueves", "viernes", "sábado", "domingo"}

type boardDay struct {
	Date  time.Time
	Label string
	Today bool
}

type boardData struct {
	Week     string
	PrevWeek string
	NextWeek string
	Days     []boardDay
	Grid     *schedule.WeekGrid
	Filters  schedule.Filters
	MaxLanes int
	Snapped  bool
	Error    string
	Query    string
}

// handleBoard renders the week board as server-side HTML. Downtime windows
// are laid out alongside planning events so operators see blocked hours in
// place. A backend outage still renders the page shell with an error banner.
func (s *Server) handleBoard(w http.ResponseWriter, r *http.Request) {
	data := boardData{
		Filters:  filtersFromQuery(r),
		MaxLanes: s.cfg.MaxLanes,
		Query:    r.URL.RawQuery,
	}

	events, err := s.loadEvents(r.Context(), false)
	if err != nil {
		appLog.Error("board render without events", err)
		data.Error = "No se pudieron cargar las órdenes planificadas"
	}

	filtered := data.Filters.Apply(events)
	week, snapped := s.resolveWeek(r, filtered)
	data.Snapped = snapped
	data.Week = week.Format(dayParam)
	data.PrevWeek = week.AddDate(0, 0, -7).Format(dayParam)
	data.NextWeek = week.AddDate(0, 0, 7).Format(dayParam)

	visible := filtered
	if s.downtime != nil {
		blocked := s.downtime.Events(r.Context(), week, week.AddDate(0, 0, 7), s.loc)
		if len(blocked) > 0 {
			visible = append(append([]model.CalendarEvent(nil), filtered...), blocked...)
		}
	}

	data.Grid = schedule.BuildWeekGrid(visible, week, s.cfg.DayStartHour, s.cfg.DayEndHour, s.cfg.MaxLanes)
	today := startOfDay(s.now())
	for i, d := range data.Grid.Days {
		data.Days = append(data.Days, boardDay{
			Date:  d,
			Label: fmt.Sprintf("%s %d", spanishDays[i], d.Day()),
			Today: d.Equal(today),
		})
	}

	s.renderPage(w, "board.html", data)
}

type eventDetailData struct {
	Event    eventDTO
	StartFmt string
	EndFmt   string
	Week     string
	PrevID   int
	NextID   int
	HasNav   bool
	Query    string
}

// handleEventDetail renders one event with prev/next navigation scoped to
// the same client, preserving the active filters in the links.
func (s *Server) handleEventDetail(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(strings.TrimPrefix(r.URL.Path, "/event/"))
	if err != nil || id <= 0 {
		http.NotFound(w, r)
		return
	}

	events, err := s.loadEvents(r.Context(), false)
	if err != nil {
		writeError(w, http.StatusBadGateway, "could not load events")
		return
	}

	filtered := filtersFromQuery(r).Apply(events)
	var cur model.CalendarEvent
	found := false
	for _, ev := range filtered {
		if ev.ID == id {
			cur = ev
			found = true
			break
		}
	}
	if !found {
		http.NotFound(w, r)
		return
	}

	week, _ := s.resolveWeek(r, filtered)
	data := eventDetailData{
		Event:    toDTO(cur),
		StartFmt: cur.Start.Format("02/01/2006 15:04"),
		EndFmt:   cur.End.Format("02/01/2006 15:04"),
		Week:     week.Format(dayParam),
		Query:    r.URL.RawQuery,
	}
	if prev, ok := schedule.PrevForClient(filtered, cur); ok {
		data.PrevID = prev.ID
		data.HasNav = true
	}
	if next, ok := schedule.NextForClient(filtered, cur); ok {
		data.NextID = next.ID
	}

	s.renderPage(w, "event.html", data)
}

func (s *Server) renderPage(w http.ResponseWriter, name string, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.tmpl.ExecuteTemplate(w, name, data); err != nil {
		appLog.Error("template render failed", err, "template", name)
	}
}

// handleWeekICS exports the visible week's filtered events as an iCalendar
// feed so the plant office can subscribe from Outlook.
func (s *Server) handleWeekICS(w http.ResponseWriter, r *http.Request) {
	events, err := s.loadEvents(r.Context(), false)
	if err != nil {
		writeError(w, http.StatusBadGateway, "could not load events")
		return
	}

	filtered := filtersFromQuery(r).Apply(events)
	week, _ := s.resolveWeek(r, filtered)
	weekEnd := week.AddDate(0, 0, 7)

	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId("-//planboard//week export//ES")
	for _, ev := range filtered {
		if !ev.End.After(week) || !ev.Start.Before(weekEnd) {
			continue
		}
		e := cal.AddEvent(fmt.Sprintf("plan-%d@planboard", ev.ID))
		e.SetStartAt(ev.Start)
		e.SetEndAt(ev.End)
		e.SetSummary(ev.NumberOrder)
		e.SetDescription(fmt.Sprintf("%s / %s", ev.ClientName, ev.Codart))
		e.SetDtStampTime(s.now())
	}

	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="week-%s.ics"`, week.Format(dayParam)))
	if err := cal.SerializeTo(w); err != nil {
		appLog.Error("ics serialize failed", err)
	}
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
