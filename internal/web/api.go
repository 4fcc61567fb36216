package web

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	appLog "planboard/internal/log"
	"planboard/internal/marker"
	"planboard/internal/model"
	"planboard/internal/schedule"
)

const dayParam = "2006-01-02"

// filtersFromQuery builds the event filters from request query parameters.
func filtersFromQuery(r *http.Request) schedule.Filters {
	q := r.URL.Query()
	return schedule.Filters{
		NumberOrder: q.Get("number_order"),
		Codart:      q.Get("codart"),
		MinDuration: parseIntDefault(q.Get("min_duration"), 0),
		ClientName:  q.Get("client_name"),
	}
}

// resolveWeek works out the Monday of the week a request wants to see.
// An explicit week or date parameter pins the view; without either, the
// cursor starts at the current week and snaps to the first filtered event.
func (s *Server) resolveWeek(r *http.Request, filtered []model.CalendarEvent) (week time.Time, snapped bool) {
	q := r.URL.Query()
	c := schedule.NewCursor(s.now)

	if wk := q.Get("week"); wk != "" {
		if t, err := time.ParseInLocation(dayParam, wk, s.loc); err == nil {
			c.Pick(t)
			return c.Week, false
		}
	}
	if d := q.Get("date"); d != "" {
		if t, err := time.ParseInLocation(dayParam, d, s.loc); err == nil {
			c.Pick(t)
			return c.Week, false
		}
	}
	snapped = c.SnapTo(filtered)
	return c.Week, snapped
}

type eventDTO struct {
	ID          int    `json:"id"`
	Title       string `json:"title"`
	NumberOrder string `json:"number_order"`
	ClientID    int    `json:"client_id"`
	ClientName  string `json:"client_name"`
	Codart      string `json:"codart"`
	Color       string `json:"color"`
	Icon        string `json:"icon"`
	Start       string `json:"start"`
	End         string `json:"end"`
	Minutes     int    `json:"minutes"`
	Duration    string `json:"duration"`
	Blocked     bool   `json:"blocked,omitempty"`
}

func toDTO(ev model.CalendarEvent) eventDTO {
	return eventDTO{
		ID:          ev.ID,
		Title:       ev.Title,
		NumberOrder: ev.NumberOrder,
		ClientID:    ev.ClientID,
		ClientName:  ev.ClientName,
		Codart:      ev.Codart,
		Color:       ev.Color,
		Icon:        ev.Icon,
		Start:       ev.Start.Format("2006-01-02 15:04:05"),
		End:         ev.End.Format("2006-01-02 15:04:05"),
		Minutes:     ev.Minutes,
		Duration:    schedule.FormatDuration(strconv.Itoa(ev.Minutes)),
		Blocked:     ev.Blocked,
	}
}

// handleEvents serves the filtered event list for one week as JSON.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	events, err := s.loadEvents(r.Context(), false)
	if err != nil {
		writeError(w, http.StatusBadGateway, "could not load events")
		return
	}

	filtered := filtersFromQuery(r).Apply(events)
	week, snapped := s.resolveWeek(r, filtered)
	weekEnd := week.AddDate(0, 0, 7)

	var out []eventDTO
	for _, ev := range filtered {
		if ev.End.After(week) && ev.Start.Before(weekEnd) {
			out = append(out, toDTO(ev))
		}
	}
	if out == nil {
		out = []eventDTO{}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"week":    week.Format(dayParam),
		"snapped": snapped,
		"events":  out,
	})
}

// handleClients serves the client directory as JSON.
func (s *Server) handleClients(w http.ResponseWriter, r *http.Request) {
	clients, err := s.backend.Clients(r.Context())
	if err != nil {
		writeError(w, http.StatusBadGateway, "could not load clients")
		return
	}
	if clients == nil {
		clients = []model.Client{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"clients": clients})
}

type executeResp struct {
	Status  string `json:"status"`
	Estado  int    `json:"estado,omitempty"`
	Message string `json:"message,omitempty"`
	Open    string `json:"open,omitempty"`
}

// handleExecute arms an execution for a plan. The flow mirrors what the
// execution terminal expects: fetch the canonical plan, re-check the order
// state right before arming, and only then persist the marker. Fetch or
// state failures abort without touching an already armed marker.
func (s *Server) handleExecute(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		writeError(w, http.StatusMethodNotAllowed, "POST required")
		return
	}

	id := strings.TrimPrefix(r.URL.Path, "/api/execute/")
	planID, err := strconv.Atoi(id)
	if err != nil || planID <= 0 {
		writeError(w, http.StatusBadRequest, "invalid plan id")
		return
	}

	user := ""
	if c, err := r.Cookie(userCookie); err == nil {
		user = strings.TrimSpace(c.Value)
	}
	if user == "" {
		writeError(w, http.StatusPreconditionFailed, "usuario no identificado")
		return
	}

	plan, err := s.backend.Plan(r.Context(), planID)
	if err != nil {
		appLog.Error("plan fetch failed", err, "plan", planID)
		writeError(w, http.StatusBadGateway, "could not load plan")
		return
	}

	state, err := s.backend.OrderState(r.Context(), plan.ID)
	if err != nil {
		appLog.Error("order state fetch failed", err, "plan", planID)
		writeError(w, http.StatusBadGateway, "could not check order state")
		return
	}

	if state.Finalized() {
		estado := *state.Estado
		msg := fmt.Sprintf("Orden en estado %d", estado)
		if label, ok := model.StateLabel(estado); ok {
			msg = fmt.Sprintf("Orden ya %s (estado %d)", label, estado)
		}
		writeJSON(w, http.StatusConflict, executeResp{
			Status:  "finalized",
			Estado:  estado,
			Message: msg,
		})
		return
	}

	if err := s.markers.Arm(marker.Marker{PlanID: plan.ID, User: user}); err != nil {
		appLog.Error("failed to arm execution marker", err, "plan", planID)
		writeError(w, http.StatusInternalServerError, "could not arm execution")
		return
	}
	appLog.Info("execution armed", "plan", planID, "user", user)

	writeJSON(w, http.StatusOK, executeResp{
		Status: "armed",
		Open:   s.cfg.ExecutionURL,
	})
}
