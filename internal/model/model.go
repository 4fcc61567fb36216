package model

import "time"

// PlanningItem is a planning record exactly as the Logipack backend returns
// it. Dates are SQL-style "YYYY-MM-DD HH:mm:ss" strings and may be empty;
// Duration uses the legacy "m.ss" encoding (minutes, with an optional
// fractional part that encodes seconds within the minute). Records are
// immutable once fetched; the backend is the source of truth.
type PlanningItem struct {
	ID          int    `json:"id"`
	StartDate   string `json:"start_date"`
	EndDate     string `json:"end_date"`
	Duration    any    `json:"duration"` // string or number on the wire
	Color       string `json:"color"`
	Codart      string `json:"codart"`
	Icon        string `json:"icon"`
	NumberOrder string `json:"number_order"`
	ClientID    int    `json:"client_id"`
}

// Client is a Logipack client record, shape only.
type Client struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// CalendarEvent is the normalized, display-ready form of a PlanningItem.
// Start/End are timezone-naive local instants. A single logical event may be
// expanded into several day-bounded slices sharing the same ID; slices are
// recomputed per layout pass and never persisted.
type CalendarEvent struct {
	ID          int
	Color       string
	Icon        string
	NumberOrder string
	ClientID    int
	ClientName  string
	Codart      string
	Title       string

	Start   time.Time
	End     time.Time
	Minutes int

	// Lane is assigned during cell layout only.
	Lane int

	// Blocked marks downtime overlay events; they take part in layout but
	// carry no plan behind them.
	Blocked bool
}

// SameDay reports whether the event starts and ends on the same local
// calendar day. End-exclusive: an event ending exactly at midnight still
// belongs to the day it started on.
func (e CalendarEvent) SameDay() bool {
	end := e.End
	if h, m, s := end.Clock(); h == 0 && m == 0 && s == 0 && end.After(e.Start) {
		end = end.Add(-time.Second)
	}
	y1, m1, d1 := e.Start.Date()
	y2, m2, d2 := end.Date()
	return y1 == y2 && m1 == m2 && d1 == d2
}

// Plan is the canonical single-plan shape returned by the backend.
type Plan struct {
	ID          int    `json:"id"`
	Line        string `json:"line"`
	StatusDates string `json:"status_dates"`
	NumberOrder string `json:"number_order"`
	ClientID    int    `json:"client_id"`
}

// OrderState is the order-state validation response. Estado is nil when the
// backend has not recorded any state yet.
type OrderState struct {
	Estado *int `json:"estado"`
}

// Finalized reports whether the order can no longer be executed. A nil
// estado and EstadoPlanned both allow execution.
func (s OrderState) Finalized() bool {
	return s.Estado != nil && *s.Estado != EstadoPlanned
}

// Sentinel estado values. EstadoPlanned and a nil estado both mean the order
// has not been finalized and execution may be armed.
const (
	EstadoPlanned   = 100
	EstadoPaused    = 200
	EstadoFinalized = 300
	EstadoVoided    = 400
)

// StateLabel translates a known estado code to its Spanish label. Unknown
// codes fall back to the raw number rendered by the caller.
func StateLabel(estado int) (string, bool) {
	switch estado {
	case EstadoPaused:
		return "pausada", true
	case EstadoFinalized:
		return "finalizada", true
	case EstadoVoided:
		return "anulada", true
	default:
		return "", false
	}
}
