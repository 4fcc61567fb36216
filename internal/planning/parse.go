package planning

import (
	"fmt"
	"time"

	"planboard/internal/model"
	"planboard/internal/schedule"
)

// wireDateLayout matches the backend's SQL-style timestamps once the space
// separator has been swapped for 'T'.
const wireDateLayout = "2006-01-02T15:04:05"

// ParseEvents maps planning records 1:1 to calendar events, in input order.
// Records missing either date are data noise and are dropped silently.
// Client names resolve through clients (id -> name); unknown ids leave the
// name empty.
func ParseEvents(items []model.PlanningItem, clients map[int]string) []model.CalendarEvent {
	out := make([]model.CalendarEvent, 0, len(items))
	for _, item := range items {
		if item.StartDate == "" || item.EndDate == "" {
			continue
		}
		start, err := ParseWireDate(item.StartDate)
		if err != nil {
			continue
		}
		end, err := ParseWireDate(item.EndDate)
		if err != nil {
			continue
		}

		out = append(out, model.CalendarEvent{
			ID:          item.ID,
			Color:       item.Color,
			Icon:        item.Icon,
			NumberOrder: item.NumberOrder,
			ClientID:    item.ClientID,
			ClientName:  clients[item.ClientID],
			Codart:      item.Codart,
			Title:       item.NumberOrder,
			Start:       start,
			End:         end,
			Minutes:     schedule.DurationMinutes(rawDuration(item.Duration)),
		})
	}
	return out
}

// ParseWireDate parses "YYYY-MM-DD HH:mm:ss" as a timezone-naive local
// instant. The space separator is swapped for 'T' first; some backend
// endpoints already return the ISO form.
func ParseWireDate(s string) (time.Time, error) {
	b := []byte(s)
	for i := range b {
		if b[i] == ' ' {
			b[i] = 'T'
			break
		}
	}
	return time.ParseInLocation(wireDateLayout, string(b), time.Local)
}

// rawDuration renders the loosely-typed wire duration (string or number) as
// the string form the codec expects.
func rawDuration(v any) string {
	switch d := v.(type) {
	case nil:
		return ""
	case string:
		return d
	case float64:
		// JSON numbers decode as float64; keep up to two fractional digits
		// so the seconds encoding survives.
		if d == float64(int64(d)) {
			return fmt.Sprintf("%d", int64(d))
		}
		return fmt.Sprintf("%.2f", d)
	default:
		return fmt.Sprint(v)
	}
}
