package schedule

import (
	"strconv"
	"strings"
)

// The backend encodes durations as a single decimal number where the integer
// part is minutes and the fractional part is seconds within the minute
// ("90.30" = 90 min 30 s). The fractional part is taken as up to two digits
// and right-padded with zero, so "90.3" means 30 seconds, not 3. Both "." and
// "," appear as separators depending on the backend locale. The encoding is
// lossy for seconds >= 60; that is the wire contract and is kept as-is.

// DurationSeconds converts a raw duration value to total seconds. Invalid,
// negative or non-finite input normalizes to 0.
func DurationSeconds(raw string) int {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0
	}

	sep := strings.IndexAny(raw, ".,")
	if sep < 0 {
		n, err := strconv.ParseFloat(raw, 64)
		if err != nil || n < 0 || n != n {
			return 0
		}
		return int(n) * 60
	}

	minutes, err := strconv.Atoi(raw[:sep])
	if err != nil || minutes < 0 {
		return 0
	}

	frac := raw[sep+1:]
	if len(frac) > 2 {
		frac = frac[:2]
	}
	for len(frac) < 2 {
		frac += "0"
	}
	seconds, err := strconv.Atoi(frac)
	if err != nil || seconds < 0 {
		return 0
	}

	return minutes*60 + seconds
}

// DurationMinutes converts a raw duration value to whole minutes, flooring
// any leftover seconds.
func DurationMinutes(raw string) int {
	return DurationSeconds(raw) / 60
}

// FormatDuration renders a raw duration value (minutes or "m.ss" encoded) as
// a Spanish component string, e.g. "1 día 2 horas 5 min". Only non-zero
// components appear; seconds only when the total is under one hour. Zero
// renders "0 min".
func FormatDuration(raw string) string {
	total := DurationSeconds(raw)
	if total <= 0 {
		return "0 min"
	}

	days := total / 86400
	hours := (total % 86400) / 3600
	minutes := (total % 3600) / 60
	seconds := total % 60

	parts := make([]string, 0, 4)
	if days == 1 {
		parts = append(parts, "1 día")
	} else if days > 1 {
		parts = append(parts, strconv.Itoa(days)+" días")
	}
	if hours == 1 {
		parts = append(parts, "1 hora")
	} else if hours > 1 {
		parts = append(parts, strconv.Itoa(hours)+" horas")
	}
	if minutes > 0 {
		parts = append(parts, strconv.Itoa(minutes)+" min")
	}
	if seconds > 0 && days == 0 && hours == 0 {
		parts = append(parts, strconv.Itoa(seconds)+" seg")
	}
	if len(parts) == 0 {
		return "0 min"
	}
	return strings.Join(parts, " ")
}
