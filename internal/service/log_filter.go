package service

import (
	"math"
	"strconv"
	"strings"
	"time"

	"exercisetracker/internal/models"
)

// Accepted date inputs. Date-only and zone-less values are read as UTC.
var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
}

// ParseDate parses an exercise or filter date.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

// LogQuery holds the raw from/to/limit query values of a log request.
type LogQuery struct {
	From  string
	To    string
	Limit string
}

// FilterLog keeps entries dated within [From, To] and then truncates to the first Limit of them.
// Log order is preserved. Values that do not parse are ignored rather than rejected.
func FilterLog(log []models.Exercise, q LogQuery) []models.Exercise {
	from, hasFrom := ParseDate(q.From)
	to, hasTo := ParseDate(q.To)

	out := make([]models.Exercise, 0, len(log))
	for _, e := range log {
		if hasFrom && e.Date.Before(from) {
			continue
		}
		if hasTo && e.Date.After(to) {
			continue
		}
		out = append(out, e)
	}

	if limit, ok := parseLimit(q.Limit); ok && limit < len(out) {
		out = out[:limit]
	}
	return out
}

// parseLimit reads the leading decimal integer of s, so "5abc" is 5 and "1.5" is 1.
// Values with no leading digits, or with a minus sign, are ignored.
func parseLimit(s string) (int, bool) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "+")
	end := strings.IndexFunc(s, func(r rune) bool { return r < '0' || r > '9' })
	if end == -1 {
		end = len(s)
	}
	if end == 0 {
		return 0, false
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil {
		// Only overflow gets here; such a limit never truncates.
		return math.MaxInt, true
	}
	return n, true
}
