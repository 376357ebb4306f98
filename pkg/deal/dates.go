package deal

import (
	"fmt"
	"strings"
	"time"
)

// DateLayout is the only date format the form accepts.
const DateLayout = "2006-01-02"

// Date parses a calendar date in DateLayout.
func Date(raw string) (time.Time, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(raw))
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, raw)
	}
	return t, nil
}

// AddMonth moves t by months calendar months and clamps to the last day of
// the target month, so Jan 31 plus one month is the end of February.
func AddMonth(t time.Time, months int) time.Time {
	first := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, months, 0)
	last := first.AddDate(0, 1, -1).Day()
	day := t.Day()
	if day > last {
		day = last
	}
	return time.Date(first.Year(), first.Month(), day, 0, 0, 0, 0, time.UTC)
}

// CashFlowDates returns the payment calendar of a deal: the start date, the
// first interest date, then one date every months months while it does not
// pass end. Each step is taken from the previous date, so a clamped day of
// month carries forward.
func CashFlowDates(start, end, first time.Time, months int) []time.Time {
	dates := []time.Time{start, first}
	if months <= 0 {
		return dates
	}
	for next := AddMonth(first, months); !next.After(end); next = AddMonth(next, months) {
		dates = append(dates, next)
	}
	return dates
}

// ParseDates parses every date of a formatted calendar.
func ParseDates(raw []string) ([]time.Time, error) {
	out := make([]time.Time, len(raw))
	for i, value := range raw {
		t, err := Date(value)
		if err != nil {
			return nil, err
		}
		out[i] = t
	}
	return out, nil
}

func formatDates(dates []time.Time) []string {
	out := make([]string, len(dates))
	for i, d := range dates {
		out[i] = d.Format(DateLayout)
	}
	return out
}
