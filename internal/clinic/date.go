package clinic

import (
	"strings"
	"time"

	"github.com/hackgods/clinic-booking/internal/apperr"
)

// DateLayout is the wire and storage format of a calendar date.
const DateLayout = "2006-01-02"

// Date is a calendar day (YYYY-MM-DD) independent of time of day.
type Date string

// ParseDate accepts YYYY-MM-DD or an RFC 3339 timestamp, in which case the
// UTC calendar day is used.
func ParseDate(raw string) (Date, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", apperr.Validation("date is required")
	}
	if t, err := time.Parse(DateLayout, raw); err == nil {
		return DateOf(t), nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return DateOf(t.UTC()), nil
	}
	return "", apperr.Validation("date must be formatted as YYYY-MM-DD")
}

// DateOf returns the calendar day of t in t's location.
func DateOf(t time.Time) Date {
	return Date(t.Format(DateLayout))
}

// Time returns midnight UTC of d, or the zero time if d is malformed.
func (d Date) Time() time.Time {
	t, err := time.Parse(DateLayout, string(d))
	if err != nil {
		return time.Time{}
	}
	return t
}

func (d Date) AddDays(n int) Date {
	return DateOf(d.Time().AddDate(0, 0, n))
}

func (d Date) String() string {
	return string(d)
}
