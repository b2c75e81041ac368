package temporal

import (
	"fmt"
	"strings"
	"time"
)

// Date is a calendar date without a time of day.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// NewDate returns the date y-m-d.
func NewDate(y int, m time.Month, d int) Date {
	return Date{Year: y, Month: m, Day: d}
}

// String renders the date as 2006-01-02.
func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

// Time returns midnight UTC on the date.
func (d Date) Time() time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)
}

// Layouts accepted for timestamps. Go accepts a fractional second after the
// seconds field even when the layout omits it.
var timestampLayouts = []string{
	"2006-01-02T15:04:05Z07:00",
	"2006-01-02T15:04:05Z0700",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04Z07:00",
	"2006-01-02T15:04",
	"2006-01-02T15",
	"2006-01-02",
}

// ParseTimestamp parses an ISO-8601 timestamp. Timestamps without a zone are
// read as UTC.
func ParseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, invalid("timestamp", s)
}

// FormatTimestamp renders t as 2006-01-02T15:04:05 with milliseconds when
// present. UTC instants carry no suffix; other zones keep their offset.
func FormatTimestamp(t time.Time) string {
	layout := "2006-01-02T15:04:05"
	if t.Nanosecond() != 0 {
		layout += ".000"
	}
	if t.Location() == time.UTC {
		return t.Format(layout)
	}
	return t.Format(layout + "Z07:00")
}

// renderEndpoint validates an interval endpoint and returns its text along
// with the instant it denotes.
func renderEndpoint(field string, v any) (string, time.Time, error) {
	switch val := v.(type) {
	case string:
		t, err := ParseTimestamp(val)
		if err != nil {
			return "", time.Time{}, invalid(field, val)
		}
		return val, t, nil
	case time.Time:
		return FormatTimestamp(val), val, nil
	case *time.Time:
		if val == nil {
			return "", time.Time{}, nil
		}
		return FormatTimestamp(*val), *val, nil
	case Date:
		return val.String(), val.Time(), nil
	default:
		return "", time.Time{}, invalidf(field, val, "Invalid %s: unsupported endpoint type %T", field, v)
	}
}
