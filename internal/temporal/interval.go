package temporal

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/roach88/druidq/internal/doc"
)

// Interval is a Druid interval in one of the forms start/end,
// start/duration, duration/end or a bare duration.
type Interval struct {
	start    string
	end      string
	duration string

	startAt time.Time
	endAt   time.Time
	units   Units
}

// IntervalSpec holds the inputs to NewInterval. Either Interval is set alone,
// or some combination of Start, End, Duration and Units.
//
// Start and End accept a timestamp string, time.Time or Date. Duration
// accepts a period string, Units or time.Duration. When Now is set, a
// start-only or duration-only spec ends at Now().
type IntervalSpec struct {
	Interval string
	Start    any
	End      any
	Duration any
	Units    Units
	Now      func() time.Time
}

// NewInterval builds an interval from spec.
func NewInterval(spec IntervalSpec) (Interval, error) {
	hasUnits := !spec.Units.IsZero()

	if spec.Interval != "" {
		if spec.Start != nil || spec.End != nil || spec.Duration != nil || hasUnits {
			return Interval{}, invalidf("interval", spec.Interval,
				"Invalid interval: %s cannot be combined with start, end or duration", spec.Interval)
		}
		return ParseInterval(spec.Interval)
	}

	var iv Interval

	duration := spec.Duration
	if hasUnits {
		if duration != nil {
			return Interval{}, invalidf("duration", duration,
				"Invalid duration: %v cannot be combined with units", duration)
		}
		duration = spec.Units
	}
	if duration != nil {
		text, units, err := renderDuration(duration)
		if err != nil {
			return Interval{}, err
		}
		iv.duration, iv.units = text, units
	}

	var err error
	if spec.Start != nil {
		if iv.start, iv.startAt, err = renderEndpoint("start", spec.Start); err != nil {
			return Interval{}, err
		}
	}
	if spec.End != nil {
		if iv.end, iv.endAt, err = renderEndpoint("end", spec.End); err != nil {
			return Interval{}, err
		}
	}

	hasStart, hasEnd, hasDuration := iv.start != "", iv.end != "", iv.duration != ""

	switch {
	case hasStart && hasEnd && hasDuration:
		if !iv.units.AddTo(iv.startAt, 1).Equal(iv.endAt) {
			return Interval{}, invalidf("interval", iv.start+"/"+iv.duration+"/"+iv.end,
				"Invalid interval: %s plus %s does not end at %s", iv.start, iv.duration, iv.end)
		}
		iv.duration = ""
	case hasStart && hasEnd:
	case hasStart && hasDuration, hasEnd && hasDuration:
		return iv.withResolved()
	case hasStart:
		if spec.Now == nil {
			return Interval{}, invalidf("end", iv.start, "Invalid interval: start %s requires an end or duration", iv.start)
		}
		iv.endAt = spec.Now()
		iv.end = FormatTimestamp(iv.endAt)
	case hasDuration:
		if spec.Now == nil {
			return iv, nil
		}
		iv.endAt = spec.Now()
		iv.end = FormatTimestamp(iv.endAt)
		return iv.withResolved()
	case hasEnd:
		return Interval{}, invalidf("start", iv.end, "Invalid interval: end %s requires a start or duration", iv.end)
	default:
		return Interval{}, &ValueError{Field: "interval", Message: "Invalid interval: no interval, start, end or duration given"}
	}

	if iv.endAt.Before(iv.startAt) {
		return Interval{}, invalidf("interval", iv.String(), "Invalid interval: %s ends before it starts", iv.String())
	}
	return iv, nil
}

// withResolved fills the missing instant of a start/duration or duration/end
// interval.
func (iv Interval) withResolved() (Interval, error) {
	if iv.start != "" {
		iv.endAt = iv.units.AddTo(iv.startAt, 1)
	} else {
		iv.startAt = iv.units.AddTo(iv.endAt, -1)
	}
	return iv, nil
}

func renderDuration(v any) (string, Units, error) {
	switch val := v.(type) {
	case string:
		u, err := ParsePeriod(val)
		if err != nil {
			return "", Units{}, invalid("duration", val)
		}
		return val, u, nil
	case Units:
		s, err := val.ISO()
		return s, val, err
	case time.Duration:
		if val <= 0 {
			return "", Units{}, invalid("duration", val)
		}
		return FormatDuration(val), unitsFromDuration(val), nil
	default:
		return "", Units{}, invalidf("duration", val, "Invalid duration: unsupported type %T", v)
	}
}

// ParseInterval validates an ISO-8601 interval string. The text is kept
// verbatim; endpoints given as durations are resolved against the other
// endpoint.
func ParseInterval(s string) (Interval, error) {
	parts := strings.Split(s, "/")
	isPeriod := func(p string) bool { return strings.HasPrefix(p, "P") }

	var iv Interval
	switch len(parts) {
	case 1:
		if !isPeriod(parts[0]) {
			return Interval{}, invalid("interval", s)
		}
		u, err := ParsePeriod(parts[0])
		if err != nil {
			return Interval{}, invalid("interval", s)
		}
		iv.duration, iv.units = parts[0], u
		return iv, nil
	case 2:
	default:
		return Interval{}, invalid("interval", s)
	}

	left, right := parts[0], parts[1]
	switch {
	case isPeriod(left) && isPeriod(right):
		return Interval{}, invalid("interval", s)
	case isPeriod(left):
		u, err1 := ParsePeriod(left)
		t, err2 := ParseTimestamp(right)
		if err1 != nil || err2 != nil {
			return Interval{}, invalid("interval", s)
		}
		iv.duration, iv.units, iv.end, iv.endAt = left, u, right, t
		return iv.withResolved()
	case isPeriod(right):
		t, err1 := ParseTimestamp(left)
		u, err2 := ParsePeriod(right)
		if err1 != nil || err2 != nil {
			return Interval{}, invalid("interval", s)
		}
		iv.start, iv.startAt, iv.duration, iv.units = left, t, right, u
		return iv.withResolved()
	default:
		start, err1 := ParseTimestamp(left)
		end, err2 := ParseTimestamp(right)
		if err1 != nil || err2 != nil || end.Before(start) {
			return Interval{}, invalid("interval", s)
		}
		iv.start, iv.startAt, iv.end, iv.endAt = left, start, right, end
		return iv, nil
	}
}

// String renders the interval in its ISO-8601 form.
func (iv Interval) String() string {
	switch {
	case iv.start != "" && iv.end != "":
		return iv.start + "/" + iv.end
	case iv.start != "":
		return iv.start + "/" + iv.duration
	case iv.end != "":
		return iv.duration + "/" + iv.end
	default:
		return iv.duration
	}
}

// IsZero reports whether the interval was never built.
func (iv Interval) IsZero() bool {
	return iv.start == "" && iv.end == "" && iv.duration == ""
}

// Bounded reports whether the interval is anchored to an instant. Every
// bounded interval has both instants resolved.
func (iv Interval) Bounded() bool {
	return iv.start != "" || iv.end != ""
}

// Resolve returns the instants the interval spans. A bare duration has no
// instants and returns false.
func (iv Interval) Resolve() (start, end time.Time, ok bool) {
	if !iv.Bounded() {
		return time.Time{}, time.Time{}, false
	}
	return iv.startAt, iv.endAt, true
}

// Length returns the fixed length of the interval. Bare durations use the
// period approximation.
func (iv Interval) Length() time.Duration {
	if start, end, ok := iv.Resolve(); ok {
		return end.Sub(start)
	}
	return iv.units.Approx()
}

// DocValue renders the interval as a string.
func (iv Interval) DocValue() doc.Value {
	return doc.String(iv.String())
}

// MarshalJSON implements json.Marshaler.
func (iv Interval) MarshalJSON() ([]byte, error) {
	return json.Marshal(iv.String())
}
