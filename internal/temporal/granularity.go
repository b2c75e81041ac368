package temporal

import (
	"fmt"
	"math"
	"slices"
	"strings"
	"time"

	"github.com/roach88/druidq/internal/doc"
)

// Granularity variants accepted by BuildGranularity.
const (
	VariantSimple   = "simple"
	VariantDuration = "duration"
	VariantPeriod   = "period"
)

// Granularity is a Druid time bucketing specification.
type Granularity interface {
	doc.Valuer
	// Delta returns the fixed bucket width, false for "all" and "none".
	Delta() (time.Duration, bool)
}

var simpleDeltas = map[string]time.Duration{
	"second":         time.Second,
	"minute":         time.Minute,
	"fifteen_minute": 15 * time.Minute,
	"thirty_minute":  30 * time.Minute,
	"hour":           time.Hour,
	"day":            24 * time.Hour,
	"week":           7 * 24 * time.Hour,
	"month":          30 * 24 * time.Hour,
	"quarter":        91 * 24 * time.Hour,
	"year":           365 * 24 * time.Hour,
}

// SimpleTokens returns every simple granularity token, sorted.
func SimpleTokens() []string {
	tokens := []string{"all", "none"}
	for t := range simpleDeltas {
		tokens = append(tokens, t)
	}
	slices.Sort(tokens)
	return tokens
}

// SimpleGranularity is a named granularity such as "day".
type SimpleGranularity string

// NewSimpleGranularity validates token.
func NewSimpleGranularity(token string) (SimpleGranularity, error) {
	if token == "all" || token == "none" {
		return SimpleGranularity(token), nil
	}
	if _, ok := simpleDeltas[token]; !ok {
		return "", invalid("granularity", token)
	}
	return SimpleGranularity(token), nil
}

// DocValue renders the granularity as a bare string.
func (g SimpleGranularity) DocValue() doc.Value {
	return doc.String(g)
}

// Delta implements Granularity.
func (g SimpleGranularity) Delta() (time.Duration, bool) {
	d, ok := simpleDeltas[string(g)]
	return d, ok
}

// DurationGranularity buckets by a fixed number of milliseconds.
type DurationGranularity struct {
	Duration int64
	Origin   string
}

// NewDurationGranularity validates the duration and optional origin.
func NewDurationGranularity(millis int64, origin string) (DurationGranularity, error) {
	if millis <= 0 {
		return DurationGranularity{}, invalid("duration", millis)
	}
	if err := checkOrigin(origin); err != nil {
		return DurationGranularity{}, err
	}
	return DurationGranularity{Duration: millis, Origin: origin}, nil
}

// DocValue implements doc.Valuer.
func (g DurationGranularity) DocValue() doc.Value {
	obj := doc.Object{"type": doc.String("duration"), "duration": doc.Int(g.Duration)}
	if g.Origin != "" {
		obj["origin"] = doc.String(g.Origin)
	}
	return obj
}

// Delta implements Granularity.
func (g DurationGranularity) Delta() (time.Duration, bool) {
	return time.Duration(g.Duration) * time.Millisecond, true
}

// PeriodSpec describes a period granularity. Exactly one of Period and Units
// must be given.
type PeriodSpec struct {
	Period   string
	Units    Units
	Origin   string
	TimeZone string
}

// PeriodGranularity buckets by an ISO-8601 period, optionally in a time zone.
type PeriodGranularity struct {
	Period   string
	Origin   string
	TimeZone string

	units Units
}

// NewPeriodGranularity validates spec.
func NewPeriodGranularity(spec PeriodSpec) (PeriodGranularity, error) {
	var (
		period string
		units  Units
	)
	switch {
	case spec.Period != "" && !spec.Units.IsZero():
		return PeriodGranularity{}, invalidf("period", spec.Period,
			"Invalid period: %s cannot be combined with units", spec.Period)
	case spec.Period != "":
		u, err := ParsePeriod(spec.Period)
		if err != nil {
			return PeriodGranularity{}, err
		}
		period, units = spec.Period, u
	default:
		iso, err := spec.Units.ISO()
		if err != nil {
			return PeriodGranularity{}, err
		}
		if spec.Units.IsZero() {
			return PeriodGranularity{}, invalid("period", iso)
		}
		period, units = iso, spec.Units
	}

	if err := checkOrigin(spec.Origin); err != nil {
		return PeriodGranularity{}, err
	}
	if spec.TimeZone != "" {
		if err := CheckTimeZone(spec.TimeZone); err != nil {
			return PeriodGranularity{}, err
		}
	}
	return PeriodGranularity{Period: period, Origin: spec.Origin, TimeZone: spec.TimeZone, units: units}, nil
}

// DocValue implements doc.Valuer.
func (g PeriodGranularity) DocValue() doc.Value {
	obj := doc.Object{"type": doc.String("period"), "period": doc.String(g.Period)}
	if g.Origin != "" {
		obj["origin"] = doc.String(g.Origin)
	}
	if g.TimeZone != "" {
		obj["timeZone"] = doc.String(g.TimeZone)
	}
	return obj
}

// Delta approximates the period with 30-day months and 365-day years.
func (g PeriodGranularity) Delta() (time.Duration, bool) {
	return g.units.Approx(), true
}

func checkOrigin(origin string) error {
	if origin == "" {
		return nil
	}
	if _, err := ParseTimestamp(origin); err != nil {
		return invalid("origin", origin)
	}
	return nil
}

// BuildGranularity constructs a granularity of the given variant from
// keyword-style fields. Keys may be snake_case or camelCase.
//
//	simple:   granularity
//	duration: duration, origin
//	period:   period or years..milliseconds, origin, timeZone
func BuildGranularity(variant string, fields doc.Fields) (Granularity, error) {
	obj, err := doc.New(fields)
	if err != nil {
		return nil, &ValueError{Field: "granularity", Message: err.Error()}
	}

	switch variant {
	case VariantSimple:
		token, ok := obj.GetString("granularity")
		if !ok {
			return nil, invalid("granularity", describe(obj["granularity"]))
		}
		return NewSimpleGranularity(token)

	case VariantDuration:
		millis, ok := intField(obj, "duration")
		if !ok {
			return nil, invalid("duration", describe(obj["duration"]))
		}
		origin, err := stringField(obj, "origin")
		if err != nil {
			return nil, err
		}
		return NewDurationGranularity(millis, origin)

	case VariantPeriod:
		var spec PeriodSpec
		if spec.Period, err = stringField(obj, "period"); err != nil {
			return nil, err
		}
		if spec.Origin, err = stringField(obj, "origin"); err != nil {
			return nil, err
		}
		if spec.TimeZone, err = stringField(obj, "timeZone"); err != nil {
			return nil, err
		}
		if spec.Units, err = unitsFromObject(obj); err != nil {
			return nil, err
		}
		return NewPeriodGranularity(spec)

	default:
		return nil, invalidf("variant", variant,
			"Invalid granularity variant: %s (expecting one of %s)", variant,
			strings.Join([]string{VariantDuration, VariantPeriod, VariantSimple}, ", "))
	}
}

// ParseGranularity reads a granularity as it appears inside a query document:
// a bare token or a {type: duration|period} object.
func ParseGranularity(v doc.Value) (Granularity, error) {
	switch val := v.(type) {
	case doc.String:
		return NewSimpleGranularity(string(val))
	case doc.Object:
		kind, _ := val.GetString("type")
		fields := make(doc.Fields, len(val))
		for k, elem := range val.Without("type") {
			fields[k] = elem
		}
		switch kind {
		case VariantDuration, VariantPeriod:
			return BuildGranularity(kind, fields)
		}
		return nil, invalid("granularity", describe(val))
	default:
		return nil, invalid("granularity", describe(v))
	}
}

// GranularityDelta returns the fixed width of g. Simple "all" and "none"
// have no width.
func GranularityDelta(g Granularity) (time.Duration, bool) {
	return g.Delta()
}

var unitKeys = []string{"years", "months", "weeks", "days", "hours", "minutes", "seconds", "milliseconds"}

func unitsFromObject(obj doc.Object) (Units, error) {
	var vals [8]int
	for i, k := range unitKeys {
		if _, present := obj[k]; !present {
			continue
		}
		n, ok := intField(obj, k)
		if !ok || n > math.MaxInt32 {
			return Units{}, invalidf("period", describe(obj[k]), "Invalid period: %s must be an integer (found %s)", k, describe(obj[k]))
		}
		vals[i] = int(n)
	}
	return Units{
		Years: vals[0], Months: vals[1], Weeks: vals[2], Days: vals[3],
		Hours: vals[4], Minutes: vals[5], Seconds: vals[6], Milliseconds: vals[7],
	}, nil
}

func intField(obj doc.Object, key string) (int64, bool) {
	switch v := obj[key].(type) {
	case doc.Int:
		return int64(v), true
	case doc.Float:
		f := float64(v)
		if f == math.Trunc(f) && math.Abs(f) < 1<<53 {
			return int64(f), true
		}
	}
	return 0, false
}

func stringField(obj doc.Object, key string) (string, error) {
	v, present := obj[key]
	if !present {
		return "", nil
	}
	s, ok := v.(doc.String)
	if !ok {
		return "", invalid(key, describe(v))
	}
	return string(s), nil
}

// describe renders a document value for an error message.
func describe(v doc.Value) string {
	if v == nil {
		return `""`
	}
	if s, ok := v.(doc.String); ok {
		return string(s)
	}
	b, err := doc.MarshalCanonical(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(b)
}
