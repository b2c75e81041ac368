package temporal

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Units is a calendar duration broken into ISO-8601 components. Weeks and
// Days may not both be set.
type Units struct {
	Years        int
	Months       int
	Weeks        int
	Days         int
	Hours        int
	Minutes      int
	Seconds      int
	Milliseconds int
}

// IsZero reports whether every component is zero.
func (u Units) IsZero() bool {
	return u == Units{}
}

func (u Units) validate() error {
	for _, c := range []struct {
		name string
		v    int
	}{
		{"years", u.Years}, {"months", u.Months}, {"weeks", u.Weeks}, {"days", u.Days},
		{"hours", u.Hours}, {"minutes", u.Minutes}, {"seconds", u.Seconds}, {"milliseconds", u.Milliseconds},
	} {
		if c.v < 0 {
			return invalidf("period", c.v, "Invalid period: %s must not be negative (found %d)", c.name, c.v)
		}
	}
	if u.Weeks != 0 && u.Days != 0 {
		return invalidf("period", fmt.Sprintf("weeks=%d days=%d", u.Weeks, u.Days),
			"Invalid period: weeks and days cannot be combined (weeks=%d, days=%d)", u.Weeks, u.Days)
	}
	return nil
}

// ISO renders the units as an ISO-8601 duration: years, months, weeks or
// days, then T and hours, minutes, seconds. Milliseconds become fractional
// seconds. All-zero units render as P0D.
func (u Units) ISO() (string, error) {
	if err := u.validate(); err != nil {
		return "", err
	}
	if u.IsZero() {
		return "P0D", nil
	}

	var b strings.Builder
	b.WriteByte('P')
	writeComponent(&b, u.Years, 'Y')
	writeComponent(&b, u.Months, 'M')
	writeComponent(&b, u.Weeks, 'W')
	writeComponent(&b, u.Days, 'D')

	totalMillis := int64(u.Seconds)*1000 + int64(u.Milliseconds)
	if u.Hours != 0 || u.Minutes != 0 || totalMillis != 0 {
		b.WriteByte('T')
		writeComponent(&b, u.Hours, 'H')
		writeComponent(&b, u.Minutes, 'M')
		if totalMillis != 0 {
			b.WriteString(formatSeconds(totalMillis/1000, totalMillis%1000*int64(time.Millisecond)))
			b.WriteByte('S')
		}
	}
	return b.String(), nil
}

func writeComponent(b *strings.Builder, n int, designator byte) {
	if n != 0 {
		b.WriteString(strconv.Itoa(n))
		b.WriteByte(designator)
	}
}

// formatSeconds renders whole seconds plus a nanosecond fraction without
// trailing zeros.
func formatSeconds(secs, nanos int64) string {
	if nanos == 0 {
		return strconv.FormatInt(secs, 10)
	}
	frac := strings.TrimRight(fmt.Sprintf("%09d", nanos), "0")
	return strconv.FormatInt(secs, 10) + "." + frac
}

// Approx converts the units to a fixed duration using 30-day months and
// 365-day years.
func (u Units) Approx() time.Duration {
	day := 24 * time.Hour
	return time.Duration(u.Years)*365*day +
		time.Duration(u.Months)*30*day +
		time.Duration(u.Weeks)*7*day +
		time.Duration(u.Days)*day +
		time.Duration(u.Hours)*time.Hour +
		time.Duration(u.Minutes)*time.Minute +
		time.Duration(u.Seconds)*time.Second +
		time.Duration(u.Milliseconds)*time.Millisecond
}

// AddTo moves t by the units using calendar arithmetic. sign is +1 or -1.
func (u Units) AddTo(t time.Time, sign int) time.Time {
	t = t.AddDate(sign*u.Years, sign*u.Months, sign*(u.Weeks*7+u.Days))
	clock := time.Duration(u.Hours)*time.Hour +
		time.Duration(u.Minutes)*time.Minute +
		time.Duration(u.Seconds)*time.Second +
		time.Duration(u.Milliseconds)*time.Millisecond
	return t.Add(time.Duration(sign) * clock)
}

// ParsePeriod parses an ISO-8601 duration such as P1Y2M, P2W or PT1.5S.
// Fractions are accepted on seconds only.
func ParsePeriod(s string) (Units, error) {
	fail := func() (Units, error) { return Units{}, invalid("period", s) }

	if len(s) < 2 || s[0] != 'P' {
		return fail()
	}

	var u Units
	rest := s[1:]
	inTime := false
	seen := 0
	order := 0 // designators must appear in decreasing size

	for len(rest) > 0 {
		if rest[0] == 'T' {
			if inTime || len(rest) == 1 {
				return fail()
			}
			inTime = true
			rest = rest[1:]
			continue
		}

		i := 0
		for i < len(rest) && (rest[i] >= '0' && rest[i] <= '9' || rest[i] == '.' || rest[i] == ',') {
			i++
		}
		if i == 0 || i == len(rest) {
			return fail()
		}
		num := strings.Replace(rest[:i], ",", ".", 1)
		designator := rest[i]
		rest = rest[i+1:]

		rank, ok := designatorRank(designator, inTime)
		if !ok || rank <= order {
			return fail()
		}
		order = rank

		if strings.Contains(num, ".") {
			if designator != 'S' {
				return fail()
			}
			f, err := strconv.ParseFloat(num, 64)
			if err != nil {
				return fail()
			}
			millis := int64(math.Round(f * 1000))
			u.Seconds = int(millis / 1000)
			u.Milliseconds = int(millis % 1000)
			seen++
			continue
		}

		n, err := strconv.Atoi(num)
		if err != nil {
			return fail()
		}
		switch rank {
		case 1:
			u.Years = n
		case 2:
			u.Months = n
		case 3:
			u.Weeks = n
		case 4:
			u.Days = n
		case 5:
			u.Hours = n
		case 6:
			u.Minutes = n
		case 7:
			u.Seconds = n
		}
		seen++
	}

	if seen == 0 {
		return fail()
	}
	return u, nil
}

func designatorRank(d byte, inTime bool) (int, bool) {
	if inTime {
		switch d {
		case 'H':
			return 5, true
		case 'M':
			return 6, true
		case 'S':
			return 7, true
		}
		return 0, false
	}
	switch d {
	case 'Y':
		return 1, true
	case 'M':
		return 2, true
	case 'W':
		return 3, true
	case 'D':
		return 4, true
	}
	return 0, false
}

// FormatDuration renders a fixed duration as ISO-8601 days plus a time part,
// e.g. 36h as P1DT12H. Negative durations render their magnitude.
func FormatDuration(d time.Duration) string {
	if d < 0 {
		d = -d
	}
	if d == 0 {
		return "PT0S"
	}

	day := 24 * time.Hour
	days := int64(d / day)
	rest := d % day

	var b strings.Builder
	b.WriteByte('P')
	if days > 0 {
		b.WriteString(strconv.FormatInt(days, 10))
		b.WriteByte('D')
	}
	if rest > 0 {
		b.WriteByte('T')
		if h := int64(rest / time.Hour); h > 0 {
			b.WriteString(strconv.FormatInt(h, 10))
			b.WriteByte('H')
		}
		if m := int64(rest % time.Hour / time.Minute); m > 0 {
			b.WriteString(strconv.FormatInt(m, 10))
			b.WriteByte('M')
		}
		if s := rest % time.Minute; s > 0 {
			b.WriteString(formatSeconds(int64(s/time.Second), int64(s%time.Second)))
			b.WriteByte('S')
		}
	}
	return b.String()
}

// unitsFromDuration splits a fixed duration into days and clock components.
func unitsFromDuration(d time.Duration) Units {
	if d < 0 {
		d = -d
	}
	day := 24 * time.Hour
	return Units{
		Days:         int(d / day),
		Hours:        int(d % day / time.Hour),
		Minutes:      int(d % time.Hour / time.Minute),
		Seconds:      int(d % time.Minute / time.Second),
		Milliseconds: int(d % time.Second / time.Millisecond),
	}
}
