package temporal

import (
	"math/big"
	"time"
)

// Pad widens iv so that it starts and ends on multiples of delta counted from
// the Unix epoch. The result is always rendered start/end in UTC.
func Pad(iv Interval, delta time.Duration) (Interval, error) {
	if delta <= 0 {
		return Interval{}, invalid("delta", delta)
	}
	start, end, ok := iv.Resolve()
	if !ok {
		return Interval{}, invalidf("interval", iv.String(), "Invalid interval: %s has no endpoints to pad", iv.String())
	}

	start = floorEpoch(start.UTC(), delta)
	end = ceilEpoch(end.UTC(), delta)
	return Interval{
		start:   FormatTimestamp(start),
		end:     FormatTimestamp(end),
		startAt: start,
		endAt:   end,
	}, nil
}

// PadString parses s and pads it by delta.
func PadString(s string, delta time.Duration) (string, error) {
	iv, err := ParseInterval(s)
	if err != nil {
		return "", err
	}
	padded, err := Pad(iv, delta)
	if err != nil {
		return "", err
	}
	return padded.String(), nil
}

// epochRemainder returns (t - epoch) mod delta in [0, delta). Nanoseconds
// since the epoch overflow int64 outside 1678-2262, so the sum is taken wide.
func epochRemainder(t time.Time, delta time.Duration) time.Duration {
	n := new(big.Int).Mul(big.NewInt(t.Unix()), big.NewInt(int64(time.Second)))
	n.Add(n, big.NewInt(int64(t.Nanosecond())))
	n.Mod(n, big.NewInt(int64(delta)))
	return time.Duration(n.Int64())
}

func floorEpoch(t time.Time, delta time.Duration) time.Time {
	return t.Add(-epochRemainder(t, delta))
}

func ceilEpoch(t time.Time, delta time.Duration) time.Time {
	rem := epochRemainder(t, delta)
	if rem == 0 {
		return t
	}
	return t.Add(delta - rem)
}
