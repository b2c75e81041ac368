package temporal

import (
	"math"
	"time"
)

// SelectOptions narrows SelectGranularity's result. Choices wins over
// Resolution when both are set.
type SelectOptions struct {
	// Choices are candidate periods; the one closest in ratio to the exact
	// bucket width is picked, first wins on ties.
	Choices []string
	// Resolution is a period the exact width is rounded to a multiple of.
	Resolution string
}

// SelectGranularity picks a granularity that splits iv into roughly buckets
// buckets. One bucket is always "all". The result is a granularity token or
// an ISO-8601 period.
func SelectGranularity(iv Interval, buckets int, opts SelectOptions) (string, error) {
	if buckets < 1 {
		return "", invalid("buckets", buckets)
	}
	if buckets == 1 {
		return "all", nil
	}

	total := iv.Length()
	if total <= 0 {
		return "", invalidf("interval", iv.String(), "Invalid interval: %s has no length", iv.String())
	}
	exact := total / time.Duration(buckets)

	if len(opts.Choices) > 0 {
		best, bestDist := "", math.Inf(1)
		for _, choice := range opts.Choices {
			u, err := ParsePeriod(choice)
			if err != nil {
				return "", err
			}
			dist := math.Abs(float64(u.Approx())/float64(exact) - 1)
			if dist < bestDist {
				best, bestDist = choice, dist
			}
		}
		return best, nil
	}

	if opts.Resolution != "" {
		u, err := ParsePeriod(opts.Resolution)
		if err != nil {
			return "", err
		}
		res := u.Approx()
		if res <= 0 {
			return "", invalid("resolution", opts.Resolution)
		}
		steps := max(math.Round(float64(exact)/float64(res)), 1)
		return FormatDuration(time.Duration(steps) * res), nil
	}

	return FormatDuration(exact), nil
}
