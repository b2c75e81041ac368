package filter

import (
	"regexp"
	"strings"

	"github.com/roach88/druidq/internal/doc"
)

// Selector matches rows whose dimension equals value. Booleans are encoded
// the way Druid stores them, as "t" and "f"; nil matches missing values.
func Selector(dimension string, value any) (Filter, error) {
	if b, ok := value.(bool); ok {
		value = "f"
		if b {
			value = "t"
		}
	}
	return New(KindSelector, doc.Fields{"dimension": dimension, "value": value})
}

// Regex matches dimension values against a Java regular expression.
func Regex(dimension, pattern string) Filter {
	return Filter{Object: doc.Object{
		"type":      doc.String(KindRegex),
		"dimension": doc.String(dimension),
		"pattern":   doc.String(pattern),
	}}
}

// In matches any of the listed values.
func In(dimension string, values ...string) Filter {
	arr := make(doc.Array, len(values))
	for i, v := range values {
		arr[i] = doc.String(v)
	}
	return Filter{Object: doc.Object{
		"type":      doc.String(KindIn),
		"dimension": doc.String(dimension),
		"values":    arr,
	}}
}

// Like matches a SQL LIKE pattern (% and _ wildcards).
func Like(dimension, pattern string) Filter {
	return Filter{Object: doc.Object{
		"type":      doc.String(KindLike),
		"dimension": doc.String(dimension),
		"pattern":   doc.String(pattern),
	}}
}

// BoundOptions configures a bound filter. Nil bounds are left open.
type BoundOptions struct {
	Lower       any
	Upper       any
	LowerStrict bool
	UpperStrict bool
	Ordering    string
}

// Bound matches values between the configured bounds.
func Bound(dimension string, opts BoundOptions) (Filter, error) {
	fields := doc.Fields{"dimension": dimension}
	if opts.Lower != nil {
		fields["lower"] = opts.Lower
		fields["lowerStrict"] = opts.LowerStrict
	}
	if opts.Upper != nil {
		fields["upper"] = opts.Upper
		fields["upperStrict"] = opts.UpperStrict
	}
	if opts.Ordering != "" {
		fields["ordering"] = opts.Ordering
	}
	return New(KindBound, fields)
}

// IntervalFilter matches __time (or another long dimension) against ISO-8601
// intervals.
func IntervalFilter(dimension string, intervals ...string) Filter {
	arr := make(doc.Array, len(intervals))
	for i, iv := range intervals {
		arr[i] = doc.String(iv)
	}
	return Filter{Object: doc.Object{
		"type":      doc.String(KindInterval),
		"dimension": doc.String(dimension),
		"intervals": arr,
	}}
}

// ColumnComparison matches rows where two dimensions hold the same value.
func ColumnComparison(left, right string) Filter {
	return Filter{Object: doc.Object{
		"type":       doc.String(KindColumnComparison),
		"dimensions": doc.Array{doc.String(left), doc.String(right)},
	}}
}

// And builds an and filter from exactly the given children, without flattening.
func And(fs ...Filter) Filter {
	return composite(KindAnd, fs)
}

// Or builds an or filter from exactly the given children, without flattening.
func Or(fs ...Filter) Filter {
	return composite(KindOr, fs)
}

// Not is Negate under the name Druid uses.
func Not(f Filter) Filter {
	return Negate(f)
}

func composite(kind string, fs []Filter) Filter {
	children := make(doc.Array, len(fs))
	for i, f := range fs {
		children[i] = f.Object.Clone()
	}
	return Filter{Object: doc.Object{
		"type":   doc.String(kind),
		"fields": children,
	}}
}

// ListFilter matches a dimension against a fixed list of values using a
// partial-regex extraction. An empty string in values also lets empty
// dimension values through.
func ListFilter(dimension string, values []string) Filter {
	var quoted []string
	allowEmpty := false
	for _, v := range values {
		if v == "" {
			allowEmpty = true
			continue
		}
		quoted = append(quoted, regexp.QuoteMeta(v))
	}

	expr := "^(" + strings.Join(quoted, "|") + ")$"
	if allowEmpty {
		expr = "^(" + strings.Join(quoted, "|") + ")?$"
	}

	return Filter{Object: doc.Object{
		"type":       doc.String(KindExtraction),
		"dimension":  doc.String(dimension),
		"outputName": doc.String(dimension),
		"extractionFn": doc.Object{
			"type": doc.String("partial"),
			"expr": doc.String(expr),
		},
	}}
}
