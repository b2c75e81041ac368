package temporal

import (
	"errors"
	"fmt"
)

// ValueError reports a single invalid temporal value.
type ValueError struct {
	Field   string
	Value   string
	Message string
}

// Error implements the error interface.
func (e *ValueError) Error() string {
	return e.Message
}

func invalid(field string, value any) *ValueError {
	v := fmt.Sprint(value)
	return &ValueError{Field: field, Value: v, Message: fmt.Sprintf("Invalid %s: %s", field, v)}
}

func invalidf(field string, value any, format string, args ...any) *ValueError {
	return &ValueError{Field: field, Value: fmt.Sprint(value), Message: fmt.Sprintf(format, args...)}
}

// IsValueError returns true if err is or wraps a *ValueError.
func IsValueError(err error) bool {
	var ve *ValueError
	return errors.As(err, &ve)
}
