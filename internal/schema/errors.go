package schema

import (
	"errors"
	"fmt"
	"strings"
)

// Violation codes (E200-E299).
const (
	ErrUnknownType    = "E201" // discriminant absent or unrecognized
	ErrMissingField   = "E202" // required field absent
	ErrMismatchedType = "E203" // value of the wrong kind
	ErrForbiddenField = "E204" // field not allowed for the kind
	ErrInvalidValue   = "E205" // value outside an enumerated set
)

// Violation is one rule a document breaks.
type Violation struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

// Error implements the error interface.
func (v Violation) Error() string {
	return fmt.Sprintf("[%s] %s", v.Code, v.Message)
}

// SchemaError carries every violation found in a document.
type SchemaError struct {
	Violations []Violation
}

// NewError wraps violations in a *SchemaError, or returns nil when there are
// none.
func NewError(violations []Violation) error {
	if len(violations) == 0 {
		return nil
	}
	return &SchemaError{Violations: violations}
}

// Messages returns the human-readable message of each violation, in order.
func (e *SchemaError) Messages() []string {
	msgs := make([]string, len(e.Violations))
	for i, v := range e.Violations {
		msgs[i] = v.Message
	}
	return msgs
}

// Error implements the error interface.
func (e *SchemaError) Error() string {
	return "Invalid Druid query:\n  " + strings.Join(e.Messages(), "\n  ")
}

// Violations extracts the violations from err when it is (or wraps) a
// *SchemaError.
func Violations(err error) []Violation {
	var se *SchemaError
	if errors.As(err, &se) {
		return se.Violations
	}
	return nil
}

// IsSchemaError returns true if err is or wraps a *SchemaError.
func IsSchemaError(err error) bool {
	var se *SchemaError
	return errors.As(err, &se)
}
