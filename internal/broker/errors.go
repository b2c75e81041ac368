package broker

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/roach88/druidq/internal/query"
)

// ExecutionError reports a query the broker could not answer.
type ExecutionError struct {
	Status   int             // HTTP status, 0 when no response arrived
	Message  string          // human-readable reason
	Query    query.Query     // query as sent
	Response json.RawMessage // response body, when it was JSON
}

func (e *ExecutionError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s (status %d)", e.Message, e.Status)
	}
	return e.Message
}

// TimeoutError reports a query the broker cancelled with "Query timeout".
type TimeoutError struct {
	Elapsed  time.Duration
	Timeout  int64 // context.timeout in milliseconds, 0 when unset
	Query    query.Query
	Response json.RawMessage
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("Druid timeout error. Elapsed request time: %s; specified timeout: %d", e.Elapsed, e.Timeout)
}

// IsTimeout returns true if err is or wraps a *TimeoutError.
func IsTimeout(err error) bool {
	var te *TimeoutError
	return errors.As(err, &te)
}

// IsExecutionError returns true if err is or wraps an *ExecutionError.
func IsExecutionError(err error) bool {
	var ee *ExecutionError
	return errors.As(err, &ee)
}
