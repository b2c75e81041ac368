package store

import (
	"fmt"
	"time"

	"github.com/roach88/druidq/internal/doc"
	"github.com/roach88/druidq/internal/query"
)

// Execution outcomes.
const (
	StatusOK      = "ok"
	StatusError   = "error"
	StatusTimeout = "timeout"
)

// Execution is one recorded request to a broker.
type Execution struct {
	Seq        int64 // assigned by Record
	ID         string
	QueryHash  string
	QueryType  string
	DataSource string
	Status     string
	Error      string
	Duration   time.Duration // stored with millisecond precision
	Query      doc.Object
	RecordedAt time.Time
}

// FromQuery fills the query-derived columns of an Execution. q should be the
// query as sent, after context processing.
func FromQuery(q query.Query) (Execution, error) {
	hash, err := q.Hash()
	if err != nil {
		return Execution{}, fmt.Errorf("hash query: %w", err)
	}
	ds, _ := q.DataSource()
	return Execution{
		QueryHash:  hash,
		QueryType:  q.Kind(),
		DataSource: ds,
		Query:      q.Object.Clone(),
	}, nil
}

func validStatus(s string) bool {
	switch s {
	case StatusOK, StatusError, StatusTimeout:
		return true
	}
	return false
}
