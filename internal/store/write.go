package store

import (
	"context"
	"fmt"
	"time"

	"github.com/roach88/druidq/internal/doc"
)

// Record appends an execution and returns it with Seq, and any defaulted ID
// or RecordedAt, filled in. Uses ON CONFLICT(id) DO NOTHING, so recording the
// same ID twice keeps the first row; the returned Seq is then that row's.
//
// The query is stored as canonical JSON.
func (s *Store) Record(ctx context.Context, e Execution) (Execution, error) {
	if !validStatus(e.Status) {
		return Execution{}, fmt.Errorf("record execution: invalid status %q", e.Status)
	}
	if e.QueryHash == "" || e.QueryType == "" {
		return Execution{}, fmt.Errorf("record execution: query hash and type are required")
	}
	if e.ID == "" {
		e.ID = s.newID()
	}
	if e.RecordedAt.IsZero() {
		e.RecordedAt = s.now()
	}

	queryJSON, err := marshalQuery(e.Query)
	if err != nil {
		return Execution{}, fmt.Errorf("record execution: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO executions
		(id, query_hash, query_type, data_source, status, error, duration_ms, query, recorded_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		e.ID,
		e.QueryHash,
		e.QueryType,
		e.DataSource,
		e.Status,
		e.Error,
		e.Duration.Milliseconds(),
		queryJSON,
		formatTime(e.RecordedAt),
	)
	if err != nil {
		return Execution{}, fmt.Errorf("record execution: %w", err)
	}

	if err := s.db.QueryRowContext(ctx, "SELECT seq FROM executions WHERE id = ?", e.ID).Scan(&e.Seq); err != nil {
		return Execution{}, fmt.Errorf("record execution: read seq: %w", err)
	}
	return e, nil
}

func marshalQuery(q doc.Object) (string, error) {
	if q == nil {
		q = doc.Object{}
	}
	data, err := doc.MarshalCanonical(q)
	if err != nil {
		return "", fmt.Errorf("marshal query: %w", err)
	}
	return string(data), nil
}

func unmarshalQuery(data string) (doc.Object, error) {
	var obj doc.Object
	if err := obj.UnmarshalJSON([]byte(data)); err != nil {
		return nil, fmt.Errorf("unmarshal query: %w", err)
	}
	return obj, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}
