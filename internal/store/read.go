package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// ErrNotFound is returned by Get for an unknown ID.
var ErrNotFound = errors.New("execution not found")

const selectColumns = `
	SELECT seq, id, query_hash, query_type, data_source, status, error, duration_ms, query, recorded_at
	FROM executions
`

// Recent returns up to limit executions, newest first. A non-positive limit
// returns everything.
//
// Returns an empty slice (not nil) when nothing is recorded.
func (s *Store) Recent(ctx context.Context, limit int) ([]Execution, error) {
	if limit <= 0 {
		limit = -1
	}
	return s.list(ctx, selectColumns+" ORDER BY seq DESC LIMIT ?", limit)
}

// ByHash returns every execution of the query with the given hash, oldest
// first.
func (s *Store) ByHash(ctx context.Context, hash string) ([]Execution, error) {
	return s.list(ctx, selectColumns+" WHERE query_hash = ? ORDER BY seq ASC", hash)
}

// Get returns the execution with the given ID.
func (s *Store) Get(ctx context.Context, id string) (Execution, error) {
	row := s.db.QueryRowContext(ctx, selectColumns+" WHERE id = ?", id)
	e, err := scanExecution(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Execution{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return e, err
}

func (s *Store) list(ctx context.Context, query string, args ...any) ([]Execution, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query executions: %w", err)
	}
	defer rows.Close()

	out := []Execution{}
	for rows.Next() {
		e, err := scanExecution(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate executions: %w", err)
	}
	return out, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanExecution(row scanner) (Execution, error) {
	var (
		e          Execution
		durationMS int64
		queryJSON  string
		recordedAt string
	)
	err := row.Scan(&e.Seq, &e.ID, &e.QueryHash, &e.QueryType, &e.DataSource,
		&e.Status, &e.Error, &durationMS, &queryJSON, &recordedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Execution{}, err
		}
		return Execution{}, fmt.Errorf("scan execution: %w", err)
	}

	e.Duration = time.Duration(durationMS) * time.Millisecond
	if e.Query, err = unmarshalQuery(queryJSON); err != nil {
		return Execution{}, err
	}
	if e.RecordedAt, err = time.Parse(time.RFC3339Nano, recordedAt); err != nil {
		return Execution{}, fmt.Errorf("parse recorded_at: %w", err)
	}
	return e, nil
}
