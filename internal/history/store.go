// Package history persists answered exchanges so past questions and their
// pipelines can be reviewed after the fact.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// Exchange is one question/answer round trip.
type Exchange struct {
	ID           int64
	RequestID    string
	CreatedAt    time.Time
	Question     string
	Status       string
	Answer       string
	PipelineJSON string
}

// Store provides persistence for exchanges.
type Store struct {
	db *sql.DB
}

// NewStore creates a store for exchange persistence.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// DB returns the underlying database handle.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Record inserts one finished exchange.
func (s *Store) Record(ctx context.Context, ex Exchange) error {
	createdAt := ex.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	if _, err := s.db.ExecContext(ctx, `INSERT INTO exchanges(request_id, created_at, question, status, answer, pipeline_json)
		VALUES(?, ?, ?, ?, ?, ?)`,
		ex.RequestID, createdAt.UTC().Format(time.RFC3339), ex.Question, ex.Status, ex.Answer, nullableString(ex.PipelineJSON)); err != nil {
		return fmt.Errorf("insert exchange: %w", err)
	}
	return nil
}

// Recent returns the latest exchanges, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Exchange, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, `SELECT id, request_id, created_at, question, status, answer, COALESCE(pipeline_json, '')
		FROM exchanges ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query exchanges: %w", err)
	}
	defer rows.Close()

	var out []Exchange
	for rows.Next() {
		var ex Exchange
		var createdAt string
		if err := rows.Scan(&ex.ID, &ex.RequestID, &createdAt, &ex.Question, &ex.Status, &ex.Answer, &ex.PipelineJSON); err != nil {
			return nil, fmt.Errorf("scan exchange: %w", err)
		}
		ts, err := time.Parse(time.RFC3339, createdAt)
		if err != nil {
			return nil, fmt.Errorf("parse exchange timestamp: %w", err)
		}
		ex.CreatedAt = ts
		out = append(out, ex)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate exchanges: %w", err)
	}
	return out, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}
