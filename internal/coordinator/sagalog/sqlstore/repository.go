// Package sqlstore keeps the saga log in the shared relational store.
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jcmexdev/storefront/internal/coordinator/sagalog"
	"github.com/jcmexdev/storefront/internal/pkg/database"
)

type Repository struct {
	db *database.DB
}

func NewRepository(db *database.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Save(ctx context.Context, e *sagalog.Entry) error {
	q := r.db.Rebind(`
		INSERT INTO saga_logs
			(saga_id, status, current_step, payload, error_messages, trace_id, span_id, updated_at)
		VALUES
			(?, ?, ?, ?, ?, ?, ?, ?)`)

	_, err := r.db.ExecContext(ctx, q,
		e.SagaID,
		string(e.Status),
		e.CurrentStep,
		nullableString(e.Payload),
		e.Errors,
		e.TraceID,
		e.SpanID,
		database.FormatTime(e.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("sqlstore: save saga log for %q: %w", e.SagaID, err)
	}
	return nil
}

// Latest returns the newest entry of a saga.
func (r *Repository) Latest(ctx context.Context, sagaID string) (*sagalog.Entry, error) {
	q := r.db.Rebind(`
		SELECT saga_id, status, current_step, COALESCE(payload, ''), error_messages,
		       trace_id, span_id, updated_at
		FROM   saga_logs
		WHERE  saga_id = ?
		ORDER  BY updated_at DESC, id DESC
		LIMIT  1`)

	var (
		e         sagalog.Entry
		updatedAt string
	)
	err := r.db.QueryRowContext(ctx, q, sagaID).Scan(
		&e.SagaID, &e.Status, &e.CurrentStep, &e.Payload, &e.Errors, &e.TraceID, &e.SpanID, &updatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", sagalog.ErrSagaNotFound, sagaID)
	}
	if err != nil {
		return nil, fmt.Errorf("sqlstore: latest saga log for %q: %w", sagaID, err)
	}

	if e.UpdatedAt, err = database.ParseTime(updatedAt); err != nil {
		return nil, err
	}
	return &e, nil
}

// nullableString stores NULL rather than '' for rows without a payload.
func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
