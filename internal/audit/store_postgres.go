package audit

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	id "custos/pkg/domain"
)

// PostgresStore persists audit events in the audit_events table. There is no
// update or delete path.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Append(ctx context.Context, event Event) error {
	query := `
		INSERT INTO audit_events
			(occurred_at, dependent_id, action, category, amount, token, decision, reason, request_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := s.db.ExecContext(ctx, query,
		event.Timestamp,
		uuid.UUID(event.DependentID),
		event.Action,
		string(event.Category),
		event.Amount,
		event.Token,
		event.Decision,
		event.Reason,
		event.RequestID,
	)
	if err != nil {
		return fmt.Errorf("append audit event: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListByDependent(ctx context.Context, dependentID id.DependentID) ([]Event, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT occurred_at, dependent_id, action, category, amount, token, decision, reason, request_id
		 FROM audit_events
		 WHERE dependent_id = $1
		 ORDER BY occurred_at`,
		uuid.UUID(dependentID),
	)
	if err != nil {
		return nil, fmt.Errorf("list audit events: %w", err)
	}
	defer rows.Close()

	var out []Event
	for rows.Next() {
		var (
			e        Event
			depID    uuid.UUID
			category string
		)
		if err := rows.Scan(&e.Timestamp, &depID, &e.Action, &category, &e.Amount, &e.Token, &e.Decision, &e.Reason, &e.RequestID); err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}
		e.DependentID = id.DependentID(depID)
		e.Category = id.Category(category)
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit events: %w", err)
	}
	return out, nil
}
