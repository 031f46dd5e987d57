package policy

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	id "custos/pkg/domain"
	"custos/pkg/platform/sentinel"
)

// PostgresStore persists policies as JSONB documents keyed by dependent id.
// Legacy (pre-versioned) payloads migrate transparently on read via Decode.
type PostgresStore struct {
	db    *sql.DB
	clock func() time.Time
}

// PostgresStoreOption configures a PostgresStore instance.
type PostgresStoreOption func(*PostgresStore)

// WithClock sets the clock function for testability.
func WithClock(clock func() time.Time) PostgresStoreOption {
	return func(s *PostgresStore) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// NewPostgresStore constructs a PostgreSQL-backed policy store.
func NewPostgresStore(db *sql.DB, opts ...PostgresStoreOption) *PostgresStore {
	s := &PostgresStore{db: db, clock: time.Now}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

func (s *PostgresStore) Get(ctx context.Context, dependentID id.DependentID) (Policy, error) {
	var (
		payload   []byte
		updatedAt time.Time
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT payload, updated_at FROM spending_policies WHERE dependent_id = $1`,
		uuid.UUID(dependentID),
	).Scan(&payload, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Policy{}, sentinel.ErrNotFound
		}
		return Policy{}, fmt.Errorf("get policy: %w", err)
	}
	return Decode(dependentID, payload, updatedAt)
}

func (s *PostgresStore) Save(ctx context.Context, p Policy) error {
	payload, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("encode policy: %w", err)
	}
	query := `
		INSERT INTO spending_policies (dependent_id, payload, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (dependent_id) DO UPDATE SET
			payload = EXCLUDED.payload,
			updated_at = EXCLUDED.updated_at
	`
	_, err = s.db.ExecContext(ctx, query, uuid.UUID(p.DependentID), payload, s.clock())
	if err != nil {
		return fmt.Errorf("save policy: %w", err)
	}
	return nil
}
