package execution

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	id "custos/pkg/domain"
	"custos/pkg/platform/sentinel"
)

// PostgresStore persists transaction records in the transaction_records
// table. The one-way terminal transition is enforced in SQL: Finalize only
// matches pending rows.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Create(ctx context.Context, rec TransactionRecord) error {
	query := `
		INSERT INTO transaction_records
			(id, dependent_id, action_kind, category, amount, token, fee_amount, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := s.db.ExecContext(ctx, query,
		uuid.UUID(rec.ID),
		uuid.UUID(rec.DependentID),
		string(rec.ActionKind),
		string(rec.Category),
		rec.Amount,
		rec.Token,
		rec.FeeAmount,
		string(rec.Status),
		rec.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("create transaction record: %w", err)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, recordID id.RecordID) (TransactionRecord, error) {
	var (
		rec         TransactionRecord
		recID       uuid.UUID
		depID       uuid.UUID
		actionKind  string
		category    string
		status      string
		txHash      sql.NullString
		orderID     sql.NullString
		detail      sql.NullString
		completedAt sql.NullTime
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, dependent_id, action_kind, category, amount, token, fee_amount,
		        status, tx_hash, order_id, detail, created_at, completed_at
		 FROM transaction_records WHERE id = $1`,
		uuid.UUID(recordID),
	).Scan(&recID, &depID, &actionKind, &category, &rec.Amount, &rec.Token, &rec.FeeAmount,
		&status, &txHash, &orderID, &detail, &rec.CreatedAt, &completedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return TransactionRecord{}, sentinel.ErrNotFound
		}
		return TransactionRecord{}, fmt.Errorf("get transaction record: %w", err)
	}

	rec.ID = id.RecordID(recID)
	rec.DependentID = id.DependentID(depID)
	rec.ActionKind = ActionKind(actionKind)
	rec.Category = id.Category(category)
	rec.Status = Status(status)
	rec.TxHash = txHash.String
	rec.OrderID = orderID.String
	rec.Detail = detail.String
	if completedAt.Valid {
		t := completedAt.Time
		rec.CompletedAt = &t
	}
	return rec, nil
}

func (s *PostgresStore) Finalize(ctx context.Context, recordID id.RecordID, status Status, txHash, orderID, detail string, completedAt time.Time) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE transaction_records
		 SET status = $2, tx_hash = $3, order_id = $4, detail = $5, completed_at = $6
		 WHERE id = $1 AND status = 'pending'`,
		uuid.UUID(recordID), string(status), txHash, orderID, detail, completedAt,
	)
	if err != nil {
		return fmt.Errorf("finalize transaction record: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("finalize transaction record: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrInvalidState
	}
	return nil
}
