package ledger

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	id "custos/pkg/domain"
)

// PostgresStore persists spending records in the daily_spending_records
// table. Aggregation happens in SQL so summaries stay cheap as the ledger
// grows.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Append(ctx context.Context, rec DailySpendingRecord) error {
	query := `
		INSERT INTO daily_spending_records
			(id, dependent_id, day, category, original_amount, original_token, reference_amount, tx_hash, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := s.db.ExecContext(ctx, query,
		uuid.UUID(rec.ID),
		uuid.UUID(rec.DependentID),
		rec.Day,
		string(rec.Category),
		rec.OriginalAmount,
		rec.OriginalToken,
		rec.ReferenceAmount,
		rec.TxHash,
		rec.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("append spending record: %w", err)
	}
	return nil
}

func (s *PostgresStore) CategorySpent(ctx context.Context, dependentID id.DependentID, day time.Time, category id.Category) (decimal.Decimal, error) {
	var total decimal.Decimal
	err := s.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(reference_amount), 0)
		 FROM daily_spending_records
		 WHERE dependent_id = $1 AND day = $2 AND category = $3`,
		uuid.UUID(dependentID), day, string(category),
	).Scan(&total)
	if err != nil {
		return decimal.Zero, fmt.Errorf("sum category spend: %w", err)
	}
	return total, nil
}

func (s *PostgresStore) DaySummary(ctx context.Context, dependentID id.DependentID, day time.Time) (Summary, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT category, COALESCE(SUM(reference_amount), 0)
		 FROM daily_spending_records
		 WHERE dependent_id = $1 AND day = $2
		 GROUP BY category`,
		uuid.UUID(dependentID), day,
	)
	if err != nil {
		return Summary{}, fmt.Errorf("query day summary: %w", err)
	}
	defer rows.Close()

	summary := Summary{Total: decimal.Zero, ByCategory: make(map[id.Category]decimal.Decimal)}
	for rows.Next() {
		var (
			category string
			spent    decimal.Decimal
		)
		if err := rows.Scan(&category, &spent); err != nil {
			return Summary{}, fmt.Errorf("scan day summary: %w", err)
		}
		summary.ByCategory[id.Category(category)] = spent
		summary.Total = summary.Total.Add(spent)
	}
	if err := rows.Err(); err != nil {
		return Summary{}, fmt.Errorf("iterate day summary: %w", err)
	}
	return summary, nil
}
