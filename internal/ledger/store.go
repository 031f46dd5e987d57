package ledger

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	id "custos/pkg/domain"
)

// Store persists daily spending records. Append-only: there is no update or
// delete path.
type Store interface {
	Append(ctx context.Context, rec DailySpendingRecord) error
	CategorySpent(ctx context.Context, dependentID id.DependentID, day time.Time, category id.Category) (decimal.Decimal, error)
	DaySummary(ctx context.Context, dependentID id.DependentID, day time.Time) (Summary, error)
}
