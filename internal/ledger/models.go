package ledger

import (
	"time"

	"github.com/shopspring/decimal"

	id "custos/pkg/domain"
)

// DailySpendingRecord is one settled spend, bucketed to the UTC day it
// happened on. Records are append-only: the reference amount is fixed at the
// rate in effect when the spend settled and is never re-rated.
type DailySpendingRecord struct {
	ID              id.RecordID
	DependentID     id.DependentID
	Day             time.Time
	Category        id.Category
	OriginalAmount  decimal.Decimal
	OriginalToken   string
	ReferenceAmount decimal.Decimal
	TxHash          string
	CreatedAt       time.Time
}

// Entry carries the caller-supplied fields of a spend; the service assigns
// the record id, day bucket and timestamp.
type Entry struct {
	DependentID     id.DependentID
	Category        id.Category
	OriginalAmount  decimal.Decimal
	OriginalToken   string
	ReferenceAmount decimal.Decimal
	TxHash          string
}

// Summary aggregates one dependent's spend for a single day, expressed in
// the family reference currency.
type Summary struct {
	Total      decimal.Decimal
	ByCategory map[id.Category]decimal.Decimal
}

// Decision is the outcome of a daily-cap check. Remaining is the headroom
// left before this request (max(0, cap - spent)); it is meaningful only when
// Unlimited is false.
type Decision struct {
	Allowed         bool
	Unlimited       bool
	Remaining       decimal.Decimal
	ConvertedAmount decimal.Decimal
}

// DayOf buckets t to the start of its UTC day.
func DayOf(t time.Time) time.Time {
	return t.UTC().Truncate(24 * time.Hour)
}
