package ledger

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	id "custos/pkg/domain"
	"custos/pkg/requestcontext"
)

// Converter normalizes an amount into another currency. Conversion never
// fails; an unresolvable rate passes the amount through unchanged.
type Converter interface {
	Convert(ctx context.Context, amount decimal.Decimal, from, to string) decimal.Decimal
}

// Service is the rolling daily spend ledger: it answers "how much headroom
// is left today" and records settled spends. All cap math happens in the
// family reference currency.
type Service struct {
	store     Store
	converter Converter
}

func NewService(store Store, converter Converter) *Service {
	return &Service{store: store, converter: converter}
}

// CanSpend checks amount (in token) against the daily cap for the category,
// converting into referenceCurrency first. A nil or non-positive cap means
// unlimited. The check is inclusive: spent + amount == cap still passes.
func (s *Service) CanSpend(ctx context.Context, dependentID id.DependentID, category id.Category, amount decimal.Decimal, token, referenceCurrency string, dailyCap *decimal.Decimal) (Decision, error) {
	converted := s.converter.Convert(ctx, amount, token, referenceCurrency)

	if dailyCap == nil || dailyCap.Sign() <= 0 {
		return Decision{Allowed: true, Unlimited: true, ConvertedAmount: converted}, nil
	}

	day := DayOf(requestcontext.Now(ctx))
	spent, err := s.store.CategorySpent(ctx, dependentID, day, category)
	if err != nil {
		return Decision{}, fmt.Errorf("load daily spend: %w", err)
	}

	remaining := decimal.Max(decimal.Zero, dailyCap.Sub(spent))
	return Decision{
		Allowed:         spent.Add(converted).LessThanOrEqual(*dailyCap),
		Remaining:       remaining,
		ConvertedAmount: converted,
	}, nil
}

// Record appends one settled spend to today's bucket. The reference amount
// is the one the authorization already converted; it is stored as-is.
func (s *Service) Record(ctx context.Context, entry Entry) error {
	now := requestcontext.Now(ctx)
	rec := DailySpendingRecord{
		ID:              id.NewRecordID(),
		DependentID:     entry.DependentID,
		Day:             DayOf(now),
		Category:        entry.Category,
		OriginalAmount:  entry.OriginalAmount,
		OriginalToken:   entry.OriginalToken,
		ReferenceAmount: entry.ReferenceAmount,
		TxHash:          entry.TxHash,
		CreatedAt:       now,
	}
	if err := s.store.Append(ctx, rec); err != nil {
		return fmt.Errorf("record spend: %w", err)
	}
	return nil
}

// DailySummary aggregates today's spend for the dependent. A dependent with
// no records today gets an all-zero summary, not an error.
func (s *Service) DailySummary(ctx context.Context, dependentID id.DependentID) (Summary, error) {
	day := DayOf(requestcontext.Now(ctx))
	summary, err := s.store.DaySummary(ctx, dependentID, day)
	if err != nil {
		return Summary{}, fmt.Errorf("load day summary: %w", err)
	}
	return summary, nil
}
