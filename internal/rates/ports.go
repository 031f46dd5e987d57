package rates

import (
	"context"

	"github.com/shopspring/decimal"
)

// PriceOracle is the external price feed. Implementations return
// sentinel.ErrPairUnavailable when no rate exists for the pair and any other
// error for transport failures; the converter treats both as recoverable.
type PriceOracle interface {
	// SpotRate returns how many units of quote one unit of base is worth.
	SpotRate(ctx context.Context, base, quote string) (decimal.Decimal, error)
}
