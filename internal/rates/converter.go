package rates

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"custos/internal/rates/metrics"
	"custos/pkg/platform/sentinel"
)

// referenceUnit is the shared pricing unit used for cross rates when the
// oracle has no direct pair.
const referenceUnit = "USD"

// Converter normalizes amounts between currencies with a fallback chain:
// identity, cache, direct oracle pair, cross rate through the reference
// unit, and finally fail-open.
//
// Fail-open is deliberate: when every rate source is exhausted the input
// amount is returned unchanged with a warning instead of an error, so a
// price-feed outage degrades cap accuracy rather than blocking all dependent
// activity. Callers must not treat a returned amount as oracle-accurate.
type Converter struct {
	oracle  PriceOracle
	cache   Cache
	breaker *breaker
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// NewConverter constructs a Converter. cache may be NoopCache{}; metrics may
// be nil.
func NewConverter(oracle PriceOracle, cache Cache, logger *slog.Logger, m *metrics.Metrics) *Converter {
	return &Converter{
		oracle:  oracle,
		cache:   cache,
		breaker: newBreaker(),
		logger:  logger,
		metrics: m,
	}
}

// Convert returns amount expressed in the to currency. It never fails: the
// terminal fallback returns the input unchanged (see type doc).
func (c *Converter) Convert(ctx context.Context, amount decimal.Decimal, from, to string) decimal.Decimal {
	if from == to {
		c.metrics.IncrementConversion("identity")
		return amount
	}

	if rate, err := c.cache.Get(ctx, from, to); err == nil {
		c.metrics.IncrementConversion("cache")
		return amount.Mul(rate)
	}

	if c.breaker.Allow() {
		if rate, ok := c.directRate(ctx, from, to); ok {
			c.metrics.IncrementConversion("direct")
			return amount.Mul(rate)
		}
		if rate, ok := c.crossRate(ctx, from, to); ok {
			c.metrics.IncrementConversion("cross")
			return amount.Mul(rate)
		}
	}

	c.metrics.IncrementConversion("fail_open")
	c.logger.WarnContext(ctx, "rate lookup exhausted, passing amount through unconverted",
		"from", from,
		"to", to,
		"amount", amount.String(),
	)
	return amount
}

func (c *Converter) directRate(ctx context.Context, from, to string) (decimal.Decimal, bool) {
	rate, err := c.spot(ctx, from, to)
	if err != nil {
		return decimal.Zero, false
	}
	c.storeRate(ctx, from, to, rate)
	return rate, true
}

// crossRate prices both legs against the reference unit in parallel and
// divides: rate = price(from)/price(to).
func (c *Converter) crossRate(ctx context.Context, from, to string) (decimal.Decimal, bool) {
	var fromRef, toRef decimal.Decimal

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		r, err := c.spot(gctx, from, referenceUnit)
		fromRef = r
		return err
	})
	g.Go(func() error {
		r, err := c.spot(gctx, to, referenceUnit)
		toRef = r
		return err
	})
	if err := g.Wait(); err != nil {
		return decimal.Zero, false
	}
	if toRef.IsZero() {
		return decimal.Zero, false
	}
	rate := fromRef.Div(toRef)
	c.storeRate(ctx, from, to, rate)
	return rate, true
}

func (c *Converter) spot(ctx context.Context, base, quote string) (decimal.Decimal, error) {
	start := time.Now()
	rate, err := c.oracle.SpotRate(ctx, base, quote)
	if err != nil {
		// A pair miss is the oracle answering, not failing; it never counts
		// against the breaker.
		if errors.Is(err, sentinel.ErrPairUnavailable) {
			c.metrics.ObserveOracleLatency("pair_miss", time.Since(start))
			c.breaker.RecordSuccess()
			return decimal.Zero, err
		}
		c.metrics.ObserveOracleLatency("error", time.Since(start))
		c.breaker.RecordFailure()
		return decimal.Zero, err
	}
	c.metrics.ObserveOracleLatency("ok", time.Since(start))
	c.breaker.RecordSuccess()
	return rate, nil
}

func (c *Converter) storeRate(ctx context.Context, from, to string, rate decimal.Decimal) {
	if err := c.cache.Set(ctx, from, to, rate); err != nil {
		c.logger.DebugContext(ctx, "rate cache write failed", "error", err)
	}
}
