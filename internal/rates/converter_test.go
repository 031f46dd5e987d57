package rates

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"custos/pkg/platform/sentinel"
)

type stubOracle struct {
	mu    sync.Mutex
	calls int
	fn    func(base, quote string) (decimal.Decimal, error)
}

func (s *stubOracle) SpotRate(_ context.Context, base, quote string) (decimal.Decimal, error) {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()
	return s.fn(base, quote)
}

func (s *stubOracle) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func newTestConverter(oracle PriceOracle) *Converter {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewConverter(oracle, NoopCache{}, logger, nil)
}

func TestConvert_IdentityLaw(t *testing.T) {
	oracle := &stubOracle{fn: func(string, string) (decimal.Decimal, error) {
		t.Fatal("oracle must not be called for identity conversion")
		return decimal.Zero, nil
	}}
	c := newTestConverter(oracle)

	for _, token := range []string{"USDC", "ETH", "SOL"} {
		amount := dec("123.456")
		got := c.Convert(context.Background(), amount, token, token)
		assert.True(t, got.Equal(amount), "convert(x, %s, %s) must equal x", token, token)
	}
	assert.Zero(t, oracle.callCount())
}

func TestConvert_DirectPair(t *testing.T) {
	oracle := &stubOracle{fn: func(base, quote string) (decimal.Decimal, error) {
		if base == "ETH" && quote == "USDC" {
			return dec("2000"), nil
		}
		return decimal.Zero, sentinel.ErrPairUnavailable
	}}
	c := newTestConverter(oracle)

	got := c.Convert(context.Background(), dec("0.5"), "ETH", "USDC")
	assert.True(t, got.Equal(dec("1000")))
	assert.Equal(t, 1, oracle.callCount())
}

func TestConvert_CrossRateThroughReferenceUnit(t *testing.T) {
	oracle := &stubOracle{fn: func(base, quote string) (decimal.Decimal, error) {
		switch {
		case base == "SOL" && quote == "USD":
			return dec("100"), nil
		case base == "USDC" && quote == "USD":
			return dec("1"), nil
		default:
			return decimal.Zero, sentinel.ErrPairUnavailable
		}
	}}
	c := newTestConverter(oracle)

	got := c.Convert(context.Background(), dec("2"), "SOL", "USDC")
	assert.True(t, got.Equal(dec("200")), "2 SOL at $100 through the USD leg is 200 USDC, got %s", got)
}

func TestConvert_FailOpenReturnsInputUnchanged(t *testing.T) {
	oracle := &stubOracle{fn: func(string, string) (decimal.Decimal, error) {
		return decimal.Zero, sentinel.ErrPairUnavailable
	}}
	c := newTestConverter(oracle)

	amount := dec("42.42")
	got := c.Convert(context.Background(), amount, "OBSCURE", "USDC")
	assert.True(t, got.Equal(amount), "exhausted fallback chain must pass the amount through")
}

func TestConvert_BreakerSkipsDeadOracle(t *testing.T) {
	oracle := &stubOracle{fn: func(string, string) (decimal.Decimal, error) {
		return decimal.Zero, sentinel.ErrUnavailable
	}}
	c := newTestConverter(oracle)

	// Trip the breaker.
	for i := 0; i < 5; i++ {
		c.Convert(context.Background(), dec("1"), "ETH", "USDC")
	}
	callsAfterTrip := oracle.callCount()

	// With the breaker open, conversions fail open without oracle calls
	// (except periodic probes).
	for i := 0; i < 5; i++ {
		got := c.Convert(context.Background(), dec("7"), "ETH", "USDC")
		assert.True(t, got.Equal(dec("7")))
	}
	assert.Equal(t, callsAfterTrip, oracle.callCount(), "open breaker must not hit the oracle on every call")
}

func TestConvert_PairMissesDoNotTripBreaker(t *testing.T) {
	oracle := &stubOracle{fn: func(base, quote string) (decimal.Decimal, error) {
		if base == "ETH" && quote == "USDC" {
			return dec("2000"), nil
		}
		return decimal.Zero, sentinel.ErrPairUnavailable
	}}
	c := newTestConverter(oracle)

	// Each unknown-pair conversion misses three times: the direct pair and
	// both cross legs. Pile up well past the failure threshold.
	for i := 0; i < 5; i++ {
		got := c.Convert(context.Background(), dec("1"), "JUNK1", "JUNK2")
		assert.True(t, got.Equal(dec("1")))
	}

	got := c.Convert(context.Background(), dec("0.5"), "ETH", "USDC")
	assert.True(t, got.Equal(dec("1000")), "a known pair must still convert after pair misses, got %s", got)
}

func TestBreakerClosesAfterSuccessfulProbes(t *testing.T) {
	b := newBreaker()
	for i := 0; i < b.failureThreshold; i++ {
		b.RecordFailure()
	}
	assert.False(t, b.Allow())

	for i := 0; i < b.successThreshold; i++ {
		b.RecordSuccess()
	}
	assert.True(t, b.Allow(), "breaker closes after consecutive successes")
}
