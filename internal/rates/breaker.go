package rates

import "sync"

// breaker tracks consecutive oracle failures so a dead price feed stops
// costing a timeout per conversion:
// - Open after N consecutive failures; while open, most conversions skip
//   straight to the fail-open fallback.
// - While open, every probeInterval-th call is let through as a probe.
// - Close again after M consecutive successful calls.
type breaker struct {
	mu               sync.Mutex
	state            breakerState
	failureCount     int
	successCount     int
	probeCount       int
	failureThreshold int
	successThreshold int
	probeInterval    int
}

type breakerState int

const (
	breakerClosed breakerState = iota
	breakerOpen
)

func newBreaker() *breaker {
	return &breaker{
		state:            breakerClosed,
		failureThreshold: 5,
		successThreshold: 3,
		probeInterval:    10,
	}
}

// Allow reports whether the next oracle call may proceed.
func (b *breaker) Allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state == breakerClosed {
		return true
	}
	b.probeCount++
	return b.probeCount%b.probeInterval == 0
}

func (b *breaker) RecordFailure() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failureCount++
	b.successCount = 0
	if b.state == breakerClosed && b.failureCount >= b.failureThreshold {
		b.state = breakerOpen
	}
}

func (b *breaker) RecordSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state == breakerOpen {
		b.successCount++
		if b.successCount >= b.successThreshold {
			b.state = breakerClosed
			b.failureCount = 0
			b.successCount = 0
			b.probeCount = 0
		}
		return
	}
	b.failureCount = 0
}
