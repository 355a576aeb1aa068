package convert

import (
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// ErrCircuitOpen is returned while a backend is cooling down after failures.
var ErrCircuitOpen = errors.New("backend circuit open")

type breakerState string

const (
	breakerClosed   breakerState = "closed"
	breakerOpen     breakerState = "open"
	breakerHalfOpen breakerState = "half_open"
)

// Breaker stops calling a failing backend for an exponentially growing
// cooldown. After the cooldown one probe call is let through.
type Breaker struct {
	name        string
	baseBackoff time.Duration
	maxBackoff  time.Duration
	now         func() time.Time

	mu       sync.Mutex
	state    breakerState
	failures int
	retryAt  time.Time
}

// NewBreaker returns a closed breaker. Cooldowns double from base up to max.
func NewBreaker(name string, base, max time.Duration) *Breaker {
	if base <= 0 {
		base = 30 * time.Second
	}
	if max < base {
		max = base
	}
	return &Breaker{name: name, baseBackoff: base, maxBackoff: max, now: time.Now, state: breakerClosed}
}

// Open records a failure and starts a cooldown: 30s, 60s, 120s, ... up to max.
func (b *Breaker) Open() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failures++
	backoff := b.baseBackoff
	for i := 1; i < b.failures; i++ {
		backoff *= 2
		if backoff > b.maxBackoff {
			backoff = b.maxBackoff
			break
		}
	}
	b.state = breakerOpen
	b.retryAt = b.now().Add(backoff)
	log.Warn().
		Str("backend", b.name).
		Dur("cooldown", backoff).
		Int("failures", b.failures).
		Time("retry_at", b.retryAt).
		Msg("circuit breaker OPENED")
}

// IsOpen reports whether calls should be skipped. An expired cooldown moves
// the breaker to half-open and lets the caller probe.
func (b *Breaker) IsOpen() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state != breakerOpen {
		return false
	}
	if !b.now().Before(b.retryAt) {
		b.state = breakerHalfOpen
		log.Info().Str("backend", b.name).Msg("circuit breaker moved to HALF-OPEN")
		return false
	}
	return true
}

// Close resets the breaker after a successful call.
func (b *Breaker) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state == breakerClosed {
		return
	}
	b.state = breakerClosed
	b.failures = 0
	b.retryAt = time.Time{}
	log.Info().Str("backend", b.name).Msg("circuit breaker CLOSED (reset)")
}
