package limiter

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/paideia-dao/paideia-site/pkg/timeutil"
)

// RateLimiter spaces requests per upstream host.
// Responsibilities:
// - Keep a minimum interval between two requests to the same host
// - Back off exponentially after the host throttles or fails
// - Hand out request slots so concurrent callers never bunch up
type RateLimiter interface {
	Wait(ctx context.Context, host string) error
	Backoff(host string)
	ResetBackoff(host string)
}

type HostLimiter struct {
	mu          sync.Mutex
	minInterval time.Duration
	jitter      time.Duration
	backoff     timeutil.BackoffParam
	rng         *rand.Rand
	hosts       map[string]hostTiming
	now         func() time.Time
}

// NewHostLimiter builds a limiter. A zero minInterval only applies backoff.
func NewHostLimiter(
	minInterval time.Duration,
	jitter time.Duration,
	backoff timeutil.BackoffParam,
	randomSeed int64,
) *HostLimiter {
	return &HostLimiter{
		minInterval: minInterval,
		jitter:      jitter,
		backoff:     backoff,
		rng:         rand.New(rand.NewSource(randomSeed)),
		hosts:       make(map[string]hostTiming),
		now:         time.Now,
	}
}

// Wait blocks until the caller may send a request to host, or ctx ends.
// The slot is reserved before sleeping.
func (l *HostLimiter) Wait(ctx context.Context, host string) error {
	return timeutil.SleepContext(ctx, l.reserve(host))
}

func (l *HostLimiter) reserve(host string) time.Duration {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	timing, exists := l.hosts[host]
	start := now
	if exists && timing.nextSlot.After(now) {
		start = timing.nextSlot
	}

	gap := l.minInterval
	if timing.backoffDelay > gap {
		gap = timing.backoffDelay
	}
	if gap > 0 {
		gap += timeutil.ComputeJitter(l.jitter, l.rng)
	}
	timing.nextSlot = start.Add(gap)
	l.hosts[host] = timing

	return start.Sub(now)
}

// Backoff widens the gap before the next request to host.
func (l *HostLimiter) Backoff(host string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	timing := l.hosts[host]
	timing.backoffCount++
	if l.backoff.Disabled() {
		l.hosts[host] = timing
		return
	}
	timing.backoffDelay = timeutil.ExponentialBackoffDelay(timing.backoffCount, 0, nil, l.backoff)
	if next := l.now().Add(timing.backoffDelay); next.After(timing.nextSlot) {
		timing.nextSlot = next
	}
	l.hosts[host] = timing
}

// ResetBackoff clears backoff after a healthy response.
func (l *HostLimiter) ResetBackoff(host string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	timing, exists := l.hosts[host]
	if !exists {
		return
	}
	timing.backoffCount = 0
	timing.backoffDelay = 0
	l.hosts[host] = timing
}

// BackoffCount reports consecutive backoffs recorded for host.
func (l *HostLimiter) BackoffCount(host string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.hosts[host].backoffCount
}

// SetClock replaces the time source. Intended for tests.
func (l *HostLimiter) SetClock(now func() time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.now = now
}
