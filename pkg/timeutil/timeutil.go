package timeutil

import (
	"context"
	"math"
	"math/rand"
	"time"
)

// ComputeJitter returns a uniformly drawn duration in [0, max).
// A non-positive max or a nil rng yields 0.
func ComputeJitter(max time.Duration, rng *rand.Rand) time.Duration {
	if max <= 0 || rng == nil {
		return 0
	}
	return time.Duration(rng.Int63n(int64(max)))
}

// ExponentialBackoffDelay computes the wait before retry number backoffCount
// (1-based): initial * multiplier^(backoffCount-1), capped at the max
// duration, plus jitter. Counts below 1 are treated as 1.
func ExponentialBackoffDelay(
	backoffCount int,
	jitter time.Duration,
	rng *rand.Rand,
	param BackoffParam,
) time.Duration {
	if backoffCount < 1 {
		backoffCount = 1
	}
	base := float64(param.InitialDuration()) * math.Pow(param.Multiplier(), float64(backoffCount-1))
	if max := float64(param.MaxDuration()); max > 0 && base > max {
		base = max
	}
	if base < 0 || math.IsNaN(base) {
		base = 0
	}
	return time.Duration(base) + ComputeJitter(jitter, rng)
}

// SleepContext waits for d or until ctx is done, whichever comes first.
func SleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
