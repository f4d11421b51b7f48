package limiter

import "time"

// per-host bookkeeping
type hostTiming struct {
	// when the last reserved request to the host may start
	nextSlot     time.Time
	backoffDelay time.Duration
	backoffCount int
}
