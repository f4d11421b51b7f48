package swr

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/paideia-dao/paideia-site/internal/fetcher"
	"github.com/paideia-dao/paideia-site/internal/metadata"
	"github.com/paideia-dao/paideia-site/internal/resource"
	"github.com/paideia-dao/paideia-site/pkg/failure"
)

type outcome struct {
	payload any
	err     failure.ClassifiedError
}

// stubFetcher answers from a per-call script. When gate is set every call
// blocks until the gate is closed or the context ends.
type stubFetcher struct {
	gate    chan struct{}
	respond func(call int) outcome

	calls         int32
	revalidations int32
	running       int32
	maxParallel   int32
}

func (s *stubFetcher) Fetch(ctx context.Context, key resource.Key) (fetcher.FetchResult, failure.ClassifiedError) {
	call := int(atomic.AddInt32(&s.calls, 1))
	if fetcher.IsRevalidation(ctx) {
		atomic.AddInt32(&s.revalidations, 1)
	}
	running := atomic.AddInt32(&s.running, 1)
	defer atomic.AddInt32(&s.running, -1)
	for {
		max := atomic.LoadInt32(&s.maxParallel)
		if running <= max || atomic.CompareAndSwapInt32(&s.maxParallel, max, running) {
			break
		}
	}

	if s.gate != nil {
		select {
		case <-s.gate:
		case <-ctx.Done():
			return fetcher.FetchResult{}, &fetcher.FetchError{
				Message:   ctx.Err().Error(),
				Retryable: true,
				Cause:     fetcher.ErrCauseNetworkFailure,
			}
		}
	}

	out := s.respond(call)
	if out.err != nil {
		return fetcher.FetchResult{}, out.err
	}
	return fetcher.NewFetchResultForTest(key, out.payload, time.Time{}), nil
}

func (s *stubFetcher) Calls() int {
	return int(atomic.LoadInt32(&s.calls))
}

func always(payload any) func(int) outcome {
	return func(int) outcome { return outcome{payload: payload} }
}

func price(v float64) *resource.PricePayload {
	return &resource.PricePayload{Price: &v}
}

var errUpstreamDown = &fetcher.FetchError{
	Message:   "server error: 503",
	Retryable: true,
	Cause:     fetcher.ErrCauseRequest5xx,
}

// transitionSink records status transitions per key.
type transitionSink struct {
	metadata.NoopSink
	mu          sync.Mutex
	transitions map[string][]string
}

func newTransitionSink() *transitionSink {
	return &transitionSink{transitions: make(map[string][]string)}
}

func (s *transitionSink) RecordTransition(key, from, to string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.transitions[key]) == 0 {
		s.transitions[key] = append(s.transitions[key], from)
	}
	s.transitions[key] = append(s.transitions[key], to)
}

func (s *transitionSink) For(key resource.Key) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.transitions[key.String()]...)
}

// waitFor reads updates until cond holds for one of them.
func waitFor(t *testing.T, sub *Subscription, cond func(Entry) bool) Entry {
	t.Helper()
	if current := sub.Current(); cond(current) {
		return current
	}
	timeout := time.After(2 * time.Second)
	for {
		select {
		case e, ok := <-sub.Updates():
			require.True(t, ok, "subscription closed while waiting")
			if cond(e) {
				return e
			}
		case <-timeout:
			t.Fatalf("condition not met, last entry: %+v", sub.Current())
			return Entry{}
		}
	}
}

func hasStatus(s Status) func(Entry) bool {
	return func(e Entry) bool { return e.Status == s }
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = f.now.Add(d)
}
