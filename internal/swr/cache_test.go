package swr

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/paideia-dao/paideia-site/internal/fetcher"
	"github.com/paideia-dao/paideia-site/internal/metadata"
	"github.com/paideia-dao/paideia-site/internal/resource"
	"github.com/paideia-dao/paideia-site/pkg/retry"
	"github.com/paideia-dao/paideia-site/pkg/timeutil"
)

func TestCache_FirstLoad(t *testing.T) {
	defer goleak.VerifyNone(t)

	sink := newTransitionSink()
	c := New(&stubFetcher{respond: always(price(0.05))}, sink)
	defer c.Close()

	key := resource.AssetPrice("paideia")
	assert.Equal(t, StatusUnfetched, c.Peek(key).Status)

	entry := c.Load(context.Background(), key, ContentPolicy())
	require.Equal(t, StatusFresh, entry.Status)
	require.True(t, entry.HasData)
	assert.NoError(t, entry.Err)
	assert.False(t, entry.LastFetchedAt.IsZero())

	p, ok := Value[*resource.PricePayload](entry)
	require.True(t, ok)
	assert.Equal(t, 0.05, p.Value())

	assert.Equal(t, []string{"unfetched", "pending", "fresh"}, sink.For(key))
}

func TestCache_SubscribeReturnsImmediately(t *testing.T) {
	defer goleak.VerifyNone(t)

	f := &stubFetcher{gate: make(chan struct{}), respond: always(price(1))}
	c := New(f, &metadata.NoopSink{})
	defer c.Close()

	sub := c.Subscribe(resource.AssetPrice("paideia"), ContentPolicy())
	defer sub.Close()

	current := sub.Current()
	assert.Equal(t, StatusPending, current.Status)
	assert.False(t, current.HasData)

	close(f.gate)
	waitFor(t, sub, hasStatus(StatusFresh))
}

func TestCache_DeduplicatesConcurrentSubscribers(t *testing.T) {
	defer goleak.VerifyNone(t)

	f := &stubFetcher{gate: make(chan struct{}), respond: always([]resource.FAQEntry{{Question: "Q1", Answer: "A1"}})}
	c := New(f, &metadata.NoopSink{})
	defer c.Close()

	key := resource.FAQList()
	const n = 50

	subs := make([]*Subscription, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			subs[i] = c.Subscribe(key, ContentPolicy())
		}(i)
	}
	wg.Wait()

	// every other trigger joins the same in-flight fetch
	c.Revalidate(key)
	c.Focus()
	c.Reconnect()

	close(f.gate)
	for _, sub := range subs {
		e := waitFor(t, sub, hasStatus(StatusFresh))
		assert.True(t, e.HasData)
		sub.Close()
	}

	assert.Equal(t, 1, f.Calls())
	assert.Equal(t, int32(1), atomic.LoadInt32(&f.maxParallel))
}

func TestCache_ConcurrentLoadsShareOneFetch(t *testing.T) {
	defer goleak.VerifyNone(t)

	f := &stubFetcher{respond: always(price(2))}
	c := New(f, &metadata.NoopSink{})
	defer c.Close()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			e := c.Load(context.Background(), resource.AssetPrice("paideia"), ContentPolicy())
			assert.Equal(t, StatusFresh, e.Status)
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, f.Calls())
}

func TestCache_FailureAfterFreshKeepsData(t *testing.T) {
	defer goleak.VerifyNone(t)

	f := &stubFetcher{respond: func(call int) outcome {
		if call == 1 {
			return outcome{payload: price(0.05)}
		}
		return outcome{err: errUpstreamDown}
	}}
	sink := newTransitionSink()
	c := New(f, sink)
	defer c.Close()

	key := resource.AssetPrice("paideia")
	require.Equal(t, StatusFresh, c.Load(context.Background(), key, ContentPolicy()).Status)

	sub := c.Subscribe(key, ContentPolicy())
	defer sub.Close()
	c.Revalidate(key)

	e := waitFor(t, sub, hasStatus(StatusErrored))
	require.True(t, e.HasData, "data survives a failed revalidation")
	p, _ := Value[*resource.PricePayload](e)
	assert.Equal(t, 0.05, p.Value())
	assert.True(t, fetcher.IsNetworkError(e.Err))

	assert.Equal(t, []string{"unfetched", "pending", "fresh", "pending", "errored"}, sink.For(key))
}

func TestCache_StaleIfErrorOffHidesDataButKeepsIt(t *testing.T) {
	defer goleak.VerifyNone(t)

	f := &stubFetcher{respond: func(call int) outcome {
		if call == 1 {
			return outcome{payload: price(0.05)}
		}
		return outcome{err: errUpstreamDown}
	}}
	c := New(f, &metadata.NoopSink{})
	defer c.Close()

	key := resource.AssetPrice("paideia")
	strict := Policy{StaleIfError: false}

	c.Load(context.Background(), key, strict)
	sub := c.Subscribe(key, strict)
	defer sub.Close()
	c.Revalidate(key)

	e := waitFor(t, sub, hasStatus(StatusErrored))
	assert.False(t, e.HasData)
	assert.Nil(t, e.Data)
	assert.Error(t, e.Err)

	stored := c.Peek(key)
	assert.True(t, stored.HasData)
	assert.Equal(t, StatusErrored, stored.Status)
}

func TestCache_ErroredWithoutDataRefetchesOnMount(t *testing.T) {
	defer goleak.VerifyNone(t)

	f := &stubFetcher{respond: func(call int) outcome {
		if call == 1 {
			return outcome{err: errUpstreamDown}
		}
		return outcome{payload: price(3)}
	}}
	c := New(f, &metadata.NoopSink{})
	defer c.Close()

	key := resource.AssetPrice("paideia")
	first := c.Load(context.Background(), key, ContentPolicy())
	assert.Equal(t, StatusErrored, first.Status)
	assert.False(t, first.HasData)

	second := c.Load(context.Background(), key, ContentPolicy())
	assert.Equal(t, StatusFresh, second.Status)
	assert.Equal(t, 2, f.Calls())
}

func TestCache_MountRules(t *testing.T) {
	tests := []struct {
		name      string
		policy    Policy
		wantCalls int
	}{
		{"content policy never refetches fresh data", ContentPolicy(), 1},
		{"revalidate on mount refetches", Policy{RevalidateOnMount: true, StaleIfError: true}, 2},
		{"revalidate if stale ignores fresh data", Policy{RevalidateIfStale: true, StaleIfError: true}, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			defer goleak.VerifyNone(t)

			f := &stubFetcher{respond: always(price(1))}
			c := New(f, &metadata.NoopSink{})
			defer c.Close()

			key := resource.AssetPrice("paideia")
			c.Load(context.Background(), key, tt.policy)
			c.Load(context.Background(), key, tt.policy)

			assert.Equal(t, tt.wantCalls, f.Calls())
		})
	}
}

func TestCache_ErroredWithDataOnMount(t *testing.T) {
	tests := []struct {
		name      string
		policy    Policy
		wantCalls int
	}{
		{"content policy keeps showing stale data", ContentPolicy(), 2},
		{"revalidate if stale retries", Policy{RevalidateIfStale: true, StaleIfError: true}, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			defer goleak.VerifyNone(t)

			f := &stubFetcher{respond: func(call int) outcome {
				if call == 1 {
					return outcome{payload: price(1)}
				}
				return outcome{err: errUpstreamDown}
			}}
			c := New(f, &metadata.NoopSink{})
			defer c.Close()

			key := resource.AssetPrice("paideia")
			c.Load(context.Background(), key, tt.policy)

			sub := c.Subscribe(key, tt.policy)
			c.Revalidate(key)
			waitFor(t, sub, hasStatus(StatusErrored))
			sub.Close()

			e := c.Load(context.Background(), key, tt.policy)
			assert.Equal(t, StatusErrored, e.Status)
			assert.True(t, e.HasData)
			assert.Equal(t, tt.wantCalls, f.Calls())
		})
	}
}

func TestCache_MaxAgeMakesEntriesStale(t *testing.T) {
	defer goleak.VerifyNone(t)

	clock := &fakeClock{now: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
	f := &stubFetcher{respond: always(price(1))}
	sink := newTransitionSink()
	c := New(f, sink, WithClock(clock.Now))
	defer c.Close()

	key := resource.AssetPrice("paideia")
	lazy := Policy{StaleIfError: true, MaxAge: time.Minute}
	eager := Policy{StaleIfError: true, MaxAge: time.Minute, RevalidateIfStale: true}

	require.Equal(t, StatusFresh, c.Load(context.Background(), key, lazy).Status)

	clock.Advance(30 * time.Second)
	assert.Equal(t, StatusFresh, c.Load(context.Background(), key, lazy).Status)

	clock.Advance(30 * time.Second)
	e := c.Load(context.Background(), key, lazy)
	assert.Equal(t, StatusStale, e.Status)
	assert.True(t, e.HasData)
	assert.Equal(t, 1, f.Calls())

	e = c.Load(context.Background(), key, eager)
	assert.Equal(t, StatusFresh, e.Status)
	assert.Equal(t, 2, f.Calls())

	assert.Equal(t, []string{"unfetched", "pending", "fresh", "stale", "pending", "fresh"}, sink.For(key))
}

func TestCache_FocusAndReconnect(t *testing.T) {
	tests := []struct {
		name      string
		policy    Policy
		trigger   func(*Cache)
		wantCalls int
	}{
		{"focus enabled", Policy{RevalidateOnFocus: true}, (*Cache).Focus, 2},
		{"focus disabled", ContentPolicy(), (*Cache).Focus, 1},
		{"reconnect enabled", Policy{RevalidateOnReconnect: true}, (*Cache).Reconnect, 2},
		{"reconnect disabled", Policy{RevalidateOnFocus: true}, (*Cache).Reconnect, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			defer goleak.VerifyNone(t)

			f := &stubFetcher{respond: always(price(1))}
			c := New(f, &metadata.NoopSink{})
			defer c.Close()

			key := resource.AssetPrice("paideia")
			sub := c.Subscribe(key, tt.policy)
			defer sub.Close()
			waitFor(t, sub, hasStatus(StatusFresh))

			tt.trigger(c)
			if tt.wantCalls > 1 {
				waitFor(t, sub, func(e Entry) bool { return e.Status == StatusFresh && f.Calls() == tt.wantCalls })
			}
			c.Load(context.Background(), key, ContentPolicy())
			assert.Equal(t, tt.wantCalls, f.Calls())
			assert.Equal(t, int32(tt.wantCalls-1), atomic.LoadInt32(&f.revalidations), "only the trigger bypasses shared copies")
		})
	}
}

func TestCache_RevalidateMarksTheFetch(t *testing.T) {
	defer goleak.VerifyNone(t)

	f := &stubFetcher{respond: always(price(1))}
	c := New(f, &metadata.NoopSink{})
	defer c.Close()

	key := resource.AssetPrice("paideia")
	c.Load(context.Background(), key, ContentPolicy())
	require.Equal(t, 1, f.Calls())
	assert.Zero(t, atomic.LoadInt32(&f.revalidations))

	sub := c.Subscribe(key, ContentPolicy())
	defer sub.Close()
	c.Revalidate(key)
	waitFor(t, sub, func(e Entry) bool { return e.Status == StatusFresh && f.Calls() == 2 })
	assert.Equal(t, int32(1), atomic.LoadInt32(&f.revalidations))
}

func TestCache_FocusIgnoresRetiredSubscribers(t *testing.T) {
	defer goleak.VerifyNone(t)

	f := &stubFetcher{respond: always(price(1))}
	c := New(f, &metadata.NoopSink{})
	defer c.Close()

	key := resource.AssetPrice("paideia")
	sub := c.Subscribe(key, Policy{RevalidateOnFocus: true})
	waitFor(t, sub, hasStatus(StatusFresh))
	sub.Close()

	c.Focus()
	assert.Equal(t, StatusFresh, c.Peek(key).Status)
	assert.Equal(t, 1, f.Calls())
}

func TestSubscription_CloseStopsUpdates(t *testing.T) {
	defer goleak.VerifyNone(t)

	f := &stubFetcher{gate: make(chan struct{}), respond: always(price(1))}
	c := New(f, &metadata.NoopSink{})
	defer c.Close()

	key := resource.AssetPrice("paideia")
	leaving := c.Subscribe(key, ContentPolicy())
	staying := c.Subscribe(key, ContentPolicy())
	defer staying.Close()

	leaving.Close()
	leaving.Close()

	close(f.gate)
	waitFor(t, staying, hasStatus(StatusFresh))

	// drain whatever was buffered before Close; the channel must be closed
	for range leaving.Updates() {
	}
	assert.Equal(t, StatusFresh, leaving.Current().Status, "the shared entry still updated")
}

func TestCache_LoadHonoursContext(t *testing.T) {
	defer goleak.VerifyNone(t)

	f := &stubFetcher{gate: make(chan struct{}), respond: always(price(1))}
	c := New(f, &metadata.NoopSink{})
	defer c.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	key := resource.AssetPrice("paideia")
	e := c.Load(ctx, key, ContentPolicy())
	assert.Equal(t, StatusPending, e.Status)
	assert.False(t, e.HasData)

	// the fetch keeps going for other consumers
	close(f.gate)
	e = c.Load(context.Background(), key, ContentPolicy())
	assert.Equal(t, StatusFresh, e.Status)
	assert.Equal(t, 1, f.Calls())
}

func TestCache_CloseCancelsInFlightFetches(t *testing.T) {
	defer goleak.VerifyNone(t)

	f := &stubFetcher{gate: make(chan struct{}), respond: always(price(1))}
	c := New(f, &metadata.NoopSink{})

	sub := c.Subscribe(resource.FAQList(), ContentPolicy())
	c.Close()
	c.Close()

	_, open := <-sub.Updates()
	for open {
		_, open = <-sub.Updates()
	}
	assert.Equal(t, StatusErrored, c.Peek(resource.FAQList()).Status)

	after := c.Load(context.Background(), resource.AssetPrice("paideia"), ContentPolicy())
	assert.Equal(t, StatusUnfetched, after.Status)
	assert.Equal(t, 1, f.Calls())
}

func TestCache_RetriesRetryableFailures(t *testing.T) {
	defer goleak.VerifyNone(t)

	f := &stubFetcher{respond: func(call int) outcome {
		if call < 3 {
			return outcome{err: errUpstreamDown}
		}
		return outcome{payload: price(1)}
	}}
	param := retry.NewRetryParam(0, 1, 3, timeutil.NewBackoffParam(time.Millisecond, 1, time.Millisecond))
	c := New(f, &metadata.NoopSink{}, WithRetry(param))
	defer c.Close()

	e := c.Load(context.Background(), resource.AssetPrice("paideia"), ContentPolicy())
	assert.Equal(t, StatusFresh, e.Status)
	assert.Equal(t, 3, f.Calls())
}

func TestCache_NoRetryByDefault(t *testing.T) {
	defer goleak.VerifyNone(t)

	f := &stubFetcher{respond: func(int) outcome { return outcome{err: errUpstreamDown} }}
	c := New(f, &metadata.NoopSink{})
	defer c.Close()

	e := c.Load(context.Background(), resource.AssetPrice("paideia"), ContentPolicy())
	assert.Equal(t, StatusErrored, e.Status)
	assert.Same(t, errUpstreamDown, e.Err)
	assert.Equal(t, 1, f.Calls())
}

func TestCache_Keys(t *testing.T) {
	defer goleak.VerifyNone(t)

	c := New(&stubFetcher{respond: always(price(1))}, &metadata.NoopSink{})
	defer c.Close()

	c.Load(context.Background(), resource.FAQList(), ContentPolicy())
	c.Load(context.Background(), resource.AssetPrice("paideia"), ContentPolicy())
	c.Load(context.Background(), resource.ArticleList("education"), ContentPolicy())

	assert.Equal(t, []resource.Key{
		resource.ArticleList("education"),
		resource.AssetPrice("paideia"),
		resource.FAQList(),
	}, c.Keys())
}

func TestValue(t *testing.T) {
	_, ok := Value[*resource.PricePayload](Entry{})
	assert.False(t, ok)

	_, ok = Value[[]resource.FAQEntry](Entry{HasData: true, Data: price(1)})
	assert.False(t, ok, "wrong type")

	faq, ok := Value[[]resource.FAQEntry](Entry{HasData: true, Data: []resource.FAQEntry{{Question: "q"}}})
	assert.True(t, ok)
	assert.Len(t, faq, 1)
}
