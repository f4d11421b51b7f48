package swr

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/paideia-dao/paideia-site/internal/fetcher"
	"github.com/paideia-dao/paideia-site/internal/metadata"
	"github.com/paideia-dao/paideia-site/internal/resource"
	"github.com/paideia-dao/paideia-site/pkg/failure"
	"github.com/paideia-dao/paideia-site/pkg/retry"
	"github.com/paideia-dao/paideia-site/pkg/timeutil"
)

/*
Cache is a stale-while-revalidate layer over a Fetcher.

  - One entry per key for the lifetime of the Cache.
  - At most one outstanding fetch per key; every trigger joins it.
  - Data is only replaced by a successful fetch and is never cleared.
  - Subscribers are notified through buffered channels and never block
    the cache.

Fetches run on the cache's own context, so a departing subscriber does not
cancel a fetch other subscribers are waiting for. Close cancels them all.
The metadata sink is called with the cache lock held and must not call
back into the cache.
*/
type Cache struct {
	fetcher      fetcher.Fetcher
	metadataSink metadata.MetadataSink
	retryParam   retry.RetryParam
	now          func() time.Time

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu      sync.Mutex
	entries map[resource.Key]*entry
	closed  bool
}

type entry struct {
	data          any
	hasData       bool
	lastFetchedAt time.Time
	status        Status
	err           error
	inflight      bool
	subs          map[*Subscription]struct{}
}

type Option func(*Cache)

// WithRetry retries retryable failures inside one fetch cycle.
func WithRetry(param retry.RetryParam) Option {
	return func(c *Cache) {
		c.retryParam = param
	}
}

func WithClock(now func() time.Time) Option {
	return func(c *Cache) {
		c.now = now
	}
}

func New(f fetcher.Fetcher, metadataSink metadata.MetadataSink, opts ...Option) *Cache {
	ctx, cancel := context.WithCancel(context.Background())
	c := &Cache{
		fetcher:      f,
		metadataSink: metadataSink,
		retryParam:   retry.NewRetryParam(0, 0, 1, timeutil.NewBackoffParam(0, 1, 0)),
		now:          time.Now,
		ctx:          ctx,
		cancel:       cancel,
		entries:      make(map[resource.Key]*entry),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.retryParam.MaxAttempts < 1 {
		c.retryParam.MaxAttempts = 1
	}
	return c
}

// Subscribe registers interest in key and returns immediately with whatever
// is known. Depending on the entry's status and the policy a background
// fetch is started or joined.
func (c *Cache) Subscribe(key resource.Key, policy Policy) *Subscription {
	sub := &Subscription{
		cache:   c,
		key:     key,
		policy:  policy,
		updates: make(chan Entry, 1),
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		sub.closed = true
		close(sub.updates)
		return sub
	}

	e := c.entryLocked(key)
	e.subs[sub] = struct{}{}
	c.expireLocked(key, e, policy)
	if shouldFetchOnMount(e, policy) {
		c.startFetchLocked(key, e, false)
	}
	return sub
}

// Load subscribes, waits until the entry settles or ctx is done, and
// returns the entry as presented under policy.
func (c *Cache) Load(ctx context.Context, key resource.Key, policy Policy) Entry {
	sub := c.Subscribe(key, policy)
	defer sub.Close()

	for {
		current := sub.Current()
		if settled(current.Status) {
			return current
		}
		select {
		case <-ctx.Done():
			return sub.Current()
		case _, ok := <-sub.Updates():
			if !ok {
				return sub.Current()
			}
		}
	}
}

// Revalidate starts a fetch for key, or joins the one in flight. The fetch
// bypasses shared body caches.
func (c *Cache) Revalidate(key resource.Key) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.startFetchLocked(key, c.entryLocked(key), true)
}

// Focus revalidates keys with a live subscriber that asked for it.
func (c *Cache) Focus() {
	c.revalidateWhere(func(p Policy) bool { return p.RevalidateOnFocus })
}

// Reconnect revalidates keys with a live subscriber that asked for it.
func (c *Cache) Reconnect() {
	c.revalidateWhere(func(p Policy) bool { return p.RevalidateOnReconnect })
}

func (c *Cache) revalidateWhere(wants func(Policy) bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	for key, e := range c.entries {
		for sub := range e.subs {
			if wants(sub.policy) {
				c.startFetchLocked(key, e, true)
				break
			}
		}
	}
}

// Peek returns the stored entry without subscribing or presenting it
// through a policy.
func (c *Cache) Peek(key resource.Key) Entry {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok {
		return Entry{Key: key, Status: StatusUnfetched}
	}
	return snapshot(key, e)
}

// Keys lists every key the cache has seen, ordered by their string form.
func (c *Cache) Keys() []resource.Key {
	c.mu.Lock()
	keys := make([]resource.Key, 0, len(c.entries))
	for key := range c.entries {
		keys = append(keys, key)
	}
	c.mu.Unlock()

	sort.Slice(keys, func(i, j int) bool {
		return keys[i].String() < keys[j].String()
	})
	return keys
}

// Close retires every subscriber, cancels in-flight fetches and waits for
// them to finish. It is safe to call more than once.
func (c *Cache) Close() {
	c.mu.Lock()
	if !c.closed {
		c.closed = true
		for _, e := range c.entries {
			for sub := range e.subs {
				sub.closeLocked(e)
			}
		}
	}
	c.mu.Unlock()

	c.cancel()
	c.wg.Wait()
}

func (c *Cache) entryLocked(key resource.Key) *entry {
	e, ok := c.entries[key]
	if !ok {
		e = &entry{
			status: StatusUnfetched,
			subs:   make(map[*Subscription]struct{}),
		}
		c.entries[key] = e
	}
	return e
}

// expireLocked moves a fresh entry to stale once the policy's max age has
// elapsed.
func (c *Cache) expireLocked(key resource.Key, e *entry, policy Policy) {
	if e.status == StatusFresh && isExpired(e, policy, c.now()) {
		c.transitionLocked(key, e, StatusStale)
	}
}

func (c *Cache) startFetchLocked(key resource.Key, e *entry, revalidate bool) {
	if e.inflight {
		return
	}
	e.inflight = true
	c.transitionLocked(key, e, StatusPending)
	c.broadcastLocked(key, e)

	ctx := c.ctx
	if revalidate {
		ctx = fetcher.WithRevalidation(ctx)
	}
	c.wg.Add(1)
	go c.runFetch(ctx, key)
}

func (c *Cache) runFetch(ctx context.Context, key resource.Key) {
	defer c.wg.Done()

	result := retry.Retry(ctx, c.retryParam, func(ctx context.Context) (fetcher.FetchResult, failure.ClassifiedError) {
		return c.fetcher.Fetch(ctx, key)
	})

	c.mu.Lock()
	defer c.mu.Unlock()

	e := c.entries[key]
	e.inflight = false
	if result.IsSuccess() {
		fetched := result.Value()
		e.data = fetched.Payload()
		e.hasData = true
		e.err = nil
		e.lastFetchedAt = fetched.FetchedAt()
		if e.lastFetchedAt.IsZero() {
			e.lastFetchedAt = c.now()
		}
		c.transitionLocked(key, e, StatusFresh)
	} else {
		e.err = result.Err()
		c.transitionLocked(key, e, StatusErrored)
	}
	c.broadcastLocked(key, e)
}

func (c *Cache) transitionLocked(key resource.Key, e *entry, to Status) {
	from := e.status
	e.status = to
	c.metadataSink.RecordTransition(key.String(), from.String(), to.String())
}

func (c *Cache) broadcastLocked(key resource.Key, e *entry) {
	for sub := range e.subs {
		sub.push(present(key, e, sub.policy, c.now()))
	}
}

func shouldFetchOnMount(e *entry, policy Policy) bool {
	switch e.status {
	case StatusUnfetched:
		return true
	case StatusPending:
		return false
	case StatusFresh:
		return policy.RevalidateOnMount
	case StatusStale:
		return policy.RevalidateOnMount || policy.RevalidateIfStale
	case StatusErrored:
		if !e.hasData {
			return true
		}
		return policy.RevalidateOnMount || policy.RevalidateIfStale
	default:
		return false
	}
}

func settled(s Status) bool {
	return s != StatusUnfetched && s != StatusPending
}

func isExpired(e *entry, policy Policy, now time.Time) bool {
	return policy.MaxAge > 0 && !e.lastFetchedAt.IsZero() && now.Sub(e.lastFetchedAt) >= policy.MaxAge
}

func snapshot(key resource.Key, e *entry) Entry {
	return Entry{
		Key:           key,
		Data:          e.data,
		HasData:       e.hasData,
		LastFetchedAt: e.lastFetchedAt,
		Status:        e.status,
		Err:           e.err,
	}
}

// present is the entry as a subscriber with policy sees it.
func present(key resource.Key, e *entry, policy Policy, now time.Time) Entry {
	out := snapshot(key, e)
	if out.Status == StatusFresh && isExpired(e, policy, now) {
		out.Status = StatusStale
	}
	if out.Status == StatusErrored && !policy.StaleIfError {
		out.Data = nil
		out.HasData = false
	}
	return out
}
