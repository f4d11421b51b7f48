package swr

import "github.com/paideia-dao/paideia-site/internal/resource"

// Subscription is one consumer's view of a key.
type Subscription struct {
	cache   *Cache
	key     resource.Key
	policy  Policy
	updates chan Entry
	closed  bool
}

func (s *Subscription) Key() resource.Key {
	return s.key
}

// Current returns the entry as presented to this subscriber now.
func (s *Subscription) Current() Entry {
	c := s.cache
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[s.key]
	if !ok {
		return Entry{Key: s.key, Status: StatusUnfetched}
	}
	return present(s.key, e, s.policy, c.now())
}

// Updates delivers entries after each change. Only the latest undelivered
// entry is kept. The channel is closed by Close.
func (s *Subscription) Updates() <-chan Entry {
	return s.updates
}

// Close retires the subscriber. Later changes are not delivered.
func (s *Subscription) Close() {
	c := s.cache
	c.mu.Lock()
	defer c.mu.Unlock()
	s.closeLocked(c.entries[s.key])
}

func (s *Subscription) closeLocked(e *entry) {
	if s.closed {
		return
	}
	s.closed = true
	if e != nil {
		delete(e.subs, s)
	}
	close(s.updates)
}

// push replaces any undelivered entry with e. Callers hold the cache lock.
func (s *Subscription) push(e Entry) {
	if s.closed {
		return
	}
	select {
	case s.updates <- e:
		return
	default:
	}
	select {
	case <-s.updates:
	default:
	}
	select {
	case s.updates <- e:
	default:
	}
}
