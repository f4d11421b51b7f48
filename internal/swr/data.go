package swr

import (
	"time"

	"github.com/paideia-dao/paideia-site/internal/resource"
)

type Status int

const (
	StatusUnfetched Status = iota
	StatusPending
	StatusFresh
	StatusStale
	StatusErrored
)

func (s Status) String() string {
	switch s {
	case StatusUnfetched:
		return "unfetched"
	case StatusPending:
		return "pending"
	case StatusFresh:
		return "fresh"
	case StatusStale:
		return "stale"
	case StatusErrored:
		return "errored"
	default:
		return "unknown"
	}
}

// Entry is a snapshot of what the cache knows about one key.
// HasData is false until the first successful fetch. Err holds the most
// recent failure and is cleared by the next success.
type Entry struct {
	Key           resource.Key
	Data          any
	HasData       bool
	LastFetchedAt time.Time
	Status        Status
	Err           error
}

// Value returns the entry's data as T when present.
func Value[T any](e Entry) (T, bool) {
	var zero T
	if !e.HasData {
		return zero, false
	}
	v, ok := e.Data.(T)
	if !ok {
		return zero, false
	}
	return v, true
}

// Policy controls when a subscriber triggers background fetches and how
// errored entries are presented to it.
type Policy struct {
	// RevalidateOnMount re-fetches on every new subscriber, even when fresh.
	RevalidateOnMount bool
	// RevalidateIfStale re-fetches on subscribe when the entry is stale or
	// errored with data.
	RevalidateIfStale bool
	// RevalidateOnFocus re-fetches on Cache.Focus while subscribed.
	RevalidateOnFocus bool
	// RevalidateOnReconnect re-fetches on Cache.Reconnect while subscribed.
	RevalidateOnReconnect bool
	// StaleIfError keeps showing the last good data of an errored entry.
	StaleIfError bool
	// MaxAge after which a fresh entry counts as stale. Zero means never.
	MaxAge time.Duration
}

// ContentPolicy is what the site uses for price, articles and FAQ: fetch
// once, keep the data through errors, never revalidate on its own.
func ContentPolicy() Policy {
	return Policy{
		StaleIfError: true,
	}
}
