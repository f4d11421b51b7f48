package fetcher_test

import (
	"context"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/paideia-dao/paideia-site/internal/fetcher"
	"github.com/paideia-dao/paideia-site/internal/metadata"
	"github.com/paideia-dao/paideia-site/internal/resource"
	"github.com/paideia-dao/paideia-site/pkg/failure"
)

// recordingSink is a test double for metadata.MetadataSink.
type recordingSink struct {
	mu          sync.Mutex
	fetchEvents []metadata.FetchEvent
	errorEvents []errorEvent
}

type errorEvent struct {
	packageName string
	action      string
	cause       metadata.ErrorCause
	details     string
	attrs       []metadata.Attribute
}

func (r *recordingSink) RecordError(
	observedAt time.Time,
	packageName string,
	action string,
	cause metadata.ErrorCause,
	details string,
	attrs []metadata.Attribute,
) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errorEvents = append(r.errorEvents, errorEvent{packageName, action, cause, details, attrs})
}

func (r *recordingSink) RecordFetch(event metadata.FetchEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fetchEvents = append(r.fetchEvents, event)
}

func (r *recordingSink) RecordTransition(string, string, string) {}

func (r *recordingSink) RecordArtifact(metadata.ArtifactKind, string, []metadata.Attribute) {}

func (r *recordingSink) errors() []errorEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]errorEvent(nil), r.errorEvents...)
}

// fetcherMock is a testify mock of fetcher.Fetcher.
type fetcherMock struct {
	mock.Mock
}

func (f *fetcherMock) Fetch(ctx context.Context, key resource.Key) (fetcher.FetchResult, failure.ClassifiedError) {
	args := f.Called(ctx, key)
	result := args.Get(0).(fetcher.FetchResult)
	if err := args.Get(1); err != nil {
		return result, err.(failure.ClassifiedError)
	}
	return result, nil
}

func newLocator(t *testing.T, base string) resource.Locator {
	t.Helper()
	u, err := url.Parse(base)
	require.NoError(t, err)
	return resource.NewLocator(*u, *u)
}
