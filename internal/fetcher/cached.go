package fetcher

import (
	"context"
	"net/url"
	"time"

	"github.com/bytedance/sonic"

	"github.com/paideia-dao/paideia-site/internal/cache"
	"github.com/paideia-dao/paideia-site/internal/metadata"
	"github.com/paideia-dao/paideia-site/internal/resource"
	"github.com/paideia-dao/paideia-site/pkg/failure"
)

const sharedKeyPrefix = "body:"

// sharedRecord is what CachedFetcher writes to the shared cache.
type sharedRecord struct {
	URL       string    `json:"url"`
	FetchedAt time.Time `json:"fetched_at"`
	Body      string    `json:"body"`
}

// CachedFetcher consults a shared body cache before the network and writes
// successful bodies back. Revalidations skip the lookup but still write
// back. Cache failures are recorded and otherwise ignored.
type CachedFetcher struct {
	next         Fetcher
	store        cache.Cache
	ttl          time.Duration
	metadataSink metadata.MetadataSink
	now          func() time.Time
}

func NewCachedFetcher(
	next Fetcher,
	store cache.Cache,
	ttl time.Duration,
	metadataSink metadata.MetadataSink,
) *CachedFetcher {
	return &CachedFetcher{
		next:         next,
		store:        store,
		ttl:          ttl,
		metadataSink: metadataSink,
		now:          time.Now,
	}
}

func (c *CachedFetcher) Fetch(ctx context.Context, key resource.Key) (FetchResult, failure.ClassifiedError) {
	if !IsRevalidation(ctx) {
		if result, ok := c.lookup(ctx, key); ok {
			return result, nil
		}
	}

	result, err := c.next.Fetch(ctx, key)
	if err != nil {
		return result, err
	}
	if len(result.Body()) > 0 {
		c.writeBack(ctx, key, result)
	}
	return result, nil
}

func (c *CachedFetcher) lookup(ctx context.Context, key resource.Key) (FetchResult, bool) {
	raw, found, err := c.store.Get(ctx, sharedKeyPrefix+key.String())
	if err != nil {
		c.recordCacheError("CachedFetcher.lookup", key, err)
		return FetchResult{}, false
	}
	if !found {
		return FetchResult{}, false
	}

	var record sharedRecord
	if err := sonic.UnmarshalString(raw, &record); err != nil {
		c.recordCacheError("CachedFetcher.lookup", key, err)
		return FetchResult{}, false
	}
	if c.ttl > 0 && c.now().Sub(record.FetchedAt) >= c.ttl {
		return FetchResult{}, false
	}

	payload, err := resource.Decode(key, []byte(record.Body))
	if err != nil {
		c.recordCacheError("CachedFetcher.lookup", key, err)
		return FetchResult{}, false
	}

	var recordUrl url.URL
	if u, err := url.Parse(record.URL); err == nil {
		recordUrl = *u
	}
	return FetchResult{
		key:     key,
		url:     recordUrl,
		body:    []byte(record.Body),
		payload: payload,
		meta: ResponseMeta{
			statusCode:      200,
			contentType:     "application/json",
			fetchedAt:       record.FetchedAt,
			fromSharedCache: true,
		},
	}, true
}

func (c *CachedFetcher) writeBack(ctx context.Context, key resource.Key, result FetchResult) {
	fetchedAt := result.FetchedAt()
	if fetchedAt.IsZero() {
		fetchedAt = c.now()
	}
	resultUrl := result.URL()
	raw, err := sonic.MarshalString(sharedRecord{
		URL:       resultUrl.String(),
		FetchedAt: fetchedAt,
		Body:      string(result.Body()),
	})
	if err != nil {
		c.recordCacheError("CachedFetcher.store", key, err)
		return
	}
	if err := c.store.Put(ctx, sharedKeyPrefix+key.String(), raw, c.ttl); err != nil {
		c.recordCacheError("CachedFetcher.store", key, err)
	}
}

func (c *CachedFetcher) recordCacheError(action string, key resource.Key, err error) {
	c.metadataSink.RecordError(
		c.now(),
		"fetcher",
		action,
		metadata.CauseCacheFailure,
		err.Error(),
		[]metadata.Attribute{metadata.NewAttr(metadata.AttrKey, key.String())},
	)
}
