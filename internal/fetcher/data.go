package fetcher

import (
	"net/url"
	"time"

	"github.com/paideia-dao/paideia-site/internal/resource"
)

type FetchResult struct {
	key     resource.Key
	url     url.URL
	body    []byte
	payload any
	meta    ResponseMeta
}

type ResponseMeta struct {
	statusCode      int
	contentType     string
	fetchedAt       time.Time
	fromSharedCache bool
}

func (f FetchResult) Key() resource.Key {
	return f.key
}

func (f FetchResult) URL() url.URL {
	return f.url
}

// Body is the raw upstream body the payload was decoded from.
func (f FetchResult) Body() []byte {
	return f.body
}

// Payload is the decoded body: *resource.PricePayload,
// []resource.ArticleSummary or []resource.FAQEntry depending on the key.
func (f FetchResult) Payload() any {
	return f.payload
}

func (f FetchResult) Code() int {
	return f.meta.statusCode
}

func (f FetchResult) ContentType() string {
	return f.meta.contentType
}

// FetchedAt is when the body left the upstream, which is earlier than now
// for results served from the shared cache.
func (f FetchResult) FetchedAt() time.Time {
	return f.meta.fetchedAt
}

func (f FetchResult) FromSharedCache() bool {
	return f.meta.fromSharedCache
}

// NewFetchResultForTest lets other packages build results without touching
// unexported fields.
func NewFetchResultForTest(key resource.Key, payload any, fetchedAt time.Time) FetchResult {
	return FetchResult{
		key:     key,
		payload: payload,
		meta: ResponseMeta{
			statusCode: 200,
			fetchedAt:  fetchedAt,
		},
	}
}
