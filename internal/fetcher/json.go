package fetcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/paideia-dao/paideia-site/internal/metadata"
	"github.com/paideia-dao/paideia-site/internal/resource"
	"github.com/paideia-dao/paideia-site/pkg/failure"
	"github.com/paideia-dao/paideia-site/pkg/limiter"
)

/*
Responsibilities

- Resolve a resource key to its upstream URL
- Perform exactly one GET with JSON headers
- Classify the response into NetworkError or DecodeError
- Record every attempt on the metadata sink
- Optionally space requests per host and back off when upstreams struggle

Retries and caching belong to callers.
*/

const maxBodyBytes = 8 << 20

type JSONFetcher struct {
	metadataSink metadata.MetadataSink
	httpClient   *http.Client
	locator      resource.Locator
	userAgent    string
	limiter      limiter.RateLimiter
}

// NewJSONFetcher builds a fetcher. A zero timeout means none.
func NewJSONFetcher(
	metadataSink metadata.MetadataSink,
	locator resource.Locator,
	userAgent string,
	timeout time.Duration,
) *JSONFetcher {
	return &JSONFetcher{
		metadataSink: metadataSink,
		httpClient:   &http.Client{Timeout: timeout},
		locator:      locator,
		userAgent:    userAgent,
	}
}

func (j *JSONFetcher) Fetch(ctx context.Context, key resource.Key) (FetchResult, failure.ClassifiedError) {
	callerMethod := "JSONFetcher.Fetch"

	fetchUrl, err := j.locator.URL(key)
	if err != nil {
		fetchErr := &FetchError{
			Message: err.Error(),
			Cause:   ErrCauseInvalidRequest,
		}
		j.recordFetchError(callerMethod, key, url.URL{}, 0, fetchErr)
		return FetchResult{}, fetchErr
	}

	if j.limiter != nil {
		if err := j.limiter.Wait(ctx, fetchUrl.Host); err != nil {
			fetchErr := &FetchError{
				Message:   fmt.Sprintf("waiting for request slot: %v", err),
				Retryable: true,
				Cause:     ErrCauseTimeout,
			}
			j.recordFetchError(callerMethod, key, fetchUrl, 0, fetchErr)
			return FetchResult{}, fetchErr
		}
	}

	startTime := time.Now()
	result, fetchErr := j.performFetch(ctx, key, fetchUrl)
	duration := time.Since(startTime)
	j.adjustBackoff(fetchUrl.Host, result.meta.statusCode, fetchErr)

	j.metadataSink.RecordFetch(metadata.FetchEvent{
		ResourceKey: key.String(),
		FetchURL:    fetchUrl.String(),
		HTTPStatus:  result.meta.statusCode,
		Duration:    duration,
		ContentType: result.meta.contentType,
		Attempts:    1,
	})

	if fetchErr != nil {
		j.recordFetchError(callerMethod, key, fetchUrl, result.meta.statusCode, fetchErr)
		return FetchResult{}, fetchErr
	}
	return result, nil
}

// WithRateLimiter spaces requests per upstream host through l.
func (j *JSONFetcher) WithRateLimiter(l limiter.RateLimiter) *JSONFetcher {
	j.limiter = l
	return j
}

// adjustBackoff backs off on throttling, server errors and transport
// failures, and clears backoff on any other response.
func (j *JSONFetcher) adjustBackoff(host string, statusCode int, err *FetchError) {
	if j.limiter == nil {
		return
	}
	switch {
	case statusCode == http.StatusTooManyRequests, statusCode >= 500:
		j.limiter.Backoff(host)
	case statusCode == 0 && err != nil && err.Cause != ErrCauseInvalidRequest:
		j.limiter.Backoff(host)
	case statusCode != 0:
		j.limiter.ResetBackoff(host)
	}
}

func (j *JSONFetcher) recordFetchError(callerMethod string, key resource.Key, fetchUrl url.URL, statusCode int, err *FetchError) {
	attrs := []metadata.Attribute{
		metadata.NewAttr(metadata.AttrKey, key.String()),
		metadata.NewAttr(metadata.AttrURL, fetchUrl.String()),
		metadata.NewAttr(metadata.AttrHost, fetchUrl.Host),
	}
	if statusCode != 0 {
		attrs = append(attrs, metadata.NewAttr(metadata.AttrHTTPStatus, strconv.Itoa(statusCode)))
	}
	j.metadataSink.RecordError(
		time.Now(),
		"fetcher",
		callerMethod,
		mapFetchErrorToMetadataCause(err),
		err.Error(),
		attrs,
	)
}

// performFetch returns a partially filled result alongside errors so the
// status code still reaches the metadata sink.
func (j *JSONFetcher) performFetch(ctx context.Context, key resource.Key, fetchUrl url.URL) (FetchResult, *FetchError) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fetchUrl.String(), nil)
	if err != nil {
		return FetchResult{}, &FetchError{
			Message: fmt.Sprintf("failed to create request: %v", err),
			Cause:   ErrCauseInvalidRequest,
		}
	}
	req.Header.Set("Accept", "application/json")
	if j.userAgent != "" {
		req.Header.Set("User-Agent", j.userAgent)
	}

	resp, err := j.httpClient.Do(req)
	if err != nil {
		if isTimeout(err) {
			return FetchResult{}, &FetchError{
				Message:   fmt.Sprintf("request timed out: %v", err),
				Retryable: true,
				Cause:     ErrCauseTimeout,
			}
		}
		return FetchResult{}, &FetchError{
			Message:   fmt.Sprintf("request failed: %v", err),
			Retryable: true,
			Cause:     ErrCauseNetworkFailure,
		}
	}
	defer resp.Body.Close()

	partial := FetchResult{
		key: key,
		url: fetchUrl,
		meta: ResponseMeta{
			statusCode:  resp.StatusCode,
			contentType: resp.Header.Get("Content-Type"),
		},
	}

	if fetchErr := classifyStatus(resp.StatusCode); fetchErr != nil {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return partial, fetchErr
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		cause := ErrCauseReadResponseBodyError
		if isTimeout(err) {
			cause = ErrCauseTimeout
		}
		return partial, &FetchError{
			Message:   fmt.Sprintf("failed to read response body: %v", err),
			Retryable: true,
			Cause:     cause,
		}
	}

	payload, err := resource.Decode(key, body)
	if err != nil {
		return partial, &FetchError{
			Message: err.Error(),
			Cause:   ErrCauseDecodeFailure,
		}
	}

	partial.body = body
	partial.payload = payload
	partial.meta.fetchedAt = time.Now()
	return partial, nil
}

func classifyStatus(code int) *FetchError {
	switch {
	case code >= 200 && code < 300:
		return nil
	case code >= 500:
		return &FetchError{
			Message:   fmt.Sprintf("server error: %d", code),
			Retryable: true,
			Cause:     ErrCauseRequest5xx,
		}
	case code == http.StatusTooManyRequests:
		return &FetchError{
			Message:   "rate limited (429)",
			Retryable: true,
			Cause:     ErrCauseRequestTooMany,
		}
	case code >= 400:
		return &FetchError{
			Message: fmt.Sprintf("client error: %d", code),
			Cause:   ErrCauseRequest4xx,
		}
	default:
		return &FetchError{
			Message: fmt.Sprintf("unexpected status: %d", code),
			Cause:   ErrCauseUnexpectedStatus,
		}
	}
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
