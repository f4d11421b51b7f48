package server_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/paideia-dao/paideia-site/internal/config"
	"github.com/paideia-dao/paideia-site/internal/fetcher"
	"github.com/paideia-dao/paideia-site/internal/metadata"
	"github.com/paideia-dao/paideia-site/internal/resource"
	"github.com/paideia-dao/paideia-site/internal/server"
	"github.com/paideia-dao/paideia-site/internal/swr"
	"github.com/paideia-dao/paideia-site/pkg/urlutil"
)

// upstream fakes both the content and the price API.
type upstream struct {
	price    http.HandlerFunc
	articles http.HandlerFunc
	faq      http.HandlerFunc

	priceHits int32
}

func jsonBody(body string) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, body)
	}
}

func (u *upstream) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/asset/price/paideia", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&u.priceHits, 1)
		u.price(w, r)
	})
	mux.HandleFunc("/blogs/", func(w http.ResponseWriter, r *http.Request) {
		u.articles(w, r)
	})
	mux.HandleFunc("/faq/", func(w http.ResponseWriter, r *http.Request) {
		u.faq(w, r)
	})
	return mux
}

func newUpstream() *upstream {
	return &upstream{
		price:    jsonBody(`{"price": 0.05}`),
		articles: jsonBody(`[]`),
		faq:      jsonBody(`[]`),
	}
}

type testEnv struct {
	upstream *upstream
	server   *server.Server
	cache    *swr.Cache
	handler  http.Handler
	metrics  *metadata.Metrics
}

func newTestEnv(t *testing.T, up *upstream, configure func(*config.Config)) *testEnv {
	t.Helper()

	upstreamSrv := httptest.NewServer(up.handler())
	t.Cleanup(upstreamSrv.Close)

	base, err := urlutil.ParseBase(upstreamSrv.URL)
	require.NoError(t, err)

	builder := config.WithDefault().
		WithContentAPIBase(base).
		WithPriceAPIBase(base).
		WithRenderWait(2 * time.Second)
	if configure != nil {
		configure(builder)
	}
	cfg, err := builder.Build()
	require.NoError(t, err)

	metrics := metadata.NewMetrics(false)
	sink := metadata.NewRecorder(zap.NewNop(), metrics)
	f := fetcher.NewJSONFetcher(sink, resource.NewLocator(cfg.ContentAPIBase(), cfg.PriceAPIBase()), cfg.UserAgent(), cfg.Timeout())
	cache := swr.New(f, sink)
	srv := server.New(cfg, cache, zap.NewNop(), metrics)
	t.Cleanup(func() {
		srv.Close()
		cache.Close()
	})

	return &testEnv{
		upstream: up,
		server:   srv,
		cache:    cache,
		handler:  srv.Handler(),
		metrics:  metrics,
	}
}

// do serves one request. Like a browser, it never sends the fragment of
// target.
func (e *testEnv) do(t *testing.T, method, target string, header http.Header) *httptest.ResponseRecorder {
	t.Helper()
	u, err := url.Parse(target)
	require.NoError(t, err)
	u.Fragment = ""
	u.RawFragment = ""
	req := httptest.NewRequest(method, u.RequestURI(), nil)
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) get(t *testing.T, target string) *httptest.ResponseRecorder {
	t.Helper()
	return e.do(t, http.MethodGet, target, nil)
}

func document(t *testing.T, rec *httptest.ResponseRecorder) *goquery.Document {
	t.Helper()
	require.Equal(t, http.StatusOK, rec.Code)
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rec.Body.String()))
	require.NoError(t, err)
	return doc
}
