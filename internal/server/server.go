package server

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/paideia-dao/paideia-site/internal/config"
	"github.com/paideia-dao/paideia-site/internal/metadata"
	"github.com/paideia-dao/paideia-site/internal/resource"
	"github.com/paideia-dao/paideia-site/internal/swr"
	"github.com/paideia-dao/paideia-site/internal/viewmodel"
)

/*
Responsibilities
- Serve the landing and education pages from the revalidation cache
- Expose price and cache diagnostics as JSON
- Forward focus beacons and manual revalidation to the cache

A page never waits longer than the render wait for its resources; whatever
has not settled by then renders as its placeholder.
*/

const shutdownTimeout = 5 * time.Second

type Server struct {
	cache    *swr.Cache
	policy   swr.Policy
	articles viewmodel.ArticleBuilder
	logger   *zap.Logger
	metrics  *metadata.Metrics

	listenAddr      string
	renderWait      time.Duration
	priceKey        resource.Key
	articleListKey  resource.Key
	faqListKey      resource.Key

	// Long-lived subscriptions opened on a key's first page load so that
	// focus and reconnect revalidation have a subscriber to act for.
	watchMu sync.Mutex
	watches map[resource.Key]*swr.Subscription
}

// New wires a server over cache. logger and metrics may be nil.
func New(cfg config.Config, cache *swr.Cache, logger *zap.Logger, metrics *metadata.Metrics) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		cache:  cache,
		policy: cfg.Policy(),
		articles: viewmodel.NewArticleBuilder(
			cfg.LinkNamespace(),
			cfg.PlaceholderPoolSize(),
			cfg.PlaceholderPattern(),
		),
		logger:         logger,
		metrics:        metrics,
		listenAddr:     cfg.ListenAddr(),
		renderWait:     cfg.RenderWait(),
		priceKey:       resource.AssetPrice(cfg.AssetSymbol()),
		articleListKey: resource.ArticleList(cfg.ArticleCategory()),
		faqListKey:     resource.FAQList(),
		watches:        make(map[resource.Key]*swr.Subscription),
	}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleLanding)
	mux.HandleFunc("GET /education", s.handleEducation)
	mux.HandleFunc("GET /api/price", s.handlePrice)
	mux.HandleFunc("GET /api/resources", s.handleResourceList)
	mux.HandleFunc("GET /api/resources/{key}", s.handleResource)
	mux.HandleFunc("POST /api/resources/{key}/revalidate", s.handleRevalidate)
	mux.HandleFunc("POST /api/focus", s.handleFocus)
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok"))
	})
	if s.metrics != nil {
		mux.Handle("GET /metrics", s.metrics.Handler())
	}
	return withRequestID(withAccessLog(s.logger, withRecovery(s.logger, mux)))
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	httpServer := &http.Server{
		Addr:              s.listenAddr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.logger.Info("listening", zap.String("addr", s.listenAddr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// Close drops the watch subscriptions. The cache itself is owned by the
// caller.
func (s *Server) Close() {
	s.watchMu.Lock()
	defer s.watchMu.Unlock()
	for key, sub := range s.watches {
		sub.Close()
		delete(s.watches, key)
	}
}

func (s *Server) watch(key resource.Key) {
	s.watchMu.Lock()
	defer s.watchMu.Unlock()
	if _, ok := s.watches[key]; ok {
		return
	}
	s.watches[key] = s.cache.Subscribe(key, s.policy)
}

// loadAll loads every key concurrently and returns once all of them settled
// or the render wait ran out.
func (s *Server) loadAll(ctx context.Context, keys ...resource.Key) map[resource.Key]swr.Entry {
	if s.renderWait > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.renderWait)
		defer cancel()
	}

	entries := make([]swr.Entry, len(keys))
	var g errgroup.Group
	for i, key := range keys {
		s.watch(key)
		g.Go(func() error {
			entries[i] = s.cache.Load(ctx, key, s.policy)
			return nil
		})
	}
	_ = g.Wait()

	out := make(map[resource.Key]swr.Entry, len(keys))
	for i, key := range keys {
		out[key] = entries[i]
	}
	return out
}
