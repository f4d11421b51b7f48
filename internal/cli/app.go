package cmd

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/paideia-dao/paideia-site/internal/cache"
	"github.com/paideia-dao/paideia-site/internal/config"
	"github.com/paideia-dao/paideia-site/internal/fetcher"
	"github.com/paideia-dao/paideia-site/internal/metadata"
	"github.com/paideia-dao/paideia-site/internal/resource"
	"github.com/paideia-dao/paideia-site/internal/swr"
	"github.com/paideia-dao/paideia-site/pkg/limiter"
)

// One-shot commands give upstreams longer than a page render would.
const commandWait = 30 * time.Second

// app is the wired pipeline shared by every command: logger, metadata
// recorder, fetcher chain and the revalidation cache.
type app struct {
	cfg      config.Config
	logger   *zap.Logger
	metrics  *metadata.Metrics
	recorder *metadata.Recorder
	cache    *swr.Cache
	closers  []func()
}

func newApp(ctx context.Context, cfg config.Config, withMetrics bool) (*app, error) {
	logger, err := metadata.NewLogger(cfg.LogLevel(), cfg.LogFormat())
	if err != nil {
		return nil, err
	}

	a := &app{cfg: cfg, logger: logger}
	if withMetrics {
		a.metrics = metadata.NewMetrics(true)
	}
	a.recorder = metadata.NewRecorder(logger, a.metrics)

	locator := resource.NewLocator(cfg.ContentAPIBase(), cfg.PriceAPIBase())
	hosts := limiter.NewHostLimiter(cfg.RequestInterval(), cfg.Jitter(), cfg.BackoffParam(), cfg.RandomSeed())
	var f fetcher.Fetcher = fetcher.NewJSONFetcher(a.recorder, locator, cfg.UserAgent(), cfg.Timeout()).
		WithRateLimiter(hosts)

	store, err := a.sharedStore(ctx)
	if err != nil {
		a.close()
		return nil, err
	}
	if store != nil {
		f = fetcher.NewCachedFetcher(f, store, cfg.SharedCacheTTL(), a.recorder)
	}

	a.cache = swr.New(f, a.recorder, swr.WithRetry(cfg.RetryParam()))
	a.closers = append(a.closers, a.cache.Close)
	return a, nil
}

func (a *app) sharedStore(ctx context.Context) (cache.Cache, error) {
	switch a.cfg.SharedCache() {
	case config.SharedCacheMemory:
		return cache.NewMemoryCache(), nil
	case config.SharedCacheRedis:
		store, err := cache.NewRedisCache(ctx, a.cfg.RedisAddr(), a.cfg.RedisKeyPrefix())
		if err != nil {
			return nil, fmt.Errorf("connect shared cache: %w", err)
		}
		a.closers = append(a.closers, func() {
			if err := store.Close(); err != nil {
				a.logger.Warn("close shared cache", zap.Error(err))
			}
		})
		return store, nil
	default:
		return nil, nil
	}
}

// close releases everything newApp opened, newest first.
func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
	_ = a.logger.Sync()
}

// load waits for key to settle, at most commandWait, and returns the entry.
func (a *app) load(ctx context.Context, key resource.Key) swr.Entry {
	ctx, cancel := context.WithTimeout(ctx, commandWait)
	defer cancel()
	return a.cache.Load(ctx, key, a.cfg.Policy())
}
