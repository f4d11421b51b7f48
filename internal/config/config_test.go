package config_test

import (
	"net/url"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/paideia-dao/paideia-site/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestWithDefault(t *testing.T) {
	cfg, err := config.WithDefault().Build()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.ListenAddr())
	assert.Equal(t, "https://api.paideia.im/", urlString(cfg.ContentAPIBase()))
	assert.Equal(t, "https://api.ergopad.io/", urlString(cfg.PriceAPIBase()))
	assert.Equal(t, "paideia", cfg.AssetSymbol())
	assert.Equal(t, "education", cfg.ArticleCategory())
	assert.Equal(t, time.Duration(0), cfg.Timeout())
	assert.Zero(t, cfg.RequestInterval())
	assert.Equal(t, 1500*time.Millisecond, cfg.RenderWait())
	assert.Equal(t, 1, cfg.MaxAttempt())
	assert.Equal(t, config.SharedCacheNone, cfg.SharedCache())
	assert.Equal(t, 18, cfg.PlaceholderPoolSize())
	assert.Empty(t, cfg.ProbeSchedule())

	policy := cfg.Policy()
	assert.True(t, policy.StaleIfError)
	assert.False(t, policy.RevalidateOnMount)
	assert.False(t, policy.RevalidateOnFocus)
	assert.False(t, policy.RevalidateOnReconnect)
	assert.Zero(t, policy.MaxAge)

	rp := cfg.RetryParam()
	assert.Equal(t, 1, rp.MaxAttempts)
	assert.Equal(t, 200*time.Millisecond, rp.BackoffParam.InitialDuration())
}

func TestBuild_Invalid(t *testing.T) {
	tests := []struct {
		name string
		cfg  *config.Config
	}{
		{"empty listen address", config.WithDefault().WithListenAddr("")},
		{"zero attempts", config.WithDefault().WithMaxAttempt(0)},
		{"empty pool", config.WithDefault().WithPlaceholders(0, "/p/%d.png")},
		{"pattern without index", config.WithDefault().WithPlaceholders(4, "/p.png")},
		{"redis without address", config.WithDefault().WithSharedCache(config.SharedCacheRedis)},
		{"unknown shared cache", config.WithDefault().WithSharedCache("disk")},
		{"blank symbol", config.WithDefault().WithAssetSymbol("  ")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.cfg.Build()
			assert.ErrorIs(t, err, config.ErrInvalidConfig)
		})
	}
}

func TestWithConfigFile_OverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
listenAddr: ":9090"
contentApiBase: "http://content.local/v1/"
priceApiBase: "http://price.local"
assetSymbol: ERG
renderWait: 250ms
timeout: 3s
requestInterval: 200ms
maxAttempt: 3
revalidateOnFocus: true
staleIfError: false
maxAge: 1m
placeholderPoolSize: 4
placeholderPattern: "/img/%d.png"
sharedCache: redis
redisAddr: "localhost:6379"
probeSchedule: "@every 30s"
logFormat: json
`)

	cfg, err := config.WithConfigFile(path)
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.ListenAddr())
	assert.Equal(t, "http://content.local/v1", urlString(cfg.ContentAPIBase()))
	assert.Equal(t, "http://price.local/", urlString(cfg.PriceAPIBase()))
	assert.Equal(t, "ERG", cfg.AssetSymbol())
	assert.Equal(t, 250*time.Millisecond, cfg.RenderWait())
	assert.Equal(t, 3*time.Second, cfg.Timeout())
	assert.Equal(t, 200*time.Millisecond, cfg.RequestInterval())
	assert.Equal(t, 3, cfg.MaxAttempt())
	assert.Equal(t, 4, cfg.PlaceholderPoolSize())
	assert.Equal(t, "/img/%d.png", cfg.PlaceholderPattern())
	assert.Equal(t, config.SharedCacheRedis, cfg.SharedCache())
	assert.Equal(t, "localhost:6379", cfg.RedisAddr())
	assert.Equal(t, "@every 30s", cfg.ProbeSchedule())
	assert.Equal(t, "json", cfg.LogFormat())

	policy := cfg.Policy()
	assert.True(t, policy.RevalidateOnFocus)
	assert.False(t, policy.StaleIfError)
	assert.Equal(t, time.Minute, policy.MaxAge)

	// untouched keys keep their defaults
	assert.Equal(t, "education", cfg.ArticleCategory())
	assert.Equal(t, "/blog/", cfg.LinkNamespace())
}

func TestWithConfigFile_Errors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, err := config.WithConfigFile(filepath.Join(t.TempDir(), "nope.yaml"))
		assert.ErrorIs(t, err, config.ErrFileDoesNotExist)
	})

	t.Run("malformed yaml", func(t *testing.T) {
		path := writeConfig(t, "listenAddr: [unterminated")
		_, err := config.WithConfigFile(path)
		assert.ErrorIs(t, err, config.ErrConfigParsingFail)
	})

	t.Run("unknown shared cache", func(t *testing.T) {
		path := writeConfig(t, "sharedCache: disk\n")
		_, err := config.WithConfigFile(path)
		assert.ErrorIs(t, err, config.ErrInvalidConfig)
	})

	t.Run("non-http base", func(t *testing.T) {
		path := writeConfig(t, "priceApiBase: \"ftp://price.local\"\n")
		_, err := config.WithConfigFile(path)
		assert.ErrorIs(t, err, config.ErrInvalidConfig)
	})

	t.Run("pattern without index", func(t *testing.T) {
		path := writeConfig(t, "placeholderPattern: \"/img/fixed.png\"\n")
		_, err := config.WithConfigFile(path)
		assert.ErrorIs(t, err, config.ErrInvalidConfig)
	})
}

func TestLoad_EnvironmentOverridesBases(t *testing.T) {
	t.Setenv("CONTENT_API_BASE", "http://127.0.0.1:8001")
	t.Setenv("PRICE_API_BASE", "http://127.0.0.1:8002/")

	cfg, err := config.Load("")
	require.NoError(t, err)
	assert.Equal(t, "http://127.0.0.1:8001/", urlString(cfg.ContentAPIBase()))
	assert.Equal(t, "http://127.0.0.1:8002/", urlString(cfg.PriceAPIBase()))

	path := writeConfig(t, "contentApiBase: \"http://from-file.local\"\n")
	cfg, err = config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "http://127.0.0.1:8001/", urlString(cfg.ContentAPIBase()))
}

func TestLoad_InvalidEnvironmentBase(t *testing.T) {
	t.Setenv("PRICE_API_BASE", "not a url")

	_, err := config.Load("")
	assert.ErrorIs(t, err, config.ErrInvalidConfig)
}

// urlString formats a url.URL returned by value.
func urlString(u url.URL) string {
	return u.String()
}
