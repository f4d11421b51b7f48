package config

import (
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
	"github.com/paideia-dao/paideia-site/internal/swr"
	"github.com/paideia-dao/paideia-site/pkg/retry"
	"github.com/paideia-dao/paideia-site/pkg/timeutil"
	"github.com/paideia-dao/paideia-site/pkg/urlutil"
	"gopkg.in/yaml.v3"
)

// Shared cache backends.
const (
	SharedCacheNone   = "none"
	SharedCacheMemory = "memory"
	SharedCacheRedis  = "redis"
)

type Config struct {
	//===============
	//  Serving
	//===============
	// Address the HTTP server listens on
	listenAddr string
	// How long a page waits for its resources before rendering placeholders
	renderWait time.Duration

	//===============
	//  Upstream
	//===============
	contentAPIBase url.URL
	priceAPIBase   url.URL
	// Asset whose price the ticker shows
	assetSymbol string
	// Category filter for the education article list
	articleCategory string
	userAgent       string
	// Per-request timeout. Zero means no timeout.
	timeout time.Duration
	// Minimum gap between requests to the same upstream host. Zero disables spacing.
	requestInterval time.Duration

	//===============
	//  Retry
	//===============
	// maximum attempt per fetch; 1 disables retry
	maxAttempt             int
	jitter                 time.Duration
	randomSeed             int64
	backoffInitialDuration time.Duration
	backoffMultiplier      float64
	backoffMaxDuration     time.Duration

	//===============
	//  Revalidation
	//===============
	revalidateOnMount     bool
	revalidateIfStale     bool
	revalidateOnFocus     bool
	revalidateOnReconnect bool
	staleIfError          bool
	// Age after which a fresh entry turns stale. Zero means never.
	maxAge time.Duration

	//===============
	//  Article cards
	//===============
	// Path prefix applied to relative article links
	linkNamespace string
	// Number of placeholder images to pick from
	placeholderPoolSize int
	// fmt pattern receiving the 1-based placeholder index
	placeholderPattern string

	//===============
	//  Shared body cache
	//===============
	sharedCache    string
	redisAddr      string
	redisKeyPrefix string
	sharedCacheTTL time.Duration

	//===============
	//  Misc
	//===============
	// Cron expression for the connectivity probe. Empty disables it.
	probeSchedule string
	// Static export destination
	outputDir string
	logLevel  string
	logFormat string
}

type configDTO struct {
	ListenAddr             string        `yaml:"listenAddr,omitempty"`
	RenderWait             time.Duration `yaml:"renderWait,omitempty" validate:"gte=0"`
	ContentAPIBase         string        `yaml:"contentApiBase,omitempty" validate:"omitempty,http_url"`
	PriceAPIBase           string        `yaml:"priceApiBase,omitempty" validate:"omitempty,http_url"`
	AssetSymbol            string        `yaml:"assetSymbol,omitempty"`
	ArticleCategory        string        `yaml:"articleCategory,omitempty"`
	UserAgent              string        `yaml:"userAgent,omitempty"`
	Timeout                time.Duration `yaml:"timeout,omitempty" validate:"gte=0"`
	RequestInterval        time.Duration `yaml:"requestInterval,omitempty" validate:"gte=0"`
	MaxAttempt             int           `yaml:"maxAttempt,omitempty" validate:"gte=0"`
	Jitter                 time.Duration `yaml:"jitter,omitempty" validate:"gte=0"`
	RandomSeed             int64         `yaml:"randomSeed,omitempty"`
	BackoffInitialDuration time.Duration `yaml:"backoffInitialDuration,omitempty" validate:"gte=0"`
	BackoffMultiplier      float64       `yaml:"backoffMultiplier,omitempty" validate:"omitempty,gte=1"`
	BackoffMaxDuration     time.Duration `yaml:"backoffMaxDuration,omitempty" validate:"gte=0"`
	// Pointers tell "absent" apart from an explicit false.
	RevalidateOnMount     *bool         `yaml:"revalidateOnMount,omitempty"`
	RevalidateIfStale     *bool         `yaml:"revalidateIfStale,omitempty"`
	RevalidateOnFocus     *bool         `yaml:"revalidateOnFocus,omitempty"`
	RevalidateOnReconnect *bool         `yaml:"revalidateOnReconnect,omitempty"`
	StaleIfError          *bool         `yaml:"staleIfError,omitempty"`
	MaxAge                time.Duration `yaml:"maxAge,omitempty" validate:"gte=0"`
	LinkNamespace         string        `yaml:"linkNamespace,omitempty"`
	PlaceholderPoolSize   int           `yaml:"placeholderPoolSize,omitempty" validate:"gte=0"`
	PlaceholderPattern    string        `yaml:"placeholderPattern,omitempty" validate:"omitempty,contains=%d"`
	SharedCache           string        `yaml:"sharedCache,omitempty" validate:"omitempty,oneof=none memory redis"`
	RedisAddr             string        `yaml:"redisAddr,omitempty" validate:"omitempty,hostname_port"`
	RedisKeyPrefix        string        `yaml:"redisKeyPrefix,omitempty"`
	SharedCacheTTL        time.Duration `yaml:"sharedCacheTtl,omitempty" validate:"gte=0"`
	ProbeSchedule         string        `yaml:"probeSchedule,omitempty"`
	OutputDir             string        `yaml:"outputDir,omitempty"`
	LogLevel              string        `yaml:"logLevel,omitempty" validate:"omitempty,oneof=debug info warn error"`
	LogFormat             string        `yaml:"logFormat,omitempty" validate:"omitempty,oneof=console json"`
}

// envOverrides are the only settings read from the environment.
type envOverrides struct {
	ContentAPIBase string `env:"CONTENT_API_BASE"`
	PriceAPIBase   string `env:"PRICE_API_BASE"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

func newConfigFromDTO(dto configDTO) (Config, error) {
	cfg := WithDefault()

	if dto.ListenAddr != "" {
		cfg.listenAddr = dto.ListenAddr
	}
	if dto.RenderWait != 0 {
		cfg.renderWait = dto.RenderWait
	}
	if dto.ContentAPIBase != "" {
		base, err := parseBase(dto.ContentAPIBase)
		if err != nil {
			return Config{}, err
		}
		cfg.contentAPIBase = base
	}
	if dto.PriceAPIBase != "" {
		base, err := parseBase(dto.PriceAPIBase)
		if err != nil {
			return Config{}, err
		}
		cfg.priceAPIBase = base
	}
	if dto.AssetSymbol != "" {
		cfg.assetSymbol = dto.AssetSymbol
	}
	if dto.ArticleCategory != "" {
		cfg.articleCategory = dto.ArticleCategory
	}
	if dto.UserAgent != "" {
		cfg.userAgent = dto.UserAgent
	}
	if dto.Timeout != 0 {
		cfg.timeout = dto.Timeout
	}
	if dto.RequestInterval != 0 {
		cfg.requestInterval = dto.RequestInterval
	}

	if dto.MaxAttempt != 0 {
		cfg.maxAttempt = dto.MaxAttempt
	}
	if dto.Jitter != 0 {
		cfg.jitter = dto.Jitter
	}
	if dto.RandomSeed != 0 {
		cfg.randomSeed = dto.RandomSeed
	}
	if dto.BackoffInitialDuration != 0 {
		cfg.backoffInitialDuration = dto.BackoffInitialDuration
	}
	if dto.BackoffMultiplier != 0 {
		cfg.backoffMultiplier = dto.BackoffMultiplier
	}
	if dto.BackoffMaxDuration != 0 {
		cfg.backoffMaxDuration = dto.BackoffMaxDuration
	}

	if dto.RevalidateOnMount != nil {
		cfg.revalidateOnMount = *dto.RevalidateOnMount
	}
	if dto.RevalidateIfStale != nil {
		cfg.revalidateIfStale = *dto.RevalidateIfStale
	}
	if dto.RevalidateOnFocus != nil {
		cfg.revalidateOnFocus = *dto.RevalidateOnFocus
	}
	if dto.RevalidateOnReconnect != nil {
		cfg.revalidateOnReconnect = *dto.RevalidateOnReconnect
	}
	if dto.StaleIfError != nil {
		cfg.staleIfError = *dto.StaleIfError
	}
	if dto.MaxAge != 0 {
		cfg.maxAge = dto.MaxAge
	}

	if dto.LinkNamespace != "" {
		cfg.linkNamespace = dto.LinkNamespace
	}
	if dto.PlaceholderPoolSize != 0 {
		cfg.placeholderPoolSize = dto.PlaceholderPoolSize
	}
	if dto.PlaceholderPattern != "" {
		cfg.placeholderPattern = dto.PlaceholderPattern
	}

	if dto.SharedCache != "" {
		cfg.sharedCache = dto.SharedCache
	}
	if dto.RedisAddr != "" {
		cfg.redisAddr = dto.RedisAddr
	}
	if dto.RedisKeyPrefix != "" {
		cfg.redisKeyPrefix = dto.RedisKeyPrefix
	}
	if dto.SharedCacheTTL != 0 {
		cfg.sharedCacheTTL = dto.SharedCacheTTL
	}

	cfg.probeSchedule = dto.ProbeSchedule
	if dto.OutputDir != "" {
		cfg.outputDir = dto.OutputDir
	}
	if dto.LogLevel != "" {
		cfg.logLevel = dto.LogLevel
	}
	if dto.LogFormat != "" {
		cfg.logFormat = dto.LogFormat
	}

	return cfg.Build()
}

// WithConfigFile loads the YAML file at path on top of the defaults and then
// applies the environment overrides.
func WithConfigFile(path string) (Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return Config{}, fmt.Errorf("%w: %s", ErrFileDoesNotExist, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("%w: %s", ErrReadConfigFail, err.Error())
	}

	var dto configDTO
	if err := yaml.Unmarshal(data, &dto); err != nil {
		return Config{}, fmt.Errorf("%w: %s", ErrConfigParsingFail, err.Error())
	}

	if err := validate.Struct(dto); err != nil {
		return Config{}, fmt.Errorf("%w: %s", ErrInvalidConfig, err.Error())
	}

	cfg, err := newConfigFromDTO(dto)
	if err != nil {
		return Config{}, err
	}
	return cfg.withEnv()
}

// Load returns the file configuration when path is set and the defaults
// otherwise, both with environment overrides applied.
func Load(path string) (Config, error) {
	if path != "" {
		return WithConfigFile(path)
	}
	cfg, err := WithDefault().Build()
	if err != nil {
		return Config{}, err
	}
	return cfg.withEnv()
}

func (c Config) withEnv() (Config, error) {
	var overrides envOverrides
	if err := env.Parse(&overrides); err != nil {
		return Config{}, fmt.Errorf("%w: %s", ErrInvalidConfig, err.Error())
	}
	if overrides.ContentAPIBase != "" {
		base, err := parseBase(overrides.ContentAPIBase)
		if err != nil {
			return Config{}, err
		}
		c.contentAPIBase = base
	}
	if overrides.PriceAPIBase != "" {
		base, err := parseBase(overrides.PriceAPIBase)
		if err != nil {
			return Config{}, err
		}
		c.priceAPIBase = base
	}
	return c, nil
}

func parseBase(raw string) (url.URL, error) {
	u, err := urlutil.ParseBase(raw)
	if err != nil {
		return url.URL{}, fmt.Errorf("%w: %s", ErrInvalidConfig, err.Error())
	}
	return u, nil
}

func WithDefault() *Config {
	content, _ := urlutil.ParseBase("https://api.paideia.im")
	price, _ := urlutil.ParseBase("https://api.ergopad.io")
	return &Config{
		listenAddr:             ":8080",
		renderWait:             1500 * time.Millisecond,
		contentAPIBase:         content,
		priceAPIBase:           price,
		assetSymbol:            "paideia",
		articleCategory:        "education",
		userAgent:              "paideia-site/1.0",
		timeout:                0,
		maxAttempt:             1,
		jitter:                 100 * time.Millisecond,
		randomSeed:             time.Now().UnixNano(),
		backoffInitialDuration: 200 * time.Millisecond,
		backoffMultiplier:      2.0,
		backoffMaxDuration:     5 * time.Second,
		staleIfError:           true,
		linkNamespace:          "/blog/",
		placeholderPoolSize:    18,
		placeholderPattern:     "/images/placeholder/%d.jpg",
		sharedCache:            SharedCacheNone,
		redisKeyPrefix:         "paideia-site",
		sharedCacheTTL:         5 * time.Minute,
		outputDir:              "dist",
		logLevel:               "info",
		logFormat:              "console",
	}
}

func (c *Config) WithListenAddr(addr string) *Config {
	c.listenAddr = addr
	return c
}

func (c *Config) WithRenderWait(wait time.Duration) *Config {
	c.renderWait = wait
	return c
}

func (c *Config) WithContentAPIBase(base url.URL) *Config {
	c.contentAPIBase = base
	return c
}

func (c *Config) WithPriceAPIBase(base url.URL) *Config {
	c.priceAPIBase = base
	return c
}

func (c *Config) WithAssetSymbol(symbol string) *Config {
	c.assetSymbol = symbol
	return c
}

func (c *Config) WithArticleCategory(category string) *Config {
	c.articleCategory = category
	return c
}

func (c *Config) WithUserAgent(agent string) *Config {
	c.userAgent = agent
	return c
}

func (c *Config) WithTimeout(timeout time.Duration) *Config {
	c.timeout = timeout
	return c
}

func (c *Config) WithRequestInterval(interval time.Duration) *Config {
	c.requestInterval = interval
	return c
}

func (c *Config) WithMaxAttempt(attempts int) *Config {
	c.maxAttempt = attempts
	return c
}

func (c *Config) WithJitter(jitter time.Duration) *Config {
	c.jitter = jitter
	return c
}

func (c *Config) WithRandomSeed(seed int64) *Config {
	c.randomSeed = seed
	return c
}

func (c *Config) WithBackoff(initial time.Duration, multiplier float64, max time.Duration) *Config {
	c.backoffInitialDuration = initial
	c.backoffMultiplier = multiplier
	c.backoffMaxDuration = max
	return c
}

func (c *Config) WithPolicy(p swr.Policy) *Config {
	c.revalidateOnMount = p.RevalidateOnMount
	c.revalidateIfStale = p.RevalidateIfStale
	c.revalidateOnFocus = p.RevalidateOnFocus
	c.revalidateOnReconnect = p.RevalidateOnReconnect
	c.staleIfError = p.StaleIfError
	c.maxAge = p.MaxAge
	return c
}

func (c *Config) WithLinkNamespace(ns string) *Config {
	c.linkNamespace = ns
	return c
}

func (c *Config) WithPlaceholders(poolSize int, pattern string) *Config {
	c.placeholderPoolSize = poolSize
	c.placeholderPattern = pattern
	return c
}

func (c *Config) WithSharedCache(kind string) *Config {
	c.sharedCache = kind
	return c
}

func (c *Config) WithRedis(addr, keyPrefix string) *Config {
	c.redisAddr = addr
	c.redisKeyPrefix = keyPrefix
	return c
}

func (c *Config) WithSharedCacheTTL(ttl time.Duration) *Config {
	c.sharedCacheTTL = ttl
	return c
}

func (c *Config) WithProbeSchedule(spec string) *Config {
	c.probeSchedule = spec
	return c
}

func (c *Config) WithOutputDir(outputDir string) *Config {
	c.outputDir = outputDir
	return c
}

func (c *Config) WithLogging(level, format string) *Config {
	c.logLevel = level
	c.logFormat = format
	return c
}

func (c *Config) Build() (Config, error) {
	if c.listenAddr == "" {
		return Config{}, fmt.Errorf("%w: listenAddr cannot be empty", ErrInvalidConfig)
	}
	if !urlutil.IsAbsoluteHTTP(c.contentAPIBase.String()) || !urlutil.IsAbsoluteHTTP(c.priceAPIBase.String()) {
		return Config{}, fmt.Errorf("%w: API bases must be absolute http(s) URLs", ErrInvalidConfig)
	}
	if strings.TrimSpace(c.assetSymbol) == "" {
		return Config{}, fmt.Errorf("%w: assetSymbol cannot be empty", ErrInvalidConfig)
	}
	if c.maxAttempt < 1 {
		return Config{}, fmt.Errorf("%w: maxAttempt must be at least 1", ErrInvalidConfig)
	}
	if c.placeholderPoolSize < 1 {
		return Config{}, fmt.Errorf("%w: placeholderPoolSize must be at least 1", ErrInvalidConfig)
	}
	if !strings.Contains(c.placeholderPattern, "%d") {
		return Config{}, fmt.Errorf("%w: placeholderPattern must contain %%d", ErrInvalidConfig)
	}
	switch c.sharedCache {
	case SharedCacheNone, SharedCacheMemory:
	case SharedCacheRedis:
		if c.redisAddr == "" {
			return Config{}, fmt.Errorf("%w: redisAddr is required for the redis shared cache", ErrInvalidConfig)
		}
	default:
		return Config{}, fmt.Errorf("%w: unknown sharedCache %q", ErrInvalidConfig, c.sharedCache)
	}
	return *c, nil
}

func (c Config) ListenAddr() string {
	return c.listenAddr
}

func (c Config) RenderWait() time.Duration {
	return c.renderWait
}

func (c Config) ContentAPIBase() url.URL {
	return c.contentAPIBase
}

func (c Config) PriceAPIBase() url.URL {
	return c.priceAPIBase
}

func (c Config) AssetSymbol() string {
	return c.assetSymbol
}

func (c Config) ArticleCategory() string {
	return c.articleCategory
}

func (c Config) UserAgent() string {
	return c.userAgent
}

func (c Config) Timeout() time.Duration {
	return c.timeout
}

func (c Config) RequestInterval() time.Duration {
	return c.requestInterval
}

func (c Config) MaxAttempt() int {
	return c.maxAttempt
}

func (c Config) Jitter() time.Duration {
	return c.jitter
}

func (c Config) RandomSeed() int64 {
	return c.randomSeed
}

func (c Config) BackoffParam() timeutil.BackoffParam {
	return timeutil.NewBackoffParam(c.backoffInitialDuration, c.backoffMultiplier, c.backoffMaxDuration)
}

// RetryParam assembles the retry settings for the revalidation layer.
func (c Config) RetryParam() retry.RetryParam {
	return retry.NewRetryParam(
		c.jitter,
		c.randomSeed,
		c.maxAttempt,
		c.BackoffParam(),
	)
}

func (c Config) Policy() swr.Policy {
	return swr.Policy{
		RevalidateOnMount:     c.revalidateOnMount,
		RevalidateIfStale:     c.revalidateIfStale,
		RevalidateOnFocus:     c.revalidateOnFocus,
		RevalidateOnReconnect: c.revalidateOnReconnect,
		StaleIfError:          c.staleIfError,
		MaxAge:                c.maxAge,
	}
}

func (c Config) LinkNamespace() string {
	return c.linkNamespace
}

func (c Config) PlaceholderPoolSize() int {
	return c.placeholderPoolSize
}

func (c Config) PlaceholderPattern() string {
	return c.placeholderPattern
}

func (c Config) SharedCache() string {
	return c.sharedCache
}

func (c Config) RedisAddr() string {
	return c.redisAddr
}

func (c Config) RedisKeyPrefix() string {
	return c.redisKeyPrefix
}

func (c Config) SharedCacheTTL() time.Duration {
	return c.sharedCacheTTL
}

func (c Config) ProbeSchedule() string {
	return c.probeSchedule
}

func (c Config) OutputDir() string {
	return c.outputDir
}

func (c Config) LogLevel() string {
	return c.logLevel
}

func (c Config) LogFormat() string {
	return c.logFormat
}
