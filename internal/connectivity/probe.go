package connectivity

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Reconnector is told when connectivity comes back.
type Reconnector interface {
	Reconnect()
}

// Checker reports whether the upstream can be reached.
type Checker interface {
	Check(ctx context.Context) error
}

// HTTPChecker treats any HTTP response from target as reachable; only
// transport failures count as offline.
type HTTPChecker struct {
	target url.URL
	client *http.Client
}

func NewHTTPChecker(target url.URL, timeout time.Duration) *HTTPChecker {
	return &HTTPChecker{
		target: target,
		client: &http.Client{Timeout: timeout},
	}
}

func (h *HTTPChecker) Check(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, h.target.String(), nil)
	if err != nil {
		return fmt.Errorf("build probe request: %w", err)
	}
	resp, err := h.client.Do(req)
	if err != nil {
		return err
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return resp.Body.Close()
}

// Probe tracks online state across checks and fires Reconnect on every
// offline to online transition. The initial state is online.
type Probe struct {
	checker Checker
	target  Reconnector
	logger  *zap.Logger

	mu     sync.Mutex
	online bool
}

func NewProbe(checker Checker, target Reconnector, logger *zap.Logger) *Probe {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Probe{
		checker: checker,
		target:  target,
		logger:  logger,
		online:  true,
	}
}

// Tick runs one check and returns the resulting state.
func (p *Probe) Tick(ctx context.Context) bool {
	err := p.checker.Check(ctx)
	online := err == nil

	p.mu.Lock()
	was := p.online
	p.online = online
	p.mu.Unlock()

	switch {
	case was && !online:
		p.logger.Warn("upstream unreachable", zap.Error(err))
	case !was && online:
		p.logger.Info("upstream reachable again, revalidating")
		p.target.Reconnect()
	}
	return online
}

func (p *Probe) Online() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.online
}
