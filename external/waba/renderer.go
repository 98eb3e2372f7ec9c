package waba

import (
	"context"
	"strings"
	"time"

	"github.com/riskibarqy/club-standings/internal/platform/logging"
	"github.com/riskibarqy/club-standings/internal/platform/resilience"
)

// Renderer turns a javascript-rendered page into final HTML. It is chosen
// once from configuration and shared by every scrape.
type Renderer interface {
	Name() string
	// Open acquires a rendering session. Callers must Close it.
	Open(ctx context.Context) (Session, error)
}

// Session owns the rendering resource for one scrape.
type Session interface {
	Render(ctx context.Context, pageURL string) (string, error)
	Close() error
}

type Config struct {
	ProxyBaseURL      string
	ProxyAPIKey       string
	ProxyTimeout      time.Duration
	ProxyMaxRetries   int
	ProxyRetryBackoff time.Duration
	CircuitBreaker    resilience.CircuitBreakerConfig

	BrowserBin         string
	BrowserWaitTimeout time.Duration

	Logger *logging.Logger
}

// NewRenderer returns the rendering proxy when an API key is configured and
// the local headless browser otherwise.
func NewRenderer(cfg Config) Renderer {
	if strings.TrimSpace(cfg.ProxyAPIKey) != "" {
		return NewProxyRenderer(ProxyConfig{
			BaseURL:        cfg.ProxyBaseURL,
			APIKey:         cfg.ProxyAPIKey,
			Timeout:        cfg.ProxyTimeout,
			MaxRetries:     cfg.ProxyMaxRetries,
			RetryBackoff:   cfg.ProxyRetryBackoff,
			CircuitBreaker: cfg.CircuitBreaker,
			Logger:         cfg.Logger,
		})
	}
	return NewBrowserRenderer(BrowserConfig{
		Bin:         cfg.BrowserBin,
		WaitTimeout: cfg.BrowserWaitTimeout,
		Logger:      cfg.Logger,
	})
}
