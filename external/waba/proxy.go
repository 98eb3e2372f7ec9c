package waba

import (
	"context"
	stderrors "errors"
	"fmt"
	"net"
	"net/http"
	"regexp"
	"strings"
	"time"

	crerr "github.com/cockroachdb/errors"
	"github.com/go-resty/resty/v2"
	"github.com/riskibarqy/club-standings/internal/platform/logging"
	"github.com/riskibarqy/club-standings/internal/platform/resilience"
	"github.com/riskibarqy/club-standings/internal/platform/telemetry"
	"github.com/riskibarqy/club-standings/internal/usecase"
)

const (
	defaultProxyBaseURL = "https://api.scraperapi.com/"
	defaultProxyTimeout = 50 * time.Second
	maxProxyBodyPreview = 240
)

var apiKeyParamRegex = regexp.MustCompile(`api_key=[^&\s"']+`)
var errRenderProxyTransient = crerr.New("render proxy transient failure")

type ProxyConfig struct {
	BaseURL        string
	APIKey         string
	Timeout        time.Duration
	MaxRetries     int
	RetryBackoff   time.Duration
	CircuitBreaker resilience.CircuitBreakerConfig
	Logger         *logging.Logger
}

// ProxyRenderer delegates rendering to a third-party service that returns
// the page HTML after its scripts have run.
type ProxyRenderer struct {
	client       *resty.Client
	baseURL      string
	apiKey       string
	maxRetries   int
	retryBackoff time.Duration
	breaker      *resilience.CircuitBreaker
	logger       *logging.Logger
}

func NewProxyRenderer(cfg ProxyConfig) *ProxyRenderer {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultProxyTimeout
	}
	baseURL := strings.TrimSpace(cfg.BaseURL)
	if baseURL == "" {
		baseURL = defaultProxyBaseURL
	}
	backoff := cfg.RetryBackoff
	if backoff <= 0 {
		backoff = time.Second
	}

	client := resty.New().
		SetTimeout(timeout).
		SetHeader("Accept", "text/html")
	telemetry.InstrumentResty(client, "club-standings/external/waba", "waba.render_proxy")

	breaker := resilience.NewNamedCircuitBreaker("render-proxy", cfg.CircuitBreaker)
	breaker.OnStateChange(func(name string, from, to resilience.CircuitState) {
		logger.Warn("circuit breaker state changed", "breaker", name, "from", string(from), "to", string(to))
	})

	return &ProxyRenderer{
		client:       client,
		baseURL:      baseURL,
		apiKey:       strings.TrimSpace(cfg.APIKey),
		maxRetries:   max(cfg.MaxRetries, 0),
		retryBackoff: backoff,
		breaker:      breaker,
		logger:       logger,
	}
}

func (r *ProxyRenderer) Name() string { return "render-proxy" }

// Open holds no resource; the proxy session is a thin handle.
func (r *ProxyRenderer) Open(context.Context) (Session, error) {
	return proxySession{renderer: r}, nil
}

type proxySession struct {
	renderer *ProxyRenderer
}

func (s proxySession) Render(ctx context.Context, pageURL string) (string, error) {
	return s.renderer.render(ctx, pageURL)
}

func (proxySession) Close() error { return nil }

func (r *ProxyRenderer) render(ctx context.Context, pageURL string) (string, error) {
	var html string
	err := r.breaker.Execute(ctx, isTransientProxyError, func(ctx context.Context) error {
		body, err := r.fetchWithRetry(ctx, pageURL)
		html = body
		return err
	})
	switch {
	case err == nil:
		return html, nil
	case stderrors.Is(err, resilience.ErrCircuitOpen):
		return "", fmt.Errorf("%w: %v", usecase.ErrRendererCircuitOpen, err)
	default:
		return "", err
	}
}

func (r *ProxyRenderer) fetchWithRetry(ctx context.Context, pageURL string) (string, error) {
	params := map[string]string{
		"api_key":           r.apiKey,
		"url":               pageURL,
		"render":            "true",
		"wait_for_selector": "table",
	}

	var lastErr error
	for attempt := 0; attempt <= r.maxRetries; attempt++ {
		resp, err := r.client.R().
			SetContext(ctx).
			SetQueryParams(params).
			Get(r.baseURL)
		switch {
		case err != nil:
			if isTimeout(ctx, err) {
				return "", fmt.Errorf("%w: render proxy: %s", usecase.ErrTimeout, r.sanitize(err.Error()))
			}
			lastErr = fmt.Errorf("%w: send request: %s", errRenderProxyTransient, r.sanitize(err.Error()))
		case resp.StatusCode() >= 200 && resp.StatusCode() < 300:
			return resp.String(), nil
		case isRetryableStatus(resp.StatusCode()):
			lastErr = fmt.Errorf("%w: render proxy status=%d body=%s", errRenderProxyTransient, resp.StatusCode(), r.preview(resp.Body()))
		default:
			return "", fmt.Errorf("render proxy status=%d body=%s", resp.StatusCode(), r.preview(resp.Body()))
		}

		if attempt == r.maxRetries {
			break
		}
		timer := time.NewTimer(time.Duration(attempt+1) * r.retryBackoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return "", fmt.Errorf("%w: render proxy retry aborted: %v", usecase.ErrTimeout, ctx.Err())
		case <-timer.C:
		}
	}

	r.logger.WarnContext(ctx, "render proxy request failed", "url", pageURL, "error", lastErr)
	return "", lastErr
}

func (r *ProxyRenderer) sanitize(value string) string {
	value = strings.TrimSpace(value)
	if r.apiKey != "" {
		value = strings.ReplaceAll(value, r.apiKey, "REDACTED")
	}
	return apiKeyParamRegex.ReplaceAllString(value, "api_key=REDACTED")
}

func (r *ProxyRenderer) preview(body []byte) string {
	text := strings.Join(strings.Fields(string(body)), " ")
	if len(text) > maxProxyBodyPreview {
		text = text[:maxProxyBodyPreview] + "..."
	}
	return r.sanitize(text)
}

func isTransientProxyError(err error) bool {
	return crerr.Is(err, errRenderProxyTransient) || stderrors.Is(err, usecase.ErrTimeout)
}

func isRetryableStatus(status int) bool {
	return status == http.StatusRequestTimeout || status == http.StatusTooManyRequests || status >= 500
}

func isTimeout(ctx context.Context, err error) bool {
	if stderrors.Is(err, context.DeadlineExceeded) || stderrors.Is(ctx.Err(), context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return stderrors.As(err, &netErr) && netErr.Timeout()
}
