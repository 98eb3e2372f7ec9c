package jobqueue

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
	"github.com/riskibarqy/club-standings/internal/platform/logging"
	"github.com/riskibarqy/club-standings/internal/platform/resilience"
	"github.com/valyala/bytebufferpool"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var errQStashTransient = crerr.New("qstash transient failure")

type QStashPublisherConfig struct {
	BaseURL       string
	Token         string
	TargetBaseURL string
	Retries       int
	// TargetMethod is the method QStash uses when calling the target; GET by default.
	TargetMethod string
	// ForwardBearer is sent to the target as "Authorization: Bearer <value>".
	ForwardBearer  string
	Timeout        time.Duration
	CircuitBreaker resilience.CircuitBreakerConfig
}

// QStashPublisher asks Upstash QStash to call one of our routes later.
type QStashPublisher struct {
	client        *http.Client
	baseURL       string
	token         string
	targetBaseURL string
	targetMethod  string
	retries       int
	forwardBearer string
	logger        *logging.Logger
	breaker       *resilience.CircuitBreaker
}

func NewQStashPublisher(cfg QStashPublisherConfig, logger *logging.Logger) *QStashPublisher {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if logger == nil {
		logger = logging.Default()
	}
	method := strings.ToUpper(strings.TrimSpace(cfg.TargetMethod))
	if method == "" {
		method = http.MethodGet
	}

	return &QStashPublisher{
		client:        &http.Client{Timeout: timeout},
		baseURL:       strings.TrimRight(cfg.BaseURL, "/"),
		token:         strings.TrimSpace(cfg.Token),
		targetBaseURL: strings.TrimRight(strings.TrimSpace(cfg.TargetBaseURL), "/"),
		targetMethod:  method,
		retries:       cfg.Retries,
		forwardBearer: strings.TrimSpace(cfg.ForwardBearer),
		logger:        logger,
		breaker:       resilience.NewNamedCircuitBreaker("qstash", cfg.CircuitBreaker),
	}
}

func (p *QStashPublisher) Enqueue(ctx context.Context, path string, payload any, delay time.Duration, deduplicationID string) error {
	err := p.breaker.Execute(ctx, isQStashCircuitFailure, func(ctx context.Context) error {
		return p.publish(ctx, path, payload, delay, deduplicationID)
	})
	if stderrors.Is(err, resilience.ErrCircuitOpen) {
		p.logger.WarnContext(ctx, "qstash circuit breaker rejected request", "state", string(p.breaker.State()))
		return fmt.Errorf("qstash is temporarily unavailable: %w", err)
	}
	return err
}

func (p *QStashPublisher) publish(ctx context.Context, path string, payload any, delay time.Duration, deduplicationID string) error {
	path = "/" + strings.TrimLeft(strings.TrimSpace(path), "/")
	if path == "/" {
		return crerr.New("job path is required")
	}

	baseURL, err := validateHTTPBaseURL(p.baseURL)
	if err != nil {
		return crerr.Wrap(err, "invalid QSTASH_BASE_URL")
	}
	targetBaseURL, err := validateHTTPBaseURL(p.targetBaseURL)
	if err != nil {
		return crerr.Wrap(err, "invalid APP_PUBLIC_BASE_URL")
	}

	targetURL := targetBaseURL + path
	publishURL := baseURL + "/v2/publish/" + targetURL

	var body []byte
	if payload != nil && p.targetMethod != http.MethodGet {
		body, err = sonic.Marshal(payload)
		if err != nil {
			return crerr.Wrap(err, "marshal job payload")
		}
	}
	bodyText := truncateForLog(string(body), 4096)
	curlPreview := p.curlPreview(publishURL, path, normalizeDelay(delay), deduplicationID, bodyText)

	span := trace.SpanFromContext(ctx)
	if span.IsRecording() {
		span.SetAttributes(
			attribute.String("qstash.target_url", targetURL),
			attribute.String("qstash.target_method", p.targetMethod),
			attribute.String("qstash.request_curl_preview", curlPreview),
		)
	}
	p.logger.InfoContext(ctx, "qstash publish request", "path", path, "target_url", targetURL, "curl_preview", curlPreview)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, publishURL, strings.NewReader(string(body)))
	if err != nil {
		return crerr.Wrap(err, "create qstash request")
	}
	req.Header.Set("Authorization", "Bearer "+p.token)
	req.Header.Set("Upstash-Method", p.targetMethod)
	if len(body) > 0 {
		req.Header.Set("Content-Type", "application/json")
	}
	if p.retries > 0 {
		req.Header.Set("Upstash-Retries", strconv.Itoa(p.retries))
	}
	if delay > 0 {
		req.Header.Set("Upstash-Delay", normalizeDelay(delay))
	}
	if id := strings.TrimSpace(deduplicationID); id != "" {
		req.Header.Set("Upstash-Deduplication-Id", id)
	}
	if p.forwardBearer != "" {
		req.Header.Set("Upstash-Forward-Authorization", "Bearer "+p.forwardBearer)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: publish qstash job target_url=%s: %v", errQStashTransient, targetURL, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode/100 != 2 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		callErr := fmt.Errorf("publish qstash job status=%d target_url=%s body=%s", resp.StatusCode, targetURL, strings.TrimSpace(string(raw)))
		if isQStashRetryableStatus(resp.StatusCode) {
			return fmt.Errorf("%w: %v", errQStashTransient, callErr)
		}
		return callErr
	}

	p.logger.InfoContext(ctx, "qstash job published", "path", path, "delay", normalizeDelay(delay), "deduplication_id", deduplicationID)
	return nil
}

func normalizeDelay(delay time.Duration) string {
	if delay <= 0 {
		return "0s"
	}
	return fmt.Sprintf("%ds", int(delay.Round(time.Second).Seconds()))
}

func validateHTTPBaseURL(raw string) (string, error) {
	candidate := strings.TrimSpace(raw)
	if candidate == "" {
		return "", crerr.New("value is empty")
	}

	parsed, err := url.Parse(candidate)
	if err != nil {
		return "", crerr.Wrapf(err, "parse %q", candidate)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return "", crerr.Newf("%q uses unsupported scheme=%q; expected http or https", candidate, parsed.Scheme)
	}
	if strings.TrimSpace(parsed.Host) == "" {
		return "", crerr.Newf("%q has empty host", candidate)
	}

	return strings.TrimRight(candidate, "/"), nil
}

// curlPreview renders an equivalent curl command with secrets masked.
func (p *QStashPublisher) curlPreview(publishURL, path, delay, deduplicationID, body string) string {
	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	appendPart := func(part string) {
		if buf.Len() > 0 {
			_ = buf.WriteByte(' ')
		}
		_, _ = buf.WriteString(part)
	}
	appendFlagHeader := func(value string) {
		appendPart("-H")
		appendPart(shellQuote(value))
	}

	appendPart("curl -X POST")
	appendPart(shellQuote(publishURL))
	appendFlagHeader("Authorization: Bearer ***")
	appendFlagHeader("Upstash-Method: " + p.targetMethod)
	if p.retries > 0 {
		appendFlagHeader("Upstash-Retries: " + strconv.Itoa(p.retries))
	}
	if delay != "" && delay != "0s" {
		appendFlagHeader("Upstash-Delay: " + delay)
	}
	if id := strings.TrimSpace(deduplicationID); id != "" {
		appendFlagHeader("Upstash-Deduplication-Id: " + id)
	}
	if p.forwardBearer != "" {
		appendFlagHeader("Upstash-Forward-Authorization: Bearer ***")
	}
	if body != "" {
		appendPart("-d")
		appendPart(shellQuote(body))
	}
	appendPart("#")
	appendPart(shellQuote("path=" + path))

	return buf.String()
}

func shellQuote(value string) string {
	return "'" + strings.ReplaceAll(value, "'", "'\"'\"'") + "'"
}

func truncateForLog(value string, max int) string {
	if max <= 0 || len(value) <= max {
		return value
	}
	return value[:max] + "...(truncated)"
}

func isQStashCircuitFailure(err error) bool {
	return stderrors.Is(err, errQStashTransient)
}

func isQStashRetryableStatus(statusCode int) bool {
	return statusCode == http.StatusRequestTimeout ||
		statusCode == http.StatusTooManyRequests ||
		statusCode >= http.StatusInternalServerError
}
