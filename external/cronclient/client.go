package cronclient

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	jsoniter "github.com/json-iterator/go"
	"github.com/riskibarqy/club-standings/internal/domain/scraperun"
	"github.com/riskibarqy/club-standings/internal/platform/logging"
	"github.com/riskibarqy/club-standings/internal/platform/telemetry"
	"github.com/riskibarqy/club-standings/internal/usecase"
)

const defaultTimeout = 65 * time.Second

type Config struct {
	BaseURL string
	Secret  string
	Timeout time.Duration
}

// Client calls this service's own cron route with the cron secret, which is
// how the admin update route reuses the scheduled trigger.
type Client struct {
	client *resty.Client
	path   string
	secret string
	logger *logging.Logger
}

func New(cfg Config, logger *logging.Logger) (*Client, error) {
	if logger == nil {
		logger = logging.Default()
	}
	baseURL := strings.TrimSuffix(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		return nil, fmt.Errorf("cron client base url is required")
	}
	secret := strings.TrimSpace(cfg.Secret)
	if secret == "" {
		return nil, fmt.Errorf("%w: cron secret is not configured", usecase.ErrDependencyUnavailable)
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json")
	telemetry.InstrumentResty(client, "club-standings/external/cronclient", "cronclient")

	return &Client{
		client: client,
		path:   usecase.CronUpdatePath,
		secret: secret,
		logger: logger,
	}, nil
}

func (c *Client) InvokeCron(ctx context.Context) (usecase.CronOutcome, error) {
	started := time.Now()
	res, err := c.client.R().
		SetContext(ctx).
		SetAuthToken(c.secret).
		SetQueryParam("trigger", string(scraperun.TriggerAdmin)).
		Get(c.path)
	if err != nil {
		if ctx.Err() != nil {
			return usecase.CronOutcome{}, fmt.Errorf("%w: cron route: %v", usecase.ErrTimeout, err)
		}
		return usecase.CronOutcome{}, fmt.Errorf("call cron route: %w", err)
	}

	var body cronResponse
	if decodeErr := jsoniter.Unmarshal(res.Body(), &body); decodeErr != nil && res.IsSuccess() {
		return usecase.CronOutcome{}, fmt.Errorf("decode cron response: %w", decodeErr)
	}

	c.logger.InfoContext(ctx, "cron route invoked",
		"status_code", res.StatusCode(),
		"duration_ms", time.Since(started).Milliseconds(),
	)

	if !res.IsSuccess() {
		message := strings.TrimSpace(body.Message)
		if message == "" {
			message = res.Status()
		}
		return usecase.CronOutcome{}, &UpstreamError{StatusCode: res.StatusCode(), Code: body.Error, Message: message}
	}

	return usecase.CronOutcome{
		Message:       body.Message,
		DeletedCount:  body.DeletedCount,
		InsertedCount: body.InsertedCount,
		Leagues:       body.Leagues,
	}, nil
}

// UpstreamError carries the cron route's error body so the admin route can
// surface the same message. It wraps no usecase sentinel: any non-2xx answer
// from the cron route is an upstream failure, whatever its status.
type UpstreamError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("cron route returned %d: %s", e.StatusCode, e.Message)
}

// ErrorCode is the short code from the cron route's error body.
func (e *UpstreamError) ErrorCode() string {
	return e.Code
}

type cronResponse struct {
	Success       bool     `json:"success"`
	Error         string   `json:"error"`
	Message       string   `json:"message"`
	DeletedCount  int      `json:"deletedCount"`
	InsertedCount int      `json:"insertedCount"`
	Leagues       []string `json:"leagues"`
}
