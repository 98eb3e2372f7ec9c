package waba

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/riskibarqy/club-standings/internal/platform/logging"
	"github.com/riskibarqy/club-standings/internal/usecase"
)

const (
	defaultBrowserWaitTimeout = 30 * time.Second
	standingsSelector         = "table"
)

type BrowserConfig struct {
	// Bin is the chromium executable; empty means look it up on PATH.
	Bin         string
	WaitTimeout time.Duration
	Logger      *logging.Logger
}

// BrowserRenderer drives a local headless chromium. Every session launches
// its own browser process.
type BrowserRenderer struct {
	bin         string
	waitTimeout time.Duration
	logger      *logging.Logger
	lookPath    func() (string, bool)
}

func NewBrowserRenderer(cfg BrowserConfig) *BrowserRenderer {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}
	wait := cfg.WaitTimeout
	if wait <= 0 {
		wait = defaultBrowserWaitTimeout
	}
	return &BrowserRenderer{
		bin:         strings.TrimSpace(cfg.Bin),
		waitTimeout: wait,
		logger:      logger,
		lookPath:    launcher.LookPath,
	}
}

func (r *BrowserRenderer) Name() string { return "headless-browser" }

func (r *BrowserRenderer) Open(ctx context.Context) (Session, error) {
	bin := r.bin
	if bin == "" {
		if found, ok := r.lookPath(); ok {
			bin = found
		}
	}
	if bin == "" {
		return nil, fmt.Errorf("%w: chromium executable not found", usecase.ErrRendererUnavailable)
	}

	l := launcher.New().
		Context(ctx).
		Bin(bin).
		Headless(true).
		NoSandbox(true).
		Set("disable-gpu").
		Set("disable-dev-shm-usage")

	controlURL, err := l.Launch()
	if err != nil {
		l.Kill()
		l.Cleanup()
		if ctx.Err() != nil {
			return nil, fmt.Errorf("%w: launch browser: %v", usecase.ErrTimeout, err)
		}
		return nil, fmt.Errorf("%w: launch browser %s: %v", usecase.ErrRendererUnavailable, bin, err)
	}

	browser := rod.New().ControlURL(controlURL).Context(ctx)
	if err := browser.Connect(); err != nil {
		l.Kill()
		l.Cleanup()
		return nil, fmt.Errorf("%w: connect browser: %v", usecase.ErrSessionUnavailable, err)
	}

	r.logger.DebugContext(ctx, "headless browser launched", "bin", bin)
	return &browserSession{
		launcher:    l,
		browser:     browser,
		waitTimeout: r.waitTimeout,
	}, nil
}

type browserSession struct {
	launcher    *launcher.Launcher
	browser     *rod.Browser
	waitTimeout time.Duration

	closeOnce sync.Once
	closeErr  error
}

func (s *browserSession) Render(ctx context.Context, pageURL string) (string, error) {
	page, err := s.browser.Context(ctx).Page(proto.TargetCreateTarget{URL: pageURL})
	if err != nil {
		return "", classifyBrowserError(ctx, "open page", err)
	}
	defer func() { _ = page.Close() }()

	if err := page.WaitLoad(); err != nil {
		return "", classifyBrowserError(ctx, "wait for page load", err)
	}

	if _, err := page.Timeout(s.waitTimeout).Element(standingsSelector); err != nil {
		if ctx.Err() == nil && stderrors.Is(err, context.DeadlineExceeded) {
			return "", fmt.Errorf("%w: no %q element after %s", usecase.ErrTableNotFound, standingsSelector, s.waitTimeout)
		}
		return "", classifyBrowserError(ctx, "wait for standings table", err)
	}

	html, err := page.HTML()
	if err != nil {
		return "", classifyBrowserError(ctx, "read page html", err)
	}
	return html, nil
}

// Close releases the browser and its process. It is safe to call twice.
func (s *browserSession) Close() error {
	s.closeOnce.Do(func() {
		s.closeErr = s.browser.Close()
		s.launcher.Kill()
		s.launcher.Cleanup()
	})
	return s.closeErr
}

func classifyBrowserError(ctx context.Context, op string, err error) error {
	if ctx.Err() != nil || stderrors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %s: %v", usecase.ErrTimeout, op, err)
	}
	return fmt.Errorf("%w: %s: %v", usecase.ErrSessionUnavailable, op, err)
}
