package waba

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/riskibarqy/club-standings/internal/usecase"
)

func TestScraper_Scrape_ReleasesSessionOnEveryPath(t *testing.T) {
	t.Parallel()

	source := usecase.LeagueSource{ID: "waba", URL: "https://example.test/standings"}
	cases := []struct {
		name      string
		html      string
		renderErr error
		wantErr   error
	}{
		{name: "success", html: standardTable},
		{name: "render failure", renderErr: usecase.ErrSessionUnavailable, wantErr: usecase.ErrSessionUnavailable},
		{name: "missing table", html: "<div>app</div>", wantErr: usecase.ErrTableNotFound},
		{name: "empty table", html: "<table><tr><th>Team</th></tr></table>", wantErr: usecase.ErrNoTeamsParsed},
	}

	for _, tc := range cases {
		session := &stubSession{html: tc.html, err: tc.renderErr}
		scraper := NewScraper(&stubRenderer{session: session}, nil)

		_, err := scraper.Scrape(context.Background(), source)
		if tc.wantErr == nil && err != nil {
			t.Fatalf("%s: unexpected error: %v", tc.name, err)
		}
		if tc.wantErr != nil && !errors.Is(err, tc.wantErr) {
			t.Fatalf("%s: expected %v, got %v", tc.name, tc.wantErr, err)
		}
		if session.closed != 1 {
			t.Fatalf("%s: session closed %d times, want 1", tc.name, session.closed)
		}
		if session.renderedURL != source.URL {
			t.Fatalf("%s: rendered %q", tc.name, session.renderedURL)
		}
	}
}

func TestScraper_Scrape_OpenFailure(t *testing.T) {
	t.Parallel()

	scraper := NewScraper(&stubRenderer{openErr: usecase.ErrRendererUnavailable}, nil)
	_, err := scraper.Scrape(context.Background(), usecase.LeagueSource{ID: "waba", URL: "https://example.test"})
	if !errors.Is(err, usecase.ErrRendererUnavailable) {
		t.Fatalf("expected ErrRendererUnavailable, got %v", err)
	}
}

func TestScraper_Scrape_DeadlineIsTimeout(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithTimeout(context.Background(), time.Millisecond)
	defer cancel()
	<-ctx.Done()

	session := &stubSession{err: context.DeadlineExceeded}
	scraper := NewScraper(&stubRenderer{session: session}, nil)
	_, err := scraper.Scrape(ctx, usecase.LeagueSource{ID: "waba", URL: "https://example.test"})
	if !errors.Is(err, usecase.ErrTimeout) {
		t.Fatalf("expected ErrTimeout, got %v", err)
	}
	if session.closed != 1 {
		t.Fatalf("expected session release after timeout")
	}
}

func TestNewRenderer_ChoosesStrategyFromConfig(t *testing.T) {
	t.Parallel()

	if got := NewRenderer(Config{ProxyAPIKey: "key"}).Name(); got != "render-proxy" {
		t.Fatalf("expected proxy renderer, got %s", got)
	}
	if got := NewRenderer(Config{}).Name(); got != "headless-browser" {
		t.Fatalf("expected browser renderer, got %s", got)
	}
}

func TestBrowserRenderer_MissingBinary(t *testing.T) {
	t.Parallel()

	r := NewBrowserRenderer(BrowserConfig{})
	r.lookPath = func() (string, bool) { return "", false }

	_, err := r.Open(context.Background())
	if !errors.Is(err, usecase.ErrRendererUnavailable) {
		t.Fatalf("expected ErrRendererUnavailable, got %v", err)
	}
}

type stubRenderer struct {
	session *stubSession
	openErr error
}

func (r *stubRenderer) Name() string { return "stub" }

func (r *stubRenderer) Open(context.Context) (Session, error) {
	if r.openErr != nil {
		return nil, r.openErr
	}
	return r.session, nil
}

type stubSession struct {
	html        string
	err         error
	renderedURL string
	closed      int
}

func (s *stubSession) Render(_ context.Context, pageURL string) (string, error) {
	s.renderedURL = pageURL
	return s.html, s.err
}

func (s *stubSession) Close() error {
	s.closed++
	return nil
}
