package waba

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/riskibarqy/club-standings/internal/domain/standing"
	"github.com/riskibarqy/club-standings/internal/platform/logging"
	"github.com/riskibarqy/club-standings/internal/usecase"
)

const DefaultStandingsURL = "https://www.wabaleague.com/standings"

// Scraper fetches one league page per call through its renderer and parses
// the standings table. Every call opens and releases its own session.
type Scraper struct {
	renderer Renderer
	logger   *logging.Logger
}

func NewScraper(renderer Renderer, logger *logging.Logger) *Scraper {
	if logger == nil {
		logger = logging.Default()
	}
	return &Scraper{renderer: renderer, logger: logger}
}

func (s *Scraper) RendererName() string {
	if s.renderer == nil {
		return ""
	}
	return s.renderer.Name()
}

func (s *Scraper) Scrape(ctx context.Context, source usecase.LeagueSource) ([]standing.Candidate, error) {
	if s.renderer == nil {
		return nil, usecase.ErrRendererUnavailable
	}
	start := time.Now()

	session, err := s.renderer.Open(ctx)
	if err != nil {
		return nil, timeoutAware(ctx, fmt.Errorf("open %s session: %w", s.renderer.Name(), err))
	}
	defer func() {
		if closeErr := session.Close(); closeErr != nil {
			s.logger.WarnContext(ctx, "close render session failed",
				"renderer", s.renderer.Name(),
				"league_id", source.ID,
				"error", closeErr,
			)
		}
	}()

	html, err := session.Render(ctx, source.URL)
	if err != nil {
		return nil, timeoutAware(ctx, fmt.Errorf("render %s: %w", source.URL, err))
	}

	candidates, err := ParseStandings(html)
	if err != nil {
		return nil, fmt.Errorf("parse standings league=%s: %w", source.ID, err)
	}

	s.logger.InfoContext(ctx, "standings page scraped",
		"renderer", s.renderer.Name(),
		"league_id", source.ID,
		"candidates", len(candidates),
		"html_bytes", len(html),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return candidates, nil
}

func timeoutAware(ctx context.Context, err error) error {
	if stderrors.Is(err, usecase.ErrTimeout) {
		return err
	}
	if stderrors.Is(err, context.DeadlineExceeded) || stderrors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", usecase.ErrTimeout, err)
	}
	return err
}
