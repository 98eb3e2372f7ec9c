package usecase

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/riskibarqy/club-standings/internal/domain/scraperun"
	"github.com/riskibarqy/club-standings/internal/domain/standing"
	"github.com/riskibarqy/club-standings/internal/platform/id"
	"github.com/riskibarqy/club-standings/internal/platform/logging"
	"go.opentelemetry.io/otel/attribute"
)

const (
	defaultRunListLimit = 20
	maxRunListLimit     = 100
	defaultScrapeBudget = 60 * time.Second
)

// LeagueSource is one scrape target.
type LeagueSource struct {
	ID  string
	URL string
}

// StandingsScraper fetches and parses one league page. Each call owns a
// fresh rendering session, so calling it again is a reinitialization.
type StandingsScraper interface {
	Scrape(ctx context.Context, source LeagueSource) ([]standing.Candidate, error)
}

type StandingSyncConfig struct {
	Leagues         []LeagueSource
	PrimaryLeagueID string
	Workers         int
	// Timeout bounds one whole trigger run, retries included.
	Timeout time.Duration
}

type SyncInput struct {
	Trigger   scraperun.Trigger
	LeagueIDs []string
}

type SyncResult struct {
	Trigger       scraperun.Trigger
	DeletedCount  int
	InsertedCount int
	Leagues       []LeagueSyncResult
	StartedAt     time.Time
	FinishedAt    time.Time
}

type LeagueSyncResult struct {
	LeagueID      string
	RunID         string
	Status        scraperun.Status
	Attempts      int
	DeletedCount  int
	InsertedCount int
	Error         error
}

type StandingSyncService struct {
	scraper StandingsScraper
	repo    standing.Repository
	runRepo scraperun.Repository
	ids     id.Generator
	cfg     StandingSyncConfig
	sources map[string]LeagueSource
	logger  *logging.Logger
	now     func() time.Time
}

func NewStandingSyncService(
	scraper StandingsScraper,
	repo standing.Repository,
	runRepo scraperun.Repository,
	ids id.Generator,
	cfg StandingSyncConfig,
	logger *logging.Logger,
) *StandingSyncService {
	if logger == nil {
		logger = logging.Default()
	}
	if ids == nil {
		ids = id.NewSortableGenerator("run")
	}
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultScrapeBudget
	}

	sources := make(map[string]LeagueSource, len(cfg.Leagues))
	leagues := make([]LeagueSource, 0, len(cfg.Leagues))
	for _, src := range cfg.Leagues {
		src.ID = strings.TrimSpace(src.ID)
		src.URL = strings.TrimSpace(src.URL)
		if src.ID == "" || src.URL == "" {
			continue
		}
		if _, dup := sources[src.ID]; dup {
			continue
		}
		sources[src.ID] = src
		leagues = append(leagues, src)
	}
	cfg.Leagues = leagues
	cfg.PrimaryLeagueID = strings.TrimSpace(cfg.PrimaryLeagueID)
	if _, ok := sources[cfg.PrimaryLeagueID]; !ok && len(leagues) > 0 {
		cfg.PrimaryLeagueID = leagues[0].ID
	}

	return &StandingSyncService{
		scraper: scraper,
		repo:    repo,
		runRepo: runRepo,
		ids:     ids,
		cfg:     cfg,
		sources: sources,
		logger:  logger,
		now:     time.Now,
	}
}

func (s *StandingSyncService) PrimaryLeagueID() string {
	return s.cfg.PrimaryLeagueID
}

func (s *StandingSyncService) Leagues() []LeagueSource {
	return append([]LeagueSource(nil), s.cfg.Leagues...)
}

// Run scrapes every requested league and replaces its stored rows. Leagues
// are isolated: a failing league keeps its previous rows while the others
// are still written. The returned error is non-nil if any league failed.
func (s *StandingSyncService) Run(ctx context.Context, input SyncInput) (SyncResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.StandingSyncService.Run")
	defer span.End()

	if s.scraper == nil || s.repo == nil {
		return SyncResult{}, fmt.Errorf("%w: standings sync is not configured", ErrDependencyUnavailable)
	}
	if input.Trigger == "" {
		input.Trigger = scraperun.TriggerCron
	}
	if !input.Trigger.Valid() {
		return SyncResult{}, fmt.Errorf("%w: unknown trigger %q", ErrInvalidInput, input.Trigger)
	}

	targets, err := s.resolveTargets(input.LeagueIDs)
	if err != nil {
		return SyncResult{}, err
	}

	ctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	result := SyncResult{
		Trigger:   input.Trigger,
		StartedAt: s.now().UTC(),
		Leagues:   make([]LeagueSyncResult, 0, len(targets)),
	}

	workers := s.cfg.Workers
	if workers > len(targets) {
		workers = len(targets)
	}
	pool, err := ants.NewPool(workers)
	if err != nil {
		return SyncResult{}, fmt.Errorf("create worker pool: %w", err)
	}
	defer pool.Release()

	var (
		mu      sync.Mutex
		wg      sync.WaitGroup
		outcome = make([]LeagueSyncResult, 0, len(targets))
	)
	for _, target := range targets {
		target := target
		wg.Add(1)
		if err := pool.Submit(func() {
			defer wg.Done()
			res := s.syncLeague(ctx, input.Trigger, target)
			mu.Lock()
			outcome = append(outcome, res)
			mu.Unlock()
		}); err != nil {
			wg.Done()
			mu.Lock()
			outcome = append(outcome, LeagueSyncResult{
				LeagueID: target.ID,
				Status:   scraperun.StatusFailed,
				Error:    fmt.Errorf("submit league to worker pool: %w", err),
			})
			mu.Unlock()
		}
	}
	wg.Wait()

	sort.SliceStable(outcome, func(i, j int) bool {
		return outcome[i].LeagueID < outcome[j].LeagueID
	})

	var failures []error
	for _, item := range outcome {
		result.DeletedCount += item.DeletedCount
		result.InsertedCount += item.InsertedCount
		if item.Error != nil {
			failures = append(failures, fmt.Errorf("league=%s: %w", item.LeagueID, item.Error))
		}
	}
	result.Leagues = outcome
	result.FinishedAt = s.now().UTC()

	if len(failures) > 0 {
		span.RecordError(failures[0])
		return result, errors.Join(failures...)
	}
	return result, nil
}

func (s *StandingSyncService) syncLeague(ctx context.Context, trigger scraperun.Trigger, source LeagueSource) LeagueSyncResult {
	ctx, span := startUsecaseSpan(ctx, "usecase.StandingSyncService.syncLeague",
		attribute.String("standings.league_id", source.ID),
	)
	defer span.End()

	startedAt := s.now().UTC()
	res := LeagueSyncResult{LeagueID: source.ID, Status: scraperun.StatusFailed}

	candidates, attempts, err := s.scrapeWithRetry(ctx, source)
	res.Attempts = attempts
	if err == nil {
		rows := standing.Validate(candidates, source.ID, s.now())
		if dropped := len(candidates) - len(rows); dropped > 0 {
			s.logger.DebugContext(ctx, "dropped invalid standings candidates",
				"league_id", source.ID,
				"dropped", dropped,
				"kept", len(rows),
			)
		}
		if len(rows) == 0 {
			err = fmt.Errorf("%w: no valid rows after validation (%d candidates)", ErrNoTeamsParsed, len(candidates))
		} else {
			replaced, replaceErr := s.repo.ReplaceByLeague(ctx, source.ID, rows)
			if replaceErr != nil {
				err = fmt.Errorf("replace standings: %w", replaceErr)
			} else {
				res.Status = scraperun.StatusCompleted
				res.DeletedCount = replaced.Deleted
				res.InsertedCount = replaced.Inserted
			}
		}
	}
	res.Error = err

	if err != nil {
		s.logger.ErrorContext(ctx, "standings sync failed",
			"league_id", source.ID,
			"trigger", string(trigger),
			"attempts", attempts,
			"error", err,
		)
	} else {
		s.logger.InfoContext(ctx, "standings replaced",
			"league_id", source.ID,
			"trigger", string(trigger),
			"deleted", res.DeletedCount,
			"inserted", res.InsertedCount,
		)
	}

	recordLeagueOutcome(span, trigger, res)
	res.RunID = s.recordRun(ctx, trigger, res, startedAt)
	return res
}

// scrapeWithRetry allows exactly one retry, and only for failures that a
// fresh browser session can fix.
func (s *StandingSyncService) scrapeWithRetry(ctx context.Context, source LeagueSource) ([]standing.Candidate, int, error) {
	candidates, err := s.scrape(ctx, source)
	if err == nil || !IsRetryableScrapeError(err) || ctx.Err() != nil {
		return candidates, 1, err
	}

	s.logger.WarnContext(ctx, "standings scrape failed, retrying with a fresh session",
		"league_id", source.ID,
		"error", err,
	)
	candidates, err = s.scrape(ctx, source)
	return candidates, 2, err
}

func (s *StandingSyncService) scrape(ctx context.Context, source LeagueSource) ([]standing.Candidate, error) {
	candidates, err := s.scraper.Scrape(ctx, source)
	if err == nil {
		return candidates, nil
	}
	if !errors.Is(err, ErrTimeout) && (errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded)) {
		return nil, fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	return nil, err
}

func (s *StandingSyncService) recordRun(ctx context.Context, trigger scraperun.Trigger, res LeagueSyncResult, startedAt time.Time) string {
	if s.runRepo == nil {
		return ""
	}

	runID, err := s.ids.NewID()
	if err != nil {
		s.logger.WarnContext(ctx, "generate scrape run id failed", "error", err)
		return ""
	}
	traceID, spanID := runTraceRef(ctx)
	run := scraperun.Run{
		RunID:         runID,
		Trigger:       trigger,
		LeagueID:      res.LeagueID,
		Status:        res.Status,
		Attempts:      res.Attempts,
		DeletedCount:  res.DeletedCount,
		InsertedCount: res.InsertedCount,
		StartedAt:     startedAt,
		FinishedAt:    s.now().UTC(),
		TraceID:       traceID,
		SpanID:        spanID,
	}
	if res.Error != nil {
		run.ErrorMessage = res.Error.Error()
	}

	// Recording outlives the trigger deadline; a failed insert only logs.
	recordCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := s.runRepo.Insert(recordCtx, run); err != nil {
		s.logger.WarnContext(ctx, "record scrape run failed", "league_id", res.LeagueID, "error", err)
		return ""
	}
	return runID
}

func (s *StandingSyncService) ListRuns(ctx context.Context, limit int) ([]scraperun.Run, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.StandingSyncService.ListRuns")
	defer span.End()

	if s.runRepo == nil {
		return nil, fmt.Errorf("%w: scrape run log is not configured", ErrDependencyUnavailable)
	}
	switch {
	case limit < 0:
		return nil, fmt.Errorf("%w: limit must not be negative", ErrInvalidInput)
	case limit == 0:
		limit = defaultRunListLimit
	case limit > maxRunListLimit:
		limit = maxRunListLimit
	}

	runs, err := s.runRepo.ListRecent(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("list scrape runs: %w", err)
	}
	return runs, nil
}

func (s *StandingSyncService) resolveTargets(leagueIDs []string) ([]LeagueSource, error) {
	if len(s.cfg.Leagues) == 0 {
		return nil, fmt.Errorf("%w: no leagues configured", ErrDependencyUnavailable)
	}

	cleaned := make([]string, 0, len(leagueIDs))
	for _, leagueID := range leagueIDs {
		if leagueID = strings.TrimSpace(leagueID); leagueID != "" {
			cleaned = append(cleaned, leagueID)
		}
	}
	if len(cleaned) == 0 {
		return append([]LeagueSource(nil), s.cfg.Leagues...), nil
	}

	seen := make(map[string]struct{}, len(cleaned))
	out := make([]LeagueSource, 0, len(cleaned))
	for _, leagueID := range cleaned {
		src, ok := s.sources[leagueID]
		if !ok {
			return nil, fmt.Errorf("%w: unknown league %q", ErrInvalidInput, leagueID)
		}
		if _, dup := seen[leagueID]; dup {
			continue
		}
		seen[leagueID] = struct{}{}
		out = append(out, src)
	}
	return out, nil
}
