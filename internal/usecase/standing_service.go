package usecase

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/riskibarqy/club-standings/internal/domain/scraperun"
	"github.com/riskibarqy/club-standings/internal/domain/standing"
	"github.com/riskibarqy/club-standings/internal/platform/logging"
)

const CronUpdatePath = "/api/cron/update-standings"

var dedupUnsafeCharRegex = regexp.MustCompile(`[^a-zA-Z0-9_-]`)

// JobQueue delivers a delayed HTTP call to one of this service's own routes.
type JobQueue interface {
	Enqueue(ctx context.Context, path string, payload any, delay time.Duration, deduplicationID string) error
}

type noopJobQueue struct{}

func (noopJobQueue) Enqueue(_ context.Context, _ string, _ any, _ time.Duration, _ string) error {
	return fmt.Errorf("%w: job queue is disabled", ErrDependencyUnavailable)
}

func NewNoopJobQueue() JobQueue {
	return noopJobQueue{}
}

// CronInvoker runs the secret-gated cron trigger the way the external
// scheduler does.
type CronInvoker interface {
	InvokeCron(ctx context.Context) (CronOutcome, error)
}

type CronOutcome struct {
	Message       string
	DeletedCount  int
	InsertedCount int
	Leagues       []string
}

// StandingsView is the public read model for one league.
type StandingsView struct {
	LeagueID    string
	Standings   []standing.Row
	LastUpdated *time.Time
	IsStale     bool
	TotalTeams  int
}

type UpdateResult struct {
	Message   string
	Standings []standing.Row
}

type StandingServiceConfig struct {
	PrimaryLeagueID string
	// DedupBucket groups async update requests into one queued job.
	DedupBucket time.Duration
}

type StandingService struct {
	repo   standing.Repository
	cron   CronInvoker
	queue  JobQueue
	cfg    StandingServiceConfig
	logger *logging.Logger
	now    func() time.Time
}

func NewStandingService(
	repo standing.Repository,
	cron CronInvoker,
	queue JobQueue,
	cfg StandingServiceConfig,
	logger *logging.Logger,
) *StandingService {
	if queue == nil {
		queue = NewNoopJobQueue()
	}
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.DedupBucket <= 0 {
		cfg.DedupBucket = time.Minute
	}

	return &StandingService{
		repo:   repo,
		cron:   cron,
		queue:  queue,
		cfg:    cfg,
		logger: logger,
		now:    time.Now,
	}
}

func (s *StandingService) resolveLeague(leagueID string) string {
	if leagueID = strings.TrimSpace(leagueID); leagueID != "" {
		return leagueID
	}
	return s.cfg.PrimaryLeagueID
}

// Get returns stored rows with the staleness flag. It never scrapes.
func (s *StandingService) Get(ctx context.Context, leagueID string) (StandingsView, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.StandingService.Get")
	defer span.End()

	leagueID = s.resolveLeague(leagueID)
	view := StandingsView{LeagueID: leagueID, Standings: []standing.Row{}}
	if leagueID == "" {
		return view, fmt.Errorf("%w: league id is required", ErrInvalidInput)
	}

	rows, err := s.repo.ListByLeague(ctx, leagueID)
	if err != nil {
		return view, fmt.Errorf("list standings league=%s: %w", leagueID, err)
	}
	if len(rows) == 0 {
		return view, nil
	}

	latest := standing.LatestUpdate(rows)
	view.Standings = rows
	view.TotalTeams = len(rows)
	view.LastUpdated = &latest
	view.IsStale = standing.IsStale(latest, s.now())
	return view, nil
}

// TriggerUpdate calls the cron route and returns the rows stored afterwards.
func (s *StandingService) TriggerUpdate(ctx context.Context, leagueID string) (UpdateResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.StandingService.TriggerUpdate")
	defer span.End()

	if s.cron == nil {
		return UpdateResult{}, fmt.Errorf("%w: cron trigger is not configured", ErrDependencyUnavailable)
	}

	outcome, err := s.cron.InvokeCron(ctx)
	if err != nil {
		return UpdateResult{}, fmt.Errorf("invoke cron update: %w", err)
	}

	view, err := s.Get(ctx, leagueID)
	if err != nil {
		return UpdateResult{}, err
	}

	message := strings.TrimSpace(outcome.Message)
	if message == "" {
		message = fmt.Sprintf("standings updated: %d teams", outcome.InsertedCount)
	}
	return UpdateResult{Message: message, Standings: view.Standings}, nil
}

// queuedUpdatePath tags queued runs as admin-triggered so the run ledger
// tells them apart from the scheduled cron.
var queuedUpdatePath = CronUpdatePath + "?trigger=" + string(scraperun.TriggerAdmin)

// EnqueueUpdate schedules the cron route through the job queue and returns
// the deduplication id; requests in the same bucket collapse into one job.
func (s *StandingService) EnqueueUpdate(ctx context.Context) (string, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.StandingService.EnqueueUpdate")
	defer span.End()

	dedupID := dedupKey("update-standings", s.cfg.PrimaryLeagueID, s.now(), s.cfg.DedupBucket)
	if err := s.queue.Enqueue(ctx, queuedUpdatePath, nil, 0, dedupID); err != nil {
		return "", fmt.Errorf("enqueue standings update: %w", err)
	}

	s.logger.InfoContext(ctx, "standings update enqueued", "dedup_id", dedupID)
	return dedupID, nil
}

func dedupKey(prefix, leagueID string, at time.Time, bucket time.Duration) string {
	if bucket <= 0 {
		bucket = time.Minute
	}
	slot := at.UTC().Truncate(bucket).Format("20060102T150405Z")
	return sanitizeDedupSegment(prefix) + "-" + sanitizeDedupSegment(leagueID) + "-" + slot
}

func sanitizeDedupSegment(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return "unknown"
	}
	return dedupUnsafeCharRegex.ReplaceAllString(value, "-")
}
