package app

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/riskibarqy/club-standings/external/cronclient"
	"github.com/riskibarqy/club-standings/external/jobqueue"
	"github.com/riskibarqy/club-standings/external/waba"
	"github.com/riskibarqy/club-standings/internal/config"
	"github.com/riskibarqy/club-standings/internal/domain/scraperun"
	"github.com/riskibarqy/club-standings/internal/domain/standing"
	cacherepo "github.com/riskibarqy/club-standings/internal/infrastructure/repository/cache"
	"github.com/riskibarqy/club-standings/internal/infrastructure/repository/memory"
	"github.com/riskibarqy/club-standings/internal/infrastructure/repository/postgres"
	basecache "github.com/riskibarqy/club-standings/internal/platform/cache"
	idgen "github.com/riskibarqy/club-standings/internal/platform/id"
	"github.com/riskibarqy/club-standings/internal/platform/logging"
	"github.com/riskibarqy/club-standings/internal/usecase"
)

// Container holds the services shared by the API server and the one-shot
// scrape command.
type Container struct {
	StandingService *usecase.StandingService
	SyncService     *usecase.StandingSyncService

	db *sqlx.DB
}

func NewContainer(ctx context.Context, cfg config.Config, logger *logging.Logger) (*Container, error) {
	if logger == nil {
		logger = logging.Default()
	}

	c := &Container{}
	standingRepo, runRepo, err := c.newRepositories(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	scraper := waba.NewScraper(waba.NewRenderer(waba.Config{
		ProxyBaseURL:       cfg.RenderProxyBaseURL,
		ProxyAPIKey:        cfg.RenderProxyAPIKey,
		ProxyTimeout:       cfg.RenderProxyTimeout,
		ProxyMaxRetries:    cfg.RenderProxyMaxRetries,
		ProxyRetryBackoff:  cfg.RenderProxyRetryBackoff,
		CircuitBreaker:     cfg.RenderProxyCircuit,
		BrowserBin:         cfg.BrowserBin,
		BrowserWaitTimeout: cfg.BrowserWaitTimeout,
		Logger:             logger,
	}), logger)
	logger.Info("standings renderer selected", "renderer", scraper.RendererName())

	c.SyncService = usecase.NewStandingSyncService(
		scraper,
		standingRepo,
		runRepo,
		idgen.NewSortableGenerator("run"),
		usecase.StandingSyncConfig{
			Leagues:         leagueSources(cfg.Leagues),
			PrimaryLeagueID: cfg.PrimaryLeagueID,
			Workers:         cfg.ScrapeWorkers,
			Timeout:         cfg.ScrapeTimeout,
		},
		logger,
	)

	var cron usecase.CronInvoker
	cronClient, err := cronclient.New(cronclient.Config{
		BaseURL: cfg.PublicBaseURL,
		Secret:  cfg.CronSecret,
		Timeout: cfg.WriteTimeout,
	}, logger)
	switch {
	case err == nil:
		cron = cronClient
	case errors.Is(err, usecase.ErrDependencyUnavailable):
		logger.Warn("admin update route disabled", "reason", "CRON_SECRET empty")
	default:
		_ = c.Close()
		return nil, fmt.Errorf("build cron client: %w", err)
	}

	var queue usecase.JobQueue
	if cfg.QStashEnabled {
		queue = jobqueue.NewQStashPublisher(jobqueue.QStashPublisherConfig{
			BaseURL:        cfg.QStashBaseURL,
			Token:          cfg.QStashToken,
			TargetBaseURL:  cfg.QStashTargetBaseURL,
			Retries:        cfg.QStashRetries,
			ForwardBearer:  cfg.CronSecret,
			CircuitBreaker: cfg.QStashCircuit,
		}, logger)
	}

	c.StandingService = usecase.NewStandingService(
		standingRepo,
		cron,
		queue,
		usecase.StandingServiceConfig{
			PrimaryLeagueID: c.SyncService.PrimaryLeagueID(),
			DedupBucket:     cfg.QStashDedupWindow,
		},
		logger,
	)

	return c, nil
}

func (c *Container) newRepositories(ctx context.Context, cfg config.Config, logger *logging.Logger) (standing.Repository, scraperun.Repository, error) {
	var (
		standingRepo standing.Repository
		runRepo      scraperun.Repository
	)

	switch cfg.DBDriver {
	case config.DBDriverMemory:
		logger.Warn("using in-memory storage", "reason", "DB_DRIVER=memory")
		standingRepo = memory.NewStandingRepository()
		runRepo = memory.NewScrapeRunRepository()
	case config.DBDriverPostgres:
		db, err := openPostgres(ctx, cfg, logger)
		if err != nil {
			return nil, nil, err
		}
		c.db = db
		standingRepo = postgres.NewStandingRepository(db)
		runRepo = postgres.NewScrapeRunRepository(db)
	default:
		return nil, nil, fmt.Errorf("unsupported db driver %q", cfg.DBDriver)
	}

	if cfg.CacheEnabled {
		standingRepo = cacherepo.NewStandingRepository(standingRepo, basecache.NewStore[[]standing.Row](cfg.CacheTTL))
	}
	return standingRepo, runRepo, nil
}

func (c *Container) Close() error {
	if c == nil || c.db == nil {
		return nil
	}
	return c.db.Close()
}

// leagueSources fills in the default public page for leagues without a URL.
func leagueSources(leagues []config.League) []usecase.LeagueSource {
	out := make([]usecase.LeagueSource, 0, len(leagues))
	for _, league := range leagues {
		pageURL := strings.TrimSpace(league.URL)
		if pageURL == "" {
			pageURL = waba.DefaultStandingsURL
		}
		out = append(out, usecase.LeagueSource{ID: league.ID, URL: pageURL})
	}
	return out
}
