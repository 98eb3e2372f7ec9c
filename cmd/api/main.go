package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/riskibarqy/club-standings/internal/app"
	"github.com/riskibarqy/club-standings/internal/config"
	"github.com/riskibarqy/club-standings/internal/observability"
	"github.com/riskibarqy/club-standings/internal/platform/logging"
	"github.com/riskibarqy/club-standings/internal/usecase"
	"github.com/sourcegraph/conc/pool"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger, closeLogs, err := observability.InitBetterStackLogger(cfg, logging.NewJSON(cfg.LogLevel))
	if err != nil {
		panic(fmt.Errorf("init logger: %w", err))
	}
	logging.SetDefault(logger)

	shutdownTracing, err := observability.InitUptrace(cfg, logger)
	if err != nil {
		logger.Error("init uptrace", "error", err)
		os.Exit(1)
	}
	stopProfiler, err := observability.InitPyroscope(cfg, logger)
	if err != nil {
		logger.Error("init pyroscope", "error", err)
		os.Exit(1)
	}
	pprofServer := observability.StartPprofServer(cfg, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	container, err := app.NewContainer(ctx, cfg, logger)
	if err != nil {
		logger.Error("build app", "error", err)
		os.Exit(1)
	}
	srv, err := app.NewHTTPServer(cfg, container, logger)
	if err != nil {
		logger.Error("build http server", "error", err)
		os.Exit(1)
	}

	go func() {
		logger.Info("http server starting",
			"addr", cfg.HTTPAddr,
			"db_driver", cfg.DBDriver,
			"primary_league", container.SyncService.PrimaryLeagueID(),
			"leagues", leagueIDs(container.SyncService.Leagues()),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", "error", err)
	}

	p := pool.New().WithErrors()
	p.Go(container.Close)
	p.Go(func() error { return pprofServer.Stop(shutdownCtx) })
	p.Go(stopProfiler)
	p.Go(func() error { return shutdownTracing(shutdownCtx) })
	if err := p.Wait(); err != nil {
		logger.Error("release resources", "error", err)
	}

	logger.Info("http server stopped")
	if err := closeLogs(shutdownCtx); err != nil {
		fmt.Fprintf(os.Stderr, "flush logs: %v\n", err)
	}
}

func leagueIDs(leagues []usecase.LeagueSource) []string {
	ids := make([]string, 0, len(leagues))
	for _, league := range leagues {
		ids = append(ids, league.ID)
	}
	return ids
}
