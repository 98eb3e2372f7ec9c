// Command scrape runs one standings update and exits, for platforms that
// schedule cron jobs as processes instead of HTTP calls.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/riskibarqy/club-standings/internal/app"
	"github.com/riskibarqy/club-standings/internal/config"
	"github.com/riskibarqy/club-standings/internal/domain/scraperun"
	"github.com/riskibarqy/club-standings/internal/platform/logging"
	"github.com/riskibarqy/club-standings/internal/usecase"
)

func main() {
	leagues := flag.String("leagues", "", "comma-separated league ids; empty runs every configured league")
	trigger := flag.String("trigger", string(scraperun.TriggerCron), "trigger recorded on the scrape run (cron|init)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	logger := logging.NewJSON(cfg.LogLevel)
	logging.SetDefault(logger)

	code := run(cfg, logger, scraperun.Trigger(*trigger), splitLeagues(*leagues))
	_ = logger.Sync()
	os.Exit(code)
}

func run(cfg config.Config, logger *logging.Logger, trigger scraperun.Trigger, leagueIDs []string) int {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	container, err := app.NewContainer(ctx, cfg, logger)
	if err != nil {
		logger.Error("build app", "error", err)
		return 1
	}
	defer func() {
		if err := container.Close(); err != nil {
			logger.Warn("close app", "error", err)
		}
	}()

	result, err := container.SyncService.Run(ctx, usecase.SyncInput{Trigger: trigger, LeagueIDs: leagueIDs})
	for _, league := range result.Leagues {
		logger.Info("league result",
			"league_id", league.LeagueID,
			"status", string(league.Status),
			"attempts", league.Attempts,
			"deleted", league.DeletedCount,
			"inserted", league.InsertedCount,
			"run_id", league.RunID,
		)
	}
	if err != nil {
		logger.Error("standings update failed", "error", err)
		return 1
	}

	logger.Info("standings update finished",
		"deleted", result.DeletedCount,
		"inserted", result.InsertedCount,
		"duration_ms", result.FinishedAt.Sub(result.StartedAt).Milliseconds(),
	)
	return 0
}

func splitLeagues(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
