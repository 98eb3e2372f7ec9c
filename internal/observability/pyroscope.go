package observability

import (
	"strings"

	"github.com/grafana/pyroscope-go"
	"github.com/riskibarqy/club-standings/internal/config"
	"github.com/riskibarqy/club-standings/internal/platform/logging"
)

// InitPyroscope starts continuous profiling when enabled. The returned stop
// func is safe to call when profiling is off.
func InitPyroscope(cfg config.Config, logger *logging.Logger) (func() error, error) {
	if logger == nil {
		logger = logging.Default()
	}

	if !cfg.PyroscopeEnabled {
		logger.Info("pyroscope disabled", "reason", "PYROSCOPE_ENABLED=false")
		return func() error { return nil }, nil
	}

	profilerCfg := profilerConfig(cfg)
	profiler, err := pyroscope.Start(profilerCfg)
	if err != nil {
		return nil, err
	}

	logger.Info("pyroscope enabled",
		"server_address", profilerCfg.ServerAddress,
		"application", profilerCfg.ApplicationName,
		"leagues", profilerCfg.Tags["leagues"],
	)
	return profiler.Stop, nil
}

// profilerConfig tags profiles with the scraped leagues. Mutex and block
// profiles stay on since scrape fan-out contends on the worker pool.
func profilerConfig(cfg config.Config) pyroscope.Config {
	leagueIDs := make([]string, 0, len(cfg.Leagues))
	for _, league := range cfg.Leagues {
		leagueIDs = append(leagueIDs, league.ID)
	}

	return pyroscope.Config{
		ApplicationName:   cfg.PyroscopeAppName,
		ServerAddress:     cfg.PyroscopeServerAddress,
		AuthToken:         cfg.PyroscopeAuthToken,
		BasicAuthUser:     cfg.PyroscopeBasicAuthUser,
		BasicAuthPassword: cfg.PyroscopeBasicAuthPassword,
		UploadRate:        cfg.PyroscopeUploadRate,
		Tags: map[string]string{
			"env":            cfg.AppEnv,
			"service":        cfg.ServiceName,
			"primary_league": cfg.PrimaryLeagueID,
			"leagues":        strings.Join(leagueIDs, ","),
		},
		ProfileTypes: []pyroscope.ProfileType{
			pyroscope.ProfileCPU,
			pyroscope.ProfileAllocSpace,
			pyroscope.ProfileInuseSpace,
			pyroscope.ProfileGoroutines,
			pyroscope.ProfileMutexCount,
			pyroscope.ProfileMutexDuration,
			pyroscope.ProfileBlockCount,
			pyroscope.ProfileBlockDuration,
		},
	}
}
