package config

import (
	"testing"
	"time"
)

func TestLoad_AppEnvValidation(t *testing.T) {
	t.Setenv("APP_ENV", "invalid")
	if _, err := Load(); err == nil {
		t.Fatalf("expected error for invalid APP_ENV")
	}
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.DBDriver != DBDriverPostgres {
		t.Fatalf("unexpected default DB driver: %s", cfg.DBDriver)
	}
	if len(cfg.Leagues) != 1 || cfg.Leagues[0].ID != DefaultLeagueID || cfg.Leagues[0].URL != "" {
		t.Fatalf("unexpected default leagues: %+v", cfg.Leagues)
	}
	if cfg.PrimaryLeagueID != DefaultLeagueID {
		t.Fatalf("unexpected primary league: %s", cfg.PrimaryLeagueID)
	}
	if cfg.ScrapeTimeout != 60*time.Second {
		t.Fatalf("unexpected scrape timeout: %s", cfg.ScrapeTimeout)
	}
	if cfg.ScrapeWorkers != 1 {
		t.Fatalf("unexpected scrape workers: %d", cfg.ScrapeWorkers)
	}
	if cfg.PublicBaseURL != "http://localhost:8080" {
		t.Fatalf("unexpected public base url: %s", cfg.PublicBaseURL)
	}
	if cfg.CronSecret != "" {
		t.Fatalf("cron secret must be empty unless configured")
	}
	if !cfg.RenderProxyCircuit.Enabled || cfg.RenderProxyCircuit.FailureThreshold != 3 {
		t.Fatalf("unexpected render proxy circuit defaults: %+v", cfg.RenderProxyCircuit)
	}
	if cfg.AdminRole != "admin" {
		t.Fatalf("unexpected admin role: %s", cfg.AdminRole)
	}
}

func TestLoad_LeaguesParsing(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)

	t.Run("id and url pairs", func(t *testing.T) {
		t.Setenv("WABA_LEAGUES", "d1=https://www.wabaleague.com/standings?division=1, d2=https://www.wabaleague.com/standings?division=2")
		t.Setenv("WABA_PRIMARY_LEAGUE", "d2")

		cfg, err := Load()
		if err != nil {
			t.Fatalf("load config: %v", err)
		}
		if len(cfg.Leagues) != 2 {
			t.Fatalf("unexpected leagues: %+v", cfg.Leagues)
		}
		if cfg.Leagues[0].URL != "https://www.wabaleague.com/standings?division=1" {
			t.Fatalf("unexpected first league url: %s", cfg.Leagues[0].URL)
		}
		if cfg.PrimaryLeagueID != "d2" {
			t.Fatalf("unexpected primary league: %s", cfg.PrimaryLeagueID)
		}
	})

	t.Run("primary must be listed", func(t *testing.T) {
		t.Setenv("WABA_LEAGUES", "d1")
		t.Setenv("WABA_PRIMARY_LEAGUE", "d9")
		if _, err := Load(); err == nil {
			t.Fatalf("expected error for unknown primary league")
		}
	})

	t.Run("duplicate id", func(t *testing.T) {
		t.Setenv("WABA_LEAGUES", "d1,d1")
		t.Setenv("WABA_PRIMARY_LEAGUE", "")
		if _, err := Load(); err == nil {
			t.Fatalf("expected error for duplicate league id")
		}
	})

	t.Run("invalid url", func(t *testing.T) {
		t.Setenv("WABA_LEAGUES", "d1=not a url")
		t.Setenv("WABA_PRIMARY_LEAGUE", "")
		if _, err := Load(); err == nil {
			t.Fatalf("expected error for invalid league url")
		}
	})
}

func TestLoad_ScrapeValidation(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)

	t.Run("workers must be positive", func(t *testing.T) {
		t.Setenv("SCRAPE_WORKERS", "0")
		if _, err := Load(); err == nil {
			t.Fatalf("expected error for SCRAPE_WORKERS=0")
		}
	})

	t.Run("invalid timeout", func(t *testing.T) {
		t.Setenv("SCRAPE_WORKERS", "")
		t.Setenv("SCRAPE_TIMEOUT", "soon")
		if _, err := Load(); err == nil {
			t.Fatalf("expected error for invalid SCRAPE_TIMEOUT")
		}
	})

	t.Run("circuit failure count", func(t *testing.T) {
		t.Setenv("SCRAPE_TIMEOUT", "")
		t.Setenv("RENDER_PROXY_CIRCUIT_FAILURE_COUNT", "0")
		if _, err := Load(); err == nil {
			t.Fatalf("expected error for RENDER_PROXY_CIRCUIT_FAILURE_COUNT=0")
		}
	})
}

func TestLoad_DBDriverValidation(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)

	t.Setenv("DB_DRIVER", "Memory")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.DBDriver != DBDriverMemory {
		t.Fatalf("unexpected DB driver: %s", cfg.DBDriver)
	}

	t.Setenv("DB_DRIVER", "sqlite")
	if _, err := Load(); err == nil {
		t.Fatalf("expected error for unsupported DB_DRIVER")
	}
}

func TestLoad_UptraceRequiresDSNWhenEnabled(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("UPTRACE_ENABLED", "true")
	t.Setenv("UPTRACE_DSN", "")

	if _, err := Load(); err == nil {
		t.Fatalf("expected error when UPTRACE_ENABLED=true without UPTRACE_DSN")
	}
}

func TestLoad_UptraceDSNFromOTLPHeaders(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("UPTRACE_ENABLED", "true")
	t.Setenv("UPTRACE_DSN", "")
	t.Setenv("OTEL_EXPORTER_OTLP_HEADERS", `uptrace-dsn="https://token@api.uptrace.dev?grpc=4317"`)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.UptraceDSN != "https://token@api.uptrace.dev?grpc=4317" {
		t.Fatalf("unexpected uptrace dsn: %q", cfg.UptraceDSN)
	}
}

func TestLoad_BetterStackConfigParsing(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("BETTERSTACK_ENABLED", "true")
	t.Setenv("BETTERSTACK_ENDPOINT", "s1765114.eu-fsn-3.betterstackdata.com")
	t.Setenv("BETTERSTACK_TOKEN", "token-123")
	t.Setenv("BETTERSTACK_TIMEOUT", "4s")
	t.Setenv("BETTERSTACK_MIN_LEVEL", "warn")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.BetterStackTimeout != 4*time.Second {
		t.Fatalf("unexpected BetterStackTimeout: %s", cfg.BetterStackTimeout)
	}
	if cfg.BetterStackMinLevel.String() != "warn" {
		t.Fatalf("unexpected BetterStackMinLevel: %s", cfg.BetterStackMinLevel.String())
	}
}

func TestLoad_PprofDefaultsAddrWhenEnabled(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("PPROF_ENABLED", "true")
	t.Setenv("PPROF_ADDR", "  ")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.PprofAddr != ":6060" {
		t.Fatalf("expected default pprof addr :6060, got %q", cfg.PprofAddr)
	}
}

func TestLoad_PyroscopeAppNameDefaultsToServiceName(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("APP_SERVICE_NAME", "club-standings-test")
	t.Setenv("PYROSCOPE_ENABLED", "true")
	t.Setenv("PYROSCOPE_SERVER_ADDRESS", "http://localhost:4040")
	t.Setenv("PYROSCOPE_APP_NAME", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.PyroscopeAppName != "club-standings-test" {
		t.Fatalf("unexpected pyroscope app name: %q", cfg.PyroscopeAppName)
	}
}

func TestLoad_CORSOriginsParsing(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("CORS_ALLOWED_ORIGINS", " https://a.example.com, http://localhost:5173 ")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if len(cfg.CORSAllowedOrigins) != 2 || cfg.CORSAllowedOrigins[1] != "http://localhost:5173" {
		t.Fatalf("unexpected CORS origins: %+v", cfg.CORSAllowedOrigins)
	}
}

func TestLoad_CacheConfigParsing(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)

	t.Run("defaults", func(t *testing.T) {
		cfg, err := Load()
		if err != nil {
			t.Fatalf("load config: %v", err)
		}
		if !cfg.CacheEnabled || cfg.CacheTTL != 60*time.Second {
			t.Fatalf("unexpected cache defaults: enabled=%t ttl=%s", cfg.CacheEnabled, cfg.CacheTTL)
		}
	})

	t.Run("invalid ttl", func(t *testing.T) {
		t.Setenv("CACHE_TTL", "bad")
		if _, err := Load(); err == nil {
			t.Fatalf("expected error for invalid CACHE_TTL")
		}
	})
}

func TestLoad_QStashConfigParsing(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)

	t.Run("enabled requires token and cron secret", func(t *testing.T) {
		t.Setenv("QSTASH_ENABLED", "true")
		t.Setenv("QSTASH_TOKEN", "qstash-token")
		t.Setenv("CRON_SECRET", "")

		if _, err := Load(); err == nil {
			t.Fatalf("expected error when QSTASH_ENABLED=true without CRON_SECRET")
		}
	})

	t.Run("target defaults to public base url", func(t *testing.T) {
		t.Setenv("QSTASH_ENABLED", "true")
		t.Setenv("QSTASH_TOKEN", "qstash-token")
		t.Setenv("CRON_SECRET", "cron-secret")
		t.Setenv("APP_PUBLIC_BASE_URL", "https://standings.example.com/")
		t.Setenv("QSTASH_TARGET_BASE_URL", "")

		cfg, err := Load()
		if err != nil {
			t.Fatalf("load config: %v", err)
		}
		if cfg.QStashTargetBaseURL != "https://standings.example.com" {
			t.Fatalf("unexpected qstash target: %q", cfg.QStashTargetBaseURL)
		}
		if cfg.QStashDedupWindow != time.Minute {
			t.Fatalf("unexpected dedup window: %s", cfg.QStashDedupWindow)
		}
	})
}
