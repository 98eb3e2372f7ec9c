package app

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/riskibarqy/club-standings/internal/config"
	"github.com/riskibarqy/club-standings/internal/infrastructure/account/anubis"
	"github.com/riskibarqy/club-standings/internal/interfaces/httpapi"
	"github.com/riskibarqy/club-standings/internal/platform/logging"
)

func NewHTTPServer(cfg config.Config, container *Container, logger *logging.Logger) (*http.Server, error) {
	if container == nil {
		return nil, fmt.Errorf("app container is required")
	}
	if logger == nil {
		logger = logging.Default()
	}

	var verifier httpapi.TokenVerifier
	if strings.TrimSpace(cfg.AnubisBaseURL) != "" {
		verifier = anubis.NewClient(
			&http.Client{Timeout: cfg.AnubisTimeout},
			anubis.Config{
				BaseURL:        cfg.AnubisBaseURL,
				IntrospectPath: cfg.AnubisIntrospectURL,
				AdminKey:       cfg.AnubisAdminKey,
				Timeout:        cfg.AnubisTimeout,
				PrincipalTTL:   cfg.AnubisPrincipalTTL,
				CircuitBreaker: cfg.AnubisCircuit,
			},
			logger,
		)
	} else {
		logger.Warn("admin routes disabled", "reason", "ANUBIS_BASE_URL empty")
	}

	handler := httpapi.NewHandler(container.StandingService, container.SyncService, logger)
	router := httpapi.NewRouter(handler, verifier, logger, httpapi.RouterConfig{
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		CronSecret:         cfg.CronSecret,
		AdminRole:          cfg.AdminRole,
	})

	server := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	if server.Addr == "" {
		return nil, fmt.Errorf("http server addr cannot be empty")
	}

	return server, nil
}
