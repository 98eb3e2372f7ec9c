package httpapi

import (
	"net/http"

	"github.com/riskibarqy/club-standings/internal/usecase"
)

func registerSystemRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("GET /healthz", handler.Healthz)
}

func registerPublicRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("GET /api/standings", handler.GetStandings)
}

// registerCronRoutes exposes the scheduled trigger. The external scheduler and
// the admin update route both call it with the cron secret.
func registerCronRoutes(mux *http.ServeMux, handler *Handler, cronSecret string) {
	mux.Handle("GET "+usecase.CronUpdatePath, RequireCronSecret(cronSecret, http.HandlerFunc(handler.CronUpdateStandings)))
}

func registerAdminRoutes(mux *http.ServeMux, handler *Handler, verifier TokenVerifier, adminRole string) {
	mux.Handle("GET /api/standings/update", RequireAdmin(verifier, adminRole, http.HandlerFunc(handler.UpdateStandings)))
	mux.Handle("GET /api/standings/init", RequireAdmin(verifier, adminRole, http.HandlerFunc(handler.InitStandings)))
	mux.Handle("GET /api/standings/runs", RequireAdmin(verifier, adminRole, http.HandlerFunc(handler.ListScrapeRuns)))
}
