package httpapi

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/riskibarqy/club-standings/internal/domain/scraperun"
	"github.com/riskibarqy/club-standings/internal/domain/standing"
	"github.com/riskibarqy/club-standings/internal/platform/logging"
	"github.com/riskibarqy/club-standings/internal/usecase"
)

const cronSuccessMessage = "Standings updated successfully"

type Handler struct {
	standingService *usecase.StandingService
	syncService     *usecase.StandingSyncService
	logger          *logging.Logger
}

func NewHandler(
	standingService *usecase.StandingService,
	syncService *usecase.StandingSyncService,
	logger *logging.Logger,
) *Handler {
	if logger == nil {
		logger = logging.Default()
	}

	return &Handler{
		standingService: standingService,
		syncService:     syncService,
		logger:          logger,
	}
}

func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.Healthz")
	defer span.End()

	writeJSON(ctx, w, http.StatusOK, healthResponse{Status: "ok", Timestamp: timestamp()})
}

// CronUpdateStandings runs the scrape-and-replace trigger. The trigger query
// parameter only labels the audit record; init is reserved for InitStandings.
func (h *Handler) CronUpdateStandings(w http.ResponseWriter, r *http.Request) {
	leagueIDs := leagueIDsFromQuery(r)
	ctx, span := startSpan(r.Context(), "httpapi.Handler.CronUpdateStandings", leagueAttributes(leagueIDs...)...)
	defer span.End()

	trigger := scraperun.TriggerCron
	if raw := strings.TrimSpace(r.URL.Query().Get("trigger")); raw != "" {
		trigger = scraperun.Trigger(strings.ToLower(raw))
		if trigger != scraperun.TriggerCron && trigger != scraperun.TriggerAdmin {
			writeError(ctx, w, fmt.Errorf("%w: unsupported trigger %q", usecase.ErrInvalidInput, raw))
			return
		}
	}

	result, err := h.syncService.Run(ctx, usecase.SyncInput{
		Trigger:   trigger,
		LeagueIDs: leagueIDs,
	})
	annotateSyncResult(span, result)
	if err != nil {
		h.logger.ErrorContext(ctx, "cron standings update failed", "trigger", string(trigger), "error", err)
		writeError(ctx, w, err)
		return
	}

	writeJSON(ctx, w, http.StatusOK, cronUpdateResponse{
		Success:       true,
		Message:       cronSuccessMessage,
		Timestamp:     timestamp(),
		DeletedCount:  result.DeletedCount,
		InsertedCount: result.InsertedCount,
		Leagues:       syncedLeagueIDs(result),
	})
}

// GetStandings never fails loudly: a read error is logged and answered with
// an empty, non-stale table.
func (h *Handler) GetStandings(w http.ResponseWriter, r *http.Request) {
	leagueID := strings.TrimSpace(r.URL.Query().Get("leagueId"))
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetStandings", leagueAttributes(leagueID)...)
	defer span.End()
	view, err := h.standingService.Get(ctx, leagueID)
	if err != nil {
		h.logger.ErrorContext(ctx, "get standings failed", "league_id", leagueID, "error", err)
		view = usecase.StandingsView{LeagueID: leagueID, Standings: []standing.Row{}}
	}

	writeJSON(ctx, w, http.StatusOK, toStandingsResponse(view))
}

// UpdateStandings reruns the cron route on behalf of an admin. With
// async=true the call is queued and the route answers 202.
func (h *Handler) UpdateStandings(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.UpdateStandings")
	defer span.End()

	principal, _ := principalFromContext(ctx)
	leagueID := strings.TrimSpace(r.URL.Query().Get("leagueId"))

	async, err := parseOptionalBool(r.URL.Query().Get("async"))
	if err != nil {
		writeError(ctx, w, fmt.Errorf("%w: async must be a boolean", usecase.ErrInvalidInput))
		return
	}
	if async {
		jobID, err := h.standingService.EnqueueUpdate(ctx)
		if err != nil {
			h.logger.ErrorContext(ctx, "enqueue standings update failed", "user_id", principal.UserID, "error", err)
			writeError(ctx, w, err)
			return
		}
		writeJSON(ctx, w, http.StatusAccepted, queuedUpdateResponse{
			Success:   true,
			Message:   "Standings update queued",
			JobID:     jobID,
			Timestamp: timestamp(),
		})
		return
	}

	result, err := h.standingService.TriggerUpdate(ctx, leagueID)
	if err != nil {
		h.logger.ErrorContext(ctx, "admin standings update failed", "user_id", principal.UserID, "error", err)
		writeError(ctx, w, err)
		return
	}

	h.logger.InfoContext(ctx, "admin standings update completed",
		"user_id", principal.UserID,
		"teams", len(result.Standings),
	)
	writeJSON(ctx, w, http.StatusOK, updateResponse{
		Success:   true,
		Message:   result.Message,
		Standings: toStandingRowDTOs(result.Standings),
		Timestamp: timestamp(),
	})
}

// InitStandings seeds the table in-process, without the cron round trip.
func (h *Handler) InitStandings(w http.ResponseWriter, r *http.Request) {
	leagueIDs := leagueIDsFromQuery(r)
	ctx, span := startSpan(r.Context(), "httpapi.Handler.InitStandings", leagueAttributes(leagueIDs...)...)
	defer span.End()

	result, err := h.syncService.Run(ctx, usecase.SyncInput{
		Trigger:   scraperun.TriggerInit,
		LeagueIDs: leagueIDs,
	})
	annotateSyncResult(span, result)
	if err != nil {
		h.logger.ErrorContext(ctx, "init standings failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	readLeague := ""
	if len(leagueIDs) > 0 {
		readLeague = leagueIDs[0]
	}
	view, err := h.standingService.Get(ctx, readLeague)
	if err != nil {
		h.logger.ErrorContext(ctx, "read standings after init failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	writeJSON(ctx, w, http.StatusOK, updateResponse{
		Success:   true,
		Message:   fmt.Sprintf("Standings initialized: %d teams", result.InsertedCount),
		Standings: toStandingRowDTOs(view.Standings),
		Timestamp: timestamp(),
	})
}

func (h *Handler) ListScrapeRuns(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListScrapeRuns")
	defer span.End()

	limit := 0
	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			writeError(ctx, w, fmt.Errorf("%w: limit must be an integer", usecase.ErrInvalidInput))
			return
		}
		limit = parsed
	}

	runs, err := h.syncService.ListRuns(ctx, limit)
	if err != nil {
		h.logger.ErrorContext(ctx, "list scrape runs failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	writeJSON(ctx, w, http.StatusOK, scrapeRunsResponse{Success: true, Runs: toScrapeRunDTOs(runs)})
}

// leagueIDsFromQuery accepts repeated and comma-separated leagueId values.
func leagueIDsFromQuery(r *http.Request) []string {
	var out []string
	for _, raw := range r.URL.Query()["leagueId"] {
		for _, part := range strings.Split(raw, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

func parseOptionalBool(raw string) (bool, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return false, nil
	}
	return strconv.ParseBool(raw)
}
