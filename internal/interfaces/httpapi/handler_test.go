package httpapi

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	sonic "github.com/bytedance/sonic"
	"github.com/riskibarqy/club-standings/external/cronclient"
	"github.com/riskibarqy/club-standings/internal/domain/standing"
	"github.com/riskibarqy/club-standings/internal/domain/user"
	"github.com/riskibarqy/club-standings/internal/infrastructure/repository/memory"
	"github.com/riskibarqy/club-standings/internal/platform/logging"
	"github.com/riskibarqy/club-standings/internal/usecase"
	"github.com/stretchr/testify/require"
)

const testCronSecret = "s3cret"

type routerFixture struct {
	router  http.Handler
	repo    *memory.StandingRepository
	runs    *memory.ScrapeRunRepository
	scraper *stubScraper
	cron    *stubCron
	queue   *stubQueue
}

func newRouterFixture(t *testing.T) *routerFixture {
	t.Helper()

	f := &routerFixture{
		repo:    memory.NewStandingRepository(),
		runs:    memory.NewScrapeRunRepository(),
		scraper: &stubScraper{},
		queue:   &stubQueue{},
	}
	logger := logging.NewNop()
	syncService := usecase.NewStandingSyncService(f.scraper, f.repo, f.runs, nil, usecase.StandingSyncConfig{
		Leagues:         []usecase.LeagueSource{{ID: "waba", URL: "https://waba.example.com/standings"}},
		PrimaryLeagueID: "waba",
		Timeout:         5 * time.Second,
	}, logger)
	f.cron = &stubCron{sync: syncService}
	standingService := usecase.NewStandingService(f.repo, f.cron, f.queue, usecase.StandingServiceConfig{PrimaryLeagueID: "waba"}, logger)

	verifier := &stubVerifier{principals: map[string]user.Principal{
		"admin-token": {UserID: "u-1", Roles: []string{"admin"}},
	}}
	f.router = NewRouter(NewHandler(standingService, syncService, logger), verifier, logger, RouterConfig{
		CronSecret: testCronSecret,
		AdminRole:  "admin",
	})
	return f
}

func (f *routerFixture) do(t *testing.T, path, authorization string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, path, nil)
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)

	var body map[string]any
	require.NoError(t, sonic.Unmarshal(rec.Body.Bytes(), &body), "body=%s", rec.Body.String())
	return rec, body
}

func candidates(teams ...string) []standing.Candidate {
	out := make([]standing.Candidate, 0, len(teams))
	for i, team := range teams {
		out = append(out, standing.Candidate{
			Rank: float64(i + 1), Team: team, GP: 10, W: float64(10 - i), L: float64(i),
			Pts: 800, Opts: 700, Diff: math.NaN(),
		})
	}
	return out
}

func TestPublicStandings_EmptyStore(t *testing.T) {
	f := newRouterFixture(t)

	rec, body := f.do(t, "/api/standings", "")

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, true, body["success"])
	require.Equal(t, false, body["isStale"])
	require.Nil(t, body["lastUpdated"])
	require.EqualValues(t, 0, body["totalTeams"])
	require.Empty(t, body["standings"])
}

func TestPublicStandings_FlagsStaleData(t *testing.T) {
	f := newRouterFixture(t)
	_, err := f.repo.ReplaceByLeague(context.Background(), "waba", []standing.Row{
		{Rank: 1, Team: "Harbour Hawks", GP: 3, W: 2, L: 1, LastUpdated: time.Now().Add(-4 * time.Hour)},
	})
	require.NoError(t, err)

	rec, body := f.do(t, "/api/standings", "")

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, true, body["isStale"])
	require.EqualValues(t, 1, body["totalTeams"])
	require.NotNil(t, body["lastUpdated"])
	rows := body["standings"].([]any)
	require.Equal(t, "Harbour Hawks", rows[0].(map[string]any)["team"])
	require.Equal(t, "waba", rows[0].(map[string]any)["leagueId"])
}

func TestPublicStandings_ReadFailureIsQuiet(t *testing.T) {
	logger := logging.NewNop()
	standingService := usecase.NewStandingService(failingStandingRepo{}, nil, nil, usecase.StandingServiceConfig{PrimaryLeagueID: "waba"}, logger)
	router := NewRouter(NewHandler(standingService, nil, logger), nil, logger, RouterConfig{})

	req := httptest.NewRequest(http.MethodGet, "/api/standings", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]any
	require.NoError(t, sonic.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, true, body["success"])
	require.Empty(t, body["standings"])
	require.Nil(t, body["lastUpdated"])
	require.Equal(t, false, body["isStale"])
}

func TestCronRoute_ReplacesStandings(t *testing.T) {
	f := newRouterFixture(t)
	f.scraper.set(candidates("Harbour Hawks", "Valley Vipers", "Coast Comets"), nil)

	rec, body := f.do(t, usecase.CronUpdatePath, "")
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Equal(t, codeUnauthorized, body["error"])

	rec, body = f.do(t, usecase.CronUpdatePath, "Bearer "+testCronSecret)
	require.Equal(t, http.StatusOK, rec.Code, "body=%v", body)
	require.Equal(t, true, body["success"])
	require.EqualValues(t, 0, body["deletedCount"])
	require.EqualValues(t, 3, body["insertedCount"])
	require.Equal(t, []any{"waba"}, body["leagues"])

	// A second run deletes exactly what the first inserted.
	rec, body = f.do(t, usecase.CronUpdatePath, "Bearer "+testCronSecret)
	require.Equal(t, http.StatusOK, rec.Code)
	require.EqualValues(t, 3, body["deletedCount"])
	require.EqualValues(t, 3, body["insertedCount"])

	_, body = f.do(t, "/api/standings", "")
	require.EqualValues(t, 3, body["totalTeams"])
	require.Equal(t, false, body["isStale"])
	first := body["standings"].([]any)[0].(map[string]any)
	require.EqualValues(t, 100, first["diff"])
}

func TestCronRoute_FailureKeepsPreviousRows(t *testing.T) {
	f := newRouterFixture(t)
	f.scraper.set(candidates("Harbour Hawks", "Valley Vipers"), nil)
	rec, _ := f.do(t, usecase.CronUpdatePath, "Bearer "+testCronSecret)
	require.Equal(t, http.StatusOK, rec.Code)

	f.scraper.set(nil, usecase.ErrTableNotFound)
	rec, body := f.do(t, usecase.CronUpdatePath, "Bearer "+testCronSecret)
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.Equal(t, codeScrapeFailed, body["error"])
	require.Contains(t, body["message"], "standings table not found")
	require.NotEmpty(t, body["timestamp"])

	_, body = f.do(t, "/api/standings", "")
	require.EqualValues(t, 2, body["totalTeams"])
}

func TestCronRoute_RejectsInitTrigger(t *testing.T) {
	f := newRouterFixture(t)

	rec, body := f.do(t, usecase.CronUpdatePath+"?trigger=init", "Bearer "+testCronSecret)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, codeInvalidInput, body["error"])
}

func TestUpdateRoute_RequiresAdmin(t *testing.T) {
	f := newRouterFixture(t)

	rec, body := f.do(t, "/api/standings/update", "")
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Equal(t, codeUnauthorized, body["error"])

	rec, _ = f.do(t, "/api/standings/update", "Bearer "+testCronSecret)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Zero(t, f.cron.calls)
}

func TestUpdateRoute_ReturnsFreshStandings(t *testing.T) {
	f := newRouterFixture(t)
	f.scraper.set(candidates("Harbour Hawks", "Valley Vipers"), nil)

	rec, body := f.do(t, "/api/standings/update", "Bearer admin-token")

	require.Equal(t, http.StatusOK, rec.Code, "body=%v", body)
	require.Equal(t, true, body["success"])
	require.Equal(t, cronSuccessMessage, body["message"])
	require.Len(t, body["standings"], 2)
	require.Equal(t, 1, f.cron.calls)
}

func TestUpdateRoute_UpstreamFailure(t *testing.T) {
	f := newRouterFixture(t)
	f.scraper.set(nil, usecase.ErrNoTeamsParsed)

	rec, body := f.do(t, "/api/standings/update", "Bearer admin-token")

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.Equal(t, codeScrapeFailed, body["error"])
}

func TestUpdateRoute_RelaysUpstreamRejection(t *testing.T) {
	f := newRouterFixture(t)
	f.cron.err = &cronclient.UpstreamError{StatusCode: http.StatusUnauthorized, Code: codeUnauthorized, Message: "Unauthorized"}

	rec, body := f.do(t, "/api/standings/update", "Bearer admin-token")

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.Equal(t, codeUnauthorized, body["error"])
}

func TestCronRoute_OpenRendererCircuitIsScrapeFailure(t *testing.T) {
	f := newRouterFixture(t)
	f.scraper.set(nil, fmt.Errorf("%w: circuit breaker is open", usecase.ErrRendererCircuitOpen))

	rec, body := f.do(t, usecase.CronUpdatePath, "Bearer "+testCronSecret)

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.Equal(t, codeScrapeFailed, body["error"])
}

func TestUpdateRoute_Async(t *testing.T) {
	f := newRouterFixture(t)

	rec, body := f.do(t, "/api/standings/update?async=true", "Bearer admin-token")

	require.Equal(t, http.StatusAccepted, rec.Code)
	require.Equal(t, true, body["success"])
	require.NotEmpty(t, body["jobId"])
	require.Equal(t, usecase.CronUpdatePath+"?trigger=admin", f.queue.path)
	require.Zero(t, f.cron.calls)

	rec, _ = f.do(t, "/api/standings/update?async=maybe", "Bearer admin-token")
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestInitRoute_RecordsRun(t *testing.T) {
	f := newRouterFixture(t)
	f.scraper.set(candidates("Harbour Hawks"), nil)

	rec, body := f.do(t, "/api/standings/init", "Bearer admin-token")
	require.Equal(t, http.StatusOK, rec.Code, "body=%v", body)
	require.Len(t, body["standings"], 1)

	rec, body = f.do(t, "/api/standings/runs?limit=5", "Bearer admin-token")
	require.Equal(t, http.StatusOK, rec.Code)
	runs := body["runs"].([]any)
	require.Len(t, runs, 1)
	run := runs[0].(map[string]any)
	require.Equal(t, "init", run["trigger"])
	require.Equal(t, "completed", run["status"])
	require.EqualValues(t, 1, run["insertedCount"])

	rec, body = f.do(t, "/api/standings/runs?limit=abc", "Bearer admin-token")
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, codeInvalidInput, body["error"])
}

func TestHealthz(t *testing.T) {
	f := newRouterFixture(t)

	rec, body := f.do(t, "/healthz", "")

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "ok", body["status"])
}

type stubScraper struct {
	mu         sync.Mutex
	candidates []standing.Candidate
	err        error
}

func (s *stubScraper) set(candidates []standing.Candidate, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.candidates = candidates
	s.err = err
}

func (s *stubScraper) Scrape(context.Context, usecase.LeagueSource) ([]standing.Candidate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	return append([]standing.Candidate(nil), s.candidates...), nil
}

// stubCron runs the sync service in-process, the way the cron route would.
type stubCron struct {
	sync  *usecase.StandingSyncService
	err   error
	calls int
}

func (c *stubCron) InvokeCron(ctx context.Context) (usecase.CronOutcome, error) {
	c.calls++
	if c.err != nil {
		return usecase.CronOutcome{}, c.err
	}
	result, err := c.sync.Run(ctx, usecase.SyncInput{})
	if err != nil {
		return usecase.CronOutcome{}, err
	}
	return usecase.CronOutcome{
		Message:       cronSuccessMessage,
		DeletedCount:  result.DeletedCount,
		InsertedCount: result.InsertedCount,
	}, nil
}

type stubQueue struct {
	path string
}

func (q *stubQueue) Enqueue(_ context.Context, path string, _ any, _ time.Duration, _ string) error {
	q.path = path
	return nil
}

type failingStandingRepo struct{}

func (failingStandingRepo) ListByLeague(context.Context, string) ([]standing.Row, error) {
	return nil, errors.New("connection refused")
}

func (failingStandingRepo) ReplaceByLeague(context.Context, string, []standing.Row) (standing.ReplaceResult, error) {
	return standing.ReplaceResult{}, errors.New("connection refused")
}
