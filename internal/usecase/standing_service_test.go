package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/riskibarqy/club-standings/internal/domain/standing"
)

func TestStandingService_Get_Staleness(t *testing.T) {
	t.Parallel()

	repo := newStubStandingRepo()
	svc := NewStandingService(repo, nil, nil, StandingServiceConfig{PrimaryLeagueID: "waba"}, nil)
	svc.now = func() time.Time { return testNow }

	repo.rows["waba"] = []standing.Row{{Rank: 1, Team: "Harbour Hawks", LeagueID: "waba", LastUpdated: testNow.Add(-4 * time.Hour)}}
	view, err := svc.Get(context.Background(), "")
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if !view.IsStale || view.TotalTeams != 1 || view.LastUpdated == nil {
		t.Fatalf("expected stale view for 4h old data, got %+v", view)
	}

	repo.rows["waba"][0].LastUpdated = testNow.Add(-30 * time.Minute)
	view, err = svc.Get(context.Background(), "waba")
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if view.IsStale {
		t.Fatalf("expected fresh view for 30m old data")
	}
}

func TestStandingService_Get_NoData(t *testing.T) {
	t.Parallel()

	svc := NewStandingService(newStubStandingRepo(), nil, nil, StandingServiceConfig{PrimaryLeagueID: "waba"}, nil)

	view, err := svc.Get(context.Background(), "")
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if view.IsStale || view.LastUpdated != nil || view.TotalTeams != 0 {
		t.Fatalf("unexpected empty view: %+v", view)
	}
	if view.Standings == nil {
		t.Fatalf("expected empty, non-nil standings slice")
	}
}

func TestStandingService_TriggerUpdate(t *testing.T) {
	t.Parallel()

	repo := newStubStandingRepo()
	cron := &stubCronInvoker{onInvoke: func() {
		repo.rows["waba"] = []standing.Row{{Rank: 1, Team: "Harbour Hawks", LeagueID: "waba", LastUpdated: testNow}}
	}, outcome: CronOutcome{Message: "Standings updated successfully", InsertedCount: 1}}
	svc := NewStandingService(repo, cron, nil, StandingServiceConfig{PrimaryLeagueID: "waba"}, nil)

	result, err := svc.TriggerUpdate(context.Background(), "")
	if err != nil {
		t.Fatalf("TriggerUpdate error: %v", err)
	}
	if cron.calls != 1 {
		t.Fatalf("expected one cron call, got %d", cron.calls)
	}
	if len(result.Standings) != 1 || result.Message != "Standings updated successfully" {
		t.Fatalf("unexpected update result: %+v", result)
	}
}

func TestStandingService_TriggerUpdate_UpstreamFailure(t *testing.T) {
	t.Parallel()

	cron := &stubCronInvoker{err: ErrTableNotFound}
	svc := NewStandingService(newStubStandingRepo(), cron, nil, StandingServiceConfig{PrimaryLeagueID: "waba"}, nil)

	if _, err := svc.TriggerUpdate(context.Background(), ""); !errors.Is(err, ErrTableNotFound) {
		t.Fatalf("expected upstream error, got %v", err)
	}
}

func TestStandingService_EnqueueUpdate(t *testing.T) {
	t.Parallel()

	queue := &stubJobQueue{}
	svc := NewStandingService(newStubStandingRepo(), nil, queue, StandingServiceConfig{PrimaryLeagueID: "waba", DedupBucket: 5 * time.Minute}, nil)
	svc.now = func() time.Time { return time.Date(2026, 3, 7, 18, 7, 42, 0, time.UTC) }

	dedupID, err := svc.EnqueueUpdate(context.Background())
	if err != nil {
		t.Fatalf("EnqueueUpdate error: %v", err)
	}
	if dedupID != "update-standings-waba-20260307T180500Z" {
		t.Fatalf("unexpected dedup id: %s", dedupID)
	}
	if queue.path != CronUpdatePath+"?trigger=admin" {
		t.Fatalf("unexpected queued path: %s", queue.path)
	}
}

func TestStandingService_EnqueueUpdate_Disabled(t *testing.T) {
	t.Parallel()

	svc := NewStandingService(newStubStandingRepo(), nil, nil, StandingServiceConfig{PrimaryLeagueID: "waba"}, nil)
	if _, err := svc.EnqueueUpdate(context.Background()); !errors.Is(err, ErrDependencyUnavailable) {
		t.Fatalf("expected ErrDependencyUnavailable, got %v", err)
	}
}

func TestSanitizeDedupSegment(t *testing.T) {
	t.Parallel()

	if got := sanitizeDedupSegment(" \t "); got != "unknown" {
		t.Fatalf("unexpected sanitize fallback: got=%q", got)
	}
	if got := sanitizeDedupSegment("waba:d2/spring"); strings.ContainsAny(got, ":/") {
		t.Fatalf("unsafe characters kept: %q", got)
	}
}

type stubCronInvoker struct {
	outcome  CronOutcome
	err      error
	calls    int
	onInvoke func()
}

func (s *stubCronInvoker) InvokeCron(context.Context) (CronOutcome, error) {
	s.calls++
	if s.onInvoke != nil {
		s.onInvoke()
	}
	return s.outcome, s.err
}

type stubJobQueue struct {
	path    string
	dedupID string
}

func (q *stubJobQueue) Enqueue(_ context.Context, path string, _ any, _ time.Duration, deduplicationID string) error {
	q.path = path
	q.dedupID = deduplicationID
	return nil
}
