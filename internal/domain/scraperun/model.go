package scraperun

import "time"

type Trigger string

const (
	TriggerCron  Trigger = "cron"
	TriggerAdmin Trigger = "admin"
	TriggerInit  Trigger = "init"
)

func (t Trigger) Valid() bool {
	switch t {
	case TriggerCron, TriggerAdmin, TriggerInit:
		return true
	}
	return false
}

type Status string

const (
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Run is the audit record of one scrape-and-replace for one league.
type Run struct {
	RunID         string
	Trigger       Trigger
	LeagueID      string
	Status        Status
	Attempts      int
	DeletedCount  int
	InsertedCount int
	ErrorMessage  string
	StartedAt     time.Time
	FinishedAt    time.Time
	TraceID       string
	SpanID        string
}

func (r Run) Duration() time.Duration {
	if r.FinishedAt.Before(r.StartedAt) {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}
