package postgres

import (
	"database/sql"
	"time"
)

type scrapeRunTableModel struct {
	ID            int64          `db:"id"`
	RunID         string         `db:"run_id"`
	Trigger       string         `db:"trigger"`
	LeagueID      string         `db:"league_id"`
	Status        string         `db:"status"`
	Attempts      int            `db:"attempts"`
	DeletedCount  int            `db:"deleted_count"`
	InsertedCount int            `db:"inserted_count"`
	ErrorMessage  sql.NullString `db:"error_message"`
	StartedAt     time.Time      `db:"started_at"`
	FinishedAt    time.Time      `db:"finished_at"`
	TraceID       sql.NullString `db:"trace_id"`
	SpanID        sql.NullString `db:"span_id"`
	CreatedAt     time.Time      `db:"created_at"`
}

type scrapeRunInsertModel struct {
	RunID         string    `db:"run_id"`
	Trigger       string    `db:"trigger"`
	LeagueID      string    `db:"league_id"`
	Status        string    `db:"status"`
	Attempts      int       `db:"attempts"`
	DeletedCount  int       `db:"deleted_count"`
	InsertedCount int       `db:"inserted_count"`
	ErrorMessage  *string   `db:"error_message"`
	StartedAt     time.Time `db:"started_at"`
	FinishedAt    time.Time `db:"finished_at"`
	TraceID       *string   `db:"trace_id"`
	SpanID        *string   `db:"span_id"`
}

func optionalString(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}
