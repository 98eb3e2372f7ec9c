package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/riskibarqy/club-standings/internal/domain/scraperun"
	qb "github.com/riskibarqy/club-standings/internal/platform/querybuilder"
)

const scrapeRunsTable = "scrape_runs"

type ScrapeRunRepository struct {
	db *sqlx.DB
}

func NewScrapeRunRepository(db *sqlx.DB) *ScrapeRunRepository {
	return &ScrapeRunRepository{db: db}
}

func (r *ScrapeRunRepository) Insert(ctx context.Context, run scraperun.Run) error {
	query, args, err := qb.InsertModel(scrapeRunsTable, scrapeRunInsertModel{
		RunID:         run.RunID,
		Trigger:       string(run.Trigger),
		LeagueID:      run.LeagueID,
		Status:        string(run.Status),
		Attempts:      run.Attempts,
		DeletedCount:  run.DeletedCount,
		InsertedCount: run.InsertedCount,
		ErrorMessage:  optionalString(run.ErrorMessage),
		StartedAt:     run.StartedAt,
		FinishedAt:    run.FinishedAt,
		TraceID:       optionalString(run.TraceID),
		SpanID:        optionalString(run.SpanID),
	}, "ON CONFLICT (run_id) DO NOTHING")
	if err != nil {
		return fmt.Errorf("build insert scrape run query: %w", err)
	}

	err = withStatementRetry(ctx, func(ctx context.Context) error {
		_, err := r.db.ExecContext(ctx, query, args...)
		return err
	})
	if err != nil {
		return fmt.Errorf("insert scrape run id=%s: %w", run.RunID, err)
	}
	return nil
}

func (r *ScrapeRunRepository) ListRecent(ctx context.Context, limit int) ([]scraperun.Run, error) {
	query, args, err := qb.Select("*").From(scrapeRunsTable).
		OrderBy("started_at DESC", "id DESC").
		Limit(limit).
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list scrape runs query: %w", err)
	}

	var rows []scrapeRunTableModel
	err = withStatementRetry(ctx, func(ctx context.Context) error {
		rows = rows[:0]
		return r.db.SelectContext(ctx, &rows, query, args...)
	})
	if err != nil {
		return nil, fmt.Errorf("list scrape runs: %w", err)
	}

	out := make([]scraperun.Run, 0, len(rows))
	for _, row := range rows {
		out = append(out, scraperun.Run{
			RunID:         row.RunID,
			Trigger:       scraperun.Trigger(row.Trigger),
			LeagueID:      row.LeagueID,
			Status:        scraperun.Status(row.Status),
			Attempts:      row.Attempts,
			DeletedCount:  row.DeletedCount,
			InsertedCount: row.InsertedCount,
			ErrorMessage:  row.ErrorMessage.String,
			StartedAt:     row.StartedAt.UTC(),
			FinishedAt:    row.FinishedAt.UTC(),
			TraceID:       row.TraceID.String,
			SpanID:        row.SpanID.String,
		})
	}
	return out, nil
}
