package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/riskibarqy/club-standings/internal/domain/standing"
	qb "github.com/riskibarqy/club-standings/internal/platform/querybuilder"
)

const standingsTable = "standings"

type StandingRepository struct {
	db *sqlx.DB
}

func NewStandingRepository(db *sqlx.DB) *StandingRepository {
	return &StandingRepository{db: db}
}

func (r *StandingRepository) ListByLeague(ctx context.Context, leagueID string) ([]standing.Row, error) {
	query, args, err := qb.Select("*").From(standingsTable).
		Where(qb.Eq("league_id", leagueID)).
		OrderBy("rank", "team").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list standings query: %w", err)
	}

	var rows []standingTableModel
	err = withStatementRetry(ctx, func(ctx context.Context) error {
		rows = rows[:0]
		return r.db.SelectContext(ctx, &rows, query, args...)
	})
	if err != nil {
		return nil, fmt.Errorf("list standings league=%s: %w", leagueID, err)
	}

	out := make([]standing.Row, 0, len(rows))
	for _, row := range rows {
		out = append(out, standing.Row{
			Rank:        row.Rank,
			Team:        row.Team,
			GP:          row.GP,
			W:           row.W,
			L:           row.L,
			Pts:         row.Pts,
			Opts:        row.Opts,
			Diff:        row.Diff,
			LeagueID:    row.LeagueID,
			LastUpdated: row.LastUpdated.UTC(),
		})
	}

	return out, nil
}

func (r *StandingRepository) ReplaceByLeague(ctx context.Context, leagueID string, rows []standing.Row) (standing.ReplaceResult, error) {
	deleteQuery, deleteArgs, err := qb.DeleteFrom(standingsTable).
		Where(qb.Eq("league_id", leagueID)).
		ToSQL()
	if err != nil {
		return standing.ReplaceResult{}, fmt.Errorf("build delete standings query: %w", err)
	}

	var insertQuery string
	var insertArgs []any
	if len(rows) > 0 {
		models := make([]standingInsertModel, 0, len(rows))
		for _, row := range rows {
			models = append(models, standingInsertModel{
				LeagueID:    leagueID,
				Rank:        row.Rank,
				Team:        row.Team,
				GP:          row.GP,
				W:           row.W,
				L:           row.L,
				Pts:         row.Pts,
				Opts:        row.Opts,
				Diff:        row.Diff,
				LastUpdated: row.LastUpdated,
			})
		}
		insertQuery, insertArgs, err = qb.InsertModels(standingsTable, models, "")
		if err != nil {
			return standing.ReplaceResult{}, fmt.Errorf("build insert standings query: %w", err)
		}
	}

	var result standing.ReplaceResult
	err = withStatementRetry(ctx, func(ctx context.Context) error {
		res, err := r.replaceTx(ctx, deleteQuery, deleteArgs, insertQuery, insertArgs)
		result = res
		return err
	})
	if err != nil {
		return standing.ReplaceResult{}, fmt.Errorf("replace standings league=%s: %w", leagueID, err)
	}
	return result, nil
}

func (r *StandingRepository) replaceTx(ctx context.Context, deleteQuery string, deleteArgs []any, insertQuery string, insertArgs []any) (standing.ReplaceResult, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return standing.ReplaceResult{}, fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	res, err := tx.ExecContext(ctx, deleteQuery, deleteArgs...)
	if err != nil {
		return standing.ReplaceResult{}, fmt.Errorf("delete standings: %w", err)
	}
	deleted, err := res.RowsAffected()
	if err != nil {
		return standing.ReplaceResult{}, fmt.Errorf("delete standings rows affected: %w", err)
	}

	var inserted int64
	if insertQuery != "" {
		res, err := tx.ExecContext(ctx, insertQuery, insertArgs...)
		if err != nil {
			return standing.ReplaceResult{}, fmt.Errorf("insert standings: %w", err)
		}
		if inserted, err = res.RowsAffected(); err != nil {
			return standing.ReplaceResult{}, fmt.Errorf("insert standings rows affected: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return standing.ReplaceResult{}, fmt.Errorf("commit tx: %w", err)
	}
	return standing.ReplaceResult{Deleted: int(deleted), Inserted: int(inserted)}, nil
}
