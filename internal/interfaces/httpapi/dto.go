package httpapi

import (
	"github.com/riskibarqy/club-standings/internal/domain/scraperun"
	"github.com/riskibarqy/club-standings/internal/domain/standing"
	"github.com/riskibarqy/club-standings/internal/usecase"
)

type standingRowDTO struct {
	Rank        int    `json:"rank"`
	Team        string `json:"team"`
	GP          int    `json:"gp"`
	W           int    `json:"w"`
	L           int    `json:"l"`
	Pts         int    `json:"pts"`
	Opts        int    `json:"opts"`
	Diff        int    `json:"diff"`
	LeagueID    string `json:"leagueId"`
	LastUpdated string `json:"lastUpdated"`
}

type standingsResponse struct {
	Success     bool             `json:"success"`
	Standings   []standingRowDTO `json:"standings"`
	LastUpdated *string          `json:"lastUpdated"`
	IsStale     bool             `json:"isStale"`
	TotalTeams  int              `json:"totalTeams"`
}

type cronUpdateResponse struct {
	Success       bool     `json:"success"`
	Message       string   `json:"message"`
	Timestamp     string   `json:"timestamp"`
	DeletedCount  int      `json:"deletedCount"`
	InsertedCount int      `json:"insertedCount"`
	Leagues       []string `json:"leagues"`
}

type updateResponse struct {
	Success   bool             `json:"success"`
	Message   string           `json:"message"`
	Standings []standingRowDTO `json:"standings"`
	Timestamp string           `json:"timestamp"`
}

type queuedUpdateResponse struct {
	Success   bool   `json:"success"`
	Message   string `json:"message"`
	JobID     string `json:"jobId"`
	Timestamp string `json:"timestamp"`
}

type scrapeRunDTO struct {
	RunID         string `json:"runId"`
	Trigger       string `json:"trigger"`
	LeagueID      string `json:"leagueId"`
	Status        string `json:"status"`
	Attempts      int    `json:"attempts"`
	DeletedCount  int    `json:"deletedCount"`
	InsertedCount int    `json:"insertedCount"`
	Error         string `json:"error,omitempty"`
	StartedAt     string `json:"startedAt"`
	FinishedAt    string `json:"finishedAt"`
	DurationMS    int64  `json:"durationMs"`
	TraceID       string `json:"traceId,omitempty"`
}

type scrapeRunsResponse struct {
	Success bool           `json:"success"`
	Runs    []scrapeRunDTO `json:"runs"`
}

type healthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
}

func toStandingRowDTOs(rows []standing.Row) []standingRowDTO {
	out := make([]standingRowDTO, 0, len(rows))
	for _, row := range rows {
		out = append(out, standingRowDTO{
			Rank:        row.Rank,
			Team:        row.Team,
			GP:          row.GP,
			W:           row.W,
			L:           row.L,
			Pts:         row.Pts,
			Opts:        row.Opts,
			Diff:        row.Diff,
			LeagueID:    row.LeagueID,
			LastUpdated: formatTime(row.LastUpdated),
		})
	}
	return out
}

func toStandingsResponse(view usecase.StandingsView) standingsResponse {
	resp := standingsResponse{
		Success:    true,
		Standings:  toStandingRowDTOs(view.Standings),
		IsStale:    view.IsStale,
		TotalTeams: view.TotalTeams,
	}
	if view.LastUpdated != nil {
		formatted := formatTime(*view.LastUpdated)
		resp.LastUpdated = &formatted
	}
	return resp
}

func toScrapeRunDTOs(runs []scraperun.Run) []scrapeRunDTO {
	out := make([]scrapeRunDTO, 0, len(runs))
	for _, run := range runs {
		out = append(out, scrapeRunDTO{
			RunID:         run.RunID,
			Trigger:       string(run.Trigger),
			LeagueID:      run.LeagueID,
			Status:        string(run.Status),
			Attempts:      run.Attempts,
			DeletedCount:  run.DeletedCount,
			InsertedCount: run.InsertedCount,
			Error:         run.ErrorMessage,
			StartedAt:     formatTime(run.StartedAt),
			FinishedAt:    formatTime(run.FinishedAt),
			DurationMS:    run.Duration().Milliseconds(),
			TraceID:       run.TraceID,
		})
	}
	return out
}

func syncedLeagueIDs(result usecase.SyncResult) []string {
	out := make([]string, 0, len(result.Leagues))
	for _, league := range result.Leagues {
		out = append(out, league.LeagueID)
	}
	return out
}
