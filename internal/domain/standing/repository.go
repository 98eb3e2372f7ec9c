package standing

import "context"

type Repository interface {
	// ListByLeague returns rows ordered by rank then team.
	ListByLeague(ctx context.Context, leagueID string) ([]Row, error)
	// ReplaceByLeague deletes every stored row for leagueID and inserts rows
	// in one transaction. A failed call leaves the previous rows in place.
	ReplaceByLeague(ctx context.Context, leagueID string, rows []Row) (ReplaceResult, error)
}
