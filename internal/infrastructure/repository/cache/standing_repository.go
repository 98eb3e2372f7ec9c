package cache

import (
	"context"

	"github.com/riskibarqy/club-standings/internal/domain/standing"
	basecache "github.com/riskibarqy/club-standings/internal/platform/cache"
)

// StandingRepository serves public reads from a TTL cache and drops the
// league's entries whenever its rows are replaced.
type StandingRepository struct {
	next  standing.Repository
	cache *basecache.Store[[]standing.Row]
}

func NewStandingRepository(next standing.Repository, cache *basecache.Store[[]standing.Row]) *StandingRepository {
	return &StandingRepository{next: next, cache: cache}
}

func leaguePrefix(leagueID string) string {
	return "standings:league:" + leagueID + ":"
}

func (r *StandingRepository) ListByLeague(ctx context.Context, leagueID string) ([]standing.Row, error) {
	items, err := r.cache.GetOrLoad(ctx, leaguePrefix(leagueID)+"list", func(ctx context.Context) ([]standing.Row, error) {
		items, err := r.next.ListByLeague(ctx, leagueID)
		if err != nil {
			return nil, err
		}
		return append([]standing.Row(nil), items...), nil
	})
	if err != nil {
		return nil, err
	}

	return append([]standing.Row(nil), items...), nil
}

func (r *StandingRepository) ReplaceByLeague(ctx context.Context, leagueID string, rows []standing.Row) (standing.ReplaceResult, error) {
	res, err := r.next.ReplaceByLeague(ctx, leagueID, rows)
	// A failed replace may still have committed before the error surfaced.
	r.cache.DeletePrefix(ctx, leaguePrefix(leagueID))
	return res, err
}
