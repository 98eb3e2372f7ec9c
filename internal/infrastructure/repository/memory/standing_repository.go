package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/riskibarqy/club-standings/internal/domain/standing"
)

// StandingRepository keeps rows per league in process memory. A replace
// swaps the league slice under the write lock.
type StandingRepository struct {
	mu    sync.RWMutex
	items map[string][]standing.Row
}

func NewStandingRepository() *StandingRepository {
	return &StandingRepository{items: make(map[string][]standing.Row)}
}

func (r *StandingRepository) ListByLeague(_ context.Context, leagueID string) ([]standing.Row, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rows := r.items[leagueID]
	out := make([]standing.Row, len(rows))
	copy(out, rows)
	return out, nil
}

func (r *StandingRepository) ReplaceByLeague(ctx context.Context, leagueID string, rows []standing.Row) (standing.ReplaceResult, error) {
	if err := ctx.Err(); err != nil {
		return standing.ReplaceResult{}, err
	}

	next := make([]standing.Row, 0, len(rows))
	for _, row := range rows {
		row.LeagueID = leagueID
		next = append(next, row)
	}
	sort.SliceStable(next, func(i, j int) bool {
		if next[i].Rank != next[j].Rank {
			return next[i].Rank < next[j].Rank
		}
		return next[i].Team < next[j].Team
	})

	r.mu.Lock()
	defer r.mu.Unlock()

	deleted := len(r.items[leagueID])
	if len(next) == 0 {
		delete(r.items, leagueID)
	} else {
		r.items[leagueID] = next
	}
	return standing.ReplaceResult{Deleted: deleted, Inserted: len(next)}, nil
}
