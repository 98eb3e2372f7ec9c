package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/riskibarqy/club-standings/internal/domain/scraperun"
)

const maxRetainedRuns = 500

type ScrapeRunRepository struct {
	mu   sync.RWMutex
	runs []scraperun.Run
}

func NewScrapeRunRepository() *ScrapeRunRepository {
	return &ScrapeRunRepository{}
}

func (r *ScrapeRunRepository) Insert(_ context.Context, run scraperun.Run) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.runs {
		if existing.RunID == run.RunID {
			return nil
		}
	}
	r.runs = append(r.runs, run)
	if len(r.runs) > maxRetainedRuns {
		r.runs = append([]scraperun.Run(nil), r.runs[len(r.runs)-maxRetainedRuns:]...)
	}
	return nil
}

func (r *ScrapeRunRepository) ListRecent(_ context.Context, limit int) ([]scraperun.Run, error) {
	r.mu.RLock()
	out := make([]scraperun.Run, len(r.runs))
	copy(out, r.runs)
	r.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].StartedAt.After(out[j].StartedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
