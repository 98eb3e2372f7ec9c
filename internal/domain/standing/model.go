package standing

import "time"

// StalenessWindow is the maximum age of stored rows before readers flag them.
const StalenessWindow = 3 * time.Hour

// Row is one persisted league table row for a team.
type Row struct {
	Rank        int       `json:"rank" validate:"gte=1"`
	Team        string    `json:"team" validate:"required"`
	GP          int       `json:"gp" validate:"gte=0"`
	W           int       `json:"w" validate:"gte=0"`
	L           int       `json:"l" validate:"gte=0"`
	Pts         int       `json:"pts"`
	Opts        int       `json:"opts"`
	Diff        int       `json:"diff"`
	LeagueID    string    `json:"leagueId" validate:"required"`
	LastUpdated time.Time `json:"lastUpdated"`
}

// Candidate is a scraped row before validation. Numeric fields hold NaN when
// the source cell could not be parsed.
type Candidate struct {
	Rank float64
	Team string
	GP   float64
	W    float64
	L    float64
	Pts  float64
	Opts float64
	Diff float64
}

// ReplaceResult reports the row counts of one delete-then-insert replacement.
type ReplaceResult struct {
	Deleted  int
	Inserted int
}

// IsStale reports whether data stamped at lastUpdated is older than the
// staleness window. A zero time means no data and is never stale.
func IsStale(lastUpdated, now time.Time) bool {
	if lastUpdated.IsZero() {
		return false
	}
	return now.Sub(lastUpdated) > StalenessWindow
}

// LatestUpdate returns the most recent LastUpdated across rows.
func LatestUpdate(rows []Row) time.Time {
	var latest time.Time
	for _, row := range rows {
		if row.LastUpdated.After(latest) {
			latest = row.LastUpdated
		}
	}
	return latest
}
