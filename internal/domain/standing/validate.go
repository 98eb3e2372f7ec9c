package standing

import (
	"math"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

var rowValidator = validator.New(validator.WithRequiredStructEnabled())

// Validate converts candidates into rows for leagueID stamped with now.
// A candidate is kept only when it has a team name and finite gp, w and l.
// Unparsable pts and opts become zero; an unparsable diff becomes pts - opts;
// an unparsable rank becomes the candidate's position. Rejected candidates
// are dropped without failing the batch.
func Validate(candidates []Candidate, leagueID string, now time.Time) []Row {
	leagueID = strings.TrimSpace(leagueID)
	now = now.UTC()

	rows := make([]Row, 0, len(candidates))
	for i, c := range candidates {
		team := strings.Join(strings.Fields(c.Team), " ")
		if team == "" || !finite(c.GP) || !finite(c.W) || !finite(c.L) {
			continue
		}

		pts := intOrZero(c.Pts)
		opts := intOrZero(c.Opts)
		diff := pts - opts
		if finite(c.Diff) {
			diff = int(math.Round(c.Diff))
		}
		rank := i + 1
		if finite(c.Rank) && c.Rank >= 1 {
			rank = int(math.Round(c.Rank))
		}

		row := Row{
			Rank:        rank,
			Team:        team,
			GP:          int(math.Round(c.GP)),
			W:           int(math.Round(c.W)),
			L:           int(math.Round(c.L)),
			Pts:         pts,
			Opts:        opts,
			Diff:        diff,
			LeagueID:    leagueID,
			LastUpdated: now,
		}
		if err := rowValidator.Struct(row); err != nil {
			continue
		}
		rows = append(rows, row)
	}

	return rows
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func intOrZero(v float64) int {
	if !finite(v) {
		return 0
	}
	return int(math.Round(v))
}
