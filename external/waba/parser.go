package waba

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/riskibarqy/club-standings/internal/domain/standing"
	"github.com/riskibarqy/club-standings/internal/usecase"
)

type column int

const (
	colRank column = iota
	colTeam
	colGP
	colW
	colL
	colPts
	colOpts
	colDiff
)

var headerAliases = map[string]column{
	"#":        colRank,
	"rank":     colRank,
	"pos":      colRank,
	"position": colRank,

	"team": colTeam,
	"name": colTeam,
	"club": colTeam,

	"gp":     colGP,
	"g":      colGP,
	"games":  colGP,
	"played": colGP,
	"gms":    colGP,

	"w":    colW,
	"wins": colW,
	"won":  colW,

	"l":      colL,
	"losses": colL,
	"lost":   colL,

	"pts":        colPts,
	"pf":         colPts,
	"points":     colPts,
	"points for": colPts,
	"for":        colPts,

	"opts":           colOpts,
	"pa":             colOpts,
	"points against": colOpts,
	"against":        colOpts,
	"opp pts":        colOpts,

	"diff":         colDiff,
	"+/-":          colDiff,
	"pd":           colDiff,
	"differential": colDiff,
	"margin":       colDiff,
}

var rankPrefixRegex = regexp.MustCompile(`^\d+\s*[.)]\s*`)

// ParseStandings extracts candidates from the first table that has a team
// column. Numeric cells that cannot be parsed become NaN.
func ParseStandings(html string) ([]standing.Candidate, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	tables := doc.Find("table")
	if tables.Length() == 0 {
		return nil, fmt.Errorf("%w: page has no <table>", usecase.ErrTableNotFound)
	}

	var (
		columns map[column]int
		table   *goquery.Selection
		header  *goquery.Selection
	)
	tables.EachWithBreak(func(_ int, t *goquery.Selection) bool {
		h := headerRow(t)
		if h == nil {
			return true
		}
		cols := mapColumns(h)
		if _, ok := cols[colTeam]; !ok {
			return true
		}
		columns, table, header = cols, t, h
		return false
	})
	if table == nil {
		return nil, fmt.Errorf("%w: %d tables found, none with a team column", usecase.ErrTableNotFound, tables.Length())
	}

	candidates := make([]standing.Candidate, 0, 16)
	table.Find("tr").Each(func(_ int, row *goquery.Selection) {
		if row.IsSelection(header) {
			return
		}
		// Rank often sits in a row-header cell, so data rows are indexed over
		// the same cell set as the header.
		cells := row.ChildrenFiltered("th, td")
		if cells.Length() == 0 {
			return
		}
		texts := cellTexts(cells)
		if isBlankRow(texts) || isHeaderRepeat(texts, columns) {
			return
		}

		c := standing.Candidate{
			Rank: numberAt(texts, columns, colRank),
			Team: cleanTeamName(textAt(texts, columns, colTeam)),
			GP:   numberAt(texts, columns, colGP),
			W:    numberAt(texts, columns, colW),
			L:    numberAt(texts, columns, colL),
			Pts:  numberAt(texts, columns, colPts),
			Opts: numberAt(texts, columns, colOpts),
			Diff: numberAt(texts, columns, colDiff),
		}
		if math.IsNaN(c.Rank) {
			c.Rank = float64(len(candidates) + 1)
		}
		if math.IsNaN(c.Diff) && !math.IsNaN(c.Pts) && !math.IsNaN(c.Opts) {
			c.Diff = c.Pts - c.Opts
		}
		candidates = append(candidates, c)
	})

	if len(candidates) == 0 {
		return nil, usecase.ErrNoTeamsParsed
	}
	return candidates, nil
}

// headerRow prefers <thead>, then the first row made only of <th> cells, then
// the first row of the table. A body row with a <th> rank cell is not a header.
func headerRow(table *goquery.Selection) *goquery.Selection {
	if row := table.Find("thead tr").First(); row.Length() > 0 {
		return row
	}
	var found *goquery.Selection
	table.Find("tr").EachWithBreak(func(_ int, row *goquery.Selection) bool {
		cells := row.ChildrenFiltered("th, td")
		if cells.Length() > 0 && cells.Length() == row.ChildrenFiltered("th").Length() {
			found = row
			return false
		}
		return true
	})
	if found != nil {
		return found
	}
	if row := table.Find("tr").First(); row.Length() > 0 {
		return row
	}
	return nil
}

func mapColumns(header *goquery.Selection) map[column]int {
	cols := make(map[column]int, 8)
	header.ChildrenFiltered("th, td").Each(func(i int, cell *goquery.Selection) {
		col, ok := headerAliases[normalizeHeader(cell.Text())]
		if !ok {
			return
		}
		if _, seen := cols[col]; !seen {
			cols[col] = i
		}
	})
	return cols
}

func normalizeHeader(value string) string {
	value = strings.ToLower(collapseSpace(value))
	return strings.TrimSuffix(value, ".")
}

func cellTexts(cells *goquery.Selection) []string {
	out := make([]string, 0, cells.Length())
	cells.Each(func(_ int, cell *goquery.Selection) {
		out = append(out, collapseSpace(cell.Text()))
	})
	return out
}

func isBlankRow(texts []string) bool {
	for _, t := range texts {
		if t != "" {
			return false
		}
	}
	return true
}

func isHeaderRepeat(texts []string, columns map[column]int) bool {
	team := textAt(texts, columns, colTeam)
	col, ok := headerAliases[normalizeHeader(team)]
	return ok && col == colTeam
}

func textAt(texts []string, columns map[column]int, col column) string {
	idx, ok := columns[col]
	if !ok || idx >= len(texts) {
		return ""
	}
	return texts[idx]
}

func numberAt(texts []string, columns map[column]int, col column) float64 {
	return parseNumber(textAt(texts, columns, col))
}

func collapseSpace(value string) string {
	return strings.Join(strings.Fields(value), " ")
}

func cleanTeamName(value string) string {
	return strings.TrimSpace(rankPrefixRegex.ReplaceAllString(collapseSpace(value), ""))
}

// parseNumber accepts "+12", "−3" (unicode minus) and "1,024".
func parseNumber(value string) float64 {
	value = strings.TrimSpace(value)
	value = strings.NewReplacer("−", "-", "–", "-", ",", "", " ", "").Replace(value)
	value = strings.TrimPrefix(value, "+")
	if value == "" || value == "-" {
		return math.NaN()
	}
	n, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return math.NaN()
	}
	return n
}
