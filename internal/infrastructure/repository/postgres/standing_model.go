package postgres

import "time"

type standingTableModel struct {
	ID          int64     `db:"id"`
	LeagueID    string    `db:"league_id"`
	Rank        int       `db:"rank"`
	Team        string    `db:"team"`
	GP          int       `db:"gp"`
	W           int       `db:"w"`
	L           int       `db:"l"`
	Pts         int       `db:"pts"`
	Opts        int       `db:"opts"`
	Diff        int       `db:"diff"`
	LastUpdated time.Time `db:"last_updated"`
}

type standingInsertModel struct {
	LeagueID    string    `db:"league_id"`
	Rank        int       `db:"rank"`
	Team        string    `db:"team"`
	GP          int       `db:"gp"`
	W           int       `db:"w"`
	L           int       `db:"l"`
	Pts         int       `db:"pts"`
	Opts        int       `db:"opts"`
	Diff        int       `db:"diff"`
	LastUpdated time.Time `db:"last_updated"`
}
