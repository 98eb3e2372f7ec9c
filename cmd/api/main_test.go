package main

import (
	"testing"

	"github.com/riskibarqy/club-standings/internal/usecase"
	"github.com/stretchr/testify/require"
)

func TestLeagueIDs(t *testing.T) {
	ids := leagueIDs([]usecase.LeagueSource{
		{ID: "waba", URL: "https://waba.example.com/standings"},
		{ID: "waba-d2", URL: "https://waba.example.com/d2"},
	})
	require.Equal(t, []string{"waba", "waba-d2"}, ids)
	require.Empty(t, leagueIDs(nil))
}
