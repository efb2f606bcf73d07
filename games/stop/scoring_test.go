/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package stop

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func twoPlayers() []Player {
	return []Player{
		{ID: "p1", Name: "Ana", IsHost: true},
		{ID: "p2", Name: "Bruno"},
	}
}

func TestScoreRound(t *testing.T) {
	tests := []struct {
		name       string
		players    []Player
		categories []string
		roundData  RoundData
		votes      Votes
		want       map[SessionID]int
	}{
		{
			name:       "unique accepted answer earns ten",
			players:    twoPlayers(),
			categories: []string{"Animal"},
			roundData:  RoundData{"p1": {"Animal": "Bear"}},
			votes:      Votes{"p2": {"Animal": {"p1": true}}},
			want:       map[SessionID]int{"p1": 10, "p2": 0},
		},
		{
			name:       "shared accepted answer earns five each",
			players:    twoPlayers(),
			categories: []string{"Animal"},
			roundData:  RoundData{"p1": {"Animal": "Bear"}, "p2": {"Animal": "Bear"}},
			votes: Votes{
				"p1": {"Animal": {"p2": true}},
				"p2": {"Animal": {"p1": true}},
			},
			want: map[SessionID]int{"p1": 5, "p2": 5},
		},
		{
			name:       "normalization ignores case and surrounding space",
			players:    twoPlayers(),
			categories: []string{"Animal"},
			roundData:  RoundData{"p1": {"Animal": "  bear "}, "p2": {"Animal": "BEAR"}},
			votes: Votes{
				"p1": {"Animal": {"p2": true}},
				"p2": {"Animal": {"p1": true}},
			},
			want: map[SessionID]int{"p1": 5, "p2": 5},
		},
		{
			name:       "composed and decomposed accents match",
			players:    twoPlayers(),
			categories: []string{"Food"},
			roundData:  RoundData{"p1": {"Food": "E\u0301clair"}, "p2": {"Food": "\u00e9clair"}},
			votes: Votes{
				"p1": {"Food": {"p2": true}},
				"p2": {"Food": {"p1": true}},
			},
			want: map[SessionID]int{"p1": 5, "p2": 5},
		},
		{
			name:       "empty answer earns nothing even when voted valid",
			players:    twoPlayers(),
			categories: []string{"Animal"},
			roundData:  RoundData{"p1": {"Animal": "   "}},
			votes:      Votes{"p2": {"Animal": {"p1": true}}},
			want:       map[SessionID]int{"p1": 0, "p2": 0},
		},
		{
			name:       "tied votes reject",
			players:    append(twoPlayers(), Player{ID: "p3", Name: "Caio"}),
			categories: []string{"Animal"},
			roundData:  RoundData{"p1": {"Animal": "Bear"}},
			votes: Votes{
				"p2": {"Animal": {"p1": true}},
				"p3": {"Animal": {"p1": false}},
			},
			want: map[SessionID]int{"p1": 0, "p2": 0, "p3": 0},
		},
		{
			name:       "no votes rejects",
			players:    twoPlayers(),
			categories: []string{"Animal"},
			roundData:  RoundData{"p1": {"Animal": "Bear"}},
			votes:      Votes{},
			want:       map[SessionID]int{"p1": 0, "p2": 0},
		},
		{
			name:       "rejected duplicate does not make the accepted one shared",
			players:    twoPlayers(),
			categories: []string{"Animal"},
			roundData:  RoundData{"p1": {"Animal": "Bear"}, "p2": {"Animal": "bear"}},
			votes: Votes{
				"p1": {"Animal": {"p2": false}},
				"p2": {"Animal": {"p1": true}},
			},
			want: map[SessionID]int{"p1": 10, "p2": 0},
		},
		{
			name:       "categories are scored independently",
			players:    twoPlayers(),
			categories: []string{"Animal", "Color"},
			roundData: RoundData{
				"p1": {"Animal": "Bear", "Color": "Blue"},
				"p2": {"Animal": "Bison", "Color": "blue"},
			},
			votes: Votes{
				"p1": {"Animal": {"p2": true}, "Color": {"p2": true}},
				"p2": {"Animal": {"p1": true}, "Color": {"p1": true}},
			},
			want: map[SessionID]int{"p1": 15, "p2": 15},
		},
		{
			name:       "answers outside the category list are ignored",
			players:    twoPlayers(),
			categories: []string{"Animal"},
			roundData:  RoundData{"p1": {"Brand": "Bic"}},
			votes:      Votes{"p2": {"Brand": {"p1": true}}},
			want:       map[SessionID]int{"p1": 0, "p2": 0},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, _ := ScoreRound(tt.players, tt.categories, tt.roundData, tt.votes)
			if diff := cmp.Diff(tt.want, res.Awards); diff != "" {
				t.Errorf("awards mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestScoreRoundUpdatesScores(t *testing.T) {
	players := twoPlayers()
	players[0].Score = 20
	players[1].Score = 5

	res, updated := ScoreRound(players,
		[]string{"Animal"},
		RoundData{"p1": {"Animal": "Bear"}},
		Votes{"p2": {"Animal": {"p1": true}}},
	)

	require.Len(t, updated, 2)
	assert.Equal(t, 30, updated[0].Score)
	assert.Equal(t, 5, updated[1].Score)
	assert.Equal(t, map[SessionID]int{"p1": 10}, res.Breakdown["Animal"])

	// inputs are untouched
	assert.Equal(t, 20, players[0].Score)
	assert.Equal(t, 5, players[1].Score)
}

func TestScoreRoundIsDeterministic(t *testing.T) {
	players := append(twoPlayers(), Player{ID: "p3", Name: "Caio"})
	categories := []string{"Animal", "Color", "Food"}
	roundData := RoundData{
		"p1": {"Animal": "Bear", "Color": "Blue", "Food": "Bread"},
		"p2": {"Animal": "bear", "Color": "Brown", "Food": ""},
		"p3": {"Animal": "Bat", "Color": "blue", "Food": "Bread"},
	}
	votes := Votes{
		"p1": {"Animal": {"p2": true, "p3": true}, "Color": {"p2": true, "p3": false}, "Food": {"p3": true}},
		"p2": {"Animal": {"p1": true, "p3": false}, "Color": {"p1": true, "p3": true}, "Food": {"p1": true, "p3": true}},
		"p3": {"Animal": {"p1": true, "p2": true}, "Color": {"p1": true, "p2": true}, "Food": {"p1": true}},
	}

	first, _ := ScoreRound(players, categories, roundData, votes)
	for range 20 {
		again, _ := ScoreRound(players, categories, roundData, votes)
		if diff := cmp.Diff(first, again); diff != "" {
			t.Fatalf("scoring is not deterministic (-first +again):\n%s", diff)
		}
	}

	// Animal: p1 and p2 share "bear", p3 "Bat" is tied and rejected.
	// Color: p3 "blue" is tied and rejected, so p1 "Blue" and p2 "Brown" are unique.
	// Food: p1 and p3 share "Bread", p2 left it empty.
	assert.Equal(t, map[SessionID]int{"p1": 20, "p2": 15, "p3": 5}, first.Awards)
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "", Normalize(" \t\n"))
	assert.Equal(t, "big bear", Normalize("  Big Bear  "))
	assert.Equal(t, Normalize("\u00c9clair"), Normalize("e\u0301CLAIR"))
}
