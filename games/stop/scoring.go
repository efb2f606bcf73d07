/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package stop

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// Result holds the points awarded by one round.
type Result struct {
	// Awards is the round total per player. Every scored player has an entry.
	Awards map[SessionID]int

	// Breakdown is category -> player -> points, only for accepted answers.
	Breakdown map[string]map[SessionID]int
}

// Normalize is the form in which answers are compared: surrounding
// whitespace trimmed, NFC composed and case folded.
func Normalize(answer string) string {
	trimmed := strings.TrimSpace(answer)
	if trimmed == "" {
		return ""
	}
	return cases.Fold().String(norm.NFC.String(trimmed))
}

// ScoreRound awards points for one round. It does not modify its inputs;
// the returned players are copies with the awards added to Score.
//
// An answer is accepted when it is non-empty after normalization and has
// strictly more valid than invalid votes. Accepted answers unique within
// their category earn UniqueAnswerPoints, shared ones SharedAnswerPoints.
func ScoreRound(players []Player, categories []string, roundData RoundData, votes Votes) (Result, []Player) {
	res := Result{
		Awards:    make(map[SessionID]int, len(players)),
		Breakdown: make(map[string]map[SessionID]int, len(categories)),
	}
	for _, p := range players {
		res.Awards[p.ID] = 0
	}

	for _, category := range categories {
		accepted := make(map[SessionID]string)
		counts := make(map[string]int)

		for _, p := range players {
			normalized := Normalize(roundData[p.ID][category])
			if normalized == "" {
				continue
			}

			valid, invalid := tally(votes, category, p.ID)
			if valid <= invalid {
				continue
			}

			accepted[p.ID] = normalized
			counts[normalized]++
		}

		if len(accepted) == 0 {
			continue
		}

		points := make(map[SessionID]int, len(accepted))
		for id, normalized := range accepted {
			award := UniqueAnswerPoints
			if counts[normalized] > 1 {
				award = SharedAnswerPoints
			}
			points[id] = award
			res.Awards[id] += award
		}
		res.Breakdown[category] = points
	}

	updated := make([]Player, len(players))
	for i, p := range players {
		p.Score += res.Awards[p.ID]
		updated[i] = p
	}

	return res, updated
}

func tally(votes Votes, category string, answerer SessionID) (valid, invalid int) {
	for _, ballot := range votes {
		judgment, ok := ballot[category][answerer]
		if !ok {
			continue
		}
		if judgment {
			valid++
		} else {
			invalid++
		}
	}
	return valid, invalid
}
