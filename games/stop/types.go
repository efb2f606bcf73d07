/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package stop

import (
	"slices"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// RoomID is the short code players share to meet in the same room.
type RoomID string

// State is the round state of a room. A room is in exactly one state.
type State string

const (
	StateLobby    State = "LOBBY"
	StateSpinning State = "SPINNING"
	StatePlaying  State = "PLAYING"
	StateVoting   State = "VOTING"
	StateResults  State = "RESULTS"
)

// UnsetLetter is shown while no letter has been drawn.
const UnsetLetter = "?"

const (
	DefaultMaxPlayers = 10
	DefaultSpinDelay  = 3500 * time.Millisecond
	DefaultRoundLimit = 65 * time.Second
	DefaultName       = "Guest"
	DefaultRateLimit  = 20
	DefaultRateBurst  = 40

	UniqueAnswerPoints = 10
	SharedAnswerPoints = 5
)

// DefaultCategories is the category set given to rooms created without one.
var DefaultCategories = []string{"Name", "Animal", "Color", "Country", "Food", "Movie", "Brand", "Object"}

type PlayerStatus string

const (
	StatusIdle     PlayerStatus = "idle"
	StatusAnswered PlayerStatus = "answered"
	StatusVoted    PlayerStatus = "voted"
)

type Player struct {
	ID     SessionID    `json:"id"`
	Name   string       `json:"name"`
	Avatar int          `json:"avatar"`
	Score  int          `json:"score"`
	IsHost bool         `json:"isHost"`
	Status PlayerStatus `json:"status"`
}

// Answers maps category to submitted text.
type Answers map[string]string

// Ballot maps category to answerer to validity judgment.
type Ballot map[string]map[SessionID]bool

// RoundData maps player to their answers for the current round.
type RoundData map[SessionID]Answers

// Votes maps voter to their ballot for the current round.
type Votes map[SessionID]Ballot

// Snapshot is the full room state as sent to clients.
type Snapshot struct {
	ID              RoomID            `json:"id"`
	Players         []Player          `json:"players"`
	State           State             `json:"state"`
	IsPublic        bool              `json:"isPublic"`
	MaxPlayers      int               `json:"maxPlayers"`
	HostID          SessionID         `json:"hostId"`
	CurrentLetter   string            `json:"currentLetter"`
	Categories      []string          `json:"categories"`
	RoundData       RoundData         `json:"roundData"`
	Votes           Votes             `json:"votes"`
	LastRoundScores map[SessionID]int `json:"lastRoundScores"`
	StopperID       SessionID         `json:"stopperId,omitempty"`
}

// RoomSummary is the public listing entry for a room.
type RoomSummary struct {
	ID         RoomID `json:"id"`
	Players    int    `json:"players"`
	MaxPlayers int    `json:"maxPlayers"`
	State      State  `json:"state"`
	IsPublic   bool   `json:"isPublic"`
}

// Notifier delivers an event to one session. Rooms call it while holding
// their lock, so implementations must not block.
type Notifier interface {
	Notify(to SessionID, msg Message)
}

type Options struct {
	MaxPlayers int
	Categories []string

	// SpinDelay is how long the letter reveal lasts before answers open.
	SpinDelay time.Duration

	// RoundLimit forces PLAYING into VOTING when nobody calls stop.
	// Zero leaves the round open until a player stops it.
	RoundLimit time.Duration

	// RateLimit and RateBurst bound how fast one connection may send commands.
	RateLimit rate.Limit
	RateBurst int

	Logger zerolog.Logger
}

func (o Options) withDefaults() Options {
	if o.MaxPlayers < 1 {
		o.MaxPlayers = DefaultMaxPlayers
	}
	o.MaxPlayers = min(o.MaxPlayers, PlayerLimit)
	if o.Categories = fitCategories(o.Categories); len(o.Categories) == 0 {
		o.Categories = DefaultCategories
	}
	if o.SpinDelay <= 0 {
		o.SpinDelay = DefaultSpinDelay
	}
	if o.RoundLimit < 0 {
		o.RoundLimit = 0
	}
	if o.RateLimit <= 0 {
		o.RateLimit = DefaultRateLimit
	}
	if o.RateBurst < 1 {
		o.RateBurst = DefaultRateBurst
	}
	return o
}

// fitCategories drops blank, over-long and repeated category names and
// keeps at most CategoryLimit of the rest, so every answer sheet and ballot
// for them can be decoded.
func fitCategories(categories []string) []string {
	var out []string
	for _, c := range categories {
		if c == "" || len(c) > CategoryNameLimit || slices.Contains(out, c) {
			continue
		}
		if len(out) == CategoryLimit {
			break
		}
		out = append(out, c)
	}
	return out
}
