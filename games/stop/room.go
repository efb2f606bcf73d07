/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package stop

import (
	"maps"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Room is one game. All of its fields are guarded by mu, and every event a
// room emits is enqueued while mu is held, so members see one total order.
type Room struct {
	mu sync.Mutex

	id         RoomID
	isPublic   bool
	maxPlayers int
	categories []string

	players []Player
	hostID  SessionID

	state           State
	currentLetter   string
	stopperID       SessionID
	roundData       RoundData
	votes           Votes
	lastRoundScores map[SessionID]int

	// generation invalidates scheduled transitions; it changes on every
	// state change and on destruction.
	generation uint64
	timer      *time.Timer
	deleted    bool

	createdAt  time.Time
	lastActive time.Time

	opts   Options
	notify Notifier
	log    zerolog.Logger
}

func newRoom(id RoomID, public bool, maxPlayers int, categories []string, opts Options, notify Notifier) *Room {
	now := time.Now()
	return &Room{
		id:              id,
		isPublic:        public,
		maxPlayers:      maxPlayers,
		categories:      slices.Clone(categories),
		state:           StateLobby,
		currentLetter:   UnsetLetter,
		roundData:       make(RoundData),
		votes:           make(Votes),
		lastRoundScores: make(map[SessionID]int),
		createdAt:       now,
		lastActive:      now,
		opts:            opts,
		notify:          notify,
		log:             opts.Logger.With().Str("room", string(id)).Logger(),
	}
}

func (r *Room) ID() RoomID {
	return r.id
}

// Snapshot returns a deep copy of the room state.
func (r *Room) Snapshot() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.snapshotLocked()
}

func (r *Room) snapshotLocked() Snapshot {
	roundData := make(RoundData, len(r.roundData))
	for id, answers := range r.roundData {
		roundData[id] = maps.Clone(answers)
	}

	votes := make(Votes, len(r.votes))
	for voter, ballot := range r.votes {
		votes[voter] = cloneBallot(ballot)
	}

	return Snapshot{
		ID:              r.id,
		Players:         slices.Clone(r.players),
		State:           r.state,
		IsPublic:        r.isPublic,
		MaxPlayers:      r.maxPlayers,
		HostID:          r.hostID,
		CurrentLetter:   r.currentLetter,
		Categories:      slices.Clone(r.categories),
		RoundData:       roundData,
		Votes:           votes,
		LastRoundScores: maps.Clone(r.lastRoundScores),
		StopperID:       r.stopperID,
	}
}

func (r *Room) summaryLocked() RoomSummary {
	return RoomSummary{
		ID:         r.id,
		Players:    len(r.players),
		MaxPlayers: r.maxPlayers,
		State:      r.state,
		IsPublic:   r.isPublic,
	}
}

// joinableLocked is the matchmaking predicate.
func (r *Room) joinableLocked() bool {
	return !r.deleted && r.isPublic && len(r.players) < r.maxPlayers && r.state == StateLobby
}

func (r *Room) indexLocked(id SessionID) int {
	return slices.IndexFunc(r.players, func(p Player) bool { return p.ID == id })
}

func (r *Room) playerLocked(id SessionID) (*Player, bool) {
	i := r.indexLocked(id)
	if i < 0 {
		return nil, false
	}
	return &r.players[i], true
}

// addPlayerLocked adds session to the roster, or refreshes its name and
// avatar when it is already there.
func (r *Room) addPlayerLocked(id SessionID, name string, avatar int) error {
	name = strings.TrimSpace(name)

	if p, ok := r.playerLocked(id); ok {
		if name != "" {
			p.Name = name
		}
		if avatar != 0 {
			p.Avatar = avatar
		}
		r.touchLocked()
		return nil
	}

	if len(r.players) >= r.maxPlayers {
		return ErrRoomFull
	}

	if name == "" {
		name = DefaultName
	}

	host := len(r.players) == 0
	r.players = append(r.players, Player{
		ID:     id,
		Name:   name,
		Avatar: avatar,
		IsHost: host,
		Status: StatusIdle,
	})
	if host {
		r.hostID = id
	}

	r.touchLocked()
	r.log.Debug().Str("session", string(id)).Str("name", name).Bool("host", host).Msg("player joined")

	return nil
}

// removePlayerLocked drops session from the roster and reports whether it
// was a member. The earliest-joined remaining player inherits host.
func (r *Room) removePlayerLocked(id SessionID) bool {
	i := r.indexLocked(id)
	if i < 0 {
		return false
	}

	wasHost := r.players[i].IsHost
	r.players = slices.Delete(r.players, i, i+1)
	delete(r.roundData, id)
	delete(r.votes, id)
	delete(r.lastRoundScores, id)
	if r.stopperID == id {
		r.stopperID = ""
	}

	if len(r.players) == 0 {
		r.hostID = ""
	} else if wasHost {
		r.players[0].IsHost = true
		r.hostID = r.players[0].ID
		r.log.Debug().Str("host", string(r.hostID)).Msg("host handed over")
	}

	r.touchLocked()
	r.log.Debug().Str("session", string(id)).Int("remaining", len(r.players)).Msg("player left")

	return true
}

// destroyLocked marks the room dead and cancels anything scheduled on it.
func (r *Room) destroyLocked() {
	r.deleted = true
	r.generation++
	r.stopTimerLocked()
}

func (r *Room) touchLocked() {
	r.lastActive = time.Now()
}

func (r *Room) memberIDsLocked() []SessionID {
	ids := make([]SessionID, len(r.players))
	for i, p := range r.players {
		ids[i] = p.ID
	}
	return ids
}

func (r *Room) broadcastLocked(msg Message) {
	if r.notify == nil {
		return
	}
	for _, p := range r.players {
		r.notify.Notify(p.ID, msg)
	}
}

func (r *Room) broadcastSnapshotLocked() {
	r.broadcastLocked(roomUpdate(r.snapshotLocked()))
}

func cloneBallot(b Ballot) Ballot {
	out := make(Ballot, len(b))
	for category, judgments := range b {
		out[category] = maps.Clone(judgments)
	}
	return out
}
