/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package stop

import (
	"crypto/rand"
	"slices"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

const (
	roomIDAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	roomIDLength   = 6
)

// Registry holds every live room of one server. Lookups share the read
// lock; anything that changes which rooms exist, or who is in them, takes
// the write lock. Rooms are always locked after the registry, never before.
// Commands inside a room take only that room's lock.
type Registry struct {
	mu      sync.RWMutex
	rooms   map[RoomID]*Room
	order   []RoomID // creation order, used for first-fit matchmaking
	members map[SessionID]RoomID

	opts   Options
	notify Notifier
	log    zerolog.Logger
}

func NewRegistry(opts Options, notify Notifier) *Registry {
	opts = opts.withDefaults()
	return &Registry{
		rooms:   make(map[RoomID]*Room),
		members: make(map[SessionID]RoomID),
		opts:    opts,
		notify:  notify,
		log:     opts.Logger,
	}
}

// CreateRoom inserts an empty room in the lobby under a fresh id.
// Non-positive maxPlayers and empty categories fall back to the defaults;
// both are held to PlayerLimit and CategoryLimit.
func (reg *Registry) CreateRoom(public bool, maxPlayers int, categories []string) *Room {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	return reg.createRoomLocked(reg.newRoomIDLocked(), public, maxPlayers, categories)
}

func (reg *Registry) createRoomLocked(id RoomID, public bool, maxPlayers int, categories []string) *Room {
	if maxPlayers < 1 {
		maxPlayers = reg.opts.MaxPlayers
	}
	maxPlayers = min(maxPlayers, PlayerLimit)
	if categories = fitCategories(categories); len(categories) == 0 {
		categories = reg.opts.Categories
	}

	r := newRoom(id, public, maxPlayers, categories, reg.opts, reg.notify)
	reg.rooms[id] = r
	reg.order = append(reg.order, id)

	reg.log.Info().Str("room", string(id)).Bool("public", public).Int("max_players", maxPlayers).Msg("room created")

	return r
}

// newRoomIDLocked draws random base-36 codes until one is unused.
func (reg *Registry) newRoomIDLocked() RoomID {
	const limit = 256 - 256%len(roomIDAlphabet)

	for {
		out := make([]byte, 0, roomIDLength)
		buf := make([]byte, roomIDLength*2)
		for len(out) < roomIDLength {
			if _, err := rand.Read(buf); err != nil {
				panic("crypto/rand failure: " + err.Error())
			}
			for _, b := range buf {
				if int(b) >= limit {
					continue
				}
				out = append(out, roomIDAlphabet[int(b)%len(roomIDAlphabet)])
				if len(out) == roomIDLength {
					break
				}
			}
		}

		id := RoomID(out)
		if _, exists := reg.rooms[id]; !exists {
			return id
		}
	}
}

func (reg *Registry) Get(id RoomID) (*Room, bool) {
	reg.mu.RLock()
	defer reg.mu.RUnlock()

	r, ok := reg.rooms[id]
	return r, ok
}

// Delete destroys a room regardless of who is still in it.
func (reg *Registry) Delete(id RoomID) {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	r, ok := reg.rooms[id]
	if !ok {
		return
	}

	r.mu.Lock()
	for _, session := range r.memberIDsLocked() {
		delete(reg.members, session)
	}
	r.destroyLocked()
	r.mu.Unlock()

	reg.removeLocked(id)
}

func (reg *Registry) removeLocked(id RoomID) {
	delete(reg.rooms, id)
	reg.order = slices.DeleteFunc(reg.order, func(o RoomID) bool { return o == id })

	reg.log.Info().Str("room", string(id)).Msg("room closed")
}

func (reg *Registry) Len() int {
	reg.mu.RLock()
	defer reg.mu.RUnlock()

	return len(reg.rooms)
}

// FindJoinableRoom returns the first public lobby, in creation order, with
// a free seat.
func (reg *Registry) FindJoinableRoom() (RoomID, bool) {
	reg.mu.RLock()
	defer reg.mu.RUnlock()

	if r := reg.findJoinableLocked(); r != nil {
		return r.id, true
	}
	return "", false
}

func (reg *Registry) findJoinableLocked() *Room {
	for _, id := range reg.order {
		r := reg.rooms[id]

		r.mu.Lock()
		ok := r.joinableLocked()
		r.mu.Unlock()

		if ok {
			return r
		}
	}
	return nil
}

// PublicRooms lists public rooms in creation order.
func (reg *Registry) PublicRooms() []RoomSummary {
	reg.mu.RLock()
	defer reg.mu.RUnlock()

	out := make([]RoomSummary, 0, len(reg.order))
	for _, id := range reg.order {
		r := reg.rooms[id]

		r.mu.Lock()
		if r.isPublic {
			out = append(out, r.summaryLocked())
		}
		r.mu.Unlock()
	}
	return out
}

// Join puts session into a room and returns that room's id. An empty
// requested id goes through matchmaking; an unknown one creates a public
// room under that id. A session is a member of at most one room, so any
// other room it was in is left first.
func (reg *Registry) Join(session SessionID, requested RoomID, name string, avatar int) (RoomID, error) {
	if requested != "" && !ValidRoomID(requested) {
		return "", ErrInvalidRoomID
	}

	reg.mu.Lock()
	defer reg.mu.Unlock()

	var target *Room
	if requested == "" {
		target = reg.findOrCreatePublicRoomLocked()
	} else if r, ok := reg.rooms[requested]; ok {
		target = r
	} else {
		target = reg.createRoomLocked(requested, true, reg.opts.MaxPlayers, reg.opts.Categories)
	}

	target.mu.Lock()
	full := target.indexLocked(session) < 0 && len(target.players) >= target.maxPlayers
	target.mu.Unlock()
	if full {
		return "", ErrRoomFull
	}

	reg.leaveLocked(session, target.id)

	target.mu.Lock()
	defer target.mu.Unlock()

	if err := target.addPlayerLocked(session, name, avatar); err != nil {
		return "", err
	}
	reg.members[session] = target.id

	if reg.notify != nil {
		reg.notify.Notify(session, JoinedRoomMessage{Type: EvtJoinedRoom, RoomID: target.id, PlayerID: session})
	}
	target.broadcastSnapshotLocked()

	return target.id, nil
}

// Leave removes session from the room it is in and returns that room's id.
func (reg *Registry) Leave(session SessionID) []RoomID {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	return reg.leaveLocked(session, "")
}

// leaveLocked locks only the room the session is recorded in.
func (reg *Registry) leaveLocked(session SessionID, except RoomID) []RoomID {
	id, ok := reg.members[session]
	if !ok || id == except {
		return nil
	}
	delete(reg.members, session)

	r, ok := reg.rooms[id]
	if !ok {
		return nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.removePlayerLocked(session) {
		return nil
	}

	if len(r.players) == 0 {
		r.destroyLocked()
		reg.removeLocked(id)
		return []RoomID{id}
	}

	r.afterLeaveLocked()

	return []RoomID{id}
}

// roomOf returns the room session is currently in.
func (reg *Registry) roomOf(session SessionID) (RoomID, bool) {
	reg.mu.RLock()
	defer reg.mu.RUnlock()

	id, ok := reg.members[session]
	return id, ok
}

// IdleSessions returns the members of every room that has not changed
// since cutoff.
func (reg *Registry) IdleSessions(cutoff time.Time) []SessionID {
	reg.mu.RLock()
	defer reg.mu.RUnlock()

	var out []SessionID
	for _, id := range reg.order {
		r := reg.rooms[id]

		r.mu.Lock()
		if r.lastActive.Before(cutoff) {
			out = append(out, r.memberIDsLocked()...)
		}
		r.mu.Unlock()
	}
	return out
}
