/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package stop

import (
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

const (
	testSpinDelay = 10 * time.Millisecond
	waitFor       = time.Second
	tick          = 2 * time.Millisecond
)

// recorder is a Notifier that keeps everything it is given.
type recorder struct {
	mu   sync.Mutex
	msgs map[SessionID][]Message
}

func newRecorder() *recorder {
	return &recorder{msgs: make(map[SessionID][]Message)}
}

func (r *recorder) Notify(to SessionID, msg Message) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.msgs[to] = append(r.msgs[to], msg)
}

func (r *recorder) types(id SessionID) []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]string, 0, len(r.msgs[id]))
	for _, m := range r.msgs[id] {
		out = append(out, m.MessageType())
	}
	return out
}

func (r *recorder) count(id SessionID, typ string) int {
	n := 0
	for _, t := range r.types(id) {
		if t == typ {
			n++
		}
	}
	return n
}

func (r *recorder) last(id SessionID, typ string) (Message, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	msgs := r.msgs[id]
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].MessageType() == typ {
			return msgs[i], true
		}
	}
	return nil, false
}

func (r *recorder) reset() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.msgs = make(map[SessionID][]Message)
}

func testOptions() Options {
	return Options{
		SpinDelay: testSpinDelay,
		Logger:    zerolog.Nop(),
	}
}

func newTestRegistry(t *testing.T, opts Options) (*Registry, *recorder) {
	t.Helper()

	rec := newRecorder()
	return NewRegistry(opts, rec), rec
}

// seat joins every session into room id, in order, and returns the room.
func seat(t *testing.T, reg *Registry, id RoomID, sessions ...SessionID) *Room {
	t.Helper()

	for _, s := range sessions {
		got, err := reg.Join(s, id, string(s), 0)
		require.NoError(t, err)
		require.Equal(t, id, got)
	}

	room, ok := reg.Get(id)
	require.True(t, ok)
	return room
}

// playing starts a round as host and waits for answers to open.
func playing(t *testing.T, room *Room, host SessionID) {
	t.Helper()

	require.NoError(t, room.StartGame(host))
	require.Eventually(t, func() bool { return room.State() == StatePlaying }, waitFor, tick)
}

func hosts(s Snapshot) []SessionID {
	var out []SessionID
	for _, p := range s.Players {
		if p.IsHost {
			out = append(out, p.ID)
		}
	}
	return out
}
