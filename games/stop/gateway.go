/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package stop

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

const (
	sendBufferSize = 32
	writeWait      = 10 * time.Second
)

// maxFrameSize fits the largest answer sheet or ballot a room can ask for:
// every category at its longest name, with an answer at its longest or a
// judgment for every player. Free text is counted at its widest JSON
// escape; session ids never need escaping.
const (
	jsonEscape    = 6
	sessionIDSize = 36
	categorySize  = CategoryNameLimit*jsonEscape + len(`"":{},`)
	answerSize    = maxAnswerLength * 2 * jsonEscape // a rune escapes to at most a surrogate pair
	judgmentSize  = sessionIDSize + len(`"":false,`)
	ballotSize    = PlayerLimit * judgmentSize

	maxFrameSize = 1<<10 + CategoryLimit*(categorySize+max(answerSize, ballotSize))
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Client is one connected socket.
type Client struct {
	id      SessionID
	conn    *websocket.Conn
	send    chan Message
	done    chan struct{}
	limiter *rate.Limiter

	closeOnce sync.Once
}

func (c *Client) ID() SessionID {
	return c.id
}

func (c *Client) close() {
	c.closeOnce.Do(func() {
		close(c.done)
		if c.conn != nil {
			_ = c.conn.Close()
		}
	})
}

// Gateway turns socket frames into room commands and room events into
// socket frames. It owns the registry of the rooms it serves.
type Gateway struct {
	reg *Registry
	log zerolog.Logger

	mu      sync.RWMutex
	clients map[SessionID]*Client

	rateLimit rate.Limit
	rateBurst int
}

func NewGateway(opts Options) *Gateway {
	opts = opts.withDefaults()

	g := &Gateway{
		log:       opts.Logger,
		clients:   make(map[SessionID]*Client),
		rateLimit: opts.RateLimit,
		rateBurst: opts.RateBurst,
	}
	g.reg = NewRegistry(opts, g)

	return g
}

func (g *Gateway) Registry() *Registry {
	return g.reg
}

// Sessions returns the number of connected clients.
func (g *Gateway) Sessions() int {
	g.mu.RLock()
	defer g.mu.RUnlock()

	return len(g.clients)
}

// Notify queues msg for one session. A client that cannot keep up is
// disconnected rather than allowed to stall the room.
func (g *Gateway) Notify(to SessionID, msg Message) {
	g.mu.RLock()
	c, ok := g.clients[to]
	g.mu.RUnlock()

	if !ok {
		return
	}

	select {
	case <-c.done:
		return
	default:
	}

	select {
	case c.send <- msg:
	default:
		g.log.Warn().Str("session", string(to)).Msg("send buffer full, dropping client")
		c.close()
	}
}

func (g *Gateway) attach(conn *websocket.Conn) *Client {
	c := &Client{
		id:      NewSessionID(),
		conn:    conn,
		send:    make(chan Message, sendBufferSize),
		done:    make(chan struct{}),
		limiter: rate.NewLimiter(g.rateLimit, g.rateBurst),
	}

	g.mu.Lock()
	g.clients[c.id] = c
	g.mu.Unlock()

	g.log.Debug().Str("session", string(c.id)).Msg("client connected")

	return c
}

// Disconnect closes the session's socket and removes it from its rooms.
// Calling it more than once is harmless.
func (g *Gateway) Disconnect(id SessionID) {
	g.mu.Lock()
	c, ok := g.clients[id]
	delete(g.clients, id)
	g.mu.Unlock()

	if ok {
		c.close()
		g.log.Debug().Str("session", string(id)).Msg("client disconnected")
	}

	g.reg.Leave(id)
}

// Handle applies one command on behalf of session. Rejected commands leave
// every room untouched; only the sender hears about it.
func (g *Gateway) Handle(session SessionID, cmd Command) {
	if err := g.dispatch(session, cmd); err != nil {
		g.log.Debug().Err(err).
			Str("session", string(session)).
			Str("command", cmd.CommandType()).
			Msg("command rejected")

		g.Notify(session, rejected(cmd.CommandType(), err))
	}
}

func (g *Gateway) dispatch(session SessionID, cmd Command) error {
	switch c := cmd.(type) {
	case *JoinRoomCommand:
		_, err := g.reg.Join(session, c.RoomID, c.Name, c.Avatar)
		return err

	case *GetRoomsCommand:
		g.Notify(session, RoomsListMessage{Type: EvtRoomsList, Rooms: g.reg.PublicRooms()})
		return nil

	case *RoomCommand:
		room, err := g.room(c.RoomID)
		if err != nil {
			return err
		}

		switch c.Type {
		case CmdGetState:
			g.Notify(session, roomUpdate(room.Snapshot()))
			return nil
		case CmdStartGame:
			return room.StartGame(session)
		case CmdEndVoting:
			return room.EndVoting(session)
		case CmdReturnToLobby:
			return room.ReturnToLobby(session)
		}

	case *StopRoundCommand:
		room, err := g.room(c.RoomID)
		if err != nil {
			return err
		}
		return room.StopRound(session, c.Answers)

	case *SubmitAnswersCommand:
		room, err := g.room(c.RoomID)
		if err != nil {
			return err
		}
		return room.SubmitAnswers(session, c.Answers)

	case *SubmitVotesCommand:
		room, err := g.room(c.RoomID)
		if err != nil {
			return err
		}
		return room.SubmitVotes(session, c.Votes)
	}

	return ErrInvalidCommand
}

func (g *Gateway) room(id RoomID) (*Room, error) {
	room, ok := g.reg.Get(id)
	if !ok {
		return nil, ErrRoomNotFound
	}
	return room, nil
}

// ServeHTTP upgrades the request and serves the socket until it closes.
func (g *Gateway) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		g.log.Debug().Err(err).Msg("upgrade failed")
		return
	}

	c := g.attach(conn)

	go g.writePump(c)
	g.readPump(c)
}

func (g *Gateway) readPump(c *Client) {
	defer g.Disconnect(c.id)

	c.conn.SetReadLimit(maxFrameSize)

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			return
		}

		if !c.limiter.Allow() {
			g.Notify(c.id, rejected("", ErrRateLimited))
			continue
		}

		cmd, err := DecodeCommand(data)
		if err != nil {
			g.Notify(c.id, rejected("", err))
			continue
		}

		g.Handle(c.id, cmd)
	}
}

func (g *Gateway) writePump(c *Client) {
	defer c.close()

	for {
		select {
		case <-c.done:
			return
		case msg := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteJSON(msg); err != nil {
				return
			}
		}
	}
}

// ReapIdle periodically disconnects everyone in rooms that have seen no
// activity for timeout. It returns when ctx is done.
func (g *Gateway) ReapIdle(ctx context.Context, timeout time.Duration) {
	if timeout <= 0 {
		return
	}

	ticker := time.NewTicker(timeout / 2)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if n := g.reapIdle(now.Add(-timeout)); n > 0 {
				g.log.Info().Int("sessions", n).Msg("reaped idle rooms")
			}
		}
	}
}

func (g *Gateway) reapIdle(cutoff time.Time) int {
	sessions := g.reg.IdleSessions(cutoff)
	for _, id := range sessions {
		g.Disconnect(id)
	}
	return len(sessions)
}
