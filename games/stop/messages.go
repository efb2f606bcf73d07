/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package stop

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

// Inbound command types.
const (
	CmdJoinRoom      = "join_room"
	CmdGetState      = "get_state"
	CmdGetRooms      = "get_rooms"
	CmdStartGame     = "start_game"
	CmdStopRound     = "stop_round"
	CmdSubmitAnswers = "submit_answers"
	CmdSubmitVotes   = "submit_votes"
	CmdEndVoting     = "end_voting"
	CmdReturnToLobby = "return_to_lobby"
)

// Outbound event types.
const (
	EvtJoinedRoom      = "joined_room"
	EvtRoomUpdate      = "room_update"
	EvtRoomsList       = "rooms_list"
	EvtGameStarted     = "game_started"
	EvtStopCalled      = "stop_called"
	EvtRoundResults    = "round_results"
	EvtCommandRejected = "command_rejected"
)

// Limits shared by room settings and the command decoder. A room never
// holds more players or categories than a command is allowed to carry.
const (
	PlayerLimit       = 64
	CategoryLimit     = 32
	CategoryNameLimit = 64

	maxNameLength   = 32
	maxAnswerLength = 100
)

var roomIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,32}$`)

// ValidRoomID reports whether id may be used to name a room.
func ValidRoomID(id RoomID) bool {
	return roomIDPattern.MatchString(string(id))
}

// Message is an event sent from the server to clients.
type Message interface {
	MessageType() string
}

type JoinedRoomMessage struct {
	Type     string    `json:"type"` // "joined_room"
	RoomID   RoomID    `json:"roomId"`
	PlayerID SessionID `json:"playerId"`
}

type RoomUpdateMessage struct {
	Type string   `json:"type"` // "room_update"
	Room Snapshot `json:"room"`
}

type RoomsListMessage struct {
	Type  string        `json:"type"` // "rooms_list"
	Rooms []RoomSummary `json:"rooms"`
}

type GameStartedMessage struct {
	Type   string `json:"type"` // "game_started"
	Letter string `json:"letter"`
}

type StopCalledMessage struct {
	Type        string    `json:"type"` // "stop_called"
	StopperID   SessionID `json:"stopperId"`
	StopperName string    `json:"stopperName"`
}

// PlayerScore is one row of the results table.
type PlayerScore struct {
	ID    SessionID `json:"id"`
	Name  string    `json:"name"`
	Score int       `json:"score"`
}

type RoundResultsMessage struct {
	Type        string                       `json:"type"` // "round_results"
	Scores      []PlayerScore                `json:"scores"`
	RoundScores map[SessionID]int            `json:"roundScores"`
	Breakdown   map[string]map[SessionID]int `json:"breakdown"`
}

// CommandRejectedMessage goes only to the sender of a command that changed nothing.
type CommandRejectedMessage struct {
	Type    string `json:"type"` // "command_rejected"
	Command string `json:"command,omitempty"`
	Reason  string `json:"reason"`
}

func (m JoinedRoomMessage) MessageType() string      { return m.Type }
func (m RoomUpdateMessage) MessageType() string      { return m.Type }
func (m RoomsListMessage) MessageType() string       { return m.Type }
func (m GameStartedMessage) MessageType() string     { return m.Type }
func (m StopCalledMessage) MessageType() string      { return m.Type }
func (m RoundResultsMessage) MessageType() string    { return m.Type }
func (m CommandRejectedMessage) MessageType() string { return m.Type }

// Command is a decoded, validated message from a client.
type Command interface {
	CommandType() string
	validate() error
}

type JoinRoomCommand struct {
	Type   string `json:"type"`
	RoomID RoomID `json:"roomId,omitempty"`
	Name   string `json:"name"`
	Avatar int    `json:"avatar"`
}

// RoomCommand carries only a target room.
// Used for get_state, start_game, end_voting and return_to_lobby.
type RoomCommand struct {
	Type   string `json:"type"`
	RoomID RoomID `json:"roomId"`
}

type GetRoomsCommand struct {
	Type string `json:"type"`
}

type StopRoundCommand struct {
	Type    string  `json:"type"`
	RoomID  RoomID  `json:"roomId"`
	Answers Answers `json:"answers,omitempty"`
}

type SubmitAnswersCommand struct {
	Type    string  `json:"type"`
	RoomID  RoomID  `json:"roomId"`
	Answers Answers `json:"answers"`
}

type SubmitVotesCommand struct {
	Type   string `json:"type"`
	RoomID RoomID `json:"roomId"`
	Votes  Ballot `json:"votes"`
}

func (c JoinRoomCommand) CommandType() string      { return CmdJoinRoom }
func (c RoomCommand) CommandType() string          { return c.Type }
func (c GetRoomsCommand) CommandType() string      { return CmdGetRooms }
func (c StopRoundCommand) CommandType() string     { return CmdStopRound }
func (c SubmitAnswersCommand) CommandType() string { return CmdSubmitAnswers }
func (c SubmitVotesCommand) CommandType() string   { return CmdSubmitVotes }

func (c JoinRoomCommand) validate() error {
	if c.RoomID != "" && !ValidRoomID(c.RoomID) {
		return ErrInvalidRoomID
	}
	if utf8.RuneCountInString(strings.TrimSpace(c.Name)) > maxNameLength {
		return fmt.Errorf("%w: name longer than %d characters", ErrInvalidCommand, maxNameLength)
	}
	if c.Avatar < 0 {
		return fmt.Errorf("%w: negative avatar", ErrInvalidCommand)
	}
	return nil
}

func (c RoomCommand) validate() error { return validateRoomID(c.RoomID) }

func (c GetRoomsCommand) validate() error { return nil }

func (c StopRoundCommand) validate() error {
	if err := validateRoomID(c.RoomID); err != nil {
		return err
	}
	return validateAnswers(c.Answers)
}

func (c SubmitAnswersCommand) validate() error {
	if err := validateRoomID(c.RoomID); err != nil {
		return err
	}
	if c.Answers == nil {
		return fmt.Errorf("%w: missing answers", ErrInvalidCommand)
	}
	return validateAnswers(c.Answers)
}

func (c SubmitVotesCommand) validate() error {
	if err := validateRoomID(c.RoomID); err != nil {
		return err
	}
	if c.Votes == nil {
		return fmt.Errorf("%w: missing votes", ErrInvalidCommand)
	}
	if len(c.Votes) > CategoryLimit {
		return fmt.Errorf("%w: too many categories", ErrInvalidCommand)
	}
	for category, judgments := range c.Votes {
		if len(category) > CategoryNameLimit {
			return fmt.Errorf("%w: category name too long", ErrInvalidCommand)
		}
		if len(judgments) > PlayerLimit {
			return fmt.Errorf("%w: too many judgments for %q", ErrInvalidCommand, category)
		}
	}
	return nil
}

func validateRoomID(id RoomID) error {
	if !ValidRoomID(id) {
		return ErrInvalidRoomID
	}
	return nil
}

func validateAnswers(a Answers) error {
	if len(a) > CategoryLimit {
		return fmt.Errorf("%w: too many answers", ErrInvalidCommand)
	}
	for category, text := range a {
		if len(category) > CategoryNameLimit {
			return fmt.Errorf("%w: category name too long", ErrInvalidCommand)
		}
		if utf8.RuneCountInString(text) > maxAnswerLength {
			return fmt.Errorf("%w: answer for %q longer than %d characters", ErrInvalidCommand, category, maxAnswerLength)
		}
	}
	return nil
}

// DecodeCommand parses one client frame into its typed command.
// Unknown types, unknown fields and out-of-range values are rejected.
func DecodeCommand(data []byte) (Command, error) {
	var head struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidCommand, err)
	}

	var cmd Command
	switch head.Type {
	case CmdJoinRoom:
		cmd = &JoinRoomCommand{}
	case CmdGetState, CmdStartGame, CmdEndVoting, CmdReturnToLobby:
		cmd = &RoomCommand{}
	case CmdGetRooms:
		cmd = &GetRoomsCommand{}
	case CmdStopRound:
		cmd = &StopRoundCommand{}
	case CmdSubmitAnswers:
		cmd = &SubmitAnswersCommand{}
	case CmdSubmitVotes:
		cmd = &SubmitVotesCommand{}
	default:
		return nil, fmt.Errorf("%w: unknown type %q", ErrInvalidCommand, head.Type)
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(cmd); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidCommand, err)
	}

	if err := cmd.validate(); err != nil {
		return nil, err
	}

	return cmd, nil
}

func roomUpdate(s Snapshot) RoomUpdateMessage {
	return RoomUpdateMessage{Type: EvtRoomUpdate, Room: s}
}

func rejected(command string, err error) CommandRejectedMessage {
	return CommandRejectedMessage{Type: EvtCommandRejected, Command: command, Reason: err.Error()}
}
