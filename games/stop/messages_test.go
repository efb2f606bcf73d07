/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package stop

import (
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeCommand(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want Command
	}{
		{
			name: "join with room",
			in:   `{"type":"join_room","roomId":"abc-12","name":"Ana","avatar":3}`,
			want: &JoinRoomCommand{Type: CmdJoinRoom, RoomID: "abc-12", Name: "Ana", Avatar: 3},
		},
		{
			name: "join without room",
			in:   `{"type":"join_room","name":"Ana"}`,
			want: &JoinRoomCommand{Type: CmdJoinRoom, Name: "Ana"},
		},
		{
			name: "start game",
			in:   `{"type":"start_game","roomId":"ROOM1"}`,
			want: &RoomCommand{Type: CmdStartGame, RoomID: "ROOM1"},
		},
		{
			name: "get rooms",
			in:   `{"type":"get_rooms"}`,
			want: &GetRoomsCommand{Type: CmdGetRooms},
		},
		{
			name: "stop without answers",
			in:   `{"type":"stop_round","roomId":"ROOM1"}`,
			want: &StopRoundCommand{Type: CmdStopRound, RoomID: "ROOM1"},
		},
		{
			name: "submit answers",
			in:   `{"type":"submit_answers","roomId":"ROOM1","answers":{"Animal":"Bear"}}`,
			want: &SubmitAnswersCommand{Type: CmdSubmitAnswers, RoomID: "ROOM1", Answers: Answers{"Animal": "Bear"}},
		},
		{
			name: "submit votes",
			in:   `{"type":"submit_votes","roomId":"ROOM1","votes":{"Animal":{"p2":false}}}`,
			want: &SubmitVotesCommand{Type: CmdSubmitVotes, RoomID: "ROOM1", Votes: Ballot{"Animal": {"p2": false}}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeCommand([]byte(tt.in))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDecodeCommandRejects(t *testing.T) {
	long := strings.Repeat("a", maxAnswerLength+1)

	tests := []struct {
		name string
		in   string
		want error
	}{
		{"malformed json", `{"type":`, ErrInvalidCommand},
		{"not an object", `[1,2]`, ErrInvalidCommand},
		{"unknown type", `{"type":"launch_missiles"}`, ErrInvalidCommand},
		{"missing type", `{"roomId":"ROOM1"}`, ErrInvalidCommand},
		{"unknown field", `{"type":"start_game","roomId":"ROOM1","force":true}`, ErrInvalidCommand},
		{"wrong field type", `{"type":"join_room","avatar":"red"}`, ErrInvalidCommand},
		{"negative avatar", `{"type":"join_room","avatar":-1}`, ErrInvalidCommand},
		{"long name", `{"type":"join_room","name":"` + strings.Repeat("n", maxNameLength+1) + `"}`, ErrInvalidCommand},
		{"bad join room id", `{"type":"join_room","roomId":"a b"}`, ErrInvalidRoomID},
		{"missing room id", `{"type":"start_game"}`, ErrInvalidRoomID},
		{"path in room id", `{"type":"get_state","roomId":"../x"}`, ErrInvalidRoomID},
		{"missing answers", `{"type":"submit_answers","roomId":"ROOM1"}`, ErrInvalidCommand},
		{"long answer", `{"type":"submit_answers","roomId":"ROOM1","answers":{"Animal":"` + long + `"}}`, ErrInvalidCommand},
		{"missing votes", `{"type":"submit_votes","roomId":"ROOM1"}`, ErrInvalidCommand},
		{"vote not a bool", `{"type":"submit_votes","roomId":"ROOM1","votes":{"Animal":{"p2":"yes"}}}`, ErrInvalidCommand},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd, err := DecodeCommand([]byte(tt.in))
			assert.Nil(t, cmd)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestDecodeCommandCountsRunes(t *testing.T) {
	name := strings.Repeat("é", maxNameLength)

	cmd, err := DecodeCommand([]byte(`{"type":"join_room","name":"` + name + `"}`))
	require.NoError(t, err)
	assert.Equal(t, name, cmd.(*JoinRoomCommand).Name)
}

func TestMessagesEncodeWithType(t *testing.T) {
	msgs := []Message{
		JoinedRoomMessage{Type: EvtJoinedRoom, RoomID: "R", PlayerID: "p"},
		GameStartedMessage{Type: EvtGameStarted, Letter: "B"},
		StopCalledMessage{Type: EvtStopCalled, StopperID: "p", StopperName: "Ana"},
		rejected(CmdStartGame, ErrNotAuthorized),
	}

	for _, msg := range msgs {
		data, err := json.Marshal(msg)
		require.NoError(t, err)

		var head struct {
			Type string `json:"type"`
		}
		require.NoError(t, json.Unmarshal(data, &head))
		assert.Equal(t, msg.MessageType(), head.Type)
	}
}

func TestRejectedCarriesReason(t *testing.T) {
	msg := rejected(CmdStartGame, ErrNotAuthorized)

	assert.Equal(t, EvtCommandRejected, msg.Type)
	assert.Equal(t, CmdStartGame, msg.Command)
	assert.Equal(t, ErrNotAuthorized.Error(), msg.Reason)
}

// fullBallot judges PlayerLimit players in CategoryLimit categories whose
// names are as long as allowed.
func fullBallot() Ballot {
	ballot := make(Ballot, CategoryLimit)
	for i := range CategoryLimit {
		category := fmt.Sprintf("%02d", i) + strings.Repeat("\x01", CategoryNameLimit-2)
		judgments := make(map[SessionID]bool, PlayerLimit)
		for range PlayerLimit {
			judgments[NewSessionID()] = false
		}
		ballot[category] = judgments
	}
	return ballot
}

func TestDecodeLargestBallot(t *testing.T) {
	ballot := fullBallot()

	data, err := json.Marshal(SubmitVotesCommand{Type: CmdSubmitVotes, RoomID: "ROOM1", Votes: ballot})
	require.NoError(t, err)
	assert.LessOrEqual(t, len(data), maxFrameSize)

	cmd, err := DecodeCommand(data)
	require.NoError(t, err)
	assert.Len(t, cmd.(*SubmitVotesCommand).Votes, CategoryLimit)

	for _, judgments := range ballot {
		judgments[NewSessionID()] = true
		break
	}
	data, err = json.Marshal(SubmitVotesCommand{Type: CmdSubmitVotes, RoomID: "ROOM1", Votes: ballot})
	require.NoError(t, err)

	_, err = DecodeCommand(data)
	assert.ErrorIs(t, err, ErrInvalidCommand)
}

func TestDecodeLargestAnswerSheet(t *testing.T) {
	answers := make(Answers, CategoryLimit)
	for i := range CategoryLimit {
		category := fmt.Sprintf("%02d", i) + strings.Repeat("\x01", CategoryNameLimit-2)
		answers[category] = strings.Repeat("\x01", maxAnswerLength)
	}

	data, err := json.Marshal(SubmitAnswersCommand{Type: CmdSubmitAnswers, RoomID: "ROOM1", Answers: answers})
	require.NoError(t, err)
	assert.LessOrEqual(t, len(data), maxFrameSize)

	_, err = DecodeCommand(data)
	require.NoError(t, err)

	answers["one too many"] = "x"
	data, err = json.Marshal(SubmitAnswersCommand{Type: CmdSubmitAnswers, RoomID: "ROOM1", Answers: answers})
	require.NoError(t, err)

	_, err = DecodeCommand(data)
	assert.ErrorIs(t, err, ErrInvalidCommand)
}
