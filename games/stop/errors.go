/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package stop

import "errors"

var (
	ErrRoomNotFound      = errors.New("room not found")
	ErrRoomFull          = errors.New("room full")
	ErrNotAuthorized     = errors.New("only the host may do that")
	ErrInvalidTransition = errors.New("not allowed in the current state")
	ErrNotMember         = errors.New("not a member of this room")
	ErrInvalidRoomID     = errors.New("invalid room id")
	ErrInvalidCommand    = errors.New("invalid command")
	ErrRateLimited       = errors.New("too many commands, slow down")
)
