/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package stop

import "github.com/google/uuid"

// SessionID identifies one connection. It is the only key used to address
// a player inside a room.
type SessionID string

func NewSessionID() SessionID {
	return SessionID(uuid.NewString())
}
