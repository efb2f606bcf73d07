/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package stop

// FindOrCreatePublicRoom returns the first joinable public room, creating
// one with the default categories and capacity when there is none.
//
// The returned room may fill up before the caller joins it; Join with an
// empty room id makes the same choice atomically with the join.
func (reg *Registry) FindOrCreatePublicRoom() RoomID {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	return reg.findOrCreatePublicRoomLocked().id
}

func (reg *Registry) findOrCreatePublicRoomLocked() *Room {
	if r := reg.findJoinableLocked(); r != nil {
		return r
	}
	return reg.createRoomLocked(reg.newRoomIDLocked(), true, reg.opts.MaxPlayers, reg.opts.Categories)
}
