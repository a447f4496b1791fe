package hub

import (
	"fmt"

	"github.com/sitechat/sitechat/internal/domain"
)

// RoomChannel names the room-wide channel: every connection joined to
// the room, admins included.
func RoomChannel(room string) string {
	return room
}

// PrivateChannel names the per-visitor channel inside a room. Only that
// visitor's connections are members; admins address it explicitly per
// message.
func PrivateChannel(room, sessionID string) string {
	return fmt.Sprintf("%s:%s", room, sessionID)
}

// ChannelsFor returns the channel set a connection joins. Visitors join
// the room channel plus their own private channel. Admins join only the
// room channel; the reserved admin marker is never given a private
// channel even if it shows up as a session id.
func ChannelsFor(role, room, sessionID string) []string {
	if role == domain.SenderAdmin || sessionID == domain.AdminSessionID {
		return []string{RoomChannel(room)}
	}
	return []string{RoomChannel(room), PrivateChannel(room, sessionID)}
}

// ScopeForMessage resolves the delivery scope of an outgoing chat
// message. Admin replies go to the one visitor's private channel;
// broadcasting them room-wide would leak replies across visitors.
// Guest messages go to the room channel, reaching all admins and the
// visitor's own other tabs.
func ScopeForMessage(senderRole, room, sessionID string) string {
	if senderRole == domain.SenderAdmin {
		return PrivateChannel(room, sessionID)
	}
	return RoomChannel(room)
}
