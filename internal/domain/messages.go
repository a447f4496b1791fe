package domain

// Sender roles.
const (
	SenderAdmin = "admin"
	SenderGuest = "guest"
)

// AdminSessionID is the reserved session id marker for the room-wide
// admin identity. It is never joined to a private channel.
const AdminSessionID = "admin"

// WebSocket message types from client.
const (
	MsgTypeJoinSession  = "join_session"
	MsgTypeSendMessage  = "send_message"
	MsgTypeUserTyping   = "user_typing"
	MsgTypeAdminConnect = "admin_connect"
)

// WebSocket message types to client.
const (
	MsgTypeReceiveMessage = "receive_message"
	MsgTypeUserStatus     = "user_status"
	MsgTypeAdminStatus    = "admin_status"
	MsgTypeError          = "error"
)

// BaseMessage is the envelope for all WebSocket messages.
type BaseMessage struct {
	Type string `json:"type"`
}

// Client -> Server messages

type JoinSessionMessage struct {
	Type      string `json:"type"`
	Room      string `json:"room"`
	SessionID string `json:"session_id"`
}

type SendMessageMessage struct {
	Type       string `json:"type"`
	Room       string `json:"room"`
	Message    string `json:"message"`
	SenderType string `json:"sender_type,omitempty"`
	SessionID  string `json:"session_id,omitempty"`
	Timestamp  int64  `json:"timestamp,omitempty"` // epoch millis; 0 means server time
}

type TypingMessage struct {
	Type string `json:"type"`
	Room string `json:"room"`
	Name string `json:"name"`
}

type AdminConnectMessage struct {
	Type    string `json:"type"`
	Room    string `json:"room"`
	AdminID string `json:"adminId"`
}

// Server -> Client messages

type ReceiveMessageOut struct {
	Type       string `json:"type"`
	MessageID  string `json:"message_id"`
	RoomID     int64  `json:"room_id"`
	Room       string `json:"room"`
	SessionID  string `json:"session_id"`
	SenderType string `json:"sender_type"`
	Message    string `json:"message"`
	Timestamp  int64  `json:"timestamp"`
}

type UserStatusOut struct {
	Type       string `json:"type"`
	SessionID  string `json:"session_id"`
	IsOnline   bool   `json:"isOnline"`
	LastActive int64  `json:"last_active"`
}

type AdminStatusOut struct {
	Type     string `json:"type"`
	IsOnline bool   `json:"isOnline"`
}

type TypingOut struct {
	Type      string `json:"type"`
	Name      string `json:"name"`
	SessionID string `json:"session_id"`
}

type ErrorMessage struct {
	Type   string `json:"type"`
	Reason string `json:"reason"`
}

func NewErrorMessage(reason string) *ErrorMessage {
	return &ErrorMessage{
		Type:   MsgTypeError,
		Reason: reason,
	}
}
