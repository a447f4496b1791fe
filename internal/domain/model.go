package domain

import (
	"time"
)

// RoomModel is the GORM model for the rooms table. Rooms are created by
// the dashboard; the coordinator only resolves codes to ids.
type RoomModel struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"room_id"`
	Code      string    `gorm:"type:varchar(36);uniqueIndex;not null" json:"code"`
	AdminID   string    `gorm:"type:varchar(36);index;not null" json:"admin_id"`
	Name      string    `gorm:"type:varchar(200);not null" json:"name"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (RoomModel) TableName() string {
	return "rooms"
}

// SessionModel is the GORM model for visitor sessions. One row per
// visitor per room; last_active is refreshed by the presence tracker
// and the message pipeline.
type SessionModel struct {
	ID         int64     `gorm:"primaryKey;autoIncrement"`
	RoomID     int64     `gorm:"index:idx_room_session,unique;not null"`
	SessionID  string    `gorm:"type:varchar(36);index:idx_room_session,unique;not null"`
	Name       string    `gorm:"type:varchar(100)"`
	Email      string    `gorm:"type:varchar(255)"`
	LastActive time.Time `gorm:"index"`
	CreatedAt  time.Time `gorm:"autoCreateTime"`
}

func (SessionModel) TableName() string {
	return "sessions"
}

// MessageModel is the GORM model for chat messages.
type MessageModel struct {
	ID         string    `gorm:"type:varchar(36);primaryKey"`
	RoomID     int64     `gorm:"index;not null"`
	SessionID  string    `gorm:"type:varchar(36);index;not null"`
	SenderType string    `gorm:"type:varchar(10);not null"`
	Body       string    `gorm:"type:text;not null"`
	Timestamp  time.Time `gorm:"index;not null"`
}

func (MessageModel) TableName() string {
	return "messages"
}

// WidgetSettingsModel is the GORM model for per-room widget settings.
type WidgetSettingsModel struct {
	RoomID    int64     `gorm:"primaryKey"`
	Color     string    `gorm:"type:varchar(20)"`
	Greeting  string    `gorm:"type:varchar(500)"`
	Position  string    `gorm:"type:varchar(10)"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

func (WidgetSettingsModel) TableName() string {
	return "widget_settings"
}

// Message is the domain view of a stored chat message.
type Message struct {
	ID         string    `json:"message_id"`
	RoomID     int64     `json:"room_id"`
	Room       string    `json:"room"`
	SessionID  string    `json:"session_id"`
	SenderType string    `json:"sender_type"`
	Body       string    `json:"message"`
	Timestamp  time.Time `json:"timestamp"`
}

// ToReceiveOut converts a stored message to its wire representation.
func (m *Message) ToReceiveOut() *ReceiveMessageOut {
	return &ReceiveMessageOut{
		Type:       MsgTypeReceiveMessage,
		MessageID:  m.ID,
		RoomID:     m.RoomID,
		Room:       m.Room,
		SessionID:  m.SessionID,
		SenderType: m.SenderType,
		Message:    m.Body,
		Timestamp:  m.Timestamp.UnixMilli(),
	}
}

// Session is the domain view of a visitor session.
type Session struct {
	RoomID     int64     `json:"room_id"`
	SessionID  string    `json:"session_id"`
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	LastActive time.Time `json:"last_active"`
	CreatedAt  time.Time `json:"created_at"`
}

// WidgetSettings is the domain view of a room's widget settings.
type WidgetSettings struct {
	RoomID   int64  `json:"room_id"`
	Color    string `json:"color"`
	Greeting string `json:"greeting"`
	Position string `json:"position"`
}
