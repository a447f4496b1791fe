package storage

import (
	"context"
	"errors"

	"github.com/sitechat/sitechat/internal/domain"
)

var (
	ErrRoomNotFound    = errors.New("room not found")
	ErrSessionNotFound = errors.New("session not found")
)

// Store is the persistence collaborator. The coordinator calls the
// first three methods; the rest back the dashboard REST surface.
type Store interface {
	// FindRoomID resolves a room code to its durable id.
	// Returns ErrRoomNotFound if no such room exists.
	FindRoomID(ctx context.Context, code string) (int64, error)

	// TouchSessionActivity sets a session's last_active to now.
	// Returns ErrSessionNotFound if no session row matches.
	TouchSessionActivity(ctx context.Context, roomID int64, sessionID string) error

	// InsertMessage durably stores a chat message.
	InsertMessage(ctx context.Context, msg *domain.Message) error

	CreateRoom(ctx context.Context, adminID, name string) (*domain.RoomModel, error)
	GetRoomByCode(ctx context.Context, code string) (*domain.RoomModel, error)
	CreateSession(ctx context.Context, roomID int64, sessionID, name, email string) (*domain.Session, error)
	ListSessions(ctx context.Context, roomID int64) ([]domain.Session, error)
	ListMessages(ctx context.Context, roomID int64, sessionID string, limit int) ([]domain.Message, error)
	GetWidgetSettings(ctx context.Context, roomID int64) (*domain.WidgetSettings, error)
	SaveWidgetSettings(ctx context.Context, settings *domain.WidgetSettings) error
}
