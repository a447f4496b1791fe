package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/sitechat/sitechat/internal/domain"
)

func newTestStore(t *testing.T) *GormStore {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	store, err := NewGormStore(db)
	require.NoError(t, err)
	return store
}

func TestFindRoomID(t *testing.T) {
	req := require.New(t)
	store := newTestStore(t)
	ctx := context.Background()

	room, err := store.CreateRoom(ctx, "admin-1", "Acme Support")
	req.NoError(err)
	req.NotEmpty(room.Code)
	req.NotZero(room.ID)

	id, err := store.FindRoomID(ctx, room.Code)
	req.NoError(err)
	req.Equal(room.ID, id)

	_, err = store.FindRoomID(ctx, "no-such-room")
	req.ErrorIs(err, ErrRoomNotFound)
}

func TestGetRoomByCode(t *testing.T) {
	req := require.New(t)
	store := newTestStore(t)
	ctx := context.Background()

	created, err := store.CreateRoom(ctx, "admin-1", "Acme Support")
	req.NoError(err)

	room, err := store.GetRoomByCode(ctx, created.Code)
	req.NoError(err)
	req.Equal("Acme Support", room.Name)
	req.Equal("admin-1", room.AdminID)

	_, err = store.GetRoomByCode(ctx, "missing")
	req.ErrorIs(err, ErrRoomNotFound)
}

func TestInsertAndListMessages(t *testing.T) {
	req := require.New(t)
	store := newTestStore(t)
	ctx := context.Background()

	room, err := store.CreateRoom(ctx, "admin-1", "Acme Support")
	req.NoError(err)

	base := time.Now().Add(-time.Hour).Truncate(time.Millisecond)
	for i, body := range []string{"first", "second", "third"} {
		err := store.InsertMessage(ctx, &domain.Message{
			ID:         uuid.New().String(),
			RoomID:     room.ID,
			SessionID:  "v1",
			SenderType: domain.SenderGuest,
			Body:       body,
			Timestamp:  base.Add(time.Duration(i) * time.Minute),
		})
		req.NoError(err)
	}
	// A different conversation in the same room stays separate.
	err = store.InsertMessage(ctx, &domain.Message{
		ID:         uuid.New().String(),
		RoomID:     room.ID,
		SessionID:  "v2",
		SenderType: domain.SenderGuest,
		Body:       "other",
		Timestamp:  base,
	})
	req.NoError(err)

	messages, err := store.ListMessages(ctx, room.ID, "v1", 0)
	req.NoError(err)
	req.Len(messages, 3)
	req.Equal("first", messages[0].Body)
	req.Equal("third", messages[2].Body)

	messages, err = store.ListMessages(ctx, room.ID, "v1", 2)
	req.NoError(err)
	req.Len(messages, 2)
}

func TestCreateSessionUpsert(t *testing.T) {
	req := require.New(t)
	store := newTestStore(t)
	ctx := context.Background()

	room, err := store.CreateRoom(ctx, "admin-1", "Acme Support")
	req.NoError(err)

	_, err = store.CreateSession(ctx, room.ID, "v1", "Alice", "alice@example.com")
	req.NoError(err)

	// Re-authenticating with the same session id updates, not duplicates.
	updated, err := store.CreateSession(ctx, room.ID, "v1", "Alice B", "alice@example.com")
	req.NoError(err)
	req.Equal("Alice B", updated.Name)

	sessions, err := store.ListSessions(ctx, room.ID)
	req.NoError(err)
	req.Len(sessions, 1)
	req.Equal("Alice B", sessions[0].Name)
}

func TestTouchSessionActivity(t *testing.T) {
	req := require.New(t)
	store := newTestStore(t)
	ctx := context.Background()

	room, err := store.CreateRoom(ctx, "admin-1", "Acme Support")
	req.NoError(err)

	created, err := store.CreateSession(ctx, room.ID, "v1", "Alice", "")
	req.NoError(err)

	time.Sleep(10 * time.Millisecond)
	req.NoError(store.TouchSessionActivity(ctx, room.ID, "v1"))

	sessions, err := store.ListSessions(ctx, room.ID)
	req.NoError(err)
	req.Len(sessions, 1)
	req.True(sessions[0].LastActive.After(created.LastActive))

	err = store.TouchSessionActivity(ctx, room.ID, "no-such-session")
	req.ErrorIs(err, ErrSessionNotFound)
}

func TestWidgetSettingsDefaultsAndSave(t *testing.T) {
	req := require.New(t)
	store := newTestStore(t)
	ctx := context.Background()

	room, err := store.CreateRoom(ctx, "admin-1", "Acme Support")
	req.NoError(err)

	settings, err := store.GetWidgetSettings(ctx, room.ID)
	req.NoError(err)
	req.Equal("#4a90d9", settings.Color)
	req.Equal("right", settings.Position)

	req.NoError(store.SaveWidgetSettings(ctx, &domain.WidgetSettings{
		RoomID:   room.ID,
		Color:    "#222222",
		Greeting: "Hello!",
		Position: "left",
	}))
	// Saving again overwrites in place.
	req.NoError(store.SaveWidgetSettings(ctx, &domain.WidgetSettings{
		RoomID:   room.ID,
		Color:    "#333333",
		Greeting: "Hello!",
		Position: "left",
	}))

	settings, err = store.GetWidgetSettings(ctx, room.ID)
	req.NoError(err)
	req.Equal("#333333", settings.Color)
	req.Equal("left", settings.Position)
}
