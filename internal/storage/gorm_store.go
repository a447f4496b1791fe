package storage

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/sitechat/sitechat/internal/domain"
	"github.com/sitechat/sitechat/pkg/log"
)

// GormStore implements Store using GORM.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore creates a GORM-backed store and migrates the schema.
func NewGormStore(db *gorm.DB) (*GormStore, error) {
	if err := db.AutoMigrate(
		&domain.RoomModel{},
		&domain.SessionModel{},
		&domain.MessageModel{},
		&domain.WidgetSettingsModel{},
	); err != nil {
		return nil, err
	}
	return &GormStore{db: db}, nil
}

func (s *GormStore) FindRoomID(ctx context.Context, code string) (int64, error) {
	var room domain.RoomModel
	result := s.db.WithContext(ctx).Select("id").First(&room, "code = ?", code)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return 0, ErrRoomNotFound
		}
		return 0, result.Error
	}
	return room.ID, nil
}

func (s *GormStore) TouchSessionActivity(ctx context.Context, roomID int64, sessionID string) error {
	result := s.db.WithContext(ctx).
		Model(&domain.SessionModel{}).
		Where("room_id = ? AND session_id = ?", roomID, sessionID).
		Update("last_active", time.Now())
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrSessionNotFound
	}
	return nil
}

func (s *GormStore) InsertMessage(ctx context.Context, msg *domain.Message) error {
	model := &domain.MessageModel{
		ID:         msg.ID,
		RoomID:     msg.RoomID,
		SessionID:  msg.SessionID,
		SenderType: msg.SenderType,
		Body:       msg.Body,
		Timestamp:  msg.Timestamp,
	}
	result := s.db.WithContext(ctx).Create(model)
	if result.Error != nil {
		l := log.Ctx(ctx)
		l.Error().Err(result.Error).Str(log.FieldMessageID, msg.ID).Msg("failed to insert message")
		return result.Error
	}
	return nil
}

func (s *GormStore) CreateRoom(ctx context.Context, adminID, name string) (*domain.RoomModel, error) {
	room := &domain.RoomModel{
		Code:    uuid.New().String(),
		AdminID: adminID,
		Name:    name,
	}
	if err := s.db.WithContext(ctx).Create(room).Error; err != nil {
		return nil, err
	}
	l := log.Ctx(ctx)
	l.Debug().Str(log.FieldRoom, room.Code).Int64(log.FieldRoomID, room.ID).Msg("room created")
	return room, nil
}

func (s *GormStore) GetRoomByCode(ctx context.Context, code string) (*domain.RoomModel, error) {
	var room domain.RoomModel
	result := s.db.WithContext(ctx).First(&room, "code = ?", code)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrRoomNotFound
		}
		return nil, result.Error
	}
	return &room, nil
}

func (s *GormStore) CreateSession(ctx context.Context, roomID int64, sessionID, name, email string) (*domain.Session, error) {
	model := &domain.SessionModel{
		RoomID:     roomID,
		SessionID:  sessionID,
		Name:       name,
		Email:      email,
		LastActive: time.Now(),
	}
	// Re-authenticating visitors keep their session row.
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "room_id"}, {Name: "session_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"name", "email", "last_active"}),
		}).
		Create(model).Error
	if err != nil {
		return nil, err
	}
	return &domain.Session{
		RoomID:     model.RoomID,
		SessionID:  model.SessionID,
		Name:       model.Name,
		Email:      model.Email,
		LastActive: model.LastActive,
		CreatedAt:  model.CreatedAt,
	}, nil
}

func (s *GormStore) ListSessions(ctx context.Context, roomID int64) ([]domain.Session, error) {
	var models []domain.SessionModel
	err := s.db.WithContext(ctx).
		Where("room_id = ?", roomID).
		Order("last_active DESC").
		Find(&models).Error
	if err != nil {
		return nil, err
	}

	sessions := make([]domain.Session, len(models))
	for i, m := range models {
		sessions[i] = domain.Session{
			RoomID:     m.RoomID,
			SessionID:  m.SessionID,
			Name:       m.Name,
			Email:      m.Email,
			LastActive: m.LastActive,
			CreatedAt:  m.CreatedAt,
		}
	}
	return sessions, nil
}

func (s *GormStore) ListMessages(ctx context.Context, roomID int64, sessionID string, limit int) ([]domain.Message, error) {
	if limit < 1 {
		limit = 100
	}

	var models []domain.MessageModel
	err := s.db.WithContext(ctx).
		Where("room_id = ? AND session_id = ?", roomID, sessionID).
		Order("timestamp ASC").
		Limit(limit).
		Find(&models).Error
	if err != nil {
		return nil, err
	}

	messages := make([]domain.Message, len(models))
	for i, m := range models {
		messages[i] = domain.Message{
			ID:         m.ID,
			RoomID:     m.RoomID,
			SessionID:  m.SessionID,
			SenderType: m.SenderType,
			Body:       m.Body,
			Timestamp:  m.Timestamp,
		}
	}
	return messages, nil
}

func (s *GormStore) GetWidgetSettings(ctx context.Context, roomID int64) (*domain.WidgetSettings, error) {
	var model domain.WidgetSettingsModel
	result := s.db.WithContext(ctx).First(&model, "room_id = ?", roomID)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			// Every room has settings; unset rooms get the defaults.
			return &domain.WidgetSettings{
				RoomID:   roomID,
				Color:    "#4a90d9",
				Greeting: "Hi! How can we help?",
				Position: "right",
			}, nil
		}
		return nil, result.Error
	}
	return &domain.WidgetSettings{
		RoomID:   model.RoomID,
		Color:    model.Color,
		Greeting: model.Greeting,
		Position: model.Position,
	}, nil
}

func (s *GormStore) SaveWidgetSettings(ctx context.Context, settings *domain.WidgetSettings) error {
	model := &domain.WidgetSettingsModel{
		RoomID:   settings.RoomID,
		Color:    settings.Color,
		Greeting: settings.Greeting,
		Position: settings.Position,
	}
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "room_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"color", "greeting", "position", "updated_at"}),
		}).
		Create(model).Error
}
