package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/sitechat/sitechat/internal/audit"
	"github.com/sitechat/sitechat/internal/domain"
	"github.com/sitechat/sitechat/internal/events"
	"github.com/sitechat/sitechat/internal/hub"
	"github.com/sitechat/sitechat/internal/presence"
	"github.com/sitechat/sitechat/internal/storage"
	"github.com/sitechat/sitechat/pkg/log"
)

// MessageStore is the slice of the storage collaborator the message
// pipeline needs.
type MessageStore interface {
	FindRoomID(ctx context.Context, code string) (int64, error)
	TouchSessionActivity(ctx context.Context, roomID int64, sessionID string) error
	InsertMessage(ctx context.Context, msg *domain.Message) error
}

type chatService struct {
	hub      *hub.Hub
	tracker  *presence.Tracker
	store    MessageStore
	producer events.Producer
}

func NewChatService(
	h *hub.Hub,
	tracker *presence.Tracker,
	store MessageStore,
	producer events.Producer,
) ChatService {
	return &chatService{
		hub:      h,
		tracker:  tracker,
		store:    store,
		producer: producer,
	}
}

// HandleJoinSession binds a visitor connection to its session and
// channels. Malformed joins are dropped; a connection joins at most
// once.
func (s *chatService) HandleJoinSession(ctx context.Context, c *hub.Client, room, sessionID string) error {
	room = strings.TrimSpace(room)
	sessionID = strings.TrimSpace(sessionID)
	if room == "" || sessionID == "" {
		return nil
	}

	if !c.State.JoinVisitor(room, sessionID) {
		return nil
	}

	s.hub.JoinChannels(c, hub.ChannelsFor(domain.SenderGuest, room, sessionID))
	s.tracker.ConnectionJoined(ctx, room, sessionID)

	audit.Log(ctx, audit.ActionJoinSession, sessionID, "visitor joined session")
	return nil
}

// HandleAdminConnect binds an admin connection to the room channel and
// refreshes the admin's heartbeat. Repeated admin_connect frames from
// the same connection act as heartbeats.
func (s *chatService) HandleAdminConnect(ctx context.Context, c *hub.Client, room, adminID string) error {
	room = strings.TrimSpace(room)
	adminID = strings.TrimSpace(adminID)
	if room == "" || adminID == "" {
		return nil
	}

	role, joinedRoom, _, joined := c.State.Identity()
	if joined && (role != domain.SenderAdmin || joinedRoom != room) {
		return nil
	}

	if c.State.JoinAdmin(room, adminID) {
		s.hub.JoinChannels(c, hub.ChannelsFor(domain.SenderAdmin, room, domain.AdminSessionID))
		audit.Log(ctx, audit.ActionAdminConnect, adminID, "admin connected")
	}

	s.tracker.AdminHeartbeat(ctx, room, adminID)
	return nil
}

// HandleSendMessage runs the message pipeline: validate, resolve the
// room, persist, touch activity, echo to the sender, then broadcast to
// the resolved scope. A message is never broadcast unless persistence
// succeeded.
func (s *chatService) HandleSendMessage(ctx context.Context, c *hub.Client, msg *domain.SendMessageMessage) error {
	body := strings.TrimSpace(msg.Message)
	if body == "" {
		return nil
	}

	role, joinedRoom, connSession, joined := c.State.Identity()
	if !joined || msg.Room == "" || msg.Room != joinedRoom {
		return nil
	}

	// The sender role comes from the join tuple, never from the frame.
	sessionID := connSession
	if role == domain.SenderAdmin {
		sessionID = strings.TrimSpace(msg.SessionID)
		if sessionID == "" || sessionID == domain.AdminSessionID {
			return nil
		}
	}

	roomID, err := s.store.FindRoomID(ctx, msg.Room)
	if err != nil {
		if errors.Is(err, storage.ErrRoomNotFound) {
			return c.SendMessage(domain.NewErrorMessage("room not found"))
		}
		l := log.Ctx(ctx)
		l.Error().Err(err).Str(log.FieldRoom, msg.Room).Msg("room lookup failed")
		return c.SendMessage(domain.NewErrorMessage("room lookup failed"))
	}

	ts := time.Now()
	if msg.Timestamp > 0 {
		ts = time.UnixMilli(msg.Timestamp)
	}

	stored := &domain.Message{
		ID:         uuid.New().String(),
		RoomID:     roomID,
		Room:       msg.Room,
		SessionID:  sessionID,
		SenderType: role,
		Body:       body,
		Timestamp:  ts,
	}

	if err := s.store.InsertMessage(ctx, stored); err != nil {
		return c.SendMessage(domain.NewErrorMessage("failed to store message"))
	}

	if err := s.store.TouchSessionActivity(ctx, roomID, sessionID); err != nil {
		l := log.Ctx(ctx)
		l.Warn().Err(err).Str(log.FieldSessionID, sessionID).Msg("failed to touch session activity")
	}

	out := stored.ToReceiveOut()

	// Echo the stored message so the sender's UI reflects confirmed
	// state, then fan out to the scope minus the sender.
	c.SendMessage(out)

	scope := hub.ScopeForMessage(role, msg.Room, sessionID)
	if err := s.hub.BroadcastToChannel(scope, out, c.ID); err != nil {
		l := log.Ctx(ctx)
		l.Error().Err(err).Str("scope", scope).Msg("broadcast failed")
	}

	if err := s.producer.Produce(ctx, &events.Event{
		Name:      events.EventMessageSent,
		Room:      msg.Room,
		SessionID: sessionID,
		MessageID: stored.ID,
		Sender:    role,
		At:        ts,
	}); err != nil {
		l := log.Ctx(ctx)
		l.Warn().Err(err).Msg("event export failed")
	}

	audit.LogWithDetail(ctx, audit.ActionSendMessage, sessionID, stored.ID, "message stored and routed")
	return nil
}

// HandleTyping relays a typing signal to the room, skipping the typer's
// own private channel so a visitor's other tabs do not see their own
// notice. Typing is fire-and-forget; loss is acceptable.
func (s *chatService) HandleTyping(ctx context.Context, c *hub.Client, room, name string) error {
	_, joinedRoom, sessionID, joined := c.State.Identity()
	if !joined || room == "" || room != joinedRoom {
		return nil
	}

	out := &domain.TypingOut{
		Type:      domain.MsgTypeUserTyping,
		Name:      name,
		SessionID: sessionID,
	}

	return s.hub.BroadcastToChannelExcept(
		hub.RoomChannel(room),
		hub.PrivateChannel(room, sessionID),
		out,
		c.ID,
	)
}

// HandleDisconnect runs once per connection, for clean closes and
// abrupt transport loss alike. Only visitor connections carry presence
// weight; admin presence expires via the heartbeat sweeper.
func (s *chatService) HandleDisconnect(ctx context.Context, c *hub.Client) error {
	role, room, sessionID, joined := c.State.Identity()
	if !joined {
		return nil
	}

	if role == domain.SenderGuest {
		s.tracker.ConnectionLeft(ctx, room, sessionID)
	}

	audit.Log(ctx, audit.ActionDisconnect, sessionID, "connection closed")
	return nil
}

func (s *chatService) Start(ctx context.Context) error {
	s.tracker.Start(ctx)
	l := log.L()
	l.Info().Msg("chat service started")
	return nil
}

func (s *chatService) Stop() error {
	s.tracker.Stop()
	if err := s.producer.Close(); err != nil {
		l := log.L()
		l.Warn().Err(err).Msg("failed to close event producer")
	}
	return nil
}
