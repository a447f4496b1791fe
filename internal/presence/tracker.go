package presence

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sitechat/sitechat/internal/domain"
	"github.com/sitechat/sitechat/internal/events"
	"github.com/sitechat/sitechat/internal/registry"
	"github.com/sitechat/sitechat/internal/storage"
	"github.com/sitechat/sitechat/pkg/log"
)

// Emitter delivers a presence event to every connection in a room.
type Emitter interface {
	ToRoom(room string, message interface{})
}

// ActivityStore is the slice of the storage collaborator the tracker
// needs to keep last_active current.
type ActivityStore interface {
	FindRoomID(ctx context.Context, code string) (int64, error)
	TouchSessionActivity(ctx context.Context, roomID int64, sessionID string) error
}

// Config holds presence tracker configuration.
type Config struct {
	SweepInterval time.Duration
	AdminTTL      time.Duration
}

type adminKey struct {
	room    string
	adminID string
}

// Tracker owns all presence state: the per-session connection counters
// and the per-admin heartbeat timestamps. Handlers never touch the maps
// directly; every mutation goes through the tracker's serialized API.
// Storage, registry, and event-export calls happen outside the lock.
// That means a fast offline/online flap can publish its status events
// out of order relative to the counter transitions; the counters stay
// correct and last_active persistence covers recency displays, so the
// events stay advisory.
type Tracker struct {
	mu     sync.Mutex
	online map[string]int         // room:session -> live connection count
	admins map[adminKey]time.Time // last heartbeat

	emitter  Emitter
	store    ActivityStore
	registry registry.Registry
	producer events.Producer
	cfg      Config
	cancel   context.CancelFunc
}

func NewTracker(emitter Emitter, store ActivityStore, reg registry.Registry, producer events.Producer, cfg Config) *Tracker {
	return &Tracker{
		online:   make(map[string]int),
		admins:   make(map[adminKey]time.Time),
		emitter:  emitter,
		store:    store,
		registry: reg,
		producer: producer,
		cfg:      cfg,
	}
}

func counterKey(room, sessionID string) string {
	return fmt.Sprintf("%s:%s", room, sessionID)
}

// ConnectionJoined records one more live connection for a visitor
// session. The first connection flips the session online and emits a
// user_status event; further tabs only bump the counter. last_active is
// persisted on every call so recency-based read paths stay consistent
// with the push-based state.
func (t *Tracker) ConnectionJoined(ctx context.Context, room, sessionID string) {
	key := counterKey(room, sessionID)

	t.mu.Lock()
	t.online[key]++
	becameOnline := t.online[key] == 1
	t.mu.Unlock()

	now := t.touchActivity(ctx, room, sessionID)

	if !becameOnline {
		return
	}

	t.emitter.ToRoom(room, &domain.UserStatusOut{
		Type:       domain.MsgTypeUserStatus,
		SessionID:  sessionID,
		IsOnline:   true,
		LastActive: now.UnixMilli(),
	})

	if err := t.registry.Register(ctx, room, sessionID); err != nil {
		l := log.Ctx(ctx)
		l.Warn().Err(err).Str(log.FieldRoom, room).Str(log.FieldSessionID, sessionID).Msg("live registry register failed")
	}

	t.produce(ctx, &events.Event{Name: events.EventVisitorOnline, Room: room, SessionID: sessionID, At: now})
}

// ConnectionLeft records one fewer live connection for a visitor
// session. The counter never goes below zero; only the last close flips
// the session offline and emits a user_status event.
func (t *Tracker) ConnectionLeft(ctx context.Context, room, sessionID string) {
	key := counterKey(room, sessionID)

	t.mu.Lock()
	count, ok := t.online[key]
	if !ok {
		t.mu.Unlock()
		return
	}
	count--
	wentOffline := count == 0
	if wentOffline {
		delete(t.online, key)
	} else {
		t.online[key] = count
	}
	t.mu.Unlock()

	now := t.touchActivity(ctx, room, sessionID)

	if !wentOffline {
		return
	}

	t.emitter.ToRoom(room, &domain.UserStatusOut{
		Type:       domain.MsgTypeUserStatus,
		SessionID:  sessionID,
		IsOnline:   false,
		LastActive: now.UnixMilli(),
	})

	if err := t.registry.Deregister(ctx, room, sessionID); err != nil {
		l := log.Ctx(ctx)
		l.Warn().Err(err).Str(log.FieldRoom, room).Str(log.FieldSessionID, sessionID).Msg("live registry deregister failed")
	}

	t.produce(ctx, &events.Event{Name: events.EventVisitorOffline, Room: room, SessionID: sessionID, At: now})
}

// OnlineCount returns the live connection count for a session.
func (t *Tracker) OnlineCount(room, sessionID string) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.online[counterKey(room, sessionID)]
}

// AdminHeartbeat sets or refreshes an admin's presence and announces it
// to the room. Admin presence is heartbeat-driven, not connection-
// counted: a dashboard may idle without a dedicated per-room
// connection, so the expiring heartbeat is the only reliable signal.
func (t *Tracker) AdminHeartbeat(ctx context.Context, room, adminID string) {
	key := adminKey{room: room, adminID: adminID}

	t.mu.Lock()
	_, existed := t.admins[key]
	t.admins[key] = time.Now()
	t.mu.Unlock()

	t.emitter.ToRoom(room, &domain.AdminStatusOut{
		Type:     domain.MsgTypeAdminStatus,
		IsOnline: true,
	})

	if !existed {
		t.produce(ctx, &events.Event{Name: events.EventAdminOnline, Room: room, Sender: adminID, At: time.Now()})
	}
}

// IsAdminOnline reports whether an admin has an unexpired heartbeat.
func (t *Tracker) IsAdminOnline(room, adminID string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.admins[adminKey{room: room, adminID: adminID}]
	return ok
}

// Start launches the admin heartbeat sweeper.
func (t *Tracker) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	t.cancel = cancel

	go t.sweepLoop(ctx)
	l := log.L()
	l.Info().Dur("interval", t.cfg.SweepInterval).Dur("ttl", t.cfg.AdminTTL).Msg("admin presence sweeper started")
}

func (t *Tracker) Stop() {
	if t.cancel != nil {
		t.cancel()
	}
}

func (t *Tracker) sweepLoop(ctx context.Context) {
	ticker := time.NewTicker(t.cfg.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			t.sweep(ctx)
		}
	}
}

// sweep expires admins whose last heartbeat is older than the TTL. An
// admin who stops heartbeating goes offline within one sweep period
// plus the TTL; that staleness bound is intentional.
func (t *Tracker) sweep(ctx context.Context) {
	now := time.Now()

	t.mu.Lock()
	var expired []adminKey
	for key, last := range t.admins {
		if now.Sub(last) > t.cfg.AdminTTL {
			expired = append(expired, key)
			delete(t.admins, key)
		}
	}
	t.mu.Unlock()

	for _, key := range expired {
		l := log.Ctx(ctx)
		l.Info().Str(log.FieldRoom, key.room).Str(log.FieldAdminID, key.adminID).Msg("admin presence expired")

		t.emitter.ToRoom(key.room, &domain.AdminStatusOut{
			Type:     domain.MsgTypeAdminStatus,
			IsOnline: false,
		})

		t.produce(ctx, &events.Event{Name: events.EventAdminOffline, Room: key.room, Sender: key.adminID, At: now})
	}
}

// touchActivity persists last_active for a session, best effort.
func (t *Tracker) touchActivity(ctx context.Context, room, sessionID string) time.Time {
	now := time.Now()

	roomID, err := t.store.FindRoomID(ctx, room)
	if err != nil {
		if !errors.Is(err, storage.ErrRoomNotFound) {
			l := log.Ctx(ctx)
			l.Warn().Err(err).Str(log.FieldRoom, room).Msg("room lookup failed while touching activity")
		}
		return now
	}

	if err := t.store.TouchSessionActivity(ctx, roomID, sessionID); err != nil {
		l := log.Ctx(ctx)
		l.Warn().Err(err).Str(log.FieldRoom, room).Str(log.FieldSessionID, sessionID).Msg("failed to persist last_active")
	}
	return now
}

func (t *Tracker) produce(ctx context.Context, evt *events.Event) {
	if err := t.producer.Produce(ctx, evt); err != nil {
		l := log.Ctx(ctx)
		l.Warn().Err(err).Str("event", evt.Name).Msg("event export failed")
	}
}
