package presence

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/sitechat/sitechat/internal/domain"
	"github.com/sitechat/sitechat/internal/events"
	"github.com/sitechat/sitechat/internal/storage"
)

type emitted struct {
	room    string
	message interface{}
}

type fakeEmitter struct {
	mu     sync.Mutex
	events []emitted
}

func (e *fakeEmitter) ToRoom(room string, message interface{}) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.events = append(e.events, emitted{room: room, message: message})
}

func (e *fakeEmitter) userStatuses() []*domain.UserStatusOut {
	e.mu.Lock()
	defer e.mu.Unlock()
	var out []*domain.UserStatusOut
	for _, evt := range e.events {
		if s, ok := evt.message.(*domain.UserStatusOut); ok {
			out = append(out, s)
		}
	}
	return out
}

func (e *fakeEmitter) adminStatuses() []*domain.AdminStatusOut {
	e.mu.Lock()
	defer e.mu.Unlock()
	var out []*domain.AdminStatusOut
	for _, evt := range e.events {
		if s, ok := evt.message.(*domain.AdminStatusOut); ok {
			out = append(out, s)
		}
	}
	return out
}

type fakeStore struct {
	mu      sync.Mutex
	rooms   map[string]int64
	touches int
}

func (s *fakeStore) FindRoomID(ctx context.Context, code string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id, ok := s.rooms[code]; ok {
		return id, nil
	}
	return 0, storage.ErrRoomNotFound
}

func (s *fakeStore) TouchSessionActivity(ctx context.Context, roomID int64, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touches++
	return nil
}

func (s *fakeStore) touchCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.touches
}

type fakeRegistry struct {
	mu           sync.Mutex
	registered   int
	deregistered int
}

func (r *fakeRegistry) Register(ctx context.Context, room, sessionID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.registered++
	return nil
}

func (r *fakeRegistry) Deregister(ctx context.Context, room, sessionID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.deregistered++
	return nil
}

func (r *fakeRegistry) StartHeartbeat(ctx context.Context) error { return nil }
func (r *fakeRegistry) StopHeartbeat()                           {}
func (r *fakeRegistry) Close() error                             { return nil }

func newTestTracker() (*Tracker, *fakeEmitter, *fakeStore, *fakeRegistry) {
	emitter := &fakeEmitter{}
	store := &fakeStore{rooms: map[string]int64{"r1": 1}}
	reg := &fakeRegistry{}
	tracker := NewTracker(emitter, store, reg, events.NopProducer{}, Config{
		SweepInterval: time.Hour,
		AdminTTL:      10 * time.Minute,
	})
	return tracker, emitter, store, reg
}

func TestManyJoinsOneOfflineEvent(t *testing.T) {
	req := require.New(t)
	tracker, emitter, _, reg := newTestTracker()
	ctx := context.Background()

	const tabs = 5
	for i := 0; i < tabs; i++ {
		tracker.ConnectionJoined(ctx, "r1", "v1")
	}
	req.Equal(tabs, tracker.OnlineCount("r1", "v1"))

	for i := 0; i < tabs; i++ {
		tracker.ConnectionLeft(ctx, "r1", "v1")
	}
	req.Zero(tracker.OnlineCount("r1", "v1"))

	statuses := emitter.userStatuses()
	req.Len(statuses, 2)
	req.True(statuses[0].IsOnline)
	req.False(statuses[1].IsOnline)
	req.Equal("v1", statuses[0].SessionID)

	req.Equal(1, reg.registered)
	req.Equal(1, reg.deregistered)
}

func TestTwoTabsOneClose(t *testing.T) {
	req := require.New(t)
	tracker, emitter, _, _ := newTestTracker()
	ctx := context.Background()

	tracker.ConnectionJoined(ctx, "r1", "v1")
	tracker.ConnectionJoined(ctx, "r1", "v1")
	tracker.ConnectionLeft(ctx, "r1", "v1")

	req.Equal(1, tracker.OnlineCount("r1", "v1"))

	statuses := emitter.userStatuses()
	req.Len(statuses, 1)
	req.True(statuses[0].IsOnline)
}

func TestLeaveWithoutJoinIsNoop(t *testing.T) {
	req := require.New(t)
	tracker, emitter, _, _ := newTestTracker()

	tracker.ConnectionLeft(context.Background(), "r1", "ghost")

	req.Zero(tracker.OnlineCount("r1", "ghost"))
	req.Empty(emitter.userStatuses())
}

func TestActivityPersistedOnEveryTransition(t *testing.T) {
	req := require.New(t)
	tracker, _, store, _ := newTestTracker()
	ctx := context.Background()

	tracker.ConnectionJoined(ctx, "r1", "v1")
	tracker.ConnectionJoined(ctx, "r1", "v1") // Online -> Online still touches
	tracker.ConnectionLeft(ctx, "r1", "v1")

	req.Equal(3, store.touchCount())
}

func TestSessionsAreIndependent(t *testing.T) {
	req := require.New(t)
	tracker, emitter, _, _ := newTestTracker()
	ctx := context.Background()

	tracker.ConnectionJoined(ctx, "r1", "v1")
	tracker.ConnectionJoined(ctx, "r1", "v2")
	tracker.ConnectionLeft(ctx, "r1", "v1")

	req.Zero(tracker.OnlineCount("r1", "v1"))
	req.Equal(1, tracker.OnlineCount("r1", "v2"))

	statuses := emitter.userStatuses()
	req.Len(statuses, 3) // v1 online, v2 online, v1 offline
}

func TestAdminHeartbeatAndSweep(t *testing.T) {
	req := require.New(t)
	tracker, emitter, _, _ := newTestTracker()
	ctx := context.Background()

	tracker.AdminHeartbeat(ctx, "r1", "a1")
	req.True(tracker.IsAdminOnline("r1", "a1"))

	statuses := emitter.adminStatuses()
	req.Len(statuses, 1)
	req.True(statuses[0].IsOnline)

	// A fresh heartbeat survives the sweep.
	tracker.sweep(ctx)
	req.True(tracker.IsAdminOnline("r1", "a1"))

	// Age the heartbeat past the TTL; the next sweep expires it.
	tracker.mu.Lock()
	tracker.admins[adminKey{room: "r1", adminID: "a1"}] = time.Now().Add(-tracker.cfg.AdminTTL - time.Minute)
	tracker.mu.Unlock()

	tracker.sweep(ctx)
	req.False(tracker.IsAdminOnline("r1", "a1"))

	statuses = emitter.adminStatuses()
	req.Len(statuses, 2)
	req.False(statuses[1].IsOnline)
}

func TestHeartbeatRefreshKeepsAdminAlive(t *testing.T) {
	req := require.New(t)
	tracker, _, _, _ := newTestTracker()
	ctx := context.Background()

	tracker.AdminHeartbeat(ctx, "r1", "a1")

	tracker.mu.Lock()
	tracker.admins[adminKey{room: "r1", adminID: "a1"}] = time.Now().Add(-tracker.cfg.AdminTTL + time.Minute)
	tracker.mu.Unlock()

	tracker.AdminHeartbeat(ctx, "r1", "a1")
	tracker.sweep(ctx)

	req.True(tracker.IsAdminOnline("r1", "a1"))
}

func TestConcurrentJoinsAndLeaves(t *testing.T) {
	req := require.New(t)
	tracker, emitter, _, _ := newTestTracker()
	ctx := context.Background()

	const n = 50
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func() {
			defer wg.Done()
			tracker.ConnectionJoined(ctx, "r1", "v1")
		}()
	}
	wg.Wait()

	req.Equal(n, tracker.OnlineCount("r1", "v1"))

	wg.Add(n)
	for i := 0; i < n; i++ {
		go func() {
			defer wg.Done()
			tracker.ConnectionLeft(ctx, "r1", "v1")
		}()
	}
	wg.Wait()

	req.Zero(tracker.OnlineCount("r1", "v1"))

	var online, offline int
	for _, s := range emitter.userStatuses() {
		if s.IsOnline {
			online++
		} else {
			offline++
		}
	}
	req.Equal(1, online)
	req.Equal(1, offline)
}
