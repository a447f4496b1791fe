package domain

import (
	"sync"
	"time"
)

// ConnState holds the identity a connection assumed at join time.
// The (room, session, role) tuple is set exactly once; disconnect
// handling reads the same tuple, so a connection can never "forget"
// what it joined as.
type ConnState struct {
	mu sync.RWMutex

	role      string
	room      string
	sessionID string
	adminID   string

	joined       bool
	CreatedAt    time.Time
	lastActiveAt time.Time
}

func NewConnState() *ConnState {
	now := time.Now()
	return &ConnState{
		CreatedAt:    now,
		lastActiveAt: now,
	}
}

// JoinVisitor binds the connection to a visitor session. The first call
// wins; later calls are ignored.
func (s *ConnState) JoinVisitor(room, sessionID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.joined {
		return false
	}
	s.role = SenderGuest
	s.room = room
	s.sessionID = sessionID
	s.joined = true
	s.lastActiveAt = time.Now()
	return true
}

// JoinAdmin binds the connection to the room-wide admin identity.
// The first call wins; later calls only refresh activity.
func (s *ConnState) JoinAdmin(room, adminID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastActiveAt = time.Now()
	if s.joined {
		return false
	}
	s.role = SenderAdmin
	s.room = room
	s.sessionID = AdminSessionID
	s.adminID = adminID
	s.joined = true
	return true
}

func (s *ConnState) Joined() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.joined
}

func (s *ConnState) Role() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.role
}

func (s *ConnState) Room() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.room
}

func (s *ConnState) SessionID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sessionID
}

func (s *ConnState) AdminID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.adminID
}

// Identity returns the full join tuple in one read.
func (s *ConnState) Identity() (role, room, sessionID string, joined bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.role, s.room, s.sessionID, s.joined
}

func (s *ConnState) UpdateActivity() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastActiveAt = time.Now()
}

func (s *ConnState) LastActiveAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastActiveAt
}
