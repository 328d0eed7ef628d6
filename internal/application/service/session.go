package service

import (
	"sync"

	"github.com/avilar/recordatorio-bot/internal/domain/entity"
)

// SessionStore keeps per-user conversation state in memory for the process
// lifetime. Sessions are created lazily on first authorized contact and are
// never persisted; after a restart every user is back at the menu.
//
// It also serializes inbound handling per user: Do runs fn under a per-user
// lock, so concurrent events for the same user are processed one at a time
// while different users proceed in parallel.
type SessionStore struct {
	mu    sync.Mutex
	slots map[string]*sessionSlot
}

type sessionSlot struct {
	mu      sync.Mutex
	session *entity.Session
}

// NewSessionStore creates an empty session store.
func NewSessionStore() *SessionStore {
	return &SessionStore{slots: make(map[string]*sessionSlot)}
}

// Do looks up or creates the user's session and runs fn with exclusive
// access to it.
func (s *SessionStore) Do(userID string, fn func(*entity.Session)) {
	s.mu.Lock()
	slot, ok := s.slots[userID]
	if !ok {
		slot = &sessionSlot{session: entity.NewSession()}
		s.slots[userID] = slot
	}
	s.mu.Unlock()

	slot.mu.Lock()
	defer slot.mu.Unlock()
	fn(slot.session)
}

// Exists reports whether a session has been created for the user.
func (s *SessionStore) Exists(userID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.slots[userID]
	return ok
}

// Count returns the number of live sessions.
func (s *SessionStore) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.slots)
}
