package syncer

import (
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Manager owns the live sessions, keyed by session id.
type Manager struct {
	remote Backend
	opts   Options
	logger *log.Logger

	mu       sync.RWMutex
	sessions map[string]*Session
}

func NewManager(remote Backend, opts Options) *Manager {
	return &Manager{
		remote:   remote,
		opts:     opts,
		logger:   opts.logger(),
		sessions: make(map[string]*Session),
	}
}

// Open creates a session for ownerID and runs its initial load. A failed
// initial load does not fail Open: the session stays usable, the failure is
// in its notification feed, and Refetch can retry.
func (m *Manager) Open(ownerID string) (*Session, error) {
	if ownerID == "" {
		return nil, ErrOwnerRequired
	}

	s := NewSession(uuid.NewString(), ownerID, m.remote, m.opts)
	m.mu.Lock()
	m.sessions[s.ID] = s
	m.mu.Unlock()

	if err := s.Start(); err != nil {
		m.logger.Printf("session %s: initial load for owner %s failed: %v", s.ID, ownerID, err)
	}
	return s, nil
}

// Get returns a live session and marks it as recently used.
func (m *Manager) Get(id string) (*Session, error) {
	m.mu.RLock()
	s, ok := m.sessions[id]
	m.mu.RUnlock()
	if !ok || s.Closed() {
		return nil, ErrSessionNotFound
	}
	s.Touch()
	return s, nil
}

func (m *Manager) Close(id string) error {
	m.mu.Lock()
	s, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()
	if !ok {
		return ErrSessionNotFound
	}
	s.Close()
	return nil
}

// CloseOwner closes every session of ownerID and returns how many were closed.
func (m *Manager) CloseOwner(ownerID string) int {
	return m.closeWhere(func(s *Session) bool { return s.OwnerID == ownerID })
}

// CloseIdle closes sessions not used within ttl.
func (m *Manager) CloseIdle(ttl time.Duration) int {
	cutoff := time.Now().Add(-ttl)
	return m.closeWhere(func(s *Session) bool { return s.LastSeen().Before(cutoff) })
}

func (m *Manager) CloseAll() int {
	return m.closeWhere(func(*Session) bool { return true })
}

func (m *Manager) closeWhere(match func(*Session) bool) int {
	m.mu.Lock()
	var victims []*Session
	for id, s := range m.sessions {
		if match(s) {
			victims = append(victims, s)
			delete(m.sessions, id)
		}
	}
	m.mu.Unlock()

	for _, s := range victims {
		s.Close()
	}
	return len(victims)
}

// Sessions returns the live sessions in no particular order.
func (m *Manager) Sessions() []*Session {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		out = append(out, s)
	}
	return out
}
