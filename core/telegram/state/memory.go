package state

import (
	"sync"
	"time"
)

type userLock struct {
	mu   sync.Mutex
	refs int
}

// MemoryStore is an in-process Store. Sessions are lost on restart.
type MemoryStore struct {
	now func() time.Time

	mu       sync.RWMutex
	sessions map[string]Session

	locksMu sync.Mutex
	locks   map[string]*userLock
}

// NewMemoryStore builds an empty store; a nil clock selects time.Now.
func NewMemoryStore(now func() time.Time) *MemoryStore {
	if now == nil {
		now = time.Now
	}
	return &MemoryStore{
		now:      now,
		sessions: make(map[string]Session),
		locks:    make(map[string]*userLock),
	}
}

// Get returns a copy of the session for userID.
func (m *MemoryStore) Get(userID string) Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if s, ok := m.sessions[userID]; ok {
		return s.Clone()
	}
	return Session{Step: StateIdle, Fields: map[string]string{}}
}

// Save stores a copy of s, created lazily on first use.
func (m *MemoryStore) Save(userID string, s Session) {
	s = s.Clone()
	s.LastActivity = m.now()
	m.mu.Lock()
	m.sessions[userID] = s
	m.mu.Unlock()
}

// Clear removes the session for userID.
func (m *MemoryStore) Clear(userID string) {
	m.mu.Lock()
	delete(m.sessions, userID)
	m.mu.Unlock()
}

// Sweep drops sessions whose last activity is older than maxIdle.
func (m *MemoryStore) Sweep(maxIdle time.Duration) int {
	cutoff := m.now().Add(-maxIdle)
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for id, s := range m.sessions {
		if s.LastActivity.Before(cutoff) {
			delete(m.sessions, id)
			n++
		}
	}
	return n
}

// Len returns the number of stored sessions.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Lock blocks until no other goroutine holds userID.
func (m *MemoryStore) Lock(userID string) func() {
	m.locksMu.Lock()
	l, ok := m.locks[userID]
	if !ok {
		l = &userLock{}
		m.locks[userID] = l
	}
	l.refs++
	m.locksMu.Unlock()

	l.mu.Lock()
	var once sync.Once
	return func() {
		once.Do(func() {
			l.mu.Unlock()
			m.locksMu.Lock()
			l.refs--
			if l.refs == 0 {
				delete(m.locks, userID)
			}
			m.locksMu.Unlock()
		})
	}
}
