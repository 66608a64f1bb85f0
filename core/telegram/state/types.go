// Package state keeps per-user conversation sessions for the bot.
package state

import "time"

// State identifies a finite-state-machine step used in conversations.
type State string

const (
	// StateIdle indicates there is no active conversation with the user.
	StateIdle State = ""
)

// Session stores the active step and collected input of one user.
type Session struct {
	Step         State
	Fields       map[string]string
	LastActivity time.Time
}

// Idle reports whether no step is active.
func (s Session) Idle() bool {
	return s.Step == StateIdle
}

// Field returns a collected value or "".
func (s Session) Field(key string) string {
	return s.Fields[key]
}

// Clone returns a deep copy so callers can mutate the result freely.
func (s Session) Clone() Session {
	out := s
	out.Fields = make(map[string]string, len(s.Fields))
	for k, v := range s.Fields {
		out.Fields[k] = v
	}
	return out
}

// Store holds sessions keyed by user identity.
type Store interface {
	// Get returns a copy of the session, or an idle one when absent.
	Get(userID string) Session
	// Save replaces the session and stamps LastActivity.
	Save(userID string, s Session)
	// Clear removes the session.
	Clear(userID string)
	// Sweep drops sessions idle for longer than maxIdle.
	Sweep(maxIdle time.Duration) int
	// Lock serializes processing for one user; call the returned func to release.
	Lock(userID string) (unlock func())
}
