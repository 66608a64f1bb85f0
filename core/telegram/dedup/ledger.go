// Package dedup suppresses redelivered Telegram updates.
package dedup

import (
	"sync"
	"time"
)

// DefaultTTL is how long an event key is remembered.
const DefaultTTL = 120 * time.Second

// evictEvery bounds how often Seen scans the whole map for expired keys.
const evictEvery = time.Second

// Clock returns the current time.
type Clock func() time.Time

// Ledger remembers event keys for a fixed TTL. It is safe for concurrent use.
type Ledger struct {
	ttl  time.Duration
	now  Clock
	mu   sync.Mutex
	seen map[string]time.Time
	// last full eviction
	evicted time.Time
}

// NewLedger returns a ledger with the given TTL; ttl <= 0 selects DefaultTTL
// and a nil clock selects time.Now.
func NewLedger(ttl time.Duration, now Clock) *Ledger {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if now == nil {
		now = time.Now
	}
	return &Ledger{ttl: ttl, now: now, seen: make(map[string]time.Time)}
}

// Seen records key and reports whether it was already recorded within the TTL.
// A repeated key does not refresh its timestamp.
func (l *Ledger) Seen(key string) bool {
	now := l.now()
	l.mu.Lock()
	defer l.mu.Unlock()
	if now.Sub(l.evicted) >= evictEvery {
		l.evictLocked(now)
	}
	if at, ok := l.seen[key]; ok && now.Sub(at) < l.ttl {
		return true
	}
	l.seen[key] = now
	return false
}

// Sweep evicts expired keys and returns how many were removed.
func (l *Ledger) Sweep() int {
	now := l.now()
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.evictLocked(now)
}

// Len returns the number of keys currently held.
func (l *Ledger) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.seen)
}

func (l *Ledger) evictLocked(now time.Time) int {
	l.evicted = now
	n := 0
	for k, at := range l.seen {
		if now.Sub(at) >= l.ttl {
			delete(l.seen, k)
			n++
		}
	}
	return n
}
