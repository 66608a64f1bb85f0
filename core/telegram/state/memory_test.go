package state

import (
	"sync"
	"testing"
	"time"
)

func TestGetReturnsIdleForUnknownUser(t *testing.T) {
	m := NewMemoryStore(nil)
	s := m.Get("u1")
	if !s.Idle() {
		t.Fatalf("expected idle session, got %q", s.Step)
	}
	if s.Fields == nil {
		t.Fatal("fields map should be usable")
	}
}

func TestSaveStoresCopy(t *testing.T) {
	m := NewMemoryStore(nil)
	s := Session{Step: "child_age", Fields: map[string]string{"child_name": "Ali"}}
	m.Save("u1", s)
	s.Fields["child_name"] = "mutated"

	got := m.Get("u1")
	if got.Step != "child_age" || got.Field("child_name") != "Ali" {
		t.Fatalf("unexpected session %+v", got)
	}
	got.Fields["child_name"] = "again"
	if m.Get("u1").Field("child_name") != "Ali" {
		t.Fatal("Get must return a copy")
	}
}

func TestClearAndSweep(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	m := NewMemoryStore(func() time.Time { return now })
	m.Save("old", Session{Step: "parent_name"})
	now = now.Add(30 * time.Minute)
	m.Save("fresh", Session{Step: "parent_name"})
	m.Save("gone", Session{Step: "parent_name"})
	m.Clear("gone")

	now = now.Add(45 * time.Minute)
	if n := m.Sweep(time.Hour); n != 1 {
		t.Fatalf("Sweep removed %d, want 1", n)
	}
	if m.Len() != 1 || m.Get("fresh").Idle() {
		t.Fatal("fresh session should survive")
	}
}

func TestLockSerializesSameUser(t *testing.T) {
	m := NewMemoryStore(nil)
	var (
		mu      sync.Mutex
		active  int
		maxSeen int
		wg      sync.WaitGroup
	)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := m.Lock("u1")
			defer unlock()
			mu.Lock()
			active++
			if active > maxSeen {
				maxSeen = active
			}
			mu.Unlock()
			time.Sleep(time.Millisecond)
			mu.Lock()
			active--
			mu.Unlock()
		}()
	}
	wg.Wait()
	if maxSeen != 1 {
		t.Fatalf("max concurrent holders = %d, want 1", maxSeen)
	}
	if len(m.locks) != 0 {
		t.Fatalf("lock table leaked %d entries", len(m.locks))
	}
}

func TestLockDifferentUsersIndependent(t *testing.T) {
	m := NewMemoryStore(nil)
	unlockA := m.Lock("a")
	done := make(chan struct{})
	go func() {
		unlock := m.Lock("b")
		unlock()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("lock for b blocked behind a")
	}
	unlockA()
	unlockA()
}
