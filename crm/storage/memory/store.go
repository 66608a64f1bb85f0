// Package memory is a process-local domain.Store. Transactions work on a copy
// of the data set that replaces the committed one only when fn succeeds.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/m3rciful/boxingcrm/crm/domain"
)

type dataset struct {
	parents      map[int64]domain.Parent
	children     map[int64]domain.Child
	appointments map[int64]domain.Appointment
	leads        map[int64]domain.Lead
	lastID       int64
}

func (d dataset) clone() dataset {
	out := dataset{
		parents:      make(map[int64]domain.Parent, len(d.parents)),
		children:     make(map[int64]domain.Child, len(d.children)),
		appointments: make(map[int64]domain.Appointment, len(d.appointments)),
		leads:        make(map[int64]domain.Lead, len(d.leads)),
		lastID:       d.lastID,
	}
	for k, v := range d.parents {
		out.parents[k] = v
	}
	for k, v := range d.children {
		out.children[k] = v
	}
	for k, v := range d.appointments {
		out.appointments[k] = v
	}
	for k, v := range d.leads {
		out.leads[k] = v
	}
	return out
}

// Store keeps all rows in memory. Transactions are serialized.
type Store struct {
	mu   sync.Mutex
	now  func() time.Time
	data dataset
}

var _ domain.Store = (*Store)(nil)

// New returns an empty store; now stamps CreatedAt and defaults to time.Now.
func New(now func() time.Time) *Store {
	if now == nil {
		now = time.Now
	}
	return &Store{now: now, data: dataset{}.clone()}
}

// InTx implements domain.Store.
func (s *Store) InTx(ctx context.Context, fn func(tx domain.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}
	work := s.data.clone()
	if err := fn(&tx{d: &work, now: s.now}); err != nil {
		return err
	}
	s.data = work
	return nil
}

// Close implements domain.Store.
func (s *Store) Close() error { return nil }

// Parents returns committed parents ordered by id.
func (s *Store) Parents() []domain.Parent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return sortedValues(s.data.parents, func(p domain.Parent) int64 { return p.ID })
}

// Children returns committed children ordered by id.
func (s *Store) Children() []domain.Child {
	s.mu.Lock()
	defer s.mu.Unlock()
	return sortedValues(s.data.children, func(c domain.Child) int64 { return c.ID })
}

// Appointments returns committed appointments ordered by id.
func (s *Store) Appointments() []domain.Appointment {
	s.mu.Lock()
	defer s.mu.Unlock()
	return sortedValues(s.data.appointments, func(a domain.Appointment) int64 { return a.ID })
}

// Leads returns committed leads ordered by id.
func (s *Store) Leads() []domain.Lead {
	s.mu.Lock()
	defer s.mu.Unlock()
	return sortedValues(s.data.leads, func(l domain.Lead) int64 { return l.ID })
}

func sortedValues[T any](m map[int64]T, id func(T) int64) []T {
	out := make([]T, 0, len(m))
	for _, v := range m {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return id(out[i]) < id(out[j]) })
	return out
}
