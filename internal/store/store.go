// Package store holds the process-lifetime log records. Each category gets its
// own append-only store; nothing is ever mutated or removed.
package store

import (
	"sync"

	"github.com/juicecola/construct-agent/internal/domain"
)

// Store is a mutex-guarded append-only record list. Append never fails and
// List returns an insertion-ordered snapshot detached from internal state, so
// the stores are safe under chi's concurrent request handling.
type Store[T any] struct {
	mu      sync.Mutex
	records []T
}

// Append adds a record at the end of the log.
func (s *Store[T]) Append(rec T) {
	s.mu.Lock()
	s.records = append(s.records, rec)
	s.mu.Unlock()
}

// List returns a copy of all records in insertion order. Never nil, so the
// read APIs serialize an empty log as [].
func (s *Store[T]) List() []T {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]T, len(s.records))
	copy(out, s.records)
	return out
}

// Len reports the number of appended records.
func (s *Store[T]) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}

// Stores owns the three category logs. Injected into the dispatcher and the
// HTTP server instead of living as package globals.
type Stores struct {
	Hazards    *Store[domain.HazardRecord]
	Attendance *Store[domain.AttendanceRecord]
	Deliveries *Store[domain.DeliveryRecord]
}

// New returns an empty set of stores.
func New() *Stores {
	return &Stores{
		Hazards:    &Store[domain.HazardRecord]{},
		Attendance: &Store[domain.AttendanceRecord]{},
		Deliveries: &Store[domain.DeliveryRecord]{},
	}
}
