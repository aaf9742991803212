package store

import (
	"context"
	"sync"

	"github.com/daktari-health/telecall/internal/domain"
)

// MemoryStore is an in-memory AppointmentStore for tests and for running
// the server without a database (insecure dev mode).
type MemoryStore struct {
	mu      sync.RWMutex
	byID    map[string]domain.Appointment
	byToken map[string]string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byID:    make(map[string]domain.Appointment),
		byToken: make(map[string]string),
	}
}

// Put inserts or replaces an appointment.
func (s *MemoryStore) Put(a domain.Appointment) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if old, ok := s.byID[a.ID]; ok && old.RoomToken != "" {
		delete(s.byToken, old.RoomToken)
	}
	s.byID[a.ID] = a
	if a.RoomToken != "" {
		s.byToken[a.RoomToken] = a.ID
	}
}

func (s *MemoryStore) AppointmentByID(_ context.Context, id string) (*domain.Appointment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.byID[id]
	if !ok {
		return nil, domain.ErrAppointmentNotFound
	}
	out := a
	return &out, nil
}

func (s *MemoryStore) AppointmentByRoomToken(_ context.Context, token string) (*domain.Appointment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byToken[token]
	if !ok {
		return nil, domain.ErrAppointmentNotFound
	}
	a := s.byID[id]
	out := a
	return &out, nil
}
