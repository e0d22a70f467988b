// Package journal keeps an append-only record of vault events.
//
// Both stores satisfy stake.Recorder, so a vault built with
// stake.WithRecorder(store) appends one event per successful Enter or Leave.
// Events are returned in append order.
package journal

import (
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/bitfsorg/stakevault-go/account"
	"github.com/bitfsorg/stakevault-go/stake"
)

// Store is an append-only event log.
type Store interface {
	// Append stores ev. An event with a nil ID is assigned a fresh one.
	Append(ev stake.Event) error

	// Get returns the event with the given id.
	Get(id uuid.UUID) (stake.Event, error)

	// List returns every event in append order.
	List() ([]stake.Event, error)

	// ListByAccount returns the events of one account in append order.
	ListByAccount(addr account.Address) ([]stake.Event, error)

	// Len returns the number of stored events.
	Len() (uint64, error)
}

// Compile-time interface checks.
var (
	_ Store          = (*MemStore)(nil)
	_ stake.Recorder = (*MemStore)(nil)
)

// MemStore is an in-memory Store.
type MemStore struct {
	mu        sync.RWMutex
	events    []stake.Event
	byID      map[uuid.UUID]int
	byAccount map[account.Address][]int
}

// NewMemStore creates an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{
		byID:      make(map[uuid.UUID]int),
		byAccount: make(map[account.Address][]int),
	}
}

// Append implements Store.
func (s *MemStore) Append(ev stake.Event) error {
	if err := prepare(&ev); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byID[ev.ID]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateEvent, ev.ID)
	}
	i := len(s.events)
	s.events = append(s.events, ev)
	s.byID[ev.ID] = i
	s.byAccount[ev.Account] = append(s.byAccount[ev.Account], i)
	return nil
}

// Get implements Store.
func (s *MemStore) Get(id uuid.UUID) (stake.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i, ok := s.byID[id]
	if !ok {
		return stake.Event{}, fmt.Errorf("%w: %s", ErrEventNotFound, id)
	}
	return s.events[i], nil
}

// List implements Store.
func (s *MemStore) List() ([]stake.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]stake.Event, len(s.events))
	copy(out, s.events)
	return out, nil
}

// ListByAccount implements Store.
func (s *MemStore) ListByAccount(addr account.Address) ([]stake.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	idx := s.byAccount[addr]
	out := make([]stake.Event, 0, len(idx))
	for _, i := range idx {
		out = append(out, s.events[i])
	}
	return out, nil
}

// Len implements Store.
func (s *MemStore) Len() (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return uint64(len(s.events)), nil
}

// prepare checks ev and fills in a missing id.
func prepare(ev *stake.Event) error {
	if ev.Kind != stake.EventEnter && ev.Kind != stake.EventLeave {
		return fmt.Errorf("%w: kind %d", ErrInvalidEvent, ev.Kind)
	}
	if ev.ID == uuid.Nil {
		ev.ID = uuid.New()
	}
	return nil
}
