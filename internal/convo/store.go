package convo

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/kalambet/promptlift/internal/apperr"
)

// Store persists conversation contexts by conversation id.
// Implemented by MemoryStore and storage.ContextStore.
type Store interface {
	// Save replaces any existing context for id and returns the stored
	// value with SavedAt stamped.
	Save(ctx context.Context, id string, c Context) (Context, error)
	// Get returns the context for id or an apperr.NotFound error.
	Get(ctx context.Context, id string) (Context, error)
	// Delete removes the context for id. Deleting a missing id is not an error.
	Delete(ctx context.Context, id string) error
}

// Clock abstracts time for testability.
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now().UTC() }

// RealClock returns the wall clock in UTC.
func RealClock() Clock { return realClock{} }

// ValidateID rejects empty conversation ids.
func ValidateID(id string) error {
	if strings.TrimSpace(id) == "" {
		return apperr.New(apperr.InvalidInput, "conversationId is required")
	}
	return nil
}

// ErrNotFound builds the not-found error for id.
func ErrNotFound(id string) error {
	return apperr.New(apperr.NotFound, "no context for conversation %q", id)
}

type entry struct {
	mu      sync.Mutex
	value   Context
	deleted bool
}

// MemoryStore keeps contexts in process memory. Entries never expire; they
// are lost on restart. Each conversation has its own lock so independent
// conversations do not contend.
type MemoryStore struct {
	clock Clock

	mu      sync.Mutex
	entries map[string]*entry
}

// NewMemoryStore creates an empty MemoryStore using the wall clock.
func NewMemoryStore() *MemoryStore {
	return NewMemoryStoreWithClock(realClock{})
}

// NewMemoryStoreWithClock creates an empty MemoryStore with a custom clock.
func NewMemoryStoreWithClock(clock Clock) *MemoryStore {
	return &MemoryStore{clock: clock, entries: make(map[string]*entry)}
}

func (s *MemoryStore) Save(_ context.Context, id string, c Context) (Context, error) {
	if err := ValidateID(id); err != nil {
		return Context{}, err
	}
	stored := c.Clone()
	stored.SavedAt = s.clock.Now()

	for {
		s.mu.Lock()
		e, ok := s.entries[id]
		if !ok {
			// Publish the new entry already locked so readers wait for the value.
			e = &entry{}
			e.mu.Lock()
			s.entries[id] = e
		}
		s.mu.Unlock()

		if ok {
			e.mu.Lock()
		}
		if e.deleted {
			// Lost a race with Delete; retry against a fresh entry.
			e.mu.Unlock()
			continue
		}
		e.value = stored
		e.mu.Unlock()
		return stored.Clone(), nil
	}
}

func (s *MemoryStore) Get(_ context.Context, id string) (Context, error) {
	s.mu.Lock()
	e, ok := s.entries[id]
	s.mu.Unlock()
	if !ok {
		return Context{}, ErrNotFound(id)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.deleted {
		return Context{}, ErrNotFound(id)
	}
	return e.value.Clone(), nil
}

func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	e, ok := s.entries[id]
	if ok {
		delete(s.entries, id)
	}
	s.mu.Unlock()
	if !ok {
		return nil
	}

	e.mu.Lock()
	e.deleted = true
	e.mu.Unlock()
	return nil
}

// Len reports the number of stored conversations.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}
