package booking

import (
	"sync"
	"time"

	"folio/internal/metrics"

	"github.com/google/uuid"
)

// Factory opens a controller for a visitor's locale.
type Factory func(locale Locale) *Controller

type storeEntry struct {
	ctrl      *Controller
	updatedAt time.Time
}

// Store keeps the open booking dialogs of all visitors. Dialogs live only in
// memory and are dropped when closed or idle for longer than the timeout.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*storeEntry
	timeout  time.Duration
	factory  Factory
	now      func() time.Time
}

// NewStore creates a new session store.
func NewStore(timeout time.Duration, factory Factory) *Store {
	if timeout <= 0 {
		timeout = 30 * time.Minute
	}
	return &Store{
		sessions: make(map[string]*storeEntry),
		timeout:  timeout,
		factory:  factory,
		now:      time.Now,
	}
}

// Open starts a new dialog and returns its id.
func (s *Store) Open(locale Locale) (string, *Controller) {
	ctrl := s.factory(locale)
	id := uuid.NewString()

	s.mu.Lock()
	s.sessions[id] = &storeEntry{ctrl: ctrl, updatedAt: s.now()}
	n := len(s.sessions)
	s.mu.Unlock()

	metrics.SetBookingSessions(n)
	return id, ctrl
}

// Get returns an open dialog and marks it active.
func (s *Store) Get(id string) (*Controller, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.sessions[id]
	if !ok {
		return nil, false
	}
	if s.expired(e) {
		delete(s.sessions, id)
		return nil, false
	}
	e.updatedAt = s.now()
	return e.ctrl, true
}

// Close cancels and removes a dialog. It reports whether the id existed.
func (s *Store) Close(id string) bool {
	s.mu.Lock()
	e, ok := s.sessions[id]
	delete(s.sessions, id)
	n := len(s.sessions)
	s.mu.Unlock()

	if ok {
		e.ctrl.Cancel()
	}
	metrics.SetBookingSessions(n)
	return ok
}

// Forget removes a dialog that already closed itself.
func (s *Store) Forget(id string) {
	s.mu.Lock()
	delete(s.sessions, id)
	n := len(s.sessions)
	s.mu.Unlock()
	metrics.SetBookingSessions(n)
}

// Cleanup removes expired and closed dialogs.
func (s *Store) Cleanup() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, e := range s.sessions {
		if e.ctrl.Closed() || s.expired(e) {
			delete(s.sessions, id)
			removed++
		}
	}
	metrics.SetBookingSessions(len(s.sessions))
	return removed
}

// Len returns the number of tracked dialogs.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// expired never drops a dialog with a request in flight.
func (s *Store) expired(e *storeEntry) bool {
	return s.now().Sub(e.updatedAt) > s.timeout && !e.ctrl.IsSubmitting()
}
