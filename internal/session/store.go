package session

import (
	"errors"
	"slices"
	"sync"

	"github.com/google/uuid"

	"github.com/abhisek/lectern/internal/lesson"
)

// ErrNoActiveSession is returned for unknown user ids.
var ErrNoActiveSession = errors.New("no active session")

// Store is the registry of live controllers keyed by user id. Entries live
// until Remove or Close; nothing expires them.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*Controller
	opts     []Option
}

// NewStore returns an empty registry. opts apply to every controller it
// creates.
func NewStore(opts ...Option) *Store {
	return &Store{sessions: make(map[string]*Controller), opts: opts}
}

// Create starts a controller for l under a fresh user id.
func (s *Store) Create(l *lesson.Lesson, opts ...Option) (*Controller, lesson.Summary) {
	userID := "user-" + uuid.NewString()
	c := NewController(l, userID, append(slices.Clone(s.opts), opts...)...)

	s.mu.Lock()
	s.sessions[userID] = c
	s.mu.Unlock()

	var sum lesson.Summary
	if l != nil {
		sum = l.Summary()
	}
	return c, sum
}

// Get returns the controller for userID.
func (s *Store) Get(userID string) (*Controller, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.sessions[userID]
	if !ok {
		return nil, ErrNoActiveSession
	}
	return c, nil
}

// Remove closes the controller for userID and drops it from the registry.
func (s *Store) Remove(userID string) error {
	s.mu.Lock()
	c, ok := s.sessions[userID]
	delete(s.sessions, userID)
	s.mu.Unlock()

	if !ok {
		return ErrNoActiveSession
	}
	return c.Close()
}

// Len returns the number of live sessions.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Close closes every controller and empties the registry.
func (s *Store) Close() error {
	s.mu.Lock()
	sessions := s.sessions
	s.sessions = make(map[string]*Controller)
	s.mu.Unlock()

	var errs []error
	for _, c := range sessions {
		errs = append(errs, c.Close())
	}
	return errors.Join(errs...)
}
