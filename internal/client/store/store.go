// Package store holds the client's auth state.
//
// State changes only through Dispatch, which runs the pure Reduce function
// under a lock and notifies subscribers when the state actually changed.
package store

import (
	"context"
	"sync"

	"github.com/dmitrijs2005/nutrikeeper/internal/logging"
)

type Listener func(AuthState)

type Store struct {
	mu        sync.Mutex
	state     AuthState
	listeners map[int]Listener
	nextID    int
	log       logging.Logger
}

func New(log logging.Logger) *Store {
	if log == nil {
		log = logging.Nop()
	}
	return &Store{listeners: make(map[int]Listener), log: log}
}

// State returns a snapshot of the current state.
func (s *Store) State() AuthState {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.state
	st.User = st.User.Clone()
	return st
}

// Dispatch applies a and returns whether the state changed. Listeners are
// called after the lock is released, in no particular order.
func (s *Store) Dispatch(a Action) bool {
	s.mu.Lock()
	next, changed := Reduce(s.state, a)
	if !changed {
		s.mu.Unlock()
		return false
	}
	s.state = next
	listeners := make([]Listener, 0, len(s.listeners))
	for _, l := range s.listeners {
		listeners = append(listeners, l)
	}
	s.mu.Unlock()

	s.log.Debug(context.Background(), "auth state changed", "action", a.String(), "authenticated", next.IsAuthenticated)

	for _, l := range listeners {
		st := next
		st.User = next.User.Clone()
		l(st)
	}
	return true
}

// Subscribe registers l and returns a function that removes it.
func (s *Store) Subscribe(l Listener) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = l

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.listeners, id)
			s.mu.Unlock()
		})
	}
}
