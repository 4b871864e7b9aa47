// Package querystate holds the shared search state of one session and notifies
// subscribers when it changes.
package querystate

import (
	"sync"

	"github.com/kailas-cloud/storefront/internal/domain/query"
)

// Listener receives the state after every effective change.
type Listener func(query.State)

// Store is the single source of truth for {text, category, page}.
type Store struct {
	mu        sync.Mutex
	state     query.State
	listeners map[int]Listener
	nextID    int
}

// New creates a Store holding initial.
func New(initial query.State) *Store {
	return &Store{
		state:     initial,
		listeners: make(map[int]Listener),
	}
}

// Get returns the current state.
func (s *Store) Get() query.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Commit applies c and resets the page. Reports whether the state changed.
func (s *Store) Commit(c query.Commit) (query.State, bool) {
	return s.update(func(cur query.State) (query.State, error) {
		return cur.Apply(c), nil
	})
}

// Refine replaces the category and resets the page. "" clears the category.
func (s *Store) Refine(category string) (query.State, bool) {
	return s.update(func(cur query.State) (query.State, error) {
		return cur.Refine(category), nil
	})
}

// SetPage moves to page n.
func (s *Store) SetPage(n int) (query.State, bool, error) {
	var perr error
	st, changed := s.update(func(cur query.State) (query.State, error) {
		next, err := cur.WithPage(n)
		perr = err
		return next, err
	})
	return st, changed, perr
}

// Subscribe registers l and returns a function that removes it.
func (s *Store) Subscribe(l Listener) func() {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextID
	s.nextID++
	s.listeners[id] = l

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.listeners, id)
	}
}

// update swaps the state under the lock and notifies listeners outside it.
func (s *Store) update(fn func(query.State) (query.State, error)) (query.State, bool) {
	s.mu.Lock()
	next, err := fn(s.state)
	if err != nil || next == s.state {
		cur := s.state
		s.mu.Unlock()
		return cur, false
	}
	s.state = next
	listeners := make([]Listener, 0, len(s.listeners))
	for id := 0; id < s.nextID; id++ {
		if l, ok := s.listeners[id]; ok {
			listeners = append(listeners, l)
		}
	}
	s.mu.Unlock()

	for _, l := range listeners {
		l(next)
	}
	return next, true
}
