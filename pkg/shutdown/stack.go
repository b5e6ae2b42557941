// Package shutdown keeps an ordered set of cancellation callbacks that the process
// unwinds on a single external event.
package shutdown

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/sirupsen/logrus"
)

// Priorities used by the server. Higher runs first.
const (
	PriorityHTTP    = 300
	PriorityWorkers = 200
	PriorityBrokers = 100
	PriorityStorage = 0
)

type Handler func(ctx context.Context) error

type entry struct {
	id       string
	priority int
	seq      uint64
	fn       Handler
}

// Stack orders handlers by priority, then by push order (latest first).
type Stack struct {
	mu      sync.Mutex
	entries []entry
	seq     uint64
}

func NewStack() *Stack {
	return &Stack{}
}

// Push registers fn under id. Pushing an existing id replaces it and moves it to the top
// of its priority.
func (s *Stack) Push(id string, priority int, fn Handler) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.removeLocked(id)
	s.seq++
	s.entries = append(s.entries, entry{id: id, priority: priority, seq: s.seq, fn: fn})
	sort.SliceStable(s.entries, func(i, j int) bool {
		if s.entries[i].priority != s.entries[j].priority {
			return s.entries[i].priority > s.entries[j].priority
		}
		return s.entries[i].seq > s.entries[j].seq
	})
}

// Remove drops id and reports whether it was registered.
func (s *Stack) Remove(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.removeLocked(id)
}

func (s *Stack) removeLocked(id string) bool {
	for i, e := range s.entries {
		if e.id == id {
			s.entries = append(s.entries[:i], s.entries[i+1:]...)
			return true
		}
	}
	return false
}

func (s *Stack) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Handle pops and runs only the top handler. It returns false when the stack is empty.
func (s *Stack) Handle(ctx context.Context) (bool, error) {
	s.mu.Lock()
	if len(s.entries) == 0 {
		s.mu.Unlock()
		return false, nil
	}
	top := s.entries[0]
	s.entries = s.entries[1:]
	s.mu.Unlock()

	if err := top.fn(ctx); err != nil {
		return true, fmt.Errorf("%s: %w", top.id, err)
	}
	return true, nil
}

// Drain pops and runs handlers with Handle until the stack is empty, so a handler pushed
// while draining still runs in priority order. A failing handler does not stop the others.
func (s *Stack) Drain(ctx context.Context) error {
	logrus.WithField("handlers", s.Len()).Info("Draining shutdown stack")

	var errs []error
	for {
		handled, err := s.Handle(ctx)
		if !handled {
			break
		}
		if err != nil {
			logrus.WithError(err).Error("Shutdown handler failed")
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
