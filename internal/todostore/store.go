// Package todostore keeps a local copy of the user's tasks.
//
// The cache only changes after the server confirms a write; it never applies
// optimistic updates. Reads (Fetch) record failures for later display, writes
// return them to the caller and leave the cache untouched.
package todostore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	"todo/internal/apiclient"
	"todo/internal/service"
)

var (
	// ErrTitleRequired is returned when a task title is blank.
	ErrTitleRequired = errors.New("title required")

	// ErrInvalidPriority is returned for a priority other than low, medium or high.
	ErrInvalidPriority = errors.New("invalid priority")
)

// State is the progress of the most recent operation.
type State int

const (
	Idle State = iota
	Loading
	Failed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Loading:
		return "loading"
	case Failed:
		return "failed"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Store mirrors the server's task list.
type Store struct {
	svc    service.Service
	logger *slog.Logger

	mu     sync.RWMutex
	todos  []service.Task
	state  State
	errMsg string
}

// New creates an empty store backed by svc.
func New(svc service.Service, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Store{svc: svc, logger: logger}
}

// Fetch replaces the cache with the server's list. Failures are recorded
// in Err and the cache is left as it was.
func (s *Store) Fetch(ctx context.Context) {
	s.begin()

	tasks, err := s.svc.ListTasks(ctx)
	if err != nil {
		s.logger.Debug("fetch tasks", "error", err)
		s.fail(err, "failed to fetch todos")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.todos = append([]service.Task(nil), tasks...)
	s.state = Idle
}

// Get fetches one task and refreshes its cached copy if present.
func (s *Store) Get(ctx context.Context, id string) (service.Task, error) {
	s.begin()

	task, err := s.svc.GetTask(ctx, id)
	if err != nil {
		return service.Task{}, s.fail(err, "failed to fetch todo")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.index(id); i >= 0 {
		s.todos[i] = task
	}
	s.state = Idle
	return task, nil
}

// Add creates a task and appends the server's copy to the cache.
// A blank title is rejected before any network call.
func (s *Store) Add(ctx context.Context, task service.NewTask) (service.Task, error) {
	task.Title = strings.TrimSpace(task.Title)
	if task.Title == "" {
		return service.Task{}, s.fail(ErrTitleRequired, "")
	}
	if task.Priority == "" {
		task.Priority = service.PriorityMedium
	}
	if !task.Priority.Valid() {
		return service.Task{}, s.fail(fmt.Errorf("%w: %s", ErrInvalidPriority, task.Priority), "")
	}

	s.begin()
	created, err := s.svc.CreateTask(ctx, task)
	if err != nil {
		return service.Task{}, s.fail(err, "failed to create todo")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.todos = append(s.todos, created)
	s.state = Idle
	return created, nil
}

// Update sends patch and overwrites the cached entry with the server's reply.
func (s *Store) Update(ctx context.Context, id string, patch service.TaskPatch) (service.Task, error) {
	if patch.Title != nil && strings.TrimSpace(*patch.Title) == "" {
		return service.Task{}, s.fail(ErrTitleRequired, "")
	}
	if patch.Priority != nil && !patch.Priority.Valid() {
		return service.Task{}, s.fail(fmt.Errorf("%w: %s", ErrInvalidPriority, *patch.Priority), "")
	}

	s.begin()
	updated, err := s.svc.UpdateTask(ctx, id, patch)
	if err != nil {
		return service.Task{}, s.fail(err, "failed to update todo")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.todos {
		if s.todos[i].ID == id {
			s.todos[i] = updated
		}
	}
	s.state = Idle
	return updated, nil
}

// Delete removes a task once the server has confirmed it.
func (s *Store) Delete(ctx context.Context, id string) error {
	s.begin()
	if err := s.svc.DeleteTask(ctx, id); err != nil {
		return s.fail(err, "failed to delete todo")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.todos[:0]
	for _, t := range s.todos {
		if t.ID != id {
			kept = append(kept, t)
		}
	}
	s.todos = kept
	s.state = Idle
	return nil
}

// Todos returns a copy of the cached tasks in server order.
func (s *Store) Todos() []service.Task {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]service.Task(nil), s.todos...)
}

// Find returns the cached task with id.
func (s *Store) Find(id string) (service.Task, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := s.index(id); i >= 0 {
		return s.todos[i], true
	}
	return service.Task{}, false
}

// Reset empties the cache, e.g. after logout.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.todos = nil
	s.state = Idle
	s.errMsg = ""
}

// State returns the progress of the most recent operation.
func (s *Store) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Err returns the message of the last failure, or "".
func (s *Store) Err() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.errMsg
}

// ClearError forgets the last failure.
func (s *Store) ClearError() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.errMsg = ""
	if s.state == Failed {
		s.state = Idle
	}
}

// index must be called with s.mu held.
func (s *Store) index(id string) int {
	for i, t := range s.todos {
		if t.ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) begin() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = Loading
	s.errMsg = ""
}

func (s *Store) fail(err error, fallback string) error {
	msg := apiclient.Message(err)
	if msg == "" {
		msg = fallback
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.errMsg = msg
	s.state = Failed
	return err
}
