package todostore

import (
	"strings"

	"todo/internal/service"
)

// Status selects tasks by completion.
type Status int

const (
	AnyStatus Status = iota
	Active
	Completed
)

// ParseStatus accepts "all", "active" or "completed".
func ParseStatus(s string) (Status, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "all":
		return AnyStatus, true
	case "active", "open":
		return Active, true
	case "completed", "done":
		return Completed, true
	}
	return AnyStatus, false
}

// Filter narrows the cached list. The zero value matches everything.
type Filter struct {
	// Search matches title or description, case-insensitive.
	Search   string
	Status   Status
	Priority service.Priority
}

// Match reports whether t passes every criterion of f.
func (f Filter) Match(t service.Task) bool {
	if q := strings.ToLower(strings.TrimSpace(f.Search)); q != "" {
		if !strings.Contains(strings.ToLower(t.Title), q) &&
			!strings.Contains(strings.ToLower(t.Description), q) {
			return false
		}
	}
	switch f.Status {
	case Active:
		if t.Completed {
			return false
		}
	case Completed:
		if !t.Completed {
			return false
		}
	}
	if f.Priority != "" && t.Priority != f.Priority {
		return false
	}
	return true
}

// Filter returns the cached tasks matching f, in cache order.
func (s *Store) Filter(f Filter) []service.Task {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []service.Task
	for _, t := range s.todos {
		if f.Match(t) {
			out = append(out, t)
		}
	}
	return out
}
