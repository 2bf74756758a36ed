package commands

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"todo/internal/service"
)

var (
	// ErrTaskRefRequired indicates no task reference was provided.
	ErrTaskRefRequired = errors.New("task reference required")

	// ErrOutOfRange indicates a listing number past the end of the list.
	ErrOutOfRange = errors.New("task number out of range")

	// ErrTaskNotFound indicates no task has the referenced id.
	ErrTaskNotFound = errors.New("task not found")
)

// TaskRef names a task either by its 1-based number in the unfiltered
// listing or by its id.
type TaskRef struct {
	Num int    // listing number, 0 when the reference is not numeric
	Raw string // the reference as typed
}

// ParseTaskRef parses the single task reference in args.
//
// An all-digit argument is a listing number and must be at least 1.
// Anything else is taken as a task id.
func ParseTaskRef(args []string) (TaskRef, error) {
	if len(args) == 0 {
		return TaskRef{}, ErrTaskRefRequired
	}
	if len(args) > 1 {
		return TaskRef{}, fmt.Errorf("unexpected argument: %s", args[1])
	}

	raw := strings.TrimSpace(args[0])
	if raw == "" {
		return TaskRef{}, ErrTaskRefRequired
	}

	if isAllDigits(raw) {
		num, err := strconv.Atoi(raw)
		if err != nil || num < 1 {
			return TaskRef{}, fmt.Errorf("invalid task reference: %s", raw)
		}
		return TaskRef{Num: num, Raw: raw}, nil
	}
	return TaskRef{Raw: raw}, nil
}

// Resolve finds the referenced task in tasks, which must be in listing order.
func (r TaskRef) Resolve(tasks []service.Task) (service.Task, error) {
	if r.Num > 0 {
		if r.Num > len(tasks) {
			return service.Task{}, fmt.Errorf("%w: %d", ErrOutOfRange, r.Num)
		}
		return tasks[r.Num-1], nil
	}
	for _, t := range tasks {
		if t.ID == r.Raw {
			return t, nil
		}
	}
	return service.Task{}, fmt.Errorf("%w: %s", ErrTaskNotFound, r.Raw)
}

// isAllDigits returns true if s consists only of ASCII digits and is non-empty.
func isAllDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
