// Package testutil provides testing utilities.
package testutil

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"google.golang.org/api/googleapi"

	"todo/internal/service"
)

// ErrNotFound is a 404 reply as the real client would surface it.
var ErrNotFound = &googleapi.Error{Code: http.StatusNotFound, Body: `{"detail":"Todo not found"}`}

// ErrUnauthorized is a 401 reply as the real client would surface it.
var ErrUnauthorized = &googleapi.Error{Code: http.StatusUnauthorized, Body: `{"detail":"Could not validate credentials"}`}

// FakeService is an in-memory implementation of service.Service for testing.
// It serves a single account.
type FakeService struct {
	mu       sync.RWMutex
	user     service.User
	password string
	tasks    []service.Task
	nextID   int
	calls    map[string]int

	// Now stamps created and updated tasks.
	Now func() time.Time

	// Error injection for testing
	RegisterErr   error
	LoginErr      error
	MeErr         error
	UpdateMeErr   error
	ListTasksErr  error
	GetTaskErr    error
	CreateTaskErr error
	UpdateTaskErr error
	DeleteTaskErr error
}

// NewFakeService creates a FakeService with one account: a@b.com / secret1.
func NewFakeService() *FakeService {
	return &FakeService{
		user:     service.User{ID: "u1", Email: "a@b.com"},
		password: "secret1",
		calls:    make(map[string]int),
		Now: func() time.Time {
			return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
		},
	}
}

// AddTask appends a task and returns its ID.
func (f *FakeService) AddTask(id, title string, priority service.Priority, completed bool) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if id == "" {
		f.nextID++
		id = fmt.Sprintf("t%d", f.nextID)
	}
	f.tasks = append(f.tasks, service.Task{
		ID:        id,
		Title:     title,
		Priority:  priority,
		Completed: completed,
		CreatedAt: service.NewTimestamp(f.Now()),
		UpdatedAt: service.NewTimestamp(f.Now()),
	})
	return id
}

// Calls returns how many times the named method was invoked.
func (f *FakeService) Calls(method string) int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.calls[method]
}

// Tasks returns the server-side tasks.
func (f *FakeService) Tasks() []service.Task {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return append([]service.Task(nil), f.tasks...)
}

func (f *FakeService) count(method string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[method]++
}

// tokens must be called with f.mu held.
func (f *FakeService) tokens() (string, string) {
	exp := time.Now().Add(time.Hour)
	return SignedToken(f.user.ID, exp), SignedToken(f.user.ID, exp.Add(24*time.Hour))
}

// ValidTokens returns a token pair whose access token is unexpired.
func (f *FakeService) ValidTokens() service.TokenPair {
	f.mu.RLock()
	defer f.mu.RUnlock()
	access, refresh := f.tokens()
	return service.TokenPair{AccessToken: access, RefreshToken: refresh}
}

// SignedToken returns an HS256 JWT for subject expiring at exp.
func SignedToken(subject string, exp time.Time) string {
	claims := jwt.RegisteredClaims{Subject: subject, ExpiresAt: jwt.NewNumericDate(exp)}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(fakeSigningKey)
	if err != nil {
		panic(err)
	}
	return signed
}

// Register implements service.Service.
func (f *FakeService) Register(ctx context.Context, reg service.Registration) (service.AuthResult, error) {
	f.count("Register")
	if f.RegisterErr != nil {
		return service.AuthResult{}, f.RegisterErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.user = service.User{ID: "u2", Email: reg.Email, FullName: reg.FullName}
	f.password = reg.Password
	access, refresh := f.tokens()
	return service.AuthResult{AccessToken: access, RefreshToken: refresh, User: f.user}, nil
}

// Login implements service.Service.
func (f *FakeService) Login(ctx context.Context, creds service.Credentials) (service.AuthResult, error) {
	f.count("Login")
	if f.LoginErr != nil {
		return service.AuthResult{}, f.LoginErr
	}
	f.mu.RLock()
	defer f.mu.RUnlock()
	if !strings.EqualFold(creds.Email, f.user.Email) || creds.Password != f.password {
		return service.AuthResult{}, &googleapi.Error{Code: http.StatusBadRequest, Body: `{"detail":"Incorrect email or password"}`}
	}
	access, refresh := f.tokens()
	return service.AuthResult{AccessToken: access, RefreshToken: refresh, User: f.user}, nil
}

// Me implements service.Service.
func (f *FakeService) Me(ctx context.Context) (service.User, error) {
	f.count("Me")
	if f.MeErr != nil {
		return service.User{}, f.MeErr
	}
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.user, nil
}

// UpdateMe implements service.Service.
func (f *FakeService) UpdateMe(ctx context.Context, patch service.UserPatch) (service.User, error) {
	f.count("UpdateMe")
	if f.UpdateMeErr != nil {
		return service.User{}, f.UpdateMeErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if patch.FullName != nil {
		f.user.FullName = *patch.FullName
	}
	if patch.Email != nil {
		f.user.Email = *patch.Email
	}
	return f.user, nil
}

// ListTasks implements service.Service.
func (f *FakeService) ListTasks(ctx context.Context) ([]service.Task, error) {
	f.count("ListTasks")
	if f.ListTasksErr != nil {
		return nil, f.ListTasksErr
	}
	return f.Tasks(), nil
}

// GetTask implements service.Service.
func (f *FakeService) GetTask(ctx context.Context, id string) (service.Task, error) {
	f.count("GetTask")
	if f.GetTaskErr != nil {
		return service.Task{}, f.GetTaskErr
	}
	f.mu.RLock()
	defer f.mu.RUnlock()
	for _, t := range f.tasks {
		if t.ID == id {
			return t, nil
		}
	}
	return service.Task{}, ErrNotFound
}

// CreateTask implements service.Service.
func (f *FakeService) CreateTask(ctx context.Context, in service.NewTask) (service.Task, error) {
	f.count("CreateTask")
	if f.CreateTaskErr != nil {
		return service.Task{}, f.CreateTaskErr
	}
	if strings.TrimSpace(in.Title) == "" {
		return service.Task{}, errors.New("fake: empty title reached the server")
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	task := service.Task{
		ID:          fmt.Sprintf("t%d", f.nextID),
		Title:       in.Title,
		Description: in.Description,
		Priority:    in.Priority,
		CreatedAt:   service.NewTimestamp(f.Now()),
		UpdatedAt:   service.NewTimestamp(f.Now()),
	}
	f.tasks = append(f.tasks, task)
	return task, nil
}

// UpdateTask implements service.Service.
func (f *FakeService) UpdateTask(ctx context.Context, id string, patch service.TaskPatch) (service.Task, error) {
	f.count("UpdateTask")
	if f.UpdateTaskErr != nil {
		return service.Task{}, f.UpdateTaskErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, t := range f.tasks {
		if t.ID == id {
			t = patch.Apply(t)
			t.UpdatedAt = service.NewTimestamp(f.Now())
			f.tasks[i] = t
			return t, nil
		}
	}
	return service.Task{}, ErrNotFound
}

// DeleteTask implements service.Service.
func (f *FakeService) DeleteTask(ctx context.Context, id string) error {
	f.count("DeleteTask")
	if f.DeleteTaskErr != nil {
		return f.DeleteTaskErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, t := range f.tasks {
		if t.ID == id {
			f.tasks = append(f.tasks[:i], f.tasks[i+1:]...)
			return nil
		}
	}
	return ErrNotFound
}
