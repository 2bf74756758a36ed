// Package session tracks who is logged in.
//
// A Manager owns the stored token pair and the user derived from it. It is
// built once per process and handed to whatever needs it; there is no
// package-level session.
package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"todo/internal/apiclient"
	"todo/internal/credstore"
	"todo/internal/service"
)

// ErrValidation matches every input error raised before a network call.
var ErrValidation = errors.New("validation failed")

// ValidationError describes rejected input.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

// Is makes errors.Is(err, ErrValidation) hold.
func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

func invalid(format string, args ...any) error {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

// State is the progress of the most recent operation.
type State int

const (
	// Idle means no operation is running and the last one succeeded.
	Idle State = iota
	// Loading means an operation is in flight.
	Loading
	// Failed means the last operation failed; see Err.
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

// Manager holds the authentication state of one client.
type Manager struct {
	svc    service.Service
	tokens credstore.Store
	now    func() time.Time
	logger *slog.Logger

	mu            sync.RWMutex
	user          *service.User
	authenticated bool
	state         State
	errMsg        string
}

// Option configures a Manager.
type Option func(*Manager)

// WithClock overrides the clock used for token expiry checks.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// New creates a Manager backed by svc and tokens.
func New(svc service.Service, tokens credstore.Store, opts ...Option) *Manager {
	m := &Manager{
		svc:    svc,
		tokens: tokens,
		now:    time.Now,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// CheckAuth reports whether the stored access token is usable.
// A missing or expired token answers false without contacting the backend.
// Otherwise the user profile is fetched; if that fails the stored tokens are
// cleared.
func (m *Manager) CheckAuth(ctx context.Context) bool {
	m.begin()

	pair, err := m.tokens.Load(ctx)
	if err != nil {
		m.logger.Warn("load tokens", "error", err)
		m.reset()
		return false
	}
	if pair.AccessToken == "" || apiclient.IsTokenExpired(pair.AccessToken, m.now()) {
		m.logger.Debug("no usable access token")
		m.reset()
		return false
	}

	user, err := m.svc.Me(ctx)
	if err != nil {
		m.logger.Debug("profile fetch failed, clearing session", "error", err)
		if cerr := m.tokens.Clear(context.WithoutCancel(ctx)); cerr != nil {
			m.logger.Warn("clear tokens", "error", cerr)
		}
		m.reset()
		return false
	}

	m.mu.Lock()
	m.user = &user
	m.authenticated = true
	m.state = Idle
	m.mu.Unlock()
	return true
}

// Login authenticates with email and password and stores the token pair.
func (m *Manager) Login(ctx context.Context, email, password string) error {
	email = strings.TrimSpace(email)
	if err := validateCredentials(email, password); err != nil {
		return m.fail(err, "")
	}

	m.begin()
	res, err := m.svc.Login(ctx, service.Credentials{Email: email, Password: password})
	if err != nil {
		return m.fail(err, "failed to login")
	}
	return m.establish(ctx, res)
}

// Register creates an account and logs into it. fullName may be empty.
func (m *Manager) Register(ctx context.Context, email, password, fullName string) error {
	email = strings.TrimSpace(email)
	if err := validateCredentials(email, password); err != nil {
		return m.fail(err, "")
	}

	m.begin()
	res, err := m.svc.Register(ctx, service.Registration{
		Email:    email,
		Password: password,
		FullName: strings.TrimSpace(fullName),
	})
	if err != nil {
		return m.fail(err, "failed to register")
	}
	return m.establish(ctx, res)
}

// Logout clears the stored tokens and the in-memory session. It does not
// contact the backend.
func (m *Manager) Logout(ctx context.Context) error {
	err := m.tokens.Clear(ctx)
	m.reset()
	if err != nil {
		return fmt.Errorf("clear tokens: %w", err)
	}
	return nil
}

// Expire drops the in-memory session. The API client calls it after a
// failed refresh has already removed the stored tokens.
func (m *Manager) Expire() {
	m.logger.Debug("session expired")
	m.reset()
}

// UpdateProfile changes the current user's full name.
func (m *Manager) UpdateProfile(ctx context.Context, fullName string) error {
	fullName = strings.TrimSpace(fullName)
	if fullName == "" {
		return m.fail(invalid("full name is required"), "")
	}

	m.begin()
	user, err := m.svc.UpdateMe(ctx, service.UserPatch{FullName: &fullName})
	if err != nil {
		return m.fail(err, "failed to update profile")
	}

	m.mu.Lock()
	m.user = &user
	m.state = Idle
	m.mu.Unlock()
	return nil
}

// User returns the cached user, if any.
func (m *Manager) User() (service.User, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.user == nil {
		return service.User{}, false
	}
	return *m.user, true
}

// IsAuthenticated reports the result of the last session check or login.
func (m *Manager) IsAuthenticated() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.authenticated
}

// State returns the progress of the most recent operation.
func (m *Manager) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// Err returns the message of the last failure, or "".
func (m *Manager) Err() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.errMsg
}

// ClearError forgets the last failure.
func (m *Manager) ClearError() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errMsg = ""
	if m.state == Failed {
		m.state = Idle
	}
}

// establish persists a fresh token pair and marks the session authenticated.
func (m *Manager) establish(ctx context.Context, res service.AuthResult) error {
	if res.AccessToken == "" {
		return m.fail(fmt.Errorf("server returned no access token"), "")
	}
	if err := m.tokens.Save(ctx, res.Tokens()); err != nil {
		return m.fail(fmt.Errorf("save tokens: %w", err), "")
	}

	user := res.User
	m.mu.Lock()
	m.user = &user
	m.authenticated = true
	m.state = Idle
	m.mu.Unlock()
	return nil
}

func (m *Manager) begin() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = Loading
	m.errMsg = ""
}

func (m *Manager) reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.user = nil
	m.authenticated = false
	m.state = Idle
}

// fail records a readable message for err and returns err unchanged.
func (m *Manager) fail(err error, fallback string) error {
	msg := apiclient.Message(err)
	if msg == "" {
		msg = fallback
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.errMsg = msg
	m.state = Failed
	return err
}

func validateCredentials(email, password string) error {
	if email == "" {
		return invalid("email is required")
	}
	if !strings.Contains(email, "@") {
		return invalid("invalid email address: %s", email)
	}
	if password == "" {
		return invalid("password is required")
	}
	return nil
}
