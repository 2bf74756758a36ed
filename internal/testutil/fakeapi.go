package testutil

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"todo/internal/service"
)

// APIRoot is the path prefix the fake API serves under.
const APIRoot = "/api/v1"

var fakeSigningKey = []byte("fake-api-signing-key")

type fakeUser struct {
	user service.User
	hash []byte
}

type fakeClaims struct {
	jwt.RegisteredClaims
	Type string `json:"typ"`
	Gen  int    `json:"gen"`
}

// FakeAPI is an httptest server speaking the to-do REST API.
// Tokens are HS256 JWTs; passwords are bcrypt hashes.
type FakeAPI struct {
	Server *httptest.Server

	// AccessTTL is the lifetime of issued access tokens.
	AccessTTL time.Duration

	// RefreshDisabled makes /auth/refresh answer 401.
	RefreshDisabled bool

	// Now is the clock used for issuing and validating tokens.
	Now func() time.Time

	mu     sync.Mutex
	users  map[string]*fakeUser // email -> user
	byID   map[string]*fakeUser
	tasks  map[string][]service.Task // user ID -> tasks
	gen    int
	calls  map[string]int
	bodies map[string][]map[string]any
}

// NewFakeAPI starts a fake API server that is closed with the test.
func NewFakeAPI(t *testing.T) *FakeAPI {
	t.Helper()

	f := &FakeAPI{
		AccessTTL: 15 * time.Minute,
		Now:       time.Now,
		users:     make(map[string]*fakeUser),
		byID:      make(map[string]*fakeUser),
		tasks:     make(map[string][]service.Task),
		calls:     make(map[string]int),
		bodies:    make(map[string][]map[string]any),
	}

	r := chi.NewRouter()
	r.Use(f.record)
	r.Route(APIRoot, func(r chi.Router) {
		r.Post("/users/create", f.handleRegister)
		r.Post("/auth/login", f.handleLogin)
		r.Post("/auth/refresh", f.handleRefresh)

		r.Group(func(r chi.Router) {
			r.Use(f.authenticate)
			r.Get("/users/me", f.handleMe)
			r.Post("/users/update", f.handleUpdateMe)
			r.Get("/todo", f.handleListTasks)
			r.Post("/todo/create", f.handleCreateTask)
			r.Get("/todo/{id}", f.handleGetTask)
			r.Put("/todo/{id}", f.handleUpdateTask)
			r.Delete("/todo/{id}", f.handleDeleteTask)
		})
	})

	f.Server = httptest.NewServer(r)
	t.Cleanup(f.Server.Close)
	return f
}

// URL returns the API root URL.
func (f *FakeAPI) URL() string {
	return f.Server.URL + APIRoot
}

// AddUser registers an account directly and returns its ID.
func (f *FakeAPI) AddUser(email, password, fullName string) string {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		panic(err)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	u := &fakeUser{
		user: service.User{ID: uuid.NewString(), Email: email, FullName: fullName},
		hash: hash,
	}
	f.users[email] = u
	f.byID[u.user.ID] = u
	return u.user.ID
}

// AddTask stores a task for userID and returns it.
func (f *FakeAPI) AddTask(userID string, task service.Task) service.Task {
	f.mu.Lock()
	defer f.mu.Unlock()
	if task.ID == "" {
		task.ID = uuid.NewString()
	}
	f.tasks[userID] = append(f.tasks[userID], task)
	return task
}

// Tokens issues a valid pair for userID.
func (f *FakeAPI) Tokens(userID string) service.TokenPair {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.issue(userID)
}

// ExpiredAccessToken returns a well-formed access token for userID whose
// exp is in the past.
func (f *FakeAPI) ExpiredAccessToken(userID string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sign(userID, "access", f.Now().Add(-time.Minute))
}

// RevokeAccessTokens makes every access token issued so far answer 401.
func (f *FakeAPI) RevokeAccessTokens() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gen++
}

// Calls returns how many requests hit "METHOD /path" (path without the API root).
func (f *FakeAPI) Calls(route string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[route]
}

// Bodies returns the decoded JSON bodies received on "METHOD /path".
func (f *FakeAPI) Bodies(route string) []map[string]any {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]map[string]any(nil), f.bodies[route]...)
}

func (f *FakeAPI) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		route := r.Method + " " + strings.TrimPrefix(r.URL.Path, APIRoot)
		f.mu.Lock()
		f.calls[route]++
		f.mu.Unlock()
		next.ServeHTTP(w, r)
	})
}

type ctxKey struct{}

func (f *FakeAPI) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok {
			writeDetail(w, http.StatusUnauthorized, "Not authenticated")
			return
		}
		claims, err := f.parse(raw, "access")
		if err != nil {
			writeDetail(w, http.StatusUnauthorized, "Could not validate credentials")
			return
		}
		f.mu.Lock()
		u, exists := f.byID[claims.Subject]
		f.mu.Unlock()
		if !exists {
			writeDetail(w, http.StatusNotFound, "Could not find user")
			return
		}
		next.ServeHTTP(w, r.WithContext(withUser(r, u.user.ID)))
	})
}

func (f *FakeAPI) handleRegister(w http.ResponseWriter, r *http.Request) {
	var reg service.Registration
	if !f.decodeBody(w, r, &reg) {
		return
	}
	if reg.Email == "" || len(reg.Password) < 5 {
		writeDetail(w, http.StatusUnprocessableEntity, "Email and a password of at least 5 characters are required")
		return
	}

	f.mu.Lock()
	_, taken := f.users[reg.Email]
	f.mu.Unlock()
	if taken {
		writeDetail(w, http.StatusBadRequest, "User with this email or username already exists")
		return
	}

	id := f.AddUser(reg.Email, reg.Password, reg.FullName)
	f.mu.Lock()
	res := service.AuthResult{User: f.byID[id].user}
	pair := f.issue(id)
	f.mu.Unlock()
	res.AccessToken, res.RefreshToken = pair.AccessToken, pair.RefreshToken
	writeJSON(w, http.StatusOK, res)
}

func (f *FakeAPI) handleLogin(w http.ResponseWriter, r *http.Request) {
	var creds service.Credentials
	if !f.decodeBody(w, r, &creds) {
		return
	}

	f.mu.Lock()
	u, ok := f.users[creds.Email]
	f.mu.Unlock()
	if !ok || bcrypt.CompareHashAndPassword(u.hash, []byte(creds.Password)) != nil {
		writeDetail(w, http.StatusBadRequest, "Incorrect email or password")
		return
	}

	f.mu.Lock()
	pair := f.issue(u.user.ID)
	f.mu.Unlock()
	writeJSON(w, http.StatusOK, service.AuthResult{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		User:         u.user,
	})
}

func (f *FakeAPI) handleRefresh(w http.ResponseWriter, r *http.Request) {
	var req struct {
		RefreshToken string `json:"refresh_token"`
	}
	if !f.decodeBody(w, r, &req) {
		return
	}
	if f.RefreshDisabled {
		writeDetail(w, http.StatusUnauthorized, "Invalid refresh token")
		return
	}
	claims, err := f.parse(req.RefreshToken, "refresh")
	if err != nil {
		writeDetail(w, http.StatusUnauthorized, "Invalid refresh token")
		return
	}

	f.mu.Lock()
	pair := f.issue(claims.Subject)
	f.mu.Unlock()
	writeJSON(w, http.StatusOK, pair)
}

func (f *FakeAPI) handleMe(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	u := f.byID[userID(r)].user
	f.mu.Unlock()
	writeJSON(w, http.StatusOK, u)
}

func (f *FakeAPI) handleUpdateMe(w http.ResponseWriter, r *http.Request) {
	var patch service.UserPatch
	if !f.decodeBody(w, r, &patch) {
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	u := f.byID[userID(r)]
	if patch.FullName != nil {
		u.user.FullName = *patch.FullName
	}
	if patch.Email != nil {
		delete(f.users, u.user.Email)
		u.user.Email = *patch.Email
		f.users[u.user.Email] = u
	}
	writeJSON(w, http.StatusOK, u.user)
}

func (f *FakeAPI) handleListTasks(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	tasks := append([]service.Task{}, f.tasks[userID(r)]...)
	f.mu.Unlock()
	writeJSON(w, http.StatusOK, tasks)
}

func (f *FakeAPI) handleCreateTask(w http.ResponseWriter, r *http.Request) {
	var in service.NewTask
	if !f.decodeBody(w, r, &in) {
		return
	}
	if strings.TrimSpace(in.Title) == "" {
		writeDetail(w, http.StatusUnprocessableEntity, "Title is required")
		return
	}
	if in.Priority == "" {
		in.Priority = service.PriorityMedium
	}

	now := service.NewTimestamp(f.Now().UTC().Truncate(time.Second))
	task := f.AddTask(userID(r), service.Task{
		Title:       in.Title,
		Description: in.Description,
		Priority:    in.Priority,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	writeJSON(w, http.StatusCreated, task)
}

func (f *FakeAPI) handleGetTask(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	i := f.taskIndex(userID(r), chi.URLParam(r, "id"))
	if i < 0 {
		writeDetail(w, http.StatusNotFound, "Todo not found")
		return
	}
	writeJSON(w, http.StatusOK, f.tasks[userID(r)][i])
}

func (f *FakeAPI) handleUpdateTask(w http.ResponseWriter, r *http.Request) {
	var patch service.TaskPatch
	if !f.decodeBody(w, r, &patch) {
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	uid := userID(r)
	i := f.taskIndex(uid, chi.URLParam(r, "id"))
	if i < 0 {
		writeDetail(w, http.StatusNotFound, "Todo not found")
		return
	}
	task := patch.Apply(f.tasks[uid][i])
	task.UpdatedAt = service.NewTimestamp(f.Now().UTC().Truncate(time.Second))
	f.tasks[uid][i] = task
	writeJSON(w, http.StatusOK, task)
}

func (f *FakeAPI) handleDeleteTask(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	uid := userID(r)
	i := f.taskIndex(uid, chi.URLParam(r, "id"))
	if i < 0 {
		writeDetail(w, http.StatusNotFound, "Todo not found")
		return
	}
	f.tasks[uid] = append(f.tasks[uid][:i], f.tasks[uid][i+1:]...)
	w.WriteHeader(http.StatusNoContent)
}

// taskIndex must be called with f.mu held.
func (f *FakeAPI) taskIndex(uid, id string) int {
	for i, t := range f.tasks[uid] {
		if t.ID == id {
			return i
		}
	}
	return -1
}

// issue must be called with f.mu held.
func (f *FakeAPI) issue(userID string) service.TokenPair {
	now := f.Now()
	return service.TokenPair{
		AccessToken:  f.sign(userID, "access", now.Add(f.AccessTTL)),
		RefreshToken: f.sign(userID, "refresh", now.Add(24*time.Hour)),
	}
}

func (f *FakeAPI) sign(userID, typ string, exp time.Time) string {
	claims := fakeClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			ExpiresAt: jwt.NewNumericDate(exp),
			ID:        uuid.NewString(),
		},
		Type: typ,
		Gen:  f.gen,
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(fakeSigningKey)
	if err != nil {
		panic(err)
	}
	return signed
}

func (f *FakeAPI) parse(raw, typ string) (*fakeClaims, error) {
	claims := &fakeClaims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		return fakeSigningKey, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(f.Now))
	if err != nil {
		return nil, err
	}
	if claims.Type != typ {
		return nil, fmt.Errorf("unexpected token type %q", claims.Type)
	}
	f.mu.Lock()
	stale := typ == "access" && claims.Gen < f.gen
	f.mu.Unlock()
	if stale {
		return nil, errors.New("token revoked")
	}
	return claims, nil
}

func (f *FakeAPI) decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	var raw map[string]any
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "Invalid JSON body")
		return false
	}
	route := r.Method + " " + strings.TrimPrefix(r.URL.Path, APIRoot)
	f.mu.Lock()
	f.bodies[route] = append(f.bodies[route], raw)
	f.mu.Unlock()

	data, _ := json.Marshal(raw)
	if err := json.Unmarshal(data, dst); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "Invalid JSON body")
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}

func withUser(r *http.Request, id string) context.Context {
	return context.WithValue(r.Context(), ctxKey{}, id)
}

func userID(r *http.Request) string {
	id, _ := r.Context().Value(ctxKey{}).(string)
	return id
}
