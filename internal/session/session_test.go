package session_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"todo/internal/apiclient"
	"todo/internal/credstore"
	"todo/internal/service"
	"todo/internal/session"
	"todo/internal/testutil"
)

type fixture struct {
	api     *testutil.FakeAPI
	tokens  *credstore.Memory
	client  *apiclient.Client
	manager *session.Manager
}

func newFixture(t *testing.T, pair service.TokenPair) *fixture {
	t.Helper()
	api := testutil.NewFakeAPI(t)
	tokens := credstore.NewMemory(pair)
	client, err := apiclient.New(api.URL(), tokens)
	require.NoError(t, err)
	mgr := session.New(client, tokens)
	client.OnSessionExpired(mgr.Expire)
	return &fixture{api: api, tokens: tokens, client: client, manager: mgr}
}

func (f *fixture) stored(t *testing.T) service.TokenPair {
	t.Helper()
	pair, err := f.tokens.Load(context.Background())
	require.NoError(t, err)
	return pair
}

func TestLogin_Success(t *testing.T) {
	f := newFixture(t, service.TokenPair{})
	f.api.AddUser("a@b.com", "secret1", "")

	require.NoError(t, f.manager.Login(context.Background(), "a@b.com", "secret1"))

	assert.True(t, f.manager.IsAuthenticated())
	user, ok := f.manager.User()
	require.True(t, ok)
	assert.Equal(t, "a@b.com", user.Email)
	assert.Equal(t, session.Idle, f.manager.State())

	pair := f.stored(t)
	assert.NotEmpty(t, pair.AccessToken)
	assert.NotEmpty(t, pair.RefreshToken)
}

func TestLogin_ThenCheckAuthWithoutSecondLogin(t *testing.T) {
	f := newFixture(t, service.TokenPair{})
	f.api.AddUser("a@b.com", "secret1", "")
	require.NoError(t, f.manager.Login(context.Background(), "a@b.com", "secret1"))

	// A fresh manager over the same storage, as in a new process.
	fresh := session.New(f.client, f.tokens)
	assert.True(t, fresh.CheckAuth(context.Background()))
	assert.True(t, fresh.IsAuthenticated())
	user, ok := fresh.User()
	require.True(t, ok)
	assert.Equal(t, "a@b.com", user.Email)

	assert.Equal(t, 1, f.api.Calls("POST /auth/login"))
	assert.Equal(t, 1, f.api.Calls("GET /users/me"))
}

func TestLogin_FailureRecordsMessage(t *testing.T) {
	f := newFixture(t, service.TokenPair{})
	f.api.AddUser("a@b.com", "secret1", "")

	err := f.manager.Login(context.Background(), "a@b.com", "wrong")
	require.Error(t, err)
	assert.Equal(t, 400, apiclient.StatusCode(err))

	assert.False(t, f.manager.IsAuthenticated())
	assert.Equal(t, "Incorrect email or password", f.manager.Err())
	assert.Equal(t, session.Failed, f.manager.State())
	assert.Equal(t, service.TokenPair{}, f.stored(t))

	f.manager.ClearError()
	assert.Empty(t, f.manager.Err())
	assert.Equal(t, session.Idle, f.manager.State())
}

func TestLogin_ValidationBeforeNetwork(t *testing.T) {
	f := newFixture(t, service.TokenPair{})

	tests := []struct {
		name, email, password, msg string
	}{
		{"empty email", "", "secret1", "email is required"},
		{"bad email", "nobody", "secret1", "invalid email address: nobody"},
		{"empty password", "a@b.com", "", "password is required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := f.manager.Login(context.Background(), tt.email, tt.password)
			require.ErrorIs(t, err, session.ErrValidation)
			assert.Equal(t, tt.msg, f.manager.Err())
		})
	}
	assert.Equal(t, 0, f.api.Calls("POST /auth/login"))
}

func TestRegister_Success(t *testing.T) {
	f := newFixture(t, service.TokenPair{})

	require.NoError(t, f.manager.Register(context.Background(), "new@b.com", "secret1", "  New User "))

	user, ok := f.manager.User()
	require.True(t, ok)
	assert.Equal(t, "New User", user.FullName)
	assert.True(t, f.manager.IsAuthenticated())
	assert.NotEmpty(t, f.stored(t).RefreshToken)
}

func TestRegister_DuplicateEmail(t *testing.T) {
	f := newFixture(t, service.TokenPair{})
	f.api.AddUser("a@b.com", "secret1", "")

	err := f.manager.Register(context.Background(), "a@b.com", "secret1", "")
	require.Error(t, err)
	assert.Equal(t, "User with this email or username already exists", f.manager.Err())
	assert.False(t, f.manager.IsAuthenticated())
}

func TestLogout_ClearsEverythingWithoutNetwork(t *testing.T) {
	f := newFixture(t, service.TokenPair{})
	f.api.AddUser("a@b.com", "secret1", "")
	require.NoError(t, f.manager.Login(context.Background(), "a@b.com", "secret1"))

	require.NoError(t, f.manager.Logout(context.Background()))

	assert.False(t, f.manager.IsAuthenticated())
	_, ok := f.manager.User()
	assert.False(t, ok)
	assert.Equal(t, service.TokenPair{}, f.stored(t))
	assert.False(t, f.manager.CheckAuth(context.Background()))
	assert.Equal(t, 0, f.api.Calls("GET /users/me"))
}

func TestCheckAuth_NoToken(t *testing.T) {
	f := newFixture(t, service.TokenPair{})

	assert.False(t, f.manager.CheckAuth(context.Background()))
	assert.Equal(t, 0, f.api.Calls("GET /users/me"))
}

func TestCheckAuth_ExpiredTokenSkipsBackend(t *testing.T) {
	f := newFixture(t, service.TokenPair{})
	id := f.api.AddUser("a@b.com", "secret1", "")
	require.NoError(t, f.tokens.Save(context.Background(), service.TokenPair{
		AccessToken:  f.api.ExpiredAccessToken(id),
		RefreshToken: f.api.Tokens(id).RefreshToken,
	}))

	assert.False(t, f.manager.CheckAuth(context.Background()))
	assert.Equal(t, 0, f.api.Calls("GET /users/me"))
	assert.Equal(t, 0, f.api.Calls("POST /auth/refresh"))
}

func TestCheckAuth_ClockDecidesExpiry(t *testing.T) {
	f := newFixture(t, service.TokenPair{})
	id := f.api.AddUser("a@b.com", "secret1", "")
	require.NoError(t, f.tokens.Save(context.Background(), f.api.Tokens(id)))

	later := session.New(f.client, f.tokens, session.WithClock(func() time.Time {
		return time.Now().Add(time.Hour)
	}))
	assert.False(t, later.CheckAuth(context.Background()))
	assert.Equal(t, 0, f.api.Calls("GET /users/me"))
}

func TestCheckAuth_ProfileFailureClearsTokens(t *testing.T) {
	f := newFixture(t, service.TokenPair{})
	id := f.api.AddUser("a@b.com", "secret1", "")
	require.NoError(t, f.tokens.Save(context.Background(), f.api.Tokens(id)))
	f.api.RevokeAccessTokens()
	f.api.RefreshDisabled = true

	assert.False(t, f.manager.CheckAuth(context.Background()))
	assert.False(t, f.manager.IsAuthenticated())
	assert.Equal(t, service.TokenPair{}, f.stored(t))
}

func TestCheckAuth_RefreshesRevokedToken(t *testing.T) {
	f := newFixture(t, service.TokenPair{})
	id := f.api.AddUser("a@b.com", "secret1", "")
	require.NoError(t, f.tokens.Save(context.Background(), f.api.Tokens(id)))
	f.api.RevokeAccessTokens()

	assert.True(t, f.manager.CheckAuth(context.Background()))
	assert.Equal(t, 2, f.api.Calls("GET /users/me"))
	assert.Equal(t, 1, f.api.Calls("POST /auth/refresh"))
}

func TestExpire_DropsInMemorySession(t *testing.T) {
	f := newFixture(t, service.TokenPair{})
	f.api.AddUser("a@b.com", "secret1", "")
	require.NoError(t, f.manager.Login(context.Background(), "a@b.com", "secret1"))

	f.api.RevokeAccessTokens()
	f.api.RefreshDisabled = true
	_, err := f.client.ListTasks(context.Background())
	require.ErrorIs(t, err, apiclient.ErrSessionExpired)

	assert.False(t, f.manager.IsAuthenticated())
	assert.Equal(t, service.TokenPair{}, f.stored(t))
}

func TestUpdateProfile(t *testing.T) {
	f := newFixture(t, service.TokenPair{})
	f.api.AddUser("a@b.com", "secret1", "")
	require.NoError(t, f.manager.Login(context.Background(), "a@b.com", "secret1"))

	err := f.manager.UpdateProfile(context.Background(), "  ")
	require.ErrorIs(t, err, session.ErrValidation)
	assert.Equal(t, "full name is required", f.manager.Err())
	assert.Equal(t, 0, f.api.Calls("POST /users/update"))

	require.NoError(t, f.manager.UpdateProfile(context.Background(), "Ada"))
	user, _ := f.manager.User()
	assert.Equal(t, "Ada", user.FullName)
	assert.True(t, f.manager.IsAuthenticated())
}
