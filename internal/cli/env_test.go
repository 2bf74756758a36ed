package cli_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"todo/internal/cli"
	"todo/internal/commands"
	"todo/internal/exitcode"
	"todo/internal/testutil"
)

// backend runs the production wiring against a FakeAPI, keeping state in
// one config directory across invocations like separate processes would.
type backend struct {
	api *testutil.FakeAPI
	dir string
	in  *bytes.Buffer
}

func newBackend(t *testing.T) *backend {
	t.Helper()
	clearEnv(t)
	api := testutil.NewFakeAPI(t)
	t.Setenv("TODO_API_URL", api.URL())
	return &backend{api: api, dir: t.TempDir(), in: &bytes.Buffer{}}
}

func (b *backend) run(t *testing.T, args ...string) (stdout, stderr string, code int) {
	t.Helper()
	full := append([]string{args[0], "--config", b.dir}, args[1:]...)
	d := cli.NewDispatcher(commands.DefaultRegistry, cli.BackendEnv(b.in))

	var outBuf, errBuf bytes.Buffer
	code = d.Run(context.Background(), full, &outBuf, &errBuf)
	return outBuf.String(), errBuf.String(), code
}

func TestBackendEnv_Workflow(t *testing.T) {
	b := newBackend(t)
	b.api.AddUser("a@b.com", "secret1", "Ada")

	_, stderr, code := b.run(t, "login", "--quiet", "--password", "secret1", "a@b.com")
	require.Equal(t, exitcode.Success, code, stderr)

	info, err := os.Stat(filepath.Join(b.dir, "session.db"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	stdout, _, code := b.run(t, "whoami")
	require.Equal(t, exitcode.Success, code)
	assert.Equal(t, "Ada <a@b.com>\n", stdout)

	_, stderr, code = b.run(t, "add", "-p", "high", "Buy", "milk")
	require.Equal(t, exitcode.Success, code, stderr)
	_, _, code = b.run(t, "add", "Call", "mom")
	require.Equal(t, exitcode.Success, code)

	_, _, code = b.run(t, "done", "1")
	require.Equal(t, exitcode.Success, code)
	assert.Equal(t, []map[string]any{{"completed": true}}, b.api.Bodies(putRoute(t, b)))

	stdout, _, code = b.run(t, "list")
	require.Equal(t, exitcode.Success, code)
	assert.Equal(t, "   1  [x] Buy milk (high)\n   2  [ ] Call mom (medium)\n2 tasks, 1 completed\n", stdout)

	_, _, code = b.run(t, "rm", "2")
	require.Equal(t, exitcode.Success, code)

	stdout, _, code = b.run(t, "list", "--quiet")
	require.Equal(t, exitcode.Success, code)
	assert.Equal(t, "   1  [x] Buy milk (high)\n", stdout)

	_, _, code = b.run(t, "logout")
	require.Equal(t, exitcode.Success, code)

	_, stderr, code = b.run(t, "list")
	assert.Equal(t, exitcode.AuthError, code)
	assert.Equal(t, "error: not logged in (run: todo login)\n", stderr)
}

// putRoute returns the PUT route of the first listed task.
func putRoute(t *testing.T, b *backend) string {
	t.Helper()
	stdout, _, code := b.run(t, "show", "1")
	require.Equal(t, exitcode.Success, code)
	id, ok := strings.CutPrefix(strings.SplitN(stdout, "\n", 2)[0], "id:")
	require.True(t, ok)
	return "PUT /todo/" + strings.TrimSpace(id)
}

func TestBackendEnv_RefreshesRevokedToken(t *testing.T) {
	b := newBackend(t)
	b.api.AddUser("a@b.com", "secret1", "")
	_, _, code := b.run(t, "login", "--password", "secret1", "a@b.com")
	require.Equal(t, exitcode.Success, code)

	b.api.RevokeAccessTokens()

	stdout, stderr, code := b.run(t, "list")
	require.Equal(t, exitcode.Success, code, stderr)
	assert.Equal(t, "no tasks found\n", stdout)
	assert.Equal(t, 1, b.api.Calls("POST /auth/refresh"))
}

func TestBackendEnv_FailedRefreshLogsOut(t *testing.T) {
	b := newBackend(t)
	b.api.AddUser("a@b.com", "secret1", "")
	_, _, code := b.run(t, "login", "--password", "secret1", "a@b.com")
	require.Equal(t, exitcode.Success, code)

	b.api.RevokeAccessTokens()
	b.api.RefreshDisabled = true

	_, stderr, code := b.run(t, "whoami")
	assert.Equal(t, exitcode.AuthError, code)
	assert.Equal(t, "error: not logged in (run: todo login)\n", stderr)

	// The stored pair is gone, so the next run fails without a network call.
	before := b.api.Calls("GET /users/me")
	_, _, code = b.run(t, "whoami")
	assert.Equal(t, exitcode.AuthError, code)
	assert.Equal(t, before, b.api.Calls("GET /users/me"))
}

func TestBackendEnv_PasswordFromStdin(t *testing.T) {
	b := newBackend(t)
	b.api.AddUser("a@b.com", "secret1", "")
	b.in.WriteString("secret1\n")

	stdout, stderr, code := b.run(t, "login", "a@b.com")

	require.Equal(t, exitcode.Success, code)
	assert.Equal(t, "logged in as a@b.com\n", stdout)
	assert.Equal(t, "password: ", stderr)
}

func TestBackendEnv_Register(t *testing.T) {
	b := newBackend(t)

	stdout, _, code := b.run(t, "register", "--name", "Grace", "--password", "hopper1", "g@h.com")
	require.Equal(t, exitcode.Success, code)
	assert.Equal(t, "registered Grace <g@h.com>\n", stdout)

	_, stderr, code := b.run(t, "register", "--password", "hopper1", "g@h.com")
	assert.Equal(t, exitcode.UserError, code)
	assert.Equal(t, "error: User with this email or username already exists\n", stderr)
}

func TestBackendEnv_UnreachableServer(t *testing.T) {
	b := newBackend(t)
	t.Setenv("TODO_API_URL", "http://127.0.0.1:1/api/v1")

	_, stderr, code := b.run(t, "login", "--password", "secret1", "a@b.com")

	assert.Equal(t, exitcode.BackendError, code)
	assert.Equal(t, "error: network error: could not reach server\n", stderr)
}
