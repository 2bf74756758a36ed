package commands

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"todo/internal/apiclient"
	"todo/internal/config"
	"todo/internal/exitcode"
	"todo/internal/output"
	"todo/internal/session"
)

// PasswordEnv is read when --password is not given.
const PasswordEnv = "TODO_PASSWORD"

func init() {
	Register(&LoginCmd{})
}

// LoginCmd implements the login command.
type LoginCmd struct {
	email    string
	password string
}

func (c *LoginCmd) Name() string          { return "login" }
func (c *LoginCmd) Aliases() []string     { return nil }
func (c *LoginCmd) Synopsis() string      { return "Log in with email and password" }
func (c *LoginCmd) Usage() string         { return "todo login [--password <pw>] <email>" }
func (c *LoginCmd) Requires() Requirement { return Backend }

func (c *LoginCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.email, "email", "", "")
	fs.StringVar(&c.password, "password", "", "")
}

func (c *LoginCmd) Run(ctx context.Context, cfg *config.Config, env *Env, args []string, out, errOut io.Writer) int {
	email, code := emailArg(c.email, args, errOut)
	if code != exitcode.Success {
		return code
	}

	password, err := readPassword(c.password, env.In, cfg.Quiet, errOut)
	if err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.UserError
	}

	if err := env.Session.Login(ctx, email, password); err != nil {
		return authFailure(errOut, env.Session.Err(), err)
	}
	env.Todos.Reset()

	if !cfg.Quiet {
		user, _ := env.Session.User()
		fmt.Fprint(out, "logged in as ")
		output.FormatUser(out, user)
	}
	return exitcode.Success
}

// emailArg takes the email from --email or the single positional argument.
func emailArg(flagValue string, args []string, errOut io.Writer) (string, int) {
	switch {
	case flagValue != "" && len(args) > 0:
		fmt.Fprintln(errOut, "error: cannot use both --email and an email argument")
		return "", exitcode.UserError
	case len(args) > 1:
		fmt.Fprintf(errOut, "error: unexpected argument: %s\n", args[1])
		return "", exitcode.UserError
	case len(args) == 1:
		return args[0], exitcode.Success
	}
	return flagValue, exitcode.Success
}

// readPassword returns the --password value, else $TODO_PASSWORD, else the
// first line of in.
func readPassword(flagValue string, in io.Reader, quiet bool, errOut io.Writer) (string, error) {
	if flagValue != "" {
		return flagValue, nil
	}
	if v := os.Getenv(PasswordEnv); v != "" {
		return v, nil
	}
	if in == nil {
		return "", errors.New("password required")
	}

	if !quiet {
		fmt.Fprint(errOut, "password: ")
	}
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read password: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// authFailure reports a failed login or registration. Rejected credentials
// are auth errors; input errors and conflicts stay user errors.
func authFailure(errOut io.Writer, msg string, err error) int {
	code := report(errOut, msg, err)
	if errors.Is(err, session.ErrValidation) {
		return exitcode.UserError
	}
	if status := apiclient.StatusCode(err); status == http.StatusBadRequest || status == http.StatusUnauthorized {
		return exitcode.AuthError
	}
	return code
}
