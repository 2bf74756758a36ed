package commands

import (
	"context"
	"flag"
	"fmt"
	"io"

	"todo/internal/config"
	"todo/internal/exitcode"
)

func init() {
	Register(&LogoutCmd{})
}

// LogoutCmd implements the logout command.
type LogoutCmd struct{}

func (c *LogoutCmd) Name() string          { return "logout" }
func (c *LogoutCmd) Aliases() []string     { return nil }
func (c *LogoutCmd) Synopsis() string      { return "Remove stored credentials" }
func (c *LogoutCmd) Usage() string         { return "todo logout [common flags]" }
func (c *LogoutCmd) Requires() Requirement { return Backend }

func (c *LogoutCmd) RegisterFlags(fs *flag.FlagSet) {}

// Run clears the stored tokens. The backend is not contacted.
func (c *LogoutCmd) Run(ctx context.Context, cfg *config.Config, env *Env, args []string, out, errOut io.Writer) int {
	if err := env.Session.Logout(ctx); err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.AuthError
	}
	env.Todos.Reset()

	if !cfg.Quiet {
		fmt.Fprintln(out, "ok")
	}
	return exitcode.Success
}
