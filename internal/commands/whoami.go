package commands

import (
	"context"
	"flag"
	"fmt"
	"io"
	"strings"

	"todo/internal/config"
	"todo/internal/exitcode"
	"todo/internal/output"
)

func init() {
	Register(&WhoamiCmd{})
	Register(&ProfileCmd{})
}

// WhoamiCmd prints the logged-in user.
type WhoamiCmd struct{}

func (c *WhoamiCmd) Name() string          { return "whoami" }
func (c *WhoamiCmd) Aliases() []string     { return nil }
func (c *WhoamiCmd) Synopsis() string      { return "Show the logged-in user" }
func (c *WhoamiCmd) Usage() string         { return "todo whoami" }
func (c *WhoamiCmd) Requires() Requirement { return Auth }

func (c *WhoamiCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *WhoamiCmd) Run(ctx context.Context, cfg *config.Config, env *Env, args []string, out, errOut io.Writer) int {
	user, ok := env.Session.User()
	if !ok {
		fmt.Fprintln(errOut, "error: not logged in (run: todo login)")
		return exitcode.AuthError
	}
	output.FormatUser(out, user)
	return exitcode.Success
}

// ProfileCmd changes the logged-in user's full name.
type ProfileCmd struct {
	name string
}

func (c *ProfileCmd) Name() string          { return "profile" }
func (c *ProfileCmd) Aliases() []string     { return nil }
func (c *ProfileCmd) Synopsis() string      { return "Update your full name" }
func (c *ProfileCmd) Usage() string         { return "todo profile <full name...>" }
func (c *ProfileCmd) Requires() Requirement { return Auth }

func (c *ProfileCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.name, "name", "", "")
}

func (c *ProfileCmd) Run(ctx context.Context, cfg *config.Config, env *Env, args []string, out, errOut io.Writer) int {
	name := c.name
	if len(args) > 0 {
		if name != "" {
			fmt.Fprintln(errOut, "error: cannot use both --name and a name argument")
			return exitcode.UserError
		}
		name = strings.Join(args, " ")
	}

	if err := env.Session.UpdateProfile(ctx, name); err != nil {
		return report(errOut, env.Session.Err(), err)
	}

	if !cfg.Quiet {
		user, _ := env.Session.User()
		output.FormatUser(out, user)
	}
	return exitcode.Success
}
