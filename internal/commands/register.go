package commands

import (
	"context"
	"flag"
	"fmt"
	"io"

	"todo/internal/config"
	"todo/internal/exitcode"
	"todo/internal/output"
)

func init() {
	Register(&RegisterCmd{})
}

// RegisterCmd implements the register command.
type RegisterCmd struct {
	email    string
	password string
	name     string
}

func (c *RegisterCmd) Name() string          { return "register" }
func (c *RegisterCmd) Aliases() []string     { return []string{"signup"} }
func (c *RegisterCmd) Synopsis() string      { return "Create an account and log in" }
func (c *RegisterCmd) Requires() Requirement { return Backend }

func (c *RegisterCmd) Usage() string {
	return "todo register [--name <full name>] [--password <pw>] <email>"
}

func (c *RegisterCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.email, "email", "", "")
	fs.StringVar(&c.password, "password", "", "")
	fs.StringVar(&c.name, "name", "", "")
}

func (c *RegisterCmd) Run(ctx context.Context, cfg *config.Config, env *Env, args []string, out, errOut io.Writer) int {
	email, code := emailArg(c.email, args, errOut)
	if code != exitcode.Success {
		return code
	}

	password, err := readPassword(c.password, env.In, cfg.Quiet, errOut)
	if err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.UserError
	}

	if err := env.Session.Register(ctx, email, password, c.name); err != nil {
		// A taken email comes back as 400; that is the user's input, not a
		// credential problem.
		return report(errOut, env.Session.Err(), err)
	}
	env.Todos.Reset()

	if !cfg.Quiet {
		user, _ := env.Session.User()
		fmt.Fprint(out, "registered ")
		output.FormatUser(out, user)
	}
	return exitcode.Success
}
