package commands

import (
	"context"
	"flag"
	"io"

	"todo/internal/config"
	"todo/internal/exitcode"
	"todo/internal/output"
)

func init() {
	Register(&ShowCmd{})
}

// ShowCmd prints every field of one task.
type ShowCmd struct{}

func (c *ShowCmd) Name() string          { return "show" }
func (c *ShowCmd) Aliases() []string     { return nil }
func (c *ShowCmd) Synopsis() string      { return "Show a task" }
func (c *ShowCmd) Usage() string         { return "todo show <ref>" }
func (c *ShowCmd) Requires() Requirement { return Auth }

func (c *ShowCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *ShowCmd) Run(ctx context.Context, cfg *config.Config, env *Env, args []string, out, errOut io.Writer) int {
	task, code := lookupTask(ctx, env, args, errOut)
	if code != exitcode.Success {
		return code
	}

	// Re-read the single record so the detail view is current.
	task, err := env.Todos.Get(ctx, task.ID)
	if err != nil {
		return report(errOut, env.Todos.Err(), err)
	}

	output.FormatTaskDetail(out, task)
	return exitcode.Success
}
