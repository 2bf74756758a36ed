package commands

import (
	"context"
	"flag"
	"fmt"
	"io"

	"todo/internal/config"
	"todo/internal/exitcode"
	"todo/internal/service"
)

func init() {
	Register(&EditCmd{})
}

// optString is a string flag that remembers whether it was given, so that
// --description "" can clear a field.
type optString struct {
	set   bool
	value string
}

func (o *optString) String() string { return o.value }

func (o *optString) Set(s string) error {
	o.set = true
	o.value = s
	return nil
}

// EditCmd changes the title, description or priority of a task.
type EditCmd struct {
	title       optString
	description optString
	priority    optString
}

func (c *EditCmd) Name() string      { return "edit" }
func (c *EditCmd) Aliases() []string { return nil }
func (c *EditCmd) Synopsis() string  { return "Edit a task" }
func (c *EditCmd) Usage() string {
	return "todo edit [--title <text>] [--description <text>] [--priority low|medium|high] <ref>"
}
func (c *EditCmd) Requires() Requirement { return Auth }

func (c *EditCmd) RegisterFlags(fs *flag.FlagSet) {
	c.title, c.description, c.priority = optString{}, optString{}, optString{}
	fs.Var(&c.title, "title", "")
	fs.Var(&c.title, "t", "")
	fs.Var(&c.description, "description", "")
	fs.Var(&c.description, "d", "")
	fs.Var(&c.priority, "priority", "")
	fs.Var(&c.priority, "p", "")
}

func (c *EditCmd) Run(ctx context.Context, cfg *config.Config, env *Env, args []string, out, errOut io.Writer) int {
	var patch service.TaskPatch
	if c.title.set {
		patch.Title = &c.title.value
	}
	if c.description.set {
		patch.Description = &c.description.value
	}
	if c.priority.set {
		p, err := service.ParsePriority(c.priority.value)
		if err != nil {
			fmt.Fprintf(errOut, "error: %v\n", err)
			return exitcode.UserError
		}
		patch.Priority = &p
	}
	if patch.Empty() {
		fmt.Fprintln(errOut, "error: nothing to change (use --title, --description or --priority)")
		return exitcode.UserError
	}

	task, code := lookupTask(ctx, env, args, errOut)
	if code != exitcode.Success {
		return code
	}

	if _, err := env.Todos.Update(ctx, task.ID, patch); err != nil {
		return report(errOut, env.Todos.Err(), err)
	}

	if !cfg.Quiet {
		fmt.Fprintln(out, "ok")
	}
	return exitcode.Success
}
