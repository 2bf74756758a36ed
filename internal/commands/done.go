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
	Register(&DoneCmd{})
	Register(&UndoCmd{})
}

// DoneCmd implements the done command.
type DoneCmd struct{}

func (c *DoneCmd) Name() string          { return "done" }
func (c *DoneCmd) Aliases() []string     { return nil }
func (c *DoneCmd) Synopsis() string      { return "Mark a task completed" }
func (c *DoneCmd) Usage() string         { return "todo done <ref>" }
func (c *DoneCmd) Requires() Requirement { return Auth }

func (c *DoneCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *DoneCmd) Run(ctx context.Context, cfg *config.Config, env *Env, args []string, out, errOut io.Writer) int {
	return setCompleted(ctx, cfg, env, args, true, out, errOut)
}

// UndoCmd marks a completed task active again.
type UndoCmd struct{}

func (c *UndoCmd) Name() string          { return "undo" }
func (c *UndoCmd) Aliases() []string     { return []string{"reopen"} }
func (c *UndoCmd) Synopsis() string      { return "Mark a task active" }
func (c *UndoCmd) Usage() string         { return "todo undo <ref>" }
func (c *UndoCmd) Requires() Requirement { return Auth }

func (c *UndoCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *UndoCmd) Run(ctx context.Context, cfg *config.Config, env *Env, args []string, out, errOut io.Writer) int {
	return setCompleted(ctx, cfg, env, args, false, out, errOut)
}

// setCompleted is the shared implementation for done and undo. Only the
// completed flag is sent.
func setCompleted(ctx context.Context, cfg *config.Config, env *Env, args []string, completed bool, out, errOut io.Writer) int {
	task, code := lookupTask(ctx, env, args, errOut)
	if code != exitcode.Success {
		return code
	}

	if _, err := env.Todos.Update(ctx, task.ID, service.TaskPatch{Completed: &completed}); err != nil {
		return report(errOut, env.Todos.Err(), err)
	}

	if !cfg.Quiet {
		fmt.Fprintln(out, "ok")
	}
	return exitcode.Success
}
