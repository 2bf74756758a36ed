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
	"todo/internal/service"
	"todo/internal/todostore"
)

func init() {
	Register(&ListCmd{})
}

// ListCmd implements the list command.
// Handles both `todo` (no args) and `todo list [filters]`.
type ListCmd struct {
	search   string
	status   string
	priority string
}

func (c *ListCmd) Name() string      { return "list" }
func (c *ListCmd) Aliases() []string { return []string{"ls"} }
func (c *ListCmd) Synopsis() string  { return "List tasks" }
func (c *ListCmd) Usage() string {
	return "todo list [--search <text>] [--status all|active|completed] [--priority low|medium|high]"
}
func (c *ListCmd) Requires() Requirement { return Auth }

func (c *ListCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.search, "search", "", "")
	fs.StringVar(&c.search, "s", "", "")
	fs.StringVar(&c.status, "status", "", "")
	fs.StringVar(&c.priority, "priority", "", "")
	fs.StringVar(&c.priority, "p", "", "")
}

func (c *ListCmd) Run(ctx context.Context, cfg *config.Config, env *Env, args []string, out, errOut io.Writer) int {
	if len(args) > 0 {
		fmt.Fprintf(errOut, "error: unexpected argument: %s\n", args[0])
		return exitcode.UserError
	}

	filter, err := c.filter()
	if err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.UserError
	}

	all, code := fetchTodos(ctx, env, errOut)
	if code != exitcode.Success {
		return code
	}

	// Numbers always refer to the unfiltered listing so that they can be
	// passed to done, rm and friends.
	nums := make(map[string]int, len(all))
	for i, t := range all {
		nums[t.ID] = i + 1
	}

	shown := env.Todos.Filter(filter)
	if len(shown) == 0 {
		if !cfg.Quiet {
			fmt.Fprintln(out, "no tasks found")
		}
		return exitcode.Success
	}

	for _, task := range shown {
		output.FormatTask(out, nums[task.ID], task)
	}
	if !cfg.Quiet {
		output.FormatSummary(out, all)
	}
	return exitcode.Success
}

func (c *ListCmd) filter() (todostore.Filter, error) {
	f := todostore.Filter{Search: c.search}

	status, ok := todostore.ParseStatus(c.status)
	if !ok {
		return f, fmt.Errorf("invalid status: %s", c.status)
	}
	f.Status = status

	if strings.TrimSpace(c.priority) != "" {
		p, err := service.ParsePriority(c.priority)
		if err != nil {
			return f, err
		}
		f.Priority = p
	}
	return f, nil
}
