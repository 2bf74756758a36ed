package commands

import (
	"context"
	"fmt"
	"io"

	"todo/internal/exitcode"
	"todo/internal/service"
	"todo/internal/todostore"
)

// fetchTodos loads the task list into env.Todos. On failure it prints the
// recorded message and returns a non-zero exit code.
func fetchTodos(ctx context.Context, env *Env, errOut io.Writer) ([]service.Task, int) {
	env.Todos.Fetch(ctx)
	if env.Todos.State() == todostore.Failed {
		fmt.Fprintf(errOut, "error: %s\n", env.Todos.Err())
		// A failed refresh during the fetch fires the expiry hook.
		if !env.Session.IsAuthenticated() {
			return nil, exitcode.AuthError
		}
		return nil, exitcode.BackendError
	}
	return env.Todos.Todos(), exitcode.Success
}

// lookupTask resolves the task reference in args against a fresh listing.
func lookupTask(ctx context.Context, env *Env, args []string, errOut io.Writer) (service.Task, int) {
	ref, err := ParseTaskRef(args)
	if err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return service.Task{}, exitcode.UserError
	}

	tasks, code := fetchTodos(ctx, env, errOut)
	if code != exitcode.Success {
		return service.Task{}, code
	}

	task, err := ref.Resolve(tasks)
	if err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return service.Task{}, exitcode.UserError
	}
	return task, exitcode.Success
}
