package apiclient

import (
	"context"
	"net/http"
	"net/url"

	"todo/internal/service"
)

var _ service.Service = (*Client)(nil)

// Register creates an account.
func (c *Client) Register(ctx context.Context, reg service.Registration) (service.AuthResult, error) {
	var res service.AuthResult
	if err := c.do(ctx, http.MethodPost, "/users/create", reg, &res); err != nil {
		return service.AuthResult{}, err
	}
	return res, nil
}

// Login exchanges credentials for a token pair.
func (c *Client) Login(ctx context.Context, creds service.Credentials) (service.AuthResult, error) {
	var res service.AuthResult
	if err := c.do(ctx, http.MethodPost, "/auth/login", creds, &res); err != nil {
		return service.AuthResult{}, err
	}
	return res, nil
}

// Me returns the current user.
func (c *Client) Me(ctx context.Context) (service.User, error) {
	var user service.User
	if err := c.do(ctx, http.MethodGet, "/users/me", nil, &user); err != nil {
		return service.User{}, err
	}
	return user, nil
}

// UpdateMe applies a partial profile update.
func (c *Client) UpdateMe(ctx context.Context, patch service.UserPatch) (service.User, error) {
	var user service.User
	if err := c.do(ctx, http.MethodPost, "/users/update", patch, &user); err != nil {
		return service.User{}, err
	}
	return user, nil
}

// ListTasks returns all tasks in server order.
func (c *Client) ListTasks(ctx context.Context) ([]service.Task, error) {
	var tasks []service.Task
	if err := c.do(ctx, http.MethodGet, "/todo", nil, &tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}

// GetTask returns one task.
func (c *Client) GetTask(ctx context.Context, id string) (service.Task, error) {
	var task service.Task
	if err := c.do(ctx, http.MethodGet, taskPath(id), nil, &task); err != nil {
		return service.Task{}, err
	}
	return task, nil
}

// CreateTask creates a task.
func (c *Client) CreateTask(ctx context.Context, task service.NewTask) (service.Task, error) {
	var created service.Task
	if err := c.do(ctx, http.MethodPost, "/todo/create", task, &created); err != nil {
		return service.Task{}, err
	}
	return created, nil
}

// UpdateTask sends the patch and returns the server's full task.
func (c *Client) UpdateTask(ctx context.Context, id string, patch service.TaskPatch) (service.Task, error) {
	var updated service.Task
	if err := c.do(ctx, http.MethodPut, taskPath(id), patch, &updated); err != nil {
		return service.Task{}, err
	}
	return updated, nil
}

// DeleteTask deletes a task.
func (c *Client) DeleteTask(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, taskPath(id), nil, nil)
}

func taskPath(id string) string {
	return "/todo/" + url.PathEscape(id)
}
