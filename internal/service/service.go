// Package service defines the backend-agnostic types and interface for the to-do API.
package service

import "context"

// TokenPair is the access/refresh credential pair issued by the backend.
// Both values are always stored and cleared together.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// Empty reports whether no access token is held.
func (p TokenPair) Empty() bool {
	return p.AccessToken == ""
}

// Service defines the REST operations of the to-do backend.
// Stores never talk HTTP directly; they go through this interface.
type Service interface {
	// Register creates an account and returns its first token pair.
	Register(ctx context.Context, reg Registration) (AuthResult, error)

	// Login exchanges credentials for a token pair.
	Login(ctx context.Context, creds Credentials) (AuthResult, error)

	// Me returns the user owning the current access token.
	Me(ctx context.Context) (User, error)

	// UpdateMe applies a partial profile update.
	UpdateMe(ctx context.Context, patch UserPatch) (User, error)

	// ListTasks returns all tasks in server order.
	ListTasks(ctx context.Context) ([]Task, error)

	// GetTask returns one task by ID.
	GetTask(ctx context.Context, id string) (Task, error)

	// CreateTask creates a task and returns the stored representation.
	CreateTask(ctx context.Context, task NewTask) (Task, error)

	// UpdateTask sends only the patch fields and returns the full task.
	UpdateTask(ctx context.Context, id string, patch TaskPatch) (Task, error)

	// DeleteTask deletes a task.
	DeleteTask(ctx context.Context, id string) error
}
