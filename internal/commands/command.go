// Package commands provides the command interface and implementations.
package commands

import (
	"context"
	"flag"
	"io"

	"todo/internal/config"
	"todo/internal/session"
	"todo/internal/todostore"
)

// Requirement is what a command needs before it can run.
type Requirement int

const (
	// Offline commands get no Env.
	Offline Requirement = iota

	// Backend commands get an Env but may run without a session.
	Backend

	// Auth commands only run after the stored session has been verified.
	Auth
)

// Env carries the per-process state a command works on.
type Env struct {
	Session *session.Manager
	Todos   *todostore.Store

	// In supplies a password when neither --password nor TODO_PASSWORD does.
	In io.Reader
}

// Command defines the interface for CLI commands.
type Command interface {
	// Name returns the primary command name.
	Name() string

	// Aliases returns alternative names for the command.
	Aliases() []string

	// Synopsis returns a short description for help output.
	Synopsis() string

	// Usage returns the usage string for help output.
	Usage() string

	// Requires reports what the dispatcher must set up before Run.
	Requires() Requirement

	// RegisterFlags registers command-specific flags.
	RegisterFlags(fs *flag.FlagSet)

	// Run executes the command.
	// cfg is always provided. env is nil for Offline commands.
	// args contains positional arguments after flag parsing.
	// Returns exit code.
	Run(ctx context.Context, cfg *config.Config, env *Env, args []string, out, errOut io.Writer) int
}
