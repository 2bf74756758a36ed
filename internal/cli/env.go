package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"todo/internal/apiclient"
	"todo/internal/commands"
	"todo/internal/config"
	"todo/internal/credstore"
	"todo/internal/session"
	"todo/internal/todostore"
)

// BackendEnv returns the production EnvFactory: tokens in the config
// directory's session.db, calls to cfg.APIURL. Passwords are read from in.
func BackendEnv(in io.Reader) EnvFactory {
	return func(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*commands.Env, func(), error) {
		if err := cfg.EnsureDir(); err != nil {
			return nil, nil, fmt.Errorf("failed to create config directory: %w", err)
		}

		store, err := credstore.OpenBolt(cfg.SessionPath())
		if err != nil {
			return nil, nil, err
		}
		cleanup := func() {
			if err := store.Close(); err != nil {
				logger.Warn("close session store", "error", err)
			}
		}

		client, err := apiclient.New(cfg.APIURL, store,
			apiclient.WithTimeout(cfg.Timeout),
			apiclient.WithLogger(logger),
		)
		if err != nil {
			cleanup()
			return nil, nil, err
		}

		mgr := session.New(client, store, session.WithLogger(logger))
		todos := todostore.New(client, logger)
		client.OnSessionExpired(func() {
			mgr.Expire()
			todos.Reset()
		})

		return &commands.Env{Session: mgr, Todos: todos, In: in}, cleanup, nil
	}
}
