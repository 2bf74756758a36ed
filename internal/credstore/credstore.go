// Package credstore persists the session token pair.
//
// The pair lives under two fixed keys, access_token and refresh_token, and is
// always written and removed as a unit. Bolt keeps it in a file inside the
// config directory; Memory is for tests and short-lived clients.
package credstore

import (
	"context"
	"errors"
	"sync"

	"todo/internal/service"
)

const (
	// AccessTokenKey is the storage key of the access token.
	AccessTokenKey = "access_token"

	// RefreshTokenKey is the storage key of the refresh token.
	RefreshTokenKey = "refresh_token"
)

// ErrAccessTokenRequired is returned by Save for a pair without an access token.
var ErrAccessTokenRequired = errors.New("access token is required")

// Store holds the current token pair.
type Store interface {
	// Load returns the stored pair. A missing pair is not an error; it
	// comes back with empty fields.
	Load(ctx context.Context) (service.TokenPair, error)

	// Save replaces both tokens. The access token must be set.
	Save(ctx context.Context, pair service.TokenPair) error

	// Clear removes both tokens.
	Clear(ctx context.Context) error
}

// Memory is an in-memory Store.
type Memory struct {
	mu   sync.RWMutex
	pair service.TokenPair
}

// NewMemory returns a Memory store seeded with pair.
func NewMemory(pair service.TokenPair) *Memory {
	return &Memory{pair: pair}
}

func (m *Memory) Load(ctx context.Context) (service.TokenPair, error) {
	if err := ctx.Err(); err != nil {
		return service.TokenPair{}, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.pair, nil
}

func (m *Memory) Save(ctx context.Context, pair service.TokenPair) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if pair.AccessToken == "" {
		return ErrAccessTokenRequired
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pair = pair
	return nil
}

func (m *Memory) Clear(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pair = service.TokenPair{}
	return nil
}
