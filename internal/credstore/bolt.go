package credstore

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"go.etcd.io/bbolt"

	"todo/internal/service"
)

const sessionBucket = "session"

// Bolt is a BoltDB-backed Store.
type Bolt struct {
	db *bbolt.DB
}

// OpenBolt opens (or creates) the token database at path with mode 0600.
func OpenBolt(path string) (*Bolt, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("session store path is required")
	}

	db, err := bbolt.Open(filepath.Clean(path), 0o600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open session store: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists([]byte(sessionBucket)); err != nil {
			return fmt.Errorf("create session bucket: %w", err)
		}
		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Bolt{db: db}, nil
}

// Close closes the underlying database.
func (b *Bolt) Close() error {
	if b == nil || b.db == nil {
		return nil
	}
	return b.db.Close()
}

func (b *Bolt) Load(ctx context.Context) (service.TokenPair, error) {
	if err := ctx.Err(); err != nil {
		return service.TokenPair{}, err
	}

	var pair service.TokenPair
	err := b.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(sessionBucket))
		if bucket == nil {
			return fmt.Errorf("session bucket is missing")
		}
		pair.AccessToken = string(bucket.Get([]byte(AccessTokenKey)))
		pair.RefreshToken = string(bucket.Get([]byte(RefreshTokenKey)))
		return nil
	})
	if err != nil {
		return service.TokenPair{}, err
	}
	return pair, nil
}

func (b *Bolt) Save(ctx context.Context, pair service.TokenPair) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if pair.AccessToken == "" {
		return ErrAccessTokenRequired
	}

	return b.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(sessionBucket))
		if bucket == nil {
			return fmt.Errorf("session bucket is missing")
		}
		if err := bucket.Put([]byte(AccessTokenKey), []byte(pair.AccessToken)); err != nil {
			return fmt.Errorf("put access token: %w", err)
		}
		if pair.RefreshToken == "" {
			return bucket.Delete([]byte(RefreshTokenKey))
		}
		if err := bucket.Put([]byte(RefreshTokenKey), []byte(pair.RefreshToken)); err != nil {
			return fmt.Errorf("put refresh token: %w", err)
		}
		return nil
	})
}

func (b *Bolt) Clear(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return b.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(sessionBucket))
		if bucket == nil {
			return nil
		}
		if err := bucket.Delete([]byte(AccessTokenKey)); err != nil {
			return err
		}
		return bucket.Delete([]byte(RefreshTokenKey))
	})
}
