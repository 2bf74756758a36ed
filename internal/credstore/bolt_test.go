package credstore

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"todo/internal/service"
)

func TestBoltSaveLoadClear(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.db")
	store, err := OpenBolt(path)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer store.Close()

	ctx := context.Background()
	pair, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("load empty: %v", err)
	}
	if pair != (service.TokenPair{}) {
		t.Fatalf("expected empty pair, got %+v", pair)
	}

	want := service.TokenPair{AccessToken: "access-1", RefreshToken: "refresh-1"}
	if err := store.Save(ctx, want); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got != want {
		t.Fatalf("expected %+v, got %+v", want, got)
	}

	if err := store.Clear(ctx); err != nil {
		t.Fatalf("clear: %v", err)
	}
	got, err = store.Load(ctx)
	if err != nil {
		t.Fatalf("load after clear: %v", err)
	}
	if got != (service.TokenPair{}) {
		t.Fatalf("expected empty pair after clear, got %+v", got)
	}
}

func TestBoltPersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.db")
	store, err := OpenBolt(path)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}

	want := service.TokenPair{AccessToken: "a", RefreshToken: "r"}
	if err := store.Save(context.Background(), want); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	reopened, err := OpenBolt(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()

	got, err := reopened.Load(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got != want {
		t.Fatalf("expected %+v, got %+v", want, got)
	}
}

func TestBoltSaveRequiresAccessToken(t *testing.T) {
	store, err := OpenBolt(filepath.Join(t.TempDir(), "session.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer store.Close()

	if err := store.Save(context.Background(), service.TokenPair{RefreshToken: "r"}); !errors.Is(err, ErrAccessTokenRequired) {
		t.Fatalf("expected ErrAccessTokenRequired, got %v", err)
	}
}

func TestMemorySaveRequiresAccessToken(t *testing.T) {
	want := service.TokenPair{AccessToken: "a", RefreshToken: "r"}
	store := NewMemory(want)

	if err := store.Save(context.Background(), service.TokenPair{RefreshToken: "r2"}); !errors.Is(err, ErrAccessTokenRequired) {
		t.Fatalf("expected ErrAccessTokenRequired, got %v", err)
	}
	got, err := store.Load(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got != want {
		t.Fatalf("rejected save changed the pair: %+v", got)
	}
}

func TestOpenBoltRequiresPath(t *testing.T) {
	if _, err := OpenBolt("  "); err == nil {
		t.Fatal("expected error for empty path")
	}
}

func TestMemoryHonorsCancelledContext(t *testing.T) {
	store := NewMemory(service.TokenPair{AccessToken: "a"})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := store.Load(ctx); err == nil {
		t.Fatal("expected error for cancelled context")
	}
}
