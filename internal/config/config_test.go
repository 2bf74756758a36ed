package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"todo/internal/config"
)

func writeConfig(t *testing.T, dir, body string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, config.ConfigFile), []byte(body), 0600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
}

// unsetenv removes key for the duration of the test.
func unsetenv(t *testing.T, key string) {
	t.Helper()
	t.Setenv(key, "")
	os.Unsetenv(key)
}

func TestLoad_Defaults(t *testing.T) {
	unsetenv(t, "TODO_API_URL")
	unsetenv(t, "TODO_API_TIMEOUT")

	dir := t.TempDir()
	cfg, err := config.Load(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Dir != dir {
		t.Errorf("expected dir %q, got %q", dir, cfg.Dir)
	}
	if cfg.APIURL != config.DefaultAPIURL {
		t.Errorf("expected default api url, got %q", cfg.APIURL)
	}
	if cfg.Timeout != config.DefaultTimeout {
		t.Errorf("expected default timeout, got %s", cfg.Timeout)
	}
	if cfg.SessionPath() != filepath.Join(dir, "session.db") {
		t.Errorf("unexpected session path %q", cfg.SessionPath())
	}
}

func TestLoad_File(t *testing.T) {
	unsetenv(t, "TODO_API_URL")
	unsetenv(t, "TODO_API_TIMEOUT")

	dir := t.TempDir()
	writeConfig(t, dir, "api_url: https://todo.example.com/api/v1\ntimeout: 5s\n")

	cfg, err := config.Load(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.APIURL != "https://todo.example.com/api/v1" {
		t.Errorf("expected api url from file, got %q", cfg.APIURL)
	}
	if cfg.Timeout != 5*time.Second {
		t.Errorf("expected 5s, got %s", cfg.Timeout)
	}
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "api_url: https://file.example.com\ntimeout: 5s\n")
	t.Setenv("TODO_API_URL", "https://env.example.com")
	t.Setenv("TODO_API_TIMEOUT", "2s")

	cfg, err := config.Load(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.APIURL != "https://env.example.com" {
		t.Errorf("expected env api url, got %q", cfg.APIURL)
	}
	if cfg.Timeout != 2*time.Second {
		t.Errorf("expected 2s, got %s", cfg.Timeout)
	}
}

func TestLoad_Invalid(t *testing.T) {
	unsetenv(t, "TODO_API_TIMEOUT")

	tests := []struct {
		name string
		file string
		url  string
	}{
		{"bad yaml", "api_url: [", ""},
		{"bad scheme", "", "ftp://example.com"},
		{"negative timeout", "timeout: -1s\n", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			if tt.file != "" {
				writeConfig(t, dir, tt.file)
			}
			if tt.url != "" {
				t.Setenv("TODO_API_URL", tt.url)
			} else {
				unsetenv(t, "TODO_API_URL")
			}
			if _, err := config.Load(dir); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestDefaultConfigDir_XDG(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg")
	if got := config.DefaultConfigDir(); got != filepath.Join("/tmp/xdg", "todo") {
		t.Errorf("unexpected dir %q", got)
	}
	if got := config.New("").Dir; got != filepath.Join("/tmp/xdg", "todo") {
		t.Errorf("New should fall back to the XDG dir, got %q", got)
	}
}

func TestEnsureDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "todo")
	cfg := config.New(dir)
	if err := cfg.EnsureDir(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	info, err := os.Stat(dir)
	if err != nil {
		t.Fatalf("dir not created: %v", err)
	}
	if info.Mode().Perm() != 0700 {
		t.Errorf("expected mode 0700, got %o", info.Mode().Perm())
	}
}
