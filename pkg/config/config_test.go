package config

import (
	"os"
	"path/filepath"
	"testing"
)

// TestLoadServerConfig tests loading default config
func TestLoadServerConfig(t *testing.T) {
	cfg, err := LoadServerConfig("")
	if err != nil {
		t.Fatalf("Failed to load default config: %v", err)
	}
	if cfg == nil {
		t.Fatal("Config is nil")
	}
}

// TestServerConfigDefaults tests default values are set
func TestServerConfigDefaults(t *testing.T) {
	cfg, err := LoadServerConfig("")
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.Address == "" {
		t.Error("Address should not be empty")
	}
	if cfg.Database.Path == "" {
		t.Error("Database path should not be empty")
	}
	if cfg.Sessions.MaxPerUser < 1 {
		t.Error("Session quota should be positive")
	}
}

// TestServerConfigFromFile tests YAML loading
func TestServerConfigFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "server.yaml")
	data := []byte("address: \":9090\"\nsessions:\n  max_per_user: 5\n")
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := LoadServerConfig(path)
	if err != nil {
		t.Fatalf("LoadServerConfig: %v", err)
	}
	if cfg.Address != ":9090" {
		t.Errorf("Address = %q, want :9090", cfg.Address)
	}
	if cfg.Sessions.MaxPerUser != 5 {
		t.Errorf("MaxPerUser = %d, want 5", cfg.Sessions.MaxPerUser)
	}
	// Untouched fields keep defaults.
	if cfg.Database.Type != "sqlite" {
		t.Errorf("Database.Type = %q, want sqlite", cfg.Database.Type)
	}
}

// TestServerEnvOverrides tests environment variable overrides
func TestServerEnvOverrides(t *testing.T) {
	t.Setenv("SHAREADMIN_ADDR", ":7070")
	t.Setenv("SHAREADMIN_MAX_SESSIONS", "9")

	cfg, err := LoadServerConfig("")
	if err != nil {
		t.Fatalf("LoadServerConfig: %v", err)
	}
	if cfg.Address != ":7070" {
		t.Errorf("Address = %q, want :7070", cfg.Address)
	}
	if cfg.Sessions.MaxPerUser != 9 {
		t.Errorf("MaxPerUser = %d, want 9", cfg.Sessions.MaxPerUser)
	}
}

// TestServerConfigValidation tests rejection of invalid settings
func TestServerConfigValidation(t *testing.T) {
	cfg := DefaultServerConfig()
	cfg.Database.Type = "oracle"
	if err := cfg.Validate(); err == nil {
		t.Error("expected validation error for unsupported database type")
	}

	cfg = DefaultServerConfig()
	cfg.Sessions.MaxPerUser = 0
	if err := cfg.Validate(); err == nil {
		t.Error("expected validation error for zero session quota")
	}
}

// TestLoadClientConfig tests client defaults and overrides
func TestLoadClientConfig(t *testing.T) {
	t.Setenv("SHAREADMIN_SERVER_URL", "https://admin.example.com")

	cfg, err := LoadClientConfig("")
	if err != nil {
		t.Fatalf("LoadClientConfig: %v", err)
	}
	if cfg.ServerURL != "https://admin.example.com" {
		t.Errorf("ServerURL = %q", cfg.ServerURL)
	}
}

// TestClientConfigValidation tests rejection of empty server URL
func TestClientConfigValidation(t *testing.T) {
	cfg := &ClientConfig{}
	if err := cfg.Validate(); err == nil {
		t.Error("expected validation error for empty server URL")
	}
}
