package config

import (
	"os"
	"testing"
	"time"
)

func TestLoad_Success(t *testing.T) {
	setMinimalEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned unexpected error: %v", err)
	}

	if cfg.App.Env != "production" {
		t.Fatalf("expected App.Env to be production, got %q", cfg.App.Env)
	}
	if cfg.App.Port != "8080" {
		t.Fatalf("expected default port 8080, got %q", cfg.App.Port)
	}
	if cfg.Store.BaseURL != "https://records.example.com/api" {
		t.Fatalf("expected trailing slash trimmed, got %q", cfg.Store.BaseURL)
	}
	if got := cfg.Store.Timeout; got != 15*time.Second {
		t.Fatalf("expected store timeout 15s, got %v", got)
	}
	if got := cfg.Drafts.TTL; got != 12*time.Hour {
		t.Fatalf("expected draft ttl 12h, got %v", got)
	}
	if cfg.Redis.Enabled() {
		t.Fatalf("redis should be disabled without url or address")
	}
	if !cfg.Connectivity.Probe {
		t.Fatalf("connectivity probe should default to enabled")
	}
}

func TestLoad_Overrides(t *testing.T) {
	setMinimalEnv(t)
	t.Setenv(EnvRedisURL, "redis://localhost:6379/0")
	t.Setenv(EnvDraftTTL, "30m")
	t.Setenv(EnvCatalogSearchRPS, "2.5")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned unexpected error: %v", err)
	}
	if !cfg.Redis.Enabled() {
		t.Fatalf("redis should be enabled when url is set")
	}
	if cfg.Drafts.TTL != 30*time.Minute {
		t.Fatalf("unexpected draft ttl %v", cfg.Drafts.TTL)
	}
	if cfg.Catalog.SearchRPS != 2.5 {
		t.Fatalf("unexpected search rps %v", cfg.Catalog.SearchRPS)
	}
}

func TestLoad_MissingRequired(t *testing.T) {
	setMinimalEnv(t)
	if err := os.Unsetenv(EnvAppEnv); err != nil {
		t.Fatalf("failed to unset %s: %v", EnvAppEnv, err)
	}

	if _, err := Load(); err == nil {
		t.Fatal("expected missing required env to return an error")
	}
}

func TestLoad_RejectsNonHTTPStoreURL(t *testing.T) {
	setMinimalEnv(t)
	t.Setenv(EnvStoreBaseURL, "ftp://records.example.com")

	if _, err := Load(); err == nil {
		t.Fatal("expected non-http store url to be rejected")
	}
}

func setMinimalEnv(t *testing.T) {
	t.Helper()

	t.Setenv(EnvAppEnv, "production")
	t.Setenv(EnvStoreBaseURL, "https://records.example.com/api/")
}
