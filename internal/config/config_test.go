package config

import (
	"testing"
	"time"
)

func setBaseEnv(t *testing.T) {
	t.Helper()
	t.Setenv("AUTH_PUBLISHABLE_KEY", "pk_test_123")
	t.Setenv("DB_HOST", "localhost")
	t.Setenv("DB_USER", "bmw")
	t.Setenv("DB_NAME", "bmw_admin")
}

func TestLoadDefaults(t *testing.T) {
	setBaseEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if cfg.Catalog.BaseURL != "https://solidoro-backend-production.up.railway.app/api" {
		t.Errorf("Unexpected default base URL %s", cfg.Catalog.BaseURL)
	}
	if cfg.Catalog.Timeout != 0 {
		t.Errorf("Expected no upstream timeout by default, got %s", cfg.Catalog.Timeout)
	}
	if len(cfg.Auth.AllowedRoles) != 2 || cfg.Auth.AllowedRoles[0] != "admin" || cfg.Auth.AllowedRoles[1] != "builder" {
		t.Errorf("Expected admin and builder roles, got %v", cfg.Auth.AllowedRoles)
	}
	if cfg.Workspace.IdleTTL != 30*time.Minute {
		t.Errorf("Expected 30m idle TTL, got %s", cfg.Workspace.IdleTTL)
	}
}

func TestLoadTrimsBaseURL(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("CATALOG_API_BASE_URL", "http://localhost:4000/api//")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if cfg.Catalog.BaseURL != "http://localhost:4000/api" {
		t.Errorf("Expected trailing slashes trimmed, got %s", cfg.Catalog.BaseURL)
	}
}

func TestLoadRequiresPublishableKey(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("AUTH_PUBLISHABLE_KEY", "")

	if _, err := Load(); err == nil {
		t.Error("Expected error when AUTH_PUBLISHABLE_KEY is missing")
	}
}

func TestLoadRejectsBadDuration(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("WORKSPACE_IDLE_TTL", "soon")

	if _, err := Load(); err == nil {
		t.Error("Expected error for invalid duration")
	}
}

func TestLoadParsesRoleList(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("ADMIN_ROLES", " admin , ,owner ")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(cfg.Auth.AllowedRoles) != 2 || cfg.Auth.AllowedRoles[1] != "owner" {
		t.Errorf("Expected blanks dropped, got %v", cfg.Auth.AllowedRoles)
	}
}
