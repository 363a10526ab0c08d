package config

import (
	"strings"
	"testing"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("DISCORD_BOT_TOKEN", "token")
	t.Setenv("PANEL_BASE_URL", "https://panel.example.com/api")
	t.Setenv("PANEL_PUBLIC_KEY", "pub")
	t.Setenv("PANEL_PRIVATE_KEY", "priv")
	t.Setenv("PANEL_SERVER_ID", "a8f39zb7")
}

func TestLoadDefaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.LedgerBackend != "csv" {
		t.Errorf("LedgerBackend = %q, want csv", cfg.LedgerBackend)
	}
	if cfg.LedgerPath != "./data/claimed.csv" {
		t.Errorf("LedgerPath = %q", cfg.LedgerPath)
	}
	if cfg.RolesPath != "./cfg/roles.json" {
		t.Errorf("RolesPath = %q", cfg.RolesPath)
	}
	if cfg.PanelTimeoutSeconds != 500 {
		t.Errorf("PanelTimeoutSeconds = %d, want 500", cfg.PanelTimeoutSeconds)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("LogLevel = %q, want info", cfg.LogLevel)
	}
}

func TestLoadSQLiteBackend(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("LEDGER_BACKEND", "sqlite")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.LedgerPath != "./data/claims.db" {
		t.Errorf("LedgerPath = %q, want ./data/claims.db", cfg.LedgerPath)
	}
}

func TestLoadInvalidBackend(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("LEDGER_BACKEND", "postgres")

	if _, err := Load(); err == nil {
		t.Fatal("expected error for unknown backend")
	}
}

func TestLoadInvalidTimeout(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("PANEL_TIMEOUT_SECONDS", "soon")

	_, err := Load()
	if err == nil || !strings.Contains(err.Error(), "PANEL_TIMEOUT_SECONDS") {
		t.Fatalf("expected timeout parse error, got %v", err)
	}
}

func TestLoadMissingRequired(t *testing.T) {
	keys := []string{
		"DISCORD_BOT_TOKEN",
		"PANEL_BASE_URL",
		"PANEL_PUBLIC_KEY",
		"PANEL_PRIVATE_KEY",
		"PANEL_SERVER_ID",
	}
	for _, key := range keys {
		t.Run(key, func(t *testing.T) {
			setRequiredEnv(t)
			t.Setenv(key, "")

			_, err := Load()
			if err == nil || !strings.Contains(err.Error(), key) {
				t.Fatalf("expected error naming %s, got %v", key, err)
			}
		})
	}
}
