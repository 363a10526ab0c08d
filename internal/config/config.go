package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds all configuration values for the bot
type Config struct {
	// Discord
	DiscordToken string

	// Pterodactyl panel
	PanelBaseURL        string
	PanelPublicKey      string
	PanelPrivateKey     string
	PanelServerID       string
	PanelTimeoutSeconds int

	// Claim ledger
	LedgerBackend string // "csv" or "sqlite"
	LedgerPath    string

	// Role -> permission group table
	RolesPath string

	// Logging
	LogLevel string
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists (ignore error if not found)
	_ = godotenv.Load()

	cfg := &Config{
		DiscordToken:    os.Getenv("DISCORD_BOT_TOKEN"),
		PanelBaseURL:    os.Getenv("PANEL_BASE_URL"),
		PanelPublicKey:  os.Getenv("PANEL_PUBLIC_KEY"),
		PanelPrivateKey: os.Getenv("PANEL_PRIVATE_KEY"),
		PanelServerID:   os.Getenv("PANEL_SERVER_ID"),
		LedgerBackend:   getEnvOrDefault("LEDGER_BACKEND", "csv"),
		RolesPath:       getEnvOrDefault("ROLES_PATH", "./cfg/roles.json"),
		LogLevel:        getEnvOrDefault("LOG_LEVEL", "info"),
	}

	// The panel can be slow to relay console commands, so the default
	// timeout is deliberately generous.
	timeoutStr := getEnvOrDefault("PANEL_TIMEOUT_SECONDS", "500")
	timeout, err := strconv.Atoi(timeoutStr)
	if err != nil {
		return nil, fmt.Errorf("invalid PANEL_TIMEOUT_SECONDS: %w", err)
	}
	cfg.PanelTimeoutSeconds = timeout

	switch cfg.LedgerBackend {
	case "csv":
		cfg.LedgerPath = getEnvOrDefault("LEDGER_PATH", "./data/claimed.csv")
	case "sqlite":
		cfg.LedgerPath = getEnvOrDefault("LEDGER_PATH", "./data/claims.db")
	default:
		return nil, fmt.Errorf("invalid LEDGER_BACKEND %q (want csv or sqlite)", cfg.LedgerBackend)
	}

	// Validate required fields
	if cfg.DiscordToken == "" {
		return nil, fmt.Errorf("DISCORD_BOT_TOKEN is required")
	}
	if cfg.PanelBaseURL == "" {
		return nil, fmt.Errorf("PANEL_BASE_URL is required")
	}
	if cfg.PanelPublicKey == "" {
		return nil, fmt.Errorf("PANEL_PUBLIC_KEY is required")
	}
	if cfg.PanelPrivateKey == "" {
		return nil, fmt.Errorf("PANEL_PRIVATE_KEY is required")
	}
	if cfg.PanelServerID == "" {
		return nil, fmt.Errorf("PANEL_SERVER_ID is required")
	}

	return cfg, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
