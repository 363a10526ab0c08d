package bot

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/RalphORama/MCPerms/internal/claim"
	"github.com/RalphORama/MCPerms/internal/config"
	"github.com/RalphORama/MCPerms/internal/ledger"
	"github.com/RalphORama/MCPerms/internal/mojang"
	"github.com/RalphORama/MCPerms/internal/pterodactyl"
	"github.com/RalphORama/MCPerms/internal/roles"
)

// Bot represents the Discord bot instance
type Bot struct {
	config       *config.Config
	session      *discordgo.Session
	ledger       ledger.Ledger
	panel        *pterodactyl.Client
	orchestrator *claim.Orchestrator
	commands     []*discordgo.ApplicationCommand
}

// New creates a new Bot instance
func New(cfg *config.Config) (*Bot, error) {
	// Create Discord session
	session, err := discordgo.New("Bot " + cfg.DiscordToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create Discord session: %w", err)
	}

	// Set intents
	session.Identify.Intents = discordgo.IntentsGuilds

	// Initialize the claim ledger
	var lgr ledger.Ledger
	switch cfg.LedgerBackend {
	case "sqlite":
		lgr, err = ledger.NewSQLiteLedger(cfg.LedgerPath)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize claim ledger: %w", err)
		}
	default:
		lgr = ledger.NewCSVLedger(cfg.LedgerPath)
	}

	// Load the role -> permission group table
	mapping, err := roles.LoadFile(cfg.RolesPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load role table: %w", err)
	}
	slog.Info("Loaded roles", "count", mapping.Len())

	panel := pterodactyl.NewClient(
		cfg.PanelPublicKey,
		cfg.PanelPrivateKey,
		cfg.PanelBaseURL,
		time.Duration(cfg.PanelTimeoutSeconds)*time.Second,
	)

	b := &Bot{
		config:  cfg,
		session: session,
		ledger:  lgr,
		panel:   panel,
		orchestrator: claim.NewOrchestrator(
			lgr,
			mojang.NewClient(),
			panel,
			mapping,
			cfg.PanelServerID,
		),
	}

	// Register command handlers
	b.registerHandlers()

	return b, nil
}

// Start opens the Discord connection and registers commands
func (b *Bot) Start(ctx context.Context) error {
	// Open Discord connection
	if err := b.session.Open(); err != nil {
		return fmt.Errorf("failed to open Discord connection: %w", err)
	}

	slog.Info("Connected to Discord", "user", b.session.State.User.Username)
	slog.Info("Invite me to your server",
		"url", fmt.Sprintf("https://discordapp.com/oauth2/authorize?client_id=%s&scope=bot&permissions=67584", b.session.State.User.ID))

	// Register slash commands
	if err := b.registerCommands(); err != nil {
		return fmt.Errorf("failed to register commands: %w", err)
	}

	// Confirm panel connectivity; a misconfigured keypair or server ID
	// should show up in the logs at startup, not on the first claim.
	b.checkPanel(ctx)

	return nil
}

// checkPanel lists the servers visible to the configured keypair and warns
// if the target server is not among them.
func (b *Bot) checkPanel(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	servers, err := b.panel.ListServers(ctx)
	if err != nil {
		slog.Warn("Panel connectivity check failed", "error", err)
		return
	}

	for _, srv := range servers {
		if srv.ID == b.config.PanelServerID {
			slog.Info("Panel reachable", "server", srv.ID, "name", srv.Name)
			return
		}
	}
	slog.Warn("Configured server not visible to the panel keypair",
		"server", b.config.PanelServerID, "visible", len(servers))
}

// Stop gracefully shuts down the bot
func (b *Bot) Stop() error {
	// Remove registered commands (optional - comment out to keep commands)
	// b.removeCommands()

	// Close the ledger if the backend holds resources
	if closer, ok := b.ledger.(io.Closer); ok {
		if err := closer.Close(); err != nil {
			slog.Error("Failed to close claim ledger", "error", err)
		}
	}

	// Close Discord session
	if b.session != nil {
		return b.session.Close()
	}

	return nil
}

// registerHandlers sets up Discord event handlers
func (b *Bot) registerHandlers() {
	b.session.AddHandler(b.handleInteraction)
	b.session.AddHandler(func(s *discordgo.Session, r *discordgo.Ready) {
		slog.Info("Bot is ready", "guilds", len(r.Guilds))
	})
}

// handleInteraction processes slash command interactions
func (b *Bot) handleInteraction(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.Type != discordgo.InteractionApplicationCommand {
		return
	}

	data := i.ApplicationCommandData()
	slog.Debug("Received command", "command", data.Name, "guild", i.GuildID)

	switch data.Name {
	case "claim":
		b.handleClaim(s, i)
	default:
		slog.Warn("Unknown command", "command", data.Name)
	}
}
