package bot

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/bwmarrin/discordgo"

	"github.com/RalphORama/MCPerms/internal/claim"
)

// Slash command definitions
func (b *Bot) getCommandDefinitions() []*discordgo.ApplicationCommand {
	return []*discordgo.ApplicationCommand{
		{
			Name:        "claim",
			Description: "Claim a Minecraft account and receive your role-based permissions",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "username",
					Description: "The Minecraft username to claim",
					Required:    true,
				},
			},
		},
	}
}

// registerCommands registers all slash commands with Discord
func (b *Bot) registerCommands() error {
	slog.Info("Registering slash commands")

	commandDefinitions := b.getCommandDefinitions()
	registeredCommands := make([]*discordgo.ApplicationCommand, 0, len(commandDefinitions))

	for _, cmd := range commandDefinitions {
		registered, err := b.session.ApplicationCommandCreate(
			b.session.State.User.ID,
			"", // Empty string = global command
			cmd,
		)
		if err != nil {
			return fmt.Errorf("failed to register command %s: %w", cmd.Name, err)
		}
		registeredCommands = append(registeredCommands, registered)
		slog.Debug("Registered command", "name", cmd.Name)
	}

	b.commands = registeredCommands
	slog.Info("Slash commands registered", "count", len(registeredCommands))
	return nil
}

// removeCommands removes all registered slash commands
func (b *Bot) removeCommands() {
	for _, cmd := range b.commands {
		err := b.session.ApplicationCommandDelete(b.session.State.User.ID, "", cmd.ID)
		if err != nil {
			slog.Error("Failed to remove command", "name", cmd.Name, "error", err)
		}
	}
}

// handleClaim handles the /claim command
func (b *Bot) handleClaim(s *discordgo.Session, i *discordgo.InteractionCreate) {
	// Claims are tied to guild roles; nothing to grant from a DM.
	if i.Member == nil || i.Member.User == nil {
		respondWithMessage(s, i, "This command can only be used in a server.")
		return
	}

	username := i.ApplicationCommandData().Options[0].StringValue()

	// Respond immediately to avoid timeout; the claim makes several
	// outbound calls.
	s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
	})

	user := i.Member.User
	req := claim.Request{
		Requester: claim.Requester{
			ID:      user.ID,
			Label:   user.Username + "#" + user.Discriminator,
			Mention: user.Mention(),
			RoleIDs: i.Member.Roles,
		},
		Username: username,
		Members:  &guildMembers{session: s, guildID: i.GuildID},
	}

	// Per-call deadlines are the HTTP clients' own timeouts.
	reply, err := b.orchestrator.Claim(context.Background(), req)
	if err != nil {
		slog.Error("Claim failed", "user", user.ID, "username", username, "error", err)
		b.editResponse(s, i, "Something went wrong while processing your claim. Please try again later.")
		return
	}

	b.editResponse(s, i, reply)
}

// guildMembers answers "is this user still in the guild" for conflict
// replies, preferring the session state cache over a REST lookup.
type guildMembers struct {
	session *discordgo.Session
	guildID string
}

func (g *guildMembers) IsMember(userID string) bool {
	if member, err := g.session.State.Member(g.guildID, userID); err == nil && member != nil {
		return true
	}
	member, err := g.session.GuildMember(g.guildID, userID)
	return err == nil && member != nil
}

// Helper functions

func respondWithMessage(s *discordgo.Session, i *discordgo.InteractionCreate, content string) {
	s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: content,
		},
	})
}

func (b *Bot) editResponse(s *discordgo.Session, i *discordgo.InteractionCreate, content string) {
	s.InteractionResponseEdit(i.Interaction, &discordgo.WebhookEdit{
		Content: &content,
	})
}
