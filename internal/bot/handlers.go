package bot

import (
	"context"

	"honeypot-bot/internal/discord"
	"honeypot-bot/internal/modules/honeypot"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

// responder is the slice of the session used to answer interactions.
type responder interface {
	InteractionRespond(interaction *discordgo.Interaction, resp *discordgo.InteractionResponse, options ...discordgo.RequestOption) error
	InteractionResponseEdit(interaction *discordgo.Interaction, newresp *discordgo.WebhookEdit, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

var _ responder = (*discordgo.Session)(nil)

func (b *Bot) onInteractionCreate(session *discordgo.Session, interaction *discordgo.InteractionCreate) {
	defer b.recoverHandler("interaction_create")
	if interaction.Type != discordgo.InteractionApplicationCommand {
		return
	}
	if interaction.ApplicationCommandData().Name != honeypot.ChannelName {
		return
	}

	b.deferred(session, interaction, func() string {
		b.waitRestored()
		return b.honeypot.HandleCommand(context.Background(), invocation(interaction, b.client.SelfID()))
	})
}

func invocation(interaction *discordgo.InteractionCreate, selfID string) honeypot.Invocation {
	inv := honeypot.Invocation{
		GuildID: interaction.GuildID,
		SelfID:  selfID,
		Admin:   discord.IsAdmin(interaction),
	}
	switch {
	case interaction.Member != nil && interaction.Member.User != nil:
		inv.UserID = interaction.Member.User.ID
	case interaction.User != nil:
		inv.UserID = interaction.User.ID
	}
	return inv
}

// deferred acknowledges the interaction with an ephemeral placeholder, runs
// action and replaces the placeholder with its reply. The action is skipped if
// the acknowledgement fails.
func (b *Bot) deferred(session responder, interaction *discordgo.InteractionCreate, action func() string) {
	err := session.InteractionRespond(interaction.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{Flags: discordgo.MessageFlagsEphemeral},
	})
	if err != nil {
		b.logger.Error("failed to defer interaction response", zap.String("guild_id", interaction.GuildID), zap.Error(err))
		return
	}

	content := action()
	if _, err := session.InteractionResponseEdit(interaction.Interaction, &discordgo.WebhookEdit{Content: &content}); err != nil {
		b.logger.Warn("interaction reply failed", zap.String("guild_id", interaction.GuildID), zap.Error(err))
	}
}
