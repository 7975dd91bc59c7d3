package bot

import (
	"fmt"

	"honeypot-bot/internal/modules/honeypot"

	"github.com/bwmarrin/discordgo"
)

func commandDefinitions() []*discordgo.ApplicationCommand {
	adminOnly := int64(discordgo.PermissionAdministrator)
	dmPermission := false
	return []*discordgo.ApplicationCommand{
		{
			Name:                     honeypot.ChannelName,
			Description:              "Create a honeypot channel",
			DefaultMemberPermissions: &adminOnly,
			DMPermission:             &dmPermission,
		},
	}
}

// registerCommands replaces the application's global commands with the honeypot command.
func (b *Bot) registerCommands() error {
	appID := b.cfg.ApplicationID
	if appID == "" && b.session.State != nil && b.session.State.User != nil {
		appID = b.session.State.User.ID
	}
	if _, err := b.session.ApplicationCommandBulkOverwrite(appID, "", commandDefinitions()); err != nil {
		return fmt.Errorf("register commands for %s: %w", appID, err)
	}
	return nil
}
