package discord

import "github.com/bwmarrin/discordgo"

// memberPermissions folds @everyone and the member's roles into guild-level permissions.
func memberPermissions(guild *discordgo.Guild, member *discordgo.Member) int64 {
	if guild == nil || member == nil {
		return 0
	}
	if member.User != nil && member.User.ID == guild.OwnerID {
		return discordgo.PermissionAll
	}

	roleMap := make(map[string]*discordgo.Role, len(guild.Roles))
	perms := int64(0)
	for _, role := range guild.Roles {
		roleMap[role.ID] = role
		if role.ID == guild.ID {
			perms |= role.Permissions
		}
	}
	for _, roleID := range member.Roles {
		if role := roleMap[roleID]; role != nil {
			perms |= role.Permissions
		}
	}
	if perms&discordgo.PermissionAdministrator != 0 {
		return discordgo.PermissionAll
	}
	return perms
}

func highestRolePosition(guild *discordgo.Guild, member *discordgo.Member) int {
	highest := 0
	for _, roleID := range member.Roles {
		for _, role := range guild.Roles {
			if role.ID == roleID && role.Position > highest {
				highest = role.Position
			}
		}
	}
	return highest
}

// bannable mirrors Discord's hierarchy rules: the bot needs Ban Members and must
// sit strictly above the target, and nobody can ban the owner.
func bannable(guild *discordgo.Guild, self, target *discordgo.Member) bool {
	if guild == nil || self == nil || target == nil || self.User == nil || target.User == nil {
		return false
	}
	if target.User.ID == guild.OwnerID || target.User.ID == self.User.ID {
		return false
	}
	if memberPermissions(guild, self)&discordgo.PermissionBanMembers == 0 {
		return false
	}
	if self.User.ID == guild.OwnerID {
		return true
	}
	return highestRolePosition(guild, self) > highestRolePosition(guild, target)
}

func decoyOverwrites(guildID, selfID string) []*discordgo.PermissionOverwrite {
	return []*discordgo.PermissionOverwrite{
		{
			ID:    guildID,
			Type:  discordgo.PermissionOverwriteTypeRole,
			Allow: discordgo.PermissionViewChannel,
		},
		{
			ID:    selfID,
			Type:  discordgo.PermissionOverwriteTypeMember,
			Allow: discordgo.PermissionViewChannel | discordgo.PermissionSendMessages,
		},
	}
}

// IsAdmin reports whether an interaction's invoker holds Administrator.
func IsAdmin(interaction *discordgo.InteractionCreate) bool {
	if interaction == nil || interaction.Member == nil {
		return false
	}
	return interaction.Member.Permissions&discordgo.PermissionAdministrator != 0
}
