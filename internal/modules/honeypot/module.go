package honeypot

import (
	"context"
	"fmt"

	"honeypot-bot/internal/modules/audit"

	"go.uber.org/zap"
)

const (
	ReplyNotAdmin  = "You need administrator permissions"
	ReplyNoGuild   = "This command can only be used in a server"
	ReplyFailed    = "An error occurred"
	replyCreatedFm = "Created honeypot channel: <#%s>"
)

// Invocation is one use of the honeypot command.
type Invocation struct {
	GuildID string
	UserID  string
	SelfID  string
	Admin   bool
}

type Module struct {
	platform Platform
	traps    *Registry
	audit    *audit.Logger
	logger   *zap.Logger
}

func New(platform Platform, auditLogger *audit.Logger, logger *zap.Logger) *Module {
	return &Module{
		platform: platform,
		traps:    NewRegistry(platform, auditLogger, logger.Named("traps")),
		audit:    auditLogger,
		logger:   logger,
	}
}

func (m *Module) Traps() *Registry {
	return m.traps
}

// HandleCommand creates and arms a new decoy channel. The returned text is meant
// for an ephemeral reply to the invoker.
func (m *Module) HandleCommand(ctx context.Context, inv Invocation) string {
	if !inv.Admin {
		m.logger.Info("honeypot command rejected", zap.String("guild_id", inv.GuildID), zap.String("user_id", inv.UserID))
		return ReplyNotAdmin
	}
	if inv.GuildID == "" {
		return ReplyNoGuild
	}

	channel, err := m.create(ctx, inv)
	if err != nil {
		m.logger.Error("command error", zap.String("guild_id", inv.GuildID), zap.String("user_id", inv.UserID), zap.Error(err))
		m.audit.Log(ctx, audit.LevelWarn, inv.GuildID, channel.ID, inv.UserID, "honeypot_command_failed", err.Error())
		return ReplyFailed
	}
	m.audit.Log(ctx, audit.LevelInfo, inv.GuildID, channel.ID, inv.UserID, "honeypot_created", "")
	return fmt.Sprintf(replyCreatedFm, channel.ID)
}

func (m *Module) create(ctx context.Context, inv Invocation) (Channel, error) {
	channel, err := m.platform.CreateChannel(ctx, inv.GuildID, inv.SelfID)
	if err != nil {
		return Channel{}, fmt.Errorf("create channel: %w", err)
	}
	if channel.GuildID == "" {
		channel.GuildID = inv.GuildID
	}

	m.traps.Install(channel, inv.SelfID)

	if err := m.platform.SendWarning(ctx, channel.ID); err != nil {
		return channel, fmt.Errorf("send warning: %w", err)
	}
	return channel, nil
}

// HandleMessage routes a newly posted message to its channel's trap, if any.
func (m *Module) HandleMessage(msg Message) bool {
	return m.traps.Dispatch(msg)
}

func (m *Module) HandleChannelDelete(channelID string) {
	m.traps.Stop(channelID)
}

func (m *Module) HandleGuildDelete(guildID string) {
	m.traps.StopGuild(guildID)
}

func (m *Module) Close(ctx context.Context) {
	m.traps.Close(ctx)
}
