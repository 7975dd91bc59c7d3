// Package discord binds the honeypot module to the Discord API through discordgo.
package discord

import (
	"context"
	"errors"
	"fmt"
	"time"

	"honeypot-bot/internal/modules/honeypot"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

const maxPurgeDays = 7

var errNotReady = errors.New("discord session not ready")

type Client struct {
	session *discordgo.Session
	warning Warning
	logger  *zap.Logger
}

var _ honeypot.Platform = (*Client)(nil)

func NewClient(session *discordgo.Session, warning Warning, logger *zap.Logger) *Client {
	return &Client{session: session, warning: warning, logger: logger}
}

func (c *Client) SelfID() string {
	if c.session.State == nil || c.session.State.User == nil {
		return ""
	}
	return c.session.State.User.ID
}

func (c *Client) Guilds(ctx context.Context) ([]honeypot.Guild, error) {
	_ = ctx
	if c.session.State == nil {
		return nil, errNotReady
	}
	c.session.State.RLock()
	defer c.session.State.RUnlock()

	guilds := make([]honeypot.Guild, 0, len(c.session.State.Guilds))
	for _, guild := range c.session.State.Guilds {
		if guild == nil {
			continue
		}
		guilds = append(guilds, honeypot.Guild{ID: guild.ID, Name: guild.Name})
	}
	return guilds, nil
}

func (c *Client) Channels(ctx context.Context, guildID string) ([]honeypot.Channel, error) {
	_ = ctx
	channels, err := c.session.GuildChannels(guildID)
	if err != nil {
		return nil, fmt.Errorf("list channels of %s: %w", guildID, err)
	}
	out := make([]honeypot.Channel, 0, len(channels))
	for _, channel := range channels {
		if channel == nil {
			continue
		}
		out = append(out, toChannel(channel))
	}
	return out, nil
}

func (c *Client) CreateChannel(ctx context.Context, guildID, selfID string) (honeypot.Channel, error) {
	_ = ctx
	channel, err := c.session.GuildChannelCreateComplex(guildID, discordgo.GuildChannelCreateData{
		Name:                 honeypot.ChannelName,
		Type:                 discordgo.ChannelTypeGuildText,
		PermissionOverwrites: decoyOverwrites(guildID, selfID),
	})
	if err != nil {
		return honeypot.Channel{}, err
	}
	return toChannel(channel), nil
}

func (c *Client) SendWarning(ctx context.Context, channelID string) error {
	_ = ctx
	_, err := c.session.ChannelMessageSendComplex(channelID, c.warning.Message())
	return err
}

// CanDelete is optimistic when the permission cache cannot answer; the API call
// will then report the real outcome.
func (c *Client) CanDelete(ctx context.Context, msg honeypot.Message) bool {
	_ = ctx
	selfID := c.SelfID()
	if selfID == "" {
		return true
	}
	perms, err := c.session.State.UserChannelPermissions(selfID, msg.ChannelID)
	if err != nil {
		c.logger.Debug("channel permissions unavailable", zap.String("channel_id", msg.ChannelID), zap.Error(err))
		return true
	}
	return perms&discordgo.PermissionManageMessages != 0
}

func (c *Client) DeleteMessage(ctx context.Context, channelID, messageID string) error {
	_ = ctx
	return c.session.ChannelMessageDelete(channelID, messageID)
}

func (c *Client) CanBan(ctx context.Context, guildID, userID string) bool {
	_ = ctx
	guild := c.guild(guildID)
	if guild == nil {
		return false
	}
	self := c.memberForUser(guildID, c.SelfID())
	target := c.memberForUser(guildID, userID)
	return bannable(guild, self, target)
}

func (c *Client) Ban(ctx context.Context, guildID, userID, reason string, purge time.Duration) error {
	_ = ctx
	return c.session.GuildBanCreateWithReason(guildID, userID, reason, purgeDays(purge))
}

func (c *Client) guild(guildID string) *discordgo.Guild {
	guild, err := c.session.State.Guild(guildID)
	if err == nil && guild != nil {
		return guild
	}
	guild, err = c.session.Guild(guildID)
	if err != nil {
		c.logger.Debug("guild lookup failed", zap.String("guild_id", guildID), zap.Error(err))
		return nil
	}
	return guild
}

func (c *Client) memberForUser(guildID, userID string) *discordgo.Member {
	if userID == "" {
		return nil
	}
	member, err := c.session.State.Member(guildID, userID)
	if err == nil && member != nil {
		return member
	}
	member, _ = c.session.GuildMember(guildID, userID)
	return member
}

// purgeDays converts the purge window to the whole days the ban endpoint accepts.
func purgeDays(purge time.Duration) int {
	days := int(purge / (24 * time.Hour))
	if days < 0 {
		return 0
	}
	if days > maxPurgeDays {
		return maxPurgeDays
	}
	return days
}

func toChannel(channel *discordgo.Channel) honeypot.Channel {
	return honeypot.Channel{
		ID:      channel.ID,
		GuildID: channel.GuildID,
		Name:    channel.Name,
		Text:    channel.Type == discordgo.ChannelTypeGuildText,
	}
}

// ToMessage converts a gateway message. Webhook posts count as bot messages.
func ToMessage(m *discordgo.Message) (honeypot.Message, bool) {
	if m == nil || m.Author == nil {
		return honeypot.Message{}, false
	}
	return honeypot.Message{
		ID:        m.ID,
		ChannelID: m.ChannelID,
		GuildID:   m.GuildID,
		AuthorID:  m.Author.ID,
		AuthorTag: m.Author.String(),
		AuthorBot: m.Author.Bot || m.WebhookID != "",
	}, true
}
