// Package honeypot arms decoy channels: anyone who posts in one is banned and has
// the message removed.
package honeypot

import (
	"context"
	"time"
)

const (
	ChannelName = "honeypot"
	BanReason   = "Honeypot activating"
	PurgeWindow = 24 * time.Hour
)

type Guild struct {
	ID   string
	Name string
}

type Channel struct {
	ID      string
	GuildID string
	Name    string
	Text    bool
}

// IsDecoy reports whether the channel follows the decoy naming convention.
func (c Channel) IsDecoy() bool {
	return c.Text && c.Name == ChannelName
}

type Message struct {
	ID        string
	ChannelID string
	GuildID   string
	AuthorID  string
	AuthorTag string
	AuthorBot bool
}

// Enforcer carries out the moderation side of a trap.
type Enforcer interface {
	CanDelete(ctx context.Context, msg Message) bool
	DeleteMessage(ctx context.Context, channelID, messageID string) error
	CanBan(ctx context.Context, guildID, userID string) bool
	Ban(ctx context.Context, guildID, userID, reason string, purge time.Duration) error
}

// Directory enumerates what the bot can currently see.
type Directory interface {
	Guilds(ctx context.Context) ([]Guild, error)
	Channels(ctx context.Context, guildID string) ([]Channel, error)
}

// Platform is everything the module needs from the chat platform.
type Platform interface {
	Enforcer
	Directory
	CreateChannel(ctx context.Context, guildID, selfID string) (Channel, error)
	SendWarning(ctx context.Context, channelID string) error
}
