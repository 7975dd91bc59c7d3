package bot

import (
	"context"
	"fmt"
	"sync"
	"time"

	"honeypot-bot/internal/config"
	"honeypot-bot/internal/discord"
	"honeypot-bot/internal/modules/audit"
	"honeypot-bot/internal/modules/honeypot"
	"honeypot-bot/internal/storage"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

const (
	restoreWait    = 10 * time.Second
	retentionEvery = 24 * time.Hour
)

type Bot struct {
	cfg      config.Config
	logger   *zap.Logger
	store    *storage.Store
	audit    *audit.Logger
	session  *discordgo.Session
	client   *discord.Client
	honeypot *honeypot.Module

	readyOnce   sync.Once
	restored    chan struct{}
	restoreWait time.Duration
	stop        chan struct{}
	stopOnce    sync.Once
}

func New(cfg config.Config, logger *zap.Logger, store *storage.Store, auditLogger *audit.Logger) (*Bot, error) {
	if store == nil {
		return nil, fmt.Errorf("bot: store is required")
	}
	if auditLogger == nil {
		auditLogger = audit.NewLogger(store, logger)
	}

	session, err := discordgo.New("Bot " + cfg.DiscordToken)
	if err != nil {
		return nil, err
	}

	session.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMessages |
		discordgo.IntentsGuildMembers |
		discordgo.IntentsMessageContent
	session.LogLevel = discordgo.LogWarning
	routeLibraryLogs(logger.Named("discordgo"))

	warning, err := discord.LoadWarning(cfg.WarningImagePath)
	if err != nil {
		return nil, err
	}
	client := discord.NewClient(session, warning, logger.Named("discord"))
	b := &Bot{
		cfg:      cfg,
		logger:   logger,
		store:    store,
		audit:    auditLogger,
		session:  session,
		client:   client,
		honeypot: honeypot.New(client, auditLogger, logger.Named("honeypot")),
		restored: make(chan struct{}),
		stop:     make(chan struct{}),

		restoreWait: restoreWait,
	}

	b.audit.SetNotifier(func(ctx context.Context, entry storage.AuditLog) {
		if entry.Event != "honeypot_ban" {
			return
		}
		b.notifyBan(ctx, entry)
	})

	return b, nil
}

// Traps exposes the trap registry for diagnostics.
func (b *Bot) Traps() *honeypot.Registry {
	return b.honeypot.Traps()
}

func (b *Bot) Start() error {
	b.session.AddHandler(b.onReady)
	b.session.AddHandler(b.onMessageCreate)
	b.session.AddHandler(b.onChannelDelete)
	b.session.AddHandler(b.onGuildDelete)
	b.session.AddHandler(b.onInteractionCreate)

	if err := b.session.Open(); err != nil {
		return fmt.Errorf("open gateway: %w", err)
	}

	b.startRetention()
	return nil
}

func (b *Bot) Close(ctx context.Context) {
	b.stopOnce.Do(func() { close(b.stop) })
	b.honeypot.Close(ctx)
	if b.session != nil {
		_ = b.session.Close()
	}
}

func (b *Bot) onReady(session *discordgo.Session, event *discordgo.Ready) {
	defer b.recoverHandler("ready")
	b.logger.Info("discord ready", zap.String("user", event.User.String()), zap.Int("guilds", len(event.Guilds)))

	b.readyOnce.Do(func() {
		defer close(b.restored)
		ctx := context.Background()
		if err := b.registerCommands(); err != nil {
			b.logger.Error("command registration error", zap.Error(err))
		} else {
			b.logger.Info("commands registered")
		}
		b.honeypot.Restore(ctx, event.User.ID)
	})
}

func (b *Bot) onMessageCreate(session *discordgo.Session, msg *discordgo.MessageCreate) {
	defer b.recoverHandler("message_create")
	if msg.GuildID == "" {
		return
	}
	message, ok := discord.ToMessage(msg.Message)
	if !ok {
		return
	}
	b.honeypot.HandleMessage(message)
}

func (b *Bot) onChannelDelete(session *discordgo.Session, event *discordgo.ChannelDelete) {
	defer b.recoverHandler("channel_delete")
	if event.Channel == nil {
		return
	}
	b.honeypot.HandleChannelDelete(event.Channel.ID)
}

func (b *Bot) onGuildDelete(session *discordgo.Session, event *discordgo.GuildDelete) {
	defer b.recoverHandler("guild_delete")
	if event.Guild == nil || event.Unavailable {
		return
	}
	b.honeypot.HandleGuildDelete(event.Guild.ID)
}

// waitRestored holds early commands until restoration finishes, for at most
// restoreWait.
func (b *Bot) waitRestored() {
	select {
	case <-b.restored:
	case <-time.After(b.restoreWait):
		b.logger.Warn("serving command before restoration finished")
	}
}

func (b *Bot) recoverHandler(name string) {
	if r := recover(); r != nil {
		b.logger.Error("handler panic", zap.String("handler", name), zap.Any("panic", r), zap.Stack("stack"))
	}
}

func (b *Bot) startRetention() {
	if b.cfg.RetentionDays <= 0 {
		return
	}
	go func() {
		ticker := time.NewTicker(retentionEvery)
		defer ticker.Stop()
		b.cleanupAuditLogs()
		for {
			select {
			case <-b.stop:
				return
			case <-ticker.C:
				b.cleanupAuditLogs()
			}
		}
	}()
}

func (b *Bot) cleanupAuditLogs() {
	removed, err := b.store.CleanupAuditLogs(context.Background(), b.cfg.RetentionDays)
	if err != nil {
		b.logger.Warn("audit retention failed", zap.Error(err))
		return
	}
	b.logger.Debug("audit retention", zap.Int64("removed", removed))
}

// notifyBan posts to the security log channel, but only bans from the guild
// that owns that channel.
func (b *Bot) notifyBan(ctx context.Context, entry storage.AuditLog) {
	_ = ctx
	if b.cfg.SecurityLogChannel == "" {
		return
	}
	if !notifies(b.securityLogGuild(), entry) {
		return
	}
	embed := banEmbed(entry)
	if _, err := b.session.ChannelMessageSendEmbed(b.cfg.SecurityLogChannel, embed); err != nil {
		b.logger.Warn("security log notify failed", zap.String("channel_id", b.cfg.SecurityLogChannel), zap.Error(err))
	}
}

func (b *Bot) securityLogGuild() string {
	channel, err := b.session.State.Channel(b.cfg.SecurityLogChannel)
	if err != nil || channel == nil {
		channel, err = b.session.Channel(b.cfg.SecurityLogChannel)
		if err != nil {
			b.logger.Warn("security log channel lookup failed", zap.String("channel_id", b.cfg.SecurityLogChannel), zap.Error(err))
			return ""
		}
	}
	return channel.GuildID
}

func notifies(logGuildID string, entry storage.AuditLog) bool {
	return logGuildID != "" && entry.GuildID == logGuildID
}

func banEmbed(entry storage.AuditLog) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title:     "Honeypot ban",
		Color:     discord.WarningColor,
		Timestamp: entry.CreatedAt.Format(time.RFC3339),
		Fields: []*discordgo.MessageEmbedField{
			{Name: "User", Value: "<@" + entry.UserID + ">", Inline: true},
			{Name: "Channel", Value: "<#" + entry.ChannelID + ">", Inline: true},
			{Name: "Reason", Value: honeypot.BanReason, Inline: false},
		},
	}
}

func routeLibraryLogs(logger *zap.Logger) {
	discordgo.Logger = func(msgL, caller int, format string, a ...interface{}) {
		msg := fmt.Sprintf(format, a...)
		switch msgL {
		case discordgo.LogError:
			logger.Error(msg)
		case discordgo.LogWarning:
			logger.Warn(msg)
		case discordgo.LogInformational:
			logger.Info(msg)
		default:
			logger.Debug(msg)
		}
	}
}
