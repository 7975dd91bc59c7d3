package audit

import (
	"context"
	"time"

	"honeypot-bot/internal/storage"

	"go.uber.org/zap"
)

const (
	LevelInfo = "INFO"
	LevelWarn = "WARN"
	LevelCrit = "CRIT"
)

type Logger struct {
	store  *storage.Store
	logger *zap.Logger
	notify func(context.Context, storage.AuditLog)
}

// NewLogger records audit entries in store and in the process log. store may be nil.
func NewLogger(store *storage.Store, logger *zap.Logger) *Logger {
	return &Logger{store: store, logger: logger}
}

func (l *Logger) SetNotifier(notify func(context.Context, storage.AuditLog)) {
	l.notify = notify
}

func (l *Logger) Log(ctx context.Context, level, guildID, channelID, userID, event, details string) {
	entry := storage.AuditLog{
		GuildID:   guildID,
		ChannelID: channelID,
		UserID:    userID,
		Level:     level,
		Event:     event,
		Details:   details,
		CreatedAt: time.Now(),
	}
	if l.store != nil {
		if err := l.store.AddAuditLog(ctx, entry); err != nil {
			l.logger.Warn("audit persist failed", zap.String("event", event), zap.Error(err))
		}
	}
	if l.notify != nil {
		l.notify(ctx, entry)
	}
	l.logger.Info("audit",
		zap.String("level", level),
		zap.String("guild_id", guildID),
		zap.String("channel_id", channelID),
		zap.String("user_id", userID),
		zap.String("event", event),
		zap.String("details", details),
	)
}
