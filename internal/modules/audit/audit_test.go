package audit

import (
	"context"
	"testing"
	"time"

	"honeypot-bot/internal/storage"

	"github.com/matryer/is"
	"go.uber.org/zap"
)

func TestLogPersistsAndNotifies(t *testing.T) {
	is := is.New(t)

	store, err := storage.New(":memory:")
	is.NoErr(err)
	defer store.Close()
	is.NoErr(store.Migrate())

	logger := NewLogger(store, zap.NewNop())
	var notified []storage.AuditLog
	logger.SetNotifier(func(_ context.Context, entry storage.AuditLog) {
		notified = append(notified, entry)
	})

	ctx := context.Background()
	logger.Log(ctx, LevelCrit, "g1", "c1", "u1", "honeypot_ban", "reason=test")

	logs, err := store.ListAuditLogs(ctx, "g1", time.Now().Add(-time.Minute))
	is.NoErr(err)
	is.Equal(len(logs), 1)
	is.Equal(logs[0].Event, "honeypot_ban")
	is.Equal(logs[0].ChannelID, "c1")
	is.Equal(len(notified), 1)
	is.Equal(notified[0].Level, LevelCrit)
}

func TestLogWithoutStore(t *testing.T) {
	is := is.New(t)
	logger := NewLogger(nil, zap.NewNop())
	called := false
	logger.SetNotifier(func(context.Context, storage.AuditLog) { called = true })
	logger.Log(context.Background(), LevelInfo, "g1", "", "", "honeypot_armed", "")
	is.True(called)
}
