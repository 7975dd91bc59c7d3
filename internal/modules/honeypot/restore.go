package honeypot

import (
	"context"
	"sync/atomic"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const restoreWorkers = 4

// Restore re-arms every decoy channel in every guild the bot can see and returns
// how many traps were installed. A guild whose channels cannot be listed is skipped.
func (m *Module) Restore(ctx context.Context, selfID string) int {
	m.logger.Info("restoring honeypot channels")

	guilds, err := m.platform.Guilds(ctx)
	if err != nil {
		m.logger.Error("restoration error", zap.Error(err))
		return 0
	}

	var armed atomic.Int64
	var g errgroup.Group
	g.SetLimit(restoreWorkers)
	for _, guild := range guilds {
		g.Go(func() error {
			channels, err := m.platform.Channels(ctx, guild.ID)
			if err != nil {
				m.logger.Warn("guild restoration error", zap.String("guild_id", guild.ID), zap.String("guild", guild.Name), zap.Error(err))
				return nil
			}
			for _, channel := range channels {
				if !channel.IsDecoy() {
					continue
				}
				if channel.GuildID == "" {
					channel.GuildID = guild.ID
				}
				m.traps.Install(channel, selfID)
				armed.Add(1)
			}
			return nil
		})
	}
	_ = g.Wait()

	m.logger.Info("honeypot channels restored", zap.Int("guilds", len(guilds)), zap.Int64("armed", armed.Load()))
	return int(armed.Load())
}
