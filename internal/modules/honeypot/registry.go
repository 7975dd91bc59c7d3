package honeypot

import (
	"context"
	"sync"

	"honeypot-bot/internal/modules/audit"

	"go.uber.org/zap"
)

// Registry holds at most one live Trap per channel.
type Registry struct {
	mu    sync.Mutex
	traps map[string]*Trap

	enforcer Enforcer
	audit    *audit.Logger
	logger   *zap.Logger
}

func NewRegistry(enforcer Enforcer, auditLogger *audit.Logger, logger *zap.Logger) *Registry {
	return &Registry{
		traps:    make(map[string]*Trap),
		enforcer: enforcer,
		audit:    auditLogger,
		logger:   logger,
	}
}

// Install arms channel, replacing any trap already watching it. The old trap is
// stopped before the new one becomes visible and its queued messages move over.
func (r *Registry) Install(channel Channel, selfID string) *Trap {
	trap := newTrap(channel, selfID, r.enforcer, r.audit, r.logger)

	r.mu.Lock()
	if old, ok := r.traps[channel.ID]; ok {
		old.handOver(trap)
		delete(r.traps, channel.ID)
	}
	r.traps[channel.ID] = trap
	r.mu.Unlock()

	go trap.run(r.remove)

	r.logger.Info("honeypot activated", zap.String("channel_id", channel.ID), zap.String("channel", channel.Name), zap.String("trap_id", trap.id))
	r.audit.Log(context.Background(), audit.LevelInfo, channel.GuildID, channel.ID, "", "honeypot_armed", "trap_id="+trap.id)
	return trap
}

// remove drops trap's entry unless it has already been superseded.
func (r *Registry) remove(trap *Trap) {
	r.mu.Lock()
	current, ok := r.traps[trap.channel.ID]
	removed := ok && current == trap
	if removed {
		delete(r.traps, trap.channel.ID)
	}
	r.mu.Unlock()

	if removed {
		r.logger.Info("honeypot disarmed", zap.String("channel_id", trap.channel.ID), zap.String("trap_id", trap.id))
		r.audit.Log(context.Background(), audit.LevelInfo, trap.channel.GuildID, trap.channel.ID, "", "honeypot_disarmed", "trap_id="+trap.id)
	}
}

func (r *Registry) get(channelID string) *Trap {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.traps[channelID]
}

// Dispatch hands msg to the trap armed on its channel. It reports false when the
// channel is not trapped.
func (r *Registry) Dispatch(msg Message) bool {
	var last *Trap
	for {
		trap := r.get(msg.ChannelID)
		if trap == nil || trap == last {
			return false
		}
		if trap.deliver(msg) {
			return true
		}
		// Replaced between lookup and delivery; try the successor.
		last = trap
	}
}

// Stop ends the trap on channelID, if any.
func (r *Registry) Stop(channelID string) {
	if trap := r.get(channelID); trap != nil {
		trap.Stop()
	}
}

// StopGuild ends every trap in guildID.
func (r *Registry) StopGuild(guildID string) {
	r.mu.Lock()
	var traps []*Trap
	for _, trap := range r.traps {
		if trap.channel.GuildID == guildID {
			traps = append(traps, trap)
		}
	}
	r.mu.Unlock()

	for _, trap := range traps {
		trap.Stop()
	}
}

func (r *Registry) Armed(channelID string) bool {
	return r.get(channelID) != nil
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.traps)
}

// Close stops every trap and waits for them to leave the registry.
func (r *Registry) Close(ctx context.Context) {
	r.mu.Lock()
	traps := make([]*Trap, 0, len(r.traps))
	for _, trap := range r.traps {
		traps = append(traps, trap)
	}
	r.mu.Unlock()

	for _, trap := range traps {
		trap.Stop()
	}
	for _, trap := range traps {
		select {
		case <-trap.Done():
		case <-ctx.Done():
			return
		}
	}
}
