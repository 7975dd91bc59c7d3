package honeypot

import (
	"context"
	"fmt"
	"sync"

	"honeypot-bot/internal/modules/audit"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const trapBuffer = 32

// Trap watches a single decoy channel. It is armed while it is present in its Registry.
type Trap struct {
	id      string
	channel Channel
	selfID  string

	enforcer Enforcer
	audit    *audit.Logger
	logger   *zap.Logger

	mu       sync.Mutex
	retired  bool
	msgs     chan Message
	done     chan struct{}
	stopped  chan struct{}
	stopOnce sync.Once
}

func newTrap(channel Channel, selfID string, enforcer Enforcer, auditLogger *audit.Logger, logger *zap.Logger) *Trap {
	id := uuid.NewString()
	return &Trap{
		id:       id,
		channel:  channel,
		selfID:   selfID,
		enforcer: enforcer,
		audit:    auditLogger,
		logger:   logger.With(zap.String("trap_id", id), zap.String("channel_id", channel.ID), zap.String("guild_id", channel.GuildID)),
		msgs:     make(chan Message, trapBuffer),
		done:     make(chan struct{}),
		stopped:  make(chan struct{}),
	}
}

func (t *Trap) ID() string { return t.id }

func (t *Trap) Channel() Channel { return t.channel }

// handOver stops t and moves the messages it accepted but has not started
// handling onto next. t accepts nothing afterwards.
func (t *Trap) handOver(next *Trap) {
	t.Stop()
	t.mu.Lock()
	defer t.mu.Unlock()
	t.retired = true
	for {
		select {
		case msg := <-t.msgs:
			next.msgs <- msg
		default:
			return
		}
	}
}

// Stop ends the trap's message stream. Safe to call more than once.
func (t *Trap) Stop() {
	t.stopOnce.Do(func() { close(t.done) })
}

// Done is closed once the trap has stopped and left its registry.
func (t *Trap) Done() <-chan struct{} {
	return t.stopped
}

func (t *Trap) deliver(msg Message) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.retired {
		return false
	}
	select {
	case <-t.done:
		return false
	default:
	}
	select {
	case t.msgs <- msg:
		return true
	case <-t.done:
		return false
	}
}

func (t *Trap) run(onEnd func(*Trap)) {
	defer close(t.stopped)
	defer onEnd(t)

	for {
		select {
		case <-t.done:
			return
		case msg := <-t.msgs:
			t.handle(context.Background(), msg)
		}
	}
}

func (t *Trap) qualifies(msg Message) bool {
	if msg.AuthorID == "" || msg.AuthorBot {
		return false
	}
	return msg.AuthorID != t.selfID
}

// handle deletes the message and bans its author. The two actions are attempted
// independently and neither failure disarms the trap.
func (t *Trap) handle(ctx context.Context, msg Message) {
	if !t.qualifies(msg) {
		return
	}
	guildID := msg.GuildID
	if guildID == "" {
		guildID = t.channel.GuildID
	}
	log := t.logger.With(zap.String("message_id", msg.ID), zap.String("user_id", msg.AuthorID))

	if t.enforcer.CanDelete(ctx, msg) {
		if err := t.enforcer.DeleteMessage(ctx, msg.ChannelID, msg.ID); err != nil {
			log.Warn("honeypot delete failed", zap.Error(err))
			t.audit.Log(ctx, audit.LevelWarn, guildID, msg.ChannelID, msg.AuthorID, "honeypot_delete_failed", err.Error())
		} else {
			t.audit.Log(ctx, audit.LevelInfo, guildID, msg.ChannelID, msg.AuthorID, "honeypot_delete", "message_id="+msg.ID)
		}
	}

	if !t.enforcer.CanBan(ctx, guildID, msg.AuthorID) {
		log.Debug("honeypot ban not permitted")
		return
	}
	if err := t.enforcer.Ban(ctx, guildID, msg.AuthorID, BanReason, PurgeWindow); err != nil {
		log.Warn("honeypot ban failed", zap.Error(err))
		t.audit.Log(ctx, audit.LevelWarn, guildID, msg.ChannelID, msg.AuthorID, "honeypot_ban_failed", err.Error())
		return
	}
	log.Info("banned", zap.String("user", msg.AuthorTag))
	t.audit.Log(ctx, audit.LevelCrit, guildID, msg.ChannelID, msg.AuthorID, "honeypot_ban",
		fmt.Sprintf("user=%s reason=%q purge=%s", msg.AuthorTag, BanReason, PurgeWindow))
}
