package honeypot

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"honeypot-bot/internal/modules/audit"

	"go.uber.org/zap"
)

type banCall struct {
	GuildID string
	UserID  string
	Reason  string
	Purge   time.Duration
}

type fakePlatform struct {
	mu sync.Mutex

	guilds      []Guild
	guildsErr   error
	channels    map[string][]Channel
	channelErrs map[string]error

	denyDelete bool
	denyBan    bool
	deleteErr  error
	banErr     error
	createErr  error
	warnErr    error
	banGate    chan struct{}

	deleted  []string
	bans     []banCall
	created  []Channel
	warnings []string
	nextID   int
}

func newFakePlatform() *fakePlatform {
	return &fakePlatform{
		channels:    make(map[string][]Channel),
		channelErrs: make(map[string]error),
	}
}

func (f *fakePlatform) Guilds(context.Context) ([]Guild, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.guilds, f.guildsErr
}

func (f *fakePlatform) Channels(_ context.Context, guildID string) ([]Channel, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.channelErrs[guildID]; err != nil {
		return nil, err
	}
	return f.channels[guildID], nil
}

func (f *fakePlatform) CreateChannel(_ context.Context, guildID, _ string) (Channel, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return Channel{}, f.createErr
	}
	f.nextID++
	channel := Channel{ID: fmt.Sprintf("new-%d", f.nextID), GuildID: guildID, Name: ChannelName, Text: true}
	f.created = append(f.created, channel)
	return channel, nil
}

func (f *fakePlatform) SendWarning(_ context.Context, channelID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.warnErr != nil {
		return f.warnErr
	}
	f.warnings = append(f.warnings, channelID)
	return nil
}

func (f *fakePlatform) CanDelete(context.Context, Message) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return !f.denyDelete
}

func (f *fakePlatform) DeleteMessage(_ context.Context, _, messageID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.deleted = append(f.deleted, messageID)
	return nil
}

func (f *fakePlatform) CanBan(context.Context, string, string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return !f.denyBan
}

func (f *fakePlatform) Ban(_ context.Context, guildID, userID, reason string, purge time.Duration) error {
	f.mu.Lock()
	gate := f.banGate
	f.mu.Unlock()
	if gate != nil {
		<-gate
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.banErr != nil {
		return f.banErr
	}
	f.bans = append(f.bans, banCall{GuildID: guildID, UserID: userID, Reason: reason, Purge: purge})
	return nil
}

func (f *fakePlatform) deletedIDs() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.deleted...)
}

func (f *fakePlatform) banCalls() []banCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]banCall(nil), f.bans...)
}

func (f *fakePlatform) set(fn func(f *fakePlatform)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	fn(f)
}

var errForbidden = errors.New("HTTP 403 Forbidden, Missing Permissions")

func newTestModule(platform *fakePlatform) *Module {
	return New(platform, audit.NewLogger(nil, zap.NewNop()), zap.NewNop())
}

func textChannel(id, guildID string) Channel {
	return Channel{ID: id, GuildID: guildID, Name: ChannelName, Text: true}
}
