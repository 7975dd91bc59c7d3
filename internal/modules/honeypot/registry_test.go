package honeypot

import (
	"context"
	"sync"
	"testing"
	"time"

	"honeypot-bot/internal/modules/audit"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const (
	waitFor = 2 * time.Second
	tick    = 5 * time.Millisecond
)

func newTestRegistry(platform *fakePlatform) *Registry {
	return NewRegistry(platform, audit.NewLogger(nil, zap.NewNop()), zap.NewNop())
}

func TestInstallReplacesExistingTrap(t *testing.T) {
	platform := newFakePlatform()
	registry := newTestRegistry(platform)
	defer registry.Close(context.Background())

	first := registry.Install(textChannel("c1", "g1"), "self")
	second := registry.Install(textChannel("c1", "g1"), "self")
	third := registry.Install(textChannel("c1", "g1"), "self")

	require.Equal(t, 1, registry.Len())
	assert.Same(t, third, registry.get("c1"))

	for _, old := range []*Trap{first, second} {
		select {
		case <-old.Done():
		case <-time.After(waitFor):
			t.Fatalf("superseded trap %s never stopped", old.ID())
		}
	}
	// A superseded trap leaving must not take its successor with it.
	assert.True(t, registry.Armed("c1"))

	require.True(t, registry.Dispatch(Message{ID: "m1", ChannelID: "c1", GuildID: "g1", AuthorID: "spammer"}))
	require.Eventually(t, func() bool { return len(platform.banCalls()) == 1 }, waitFor, tick)

	// Give any duplicate watcher time to act before asserting it did not.
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, []string{"m1"}, platform.deletedIDs())
	assert.Len(t, platform.banCalls(), 1)
}

func TestConcurrentInstallsKeepOneTrap(t *testing.T) {
	platform := newFakePlatform()
	registry := newTestRegistry(platform)
	defer registry.Close(context.Background())

	var wg sync.WaitGroup
	traps := make([]*Trap, 20)
	for i := range traps {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			traps[i] = registry.Install(textChannel("c1", "g1"), "self")
		}(i)
	}
	wg.Wait()

	require.Equal(t, 1, registry.Len())
	live := registry.get("c1")
	for _, trap := range traps {
		if trap == live {
			continue
		}
		select {
		case <-trap.Done():
		case <-time.After(waitFor):
			t.Fatalf("trap %s still running", trap.ID())
		}
	}
}

func TestStopRemovesEntry(t *testing.T) {
	registry := newTestRegistry(newFakePlatform())

	trap := registry.Install(textChannel("c1", "g1"), "self")
	registry.Install(textChannel("c2", "g1"), "self")
	registry.Install(textChannel("c3", "g2"), "self")
	require.Equal(t, 3, registry.Len())

	registry.Stop("c1")
	<-trap.Done()
	assert.False(t, registry.Armed("c1"))
	assert.False(t, registry.Dispatch(Message{ID: "m1", ChannelID: "c1", AuthorID: "u1"}))

	registry.StopGuild("g1")
	require.Eventually(t, func() bool { return registry.Len() == 1 }, waitFor, tick)
	assert.True(t, registry.Armed("c3"))

	ctx, cancel := context.WithTimeout(context.Background(), waitFor)
	defer cancel()
	registry.Close(ctx)
	assert.Equal(t, 0, registry.Len())
}

func TestDispatchUnknownChannel(t *testing.T) {
	registry := newTestRegistry(newFakePlatform())
	assert.False(t, registry.Dispatch(Message{ID: "m1", ChannelID: "nope", AuthorID: "u1"}))
}

func TestReplacementKeepsQueuedMessages(t *testing.T) {
	platform := newFakePlatform()
	gate := make(chan struct{})
	platform.set(func(f *fakePlatform) { f.banGate = gate })
	registry := newTestRegistry(platform)
	defer registry.Close(context.Background())

	registry.Install(textChannel("c1", "g1"), "self")
	require.True(t, registry.Dispatch(Message{ID: "m1", ChannelID: "c1", GuildID: "g1", AuthorID: "u1"}))
	// m1 is deleted and its ban is now held at the gate.
	require.Eventually(t, func() bool { return len(platform.deletedIDs()) == 1 }, waitFor, tick)

	require.True(t, registry.Dispatch(Message{ID: "m2", ChannelID: "c1", GuildID: "g1", AuthorID: "u2"}))
	registry.Install(textChannel("c1", "g1"), "self")
	close(gate)

	require.Eventually(t, func() bool { return len(platform.banCalls()) == 2 }, waitFor, tick)
	time.Sleep(50 * time.Millisecond)
	assert.ElementsMatch(t, []string{"m1", "m2"}, platform.deletedIDs())
	bans := platform.banCalls()
	require.Len(t, bans, 2)
	assert.ElementsMatch(t, []string{"u1", "u2"}, []string{bans[0].UserID, bans[1].UserID})
}
