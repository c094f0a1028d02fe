package kothhandlers

import (
	"context"
	"sync"

	kothdomain "github.com/Black-And-White-Club/koth-bot/app/modules/koth/domain"
	kothservice "github.com/Black-And-White-Club/koth-bot/app/modules/koth/application"
	sharedtypes "github.com/Black-And-White-Club/koth-bot/app/shared/types"
	"github.com/ThreeDotsLabs/watermill/message"
)

// ------------------------
// Fake Presenter
// ------------------------

type FakePresenter struct {
	mu    sync.Mutex
	trace []string

	SendCardFunc func(ctx context.Context, channelID sharedtypes.ChannelID, card kothdomain.Card) (sharedtypes.MessageID, error)
	SendTextFunc func(ctx context.Context, channelID sharedtypes.ChannelID, content string) (sharedtypes.MessageID, error)
}

func (f *FakePresenter) record(step string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.trace = append(f.trace, step)
}

// Trace returns the recorded calls, or nil when nothing was called.
func (f *FakePresenter) Trace() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.trace) == 0 {
		return nil
	}
	out := make([]string, len(f.trace))
	copy(out, f.trace)
	return out
}

func (f *FakePresenter) SendCard(ctx context.Context, channelID sharedtypes.ChannelID, card kothdomain.Card) (sharedtypes.MessageID, error) {
	f.record("SendCard")
	if f.SendCardFunc != nil {
		return f.SendCardFunc(ctx, channelID, card)
	}
	return "card", nil
}

func (f *FakePresenter) SendText(ctx context.Context, channelID sharedtypes.ChannelID, content string) (sharedtypes.MessageID, error) {
	f.record("SendText")
	if f.SendTextFunc != nil {
		return f.SendTextFunc(ctx, channelID, content)
	}
	return "text", nil
}

func (f *FakePresenter) EditCard(ctx context.Context, channelID sharedtypes.ChannelID, messageID sharedtypes.MessageID, card kothdomain.Card) error {
	f.record("EditCard")
	return nil
}

func (f *FakePresenter) DeleteMessage(ctx context.Context, channelID sharedtypes.ChannelID, messageID sharedtypes.MessageID) error {
	f.record("DeleteMessage")
	return nil
}

func (f *FakePresenter) AddReaction(ctx context.Context, channelID sharedtypes.ChannelID, messageID sharedtypes.MessageID, emoji string) error {
	f.record("AddReaction")
	return nil
}

func (f *FakePresenter) AddRole(ctx context.Context, guildID sharedtypes.GuildID, userID sharedtypes.DiscordID, roleID sharedtypes.RoleID, reason string) error {
	f.record("AddRole")
	return nil
}

func (f *FakePresenter) RemoveRoleFromAll(ctx context.Context, guildID sharedtypes.GuildID, roleID sharedtypes.RoleID, reason string) error {
	f.record("RemoveRoleFromAll")
	return nil
}

func (f *FakePresenter) DirectMessage(ctx context.Context, userID sharedtypes.DiscordID, content string) error {
	f.record("DirectMessage")
	return nil
}

var _ kothservice.Presenter = (*FakePresenter)(nil)

// ------------------------
// Fake Publisher
// ------------------------

type FakePublisher struct {
	Topics   []string
	Messages []*message.Message
	Err      error
}

func (f *FakePublisher) Publish(topic string, messages ...*message.Message) error {
	if f.Err != nil {
		return f.Err
	}
	for _, m := range messages {
		f.Topics = append(f.Topics, topic)
		f.Messages = append(f.Messages, m)
	}
	return nil
}

func (f *FakePublisher) Close() error { return nil }

var _ message.Publisher = (*FakePublisher)(nil)
