package kothhandlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"testing"

	kothdomain "github.com/Black-And-White-Club/koth-bot/app/modules/koth/domain"
	kothservice "github.com/Black-And-White-Club/koth-bot/app/modules/koth/application"
	"github.com/Black-And-White-Club/koth-bot/app/shared/observability/attr"
	sharedtypes "github.com/Black-And-White-Club/koth-bot/app/shared/types"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace/noop"
)

func TestHandleAnnouncementRequested(t *testing.T) {
	report := kothdomain.ResultsCard(nil, "")

	tests := []struct {
		name      string
		setup     func(*FakePresenter)
		payload   *kothservice.Announcement
		wantTrace []string
		wantErr   bool
	}{
		{
			name:      "text announcement",
			payload:   &kothservice.Announcement{GuildID: "g", ChannelID: "c", Content: "Submissions are now **OPEN**!"},
			wantTrace: []string{"SendText"},
		},
		{
			name:      "card announcement",
			payload:   &kothservice.Announcement{GuildID: "g", ChannelID: "c", Card: &report},
			wantTrace: []string{"SendCard"},
		},
		{
			name:      "text then card",
			payload:   &kothservice.Announcement{GuildID: "g", ChannelID: "c", Content: "Results", Card: &report},
			wantTrace: []string{"SendText", "SendCard"},
		},
		{
			name:    "no channel",
			payload: &kothservice.Announcement{GuildID: "g", Content: "lost"},
		},
		{
			name:    "nothing to say",
			payload: &kothservice.Announcement{GuildID: "g", ChannelID: "c"},
		},
		{
			name: "channel deleted",
			setup: func(f *FakePresenter) {
				f.SendTextFunc = func(context.Context, sharedtypes.ChannelID, string) (sharedtypes.MessageID, error) {
					return "", fmt.Errorf("kothdiscord.SendText: %w", kothservice.ErrMessageNotFound)
				}
			},
			payload:   &kothservice.Announcement{GuildID: "g", ChannelID: "c", Content: "hi", Card: &report},
			wantTrace: []string{"SendText"},
		},
		{
			name: "platform failure is retried",
			setup: func(f *FakePresenter) {
				f.SendCardFunc = func(context.Context, sharedtypes.ChannelID, kothdomain.Card) (sharedtypes.MessageID, error) {
					return "", errors.New("502 bad gateway")
				}
			},
			payload:   &kothservice.Announcement{GuildID: "g", ChannelID: "c", Card: &report},
			wantTrace: []string{"SendCard"},
			wantErr:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			presenter := &FakePresenter{}
			if tt.setup != nil {
				tt.setup(presenter)
			}
			h := NewKothHandlers(presenter, slog.New(slog.DiscardHandler), noop.NewTracerProvider().Tracer("test"))

			err := h.HandleAnnouncementRequested(context.Background(), tt.payload)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.wantTrace, presenter.Trace())
		})
	}
}

func TestAnnouncerPublishes(t *testing.T) {
	publisher := &FakePublisher{}
	a := NewAnnouncer(publisher)
	card := kothdomain.ResultsCard([]kothdomain.Standing{{UserID: "u1", Points: 3, Wins: 2}}, "u1")

	ctx := attr.WithCorrelationID(context.Background(), "interaction-7")
	err := a.Announce(ctx, kothservice.Announcement{GuildID: "g", ChannelID: "c", Content: "done", Card: &card})
	require.NoError(t, err)

	require.Len(t, publisher.Messages, 1)
	assert.Equal(t, AnnouncementRequestedV1, publisher.Topics[0])
	msg := publisher.Messages[0]
	assert.Equal(t, "interaction-7", middleware.MessageCorrelationID(msg))
	assert.Equal(t, "g", msg.Metadata.Get("guild_id"))

	var decoded kothservice.Announcement
	require.NoError(t, json.Unmarshal(msg.Payload, &decoded))
	assert.Equal(t, "done", decoded.Content)
	require.NotNil(t, decoded.Card)
	assert.Equal(t, card, *decoded.Card)
}

func TestAnnouncerFallsBackToMessageID(t *testing.T) {
	publisher := &FakePublisher{}
	require.NoError(t, NewAnnouncer(publisher).Announce(context.Background(), kothservice.Announcement{ChannelID: "c", Content: "x"}))
	msg := publisher.Messages[0]
	assert.Equal(t, msg.UUID, middleware.MessageCorrelationID(msg))
}

func TestAnnouncerPublishFailure(t *testing.T) {
	publisher := &FakePublisher{Err: errors.New("nats: connection closed")}
	err := NewAnnouncer(publisher).Announce(context.Background(), kothservice.Announcement{ChannelID: "c", Content: "x"})
	assert.ErrorContains(t, err, "connection closed")
}
