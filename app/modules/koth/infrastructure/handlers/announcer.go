package kothhandlers

import (
	"context"
	"encoding/json"
	"fmt"

	kothservice "github.com/Black-And-White-Club/koth-bot/app/modules/koth/application"
	"github.com/Black-And-White-Club/koth-bot/app/shared/observability/attr"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	"github.com/google/uuid"
)

// Announcer publishes announcements on the event bus for the announcement
// handler to post.
type Announcer struct {
	publisher message.Publisher
}

var _ kothservice.Announcer = (*Announcer)(nil)

func NewAnnouncer(publisher message.Publisher) *Announcer {
	return &Announcer{publisher: publisher}
}

func (a *Announcer) Announce(ctx context.Context, announcement kothservice.Announcement) error {
	payload, err := json.Marshal(announcement)
	if err != nil {
		return fmt.Errorf("kothhandlers.Announce: marshal: %w", err)
	}

	msg := message.NewMessage(uuid.NewString(), payload)
	msg.Metadata.Set("guild_id", string(announcement.GuildID))
	correlationID := attr.CorrelationID(ctx)
	if correlationID == "" {
		correlationID = msg.UUID
	}
	middleware.SetCorrelationID(correlationID, msg)

	if err := a.publisher.Publish(AnnouncementRequestedV1, msg); err != nil {
		return fmt.Errorf("kothhandlers.Announce: %w", err)
	}
	return nil
}
