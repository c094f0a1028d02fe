package kothhandlers

import (
	"context"

	kothservice "github.com/Black-And-White-Club/koth-bot/app/modules/koth/application"
)

// AnnouncementRequestedV1 carries a public post the service asked for.
const AnnouncementRequestedV1 = "koth.announcement.requested.v1"

// Handlers defines the koth event handlers.
type Handlers interface {
	// HandleAnnouncementRequested posts an announcement to its channel.
	HandleAnnouncementRequested(ctx context.Context, payload *kothservice.Announcement) error
}
