package kothservice

import (
	"context"
	"errors"
	"io"

	kothdomain "github.com/Black-And-White-Club/koth-bot/app/modules/koth/domain"
	kothdb "github.com/Black-And-White-Club/koth-bot/app/modules/koth/infrastructure/repositories"
	sharedtypes "github.com/Black-And-White-Club/koth-bot/app/shared/types"
)

// Service is the KOTH contest engine plus the regular review queue.
type Service interface {
	// Inbound messages
	HandleMessage(ctx context.Context, msg IncomingMessage) (kothdomain.Classification, error)

	// Queue primitives
	Enqueue(ctx context.Context, guildID sharedtypes.GuildID, userID sharedtypes.DiscordID, trackURL string, subType kothdomain.SubmissionType) (int64, error)
	DequeueNext(ctx context.Context, guildID sharedtypes.GuildID, subType kothdomain.SubmissionType) (*kothdb.Submission, error)
	Prioritize(ctx context.Context, submissionID int64) error

	// KOTH mode
	AdvanceQueue(ctx context.Context, guildID sharedtypes.GuildID, actor kothdomain.Actor) (Notice, error)
	ResolveVote(ctx context.Context, guildID sharedtypes.GuildID, actor kothdomain.Actor, battleID string, side kothdomain.Side) (Notice, error)
	StartSession(ctx context.Context, guildID sharedtypes.GuildID, actor kothdomain.Actor) (Notice, error)
	StopSession(ctx context.Context, guildID sharedtypes.GuildID, actor kothdomain.Actor) (Notice, error)
	CancelTiebreaker(ctx context.Context, guildID sharedtypes.GuildID, actor kothdomain.Actor) (Notice, error)
	ViewKothStats(ctx context.Context, guildID sharedtypes.GuildID, actor kothdomain.Actor) (Notice, error)

	// Regular mode
	StartSubmissions(ctx context.Context, guildID sharedtypes.GuildID, actor kothdomain.Actor) (Notice, error)
	StopSubmissions(ctx context.Context, guildID sharedtypes.GuildID, actor kothdomain.Actor) (Notice, error)
	PlayQueue(ctx context.Context, guildID sharedtypes.GuildID, actor kothdomain.Actor) (Notice, error)
	MarkReviewed(ctx context.Context, guildID sharedtypes.GuildID, actor kothdomain.Actor, submissionID int64, card MessageRef) (Notice, error)
	ViewStats(ctx context.Context, guildID sharedtypes.GuildID, actor kothdomain.Actor) (Notice, error)
	SwitchMode(ctx context.Context, guildID sharedtypes.GuildID, actor kothdomain.Actor) (Notice, error)

	// Panel
	SetupPanel(ctx context.Context, guildID sharedtypes.GuildID, actor kothdomain.Actor) (Notice, error)
	RefreshPanel(ctx context.Context, guildID sharedtypes.GuildID) error
	RenderPanel(ctx context.Context, guildID sharedtypes.GuildID) (kothdomain.Card, error)

	// Reporting
	ExportLeaderboard(ctx context.Context, guildID sharedtypes.GuildID, w io.Writer) error
}

// ErrMessageNotFound is returned by a Presenter when the target message or
// channel no longer exists.
var ErrMessageNotFound = errors.New("message not found")

// Presenter renders cards on the chat platform.
type Presenter interface {
	SendCard(ctx context.Context, channelID sharedtypes.ChannelID, card kothdomain.Card) (sharedtypes.MessageID, error)
	SendText(ctx context.Context, channelID sharedtypes.ChannelID, content string) (sharedtypes.MessageID, error)
	EditCard(ctx context.Context, channelID sharedtypes.ChannelID, messageID sharedtypes.MessageID, card kothdomain.Card) error
	DeleteMessage(ctx context.Context, channelID sharedtypes.ChannelID, messageID sharedtypes.MessageID) error
	AddReaction(ctx context.Context, channelID sharedtypes.ChannelID, messageID sharedtypes.MessageID, emoji string) error
	AddRole(ctx context.Context, guildID sharedtypes.GuildID, userID sharedtypes.DiscordID, roleID sharedtypes.RoleID, reason string) error
	RemoveRoleFromAll(ctx context.Context, guildID sharedtypes.GuildID, roleID sharedtypes.RoleID, reason string) error
	DirectMessage(ctx context.Context, userID sharedtypes.DiscordID, content string) error
}

// Announcement is a fire-and-forget public post.
type Announcement struct {
	GuildID   sharedtypes.GuildID   `json:"guild_id"`
	ChannelID sharedtypes.ChannelID `json:"channel_id"`
	Content   string                `json:"content,omitempty"`
	Card      *kothdomain.Card      `json:"card,omitempty"`
}

// Announcer delivers announcements asynchronously. Delivery failures are the
// announcer's to log.
type Announcer interface {
	Announce(ctx context.Context, a Announcement) error
}

// IncomingMessage is a guild message that may carry a submission.
type IncomingMessage struct {
	GuildID     sharedtypes.GuildID
	ChannelID   sharedtypes.ChannelID
	MessageID   sharedtypes.MessageID
	AuthorID    sharedtypes.DiscordID
	GuildName   string
	Attachments []kothdomain.Attachment
}

// MessageRef points at a posted message.
type MessageRef struct {
	ChannelID sharedtypes.ChannelID
	MessageID sharedtypes.MessageID
}

// Notice is the private reply shown to the member who triggered an action.
type Notice struct {
	Message string
	Card    *kothdomain.Card
}
