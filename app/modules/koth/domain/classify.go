package kothdomain

import (
	"strings"

	sharedtypes "github.com/Black-And-White-Club/koth-bot/app/shared/types"
)

// Attachment is a file attached to an incoming message.
type Attachment struct {
	URL         string
	ContentType string
}

// IsAudio reports whether the attachment is tagged as audio.
func (a Attachment) IsAudio() bool {
	return strings.HasPrefix(a.ContentType, "audio/")
}

// Classification is the routing decision for an incoming message.
type Classification string

const (
	ClassIgnore     Classification = "ignore"
	ClassRegular    Classification = "regular"
	ClassKoth       Classification = "koth"
	ClassTiebreaker Classification = "tiebreaker"
)

// IncomingMessage is what the classifier needs to know about a message.
type IncomingMessage struct {
	Status              Status
	ChannelID           sharedtypes.ChannelID
	SubmissionChannelID sharedtypes.ChannelID
	KothChannelID       sharedtypes.ChannelID
	AuthorID            sharedtypes.DiscordID
	TiebreakerUsers     []sharedtypes.DiscordID
	AlreadySubmitted    bool
	Attachments         []Attachment
}

// Classify routes a message by status, channel and sender. Only the first
// audio attachment is considered.
func Classify(msg IncomingMessage) (Classification, Attachment) {
	audio, ok := firstAudio(msg.Attachments)
	if !ok {
		return ClassIgnore, Attachment{}
	}

	switch msg.Status {
	case StatusOpen:
		if msg.SubmissionChannelID != "" && msg.ChannelID == msg.SubmissionChannelID {
			return ClassRegular, audio
		}
	case StatusKothOpen:
		if msg.KothChannelID != "" && msg.ChannelID == msg.KothChannelID {
			return ClassKoth, audio
		}
	case StatusKothTiebreaker:
		if msg.KothChannelID != "" && msg.ChannelID == msg.KothChannelID &&
			ContainsUser(msg.TiebreakerUsers, msg.AuthorID) && !msg.AlreadySubmitted {
			return ClassTiebreaker, audio
		}
	}
	return ClassIgnore, Attachment{}
}

func firstAudio(atts []Attachment) (Attachment, bool) {
	for _, a := range atts {
		if a.IsAudio() {
			return a, true
		}
	}
	return Attachment{}, false
}
