package kothdiscord

import (
	"context"
	"fmt"
	"sync"

	kothdomain "github.com/Black-And-White-Club/koth-bot/app/modules/koth/domain"
	kothservice "github.com/Black-And-White-Club/koth-bot/app/modules/koth/application"
	sharedtypes "github.com/Black-And-White-Club/koth-bot/app/shared/types"
	"github.com/bwmarrin/discordgo"
)

// ------------------------
// Fake Session
// ------------------------

type FakeSession struct {
	mu    sync.Mutex
	trace []string
	next  int

	Sent      []*discordgo.MessageSend
	Edits     []*discordgo.MessageEdit
	Responses []*discordgo.InteractionResponse
	Followups []*discordgo.WebhookEdit
	Removed   []string
	Members   []*discordgo.Member
	Commands  []*discordgo.ApplicationCommand

	SendErr   error
	EditErr   error
	DeleteErr error
}

func (f *FakeSession) record(step string) {
	f.trace = append(f.trace, step)
}

func (f *FakeSession) Trace() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.trace))
	copy(out, f.trace)
	return out
}

func (f *FakeSession) ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend, options ...discordgo.RequestOption) (*discordgo.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("ChannelMessageSendComplex")
	if f.SendErr != nil {
		return nil, f.SendErr
	}
	f.next++
	f.Sent = append(f.Sent, data)
	return &discordgo.Message{ID: fmt.Sprintf("m%d", f.next), ChannelID: channelID}, nil
}

func (f *FakeSession) ChannelMessageEditComplex(m *discordgo.MessageEdit, options ...discordgo.RequestOption) (*discordgo.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("ChannelMessageEditComplex")
	if f.EditErr != nil {
		return nil, f.EditErr
	}
	f.Edits = append(f.Edits, m)
	return &discordgo.Message{ID: m.ID, ChannelID: m.Channel}, nil
}

func (f *FakeSession) ChannelMessageDelete(channelID, messageID string, options ...discordgo.RequestOption) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("ChannelMessageDelete")
	return f.DeleteErr
}

func (f *FakeSession) MessageReactionAdd(channelID, messageID, emojiID string, options ...discordgo.RequestOption) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("MessageReactionAdd")
	return nil
}

func (f *FakeSession) GuildMemberRoleAdd(guildID, userID, roleID string, options ...discordgo.RequestOption) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("GuildMemberRoleAdd")
	return nil
}

func (f *FakeSession) GuildMemberRoleRemove(guildID, userID, roleID string, options ...discordgo.RequestOption) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("GuildMemberRoleRemove")
	f.Removed = append(f.Removed, userID)
	return nil
}

func (f *FakeSession) GuildMembers(guildID string, after string, limit int, options ...discordgo.RequestOption) ([]*discordgo.Member, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("GuildMembers")
	var page []*discordgo.Member
	started := after == ""
	for _, m := range f.Members {
		if started && len(page) < limit {
			page = append(page, m)
		}
		if m.User.ID == after {
			started = true
		}
	}
	return page, nil
}

func (f *FakeSession) UserChannelCreate(recipientID string, options ...discordgo.RequestOption) (*discordgo.Channel, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("UserChannelCreate")
	return &discordgo.Channel{ID: "dm-" + recipientID}, nil
}

func (f *FakeSession) InteractionRespond(interaction *discordgo.Interaction, resp *discordgo.InteractionResponse, options ...discordgo.RequestOption) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("InteractionRespond")
	f.Responses = append(f.Responses, resp)
	return nil
}

func (f *FakeSession) InteractionResponseEdit(interaction *discordgo.Interaction, newresp *discordgo.WebhookEdit, options ...discordgo.RequestOption) (*discordgo.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("InteractionResponseEdit")
	f.Followups = append(f.Followups, newresp)
	return &discordgo.Message{}, nil
}

func (f *FakeSession) ApplicationCommandCreate(appID string, guildID string, cmd *discordgo.ApplicationCommand, options ...discordgo.RequestOption) (*discordgo.ApplicationCommand, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("ApplicationCommandCreate")
	f.Commands = append(f.Commands, cmd)
	return cmd, nil
}

var _ Session = (*FakeSession)(nil)

// ------------------------
// Fake Service
// ------------------------

type call struct {
	Method  string
	GuildID sharedtypes.GuildID
	Actor   kothdomain.Actor
	Ref     string
}

// FakeService records which service operation the gateway picked. Methods
// not listed panic through the nil embedded interface.
type FakeService struct {
	kothservice.Service
	Calls  []call
	Result kothservice.Notice
	Err    error

	Messages []kothservice.IncomingMessage
}

func (f *FakeService) called(method string, guildID sharedtypes.GuildID, actor kothdomain.Actor, ref string) (kothservice.Notice, error) {
	f.Calls = append(f.Calls, call{Method: method, GuildID: guildID, Actor: actor, Ref: ref})
	return f.Result, f.Err
}

func (f *FakeService) HandleMessage(ctx context.Context, msg kothservice.IncomingMessage) (kothdomain.Classification, error) {
	f.Messages = append(f.Messages, msg)
	return kothdomain.ClassRegular, f.Err
}

func (f *FakeService) SetupPanel(ctx context.Context, guildID sharedtypes.GuildID, actor kothdomain.Actor) (kothservice.Notice, error) {
	return f.called("SetupPanel", guildID, actor, "")
}

func (f *FakeService) StartSession(ctx context.Context, guildID sharedtypes.GuildID, actor kothdomain.Actor) (kothservice.Notice, error) {
	return f.called("StartSession", guildID, actor, "")
}

func (f *FakeService) StartSubmissions(ctx context.Context, guildID sharedtypes.GuildID, actor kothdomain.Actor) (kothservice.Notice, error) {
	return f.called("StartSubmissions", guildID, actor, "")
}

func (f *FakeService) StopSession(ctx context.Context, guildID sharedtypes.GuildID, actor kothdomain.Actor) (kothservice.Notice, error) {
	return f.called("StopSession", guildID, actor, "")
}

func (f *FakeService) StopSubmissions(ctx context.Context, guildID sharedtypes.GuildID, actor kothdomain.Actor) (kothservice.Notice, error) {
	return f.called("StopSubmissions", guildID, actor, "")
}

func (f *FakeService) AdvanceQueue(ctx context.Context, guildID sharedtypes.GuildID, actor kothdomain.Actor) (kothservice.Notice, error) {
	return f.called("AdvanceQueue", guildID, actor, "")
}

func (f *FakeService) PlayQueue(ctx context.Context, guildID sharedtypes.GuildID, actor kothdomain.Actor) (kothservice.Notice, error) {
	return f.called("PlayQueue", guildID, actor, "")
}

func (f *FakeService) ViewStats(ctx context.Context, guildID sharedtypes.GuildID, actor kothdomain.Actor) (kothservice.Notice, error) {
	return f.called("ViewStats", guildID, actor, "")
}

func (f *FakeService) ViewKothStats(ctx context.Context, guildID sharedtypes.GuildID, actor kothdomain.Actor) (kothservice.Notice, error) {
	return f.called("ViewKothStats", guildID, actor, "")
}

func (f *FakeService) SwitchMode(ctx context.Context, guildID sharedtypes.GuildID, actor kothdomain.Actor) (kothservice.Notice, error) {
	return f.called("SwitchMode", guildID, actor, "")
}

func (f *FakeService) CancelTiebreaker(ctx context.Context, guildID sharedtypes.GuildID, actor kothdomain.Actor) (kothservice.Notice, error) {
	return f.called("CancelTiebreaker", guildID, actor, "")
}

func (f *FakeService) ResolveVote(ctx context.Context, guildID sharedtypes.GuildID, actor kothdomain.Actor, battleID string, side kothdomain.Side) (kothservice.Notice, error) {
	return f.called("ResolveVote:"+string(side), guildID, actor, battleID)
}

func (f *FakeService) MarkReviewed(ctx context.Context, guildID sharedtypes.GuildID, actor kothdomain.Actor, submissionID int64, card kothservice.MessageRef) (kothservice.Notice, error) {
	return f.called("MarkReviewed", guildID, actor, fmt.Sprintf("%d@%s", submissionID, card.MessageID))
}
