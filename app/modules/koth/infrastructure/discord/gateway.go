package kothdiscord

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	kothdomain "github.com/Black-And-White-Club/koth-bot/app/modules/koth/domain"
	kothservice "github.com/Black-And-White-Club/koth-bot/app/modules/koth/application"
	"github.com/Black-And-White-Club/koth-bot/app/shared/observability/attr"
	sharedtypes "github.com/Black-And-White-Club/koth-bot/app/shared/types"
	"github.com/bwmarrin/discordgo"
)

// SetupCommandName is the slash command that (re)creates the panel.
const SetupCommandName = "setup_submission_panel"

const genericFailure = "❌ Something went wrong. Please try again."

// request is a decoded interaction.
type request struct {
	GuildID sharedtypes.GuildID
	Actor   kothdomain.Actor
	Ref     string
	Message kothservice.MessageRef
}

type actionHandler func(ctx context.Context, req request) (kothservice.Notice, error)

// Gateway turns Discord gateway events into service calls.
type Gateway struct {
	service kothservice.Service
	session Session
	logger  *slog.Logger
	routes  map[kothdomain.ActionTag]actionHandler
}

// NewGateway creates a Gateway.
func NewGateway(service kothservice.Service, session Session, logger *slog.Logger) *Gateway {
	if logger == nil {
		logger = slog.Default()
	}
	g := &Gateway{service: service, session: session, logger: logger}
	g.routes = map[kothdomain.ActionTag]actionHandler{
		kothdomain.ActionStart:            g.start,
		kothdomain.ActionStop:             g.stop,
		kothdomain.ActionAdvanceQueue:     g.advance,
		kothdomain.ActionViewStats:        g.viewStats,
		kothdomain.ActionViewKothStats:    g.viewKothStats,
		kothdomain.ActionSwitchMode:       g.switchMode,
		kothdomain.ActionCancelTiebreaker: g.cancelTiebreaker,
		kothdomain.ActionVoteChampion:     g.vote(kothdomain.SideChampion),
		kothdomain.ActionVoteChallenger:   g.vote(kothdomain.SideChallenger),
		kothdomain.ActionMarkReviewed:     g.markReviewed,
	}
	return g
}

// Commands lists the slash commands the gateway answers.
func Commands() []*discordgo.ApplicationCommand {
	adminOnly := int64(discordgo.PermissionAdministrator)
	return []*discordgo.ApplicationCommand{
		{
			Name:                     SetupCommandName,
			Description:              "Create or move the music submission control panel to the review channel.",
			DefaultMemberPermissions: &adminOnly,
		},
	}
}

// RegisterCommands creates the slash commands for the application. An empty
// guildID registers them globally.
func (g *Gateway) RegisterCommands(ctx context.Context, appID, guildID string) error {
	for _, cmd := range Commands() {
		if _, err := g.session.ApplicationCommandCreate(appID, guildID, cmd, discordgo.WithContext(ctx)); err != nil {
			return fmt.Errorf("kothdiscord.RegisterCommands: %s: %w", cmd.Name, err)
		}
	}
	return nil
}

// OnMessageCreate is the discordgo handler for new messages.
func (g *Gateway) OnMessageCreate(s *discordgo.Session, m *discordgo.MessageCreate) {
	guildName := ""
	if s != nil && s.State != nil {
		if guild, err := s.State.Guild(m.GuildID); err == nil {
			guildName = guild.Name
		}
	}
	g.HandleMessage(context.Background(), m.Message, guildName)
}

// HandleMessage forwards a guild message with attachments to the service.
func (g *Gateway) HandleMessage(ctx context.Context, m *discordgo.Message, guildName string) {
	if m == nil || m.Author == nil || m.Author.Bot || m.GuildID == "" || len(m.Attachments) == 0 {
		return
	}
	ctx = attr.WithCorrelationID(ctx, m.ID)

	attachments := make([]kothdomain.Attachment, 0, len(m.Attachments))
	for _, a := range m.Attachments {
		attachments = append(attachments, kothdomain.Attachment{URL: a.URL, ContentType: a.ContentType})
	}

	class, err := g.service.HandleMessage(ctx, kothservice.IncomingMessage{
		GuildID:     sharedtypes.GuildID(m.GuildID),
		ChannelID:   sharedtypes.ChannelID(m.ChannelID),
		MessageID:   sharedtypes.MessageID(m.ID),
		AuthorID:    sharedtypes.DiscordID(m.Author.ID),
		GuildName:   guildName,
		Attachments: attachments,
	})
	if err != nil {
		g.logger.ErrorContext(ctx, "Failed to handle submission",
			attr.ExtractCorrelationID(ctx),
			attr.GuildID(m.GuildID),
			attr.UserID(m.Author.ID),
			attr.Error(err),
		)
		return
	}
	if class != kothdomain.ClassIgnore {
		g.logger.InfoContext(ctx, "Submission accepted",
			attr.ExtractCorrelationID(ctx),
			attr.GuildID(m.GuildID),
			attr.UserID(m.Author.ID),
			attr.String("classification", string(class)),
		)
	}
}

// OnInteractionCreate is the discordgo handler for commands and buttons.
func (g *Gateway) OnInteractionCreate(_ *discordgo.Session, i *discordgo.InteractionCreate) {
	g.HandleInteraction(context.Background(), i.Interaction)
}

// HandleInteraction acknowledges an interaction privately, runs the matching
// action and edits the acknowledgement with the outcome.
func (g *Gateway) HandleInteraction(ctx context.Context, i *discordgo.Interaction) {
	ctx = attr.WithCorrelationID(ctx, i.ID)

	var (
		handler actionHandler
		ref     string
	)
	switch i.Type {
	case discordgo.InteractionApplicationCommand:
		if i.ApplicationCommandData().Name != SetupCommandName {
			return
		}
		handler = g.setupPanel
	case discordgo.InteractionMessageComponent:
		tag, r, err := DecodeCustomID(i.MessageComponentData().CustomID)
		if err != nil {
			return
		}
		h, ok := g.routes[tag]
		if !ok {
			g.respond(ctx, i, "⚠️ Unknown action.")
			return
		}
		handler, ref = h, r
	default:
		return
	}

	if i.GuildID == "" || i.Member == nil || i.Member.User == nil {
		g.respond(ctx, i, "❌ This only works inside a server.")
		return
	}

	if err := g.session.InteractionRespond(i, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{Flags: discordgo.MessageFlagsEphemeral},
	}, discordgo.WithContext(ctx)); err != nil {
		g.logger.ErrorContext(ctx, "Failed to acknowledge interaction", attr.ExtractCorrelationID(ctx), attr.Error(err))
		return
	}

	req := request{
		GuildID: sharedtypes.GuildID(i.GuildID),
		Actor:   ActorFromMember(i.Member),
		Ref:     ref,
	}
	if i.Message != nil {
		req.Message = kothservice.MessageRef{ChannelID: sharedtypes.ChannelID(i.ChannelID), MessageID: sharedtypes.MessageID(i.Message.ID)}
	}

	notice, err := handler(ctx, req)
	g.followUp(ctx, i, notice, err)
}

func (g *Gateway) respond(ctx context.Context, i *discordgo.Interaction, content string) {
	err := g.session.InteractionRespond(i, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{Content: content, Flags: discordgo.MessageFlagsEphemeral},
	}, discordgo.WithContext(ctx))
	if err != nil {
		g.logger.ErrorContext(ctx, "Failed to respond to interaction", attr.ExtractCorrelationID(ctx), attr.Error(err))
	}
}

func (g *Gateway) followUp(ctx context.Context, i *discordgo.Interaction, notice kothservice.Notice, err error) {
	content := notice.Message
	var embeds []*discordgo.MessageEmbed
	if notice.Card != nil {
		embeds = []*discordgo.MessageEmbed{Embed(*notice.Card)}
	}

	if err != nil {
		var rejection kothservice.Rejection
		if errors.As(err, &rejection) {
			content = rejection.Message
		} else {
			g.logger.ErrorContext(ctx, "Interaction failed",
				attr.ExtractCorrelationID(ctx),
				attr.GuildID(i.GuildID),
				attr.Error(err),
			)
			content = genericFailure
		}
		embeds = nil
	}

	edit := &discordgo.WebhookEdit{Content: &content}
	if embeds != nil {
		edit.Embeds = &embeds
	}
	if _, err := g.session.InteractionResponseEdit(i, edit, discordgo.WithContext(ctx)); err != nil {
		g.logger.ErrorContext(ctx, "Failed to edit interaction response", attr.ExtractCorrelationID(ctx), attr.Error(err))
	}
}

// ActorFromMember reads the invoking member's roles and permissions.
func ActorFromMember(m *discordgo.Member) kothdomain.Actor {
	actor := kothdomain.Actor{
		Administrator: m.Permissions&discordgo.PermissionAdministrator != 0,
	}
	if m.User != nil {
		actor.UserID = sharedtypes.DiscordID(m.User.ID)
	}
	for _, r := range m.Roles {
		actor.RoleIDs = append(actor.RoleIDs, sharedtypes.RoleID(r))
	}
	return actor
}

// koth reports whether a panel control was rendered for KOTH mode.
func koth(ref string) bool {
	return kothdomain.ParseStatus(ref).IsKoth()
}

func (g *Gateway) setupPanel(ctx context.Context, req request) (kothservice.Notice, error) {
	return g.service.SetupPanel(ctx, req.GuildID, req.Actor)
}

func (g *Gateway) start(ctx context.Context, req request) (kothservice.Notice, error) {
	if koth(req.Ref) {
		return g.service.StartSession(ctx, req.GuildID, req.Actor)
	}
	return g.service.StartSubmissions(ctx, req.GuildID, req.Actor)
}

func (g *Gateway) stop(ctx context.Context, req request) (kothservice.Notice, error) {
	if koth(req.Ref) {
		return g.service.StopSession(ctx, req.GuildID, req.Actor)
	}
	return g.service.StopSubmissions(ctx, req.GuildID, req.Actor)
}

func (g *Gateway) advance(ctx context.Context, req request) (kothservice.Notice, error) {
	if koth(req.Ref) {
		return g.service.AdvanceQueue(ctx, req.GuildID, req.Actor)
	}
	return g.service.PlayQueue(ctx, req.GuildID, req.Actor)
}

func (g *Gateway) viewStats(ctx context.Context, req request) (kothservice.Notice, error) {
	return g.service.ViewStats(ctx, req.GuildID, req.Actor)
}

func (g *Gateway) viewKothStats(ctx context.Context, req request) (kothservice.Notice, error) {
	return g.service.ViewKothStats(ctx, req.GuildID, req.Actor)
}

func (g *Gateway) switchMode(ctx context.Context, req request) (kothservice.Notice, error) {
	return g.service.SwitchMode(ctx, req.GuildID, req.Actor)
}

func (g *Gateway) cancelTiebreaker(ctx context.Context, req request) (kothservice.Notice, error) {
	return g.service.CancelTiebreaker(ctx, req.GuildID, req.Actor)
}

func (g *Gateway) vote(side kothdomain.Side) actionHandler {
	return func(ctx context.Context, req request) (kothservice.Notice, error) {
		return g.service.ResolveVote(ctx, req.GuildID, req.Actor, req.Ref, side)
	}
}

func (g *Gateway) markReviewed(ctx context.Context, req request) (kothservice.Notice, error) {
	id, err := strconv.ParseInt(req.Ref, 10, 64)
	if err != nil {
		return kothservice.Notice{Message: "⚠️ This review card is broken. Play the queue again."}, nil
	}
	return g.service.MarkReviewed(ctx, req.GuildID, req.Actor, id, req.Message)
}
