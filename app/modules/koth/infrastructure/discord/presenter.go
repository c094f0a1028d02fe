package kothdiscord

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	kothdomain "github.com/Black-And-White-Club/koth-bot/app/modules/koth/domain"
	kothservice "github.com/Black-And-White-Club/koth-bot/app/modules/koth/application"
	"github.com/Black-And-White-Club/koth-bot/app/shared/observability/attr"
	sharedtypes "github.com/Black-And-White-Club/koth-bot/app/shared/types"
	"github.com/bwmarrin/discordgo"
	"golang.org/x/time/rate"
)

// Session is the part of *discordgo.Session the bot uses.
type Session interface {
	ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend, options ...discordgo.RequestOption) (*discordgo.Message, error)
	ChannelMessageEditComplex(m *discordgo.MessageEdit, options ...discordgo.RequestOption) (*discordgo.Message, error)
	ChannelMessageDelete(channelID, messageID string, options ...discordgo.RequestOption) error
	MessageReactionAdd(channelID, messageID, emojiID string, options ...discordgo.RequestOption) error
	GuildMemberRoleAdd(guildID, userID, roleID string, options ...discordgo.RequestOption) error
	GuildMemberRoleRemove(guildID, userID, roleID string, options ...discordgo.RequestOption) error
	GuildMembers(guildID string, after string, limit int, options ...discordgo.RequestOption) ([]*discordgo.Member, error)
	UserChannelCreate(recipientID string, options ...discordgo.RequestOption) (*discordgo.Channel, error)
	InteractionRespond(interaction *discordgo.Interaction, resp *discordgo.InteractionResponse, options ...discordgo.RequestOption) error
	InteractionResponseEdit(interaction *discordgo.Interaction, newresp *discordgo.WebhookEdit, options ...discordgo.RequestOption) (*discordgo.Message, error)
	ApplicationCommandCreate(appID string, guildID string, cmd *discordgo.ApplicationCommand, options ...discordgo.RequestOption) (*discordgo.ApplicationCommand, error)
}

var _ Session = (*discordgo.Session)(nil)

const memberPageSize = 1000

// Presenter renders cards as Discord embeds with button rows.
type Presenter struct {
	session Session
	logger  *slog.Logger

	editInterval time.Duration
	mu           sync.Mutex
	limiters     map[sharedtypes.ChannelID]*rate.Limiter
}

var _ kothservice.Presenter = (*Presenter)(nil)

// NewPresenter creates a Presenter. Edits to messages in one channel are
// spaced at least editInterval apart.
func NewPresenter(session Session, logger *slog.Logger, editInterval time.Duration) *Presenter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Presenter{
		session:      session,
		logger:       logger,
		editInterval: editInterval,
		limiters:     make(map[sharedtypes.ChannelID]*rate.Limiter),
	}
}

func (p *Presenter) limiter(channelID sharedtypes.ChannelID) *rate.Limiter {
	p.mu.Lock()
	defer p.mu.Unlock()
	l, ok := p.limiters[channelID]
	if !ok {
		limit := rate.Inf
		if p.editInterval > 0 {
			limit = rate.Every(p.editInterval)
		}
		l = rate.NewLimiter(limit, 1)
		p.limiters[channelID] = l
	}
	return l
}

// Embed converts a card to a Discord embed.
func Embed(card kothdomain.Card) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Title:       card.Title,
		Description: card.Description,
		Color:       card.Color,
	}
	for _, f := range card.Fields {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{Name: f.Name, Value: f.Value, Inline: f.Inline})
	}
	return embed
}

// Components lays a card's actions out in rows of five buttons.
func Components(card kothdomain.Card) []discordgo.MessageComponent {
	components := []discordgo.MessageComponent{}
	var row []discordgo.MessageComponent
	for _, a := range card.Actions {
		row = append(row, discordgo.Button{
			Label:    a.Label,
			Style:    buttonStyle(a.Style),
			CustomID: EncodeCustomID(a),
		})
		if len(row) == 5 {
			components = append(components, discordgo.ActionsRow{Components: row})
			row = nil
		}
	}
	if len(row) > 0 {
		components = append(components, discordgo.ActionsRow{Components: row})
	}
	return components
}

func buttonStyle(s kothdomain.ActionStyle) discordgo.ButtonStyle {
	switch s {
	case kothdomain.StylePrimary:
		return discordgo.PrimaryButton
	case kothdomain.StyleSuccess:
		return discordgo.SuccessButton
	case kothdomain.StyleDanger:
		return discordgo.DangerButton
	default:
		return discordgo.SecondaryButton
	}
}

// notFound maps Discord's 404 onto the service's sentinel.
func notFound(err error) error {
	var restErr *discordgo.RESTError
	if errors.As(err, &restErr) && restErr.Response != nil && restErr.Response.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%w: %v", kothservice.ErrMessageNotFound, err)
	}
	return err
}

func (p *Presenter) SendCard(ctx context.Context, channelID sharedtypes.ChannelID, card kothdomain.Card) (sharedtypes.MessageID, error) {
	msg, err := p.session.ChannelMessageSendComplex(string(channelID), &discordgo.MessageSend{
		Embeds:     []*discordgo.MessageEmbed{Embed(card)},
		Components: Components(card),
	}, discordgo.WithContext(ctx))
	if err != nil {
		return "", fmt.Errorf("kothdiscord.SendCard: %w", notFound(err))
	}
	return sharedtypes.MessageID(msg.ID), nil
}

func (p *Presenter) SendText(ctx context.Context, channelID sharedtypes.ChannelID, content string) (sharedtypes.MessageID, error) {
	msg, err := p.session.ChannelMessageSendComplex(string(channelID), &discordgo.MessageSend{
		Content:         content,
		AllowedMentions: &discordgo.MessageAllowedMentions{Parse: []discordgo.AllowedMentionType{discordgo.AllowedMentionTypeUsers, discordgo.AllowedMentionTypeEveryone}},
	}, discordgo.WithContext(ctx))
	if err != nil {
		return "", fmt.Errorf("kothdiscord.SendText: %w", notFound(err))
	}
	return sharedtypes.MessageID(msg.ID), nil
}

// EditCard replaces a message's embed and buttons, waiting out the channel's
// edit limiter first.
func (p *Presenter) EditCard(ctx context.Context, channelID sharedtypes.ChannelID, messageID sharedtypes.MessageID, card kothdomain.Card) error {
	if err := p.limiter(channelID).Wait(ctx); err != nil {
		return fmt.Errorf("kothdiscord.EditCard: %w", err)
	}
	embeds := []*discordgo.MessageEmbed{Embed(card)}
	components := Components(card)
	edit := discordgo.NewMessageEdit(string(channelID), string(messageID))
	edit.Embeds = &embeds
	edit.Components = &components
	if _, err := p.session.ChannelMessageEditComplex(edit, discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("kothdiscord.EditCard: %w", notFound(err))
	}
	return nil
}

func (p *Presenter) DeleteMessage(ctx context.Context, channelID sharedtypes.ChannelID, messageID sharedtypes.MessageID) error {
	if err := p.session.ChannelMessageDelete(string(channelID), string(messageID), discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("kothdiscord.DeleteMessage: %w", notFound(err))
	}
	return nil
}

func (p *Presenter) AddReaction(ctx context.Context, channelID sharedtypes.ChannelID, messageID sharedtypes.MessageID, emoji string) error {
	if err := p.session.MessageReactionAdd(string(channelID), string(messageID), emoji, discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("kothdiscord.AddReaction: %w", notFound(err))
	}
	return nil
}

func (p *Presenter) AddRole(ctx context.Context, guildID sharedtypes.GuildID, userID sharedtypes.DiscordID, roleID sharedtypes.RoleID, reason string) error {
	err := p.session.GuildMemberRoleAdd(string(guildID), string(userID), string(roleID),
		discordgo.WithContext(ctx), discordgo.WithAuditLogReason(reason))
	if err != nil {
		return fmt.Errorf("kothdiscord.AddRole: %w", err)
	}
	return nil
}

// RemoveRoleFromAll strips a role from every member holding it. Members that
// cannot be updated are logged and skipped.
func (p *Presenter) RemoveRoleFromAll(ctx context.Context, guildID sharedtypes.GuildID, roleID sharedtypes.RoleID, reason string) error {
	after := ""
	for {
		members, err := p.session.GuildMembers(string(guildID), after, memberPageSize, discordgo.WithContext(ctx))
		if err != nil {
			return fmt.Errorf("kothdiscord.RemoveRoleFromAll: list members: %w", err)
		}
		for _, m := range members {
			if m.User == nil || !hasRole(m.Roles, string(roleID)) {
				continue
			}
			err := p.session.GuildMemberRoleRemove(string(guildID), m.User.ID, string(roleID),
				discordgo.WithContext(ctx), discordgo.WithAuditLogReason(reason))
			if err != nil {
				p.logger.WarnContext(ctx, "Failed to remove role",
					attr.GuildID(guildID),
					attr.UserID(m.User.ID),
					attr.String("role_id", string(roleID)),
					attr.Error(err),
				)
			}
		}
		if len(members) < memberPageSize {
			return nil
		}
		last := members[len(members)-1]
		if last.User == nil {
			return nil
		}
		after = last.User.ID
	}
}

func hasRole(roles []string, roleID string) bool {
	for _, r := range roles {
		if r == roleID {
			return true
		}
	}
	return false
}

func (p *Presenter) DirectMessage(ctx context.Context, userID sharedtypes.DiscordID, content string) error {
	ch, err := p.session.UserChannelCreate(string(userID), discordgo.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("kothdiscord.DirectMessage: open channel: %w", err)
	}
	if _, err := p.session.ChannelMessageSendComplex(ch.ID, &discordgo.MessageSend{Content: content}, discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("kothdiscord.DirectMessage: %w", err)
	}
	return nil
}
