package kothhandlers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	kothservice "github.com/Black-And-White-Club/koth-bot/app/modules/koth/application"
	"github.com/Black-And-White-Club/koth-bot/app/shared/observability/attr"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// KothHandlers implements the Handlers interface.
type KothHandlers struct {
	presenter kothservice.Presenter
	logger    *slog.Logger
	tracer    trace.Tracer
}

// NewKothHandlers creates a new KothHandlers instance.
func NewKothHandlers(
	presenter kothservice.Presenter,
	logger *slog.Logger,
	tracer trace.Tracer,
) Handlers {
	return &KothHandlers{
		presenter: presenter,
		logger:    logger,
		tracer:    tracer,
	}
}

// HandleAnnouncementRequested sends the text first and the card after it.
// A channel that no longer exists drops the announcement.
func (h *KothHandlers) HandleAnnouncementRequested(ctx context.Context, payload *kothservice.Announcement) error {
	ctx, span := h.tracer.Start(ctx, "KothHandlers.HandleAnnouncementRequested")
	defer span.End()
	span.SetAttributes(
		attribute.String("guild_id", string(payload.GuildID)),
		attribute.String("channel_id", string(payload.ChannelID)),
	)

	if payload.ChannelID == "" || (payload.Content == "" && payload.Card == nil) {
		h.logger.WarnContext(ctx, "Dropping empty announcement",
			attr.ExtractCorrelationID(ctx),
			attr.GuildID(payload.GuildID),
		)
		return nil
	}

	err := h.send(ctx, payload)
	if errors.Is(err, kothservice.ErrMessageNotFound) {
		h.logger.WarnContext(ctx, "Announcement channel not found",
			attr.ExtractCorrelationID(ctx),
			attr.GuildID(payload.GuildID),
			attr.String("channel_id", string(payload.ChannelID)),
		)
		return nil
	}
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("kothhandlers.HandleAnnouncementRequested: %w", err)
	}

	h.logger.InfoContext(ctx, "Announcement posted",
		attr.ExtractCorrelationID(ctx),
		attr.GuildID(payload.GuildID),
		attr.String("channel_id", string(payload.ChannelID)),
	)
	return nil
}

func (h *KothHandlers) send(ctx context.Context, payload *kothservice.Announcement) error {
	if payload.Content != "" {
		if _, err := h.presenter.SendText(ctx, payload.ChannelID, payload.Content); err != nil {
			return err
		}
	}
	if payload.Card != nil {
		if _, err := h.presenter.SendCard(ctx, payload.ChannelID, *payload.Card); err != nil {
			return err
		}
	}
	return nil
}
