package kothservice

import (
	"context"
	"errors"
	"fmt"

	kothdomain "github.com/Black-And-White-Club/koth-bot/app/modules/koth/domain"
	kothdb "github.com/Black-And-White-Club/koth-bot/app/modules/koth/infrastructure/repositories"
	"github.com/Black-And-White-Club/koth-bot/app/shared/observability/attr"
	"github.com/Black-And-White-Club/koth-bot/app/shared/results"
	sharedtypes "github.com/Black-And-White-Club/koth-bot/app/shared/types"
	"github.com/uptrace/bun"
)

// panelState gathers what the panel shows for a guild.
func (s *KothService) panelState(ctx context.Context, db bun.IDB, settings *kothdb.GuildSettings) (kothdomain.PanelState, error) {
	status := settings.Status()
	queueType := kothdomain.SubmissionRegular
	if status.IsKoth() {
		queueType = kothdomain.SubmissionKoth
	}
	size, err := s.repo.CountSubmissions(ctx, db, kothdb.SubmissionFilter{
		GuildID: settings.GuildID,
		Type:    queueType,
		Status:  kothdomain.SubmissionPending,
	})
	if err != nil {
		return kothdomain.PanelState{}, fmt.Errorf("failed to count queue: %w", err)
	}

	state := kothdomain.PanelState{
		Status:          status,
		QueueSize:       size,
		King:            settings.KothKingID,
		TiebreakerUsers: settings.TiebreakerUsers(),
	}
	if status == kothdomain.StatusKothOpen {
		state.Standings = s.scoreboard.Standings(settings.GuildID)
	}
	return state, nil
}

// RenderPanel returns the panel card for the guild's current state.
func (s *KothService) RenderPanel(ctx context.Context, guildID sharedtypes.GuildID) (kothdomain.Card, error) {
	settings, err := s.loadSettings(ctx, s.liveDB(), guildID)
	if err != nil {
		return kothdomain.Card{}, err
	}
	state, err := s.panelState(ctx, s.liveDB(), settings)
	if err != nil {
		return kothdomain.Card{}, err
	}
	return kothdomain.RenderPanel(state), nil
}

// RefreshPanel re-renders the guild's panel in place. Renders for one guild
// never overlap. A panel that was deleted is logged and left alone.
func (s *KothService) RefreshPanel(ctx context.Context, guildID sharedtypes.GuildID) error {
	unlock := s.panelLocks.Lock(guildID)
	defer unlock()

	settings, err := s.loadSettings(ctx, s.liveDB(), guildID)
	if err != nil {
		return err
	}
	if settings.ReviewChannelID == "" || settings.ReviewPanelMessageID == "" {
		s.logger.DebugContext(ctx, "No panel configured, skipping refresh", attr.GuildID(guildID))
		s.metrics.RecordPanelRefresh(ctx, "skipped")
		return nil
	}

	state, err := s.panelState(ctx, s.liveDB(), settings)
	if err != nil {
		return err
	}

	err = s.presenter.EditCard(ctx, settings.ReviewChannelID, settings.ReviewPanelMessageID, kothdomain.RenderPanel(state))
	switch {
	case errors.Is(err, ErrMessageNotFound):
		s.logger.WarnContext(ctx, "Panel message is gone, run the setup command again",
			attr.GuildID(guildID),
			attr.String("message_id", string(settings.ReviewPanelMessageID)),
		)
		s.metrics.RecordPanelRefresh(ctx, "missing")
		return nil
	case err != nil:
		s.metrics.RecordPanelRefresh(ctx, "error")
		return fmt.Errorf("failed to edit panel: %w", err)
	}
	s.metrics.RecordPanelRefresh(ctx, "ok")
	return nil
}

// refreshPanel is RefreshPanel for callers that already replied to the member.
func (s *KothService) refreshPanel(ctx context.Context, guildID sharedtypes.GuildID) {
	if err := s.RefreshPanel(ctx, guildID); err != nil {
		s.logger.ErrorContext(ctx, "Failed to refresh panel",
			attr.ExtractCorrelationID(ctx),
			attr.GuildID(guildID),
			attr.Error(err),
		)
	}
}

// SetupPanel posts a fresh panel in the review channel and records it. The
// contest status is left as it was.
func (s *KothService) SetupPanel(ctx context.Context, guildID sharedtypes.GuildID, actor kothdomain.Actor) (Notice, error) {
	return s.notice(ctx, "SetupPanel", guildID, func(ctx context.Context) (results.OperationResult[Notice, Rejection], error) {
		unlock := s.panelLocks.Lock(guildID)
		defer unlock()

		settings, err := s.loadSettings(ctx, s.liveDB(), guildID)
		if err != nil {
			return infraError("failed to load settings: %w", err)
		}
		if !authorized(settings, actor, kothdomain.LevelAdmin) {
			return failure(rejectAdminOnly)
		}
		if settings.ReviewChannelID == "" {
			return failure(reject(ErrConfigurationMissing, "❌ Please set a review channel before creating the panel."))
		}

		if settings.ReviewPanelMessageID != "" {
			err := s.presenter.DeleteMessage(ctx, settings.ReviewChannelID, settings.ReviewPanelMessageID)
			if err != nil && !errors.Is(err, ErrMessageNotFound) {
				s.logger.WarnContext(ctx, "Failed to delete previous panel", attr.GuildID(guildID), attr.Error(err))
			}
		}

		state, err := s.panelState(ctx, s.liveDB(), settings)
		if err != nil {
			return infraError("failed to build panel: %w", err)
		}
		messageID, err := s.presenter.SendCard(ctx, settings.ReviewChannelID, kothdomain.RenderPanel(state))
		if err != nil {
			return infraError("failed to post panel: %w", err)
		}
		if err := s.repo.UpdateSettings(ctx, s.liveDB(), guildID, kothdb.SettingsUpdate{ReviewPanelMessageID: &messageID}); err != nil {
			return infraError("failed to save panel message: %w", err)
		}
		return success(fmt.Sprintf("✅ Panel created in <#%s>.", settings.ReviewChannelID))
	})
}
