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

// StartSubmissions opens the regular submission queue.
func (s *KothService) StartSubmissions(ctx context.Context, guildID sharedtypes.GuildID, actor kothdomain.Actor) (Notice, error) {
	return s.notice(ctx, "StartSubmissions", guildID, func(ctx context.Context) (results.OperationResult[Notice, Rejection], error) {
		settings, err := s.loadSettings(ctx, s.liveDB(), guildID)
		if err != nil {
			return infraError("failed to load settings: %w", err)
		}
		if !authorized(settings, actor, kothdomain.LevelAdmin) {
			return failure(rejectAdminOnly)
		}
		if !settings.Status().CanTransitionTo(kothdomain.StatusOpen) {
			return failure(rejectStale)
		}
		if settings.SubmissionChannelID == "" {
			return failure(rejectNoSubChannel)
		}

		err = s.transition(ctx, s.liveDB(), settings, kothdomain.StatusOpen, kothdb.SettingsUpdate{})
		if staleTransition(err) {
			return failure(rejectStale)
		}
		if err != nil {
			return infraError("failed to open submissions: %w", err)
		}

		s.refreshPanel(ctx, guildID)
		s.announce(ctx, Announcement{
			GuildID:   guildID,
			ChannelID: settings.SubmissionChannelID,
			Content:   "@everyone Submissions are now **OPEN**! Send your audio files in this channel.",
		})
		return success("✅ Submissions are now open.")
	})
}

// StopSubmissions closes the regular queue and purges what was never played.
func (s *KothService) StopSubmissions(ctx context.Context, guildID sharedtypes.GuildID, actor kothdomain.Actor) (Notice, error) {
	return s.notice(ctx, "StopSubmissions", guildID, func(ctx context.Context) (results.OperationResult[Notice, Rejection], error) {
		var submissionChannel sharedtypes.ChannelID

		result, err := runInTx(s, ctx, func(ctx context.Context, db bun.IDB) (results.OperationResult[Notice, Rejection], error) {
			settings, err := s.loadSettings(ctx, db, guildID)
			if err != nil {
				return infraError("failed to load settings: %w", err)
			}
			if !authorized(settings, actor, kothdomain.LevelAdmin) {
				return failure(rejectAdminOnly)
			}
			if settings.Status() != kothdomain.StatusOpen {
				return failure(rejectStale)
			}
			submissionChannel = settings.SubmissionChannelID

			reviewed, err := s.repo.CountSubmissions(ctx, db, kothdb.SubmissionFilter{
				GuildID: guildID,
				Type:    kothdomain.SubmissionRegular,
				Status:  kothdomain.SubmissionReviewed,
			})
			if err != nil {
				return infraError("failed to count reviewed tracks: %w", err)
			}
			if _, err := s.repo.DeleteUnreviewedSubmissions(ctx, db, guildID, kothdomain.SubmissionRegular); err != nil {
				return infraError("failed to purge queue: %w", err)
			}
			err = s.transition(ctx, db, settings, kothdomain.StatusClosed, kothdb.SettingsUpdate{})
			if staleTransition(err) {
				return failure(rejectStale)
			}
			if err != nil {
				return infraError("failed to close submissions: %w", err)
			}
			return success(fmt.Sprintf("✅ Submissions closed. **%d** tracks have been reviewed in total.", reviewed))
		})
		if err != nil || !result.IsSuccess() {
			return result, err
		}

		s.refreshPanel(ctx, guildID)
		s.announce(ctx, Announcement{
			GuildID:   guildID,
			ChannelID: submissionChannel,
			Content:   "Submissions are now **CLOSED**. Thanks to everyone who sent a track!",
		})
		return result, nil
	})
}

// PlayQueue presents the head of the regular queue for review.
func (s *KothService) PlayQueue(ctx context.Context, guildID sharedtypes.GuildID, actor kothdomain.Actor) (Notice, error) {
	return s.notice(ctx, "PlayQueue", guildID, func(ctx context.Context) (results.OperationResult[Notice, Rejection], error) {
		played := false
		result, err := runInTx(s, ctx, func(ctx context.Context, db bun.IDB) (results.OperationResult[Notice, Rejection], error) {
			settings, err := s.loadSettings(ctx, db, guildID)
			if err != nil {
				return infraError("failed to load settings: %w", err)
			}
			if !authorized(settings, actor, kothdomain.LevelModerator) {
				return failure(rejectModOnly)
			}
			if settings.Status() != kothdomain.StatusOpen {
				return failure(rejectStale)
			}
			if settings.ReviewChannelID == "" {
				return failure(rejectNoReview)
			}

			sub, err := s.dequeueNext(ctx, db, guildID, kothdomain.SubmissionRegular, actor.UserID)
			if err != nil {
				return infraError("failed to dequeue: %w", err)
			}
			if sub == nil {
				return success("The submission queue is empty!")
			}
			if _, err := s.presenter.SendCard(ctx, settings.ReviewChannelID, kothdomain.ReviewCard(sub.ID, sub.UserID, sub.TrackURL)); err != nil {
				return infraError("failed to present track: %w", err)
			}
			played = true
			return success(fmt.Sprintf("🎵 Now reviewing a track from %s.", sub.UserID.Mention()))
		})
		if err == nil && played {
			s.refreshPanel(ctx, guildID)
		}
		return result, err
	})
}

// MarkReviewed finishes a played regular track and removes its card.
func (s *KothService) MarkReviewed(ctx context.Context, guildID sharedtypes.GuildID, actor kothdomain.Actor, submissionID int64, card MessageRef) (Notice, error) {
	return s.notice(ctx, "MarkReviewed", guildID, func(ctx context.Context) (results.OperationResult[Notice, Rejection], error) {
		settings, err := s.loadSettings(ctx, s.liveDB(), guildID)
		if err != nil {
			return infraError("failed to load settings: %w", err)
		}
		if !authorized(settings, actor, kothdomain.LevelModerator) {
			return failure(rejectModOnly)
		}

		sub, err := s.repo.GetSubmission(ctx, s.liveDB(), submissionID)
		if errors.Is(err, kothdb.ErrNotFound) || (err == nil && sub.GuildID != guildID) {
			return failure(reject(ErrInvalidState, "⚠️ This track is no longer in the queue."))
		}
		if err != nil {
			return infraError("failed to load submission: %w", err)
		}

		err = s.repo.UpdateSubmissionStatus(ctx, s.liveDB(), submissionID, kothdomain.SubmissionReviewed, actor.UserID)
		if errors.Is(err, kothdb.ErrNoRowsAffected) {
			return failure(reject(ErrInvalidState, "⚠️ This track has not been played yet."))
		}
		if err != nil {
			return infraError("failed to mark reviewed: %w", err)
		}

		if card.MessageID != "" {
			err := s.presenter.DeleteMessage(ctx, card.ChannelID, card.MessageID)
			if err != nil && !errors.Is(err, ErrMessageNotFound) {
				s.logger.WarnContext(ctx, "Failed to remove review card", attr.GuildID(guildID), attr.Error(err))
			}
		}
		s.refreshPanel(ctx, guildID)
		return success("✅ Marked as reviewed.")
	})
}

// SwitchMode flips a closed guild between regular and KOTH mode.
func (s *KothService) SwitchMode(ctx context.Context, guildID sharedtypes.GuildID, actor kothdomain.Actor) (Notice, error) {
	return s.notice(ctx, "SwitchMode", guildID, func(ctx context.Context) (results.OperationResult[Notice, Rejection], error) {
		settings, err := s.loadSettings(ctx, s.liveDB(), guildID)
		if err != nil {
			return infraError("failed to load settings: %w", err)
		}
		if !authorized(settings, actor, kothdomain.LevelAdmin) {
			return failure(rejectAdminOnly)
		}

		var (
			next    kothdomain.Status
			message string
		)
		switch settings.Status() {
		case kothdomain.StatusClosed:
			next, message = kothdomain.StatusKothClosed, "✅ Switched to King of the Hill mode."
		case kothdomain.StatusKothClosed:
			next, message = kothdomain.StatusClosed, "✅ Switched back to regular submission mode."
		default:
			return failure(rejectStale)
		}

		err = s.transition(ctx, s.liveDB(), settings, next, kothdb.SettingsUpdate{})
		if staleTransition(err) {
			return failure(rejectStale)
		}
		if err != nil {
			return infraError("failed to switch mode: %w", err)
		}
		s.refreshPanel(ctx, guildID)
		return success(message)
	})
}
