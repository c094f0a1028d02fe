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

const winnerRoleReason = "King of the Hill winner"

// StartSession opens a KOTH session with an empty scoreboard.
func (s *KothService) StartSession(ctx context.Context, guildID sharedtypes.GuildID, actor kothdomain.Actor) (Notice, error) {
	return s.notice(ctx, "StartSession", guildID, func(ctx context.Context) (results.OperationResult[Notice, Rejection], error) {
		settings, err := s.loadSettings(ctx, s.liveDB(), guildID)
		if err != nil {
			return infraError("failed to load settings: %w", err)
		}
		if !authorized(settings, actor, kothdomain.LevelAdmin) {
			return failure(rejectAdminOnly)
		}
		if !settings.Status().CanTransitionTo(kothdomain.StatusKothOpen) {
			return failure(rejectStale)
		}
		if settings.KothSubmissionChannelID == "" {
			return failure(rejectNoKothChannel)
		}

		s.scoreboard.Reset(guildID)
		s.tiebreakers.Clear(guildID)
		s.discardBattle(ctx, guildID)

		if settings.KothWinnerRoleID != "" {
			if err := s.presenter.RemoveRoleFromAll(ctx, guildID, settings.KothWinnerRoleID, "New King of the Hill session"); err != nil {
				s.logger.WarnContext(ctx, "Failed to clear previous winner role", attr.GuildID(guildID), attr.Error(err))
			}
		}

		err = s.transition(ctx, s.liveDB(), settings, kothdomain.StatusKothOpen, clearContest(kothdb.SettingsUpdate{}))
		if staleTransition(err) {
			return failure(rejectStale)
		}
		if err != nil {
			return infraError("failed to open session: %w", err)
		}

		s.refreshPanel(ctx, guildID)
		s.announce(ctx, Announcement{
			GuildID:   guildID,
			ChannelID: settings.KothSubmissionChannelID,
			Content:   "@everyone King of the Hill submissions are **OPEN**! Send your best track in this channel.",
		})
		return success("✅ King of the Hill battle has started!")
	})
}

// StopSession ends a KOTH session, or starts a tiebreaker when the top two
// are level.
func (s *KothService) StopSession(ctx context.Context, guildID sharedtypes.GuildID, actor kothdomain.Actor) (Notice, error) {
	return s.notice(ctx, "StopSession", guildID, func(ctx context.Context) (results.OperationResult[Notice, Rejection], error) {
		settings, err := s.loadSettings(ctx, s.liveDB(), guildID)
		if err != nil {
			return infraError("failed to load settings: %w", err)
		}
		if !authorized(settings, actor, kothdomain.LevelAdmin) {
			return failure(rejectAdminOnly)
		}
		if settings.Status() != kothdomain.StatusKothOpen {
			return failure(rejectStale)
		}
		if settings.KothSubmissionChannelID == "" {
			return failure(rejectNoKothChannel)
		}

		decision := kothdomain.DecideStop(s.scoreboard.Standings(guildID), settings.KothKingID)
		if !decision.Tiebreaker {
			if err := s.finalize(ctx, settings, decision.Winner); err != nil {
				return infraError("failed to finalize session: %w", err)
			}
			return success("✅ KOTH battle stopped. Results have been posted.")
		}

		// A battle left unvoted at stop is discarded; its challenger is purged at finalize.
		s.discardBattle(ctx, guildID)

		pair := kothdomain.FormatUserPair(decision.Tied)
		err = s.transition(ctx, s.liveDB(), settings, kothdomain.StatusKothTiebreaker, kothdb.SettingsUpdate{
			KothTiebreakerUsers: &pair,
		})
		if staleTransition(err) {
			return failure(rejectStale)
		}
		if err != nil {
			return infraError("failed to start tiebreaker: %w", err)
		}
		s.tiebreakers.Clear(guildID)

		s.refreshPanel(ctx, guildID)
		s.announce(ctx, Announcement{
			GuildID:   guildID,
			ChannelID: settings.KothSubmissionChannelID,
			Content:   kothdomain.TiebreakerText(decision.Tied),
		})
		return success(fmt.Sprintf("⚔️ It's a tie between %s and %s! A tiebreaker has been started.",
			decision.Tied[0].Mention(), decision.Tied[1].Mention()))
	})
}

// CancelTiebreaker ends a tiebreaker without a winner.
func (s *KothService) CancelTiebreaker(ctx context.Context, guildID sharedtypes.GuildID, actor kothdomain.Actor) (Notice, error) {
	return s.notice(ctx, "CancelTiebreaker", guildID, func(ctx context.Context) (results.OperationResult[Notice, Rejection], error) {
		settings, err := s.loadSettings(ctx, s.liveDB(), guildID)
		if err != nil {
			return infraError("failed to load settings: %w", err)
		}
		if !authorized(settings, actor, kothdomain.LevelAdmin) {
			return failure(rejectAdminOnly)
		}
		if settings.Status() != kothdomain.StatusKothTiebreaker {
			return failure(rejectStale)
		}
		if err := s.finalize(ctx, settings, ""); err != nil {
			return infraError("failed to finalize session: %w", err)
		}
		return success("✅ Tiebreaker cancelled. Results have been posted.")
	})
}

// resolveTiebreaker finishes the session with the tiebreaker vote's winner.
func (s *KothService) resolveTiebreaker(ctx context.Context, settings *kothdb.GuildSettings, battle kothdomain.Battle, winner kothdomain.Contender) (results.OperationResult[Notice, Rejection], error) {
	if settings.Status() != kothdomain.StatusKothTiebreaker {
		return failure(rejectStale)
	}
	s.metrics.RecordBattleResolved(ctx, true)
	s.battles.Remove(settings.GuildID)
	s.deleteBattleCard(ctx, battle)
	if err := s.finalize(ctx, settings, winner.UserID); err != nil {
		return infraError("failed to finalize session: %w", err)
	}
	return success(fmt.Sprintf("🏆 %s wins the tiebreaker! Results have been posted.", winner.UserID.Mention()))
}

// finalize publishes the results and resets the guild to koth_closed. Message
// cleanup, role grants and the report are best effort; the durable reset is not.
func (s *KothService) finalize(ctx context.Context, settings *kothdb.GuildSettings, winner sharedtypes.DiscordID) error {
	guildID := settings.GuildID

	s.discardBattle(ctx, guildID)
	for _, ref := range s.battles.Drain(guildID) {
		err := s.presenter.DeleteMessage(ctx, ref.ChannelID, ref.MessageID)
		if err != nil && !errors.Is(err, ErrMessageNotFound) {
			s.logger.WarnContext(ctx, "Failed to delete battle message",
				attr.GuildID(guildID),
				attr.String("message_id", string(ref.MessageID)),
				attr.Error(err),
			)
		}
	}

	report := kothdomain.ResultsCard(s.scoreboard.Standings(guildID), winner)

	if winner != "" && settings.KothWinnerRoleID != "" {
		if err := s.presenter.AddRole(ctx, guildID, winner, settings.KothWinnerRoleID, winnerRoleReason); err != nil {
			s.logger.WarnContext(ctx, "Failed to grant winner role",
				attr.GuildID(guildID),
				attr.UserID(winner),
				attr.Error(err),
			)
		}
	}

	s.announce(ctx, Announcement{
		GuildID:   guildID,
		ChannelID: settings.KothSubmissionChannelID,
		Card:      &report,
	})

	_, err := runInTx(s, ctx, func(ctx context.Context, db bun.IDB) (results.OperationResult[Notice, Rejection], error) {
		purged, err := s.repo.DeleteUnreviewedSubmissions(ctx, db, guildID, kothdomain.SubmissionKoth)
		if err != nil {
			return infraError("failed to purge submissions: %w", err)
		}
		if err := s.transition(ctx, db, settings, kothdomain.StatusKothClosed, clearContest(kothdb.SettingsUpdate{})); err != nil {
			return infraError("failed to close session: %w", err)
		}
		s.logger.InfoContext(ctx, "KOTH session finalized",
			attr.GuildID(guildID),
			attr.UserID(winner),
			attr.Int("purged", purged),
		)
		return success("")
	})
	if err != nil {
		return err
	}

	s.scoreboard.Reset(guildID)
	s.tiebreakers.Clear(guildID)
	s.refreshPanel(ctx, guildID)
	return nil
}

// clearContest adds the king and tiebreaker resets to update.
func clearContest(update kothdb.SettingsUpdate) kothdb.SettingsUpdate {
	var (
		noKing    sharedtypes.DiscordID
		noKingSub int64
		noPair    string
	)
	update.KothKingID = &noKing
	update.KothKingSubmissionID = &noKingSub
	update.KothTiebreakerUsers = &noPair
	return update
}
