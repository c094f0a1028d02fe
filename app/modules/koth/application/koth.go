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

// AdvanceQueue crowns the first king of a session, or pits the head of the
// KOTH queue against the reigning king.
func (s *KothService) AdvanceQueue(ctx context.Context, guildID sharedtypes.GuildID, actor kothdomain.Actor) (Notice, error) {
	return s.notice(ctx, "AdvanceQueue", guildID, func(ctx context.Context) (results.OperationResult[Notice, Rejection], error) {
		var (
			crowned   *kothdb.Submission
			presented *kothdomain.Battle
			review    sharedtypes.ChannelID
		)

		result, err := runInTx(s, ctx, func(ctx context.Context, db bun.IDB) (results.OperationResult[Notice, Rejection], error) {
			settings, err := s.loadSettings(ctx, db, guildID)
			if err != nil {
				return infraError("failed to load settings: %w", err)
			}
			if !authorized(settings, actor, kothdomain.LevelModerator) {
				return failure(rejectModOnly)
			}
			if settings.Status() != kothdomain.StatusKothOpen {
				return failure(rejectStale)
			}
			if settings.ReviewChannelID == "" {
				return failure(rejectNoReview)
			}
			if s.battles.Active(guildID) {
				return success("⚠️ A battle is already in progress. Vote on it before advancing.")
			}
			review = settings.ReviewChannelID

			if settings.KothKingID == "" {
				sub, err := s.dequeueNext(ctx, db, guildID, kothdomain.SubmissionKoth, actor.UserID)
				if err != nil {
					return infraError("failed to dequeue king: %w", err)
				}
				if sub == nil {
					return success("The KOTH queue is empty! Need at least one challenger.")
				}
				if err := s.repo.UpdateSettings(ctx, db, guildID, kothdb.SettingsUpdate{
					KothKingID:           &sub.UserID,
					KothKingSubmissionID: &sub.ID,
				}); err != nil {
					return infraError("failed to crown king: %w", err)
				}
				crowned = sub
				return success(fmt.Sprintf("👑 %s is the new King!", sub.UserID.Mention()))
			}

			king, err := s.repo.GetSubmission(ctx, db, settings.KothKingSubmissionID)
			if err != nil {
				return infraError("failed to load king submission: %w", err)
			}
			challenger, err := s.dequeueNext(ctx, db, guildID, kothdomain.SubmissionKoth, actor.UserID)
			if err != nil {
				return infraError("failed to dequeue challenger: %w", err)
			}
			if challenger == nil {
				return success("No more challengers in the queue!")
			}

			battle := kothdomain.Battle{
				ID:         s.newID(),
				GuildID:    guildID,
				Champion:   kothdomain.Contender{UserID: king.UserID, SubmissionID: king.ID, TrackURL: king.TrackURL},
				Challenger: kothdomain.Contender{UserID: challenger.UserID, SubmissionID: challenger.ID, TrackURL: challenger.TrackURL},
				ChannelID:  review,
			}
			// Posting inside the transaction keeps the challenger queued if the card never shows up.
			messageID, err := s.presenter.SendCard(ctx, review, kothdomain.BattleCard(battle))
			if err != nil {
				return infraError("failed to present battle: %w", err)
			}
			battle.MessageID = messageID
			presented = &battle
			return success("⚔️ Battle started! Cast your vote on the battle card.")
		})
		if err != nil {
			return result, err
		}

		switch {
		case crowned != nil:
			messageID, err := s.presenter.SendCard(ctx, review, kothdomain.NewKingCard(crowned.UserID))
			if err != nil {
				s.logger.WarnContext(ctx, "Failed to announce new king", attr.GuildID(guildID), attr.Error(err))
			}
			s.battles.Track(guildID, MessageRef{ChannelID: review, MessageID: messageID})
			s.refreshPanel(ctx, guildID)
		case presented != nil:
			s.battles.Put(*presented)
			s.refreshPanel(ctx, guildID)
		}
		return result, nil
	})
}

// ResolveVote applies a moderator's vote to the guild's presented battle.
func (s *KothService) ResolveVote(ctx context.Context, guildID sharedtypes.GuildID, actor kothdomain.Actor, battleID string, side kothdomain.Side) (Notice, error) {
	return s.notice(ctx, "ResolveVote", guildID, func(ctx context.Context) (results.OperationResult[Notice, Rejection], error) {
		settings, err := s.loadSettings(ctx, s.liveDB(), guildID)
		if err != nil {
			return infraError("failed to load settings: %w", err)
		}
		if !authorized(settings, actor, kothdomain.LevelModerator) {
			return failure(rejectVoteForbidden)
		}
		battle, ok := s.battles.Get(guildID, battleID)
		if !ok {
			return failure(rejectBattleGone)
		}
		winner, loser, err := battle.Outcome(side)
		if err != nil {
			return failure(reject(err, "⚠️ That vote does not match either track."))
		}

		if battle.Tiebreaker {
			return s.resolveTiebreaker(ctx, settings, battle, winner)
		}
		if settings.Status() != kothdomain.StatusKothOpen {
			return failure(rejectStale)
		}

		_, err = runInTx(s, ctx, func(ctx context.Context, db bun.IDB) (results.OperationResult[Notice, Rejection], error) {
			return s.recordRoundLogic(ctx, db, guildID, actor, battle, winner, loser)
		})
		if err != nil {
			return infraError("failed to record battle: %w", err)
		}

		s.battles.Remove(guildID)
		s.scoreboard.RecordWin(guildID, winner.UserID)
		s.metrics.RecordBattleResolved(ctx, false)
		s.deleteBattleCard(ctx, battle)

		messageID, err := s.presenter.SendText(ctx, battle.ChannelID, kothdomain.RoundResultText(winner, loser, side))
		if err != nil {
			s.logger.WarnContext(ctx, "Failed to announce round result", attr.GuildID(guildID), attr.Error(err))
		}
		s.battles.Track(guildID, MessageRef{ChannelID: battle.ChannelID, MessageID: messageID})
		s.refreshPanel(ctx, guildID)

		return success(fmt.Sprintf("✅ Vote recorded for %s.", winner.UserID.Mention()))
	})
}

// recordRoundLogic persists a regular battle: leaderboard, both submissions
// reviewed, winner crowned.
func (s *KothService) recordRoundLogic(
	ctx context.Context,
	db bun.IDB,
	guildID sharedtypes.GuildID,
	actor kothdomain.Actor,
	battle kothdomain.Battle,
	winner, loser kothdomain.Contender,
) (results.OperationResult[Notice, Rejection], error) {
	if err := s.repo.RecordBattleResult(ctx, db, guildID, winner.UserID, loser.UserID); err != nil {
		return infraError("failed to update leaderboard: %w", err)
	}
	for _, c := range []kothdomain.Contender{battle.Champion, battle.Challenger} {
		err := s.repo.UpdateSubmissionStatus(ctx, db, c.SubmissionID, kothdomain.SubmissionReviewed, actor.UserID)
		if errors.Is(err, kothdb.ErrNoRowsAffected) {
			s.logger.WarnContext(ctx, "Battle submission was not in review",
				attr.GuildID(guildID),
				attr.Int64("submission_id", c.SubmissionID),
			)
			continue
		}
		if err != nil {
			return infraError("failed to mark submission reviewed: %w", err)
		}
	}
	if err := s.repo.UpdateSettings(ctx, db, guildID, kothdb.SettingsUpdate{
		KothKingID:           &winner.UserID,
		KothKingSubmissionID: &winner.SubmissionID,
	}); err != nil {
		return infraError("failed to crown winner: %w", err)
	}
	return success("")
}

// deleteBattleCard removes a battle's card once the battle is over.
func (s *KothService) deleteBattleCard(ctx context.Context, battle kothdomain.Battle) {
	if battle.MessageID == "" {
		return
	}
	err := s.presenter.DeleteMessage(ctx, battle.ChannelID, battle.MessageID)
	if err != nil && !errors.Is(err, ErrMessageNotFound) {
		s.logger.WarnContext(ctx, "Failed to delete battle card", attr.GuildID(battle.GuildID), attr.Error(err))
	}
}

// discardBattle drops the guild's unresolved battle, if any, with its card.
func (s *KothService) discardBattle(ctx context.Context, guildID sharedtypes.GuildID) {
	b, ok := s.battles.Remove(guildID)
	if !ok {
		return
	}
	s.logger.InfoContext(ctx, "Discarding unresolved battle", attr.GuildID(guildID), attr.String("battle_id", b.ID))
	s.deleteBattleCard(ctx, b)
}
