package kothservice

import (
	"context"
	"fmt"

	kothdomain "github.com/Black-And-White-Club/koth-bot/app/modules/koth/domain"
	kothdb "github.com/Black-And-White-Club/koth-bot/app/modules/koth/infrastructure/repositories"
	"github.com/Black-And-White-Club/koth-bot/app/shared/observability/attr"
	"github.com/Black-And-White-Club/koth-bot/app/shared/results"
)

const (
	reactionAccepted   = "✅"
	reactionTiebreaker = "⚔️"
)

func (s *KothService) classify(msg IncomingMessage, settings *kothdb.GuildSettings) (kothdomain.Classification, kothdomain.Attachment) {
	return kothdomain.Classify(kothdomain.IncomingMessage{
		Status:              settings.Status(),
		ChannelID:           msg.ChannelID,
		SubmissionChannelID: settings.SubmissionChannelID,
		KothChannelID:       settings.KothSubmissionChannelID,
		AuthorID:            msg.AuthorID,
		TiebreakerUsers:     settings.TiebreakerUsers(),
		AlreadySubmitted:    s.tiebreakers.Has(msg.GuildID, msg.AuthorID),
		Attachments:         msg.Attachments,
	})
}

// HandleMessage routes a guild message to the regular queue, the KOTH queue
// or the tiebreaker, and returns how it was classified.
func (s *KothService) HandleMessage(ctx context.Context, msg IncomingMessage) (kothdomain.Classification, error) {
	// Cheap pass against cached settings; most messages stop here.
	settings, err := s.loadSettings(ctx, nil, msg.GuildID)
	if err != nil {
		return kothdomain.ClassIgnore, err
	}
	if class, _ := s.classify(msg, settings); class == kothdomain.ClassIgnore {
		return class, nil
	}

	unlock := s.guildLocks.Lock(msg.GuildID)
	defer unlock()

	result, err := withTelemetry(s, ctx, "AcceptSubmission", string(msg.GuildID), func(ctx context.Context) (results.OperationResult[kothdomain.Classification, error], error) {
		settings, err := s.loadSettings(ctx, s.liveDB(), msg.GuildID)
		if err != nil {
			return results.OperationResult[kothdomain.Classification, error]{}, err
		}
		class, audio := s.classify(msg, settings)

		switch class {
		case kothdomain.ClassRegular:
			err = s.acceptRegular(ctx, msg, audio)
		case kothdomain.ClassKoth:
			err = s.acceptKoth(ctx, msg, audio)
		case kothdomain.ClassTiebreaker:
			class, err = s.acceptTiebreaker(ctx, msg, settings, audio)
		}
		if err != nil {
			return results.OperationResult[kothdomain.Classification, error]{}, err
		}
		if class != kothdomain.ClassIgnore {
			s.metrics.RecordSubmissionAccepted(ctx, string(class))
		}
		return results.SuccessResult[kothdomain.Classification, error](class), nil
	})
	if err != nil {
		return kothdomain.ClassIgnore, err
	}
	return *result.Success, nil
}

func (s *KothService) react(ctx context.Context, msg IncomingMessage, emoji string) {
	if err := s.presenter.AddReaction(ctx, msg.ChannelID, msg.MessageID, emoji); err != nil {
		s.logger.WarnContext(ctx, "Failed to react to submission", attr.GuildID(msg.GuildID), attr.Error(err))
	}
}

// acceptRegular queues the track. A member's first ever submission jumps
// the queue and earns a welcome DM.
func (s *KothService) acceptRegular(ctx context.Context, msg IncomingMessage, audio kothdomain.Attachment) error {
	id, err := s.enqueue(ctx, s.liveDB(), msg.GuildID, msg.AuthorID, audio.URL, kothdomain.SubmissionRegular)
	if err != nil {
		return err
	}
	s.react(ctx, msg, reactionAccepted)

	count, err := s.repo.CountSubmissions(ctx, s.liveDB(), kothdb.SubmissionFilter{
		GuildID: msg.GuildID,
		UserID:  msg.AuthorID,
		Type:    kothdomain.SubmissionRegular,
	})
	if err != nil {
		s.logger.WarnContext(ctx, "Failed to count member submissions", attr.GuildID(msg.GuildID), attr.Error(err))
	}
	if count == 1 {
		if err := s.repo.PrioritizeSubmission(ctx, s.liveDB(), id); err != nil {
			s.logger.WarnContext(ctx, "Failed to prioritize first submission", attr.GuildID(msg.GuildID), attr.Error(err))
		} else if err := s.presenter.DirectMessage(ctx, msg.AuthorID, welcomeText(msg.GuildName)); err != nil {
			s.logger.InfoContext(ctx, "Could not send welcome DM", attr.UserID(msg.AuthorID), attr.Error(err))
		}
	}

	s.refreshPanel(ctx, msg.GuildID)
	return nil
}

func welcomeText(guildName string) string {
	if guildName == "" {
		guildName = "the server"
	}
	return fmt.Sprintf("🎉 Thanks for your first submission in **%s**! It has been moved to the front of the queue.", guildName)
}

// acceptKoth queues a KOTH entry and scores it.
func (s *KothService) acceptKoth(ctx context.Context, msg IncomingMessage, audio kothdomain.Attachment) error {
	if _, err := s.enqueue(ctx, s.liveDB(), msg.GuildID, msg.AuthorID, audio.URL, kothdomain.SubmissionKoth); err != nil {
		return err
	}
	s.scoreboard.RecordSubmission(msg.GuildID, msg.AuthorID)
	s.react(ctx, msg, reactionAccepted)
	s.refreshPanel(ctx, msg.GuildID)
	return nil
}

// acceptTiebreaker records a tied member's final track and presents the
// final battle once both are in. The second track is only kept once its
// battle card is up, so a failed presentation can be retried.
func (s *KothService) acceptTiebreaker(ctx context.Context, msg IncomingMessage, settings *kothdb.GuildSettings, audio kothdomain.Attachment) (kothdomain.Classification, error) {
	if !s.tiebreakers.Submit(msg.GuildID, kothdomain.TiebreakerEntry{UserID: msg.AuthorID, TrackURL: audio.URL}) {
		return kothdomain.ClassIgnore, nil
	}

	entries := s.tiebreakers.Entries(msg.GuildID)
	if len(entries) < 2 {
		s.react(ctx, msg, reactionTiebreaker)
		return kothdomain.ClassTiebreaker, nil
	}
	if settings.ReviewChannelID == "" {
		s.tiebreakers.Remove(msg.GuildID, msg.AuthorID)
		s.logger.ErrorContext(ctx, "Both tiebreaker tracks are in but no review channel is configured", attr.GuildID(msg.GuildID))
		return kothdomain.ClassIgnore, nil
	}

	battle := kothdomain.Battle{
		ID:         s.newID(),
		GuildID:    msg.GuildID,
		Champion:   kothdomain.Contender{UserID: entries[0].UserID, TrackURL: entries[0].TrackURL},
		Challenger: kothdomain.Contender{UserID: entries[1].UserID, TrackURL: entries[1].TrackURL},
		Tiebreaker: true,
		ChannelID:  settings.ReviewChannelID,
	}
	messageID, err := s.presenter.SendCard(ctx, battle.ChannelID, kothdomain.BattleCard(battle))
	if err != nil {
		s.tiebreakers.Remove(msg.GuildID, msg.AuthorID)
		return kothdomain.ClassIgnore, fmt.Errorf("failed to present final battle: %w", err)
	}
	battle.MessageID = messageID
	s.react(ctx, msg, reactionTiebreaker)
	if !s.battles.Put(battle) {
		s.logger.WarnContext(ctx, "A battle was already registered for the tiebreaker", attr.GuildID(msg.GuildID))
	}
	return kothdomain.ClassTiebreaker, nil
}
