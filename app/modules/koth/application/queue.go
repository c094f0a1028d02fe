package kothservice

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	kothdomain "github.com/Black-And-White-Club/koth-bot/app/modules/koth/domain"
	kothdb "github.com/Black-And-White-Club/koth-bot/app/modules/koth/infrastructure/repositories"
	"github.com/Black-And-White-Club/koth-bot/app/shared/results"
	sharedtypes "github.com/Black-And-White-Club/koth-bot/app/shared/types"
	"github.com/uptrace/bun"
)

// Enqueue appends a pending submission and returns its id.
func (s *KothService) Enqueue(ctx context.Context, guildID sharedtypes.GuildID, userID sharedtypes.DiscordID, trackURL string, subType kothdomain.SubmissionType) (int64, error) {
	result, err := withTelemetry(s, ctx, "Enqueue", string(guildID), func(ctx context.Context) (results.OperationResult[int64, error], error) {
		return runInTx(s, ctx, func(ctx context.Context, db bun.IDB) (results.OperationResult[int64, error], error) {
			id, err := s.enqueue(ctx, db, guildID, userID, trackURL, subType)
			if err != nil {
				return results.OperationResult[int64, error]{}, err
			}
			return results.SuccessResult[int64, error](id), nil
		})
	})
	if err != nil {
		return 0, err
	}
	return *result.Success, nil
}

func (s *KothService) enqueue(ctx context.Context, db bun.IDB, guildID sharedtypes.GuildID, userID sharedtypes.DiscordID, trackURL string, subType kothdomain.SubmissionType) (int64, error) {
	sub := &kothdb.Submission{
		GuildID:  guildID,
		UserID:   userID,
		TrackURL: trackURL,
		Status:   kothdomain.SubmissionPending,
		Type:     subType,
	}
	if err := s.repo.InsertSubmission(ctx, db, sub); err != nil {
		return 0, fmt.Errorf("failed to insert submission: %w", err)
	}
	return sub.ID, nil
}

// DequeueNext moves the head of a queue to reviewing and returns it, or nil
// when the queue is empty.
func (s *KothService) DequeueNext(ctx context.Context, guildID sharedtypes.GuildID, subType kothdomain.SubmissionType) (*kothdb.Submission, error) {
	result, err := withTelemetry(s, ctx, "DequeueNext", string(guildID), func(ctx context.Context) (results.OperationResult[*kothdb.Submission, error], error) {
		return runInTx(s, ctx, func(ctx context.Context, db bun.IDB) (results.OperationResult[*kothdb.Submission, error], error) {
			sub, err := s.dequeueNext(ctx, db, guildID, subType, "")
			if err != nil {
				return results.OperationResult[*kothdb.Submission, error]{}, err
			}
			return results.SuccessResult[*kothdb.Submission, error](sub), nil
		})
	})
	if err != nil {
		return nil, err
	}
	return *result.Success, nil
}

// dequeueNext moves the queue head to reviewing and credits it to reviewer,
// which is empty when no person pulled it.
func (s *KothService) dequeueNext(ctx context.Context, db bun.IDB, guildID sharedtypes.GuildID, subType kothdomain.SubmissionType, reviewer sharedtypes.DiscordID) (*kothdb.Submission, error) {
	sub, err := s.repo.NextPendingSubmission(ctx, db, guildID, subType)
	if errors.Is(err, kothdb.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read queue head: %w", err)
	}
	if err := s.repo.UpdateSubmissionStatus(ctx, db, sub.ID, kothdomain.SubmissionReviewing, reviewer); err != nil {
		return nil, fmt.Errorf("failed to move submission %d to reviewing: %w", sub.ID, err)
	}
	sub.Status = kothdomain.SubmissionReviewing
	if reviewer != "" {
		sub.ReviewerID = reviewer
	}
	return sub, nil
}

// Prioritize moves a pending submission to the front of its queue.
func (s *KothService) Prioritize(ctx context.Context, submissionID int64) error {
	_, err := withTelemetry(s, ctx, "Prioritize", strconv.FormatInt(submissionID, 10), func(ctx context.Context) (results.OperationResult[struct{}, error], error) {
		if err := s.repo.PrioritizeSubmission(ctx, nil, submissionID); err != nil {
			return results.OperationResult[struct{}, error]{}, fmt.Errorf("failed to prioritize submission: %w", err)
		}
		return results.SuccessResult[struct{}, error](struct{}{}), nil
	})
	return err
}
