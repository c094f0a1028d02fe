package kothdb

import (
	"context"

	kothdomain "github.com/Black-And-White-Club/koth-bot/app/modules/koth/domain"
	sharedtypes "github.com/Black-And-White-Club/koth-bot/app/shared/types"
	"github.com/uptrace/bun"
)

// Repository defines the contract for KOTH persistence. A nil db uses the
// repository's default connection.
type Repository interface {
	// GetSettings returns the guild's settings, or ErrNotFound if the guild has none.
	GetSettings(ctx context.Context, db bun.IDB, guildID sharedtypes.GuildID) (*GuildSettings, error)
	// UpdateSettings upserts the non-nil fields of update.
	UpdateSettings(ctx context.Context, db bun.IDB, guildID sharedtypes.GuildID, update SettingsUpdate) error
	// TransitionStatus changes the contest status along the transition table
	// together with update. ErrInvalidTransition for moves outside the table,
	// ErrNoRowsAffected when the stored status is no longer from.
	TransitionStatus(ctx context.Context, db bun.IDB, guildID sharedtypes.GuildID, from, to kothdomain.Status, update SettingsUpdate) error

	// InsertSubmission appends a pending submission and sets its ID.
	InsertSubmission(ctx context.Context, db bun.IDB, sub *Submission) error
	// GetSubmission returns a submission by id.
	GetSubmission(ctx context.Context, db bun.IDB, id int64) (*Submission, error)
	// NextPendingSubmission returns the head of the queue without changing it.
	NextPendingSubmission(ctx context.Context, db bun.IDB, guildID sharedtypes.GuildID, subType kothdomain.SubmissionType) (*Submission, error)
	// UpdateSubmissionStatus moves a submission forward; ErrNoRowsAffected if the move is not allowed.
	UpdateSubmissionStatus(ctx context.Context, db bun.IDB, id int64, status kothdomain.SubmissionStatus, reviewerID sharedtypes.DiscordID) error
	// PrioritizeSubmission moves a submission to the front of its queue.
	PrioritizeSubmission(ctx context.Context, db bun.IDB, id int64) error
	// CountSubmissions counts submissions matching filter.
	CountSubmissions(ctx context.Context, db bun.IDB, filter SubmissionFilter) (int, error)
	// DeleteUnreviewedSubmissions purges pending and reviewing submissions of a type.
	DeleteUnreviewedSubmissions(ctx context.Context, db bun.IDB, guildID sharedtypes.GuildID, subType kothdomain.SubmissionType) (int, error)

	// RecordBattleResult credits the winner and charges the loser.
	RecordBattleResult(ctx context.Context, db bun.IDB, guildID sharedtypes.GuildID, winnerID, loserID sharedtypes.DiscordID) error
	// GetLeaderboard returns all-time records ordered by points; limit <= 0 returns all.
	GetLeaderboard(ctx context.Context, db bun.IDB, guildID sharedtypes.GuildID, limit int) ([]LeaderboardEntry, error)
	// GetLeaderboardEntry returns one user's record.
	GetLeaderboardEntry(ctx context.Context, db bun.IDB, guildID sharedtypes.GuildID, userID sharedtypes.DiscordID) (*LeaderboardEntry, error)
}
