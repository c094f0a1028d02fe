package kothdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	kothdomain "github.com/Black-And-White-Club/koth-bot/app/modules/koth/domain"
	sharedtypes "github.com/Black-And-White-Club/koth-bot/app/shared/types"
	"github.com/uptrace/bun"
)

// Impl implements the Repository interface using Bun ORM.
type Impl struct {
	db bun.IDB
}

// NewRepository creates a new KOTH repository.
func NewRepository(db bun.IDB) Repository {
	return &Impl{db: db}
}

// resolveDB returns the provided db handle, falling back to the repository's
// default connection if db is nil.
func (r *Impl) resolveDB(db bun.IDB) bun.IDB {
	if db == nil {
		return r.db
	}
	return db
}

// --- Settings ---

func (r *Impl) GetSettings(ctx context.Context, db bun.IDB, guildID sharedtypes.GuildID) (*GuildSettings, error) {
	db = r.resolveDB(db)
	settings := new(GuildSettings)
	err := db.NewSelect().
		Model(settings).
		Where("guild_id = ?", guildID).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("kothdb.GetSettings: %w", err)
	}
	return settings, nil
}

func (r *Impl) UpdateSettings(ctx context.Context, db bun.IDB, guildID sharedtypes.GuildID, update SettingsUpdate) error {
	if _, err := r.upsertSettings(ctx, db, guildID, update, nil, nil); err != nil {
		return fmt.Errorf("kothdb.UpdateSettings: %w", err)
	}
	return nil
}

// TransitionStatus moves the guild's contest status from -> to along the
// transition table, writing update in the same statement. The write only
// lands while the stored status is still from.
func (r *Impl) TransitionStatus(ctx context.Context, db bun.IDB, guildID sharedtypes.GuildID, from, to kothdomain.Status, update SettingsUpdate) error {
	if err := kothdomain.ValidateTransition(from, to); err != nil {
		return fmt.Errorf("kothdb.TransitionStatus: %w", err)
	}
	rows, err := r.upsertSettings(ctx, db, guildID, update, &to, &from)
	if err != nil {
		return fmt.Errorf("kothdb.TransitionStatus: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("kothdb.TransitionStatus: %w: status is no longer %s", ErrNoRowsAffected, from)
	}
	return nil
}

// upsertSettings writes the non-nil fields of update and, when status is set,
// the contest status. A non-nil from guards the update on the stored status.
func (r *Impl) upsertSettings(
	ctx context.Context,
	db bun.IDB,
	guildID sharedtypes.GuildID,
	update SettingsUpdate,
	status *kothdomain.Status,
	from *kothdomain.Status,
) (int64, error) {
	db = r.resolveDB(db)

	row := &GuildSettings{GuildID: guildID, SubmissionStatus: kothdomain.StatusClosed, UpdatedAt: time.Now().UTC()}
	q := db.NewInsert().Model(row).On("CONFLICT (guild_id) DO UPDATE")

	columns := 0
	set := func(column string) {
		q = q.Set(column + " = EXCLUDED." + column)
		columns++
	}

	if update.SubmissionChannelID != nil {
		row.SubmissionChannelID = *update.SubmissionChannelID
		set("submission_channel_id")
	}
	if update.KothSubmissionChannelID != nil {
		row.KothSubmissionChannelID = *update.KothSubmissionChannelID
		set("koth_submission_channel_id")
	}
	if update.ReviewChannelID != nil {
		row.ReviewChannelID = *update.ReviewChannelID
		set("review_channel_id")
	}
	if update.ReviewPanelMessageID != nil {
		row.ReviewPanelMessageID = *update.ReviewPanelMessageID
		set("review_panel_message_id")
	}
	if update.KothWinnerRoleID != nil {
		row.KothWinnerRoleID = *update.KothWinnerRoleID
		set("koth_winner_role_id")
	}
	if update.AdminRoleIDs != nil {
		row.AdminRoleIDs = *update.AdminRoleIDs
		set("admin_role_ids")
	}
	if update.ModRoleIDs != nil {
		row.ModRoleIDs = *update.ModRoleIDs
		set("mod_role_ids")
	}
	if status != nil {
		row.SubmissionStatus = *status
		set("submission_status")
	}
	if update.KothKingID != nil {
		row.KothKingID = *update.KothKingID
		set("koth_king_id")
	}
	if update.KothKingSubmissionID != nil {
		row.KothKingSubmissionID = *update.KothKingSubmissionID
		set("koth_king_submission_id")
	}
	if update.KothTiebreakerUsers != nil {
		row.KothTiebreakerUsers = *update.KothTiebreakerUsers
		set("koth_tiebreaker_users")
	}

	if columns == 0 {
		return 0, nil
	}
	set("updated_at")
	if from != nil {
		q = q.Where("gs.submission_status = ?", *from)
	}

	res, err := q.Exec(ctx)
	if err != nil {
		return 0, err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return rows, nil
}

// --- Submissions ---

func (r *Impl) InsertSubmission(ctx context.Context, db bun.IDB, sub *Submission) error {
	db = r.resolveDB(db)
	if sub.SubmittedAt.IsZero() {
		sub.SubmittedAt = time.Now().UTC()
	}
	if sub.Status == "" {
		sub.Status = kothdomain.SubmissionPending
	}
	_, err := db.NewInsert().
		Model(sub).
		Returning("submission_id").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("kothdb.InsertSubmission: %w", err)
	}
	return nil
}

func (r *Impl) GetSubmission(ctx context.Context, db bun.IDB, id int64) (*Submission, error) {
	db = r.resolveDB(db)
	sub := new(Submission)
	err := db.NewSelect().
		Model(sub).
		Where("submission_id = ?", id).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("kothdb.GetSubmission: %w", err)
	}
	return sub, nil
}

func (r *Impl) NextPendingSubmission(ctx context.Context, db bun.IDB, guildID sharedtypes.GuildID, subType kothdomain.SubmissionType) (*Submission, error) {
	db = r.resolveDB(db)
	sub := new(Submission)
	err := db.NewSelect().
		Model(sub).
		Where("guild_id = ?", guildID).
		Where("submission_type = ?", subType).
		Where("status = ?", kothdomain.SubmissionPending).
		OrderExpr("submitted_at ASC, submission_id ASC").
		Limit(1).
		For("UPDATE SKIP LOCKED").
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("kothdb.NextPendingSubmission: %w", err)
	}
	return sub, nil
}

func (r *Impl) UpdateSubmissionStatus(ctx context.Context, db bun.IDB, id int64, status kothdomain.SubmissionStatus, reviewerID sharedtypes.DiscordID) error {
	db = r.resolveDB(db)

	from := kothdomain.AllowedPredecessors(status)
	if len(from) == 0 {
		return fmt.Errorf("kothdb.UpdateSubmissionStatus: %w: cannot move to %q", ErrNoRowsAffected, status)
	}

	q := db.NewUpdate().
		Model((*Submission)(nil)).
		Set("status = ?", status).
		Where("submission_id = ?", id).
		Where("status IN (?)", bun.In(from))
	if reviewerID != "" {
		q = q.Set("reviewer_id = ?", reviewerID)
	}

	res, err := q.Exec(ctx)
	if err != nil {
		return fmt.Errorf("kothdb.UpdateSubmissionStatus: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("kothdb.UpdateSubmissionStatus: rows affected: %w", err)
	}
	if rows == 0 {
		return ErrNoRowsAffected
	}
	return nil
}

func (r *Impl) PrioritizeSubmission(ctx context.Context, db bun.IDB, id int64) error {
	db = r.resolveDB(db)
	res, err := db.NewUpdate().
		Model((*Submission)(nil)).
		Set("submitted_at = ?", kothdomain.PriorityTimestamp).
		Where("submission_id = ?", id).
		Where("status = ?", kothdomain.SubmissionPending).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("kothdb.PrioritizeSubmission: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("kothdb.PrioritizeSubmission: rows affected: %w", err)
	}
	if rows == 0 {
		return ErrNoRowsAffected
	}
	return nil
}

func (r *Impl) CountSubmissions(ctx context.Context, db bun.IDB, filter SubmissionFilter) (int, error) {
	db = r.resolveDB(db)
	q := db.NewSelect().Model((*Submission)(nil))
	if filter.GuildID != "" {
		q = q.Where("guild_id = ?", filter.GuildID)
	}
	if filter.UserID != "" {
		q = q.Where("user_id = ?", filter.UserID)
	}
	if filter.Type != "" {
		q = q.Where("submission_type = ?", filter.Type)
	}
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	count, err := q.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("kothdb.CountSubmissions: %w", err)
	}
	return count, nil
}

func (r *Impl) DeleteUnreviewedSubmissions(ctx context.Context, db bun.IDB, guildID sharedtypes.GuildID, subType kothdomain.SubmissionType) (int, error) {
	db = r.resolveDB(db)
	res, err := db.NewDelete().
		Model((*Submission)(nil)).
		Where("guild_id = ?", guildID).
		Where("submission_type = ?", subType).
		Where("status != ?", kothdomain.SubmissionReviewed).
		Exec(ctx)
	if err != nil {
		return 0, fmt.Errorf("kothdb.DeleteUnreviewedSubmissions: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("kothdb.DeleteUnreviewedSubmissions: rows affected: %w", err)
	}
	return int(rows), nil
}

// --- Leaderboard ---

func (r *Impl) RecordBattleResult(ctx context.Context, db bun.IDB, guildID sharedtypes.GuildID, winnerID, loserID sharedtypes.DiscordID) error {
	db = r.resolveDB(db)

	winner := &LeaderboardEntry{GuildID: guildID, UserID: winnerID, Points: 1, Wins: 1, Streak: 1}
	if _, err := db.NewInsert().
		Model(winner).
		On("CONFLICT (guild_id, user_id) DO UPDATE").
		Set("points = kl.points + 1").
		Set("wins = kl.wins + 1").
		Set("streak = kl.streak + 1").
		Exec(ctx); err != nil {
		return fmt.Errorf("kothdb.RecordBattleResult: winner: %w", err)
	}

	loser := &LeaderboardEntry{GuildID: guildID, UserID: loserID, Losses: 1}
	if _, err := db.NewInsert().
		Model(loser).
		On("CONFLICT (guild_id, user_id) DO UPDATE").
		Set("losses = kl.losses + 1").
		Set("streak = 0").
		Exec(ctx); err != nil {
		return fmt.Errorf("kothdb.RecordBattleResult: loser: %w", err)
	}
	return nil
}

func (r *Impl) GetLeaderboard(ctx context.Context, db bun.IDB, guildID sharedtypes.GuildID, limit int) ([]LeaderboardEntry, error) {
	db = r.resolveDB(db)
	var entries []LeaderboardEntry
	q := db.NewSelect().
		Model(&entries).
		Where("guild_id = ?", guildID).
		OrderExpr("points DESC, wins DESC, user_id ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("kothdb.GetLeaderboard: %w", err)
	}
	return entries, nil
}

func (r *Impl) GetLeaderboardEntry(ctx context.Context, db bun.IDB, guildID sharedtypes.GuildID, userID sharedtypes.DiscordID) (*LeaderboardEntry, error) {
	db = r.resolveDB(db)
	entry := new(LeaderboardEntry)
	err := db.NewSelect().
		Model(entry).
		Where("guild_id = ?", guildID).
		Where("user_id = ?", userID).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("kothdb.GetLeaderboardEntry: %w", err)
	}
	return entry, nil
}
