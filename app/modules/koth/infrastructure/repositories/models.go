package kothdb

import (
	"time"

	kothdomain "github.com/Black-And-White-Club/koth-bot/app/modules/koth/domain"
	sharedtypes "github.com/Black-And-White-Club/koth-bot/app/shared/types"
	"github.com/uptrace/bun"
)

// GuildSettings is the per-guild configuration and durable contest state.
type GuildSettings struct {
	bun.BaseModel           `bun:"table:guild_settings,alias:gs"`
	GuildID                 sharedtypes.GuildID   `bun:"guild_id,pk,notnull,type:varchar(20)" json:"guild_id"`
	SubmissionChannelID     sharedtypes.ChannelID `bun:"submission_channel_id,nullzero,type:varchar(20)" json:"submission_channel_id,omitempty"`
	KothSubmissionChannelID sharedtypes.ChannelID `bun:"koth_submission_channel_id,nullzero,type:varchar(20)" json:"koth_submission_channel_id,omitempty"`
	ReviewChannelID         sharedtypes.ChannelID `bun:"review_channel_id,nullzero,type:varchar(20)" json:"review_channel_id,omitempty"`
	ReviewPanelMessageID    sharedtypes.MessageID `bun:"review_panel_message_id,nullzero,type:varchar(20)" json:"review_panel_message_id,omitempty"`
	KothWinnerRoleID        sharedtypes.RoleID    `bun:"koth_winner_role_id,nullzero,type:varchar(20)" json:"koth_winner_role_id,omitempty"`
	AdminRoleIDs            string                `bun:"admin_role_ids,nullzero" json:"admin_role_ids,omitempty"`
	ModRoleIDs              string                `bun:"mod_role_ids,nullzero" json:"mod_role_ids,omitempty"`
	SubmissionStatus        kothdomain.Status     `bun:"submission_status,notnull,default:'closed',type:varchar(20)" json:"submission_status"`
	KothKingID              sharedtypes.DiscordID `bun:"koth_king_id,nullzero,type:varchar(20)" json:"koth_king_id,omitempty"`
	KothKingSubmissionID    int64                 `bun:"koth_king_submission_id,nullzero" json:"koth_king_submission_id,omitempty"`
	KothTiebreakerUsers     string                `bun:"koth_tiebreaker_users,nullzero" json:"koth_tiebreaker_users,omitempty"`
	CreatedAt               time.Time             `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"created_at"`
	UpdatedAt               time.Time             `bun:"updated_at,nullzero,notnull,default:current_timestamp" json:"updated_at"`
}

// Status returns the parsed contest status; unset rows are closed.
func (g *GuildSettings) Status() kothdomain.Status {
	if g == nil {
		return kothdomain.StatusClosed
	}
	return kothdomain.ParseStatus(string(g.SubmissionStatus))
}

// TiebreakerUsers decodes the stored tied pair.
func (g *GuildSettings) TiebreakerUsers() []sharedtypes.DiscordID {
	if g == nil {
		return nil
	}
	return kothdomain.ParseUserPair(g.KothTiebreakerUsers)
}

// AdminRoles decodes the configured admin role ids.
func (g *GuildSettings) AdminRoles() []sharedtypes.RoleID {
	if g == nil {
		return nil
	}
	return kothdomain.ParseRoleIDs(g.AdminRoleIDs)
}

// ModRoles decodes the configured moderator role ids.
func (g *GuildSettings) ModRoles() []sharedtypes.RoleID {
	if g == nil {
		return nil
	}
	return kothdomain.ParseRoleIDs(g.ModRoleIDs)
}

// SettingsUpdate lists the columns to write. Nil fields are left alone; a
// pointer to a zero value clears the column. The contest status is only
// written by TransitionStatus.
type SettingsUpdate struct {
	SubmissionChannelID     *sharedtypes.ChannelID
	KothSubmissionChannelID *sharedtypes.ChannelID
	ReviewChannelID         *sharedtypes.ChannelID
	ReviewPanelMessageID    *sharedtypes.MessageID
	KothWinnerRoleID        *sharedtypes.RoleID
	AdminRoleIDs            *string
	ModRoleIDs              *string
	KothKingID              *sharedtypes.DiscordID
	KothKingSubmissionID    *int64
	KothTiebreakerUsers     *string
}

// Submission is one audio track in the submission ledger.
type Submission struct {
	bun.BaseModel `bun:"table:music_submissions,alias:ms"`
	ID            int64                       `bun:"submission_id,pk,autoincrement"`
	GuildID       sharedtypes.GuildID         `bun:"guild_id,notnull,type:varchar(20)"`
	UserID        sharedtypes.DiscordID       `bun:"user_id,notnull,type:varchar(20)"`
	TrackURL      string                      `bun:"track_url,notnull"`
	Status        kothdomain.SubmissionStatus `bun:"status,notnull,default:'pending',type:varchar(20)"`
	SubmittedAt   time.Time                   `bun:"submitted_at,notnull,default:current_timestamp"`
	ReviewerID    sharedtypes.DiscordID       `bun:"reviewer_id,nullzero,type:varchar(20)"`
	Type          kothdomain.SubmissionType   `bun:"submission_type,notnull,default:'regular',type:varchar(20)"`
}

// SubmissionFilter narrows CountSubmissions. Empty fields match everything.
type SubmissionFilter struct {
	GuildID sharedtypes.GuildID
	UserID  sharedtypes.DiscordID
	Type    kothdomain.SubmissionType
	Status  kothdomain.SubmissionStatus
}

// LeaderboardEntry is a user's all-time KOTH record.
type LeaderboardEntry struct {
	bun.BaseModel `bun:"table:koth_leaderboard,alias:kl"`
	GuildID       sharedtypes.GuildID   `bun:"guild_id,pk,notnull,type:varchar(20)"`
	UserID        sharedtypes.DiscordID `bun:"user_id,pk,notnull,type:varchar(20)"`
	Points        int                   `bun:"points,notnull,default:0"`
	Wins          int                   `bun:"wins,notnull,default:0"`
	Losses        int                   `bun:"losses,notnull,default:0"`
	Streak        int                   `bun:"streak,notnull,default:0"`
}
