package kothmigrations

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"
)

func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		fmt.Println("Creating guild_settings, music_submissions and koth_leaderboard tables...")

		return db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
			if _, err := tx.ExecContext(ctx, `
				CREATE TABLE IF NOT EXISTS guild_settings (
					guild_id VARCHAR(20) PRIMARY KEY,
					submission_channel_id VARCHAR(20),
					koth_submission_channel_id VARCHAR(20),
					review_channel_id VARCHAR(20),
					review_panel_message_id VARCHAR(20),
					koth_winner_role_id VARCHAR(20),
					admin_role_ids TEXT,
					mod_role_ids TEXT,
					submission_status VARCHAR(20) NOT NULL DEFAULT 'closed',
					koth_king_id VARCHAR(20),
					koth_king_submission_id BIGINT,
					koth_tiebreaker_users TEXT,
					created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
					updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
					CONSTRAINT guild_settings_status_check CHECK (submission_status IN ('closed', 'open', 'koth_closed', 'koth_open', 'koth_tiebreaker')),
					CONSTRAINT guild_settings_king_pair_check CHECK ((koth_king_id IS NULL) = (koth_king_submission_id IS NULL))
				);
			`); err != nil {
				return fmt.Errorf("failed to create guild_settings table: %w", err)
			}

			if _, err := tx.ExecContext(ctx, `
				CREATE TABLE IF NOT EXISTS music_submissions (
					submission_id BIGSERIAL PRIMARY KEY,
					guild_id VARCHAR(20) NOT NULL,
					user_id VARCHAR(20) NOT NULL,
					track_url TEXT NOT NULL,
					status VARCHAR(20) NOT NULL DEFAULT 'pending',
					submitted_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
					reviewer_id VARCHAR(20),
					submission_type VARCHAR(20) NOT NULL DEFAULT 'regular',
					CONSTRAINT music_submissions_status_check CHECK (status IN ('pending', 'reviewing', 'reviewed')),
					CONSTRAINT music_submissions_type_check CHECK (submission_type IN ('regular', 'koth'))
				);
				CREATE INDEX IF NOT EXISTS idx_music_submissions_queue
					ON music_submissions (guild_id, submission_type, status, submitted_at, submission_id);
				CREATE INDEX IF NOT EXISTS idx_music_submissions_user
					ON music_submissions (guild_id, user_id, submission_type);
			`); err != nil {
				return fmt.Errorf("failed to create music_submissions table: %w", err)
			}

			if _, err := tx.ExecContext(ctx, `
				CREATE TABLE IF NOT EXISTS koth_leaderboard (
					guild_id VARCHAR(20) NOT NULL,
					user_id VARCHAR(20) NOT NULL,
					points INTEGER NOT NULL DEFAULT 0,
					wins INTEGER NOT NULL DEFAULT 0,
					losses INTEGER NOT NULL DEFAULT 0,
					streak INTEGER NOT NULL DEFAULT 0,
					PRIMARY KEY (guild_id, user_id)
				);
			`); err != nil {
				return fmt.Errorf("failed to create koth_leaderboard table: %w", err)
			}

			return nil
		})
	}, func(ctx context.Context, db *bun.DB) error {
		fmt.Println("Dropping koth tables...")

		_, err := db.ExecContext(ctx, `
			DROP TABLE IF EXISTS koth_leaderboard;
			DROP TABLE IF EXISTS music_submissions;
			DROP TABLE IF EXISTS guild_settings;
		`)
		if err != nil {
			return fmt.Errorf("failed to drop koth tables: %w", err)
		}
		return nil
	})
}
