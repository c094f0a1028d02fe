package kothservice

import (
	"context"
	"fmt"
	"io"

	kothdomain "github.com/Black-And-White-Club/koth-bot/app/modules/koth/domain"
	kothdb "github.com/Black-And-White-Club/koth-bot/app/modules/koth/infrastructure/repositories"
	"github.com/Black-And-White-Club/koth-bot/app/shared/results"
	sharedtypes "github.com/Black-And-White-Club/koth-bot/app/shared/types"
	"github.com/xuri/excelize/v2"
)

const leaderboardCardSize = 10

// ViewStats reports the all-time count of reviewed regular tracks.
func (s *KothService) ViewStats(ctx context.Context, guildID sharedtypes.GuildID, actor kothdomain.Actor) (Notice, error) {
	return s.notice(ctx, "ViewStats", guildID, func(ctx context.Context) (results.OperationResult[Notice, Rejection], error) {
		settings, err := s.loadSettings(ctx, s.liveDB(), guildID)
		if err != nil {
			return infraError("failed to load settings: %w", err)
		}
		if !authorized(settings, actor, kothdomain.LevelModerator) {
			return failure(rejectModOnly)
		}
		reviewed, err := s.repo.CountSubmissions(ctx, s.liveDB(), kothdb.SubmissionFilter{
			GuildID: guildID,
			Type:    kothdomain.SubmissionRegular,
			Status:  kothdomain.SubmissionReviewed,
		})
		if err != nil {
			return infraError("failed to count reviewed tracks: %w", err)
		}
		card := kothdomain.StatisticsCard(reviewed)
		return results.SuccessResult[Notice, Rejection](Notice{Card: &card}), nil
	})
}

// ViewKothStats shows the all-time KOTH leaderboard.
func (s *KothService) ViewKothStats(ctx context.Context, guildID sharedtypes.GuildID, actor kothdomain.Actor) (Notice, error) {
	return s.notice(ctx, "ViewKothStats", guildID, func(ctx context.Context) (results.OperationResult[Notice, Rejection], error) {
		settings, err := s.loadSettings(ctx, s.liveDB(), guildID)
		if err != nil {
			return infraError("failed to load settings: %w", err)
		}
		if !authorized(settings, actor, kothdomain.LevelModerator) {
			return failure(rejectModOnly)
		}
		entries, err := s.repo.GetLeaderboard(ctx, s.liveDB(), guildID, leaderboardCardSize)
		if err != nil {
			return infraError("failed to load leaderboard: %w", err)
		}
		card := kothdomain.LeaderboardCard(leaderboardRows(entries))
		return results.SuccessResult[Notice, Rejection](Notice{Card: &card}), nil
	})
}

func leaderboardRows(entries []kothdb.LeaderboardEntry) []kothdomain.LeaderboardRow {
	rows := make([]kothdomain.LeaderboardRow, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, kothdomain.LeaderboardRow{
			UserID: e.UserID,
			Points: e.Points,
			Wins:   e.Wins,
			Losses: e.Losses,
			Streak: e.Streak,
		})
	}
	return rows
}

const exportSheet = "Leaderboard"

// ExportLeaderboard writes the guild's full all-time leaderboard to w as an
// xlsx workbook.
func (s *KothService) ExportLeaderboard(ctx context.Context, guildID sharedtypes.GuildID, w io.Writer) error {
	_, err := withTelemetry(s, ctx, "ExportLeaderboard", string(guildID), func(ctx context.Context) (results.OperationResult[int, error], error) {
		entries, err := s.repo.GetLeaderboard(ctx, s.liveDB(), guildID, 0)
		if err != nil {
			return results.OperationResult[int, error]{}, fmt.Errorf("failed to load leaderboard: %w", err)
		}
		if err := writeLeaderboard(w, entries); err != nil {
			return results.OperationResult[int, error]{}, err
		}
		return results.SuccessResult[int, error](len(entries)), nil
	})
	return err
}

func writeLeaderboard(w io.Writer, entries []kothdb.LeaderboardEntry) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), exportSheet); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}
	header := []any{"Rank", "User ID", "Points", "Wins", "Losses", "Streak"}
	if err := f.SetSheetRow(exportSheet, "A1", &header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}
	if err := f.SetCellStyle(exportSheet, "A1", "F1", bold); err != nil {
		return fmt.Errorf("failed to style header: %w", err)
	}
	if err := f.SetColWidth(exportSheet, "B", "B", 24); err != nil {
		return fmt.Errorf("failed to size columns: %w", err)
	}

	for i, e := range entries {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := []any{i + 1, string(e.UserID), e.Points, e.Wins, e.Losses, e.Streak}
		if err := f.SetSheetRow(exportSheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i+1, err)
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}
