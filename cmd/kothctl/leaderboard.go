package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	kothservice "github.com/Black-And-White-Club/koth-bot/app/modules/koth/application"
	kothdb "github.com/Black-And-White-Club/koth-bot/app/modules/koth/infrastructure/repositories"
	sharedtypes "github.com/Black-And-White-Club/koth-bot/app/shared/types"
	"github.com/urfave/cli/v2"
	"go.opentelemetry.io/otel"
)

func newLeaderboardCommand() *cli.Command {
	return &cli.Command{
		Name:  "leaderboard",
		Usage: "all-time KOTH leaderboard",
		Subcommands: []*cli.Command{
			{
				Name:  "export",
				Usage: "write a guild's leaderboard to an .xlsx file",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "guild", Usage: "guild id", Required: true},
					&cli.StringFlag{Name: "out", Usage: "output path, - for stdout", Value: "leaderboard.xlsx"},
				},
				Action: exportLeaderboard,
			},
		},
	}
}

func exportLeaderboard(c *cli.Context) error {
	_, db, err := openDB(c)
	if err != nil {
		return err
	}
	defer db.Close()

	logger := slog.New(slog.NewTextHandler(c.App.ErrWriter, &slog.HandlerOptions{Level: slog.LevelWarn}))
	service := kothservice.NewKothService(kothdb.NewRepository(db), nil, nil, logger, nil, otel.Tracer("kothctl"), db)

	var w io.Writer = c.App.Writer
	out := c.String("out")
	if out != "-" {
		f, err := os.Create(out)
		if err != nil {
			return fmt.Errorf("failed to create %s: %w", out, err)
		}
		defer f.Close()
		w = f
	}

	if err := service.ExportLeaderboard(c.Context, sharedtypes.GuildID(c.String("guild")), w); err != nil {
		return err
	}
	if out != "-" {
		fmt.Fprintf(c.App.ErrWriter, "Leaderboard written to %s\n", out)
	}
	return nil
}
