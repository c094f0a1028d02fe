package main

import (
	"database/sql"
	"fmt"
	"log"
	"os"

	"github.com/Black-And-White-Club/koth-bot/config"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/urfave/cli/v2"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "kothctl",
		Usage: "operate the King of the Hill bot database",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Value:   "config.yaml",
				Usage:   "path to the configuration file",
				EnvVars: []string{"CONFIG_PATH"},
			},
		},
		Commands: []*cli.Command{
			newMigrateCommand(),
			newLeaderboardCommand(),
			newSettingsCommand(),
		},
	}
}

// openDB connects to the database named by the configuration.
func openDB(c *cli.Context) (*config.Config, *bun.DB, error) {
	cfg, err := config.LoadToolConfig(c.String("config"))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	pgdb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(cfg.Postgres.DSN)))
	return cfg, bun.NewDB(pgdb, pgdialect.New()), nil
}
