package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	kothdb "github.com/Black-And-White-Club/koth-bot/app/modules/koth/infrastructure/repositories"
	sharedtypes "github.com/Black-And-White-Club/koth-bot/app/shared/types"
	"github.com/redis/go-redis/v9"
	"github.com/urfave/cli/v2"
)

// settingKeys are the guild settings an operator may change by hand. Contest
// state is owned by the bot.
var settingKeys = map[string]func(u *kothdb.SettingsUpdate, value string){
	"submission_channel_id": func(u *kothdb.SettingsUpdate, v string) {
		id := sharedtypes.ChannelID(v)
		u.SubmissionChannelID = &id
	},
	"koth_submission_channel_id": func(u *kothdb.SettingsUpdate, v string) {
		id := sharedtypes.ChannelID(v)
		u.KothSubmissionChannelID = &id
	},
	"review_channel_id": func(u *kothdb.SettingsUpdate, v string) {
		id := sharedtypes.ChannelID(v)
		u.ReviewChannelID = &id
	},
	"koth_winner_role_id": func(u *kothdb.SettingsUpdate, v string) {
		id := sharedtypes.RoleID(v)
		u.KothWinnerRoleID = &id
	},
	"admin_role_ids": func(u *kothdb.SettingsUpdate, v string) {
		u.AdminRoleIDs = &v
	},
	"mod_role_ids": func(u *kothdb.SettingsUpdate, v string) {
		u.ModRoleIDs = &v
	},
}

// settingsUpdate builds the partial update for one key.
func settingsUpdate(key, value string) (kothdb.SettingsUpdate, error) {
	var update kothdb.SettingsUpdate
	apply, ok := settingKeys[key]
	if !ok {
		keys := make([]string, 0, len(settingKeys))
		for k := range settingKeys {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		return update, fmt.Errorf("unknown setting %q, expected one of %s", key, strings.Join(keys, ", "))
	}
	apply(&update, strings.TrimSpace(value))
	return update, nil
}

func newSettingsCommand() *cli.Command {
	guildFlag := &cli.StringFlag{Name: "guild", Usage: "guild id", Required: true}
	return &cli.Command{
		Name:  "settings",
		Usage: "inspect and change guild settings",
		Subcommands: []*cli.Command{
			{
				Name:   "show",
				Usage:  "print a guild's settings",
				Flags:  []cli.Flag{guildFlag},
				Action: showSettings,
			},
			{
				Name:      "set",
				Usage:     "change one guild setting",
				ArgsUsage: "<key> <value>",
				Flags:     []cli.Flag{guildFlag},
				Action:    setSetting,
			},
		},
	}
}

func showSettings(c *cli.Context) error {
	_, db, err := openDB(c)
	if err != nil {
		return err
	}
	defer db.Close()

	settings, err := kothdb.NewRepository(db).GetSettings(c.Context, nil, sharedtypes.GuildID(c.String("guild")))
	if errors.Is(err, kothdb.ErrNotFound) {
		fmt.Fprintln(c.App.Writer, "No settings stored for this guild")
		return nil
	}
	if err != nil {
		return err
	}
	enc := json.NewEncoder(c.App.Writer)
	enc.SetIndent("", "  ")
	return enc.Encode(settings)
}

func setSetting(c *cli.Context) error {
	if c.NArg() != 2 {
		return cli.Exit("usage: kothctl settings set --guild <id> <key> <value>", 2)
	}
	update, err := settingsUpdate(c.Args().Get(0), c.Args().Get(1))
	if err != nil {
		return cli.Exit(err.Error(), 2)
	}

	cfg, db, err := openDB(c)
	if err != nil {
		return err
	}
	defer db.Close()

	repo := kothdb.NewRepository(db)
	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		defer rdb.Close()
		logger := slog.New(slog.NewTextHandler(c.App.ErrWriter, &slog.HandlerOptions{Level: slog.LevelWarn}))
		repo = kothdb.NewCachedRepository(repo, rdb, cfg.Redis.SettingsTTL, logger)
	}

	guildID := sharedtypes.GuildID(c.String("guild"))
	if err := repo.UpdateSettings(c.Context, nil, guildID, update); err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "Updated %s for guild %s\n", c.Args().Get(0), guildID)
	return nil
}
