package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/Black-And-White-Club/koth-bot/app/eventbus"
	"github.com/Black-And-White-Club/koth-bot/app/modules/koth"
	kothmigrations "github.com/Black-And-White-Club/koth-bot/app/modules/koth/infrastructure/repositories/migrations"
	kothrouter "github.com/Black-And-White-Club/koth-bot/app/modules/koth/infrastructure/router"
	"github.com/Black-And-White-Club/koth-bot/app/shared/observability"
	"github.com/Black-And-White-Club/koth-bot/app/shared/observability/attr"
	"github.com/Black-And-White-Club/koth-bot/config"
	"github.com/bwmarrin/discordgo"
	"github.com/redis/go-redis/v9"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/migrate"
)

func main() {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config.yaml"
	}

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	obs, err := observability.Init(config.ToObsConfig(cfg))
	if err != nil {
		log.Fatalf("Failed to initialize observability: %v", err)
	}
	logger := obs.Provider.Logger

	if err := run(cfg, obs); err != nil {
		logger.Error("Application stopped with error", attr.Error(err))
		os.Exit(1)
	}
	logger.Info("Application shut down gracefully")
}

func run(cfg *config.Config, obs *observability.Observability) error {
	logger := obs.Provider.Logger

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db := bun.NewDB(sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(cfg.Postgres.DSN))), pgdialect.New())
	defer db.Close()

	if err := migrateDB(ctx, db, logger); err != nil {
		return err
	}

	bus, err := eventbus.NewEventBus(ctx, eventbus.Options{URL: cfg.NATS.URL}, logger)
	if err != nil {
		return err
	}
	defer bus.Close()

	router, err := kothrouter.NewRouter(logger)
	if err != nil {
		return fmt.Errorf("failed to create router: %w", err)
	}

	opts := koth.Options{
		SettingsTTL:       cfg.Redis.SettingsTTL,
		PanelEditInterval: cfg.Discord.PanelEditInterval,
	}
	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("failed to connect to redis: %w", err)
		}
		opts.SettingsCache = rdb
	}

	session, err := discordgo.New("Bot " + cfg.Discord.Token)
	if err != nil {
		return fmt.Errorf("failed to create discord session: %w", err)
	}
	session.Identify.Intents = discordgo.IntentGuilds |
		discordgo.IntentGuildMessages |
		discordgo.IntentGuildMembers |
		discordgo.IntentMessageContent

	module, err := koth.NewKothModule(ctx, obs, bus, router, session, ctx, db, opts)
	if err != nil {
		return err
	}

	session.AddHandler(module.Gateway.OnMessageCreate)
	session.AddHandler(module.Gateway.OnInteractionCreate)

	if err := session.Open(); err != nil {
		return fmt.Errorf("failed to open discord session: %w", err)
	}
	defer session.Close()

	appID := cfg.Discord.AppID
	if appID == "" && session.State != nil && session.State.User != nil {
		appID = session.State.User.ID
	}
	if err := module.Gateway.RegisterCommands(ctx, appID, cfg.Discord.CommandGuildID); err != nil {
		return err
	}

	var wg sync.WaitGroup
	errCh := make(chan error, 2)

	wg.Add(1)
	go module.Run(ctx, &wg)

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := router.Run(ctx); err != nil {
			errCh <- fmt.Errorf("watermill router: %w", err)
		}
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := obs.Serve(ctx); err != nil {
			errCh <- fmt.Errorf("metrics server: %w", err)
		}
	}()

	logger.Info("Bot is running", attr.String("event_bus", bus.Backend()))

	var runErr error
	select {
	case <-ctx.Done():
		logger.Info("Shutdown signal received")
	case runErr = <-errCh:
		stop()
	}

	if err := module.Close(); err != nil {
		runErr = errors.Join(runErr, err)
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(15 * time.Second):
		logger.Warn("Timed out waiting for goroutines to stop")
	}
	return runErr
}

func migrateDB(ctx context.Context, db *bun.DB, logger *slog.Logger) error {
	migrator := migrate.NewMigrator(db, kothmigrations.Migrations)
	if err := migrator.Init(ctx); err != nil {
		return fmt.Errorf("failed to init migrations: %w", err)
	}
	group, err := migrator.Migrate(ctx)
	if err != nil {
		return fmt.Errorf("failed to migrate: %w", err)
	}
	if group.IsZero() {
		logger.Info("Database schema is up to date")
		return nil
	}
	logger.Info("Database migrated", attr.String("group", group.String()))
	return nil
}
