package koth

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Black-And-White-Club/koth-bot/app/eventbus"
	kothservice "github.com/Black-And-White-Club/koth-bot/app/modules/koth/application"
	kothdiscord "github.com/Black-And-White-Club/koth-bot/app/modules/koth/infrastructure/discord"
	kothhandlers "github.com/Black-And-White-Club/koth-bot/app/modules/koth/infrastructure/handlers"
	kothdb "github.com/Black-And-White-Club/koth-bot/app/modules/koth/infrastructure/repositories"
	kothrouter "github.com/Black-And-White-Club/koth-bot/app/modules/koth/infrastructure/router"
	"github.com/Black-And-White-Club/koth-bot/app/shared/observability"
	"github.com/Black-And-White-Club/koth-bot/app/shared/observability/attr"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/uptrace/bun"
)

// Options tune the koth module.
type Options struct {
	// SettingsCache enables the read-through settings cache when non-nil.
	SettingsCache     kothdb.SettingsCache
	SettingsTTL       time.Duration
	PanelEditInterval time.Duration
}

// Module represents the koth module.
type Module struct {
	KothService   kothservice.Service
	Gateway       *kothdiscord.Gateway
	KothRouter    *kothrouter.KothRouter
	observability *observability.Observability

	// mu guards cancelFunc and closed; Run and Close race from different goroutines.
	mu         sync.Mutex
	cancelFunc context.CancelFunc
	closed     bool
}

// NewKothModule creates and initializes a new koth module.
func NewKothModule(
	ctx context.Context,
	obs *observability.Observability,
	eventBus eventbus.EventBus,
	router *message.Router,
	session kothdiscord.Session,
	routerCtx context.Context,
	db *bun.DB,
	opts Options,
) (*Module, error) {
	logger := obs.Provider.Logger
	tracer := obs.Registry.Tracer

	logger.InfoContext(ctx, "koth.NewKothModule initializing",
		attr.String("event_bus", eventBus.Backend()),
		attr.Bool("settings_cache", opts.SettingsCache != nil),
	)

	// 1. Initialize Repository
	var repo kothdb.Repository = kothdb.NewRepository(db)
	if opts.SettingsCache != nil {
		repo = kothdb.NewCachedRepository(repo, opts.SettingsCache, opts.SettingsTTL, logger)
	}

	// 2. Initialize Presenter and Announcer
	presenter := kothdiscord.NewPresenter(session, logger, opts.PanelEditInterval)
	announcer := kothhandlers.NewAnnouncer(eventBus)

	// 3. Initialize Service
	service := kothservice.NewKothService(repo, presenter, announcer, logger, obs.Registry.KothMetrics, tracer, db)

	// 4. Initialize Handlers
	handlers := kothhandlers.NewKothHandlers(presenter, logger, tracer)

	// 5. Initialize Router
	kothRouter := kothrouter.NewKothRouter(logger, router, eventBus, tracer)
	if err := kothRouter.Configure(routerCtx, handlers); err != nil {
		return nil, fmt.Errorf("failed to configure koth router: %w", err)
	}

	// 6. Initialize Gateway
	gateway := kothdiscord.NewGateway(service, session, logger)

	return &Module{
		KothService:   service,
		Gateway:       gateway,
		KothRouter:    kothRouter,
		observability: obs,
	}, nil
}

// Run blocks until ctx is cancelled.
func (m *Module) Run(ctx context.Context, wg *sync.WaitGroup) {
	logger := m.observability.Provider.Logger
	logger.InfoContext(ctx, "Starting koth module")

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	m.mu.Lock()
	if m.closed {
		cancel()
	} else {
		m.cancelFunc = cancel
	}
	m.mu.Unlock()

	if wg != nil {
		defer wg.Done()
	}

	<-ctx.Done()
	logger.InfoContext(ctx, "Koth module goroutine stopped")
}

// Close shuts down the koth module.
func (m *Module) Close() error {
	logger := m.observability.Provider.Logger
	logger.Info("Stopping koth module")

	m.mu.Lock()
	m.closed = true
	cancel := m.cancelFunc
	m.mu.Unlock()
	if cancel != nil {
		cancel()
	}

	if m.KothRouter != nil {
		if err := m.KothRouter.Close(); err != nil {
			logger.Error("Error closing KothRouter from module", attr.Error(err))
			return fmt.Errorf("error closing KothRouter: %w", err)
		}
	}

	logger.Info("Koth module stopped")
	return nil
}
