package kothrouter

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	kothhandlers "github.com/Black-And-White-Club/koth-bot/app/modules/koth/infrastructure/handlers"
	"github.com/Black-And-White-Club/koth-bot/app/shared/observability/attr"
	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	"go.opentelemetry.io/otel/trace"
)

// KothRouter handles Watermill handler registration for koth events.
type KothRouter struct {
	logger     *slog.Logger
	router     *message.Router
	subscriber message.Subscriber
	tracer     trace.Tracer
}

// NewKothRouter creates a new KothRouter.
func NewKothRouter(
	logger *slog.Logger,
	router *message.Router,
	subscriber message.Subscriber,
	tracer trace.Tracer,
) *KothRouter {
	return &KothRouter{
		logger:     logger,
		router:     router,
		subscriber: subscriber,
		tracer:     tracer,
	}
}

// Configure sets up the router with handlers.
func (r *KothRouter) Configure(_ context.Context, handlers kothhandlers.Handlers) error {
	r.registerHandlers(handlers)
	return nil
}

// handlerDeps bundles dependencies for handler registration.
type handlerDeps struct {
	router     *message.Router
	subscriber message.Subscriber
	logger     *slog.Logger
}

func (r *KothRouter) registerHandlers(handlers kothhandlers.Handlers) {
	deps := handlerDeps{
		router:     r.router,
		subscriber: r.subscriber,
		logger:     r.logger,
	}

	r.logger.Info("Registering koth module handlers",
		attr.String("announcement_subject", kothhandlers.AnnouncementRequestedV1),
	)

	registerHandler(deps, kothhandlers.AnnouncementRequestedV1, handlers.HandleAnnouncementRequested)

	r.logger.Info("Koth module handlers registered successfully")
}

// registerHandler decodes the JSON payload of a message into T before calling
// handler. Payloads that cannot be decoded are acked and dropped.
func registerHandler[T any](
	deps handlerDeps,
	topic string,
	handler func(context.Context, *T) error,
) {
	handlerName := "koth." + topic

	h := deps.router.AddNoPublisherHandler(
		handlerName,
		topic,
		deps.subscriber,
		func(msg *message.Message) error {
			ctx := attr.WithCorrelationID(msg.Context(), middleware.MessageCorrelationID(msg))

			payload := new(T)
			if err := json.Unmarshal(msg.Payload, payload); err != nil {
				deps.logger.ErrorContext(ctx, "Dropping undecodable message",
					attr.ExtractCorrelationID(ctx),
					attr.String("handler", handlerName),
					attr.String("message_id", msg.UUID),
					attr.Error(err),
				)
				return nil
			}
			return handler(ctx, payload)
		},
	)
	h.AddMiddleware(
		middleware.Retry{
			MaxRetries:      3,
			InitialInterval: 500 * time.Millisecond,
			Logger:          watermill.NewSlogLogger(deps.logger),
		}.Middleware,
	)
}

// NewRouter builds the watermill router shared by the module handlers.
func NewRouter(logger *slog.Logger) (*message.Router, error) {
	router, err := message.NewRouter(message.RouterConfig{CloseTimeout: 10 * time.Second}, watermill.NewSlogLogger(logger))
	if err != nil {
		return nil, err
	}
	router.AddMiddleware(middleware.CorrelationID, middleware.Recoverer)
	return router, nil
}

// Close shuts down the router.
func (r *KothRouter) Close() error {
	return r.router.Close()
}
