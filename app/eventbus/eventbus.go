// Package eventbus provides the watermill publisher and subscriber pair the
// bot uses for fire-and-forget notifications.
package eventbus

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Black-And-White-Club/koth-bot/app/shared/observability/attr"
	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-nats/v2/pkg/nats"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	nc "github.com/nats-io/nats.go"
)

// EventBus publishes and consumes watermill messages.
type EventBus interface {
	message.Publisher
	message.Subscriber
	// Backend names the transport in use, "nats" or "gochannel".
	Backend() string
}

type eventBus struct {
	publisher  message.Publisher
	subscriber message.Subscriber
	backend    string
	logger     *slog.Logger
}

// Options tune the NATS transport.
type Options struct {
	URL            string
	ConnectTimeout time.Duration
	ReconnectWait  time.Duration
	CloseTimeout   time.Duration
}

// NewEventBus connects to NATS core when opts.URL is set and falls back to an
// in-process go channel otherwise.
func NewEventBus(ctx context.Context, opts Options, logger *slog.Logger) (EventBus, error) {
	if logger == nil {
		logger = slog.Default()
	}
	wmLogger := watermill.NewSlogLogger(logger)

	if opts.URL == "" {
		logger.InfoContext(ctx, "No NATS url configured, using in-process event bus")
		ch := gochannel.NewGoChannel(gochannel.Config{OutputChannelBuffer: 64}, wmLogger)
		return &eventBus{publisher: ch, subscriber: ch, backend: "gochannel", logger: logger}, nil
	}

	if opts.ConnectTimeout <= 0 {
		opts.ConnectTimeout = 10 * time.Second
	}
	if opts.ReconnectWait <= 0 {
		opts.ReconnectWait = time.Second
	}
	if opts.CloseTimeout <= 0 {
		opts.CloseTimeout = 30 * time.Second
	}

	natsOptions := []nc.Option{
		nc.RetryOnFailedConnect(true),
		nc.Timeout(opts.ConnectTimeout),
		nc.ReconnectWait(opts.ReconnectWait),
		nc.ErrorHandler(func(_ *nc.Conn, s *nc.Subscription, err error) {
			if s != nil {
				logger.Error("NATS subscription error", attr.String("subject", s.Subject), attr.Error(err))
				return
			}
			logger.Error("NATS connection error", attr.Error(err))
		}),
	}
	marshaler := &nats.NATSMarshaler{}
	jsConfig := nats.JetStreamConfig{Disabled: true}

	publisher, err := nats.NewPublisher(
		nats.PublisherConfig{
			URL:         opts.URL,
			NatsOptions: natsOptions,
			Marshaler:   marshaler,
			JetStream:   jsConfig,
		},
		wmLogger,
	)
	if err != nil {
		logger.ErrorContext(ctx, "Failed to create NATS publisher", attr.Error(err))
		return nil, fmt.Errorf("eventbus.NewEventBus: publisher: %w", err)
	}

	subscriber, err := nats.NewSubscriber(
		nats.SubscriberConfig{
			URL:               opts.URL,
			CloseTimeout:      opts.CloseTimeout,
			AckWaitTimeout:    opts.CloseTimeout,
			NatsOptions:       natsOptions,
			Unmarshaler:       marshaler,
			JetStream:         jsConfig,
			SubjectCalculator: nats.DefaultSubjectCalculator,
		},
		wmLogger,
	)
	if err != nil {
		_ = publisher.Close()
		logger.ErrorContext(ctx, "Failed to create NATS subscriber", attr.Error(err))
		return nil, fmt.Errorf("eventbus.NewEventBus: subscriber: %w", err)
	}

	logger.InfoContext(ctx, "Connected event bus to NATS", attr.String("url", opts.URL))
	return &eventBus{publisher: publisher, subscriber: subscriber, backend: "nats", logger: logger}, nil
}

func (eb *eventBus) Publish(topic string, messages ...*message.Message) error {
	for _, msg := range messages {
		if msg.UUID == "" {
			msg.UUID = watermill.NewUUID()
		}
	}
	if err := eb.publisher.Publish(topic, messages...); err != nil {
		eb.logger.Error("Failed to publish message", attr.String("topic", topic), attr.Error(err))
		return fmt.Errorf("eventbus.Publish: %s: %w", topic, err)
	}
	return nil
}

func (eb *eventBus) Subscribe(ctx context.Context, topic string) (<-chan *message.Message, error) {
	messages, err := eb.subscriber.Subscribe(ctx, topic)
	if err != nil {
		return nil, fmt.Errorf("eventbus.Subscribe: %s: %w", topic, err)
	}
	eb.logger.InfoContext(ctx, "Subscription started", attr.String("topic", topic), attr.String("backend", eb.backend))
	return messages, nil
}

func (eb *eventBus) Backend() string {
	return eb.backend
}

// Close closes the publisher and subscriber. The go channel backend is one
// object and is closed once.
func (eb *eventBus) Close() error {
	var errs []error
	if err := eb.subscriber.Close(); err != nil {
		errs = append(errs, err)
	}
	if eb.backend != "gochannel" {
		if err := eb.publisher.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
