package eventbus

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEventBusInProcess(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	bus, err := NewEventBus(ctx, Options{}, slog.New(slog.DiscardHandler))
	require.NoError(t, err)
	defer bus.Close()
	assert.Equal(t, "gochannel", bus.Backend())

	messages, err := bus.Subscribe(ctx, "koth.test")
	require.NoError(t, err)

	msg := message.NewMessage("", []byte(`{"hello":"world"}`))
	require.NoError(t, bus.Publish("koth.test", msg))
	assert.NotEmpty(t, msg.UUID)

	select {
	case got := <-messages:
		assert.Equal(t, msg.UUID, got.UUID)
		assert.JSONEq(t, `{"hello":"world"}`, string(got.Payload))
		got.Ack()
	case <-time.After(5 * time.Second):
		t.Fatal("message was not delivered")
	}
}
