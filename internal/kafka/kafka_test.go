package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestBookingEventHandler_Decodes(t *testing.T) {
	want := BookingEvent{
		Type:       EventBookingConfirmed,
		BookingID:  "b1",
		TourID:     "t1",
		Status:     "CONFIRMED",
		Date:       "2026-11-02",
		OccurredAt: time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC),
	}
	payload, err := json.Marshal(want)
	require.NoError(t, err)

	var got BookingEvent
	handler := BookingEventHandler(zap.NewNop(), func(_ context.Context, e BookingEvent) error {
		got = e
		return nil
	})

	require.NoError(t, handler(context.Background(), kafka.Message{Value: payload}))
	assert.Equal(t, want, got)
}

func TestBookingEventHandler_SkipsGarbage(t *testing.T) {
	called := false
	handler := BookingEventHandler(zap.NewNop(), func(context.Context, BookingEvent) error {
		called = true
		return nil
	})

	assert.NoError(t, handler(context.Background(), kafka.Message{Value: []byte("{oops")}))
	assert.False(t, called)
}

func TestBookingEventHandler_PropagatesError(t *testing.T) {
	handler := BookingEventHandler(zap.NewNop(), func(context.Context, BookingEvent) error {
		return errors.New("sink down")
	})
	assert.Error(t, handler(context.Background(), kafka.Message{Value: []byte(`{"type":"booking_created"}`)}))
}

func TestProducer_CheckConnectionWithoutBrokers(t *testing.T) {
	p := NewProducer(nil, zap.NewNop())
	assert.Error(t, p.CheckConnection(context.Background()))
	assert.NoError(t, p.Close())
}

func TestConsumer_CloseNil(t *testing.T) {
	var c *Consumer
	assert.NoError(t, c.Close())
}
