package notification

import (
	"context"
	"errors"
	"testing"
	"time"

	"storefront-backend/internal/domain"

	"github.com/goccy/go-json"
	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type captureWriter struct {
	msgs   []kafka.Message
	err    error
	closed bool
}

func (w *captureWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *captureWriter) Close() error {
	w.closed = true
	return nil
}

func TestKafkaNotifierPublishesKeyedEvent(t *testing.T) {
	w := &captureWriter{}
	n := &KafkaNotifier{writer: w, topic: "orders"}

	at := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	event := domain.OrderEvent{
		Type:        domain.OrderEventPlaced,
		OrderID:     "0b6a1d8c-0000-0000-0000-000000000001",
		OrderNumber: "AB12CD34",
		Status:      domain.OrderStatusPending,
		TotalAmount: decimal.RequireFromString("45.00"),
		OccurredAt:  at,
	}
	require.NoError(t, n.Notify(context.Background(), event))
	require.Len(t, w.msgs, 1)

	msg := w.msgs[0]
	assert.Equal(t, "AB12CD34", string(msg.Key))
	assert.Equal(t, at, msg.Time)
	require.Len(t, msg.Headers, 1)
	assert.Equal(t, "order.placed", string(msg.Headers[0].Value))

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(msg.Value, &decoded))
	assert.Equal(t, "AB12CD34", decoded["orderNumber"])
	assert.Equal(t, "pending", decoded["status"])
	assert.Equal(t, "45", decoded["totalAmount"])

	require.NoError(t, n.Close())
	assert.True(t, w.closed)
}

func TestKafkaNotifierWrapsWriteError(t *testing.T) {
	boom := errors.New("broker down")
	n := &KafkaNotifier{writer: &captureWriter{err: boom}, topic: "orders"}

	err := n.Notify(context.Background(), domain.OrderEvent{Type: domain.OrderEventStatusChanged, OrderNumber: "ZZ99ZZ99"})
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "ZZ99ZZ99")
}

func TestLogNotifierNeverFails(t *testing.T) {
	assert.NoError(t, NewLogNotifier().Notify(context.Background(), domain.OrderEvent{Type: domain.OrderEventPlaced}))
}
