package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"portpos-bridge/internal/domain"
)

type fakeProducer struct {
	payload  []byte
	produced int
	err      error
}

func (f *fakeProducer) Produce(_ context.Context, message []byte) error {
	f.produced++
	f.payload = message
	return f.err
}

func (f *fakeProducer) Close() error { return nil }

func TestKafkaPublisher_PublishStatus(t *testing.T) {
	t.Run("PublishesEvent", func(t *testing.T) {
		producer := &fakeProducer{}
		pub := NewKafkaPublisher(producer, zap.NewNop())

		err := pub.PublishStatus(context.Background(), "o1", domain.OrderStatusPaid, "T1")
		require.NoError(t, err)
		assert.Equal(t, 1, producer.produced)

		var event PaymentStatusEvent
		require.NoError(t, json.Unmarshal(producer.payload, &event))
		assert.Equal(t, "o1", event.OrderID)
		assert.Equal(t, "PAID", event.Status)
		assert.Equal(t, "T1", event.TxnID)
		assert.False(t, event.OccurredAt.IsZero())
	})

	t.Run("ProducerErrorPropagates", func(t *testing.T) {
		producer := &fakeProducer{err: errors.New("broker down")}
		pub := NewKafkaPublisher(producer, zap.NewNop())

		err := pub.PublishStatus(context.Background(), "o1", domain.OrderStatusFailed, "")
		assert.Error(t, err)
	})
}

func TestNopPublisher(t *testing.T) {
	assert.NoError(t, NopPublisher{}.PublishStatus(context.Background(), "o1", domain.OrderStatusPaid, "T1"))
}
