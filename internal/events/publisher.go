package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"portpos-bridge/internal/domain"
	"portpos-bridge/internal/infrastructure/kafka"
)

// PaymentStatusEvent announces a terminal order transition to downstream
// consumers (fulfilment, accounting).
type PaymentStatusEvent struct {
	OrderID    string    `json:"order_id"`
	Status     string    `json:"status"`
	TxnID      string    `json:"txn_id,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

type Publisher interface {
	PublishStatus(ctx context.Context, orderID string, status domain.OrderStatus, txnID string) error
}

type kafkaPublisher struct {
	producer kafka.Producer
	logger   *zap.Logger
}

func NewKafkaPublisher(producer kafka.Producer, l *zap.Logger) Publisher {
	return &kafkaPublisher{
		producer: producer,
		logger:   l.With(zap.String("component", "PaymentStatusPublisher")),
	}
}

func (p *kafkaPublisher) PublishStatus(ctx context.Context, orderID string, status domain.OrderStatus, txnID string) error {
	event := PaymentStatusEvent{
		OrderID:    orderID,
		Status:     string(status),
		TxnID:      txnID,
		OccurredAt: time.Now(),
	}
	payload, err := json.Marshal(event)
	if err != nil {
		p.logger.Error("Failed to marshal payment status event", zap.String("order_id", orderID), zap.Error(err))
		return fmt.Errorf("failed to marshal payment status event: %w", err)
	}

	if err := p.producer.Produce(ctx, payload); err != nil {
		p.logger.Error("Failed to publish payment status event",
			zap.String("order_id", orderID),
			zap.String("status", string(status)),
			zap.Error(err))
		return err
	}
	p.logger.Info("Payment status event published",
		zap.String("order_id", orderID),
		zap.String("status", string(status)))
	return nil
}

// NopPublisher is used when no broker is configured; the bridge then runs
// standalone and terminal transitions are only recorded on the order.
type NopPublisher struct{}

func (NopPublisher) PublishStatus(context.Context, string, domain.OrderStatus, string) error {
	return nil
}
