package kafka

import (
	"context"
	"fmt"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// Producer writes to the single topic it was constructed for; the bridge
// publishes nothing but payment status updates.
type Producer interface {
	Produce(ctx context.Context, message []byte) error
	Close() error
}

type statusProducer struct {
	writer *kafka.Writer
	topic  string
	logger *zap.Logger
}

func NewProducer(brokers []string, topic string, l *zap.Logger) (Producer, error) {
	writer := &kafka.Writer{
		Addr:     kafka.TCP(brokers...),
		Topic:    topic,
		Balancer: &kafka.LeastBytes{},
		Logger:   zap.NewStdLog(l.With(zap.String("kafka_component", "producer"))),
	}

	l.Info("Kafka producer initialized",
		zap.Strings("brokers", brokers),
		zap.String("topic", topic))
	return &statusProducer{writer: writer, topic: topic, logger: l}, nil
}

func (p *statusProducer) Produce(ctx context.Context, message []byte) error {
	if err := p.writer.WriteMessages(ctx, kafka.Message{Value: message}); err != nil {
		p.logger.Error("Failed to produce message to Kafka topic",
			zap.String("topic", p.topic),
			zap.Error(err))
		return fmt.Errorf("failed to produce message: %w", err)
	}
	p.logger.Debug("Produced message to topic", zap.String("topic", p.topic))
	return nil
}

func (p *statusProducer) Close() error {
	if err := p.writer.Close(); err != nil {
		p.logger.Error("Failed to close Kafka producer", zap.Error(err))
		return fmt.Errorf("failed to close Kafka producer: %w", err)
	}
	p.logger.Info("Kafka producer closed.")
	return nil
}
