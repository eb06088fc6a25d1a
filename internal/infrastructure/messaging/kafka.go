package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"loan-service/internal/domain/loan"

	kafkago "github.com/segmentio/kafka-go"
)

const eventTypeHeader = "event-type"

// messageWriter is the part of *kafkago.Writer the publisher needs.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// KafkaPublisher publishes loan events keyed by loan id, so every event for
// one loan lands on the same partition.
type KafkaPublisher struct {
	w     messageWriter
	topic string
}

func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafkago.Hash{},
		BatchTimeout: 10 * time.Millisecond,
		RequiredAcks: kafkago.RequireAll,
	}
	return &KafkaPublisher{w: w, topic: topic}
}

func (p *KafkaPublisher) PublishDisbursed(ctx context.Context, evt loan.Disbursed) error {
	value, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("kafka: encode disbursed event: %w", err)
	}
	msg := kafkago.Message{
		Key:   []byte(strconv.FormatUint(evt.LoanID, 10)),
		Value: value,
		Headers: []kafkago.Header{
			{Key: eventTypeHeader, Value: []byte("LoanDisbursed")},
		},
	}
	if err := p.w.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("kafka publish to %s: %w", p.topic, err)
	}
	return nil
}

func (p *KafkaPublisher) Close() error { return p.w.Close() }

// LogPublisher stands in when no brokers are configured.
type LogPublisher struct{}

func (LogPublisher) PublishDisbursed(_ context.Context, evt loan.Disbursed) error {
	slog.Info("loan disbursed event",
		"loan_id", evt.LoanID,
		"loan_number", evt.LoanNumber,
		"installments", len(evt.Schedule))
	return nil
}
