package producer

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go-portal/internal/events"
	"go-portal/internal/seed"

	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
}

// Publisher writes portal events. The topic is chosen per message, so one
// writer serves every event type.
type Publisher struct {
	writer messageWriter
	logger *zap.Logger
}

func NewPublisher(writer messageWriter, logger ...*zap.Logger) *Publisher {
	l := zap.L().Named("kafka.producer")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("kafka.producer")
	}
	return &Publisher{writer: writer, logger: l}
}

func publishEvent(ctx context.Context, writer messageWriter, topic, key, eventType, aggregateType string, event any) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode %s: %w", eventType, err)
	}

	msg := kafkago.Message{
		Topic: topic,
		Key:   []byte(key),
		Value: payload,
		Headers: []kafkago.Header{
			{Key: "event_type", Value: []byte(eventType)},
			{Key: "aggregate_type", Value: []byte(aggregateType)},
		},
	}

	return writer.WriteMessages(ctx, msg)
}

func (p *Publisher) PublishUserRegistered(ctx context.Context, event events.UserRegisteredEvent) error {
	if event.EventType == "" {
		event.EventType = events.UserRegisteredType
	}
	if err := publishEvent(ctx, p.writer, events.UserRegisteredTopic, event.UserID, event.EventType, "user", event); err != nil {
		return err
	}
	p.logger.Debug("user_registered published", zap.String("user_id", event.UserID))
	return nil
}

// PublishSeedBatch sends records of one kind as a single seed request and
// returns its request id.
func (p *Publisher) PublishSeedBatch(ctx context.Context, kind seed.Kind, records []seed.Record) (string, error) {
	raw, err := json.Marshal(records)
	if err != nil {
		return "", fmt.Errorf("encode %s records: %w", kind, err)
	}

	event := events.SeedRequestedEvent{
		EventType:  events.SeedRequestedType,
		RequestID:  uuid.NewString(),
		Kind:       string(kind),
		Records:    raw,
		OccurredAt: time.Now().UTC(),
	}
	if err := publishEvent(ctx, p.writer, events.SeedRequestedTopic, event.RequestID, event.EventType, "seed_batch", event); err != nil {
		return "", err
	}

	p.logger.Info("seed batch published",
		zap.String("request_id", event.RequestID),
		zap.String("kind", event.Kind),
		zap.Int("records", len(records)),
	)
	return event.RequestID, nil
}
