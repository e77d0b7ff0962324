package app

import (
	"context"
	"errors"
	"os"

	"go-portal/internal/events"
	"go-portal/internal/messaging/kafka/consumer"
	"go-portal/internal/store"

	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

const seedConsumerGroup = "go-portal-seed-ingest"

// RunConsumer ingests seed batches from Kafka until ctx is cancelled.
func RunConsumer(ctx context.Context) error {
	logger := zap.L().Named("app.consumer")

	kafkaBroker := os.Getenv("KAFKA_BROKER")
	if kafkaBroker == "" {
		return errors.New("KAFKA_BROKER is required")
	}

	s, err := store.Open(ctx, store.ConfigFromEnv())
	if err != nil {
		return err
	}
	defer s.Close()

	runner, err := NewSeedRunner(ctx, s)
	if err != nil {
		return err
	}

	reader := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:        []string{kafkaBroker},
		Topic:          events.SeedRequestedTopic,
		GroupID:        seedConsumerGroup,
		CommitInterval: 0,
		StartOffset:    kafkago.FirstOffset,
	})
	defer reader.Close()

	consumer.ConsumeSeedRequested(ctx, reader, runner, logger)

	logger.Info("consumer shutting down")
	return nil
}
