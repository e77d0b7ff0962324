package consumer

import (
	"context"
	"encoding/json"
	"fmt"

	"go-portal/internal/events"
	"go-portal/internal/seed"

	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

type messageReader interface {
	FetchMessage(ctx context.Context) (kafkago.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafkago.Message) error
}

type SeedIngester interface {
	Ingest(ctx context.Context, records []seed.Record) []seed.Outcome
}

// ConsumeSeedRequested runs every seed batch from reader through runner until
// ctx is cancelled. Messages that cannot be decoded are committed and skipped.
func ConsumeSeedRequested(
	ctx context.Context,
	reader messageReader,
	runner SeedIngester,
	logger *zap.Logger,
) {
	log := logger.Named("kafka.consumer.seed_requested")
	log.Info("seed consumer started")

	for {
		msg, err := reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				log.Info("seed consumer stopped")
				return
			}
			log.Error("fetch seed message failed", zap.Error(err))
			continue
		}

		event, records, err := decodeSeedRequested(msg.Value)
		if err != nil {
			log.Error("decode seed_requested event failed",
				zap.Int64("offset", msg.Offset),
				zap.Error(err),
			)
			_ = reader.CommitMessages(ctx, msg)
			continue
		}

		outcomes := runner.Ingest(ctx, records)
		sum := seed.Summarize(outcomes)

		if err := reader.CommitMessages(ctx, msg); err != nil {
			log.Error("commit seed message failed", zap.String("request_id", event.RequestID), zap.Error(err))
			continue
		}

		log.Info("seed batch ingested",
			zap.String("request_id", event.RequestID),
			zap.String("kind", event.Kind),
			zap.Int("succeeded", sum.Succeeded),
			zap.Int("failed", sum.Failed),
		)
	}
}

func decodeSeedRequested(value []byte) (events.SeedRequestedEvent, []seed.Record, error) {
	var event events.SeedRequestedEvent
	if err := json.Unmarshal(value, &event); err != nil {
		return event, nil, err
	}
	if event.EventType != events.SeedRequestedType {
		return event, nil, fmt.Errorf("unexpected event_type %q", event.EventType)
	}

	kind, err := seed.ParseKind(event.Kind)
	if err != nil {
		return event, nil, err
	}
	records, err := seed.DecodeJSON(kind, event.Records)
	if err != nil {
		return event, nil, err
	}
	return event, records, nil
}
