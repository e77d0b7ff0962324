package app

import (
	"context"
	"errors"
	"os"

	"go-portal/internal/auth"
	"go-portal/internal/messaging/kafka/producer"
	"go-portal/internal/shared/connection"
	"go-portal/internal/store"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// Infra holds the connections a process opened. Close releases all of them.
type Infra struct {
	Store store.Store
	Redis *redis.Client
	Kafka *kafkago.Writer
}

// OpenInfra connects the record store and, when configured, Redis and Kafka.
// REDIS_ADDR and KAFKA_BROKER are optional; without them signup runs without
// idempotency replay and events are dropped.
func OpenInfra(ctx context.Context) (*Infra, error) {
	logger := zap.L().Named("app.infra")
	cfg := store.ConfigFromEnv()

	s, err := store.Open(ctx, cfg)
	if err != nil {
		return nil, err
	}
	logger.Info("record store ready", zap.String("driver", cfg.Driver))

	infra := &Infra{Store: s}

	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		rdb, err := connection.ConnectRedisWithRetry(ctx, addr, 5)
		if err != nil {
			_ = infra.Close()
			return nil, err
		}
		infra.Redis = rdb
		logger.Info("redis connection established")
	}

	if broker := os.Getenv("KAFKA_BROKER"); broker != "" {
		writer, err := connection.ConnectKafkaWithRetry(ctx, broker, 5)
		if err != nil {
			_ = infra.Close()
			return nil, err
		}
		infra.Kafka = writer
		logger.Info("kafka writer ready")
	}

	return infra, nil
}

func (i *Infra) Close() error {
	var errs []error
	if i.Kafka != nil {
		errs = append(errs, i.Kafka.Close())
	}
	if i.Redis != nil {
		errs = append(errs, i.Redis.Close())
	}
	if i.Store != nil {
		errs = append(errs, i.Store.Close())
	}
	return errors.Join(errs...)
}

// Publisher returns the Kafka publisher, or a no-op one when no broker is set.
func (i *Infra) Publisher() auth.EventPublisher {
	if i.Kafka == nil {
		return auth.NoopPublisher{}
	}
	return producer.NewPublisher(i.Kafka)
}

func (i *Infra) Dependencies() Dependencies {
	return Dependencies{
		Store:     i.Store,
		Redis:     i.Redis,
		Publisher: i.Publisher(),
		Hasher:    auth.HasherByName(os.Getenv("PASSWORD_HASHER")),
		Logger:    zap.L(),
	}
}

// BuildApp opens the infrastructure and mounts every route on router. The
// caller owns the returned Infra and must Close it.
func BuildApp(ctx context.Context, router *gin.Engine) (*Infra, error) {
	infra, err := OpenInfra(ctx)
	if err != nil {
		return nil, err
	}

	RegisterModules(router, infra.Dependencies())
	return infra, nil
}
