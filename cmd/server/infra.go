package main

import (
	"context"
	"fmt"
	"time"

	"github.com/Dhoini/coach-billing/internal/config"
	"github.com/Dhoini/coach-billing/internal/db"
	"github.com/Dhoini/coach-billing/internal/kafka"
	"github.com/Dhoini/coach-billing/internal/kafka/producer"
	"github.com/Dhoini/coach-billing/internal/repository"
	"github.com/Dhoini/coach-billing/internal/repository/postgres"
	"github.com/Dhoini/coach-billing/pkg/logger"
	"github.com/cenkalti/backoff/v4"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

// infra внешние подключения, общие для команд
type infra struct {
	pool     *pgxpool.Pool
	catalog  *db.DBClient
	redis    *redis.Client
	cache    repository.Cache
	producer kafka.Producer
	log      *logger.Logger
}

// withRetry повторяет подключение с экспоненциальной задержкой
func withRetry(ctx context.Context, log *logger.Logger, what string, op func() error) error {
	bo := backoff.NewExponentialBackOff()
	bo.MaxInterval = 5 * time.Second
	bo.MaxElapsedTime = 30 * time.Second

	return backoff.RetryNotify(op, backoff.WithContext(bo, ctx), func(err error, next time.Duration) {
		log.Warnw("Connection attempt failed, retrying", "target", what, "error", err, "next", next.String())
	})
}

// connectStores подключает Postgres (pgxpool и sqlx) и, если включен, Redis
func connectStores(ctx context.Context, cfg *config.Config, log *logger.Logger) (*infra, error) {
	in := &infra{cache: repository.NoopCache{}, producer: kafka.NoopProducer{}, log: log}

	err := withRetry(ctx, log, "postgres", func() error {
		pool, err := postgres.NewConnection(ctx, cfg.Database.DSN, cfg.Database.MaxConns, log)
		if err != nil {
			return err
		}
		in.pool = pool
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("postgres: %w", err)
	}

	err = withRetry(ctx, log, "catalog", func() error {
		client, err := db.NewDBClient(ctx, cfg.Database.DSN, log.Desugar())
		if err != nil {
			return err
		}
		in.catalog = client
		return nil
	})
	if err != nil {
		in.Close()
		return nil, fmt.Errorf("catalog: %w", err)
	}

	if cfg.Redis.Enabled {
		err = withRetry(ctx, log, "redis", func() error {
			client, err := repository.NewRedisClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, log)
			if err != nil {
				return err
			}
			in.redis = client
			return nil
		})
		if err != nil {
			// Кеш необязателен: работаем напрямую с базой
			log.Warnw("Redis unavailable, cache disabled", "error", err)
		} else {
			in.cache = repository.NewRedisCache(in.redis, cfg.Redis.TTL, log)
		}
	}
	return in, nil
}

// connectProducer создает продюсер событий выбранного драйвера
func (in *infra) connectProducer(ctx context.Context, cfg *config.Config) error {
	if !cfg.Kafka.Enabled {
		return nil
	}
	kcfg := kafka.NewConfig(cfg.Kafka.Brokers, cfg.Kafka.Topic)

	var (
		p   kafka.Producer
		err error
	)
	switch cfg.Kafka.Driver {
	case kafka.DriverSarama:
		p, err = producer.NewSaramaProducer(kcfg, in.log)
	default:
		if err := kafka.EnsureTopic(ctx, kcfg, in.log); err != nil {
			in.log.Warnw("Failed to ensure Kafka topic", "topic", kcfg.Topic, "error", err)
		}
		p, err = kafka.NewKafkaProducer(kcfg, in.log)
	}
	if err != nil {
		return fmt.Errorf("kafka producer: %w", err)
	}
	in.producer = p
	in.log.Infow("Kafka producer initialized", "driver", cfg.Kafka.Driver, "topic", kcfg.Topic)
	return nil
}

// Close закрывает все открытые подключения
func (in *infra) Close() {
	if in.producer != nil {
		if err := in.producer.Close(); err != nil {
			in.log.Warnw("Failed to close Kafka producer", "error", err)
		}
	}
	if in.redis != nil {
		if err := in.redis.Close(); err != nil {
			in.log.Warnw("Failed to close Redis client", "error", err)
		}
	}
	if in.catalog != nil {
		_ = in.catalog.Close()
	}
	if in.pool != nil {
		in.pool.Close()
	}
}
