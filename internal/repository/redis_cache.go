package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Dhoini/coach-billing/internal/domain"
	"github.com/Dhoini/coach-billing/pkg/logger"
	"github.com/redis/go-redis/v9"
)

const (
	// Префиксы ключей для различных типов данных
	subscriptionKeyPrefix = "subscription:user:"
	settingsKey           = "app_settings"

	// TTL для кэша
	defaultCacheTTL = 5 * time.Minute
)

// Cache кеш подписок и настроек. Отсутствие ключа не ошибка: возвращается nil.
type Cache interface {
	GetSubscription(ctx context.Context, userID string) (*domain.Subscription, error)
	SetSubscription(ctx context.Context, sub *domain.Subscription) error
	// SetSubscriptionIfAbsent не перезаписывает ключ, уже записанный путем записи.
	SetSubscriptionIfAbsent(ctx context.Context, sub *domain.Subscription) error
	InvalidateSubscription(ctx context.Context, userID string) error
	GetSettings(ctx context.Context) (*domain.AppSettings, error)
	SetSettings(ctx context.Context, settings domain.AppSettings) error
	InvalidateSettings(ctx context.Context) error
}

// RedisCache реализует Cache с использованием Redis
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
	log    *logger.Logger
}

// NewRedisClient подключается к Redis и проверяет соединение
func NewRedisClient(ctx context.Context, addr, password string, db int, log *logger.Logger) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	log.Infow("Connected to Redis successfully", "addr", addr)
	return client, nil
}

// NewRedisCache создает новый кеш поверх готового клиента
func NewRedisCache(client *redis.Client, ttl time.Duration, log *logger.Logger) *RedisCache {
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	return &RedisCache{
		client: client,
		ttl:    ttl,
		log:    log,
	}
}

// Close закрывает соединение с Redis
func (r *RedisCache) Close() error {
	return r.client.Close()
}

// GetSubscription получает подписку пользователя из кеша
func (r *RedisCache) GetSubscription(ctx context.Context, userID string) (*domain.Subscription, error) {
	var sub domain.Subscription
	found, err := r.get(ctx, subscriptionKeyPrefix+userID, &sub)
	if err != nil || !found {
		return nil, err
	}
	r.log.Debugw("Subscription retrieved from cache", "userID", userID)
	return &sub, nil
}

// SetSubscription кеширует подписку пользователя
func (r *RedisCache) SetSubscription(ctx context.Context, sub *domain.Subscription) error {
	return r.set(ctx, subscriptionKeyPrefix+sub.UserID, sub)
}

// SetSubscriptionIfAbsent кеширует подписку, только если ключа еще нет
func (r *RedisCache) SetSubscriptionIfAbsent(ctx context.Context, sub *domain.Subscription) error {
	data, err := json.Marshal(sub)
	if err != nil {
		return fmt.Errorf("failed to marshal subscription: %w", err)
	}
	stored, err := r.client.SetNX(ctx, subscriptionKeyPrefix+sub.UserID, data, r.ttl).Result()
	if err != nil {
		return fmt.Errorf("failed to cache subscription: %w", err)
	}
	if !stored {
		r.log.Debugw("Subscription cache already populated by a write", "userID", sub.UserID)
	}
	return nil
}

// InvalidateSubscription удаляет подписку пользователя из кеша
func (r *RedisCache) InvalidateSubscription(ctx context.Context, userID string) error {
	if err := r.client.Del(ctx, subscriptionKeyPrefix+userID).Err(); err != nil {
		return fmt.Errorf("failed to invalidate subscription cache: %w", err)
	}
	r.log.Debugw("Subscription cache invalidated", "userID", userID)
	return nil
}

// GetSettings получает настройки из кеша
func (r *RedisCache) GetSettings(ctx context.Context) (*domain.AppSettings, error) {
	var settings domain.AppSettings
	found, err := r.get(ctx, settingsKey, &settings)
	if err != nil || !found {
		return nil, err
	}
	return &settings, nil
}

// SetSettings кеширует настройки
func (r *RedisCache) SetSettings(ctx context.Context, settings domain.AppSettings) error {
	return r.set(ctx, settingsKey, settings)
}

// InvalidateSettings удаляет настройки из кеша
func (r *RedisCache) InvalidateSettings(ctx context.Context) error {
	if err := r.client.Del(ctx, settingsKey).Err(); err != nil {
		return fmt.Errorf("failed to invalidate settings cache: %w", err)
	}
	return nil
}

func (r *RedisCache) get(ctx context.Context, key string, dst any) (bool, error) {
	data, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, fmt.Errorf("failed to get %s from cache: %w", key, err)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return false, fmt.Errorf("failed to unmarshal cached %s: %w", key, err)
	}
	return true, nil
}

func (r *RedisCache) set(ctx context.Context, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", key, err)
	}
	if err := r.client.Set(ctx, key, data, r.ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache %s: %w", key, err)
	}
	return nil
}

// NoopCache кеш-заглушка, когда Redis отключен.
type NoopCache struct{}

func (NoopCache) GetSubscription(context.Context, string) (*domain.Subscription, error) {
	return nil, nil
}
func (NoopCache) SetSubscription(context.Context, *domain.Subscription) error         { return nil }
func (NoopCache) SetSubscriptionIfAbsent(context.Context, *domain.Subscription) error { return nil }
func (NoopCache) InvalidateSubscription(context.Context, string) error              { return nil }
func (NoopCache) GetSettings(context.Context) (*domain.AppSettings, error)            { return nil, nil }
func (NoopCache) SetSettings(context.Context, domain.AppSettings) error               { return nil }
func (NoopCache) InvalidateSettings(context.Context) error                            { return nil }
