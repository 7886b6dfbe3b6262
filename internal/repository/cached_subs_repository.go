package repository

import (
	"context"

	"github.com/Dhoini/coach-billing/internal/domain"
	"github.com/Dhoini/coach-billing/pkg/logger"
)

// CachedSubscriptionRepository реализует SubscriptionRepository с кешированием.
// Ошибки кеша логируются и не прерывают операцию.
type CachedSubscriptionRepository struct {
	repo  SubscriptionRepository
	cache Cache
	log   *logger.Logger
}

// NewCachedSubscriptionRepository создает новый репозиторий с кешированием
func NewCachedSubscriptionRepository(repo SubscriptionRepository, cache Cache, log *logger.Logger) *CachedSubscriptionRepository {
	return &CachedSubscriptionRepository{
		repo:  repo,
		cache: cache,
		log:   log,
	}
}

// GetByUserID получает подписку (сначала из кеша, потом из БД).
// Прочитанная строка кладется через SetNX: запись, успевшая закешировать свежую строку, не затирается.
func (r *CachedSubscriptionRepository) GetByUserID(ctx context.Context, userID string) (*domain.Subscription, error) {
	cached, err := r.cache.GetSubscription(ctx, userID)
	if err != nil {
		r.log.Warnw("Error getting subscription from cache", "error", err, "userID", userID)
	}
	if cached != nil {
		return cached, nil
	}

	sub, err := r.repo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if err := r.cache.SetSubscriptionIfAbsent(ctx, sub); err != nil {
		r.log.Warnw("Failed to cache subscription after fetching", "error", err, "userID", userID)
	}
	return sub, nil
}

// ActivateExclusive активирует подписку и кладет проверенную строку в кеш
func (r *CachedSubscriptionRepository) ActivateExclusive(ctx context.Context, sub *domain.Subscription) (*domain.Subscription, error) {
	stored, err := r.repo.ActivateExclusive(ctx, sub)
	if err != nil {
		r.invalidate(ctx, sub.UserID)
		return nil, err
	}
	r.store(ctx, stored)
	return stored, nil
}

// UpsertByUserID обновляет подписку и кладет записанную строку в кеш
func (r *CachedSubscriptionRepository) UpsertByUserID(ctx context.Context, sub *domain.Subscription) error {
	if err := r.repo.UpsertByUserID(ctx, sub); err != nil {
		r.invalidate(ctx, sub.UserID)
		return err
	}
	r.store(ctx, sub)
	return nil
}

// UpdateStatus меняет статус и перечитывает строку в кеш
func (r *CachedSubscriptionRepository) UpdateStatus(ctx context.Context, userID string, status domain.SubscriptionStatus) (bool, error) {
	updated, err := r.repo.UpdateStatus(ctx, userID, status)
	if err != nil || !updated {
		r.invalidate(ctx, userID)
		return updated, err
	}

	sub, err := r.repo.GetByUserID(ctx, userID)
	if err != nil {
		r.log.Warnw("Failed to reload subscription after status update", "error", err, "userID", userID)
		r.invalidate(ctx, userID)
		return true, nil
	}
	r.store(ctx, sub)
	return true, nil
}

// CreateTrialIfAbsent создает триал и кладет его в кеш
func (r *CachedSubscriptionRepository) CreateTrialIfAbsent(ctx context.Context, sub *domain.Subscription) (bool, error) {
	created, err := r.repo.CreateTrialIfAbsent(ctx, sub)
	if err != nil {
		r.invalidate(ctx, sub.UserID)
		return false, err
	}
	if created {
		r.store(ctx, sub)
	}
	return created, nil
}

// store перезаписывает ключ строкой из записи. Если Set не прошел, ключ сбрасывается.
func (r *CachedSubscriptionRepository) store(ctx context.Context, sub *domain.Subscription) {
	if err := r.cache.SetSubscription(ctx, sub); err != nil {
		r.log.Warnw("Failed to cache written subscription", "error", err, "userID", sub.UserID)
		r.invalidate(ctx, sub.UserID)
	}
}

// invalidate вызывается и после неудачной записи: состояние строки неизвестно.
func (r *CachedSubscriptionRepository) invalidate(ctx context.Context, userID string) {
	if err := r.cache.InvalidateSubscription(ctx, userID); err != nil {
		r.log.Warnw("Failed to invalidate subscription cache", "error", err, "userID", userID)
	}
}

// CachedSettingsRepository реализует SettingsRepository с кешированием
type CachedSettingsRepository struct {
	repo  SettingsRepository
	cache Cache
	log   *logger.Logger
}

// NewCachedSettingsRepository создает новый репозиторий настроек с кешированием
func NewCachedSettingsRepository(repo SettingsRepository, cache Cache, log *logger.Logger) *CachedSettingsRepository {
	return &CachedSettingsRepository{
		repo:  repo,
		cache: cache,
		log:   log,
	}
}

// Get возвращает настройки (сначала из кеша, потом из БД)
func (r *CachedSettingsRepository) Get(ctx context.Context) (domain.AppSettings, error) {
	cached, err := r.cache.GetSettings(ctx)
	if err != nil {
		r.log.Warnw("Error getting settings from cache", "error", err)
	}
	if cached != nil {
		return *cached, nil
	}

	settings, err := r.repo.Get(ctx)
	if err != nil {
		return domain.AppSettings{}, err
	}
	if err := r.cache.SetSettings(ctx, settings); err != nil {
		r.log.Warnw("Failed to cache settings", "error", err)
	}
	return settings, nil
}

// Update сохраняет настройки и сбрасывает кеш
func (r *CachedSettingsRepository) Update(ctx context.Context, settings domain.AppSettings) (domain.AppSettings, error) {
	updated, err := r.repo.Update(ctx, settings)
	if cacheErr := r.cache.InvalidateSettings(ctx); cacheErr != nil {
		r.log.Warnw("Failed to invalidate settings cache", "error", cacheErr)
	}
	return updated, err
}
