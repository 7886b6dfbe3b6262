package service

import (
	"context"
	"fmt"
	"time"

	"github.com/Dhoini/coach-billing/internal/domain"
	"github.com/Dhoini/coach-billing/internal/kafka"
	"github.com/Dhoini/coach-billing/internal/repository"
	"github.com/Dhoini/coach-billing/pkg/logger"
	"github.com/google/uuid"
)

// TrialService открывает пробный период новым тренерам
type TrialService interface {
	// StartTrial создает триал, если у пользователя еще нет подписки,
	// и возвращает текущую строку.
	StartTrial(ctx context.Context, userID string) (*domain.Subscription, bool, error)
}

type trialService struct {
	subs     repository.SubscriptionRepository
	settings repository.SettingsRepository
	events   kafka.Producer
	now      func() time.Time
	log      *logger.Logger
}

// NewTrialService создает новый сервис триалов
func NewTrialService(
	subs repository.SubscriptionRepository,
	settings repository.SettingsRepository,
	events kafka.Producer,
	log *logger.Logger,
) TrialService {
	if events == nil {
		events = kafka.NoopProducer{}
	}
	return &trialService{
		subs:     subs,
		settings: settings,
		events:   events,
		now:      time.Now,
		log:      log,
	}
}

// StartTrial создает триальную подписку длиной trial_duration_days
func (s *trialService) StartTrial(ctx context.Context, userID string) (*domain.Subscription, bool, error) {
	settings, err := s.settings.Get(ctx)
	if err != nil {
		return nil, false, fmt.Errorf("load settings: %w", err)
	}

	now := s.now().UTC()
	trialEnd := settings.TrialEnd(now)
	sub := &domain.Subscription{
		UserID:             userID,
		Status:             domain.SubscriptionStatusTrialing,
		TrialEndsAt:        &trialEnd,
		CurrentPeriodStart: now,
		CurrentPeriodEnd:   trialEnd,
	}

	created, err := s.subs.CreateTrialIfAbsent(ctx, sub)
	if err != nil {
		return nil, false, fmt.Errorf("create trial: %w", err)
	}

	current, err := s.subs.GetByUserID(ctx, userID)
	if err != nil {
		return nil, false, fmt.Errorf("load subscription: %w", err)
	}

	if created {
		s.log.Infow("Trial started", "userID", userID, "trialEndsAt", trialEnd)
		event := &domain.SubscriptionEvent{
			ID:         uuid.New(),
			Kind:       domain.SubscriptionEventTrial,
			UserID:     userID,
			Status:     domain.SubscriptionStatusTrialing,
			OccurredAt: now,
		}
		if err := s.events.PublishSubscriptionEvent(ctx, event); err != nil {
			s.log.Warnw("Failed to publish trial event", "error", err, "userID", userID)
		}
	}
	return current, created, nil
}
