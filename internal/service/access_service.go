package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Dhoini/coach-billing/internal/access"
	"github.com/Dhoini/coach-billing/internal/domain"
	"github.com/Dhoini/coach-billing/internal/metrics"
	"github.com/Dhoini/coach-billing/internal/repository"
	"github.com/Dhoini/coach-billing/pkg/logger"
)

// AccessService собирает снимок состояния и вычисляет доступ тренера
type AccessService interface {
	Evaluate(ctx context.Context, caller domain.Caller) (access.GuardResult, error)
}

type accessService struct {
	subs     repository.SubscriptionRepository
	plans    repository.PlanRepository
	settings repository.SettingsRepository
	athletes repository.AthleteCounter
	metrics  metrics.BillingMetrics
	now      func() time.Time
	log      *logger.Logger
}

// NewAccessService создает новый сервис проверки доступа
func NewAccessService(
	subs repository.SubscriptionRepository,
	plans repository.PlanRepository,
	settings repository.SettingsRepository,
	athletes repository.AthleteCounter,
	m metrics.BillingMetrics,
	log *logger.Logger,
) AccessService {
	if m == nil {
		m = metrics.NoopMetrics{}
	}
	return &accessService{
		subs:     subs,
		plans:    plans,
		settings: settings,
		athletes: athletes,
		metrics:  m,
		now:      time.Now,
		log:      log,
	}
}

// Evaluate вычисляет GuardResult для пользователя
func (s *accessService) Evaluate(ctx context.Context, caller domain.Caller) (access.GuardResult, error) {
	sub, err := s.subs.GetByUserID(ctx, caller.UserID)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return access.GuardResult{}, fmt.Errorf("load subscription: %w", err)
	}

	var plan *domain.Plan
	if sub != nil && sub.PlanID != nil {
		plan, err = s.plans.GetByID(ctx, *sub.PlanID)
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			return access.GuardResult{}, fmt.Errorf("load plan: %w", err)
		}
	}

	settings, err := s.settings.Get(ctx)
	if err != nil {
		return access.GuardResult{}, fmt.Errorf("load settings: %w", err)
	}

	count, err := s.athletes.CountActiveAthletes(ctx, caller.UserID)
	if err != nil {
		return access.GuardResult{}, fmt.Errorf("count athletes: %w", err)
	}

	result := access.Evaluate(access.NewInput(caller, sub, plan, settings, count, s.now()))
	s.metrics.IncGuardDecision(string(result.Decision))

	s.log.Debugw("Access evaluated",
		"userID", caller.UserID,
		"decision", result.Decision,
		"athleteLimit", result.AthleteLimit,
		"athletes", count,
	)
	return result, nil
}
