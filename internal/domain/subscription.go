package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// SubscriptionStatus статус подписки тренера
type SubscriptionStatus string

const (
	SubscriptionStatusTrialing SubscriptionStatus = "trialing"
	SubscriptionStatusActive   SubscriptionStatus = "active"
	SubscriptionStatusCanceled SubscriptionStatus = "canceled"
)

// ActivationAccessWindow фиксированное окно доступа после оплаты через checkout.
// Не зависит от платежного интервала Stripe.
const ActivationAccessWindow = 365 * 24 * time.Hour

// Subscription представляет подписку тренера. На пользователя не более одной строки.
type Subscription struct {
	ID                 uuid.UUID          `json:"id" db:"id"`
	UserID             string             `json:"user_id" db:"user_id"`
	PlanID             *uuid.UUID         `json:"plan_id" db:"plan_id"`
	Status             SubscriptionStatus `json:"status" db:"status"`
	TrialEndsAt        *time.Time         `json:"trial_ends_at" db:"trial_ends_at"`
	CurrentPeriodStart time.Time          `json:"current_period_start" db:"current_period_start"`
	CurrentPeriodEnd   time.Time          `json:"current_period_end" db:"current_period_end"`
	UpdatedAt          time.Time          `json:"updated_at" db:"updated_at"`
}

// IsActivated проверяет инвариант после активации: оплачено и триал снят.
func (s *Subscription) IsActivated() bool {
	return s != nil && s.Status == SubscriptionStatusActive && s.TrialEndsAt == nil
}

// NormalizeProviderStatus сводит статус Stripe к бинарному доступ/нет доступа.
// Только "active" дает active, все остальное (past_due, incomplete, ...) -> canceled.
func NormalizeProviderStatus(providerStatus string) SubscriptionStatus {
	if providerStatus == string(SubscriptionStatusActive) {
		return SubscriptionStatusActive
	}
	return SubscriptionStatusCanceled
}

// ParseSubscriptionStatus читает статус из хранилища. Неизвестные значения
// трактуются как canceled.
func ParseSubscriptionStatus(s string) SubscriptionStatus {
	switch SubscriptionStatus(strings.ToLower(strings.TrimSpace(s))) {
	case SubscriptionStatusTrialing:
		return SubscriptionStatusTrialing
	case SubscriptionStatusActive:
		return SubscriptionStatusActive
	default:
		return SubscriptionStatusCanceled
	}
}

// SubscriptionDetails денормализованное представление подписки (view subscription_details),
// используется только для операционного логирования.
type SubscriptionDetails struct {
	UserID           string             `json:"user_id"`
	Status           SubscriptionStatus `json:"status"`
	PlanName         string             `json:"plan_name,omitempty"`
	TrialEndsAt      *time.Time         `json:"trial_ends_at,omitempty"`
	CurrentPeriodEnd time.Time          `json:"current_period_end"`
}

// ProviderSubscription снимок подписки на стороне платежного провайдера.
type ProviderSubscription struct {
	SubscriptionID string
	CustomerID     string
	ProviderStatus string
	PriceID        string
	PeriodStart    time.Time
	PeriodEnd      time.Time
}

// Status возвращает нормализованный статус.
func (p ProviderSubscription) Status() SubscriptionStatus {
	return NormalizeProviderStatus(p.ProviderStatus)
}
