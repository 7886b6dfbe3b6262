package domain

import (
	"time"

	"github.com/google/uuid"
)

// WebhookEventType тип события Stripe
type WebhookEventType string

const (
	EventCheckoutSessionCompleted    WebhookEventType = "checkout.session.completed"
	EventCustomerSubscriptionCreated WebhookEventType = "customer.subscription.created"
	EventCustomerSubscriptionUpdated WebhookEventType = "customer.subscription.updated"
	EventCustomerSubscriptionDeleted WebhookEventType = "customer.subscription.deleted"
)

// CheckoutCompletion данные завершенного checkout, нужные для активации.
type CheckoutCompletion struct {
	EventID       string
	SessionID     string
	CustomerID    string
	CustomerEmail string
}

// ReconcileOutcome итог обработки события сверки.
type ReconcileOutcome string

const (
	// OutcomeApplied состояние подписки изменено.
	OutcomeApplied ReconcileOutcome = "applied"
	// OutcomeSkipped событие не применено намеренно (например, нет связки customer -> user).
	OutcomeSkipped ReconcileOutcome = "skipped"
	// OutcomeDegraded запись не удалась, но ошибка не эскалируется, чтобы Stripe
	// не повторял доставку бесконечно. Обновление может быть потеряно.
	OutcomeDegraded ReconcileOutcome = "degraded"
	// OutcomeIgnored тип события не обрабатывается.
	OutcomeIgnored ReconcileOutcome = "ignored"
)

// ReconcileResult результат процедуры сверки.
type ReconcileResult struct {
	Outcome ReconcileOutcome
	UserID  string
	Reason  string
	Err     error
}

// Applied создает результат успешной сверки.
func Applied(userID string) ReconcileResult {
	return ReconcileResult{Outcome: OutcomeApplied, UserID: userID}
}

// Skipped создает результат пропущенного события.
func Skipped(reason string) ReconcileResult {
	return ReconcileResult{Outcome: OutcomeSkipped, Reason: reason}
}

// Degraded создает результат неудачной, но не эскалируемой записи.
func Degraded(userID string, err error) ReconcileResult {
	return ReconcileResult{Outcome: OutcomeDegraded, UserID: userID, Reason: "write failed", Err: err}
}

// AuditAction действие, фиксируемое в журнале аудита
type AuditAction string

const (
	AuditActionSubscriptionActivated AuditAction = "subscription_activated"
)

// AuditEntry запись журнала аудита
type AuditEntry struct {
	ID        uuid.UUID      `json:"id"`
	UserID    string         `json:"user_id"`
	Action    AuditAction    `json:"action"`
	Details   map[string]any `json:"details"`
	CreatedAt time.Time      `json:"created_at"`
}

// SubscriptionEventKind тип события, публикуемого для аналитики
type SubscriptionEventKind string

const (
	SubscriptionEventActivated SubscriptionEventKind = "subscription.activated"
	SubscriptionEventSynced    SubscriptionEventKind = "subscription.status_synced"
	SubscriptionEventCanceled  SubscriptionEventKind = "subscription.canceled"
	SubscriptionEventTrial     SubscriptionEventKind = "trial.started"
)

// SubscriptionEvent событие жизненного цикла подписки для внешних потребителей.
type SubscriptionEvent struct {
	ID            uuid.UUID             `json:"id"`
	Kind          SubscriptionEventKind `json:"kind"`
	UserID        string                `json:"user_id"`
	Status        SubscriptionStatus    `json:"status"`
	PlanID        *uuid.UUID            `json:"plan_id,omitempty"`
	SourceEventID string                `json:"source_event_id,omitempty"`
	OccurredAt    time.Time             `json:"occurred_at"`
}
