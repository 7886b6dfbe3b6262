package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Dhoini/coach-billing/internal/domain"
	"github.com/Dhoini/coach-billing/internal/kafka"
	"github.com/Dhoini/coach-billing/internal/repository"
	"github.com/Dhoini/coach-billing/pkg/logger"
	"github.com/google/uuid"
)

// ReconciliationService приводит подписки в соответствие с событиями Stripe
type ReconciliationService interface {
	// Activate выдает доступ после успешного checkout. Ошибка означает 500 и повтор доставки.
	Activate(ctx context.Context, checkout domain.CheckoutCompletion) (domain.ReconcileResult, error)

	// SyncStatus синхронизирует статус подписки. Ошибки не возвращаются:
	// неудачная запись дает результат Degraded.
	SyncStatus(ctx context.Context, eventID string, sub domain.ProviderSubscription) domain.ReconcileResult

	// Cancel помечает подписку отмененной.
	Cancel(ctx context.Context, eventID string, sub domain.ProviderSubscription) (domain.ReconcileResult, error)
}

// CustomerEmailLookup получает email клиента у провайдера для аудита
type CustomerEmailLookup interface {
	CustomerEmail(ctx context.Context, customerID string) (string, error)
}

// ReconciliationDeps зависимости сервиса сверки
type ReconciliationDeps struct {
	Subscriptions repository.SubscriptionRepository
	Customers     repository.CustomerRepository
	Plans         repository.PlanRepository
	Details       repository.SubscriptionDetailsReader
	Audit         repository.AuditRepository
	Events        kafka.Producer
	// Emails необязателен
	Emails CustomerEmailLookup
	Now    func() time.Time
}

type reconciliationService struct {
	subs      repository.SubscriptionRepository
	customers repository.CustomerRepository
	plans     repository.PlanRepository
	details   repository.SubscriptionDetailsReader
	audit     repository.AuditRepository
	events    kafka.Producer
	emails    CustomerEmailLookup
	now       func() time.Time
	log       *logger.Logger
}

// NewReconciliationService создает новый сервис сверки подписок
func NewReconciliationService(deps ReconciliationDeps, log *logger.Logger) ReconciliationService {
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	events := deps.Events
	if events == nil {
		events = kafka.NoopProducer{}
	}
	return &reconciliationService{
		subs:      deps.Subscriptions,
		customers: deps.Customers,
		plans:     deps.Plans,
		details:   deps.Details,
		audit:     deps.Audit,
		events:    events,
		emails:    deps.Emails,
		now:       now,
		log:       log.Named("reconcile"),
	}
}

// Activate удаляет прежние строки пользователя и создает активную подписку на год.
func (s *reconciliationService) Activate(ctx context.Context, checkout domain.CheckoutCompletion) (domain.ReconcileResult, error) {
	customerID := strings.TrimSpace(checkout.CustomerID)
	if customerID == "" {
		return domain.ReconcileResult{}, domain.ErrMissingCustomer
	}

	userID, err := s.customers.GetUserIDByCustomerID(ctx, customerID)
	if err != nil {
		return domain.ReconcileResult{}, fmt.Errorf("resolve customer %s: %w", customerID, err)
	}

	plan := s.defaultPlan(ctx)

	now := s.now().UTC()
	sub := &domain.Subscription{
		UserID:             userID,
		Status:             domain.SubscriptionStatusActive,
		TrialEndsAt:        nil,
		CurrentPeriodStart: now,
		CurrentPeriodEnd:   now.Add(domain.ActivationAccessWindow),
	}
	if plan != nil {
		sub.PlanID = &plan.ID
	}

	stored, err := s.subs.ActivateExclusive(ctx, sub)
	if err != nil {
		return domain.ReconcileResult{}, fmt.Errorf("activate subscription for user %s: %w", userID, err)
	}

	s.log.Infow("Subscription activated",
		"userID", userID,
		"customerID", customerID,
		"sessionID", checkout.SessionID,
		"plan", plan.PlanName(),
		"periodEnd", stored.CurrentPeriodEnd,
	)

	verification := s.readDetails(ctx, userID)
	s.writeAudit(ctx, userID, checkout, plan, verification)
	s.publish(ctx, domain.SubscriptionEventActivated, checkout.EventID, stored)

	return domain.Applied(userID), nil
}

// defaultPlan ошибка чтения планов не прерывает активацию: план будет пустым.
func (s *reconciliationService) defaultPlan(ctx context.Context) *domain.Plan {
	plans, err := s.plans.ListActive(ctx)
	if err != nil {
		s.log.Warnw("Failed to load plans, activating without plan", "error", err)
		return nil
	}
	plan := domain.SelectDefaultPlan(plans)
	if plan == nil {
		s.log.Warnw("No eligible default plan, activating without plan")
	}
	return plan
}

func (s *reconciliationService) readDetails(ctx context.Context, userID string) map[string]any {
	if s.details == nil {
		return map[string]any{"available": false}
	}
	details, err := s.details.GetSubscriptionDetails(ctx, userID)
	if err != nil {
		s.log.Warnw("Failed to read subscription details after activation", "error", err, "userID", userID)
		return map[string]any{"available": false, "error": err.Error()}
	}
	s.log.Infow("Subscription details after activation",
		"userID", userID,
		"status", details.Status,
		"plan", details.PlanName,
		"trialEndsAt", details.TrialEndsAt,
		"periodEnd", details.CurrentPeriodEnd,
	)
	return map[string]any{
		"available":     true,
		"status":        details.Status,
		"plan_name":     details.PlanName,
		"trial_cleared": details.TrialEndsAt == nil,
	}
}

func (s *reconciliationService) writeAudit(ctx context.Context, userID string, checkout domain.CheckoutCompletion, plan *domain.Plan, verification map[string]any) {
	if s.audit == nil {
		return
	}

	details := map[string]any{
		"customer_id":  checkout.CustomerID,
		"session_id":   checkout.SessionID,
		"event_id":     checkout.EventID,
		"plan_name":    plan.PlanName(),
		"verification": verification,
	}
	if email := s.customerEmail(ctx, checkout); email != "" {
		details["customer_email"] = email
	}

	entry := &domain.AuditEntry{
		ID:        uuid.New(),
		UserID:    userID,
		Action:    domain.AuditActionSubscriptionActivated,
		Details:   details,
		CreatedAt: s.now().UTC(),
	}
	if err := s.audit.Append(ctx, entry); err != nil {
		s.log.Warnw("Failed to write audit entry", "error", err, "userID", userID)
	}
}

func (s *reconciliationService) customerEmail(ctx context.Context, checkout domain.CheckoutCompletion) string {
	if checkout.CustomerEmail != "" || s.emails == nil {
		return checkout.CustomerEmail
	}
	email, err := s.emails.CustomerEmail(ctx, checkout.CustomerID)
	if err != nil {
		s.log.Debugw("Customer email lookup failed", "error", err, "customerID", checkout.CustomerID)
		return ""
	}
	return email
}

// SyncStatus делает upsert по user_id со статусом active или canceled.
func (s *reconciliationService) SyncStatus(ctx context.Context, eventID string, ps domain.ProviderSubscription) domain.ReconcileResult {
	userID, result, ok := s.resolve(ctx, ps.CustomerID)
	if !ok {
		return result
	}

	plan := s.planByPrice(ctx, ps.PriceID)

	sub := &domain.Subscription{
		UserID:             userID,
		Status:             ps.Status(),
		TrialEndsAt:        nil,
		CurrentPeriodStart: ps.PeriodStart,
		CurrentPeriodEnd:   ps.PeriodEnd,
	}
	if plan != nil {
		sub.PlanID = &plan.ID
	}

	if err := s.subs.UpsertByUserID(ctx, sub); err != nil {
		s.log.Errorw("Subscription status sync failed", "error", err, "userID", userID, "eventID", eventID)
		return domain.Degraded(userID, err)
	}

	s.log.Infow("Subscription status synced",
		"userID", userID,
		"providerStatus", ps.ProviderStatus,
		"status", sub.Status,
		"plan", plan.PlanName(),
	)
	s.publish(ctx, domain.SubscriptionEventSynced, eventID, sub)
	return domain.Applied(userID)
}

// resolve ищет пользователя. ok=false означает, что событие дальше не обрабатывается.
func (s *reconciliationService) resolve(ctx context.Context, customerID string) (string, domain.ReconcileResult, bool) {
	customerID = strings.TrimSpace(customerID)
	if customerID == "" {
		s.log.Warnw("Subscription event without customer id")
		return "", domain.Skipped("customer id missing"), false
	}

	userID, err := s.customers.GetUserIDByCustomerID(ctx, customerID)
	if err != nil {
		if errors.Is(err, domain.ErrCustomerMappingNotFound) {
			s.log.Warnw("Customer mapping not found, skipping", "customerID", customerID)
			return "", domain.Skipped("customer mapping not found"), false
		}
		s.log.Errorw("Customer mapping lookup failed", "error", err, "customerID", customerID)
		return "", domain.Degraded("", err), false
	}
	return userID, domain.ReconcileResult{}, true
}

func (s *reconciliationService) planByPrice(ctx context.Context, priceID string) *domain.Plan {
	if priceID == "" {
		return nil
	}
	plan, err := s.plans.GetByStripePriceID(ctx, priceID)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			s.log.Warnw("Plan lookup by price failed", "error", err, "priceID", priceID)
		}
		return nil
	}
	return plan
}

// Cancel меняет только статус, план и период остаются прежними.
func (s *reconciliationService) Cancel(ctx context.Context, eventID string, ps domain.ProviderSubscription) (domain.ReconcileResult, error) {
	userID, result, ok := s.resolve(ctx, ps.CustomerID)
	if !ok {
		if result.Outcome == domain.OutcomeDegraded {
			return domain.ReconcileResult{}, fmt.Errorf("resolve customer %s: %w", ps.CustomerID, result.Err)
		}
		return result, nil
	}

	updated, err := s.subs.UpdateStatus(ctx, userID, domain.SubscriptionStatusCanceled)
	if err != nil {
		return domain.ReconcileResult{}, fmt.Errorf("cancel subscription for user %s: %w", userID, err)
	}
	if !updated {
		s.log.Warnw("No subscription row to cancel", "userID", userID)
		return domain.ReconcileResult{Outcome: domain.OutcomeSkipped, UserID: userID, Reason: "no subscription row"}, nil
	}

	s.log.Infow("Subscription canceled", "userID", userID, "eventID", eventID)
	s.publish(ctx, domain.SubscriptionEventCanceled, eventID, &domain.Subscription{
		UserID: userID,
		Status: domain.SubscriptionStatusCanceled,
	})
	return domain.Applied(userID), nil
}

// publish события аналитики не влияют на результат сверки.
func (s *reconciliationService) publish(ctx context.Context, kind domain.SubscriptionEventKind, sourceEventID string, sub *domain.Subscription) {
	event := &domain.SubscriptionEvent{
		ID:            uuid.New(),
		Kind:          kind,
		UserID:        sub.UserID,
		Status:        sub.Status,
		PlanID:        sub.PlanID,
		SourceEventID: sourceEventID,
		OccurredAt:    s.now().UTC(),
	}
	if err := s.events.PublishSubscriptionEvent(ctx, event); err != nil {
		s.log.Warnw("Failed to publish subscription event", "error", err, "kind", kind, "userID", sub.UserID)
	}
}
