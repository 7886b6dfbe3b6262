package service

import (
	"context"

	"github.com/Dhoini/coach-billing/internal/domain"
	stripeint "github.com/Dhoini/coach-billing/internal/integration/stripe"
	"github.com/Dhoini/coach-billing/internal/metrics"
	"github.com/Dhoini/coach-billing/pkg/logger"
)

// WebhookService интерфейс сервиса для работы с вебхуками
type WebhookService interface {
	// ProcessEvent разбирает проверенное событие и направляет его в сверку.
	// Ошибка означает, что Stripe должен повторить доставку.
	ProcessEvent(ctx context.Context, event *stripeint.Event) (domain.ReconcileResult, error)
}

type webhookService struct {
	reconciler ReconciliationService
	metrics    metrics.BillingMetrics
	log        *logger.Logger
}

// NewWebhookService создает новый сервис для работы с вебхуками
func NewWebhookService(reconciler ReconciliationService, m metrics.BillingMetrics, log *logger.Logger) WebhookService {
	if m == nil {
		m = metrics.NoopMetrics{}
	}
	return &webhookService{
		reconciler: reconciler,
		metrics:    m,
		log:        log,
	}
}

// ProcessEvent обрабатывает событие в зависимости от типа
func (s *webhookService) ProcessEvent(ctx context.Context, event *stripeint.Event) (domain.ReconcileResult, error) {
	result, err := s.dispatch(ctx, event)

	outcome := string(result.Outcome)
	if err != nil {
		outcome = "failed"
	}
	s.metrics.IncReconcile(string(event.Type), outcome)

	if result.Outcome == domain.OutcomeDegraded {
		s.log.Errorw("Reconciliation degraded, update may be lost",
			"eventID", event.ID, "type", event.Type, "userID", result.UserID, "error", result.Err)
	}
	return result, err
}

func (s *webhookService) dispatch(ctx context.Context, event *stripeint.Event) (domain.ReconcileResult, error) {
	switch event.Type {
	case domain.EventCheckoutSessionCompleted:
		session, err := event.CheckoutSession()
		if err != nil {
			return domain.ReconcileResult{}, err
		}
		return s.reconciler.Activate(ctx, domain.CheckoutCompletion{
			EventID:       event.ID,
			SessionID:     session.ID,
			CustomerID:    session.Customer,
			CustomerEmail: session.Email(),
		})

	case domain.EventCustomerSubscriptionCreated, domain.EventCustomerSubscriptionUpdated:
		sub, err := event.Subscription()
		if err != nil {
			// status sync не эскалирует ошибки
			return domain.Degraded("", err), nil
		}
		return s.reconciler.SyncStatus(ctx, event.ID, stripeint.ToProviderSubscription(sub)), nil

	case domain.EventCustomerSubscriptionDeleted:
		sub, err := event.Subscription()
		if err != nil {
			return domain.ReconcileResult{}, err
		}
		return s.reconciler.Cancel(ctx, event.ID, stripeint.ToProviderSubscription(sub))

	default:
		s.log.Infow("Stripe webhook ignored (unhandled type)", "type", event.Type, "eventID", event.ID)
		return domain.ReconcileResult{Outcome: domain.OutcomeIgnored}, nil
	}
}
