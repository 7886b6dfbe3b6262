package service

import (
	"context"
	"testing"
	"time"

	"github.com/Dhoini/coach-billing/internal/domain"
	stripeint "github.com/Dhoini/coach-billing/internal/integration/stripe"
	"github.com/Dhoini/coach-billing/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingMetrics struct {
	reconcile map[string]int
}

func (m *countingMetrics) ObserveWebhook(string, int, time.Duration) {}
func (m *countingMetrics) IncGuardDecision(string)                   {}
func (m *countingMetrics) IncReconcile(eventType, outcome string) {
	if m.reconcile == nil {
		m.reconcile = map[string]int{}
	}
	m.reconcile[eventType+"/"+outcome]++
}

func TestProcessEventDispatch(t *testing.T) {
	f := newReconcileFixture(t)
	m := &countingMetrics{}
	svc := NewWebhookService(f.svc, m, logger.NewNop())
	ctx := context.Background()

	checkout := stripeint.NewEvent("evt_1", domain.EventCheckoutSessionCompleted, []byte(`{"id":"cs_1","customer":"cus_123"}`))
	result, err := svc.ProcessEvent(ctx, checkout)
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeApplied, result.Outcome)

	updated := stripeint.NewEvent("evt_2", domain.EventCustomerSubscriptionUpdated,
		[]byte(`{"id":"sub_1","customer":"cus_123","status":"past_due","items":{"data":[{"price":{"id":"price_pro"}}]}}`))
	result, err = svc.ProcessEvent(ctx, updated)
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeApplied, result.Outcome)
	assert.Equal(t, domain.SubscriptionStatusCanceled, f.subs.forUser("user-1")[0].Status)

	deleted := stripeint.NewEvent("evt_3", domain.EventCustomerSubscriptionDeleted, []byte(`{"id":"sub_1","customer":"cus_123"}`))
	_, err = svc.ProcessEvent(ctx, deleted)
	require.NoError(t, err)

	assert.Equal(t, 1, m.reconcile["checkout.session.completed/applied"])
	assert.Equal(t, 1, m.reconcile["customer.subscription.updated/applied"])
	assert.Equal(t, 1, m.reconcile["customer.subscription.deleted/applied"])
}

func TestProcessEventIgnoresUnknownType(t *testing.T) {
	f := newReconcileFixture(t)
	svc := NewWebhookService(f.svc, nil, logger.NewNop())

	result, err := svc.ProcessEvent(context.Background(), stripeint.NewEvent("evt_9", "invoice.paid", []byte(`{}`)))
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeIgnored, result.Outcome)
	assert.Empty(t, f.subs.rows)
	assert.Empty(t, f.audit.entries)
}

func TestProcessEventSyncDecodeFailureIsDegraded(t *testing.T) {
	f := newReconcileFixture(t)
	svc := NewWebhookService(f.svc, nil, logger.NewNop())

	result, err := svc.ProcessEvent(context.Background(), stripeint.NewEvent("evt_4", domain.EventCustomerSubscriptionCreated, []byte(`"oops"`)))
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeDegraded, result.Outcome)
}

func TestProcessEventActivationFailureIsReturned(t *testing.T) {
	f := newReconcileFixture(t)
	m := &countingMetrics{}
	svc := NewWebhookService(f.svc, m, logger.NewNop())

	_, err := svc.ProcessEvent(context.Background(), stripeint.NewEvent("evt_5", domain.EventCheckoutSessionCompleted, []byte(`{"id":"cs_1"}`)))
	assert.ErrorIs(t, err, domain.ErrMissingCustomer)
	assert.Equal(t, 1, m.reconcile["checkout.session.completed/failed"])
}
