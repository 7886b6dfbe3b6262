package stripe

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Dhoini/coach-billing/internal/domain"
	"github.com/Dhoini/coach-billing/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	stripelib "github.com/stripe/stripe-go/v82"
	stripewebhook "github.com/stripe/stripe-go/v82/webhook"
)

const testSecret = "whsec_test_secret"

func sign(t *testing.T, secret, payload string) ([]byte, string) {
	t.Helper()

	signed := stripewebhook.GenerateTestSignedPayload(&stripewebhook.UnsignedPayload{
		Payload:   []byte(payload),
		Secret:    secret,
		Timestamp: time.Now(),
		Scheme:    "v1",
	})
	return signed.Payload, signed.Header
}

func TestVerifierAcceptsValidSignature(t *testing.T) {
	payload, header := sign(t, testSecret, `{"id":"evt_1","object":"event","type":"checkout.session.completed","data":{"object":{"id":"cs_1","customer":"cus_123"}}}`)

	event, err := NewVerifier(testSecret).Verify(payload, header)
	require.NoError(t, err)
	assert.Equal(t, "evt_1", event.ID)
	assert.Equal(t, domain.EventCheckoutSessionCompleted, event.Type)

	session, err := event.CheckoutSession()
	require.NoError(t, err)
	assert.Equal(t, "cus_123", session.Customer)
}

func TestVerifierRejectsWrongSecret(t *testing.T) {
	payload, header := sign(t, "whsec_other", `{"id":"evt_1","object":"event","type":"checkout.session.completed","data":{"object":{}}}`)

	_, err := NewVerifier(testSecret).Verify(payload, header)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrWebhookValidationFailed))
}

func TestVerifierRejectsTamperedPayload(t *testing.T) {
	_, header := sign(t, testSecret, `{"id":"evt_1","object":"event","type":"customer.subscription.deleted","data":{"object":{}}}`)

	_, err := NewVerifier(testSecret).Verify([]byte(`{"id":"evt_2","object":"event","type":"customer.subscription.deleted","data":{"object":{}}}`), header)
	assert.ErrorIs(t, err, domain.ErrWebhookValidationFailed)
}

func TestSubscriptionDecodingFallsBackToItemPeriods(t *testing.T) {
	event := NewEvent("evt_1", domain.EventCustomerSubscriptionUpdated, []byte(`{
		"id":"sub_1","customer":"cus_1","status":"past_due",
		"items":{"data":[{"id":"si_1","current_period_start":1700000000,"current_period_end":1702592000,"price":{"id":"price_basic"}}]}
	}`))

	sub, err := event.Subscription()
	require.NoError(t, err)
	assert.Equal(t, "price_basic", sub.FirstPriceID())

	ps := ToProviderSubscription(sub)
	assert.Equal(t, "cus_1", ps.CustomerID)
	assert.Equal(t, domain.SubscriptionStatusCanceled, ps.Status())
	assert.Equal(t, time.Unix(1700000000, 0).UTC(), ps.PeriodStart)
	assert.Equal(t, time.Unix(1702592000, 0).UTC(), ps.PeriodEnd)
}

func TestSubscriptionTopLevelPeriodsWin(t *testing.T) {
	sub := &Subscription{CurrentPeriodStart: 10, CurrentPeriodEnd: 20}
	sub.Items.Data = []SubscriptionItem{{CurrentPeriodStart: 1, CurrentPeriodEnd: 2}}

	start, end := sub.PeriodBounds()
	assert.Equal(t, int64(10), start)
	assert.Equal(t, int64(20), end)
}

func TestSubscriptionWithoutItems(t *testing.T) {
	sub := &Subscription{Status: "active"}

	ps := ToProviderSubscription(sub)
	assert.Empty(t, ps.PriceID)
	assert.True(t, ps.PeriodStart.IsZero())
	assert.Equal(t, domain.SubscriptionStatusActive, ps.Status())
}

func TestInvalidPayload(t *testing.T) {
	_, err := NewEvent("evt_1", domain.EventCheckoutSessionCompleted, []byte(`[`)).CheckoutSession()
	assert.ErrorIs(t, err, domain.ErrInvalidPayload)
}

func TestCheckoutSessionEmailPrefersDetails(t *testing.T) {
	s := &CheckoutSession{CustomerEmail: "a@example.com"}
	assert.Equal(t, "a@example.com", s.Email())

	s.CustomerDetails.Email = "b@example.com"
	assert.Equal(t, "b@example.com", s.Email())
}

func TestClientCustomerEmail(t *testing.T) {
	c := &Client{log: logger.NewNop()}

	c.getCustomer = func(id string, _ *stripelib.CustomerParams) (*stripelib.Customer, error) {
		return &stripelib.Customer{ID: id, Email: "coach@example.com"}, nil
	}
	email, err := c.CustomerEmail(context.Background(), "cus_1")
	require.NoError(t, err)
	assert.Equal(t, "coach@example.com", email)

	c.getCustomer = func(id string, _ *stripelib.CustomerParams) (*stripelib.Customer, error) {
		return &stripelib.Customer{ID: id, Deleted: true}, nil
	}
	email, err = c.CustomerEmail(context.Background(), "cus_1")
	require.NoError(t, err)
	assert.Empty(t, email)

	c.getCustomer = func(string, *stripelib.CustomerParams) (*stripelib.Customer, error) {
		return nil, errors.New("boom")
	}
	_, err = c.CustomerEmail(context.Background(), "cus_1")
	assert.Error(t, err)
}
