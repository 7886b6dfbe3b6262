package stripe

import (
	"context"
	"fmt"
	"strings"

	"github.com/Dhoini/coach-billing/pkg/logger"
	stripelib "github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/customer"
)

// Client обращается к API Stripe за данными, которых нет в событии.
type Client struct {
	getCustomer func(id string, params *stripelib.CustomerParams) (*stripelib.Customer, error)
	log         *logger.Logger
}

// NewClient создает новый клиент Stripe
func NewClient(secretKey string, log *logger.Logger) *Client {
	stripelib.Key = strings.TrimSpace(secretKey)
	return &Client{
		getCustomer: customer.Get,
		log:         log,
	}
}

// CustomerEmail возвращает email клиента Stripe.
// Используется только для аудита, поэтому удаленный клиент дает пустую строку.
func (c *Client) CustomerEmail(ctx context.Context, customerID string) (string, error) {
	params := &stripelib.CustomerParams{}
	params.Context = ctx

	cust, err := c.getCustomer(customerID, params)
	if err != nil {
		return "", fmt.Errorf("get stripe customer %s: %w", customerID, err)
	}
	if cust == nil || cust.Deleted {
		c.log.Debugw("Stripe customer deleted or empty", "customer_id", customerID)
		return "", nil
	}
	return cust.Email, nil
}
