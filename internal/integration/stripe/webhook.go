package stripe

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/Dhoini/coach-billing/internal/domain"
	"github.com/stripe/stripe-go/v82/webhook"
)

// WebhookBodyLimit максимальный размер тела вебхука.
const WebhookBodyLimit = 1024 * 1024 // 1 MiB

// SignatureHeader заголовок с подписью Stripe.
const SignatureHeader = "Stripe-Signature"

// Verifier проверяет подпись вебхука секретом эндпоинта.
type Verifier struct {
	secret string
}

// NewVerifier создает новый Verifier
func NewVerifier(secret string) *Verifier {
	return &Verifier{secret: strings.TrimSpace(secret)}
}

// Verify проверяет подпись и возвращает разобранное событие.
// Версия API в событии не сверяется с версией библиотеки.
func (v *Verifier) Verify(payload []byte, sigHeader string) (*Event, error) {
	event, err := webhook.ConstructEventWithOptions(payload, sigHeader, v.secret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrWebhookValidationFailed, err)
	}
	return &Event{
		ID:   event.ID,
		Type: domain.WebhookEventType(event.Type),
		raw:  event.Data.Raw,
	}, nil
}

// Event проверенное событие Stripe с сырым объектом data.object.
type Event struct {
	ID   string
	Type domain.WebhookEventType
	raw  json.RawMessage
}

// NewEvent собирает событие из уже проверенных данных.
func NewEvent(id string, eventType domain.WebhookEventType, object json.RawMessage) *Event {
	return &Event{ID: id, Type: eventType, raw: object}
}

// CheckoutSession разбирает data.object как checkout.session.
func (e *Event) CheckoutSession() (*CheckoutSession, error) {
	var session CheckoutSession
	if err := json.Unmarshal(e.raw, &session); err != nil {
		return nil, fmt.Errorf("%w: decode checkout.session: %v", domain.ErrInvalidPayload, err)
	}
	return &session, nil
}

// Subscription разбирает data.object как subscription.
func (e *Event) Subscription() (*Subscription, error) {
	var sub Subscription
	if err := json.Unmarshal(e.raw, &sub); err != nil {
		return nil, fmt.Errorf("%w: decode subscription: %v", domain.ErrInvalidPayload, err)
	}
	return &sub, nil
}

// CheckoutSession минимальное представление checkout.session.
type CheckoutSession struct {
	ID              string `json:"id"`
	Mode            string `json:"mode"`
	Customer        string `json:"customer"`
	Subscription    string `json:"subscription"`
	CustomerEmail   string `json:"customer_email"`
	CustomerDetails struct {
		Email string `json:"email"`
	} `json:"customer_details"`
	Metadata map[string]string `json:"metadata"`
}

// Email возвращает адрес покупателя из сессии, если он есть.
func (s *CheckoutSession) Email() string {
	if email := strings.TrimSpace(s.CustomerDetails.Email); email != "" {
		return email
	}
	return strings.TrimSpace(s.CustomerEmail)
}

// SubscriptionItem элемент подписки.
type SubscriptionItem struct {
	ID                 string `json:"id"`
	CurrentPeriodStart int64  `json:"current_period_start"`
	CurrentPeriodEnd   int64  `json:"current_period_end"`
	Price              struct {
		ID string `json:"id"`
	} `json:"price"`
}

// Subscription минимальное представление subscription.
// В новых версиях API периоды лежат только в items.
type Subscription struct {
	ID                 string `json:"id"`
	Customer           string `json:"customer"`
	Status             string `json:"status"`
	CurrentPeriodStart int64  `json:"current_period_start"`
	CurrentPeriodEnd   int64  `json:"current_period_end"`
	Items              struct {
		Data []SubscriptionItem `json:"data"`
	} `json:"items"`
	Metadata map[string]string `json:"metadata"`
}

// FirstPriceID возвращает price id первого элемента подписки.
func (s *Subscription) FirstPriceID() string {
	if len(s.Items.Data) == 0 {
		return ""
	}
	return strings.TrimSpace(s.Items.Data[0].Price.ID)
}

// PeriodBounds возвращает границы периода в Unix-секундах.
// Нулевые значения верхнего уровня заменяются значениями первого элемента.
func (s *Subscription) PeriodBounds() (start, end int64) {
	start, end = s.CurrentPeriodStart, s.CurrentPeriodEnd
	if len(s.Items.Data) > 0 {
		if start == 0 {
			start = s.Items.Data[0].CurrentPeriodStart
		}
		if end == 0 {
			end = s.Items.Data[0].CurrentPeriodEnd
		}
	}
	return start, end
}

