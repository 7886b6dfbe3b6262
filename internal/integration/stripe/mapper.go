package stripe

import (
	"strings"
	"time"

	"github.com/Dhoini/coach-billing/internal/domain"
)

// ToProviderSubscription преобразует подписку Stripe в доменный снимок.
func ToProviderSubscription(sub *Subscription) domain.ProviderSubscription {
	start, end := sub.PeriodBounds()
	return domain.ProviderSubscription{
		SubscriptionID: sub.ID,
		CustomerID:     strings.TrimSpace(sub.Customer),
		ProviderStatus: sub.Status,
		PriceID:        sub.FirstPriceID(),
		PeriodStart:    unixOrZero(start),
		PeriodEnd:      unixOrZero(end),
	}
}

func unixOrZero(sec int64) time.Time {
	if sec <= 0 {
		return time.Time{}
	}
	return time.Unix(sec, 0).UTC()
}
