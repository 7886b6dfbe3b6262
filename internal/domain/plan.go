package domain

import (
	"strings"

	"github.com/google/uuid"
)

// RestrictedPlanName зарезервированное имя плана полной блокировки.
// Оставлено для совместимости со старыми данными, новые записи используют IsRestrictedTier.
const RestrictedPlanName = "Restrito"

// UnlimitedAthletes значение max_athletes без ограничения.
const UnlimitedAthletes = -1

// Plan тарифный план
type Plan struct {
	ID                   uuid.UUID `json:"id" db:"id"`
	Name                 string    `json:"name" db:"name"`
	PriceMonthly         float64   `json:"price_monthly" db:"price_monthly"`
	MaxAthletes          int       `json:"max_athletes" db:"max_athletes"`
	IsActive             bool      `json:"is_active" db:"is_active"`
	IsPublic             bool      `json:"is_public" db:"is_public"`
	IsRestrictedTier     bool      `json:"is_restricted_tier" db:"is_restricted_tier"`
	StripePriceIDMonthly *string   `json:"stripe_price_id_monthly,omitempty" db:"stripe_price_id_monthly"`
	MercadoPagoPlanID    *string   `json:"mercadopago_plan_id,omitempty" db:"mercadopago_plan_id"`
}

// IsRestrictedPlanName сравнивает имя с зарезервированным без учета регистра.
func IsRestrictedPlanName(name string) bool {
	return strings.EqualFold(strings.TrimSpace(name), RestrictedPlanName)
}

// IsRestricted сообщает, блокирует ли план аккаунт полностью.
func (p *Plan) IsRestricted() bool {
	if p == nil {
		return false
	}
	return p.IsRestrictedTier || IsRestrictedPlanName(p.Name)
}

// PlanName безопасно возвращает имя плана (пустая строка для nil).
func (p *Plan) PlanName() string {
	if p == nil {
		return ""
	}
	return p.Name
}

// SelectDefaultPlan выбирает самый дешевый активный план, не являющийся
// ограниченным. Checkout не передает выбор плана, поэтому берется этот.
func SelectDefaultPlan(plans []Plan) *Plan {
	var best *Plan
	for i := range plans {
		p := &plans[i]
		if !p.IsActive || p.IsRestricted() {
			continue
		}
		if best == nil || p.PriceMonthly < best.PriceMonthly {
			best = p
		}
	}
	if best == nil {
		return nil
	}
	selected := *best
	return &selected
}
