package access

import (
	"math"
	"time"

	"github.com/Dhoini/coach-billing/internal/domain"
)

// State производное состояние доступа подписки на момент now.
type State struct {
	HasAccess         bool
	IsTrialing        bool
	DaysUntilTrialEnd int
}

// DeriveState вычисляет HasAccess, IsTrialing и DaysUntilTrialEnd.
// Отсутствие подписки означает отсутствие доступа.
func DeriveState(sub *domain.Subscription, now time.Time) State {
	if sub == nil {
		return State{}
	}

	var st State
	switch sub.Status {
	case domain.SubscriptionStatusTrialing:
		// trialing без trial_ends_at: пробного периода нет, это no_access, а не trial_expired
		if sub.TrialEndsAt == nil {
			return st
		}
		st.IsTrialing = true
		st.DaysUntilTrialEnd = daysUntil(now, *sub.TrialEndsAt)
		st.HasAccess = st.DaysUntilTrialEnd > 0
	case domain.SubscriptionStatusActive:
		st.HasAccess = sub.CurrentPeriodEnd.IsZero() || now.Before(sub.CurrentPeriodEnd)
	}
	return st
}

// daysUntil округляет вверх: остаток в несколько часов считается целым днем.
func daysUntil(now, end time.Time) int {
	d := end.Sub(now)
	if d <= 0 {
		return 0
	}
	return int(math.Ceil(d.Hours() / 24))
}

// NewInput собирает GuardInput из подписки, плана и настроек.
// sub и plan могут быть nil.
func NewInput(caller domain.Caller, sub *domain.Subscription, plan *domain.Plan, settings domain.AppSettings, athleteCount int, now time.Time) GuardInput {
	st := DeriveState(sub, now)
	in := GuardInput{
		Caller:              caller,
		PlanName:            plan.PlanName(),
		PlanRestricted:      plan.IsRestricted(),
		Settings:            settings,
		CurrentAthleteCount: athleteCount,
		HasAccess:           st.HasAccess,
		IsTrialing:          st.IsTrialing,
		DaysUntilTrialEnd:   st.DaysUntilTrialEnd,
	}
	if sub != nil {
		in.Status = sub.Status
	}
	return in
}
