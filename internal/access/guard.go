// Package access вычисляет, что тренеру разрешено делать, по снимку состояния
// подписки. Пакет не ходит в хранилище: все входные данные передаются явно.
package access

import (
	"github.com/Dhoini/coach-billing/internal/domain"
)

// Unlimited лимит атлетов без ограничения.
const Unlimited = domain.UnlimitedAthletes

// Причины блокировки
const (
	ReasonRestricted   = "restricted"
	ReasonTrialExpired = "trial_expired"
	ReasonNoAccess     = "no_access"
)

var reasonMessages = map[string]string{
	ReasonRestricted:   "Your account is blocked. Contact support to restore access.",
	ReasonTrialExpired: "Your free trial has expired. Choose a plan to keep using the platform.",
	ReasonNoAccess:     "You don't have an active subscription. Choose a plan to continue.",
}

// Decision ветка таблицы решений, которая сработала.
type Decision string

const (
	DecisionSuperAdmin Decision = "super_admin"
	DecisionRestricted Decision = "restricted"
	DecisionNoAccess   Decision = "no_access"
	DecisionTrial      Decision = "trial"
	DecisionPaid       Decision = "paid"
)

// GuardInput снимок состояния, из которого вычисляется доступ.
type GuardInput struct {
	Caller              domain.Caller
	Status              domain.SubscriptionStatus
	PlanName            string
	PlanRestricted      bool
	Settings            domain.AppSettings
	CurrentAthleteCount int

	// Производные от подписки и текущего времени, см. DeriveState.
	HasAccess         bool
	IsTrialing        bool
	DaysUntilTrialEnd int
}

// GuardResult разрешения тренера.
type GuardResult struct {
	Decision            Decision `json:"decision"`
	CanAccessFeature    bool     `json:"can_access_feature"`
	CanCreateRunner     bool     `json:"can_create_runner"`
	CanGenerateTraining bool     `json:"can_generate_training"`
	// AthleteLimit -1 означает без ограничения.
	AthleteLimit        int    `json:"athlete_limit"`
	CurrentAthleteCount int    `json:"current_athlete_count"`
	IsTrialing          bool   `json:"is_trialing"`
	DaysUntilTrialEnd   int    `json:"days_until_trial_end"`
	BlockReason         string `json:"block_reason,omitempty"`
	BlockMessage        string `json:"block_message,omitempty"`
}

// IsUnlimited сообщает, что лимит атлетов не ограничен.
func (r GuardResult) IsUnlimited() bool {
	return r.AthleteLimit == Unlimited
}

// CanAddAthlete сравнивает лимит с текущим количеством атлетов.
// Сам Evaluate лимит не применяет, это делает вызывающий слой.
func (r GuardResult) CanAddAthlete() bool {
	if !r.CanCreateRunner {
		return false
	}
	return r.IsUnlimited() || r.CurrentAthleteCount < r.AthleteLimit
}

// Evaluate применяет таблицу решений, первое совпадение выигрывает:
// суперадмин, ограниченный план, отсутствие доступа, иначе полный доступ.
func Evaluate(in GuardInput) GuardResult {
	base := GuardResult{
		CurrentAthleteCount: in.CurrentAthleteCount,
		IsTrialing:          in.IsTrialing,
		DaysUntilTrialEnd:   in.DaysUntilTrialEnd,
	}

	switch {
	case in.Caller.IsSuperAdmin:
		return grant(base, DecisionSuperAdmin, Unlimited)

	case in.PlanRestricted || domain.IsRestrictedPlanName(in.PlanName):
		return lockout(base, DecisionRestricted, ReasonRestricted)

	case !in.HasAccess:
		reason := ReasonNoAccess
		if in.IsTrialing && in.DaysUntilTrialEnd <= 0 {
			reason = ReasonTrialExpired
		}
		return lockout(base, DecisionNoAccess, reason)

	case in.IsTrialing:
		return grant(base, DecisionTrial, in.Settings.TrialAthleteLimit)

	default:
		return grant(base, DecisionPaid, Unlimited)
	}
}

func grant(r GuardResult, d Decision, athleteLimit int) GuardResult {
	r.Decision = d
	r.CanAccessFeature = true
	r.CanCreateRunner = true
	r.CanGenerateTraining = true
	r.AthleteLimit = athleteLimit
	return r
}

func lockout(r GuardResult, d Decision, reason string) GuardResult {
	r.Decision = d
	r.AthleteLimit = 0
	r.BlockReason = reason
	r.BlockMessage = reasonMessages[reason]
	return r
}
