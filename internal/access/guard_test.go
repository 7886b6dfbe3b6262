package access

import (
	"testing"

	"github.com/Dhoini/coach-billing/internal/domain"
	"github.com/stretchr/testify/assert"
)

func trialSettings() domain.AppSettings {
	return domain.AppSettings{TrialDurationDays: 7, TrialAthleteLimit: 3, TrialTrainingLimit: 10}
}

func assertLockedOut(t *testing.T, r GuardResult) {
	t.Helper()
	assert.False(t, r.CanAccessFeature)
	assert.False(t, r.CanCreateRunner)
	assert.False(t, r.CanGenerateTraining)
	assert.Equal(t, 0, r.AthleteLimit)
	assert.False(t, r.CanAddAthlete())
}

func TestEvaluateRestrictedPlanBlocksEvenWithAccess(t *testing.T) {
	r := Evaluate(GuardInput{
		PlanName:  "restrito",
		HasAccess: true,
		Status:    domain.SubscriptionStatusActive,
		Settings:  trialSettings(),
	})

	assertLockedOut(t, r)
	assert.Equal(t, DecisionRestricted, r.Decision)
	assert.Equal(t, ReasonRestricted, r.BlockReason)
	assert.Contains(t, r.BlockMessage, "blocked")
}

func TestEvaluateRestrictedPrecedence(t *testing.T) {
	names := []string{"Restrito", "RESTRITO", "restrito"}
	for _, name := range names {
		for _, hasAccess := range []bool{true, false} {
			for _, trialing := range []bool{true, false} {
				r := Evaluate(GuardInput{
					PlanName:            name,
					HasAccess:           hasAccess,
					IsTrialing:          trialing,
					DaysUntilTrialEnd:   5,
					CurrentAthleteCount: 2,
					Settings:            trialSettings(),
				})
				assert.False(t, r.CanAccessFeature, "plan=%s hasAccess=%v trialing=%v", name, hasAccess, trialing)
				assert.Equal(t, ReasonRestricted, r.BlockReason)
			}
		}
	}

	r := Evaluate(GuardInput{PlanName: "Gratis", PlanRestricted: true, HasAccess: true})
	assert.Equal(t, DecisionRestricted, r.Decision)
}

func TestEvaluateSuperAdminBypassesEverything(t *testing.T) {
	admin := domain.Caller{UserID: "ops", Email: "ops@example.com", IsSuperAdmin: true}

	cases := []GuardInput{
		{Caller: admin, PlanName: "Restrito", HasAccess: true},
		{Caller: admin, PlanRestricted: true},
		{Caller: admin, HasAccess: false, IsTrialing: true, DaysUntilTrialEnd: 0},
		{Caller: admin},
	}
	for _, in := range cases {
		r := Evaluate(in)
		assert.Equal(t, DecisionSuperAdmin, r.Decision)
		assert.True(t, r.CanAccessFeature)
		assert.True(t, r.CanCreateRunner)
		assert.True(t, r.CanGenerateTraining)
		assert.True(t, r.IsUnlimited())
		assert.Empty(t, r.BlockReason)
	}
}

func TestEvaluateNoAccessReasons(t *testing.T) {
	expired := Evaluate(GuardInput{IsTrialing: true, DaysUntilTrialEnd: 0, HasAccess: false})
	assertLockedOut(t, expired)
	assert.Equal(t, ReasonTrialExpired, expired.BlockReason)

	canceled := Evaluate(GuardInput{Status: domain.SubscriptionStatusCanceled, HasAccess: false})
	assertLockedOut(t, canceled)
	assert.Equal(t, ReasonNoAccess, canceled.BlockReason)
	assert.NotEqual(t, expired.BlockMessage, canceled.BlockMessage)
}

func TestEvaluateTrialUsesConfiguredLimit(t *testing.T) {
	settings := trialSettings()
	r := Evaluate(GuardInput{
		Status:              domain.SubscriptionStatusTrialing,
		HasAccess:           true,
		IsTrialing:          true,
		DaysUntilTrialEnd:   4,
		CurrentAthleteCount: 2,
		Settings:            settings,
	})

	assert.Equal(t, DecisionTrial, r.Decision)
	assert.True(t, r.CanAccessFeature)
	assert.Equal(t, settings.TrialAthleteLimit, r.AthleteLimit)
	assert.True(t, r.CanAddAthlete())

	r.CurrentAthleteCount = 3
	assert.False(t, r.CanAddAthlete())
}

func TestEvaluatePaidIsUnlimited(t *testing.T) {
	r := Evaluate(GuardInput{
		Status:              domain.SubscriptionStatusActive,
		HasAccess:           true,
		PlanName:            "Basico",
		CurrentAthleteCount: 500,
		Settings:            trialSettings(),
	})

	assert.Equal(t, DecisionPaid, r.Decision)
	assert.True(t, r.IsUnlimited())
	assert.True(t, r.CanAddAthlete())
}
