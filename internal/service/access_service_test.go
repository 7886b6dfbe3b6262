package service

import (
	"context"
	"testing"
	"time"

	"github.com/Dhoini/coach-billing/internal/access"
	"github.com/Dhoini/coach-billing/internal/domain"
	"github.com/Dhoini/coach-billing/pkg/logger"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAccessService(subs *memSubscriptions, plans *memPlans, athletes int) *accessService {
	svc := NewAccessService(
		subs,
		plans,
		&memSettings{settings: domain.AppSettings{TrialDurationDays: 7, TrialAthleteLimit: 3, TrialTrainingLimit: 10}},
		staticAthletes(athletes),
		nil,
		logger.NewNop(),
	).(*accessService)
	svc.now = fixedClock
	return svc
}

func TestAccessTrialingCoach(t *testing.T) {
	trialEnd := fixedNow.Add(36 * time.Hour)
	subs := &memSubscriptions{rows: []domain.Subscription{
		{UserID: "user-1", Status: domain.SubscriptionStatusTrialing, TrialEndsAt: &trialEnd},
	}}
	svc := newAccessService(subs, &memPlans{}, 3)

	result, err := svc.Evaluate(context.Background(), domain.Caller{UserID: "user-1"})
	require.NoError(t, err)
	assert.Equal(t, access.DecisionTrial, result.Decision)
	assert.Equal(t, 3, result.AthleteLimit)
	assert.Equal(t, 2, result.DaysUntilTrialEnd)
	assert.False(t, result.CanAddAthlete())
}

func TestAccessRestrictedPlanBlocksActiveCoach(t *testing.T) {
	restrito := domain.Plan{ID: uuid.New(), Name: "restrito", IsActive: true}
	subs := &memSubscriptions{rows: []domain.Subscription{
		{UserID: "user-1", PlanID: &restrito.ID, Status: domain.SubscriptionStatusActive, CurrentPeriodEnd: fixedNow.Add(time.Hour)},
	}}
	svc := newAccessService(subs, &memPlans{plans: []domain.Plan{restrito}}, 0)

	result, err := svc.Evaluate(context.Background(), domain.Caller{UserID: "user-1"})
	require.NoError(t, err)
	assert.False(t, result.CanAccessFeature)
	assert.Equal(t, access.ReasonRestricted, result.BlockReason)
}

func TestAccessWithoutSubscription(t *testing.T) {
	svc := newAccessService(&memSubscriptions{}, &memPlans{}, 0)

	result, err := svc.Evaluate(context.Background(), domain.Caller{UserID: "nobody"})
	require.NoError(t, err)
	assert.Equal(t, access.ReasonNoAccess, result.BlockReason)

	admin, err := svc.Evaluate(context.Background(), domain.Caller{UserID: "nobody", IsSuperAdmin: true})
	require.NoError(t, err)
	assert.True(t, admin.IsUnlimited())
}
