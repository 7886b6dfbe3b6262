package postgres

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/Dhoini/coach-billing/internal/domain"
	"github.com/Dhoini/coach-billing/pkg/logger"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var readBackColumns = []string{
	"id", "user_id", "plan_id", "status", "trial_ends_at",
	"current_period_start", "current_period_end", "updated_at", "count",
}

const (
	deleteSQL   = `DELETE FROM subscriptions WHERE user_id = $1`
	insertSQL   = `INSERT INTO subscriptions`
	readBackSQL = `COUNT(*) OVER () FROM subscriptions WHERE user_id = $1`
)

func newMockRepo(t *testing.T) (*SubscriptionRepository, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return NewSubscriptionRepository(mock, logger.NewNop()), mock
}

func activeSub(userID string, planID uuid.UUID, now time.Time) *domain.Subscription {
	return &domain.Subscription{
		UserID:             userID,
		PlanID:             &planID,
		Status:             domain.SubscriptionStatusActive,
		CurrentPeriodStart: now,
		CurrentPeriodEnd:   now.Add(domain.ActivationAccessWindow),
	}
}

func insertArgs(userID, status string) []any {
	return []any{
		pgxmock.AnyArg(), userID, pgxmock.AnyArg(), status,
		pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
	}
}

func expectActivation(mock pgxmock.PgxPoolIface, userID string, deleted int64, stored *domain.Subscription, rows int64) {
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(deleteSQL)).
		WithArgs(userID).
		WillReturnResult(pgxmock.NewResult("DELETE", deleted))
	mock.ExpectExec(insertSQL).
		WithArgs(insertArgs(userID, "active")...).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectQuery(regexp.QuoteMeta(readBackSQL)).
		WithArgs(userID).
		WillReturnRows(mock.NewRows(readBackColumns).AddRow(
			uuid.NewString(),
			stored.UserID,
			stored.PlanID,
			string(stored.Status),
			stored.TrialEndsAt,
			stored.CurrentPeriodStart,
			stored.CurrentPeriodEnd,
			time.Now().UTC(),
			rows,
		))
}

func TestActivateExclusiveReplayKeepsOneRow(t *testing.T) {
	repo, mock := newMockRepo(t)
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	planID := uuid.New()

	// Первая доставка: строк не было. Повтор: удаляется ровно одна строка.
	for _, deleted := range []int64{0, 1} {
		sub := activeSub("user-1", planID, now)
		expectActivation(mock, "user-1", deleted, sub, 1)
		mock.ExpectCommit()

		stored, err := repo.ActivateExclusive(ctx, sub)
		require.NoError(t, err)
		assert.True(t, stored.IsActivated())
		assert.Equal(t, planID, *stored.PlanID)
	}
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestActivateExclusiveRollsBackWhenRowWasRewritten(t *testing.T) {
	repo, mock := newMockRepo(t)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	sub := activeSub("user-1", uuid.New(), now)
	// AFTER INSERT триггер вернул пробный период
	rewritten := *sub
	trialEnd := now.Add(7 * 24 * time.Hour)
	rewritten.TrialEndsAt = &trialEnd

	expectActivation(mock, "user-1", 1, &rewritten, 1)
	mock.ExpectRollback()

	_, err := repo.ActivateExclusive(context.Background(), sub)
	require.ErrorIs(t, err, domain.ErrActivationVerification)
	var activationErr *domain.ActivationError
	require.ErrorAs(t, err, &activationErr)
	assert.True(t, activationErr.TrialEndsAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestActivateExclusiveRejectsDuplicateRows(t *testing.T) {
	repo, mock := newMockRepo(t)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	sub := activeSub("user-1", uuid.New(), now)

	expectActivation(mock, "user-1", 0, sub, 2)
	mock.ExpectRollback()

	_, err := repo.ActivateExclusive(context.Background(), sub)
	assert.ErrorIs(t, err, domain.ErrActivationVerification)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestActivateExclusiveInsertFailureRollsBack(t *testing.T) {
	repo, mock := newMockRepo(t)
	sub := activeSub("user-1", uuid.New(), time.Now().UTC())

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(deleteSQL)).
		WithArgs("user-1").
		WillReturnResult(pgxmock.NewResult("DELETE", 1))
	mock.ExpectExec(insertSQL).
		WithArgs(insertArgs("user-1", "active")...).
		WillReturnError(errors.New("foreign key violation"))
	mock.ExpectRollback()

	_, err := repo.ActivateExclusive(context.Background(), sub)
	assert.ErrorContains(t, err, "foreign key violation")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpsertByUserIDConflictsOnUserID(t *testing.T) {
	repo, mock := newMockRepo(t)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	mock.ExpectExec(regexp.QuoteMeta(`ON CONFLICT (user_id) DO UPDATE SET plan_id = EXCLUDED.plan_id, status = EXCLUDED.status, trial_ends_at = EXCLUDED.trial_ends_at`)).
		WithArgs(insertArgs("user-1", "canceled")...).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err := repo.UpsertByUserID(context.Background(), &domain.Subscription{
		UserID:             "user-1",
		Status:             domain.SubscriptionStatusCanceled,
		CurrentPeriodStart: now,
		CurrentPeriodEnd:   now.AddDate(0, 1, 0),
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateStatusWithoutRow(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectExec(regexp.QuoteMeta(`UPDATE subscriptions SET status = $1, updated_at = $2 WHERE user_id = $3`)).
		WithArgs("canceled", pgxmock.AnyArg(), "user-1").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	updated, err := repo.UpdateStatus(context.Background(), "user-1", domain.SubscriptionStatusCanceled)
	require.NoError(t, err)
	assert.False(t, updated)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateTrialIfAbsentKeepsExistingRow(t *testing.T) {
	repo, mock := newMockRepo(t)
	now := time.Now().UTC()
	trialEnd := now.Add(7 * 24 * time.Hour)

	mock.ExpectExec(regexp.QuoteMeta(`ON CONFLICT (user_id) DO NOTHING`)).
		WithArgs(insertArgs("user-1", "trialing")...).
		WillReturnResult(pgxmock.NewResult("INSERT", 0))

	created, err := repo.CreateTrialIfAbsent(context.Background(), &domain.Subscription{
		UserID:             "user-1",
		Status:             domain.SubscriptionStatusTrialing,
		TrialEndsAt:        &trialEnd,
		CurrentPeriodStart: now,
		CurrentPeriodEnd:   trialEnd,
	})
	require.NoError(t, err)
	assert.False(t, created)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetByUserIDNotFound(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(regexp.QuoteMeta(`FROM subscriptions WHERE user_id = $1`)).
		WithArgs("user-1").
		WillReturnError(pgx.ErrNoRows)

	_, err := repo.GetByUserID(context.Background(), "user-1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}
