package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Dhoini/coach-billing/internal/domain"
	"github.com/Dhoini/coach-billing/internal/repository"
	"github.com/Dhoini/coach-billing/pkg/logger"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const subscriptionColumns = `id, user_id, plan_id, status, trial_ends_at, current_period_start, current_period_end, updated_at`

// DBTX подмножество pgxpool.Pool, которое использует репозиторий подписок
type DBTX interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// SubscriptionRepository реализация репозитория подписок через PostgreSQL
type SubscriptionRepository struct {
	db  DBTX
	log *logger.Logger
}

var _ repository.SubscriptionRepository = (*SubscriptionRepository)(nil)

// NewSubscriptionRepository создает новый репозиторий подписок через PostgreSQL
func NewSubscriptionRepository(db DBTX, log *logger.Logger) *SubscriptionRepository {
	return &SubscriptionRepository{
		db:  db,
		log: log,
	}
}

// GetByUserID возвращает подписку пользователя
func (r *SubscriptionRepository) GetByUserID(ctx context.Context, userID string) (*domain.Subscription, error) {
	query := `SELECT ` + subscriptionColumns + ` FROM subscriptions WHERE user_id = $1`

	sub, err := scanSubscription(r.db.QueryRow(ctx, query, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NewNotFoundError("subscription", userID)
		}
		return nil, fmt.Errorf("failed to get subscription: %w", err)
	}
	return sub, nil
}

// ActivateExclusive заменяет все строки пользователя одной активной в рамках транзакции.
// Строка перечитывается отдельным SELECT до Commit: RETURNING не видит правок AFTER-триггеров.
func (r *SubscriptionRepository) ActivateExclusive(ctx context.Context, sub *domain.Subscription) (*domain.Subscription, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	committed := false
	defer func() {
		if committed {
			return
		}
		if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
			r.log.Errorw("Failed to rollback activation", "error", rbErr, "userID", sub.UserID)
		}
	}()

	tag, err := tx.Exec(ctx, `DELETE FROM subscriptions WHERE user_id = $1`, sub.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to clear subscriptions: %w", err)
	}
	r.log.Debugw("Cleared existing subscriptions", "userID", sub.UserID, "deleted", tag.RowsAffected())

	if sub.ID == uuid.Nil {
		sub.ID = uuid.New()
	}
	sub.UpdatedAt = time.Now().UTC()

	insert := `
		INSERT INTO subscriptions (` + subscriptionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	if _, err := tx.Exec(ctx, insert,
		sub.ID,
		sub.UserID,
		sub.PlanID,
		string(sub.Status),
		sub.TrialEndsAt,
		sub.CurrentPeriodStart,
		sub.CurrentPeriodEnd,
		sub.UpdatedAt,
	); err != nil {
		return nil, fmt.Errorf("failed to insert subscription: %w", err)
	}

	stored, rows, err := r.readBack(ctx, tx, sub.UserID)
	if err != nil {
		return nil, err
	}
	if rows != 1 {
		return nil, fmt.Errorf("%w: expected 1 row for user %s, found %d", domain.ErrActivationVerification, sub.UserID, rows)
	}
	if !stored.IsActivated() {
		return nil, &domain.ActivationError{
			UserID:      stored.UserID,
			Status:      stored.Status,
			TrialEndsAt: stored.TrialEndsAt != nil,
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit activation: %w", err)
	}
	committed = true
	return stored, nil
}

// readBack читает строку пользователя внутри транзакции вместе с числом строк.
func (r *SubscriptionRepository) readBack(ctx context.Context, tx pgx.Tx, userID string) (*domain.Subscription, int64, error) {
	query := `SELECT ` + subscriptionColumns + `, COUNT(*) OVER () FROM subscriptions WHERE user_id = $1`

	var (
		sub    domain.Subscription
		status string
		rows   int64
	)
	err := tx.QueryRow(ctx, query, userID).Scan(
		&sub.ID,
		&sub.UserID,
		&sub.PlanID,
		&status,
		&sub.TrialEndsAt,
		&sub.CurrentPeriodStart,
		&sub.CurrentPeriodEnd,
		&sub.UpdatedAt,
		&rows,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, 0, fmt.Errorf("%w: no row for user %s after insert", domain.ErrActivationVerification, userID)
		}
		return nil, 0, fmt.Errorf("failed to read back subscription: %w", err)
	}
	sub.Status = domain.ParseSubscriptionStatus(status)
	return &sub, rows, nil
}

// UpsertByUserID вставляет или обновляет подписку по user_id
func (r *SubscriptionRepository) UpsertByUserID(ctx context.Context, sub *domain.Subscription) error {
	if sub.ID == uuid.Nil {
		sub.ID = uuid.New()
	}
	sub.UpdatedAt = time.Now().UTC()

	query := `
		INSERT INTO subscriptions (` + subscriptionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (user_id) DO UPDATE SET
			plan_id = EXCLUDED.plan_id,
			status = EXCLUDED.status,
			trial_ends_at = EXCLUDED.trial_ends_at,
			current_period_start = EXCLUDED.current_period_start,
			current_period_end = EXCLUDED.current_period_end,
			updated_at = EXCLUDED.updated_at`

	_, err := r.db.Exec(ctx, query,
		sub.ID,
		sub.UserID,
		sub.PlanID,
		string(sub.Status),
		sub.TrialEndsAt,
		sub.CurrentPeriodStart,
		sub.CurrentPeriodEnd,
		sub.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert subscription: %w", err)
	}
	return nil
}

// UpdateStatus меняет статус подписки пользователя
func (r *SubscriptionRepository) UpdateStatus(ctx context.Context, userID string, status domain.SubscriptionStatus) (bool, error) {
	tag, err := r.db.Exec(ctx,
		`UPDATE subscriptions SET status = $1, updated_at = $2 WHERE user_id = $3`,
		string(status), time.Now().UTC(), userID,
	)
	if err != nil {
		return false, fmt.Errorf("failed to update subscription status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		r.log.Warnw("Subscription status update affected 0 rows", "userID", userID)
		return false, nil
	}
	return true, nil
}

// CreateTrialIfAbsent создает триальную подписку, если строки еще нет
func (r *SubscriptionRepository) CreateTrialIfAbsent(ctx context.Context, sub *domain.Subscription) (bool, error) {
	if sub.ID == uuid.Nil {
		sub.ID = uuid.New()
	}
	sub.UpdatedAt = time.Now().UTC()

	query := `
		INSERT INTO subscriptions (` + subscriptionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (user_id) DO NOTHING`

	tag, err := r.db.Exec(ctx, query,
		sub.ID,
		sub.UserID,
		sub.PlanID,
		string(sub.Status),
		sub.TrialEndsAt,
		sub.CurrentPeriodStart,
		sub.CurrentPeriodEnd,
		sub.UpdatedAt,
	)
	if err != nil {
		return false, fmt.Errorf("failed to create trial subscription: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func scanSubscription(row pgx.Row) (*domain.Subscription, error) {
	var (
		sub    domain.Subscription
		status string
	)
	err := row.Scan(
		&sub.ID,
		&sub.UserID,
		&sub.PlanID,
		&status,
		&sub.TrialEndsAt,
		&sub.CurrentPeriodStart,
		&sub.CurrentPeriodEnd,
		&sub.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	sub.Status = domain.ParseSubscriptionStatus(status)
	return &sub, nil
}
