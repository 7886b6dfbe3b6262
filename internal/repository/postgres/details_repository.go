package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/Dhoini/coach-billing/internal/domain"
	"github.com/Dhoini/coach-billing/internal/repository"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DetailsRepository читает представление subscription_details и таблицу атлетов
type DetailsRepository struct {
	db *pgxpool.Pool
}

var (
	_ repository.SubscriptionDetailsReader = (*DetailsRepository)(nil)
	_ repository.AthleteCounter            = (*DetailsRepository)(nil)
)

// NewDetailsRepository создает новый DetailsRepository
func NewDetailsRepository(db *pgxpool.Pool) *DetailsRepository {
	return &DetailsRepository{db: db}
}

// GetSubscriptionDetails читает денормализованную подписку пользователя
func (r *DetailsRepository) GetSubscriptionDetails(ctx context.Context, userID string) (*domain.SubscriptionDetails, error) {
	query := `
		SELECT user_id, status, COALESCE(plan_name, ''), trial_ends_at, current_period_end
		FROM subscription_details
		WHERE user_id = $1`

	var (
		d      domain.SubscriptionDetails
		status string
	)
	err := r.db.QueryRow(ctx, query, userID).Scan(&d.UserID, &status, &d.PlanName, &d.TrialEndsAt, &d.CurrentPeriodEnd)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NewNotFoundError("subscription_details", userID)
		}
		return nil, fmt.Errorf("failed to read subscription details: %w", err)
	}
	d.Status = domain.ParseSubscriptionStatus(status)
	return &d, nil
}

// CountActiveAthletes считает неархивных атлетов тренера
func (r *DetailsRepository) CountActiveAthletes(ctx context.Context, coachID string) (int, error) {
	var count int
	err := r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM athletes WHERE coach_id = $1 AND archived_at IS NULL`,
		coachID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count athletes: %w", err)
	}
	return count, nil
}
