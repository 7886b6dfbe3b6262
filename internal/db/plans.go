package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Dhoini/coach-billing/internal/domain"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const planColumns = `id, name, price_monthly, max_athletes, is_active, is_public, is_restricted_tier,
	stripe_price_id_monthly, mercadopago_plan_id`

// PlanStore читает тарифные планы.
type PlanStore struct {
	client *DBClient
}

// NewPlanStore создает новый PlanStore.
func NewPlanStore(client *DBClient) *PlanStore {
	return &PlanStore{client: client}
}

// ListActive возвращает активные планы, дешевые первыми.
func (s *PlanStore) ListActive(ctx context.Context) ([]domain.Plan, error) {
	var plans []domain.Plan
	query := `SELECT ` + planColumns + ` FROM plans WHERE is_active = true ORDER BY price_monthly ASC`
	if err := s.client.db.SelectContext(ctx, &plans, query); err != nil {
		s.client.log.Error("Failed to list plans", zap.Error(err))
		return nil, fmt.Errorf("failed to list plans: %w", err)
	}
	return plans, nil
}

// GetByID возвращает план по id.
func (s *PlanStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Plan, error) {
	query := `SELECT ` + planColumns + ` FROM plans WHERE id = $1`
	return s.get(ctx, query, id.String(), id)
}

// GetByStripePriceID возвращает план по месячной цене Stripe.
func (s *PlanStore) GetByStripePriceID(ctx context.Context, priceID string) (*domain.Plan, error) {
	query := `SELECT ` + planColumns + ` FROM plans WHERE stripe_price_id_monthly = $1 LIMIT 1`
	return s.get(ctx, query, priceID, priceID)
}

func (s *PlanStore) get(ctx context.Context, query, key string, arg any) (*domain.Plan, error) {
	var plan domain.Plan
	err := s.client.db.QueryRowxContext(ctx, query, arg).StructScan(&plan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			s.client.log.Debug("Plan not found", zap.String("key", key))
			return nil, domain.NewNotFoundError("plan", key)
		}
		s.client.log.Error("Failed to get plan", zap.String("key", key), zap.Error(err))
		return nil, fmt.Errorf("failed to get plan: %w", err)
	}
	return &plan, nil
}
