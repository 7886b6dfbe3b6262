package repository

import (
	"context"

	"github.com/Dhoini/coach-billing/internal/domain"
	"github.com/google/uuid"
)

// PlanRepository справочник тарифных планов.
type PlanRepository interface {
	ListActive(ctx context.Context) ([]domain.Plan, error)
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Plan, error)
	// GetByStripePriceID ищет план по stripe_price_id_monthly, ErrNotFound при промахе.
	GetByStripePriceID(ctx context.Context, priceID string) (*domain.Plan, error)
}

// SettingsRepository глобальные настройки триала.
type SettingsRepository interface {
	Get(ctx context.Context) (domain.AppSettings, error)
	Update(ctx context.Context, settings domain.AppSettings) (domain.AppSettings, error)
}
