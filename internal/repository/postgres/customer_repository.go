package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Dhoini/coach-billing/internal/domain"
	"github.com/Dhoini/coach-billing/internal/repository"
	"github.com/Dhoini/coach-billing/pkg/logger"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// CustomerRepository читает связку stripe_customers через PostgreSQL
type CustomerRepository struct {
	db  *pgxpool.Pool
	log *logger.Logger
}

var _ repository.CustomerRepository = (*CustomerRepository)(nil)

// NewCustomerRepository создает новый репозиторий клиентов через PostgreSQL
func NewCustomerRepository(db *pgxpool.Pool, log *logger.Logger) *CustomerRepository {
	return &CustomerRepository{
		db:  db,
		log: log,
	}
}

// GetUserIDByCustomerID возвращает пользователя по Stripe customer id
func (r *CustomerRepository) GetUserIDByCustomerID(ctx context.Context, customerID string) (string, error) {
	query := `SELECT user_id FROM stripe_customers WHERE customer_id = $1`

	var userID string
	err := r.db.QueryRow(ctx, query, customerID).Scan(&userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", fmt.Errorf("%w: %s", domain.ErrCustomerMappingNotFound, customerID)
		}
		return "", fmt.Errorf("failed to get customer mapping: %w", err)
	}

	if strings.TrimSpace(userID) == "" {
		return "", fmt.Errorf("%w: %s", domain.ErrCustomerMappingNotFound, customerID)
	}
	return userID, nil
}
