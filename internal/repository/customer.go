package repository

import (
	"context"

	"github.com/Dhoini/coach-billing/internal/domain"
)

// CustomerRepository читает связку Stripe customer -> пользователь.
type CustomerRepository interface {
	// GetUserIDByCustomerID возвращает domain.ErrCustomerMappingNotFound, если связки нет.
	GetUserIDByCustomerID(ctx context.Context, customerID string) (string, error)
}

// AuditRepository журнал аудита, только добавление.
type AuditRepository interface {
	Append(ctx context.Context, entry *domain.AuditEntry) error
}
