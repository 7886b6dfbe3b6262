package domain

import "time"

// StripeCustomer связывает Stripe customer id с пользователем платформы.
// Создается при оформлении checkout, сервис только читает.
type StripeCustomer struct {
	CustomerID string    `json:"customer_id" db:"customer_id"`
	UserID     string    `json:"user_id" db:"user_id"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}

// Caller описывает пользователя, от имени которого вычисляется доступ.
type Caller struct {
	UserID       string
	Email        string
	IsSuperAdmin bool
}
