package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Application errors
var (
	// ErrNotFound запись не найдена
	ErrNotFound = errors.New("record not found")

	// ErrUnauthenticated пользователь не аутентифицирован
	ErrUnauthenticated = errors.New("unauthenticated")

	// ErrUnauthorized пользователь не авторизован
	ErrUnauthorized = errors.New("unauthorized")

	// ErrMissingCustomer в событии нет customer id
	ErrMissingCustomer = errors.New("customer id missing in event payload")

	// ErrCustomerMappingNotFound нет связки Stripe customer -> пользователь
	ErrCustomerMappingNotFound = errors.New("stripe customer mapping not found")

	// ErrActivationVerification после активации строка не в ожидаемом состоянии
	ErrActivationVerification = errors.New("subscription activation verification failed")

	// ErrWebhookValidationFailed не удалось проверить подпись вебхука
	ErrWebhookValidationFailed = errors.New("webhook validation failed")

	// ErrInvalidPayload тело события не разбирается
	ErrInvalidPayload = errors.New("invalid event payload")
)

// ConfigError отсутствуют обязательные переменные конфигурации
type ConfigError struct {
	Missing []string
}

// Error реализует интерфейс error
func (e *ConfigError) Error() string {
	return fmt.Sprintf("missing required configuration: %s", strings.Join(e.Missing, ", "))
}

// NotFoundError представляет ошибку "не найдено"
type NotFoundError struct {
	Entity string
	ID     string
}

// Error реализует интерфейс error
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s with ID %s not found", e.Entity, e.ID)
}

// Is проверяет, является ли ошибка ошибкой типа "не найдено"
func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// NewNotFoundError создает новую ошибку "не найдено"
func NewNotFoundError(entity, id string) *NotFoundError {
	return &NotFoundError{
		Entity: entity,
		ID:     id,
	}
}

// ActivationError ошибка проверки строки после активации
type ActivationError struct {
	UserID      string
	Status      SubscriptionStatus
	TrialEndsAt bool
}

// Error реализует интерфейс error
func (e *ActivationError) Error() string {
	return fmt.Sprintf("activation for user %s left status=%s trial_ends_at_set=%t", e.UserID, e.Status, e.TrialEndsAt)
}

// Is связывает ошибку с ErrActivationVerification
func (e *ActivationError) Is(target error) bool {
	return target == ErrActivationVerification
}
