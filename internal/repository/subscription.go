package repository

import (
	"context"

	"github.com/Dhoini/coach-billing/internal/domain"
)

// SubscriptionRepository определяет методы для работы с хранилищем подписок.
// На пользователя хранится не более одной строки.
type SubscriptionRepository interface {
	// GetByUserID возвращает подписку пользователя или ErrNotFound.
	GetByUserID(ctx context.Context, userID string) (*domain.Subscription, error)

	// ActivateExclusive в одной транзакции удаляет все строки пользователя,
	// вставляет sub, перечитывает ее и проверяет, что подписка активирована.
	// При неудачной проверке транзакция откатывается с *domain.ActivationError.
	ActivateExclusive(ctx context.Context, sub *domain.Subscription) (*domain.Subscription, error)

	// UpsertByUserID вставляет или обновляет строку по user_id.
	UpsertByUserID(ctx context.Context, sub *domain.Subscription) error

	// UpdateStatus меняет только статус. Возвращает false, если строки нет.
	UpdateStatus(ctx context.Context, userID string, status domain.SubscriptionStatus) (bool, error)

	// CreateTrialIfAbsent создает строку, только если у пользователя ее еще нет.
	CreateTrialIfAbsent(ctx context.Context, sub *domain.Subscription) (bool, error)
}

// SubscriptionDetailsReader читает денормализованное представление subscription_details.
type SubscriptionDetailsReader interface {
	GetSubscriptionDetails(ctx context.Context, userID string) (*domain.SubscriptionDetails, error)
}

// AthleteCounter считает активных (не архивных) атлетов тренера.
type AthleteCounter interface {
	CountActiveAthletes(ctx context.Context, coachID string) (int, error)
}
