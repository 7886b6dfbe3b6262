package service

import (
	"context"

	"github.com/Dhoini/coach-billing/internal/domain"
	"github.com/Dhoini/coach-billing/internal/repository"
	"github.com/Dhoini/coach-billing/pkg/logger"
)

// SettingsService глобальные настройки триала
type SettingsService interface {
	Get(ctx context.Context) (domain.AppSettings, error)
	Update(ctx context.Context, settings domain.AppSettings, updatedBy string) (domain.AppSettings, error)
}

type settingsService struct {
	repo repository.SettingsRepository
	log  *logger.Logger
}

// NewSettingsService создает новый сервис настроек
func NewSettingsService(repo repository.SettingsRepository, log *logger.Logger) SettingsService {
	return &settingsService{repo: repo, log: log}
}

func (s *settingsService) Get(ctx context.Context) (domain.AppSettings, error) {
	return s.repo.Get(ctx)
}

func (s *settingsService) Update(ctx context.Context, settings domain.AppSettings, updatedBy string) (domain.AppSettings, error) {
	updated, err := s.repo.Update(ctx, settings)
	if err != nil {
		return domain.AppSettings{}, err
	}
	s.log.Infow("App settings updated",
		"by", updatedBy,
		"trial_duration_days", updated.TrialDurationDays,
		"trial_athlete_limit", updated.TrialAthleteLimit,
		"trial_training_limit", updated.TrialTrainingLimit,
	)
	return updated, nil
}
