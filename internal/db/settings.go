package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Dhoini/coach-billing/internal/domain"
	"go.uber.org/zap"
)

// settingsRowID строка настроек единственная.
const settingsRowID = 1

// SettingsStore читает и обновляет app_settings.
type SettingsStore struct {
	client *DBClient
}

// NewSettingsStore создает новый SettingsStore.
func NewSettingsStore(client *DBClient) *SettingsStore {
	return &SettingsStore{client: client}
}

// Get возвращает настройки. Если строки нет, возвращаются значения по умолчанию.
func (s *SettingsStore) Get(ctx context.Context) (domain.AppSettings, error) {
	var settings domain.AppSettings
	query := `
		SELECT trial_duration_days, trial_athlete_limit, trial_training_limit, updated_at
		FROM app_settings
		WHERE id = $1`
	err := s.client.db.GetContext(ctx, &settings, query, settingsRowID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			s.client.log.Warn("App settings row missing, using defaults")
			return domain.DefaultAppSettings(), nil
		}
		s.client.log.Error("Failed to get app settings", zap.Error(err))
		return domain.AppSettings{}, fmt.Errorf("failed to get app settings: %w", err)
	}
	return settings, nil
}

// Update сохраняет настройки.
func (s *SettingsStore) Update(ctx context.Context, settings domain.AppSettings) (domain.AppSettings, error) {
	tx, err := s.client.db.BeginTxx(ctx, nil)
	if err != nil {
		return domain.AppSettings{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			s.client.log.Error("Failed to rollback transaction", zap.Error(rbErr))
		}
	}()

	settings.UpdatedAt = time.Now().UTC()
	query := `
		INSERT INTO app_settings (id, trial_duration_days, trial_athlete_limit, trial_training_limit, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE SET
			trial_duration_days = EXCLUDED.trial_duration_days,
			trial_athlete_limit = EXCLUDED.trial_athlete_limit,
			trial_training_limit = EXCLUDED.trial_training_limit,
			updated_at = EXCLUDED.updated_at`
	if _, err := tx.ExecContext(ctx, query, settingsRowID,
		settings.TrialDurationDays, settings.TrialAthleteLimit, settings.TrialTrainingLimit, settings.UpdatedAt,
	); err != nil {
		s.client.log.Error("Failed to update app settings", zap.Error(err))
		return domain.AppSettings{}, fmt.Errorf("failed to update app settings: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return domain.AppSettings{}, fmt.Errorf("failed to commit app settings: %w", err)
	}
	s.client.log.Info("App settings updated",
		zap.Int("trial_duration_days", settings.TrialDurationDays),
		zap.Int("trial_athlete_limit", settings.TrialAthleteLimit),
	)
	return settings, nil
}
