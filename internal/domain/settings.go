package domain

import "time"

// AppSettings глобальные настройки триала, редактируются администратором.
type AppSettings struct {
	TrialDurationDays  int       `json:"trial_duration_days" db:"trial_duration_days" validate:"min=1,max=365"`
	TrialAthleteLimit  int       `json:"trial_athlete_limit" db:"trial_athlete_limit" validate:"min=0"`
	TrialTrainingLimit int       `json:"trial_training_limit" db:"trial_training_limit" validate:"min=0"`
	UpdatedAt          time.Time `json:"updated_at" db:"updated_at"`
}

// DefaultAppSettings значения на случай, если строка настроек еще не создана.
func DefaultAppSettings() AppSettings {
	return AppSettings{
		TrialDurationDays:  7,
		TrialAthleteLimit:  5,
		TrialTrainingLimit: 10,
	}
}

// TrialEnd вычисляет окончание триала, начавшегося в start.
func (s AppSettings) TrialEnd(start time.Time) time.Time {
	return start.Add(time.Duration(s.TrialDurationDays) * 24 * time.Hour)
}
