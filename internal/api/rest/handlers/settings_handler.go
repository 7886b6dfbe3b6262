package handlers

import (
	"net/http"

	"github.com/Dhoini/coach-billing/internal/api/rest/middleware"
	"github.com/Dhoini/coach-billing/internal/domain"
	"github.com/Dhoini/coach-billing/internal/service"
	"github.com/Dhoini/coach-billing/pkg/logger"
	"github.com/Dhoini/coach-billing/pkg/req"
	"github.com/Dhoini/coach-billing/pkg/res"
	"github.com/gin-gonic/gin"
)

// SettingsHandler обработчик глобальных настроек триала
type SettingsHandler struct {
	service service.SettingsService
	log     *logger.Logger
}

// UpdateSettingsRequest тело запроса на изменение настроек
type UpdateSettingsRequest struct {
	TrialDurationDays  int `json:"trial_duration_days" validate:"min=1,max=365"`
	TrialAthleteLimit  int `json:"trial_athlete_limit" validate:"min=0"`
	TrialTrainingLimit int `json:"trial_training_limit" validate:"min=0"`
}

// NewSettingsHandler создает новый обработчик настроек
func NewSettingsHandler(svc service.SettingsService, log *logger.Logger) *SettingsHandler {
	return &SettingsHandler{service: svc, log: log}
}

// GetSettings возвращает текущие настройки
func (h *SettingsHandler) GetSettings(c *gin.Context) {
	settings, err := h.service.Get(c.Request.Context())
	if err != nil {
		res.Error(c, http.StatusInternalServerError, res.ErrorResponse{Error: err.Error()}, h.log)
		return
	}
	res.JSON(c, http.StatusOK, settings)
}

// UpdateSettings валидирует и сохраняет настройки
func (h *SettingsHandler) UpdateSettings(c *gin.Context) {
	body, ok := req.HandleBody[UpdateSettingsRequest](c, h.log)
	if !ok {
		return
	}

	caller, _ := middleware.CallerFromContext(c)
	updated, err := h.service.Update(c.Request.Context(), domain.AppSettings{
		TrialDurationDays:  body.TrialDurationDays,
		TrialAthleteLimit:  body.TrialAthleteLimit,
		TrialTrainingLimit: body.TrialTrainingLimit,
	}, caller.Email)
	if err != nil {
		res.Error(c, http.StatusInternalServerError, res.ErrorResponse{Error: err.Error()}, h.log)
		return
	}
	res.JSON(c, http.StatusOK, updated)
}
