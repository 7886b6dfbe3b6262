package handlers

import (
	"net/http"

	"github.com/Dhoini/coach-billing/internal/access"
	"github.com/Dhoini/coach-billing/internal/api/rest/middleware"
	"github.com/Dhoini/coach-billing/internal/domain"
	"github.com/Dhoini/coach-billing/internal/service"
	"github.com/Dhoini/coach-billing/pkg/logger"
	"github.com/Dhoini/coach-billing/pkg/res"
	"github.com/gin-gonic/gin"
)

// AccessHandler обработчик проверки доступа и триала
type AccessHandler struct {
	access service.AccessService
	trial  service.TrialService
	log    *logger.Logger
}

// AccessResponse результат проверки доступа
type AccessResponse struct {
	access.GuardResult
	CanAddAthlete bool `json:"can_add_athlete"`
}

// TrialResponse текущая подписка после запроса триала
type TrialResponse struct {
	Subscription *domain.Subscription `json:"subscription"`
	Created      bool                 `json:"created"`
}

// NewAccessHandler создает новый обработчик доступа
func NewAccessHandler(accessSvc service.AccessService, trialSvc service.TrialService, log *logger.Logger) *AccessHandler {
	return &AccessHandler{
		access: accessSvc,
		trial:  trialSvc,
		log:    log,
	}
}

// GetAccess возвращает разрешения текущего тренера
func (h *AccessHandler) GetAccess(c *gin.Context) {
	caller, ok := middleware.CallerFromContext(c)
	if !ok {
		res.Error(c, http.StatusUnauthorized, res.ErrorResponse{Error: domain.ErrUnauthenticated.Error()}, h.log)
		return
	}

	result, err := h.access.Evaluate(c.Request.Context(), caller)
	if err != nil {
		res.Error(c, http.StatusInternalServerError, res.ErrorResponse{Error: err.Error()}, h.log)
		return
	}

	res.JSON(c, http.StatusOK, AccessResponse{
		GuardResult:   result,
		CanAddAthlete: result.CanAddAthlete(),
	})
}

// StartTrial открывает пробный период, если подписки еще нет
func (h *AccessHandler) StartTrial(c *gin.Context) {
	caller, ok := middleware.CallerFromContext(c)
	if !ok {
		res.Error(c, http.StatusUnauthorized, res.ErrorResponse{Error: domain.ErrUnauthenticated.Error()}, h.log)
		return
	}

	sub, created, err := h.trial.StartTrial(c.Request.Context(), caller.UserID)
	if err != nil {
		res.Error(c, http.StatusInternalServerError, res.ErrorResponse{Error: err.Error()}, h.log)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	res.JSON(c, status, TrialResponse{Subscription: sub, Created: created})
}
