package res

import (
	"net/http"

	"github.com/Dhoini/coach-billing/pkg/logger"
	"github.com/gin-gonic/gin"
)

// ErrorResponse представляет формат JSON-ответа для ошибок.
type ErrorResponse struct {
	Error     string `json:"error"`                // Сообщение об ошибке
	ErrorCode int    `json:"error_code,omitempty"` // Код ошибки (для программной обработки)
	Details   any    `json:"details,omitempty"`    // Детали ошибки (например, ошибки валидации)
}

// JSON отправляет JSON-ответ с заданным статусом.
func JSON(c *gin.Context, status int, data any) {
	c.JSON(status, data)
}

// Error отправляет JSON ответ ошибки и прерывает цепочку обработчиков.
func Error(c *gin.Context, status int, errResponse ErrorResponse, log *logger.Logger) {
	if errResponse.ErrorCode == 0 {
		errResponse.ErrorCode = status
	}
	c.AbortWithStatusJSON(status, errResponse)
	if status >= http.StatusInternalServerError {
		log.Errorw("Error response", "status", status, "error", errResponse.Error, "path", c.FullPath())
		return
	}
	log.Warnw("Error response", "status", status, "error", errResponse.Error, "path", c.FullPath())
}
