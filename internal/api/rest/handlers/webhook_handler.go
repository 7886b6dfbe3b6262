package handlers

import (
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/Dhoini/coach-billing/internal/config"
	"github.com/Dhoini/coach-billing/internal/domain"
	stripeint "github.com/Dhoini/coach-billing/internal/integration/stripe"
	"github.com/Dhoini/coach-billing/internal/metrics"
	"github.com/Dhoini/coach-billing/internal/service"
	"github.com/Dhoini/coach-billing/pkg/logger"
	"github.com/Dhoini/coach-billing/pkg/res"
	"github.com/gin-gonic/gin"
)

// WebhookHandler обработчик для вебхуков Stripe
type WebhookHandler struct {
	cfg     *config.Config
	service service.WebhookService
	metrics metrics.BillingMetrics
	log     *logger.Logger
}

// WebhookResponse ответ на успешно принятое событие
type WebhookResponse struct {
	Received  bool   `json:"received"`
	EventType string `json:"event_type"`
	EventID   string `json:"event_id"`
}

// NewWebhookHandler создает новый обработчик вебхуков
func NewWebhookHandler(cfg *config.Config, svc service.WebhookService, m metrics.BillingMetrics, log *logger.Logger) *WebhookHandler {
	if m == nil {
		m = metrics.NoopMetrics{}
	}
	return &WebhookHandler{
		cfg:     cfg,
		service: svc,
		metrics: m,
		log:     log,
	}
}

// HandleStripeWebhook обрабатывает вебхуки от Stripe.
// Preflight OPTIONS отвечает CORS middleware до вызова обработчика.
func (h *WebhookHandler) HandleStripeWebhook(c *gin.Context) {
	start := time.Now()
	eventType := "unknown"
	defer func() {
		h.metrics.ObserveWebhook(eventType, c.Writer.Status(), time.Since(start))
	}()

	if c.Request.Method != http.MethodPost {
		res.Error(c, http.StatusMethodNotAllowed, res.ErrorResponse{Error: "method not allowed"}, h.log)
		return
	}

	sigHeader := c.GetHeader(stripeint.SignatureHeader)
	if strings.TrimSpace(sigHeader) == "" {
		res.Error(c, http.StatusBadRequest, res.ErrorResponse{Error: "missing Stripe signature"}, h.log)
		return
	}

	if missing := h.cfg.MissingWebhookSecrets(); len(missing) > 0 {
		cfgErr := &domain.ConfigError{Missing: missing}
		res.Error(c, http.StatusInternalServerError, res.ErrorResponse{Error: cfgErr.Error(), Details: missing}, h.log)
		return
	}

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, stripeint.WebhookBodyLimit)
	payload, err := io.ReadAll(c.Request.Body)
	if err != nil {
		res.Error(c, http.StatusBadRequest, res.ErrorResponse{Error: "failed to read request body"}, h.log)
		return
	}

	event, err := stripeint.NewVerifier(h.cfg.Stripe.WebhookSecret).Verify(payload, sigHeader)
	if err != nil {
		h.log.Warnw("Stripe signature verification failed", "error", err)
		res.Error(c, http.StatusBadRequest, res.ErrorResponse{Error: "invalid Stripe signature"}, h.log)
		return
	}
	eventType = string(event.Type)

	result, err := h.service.ProcessEvent(c.Request.Context(), event)
	if err != nil {
		h.log.Errorw("Stripe webhook processing failed", "error", err, "eventID", event.ID, "type", event.Type)
		res.Error(c, statusForProcessingError(err), res.ErrorResponse{Error: err.Error()}, h.log)
		return
	}

	h.log.Infow("Stripe webhook processed",
		"eventID", event.ID,
		"type", event.Type,
		"outcome", result.Outcome,
		"userID", result.UserID,
		"reason", result.Reason,
	)
	res.JSON(c, http.StatusOK, WebhookResponse{
		Received:  true,
		EventType: eventType,
		EventID:   event.ID,
	})
}

// statusForProcessingError некорректное тело события не исправится повтором.
func statusForProcessingError(err error) int {
	if errors.Is(err, domain.ErrInvalidPayload) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
