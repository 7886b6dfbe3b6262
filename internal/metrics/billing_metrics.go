package metrics

import (
	"strconv"
	"time"

	"github.com/Dhoini/coach-billing/pkg/logger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// BillingMetrics интерфейс для метрик вебхуков, сверки и проверок доступа
type BillingMetrics interface {
	ObserveWebhook(eventType string, status int, duration time.Duration)
	IncReconcile(eventType, outcome string)
	IncGuardDecision(decision string)
}

type billingMetrics struct {
	log             *logger.Logger
	webhookRequests *prometheus.CounterVec
	webhookDuration *prometheus.HistogramVec
	reconcile       *prometheus.CounterVec
	guardDecisions  *prometheus.CounterVec
}

// NewBillingMetrics создает новые метрики биллинга
func NewBillingMetrics(registry *prometheus.Registry, log *logger.Logger) BillingMetrics {
	webhookRequests := promauto.With(registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "stripe_webhook_requests_total",
			Help: "Stripe webhook requests by event type and HTTP status",
		},
		[]string{"event_type", "status"},
	)

	webhookDuration := promauto.With(registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "stripe_webhook_duration_seconds",
			Help:    "Stripe webhook processing latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"event_type"},
	)

	reconcile := promauto.With(registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "subscription_reconcile_total",
			Help: "Subscription reconciliation results by event type and outcome",
		},
		[]string{"event_type", "outcome"},
	)

	guardDecisions := promauto.With(registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "access_guard_decisions_total",
			Help: "Access guard evaluations by decision branch",
		},
		[]string{"decision"},
	)

	return &billingMetrics{
		log:             log,
		webhookRequests: webhookRequests,
		webhookDuration: webhookDuration,
		reconcile:       reconcile,
		guardDecisions:  guardDecisions,
	}
}

// ObserveWebhook учитывает запрос вебхука
func (m *billingMetrics) ObserveWebhook(eventType string, status int, duration time.Duration) {
	m.webhookRequests.WithLabelValues(eventType, strconv.Itoa(status)).Inc()
	m.webhookDuration.WithLabelValues(eventType).Observe(duration.Seconds())
}

// IncReconcile увеличивает счетчик результатов сверки
func (m *billingMetrics) IncReconcile(eventType, outcome string) {
	m.reconcile.WithLabelValues(eventType, outcome).Inc()
	if outcome == "degraded" {
		m.log.Debugw("Degraded reconcile recorded", "event_type", eventType)
	}
}

// IncGuardDecision увеличивает счетчик решений проверки доступа
func (m *billingMetrics) IncGuardDecision(decision string) {
	m.guardDecisions.WithLabelValues(decision).Inc()
}

// NoopMetrics метрики-заглушка для тестов и CLI
type NoopMetrics struct{}

func (NoopMetrics) ObserveWebhook(string, int, time.Duration) {}
func (NoopMetrics) IncReconcile(string, string)               {}
func (NoopMetrics) IncGuardDecision(string)                   {}
