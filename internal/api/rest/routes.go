package rest

import (
	"github.com/Dhoini/coach-billing/internal/api/rest/handlers"
	"github.com/Dhoini/coach-billing/internal/api/rest/middleware"
	"github.com/Dhoini/coach-billing/internal/config"
	"github.com/Dhoini/coach-billing/pkg/logger"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RouterDeps обработчики и зависимости маршрутизатора
type RouterDeps struct {
	Config   *config.Config
	Registry *prometheus.Registry
	Auth     *middleware.JWTMiddleware
	Webhook  *handlers.WebhookHandler
	Access   *handlers.AccessHandler
	Settings *handlers.SettingsHandler
	Health   map[string]handlers.Pinger
}

// SetupRouter настраивает маршрутизатор Gin с маршрутами и middleware
func SetupRouter(deps RouterDeps, log *logger.Logger) *gin.Engine {
	if deps.Config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()

	r.Use(middleware.LoggerMiddleware(log))
	r.Use(gin.Recovery())

	r.GET("/health", handlers.HealthCheck(deps.Health))
	if deps.Registry != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{})))
	}

	// Вебхуки принимают любой метод: 405 отдает сам обработчик
	webhooks := r.Group("/webhooks", middleware.CORS(deps.Config.App.AllowedOrigin))
	{
		webhooks.Any("/stripe", deps.Webhook.HandleStripeWebhook)
	}

	v1 := r.Group("/api/v1", middleware.CORS(deps.Config.App.AllowedOrigin), deps.Auth.RequireAuth())
	{
		v1.GET("/access", deps.Access.GetAccess)
		v1.POST("/subscription/trial", deps.Access.StartTrial)

		admin := v1.Group("/admin", deps.Auth.RequireSuperAdmin())
		{
			admin.GET("/settings", deps.Settings.GetSettings)
			admin.PUT("/settings", deps.Settings.UpdateSettings)
		}
	}
	return r
}
