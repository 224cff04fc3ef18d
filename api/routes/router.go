package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/OpenAegis/saleor-app-order-hash-generator/api/controllers"
	webhookcontrollers "github.com/OpenAegis/saleor-app-order-hash-generator/api/controllers/webhooks"
	"github.com/OpenAegis/saleor-app-order-hash-generator/api/middleware"
	"github.com/OpenAegis/saleor-app-order-hash-generator/pkg/config"
	"github.com/OpenAegis/saleor-app-order-hash-generator/pkg/logger"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP controllers.Pinger,
	redisP controllers.Pinger,
	issuanceService webhookcontrollers.IssuanceService,
	lookupService controllers.LookupService,
	diagnosticsService controllers.DiagnosticsService,
	metricsRegistry *prometheus.Registry,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisP))
	})

	if metricsRegistry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(metricsRegistry, promhttp.HandlerOpts{}))
	}

	r.Route("/api", func(r chi.Router) {
		r.Get("/manifest", controllers.AppManifest(cfg))

		r.Route("/webhooks", func(r chi.Router) {
			r.Post("/order-created", webhookcontrollers.OrderCreated(issuanceService, logg))
		})

		r.Route("/v1/tokens", func(r chi.Router) {
			r.Get("/{token}", controllers.TokenResolve(lookupService, logg))
			r.Get("/{token}/metadata", controllers.TokenMetadata(lookupService, logg))
		})

		r.Route("/admin/v1", func(r chi.Router) {
			r.Route("/tokens", func(r chi.Router) {
				r.Get("/", controllers.AdminListTokens(diagnosticsService, logg))
				r.Get("/duplicates", controllers.AdminDuplicateReport(diagnosticsService, logg))
				r.Delete("/duplicates", controllers.AdminCleanupDuplicates(diagnosticsService, logg))
			})
			r.Post("/schema/init", controllers.AdminInitSchema(diagnosticsService, logg))
		})
	})

	return r
}
