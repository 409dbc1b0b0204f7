package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/roasbooster/analytics-backend/api/controllers"
	"github.com/roasbooster/analytics-backend/api/middleware"
	"github.com/roasbooster/analytics-backend/pkg/config"
	"github.com/roasbooster/analytics-backend/pkg/logger"
)

// RouterParams collect everything the HTTP surface depends on.
type RouterParams struct {
	Config    *config.Config
	Logger    *logger.Logger
	Reporter  controllers.Reporter
	Summaries controllers.SummaryReader
	Stream    http.Handler
	// Readiness maps a dependency name to its ping check.
	Readiness map[string]controllers.Pinger
}

func NewRouter(params RouterParams) http.Handler {
	cfg := params.Config
	logg := params.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	r.Get("/healthz", controllers.HealthLive(cfg))
	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, params.Readiness))
	})

	r.Route("/api", func(r chi.Router) {
		r.Get("/insights", controllers.Insights(params.Reporter, logg))
		r.Get("/orders-summary", controllers.OrdersSummary(params.Reporter, logg))
		r.Get("/summary", controllers.Summary(params.Summaries, logg))
		r.Get("/dashboard-summary", controllers.DashboardSummary(params.Summaries, logg))
		if params.Stream != nil {
			r.Method(http.MethodGet, "/stream", params.Stream)
		}
	})

	return r
}
