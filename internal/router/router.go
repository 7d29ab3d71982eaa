package router

import (
	"net/http"

	"order-composer/internal/handler"
	"order-composer/internal/metrics"
	"order-composer/internal/middleware"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
)

// Handlers groups the HTTP handlers mounted under /api.
type Handlers struct {
	Catalog   *handler.CatalogHandler
	Order     *handler.OrderHandler
	OrderItem *handler.OrderItemHandler
}

// Options configures the router's cross-cutting behaviour.
type Options struct {
	APIKey    string
	RateLimit func(http.Handler) http.Handler
	Metrics   *metrics.Metrics
	Gatherer  prometheus.Gatherer
}

// New creates a new HTTP router with all routes and middleware configured.
func New(h Handlers, opts Options, logger zerolog.Logger) http.Handler {
	r := chi.NewRouter()

	// Recovery -> RequestID -> Logging -> CORS, then APIKeyAuth and RateLimit on /api only
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.RequestID)
	r.Use(middleware.Logging(logger, opts.Metrics))
	r.Use(middleware.CORS)

	// Health check endpoint (no authentication required)
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status": "healthy"}`))
	})

	if opts.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", metrics.Handler(opts.Gatherer))
	}

	r.Route("/api", func(api chi.Router) {
		api.Use(middleware.APIKeyAuth(opts.APIKey, logger))
		if opts.RateLimit != nil {
			api.Use(opts.RateLimit)
		}

		api.Post("/orders", h.Order.Provision)
		api.Route("/orders/{orderID}", func(order chi.Router) {
			order.Get("/", h.Order.GetSummary)
			order.Get("/activation", h.Order.CanActivate)
			order.Post("/activate", h.Order.Activate)
			order.Get("/products", h.Catalog.Search)
			order.Post("/items", h.OrderItem.Add)
			order.Get("/items", h.OrderItem.List)
		})

		api.Patch("/order-items", h.OrderItem.Update)
		api.Delete("/order-items", h.OrderItem.Delete)
	})

	return r
}
