package httpapi

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/andreasstove999/ecommerce-system/services/catalog-service-go/internal/middleware"
)

type RouterOptions struct {
	Logger *slog.Logger
	// Metrics and MetricsHandler are optional; /metrics is only mounted
	// when MetricsHandler is set.
	Metrics        *middleware.Metrics
	MetricsHandler http.Handler
}

func NewRouter(h *Handler, opts RouterOptions) http.Handler {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.CorrelationID)
	r.Use(middleware.Recover(logger))
	r.Use(middleware.RequestLogger(logger))
	if opts.Metrics != nil {
		r.Use(opts.Metrics.Handler)
	}

	r.Get("/health", h.Health)
	if opts.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", opts.MetricsHandler)
	}

	products := func(r chi.Router) {
		r.Get("/", h.ListProducts)
		r.Post("/", h.CreateProduct)
		r.Get("/export", h.ExportProducts)
		r.Get("/{id}", h.GetProduct)
		r.Put("/{id}", h.UpdateProduct)
		r.Delete("/{id}", h.DeleteProduct)
	}

	r.Route("/api/products", products)

	// paths used by the api gateway
	r.Route("/api/catalog", func(r chi.Router) {
		r.Get("/health", h.Health)
		r.Route("/products", products)
	})

	return r
}
