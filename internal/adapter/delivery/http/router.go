// Package http provides the HTTP delivery layer of the URL shortener: the
// JSON API, the short code redirect, terminal views, metrics and API docs.
package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v2"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/vadimbarashkov/snaplink/docs"

	httpSwagger "github.com/swaggo/http-swagger"
)

// ReservedPaths are top-level path segments served by the router itself.
// They can never be used as short codes.
var ReservedPaths = []string{"api", "notfound", "expired", "metrics", "swagger", "docs"}

type routerOptions struct {
	baseURL  string
	registry *prometheus.Registry
}

type RouterOption func(*routerOptions)

// WithBaseURL sets the public address short URLs are built from, e.g. "https://sho.rt".
func WithBaseURL(baseURL string) RouterOption {
	return func(o *routerOptions) {
		o.baseURL = baseURL
	}
}

// WithRegistry sets the registry metrics are registered in and served from.
func WithRegistry(reg *prometheus.Registry) RouterOption {
	return func(o *routerOptions) {
		o.registry = reg
	}
}

// NewRouter initializes a chi router with middleware and routes for the URL shortener.
func NewRouter(logger *httplog.Logger, urlUseCase urlUseCase, opts ...RouterOption) *chi.Mux {
	o := routerOptions{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.registry == nil {
		o.registry = prometheus.NewRegistry()
	}

	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"POST", "GET", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Accept"},
		AllowCredentials: false,
		MaxAge:           84600,
	}))
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(httplog.RequestLogger(logger))
	r.Use(middleware.Recoverer)

	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/docs/swagger.yml"),
	))

	r.Get("/docs/swagger.yml", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/yaml")
		w.Write(docs.Swagger)
	})

	r.Handle("/metrics", promhttp.HandlerFor(o.registry, promhttp.HandlerOpts{}))

	h := newURLHandler(urlUseCase, validator.New(), newMetrics(o.registry), o.baseURL)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/ping", handlePing)
		r.Post("/shorten", h.shortenURLs)

		r.Route("/stats", func(r chi.Router) {
			r.Get("/", h.listURLs)
			r.Get("/{shortCode}", h.getURLStats)
		})
	})

	r.Get(notFoundPath, h.notFound)
	r.Get(expiredPath, h.expired)
	r.Get("/{shortCode}", h.resolveShortCode)

	return r
}
