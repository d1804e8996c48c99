package api

import (
	_ "embed"
	"net/http"

	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"

	_ "trials-map/docs"
	"trials-map/internal/api/handler"
	"trials-map/internal/config"
	"trials-map/pkg/router"
)

//go:embed web/index.html
var indexHTML []byte

// RegisterRoutes installs middleware and every route on r.
func RegisterRoutes(r *router.Router, h *handler.TrialsHandler, cfg config.HTTPConfig) {
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"Content-Disposition", "X-Request-ID"},
		MaxAge:         300,
	}))
	if !cfg.RateLimitDisabled {
		r.Use(httprate.LimitByIP(cfg.RateLimitRequests, cfg.RateLimitWindow))
	}

	r.GET("/", Index)
	r.GET("/health", h.Health)
	r.POST("/search", h.Search)
	r.GET("/download", h.Download)

	r.Handle("/metrics", promhttp.Handler())
	r.GET("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
		httpSwagger.DocExpansion("list"),
	))
}

// Index serves the search page.
func Index(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(indexHTML)
}
