// Package http exposes the pipeline over a REST API.
package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tupiana/lexipipe/internal/infrastructure/monitoring/logging"
	"github.com/tupiana/lexipipe/internal/infrastructure/monitoring/prometheus"
	"github.com/tupiana/lexipipe/internal/interfaces/http/handlers"
	"github.com/tupiana/lexipipe/internal/interfaces/http/middleware"
)

// RouterConfig aggregates the handlers and cross-cutting dependencies the
// route tree needs.  Nil handlers leave their routes unregistered, so
// partial deployments (worker-only, no graph) still boot.
type RouterConfig struct {
	JobHandler            *handlers.JobHandler
	ClassificationHandler *handlers.ClassificationHandler
	AnnotationHandler     *handlers.AnnotationHandler
	KeynessHandler        *handlers.KeynessHandler
	HealthHandler         *handlers.HealthHandler

	Mode             string
	Logger           logging.Logger
	Metrics          *prometheus.AppMetrics
	MetricsCollector prometheus.MetricsCollector
}

// NewRouter builds the complete route tree.
func NewRouter(cfg RouterConfig) http.Handler {
	if cfg.Mode != "" {
		gin.SetMode(cfg.Mode)
	}
	log := cfg.Logger
	if log == nil {
		log = logging.NewNopLogger()
	}

	r := gin.New()
	r.Use(middleware.RequestID())
	r.Use(middleware.Recovery(log))
	r.Use(middleware.RequestLogging(log, "/healthz", "/readyz", "/metrics"))
	if cfg.Metrics != nil {
		r.Use(middleware.Metrics(cfg.Metrics))
	}

	if cfg.HealthHandler != nil {
		r.GET("/healthz", cfg.HealthHandler.Liveness)
		r.GET("/readyz", cfg.HealthHandler.Readiness)
	}
	if cfg.MetricsCollector != nil {
		r.GET("/metrics", gin.WrapH(cfg.MetricsCollector.Handler()))
	}

	api := r.Group("/api/v1")

	if h := cfg.JobHandler; h != nil {
		api.POST("/jobs", h.Start)
		api.GET("/jobs", h.List)
		api.GET("/jobs/:id", h.Get)
		api.POST("/jobs/:id/cancel", h.Cancel)
		api.POST("/candidates", h.Enqueue)
	}
	if h := cfg.ClassificationHandler; h != nil {
		api.GET("/classifications/:word", h.Lookup)
		api.POST("/classifications", h.Classify)
		api.POST("/propagation", h.Propagate)
		api.POST("/propagation/infer/:word", h.Infer)
	}
	if h := cfg.AnnotationHandler; h != nil {
		api.POST("/annotations", h.Annotate)
	}
	if h := cfg.KeynessHandler; h != nil {
		api.POST("/keyness", h.Extract)
	}

	return r
}
