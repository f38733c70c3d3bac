package http

import (
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	middleware "task-review-system.com/task-review-system/internal/http/middlewares"
)

type RouteOptions struct {
	RateLimitPerMinute int
	Logger             *zap.Logger
	Gatherer           prometheus.Gatherer
}

func Register(e *echo.Echo, h *Handler, opts RouteOptions) {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	// Forwarding headers are client-controlled; trust the socket address
	// unless the caller configured a proxy-aware extractor.
	if e.IPExtractor == nil {
		e.IPExtractor = echo.ExtractIPDirect()
	}

	e.Use(echomw.RequestID())
	e.Use(middleware.RequestLogger(opts.Logger, HeaderUserID))
	e.Use(echomw.Recover())

	e.GET("/healthz", h.Health)
	if opts.Gatherer != nil {
		e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(opts.Gatherer, promhttp.HandlerOpts{})))
	}

	api := e.Group("")
	if opts.RateLimitPerMinute > 0 {
		api.Use(middleware.RateLimiter(opts.RateLimitPerMinute, time.Minute))
	}

	api.GET("/tasks/:id", h.GetTask)
	api.GET("/tasks/:id/events", h.TaskHistory)
	api.GET("/summary", h.Summary)

	admin := api.Group("/admin")
	admin.GET("/tasks", h.ListTasks)
	admin.POST("/tasks", h.CreateTask)
	admin.DELETE("/tasks/:id", h.DeleteTask)

	learner := api.Group("/learner")
	learner.GET("/tasks", h.LearnerTasks)
	learner.POST("/tasks/:id/submit", h.SubmitTask)

	accessor := api.Group("/accessor")
	accessor.GET("/tasks", h.AccessorTasks)
	accessor.GET("/tasks/submitted", h.AccessorPending)
	accessor.POST("/tasks/:id/assess", h.AssessTask)

	iqa := api.Group("/iqa")
	iqa.GET("/tasks", h.IQATasks)
	iqa.GET("/tasks/pending", h.IQAPending)
	iqa.POST("/tasks/:id/review", h.ReviewIQA)

	eqa := api.Group("/eqa")
	eqa.GET("/tasks", h.EQATasks)
	eqa.GET("/tasks/pending", h.EQAPending)
	eqa.POST("/tasks/:id/review", h.ReviewEQA)
	eqa.GET("/audit-report", h.AuditReport)
}
