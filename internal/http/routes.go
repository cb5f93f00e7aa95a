package http

import (
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	middleware "assignmint.com/assignmint/internal/http/middlewares"
	"assignmint.com/assignmint/internal/ratelimit"
)

type RouteOptions struct {
	Limiter   ratelimit.Limiter
	JWTSecret []byte
	Logger    *zap.Logger
}

func Register(e *echo.Echo, h *Handler, opts RouteOptions) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	e.HTTPErrorHandler = ErrorHandler(logger)
	e.Use(middleware.RequestLogger(logger))
	if opts.Limiter != nil {
		e.Use(middleware.RateLimiter(opts.Limiter, logger))
	}
	e.Use(middleware.Authenticate(opts.JWTSecret))

	e.GET("/healthz", h.Health)

	e.POST("/tasks", h.CreateTask)
	e.GET("/tasks/available", h.ListAvailable)
	e.GET("/tasks/available/stream", h.StreamAvailable)
	e.GET("/tasks/:id", h.GetTask)
	e.POST("/tasks/:id/views", h.RecordView)
	e.POST("/tasks/:id/accept", h.AcceptTask)
	e.POST("/tasks/:id/delivery", h.SubmitDelivery)
	e.POST("/tasks/:id/actions", h.ApplyAction)
	e.GET("/tasks/:id/notifications", h.TaskNotifications)

	e.GET("/me/tasks", h.MyTasks)
	e.GET("/me/stats", h.MyStats)

	e.GET("/notifications", h.ListNotifications)
	e.POST("/notifications/:id/read", h.MarkNotificationRead)
}
