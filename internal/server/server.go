package server

import (
	"context"
	"net/http"
	"time"

	"report_embed/internal/config"
	"report_embed/internal/service"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/sirupsen/logrus"
)

// HTTPServer is the part of Server the application lifecycle needs.
type HTTPServer interface {
	Start(address string) error
	Shutdown(ctx context.Context) error
}

// Server represents the HTTP server
type Server struct {
	echo    *echo.Echo
	service service.EmbedService
	powerBI config.PowerBI
	logger  *logrus.Logger
}

// NewServer creates a new HTTP server
func NewServer(cfg config.Config, embedService service.EmbedService, logger *logrus.Logger) (*Server, error) {
	e := echo.New()
	e.Debug = cfg.IsDevelopment()
	e.HideBanner = true
	e.HidePort = true

	renderer, err := newTemplateRenderer()
	if err != nil {
		return nil, err
	}
	e.Renderer = renderer

	server := &Server{
		echo:    e,
		service: embedService,
		powerBI: cfg.PowerBI,
		logger:  logger,
	}

	// Middleware
	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: uuid.NewString,
	}))
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			entry := logger.WithFields(logrus.Fields{
				"method":     v.Method,
				"uri":        v.URI,
				"status":     v.Status,
				"latency":    v.Latency,
				"request_id": v.RequestID,
			})
			if v.Error != nil {
				entry = entry.WithError(v.Error)
			}
			entry.Info("HTTP request")
			return nil
		},
	}))
	e.Use(middleware.Recover())
	e.Use(middleware.Secure())

	e.HTTPErrorHandler = server.handleError

	server.setupRoutes()
	return server, nil
}

// Start starts the HTTP server
func (s *Server) Start(address string) error {
	s.logger.WithField("address", address).Info("Starting HTTP server")
	return s.echo.Start(address)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down HTTP server")
	return s.echo.Shutdown(ctx)
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// setupRoutes configures the server routes
func (s *Server) setupRoutes() {
	s.echo.GET("/", s.index)
	s.echo.GET("/embed", s.embed)
	s.echo.GET("/error", s.errorPage)
	s.echo.GET("/health", s.healthCheck)
	s.echo.StaticFS("/static", echo.MustSubFS(webFS, "web/static"))

	api := s.echo.Group("/api/v1")
	{
		api.GET("/embed", s.embedInfo)
	}
}

// healthCheck handles health check requests
func (s *Server) healthCheck(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"service":   "report-embed",
	})
}
