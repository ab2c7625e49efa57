// Package http provides the HTTP adapter for the application layer.
// It translates HTTP requests to service and engine calls.
package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/garyjia/lotflow/internal/application/service"
	"github.com/garyjia/lotflow/internal/domain/workflow"
)

// Logger interface for logging operations
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host          string
	Port          int
	ReadTimeout   time.Duration
	WriteTimeout  time.Duration
	EnableMetrics bool
	MetricsPath   string
}

// DefaultServerConfig returns default server configuration
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Host:          "0.0.0.0",
		Port:          8080,
		ReadTimeout:   30 * time.Second,
		WriteTimeout:  30 * time.Second,
		EnableMetrics: true,
		MetricsPath:   "/metrics",
	}
}

// Services groups the application services the handlers call
type Services struct {
	Lots          service.LotService
	Evidence      service.EvidenceService
	Requests      service.RequestService
	Notifications service.NotificationService
	Export        service.ExportService
}

// Engines groups the workflow engines served by the workflow endpoints
type Engines struct {
	CMLot   *workflow.Engine[workflow.CMLotStatus]
	PackLot *workflow.Engine[workflow.PackLotStatus]
	Request *workflow.Engine[workflow.RequestStatus]
}

// Server is the HTTP server adapter
type Server struct {
	config     ServerConfig
	httpServer *http.Server
	router     *gin.Engine
	handlers   *Handlers
	logger     Logger
}

// NewServer creates a new HTTP server with the given services
func NewServer(config ServerConfig, services Services, engines Engines, logger Logger) *Server {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	server := &Server{
		config:   config,
		router:   router,
		handlers: NewHandlers(services, engines, logger),
		logger:   logger,
	}

	server.setupMiddleware()
	server.setupRoutes()

	return server
}

// setupMiddleware configures middleware for the router
func (s *Server) setupMiddleware() {
	s.router.Use(gin.Recovery())
	s.router.Use(requestIDMiddleware())
	s.router.Use(s.loggingMiddleware())
	s.router.Use(corsMiddleware())
}

// corsMiddleware adds CORS headers
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Actor, X-Request-ID")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// requestIDMiddleware propagates X-Request-ID, generating one when absent
func requestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(headerRequestID)
		if id == "" {
			id = uuid.New().String()
		}
		c.Set(headerRequestID, id)
		c.Header(headerRequestID, id)
		c.Next()
	}
}

const headerRequestID = "X-Request-ID"

// loggingMiddleware creates a logging middleware
func (s *Server) loggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		method := c.Request.Method

		c.Next()

		s.logger.Info("HTTP request",
			"method", method,
			"path", path,
			"status", c.Writer.Status(),
			"latency", time.Since(start).String(),
			"client_ip", c.ClientIP(),
			"request_id", c.GetString(headerRequestID),
		)
	}
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() {
	h := s.handlers

	s.router.GET("/health", h.HealthCheck)
	if s.config.EnableMetrics {
		path := s.config.MetricsPath
		if path == "" {
			path = "/metrics"
		}
		s.router.GET(path, gin.WrapH(promhttp.Handler()))
	}

	api := s.router.Group("/api/v1")
	{
		wf := api.Group("/workflow/:entity")
		wf.GET("/statuses", h.ListStatuses)
		wf.POST("/validate", h.ValidateTransition)

		cm := api.Group("/cm-lots")
		cm.POST("", h.CreateCMLot)
		cm.GET("", h.ListCMLots)
		cm.GET("/export", h.ExportCMLots)
		cm.GET("/:id", h.GetCMLot)
		cm.GET("/:id/transitions", h.CMLotTransitions)
		cm.POST("/:id/transitions", h.TransitionCMLot)
		cm.GET("/:id/history", h.CMLotHistory)
		cm.GET("/:id/evidence", h.EvidenceSummary)
		cm.POST("/:id/collections", h.RecordCollection)
		cm.POST("/:id/processing-steps", h.RecordProcessingStep)
		cm.POST("/:id/qc-requirements", h.RequireQCTest)
		cm.POST("/:id/qc-results", h.RecordQCResult)
		cm.POST("/:id/qa-decision", h.RecordQADecision)

		pack := api.Group("/pack-lots")
		pack.POST("", h.CreatePackLot)
		pack.GET("", h.ListPackLots)
		pack.GET("/export", h.ExportPackLots)
		pack.GET("/:id", h.GetPackLot)
		pack.GET("/:id/transitions", h.PackLotTransitions)
		pack.POST("/:id/transitions", h.TransitionPackLot)
		pack.GET("/:id/history", h.PackLotHistory)

		req := api.Group("/requests")
		req.POST("", h.CreateRequest)
		req.GET("", h.ListRequests)
		req.GET("/:id", h.GetRequest)
		req.GET("/:id/transitions", h.RequestTransitions)
		req.POST("/:id/transitions", h.TransitionRequest)
		req.GET("/:id/history", h.RequestHistory)

		api.GET("/notifications", h.ListNotifications)
		api.POST("/notifications/:id/read", h.MarkNotificationRead)

		api.GET("/exports/:entity", h.ListArchivedExports)
		api.GET("/exports/:entity/:filename", h.DownloadArchivedExport)
	}
}

// Start starts the HTTP server
func (s *Server) Start(ctx context.Context) error {
	addr := s.Address()

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
	}

	s.logger.Info("Starting HTTP server", "address", addr)

	errCh := make(chan error, 1)
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("HTTP server shutdown requested")
		return s.Stop()
	case err := <-errCh:
		s.logger.Error("HTTP server error", "error", err)
		return err
	}
}

// Stop gracefully stops the HTTP server
func (s *Server) Stop() error {
	if s.httpServer == nil {
		return nil
	}

	s.logger.Info("Stopping HTTP server")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		s.logger.Error("HTTP server shutdown error", "error", err)
		return err
	}

	s.logger.Info("HTTP server stopped")
	return nil
}

// Router returns the underlying gin router (for testing)
func (s *Server) Router() *gin.Engine {
	return s.router
}

// Address returns the server address
func (s *Server) Address() string {
	return fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
}
