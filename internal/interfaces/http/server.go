// Package http provides the HTTP adapter for the approval engine.
// It translates requests into application service calls and nothing more.
package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/garyjia/legal-approval/internal/application/service"
	"github.com/garyjia/legal-approval/internal/application/workflow"
	"github.com/garyjia/legal-approval/internal/container"
)

const requestIDHeader = "X-Request-ID"

// Logger interface for logging operations
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

// HealthReporter reports component health for /health
type HealthReporter interface {
	Health() *container.HealthStatus
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host           string
	Port           int
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	AllowedOrigins []string
}

// DefaultServerConfig returns default server configuration
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Host:         "0.0.0.0",
		Port:         8080,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
}

// Dependencies are the application services the handlers call
type Dependencies struct {
	Submissions service.SubmissionService
	Register    service.RegisterService
	Engine      workflow.WorkflowEngine
	Directory   []container.DirectoryEntry
	Health      HealthReporter
}

// Server is the HTTP server adapter
type Server struct {
	config     ServerConfig
	httpServer *http.Server
	router     *gin.Engine
	deps       Dependencies
	logger     Logger
}

// NewServer creates a new HTTP server with the given services
func NewServer(config ServerConfig, deps Dependencies, logger Logger) *Server {
	gin.SetMode(gin.ReleaseMode)

	server := &Server{
		config: config,
		router: gin.New(),
		deps:   deps,
		logger: logger,
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

	corsConfig := cors.DefaultConfig()
	if len(s.config.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = s.config.AllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Accept", requestIDHeader}
	corsConfig.ExposeHeaders = []string{requestIDHeader, "Content-Disposition"}
	s.router.Use(cors.New(corsConfig))
}

// requestIDMiddleware propagates or assigns a request id
func requestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set("request_id", id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}

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
			"request_id", c.GetString("request_id"),
		)
	}
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() {
	h := NewHandlers(s.deps, s.logger)

	s.router.GET("/health", h.HealthCheck)

	api := s.router.Group("/api")
	{
		api.GET("/forms", h.ListForms)
		api.GET("/directory", h.ListDirectory)

		api.GET("/submissions", h.ListSubmissions)
		api.POST("/submissions", h.CreateSubmission)
		api.GET("/submissions/:id", h.GetSubmission)
		api.POST("/submissions/:id/submit", h.SubmitSubmission)
		api.POST("/submissions/:id/resubmit", h.ResubmitSubmission)
		api.POST("/submissions/:id/decisions", h.ApplyDecision)
		api.GET("/submissions/:id/events", h.ListEvents)

		api.GET("/submissions/:id/comments", h.ListComments)
		api.POST("/submissions/:id/comments", h.AddComment)

		api.GET("/submissions/:id/documents", h.ListDocuments)
		api.POST("/submissions/:id/documents", h.RegisterDocument)
		api.POST("/submissions/:id/documents/:docId/uploaded", h.MarkDocumentUploaded)

		api.GET("/reports/register.xlsx", h.ExportRegister)
	}
}

// Start runs the server until ctx is cancelled
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
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
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
