package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/staprolab/interpret-server/internal/domain"
	"github.com/staprolab/interpret-server/internal/middleware"
	"github.com/staprolab/interpret-server/internal/service"
)

// Server is the HTTP boundary toward the lab information system. It does
// thin request/response marshaling; everything else lives in the pipeline.
type Server struct {
	config      *domain.Config
	interpreter *service.Interpreter
	logger      *logrus.Logger
	router      *gin.Engine
	server      *http.Server
}

// NewServer creates a new HTTP server instance
func NewServer(config *domain.Config, interpreter *service.Interpreter, logger *logrus.Logger) *Server {
	if config.Logging.Level == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(middleware.AuditLogger())
	router.Use(middleware.SecurityHeaders())
	router.Use(middleware.CorrelationID())
	router.Use(middleware.RateLimit(config.Server.RateLimit, config.Server.RateBurst))
	router.Use(middleware.RequestTimeout(config.Server.RequestTimeout))

	s := &Server{
		config:      config,
		interpreter: interpreter,
		logger:      logger,
		router:      router,
	}

	s.setupRoutes()
	return s
}

// Router exposes the gin engine for tests.
func (s *Server) Router() *gin.Engine {
	return s.router
}

// Start starts the HTTP server and blocks until ctx is cancelled, then
// shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	cfg := s.config.Server
	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)

	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	return s.server.Shutdown(shutdownCtx)
}

// setupRoutes configures the API routes
func (s *Server) setupRoutes() {
	s.router.GET("/health", s.handleHealth)
	s.router.POST("/interpret", s.handleInterpret)
}

// handleHealth handles health check requests
func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"message": "lab interpretation service is running",
	})
}

// handleInterpret runs the interpretation pipeline on the request body.
func (s *Server) handleInterpret(c *gin.Context) {
	raw, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, domain.InterpretResponse{
			Error:  domain.ErrMalformedInput,
			Detail: "failed to read request body",
		})
		return
	}

	requestID := peekRequestID(raw)

	text, err := s.interpreter.Interpret(c.Request.Context(), raw)
	if err != nil {
		pe := domain.AsPipelineError(err)
		s.logger.WithFields(logrus.Fields{
			"request_id":     requestID,
			"correlation_id": c.GetString("correlation_id"),
			"kind":           pe.Kind,
		}).Warn("Interpretation request failed")

		c.JSON(pe.StatusCode, domain.InterpretResponse{
			RequestID: requestID,
			Error:     pe.Kind,
			Detail:    pe.Message,
		})
		return
	}

	c.JSON(http.StatusOK, domain.InterpretResponse{
		RequestID:          requestID,
		InterpretationText: text,
	})
}
