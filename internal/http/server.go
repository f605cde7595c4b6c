// Package http provides the HTTP API for apptd.
package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/apptd/internal/extraction"
	"github.com/fyrsmithlabs/apptd/internal/pipeline"
)

// Server exposes the appointment pipeline over HTTP.
type Server struct {
	echo     *echo.Echo
	pipeline *pipeline.Pipeline
	svc      extraction.Service
	logger   *zap.Logger
	config   *Config
}

// Config holds HTTP server configuration.
type Config struct {
	Host string
	Port int
}

// NewServer creates a new HTTP server.
func NewServer(p *pipeline.Pipeline, svc extraction.Service, logger *zap.Logger, cfg *Config) (*Server, error) {
	if p == nil {
		return nil, fmt.Errorf("pipeline cannot be nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required for request tracking and debugging")
	}
	if cfg == nil {
		cfg = &Config{
			Host: "localhost",
			Port: 8080,
		}
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			duration := time.Since(start)

			logger.Info("http request",
				zap.String("method", c.Request().Method),
				zap.String("uri", c.Request().RequestURI),
				zap.Int("status", c.Response().Status),
				zap.Duration("duration", duration),
				zap.String("request_id", c.Response().Header().Get(echo.HeaderXRequestID)),
			)

			return err
		}
	})

	s := &Server{
		echo:     e,
		pipeline: p,
		svc:      svc,
		logger:   logger,
		config:   cfg,
	}

	s.registerRoutes()

	return s, nil
}

// UseMetrics attaches the HTTP metrics middleware.
func (s *Server) UseMetrics(m *HTTPMetrics) {
	if m != nil {
		s.echo.Use(m.Middleware())
	}
}

// registerRoutes sets up the HTTP endpoints.
func (s *Server) registerRoutes() {
	s.echo.GET("/health", s.handleHealth)
	s.echo.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	v1 := s.echo.Group("/api/v1/appointments")
	v1.POST("/extract-text", s.handleExtractText)
	v1.POST("/extract-entities", s.handleExtractEntities)
	v1.POST("/normalize", s.handleNormalize)
	v1.POST("/final", s.handleFinal)
}

// handleHealth reports process and extractor health.
func (s *Server) handleHealth(c echo.Context) error {
	available := s.svc != nil && s.svc.Available()
	return c.JSON(http.StatusOK, HealthResponse{Status: "ok", Extractor: available})
}

func (s *Server) handleExtractText(c echo.Context) error {
	desc, err := bindDescriptor(c)
	if err != nil {
		return err
	}

	text, err := s.pipeline.RawText(c.Request().Context(), desc)
	if err != nil {
		s.logger.Error("text extraction aborted", zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "text extraction failed")
	}

	return c.JSON(http.StatusOK, TextResponse{
		RawText:    text.RawText,
		Confidence: text.Confidence,
	})
}

func (s *Server) handleExtractEntities(c echo.Context) error {
	desc, err := bindDescriptor(c)
	if err != nil {
		return err
	}

	ents, err := s.pipeline.Entities(c.Request().Context(), desc)
	if err != nil {
		s.logger.Error("entity extraction aborted", zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "entity extraction failed")
	}

	return c.JSON(http.StatusOK, EntitiesResponse{
		Department: ents.Department,
		DatePhrase: ents.DatePhrase,
		TimePhrase: ents.TimePhrase,
		Notes:      ents.Notes,
		Confidence: ents.Confidence,
	})
}

func (s *Server) handleNormalize(c echo.Context) error {
	desc, err := bindDescriptor(c)
	if err != nil {
		return err
	}

	norm, err := s.pipeline.Normalized(c.Request().Context(), desc)
	if err != nil {
		s.logger.Error("normalization aborted", zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "normalization failed")
	}

	switch n := norm.(type) {
	case pipeline.Resolved:
		return c.JSON(http.StatusOK, NormalizeResponse{
			Status:     "ok",
			Date:       n.Date,
			Time:       n.Time,
			Timezone:   n.Timezone,
			Confidence: n.Confidence,
		})
	case pipeline.Clarification:
		return c.JSON(http.StatusOK, NormalizeResponse{
			Status: "needs_clarification",
			Reason: n.Reason,
		})
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, "unexpected normalization result")
	}
}

func (s *Server) handleFinal(c echo.Context) error {
	desc, err := bindDescriptor(c)
	if err != nil {
		return err
	}

	result, err := s.pipeline.Appointment(c.Request().Context(), desc)
	if err != nil {
		s.logger.Error("appointment assembly aborted", zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "appointment assembly failed")
	}

	switch r := result.(type) {
	case pipeline.Appointment:
		return c.JSON(http.StatusOK, FinalResponse{
			Status: "ok",
			Appointment: &AppointmentBody{
				Department: r.Department,
				Date:       r.Date,
				Time:       r.Time,
				Timezone:   r.Timezone,
			},
		})
	case pipeline.Clarification:
		return c.JSON(http.StatusOK, FinalResponse{
			Status: "needs_clarification",
			Reason: r.Reason,
		})
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, "unexpected pipeline result")
	}
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	s.logger.Info("starting http server", zap.String("addr", addr))
	return s.echo.Start(addr)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down http server")
	return s.echo.Shutdown(ctx)
}
