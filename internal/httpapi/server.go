// Package httpapi provides the HTTP API for packeval.
package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/packeval/internal/evaluation"
	"github.com/fyrsmithlabs/packeval/internal/knowledge"
	"github.com/fyrsmithlabs/packeval/internal/session"
)

// Sessions is the slice of the session service the API needs.
type Sessions interface {
	Start(ctx context.Context, concept string, images []string) (*session.Session, error)
	Resume(ctx context.Context, id string, feedback *evaluation.UserFeedback) (*session.Session, error)
	Retry(ctx context.Context, id string) (*session.Session, error)
	Get(ctx context.Context, id string) (*session.Session, error)
}

// Knowledge is the slice of the knowledge service the API needs.
type Knowledge interface {
	AddMachine(ctx context.Context, m knowledge.MachineSpec) (*knowledge.Entry, error)
	AddMaterial(ctx context.Context, m knowledge.MaterialSpec) (*knowledge.Entry, error)
	AddProcess(ctx context.Context, p knowledge.ProcessSpec) (*knowledge.Entry, error)
	AddDocument(ctx context.Context, doc knowledge.Document) ([]knowledge.Entry, error)
	Search(ctx context.Context, query string, k int) ([]knowledge.Entry, error)
}

// Config holds HTTP server configuration.
type Config struct {
	Host string
	Port int
}

// Server provides HTTP endpoints for packeval.
type Server struct {
	echo      *echo.Echo
	sessions  Sessions
	knowledge Knowledge
	logger    *zap.Logger
	config    *Config
}

// NewServer creates a new HTTP server.
func NewServer(sessions Sessions, kb Knowledge, logger *zap.Logger, cfg *Config) (*Server, error) {
	if sessions == nil {
		return nil, fmt.Errorf("session service cannot be nil")
	}
	if kb == nil {
		return nil, fmt.Errorf("knowledge service cannot be nil")
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

	// Middleware
	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(NewHTTPMetrics(logger).MetricsMiddleware())
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
		echo:      e,
		sessions:  sessions,
		knowledge: kb,
		logger:    logger,
		config:    cfg,
	}

	s.registerRoutes()

	return s, nil
}

// registerRoutes sets up the HTTP endpoints.
func (s *Server) registerRoutes() {
	s.echo.GET("/health", s.handleHealth)
	s.echo.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	v1 := s.echo.Group("/api/v1")
	v1.POST("/evaluations", s.handleStartEvaluation)
	v1.POST("/evaluations/:id/feedback", s.handleFeedback)
	v1.POST("/evaluations/:id/retry", s.handleRetry)
	v1.GET("/evaluations/:id", s.handleGetEvaluation)
	v1.POST("/knowledge", s.handleIngestKnowledge)
	v1.GET("/knowledge/search", s.handleSearchKnowledge)
}

// EvaluationRequest is the request body for POST /api/v1/evaluations.
type EvaluationRequest struct {
	Concept string   `json:"concept"`
	Images  []string `json:"images,omitempty"`
}

// FeedbackRequest is the request body for POST /api/v1/evaluations/:id/feedback.
type FeedbackRequest struct {
	IsCorrect        bool     `json:"is_correct"`
	Notes            []string `json:"notes,omitempty"`
	SuggestedChanges []string `json:"suggested_changes,omitempty"`
}

// IngestRequest is the request body for POST /api/v1/knowledge. Type selects
// which payload is read.
type IngestRequest struct {
	Type     knowledge.EntryType    `json:"type"`
	Machine  *knowledge.MachineSpec `json:"machine,omitempty"`
	Material *knowledge.MaterialSpec `json:"material,omitempty"`
	Process  *knowledge.ProcessSpec `json:"process,omitempty"`
	Document *knowledge.Document    `json:"document,omitempty"`
}

// IngestResponse is the response body for POST /api/v1/knowledge.
type IngestResponse struct {
	Entries []knowledge.Entry `json:"entries"`
}

// SearchResponse is the response body for GET /api/v1/knowledge/search.
type SearchResponse struct {
	Query   string            `json:"query"`
	Entries []knowledge.Entry `json:"entries"`
}

// HealthResponse is the response body for GET /health.
type HealthResponse struct {
	Status string `json:"status"`
}

// handleHealth returns a simple health check response.
func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, HealthResponse{Status: "ok"})
}

// handleStartEvaluation starts a new evaluation session.
func (s *Server) handleStartEvaluation(c echo.Context) error {
	var req EvaluationRequest
	if err := c.Bind(&req); err != nil {
		s.logger.Warn("invalid evaluation request", zap.Error(err))
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.Concept == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "concept field is required")
	}

	sess, err := s.sessions.Start(c.Request().Context(), req.Concept, req.Images)
	return s.respondSession(c, http.StatusCreated, sess, err)
}

// handleFeedback submits feedback to a parked session and resumes it.
func (s *Server) handleFeedback(c echo.Context) error {
	var req FeedbackRequest
	if err := c.Bind(&req); err != nil {
		s.logger.Warn("invalid feedback request", zap.Error(err))
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	feedback := &evaluation.UserFeedback{
		IsCorrect:        req.IsCorrect,
		Notes:            req.Notes,
		SuggestedChanges: req.SuggestedChanges,
	}
	sess, err := s.sessions.Resume(c.Request().Context(), c.Param("id"), feedback)
	return s.respondSession(c, http.StatusOK, sess, err)
}

// handleRetry re-runs a stalled session from its checkpoint.
func (s *Server) handleRetry(c echo.Context) error {
	sess, err := s.sessions.Retry(c.Request().Context(), c.Param("id"))
	return s.respondSession(c, http.StatusOK, sess, err)
}

// handleGetEvaluation fetches a session snapshot.
func (s *Server) handleGetEvaluation(c echo.Context) error {
	sess, err := s.sessions.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return s.sessionError(err)
	}
	return c.JSON(http.StatusOK, sess)
}

// handleIngestKnowledge ingests one knowledge entry or document.
func (s *Server) handleIngestKnowledge(c echo.Context) error {
	var req IngestRequest
	if err := c.Bind(&req); err != nil {
		s.logger.Warn("invalid knowledge request", zap.Error(err))
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	ctx := c.Request().Context()
	var (
		entries []knowledge.Entry
		err     error
	)
	switch req.Type {
	case knowledge.EntryMachine:
		if req.Machine == nil {
			return echo.NewHTTPError(http.StatusBadRequest, "machine payload is required")
		}
		var entry *knowledge.Entry
		entry, err = s.knowledge.AddMachine(ctx, *req.Machine)
		if entry != nil {
			entries = []knowledge.Entry{*entry}
		}
	case knowledge.EntryMaterial:
		if req.Material == nil {
			return echo.NewHTTPError(http.StatusBadRequest, "material payload is required")
		}
		var entry *knowledge.Entry
		entry, err = s.knowledge.AddMaterial(ctx, *req.Material)
		if entry != nil {
			entries = []knowledge.Entry{*entry}
		}
	case knowledge.EntryProcess:
		if req.Process == nil {
			return echo.NewHTTPError(http.StatusBadRequest, "process payload is required")
		}
		var entry *knowledge.Entry
		entry, err = s.knowledge.AddProcess(ctx, *req.Process)
		if entry != nil {
			entries = []knowledge.Entry{*entry}
		}
	case knowledge.EntryDocument:
		if req.Document == nil {
			return echo.NewHTTPError(http.StatusBadRequest, "document payload is required")
		}
		entries, err = s.knowledge.AddDocument(ctx, *req.Document)
	default:
		return echo.NewHTTPError(http.StatusBadRequest,
			fmt.Sprintf("unknown entry type %q", req.Type))
	}

	if err != nil {
		if errors.Is(err, knowledge.ErrEmptyContent) {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		s.logger.Error("knowledge ingestion failed", zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "knowledge ingestion failed")
	}

	return c.JSON(http.StatusCreated, IngestResponse{Entries: entries})
}

// handleSearchKnowledge runs a similarity search over the knowledge base.
func (s *Server) handleSearchKnowledge(c echo.Context) error {
	query := c.QueryParam("q")
	if query == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "q query parameter is required")
	}

	k := 0
	if raw := c.QueryParam("k"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			return echo.NewHTTPError(http.StatusBadRequest, "k must be a positive integer")
		}
		k = parsed
	}

	entries, err := s.knowledge.Search(c.Request().Context(), query, k)
	if err != nil {
		s.logger.Error("knowledge search failed", zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "knowledge search failed")
	}

	return c.JSON(http.StatusOK, SearchResponse{Query: query, Entries: entries})
}

// respondSession maps a session-service outcome to an HTTP response. A
// stalled or failed session still returns its snapshot so the caller can
// inspect the checkpoint.
func (s *Server) respondSession(c echo.Context, okStatus int, sess *session.Session, err error) error {
	if err == nil {
		return c.JSON(okStatus, sess)
	}
	if sess != nil {
		status := http.StatusInternalServerError
		if evaluation.Resumable(err) {
			status = http.StatusBadGateway
		}
		s.logger.Error("evaluation stopped",
			zap.String("session_id", sess.ID),
			zap.Error(err),
		)
		return c.JSON(status, sess)
	}
	return s.sessionError(err)
}

// sessionError maps session-service errors to HTTP errors.
func (s *Server) sessionError(err error) error {
	switch {
	case errors.Is(err, session.ErrSessionNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, session.ErrNotAwaitingFeedback),
		errors.Is(err, session.ErrSessionBusy),
		errors.Is(err, session.ErrSessionFailed):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	default:
		s.logger.Error("session operation failed", zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
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
