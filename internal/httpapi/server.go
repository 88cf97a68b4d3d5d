// Package httpapi exposes the single-draft workflow over HTTP.
package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/outreachkit/outreach-agent-pipeline/pkg/agent"
	"github.com/outreachkit/outreach-agent-pipeline/pkg/redact"
)

// DraftRunner runs one contact's workflow. Implemented by the app; stubbed
// in tests.
type DraftRunner interface {
	Draft(ctx context.Context, contact agent.Contact, sender *agent.Sender) (*agent.WorkflowState, error)
}

// Config holds HTTP server configuration.
type Config struct {
	Host string
	Port int
}

// Server serves the draft endpoint.
type Server struct {
	echo   *echo.Echo
	runner DraftRunner
	logger *zap.Logger
	config Config
}

// NewServer creates the HTTP server.
func NewServer(runner DraftRunner, logger *zap.Logger, cfg Config) (*Server, error) {
	if runner == nil {
		return nil, fmt.Errorf("runner is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Host == "" {
		cfg.Host = "localhost"
	}
	if cfg.Port == 0 {
		cfg.Port = 8080
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
			logger.Info("http request",
				zap.String("method", c.Request().Method),
				zap.String("uri", c.Request().RequestURI),
				zap.Int("status", c.Response().Status),
				zap.Duration("duration", time.Since(start)),
				zap.String("request_id", c.Response().Header().Get(echo.HeaderXRequestID)),
			)
			return err
		}
	})

	s := &Server{echo: e, runner: runner, logger: logger, config: cfg}
	s.registerRoutes()
	return s, nil
}

func (s *Server) registerRoutes() {
	s.echo.GET("/health", s.handleHealth)
	v1 := s.echo.Group("/api/v1")
	v1.POST("/draft", s.handleDraft)
}

// SenderInfo is the sender profile portion of a draft request.
type SenderInfo struct {
	Name               string   `json:"name"`
	Resume             string   `json:"resume"`
	CareerInterest     string   `json:"career_interest"`
	KeyAccomplishments []string `json:"key_accomplishments"`
}

// ContactInfo is the contact portion of a draft request.
type ContactInfo struct {
	FullName      string `json:"full_name"`
	JobTitle      string `json:"job_title"`
	Location      string `json:"location"`
	CompanyName   string `json:"company_name"`
	CompanyDomain string `json:"company_domain"`
	LinkedIn      string `json:"linkedin"`
	WorkEmail     string `json:"work_email"`
}

// DraftRequest is the request body for POST /api/v1/draft.
type DraftRequest struct {
	SenderInfo  SenderInfo  `json:"sender_info"`
	ContactInfo ContactInfo `json:"contact_info"`
}

// DraftResponse is the response body for a successful draft.
type DraftResponse struct {
	EmailDraft       string `json:"email_draft"`
	DraftIterations  int    `json:"draft_iterations"`
	SearchIterations int    `json:"search_iterations"`
	BudgetExhausted  bool   `json:"budget_exhausted"`
}

// HealthResponse is the response body for GET /health.
type HealthResponse struct {
	Status string `json:"status"`
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, HealthResponse{Status: "ok"})
}

func (s *Server) handleDraft(c echo.Context) error {
	var req DraftRequest
	if err := c.Bind(&req); err != nil {
		s.logger.Warn("invalid draft request", zap.Error(err))
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	contact := agent.Contact{
		FullName:      req.ContactInfo.FullName,
		JobTitle:      req.ContactInfo.JobTitle,
		Location:      req.ContactInfo.Location,
		CompanyName:   req.ContactInfo.CompanyName,
		CompanyDomain: req.ContactInfo.CompanyDomain,
		LinkedIn:      req.ContactInfo.LinkedIn,
		WorkEmail:     req.ContactInfo.WorkEmail,
	}
	sender := agent.NewSender(
		req.SenderInfo.Name,
		req.SenderInfo.Resume,
		req.SenderInfo.CareerInterest,
		req.SenderInfo.KeyAccomplishments,
	)

	state, err := s.runner.Draft(c.Request().Context(), contact, sender)
	if err != nil {
		var ve *agent.ValidationError
		if errors.As(err, &ve) {
			return echo.NewHTTPError(http.StatusUnprocessableEntity, ve.Error())
		}
		s.logger.Error("draft workflow failed",
			zap.String("contact", contact.Identity()),
			zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, redact.Secrets(err.Error()))
	}

	return c.JSON(http.StatusOK, DraftResponse{
		EmailDraft:       state.Draft,
		DraftIterations:  state.DraftIteration,
		SearchIterations: state.SearchIteration,
		BudgetExhausted:  state.BudgetExhausted,
	})
}

// Start begins serving. It blocks until the server stops.
func (s *Server) Start() error {
	return s.echo.Start(fmt.Sprintf("%s:%d", s.config.Host, s.config.Port))
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

// Handler exposes the underlying handler for tests.
func (s *Server) Handler() http.Handler {
	return s.echo
}
