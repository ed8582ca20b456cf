package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/WenyeZhou51/rcssa-match-backend/internal/matching/service"
	"github.com/WenyeZhou51/rcssa-match-backend/internal/platform/metrics"
	"github.com/WenyeZhou51/rcssa-match-backend/internal/platform/middleware"
	"github.com/WenyeZhou51/rcssa-match-backend/internal/registrant/models"
	id "github.com/WenyeZhou51/rcssa-match-backend/pkg/domain"
	dErrors "github.com/WenyeZhou51/rcssa-match-backend/pkg/domain-errors"
	"github.com/WenyeZhou51/rcssa-match-backend/pkg/platform/httputil"
)

// Service defines the matching engine operations the handlers invoke.
type Service interface {
	RegisterAndMatch(ctx context.Context, params models.NewRegistrantParams) (*service.MatchResult, error)
	QueryMatch(ctx context.Context, registrantID id.RegistrantID) (*service.MatchStatus, error)
	DeleteRegistrant(ctx context.Context, registrantID id.RegistrantID) error
}

// Handler exposes the matching engine over HTTP.
type Handler struct {
	logger   *slog.Logger
	matching Service
	metrics  *metrics.Metrics
}

// New creates a matching Handler.
func New(matching Service, logger *slog.Logger, m *metrics.Metrics) *Handler {
	return &Handler{logger: logger, matching: matching, metrics: m}
}

// Register mounts the public API routes with the standard middleware chain.
func (h *Handler) Register(r chi.Router) {
	r.Group(func(api chi.Router) {
		api.Use(middleware.Recovery(h.logger))
		api.Use(middleware.RequestID)
		api.Use(middleware.Logger(h.logger))
		api.Use(middleware.Timeout(10 * time.Second))
		api.Use(middleware.ContentTypeJSON)
		api.Use(middleware.LatencyMiddleware(h.metrics))
		api.Post("/api/users", h.handleRegister)
		api.Get("/api/users/{id}/match", h.handleQueryMatch)
	})
}

// RegisterAdmin mounts the administrative routes behind the admin token.
func (h *Handler) RegisterAdmin(r chi.Router, adminTokenHash string) {
	r.Route("/admin", func(admin chi.Router) {
		admin.Use(middleware.Recovery(h.logger))
		admin.Use(middleware.RequestID)
		admin.Use(middleware.Logger(h.logger))
		admin.Use(middleware.RequireAdminToken(adminTokenHash, h.logger))
		admin.Delete("/registrants/{id}", h.handleDelete)
	})
}

type registerRequest struct {
	Name           string `json:"name"`
	Email          string `json:"email"`
	NetID          string `json:"netId"`
	Major          string `json:"major"`
	GraduationYear int    `json:"graduationYear"`
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.WarnContext(ctx, "invalid registration body",
			"request_id", middleware.GetRequestID(ctx),
			"error", err.Error(),
		)
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	result, err := h.matching.RegisterAndMatch(ctx, models.NewRegistrantParams{
		Name:           req.Name,
		Email:          req.Email,
		NetID:          req.NetID,
		Major:          req.Major,
		GraduationYear: req.GraduationYear,
	})
	if err != nil {
		h.writeServiceError(w, r, "register and match", err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, result)
}

func (h *Handler) handleQueryMatch(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	// An unparseable id cannot reference a registrant, so it reads as absent
	// rather than malformed.
	registrantID, err := id.ParseRegistrantID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeNotFound, "registrant not found"))
		return
	}

	status, err := h.matching.QueryMatch(ctx, registrantID)
	if err != nil {
		h.writeServiceError(w, r, "query match", err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, status)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	registrantID, err := id.ParseRegistrantID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeNotFound, "registrant not found"))
		return
	}

	if err := h.matching.DeleteRegistrant(ctx, registrantID); err != nil {
		h.writeServiceError(w, r, "delete registrant", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// writeServiceError logs server-side failures and renders every error
// through the shared code-to-status mapping.
func (h *Handler) writeServiceError(w http.ResponseWriter, r *http.Request, op string, err error) {
	ctx := r.Context()
	switch dErrors.CodeOf(err) {
	case dErrors.CodeValidation, dErrors.CodeInvalidInput, dErrors.CodeBadRequest, dErrors.CodeNotFound, dErrors.CodeConflict:
		h.logger.WarnContext(ctx, op,
			"request_id", middleware.GetRequestID(ctx),
			"error", err.Error(),
		)
	default:
		h.logger.ErrorContext(ctx, op,
			"request_id", middleware.GetRequestID(ctx),
			"error", err.Error(),
		)
	}
	httputil.WriteError(w, err)
}
