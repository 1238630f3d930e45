package training

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi"

	apperrors "github.com/frahmantamala/course-enrollment/internal"
	"github.com/frahmantamala/course-enrollment/internal/auth"
	"github.com/frahmantamala/course-enrollment/internal/transport"
)

type Handler struct {
	transport.BaseHandler
	Service *Service
	Logger  *slog.Logger
}

func NewHandler(service *Service, logger *slog.Logger) *Handler {
	return &Handler{
		BaseHandler: transport.BaseHandler{Logger: logger},
		Service:     service,
		Logger:      logger,
	}
}

func (h *Handler) writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrSessionNotFound):
		h.HandleError(w, apperrors.ErrSessionNotFound)
	case errors.Is(err, ErrSessionNotUpcoming):
		h.HandleError(w, apperrors.NewConflictError(err.Error(), apperrors.ErrCodeSessionNotUpcoming))
	case errors.Is(err, ErrAlreadyEnrolled):
		h.HandleError(w, apperrors.NewConflictError(err.Error(), apperrors.ErrCodeAlreadyEnrolled))
	default:
		h.HandleServiceError(w, err)
	}
}

func (h *Handler) sessionID(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}

// CreateSession handles POST /api/v1/trainings
func (h *Handler) CreateSession(w http.ResponseWriter, r *http.Request) {
	var dto CreateSessionDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.HandleError(w, apperrors.NewValidationError("invalid request body", apperrors.ErrCodeValidationFailed))
		return
	}

	session, err := h.Service.CreateSession(dto)
	if err != nil {
		h.Logger.Error("CreateSession: service error", "error", err)
		h.HandleError(w, apperrors.NewValidationError(err.Error(), apperrors.ErrCodeValidationFailed))
		return
	}

	h.WriteJSON(w, http.StatusCreated, session)
}

// ListSessions handles GET /api/v1/trainings
func (h *Handler) ListSessions(w http.ResponseWriter, r *http.Request) {
	params := ListParams{
		Instructor: r.URL.Query().Get("instructor"),
		Category:   r.URL.Query().Get("category"),
	}
	params.Page, _ = strconv.Atoi(r.URL.Query().Get("page"))
	params.PerPage, _ = strconv.Atoi(r.URL.Query().Get("per_page"))

	if fromDate := r.URL.Query().Get("from_date"); fromDate != "" {
		parsed, err := time.Parse(time.RFC3339, fromDate)
		if err != nil {
			h.HandleError(w, apperrors.NewValidationError("from_date must be RFC3339", apperrors.ErrCodeValidationFailed))
			return
		}
		params.FromDate = &parsed
	}

	sessions, total, err := h.Service.ListSessions(params)
	if err != nil {
		h.Logger.Error("ListSessions: service error", "error", err)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"sessions": sessions,
		"page":     params.Page,
		"per_page": params.PerPage,
		"total":    total,
	})
}

// UpcomingSessions handles GET /api/v1/trainings/upcoming
func (h *Handler) UpcomingSessions(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	sessions, err := h.Service.UpcomingSessions(limit)
	if err != nil {
		h.Logger.Error("UpcomingSessions: service error", "error", err)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"sessions": sessions,
	})
}

// GetSession handles GET /api/v1/trainings/{id}
func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	id, err := h.sessionID(r)
	if err != nil {
		h.HandleError(w, apperrors.NewValidationError("invalid session id", apperrors.ErrCodeValidationFailed))
		return
	}

	session, err := h.Service.GetSession(id)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, session)
}

// Enroll handles POST /api/v1/trainings/{id}/enroll
func (h *Handler) Enroll(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok || user == nil {
		h.HandleError(w, apperrors.NewUnauthorizedError("authentication required", apperrors.ErrCodeInvalidToken))
		return
	}

	id, err := h.sessionID(r)
	if err != nil {
		h.HandleError(w, apperrors.NewValidationError("invalid session id", apperrors.ErrCodeValidationFailed))
		return
	}

	if err := h.Service.Enroll(id, user.ID); err != nil {
		h.Logger.Error("Enroll: service error", "error", err, "session_id", id, "user_id", user.ID)
		h.writeDomainError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"status":     "enrolled",
		"session_id": id,
	})
}

// UpdateSession handles PATCH /api/v1/trainings/{id}
func (h *Handler) UpdateSession(w http.ResponseWriter, r *http.Request) {
	id, err := h.sessionID(r)
	if err != nil {
		h.HandleError(w, apperrors.NewValidationError("invalid session id", apperrors.ErrCodeValidationFailed))
		return
	}

	var dto UpdateSessionDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.HandleError(w, apperrors.NewValidationError("invalid request body", apperrors.ErrCodeValidationFailed))
		return
	}

	session, err := h.Service.UpdateSession(id, dto)
	if err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			h.writeDomainError(w, err)
			return
		}
		h.HandleError(w, apperrors.NewValidationError(err.Error(), apperrors.ErrCodeValidationFailed))
		return
	}

	h.WriteJSON(w, http.StatusOK, session)
}

// CancelSession handles DELETE /api/v1/trainings/{id}
func (h *Handler) CancelSession(w http.ResponseWriter, r *http.Request) {
	id, err := h.sessionID(r)
	if err != nil {
		h.HandleError(w, apperrors.NewValidationError("invalid session id", apperrors.ErrCodeValidationFailed))
		return
	}

	if err := h.Service.CancelSession(id); err != nil {
		h.writeDomainError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// AddVideo handles POST /api/v1/trainings/{id}/videos
func (h *Handler) AddVideo(w http.ResponseWriter, r *http.Request) {
	id, err := h.sessionID(r)
	if err != nil {
		h.HandleError(w, apperrors.NewValidationError("invalid session id", apperrors.ErrCodeValidationFailed))
		return
	}

	var dto AddVideoDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.HandleError(w, apperrors.NewValidationError("invalid request body", apperrors.ErrCodeValidationFailed))
		return
	}

	video, err := h.Service.AddVideo(id, dto)
	if err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			h.writeDomainError(w, err)
			return
		}
		h.HandleError(w, apperrors.NewValidationError(err.Error(), apperrors.ErrCodeValidationFailed))
		return
	}

	h.WriteJSON(w, http.StatusCreated, video)
}

// SessionVideos handles GET /api/v1/trainings/{id}/videos
func (h *Handler) SessionVideos(w http.ResponseWriter, r *http.Request) {
	id, err := h.sessionID(r)
	if err != nil {
		h.HandleError(w, apperrors.NewValidationError("invalid session id", apperrors.ErrCodeValidationFailed))
		return
	}

	videos, err := h.Service.SessionVideos(id)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"videos": videos,
	})
}
