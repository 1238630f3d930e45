package job

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

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
	case errors.Is(err, ErrPostingNotFound):
		h.HandleError(w, apperrors.ErrPostingNotFound)
	case errors.Is(err, ErrApplicationNotFound):
		h.HandleError(w, apperrors.NewNotFoundError("application not found", apperrors.ErrCodePostingNotFound))
	case errors.Is(err, ErrPostingClosed):
		h.HandleError(w, apperrors.NewConflictError(err.Error(), apperrors.ErrCodePostingClosed))
	case errors.Is(err, ErrAlreadyApplied):
		h.HandleError(w, apperrors.NewConflictError(err.Error(), apperrors.ErrCodeAlreadyApplied))
	case errors.Is(err, ErrInvalidTransition):
		h.HandleError(w, apperrors.NewConflictError(err.Error(), apperrors.ErrCodeInvalidTransition))
	default:
		h.HandleServiceError(w, err)
	}
}

func pathID(r *http.Request, name string) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, name), 10, 64)
}

// CreatePosting handles POST /api/v1/jobs
func (h *Handler) CreatePosting(w http.ResponseWriter, r *http.Request) {
	var dto CreatePostingDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.HandleError(w, apperrors.NewValidationError("invalid request body", apperrors.ErrCodeValidationFailed))
		return
	}

	posting, err := h.Service.CreatePosting(dto)
	if err != nil {
		h.HandleError(w, apperrors.NewValidationError(err.Error(), apperrors.ErrCodeValidationFailed))
		return
	}

	h.WriteJSON(w, http.StatusCreated, posting)
}

// ListPostings handles GET /api/v1/jobs
func (h *Handler) ListPostings(w http.ResponseWriter, r *http.Request) {
	params := ListPostingsParams{
		Category: r.URL.Query().Get("category"),
		Status:   r.URL.Query().Get("status"),
	}
	params.Page, _ = strconv.Atoi(r.URL.Query().Get("page"))
	params.PerPage, _ = strconv.Atoi(r.URL.Query().Get("per_page"))

	postings, total, err := h.Service.ListPostings(params)
	if err != nil {
		h.Logger.Error("ListPostings: service error", "error", err)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"postings": postings,
		"page":     params.Page,
		"per_page": params.PerPage,
		"total":    total,
	})
}

// GetPosting handles GET /api/v1/jobs/{id}
func (h *Handler) GetPosting(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.HandleError(w, apperrors.NewValidationError("invalid posting id", apperrors.ErrCodeValidationFailed))
		return
	}

	posting, err := h.Service.GetPosting(id)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, posting)
}

// ClosePosting handles DELETE /api/v1/jobs/{id}
func (h *Handler) ClosePosting(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.HandleError(w, apperrors.NewValidationError("invalid posting id", apperrors.ErrCodeValidationFailed))
		return
	}

	if err := h.Service.ClosePosting(id); err != nil {
		h.writeDomainError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Apply handles POST /api/v1/jobs/{id}/applications
func (h *Handler) Apply(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok || user == nil {
		h.HandleError(w, apperrors.NewUnauthorizedError("authentication required", apperrors.ErrCodeInvalidToken))
		return
	}

	id, err := pathID(r, "id")
	if err != nil {
		h.HandleError(w, apperrors.NewValidationError("invalid posting id", apperrors.ErrCodeValidationFailed))
		return
	}

	var dto ApplyDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.HandleError(w, apperrors.NewValidationError("invalid request body", apperrors.ErrCodeValidationFailed))
		return
	}

	application, err := h.Service.Apply(id, user.ID, dto)
	if err != nil {
		switch {
		case errors.Is(err, ErrPostingNotFound), errors.Is(err, ErrPostingClosed), errors.Is(err, ErrAlreadyApplied):
			h.writeDomainError(w, err)
		default:
			h.HandleError(w, apperrors.NewValidationError(err.Error(), apperrors.ErrCodeValidationFailed))
		}
		return
	}

	h.WriteJSON(w, http.StatusCreated, application)
}

// ListApplicants handles GET /api/v1/jobs/{id}/applications
func (h *Handler) ListApplicants(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.HandleError(w, apperrors.NewValidationError("invalid posting id", apperrors.ErrCodeValidationFailed))
		return
	}

	applicants, err := h.Service.Applicants(id)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"applications": applicants,
	})
}

// UpdateApplicationStatus handles PATCH /api/v1/jobs/applications/{id}
func (h *Handler) UpdateApplicationStatus(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.HandleError(w, apperrors.NewValidationError("invalid application id", apperrors.ErrCodeValidationFailed))
		return
	}

	var dto UpdateApplicationStatusDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.HandleError(w, apperrors.NewValidationError("invalid request body", apperrors.ErrCodeValidationFailed))
		return
	}

	application, err := h.Service.UpdateApplicationStatus(id, dto)
	if err != nil {
		switch {
		case errors.Is(err, ErrApplicationNotFound), errors.Is(err, ErrInvalidTransition):
			h.writeDomainError(w, err)
		default:
			h.HandleError(w, apperrors.NewValidationError(err.Error(), apperrors.ErrCodeValidationFailed))
		}
		return
	}

	h.WriteJSON(w, http.StatusOK, application)
}
