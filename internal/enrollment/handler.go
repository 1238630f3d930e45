package enrollment

import (
	"log/slog"
	"net/http"

	errors "github.com/frahmantamala/course-enrollment/internal"
	"github.com/frahmantamala/course-enrollment/internal/auth"
	"github.com/frahmantamala/course-enrollment/internal/transport"
)

type Handler struct {
	transport.BaseHandler
	Service ServiceAPI
	Logger  *slog.Logger
}

func NewHandler(service ServiceAPI, logger *slog.Logger) *Handler {
	return &Handler{
		BaseHandler: transport.BaseHandler{Logger: logger},
		Service:     service,
		Logger:      logger,
	}
}

// CheckAccess handles GET /api/v1/enrollments/access?course=...
// It reports whether the authenticated user has paid for the course; the
// flag only ever flips on a confirmed payment.
func (h *Handler) CheckAccess(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok || user == nil {
		h.HandleError(w, errors.NewUnauthorizedError("authentication required", errors.ErrCodeInvalidToken))
		return
	}

	course := r.URL.Query().Get("course")
	if course == "" {
		h.HandleError(w, errors.NewValidationError("course is required", errors.ErrCodeValidationFailed))
		return
	}

	hasAccess, err := h.Service.HasAccess(user.Email, course)
	if err != nil {
		h.Logger.Error("CheckAccess: service error", "error", err, "email", user.Email, "course", course)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"course":     course,
		"has_access": hasAccess,
	})
}

// ListEnrollments handles GET /api/v1/enrollments
func (h *Handler) ListEnrollments(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok || user == nil {
		h.HandleError(w, errors.NewUnauthorizedError("authentication required", errors.ErrCodeInvalidToken))
		return
	}

	grants, err := h.Service.ListForEmail(user.Email)
	if err != nil {
		h.Logger.Error("ListEnrollments: service error", "error", err, "email", user.Email)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"enrollments": grants,
	})
}
