package payment

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"

	errors "github.com/frahmantamala/course-enrollment/internal"
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

// InitiatePayment handles POST /api/v1/payments/initialize
func (h *Handler) InitiatePayment(w http.ResponseWriter, r *http.Request) {
	var req InitiateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.Logger.Error("InitiatePayment: failed to parse request body", "error", err)
		h.HandleError(w, errors.NewValidationError("invalid request body", errors.ErrCodeValidationFailed))
		return
	}

	outcome, err := h.Service.Initiate(r.Context(), &req)
	if err != nil {
		h.Logger.Error("InitiatePayment: service error", "error", err, "reference", req.Reference)
		h.HandleServiceError(w, err)
		return
	}

	h.Logger.Info("InitiatePayment: charge accepted",
		"reference", req.Reference,
		"status", outcome.Status,
		"amount", req.Amount)

	h.WriteJSON(w, http.StatusOK, outcome)
}

// VerifyPayment handles POST /api/v1/payments/verify
func (h *Handler) VerifyPayment(w http.ResponseWriter, r *http.Request) {
	var req VerifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.Logger.Error("VerifyPayment: failed to parse request body", "error", err)
		h.HandleError(w, errors.NewValidationError("invalid request body", errors.ErrCodeValidationFailed))
		return
	}

	if err := req.Validate(); err != nil {
		h.HandleServiceError(w, err)
		return
	}

	outcome, err := h.Service.Verify(r.Context(), req.Reference)
	if err != nil {
		h.Logger.Error("VerifyPayment: service error", "error", err, "reference", req.Reference)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, outcome)
}

// AuthorizePayment handles POST /api/v1/payments/authorize
func (h *Handler) AuthorizePayment(w http.ResponseWriter, r *http.Request) {
	var req AuthorizeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.Logger.Error("AuthorizePayment: failed to parse request body", "error", err)
		h.HandleError(w, errors.NewValidationError("invalid request body", errors.ErrCodeValidationFailed))
		return
	}

	outcome, err := h.Service.Authorize(r.Context(), req.Reference, req.Token)
	if err != nil {
		h.Logger.Error("AuthorizePayment: service error", "error", err, "reference", req.Reference)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, outcome)
}

// GetPayment handles GET /api/v1/payments/{reference}
func (h *Handler) GetPayment(w http.ResponseWriter, r *http.Request) {
	reference := chi.URLParam(r, "reference")
	if reference == "" {
		h.HandleError(w, errors.NewValidationError("reference is required", errors.ErrCodeInvalidReference))
		return
	}

	tx, err := h.Service.GetByReference(reference)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, ToTransactionSummary(tx))
}

// ListPayments handles GET /api/v1/admin/payments
func (h *Handler) ListPayments(w http.ResponseWriter, r *http.Request) {
	status := r.URL.Query().Get("status")
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	perPage, _ := strconv.Atoi(r.URL.Query().Get("per_page"))

	resp, err := h.Service.ListByStatus(status, page, perPage)
	if err != nil {
		h.Logger.Error("ListPayments: service error", "error", err, "status", status)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, resp)
}

// PaymentStats handles GET /api/v1/admin/payments/stats
func (h *Handler) PaymentStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.Service.Stats()
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"stats": stats,
	})
}
