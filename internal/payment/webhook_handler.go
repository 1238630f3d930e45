package payment

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/frahmantamala/course-enrollment/internal"
	"github.com/frahmantamala/course-enrollment/internal/transport"
)

// WebhookHandler receives the provider's server-to-server charge
// notifications. The callback is treated as a hint only: it triggers a
// normal verification against the provider rather than trusting the posted
// status, so the amount check always runs.
type WebhookHandler struct {
	*transport.BaseHandler
	service   ServiceAPI
	secretKey string
	logger    *slog.Logger
}

func NewWebhookHandler(baseHandler *transport.BaseHandler, service ServiceAPI, secretKey string, logger *slog.Logger) *WebhookHandler {
	return &WebhookHandler{
		BaseHandler: baseHandler,
		service:     service,
		secretKey:   secretKey,
		logger:      logger,
	}
}

type chargeNotification struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

type chargeNotificationData struct {
	Reference string `json:"reference"`
	Status    string `json:"status"`
	Amount    int64  `json:"amount"`
}

func (h *WebhookHandler) HandleChargeNotification(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		h.logger.Error("failed to read webhook body", "error", err)
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	var notification chargeNotification
	if err := json.Unmarshal(body, &notification); err != nil {
		h.logger.Error("invalid charge notification", "error", err)
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if !h.verifySignature(r.Header.Get("x-korapay-signature"), notification.Data) {
		h.logger.Warn("charge notification signature mismatch")
		h.WriteError(w, http.StatusUnauthorized, "invalid signature")
		return
	}

	var data chargeNotificationData
	if err := json.Unmarshal(notification.Data, &data); err != nil || data.Reference == "" {
		h.logger.Error("charge notification missing reference", "error", err)
		h.WriteError(w, http.StatusBadRequest, "reference is required")
		return
	}

	h.logger.Info("received charge notification",
		"event", notification.Event,
		"reference", data.Reference,
		"status", data.Status)

	// Reconcile through the normal verify path. Errors are logged but the
	// provider still gets a 200; it would otherwise retry a notification
	// for a charge we have already marked terminal.
	ctx, cancel := internal.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()
	if _, err := h.service.Verify(ctx, data.Reference); err != nil {
		h.logger.Warn("charge notification reconciliation did not succeed",
			"error", err,
			"reference", data.Reference)
	}

	h.WriteJSON(w, http.StatusOK, map[string]string{
		"status":  "success",
		"message": "notification processed",
	})
}

// verifySignature checks the provider's HMAC-SHA256 over the raw data
// block. An empty secret disables the check, which only happens in tests.
func (h *WebhookHandler) verifySignature(signature string, data json.RawMessage) bool {
	if h.secretKey == "" {
		return true
	}
	if signature == "" {
		return false
	}

	mac := hmac.New(sha256.New, []byte(h.secretKey))
	mac.Write(data)
	expected := hex.EncodeToString(mac.Sum(nil))

	return hmac.Equal([]byte(expected), []byte(signature))
}
