package payment_test

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"sync"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/course-enrollment/internal/core/datamodel/payment"
	paymentPkg "github.com/frahmantamala/course-enrollment/internal/payment"
	"github.com/frahmantamala/course-enrollment/internal/transport"
)

// stubPaymentService records Verify calls so the specs can assert whether
// the notification reached the reconciliation path.
type stubPaymentService struct {
	mu          sync.Mutex
	verified    []string
	verifyError error
}

func (s *stubPaymentService) Initiate(ctx context.Context, req *paymentPkg.InitiateRequest) (*paymentPkg.Outcome, error) {
	return nil, nil
}

func (s *stubPaymentService) Verify(ctx context.Context, reference string) (*paymentPkg.Outcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.verified = append(s.verified, reference)
	if s.verifyError != nil {
		return nil, s.verifyError
	}
	return &paymentPkg.Outcome{Success: true, Status: payment.StatusSuccess}, nil
}

func (s *stubPaymentService) Authorize(ctx context.Context, reference, token string) (*paymentPkg.Outcome, error) {
	return nil, nil
}

func (s *stubPaymentService) GetByReference(reference string) (*payment.Transaction, error) {
	return nil, nil
}

func (s *stubPaymentService) ListByStatus(status string, page, perPage int) (*paymentPkg.TransactionListResponse, error) {
	return nil, nil
}

func (s *stubPaymentService) Stats() (map[string]int64, error) {
	return nil, nil
}

func (s *stubPaymentService) verifiedReferences() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.verified...)
}

func signPayload(secret string, data []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(data)
	return hex.EncodeToString(mac.Sum(nil))
}

var _ = Describe("WebhookHandler", func() {
	const secret = "sk_test_webhook_secret"

	var (
		handler *paymentPkg.WebhookHandler
		service *stubPaymentService
	)

	notification := func(data string) []byte {
		return []byte(`{"event":"charge.success","data":` + data + `}`)
	}

	post := func(body []byte, signature string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/korapay", bytes.NewReader(body))
		if signature != "" {
			req.Header.Set("x-korapay-signature", signature)
		}
		recorder := httptest.NewRecorder()
		handler.HandleChargeNotification(recorder, req)
		return recorder
	}

	BeforeEach(func() {
		testLogger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		service = &stubPaymentService{}
		handler = paymentPkg.NewWebhookHandler(transport.NewBaseHandler(testLogger), service, secret, testLogger)
	})

	Context("when the signature matches the data block", func() {
		It("should acknowledge and reconcile through verification", func() {
			// Given
			data := `{"reference":"ref-hook","status":"success","amount":50000}`
			body := notification(data)

			// When
			recorder := post(body, signPayload(secret, []byte(data)))

			// Then
			Expect(recorder.Code).To(Equal(http.StatusOK))
			Expect(service.verifiedReferences()).To(Equal([]string{"ref-hook"}))
		})
	})

	Context("when the signature does not match", func() {
		It("should reject with 401 without touching the transaction", func() {
			// Given
			data := `{"reference":"ref-hook","status":"success","amount":50000}`

			// When
			recorder := post(notification(data), signPayload("some-other-secret", []byte(data)))

			// Then
			Expect(recorder.Code).To(Equal(http.StatusUnauthorized))
			Expect(service.verifiedReferences()).To(BeEmpty())
		})
	})

	Context("when the signature header is absent", func() {
		It("should reject with 401", func() {
			// Given
			data := `{"reference":"ref-hook","status":"success","amount":50000}`

			// When
			recorder := post(notification(data), "")

			// Then
			Expect(recorder.Code).To(Equal(http.StatusUnauthorized))
			Expect(service.verifiedReferences()).To(BeEmpty())
		})
	})

	Context("when the data block carries no reference", func() {
		It("should reject with 400", func() {
			// Given
			data := `{"status":"success","amount":50000}`

			// When
			recorder := post(notification(data), signPayload(secret, []byte(data)))

			// Then
			Expect(recorder.Code).To(Equal(http.StatusBadRequest))
			Expect(service.verifiedReferences()).To(BeEmpty())
		})
	})

	Context("when the body is not valid JSON", func() {
		It("should reject with 400", func() {
			// When
			recorder := post([]byte("not-json"), "")

			// Then
			Expect(recorder.Code).To(Equal(http.StatusBadRequest))
			Expect(service.verifiedReferences()).To(BeEmpty())
		})
	})

	Context("when reconciliation fails", func() {
		It("should still acknowledge with 200 so the provider stops retrying", func() {
			// Given
			service.verifyError = context.DeadlineExceeded
			data := `{"reference":"ref-hook","status":"success","amount":50000}`

			// When
			recorder := post(notification(data), signPayload(secret, []byte(data)))

			// Then
			Expect(recorder.Code).To(Equal(http.StatusOK))
			Expect(service.verifiedReferences()).To(Equal([]string{"ref-hook"}))
		})
	})
})
