package paymentgateway_test

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/course-enrollment/internal/paymentgateway"
)

func TestGatewayClient(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Payment Gateway Client Suite")
}

var _ = Describe("GatewayClient", func() {
	var (
		logger     *slog.Logger
		mockServer *httptest.Server
		client     *paymentgateway.Client
	)

	newClient := func(baseURL, secret string) *paymentgateway.Client {
		return paymentgateway.NewClient(paymentgateway.Config{
			BaseURL:   baseURL,
			SecretKey: secret,
			Currency:  "GHS",
			Timeout:   2 * time.Second,
		}, logger)
	}

	BeforeEach(func() {
		logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	})

	AfterEach(func() {
		if mockServer != nil {
			mockServer.Close()
			mockServer = nil
		}
	})

	Describe("InitiateCharge", func() {
		Context("when the secret key is missing", func() {
			It("should fail with the missing credential error", func() {
				// Given
				client = newClient("http://localhost:1", "")

				// When
				result, err := client.InitiateCharge(context.Background(), paymentgateway.ChargeRequest{
					Reference: "ref-1",
					Amount:    50000,
				})

				// Then
				Expect(err).To(MatchError(paymentgateway.ErrMissingCredential))
				Expect(result).To(BeNil())
			})
		})

		Context("when the provider accepts a processing charge", func() {
			It("should normalize to an ok processing result", func() {
				// Given
				var gotAuth string
				var gotBody map[string]interface{}
				mockServer = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
					gotAuth = r.Header.Get("Authorization")
					json.NewDecoder(r.Body).Decode(&gotBody)
					w.Header().Set("Content-Type", "application/json")
					json.NewEncoder(w).Encode(map[string]interface{}{
						"status":  true,
						"message": "charge initiated",
						"data": map[string]interface{}{
							"reference": "ref-1",
							"status":    "processing",
							"amount":    50000,
						},
					})
				}))
				client = newClient(mockServer.URL, "sk_test_secret")

				// When
				result, err := client.InitiateCharge(context.Background(), paymentgateway.ChargeRequest{
					Reference:     "ref-1",
					Amount:        50000,
					Email:         "student@example.com",
					MobileNumber:  "0241234567",
					MobileNetwork: "MTN",
				})

				// Then
				Expect(err).ToNot(HaveOccurred())
				Expect(result.Ok).To(BeTrue())
				Expect(result.Status).To(Equal(paymentgateway.StatusProcessing))
				Expect(result.Raw).ToNot(BeEmpty())
				Expect(gotAuth).To(Equal("Bearer sk_test_secret"))
				Expect(gotBody["reference"]).To(Equal("ref-1"))
				Expect(gotBody["currency"]).To(Equal("GHS"))
				mm := gotBody["mobile_money"].(map[string]interface{})
				Expect(mm["network"]).To(Equal("MTN"))
			})
		})

		Context("when the charge needs OTP authorization", func() {
			It("should flag the result as auth required", func() {
				// Given
				mockServer = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
					json.NewEncoder(w).Encode(map[string]interface{}{
						"status":  true,
						"message": "authorization required",
						"data": map[string]interface{}{
							"reference":  "ref-otp",
							"status":     "processing",
							"auth_model": "OTP",
						},
					})
				}))
				client = newClient(mockServer.URL, "sk_test_secret")

				// When
				result, err := client.InitiateCharge(context.Background(), paymentgateway.ChargeRequest{
					Reference: "ref-otp",
					Amount:    50000,
				})

				// Then
				Expect(err).ToNot(HaveOccurred())
				Expect(result.AuthRequired).To(BeTrue())
			})
		})

		Context("when the provider rejects the charge", func() {
			It("should return a rejection error alongside the raw provider body", func() {
				// Given
				mockServer = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
					w.WriteHeader(http.StatusBadRequest)
					json.NewEncoder(w).Encode(map[string]interface{}{
						"status":  false,
						"message": "invalid mobile money number",
					})
				}))
				client = newClient(mockServer.URL, "sk_test_secret")

				// When
				result, err := client.InitiateCharge(context.Background(), paymentgateway.ChargeRequest{
					Reference: "ref-bad",
					Amount:    50000,
				})

				// Then
				var rejected *paymentgateway.RejectedError
				Expect(errors.As(err, &rejected)).To(BeTrue())
				Expect(rejected.Message).To(ContainSubstring("invalid mobile money number"))
				// The decline body rides along so callers can persist it.
				Expect(result).ToNot(BeNil())
				Expect(result.Status).To(Equal(paymentgateway.StatusFailed))
				Expect(string(result.Raw)).To(ContainSubstring("invalid mobile money number"))
			})
		})

		Context("when the provider is unreachable", func() {
			It("should return a network error", func() {
				// Given
				client = newClient("http://127.0.0.1:1", "sk_test_secret")

				// When
				_, err := client.InitiateCharge(context.Background(), paymentgateway.ChargeRequest{
					Reference: "ref-net",
					Amount:    50000,
				})

				// Then
				var netErr *paymentgateway.NetworkError
				Expect(errors.As(err, &netErr)).To(BeTrue())
			})
		})
	})

	Describe("VerifyCharge", func() {
		Context("when the charge settled successfully", func() {
			It("should return the confirmed amount", func() {
				// Given
				mockServer = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
					Expect(r.Method).To(Equal(http.MethodGet))
					Expect(r.URL.Path).To(Equal("/charges/verify/ref-1"))
					json.NewEncoder(w).Encode(map[string]interface{}{
						"status":  "success",
						"message": "charge retrieved",
						"data": map[string]interface{}{
							"reference": "ref-1",
							"status":    "successful",
							"amount":    50000,
						},
					})
				}))
				client = newClient(mockServer.URL, "sk_test_secret")

				// When
				result, err := client.VerifyCharge(context.Background(), "ref-1")

				// Then
				Expect(err).ToNot(HaveOccurred())
				Expect(result.Ok).To(BeTrue())
				Expect(result.Status).To(Equal(paymentgateway.StatusSuccess))
				Expect(result.Amount).To(Equal(int64(50000)))
			})
		})

		Context("when the charge is still processing", func() {
			It("should return a not-ok processing result without error", func() {
				// Given
				mockServer = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
					json.NewEncoder(w).Encode(map[string]interface{}{
						"status": true,
						"data": map[string]interface{}{
							"reference": "ref-1",
							"status":    "processing",
						},
					})
				}))
				client = newClient(mockServer.URL, "sk_test_secret")

				// When
				result, err := client.VerifyCharge(context.Background(), "ref-1")

				// Then
				Expect(err).ToNot(HaveOccurred())
				Expect(result.Ok).To(BeFalse())
				Expect(result.Status).To(Equal(paymentgateway.StatusProcessing))
			})
		})

		Context("when the charge failed at the provider", func() {
			It("should normalize to a failed result", func() {
				// Given
				mockServer = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
					json.NewEncoder(w).Encode(map[string]interface{}{
						"status":  true,
						"message": "charge retrieved",
						"data": map[string]interface{}{
							"reference": "ref-1",
							"status":    "failed",
						},
					})
				}))
				client = newClient(mockServer.URL, "sk_test_secret")

				// When
				result, err := client.VerifyCharge(context.Background(), "ref-1")

				// Then
				Expect(err).ToNot(HaveOccurred())
				Expect(result.Ok).To(BeFalse())
				Expect(result.Status).To(Equal(paymentgateway.StatusFailed))
			})
		})

		Context("when the provider returns a non-2xx status", func() {
			It("should return a rejection error carrying the status code", func() {
				// Given
				mockServer = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
					w.WriteHeader(http.StatusNotFound)
					json.NewEncoder(w).Encode(map[string]interface{}{
						"status":  false,
						"message": "charge not found",
					})
				}))
				client = newClient(mockServer.URL, "sk_test_secret")

				// When
				result, err := client.VerifyCharge(context.Background(), "missing-ref")

				// Then
				var rejected *paymentgateway.RejectedError
				Expect(errors.As(err, &rejected)).To(BeTrue())
				Expect(rejected.StatusCode).To(Equal(http.StatusNotFound))
				Expect(result).ToNot(BeNil())
				Expect(result.Raw).ToNot(BeEmpty())
			})
		})
	})

	Describe("AuthorizeCharge", func() {
		Context("when the OTP is accepted", func() {
			It("should move the charge into processing", func() {
				// Given
				var gotBody map[string]interface{}
				mockServer = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
					Expect(r.URL.Path).To(Equal("/charges/mobile-money/authorize"))
					json.NewDecoder(r.Body).Decode(&gotBody)
					json.NewEncoder(w).Encode(map[string]interface{}{
						"status": true,
						"data": map[string]interface{}{
							"reference": "ref-otp",
							"status":    "processing",
						},
					})
				}))
				client = newClient(mockServer.URL, "sk_test_secret")

				// When
				result, err := client.AuthorizeCharge(context.Background(), "ref-otp", "123456")

				// Then
				Expect(err).ToNot(HaveOccurred())
				Expect(result.Ok).To(BeTrue())
				Expect(result.Status).To(Equal(paymentgateway.StatusProcessing))
				Expect(gotBody["token"]).To(Equal("123456"))
			})
		})
	})
})
