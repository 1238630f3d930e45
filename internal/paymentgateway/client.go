package paymentgateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// ErrMissingCredential means the gateway secret was never configured. A
// deployment that accepts payments must treat this as fatal at startup.
var ErrMissingCredential = errors.New("payment gateway secret key is not configured")

// NetworkError wraps transport-level failures (DNS, connect, timeout). The
// charge state at the provider is unknown, so callers may re-verify later.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("gateway %s: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// RejectedError means the provider answered and explicitly declined the
// charge. Terminal for that reference.
type RejectedError struct {
	Op         string
	StatusCode int
	Message    string
}

func (e *RejectedError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("gateway rejected %s: %s", e.Op, e.Message)
	}
	return fmt.Sprintf("gateway rejected %s with status %d", e.Op, e.StatusCode)
}

type ChargeRequest struct {
	Reference     string
	Amount        int64
	Currency      string
	Email         string
	MobileNumber  string
	MobileNetwork string
	Description   string
	Metadata      map[string]interface{}
}

// ChargeResult is the normalized view of a provider response. Raw keeps the
// undecoded body for the transaction audit trail.
type ChargeResult struct {
	Ok           bool
	Status       string
	Amount       int64
	AuthRequired bool
	Message      string
	Raw          json.RawMessage
}

const (
	StatusSuccess    = "success"
	StatusProcessing = "processing"
	StatusFailed     = "failed"
)

type Config struct {
	BaseURL   string
	SecretKey string
	Currency  string
	Timeout   time.Duration
}

// Client talks to the mobile-money processor. It holds no charge state;
// every call is an independent request against the provider.
type Client struct {
	baseURL    string
	secretKey  string
	currency   string
	httpClient *http.Client
	logger     *slog.Logger
}

func NewClient(config Config, logger *slog.Logger) *Client {
	timeout := config.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &Client{
		baseURL:   config.BaseURL,
		secretKey: config.SecretKey,
		currency:  config.Currency,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

// Configured reports whether a gateway credential was supplied. Deployments
// that accept payments must refuse to start without one.
func (c *Client) Configured() bool {
	return c.secretKey != ""
}

// chargeEnvelope is the provider's outer response shape. The data block
// varies by endpoint and status, so it stays loosely typed and is decoded
// field by field.
type chargeEnvelope struct {
	Status  interface{} `json:"status"`
	Message string      `json:"message"`
	Data    struct {
		Status    string `json:"status"`
		Reference string `json:"reference"`
		Amount    int64  `json:"amount"`
		AuthModel string `json:"auth_model"`
	} `json:"data"`
}

// statusOK tolerates the provider returning status as either a boolean or
// the strings "success"/"processing".
func (e *chargeEnvelope) statusOK() bool {
	switch v := e.Status.(type) {
	case bool:
		return v
	case string:
		return v == StatusSuccess || v == StatusProcessing
	default:
		return false
	}
}

func (e *chargeEnvelope) statusString() string {
	switch v := e.Status.(type) {
	case bool:
		if v {
			return StatusSuccess
		}
		return StatusFailed
	case string:
		return v
	default:
		return StatusFailed
	}
}

func (c *Client) InitiateCharge(ctx context.Context, req ChargeRequest) (*ChargeResult, error) {
	if c.secretKey == "" {
		return nil, ErrMissingCredential
	}

	currency := req.Currency
	if currency == "" {
		currency = c.currency
	}

	payload := map[string]interface{}{
		"reference": req.Reference,
		"amount":    req.Amount,
		"currency":  currency,
		"customer": map[string]interface{}{
			"email": req.Email,
		},
		"mobile_money": map[string]interface{}{
			"number":  req.MobileNumber,
			"network": req.MobileNetwork,
		},
		"description": req.Description,
	}
	if len(req.Metadata) > 0 {
		payload["metadata"] = req.Metadata
	}

	c.logger.Info("initiating mobile money charge",
		"reference", req.Reference,
		"amount", req.Amount,
		"currency", currency,
		"network", req.MobileNetwork)

	envelope, raw, err := c.post(ctx, "/charges/mobile-money", payload)
	if err != nil {
		// Keep whatever body the provider sent so the rejection still
		// lands in the transaction audit trail.
		return rejectedResult(envelope, raw), err
	}

	result := &ChargeResult{
		Status:  envelope.statusString(),
		Message: envelope.Message,
		Amount:  envelope.Data.Amount,
		Raw:     raw,
	}

	if !envelope.statusOK() {
		result.Status = StatusFailed
		return result, &RejectedError{Op: "initiate", Message: envelope.Message}
	}

	// Some networks require the payer to confirm via OTP; the provider
	// signals this through auth_model on an otherwise-processing charge.
	result.Ok = true
	if envelope.Data.AuthModel == "OTP" {
		result.AuthRequired = true
	}
	if result.Status != StatusSuccess {
		result.Status = StatusProcessing
	}

	return result, nil
}

func (c *Client) VerifyCharge(ctx context.Context, reference string) (*ChargeResult, error) {
	if c.secretKey == "" {
		return nil, ErrMissingCredential
	}

	c.logger.Info("verifying charge", "reference", reference)

	url := fmt.Sprintf("%s/charges/verify/%s", c.baseURL, reference)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build verify request: %w", err)
	}
	c.setHeaders(httpReq)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, &NetworkError{Op: "verify", Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &NetworkError{Op: "verify", Err: err}
	}

	var envelope chargeEnvelope
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return rejectedResult(nil, raw), &RejectedError{Op: "verify", StatusCode: resp.StatusCode, Message: "unparseable provider response"}
	}

	result := &ChargeResult{
		Status:  envelope.Data.Status,
		Message: envelope.Message,
		Amount:  envelope.Data.Amount,
		Raw:     raw,
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return result, &RejectedError{Op: "verify", StatusCode: resp.StatusCode, Message: envelope.Message}
	}

	// The charge is paid only when the envelope reports success AND the
	// charge itself has settled. A processing charge is not a failure;
	// the caller polls again later.
	if envelope.statusOK() && envelope.Data.Status == "successful" {
		result.Ok = true
		result.Status = StatusSuccess
	} else if envelope.Data.Status == StatusProcessing || envelope.Data.Status == "pending" {
		result.Status = StatusProcessing
	} else {
		result.Status = StatusFailed
	}

	return result, nil
}

// AuthorizeCharge submits the payer's one-time code for networks that gate
// the debit behind an OTP prompt.
func (c *Client) AuthorizeCharge(ctx context.Context, reference, token string) (*ChargeResult, error) {
	if c.secretKey == "" {
		return nil, ErrMissingCredential
	}

	c.logger.Info("authorizing charge with OTP", "reference", reference)

	payload := map[string]interface{}{
		"reference": reference,
		"token":     token,
	}

	envelope, raw, err := c.post(ctx, "/charges/mobile-money/authorize", payload)
	if err != nil {
		return rejectedResult(envelope, raw), err
	}

	result := &ChargeResult{
		Status:  envelope.statusString(),
		Message: envelope.Message,
		Amount:  envelope.Data.Amount,
		Raw:     raw,
	}

	if !envelope.statusOK() {
		result.Status = StatusFailed
		return result, &RejectedError{Op: "authorize", Message: envelope.Message}
	}

	result.Ok = true
	if result.Status != StatusSuccess {
		result.Status = StatusProcessing
	}

	return result, nil
}

// rejectedResult builds a failed ChargeResult from whatever the provider
// returned. Nil when no body was read, which is how transport failures stay
// distinguishable from explicit declines.
func rejectedResult(envelope *chargeEnvelope, raw json.RawMessage) *ChargeResult {
	if raw == nil {
		return nil
	}
	result := &ChargeResult{
		Status: StatusFailed,
		Raw:    raw,
	}
	if envelope != nil {
		result.Message = envelope.Message
		result.Amount = envelope.Data.Amount
	}
	return result
}

func (c *Client) post(ctx context.Context, path string, payload map[string]interface{}) (*chargeEnvelope, json.RawMessage, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, nil, fmt.Errorf("marshal gateway payload: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, nil, fmt.Errorf("build gateway request: %w", err)
	}
	c.setHeaders(httpReq)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, nil, &NetworkError{Op: path, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, &NetworkError{Op: path, Err: err}
	}

	var envelope chargeEnvelope
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, raw, &RejectedError{Op: path, StatusCode: resp.StatusCode, Message: "unparseable provider response"}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &envelope, raw, &RejectedError{Op: path, StatusCode: resp.StatusCode, Message: envelope.Message}
	}

	return &envelope, raw, nil
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.secretKey)
}
