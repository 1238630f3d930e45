package payment

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"

	errors "github.com/frahmantamala/course-enrollment/internal"
	"github.com/frahmantamala/course-enrollment/internal/core/common/validation"
	"github.com/frahmantamala/course-enrollment/internal/core/datamodel/payment"
)

// InitiateRequest is the caller's payment intent. Amounts are integers in
// minor currency units (pesewas); the reference identifies one attempt and
// is never reused.
type InitiateRequest struct {
	Email          string `json:"email"`
	Amount         int64  `json:"amount"`
	Reference      string `json:"reference"`
	SelectedCourse string `json:"selectedCourse"`
	MobileNumber   string `json:"mobileNumber"`
	MobileNetwork  string `json:"mobileNetwork"`
}

func (r *InitiateRequest) Validate() error {
	validator := validation.NewValidator()

	validator.Field("email", r.Email).Required()
	validator.Field("amount", r.Amount).Required().MinInt(1, errors.ErrCodeInvalidAmount)
	validator.Field("reference", r.Reference).Required()
	validator.Field("mobileNumber", r.MobileNumber).Required()
	validator.Field("mobileNetwork", r.MobileNetwork).Required()

	if appErr := validator.Validate(); appErr != nil {
		return appErr
	}
	return nil
}

type VerifyRequest struct {
	Reference string `json:"reference"`
}

func (r *VerifyRequest) Validate() error {
	validator := validation.NewValidator()

	validator.Field("reference", r.Reference).Required()

	if appErr := validator.Validate(); appErr != nil {
		return appErr
	}
	return nil
}

type AuthorizeRequest struct {
	Reference string `json:"reference"`
	Token     string `json:"token"`
}

func (r *AuthorizeRequest) Validate() error {
	validator := validation.NewValidator()

	validator.Field("reference", r.Reference).Required()
	validator.Field("token", r.Token).Required().MinLength(4)

	if appErr := validator.Validate(); appErr != nil {
		return appErr
	}
	return nil
}

// Outcome is the caller-facing result of an initiate/verify call. Success
// is true only for a confirmed, amount-matched payment; a processing
// outcome tells the caller to poll verify later.
type Outcome struct {
	Success bool        `json:"success"`
	Status  string      `json:"status"`
	Message string      `json:"message"`
	Amount  *int64      `json:"amount,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

// transactionMetadata is the free-form mapping captured at initiation.
type transactionMetadata struct {
	SelectedCourse string `json:"selected_course"`
	MobileNumber   string `json:"mobile_number"`
	MobileNetwork  string `json:"mobile_network"`
}

func (m transactionMetadata) marshal() json.RawMessage {
	raw, _ := json.Marshal(m)
	return raw
}

func decodeMetadata(raw json.RawMessage) transactionMetadata {
	var m transactionMetadata
	if len(raw) > 0 {
		_ = json.Unmarshal(raw, &m)
	}
	return m
}

// TransactionSummary is the admin listing projection. Amounts are rendered
// in major units for back-office reading; the API everywhere else speaks
// minor units.
type TransactionSummary struct {
	Reference       string          `json:"reference"`
	Email           string          `json:"email"`
	Status          string          `json:"status"`
	AmountRequested decimal.Decimal `json:"amount_requested"`
	AmountConfirmed *decimal.Decimal `json:"amount_confirmed,omitempty"`
	Course          string          `json:"course,omitempty"`
	FailureReason   *string         `json:"failure_reason,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

const minorUnitsPerCedi = 100

func toMajorUnits(minor int64) decimal.Decimal {
	return decimal.NewFromInt(minor).Div(decimal.NewFromInt(minorUnitsPerCedi))
}

func ToTransactionSummary(t *payment.Transaction) TransactionSummary {
	meta := decodeMetadata(t.Metadata)

	summary := TransactionSummary{
		Reference:       t.Reference,
		Email:           t.Email,
		Status:          t.Status,
		AmountRequested: toMajorUnits(t.AmountRequested),
		Course:          meta.SelectedCourse,
		FailureReason:   t.FailureReason,
		CreatedAt:       t.CreatedAt,
		UpdatedAt:       t.UpdatedAt,
	}

	if t.AmountConfirmed != nil {
		confirmed := toMajorUnits(*t.AmountConfirmed)
		summary.AmountConfirmed = &confirmed
	}

	return summary
}

type TransactionListResponse struct {
	Transactions []TransactionSummary `json:"transactions"`
	Page         int                  `json:"page"`
	PerPage      int                  `json:"per_page"`
	Total        int64                `json:"total"`
}
