package payment

import (
	"encoding/json"
	"time"
)

// Transaction is one payment attempt, keyed by the caller-supplied
// reference. Rows are never deleted; they are the financial audit trail.
type Transaction struct {
	ID              int64           `gorm:"primaryKey"`
	Reference       string          `gorm:"column:reference;not null;uniqueIndex"`
	Email           string          `gorm:"column:email;not null"`
	AmountRequested int64           `gorm:"column:amount_requested;not null"`
	AmountConfirmed *int64          `gorm:"column:amount_confirmed"`
	Status          string          `gorm:"column:status;default:pending;index"`
	Metadata        json.RawMessage `gorm:"column:metadata;type:jsonb"`
	GatewayPayload  json.RawMessage `gorm:"column:gateway_payload;type:jsonb"`
	FailureReason   *string         `gorm:"column:failure_reason"`
	CreatedAt       time.Time       `gorm:"column:created_at;default:now()"`
	UpdatedAt       time.Time       `gorm:"column:updated_at;default:now()"`
}

func (Transaction) TableName() string {
	return "payment_transactions"
}

// Transaction statuses. The four gateway/mismatch statuses plus
// backend_error are terminal; pending, processing and
// awaiting_authorization may still advance.
const (
	StatusPending             = "pending"
	StatusProcessing          = "processing"
	StatusAwaitingAuth        = "awaiting_authorization"
	StatusSuccess             = "success"
	StatusAmountMismatch      = "amount_mismatch"
	StatusGatewayInitFailed   = "gateway_init_failed"
	StatusGatewayVerifyFailed = "gateway_verify_failed"
	StatusBackendError        = "backend_error"
)

// PreTerminalStatuses are the statuses a transaction may still move out of.
// Used as the precondition set for conditional status updates.
func PreTerminalStatuses() []string {
	return []string{StatusPending, StatusProcessing, StatusAwaitingAuth}
}

func IsTerminal(status string) bool {
	switch status {
	case StatusSuccess, StatusAmountMismatch, StatusGatewayInitFailed,
		StatusGatewayVerifyFailed, StatusBackendError:
		return true
	}
	return false
}
