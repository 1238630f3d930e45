package events

import (
	"time"

	"github.com/google/uuid"
)

const (
	EventTypePaymentConfirmed = "payment.confirmed"
	EventTypePaymentFailed    = "payment.failed"
	EventTypeUserRegistered   = "user.registered"
)

type PaymentConfirmedEvent struct {
	BaseEvent
	Reference string `json:"reference"`
	Email     string `json:"email"`
	Amount    int64  `json:"amount"`
	Course    string `json:"course"`
}

func NewPaymentConfirmedEvent(reference, email string, amount int64, course string) *PaymentConfirmedEvent {
	return &PaymentConfirmedEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      EventTypePaymentConfirmed,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"reference": reference,
				"email":     email,
				"amount":    amount,
				"course":    course,
			},
		},
		Reference: reference,
		Email:     email,
		Amount:    amount,
		Course:    course,
	}
}

type PaymentFailedEvent struct {
	BaseEvent
	Reference     string `json:"reference"`
	Email         string `json:"email"`
	Amount        int64  `json:"amount"`
	Status        string `json:"status"`
	FailureReason string `json:"failure_reason"`
}

func NewPaymentFailedEvent(reference, email string, amount int64, status, failureReason string) *PaymentFailedEvent {
	return &PaymentFailedEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      EventTypePaymentFailed,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"reference":      reference,
				"email":          email,
				"amount":         amount,
				"status":         status,
				"failure_reason": failureReason,
			},
		},
		Reference:     reference,
		Email:         email,
		Amount:        amount,
		Status:        status,
		FailureReason: failureReason,
	}
}

type UserRegisteredEvent struct {
	BaseEvent
	UserID   int64  `json:"user_id"`
	Email    string `json:"email"`
	Username string `json:"username"`
}

func NewUserRegisteredEvent(userID int64, email, username string) *UserRegisteredEvent {
	return &UserRegisteredEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      EventTypeUserRegistered,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"user_id":  userID,
				"email":    email,
				"username": username,
			},
		},
		UserID:   userID,
		Email:    email,
		Username: username,
	}
}
