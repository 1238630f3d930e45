package payment

import (
	"context"
	"encoding/json"
	goerrors "errors"
	"log/slog"

	"gorm.io/gorm"

	errors "github.com/frahmantamala/course-enrollment/internal"
	"github.com/frahmantamala/course-enrollment/internal/core/datamodel/payment"
	"github.com/frahmantamala/course-enrollment/internal/core/events"
	"github.com/frahmantamala/course-enrollment/internal/paymentgateway"
)

// RepositoryAPI is the transaction store contract. UpdateStatusFrom is a
// conditional write: it only applies when the row's current status is in
// fromStatuses, which is how concurrent verifications are kept from both
// flipping one row to different terminal states.
type RepositoryAPI interface {
	Create(t *payment.Transaction) error
	GetByReference(reference string) (*payment.Transaction, error)
	UpdateStatusFrom(reference string, fromStatuses []string, toStatus string, fields map[string]interface{}) (bool, error)
	ListByStatus(status string, offset, limit int) ([]*payment.Transaction, int64, error)
	CountByStatus() (map[string]int64, error)
}

// GatewayAPI is what the orchestrator needs from the mobile-money client.
type GatewayAPI interface {
	Configured() bool
	InitiateCharge(ctx context.Context, req paymentgateway.ChargeRequest) (*paymentgateway.ChargeResult, error)
	VerifyCharge(ctx context.Context, reference string) (*paymentgateway.ChargeResult, error)
	AuthorizeCharge(ctx context.Context, reference, token string) (*paymentgateway.ChargeResult, error)
}

type ServiceAPI interface {
	Initiate(ctx context.Context, req *InitiateRequest) (*Outcome, error)
	Verify(ctx context.Context, reference string) (*Outcome, error)
	Authorize(ctx context.Context, reference, token string) (*Outcome, error)
	GetByReference(reference string) (*payment.Transaction, error)
	ListByStatus(status string, page, perPage int) (*TransactionListResponse, error)
	Stats() (map[string]int64, error)
}

// Orchestrator drives the transaction state machine: it accepts payment
// intents, talks to the gateway, and persists every transition. It never
// retries on its own; polling verify is the caller's job.
type Orchestrator struct {
	repo     RepositoryAPI
	gateway  GatewayAPI
	eventBus *events.EventBus
	logger   *slog.Logger
}

func NewOrchestrator(repo RepositoryAPI, gateway GatewayAPI, eventBus *events.EventBus, logger *slog.Logger) *Orchestrator {
	return &Orchestrator{
		repo:     repo,
		gateway:  gateway,
		eventBus: eventBus,
		logger:   logger,
	}
}

// Initiate creates the pending transaction record, then asks the gateway to
// charge. The record is written before the gateway call so a crash in
// between leaves an auditable pending row instead of a lost payment.
func (o *Orchestrator) Initiate(ctx context.Context, req *InitiateRequest) (outcome *Outcome, err error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	if !o.gateway.Configured() {
		o.logger.Error("payment initiation refused: gateway credential missing")
		return nil, errors.NewConfigurationError("payment service is not configured", paymentgateway.ErrMissingCredential)
	}

	defer o.recoverToBackendError(req.Reference, &outcome, &err)

	existing, err := o.repo.GetByReference(req.Reference)
	if err != nil && !goerrors.Is(err, gorm.ErrRecordNotFound) {
		o.logger.Error("reference lookup failed", "error", err, "reference", req.Reference)
		return nil, errors.NewInternalError("could not check payment reference", err)
	}
	if existing != nil {
		o.logger.Warn("reference collision on initiation",
			"reference", req.Reference,
			"existing_status", existing.Status)
		return nil, errors.ErrReferenceInUse
	}

	meta := transactionMetadata{
		SelectedCourse: req.SelectedCourse,
		MobileNumber:   req.MobileNumber,
		MobileNetwork:  req.MobileNetwork,
	}

	tx := &payment.Transaction{
		Reference:       req.Reference,
		Email:           req.Email,
		AmountRequested: req.Amount,
		Status:          payment.StatusPending,
		Metadata:        meta.marshal(),
	}

	if err := o.repo.Create(tx); err != nil {
		o.logger.Error("failed to create transaction record", "error", err, "reference", req.Reference)
		return nil, errors.NewInternalError("could not record payment attempt", err)
	}

	o.logger.Info("transaction created",
		"reference", req.Reference,
		"amount", req.Amount,
		"email", req.Email)

	result, gwErr := o.gateway.InitiateCharge(ctx, paymentgateway.ChargeRequest{
		Reference:     req.Reference,
		Amount:        req.Amount,
		Email:         req.Email,
		MobileNumber:  req.MobileNumber,
		MobileNetwork: req.MobileNetwork,
		Description:   "Course enrollment fee: " + req.SelectedCourse,
		Metadata: map[string]interface{}{
			"selected_course": req.SelectedCourse,
		},
	})
	if gwErr != nil {
		return nil, o.failInitiation(req, result, gwErr)
	}

	switch {
	case result.AuthRequired:
		o.transition(req.Reference, []string{payment.StatusPending}, payment.StatusAwaitingAuth, map[string]interface{}{
			"gateway_payload": json.RawMessage(result.Raw),
		})
		return &Outcome{
			Success: false,
			Status:  payment.StatusAwaitingAuth,
			Message: "authorization required: submit the one-time code sent to the payer",
		}, nil

	case result.Status == paymentgateway.StatusSuccess:
		o.transition(req.Reference, []string{payment.StatusPending}, payment.StatusProcessing, map[string]interface{}{
			"gateway_payload": json.RawMessage(result.Raw),
		})
		// The provider accepted instantly, but success is only granted
		// after an amount-checked verification.
		return o.Verify(ctx, req.Reference)

	default:
		o.transition(req.Reference, []string{payment.StatusPending}, payment.StatusProcessing, map[string]interface{}{
			"gateway_payload": json.RawMessage(result.Raw),
		})
		return &Outcome{
			Success: false,
			Status:  payment.StatusProcessing,
			Message: "charge initiated, awaiting confirmation",
		}, nil
	}
}

func (o *Orchestrator) failInitiation(req *InitiateRequest, result *paymentgateway.ChargeResult, gwErr error) error {
	fields := map[string]interface{}{
		"failure_reason": gwErr.Error(),
	}
	if result != nil && len(result.Raw) > 0 {
		fields["gateway_payload"] = json.RawMessage(result.Raw)
	}
	o.transition(req.Reference, []string{payment.StatusPending}, payment.StatusGatewayInitFailed, fields)

	o.publishFailure(req.Reference, req.Email, req.Amount, payment.StatusGatewayInitFailed, gwErr.Error())

	if goerrors.Is(gwErr, paymentgateway.ErrMissingCredential) {
		return errors.NewConfigurationError("payment service is not configured", gwErr)
	}

	var netErr *paymentgateway.NetworkError
	if goerrors.As(gwErr, &netErr) {
		o.logger.Error("gateway unreachable during initiation", "error", gwErr, "reference", req.Reference)
		return errors.NewGatewayError("payment provider is unreachable", errors.ErrCodeGatewayUnavailable, gwErr)
	}

	o.logger.Warn("gateway rejected charge", "error", gwErr, "reference", req.Reference)
	return errors.NewGatewayError(gwErr.Error(), errors.ErrCodeGatewayInitFailed, gwErr)
}

// Verify reconciles a transaction against the provider's current view. It
// is idempotent: a transaction already in a terminal state never hits the
// gateway again, it just replays the stored outcome.
func (o *Orchestrator) Verify(ctx context.Context, reference string) (outcome *Outcome, err error) {
	if reference == "" {
		return nil, errors.NewValidationError("reference is required", errors.ErrCodeInvalidReference)
	}

	tx, err := o.repo.GetByReference(reference)
	if err != nil {
		if goerrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.ErrTransactionNotFound
		}
		o.logger.Error("transaction lookup failed", "error", err, "reference", reference)
		return nil, errors.NewInternalError("could not load transaction", err)
	}

	if payment.IsTerminal(tx.Status) {
		return o.storedOutcome(tx)
	}

	defer o.recoverToBackendError(reference, &outcome, &err)

	result, gwErr := o.gateway.VerifyCharge(ctx, reference)
	if gwErr != nil {
		return nil, o.failVerification(tx, result, gwErr)
	}

	if result.Ok {
		return o.settle(tx, result)
	}

	if result.Status == paymentgateway.StatusProcessing {
		o.transition(reference, []string{payment.StatusPending, payment.StatusProcessing, payment.StatusAwaitingAuth}, payment.StatusProcessing, map[string]interface{}{
			"gateway_payload": json.RawMessage(result.Raw),
		})
		return &Outcome{
			Success: false,
			Status:  payment.StatusProcessing,
			Message: "payment is still processing, try again shortly",
		}, nil
	}

	// Provider answered 2xx but the charge itself failed.
	o.transition(reference, payment.PreTerminalStatuses(), payment.StatusGatewayVerifyFailed, map[string]interface{}{
		"gateway_payload": json.RawMessage(result.Raw),
		"failure_reason":  result.Message,
	})
	o.publishFailure(tx.Reference, tx.Email, tx.AmountRequested, payment.StatusGatewayVerifyFailed, result.Message)
	return nil, errors.NewGatewayError("payment was not successful", errors.ErrCodeGatewayVerifyFailed, nil)
}

// settle handles a provider-confirmed success: the amount check decides
// between success and amount_mismatch. A mismatch never auto-corrects and
// never grants access.
func (o *Orchestrator) settle(tx *payment.Transaction, result *paymentgateway.ChargeResult) (*Outcome, error) {
	if result.Amount != tx.AmountRequested {
		o.logger.Error("confirmed amount differs from requested",
			"reference", tx.Reference,
			"amount_requested", tx.AmountRequested,
			"amount_confirmed", result.Amount)

		updated, err := o.transition(tx.Reference, payment.PreTerminalStatuses(), payment.StatusAmountMismatch, map[string]interface{}{
			"amount_confirmed": result.Amount,
			"gateway_payload":  json.RawMessage(result.Raw),
			"failure_reason":   "confirmed amount does not match requested amount",
		})
		if err == nil && !updated {
			// Lost the race to another verification; replay whatever won.
			return o.replayCurrent(tx.Reference)
		}

		o.publishFailure(tx.Reference, tx.Email, tx.AmountRequested, payment.StatusAmountMismatch, "amount mismatch")

		return nil, &errors.AppError{
			Type:       errors.ErrorTypeValidation,
			Code:       errors.ErrCodeAmountMismatch,
			Message:    "payment amount does not match the requested amount",
			StatusCode: 400,
		}
	}

	updated, err := o.transition(tx.Reference, payment.PreTerminalStatuses(), payment.StatusSuccess, map[string]interface{}{
		"amount_confirmed": result.Amount,
		"gateway_payload":  json.RawMessage(result.Raw),
	})
	if err != nil {
		return nil, errors.NewInternalError("could not record payment confirmation", err)
	}
	if !updated {
		return o.replayCurrent(tx.Reference)
	}

	o.logger.Info("payment confirmed",
		"reference", tx.Reference,
		"amount", result.Amount)

	meta := decodeMetadata(tx.Metadata)
	o.eventBus.Publish(context.Background(), events.NewPaymentConfirmedEvent(
		tx.Reference, tx.Email, result.Amount, meta.SelectedCourse))

	amount := result.Amount
	return &Outcome{
		Success: true,
		Status:  payment.StatusSuccess,
		Message: "payment verified successfully",
		Amount:  &amount,
	}, nil
}

func (o *Orchestrator) failVerification(tx *payment.Transaction, result *paymentgateway.ChargeResult, gwErr error) error {
	var netErr *paymentgateway.NetworkError
	if goerrors.As(gwErr, &netErr) {
		// Transport failure leaves the provider-side state unknown, so the
		// row stays pre-terminal and the caller can re-verify later.
		o.logger.Error("gateway unreachable during verification", "error", gwErr, "reference", tx.Reference)
		return errors.NewGatewayError("payment provider is unreachable, try again later", errors.ErrCodeGatewayUnavailable, gwErr)
	}

	fields := map[string]interface{}{
		"failure_reason": gwErr.Error(),
	}
	if result != nil && len(result.Raw) > 0 {
		fields["gateway_payload"] = json.RawMessage(result.Raw)
	}
	o.transition(tx.Reference, payment.PreTerminalStatuses(), payment.StatusGatewayVerifyFailed, fields)
	o.publishFailure(tx.Reference, tx.Email, tx.AmountRequested, payment.StatusGatewayVerifyFailed, gwErr.Error())

	return errors.NewGatewayError("payment verification failed", errors.ErrCodeGatewayVerifyFailed, gwErr)
}

// Authorize submits the payer's one-time code for a charge parked in
// awaiting_authorization, moving it into processing on acceptance.
func (o *Orchestrator) Authorize(ctx context.Context, reference, token string) (outcome *Outcome, err error) {
	req := &AuthorizeRequest{Reference: reference, Token: token}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	tx, err := o.repo.GetByReference(reference)
	if err != nil {
		if goerrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.ErrTransactionNotFound
		}
		return nil, errors.NewInternalError("could not load transaction", err)
	}

	if tx.Status != payment.StatusAwaitingAuth {
		return nil, errors.NewConflictError("transaction is not awaiting authorization", errors.ErrCodeValidationFailed)
	}

	defer o.recoverToBackendError(reference, &outcome, &err)

	result, gwErr := o.gateway.AuthorizeCharge(ctx, reference, token)
	if gwErr != nil {
		var netErr *paymentgateway.NetworkError
		if goerrors.As(gwErr, &netErr) {
			return nil, errors.NewGatewayError("payment provider is unreachable, try again later", errors.ErrCodeGatewayUnavailable, gwErr)
		}

		fields := map[string]interface{}{
			"failure_reason": gwErr.Error(),
		}
		if result != nil && len(result.Raw) > 0 {
			fields["gateway_payload"] = json.RawMessage(result.Raw)
		}
		o.transition(reference, []string{payment.StatusAwaitingAuth}, payment.StatusGatewayInitFailed, fields)
		o.publishFailure(tx.Reference, tx.Email, tx.AmountRequested, payment.StatusGatewayInitFailed, gwErr.Error())
		return nil, errors.NewGatewayError("authorization was rejected", errors.ErrCodeGatewayInitFailed, gwErr)
	}

	o.transition(reference, []string{payment.StatusAwaitingAuth}, payment.StatusProcessing, map[string]interface{}{
		"gateway_payload": json.RawMessage(result.Raw),
	})

	if result.Status == paymentgateway.StatusSuccess {
		return o.Verify(ctx, reference)
	}

	return &Outcome{
		Success: false,
		Status:  payment.StatusProcessing,
		Message: "authorization accepted, awaiting confirmation",
	}, nil
}

func (o *Orchestrator) GetByReference(reference string) (*payment.Transaction, error) {
	tx, err := o.repo.GetByReference(reference)
	if err != nil {
		if goerrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.ErrTransactionNotFound
		}
		return nil, errors.NewInternalError("could not load transaction", err)
	}
	return tx, nil
}

func (o *Orchestrator) ListByStatus(status string, page, perPage int) (*TransactionListResponse, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}

	txs, total, err := o.repo.ListByStatus(status, (page-1)*perPage, perPage)
	if err != nil {
		o.logger.Error("transaction listing failed", "error", err, "status", status)
		return nil, errors.NewInternalError("could not list transactions", err)
	}

	summaries := make([]TransactionSummary, 0, len(txs))
	for _, tx := range txs {
		summaries = append(summaries, ToTransactionSummary(tx))
	}

	return &TransactionListResponse{
		Transactions: summaries,
		Page:         page,
		PerPage:      perPage,
		Total:        total,
	}, nil
}

func (o *Orchestrator) Stats() (map[string]int64, error) {
	stats, err := o.repo.CountByStatus()
	if err != nil {
		return nil, errors.NewInternalError("could not load transaction stats", err)
	}
	return stats, nil
}

// storedOutcome replays a terminal transaction without touching the
// gateway, so repeated verify calls stay idempotent and terminal statuses
// stay monotonic.
func (o *Orchestrator) storedOutcome(tx *payment.Transaction) (*Outcome, error) {
	switch tx.Status {
	case payment.StatusSuccess:
		return &Outcome{
			Success: true,
			Status:  payment.StatusSuccess,
			Message: "payment verified successfully",
			Amount:  tx.AmountConfirmed,
		}, nil
	case payment.StatusAmountMismatch:
		return nil, &errors.AppError{
			Type:       errors.ErrorTypeValidation,
			Code:       errors.ErrCodeAmountMismatch,
			Message:    "payment amount does not match the requested amount",
			StatusCode: 400,
		}
	case payment.StatusGatewayInitFailed:
		return nil, errors.NewGatewayError("payment initiation failed", errors.ErrCodeGatewayInitFailed, nil)
	case payment.StatusGatewayVerifyFailed:
		return nil, errors.NewGatewayError("payment was not successful", errors.ErrCodeGatewayVerifyFailed, nil)
	default:
		return nil, errors.NewInternalError("payment could not be processed", nil)
	}
}

func (o *Orchestrator) replayCurrent(reference string) (*Outcome, error) {
	tx, err := o.repo.GetByReference(reference)
	if err != nil {
		return nil, errors.NewInternalError("could not reload transaction", err)
	}
	return o.storedOutcome(tx)
}

func (o *Orchestrator) transition(reference string, from []string, to string, fields map[string]interface{}) (bool, error) {
	updated, err := o.repo.UpdateStatusFrom(reference, from, to, fields)
	if err != nil {
		o.logger.Error("status transition failed",
			"error", err,
			"reference", reference,
			"to_status", to)
		return false, err
	}
	if !updated {
		o.logger.Warn("status transition skipped, precondition not met",
			"reference", reference,
			"to_status", to)
	}
	return updated, nil
}

func (o *Orchestrator) publishFailure(reference, email string, amount int64, status, reason string) {
	o.eventBus.Publish(context.Background(), events.NewPaymentFailedEvent(
		reference, email, amount, status, reason))
}

// recoverToBackendError converts any panic in the flow into a marked
// backend_error transaction and a generic internal error, so no reference
// is ever left ambiguous and no internal detail leaks to the caller.
func (o *Orchestrator) recoverToBackendError(reference string, outcome **Outcome, err *error) {
	if r := recover(); r != nil {
		o.logger.Error("panic during payment processing",
			"panic", r,
			"reference", reference)

		o.repo.UpdateStatusFrom(reference, payment.PreTerminalStatuses(), payment.StatusBackendError, map[string]interface{}{
			"failure_reason": "internal processing error",
		})

		*outcome = nil
		*err = errors.NewInternalError("payment could not be processed", nil)
	}
}
