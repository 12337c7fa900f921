package services

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"paygate/internal/ids"
	"paygate/internal/instrument"
	"paygate/internal/models"
	"paygate/internal/simulate"
)

// StatusNotifier receives every payment status transition. The HTTP layer
// implements it to feed the per-payment WebSocket stream.
type StatusNotifier interface {
	PaymentUpdated(payment *models.Payment)
}

// EventPublisher pushes payment status transitions to the event bus.
type EventPublisher interface {
	PaymentStatusChanged(ctx context.Context, payment *models.Payment) error
}

// PaymentService is the authorization engine. One Authorize call takes an
// order plus a payment request through processing to a terminal status:
//
//	Received -> Recorded(processing) -> {Success, Failed}
//
// The processing record is persisted before the simulated delay so a
// concurrent status read observes "processing" rather than absence, and
// the delay applies to every request whether or not the instrument turns
// out to be valid.
type PaymentService struct {
	Store  Store
	Sim    *simulate.Simulator
	Events EventPublisher
	Feed   StatusNotifier

	// suspend is the blocking primitive for the simulated bank round
	// trip. Overridable so unit tests are not wall-clock bound.
	suspend func(d time.Duration)
}

func NewPaymentService(st Store, sim *simulate.Simulator, events EventPublisher, feed StatusNotifier) *PaymentService {
	return &PaymentService{
		Store:   st,
		Sim:     sim,
		Events:  events,
		Feed:    feed,
		suspend: time.Sleep,
	}
}

// Authorize runs the payment state machine for one request. The order has
// already been fetched and ownership-checked by the caller.
//
// A structurally invalid instrument still leaves a terminal failed
// Payment behind and additionally returns a *GatewayError, so the caller
// gets a 400-class response while the audit trail stays complete. A
// simulated bank decline is not an error: it returns the failed Payment
// with a nil error.
func (s *PaymentService) Authorize(ctx context.Context, order *models.Order, req *models.PaymentRequest) (*models.Payment, error) {
	if req.Method != models.MethodUPI && req.Method != models.MethodCard {
		return nil, badRequest(CodeBadRequest, "method must be upi or card")
	}

	now := time.Now().UTC()
	payment := &models.Payment{
		OrderID:    order.ID,
		MerchantID: order.MerchantID,
		Amount:     order.Amount,
		Currency:   order.Currency,
		Method:     req.Method,
		Status:     models.PaymentProcessing,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	// Pre-populate instrument metadata where it is safe to do so. Card
	// network and last4 are derived only when the number already passes
	// Luhn; a payment that fails INVALID_CARD carries no card metadata.
	if req.Method == models.MethodUPI && req.VPA != "" {
		vpa := req.VPA
		payment.VPA = &vpa
	}
	if req.Method == models.MethodCard && req.Card != nil && instrument.ValidLuhn(req.Card.Number) {
		network := string(instrument.DetectNetwork(req.Card.Number))
		last4 := cardLast4(req.Card.Number)
		payment.CardNetwork = &network
		payment.CardLast4 = &last4
	}

	if err := s.createWithRetry(ctx, payment); err != nil {
		return nil, err
	}
	s.notify(ctx, payment)

	// The simulated bank round trip. No locks are held here; every
	// in-flight authorization suspends independently.
	s.suspend(s.Sim.Delay(req.Method))

	// A caller disconnect must not roll back the eventual terminal
	// write; the payment record already exists.
	ctx = context.WithoutCancel(ctx)

	if gerr := validateInstrument(req); gerr != nil {
		if err := s.fail(ctx, payment, gerr.Code, gerr.Description); err != nil {
			return nil, err
		}
		return payment, gerr
	}

	if !s.Sim.Outcome(req.Method) {
		if err := s.fail(ctx, payment, CodePaymentFailed, "Bank declined the transaction"); err != nil {
			return nil, err
		}
		return payment, nil
	}

	payment.Status = models.PaymentSuccess
	payment.UpdatedAt = time.Now().UTC()
	if err := s.Store.FinalizePayment(ctx, payment); err != nil {
		return nil, err
	}
	// Conditional update: a racing request may have marked the order
	// paid already, which is fine, paid never reverts.
	if err := s.Store.MarkOrderPaid(ctx, order.ID); err != nil {
		return nil, err
	}
	order.Status = models.OrderPaid
	s.notify(ctx, payment)
	return payment, nil
}

// validateInstrument runs the method-specific checks in order and returns
// the first failure.
func validateInstrument(req *models.PaymentRequest) *GatewayError {
	switch req.Method {
	case models.MethodUPI:
		if req.VPA == "" || !instrument.ValidVPA(req.VPA) {
			return badRequest(CodeInvalidVPA, "VPA format invalid")
		}
	case models.MethodCard:
		if req.Card == nil {
			return badRequest(CodeBadRequest, "Card details required")
		}
		if !instrument.ValidLuhn(req.Card.Number) {
			return badRequest(CodeInvalidCard, "Card validation failed")
		}
		if !instrument.ValidExpiry(req.Card.ExpiryMonth, req.Card.ExpiryYear) {
			return badRequest(CodeExpiredCard, "Card expiry date invalid")
		}
	}
	return nil
}

// fail records the terminal failed status. The write must land before
// anything is announced: reporting a failure code the store does not
// hold would leave the row to the sweeper, which overwrites the
// specific code with a generic one.
func (s *PaymentService) fail(ctx context.Context, payment *models.Payment, code, description string) error {
	payment.Status = models.PaymentFailed
	payment.ErrorCode = &code
	payment.ErrorDescription = &description
	payment.UpdatedAt = time.Now().UTC()
	if err := s.Store.FinalizePayment(ctx, payment); err != nil {
		log.Printf("payment %s: finalize failed: %v", payment.ID, err)
		return err
	}
	s.notify(ctx, payment)
	return nil
}

func (s *PaymentService) createWithRetry(ctx context.Context, payment *models.Payment) error {
	for attempt := 0; attempt < maxIDAttempts; attempt++ {
		payment.ID = ids.NewPaymentID()
		err := s.Store.CreatePayment(ctx, payment)
		if err == nil {
			return nil
		}
		if !s.Store.IsDuplicateID(err) {
			return err
		}
	}
	return errors.New("payment id generation exhausted retries")
}

func (s *PaymentService) notify(ctx context.Context, payment *models.Payment) {
	if s.Feed != nil {
		s.Feed.PaymentUpdated(payment)
	}
	if s.Events != nil {
		_ = s.Events.PaymentStatusChanged(ctx, payment)
	}
}

// Get fetches a payment scoped to the owning merchant.
func (s *PaymentService) Get(ctx context.Context, paymentID string, merchantID uuid.UUID) (*models.Payment, error) {
	payment, err := s.Store.GetPaymentForMerchant(ctx, paymentID, merchantID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrPaymentNotFound
	}
	if err != nil {
		return nil, err
	}
	return payment, nil
}

// GetAny fetches a payment without an ownership check, for the public
// checkout status poll.
func (s *PaymentService) GetAny(ctx context.Context, paymentID string) (*models.Payment, error) {
	payment, err := s.Store.GetPayment(ctx, paymentID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrPaymentNotFound
	}
	if err != nil {
		return nil, err
	}
	return payment, nil
}

func (s *PaymentService) List(ctx context.Context, merchantID uuid.UUID) ([]*models.Payment, error) {
	return s.Store.ListPayments(ctx, merchantID)
}

func cardLast4(number string) string {
	digits := make([]byte, 0, len(number))
	for i := 0; i < len(number); i++ {
		if number[i] >= '0' && number[i] <= '9' {
			digits = append(digits, number[i])
		}
	}
	if len(digits) < 4 {
		return string(digits)
	}
	return string(digits[len(digits)-4:])
}
