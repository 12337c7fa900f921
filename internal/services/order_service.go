package services

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"paygate/internal/ids"
	"paygate/internal/models"
)

// Minimum order amount in the smallest currency unit (100 paise = ₹1).
const minOrderAmount = 100

const maxIDAttempts = 3

type CreateOrderInput struct {
	Amount   int64
	Currency string
	Receipt  *string
	Notes    json.RawMessage
}

type OrderService struct {
	Store Store
}

func (s *OrderService) Create(ctx context.Context, merchantID uuid.UUID, in CreateOrderInput) (*models.Order, error) {
	if in.Amount < minOrderAmount {
		return nil, badRequest(CodeBadRequest, "amount must be at least 100")
	}
	currency := in.Currency
	if currency == "" {
		currency = "INR"
	}
	if !validCurrency(currency) {
		return nil, badRequest(CodeBadRequest, "currency must be a 3-letter code")
	}

	now := time.Now().UTC()
	order := &models.Order{
		MerchantID: merchantID,
		Amount:     in.Amount,
		Currency:   currency,
		Receipt:    in.Receipt,
		Notes:      in.Notes,
		Status:     models.OrderCreated,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	for attempt := 0; attempt < maxIDAttempts; attempt++ {
		order.ID = ids.NewOrderID()
		err := s.Store.CreateOrder(ctx, order)
		if err == nil {
			return order, nil
		}
		if !s.Store.IsDuplicateID(err) {
			return nil, err
		}
	}
	return nil, errors.New("order id generation exhausted retries")
}

// Get fetches an order scoped to the owning merchant. A wrong owner gets
// the same not-found as an unknown ID.
func (s *OrderService) Get(ctx context.Context, orderID string, merchantID uuid.UUID) (*models.Order, error) {
	order, err := s.Store.GetOrderForMerchant(ctx, orderID, merchantID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, err
	}
	return order, nil
}

// GetAny fetches an order without an ownership check. Used by the public
// checkout flow, which holds only the order ID.
func (s *OrderService) GetAny(ctx context.Context, orderID string) (*models.Order, error) {
	order, err := s.Store.GetOrder(ctx, orderID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, err
	}
	return order, nil
}

func (s *OrderService) List(ctx context.Context, merchantID uuid.UUID) ([]*models.Order, error) {
	return s.Store.ListOrders(ctx, merchantID)
}

func validCurrency(c string) bool {
	if len(c) != 3 {
		return false
	}
	for _, r := range c {
		if r < 'A' || r > 'Z' {
			return false
		}
	}
	return true
}
