package services

import (
	"context"

	"github.com/google/uuid"

	"paygate/internal/models"
)

// Store is the durable record collaborator the services read and write.
// internal/store provides the postgres implementation; tests use an
// in-memory fake.
type Store interface {
	GetMerchantByAPIKey(ctx context.Context, apiKey string) (*models.Merchant, error)

	CreateOrder(ctx context.Context, order *models.Order) error
	GetOrder(ctx context.Context, orderID string) (*models.Order, error)
	GetOrderForMerchant(ctx context.Context, orderID string, merchantID uuid.UUID) (*models.Order, error)
	ListOrders(ctx context.Context, merchantID uuid.UUID) ([]*models.Order, error)
	// MarkOrderPaid sets status=paid unless the order is already paid;
	// the transition never reverts.
	MarkOrderPaid(ctx context.Context, orderID string) error

	CreatePayment(ctx context.Context, payment *models.Payment) error
	// FinalizePayment writes the terminal status and error fields of a
	// payment that is still processing.
	FinalizePayment(ctx context.Context, payment *models.Payment) error
	GetPayment(ctx context.Context, paymentID string) (*models.Payment, error)
	GetPaymentForMerchant(ctx context.Context, paymentID string, merchantID uuid.UUID) (*models.Payment, error)
	ListPayments(ctx context.Context, merchantID uuid.UUID) ([]*models.Payment, error)

	// IsDuplicateID reports whether err is a primary-key collision on a
	// generated identifier, which callers handle by retrying with a
	// fresh ID.
	IsDuplicateID(err error) bool
}
