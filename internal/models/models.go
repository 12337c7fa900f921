package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type OrderStatus string

const (
	OrderCreated OrderStatus = "created"
	OrderPaid    OrderStatus = "paid"
)

type PaymentStatus string

const (
	PaymentProcessing PaymentStatus = "processing"
	PaymentSuccess    PaymentStatus = "success"
	PaymentFailed     PaymentStatus = "failed"
)

type PaymentMethod string

const (
	MethodUPI  PaymentMethod = "upi"
	MethodCard PaymentMethod = "card"
)

type Merchant struct {
	ID            uuid.UUID
	Name          string
	Email         string
	APIKey        string
	APISecretHash string
	WebhookURL    *string
	IsActive      bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

type Order struct {
	ID         string
	MerchantID uuid.UUID
	Amount     int64
	Currency   string
	Receipt    *string
	Notes      json.RawMessage
	Status     OrderStatus
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Payment keeps only the instrument metadata that is safe to persist:
// the VPA for upi, network plus last four digits for card. The full card
// number and CVV exist only for the duration of one authorization call.
type Payment struct {
	ID               string
	OrderID          string
	MerchantID       uuid.UUID
	Amount           int64
	Currency         string
	Method           PaymentMethod
	Status           PaymentStatus
	VPA              *string
	CardNetwork      *string
	CardLast4        *string
	ErrorCode        *string
	ErrorDescription *string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

type CardDetails struct {
	Number      string `json:"number"`
	ExpiryMonth int    `json:"expiry_month"`
	ExpiryYear  int    `json:"expiry_year"`
	CVV         string `json:"cvv"`
	HolderName  string `json:"holder_name"`
}

type PaymentRequest struct {
	OrderID string        `json:"order_id"`
	Method  PaymentMethod `json:"method"`
	VPA     string        `json:"vpa,omitempty"`
	Card    *CardDetails  `json:"card,omitempty"`
}
