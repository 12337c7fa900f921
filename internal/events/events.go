// Package events publishes payment status transitions to NATS so
// downstream consumers (webhook dispatchers, dashboards) can react
// without polling the store.
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"

	"paygate/internal/models"
)

type PaymentEvent struct {
	EventID    string    `json:"event_id"`
	PaymentID  string    `json:"payment_id"`
	OrderID    string    `json:"order_id"`
	MerchantID string    `json:"merchant_id"`
	Amount     int64     `json:"amount"`
	Currency   string    `json:"currency"`
	Method     string    `json:"method"`
	Status     string    `json:"status"`
	ErrorCode  string    `json:"error_code,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

type Publisher struct {
	conn *nats.Conn
}

func Connect(url string) (*Publisher, error) {
	conn, err := nats.Connect(url)
	if err != nil {
		return nil, err
	}
	return &Publisher{conn: conn}, nil
}

func (p *Publisher) Close() {
	if p.conn != nil {
		p.conn.Close()
	}
}

// PaymentStatusChanged publishes to payments.<status>.
func (p *Publisher) PaymentStatusChanged(_ context.Context, payment *models.Payment) error {
	ev := PaymentEvent{
		EventID:    uuid.NewString(),
		PaymentID:  payment.ID,
		OrderID:    payment.OrderID,
		MerchantID: payment.MerchantID.String(),
		Amount:     payment.Amount,
		Currency:   payment.Currency,
		Method:     string(payment.Method),
		Status:     string(payment.Status),
		OccurredAt: time.Now().UTC(),
	}
	if payment.ErrorCode != nil {
		ev.ErrorCode = *payment.ErrorCode
	}
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return p.conn.Publish("payments."+string(payment.Status), data)
}
