package services

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"paygate/internal/models"
)

func TestCreateOrder(t *testing.T) {
	st := newFakeStore()
	svc := &OrderService{Store: st}
	merchantID := uuid.New()

	t.Run("defaults currency to INR", func(t *testing.T) {
		order, err := svc.Create(context.Background(), merchantID, CreateOrderInput{Amount: 2500})
		if err != nil {
			t.Fatalf("Create: %v", err)
		}
		if order.Currency != "INR" {
			t.Errorf("currency = %q", order.Currency)
		}
		if order.Status != models.OrderCreated {
			t.Errorf("status = %q", order.Status)
		}
		if len(order.ID) != len("order_")+16 {
			t.Errorf("id = %q", order.ID)
		}
	})

	t.Run("amount below minimum", func(t *testing.T) {
		_, err := svc.Create(context.Background(), merchantID, CreateOrderInput{Amount: 99})
		var gerr *GatewayError
		if !errors.As(err, &gerr) || gerr.Code != CodeBadRequest {
			t.Fatalf("expected BAD_REQUEST_ERROR, got %v", err)
		}
	})

	t.Run("bad currency", func(t *testing.T) {
		for _, c := range []string{"IN", "INRR", "in r", "usd"} {
			if _, err := svc.Create(context.Background(), merchantID, CreateOrderInput{Amount: 500, Currency: c}); err == nil {
				t.Errorf("currency %q accepted", c)
			}
		}
	})
}

func TestGetOrder_Ownership(t *testing.T) {
	st := newFakeStore()
	svc := &OrderService{Store: st}
	order := seedOrder(st, 5000)

	if _, err := svc.Get(context.Background(), order.ID, order.MerchantID); err != nil {
		t.Errorf("owner lookup failed: %v", err)
	}
	if _, err := svc.Get(context.Background(), order.ID, uuid.New()); !errors.Is(err, ErrOrderNotFound) {
		t.Errorf("cross-merchant lookup leaked: %v", err)
	}
	if _, err := svc.Get(context.Background(), "order_missing0000000000", order.MerchantID); !errors.Is(err, ErrOrderNotFound) {
		t.Errorf("missing order: %v", err)
	}
	if _, err := svc.GetAny(context.Background(), order.ID); err != nil {
		t.Errorf("public lookup failed: %v", err)
	}
}
