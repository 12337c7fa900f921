package http

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"paygate/internal/models"
	"paygate/internal/services"
	"paygate/internal/simulate"
)

func TestHub_FanOut(t *testing.T) {
	hub := NewHub()
	ch := hub.subscribe("pay_x")
	defer hub.unsubscribe("pay_x", ch)

	hub.PaymentUpdated(&models.Payment{ID: "pay_x", Status: models.PaymentProcessing})
	hub.PaymentUpdated(&models.Payment{ID: "pay_other", Status: models.PaymentSuccess})

	select {
	case p := <-ch:
		if p.ID != "pay_x" || p.Status != models.PaymentProcessing {
			t.Fatalf("got %+v", p)
		}
	default:
		t.Fatal("no update delivered")
	}
	select {
	case p := <-ch:
		t.Fatalf("unexpected update for %s", p.ID)
	default:
	}
}

func TestHub_SlowSubscriberDropped(t *testing.T) {
	hub := NewHub()
	ch := hub.subscribe("pay_x")
	defer hub.unsubscribe("pay_x", ch)

	// fill the buffer and keep publishing; PaymentUpdated must not block
	for i := 0; i < 20; i++ {
		hub.PaymentUpdated(&models.Payment{ID: "pay_x", Status: models.PaymentProcessing})
	}
}

func newStreamServer(t *testing.T) (*httptest.Server, *memStore, *Hub) {
	t.Helper()
	st := newMemStore()
	sim := simulate.New(simulate.Config{TestMode: true, ForcedSuccess: true}, nil)
	feed := NewHub()
	orders := &services.OrderService{Store: st}
	payments := services.NewPaymentService(st, sim, nil, feed)
	h := NewHandler(orders, payments, feed)
	srv := NewServer(h, st, Options{DBHealthy: func(context.Context) bool { return true }})
	ts := httptest.NewServer(srv.Router)
	t.Cleanup(ts.Close)
	return ts, st, feed
}

func dialStream(t *testing.T, ts *httptest.Server, paymentID string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/v1/payments/" + paymentID + "/stream"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial %s: %v", url, err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func seedProcessingPayment(st *memStore) *models.Payment {
	p := &models.Payment{
		ID:         "pay_streamtest00001a",
		OrderID:    "order_streamtest001a",
		MerchantID: uuid.New(),
		Amount:     5000,
		Currency:   "INR",
		Method:     models.MethodUPI,
		Status:     models.PaymentProcessing,
		CreatedAt:  time.Now().UTC(),
		UpdatedAt:  time.Now().UTC(),
	}
	st.mu.Lock()
	st.payments[p.ID] = p
	st.mu.Unlock()
	return p
}

func TestStreamPayment_DeliversTransition(t *testing.T) {
	ts, st, feed := newStreamServer(t)
	p := seedProcessingPayment(st)

	conn := dialStream(t, ts, p.ID)

	var snapshot paymentResponse
	if err := conn.ReadJSON(&snapshot); err != nil {
		t.Fatalf("read snapshot: %v", err)
	}
	if snapshot.Status != "processing" {
		t.Fatalf("snapshot status = %s", snapshot.Status)
	}

	// the terminal transition arrives while the client is connected
	done := *p
	done.Status = models.PaymentSuccess
	st.mu.Lock()
	st.payments[p.ID] = &done
	st.mu.Unlock()
	feed.PaymentUpdated(&done)

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var final paymentResponse
	if err := conn.ReadJSON(&final); err != nil {
		t.Fatalf("read transition: %v", err)
	}
	if final.Status != "success" {
		t.Errorf("final status = %s", final.Status)
	}

	// the server ends the stream after the terminal status
	if _, _, err := conn.ReadMessage(); err == nil {
		t.Error("expected stream to close after terminal status")
	}
}

func TestStreamPayment_TerminalSnapshotClosesImmediately(t *testing.T) {
	ts, st, _ := newStreamServer(t)
	p := seedProcessingPayment(st)
	st.mu.Lock()
	st.payments[p.ID].Status = models.PaymentSuccess
	st.mu.Unlock()

	conn := dialStream(t, ts, p.ID)
	var snapshot paymentResponse
	if err := conn.ReadJSON(&snapshot); err != nil {
		t.Fatalf("read snapshot: %v", err)
	}
	if snapshot.Status != "success" {
		t.Fatalf("snapshot status = %s", snapshot.Status)
	}
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if _, _, err := conn.ReadMessage(); err == nil {
		t.Error("expected stream to close after terminal snapshot")
	}
}

func TestStreamPayment_ClientDisconnectReleasesSubscription(t *testing.T) {
	ts, st, feed := newStreamServer(t)
	p := seedProcessingPayment(st)

	conn := dialStream(t, ts, p.ID)
	var snapshot paymentResponse
	if err := conn.ReadJSON(&snapshot); err != nil {
		t.Fatalf("read snapshot: %v", err)
	}
	conn.Close()

	// the handler notices the dropped connection and unsubscribes
	deadline := time.Now().Add(2 * time.Second)
	for {
		feed.mu.RLock()
		remaining := len(feed.subs[p.ID])
		feed.mu.RUnlock()
		if remaining == 0 {
			return
		}
		if time.Now().After(deadline) {
			t.Fatalf("subscription still held %d subscribers after disconnect", remaining)
		}
		time.Sleep(10 * time.Millisecond)
	}
}
