package http

import (
	"log"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"paygate/internal/models"
)

// Hub fans payment status transitions out to WebSocket subscribers. The
// checkout page subscribes to one payment and watches it move from
// processing to its terminal status instead of polling.
type Hub struct {
	mu   sync.RWMutex
	subs map[string]map[chan *models.Payment]struct{}
}

func NewHub() *Hub {
	return &Hub{subs: make(map[string]map[chan *models.Payment]struct{})}
}

// PaymentUpdated implements services.StatusNotifier. Slow subscribers are
// skipped rather than blocking the authorization path.
func (h *Hub) PaymentUpdated(p *models.Payment) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for ch := range h.subs[p.ID] {
		cp := *p
		select {
		case ch <- &cp:
		default:
		}
	}
}

func (h *Hub) subscribe(paymentID string) chan *models.Payment {
	ch := make(chan *models.Payment, 4)
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.subs[paymentID] == nil {
		h.subs[paymentID] = make(map[chan *models.Payment]struct{})
	}
	h.subs[paymentID][ch] = struct{}{}
	return ch
}

func (h *Hub) unsubscribe(paymentID string, ch chan *models.Payment) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.subs[paymentID], ch)
	if len(h.subs[paymentID]) == 0 {
		delete(h.subs, paymentID)
	}
}

var upgrader = websocket.Upgrader{
	// the public checkout page connects cross-origin; merchant scoping
	// does not apply to the stream, same as the public status poll
	CheckOrigin: func(r *http.Request) bool { return true },
}

func (h *Handler) StreamPayment(w http.ResponseWriter, r *http.Request) {
	paymentID := chi.URLParam(r, "paymentId")
	if _, err := h.Payments.GetAny(r.Context(), paymentID); err != nil {
		writeServiceError(w, err)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	// Subscribe before reading the snapshot so a transition landing
	// between the two is buffered on the channel rather than lost.
	ch := h.Feed.subscribe(paymentID)
	defer h.Feed.unsubscribe(paymentID, ch)

	payment, err := h.Payments.GetAny(r.Context(), paymentID)
	if err != nil {
		return
	}
	if err := conn.WriteJSON(paymentResponseFrom(payment)); err != nil {
		return
	}
	if payment.Status != models.PaymentProcessing {
		return
	}

	// The upgrade hijacked the connection, so r.Context() no longer
	// fires on disconnect. The read pump is what notices the client
	// going away.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-closed:
			return
		case <-r.Context().Done():
			return
		case p := <-ch:
			if err := conn.WriteJSON(paymentResponseFrom(p)); err != nil {
				return
			}
			if p.Status != models.PaymentProcessing {
				return
			}
		}
	}
}
