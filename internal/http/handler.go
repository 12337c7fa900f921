package http

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"paygate/internal/models"
	"paygate/internal/services"
)

type Handler struct {
	Orders   *services.OrderService
	Payments *services.PaymentService
	Feed     *Hub
}

func NewHandler(orders *services.OrderService, payments *services.PaymentService, feed *Hub) *Handler {
	return &Handler{Orders: orders, Payments: payments, Feed: feed}
}

type createOrderRequest struct {
	Amount   int64           `json:"amount"`
	Currency string          `json:"currency"`
	Receipt  *string         `json:"receipt,omitempty"`
	Notes    json.RawMessage `json:"notes,omitempty"`
}

type orderResponse struct {
	ID         string          `json:"id"`
	MerchantID string          `json:"merchant_id"`
	Amount     int64           `json:"amount"`
	Currency   string          `json:"currency"`
	Receipt    *string         `json:"receipt,omitempty"`
	Notes      json.RawMessage `json:"notes,omitempty"`
	Status     string          `json:"status"`
	CreatedAt  string          `json:"created_at"`
}

type paymentResponse struct {
	ID               string  `json:"id"`
	OrderID          string  `json:"order_id"`
	MerchantID       string  `json:"merchant_id"`
	Amount           int64   `json:"amount"`
	Currency         string  `json:"currency"`
	Method           string  `json:"method"`
	Status           string  `json:"status"`
	VPA              *string `json:"vpa,omitempty"`
	CardNetwork      *string `json:"card_network,omitempty"`
	CardLast4        *string `json:"card_last4,omitempty"`
	ErrorCode        *string `json:"error_code,omitempty"`
	ErrorDescription *string `json:"error_description,omitempty"`
	CreatedAt        string  `json:"created_at"`
}

func orderResponseFrom(o *models.Order) orderResponse {
	return orderResponse{
		ID:         o.ID,
		MerchantID: o.MerchantID.String(),
		Amount:     o.Amount,
		Currency:   o.Currency,
		Receipt:    o.Receipt,
		Notes:      o.Notes,
		Status:     string(o.Status),
		CreatedAt:  o.CreatedAt.Format(time.RFC3339),
	}
}

func paymentResponseFrom(p *models.Payment) paymentResponse {
	return paymentResponse{
		ID:               p.ID,
		OrderID:          p.OrderID,
		MerchantID:       p.MerchantID.String(),
		Amount:           p.Amount,
		Currency:         p.Currency,
		Method:           string(p.Method),
		Status:           string(p.Status),
		VPA:              p.VPA,
		CardNetwork:      p.CardNetwork,
		CardLast4:        p.CardLast4,
		ErrorCode:        p.ErrorCode,
		ErrorDescription: p.ErrorDescription,
		CreatedAt:        p.CreatedAt.Format(time.RFC3339),
	}
}

func (h *Handler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	var req createOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, services.CodeBadRequest, "invalid json body")
		return
	}

	merchant := merchantFrom(r)
	order, err := h.Orders.Create(r.Context(), merchant.ID, services.CreateOrderInput{
		Amount:   req.Amount,
		Currency: req.Currency,
		Receipt:  req.Receipt,
		Notes:    req.Notes,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, orderResponseFrom(order))
}

func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	merchant := merchantFrom(r)
	order, err := h.Orders.Get(r.Context(), chi.URLParam(r, "orderId"), merchant.ID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, orderResponseFrom(order))
}

func (h *Handler) ListOrders(w http.ResponseWriter, r *http.Request) {
	merchant := merchantFrom(r)
	orders, err := h.Orders.List(r.Context(), merchant.ID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	out := make([]orderResponse, 0, len(orders))
	for _, o := range orders {
		out = append(out, orderResponseFrom(o))
	}
	writeJSON(w, http.StatusOK, out)
}

// CreatePayment is the private (merchant-authenticated) authorization
// endpoint. The order lookup is merchant-scoped.
func (h *Handler) CreatePayment(w http.ResponseWriter, r *http.Request) {
	var req models.PaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, services.CodeBadRequest, "invalid json body")
		return
	}

	merchant := merchantFrom(r)
	order, err := h.Orders.Get(r.Context(), req.OrderID, merchant.ID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	h.authorize(w, r, order, &req)
}

// CreatePublicPayment serves the hosted checkout page, which holds an
// order ID but no API credentials.
func (h *Handler) CreatePublicPayment(w http.ResponseWriter, r *http.Request) {
	var req models.PaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, services.CodeBadRequest, "invalid json body")
		return
	}

	order, err := h.Orders.GetAny(r.Context(), req.OrderID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	h.authorize(w, r, order, &req)
}

func (h *Handler) authorize(w http.ResponseWriter, r *http.Request, order *models.Order, req *models.PaymentRequest) {
	payment, err := h.Payments.Authorize(r.Context(), order, req)
	if err != nil {
		// validation failures are error responses even though the
		// failed payment record was persisted
		writeServiceError(w, err)
		return
	}
	// includes the simulated-decline case: a terminal failed payment is
	// a normal response body, not an error
	writeJSON(w, http.StatusCreated, paymentResponseFrom(payment))
}

func (h *Handler) GetPayment(w http.ResponseWriter, r *http.Request) {
	merchant := merchantFrom(r)
	payment, err := h.Payments.Get(r.Context(), chi.URLParam(r, "paymentId"), merchant.ID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, paymentResponseFrom(payment))
}

func (h *Handler) GetPublicPayment(w http.ResponseWriter, r *http.Request) {
	payment, err := h.Payments.GetAny(r.Context(), chi.URLParam(r, "paymentId"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, paymentResponseFrom(payment))
}

func (h *Handler) ListPayments(w http.ResponseWriter, r *http.Request) {
	merchant := merchantFrom(r)
	payments, err := h.Payments.List(r.Context(), merchant.ID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	out := make([]paymentResponse, 0, len(payments))
	for _, p := range payments {
		out = append(out, paymentResponseFrom(p))
	}
	writeJSON(w, http.StatusOK, out)
}
