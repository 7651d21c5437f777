package http

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/checkout/internal/domain"
	"github.com/vladislavdragonenkov/checkout/internal/service/checkout"
	"github.com/vladislavdragonenkov/checkout/internal/service/order"
)

// OrderHandler обслуживает REST-ресурс заказов.
type OrderHandler struct {
	orders *order.Service
	logger *log.Entry
}

// NewOrderHandler создаёт обработчик заказов.
func NewOrderHandler(orders *order.Service, logger *log.Entry) *OrderHandler {
	if logger == nil {
		logger = log.WithField("component", "order-handler")
	}
	return &OrderHandler{orders: orders, logger: logger}
}

type createOrderRequest struct {
	CustomerID      string        `json:"customer_id"`
	Items           []cartItemDTO `json:"items"`
	Gateway         string        `json:"gateway"`
	Currency        string        `json:"currency"`
	Language        string        `json:"language"`
	CouponCode      string        `json:"coupon_code"`
	BillingAddress  addressDTO    `json:"billing_address"`
	ShippingAddress addressDTO    `json:"shipping_address"`
	QuoteSignature  string        `json:"quote_signature"`
}

type createOrderResponse struct {
	Order  orderDTO  `json:"order"`
	Intent intentDTO `json:"intent"`
}

// Create обрабатывает POST /api/v1/orders.
func (h *OrderHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	items := make([]checkout.CartItem, 0, len(req.Items))
	for _, item := range req.Items {
		items = append(items, checkout.CartItem{ProductID: item.ProductID, Qty: item.Qty})
	}

	result, err := h.orders.CreateOrder(r.Context(), order.CreateOrderRequest{
		CustomerID:      req.CustomerID,
		Items:           items,
		Gateway:         req.Gateway,
		Currency:        req.Currency,
		Language:        req.Language,
		CouponCode:      req.CouponCode,
		BillingAddress:  req.BillingAddress.toDomain(),
		ShippingAddress: req.ShippingAddress.toDomain(),
		QuoteSignature:  req.QuoteSignature,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, createOrderResponse{
		Order:  orderFromDomain(result.Order),
		Intent: intentFromDomain(result.Intent),
	})
}

// Get обрабатывает GET /api/v1/orders/{id}.
func (h *OrderHandler) Get(w http.ResponseWriter, r *http.Request) {
	o, err := h.orders.Get(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, orderFromDomain(o))
}

// GetByTracking обрабатывает GET /api/v1/orders/tracking/{trackingNumber}.
func (h *OrderHandler) GetByTracking(w http.ResponseWriter, r *http.Request) {
	o, err := h.orders.GetByTracking(chi.URLParam(r, "trackingNumber"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, orderFromDomain(o))
}

// List обрабатывает GET /api/v1/orders с фильтрами customer_id и status.
func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
	filter := domain.OrderFilter{
		CustomerID: r.URL.Query().Get("customer_id"),
		Status:     domain.OrderStatus(r.URL.Query().Get("status")),
	}
	orders, err := h.orders.List(filter)
	if err != nil {
		writeError(w, err)
		return
	}

	dtos := make([]orderDTO, 0, len(orders))
	for _, o := range orders {
		dtos = append(dtos, orderFromDomain(o))
	}
	writeJSON(w, http.StatusOK, map[string]any{"orders": dtos})
}

type updateStatusRequest struct {
	Status string `json:"status"`
	Reason string `json:"reason"`
}

// UpdateStatus обрабатывает PATCH /api/v1/orders/{id}/status.
func (h *OrderHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	var req updateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	o, err := h.orders.UpdateStatus(chi.URLParam(r, "id"), domain.OrderStatus(req.Status), req.Reason)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, orderFromDomain(o))
}

// Timeline обрабатывает GET /api/v1/orders/{id}/timeline.
func (h *OrderHandler) Timeline(w http.ResponseWriter, r *http.Request) {
	events, err := h.orders.Timeline(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}

	dtos := make([]timelineEventDTO, 0, len(events))
	for _, e := range events {
		dtos = append(dtos, timelineEventDTO{Type: e.Type, Reason: e.Reason, OccurredAt: e.OccurredAt})
	}
	writeJSON(w, http.StatusOK, map[string]any{"events": dtos})
}

// Intent обрабатывает GET /api/v1/orders/tracking/{trackingNumber}/intent.
// Параметр recall=true принудительно перечитывает состояние у шлюза.
func (h *OrderHandler) Intent(w http.ResponseWriter, r *http.Request) {
	recall := r.URL.Query().Get("recall") == "true"
	normalized, err := h.orders.PaymentIntent(r.Context(), chi.URLParam(r, "trackingNumber"), recall)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, intentFromDomain(normalized))
}
