package http

import (
	"encoding/json"
	"net/http"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/checkout/internal/domain"
	"github.com/vladislavdragonenkov/checkout/internal/service/checkout"
)

// CheckoutHandler обслуживает предоплатную проверку корзины.
type CheckoutHandler struct {
	verifier *checkout.Verifier
	logger   *log.Entry
}

// NewCheckoutHandler создаёт обработчик проверки корзины.
func NewCheckoutHandler(verifier *checkout.Verifier, logger *log.Entry) *CheckoutHandler {
	if logger == nil {
		logger = log.WithField("component", "checkout-handler")
	}
	return &CheckoutHandler{verifier: verifier, logger: logger}
}

type verifyRequest struct {
	CustomerID  string        `json:"customer_id"`
	Items       []cartItemDTO `json:"items"`
	Destination addressDTO    `json:"destination"`
	CouponCode  string        `json:"coupon_code"`
}

// Verify обрабатывает POST /api/v1/checkout/verify: пересчитывает
// корзину по каталогу и возвращает подписанную котировку.
func (h *CheckoutHandler) Verify(w http.ResponseWriter, r *http.Request) {
	var req verifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	items := make([]checkout.CartItem, 0, len(req.Items))
	for _, item := range req.Items {
		items = append(items, checkout.CartItem{ProductID: item.ProductID, Qty: item.Qty})
	}

	dest := domain.Destination{
		Country: req.Destination.Country,
		State:   req.Destination.State,
		City:    req.Destination.City,
		Zip:     req.Destination.Zip,
	}

	quote, err := h.verifier.Verify(r.Context(), req.CustomerID, items, dest, req.CouponCode)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, quoteFromDomain(quote))
}
