package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/vladislavdragonenkov/checkout/internal/domain"
)

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		_ = json.NewEncoder(w).Encode(payload)
	}
}

// writeError переводит доменную ошибку в HTTP-статус. Неопознанные
// ошибки не раскрывают деталей наружу.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrOrderNotFound),
		errors.Is(err, domain.ErrProductNotFound),
		errors.Is(err, domain.ErrCustomerNotFound),
		errors.Is(err, domain.ErrIntentNotFound),
		errors.Is(err, domain.ErrStatusNotFound),
		errors.Is(err, domain.ErrCouponNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: err.Error()})
	case errors.Is(err, domain.ErrStaleQuote), errors.Is(err, domain.ErrQuoteNotFound):
		writeJSON(w, http.StatusConflict, errorResponse{Error: err.Error(), Code: "stale_quote"})
	case errors.Is(err, domain.ErrOrderVersionConflict),
		errors.Is(err, domain.ErrOrderExists),
		errors.Is(err, domain.ErrIntentConflict),
		errors.Is(err, domain.ErrStatusSlugConflict):
		writeJSON(w, http.StatusConflict, errorResponse{Error: err.Error()})
	case errors.Is(err, domain.ErrInvalidTransition), errors.Is(err, domain.ErrOrderFrozen):
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: err.Error()})
	case domain.IsCouponError(err), errors.Is(err, domain.ErrProductUnavailable):
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: err.Error()})
	case isValidationError(err):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
	default:
		if ge, ok := domain.IsGatewayError(err); ok {
			writeJSON(w, http.StatusBadGateway, errorResponse{Error: ge.Error(), Code: ge.Code})
			return
		}
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
	}
}

func isValidationError(err error) bool {
	return errors.Is(err, domain.ErrCustomerRequired) ||
		errors.Is(err, domain.ErrTrackingNumberRequired) ||
		errors.Is(err, domain.ErrCurrencyRequired) ||
		errors.Is(err, domain.ErrGatewayRequired) ||
		errors.Is(err, domain.ErrItemsRequired) ||
		errors.Is(err, domain.ErrItemQtyInvalid) ||
		errors.Is(err, domain.ErrItemPriceInvalid) ||
		errors.Is(err, domain.ErrStatusNameRequired) ||
		errors.Is(err, domain.ErrStatusSlugRequired)
}
