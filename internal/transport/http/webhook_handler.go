package http

import (
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/checkout/internal/domain"
	"github.com/vladislavdragonenkov/checkout/internal/metrics"
	"github.com/vladislavdragonenkov/checkout/internal/service/intent"
	"github.com/vladislavdragonenkov/checkout/internal/service/order"
)

// maxWebhookBody ограничивает размер принимаемого payload'а.
const maxWebhookBody = 1 << 20

// WebhookHandler принимает уведомления платёжных шлюзов, проверяет
// подпись сырого тела и передаёт событие в реконсиляцию.
type WebhookHandler struct {
	orders  *order.Service
	intents *intent.Store
	metrics *metrics.CheckoutMetrics
	logger  *log.Entry
}

// NewWebhookHandler создаёт обработчик вебхуков.
func NewWebhookHandler(orders *order.Service, intents *intent.Store, m *metrics.CheckoutMetrics, logger *log.Entry) *WebhookHandler {
	if logger == nil {
		logger = log.WithField("component", "webhook-handler")
	}
	return &WebhookHandler{orders: orders, intents: intents, metrics: m, logger: logger}
}

// Receive обрабатывает POST /webhooks/{gateway}. Подпись проверяется
// по сырым байтам тела до любого разбора JSON. Повторные и устаревшие
// события подтверждаются 200, чтобы шлюз не ретраил их бесконечно.
func (h *WebhookHandler) Receive(w http.ResponseWriter, r *http.Request) {
	gateway := chi.URLParam(r, "gateway")
	adapter, err := h.intents.Adapter(gateway)
	if err != nil {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "unknown gateway"})
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "unreadable body"})
		return
	}

	event, err := adapter.VerifyWebhook(r.Header, body)
	if err != nil {
		h.record(gateway, "rejected")
		h.logger.WithField("gateway", gateway).WithError(err).Warn("webhook rejected")
		switch {
		case errors.Is(err, domain.ErrWebhookSignature):
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "signature verification failed"})
		case errors.Is(err, domain.ErrWebhookMalformed):
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "malformed payload"})
		default:
			writeError(w, err)
		}
		return
	}

	if err := h.orders.ReconcilePayment(event); err != nil {
		if errors.Is(err, domain.ErrOrderNotFound) {
			h.record(gateway, "unknown_order")
			writeJSON(w, http.StatusNotFound, errorResponse{Error: "order not found"})
			return
		}
		h.record(gateway, "error")
		h.logger.WithFields(log.Fields{
			"gateway":         gateway,
			"tracking_number": event.TrackingNumber,
		}).WithError(err).Error("payment reconciliation failed")
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
		return
	}

	h.record(gateway, "accepted")
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *WebhookHandler) record(gateway, result string) {
	if h.metrics != nil {
		h.metrics.RecordWebhookEvent(gateway, result)
	}
}
