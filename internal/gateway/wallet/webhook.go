package wallet

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"hash/crc32"
	"net/http"
	"time"

	"github.com/vladislavdragonenkov/checkout/internal/domain"
)

// Заголовки передачи уведомлений кошелькового процессора.
const (
	TransmissionIDHeader   = "Wallet-Transmission-Id"
	TransmissionTimeHeader = "Wallet-Transmission-Time"
	TransmissionSigHeader  = "Wallet-Transmission-Sig"
)

// Типы событий кошелькового процессора.
const (
	eventCaptureCompleted = "PAYMENT.CAPTURE.COMPLETED"
	eventCaptureDenied    = "PAYMENT.CAPTURE.DENIED"
	eventCaptureRefunded  = "PAYMENT.CAPTURE.REFUNDED"
)

// VerifyWebhook проверяет подпись по документированной схеме процессора:
// HMAC-SHA256 над строкой `<transmission-id>|<transmission-time>|<webhook-id>|<crc32(body)>`.
// Никакое поле payload'а не читается до успешной проверки.
func (a *Adapter) VerifyWebhook(header http.Header, body []byte) (domain.WebhookEvent, error) {
	transmissionID := header.Get(TransmissionIDHeader)
	transmissionTime := header.Get(TransmissionTimeHeader)
	signature := header.Get(TransmissionSigHeader)
	if transmissionID == "" || transmissionTime == "" || signature == "" {
		return domain.WebhookEvent{}, fmt.Errorf("%w: missing transmission headers", domain.ErrWebhookSignature)
	}

	base := fmt.Sprintf("%s|%s|%s|%d", transmissionID, transmissionTime, a.cfg.WebhookID, crc32.ChecksumIEEE(body))
	mac := hmac.New(sha256.New, []byte(a.cfg.WebhookSecret))
	mac.Write([]byte(base))
	expected := hex.EncodeToString(mac.Sum(nil))

	if !hmac.Equal([]byte(expected), []byte(signature)) {
		return domain.WebhookEvent{}, domain.ErrWebhookSignature
	}

	return a.parseWebhookEvent(body)
}

func (a *Adapter) parseWebhookEvent(body []byte) (domain.WebhookEvent, error) {
	var payload struct {
		ID         string `json:"id"`
		EventType  string `json:"event_type"`
		CreateTime string `json:"create_time"`
		Resource   struct {
			ReferenceID   string `json:"reference_id"`
			PurchaseUnits []struct {
				ReferenceID string `json:"reference_id"`
			} `json:"purchase_units"`
		} `json:"resource"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return domain.WebhookEvent{}, fmt.Errorf("%w: %v", domain.ErrWebhookMalformed, err)
	}

	tracking := payload.Resource.ReferenceID
	if tracking == "" && len(payload.Resource.PurchaseUnits) > 0 {
		tracking = payload.Resource.PurchaseUnits[0].ReferenceID
	}
	if payload.ID == "" || payload.EventType == "" || tracking == "" {
		return domain.WebhookEvent{}, fmt.Errorf("%w: required fields missing", domain.ErrWebhookMalformed)
	}

	var status domain.PaymentStatus
	switch payload.EventType {
	case eventCaptureCompleted:
		status = domain.PaymentStatusSuccess
	case eventCaptureDenied:
		status = domain.PaymentStatusFailed
	case eventCaptureRefunded:
		status = domain.PaymentStatusRefunded
	default:
		return domain.WebhookEvent{}, fmt.Errorf("%w: unsupported event type %q", domain.ErrWebhookMalformed, payload.EventType)
	}

	eventTime, err := time.Parse(time.RFC3339, payload.CreateTime)
	if err != nil {
		return domain.WebhookEvent{}, fmt.Errorf("%w: bad create_time", domain.ErrWebhookMalformed)
	}

	return domain.WebhookEvent{
		Gateway:        a.Name(),
		EventID:        payload.ID,
		Type:           payload.EventType,
		TrackingNumber: tracking,
		Status:         status,
		EventTime:      eventTime.UTC(),
		Raw:            body,
	}, nil
}
