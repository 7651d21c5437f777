package card

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/vladislavdragonenkov/checkout/internal/domain"
)

const (
	// SignatureHeader — заголовок подписи уведомлений карточного процессора.
	SignatureHeader = "Gateway-Signature"

	// signatureTolerance ограничивает возраст подписи против replay.
	signatureTolerance = 5 * time.Minute
)

// Типы событий карточного процессора.
const (
	eventIntentSucceeded = "payment_intent.succeeded"
	eventIntentFailed    = "payment_intent.payment_failed"
	eventChargeRefunded  = "charge.refunded"
)

// VerifyWebhook проверяет подпись сырого payload'а по схеме
// `t=<unix>,v1=<hex hmac-sha256("<t>.<body>")>` и извлекает событие.
// Никакое поле не читается до успешной проверки подписи.
func (a *Adapter) VerifyWebhook(header http.Header, body []byte) (domain.WebhookEvent, error) {
	sigHeader := header.Get(SignatureHeader)
	if sigHeader == "" {
		return domain.WebhookEvent{}, fmt.Errorf("%w: missing %s header", domain.ErrWebhookSignature, SignatureHeader)
	}

	ts, signature, err := parseSignatureHeader(sigHeader)
	if err != nil {
		return domain.WebhookEvent{}, err
	}

	if age := time.Since(time.Unix(ts, 0)); age > signatureTolerance || age < -signatureTolerance {
		return domain.WebhookEvent{}, fmt.Errorf("%w: signature timestamp outside tolerance", domain.ErrWebhookSignature)
	}

	mac := hmac.New(sha256.New, []byte(a.cfg.WebhookSecret))
	mac.Write([]byte(strconv.FormatInt(ts, 10)))
	mac.Write([]byte("."))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))

	if !hmac.Equal([]byte(expected), []byte(signature)) {
		return domain.WebhookEvent{}, domain.ErrWebhookSignature
	}

	return a.parseWebhookEvent(body)
}

func parseSignatureHeader(value string) (ts int64, signature string, err error) {
	for _, part := range strings.Split(value, ",") {
		key, val, found := strings.Cut(strings.TrimSpace(part), "=")
		if !found {
			continue
		}
		switch key {
		case "t":
			ts, err = strconv.ParseInt(val, 10, 64)
			if err != nil {
				return 0, "", fmt.Errorf("%w: bad signature timestamp", domain.ErrWebhookSignature)
			}
		case "v1":
			signature = val
		}
	}
	if ts == 0 || signature == "" {
		return 0, "", fmt.Errorf("%w: incomplete signature header", domain.ErrWebhookSignature)
	}
	return ts, signature, nil
}

func (a *Adapter) parseWebhookEvent(body []byte) (domain.WebhookEvent, error) {
	var payload struct {
		ID      string `json:"id"`
		Type    string `json:"type"`
		Created int64  `json:"created"`
		Data    struct {
			Object struct {
				Status   string `json:"status"`
				Metadata struct {
					TrackingNumber string `json:"tracking_number"`
				} `json:"metadata"`
			} `json:"object"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return domain.WebhookEvent{}, fmt.Errorf("%w: %v", domain.ErrWebhookMalformed, err)
	}
	if payload.ID == "" || payload.Type == "" || payload.Data.Object.Metadata.TrackingNumber == "" {
		return domain.WebhookEvent{}, fmt.Errorf("%w: required fields missing", domain.ErrWebhookMalformed)
	}

	var status domain.PaymentStatus
	switch payload.Type {
	case eventIntentSucceeded:
		status = domain.PaymentStatusSuccess
	case eventIntentFailed:
		status = domain.PaymentStatusFailed
	case eventChargeRefunded:
		status = domain.PaymentStatusRefunded
	default:
		return domain.WebhookEvent{}, fmt.Errorf("%w: unsupported event type %q", domain.ErrWebhookMalformed, payload.Type)
	}

	return domain.WebhookEvent{
		Gateway:        a.Name(),
		EventID:        payload.ID,
		Type:           payload.Type,
		TrackingNumber: payload.Data.Object.Metadata.TrackingNumber,
		Status:         status,
		EventTime:      time.Unix(payload.Created, 0).UTC(),
		Raw:            body,
	}, nil
}
