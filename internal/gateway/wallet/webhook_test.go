package wallet

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"hash/crc32"
	"net/http"
	"testing"

	"github.com/vladislavdragonenkov/checkout/internal/domain"
)

var testConfig = Config{
	WebhookID:     "wh-42",
	WebhookSecret: "wallet-secret",
}

func signedHeader(cfg Config, body []byte) http.Header {
	const (
		transmissionID   = "tx-0001"
		transmissionTime = "2026-01-15T10:00:00Z"
	)
	base := fmt.Sprintf("%s|%s|%s|%d", transmissionID, transmissionTime, cfg.WebhookID, crc32.ChecksumIEEE(body))
	mac := hmac.New(sha256.New, []byte(cfg.WebhookSecret))
	mac.Write([]byte(base))

	h := http.Header{}
	h.Set(TransmissionIDHeader, transmissionID)
	h.Set(TransmissionTimeHeader, transmissionTime)
	h.Set(TransmissionSigHeader, hex.EncodeToString(mac.Sum(nil)))
	return h
}

func TestVerifyWebhook(t *testing.T) {
	a := New(testConfig, nil)
	body := []byte(`{
		"id": "WH-1",
		"event_type": "PAYMENT.CAPTURE.COMPLETED",
		"create_time": "2026-01-15T10:00:00Z",
		"resource": {"reference_id": "CHK-ABC123"}
	}`)

	event, err := a.VerifyWebhook(signedHeader(testConfig, body), body)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if event.Gateway != domain.GatewayWallet {
		t.Fatalf("gateway = %s", event.Gateway)
	}
	if event.TrackingNumber != "CHK-ABC123" {
		t.Fatalf("tracking = %s", event.TrackingNumber)
	}
	if event.Status != domain.PaymentStatusSuccess {
		t.Fatalf("status = %s", event.Status)
	}
	if event.EventTime.Format("2006-01-02") != "2026-01-15" {
		t.Fatalf("event time = %v", event.EventTime)
	}
}

// tracking number может прийти и в purchase_units.
func TestVerifyWebhook_PurchaseUnitsReference(t *testing.T) {
	a := New(testConfig, nil)
	body := []byte(`{
		"id": "WH-2",
		"event_type": "PAYMENT.CAPTURE.DENIED",
		"create_time": "2026-01-15T10:00:00Z",
		"resource": {"purchase_units": [{"reference_id": "CHK-XYZ"}]}
	}`)

	event, err := a.VerifyWebhook(signedHeader(testConfig, body), body)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if event.TrackingNumber != "CHK-XYZ" {
		t.Fatalf("tracking = %s", event.TrackingNumber)
	}
	if event.Status != domain.PaymentStatusFailed {
		t.Fatalf("status = %s", event.Status)
	}
}

func TestVerifyWebhook_BadSignature(t *testing.T) {
	a := New(testConfig, nil)
	body := []byte(`{"id":"WH-1","event_type":"PAYMENT.CAPTURE.COMPLETED","create_time":"2026-01-15T10:00:00Z","resource":{"reference_id":"CHK-1"}}`)

	t.Run("missing headers", func(t *testing.T) {
		if _, err := a.VerifyWebhook(http.Header{}, body); !errors.Is(err, domain.ErrWebhookSignature) {
			t.Fatalf("got %v, want ErrWebhookSignature", err)
		}
	})

	t.Run("wrong webhook id", func(t *testing.T) {
		other := testConfig
		other.WebhookID = "wh-other"
		if _, err := a.VerifyWebhook(signedHeader(other, body), body); !errors.Is(err, domain.ErrWebhookSignature) {
			t.Fatalf("got %v, want ErrWebhookSignature", err)
		}
	})

	t.Run("tampered body", func(t *testing.T) {
		header := signedHeader(testConfig, []byte(`{"id":"WH-9"}`))
		if _, err := a.VerifyWebhook(header, body); !errors.Is(err, domain.ErrWebhookSignature) {
			t.Fatalf("got %v, want ErrWebhookSignature", err)
		}
	})
}

func TestVerifyWebhook_Malformed(t *testing.T) {
	a := New(testConfig, nil)

	cases := []struct {
		name string
		body []byte
	}{
		{"broken json", []byte(`[`)},
		{"missing reference", []byte(`{"id":"WH-1","event_type":"PAYMENT.CAPTURE.COMPLETED","create_time":"2026-01-15T10:00:00Z","resource":{}}`)},
		{"unknown event type", []byte(`{"id":"WH-1","event_type":"CHECKOUT.ORDER.APPROVED","create_time":"2026-01-15T10:00:00Z","resource":{"reference_id":"CHK-1"}}`)},
		{"bad create_time", []byte(`{"id":"WH-1","event_type":"PAYMENT.CAPTURE.REFUNDED","create_time":"yesterday","resource":{"reference_id":"CHK-1"}}`)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := a.VerifyWebhook(signedHeader(testConfig, tc.body), tc.body); !errors.Is(err, domain.ErrWebhookMalformed) {
				t.Fatalf("got %v, want ErrWebhookMalformed", err)
			}
		})
	}
}
