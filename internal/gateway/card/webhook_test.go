package card

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"testing"
	"time"

	"github.com/vladislavdragonenkov/checkout/internal/domain"
)

const testSecret = "whsec_test"

func signBody(secret string, ts int64, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(strconv.FormatInt(ts, 10)))
	mac.Write([]byte("."))
	mac.Write(body)
	return fmt.Sprintf("t=%d,v1=%s", ts, hex.EncodeToString(mac.Sum(nil)))
}

func signedHeader(body []byte) http.Header {
	h := http.Header{}
	h.Set(SignatureHeader, signBody(testSecret, time.Now().Unix(), body))
	return h
}

func TestVerifyWebhook(t *testing.T) {
	a := New(Config{WebhookSecret: testSecret}, nil)
	body := []byte(`{
		"id": "evt_1",
		"type": "payment_intent.succeeded",
		"created": 1700000000,
		"data": {"object": {"status": "succeeded", "metadata": {"tracking_number": "CHK-ABC123"}}}
	}`)

	event, err := a.VerifyWebhook(signedHeader(body), body)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if event.Gateway != domain.GatewayCard {
		t.Fatalf("gateway = %s", event.Gateway)
	}
	if event.EventID != "evt_1" {
		t.Fatalf("event id = %s", event.EventID)
	}
	if event.TrackingNumber != "CHK-ABC123" {
		t.Fatalf("tracking = %s", event.TrackingNumber)
	}
	if event.Status != domain.PaymentStatusSuccess {
		t.Fatalf("status = %s", event.Status)
	}
	if !event.EventTime.Equal(time.Unix(1700000000, 0)) {
		t.Fatalf("event time = %v", event.EventTime)
	}
}

func TestVerifyWebhook_EventTypes(t *testing.T) {
	a := New(Config{WebhookSecret: testSecret}, nil)
	cases := []struct {
		eventType string
		want      domain.PaymentStatus
	}{
		{"payment_intent.succeeded", domain.PaymentStatusSuccess},
		{"payment_intent.payment_failed", domain.PaymentStatusFailed},
		{"charge.refunded", domain.PaymentStatusRefunded},
	}
	for _, tc := range cases {
		body := []byte(fmt.Sprintf(
			`{"id":"evt_1","type":%q,"created":1700000000,"data":{"object":{"metadata":{"tracking_number":"CHK-1"}}}}`,
			tc.eventType))
		event, err := a.VerifyWebhook(signedHeader(body), body)
		if err != nil {
			t.Fatalf("%s: %v", tc.eventType, err)
		}
		if event.Status != tc.want {
			t.Fatalf("%s: status = %s, want %s", tc.eventType, event.Status, tc.want)
		}
	}
}

func TestVerifyWebhook_BadSignature(t *testing.T) {
	a := New(Config{WebhookSecret: testSecret}, nil)
	body := []byte(`{"id":"evt_1","type":"payment_intent.succeeded","data":{"object":{"metadata":{"tracking_number":"CHK-1"}}}}`)

	cases := []struct {
		name   string
		header http.Header
	}{
		{"missing header", http.Header{}},
		{"wrong secret", func() http.Header {
			h := http.Header{}
			h.Set(SignatureHeader, signBody("whsec_other", time.Now().Unix(), body))
			return h
		}()},
		{"tampered body", signedHeader([]byte(`{"id":"evt_2"}`))},
		{"garbage header", func() http.Header {
			h := http.Header{}
			h.Set(SignatureHeader, "not-a-signature")
			return h
		}()},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := a.VerifyWebhook(tc.header, body); !errors.Is(err, domain.ErrWebhookSignature) {
				t.Fatalf("got %v, want ErrWebhookSignature", err)
			}
		})
	}
}

// Подпись старше допуска отклоняется даже с верным HMAC.
func TestVerifyWebhook_StaleTimestamp(t *testing.T) {
	a := New(Config{WebhookSecret: testSecret}, nil)
	body := []byte(`{"id":"evt_1","type":"payment_intent.succeeded","data":{"object":{"metadata":{"tracking_number":"CHK-1"}}}}`)

	h := http.Header{}
	h.Set(SignatureHeader, signBody(testSecret, time.Now().Add(-10*time.Minute).Unix(), body))
	if _, err := a.VerifyWebhook(h, body); !errors.Is(err, domain.ErrWebhookSignature) {
		t.Fatalf("got %v, want ErrWebhookSignature", err)
	}
}

func TestVerifyWebhook_Malformed(t *testing.T) {
	a := New(Config{WebhookSecret: testSecret}, nil)

	cases := []struct {
		name string
		body []byte
	}{
		{"broken json", []byte(`{not json`)},
		{"missing tracking", []byte(`{"id":"evt_1","type":"payment_intent.succeeded","data":{"object":{}}}`)},
		{"unknown event type", []byte(`{"id":"evt_1","type":"customer.created","data":{"object":{"metadata":{"tracking_number":"CHK-1"}}}}`)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := a.VerifyWebhook(signedHeader(tc.body), tc.body); !errors.Is(err, domain.ErrWebhookMalformed) {
				t.Fatalf("got %v, want ErrWebhookMalformed", err)
			}
		})
	}
}
