package wallet

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/checkout/internal/domain"
	"github.com/vladislavdragonenkov/checkout/internal/gateway"
)

const defaultTimeout = 10 * time.Second

// Config — настройки кошелькового процессора.
type Config struct {
	BaseURL      string
	ClientID     string
	ClientSecret string
	// WebhookID и WebhookSecret — параметры проверки подписи уведомлений.
	WebhookID     string
	WebhookSecret string
	// ReturnURLBase — база для return/cancel URL с tracking number.
	ReturnURLBase string
	Timeout       time.Duration
}

// Adapter нормализует redirect-based API кошелькового процессора.
// Процессор принимает JSON, суммы в основных единицах валюты,
// авторизация по OAuth2 client credentials.
type Adapter struct {
	cfg    Config
	client *http.Client
	logger *log.Entry
	retry  gateway.RetryConfig

	tokenMu     sync.Mutex
	accessToken string
	tokenExpiry time.Time
}

// New создаёт адаптер кошелькового шлюза.
func New(cfg Config, logger *log.Entry) *Adapter {
	if logger == nil {
		logger = log.New().WithField("component", "wallet-gateway")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Adapter{
		cfg:    cfg,
		client: &http.Client{Timeout: timeout},
		logger: logger,
		retry:  gateway.DefaultRetryConfig(),
	}
}

// Name возвращает идентификатор шлюза.
func (a *Adapter) Name() string {
	return domain.GatewayWallet
}

// CreateIntent создаёт redirect-based заказ у шлюза. Tracking number
// кладётся и в reference_id, и в return/cancel URL — обоих хватает
// для последующей реконсиляции.
func (a *Adapter) CreateIntent(ctx context.Context, order domain.Order, customer domain.Customer) (domain.NormalizedIntent, error) {
	token, err := a.token(ctx)
	if err != nil {
		return domain.NormalizedIntent{}, err
	}

	payload := map[string]any{
		"intent": "CAPTURE",
		"purchase_units": []map[string]any{{
			"reference_id": order.TrackingNumber,
			"amount": map[string]string{
				"currency_code": strings.ToUpper(order.Currency),
				"value":         minorToDecimal(order.TotalMinor),
			},
		}},
		"application_context": map[string]string{
			"return_url": a.cfg.ReturnURLBase + "/checkout/return?tracking_number=" + url.QueryEscape(order.TrackingNumber),
			"cancel_url": a.cfg.ReturnURLBase + "/checkout/cancel?tracking_number=" + url.QueryEscape(order.TrackingNumber),
		},
	}

	body, err := a.doJSON(ctx, http.MethodPost, "/v2/checkout/orders", token, payload,
		map[string]string{"Request-Id": gateway.IdempotencyKey(order.TrackingNumber)})
	if err != nil {
		return domain.NormalizedIntent{}, err
	}

	return a.parseOrder(body, order.TotalMinor, order.Currency)
}

// RetrieveIntent читает заказ шлюза; идемпотентное чтение выполняется с retry.
func (a *Adapter) RetrieveIntent(ctx context.Context, externalID string) (domain.NormalizedIntent, error) {
	var intent domain.NormalizedIntent
	err := gateway.Do(ctx, a.logger, "retrieve_order", a.retry, func() error {
		token, err := a.token(ctx)
		if err != nil {
			return err
		}
		body, err := a.doJSON(ctx, http.MethodGet, "/v2/checkout/orders/"+url.PathEscape(externalID), token, nil, nil)
		if err != nil {
			return err
		}
		intent, err = a.parseOrder(body, 0, "")
		return err
	})
	return intent, err
}

// token возвращает закэшированный OAuth-токен, обновляя его при истечении.
func (a *Adapter) token(ctx context.Context) (string, error) {
	a.tokenMu.Lock()
	defer a.tokenMu.Unlock()

	if a.accessToken != "" && time.Now().Before(a.tokenExpiry) {
		return a.accessToken, nil
	}

	form := url.Values{}
	form.Set("grant_type", "client_credentials")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.cfg.BaseURL+"/v1/oauth2/token", strings.NewReader(form.Encode()))
	if err != nil {
		return "", domain.NewGatewayError(a.Name(), domain.GatewayErrValidation, "build token request", err)
	}
	req.SetBasicAuth(a.cfg.ClientID, a.cfg.ClientSecret)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	body, err := a.execute(req)
	if err != nil {
		return "", err
	}

	var token struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int64  `json:"expires_in"`
	}
	if err := json.Unmarshal(body, &token); err != nil || token.AccessToken == "" {
		return "", domain.NewGatewayError(a.Name(), domain.GatewayErrAuth, "malformed token response", err)
	}

	a.accessToken = token.AccessToken
	// Обновляем чуть раньше фактического истечения.
	a.tokenExpiry = time.Now().Add(time.Duration(token.ExpiresIn)*time.Second - 30*time.Second)
	return a.accessToken, nil
}

func (a *Adapter) doJSON(ctx context.Context, method, path, token string, payload any, extra map[string]string) ([]byte, error) {
	var body io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return nil, domain.NewGatewayError(a.Name(), domain.GatewayErrValidation, "encode request", err)
		}
		body = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, a.cfg.BaseURL+path, body)
	if err != nil {
		return nil, domain.NewGatewayError(a.Name(), domain.GatewayErrValidation, "build request", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for key, value := range extra {
		req.Header.Set(key, value)
	}

	return a.execute(req)
}

// execute выполняет запрос и переводит любой сбой в GatewayError.
func (a *Adapter) execute(req *http.Request) ([]byte, error) {
	resp, err := a.client.Do(req)
	if err != nil {
		code := domain.GatewayErrNetwork
		if req.Context().Err() != nil {
			code = domain.GatewayErrTimeout
		}
		return nil, domain.NewGatewayError(a.Name(), code, "request failed", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, domain.NewGatewayError(a.Name(), domain.GatewayErrNetwork, "read response", err)
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return body, nil
	}

	var apiErr struct {
		Name    string `json:"name"`
		Message string `json:"message"`
	}
	_ = json.Unmarshal(body, &apiErr)

	message := apiErr.Message
	if message == "" {
		message = fmt.Sprintf("unexpected status %d", resp.StatusCode)
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, domain.NewGatewayError(a.Name(), domain.GatewayErrAuth, message, nil)
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		return nil, domain.NewGatewayError(a.Name(), domain.GatewayErrValidation, message, nil)
	default:
		return nil, domain.NewGatewayError(a.Name(), domain.GatewayErrProvider, message, nil)
	}
}

func (a *Adapter) parseOrder(body []byte, fallbackAmount int64, fallbackCurrency string) (domain.NormalizedIntent, error) {
	var payload struct {
		ID            string `json:"id"`
		Status        string `json:"status"`
		PurchaseUnits []struct {
			Amount struct {
				CurrencyCode string `json:"currency_code"`
				Value        string `json:"value"`
			} `json:"amount"`
		} `json:"purchase_units"`
		Links []struct {
			Rel  string `json:"rel"`
			Href string `json:"href"`
		} `json:"links"`
	}
	if err := json.Unmarshal(body, &payload); err != nil || payload.ID == "" {
		return domain.NormalizedIntent{}, domain.NewGatewayError(a.Name(), domain.GatewayErrProvider, "malformed order response", err)
	}

	intent := domain.NormalizedIntent{
		ID:          payload.ID,
		Status:      payload.Status,
		AmountMinor: fallbackAmount,
		Currency:    strings.ToUpper(fallbackCurrency),
		Raw:         body,
	}
	if len(payload.PurchaseUnits) > 0 {
		unit := payload.PurchaseUnits[0]
		if amount, err := decimalToMinor(unit.Amount.Value); err == nil {
			intent.AmountMinor = amount
		}
		if unit.Amount.CurrencyCode != "" {
			intent.Currency = unit.Amount.CurrencyCode
		}
	}
	for _, link := range payload.Links {
		if link.Rel == "approve" {
			intent.RedirectOrSecret = link.Href
			break
		}
	}

	return intent, nil
}

// minorToDecimal переводит минимальные единицы в строку основных единиц
// на границе с шлюзом (внутри всё хранится целыми).
func minorToDecimal(minor int64) string {
	sign := ""
	if minor < 0 {
		sign = "-"
		minor = -minor
	}
	return fmt.Sprintf("%s%d.%02d", sign, minor/100, minor%100)
}

func decimalToMinor(value string) (int64, error) {
	whole, frac, _ := strings.Cut(value, ".")
	var minor int64
	if _, err := fmt.Sscanf(whole, "%d", &minor); err != nil {
		return 0, fmt.Errorf("parse amount %q: %w", value, err)
	}
	minor *= 100
	if frac != "" {
		if len(frac) > 2 {
			frac = frac[:2]
		}
		for len(frac) < 2 {
			frac += "0"
		}
		var cents int64
		if _, err := fmt.Sscanf(frac, "%d", &cents); err != nil {
			return 0, fmt.Errorf("parse amount fraction %q: %w", value, err)
		}
		if minor < 0 {
			minor -= cents
		} else {
			minor += cents
		}
	}
	return minor, nil
}

var _ domain.GatewayAdapter = (*Adapter)(nil)
