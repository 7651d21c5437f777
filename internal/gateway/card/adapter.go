package card

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/checkout/internal/domain"
	"github.com/vladislavdragonenkov/checkout/internal/gateway"
)

const defaultTimeout = 10 * time.Second

// Config — настройки карточного процессора.
type Config struct {
	BaseURL string
	// SecretKey — Bearer-ключ API.
	SecretKey string
	// WebhookSecret — ключ HMAC подписи уведомлений.
	WebhookSecret string
	Timeout       time.Duration
}

// Adapter нормализует API карточного процессора в domain.GatewayAdapter.
// Процессор принимает form-encoded запросы, суммы в минимальных единицах.
type Adapter struct {
	cfg    Config
	client *http.Client
	logger *log.Entry
	retry  gateway.RetryConfig
}

// New создаёт адаптер карточного шлюза.
func New(cfg Config, logger *log.Entry) *Adapter {
	if logger == nil {
		logger = log.New().WithField("component", "card-gateway")
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
	return domain.GatewayCard
}

// CreateIntent находит или создаёт клиента шлюза по email и создаёт интент.
// Ключ идемпотентности детерминирован от tracking number: повтор после
// таймаута не создаст второй ресурс на стороне шлюза.
func (a *Adapter) CreateIntent(ctx context.Context, order domain.Order, customer domain.Customer) (domain.NormalizedIntent, error) {
	customerID, err := a.findOrCreateCustomer(ctx, customer)
	if err != nil {
		return domain.NormalizedIntent{}, err
	}

	form := url.Values{}
	form.Set("amount", strconv.FormatInt(order.TotalMinor, 10))
	form.Set("currency", strings.ToLower(order.Currency))
	form.Set("customer", customerID)
	form.Set("metadata[tracking_number]", order.TrackingNumber)

	req, err := a.newRequest(ctx, http.MethodPost, "/v1/payment_intents", form)
	if err != nil {
		return domain.NormalizedIntent{}, err
	}
	req.Header.Set("Idempotency-Key", gateway.IdempotencyKey(order.TrackingNumber))

	body, err := a.do(req)
	if err != nil {
		return domain.NormalizedIntent{}, err
	}

	return a.parseIntent(body)
}

// RetrieveIntent читает интент; как идемпотентное чтение выполняется с retry.
func (a *Adapter) RetrieveIntent(ctx context.Context, externalID string) (domain.NormalizedIntent, error) {
	var intent domain.NormalizedIntent
	err := gateway.Do(ctx, a.logger, "retrieve_intent", a.retry, func() error {
		req, err := a.newRequest(ctx, http.MethodGet, "/v1/payment_intents/"+url.PathEscape(externalID), nil)
		if err != nil {
			return err
		}
		body, err := a.do(req)
		if err != nil {
			return err
		}
		intent, err = a.parseIntent(body)
		return err
	})
	return intent, err
}

// findOrCreateCustomer ищет клиента шлюза по email, при отсутствии создаёт.
func (a *Adapter) findOrCreateCustomer(ctx context.Context, customer domain.Customer) (string, error) {
	query := url.Values{}
	query.Set("email", customer.Email)
	query.Set("limit", "1")

	req, err := a.newRequest(ctx, http.MethodGet, "/v1/customers?"+query.Encode(), nil)
	if err != nil {
		return "", err
	}
	body, err := a.do(req)
	if err != nil {
		return "", err
	}

	var list struct {
		Data []struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &list); err != nil {
		return "", domain.NewGatewayError(a.Name(), domain.GatewayErrProvider, "malformed customer list response", err)
	}
	if len(list.Data) > 0 {
		return list.Data[0].ID, nil
	}

	form := url.Values{}
	form.Set("email", customer.Email)
	form.Set("name", customer.Name)

	req, err = a.newRequest(ctx, http.MethodPost, "/v1/customers", form)
	if err != nil {
		return "", err
	}
	body, err = a.do(req)
	if err != nil {
		return "", err
	}

	var created struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(body, &created); err != nil || created.ID == "" {
		return "", domain.NewGatewayError(a.Name(), domain.GatewayErrProvider, "malformed customer response", err)
	}
	return created.ID, nil
}

func (a *Adapter) newRequest(ctx context.Context, method, path string, form url.Values) (*http.Request, error) {
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}
	req, err := http.NewRequestWithContext(ctx, method, a.cfg.BaseURL+path, body)
	if err != nil {
		return nil, domain.NewGatewayError(a.Name(), domain.GatewayErrValidation, "build request", err)
	}
	req.Header.Set("Authorization", "Bearer "+a.cfg.SecretKey)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	return req, nil
}

// do выполняет запрос и переводит любой сбой в GatewayError.
func (a *Adapter) do(req *http.Request) ([]byte, error) {
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
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	_ = json.Unmarshal(body, &apiErr)

	message := apiErr.Error.Message
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

func (a *Adapter) parseIntent(body []byte) (domain.NormalizedIntent, error) {
	var payload struct {
		ID           string `json:"id"`
		Status       string `json:"status"`
		Amount       int64  `json:"amount"`
		Currency     string `json:"currency"`
		ClientSecret string `json:"client_secret"`
	}
	if err := json.Unmarshal(body, &payload); err != nil || payload.ID == "" {
		return domain.NormalizedIntent{}, domain.NewGatewayError(a.Name(), domain.GatewayErrProvider, "malformed intent response", err)
	}

	return domain.NormalizedIntent{
		ID:               payload.ID,
		Status:           payload.Status,
		AmountMinor:      payload.Amount,
		Currency:         strings.ToUpper(payload.Currency),
		RedirectOrSecret: payload.ClientSecret,
		Raw:              body,
	}, nil
}

var _ domain.GatewayAdapter = (*Adapter)(nil)
