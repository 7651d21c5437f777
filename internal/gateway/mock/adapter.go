package mock

import (
	"context"
	"net/http"
	"sync"

	"github.com/vladislavdragonenkov/checkout/internal/domain"
)

// Adapter — конфигурируемая заглушка GatewayAdapter для тестов.
type Adapter struct {
	GatewayName string

	CreateResult   domain.NormalizedIntent
	CreateErr      error
	RetrieveResult domain.NormalizedIntent
	RetrieveErr    error
	WebhookResult  domain.WebhookEvent
	WebhookErr     error

	mu            sync.Mutex
	createCalls   int
	retrieveCalls int
}

// New возвращает mock с успешным сценарием по умолчанию.
func New(gatewayName string) *Adapter {
	return &Adapter{
		GatewayName: gatewayName,
		CreateResult: domain.NormalizedIntent{
			ID:               "mock-intent-1",
			Status:           "requires_payment",
			RedirectOrSecret: "mock-secret",
		},
	}
}

func (m *Adapter) Name() string {
	return m.GatewayName
}

// CreateIntent возвращает заранее настроенный результат и считает вызовы.
func (m *Adapter) CreateIntent(_ context.Context, order domain.Order, _ domain.Customer) (domain.NormalizedIntent, error) {
	m.mu.Lock()
	m.createCalls++
	m.mu.Unlock()

	if m.CreateErr != nil {
		return domain.NormalizedIntent{}, m.CreateErr
	}
	result := m.CreateResult
	if result.AmountMinor == 0 {
		result.AmountMinor = order.TotalMinor
	}
	if result.Currency == "" {
		result.Currency = order.Currency
	}
	return result, nil
}

// RetrieveIntent возвращает настроенный результат и считает вызовы.
func (m *Adapter) RetrieveIntent(_ context.Context, externalID string) (domain.NormalizedIntent, error) {
	m.mu.Lock()
	m.retrieveCalls++
	m.mu.Unlock()

	if m.RetrieveErr != nil {
		return domain.NormalizedIntent{}, m.RetrieveErr
	}
	result := m.RetrieveResult
	if result.ID == "" {
		result.ID = externalID
	}
	return result, nil
}

// VerifyWebhook возвращает настроенное событие.
func (m *Adapter) VerifyWebhook(_ http.Header, body []byte) (domain.WebhookEvent, error) {
	if m.WebhookErr != nil {
		return domain.WebhookEvent{}, m.WebhookErr
	}
	event := m.WebhookResult
	event.Raw = body
	return event, nil
}

// CreateCalls возвращает число обращений к CreateIntent.
func (m *Adapter) CreateCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.createCalls
}

// RetrieveCalls возвращает число обращений к RetrieveIntent.
func (m *Adapter) RetrieveCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.retrieveCalls
}

var _ domain.GatewayAdapter = (*Adapter)(nil)
