package directory

import (
	"context"
	"sync"

	"github.com/vladislavdragonenkov/checkout/internal/domain"
)

// MockService — конфигурируемая заглушка справочника клиентов.
type MockService struct {
	mu        sync.RWMutex
	customers map[string]domain.Customer

	Err error
}

// NewMockService возвращает пустой mock справочника.
func NewMockService() *MockService {
	return &MockService{customers: make(map[string]domain.Customer)}
}

// Add регистрирует клиента.
func (m *MockService) Add(customer domain.Customer) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.customers[customer.ID] = customer
}

// Customer возвращает клиента по id или ErrCustomerNotFound.
func (m *MockService) Customer(_ context.Context, customerID string) (domain.Customer, error) {
	if m.Err != nil {
		return domain.Customer{}, m.Err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	customer, ok := m.customers[customerID]
	if !ok {
		return domain.Customer{}, domain.ErrCustomerNotFound
	}
	return customer, nil
}

var _ domain.CustomerDirectory = (*MockService)(nil)
