package catalog

import (
	"context"
	"sync"

	"github.com/vladislavdragonenkov/checkout/internal/domain"
)

// MockService — конфигурируемая заглушка каталога товаров.
// Каталог — внешний коллаборатор; сервису нужно только чтение по id.
type MockService struct {
	mu       sync.RWMutex
	products map[string]domain.Product

	Err error
}

// NewMockService возвращает пустой mock каталога.
func NewMockService() *MockService {
	return &MockService{products: make(map[string]domain.Product)}
}

// Add регистрирует товар в каталоге.
func (m *MockService) Add(product domain.Product) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.products[product.ID] = product
}

// Product возвращает товар по id или ErrProductNotFound.
func (m *MockService) Product(_ context.Context, productID string) (domain.Product, error) {
	if m.Err != nil {
		return domain.Product{}, m.Err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	product, ok := m.products[productID]
	if !ok {
		return domain.Product{}, domain.ErrProductNotFound
	}
	return product, nil
}

var _ domain.CatalogService = (*MockService)(nil)
