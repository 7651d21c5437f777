package memory

import (
	"sync"

	"github.com/vladislavdragonenkov/checkout/internal/domain"
)

// rateRepositoryInMemory — in-memory хранилище налоговых и доставочных правил.
type rateRepositoryInMemory struct {
	mu       sync.RWMutex
	taxes    []domain.TaxRule
	shipping []domain.ShippingRule
}

// NewRateRepository возвращает in-memory реализацию RateRepository.
func NewRateRepository() *rateRepositoryInMemory {
	return &rateRepositoryInMemory{}
}

// AddTaxRule добавляет налоговое правило (для тестов и сидирования).
func (r *rateRepositoryInMemory) AddTaxRule(rule domain.TaxRule) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.taxes = append(r.taxes, rule)
}

// AddShippingRule добавляет правило доставки.
func (r *rateRepositoryInMemory) AddShippingRule(rule domain.ShippingRule) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.shipping = append(r.shipping, rule)
}

// ListTaxRules возвращает копию всех налоговых правил.
func (r *rateRepositoryInMemory) ListTaxRules() ([]domain.TaxRule, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]domain.TaxRule, len(r.taxes))
	copy(result, r.taxes)
	return result, nil
}

// ListShippingRules возвращает копию всех правил доставки.
func (r *rateRepositoryInMemory) ListShippingRules() ([]domain.ShippingRule, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]domain.ShippingRule, len(r.shipping))
	copy(result, r.shipping)
	return result, nil
}

var _ domain.RateRepository = (*rateRepositoryInMemory)(nil)
