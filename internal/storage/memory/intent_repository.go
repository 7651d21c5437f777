package memory

import (
	"sync"
	"time"

	"github.com/vladislavdragonenkov/checkout/internal/domain"
)

// intentRepositoryInMemory — in-memory реализация IntentRepository.
// Ключ карты повторяет уникальный индекс (tracking_number, gateway).
type intentRepositoryInMemory struct {
	mu    sync.RWMutex
	items map[intentKey]domain.PaymentIntent
}

type intentKey struct {
	trackingNumber string
	gateway        string
}

// NewIntentRepository возвращает in-memory репозиторий платёжных интентов.
func NewIntentRepository() domain.IntentRepository {
	return &intentRepositoryInMemory{items: make(map[intentKey]domain.PaymentIntent)}
}

// Create сохраняет запись; дубликат ключа означает проигранную гонку.
func (r *intentRepositoryInMemory) Create(intent domain.PaymentIntent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := intentKey{intent.TrackingNumber, intent.Gateway}
	if _, exists := r.items[key]; exists {
		return domain.ErrIntentConflict
	}
	r.items[key] = intent
	return nil
}

// GetByTracking возвращает запись по (tracking_number, gateway).
func (r *intentRepositoryInMemory) GetByTracking(trackingNumber, gateway string) (domain.PaymentIntent, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	intent, ok := r.items[intentKey{trackingNumber, gateway}]
	if !ok {
		return domain.PaymentIntent{}, domain.ErrIntentNotFound
	}
	return intent, nil
}

// Update перезаписывает существующую запись.
func (r *intentRepositoryInMemory) Update(intent domain.PaymentIntent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := intentKey{intent.TrackingNumber, intent.Gateway}
	if _, ok := r.items[key]; !ok {
		return domain.ErrIntentNotFound
	}
	intent.UpdatedAt = time.Now().UTC()
	r.items[key] = intent
	return nil
}

var _ domain.IntentRepository = (*intentRepositoryInMemory)(nil)
