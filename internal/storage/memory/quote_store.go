package memory

import (
	"context"
	"sync"
	"time"

	"github.com/vladislavdragonenkov/checkout/internal/domain"
)

// quoteStoreInMemory хранит подписи котировок с TTL (для разработки/тестов).
type quoteStoreInMemory struct {
	mu    sync.Mutex
	items map[string]time.Time
	now   func() time.Time
}

// NewQuoteStore возвращает in-memory реализацию QuoteStore.
func NewQuoteStore() *quoteStoreInMemory {
	return &quoteStoreInMemory{
		items: make(map[string]time.Time),
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// Put сохраняет подпись котировки со сроком жизни ttl.
func (s *quoteStoreInMemory) Put(_ context.Context, signature string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.items[signature] = s.now().Add(ttl)
	return nil
}

// Exists сообщает, жива ли ещё подпись; просроченные записи удаляются лениво.
func (s *quoteStoreInMemory) Exists(_ context.Context, signature string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	expireAt, ok := s.items[signature]
	if !ok {
		return false, nil
	}
	if s.now().After(expireAt) {
		delete(s.items, signature)
		return false, nil
	}
	return true, nil
}

// SetNow подменяет источник времени в тестах.
func (s *quoteStoreInMemory) SetNow(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

var _ domain.QuoteStore = (*quoteStoreInMemory)(nil)
