package redisstore

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/vladislavdragonenkov/checkout/internal/domain"
)

const quoteKeyPrefix = "checkout:quote:"

// QuoteStore хранит подписи котировок verify() в Redis.
// TTL ключа и есть срок жизни котировки: протухшие подписи исчезают сами,
// отдельный cleanup не нужен.
type QuoteStore struct {
	client *redis.Client
}

// NewQuoteStore создаёт Redis-реализацию QuoteStore поверх готового клиента.
func NewQuoteStore(client *redis.Client) *QuoteStore {
	return &QuoteStore{client: client}
}

// Open подключается к Redis и проверяет доступность.
func Open(ctx context.Context, addr, password string, db int) (*QuoteStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	return &QuoteStore{client: client}, nil
}

// Put сохраняет подпись котировки со сроком жизни ttl.
func (s *QuoteStore) Put(ctx context.Context, signature string, ttl time.Duration) error {
	if err := s.client.Set(ctx, quoteKeyPrefix+signature, 1, ttl).Err(); err != nil {
		return fmt.Errorf("store quote signature: %w", err)
	}
	return nil
}

// Exists сообщает, жива ли ещё подпись котировки.
func (s *QuoteStore) Exists(ctx context.Context, signature string) (bool, error) {
	n, err := s.client.Exists(ctx, quoteKeyPrefix+signature).Result()
	if err != nil {
		return false, fmt.Errorf("check quote signature: %w", err)
	}
	return n > 0, nil
}

// Ping проверяет доступность Redis.
func (s *QuoteStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close закрывает подключение.
func (s *QuoteStore) Close() error {
	return s.client.Close()
}

var _ domain.QuoteStore = (*QuoteStore)(nil)
