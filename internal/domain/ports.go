package domain

import (
	"context"
	"net/http"
	"time"
)

// Product — данные каталога, необходимые для проверки позиции корзины.
type Product struct {
	ID          string
	Name        string
	PriceMinor  int64
	Stock       int32
	Purchasable bool
}

// Customer — данные клиента из справочника, необходимые шлюзам.
type Customer struct {
	ID    string
	Name  string
	Email string
}

// CatalogService — внешний каталог товаров (синхронное чтение по id).
type CatalogService interface {
	Product(ctx context.Context, productID string) (Product, error)
}

// CustomerDirectory — внешний справочник клиентов.
type CustomerDirectory interface {
	Customer(ctx context.Context, customerID string) (Customer, error)
}

// GatewayAdapter нормализует жизненный цикл интента конкретного шлюза.
// Все ошибки реализации обязаны быть GatewayError.
type GatewayAdapter interface {
	Name() string
	// CreateIntent создаёт интент у шлюза. Реализация обязана использовать
	// детерминированный ключ идемпотентности от tracking_number.
	CreateIntent(ctx context.Context, order Order, customer Customer) (NormalizedIntent, error)
	// RetrieveIntent читает интент по внешнему идентификатору; идемпотентен.
	RetrieveIntent(ctx context.Context, externalID string) (NormalizedIntent, error)
	// VerifyWebhook проверяет подпись сырого payload'а и извлекает событие.
	VerifyWebhook(header http.Header, body []byte) (WebhookEvent, error)
}

// QuoteStore хранит подписи котировок verify() с TTL.
type QuoteStore interface {
	Put(ctx context.Context, signature string, ttl time.Duration) error
	Exists(ctx context.Context, signature string) (bool, error)
}

// TimelineRepository хранит события жизненного цикла заказа (audit trail).
type TimelineRepository interface {
	Append(event TimelineEvent) error
	List(orderID string) ([]TimelineEvent, error)
}

// OutboxPublisher публикует события из transactional outbox.
type OutboxPublisher interface {
	// Publish передаёт событие наружу; должен быть идемпотентным.
	Publish(event OutboxMessage) error
}

// OutboxRepository позволяет сохранять события для последующей публикации.
type OutboxRepository interface {
	Enqueue(msg OutboxMessage) (OutboxMessage, error)
	PullPending(limit int) ([]OutboxMessage, error)
	Stats() (OutboxStats, error)
	MarkSent(id string) error
	MarkFailed(id string) error
}

// OutboxMessage хранит данные для публикуемого события.
type OutboxMessage struct {
	ID            string
	AggregateType string
	AggregateID   string
	EventType     string
	Payload       []byte
}

// OutboxStats описывает текущее состояние backlog transactional outbox.
type OutboxStats struct {
	PendingCount    int
	OldestPendingAt time.Time
}
