package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/vladislavdragonenkov/checkout/internal/domain"
	"github.com/vladislavdragonenkov/checkout/internal/storage/memory"
)

type capturingPublisher struct {
	mu        sync.Mutex
	published []domain.OutboxMessage
	err       error
}

func (p *capturingPublisher) Publish(msg domain.OutboxMessage) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.published = append(p.published, msg)
	return nil
}

func (p *capturingPublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.published)
}

func enqueue(t *testing.T, repo domain.OutboxRepository, eventType string) domain.OutboxMessage {
	t.Helper()
	msg, err := repo.Enqueue(domain.OutboxMessage{
		AggregateType: "order",
		AggregateID:   "ord-1",
		EventType:     eventType,
		Payload:       []byte(`{"order_id":"ord-1"}`),
	})
	if err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	return msg
}

func TestProcessOnce(t *testing.T) {
	repo := memory.NewOutboxRepository()
	publisher := &capturingPublisher{}
	worker := NewWorker(repo, publisher, WithRetryBaseDelay(0))

	enqueue(t, repo, "order.created")
	enqueue(t, repo, "payment.succeeded")

	worker.ProcessOnce(context.Background())

	if publisher.count() != 2 {
		t.Fatalf("published = %d, want 2", publisher.count())
	}

	stats, err := repo.Stats()
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.PendingCount != 0 {
		t.Fatalf("pending = %d, want 0", stats.PendingCount)
	}
}

// Исчерпание retry уводит сообщение в DLQ и помечает его failed.
func TestProcessOnce_PublishFailure(t *testing.T) {
	repo := memory.NewOutboxRepository()
	broken := &capturingPublisher{err: errors.New("broker unavailable")}
	dlq := &capturingPublisher{}
	worker := NewWorker(repo, broken,
		WithMaxAttempts(2),
		WithRetryBaseDelay(0),
		WithDLQPublisher(dlq))

	msg := enqueue(t, repo, "order.created")
	worker.ProcessOnce(context.Background())

	if dlq.count() != 1 {
		t.Fatalf("dlq published = %d, want 1", dlq.count())
	}

	var envelope struct {
		OutboxID     string `json:"outbox_id"`
		EventType    string `json:"event_type"`
		PublishError string `json:"publish_error"`
	}
	if err := json.Unmarshal(dlq.published[0].Payload, &envelope); err != nil {
		t.Fatalf("decode dlq payload: %v", err)
	}
	if envelope.OutboxID != msg.ID {
		t.Fatalf("dlq outbox id = %s, want %s", envelope.OutboxID, msg.ID)
	}
	if envelope.PublishError == "" {
		t.Fatal("expected publish_error in dlq payload")
	}

	// Сообщение больше не pending: повторный цикл его не трогает.
	worker.ProcessOnce(context.Background())
	if dlq.count() != 1 {
		t.Fatalf("dlq published = %d after retry cycle, want 1", dlq.count())
	}

	stats, err := repo.Stats()
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.PendingCount != 0 {
		t.Fatalf("pending = %d, want 0", stats.PendingCount)
	}
}

// Отменённый контекст прекращает публикацию.
func TestProcessOnce_CancelledContext(t *testing.T) {
	repo := memory.NewOutboxRepository()
	publisher := &capturingPublisher{}
	worker := NewWorker(repo, publisher)

	enqueue(t, repo, "order.created")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	worker.ProcessOnce(ctx)

	if publisher.count() != 0 {
		t.Fatalf("published = %d, want 0", publisher.count())
	}
}
