package intent

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/vladislavdragonenkov/checkout/internal/domain"
	gwmock "github.com/vladislavdragonenkov/checkout/internal/gateway/mock"
	"github.com/vladislavdragonenkov/checkout/internal/storage/memory"
)

func testOrder() domain.Order {
	return domain.Order{
		ID:             "o1",
		TrackingNumber: "CHK-1",
		PaymentGateway: domain.GatewayCard,
		Currency:       "USD",
		TotalMinor:     10399,
	}
}

var testCustomer = domain.Customer{ID: "cust-1", Name: "Alice", Email: "alice@example.com"}

func TestStore_GetOrCreate_Idempotent(t *testing.T) {
	adapter := gwmock.New(domain.GatewayCard)
	store := NewStore(memory.NewIntentRepository(), []domain.GatewayAdapter{adapter}, nil)
	ctx := context.Background()

	first, err := store.GetOrCreate(ctx, testOrder(), testCustomer, false)
	if err != nil {
		t.Fatalf("first call: %v", err)
	}

	second, err := store.GetOrCreate(ctx, testOrder(), testCustomer, false)
	if err != nil {
		t.Fatalf("second call: %v", err)
	}

	if adapter.CreateCalls() != 1 {
		t.Fatalf("create calls = %d, want 1", adapter.CreateCalls())
	}
	if first.ID != second.ID {
		t.Fatalf("intent ids differ: %s != %s", first.ID, second.ID)
	}
}

// Конкурентные запросы к одному заказу сходятся на одной локальной
// записи: гонку разрешает уникальный ключ (tracking, gateway), и все
// воркеры получают интент победителя.
func TestStore_GetOrCreate_Concurrent(t *testing.T) {
	adapter := gwmock.New(domain.GatewayCard)
	store := NewStore(memory.NewIntentRepository(), []domain.GatewayAdapter{adapter}, nil)

	const workers = 16
	results := make([]domain.NormalizedIntent, workers)
	errs := make([]error, workers)

	var wg sync.WaitGroup
	start := make(chan struct{})
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			results[i], errs[i] = store.GetOrCreate(context.Background(), testOrder(), testCustomer, false)
		}(i)
	}
	close(start)
	wg.Wait()

	for i := 0; i < workers; i++ {
		if errs[i] != nil {
			t.Fatalf("worker %d: %v", i, errs[i])
		}
		if results[i].ID != results[0].ID {
			t.Fatalf("worker %d got intent %s, want %s", i, results[i].ID, results[0].ID)
		}
	}

	// К шлюзу ушёл ровно один CreateIntent.
	if adapter.CreateCalls() != 1 {
		t.Fatalf("create calls = %d, want 1", adapter.CreateCalls())
	}

	// Локальная запись одна — значит в хранилище победил ровно один create.
	stored, err := store.Get("CHK-1", domain.GatewayCard)
	if err != nil {
		t.Fatalf("get stored: %v", err)
	}
	if stored.ExternalID != results[0].ID {
		t.Fatalf("stored external id = %s, want %s", stored.ExternalID, results[0].ID)
	}

	// Карта мьютексов не растёт с числом заказов: после создания ключ снят.
	store.mu.Lock()
	held := len(store.keyMu)
	store.mu.Unlock()
	if held != 0 {
		t.Fatalf("keyMu size = %d, want 0", held)
	}
}

func TestStore_GetOrCreate_Recall(t *testing.T) {
	adapter := gwmock.New(domain.GatewayCard)
	adapter.RetrieveResult = domain.NormalizedIntent{
		ID:     "mock-intent-1",
		Status: "succeeded",
	}
	store := NewStore(memory.NewIntentRepository(), []domain.GatewayAdapter{adapter}, nil)
	ctx := context.Background()

	if _, err := store.GetOrCreate(ctx, testOrder(), testCustomer, false); err != nil {
		t.Fatalf("create: %v", err)
	}

	refreshed, err := store.GetOrCreate(ctx, testOrder(), testCustomer, true)
	if err != nil {
		t.Fatalf("recall: %v", err)
	}
	if refreshed.Status != "succeeded" {
		t.Fatalf("status = %s, want succeeded", refreshed.Status)
	}
	if adapter.RetrieveCalls() != 1 {
		t.Fatalf("retrieve calls = %d, want 1", adapter.RetrieveCalls())
	}

	// Локальная запись обновлена.
	stored, err := store.Get("CHK-1", domain.GatewayCard)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if stored.Status != "succeeded" {
		t.Fatalf("stored status = %s, want succeeded", stored.Status)
	}
}

func TestStore_UnknownGateway(t *testing.T) {
	store := NewStore(memory.NewIntentRepository(), nil, nil)
	order := testOrder()
	order.PaymentGateway = "crypto"

	if _, err := store.GetOrCreate(context.Background(), order, testCustomer, false); err == nil {
		t.Fatal("expected error for unknown gateway")
	}
}

func TestStore_ApplyEvent(t *testing.T) {
	adapter := gwmock.New(domain.GatewayCard)
	store := NewStore(memory.NewIntentRepository(), []domain.GatewayAdapter{adapter}, nil)
	ctx := context.Background()

	if _, err := store.GetOrCreate(ctx, testOrder(), testCustomer, false); err != nil {
		t.Fatalf("create: %v", err)
	}

	err := store.ApplyEvent(domain.WebhookEvent{
		Gateway:        domain.GatewayCard,
		TrackingNumber: "CHK-1",
		Status:         domain.PaymentStatusSuccess,
		EventTime:      time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("apply event: %v", err)
	}

	stored, err := store.Get("CHK-1", domain.GatewayCard)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if stored.Status != string(domain.PaymentStatusSuccess) {
		t.Fatalf("status = %s, want success", stored.Status)
	}

	// Событие для неизвестного заказа игнорируется молча.
	err = store.ApplyEvent(domain.WebhookEvent{Gateway: domain.GatewayCard, TrackingNumber: "CHK-404"})
	if err != nil {
		t.Fatalf("apply event for unknown order: %v", err)
	}
}
