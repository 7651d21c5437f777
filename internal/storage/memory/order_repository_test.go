package memory

import (
	"errors"
	"testing"
	"time"

	"github.com/vladislavdragonenkov/checkout/internal/domain"
)

func testOrder(id, tracking string) domain.Order {
	now := time.Now().UTC()
	return domain.Order{
		ID:             id,
		TrackingNumber: tracking,
		CustomerID:     "customer-1",
		Status:         domain.OrderStatusPending,
		PaymentStatus:  domain.PaymentStatusPending,
		Currency:       "USD",
		Version:        1,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

func TestOrderRepository_CreateAndGet(t *testing.T) {
	repo := NewOrderRepository()
	order := testOrder("o1", "CHK-1")

	if err := repo.Create(order); err != nil {
		t.Fatalf("create: %v", err)
	}

	got, err := repo.Get("o1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.TrackingNumber != "CHK-1" {
		t.Fatalf("tracking = %s, want CHK-1", got.TrackingNumber)
	}

	byTracking, err := repo.GetByTracking("CHK-1")
	if err != nil {
		t.Fatalf("get by tracking: %v", err)
	}
	if byTracking.ID != "o1" {
		t.Fatalf("id = %s, want o1", byTracking.ID)
	}
}

func TestOrderRepository_GetMissing(t *testing.T) {
	repo := NewOrderRepository()
	if _, err := repo.Get("missing"); !errors.Is(err, domain.ErrOrderNotFound) {
		t.Fatalf("got %v, want ErrOrderNotFound", err)
	}
	if _, err := repo.GetByTracking("missing"); !errors.Is(err, domain.ErrOrderNotFound) {
		t.Fatalf("got %v, want ErrOrderNotFound", err)
	}
}

func TestOrderRepository_DuplicateTracking(t *testing.T) {
	repo := NewOrderRepository()
	if err := repo.Create(testOrder("o1", "CHK-1")); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := repo.Create(testOrder("o2", "CHK-1")); !errors.Is(err, domain.ErrOrderExists) {
		t.Fatalf("got %v, want ErrOrderExists", err)
	}
	if err := repo.Create(testOrder("o1", "CHK-2")); !errors.Is(err, domain.ErrOrderExists) {
		t.Fatalf("got %v, want ErrOrderExists", err)
	}
}

func TestOrderRepository_SaveVersionConflict(t *testing.T) {
	repo := NewOrderRepository()
	order := testOrder("o1", "CHK-1")
	if err := repo.Create(order); err != nil {
		t.Fatalf("create: %v", err)
	}

	// Первое сохранение с актуальной версией проходит.
	order.Status = domain.OrderStatusProcessing
	if err := repo.Save(order); err != nil {
		t.Fatalf("save: %v", err)
	}

	// Повтор со старой версией отклоняется.
	if err := repo.Save(order); !errors.Is(err, domain.ErrOrderVersionConflict) {
		t.Fatalf("got %v, want ErrOrderVersionConflict", err)
	}

	got, err := repo.Get("o1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Version != 2 {
		t.Fatalf("version = %d, want 2", got.Version)
	}
}

func TestOrderRepository_ListFilters(t *testing.T) {
	repo := NewOrderRepository()

	a := testOrder("o1", "CHK-1")
	a.CustomerID = "alice"
	b := testOrder("o2", "CHK-2")
	b.CustomerID = "bob"
	b.Status = domain.OrderStatusProcessing
	b.CreatedAt = a.CreatedAt.Add(time.Second)

	for _, o := range []domain.Order{a, b} {
		if err := repo.Create(o); err != nil {
			t.Fatalf("create %s: %v", o.ID, err)
		}
	}

	all, err := repo.List(domain.OrderFilter{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("len = %d, want 2", len(all))
	}
	// Новые первыми.
	if all[0].ID != "o2" {
		t.Fatalf("first = %s, want o2", all[0].ID)
	}

	byCustomer, err := repo.List(domain.OrderFilter{CustomerID: "alice"})
	if err != nil {
		t.Fatalf("list by customer: %v", err)
	}
	if len(byCustomer) != 1 || byCustomer[0].ID != "o1" {
		t.Fatalf("unexpected result: %+v", byCustomer)
	}

	byStatus, err := repo.List(domain.OrderFilter{Status: domain.OrderStatusProcessing})
	if err != nil {
		t.Fatalf("list by status: %v", err)
	}
	if len(byStatus) != 1 || byStatus[0].ID != "o2" {
		t.Fatalf("unexpected result: %+v", byStatus)
	}

	limited, err := repo.List(domain.OrderFilter{Limit: 1})
	if err != nil {
		t.Fatalf("list limited: %v", err)
	}
	if len(limited) != 1 {
		t.Fatalf("len = %d, want 1", len(limited))
	}
}
