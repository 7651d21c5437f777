package order

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/vladislavdragonenkov/checkout/internal/catalog"
	"github.com/vladislavdragonenkov/checkout/internal/directory"
	"github.com/vladislavdragonenkov/checkout/internal/domain"
	gwmock "github.com/vladislavdragonenkov/checkout/internal/gateway/mock"
	"github.com/vladislavdragonenkov/checkout/internal/service/checkout"
	"github.com/vladislavdragonenkov/checkout/internal/service/coupon"
	"github.com/vladislavdragonenkov/checkout/internal/service/intent"
	"github.com/vladislavdragonenkov/checkout/internal/service/rating"
	"github.com/vladislavdragonenkov/checkout/internal/storage/memory"
)

type fixture struct {
	service  *Service
	verifier *checkout.Verifier
	adapter  *gwmock.Adapter
	outbox   interface {
		domain.OutboxRepository
		AllPending() []domain.OutboxMessage
	}
	timeline domain.TimelineRepository
	quotes   interface {
		domain.QuoteStore
		SetNow(func() time.Time)
	}
	now time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	now := time.Now().UTC()

	cat := catalog.NewMockService()
	cat.Add(domain.Product{ID: "prod-1", Name: "Widget", PriceMinor: 5000, Stock: 10, Purchasable: true})

	dir := directory.NewMockService()
	dir.Add(domain.Customer{ID: "cust-1", Name: "Alice", Email: "alice@example.com"})

	coupons := memory.NewCouponRepository()
	if err := coupons.Create(domain.Coupon{
		ID:         "c1",
		Code:       "SAVE10",
		Type:       domain.CouponTypePercentage,
		Amount:     10,
		ActiveFrom: now.Add(-time.Hour),
		ExpireAt:   now.Add(time.Hour),
		IsValid:    true,
		IsApprove:  true,
	}); err != nil {
		t.Fatalf("seed coupon: %v", err)
	}

	rates := memory.NewRateRepository()
	rates.AddTaxRule(domain.TaxRule{ID: "tax", RatePercent: 8, Scope: domain.RuleScope{Country: "US"}})
	rates.AddShippingRule(domain.ShippingRule{ID: "ship", Kind: domain.ShippingKindFixed, AmountMinor: 599, Scope: domain.RuleScope{Country: "US"}})

	quotes := memory.NewQuoteStore()
	quotes.SetNow(func() time.Time { return now })

	verifier := checkout.NewVerifier(cat, dir, coupon.NewValidator(coupons, nil), rating.NewCalculator(rates, nil), quotes, nil)
	verifier.SetNow(func() time.Time { return now })

	adapter := gwmock.New(domain.GatewayCard)
	intents := intent.NewStore(memory.NewIntentRepository(), []domain.GatewayAdapter{adapter}, nil)

	outboxRepo := memory.NewOutboxRepository()
	timelineRepo := memory.NewTimelineRepository()

	svc := NewService(memory.NewOrderRepository(), timelineRepo, outboxRepo, dir, verifier, intents, nil)
	svc.SetNow(func() time.Time { return now })

	return &fixture{
		service:  svc,
		verifier: verifier,
		adapter:  adapter,
		outbox:   outboxRepo,
		timeline: timelineRepo,
		quotes:   quotes,
		now:      now,
	}
}

func (f *fixture) createRequest(t *testing.T) CreateOrderRequest {
	t.Helper()

	shipping := domain.Address{Country: "US", State: "CA", City: "Los Angeles", Zip: "90001", StreetAddress: "1 Main St"}
	quote, err := f.verifier.Verify(context.Background(), "cust-1",
		[]checkout.CartItem{{ProductID: "prod-1", Qty: 2}},
		domain.Destination{Country: shipping.Country, State: shipping.State, City: shipping.City, Zip: shipping.Zip},
		"SAVE10")
	if err != nil {
		t.Fatalf("verify: %v", err)
	}

	return CreateOrderRequest{
		CustomerID:      "cust-1",
		Items:           []checkout.CartItem{{ProductID: "prod-1", Qty: 2}},
		Gateway:         domain.GatewayCard,
		Currency:        "USD",
		Language:        "en",
		CouponCode:      "SAVE10",
		BillingAddress:  shipping,
		ShippingAddress: shipping,
		QuoteSignature:  quote.Signature,
	}
}

func TestCreateOrder(t *testing.T) {
	f := newFixture(t)
	req := f.createRequest(t)

	result, err := f.service.CreateOrder(context.Background(), req)
	if err != nil {
		t.Fatalf("create order: %v", err)
	}
	o := result.Order

	if o.TrackingNumber == "" {
		t.Fatal("expected tracking number")
	}
	if o.Status != domain.OrderStatusPending || o.PaymentStatus != domain.PaymentStatusPending {
		t.Fatalf("unexpected statuses: %s / %s", o.Status, o.PaymentStatus)
	}
	// 100.00 + 8% налог + 5.99 доставка - 10% купон = 103.99.
	if o.TotalMinor != 10399 {
		t.Fatalf("total = %d, want 10399", o.TotalMinor)
	}
	if o.CouponID != "c1" {
		t.Fatalf("coupon id = %s, want c1", o.CouponID)
	}
	if len(o.Items) != 1 || o.Items[0].SubtotalMinor != 10000 {
		t.Fatalf("unexpected items: %+v", o.Items)
	}
	if errs := o.ValidateInvariants(); len(errs) != 0 {
		t.Fatalf("invariants broken: %v", errs)
	}
	if result.Intent.ID == "" {
		t.Fatal("expected payment intent")
	}
	if f.adapter.CreateCalls() != 1 {
		t.Fatalf("gateway create calls = %d, want 1", f.adapter.CreateCalls())
	}

	// Заказ читается по id и tracking number.
	if _, err := f.service.Get(o.ID); err != nil {
		t.Fatalf("get: %v", err)
	}
	if _, err := f.service.GetByTracking(o.TrackingNumber); err != nil {
		t.Fatalf("get by tracking: %v", err)
	}

	// Timeline и outbox зафиксировали создание.
	events, err := f.service.Timeline(o.ID)
	if err != nil {
		t.Fatalf("timeline: %v", err)
	}
	if len(events) != 1 || events[0].Type != EventOrderCreated {
		t.Fatalf("unexpected timeline: %+v", events)
	}
	pending := f.outbox.AllPending()
	if len(pending) != 1 || pending[0].EventType != EventOrderCreated {
		t.Fatalf("unexpected outbox: %+v", pending)
	}
}

func TestCreateOrder_StaleQuote(t *testing.T) {
	f := newFixture(t)
	req := f.createRequest(t)

	// Чужая подпись.
	bad := req
	bad.QuoteSignature = "deadbeef"
	if _, err := f.service.CreateOrder(context.Background(), bad); !errors.Is(err, domain.ErrStaleQuote) {
		t.Fatalf("got %v, want ErrStaleQuote", err)
	}

	// Истёкший TTL котировки.
	f.quotes.SetNow(func() time.Time { return f.now.Add(checkout.QuoteTTL + time.Minute) })
	if _, err := f.service.CreateOrder(context.Background(), req); !errors.Is(err, domain.ErrStaleQuote) {
		t.Fatalf("got %v, want ErrStaleQuote", err)
	}
}

// Отказ шлюза при создании интента не оставляет ни строки заказа,
// ни событий в outbox.
func TestCreateOrder_GatewayFailureLeavesNoOrder(t *testing.T) {
	f := newFixture(t)
	req := f.createRequest(t)

	f.adapter.CreateErr = errors.New("gateway unavailable")

	result, err := f.service.CreateOrder(context.Background(), req)
	if err == nil {
		t.Fatal("expected gateway error")
	}
	if result.Order.ID != "" {
		t.Fatalf("unexpected order in result: %+v", result.Order)
	}

	orders, err := f.service.List(domain.OrderFilter{CustomerID: "cust-1"})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(orders) != 0 {
		t.Fatalf("order persisted after gateway failure: %+v", orders)
	}
	if pending := f.outbox.AllPending(); len(pending) != 0 {
		t.Fatalf("outbox events after gateway failure: %+v", pending)
	}
}

func TestCreateOrder_UnavailableProduct(t *testing.T) {
	f := newFixture(t)
	req := f.createRequest(t)
	req.Items = append(req.Items, checkout.CartItem{ProductID: "ghost", Qty: 1})

	if _, err := f.service.CreateOrder(context.Background(), req); !errors.Is(err, domain.ErrProductUnavailable) {
		t.Fatalf("got %v, want ErrProductUnavailable", err)
	}
}

func TestCreateOrder_Validation(t *testing.T) {
	f := newFixture(t)
	req := f.createRequest(t)

	bad := req
	bad.Gateway = "crypto"
	if _, err := f.service.CreateOrder(context.Background(), bad); err == nil {
		t.Fatal("expected error for unknown gateway")
	}

	bad = req
	bad.Currency = ""
	if _, err := f.service.CreateOrder(context.Background(), bad); !errors.Is(err, domain.ErrCurrencyRequired) {
		t.Fatalf("got %v, want ErrCurrencyRequired", err)
	}

	bad = req
	bad.CustomerID = "ghost"
	if _, err := f.service.CreateOrder(context.Background(), bad); !errors.Is(err, domain.ErrCustomerNotFound) {
		t.Fatalf("got %v, want ErrCustomerNotFound", err)
	}
}

func createOrder(t *testing.T, f *fixture) domain.Order {
	t.Helper()
	result, err := f.service.CreateOrder(context.Background(), f.createRequest(t))
	if err != nil {
		t.Fatalf("create order: %v", err)
	}
	return result.Order
}

func TestReconcilePayment_Success(t *testing.T) {
	f := newFixture(t)
	o := createOrder(t, f)

	eventTime := f.now.Add(time.Minute)
	err := f.service.ReconcilePayment(domain.WebhookEvent{
		Gateway:        domain.GatewayCard,
		EventID:        "evt-1",
		Type:           "payment_intent.succeeded",
		TrackingNumber: o.TrackingNumber,
		Status:         domain.PaymentStatusSuccess,
		EventTime:      eventTime,
	})
	if err != nil {
		t.Fatalf("reconcile: %v", err)
	}

	got, err := f.service.GetByTracking(o.TrackingNumber)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.PaymentStatus != domain.PaymentStatusSuccess {
		t.Fatalf("payment status = %s, want success", got.PaymentStatus)
	}
	if got.PaidTotalMinor != got.TotalMinor {
		t.Fatalf("paid = %d, want %d", got.PaidTotalMinor, got.TotalMinor)
	}
	// Успешная оплата переводит pending-заказ в processing.
	if got.Status != domain.OrderStatusProcessing {
		t.Fatalf("status = %s, want processing", got.Status)
	}
	if !got.LastPaymentEventAt.Equal(eventTime) {
		t.Fatalf("watermark = %v, want %v", got.LastPaymentEventAt, eventTime)
	}
}

// Повторная доставка того же события ничего не меняет.
func TestReconcilePayment_Duplicate(t *testing.T) {
	f := newFixture(t)
	o := createOrder(t, f)

	event := domain.WebhookEvent{
		Gateway:        domain.GatewayCard,
		TrackingNumber: o.TrackingNumber,
		Status:         domain.PaymentStatusSuccess,
		EventTime:      f.now.Add(time.Minute),
	}
	if err := f.service.ReconcilePayment(event); err != nil {
		t.Fatalf("first delivery: %v", err)
	}

	before, _ := f.service.GetByTracking(o.TrackingNumber)
	outboxBefore := len(f.outbox.AllPending())

	if err := f.service.ReconcilePayment(event); err != nil {
		t.Fatalf("duplicate delivery: %v", err)
	}

	after, _ := f.service.GetByTracking(o.TrackingNumber)
	if after.Version != before.Version {
		t.Fatalf("duplicate changed version: %d -> %d", before.Version, after.Version)
	}
	if len(f.outbox.AllPending()) != outboxBefore {
		t.Fatal("duplicate produced outbox events")
	}
}

// Монотонный guard: событие старше watermark'а игнорируется.
func TestReconcilePayment_OutOfOrder(t *testing.T) {
	f := newFixture(t)
	o := createOrder(t, f)

	if err := f.service.ReconcilePayment(domain.WebhookEvent{
		Gateway:        domain.GatewayCard,
		TrackingNumber: o.TrackingNumber,
		Status:         domain.PaymentStatusSuccess,
		EventTime:      f.now.Add(2 * time.Minute),
	}); err != nil {
		t.Fatalf("success event: %v", err)
	}

	// Запоздавший failed с более ранним временем не откатывает оплату.
	if err := f.service.ReconcilePayment(domain.WebhookEvent{
		Gateway:        domain.GatewayCard,
		TrackingNumber: o.TrackingNumber,
		Status:         domain.PaymentStatusFailed,
		EventTime:      f.now.Add(time.Minute),
	}); err != nil {
		t.Fatalf("stale event: %v", err)
	}

	got, _ := f.service.GetByTracking(o.TrackingNumber)
	if got.PaymentStatus != domain.PaymentStatusSuccess {
		t.Fatalf("payment status = %s, want success", got.PaymentStatus)
	}
}

func TestReconcilePayment_Refund(t *testing.T) {
	f := newFixture(t)
	o := createOrder(t, f)

	if err := f.service.ReconcilePayment(domain.WebhookEvent{
		Gateway:        domain.GatewayCard,
		TrackingNumber: o.TrackingNumber,
		Status:         domain.PaymentStatusSuccess,
		EventTime:      f.now.Add(time.Minute),
	}); err != nil {
		t.Fatalf("success: %v", err)
	}
	if err := f.service.ReconcilePayment(domain.WebhookEvent{
		Gateway:        domain.GatewayCard,
		TrackingNumber: o.TrackingNumber,
		Status:         domain.PaymentStatusRefunded,
		EventTime:      f.now.Add(2 * time.Minute),
	}); err != nil {
		t.Fatalf("refund: %v", err)
	}

	got, _ := f.service.GetByTracking(o.TrackingNumber)
	if got.PaymentStatus != domain.PaymentStatusRefunded {
		t.Fatalf("payment status = %s, want refunded", got.PaymentStatus)
	}
	if got.PaidTotalMinor != 0 {
		t.Fatalf("paid = %d, want 0", got.PaidTotalMinor)
	}
}

func TestReconcilePayment_UnknownOrder(t *testing.T) {
	f := newFixture(t)
	err := f.service.ReconcilePayment(domain.WebhookEvent{
		Gateway:        domain.GatewayCard,
		TrackingNumber: "CHK-404",
		Status:         domain.PaymentStatusSuccess,
		EventTime:      f.now,
	})
	if !errors.Is(err, domain.ErrOrderNotFound) {
		t.Fatalf("got %v, want ErrOrderNotFound", err)
	}
}

func TestUpdateStatus(t *testing.T) {
	f := newFixture(t)
	o := createOrder(t, f)

	updated, err := f.service.UpdateStatus(o.ID, domain.OrderStatusProcessing, "manual confirm")
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Status != domain.OrderStatusProcessing {
		t.Fatalf("status = %s, want processing", updated.Status)
	}

	// Недопустимый переход.
	if _, err := f.service.UpdateStatus(o.ID, domain.OrderStatusPending, ""); !errors.Is(err, domain.ErrInvalidTransition) {
		t.Fatalf("got %v, want ErrInvalidTransition", err)
	}

	// Отмена терминальна: дальнейшие переходы запрещены.
	if _, err := f.service.UpdateStatus(o.ID, domain.OrderStatusCancelled, "customer request"); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if _, err := f.service.UpdateStatus(o.ID, domain.OrderStatusProcessing, ""); !errors.Is(err, domain.ErrInvalidTransition) {
		t.Fatalf("got %v, want ErrInvalidTransition", err)
	}

	// Повторная установка текущего статуса — no-op.
	got, err := f.service.UpdateStatus(o.ID, domain.OrderStatusCancelled, "")
	if err != nil {
		t.Fatalf("idempotent update: %v", err)
	}
	if got.Status != domain.OrderStatusCancelled {
		t.Fatalf("status = %s, want cancelled", got.Status)
	}
}

func TestPaymentIntent_Recall(t *testing.T) {
	f := newFixture(t)
	o := createOrder(t, f)

	f.adapter.RetrieveResult = domain.NormalizedIntent{ID: "mock-intent-1", Status: "succeeded"}

	normalized, err := f.service.PaymentIntent(context.Background(), o.TrackingNumber, true)
	if err != nil {
		t.Fatalf("payment intent: %v", err)
	}
	if normalized.Status != "succeeded" {
		t.Fatalf("status = %s, want succeeded", normalized.Status)
	}
	if f.adapter.RetrieveCalls() != 1 {
		t.Fatalf("retrieve calls = %d, want 1", f.adapter.RetrieveCalls())
	}
}
