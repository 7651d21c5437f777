package order

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/checkout/internal/domain"
	"github.com/vladislavdragonenkov/checkout/internal/metrics"
	"github.com/vladislavdragonenkov/checkout/internal/service/checkout"
	"github.com/vladislavdragonenkov/checkout/internal/service/intent"
)

// Типы событий жизненного цикла заказа (timeline и outbox).
const (
	EventOrderCreated    = "order.created"
	EventStatusChanged   = "order.status_changed"
	EventPaymentSuccess  = "payment.succeeded"
	EventPaymentFailed   = "payment.failed"
	EventPaymentRefunded = "payment.refunded"
)

// saveRetries — число повторов Save при конфликте версий реконсиляции.
const saveRetries = 3

// CreateOrderRequest — входные данные оформления заказа. Цены позиций
// не принимаются от клиента: заказ собирается по каталогу и сверяется
// с живой котировкой через QuoteSignature.
type CreateOrderRequest struct {
	CustomerID      string
	Items           []checkout.CartItem
	Gateway         string
	Currency        string
	Language        string
	CouponCode      string
	BillingAddress  domain.Address
	ShippingAddress domain.Address
	QuoteSignature  string
}

// CreateOrderResult — созданный заказ вместе с платёжным интентом.
type CreateOrderResult struct {
	Order  domain.Order
	Intent domain.NormalizedIntent
}

// Service реализует сценарии заказа: оформление, чтение, смена статуса
// и реконсиляцию оплаты по webhook-событиям шлюзов.
type Service struct {
	orders    domain.OrderRepository
	timeline  domain.TimelineRepository
	outbox    domain.OutboxRepository
	directory domain.CustomerDirectory
	verifier  *checkout.Verifier
	intents   *intent.Store
	metrics   *metrics.CheckoutMetrics
	logger    *log.Entry
	now       func() time.Time
}

// NewService создаёт сервис заказов.
func NewService(
	orders domain.OrderRepository,
	timeline domain.TimelineRepository,
	outbox domain.OutboxRepository,
	directory domain.CustomerDirectory,
	verifier *checkout.Verifier,
	intents *intent.Store,
	logger *log.Entry,
) *Service {
	if logger == nil {
		logger = log.New().WithField("component", "order-service")
	}
	return &Service{
		orders:    orders,
		timeline:  timeline,
		outbox:    outbox,
		directory: directory,
		verifier:  verifier,
		intents:   intents,
		logger:    logger,
		now:       time.Now,
	}
}

// SetNow подменяет источник времени в тестах.
func (s *Service) SetNow(now func() time.Time) { s.now = now }

// SetMetrics подключает метрики заказов и реконсиляции.
func (s *Service) SetMetrics(m *metrics.CheckoutMetrics) { s.metrics = m }

// CreateOrder оформляет заказ: сверяет запрос с живой котировкой,
// фиксирует цены из каталога, создаёт платёжный интент у выбранного
// шлюза и сохраняет заказ. Отказ шлюза не оставляет следов: ни строки
// заказа, ни событий.
func (s *Service) CreateOrder(ctx context.Context, req CreateOrderRequest) (CreateOrderResult, error) {
	if !domain.KnownGateway(req.Gateway) {
		return CreateOrderResult{}, fmt.Errorf("gateway %q: %w", req.Gateway, domain.ErrGatewayRequired)
	}
	if req.Currency == "" {
		return CreateOrderResult{}, domain.ErrCurrencyRequired
	}

	customer, err := s.directory.Customer(ctx, req.CustomerID)
	if err != nil {
		return CreateOrderResult{}, err
	}

	dest := domain.Destination{
		Country: req.ShippingAddress.Country,
		State:   req.ShippingAddress.State,
		City:    req.ShippingAddress.City,
		Zip:     req.ShippingAddress.Zip,
	}

	// Пересчитываем корзину по актуальному каталогу и сверяем подпись:
	// если состав или расценки разошлись с котировкой клиента либо её
	// TTL истёк, оформление отклоняется.
	quote, err := s.verifier.Price(ctx, req.CustomerID, req.Items, dest, req.CouponCode)
	if err != nil {
		return CreateOrderResult{}, err
	}
	if len(quote.UnavailableProducts) > 0 {
		return CreateOrderResult{}, fmt.Errorf("products %s: %w",
			strings.Join(quote.UnavailableProducts, ", "), domain.ErrProductUnavailable)
	}
	if quote.Signature != req.QuoteSignature {
		if s.metrics != nil {
			s.metrics.RecordStaleQuote()
		}
		return CreateOrderResult{}, domain.ErrStaleQuote
	}
	if err := s.verifier.CheckSignature(ctx, req.QuoteSignature); err != nil {
		if s.metrics != nil && errors.Is(err, domain.ErrStaleQuote) {
			s.metrics.RecordStaleQuote()
		}
		return CreateOrderResult{}, err
	}

	now := s.now()
	order := domain.Order{
		ID:               uuid.NewString(),
		TrackingNumber:   newTrackingNumber(),
		CustomerID:       req.CustomerID,
		Status:           domain.OrderStatusPending,
		PaymentStatus:    domain.PaymentStatusPending,
		PaymentGateway:   req.Gateway,
		CouponID:         quote.CouponID,
		Language:         req.Language,
		Currency:         req.Currency,
		AmountMinor:      quote.SubtotalMinor,
		SalesTaxMinor:    quote.SalesTaxMinor,
		DiscountMinor:    quote.DiscountMinor,
		DeliveryFeeMinor: quote.DeliveryFeeMinor,
		TotalMinor:       quote.TotalMinor,
		BillingAddress:   req.BillingAddress,
		ShippingAddress:  req.ShippingAddress,
		Version:          1,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	for _, line := range quote.Lines {
		order.Items = append(order.Items, domain.OrderItem{
			ID:             uuid.NewString(),
			ProductID:      line.ProductID,
			Qty:            int32(line.Qty),
			UnitPriceMinor: line.UnitPriceMinor,
			SubtotalMinor:  line.SubtotalMinor,
			CreatedAt:      now,
		})
	}

	if errs := order.ValidateInvariants(); len(errs) > 0 {
		return CreateOrderResult{}, errors.Join(errs...)
	}

	// Интент создаётся до записи заказа: отказ шлюза не оставляет
	// частичного заказа. Обратный порядок безопасен, потому что создание
	// у шлюза идемпотентно по tracking number.
	normalized, err := s.intents.GetOrCreate(ctx, order, customer, false)
	if err != nil {
		s.logger.WithFields(log.Fields{
			"tracking_number": order.TrackingNumber,
			"gateway":         order.PaymentGateway,
		}).WithError(err).Error("payment intent creation failed")
		return CreateOrderResult{}, err
	}

	if err := s.orders.Create(order); err != nil {
		return CreateOrderResult{}, fmt.Errorf("create order: %w", err)
	}

	if s.metrics != nil {
		s.metrics.RecordOrderCreated()
	}
	s.appendTimeline(order.ID, EventOrderCreated, "")
	s.enqueueEvent(order, EventOrderCreated)

	s.logger.WithFields(log.Fields{
		"order_id":        order.ID,
		"tracking_number": order.TrackingNumber,
		"total":           order.TotalMinor,
	}).Info("order created")

	return CreateOrderResult{Order: order, Intent: normalized}, nil
}

// Get возвращает заказ по идентификатору.
func (s *Service) Get(id string) (domain.Order, error) {
	return s.orders.Get(id)
}

// GetByTracking возвращает заказ по публичному tracking number.
func (s *Service) GetByTracking(trackingNumber string) (domain.Order, error) {
	return s.orders.GetByTracking(trackingNumber)
}

// List возвращает заказы по фильтру, новые первыми.
func (s *Service) List(filter domain.OrderFilter) ([]domain.Order, error) {
	return s.orders.List(filter)
}

// PaymentIntent возвращает интент заказа; recall=true перечитывает
// состояние у шлюза.
func (s *Service) PaymentIntent(ctx context.Context, trackingNumber string, recall bool) (domain.NormalizedIntent, error) {
	order, err := s.orders.GetByTracking(trackingNumber)
	if err != nil {
		return domain.NormalizedIntent{}, err
	}
	customer, err := s.directory.Customer(ctx, order.CustomerID)
	if err != nil {
		return domain.NormalizedIntent{}, err
	}
	return s.intents.GetOrCreate(ctx, order, customer, recall)
}

// UpdateStatus переводит заказ в новый статус с проверкой допустимости
// перехода. Отмена и завершение замораживают позиции и суммы; физическое
// удаление заказов не поддерживается.
func (s *Service) UpdateStatus(id string, next domain.OrderStatus, reason string) (domain.Order, error) {
	order, err := s.orders.Get(id)
	if err != nil {
		return domain.Order{}, err
	}
	if order.Status == next {
		return order, nil
	}
	if !order.CanTransition(next) {
		return domain.Order{}, fmt.Errorf("%s -> %s: %w", order.Status, next, domain.ErrInvalidTransition)
	}

	order.Status = next
	order.UpdatedAt = s.now()
	if err := s.orders.Save(order); err != nil {
		return domain.Order{}, fmt.Errorf("save order: %w", err)
	}
	order.Version++

	s.appendTimeline(order.ID, EventStatusChanged, reason)
	s.enqueueEvent(order, EventStatusChanged)

	s.logger.WithFields(log.Fields{
		"order_id": order.ID,
		"status":   next,
	}).Info("order status changed")

	return order, nil
}

// ReconcilePayment применяет webhook-событие шлюза к заказу. Операция
// идемпотентна: повторные и устаревшие события (раньше watermark'а
// LastPaymentEventAt) игнорируются без ошибки.
func (s *Service) ReconcilePayment(event domain.WebhookEvent) error {
	var lastErr error
	for attempt := 0; attempt < saveRetries; attempt++ {
		applied, err := s.reconcileOnce(event)
		if err == nil {
			if applied {
				if applyErr := s.intents.ApplyEvent(event); applyErr != nil {
					s.logger.WithError(applyErr).Warn("intent status sync failed")
				}
			}
			return nil
		}
		if !domain.IsVersionConflict(err) {
			return err
		}
		lastErr = err
	}
	return lastErr
}

func (s *Service) reconcileOnce(event domain.WebhookEvent) (bool, error) {
	order, err := s.orders.GetByTracking(event.TrackingNumber)
	if err != nil {
		return false, err
	}

	// Дубликат: статус уже применён.
	if order.PaymentStatus == event.Status {
		return false, nil
	}
	// Монотонный guard: событие старше уже применённого.
	if !order.LastPaymentEventAt.IsZero() && !event.EventTime.After(order.LastPaymentEventAt) {
		s.logger.WithFields(log.Fields{
			"tracking_number": event.TrackingNumber,
			"event_type":      event.Type,
		}).Warn("out-of-order payment event ignored")
		return false, nil
	}
	if !domain.CanTransitionPayment(order.PaymentStatus, event.Status) {
		s.logger.WithFields(log.Fields{
			"tracking_number": event.TrackingNumber,
			"current":         order.PaymentStatus,
			"next":            event.Status,
		}).Warn("payment transition rejected")
		return false, nil
	}

	order.PaymentStatus = event.Status
	order.LastPaymentEventAt = event.EventTime
	order.UpdatedAt = s.now()

	eventType := EventPaymentFailed
	switch event.Status {
	case domain.PaymentStatusSuccess:
		eventType = EventPaymentSuccess
		order.PaidTotalMinor = order.TotalMinor
		if order.Status == domain.OrderStatusPending {
			order.Status = domain.OrderStatusProcessing
		}
	case domain.PaymentStatusRefunded:
		eventType = EventPaymentRefunded
		order.PaidTotalMinor = 0
	}

	if err := s.orders.Save(order); err != nil {
		return false, err
	}
	order.Version++

	if s.metrics != nil {
		s.metrics.RecordPaymentApplied(string(order.PaymentStatus))
	}
	s.appendTimeline(order.ID, eventType, event.Type)
	s.enqueueEvent(order, eventType)

	s.logger.WithFields(log.Fields{
		"tracking_number": order.TrackingNumber,
		"payment_status":  order.PaymentStatus,
		"status":          order.Status,
	}).Info("payment reconciled")

	return true, nil
}

// Timeline возвращает ленту событий заказа.
func (s *Service) Timeline(orderID string) ([]domain.TimelineEvent, error) {
	return s.timeline.List(orderID)
}

func (s *Service) appendTimeline(orderID, eventType, reason string) {
	err := s.timeline.Append(domain.TimelineEvent{
		OrderID:    orderID,
		Type:       eventType,
		Reason:     reason,
		OccurredAt: s.now(),
	})
	if err != nil {
		s.logger.WithError(err).Warn("timeline append failed")
	}
}

func (s *Service) enqueueEvent(order domain.Order, eventType string) {
	payload, err := json.Marshal(orderEventPayload{
		OrderID:        order.ID,
		TrackingNumber: order.TrackingNumber,
		CustomerID:     order.CustomerID,
		Status:         string(order.Status),
		PaymentStatus:  string(order.PaymentStatus),
		TotalMinor:     order.TotalMinor,
		Currency:       order.Currency,
		OccurredAt:     s.now().UTC(),
	})
	if err != nil {
		s.logger.WithError(err).Error("event payload marshal failed")
		return
	}
	_, err = s.outbox.Enqueue(domain.OutboxMessage{
		AggregateType: "order",
		AggregateID:   order.ID,
		EventType:     eventType,
		Payload:       payload,
	})
	if err != nil {
		s.logger.WithFields(log.Fields{
			"order_id":   order.ID,
			"event_type": eventType,
		}).WithError(err).Error("outbox enqueue failed")
	}
}

type orderEventPayload struct {
	OrderID        string    `json:"order_id"`
	TrackingNumber string    `json:"tracking_number"`
	CustomerID     string    `json:"customer_id"`
	Status         string    `json:"status"`
	PaymentStatus  string    `json:"payment_status"`
	TotalMinor     int64     `json:"total_minor"`
	Currency       string    `json:"currency"`
	OccurredAt     time.Time `json:"occurred_at"`
}

// newTrackingNumber генерирует публичный номер заказа. Формат короткий
// и безопасный для URL; уникальность гарантирует ограничение хранилища.
func newTrackingNumber() string {
	raw := strings.ReplaceAll(uuid.NewString(), "-", "")
	return "CHK-" + strings.ToUpper(raw[:12])
}
