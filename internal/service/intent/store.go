package intent

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/checkout/internal/domain"
	"github.com/vladislavdragonenkov/checkout/internal/metrics"
)

// Store управляет локальными записями платёжных интентов: не более одной
// активной записи на пару (tracking_number, gateway). Создание у шлюза
// выполняется не больше одного раза даже при конкурентных запросах —
// проигравший гонку перечитывает запись победителя.
type Store struct {
	intents  domain.IntentRepository
	adapters map[string]domain.GatewayAdapter
	metrics  *metrics.CheckoutMetrics
	logger   *log.Entry
	now      func() time.Time

	// keyMu сериализует создание по паре (tracking_number, gateway),
	// чтобы к шлюзу уходил один CreateIntent на заказ.
	mu    sync.Mutex
	keyMu map[string]*sync.Mutex
}

// NewStore создаёт сервис интентов поверх репозитория и адаптеров шлюзов.
func NewStore(intents domain.IntentRepository, adapters []domain.GatewayAdapter, logger *log.Entry) *Store {
	if logger == nil {
		logger = log.New().WithField("component", "intent-store")
	}
	byName := make(map[string]domain.GatewayAdapter, len(adapters))
	for _, a := range adapters {
		byName[a.Name()] = a
	}
	return &Store{
		intents:  intents,
		adapters: byName,
		logger:   logger,
		now:      time.Now,
		keyMu:    make(map[string]*sync.Mutex),
	}
}

func (s *Store) lockKey(key string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()

	mu, ok := s.keyMu[key]
	if !ok {
		mu = &sync.Mutex{}
		s.keyMu[key] = mu
	}
	return mu
}

// releaseKey убирает мьютекс пары из карты, чтобы она не росла с числом
// заказов. Опоздавший конкурент получит свежий мьютекс; гонку на этом
// окне закрывает уникальный ключ (tracking_number, gateway) в репозитории.
func (s *Store) releaseKey(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.keyMu, key)
}

// SetNow подменяет источник времени в тестах.
func (s *Store) SetNow(now func() time.Time) { s.now = now }

// SetMetrics подключает метрики обращений к шлюзам.
func (s *Store) SetMetrics(m *metrics.CheckoutMetrics) { s.metrics = m }

func (s *Store) observe(gateway, operation string, start time.Time) {
	if s.metrics != nil {
		s.metrics.RecordGatewayDuration(gateway, operation, time.Since(start))
	}
}

// Adapter возвращает адаптер шлюза по имени.
func (s *Store) Adapter(gateway string) (domain.GatewayAdapter, error) {
	adapter, ok := s.adapters[gateway]
	if !ok {
		return nil, fmt.Errorf("gateway %q: %w", gateway, domain.ErrGatewayRequired)
	}
	return adapter, nil
}

// GetOrCreate возвращает интент для заказа, создавая его у шлюза только
// при отсутствии локальной записи. recall=true принудительно перечитывает
// состояние у шлюза и обновляет локальную запись.
func (s *Store) GetOrCreate(ctx context.Context, order domain.Order, customer domain.Customer, recall bool) (domain.NormalizedIntent, error) {
	adapter, err := s.Adapter(order.PaymentGateway)
	if err != nil {
		return domain.NormalizedIntent{}, err
	}

	stored, err := s.intents.GetByTracking(order.TrackingNumber, order.PaymentGateway)
	switch {
	case err == nil:
		if !recall {
			return stored.Normalized(), nil
		}
		return s.refresh(ctx, adapter, stored)
	case errors.Is(err, domain.ErrIntentNotFound):
		return s.create(ctx, adapter, order, customer)
	default:
		return domain.NormalizedIntent{}, fmt.Errorf("read intent: %w", err)
	}
}

// Get возвращает локальную запись без обращения к шлюзу.
func (s *Store) Get(trackingNumber, gateway string) (domain.PaymentIntent, error) {
	return s.intents.GetByTracking(trackingNumber, gateway)
}

// ApplyEvent переводит локальную запись в статус из webhook-события.
// Отсутствие записи не ошибка: событие могло прийти раньше upsert'а.
func (s *Store) ApplyEvent(event domain.WebhookEvent) error {
	stored, err := s.intents.GetByTracking(event.TrackingNumber, event.Gateway)
	if errors.Is(err, domain.ErrIntentNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	stored.Status = string(event.Status)
	stored.UpdatedAt = s.now()
	return s.intents.Update(stored)
}

func (s *Store) create(ctx context.Context, adapter domain.GatewayAdapter, order domain.Order, customer domain.Customer) (domain.NormalizedIntent, error) {
	key := order.TrackingNumber + "/" + order.PaymentGateway
	mu := s.lockKey(key)
	mu.Lock()
	defer func() {
		mu.Unlock()
		s.releaseKey(key)
	}()

	// Под замком перечитываем: конкурент мог успеть создать запись.
	if stored, err := s.intents.GetByTracking(order.TrackingNumber, order.PaymentGateway); err == nil {
		return stored.Normalized(), nil
	}

	start := s.now()
	normalized, err := adapter.CreateIntent(ctx, order, customer)
	s.observe(adapter.Name(), "create_intent", start)
	if err != nil {
		return domain.NormalizedIntent{}, err
	}

	record := domain.PaymentIntent{
		ID:             uuid.NewString(),
		TrackingNumber: order.TrackingNumber,
		Gateway:        order.PaymentGateway,
		ExternalID:     normalized.ID,
		ClientSecret:   normalized.RedirectOrSecret,
		AmountMinor:    normalized.AmountMinor,
		Currency:       normalized.Currency,
		Status:         normalized.Status,
		Raw:            normalized.Raw,
		CreatedAt:      s.now(),
		UpdatedAt:      s.now(),
	}

	err = s.intents.Create(record)
	if errors.Is(err, domain.ErrIntentConflict) {
		// Гонку выиграл другой запрос: его запись уже на месте.
		// Создание у шлюза идемпотентно по tracking number, поэтому
		// внешний интент всё равно один.
		stored, readErr := s.intents.GetByTracking(order.TrackingNumber, order.PaymentGateway)
		if readErr != nil {
			return domain.NormalizedIntent{}, fmt.Errorf("re-read after conflict: %w", readErr)
		}
		return stored.Normalized(), nil
	}
	if err != nil {
		// Интент у шлюза уже создан; локальная запись будет восстановлена
		// recall-путём при следующем обращении.
		s.logger.WithFields(log.Fields{
			"tracking_number": order.TrackingNumber,
			"gateway":         order.PaymentGateway,
		}).WithError(err).Error("intent created at gateway but local upsert failed")
		return normalized, nil
	}

	s.logger.WithFields(log.Fields{
		"tracking_number": order.TrackingNumber,
		"gateway":         order.PaymentGateway,
		"external_id":     normalized.ID,
	}).Info("payment intent created")

	return record.Normalized(), nil
}

func (s *Store) refresh(ctx context.Context, adapter domain.GatewayAdapter, stored domain.PaymentIntent) (domain.NormalizedIntent, error) {
	start := s.now()
	fresh, err := adapter.RetrieveIntent(ctx, stored.ExternalID)
	s.observe(adapter.Name(), "retrieve_intent", start)
	if err != nil {
		return domain.NormalizedIntent{}, err
	}

	stored.Status = fresh.Status
	stored.AmountMinor = fresh.AmountMinor
	if fresh.RedirectOrSecret != "" {
		stored.ClientSecret = fresh.RedirectOrSecret
	}
	if len(fresh.Raw) > 0 {
		stored.Raw = fresh.Raw
	}
	stored.UpdatedAt = s.now()

	if err := s.intents.Update(stored); err != nil {
		return domain.NormalizedIntent{}, fmt.Errorf("update intent: %w", err)
	}
	return stored.Normalized(), nil
}
