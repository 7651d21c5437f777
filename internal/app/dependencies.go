package app

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/checkout/internal/catalog"
	"github.com/vladislavdragonenkov/checkout/internal/directory"
	"github.com/vladislavdragonenkov/checkout/internal/domain"
	"github.com/vladislavdragonenkov/checkout/internal/gateway/card"
	"github.com/vladislavdragonenkov/checkout/internal/gateway/wallet"
	"github.com/vladislavdragonenkov/checkout/internal/storage/memory"
	"github.com/vladislavdragonenkov/checkout/internal/storage/postgres"
	"github.com/vladislavdragonenkov/checkout/internal/storage/redisstore"
)

// Dependencies содержит хранилища и внешние коллабораторы приложения.
type Dependencies struct {
	Orders   domain.OrderRepository
	Coupons  domain.CouponRepository
	Rates    domain.RateRepository
	Intents  domain.IntentRepository
	Statuses domain.StatusRepository
	Timeline domain.TimelineRepository
	Outbox   domain.OutboxRepository
	Quotes   domain.QuoteStore

	Catalog   domain.CatalogService
	Directory domain.CustomerDirectory
	Gateways  []domain.GatewayAdapter

	Postgres *postgres.Store
	Redis    *redisstore.QuoteStore
	Logger   *log.Entry
}

// NewDependencies собирает зависимости согласно конфигурации.
// NOTE: каталог и справочник клиентов подключены как in-process моки;
// в боевом окружении их заменяют клиенты внешних сервисов.
func NewDependencies(ctx context.Context, cfg Config, logger *log.Entry) (*Dependencies, error) {
	if logger == nil {
		logger = log.WithField("component", "app")
	}

	deps := &Dependencies{
		Catalog:   catalog.NewMockService(),
		Directory: directory.NewMockService(),
		Logger:    logger,
	}

	switch cfg.Storage {
	case "postgres":
		store, err := postgres.Open(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		if err := store.EnsureSchema(ctx); err != nil {
			_ = store.Close()
			return nil, fmt.Errorf("ensure schema: %w", err)
		}
		deps.Postgres = store
		deps.Orders = postgres.NewOrderRepository(store)
		deps.Coupons = postgres.NewCouponRepository(store)
		deps.Rates = postgres.NewRateRepository(store)
		deps.Intents = postgres.NewIntentRepository(store)
		deps.Statuses = postgres.NewStatusRepository(store)
		deps.Timeline = postgres.NewTimelineRepository(store)
		deps.Outbox = postgres.NewOutboxRepository(store)
		logger.Info("postgres storage initialized")
	default:
		deps.Orders = memory.NewOrderRepository()
		deps.Coupons = memory.NewCouponRepository()
		deps.Rates = memory.NewRateRepository()
		deps.Intents = memory.NewIntentRepository()
		deps.Statuses = memory.NewStatusRepository()
		deps.Timeline = memory.NewTimelineRepository()
		deps.Outbox = memory.NewOutboxRepository()
		logger.Info("in-memory storage initialized")
	}

	if cfg.RedisAddr != "" {
		quotes, err := redisstore.Open(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			deps.Close()
			return nil, fmt.Errorf("open redis: %w", err)
		}
		deps.Redis = quotes
		deps.Quotes = quotes
		logger.WithField("addr", cfg.RedisAddr).Info("redis quote store initialized")
	} else {
		deps.Quotes = memory.NewQuoteStore()
	}

	deps.Gateways = buildGateways(cfg, logger)

	return deps, nil
}

// buildGateways создаёт адаптеры шлюзов. Шлюз без base URL не
// регистрируется: заказы на него отклоняются, а его вебхук отвечает 404.
func buildGateways(cfg Config, logger *log.Entry) []domain.GatewayAdapter {
	var gateways []domain.GatewayAdapter

	if cfg.Card.BaseURL != "" {
		gateways = append(gateways, card.New(card.Config{
			BaseURL:       cfg.Card.BaseURL,
			SecretKey:     cfg.Card.SecretKey,
			WebhookSecret: cfg.Card.WebhookSecret,
			Timeout:       cfg.Card.Timeout,
		}, logger.WithField("component", "card-gateway")))
	} else {
		logger.Warn("card gateway is not configured, disabled")
	}

	if cfg.Wallet.BaseURL != "" {
		gateways = append(gateways, wallet.New(wallet.Config{
			BaseURL:       cfg.Wallet.BaseURL,
			ClientID:      cfg.Wallet.ClientID,
			ClientSecret:  cfg.Wallet.ClientSecret,
			WebhookID:     cfg.Wallet.WebhookID,
			WebhookSecret: cfg.Wallet.WebhookSecret,
			ReturnURLBase: cfg.Wallet.ReturnURLBase,
			Timeout:       cfg.Wallet.Timeout,
		}, logger.WithField("component", "wallet-gateway")))
	} else {
		logger.Warn("wallet gateway is not configured, disabled")
	}

	return gateways
}

// Close освобождает внешние соединения.
func (d *Dependencies) Close() {
	if d.Redis != nil {
		if err := d.Redis.Close(); err != nil {
			d.Logger.WithError(err).Warn("redis close failed")
		}
	}
	if d.Postgres != nil {
		if err := d.Postgres.Close(); err != nil {
			d.Logger.WithError(err).Warn("postgres close failed")
		}
	}
}
