package app

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"

	healthcheck "github.com/vladislavdragonenkov/checkout/internal/health"
	"github.com/vladislavdragonenkov/checkout/internal/messaging/kafka"
	"github.com/vladislavdragonenkov/checkout/internal/metrics"
	"github.com/vladislavdragonenkov/checkout/internal/service/checkout"
	"github.com/vladislavdragonenkov/checkout/internal/service/coupon"
	"github.com/vladislavdragonenkov/checkout/internal/service/intent"
	"github.com/vladislavdragonenkov/checkout/internal/service/order"
	"github.com/vladislavdragonenkov/checkout/internal/service/outbox"
	"github.com/vladislavdragonenkov/checkout/internal/service/rating"
	"github.com/vladislavdragonenkov/checkout/internal/service/status"
	transport "github.com/vladislavdragonenkov/checkout/internal/transport/http"
	"github.com/vladislavdragonenkov/checkout/internal/version"
)

// Run собирает сервис и блокируется до отмены ctx либо падения сервера.
func Run(ctx context.Context, cfg Config) error {
	logger := log.WithField("component", "app")
	if level, err := log.ParseLevel(cfg.LogLevel); err == nil {
		log.SetLevel(level)
	}

	deps, err := NewDependencies(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer deps.Close()

	checkoutMetrics := metrics.NewCheckoutMetrics()

	couponValidator := coupon.NewValidator(deps.Coupons, logger.WithField("component", "coupon-validator"))
	rateCalculator := rating.NewCalculator(deps.Rates, logger.WithField("component", "rating-calculator"))
	verifier := checkout.NewVerifier(
		deps.Catalog,
		deps.Directory,
		couponValidator,
		rateCalculator,
		deps.Quotes,
		logger.WithField("component", "checkout-verifier"),
	)
	intentStore := intent.NewStore(deps.Intents, deps.Gateways, logger.WithField("component", "intent-store"))
	orderService := order.NewService(
		deps.Orders,
		deps.Timeline,
		deps.Outbox,
		deps.Directory,
		verifier,
		intentStore,
		logger.WithField("component", "order-service"),
	)
	statusService := status.NewService(deps.Statuses, logger.WithField("component", "status-service"))

	verifier.SetMetrics(checkoutMetrics)
	intentStore.SetMetrics(checkoutMetrics)
	orderService.SetMetrics(checkoutMetrics)

	// Kafka и outbox worker опциональны: без брокеров события копятся
	// в outbox до следующего запуска с настроенным Kafka.
	var kafkaProducer *kafka.Producer
	if len(cfg.KafkaBrokers) > 0 {
		producer, err := kafka.NewProducer(cfg.KafkaBrokers, logger.WithField("component", "kafka-producer"))
		if err != nil {
			logger.WithError(err).Warn("failed to create kafka producer, continuing without kafka")
		} else {
			kafkaProducer = producer
			logger.WithField("brokers", cfg.KafkaBrokers).Info("kafka producer initialized")

			worker := outbox.NewWorker(
				deps.Outbox,
				kafka.NewOutboxPublisher(producer),
				outbox.WithDLQPublisher(kafka.NewDLQPublisher(producer)),
				outbox.WithPollInterval(cfg.OutboxPollInterval),
				outbox.WithBatchSize(cfg.OutboxBatchSize),
				outbox.WithLogger(logger.WithField("component", "outbox-worker")),
			)
			go worker.Run(ctx)
		}
	}

	healthHandler := healthcheck.NewHandler(version.String())
	if deps.Postgres != nil {
		healthHandler.RegisterChecker("postgres", healthcheck.NewSimpleChecker("postgres", func() error {
			pingCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			return deps.Postgres.Ping(pingCtx)
		}))
	}
	if deps.Redis != nil {
		healthHandler.RegisterChecker("redis", healthcheck.NewSimpleChecker("redis", func() error {
			pingCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			return deps.Redis.Ping(pingCtx)
		}))
	}

	router := transport.NewRouter(transport.RouterDeps{
		Orders:   transport.NewOrderHandler(orderService, logger.WithField("component", "order-handler")),
		Checkout: transport.NewCheckoutHandler(verifier, logger.WithField("component", "checkout-handler")),
		Statuses: transport.NewStatusHandler(statusService, logger.WithField("component", "status-handler")),
		Webhooks: transport.NewWebhookHandler(orderService, intentStore, checkoutMetrics, logger.WithField("component", "webhook-handler")),
		Health:   healthHandler,
		Logger:   logger.WithField("component", "http"),
	})

	metricsSrv := startMetricsServer(ctx, cfg.MetricsAddr, logger, healthHandler)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Infof("HTTP сервер слушает %s", cfg.HTTPAddr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		logger.Info("получен сигнал остановки, останавливаем HTTP сервер")
		shutdownHTTP(srv, logger)
		shutdownHTTP(metricsSrv, logger)
		closeProducer(kafkaProducer, logger)
		return ctx.Err()
	case err := <-errCh:
		shutdownHTTP(metricsSrv, logger)
		closeProducer(kafkaProducer, logger)
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// startMetricsServer запускает HTTP-обработчик /metrics для Prometheus.
func startMetricsServer(ctx context.Context, addr string, logger *log.Entry, healthHandler http.Handler) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/healthz", healthHandler)
	mux.HandleFunc("/livez", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		logger.Infof("метрики доступны по адресу %s/metrics", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Warn("metrics server failed")
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownHTTP(srv, logger)
	}()

	return srv
}

// shutdownHTTP аккуратно останавливает HTTP-сервер.
func shutdownHTTP(srv *http.Server, logger *log.Entry) {
	if srv == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.WithError(err).Warn("http shutdown with error")
	}
}

func closeProducer(producer *kafka.Producer, logger *log.Entry) {
	if producer == nil {
		return
	}
	if err := producer.Close(); err != nil {
		logger.WithError(err).Warn("failed to close kafka producer")
	} else {
		logger.Info("kafka producer closed")
	}
}
