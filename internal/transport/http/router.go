package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/checkout/internal/health"
)

// RouterDeps — обработчики, монтируемые в роутер.
type RouterDeps struct {
	Orders   *OrderHandler
	Checkout *CheckoutHandler
	Statuses *StatusHandler
	Webhooks *WebhookHandler
	Health   *health.Handler
	Logger   *log.Entry
}

// NewRouter собирает HTTP-роутер сервиса.
func NewRouter(deps RouterDeps) *chi.Mux {
	logger := deps.Logger
	if logger == nil {
		logger = log.WithField("component", "http-router")
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	if deps.Health != nil {
		r.Get("/health", deps.Health.ServeHTTP)
		r.Get("/health/live", health.LivenessHandler)
		r.Get("/health/ready", deps.Health.ReadinessHandler)
	}

	r.Route("/api/v1", func(r chi.Router) {
		if deps.Checkout != nil {
			r.Post("/checkout/verify", deps.Checkout.Verify)
		}
		if deps.Orders != nil {
			r.Route("/orders", func(r chi.Router) {
				r.Post("/", deps.Orders.Create)
				r.Get("/", deps.Orders.List)
				r.Get("/{id}", deps.Orders.Get)
				r.Patch("/{id}/status", deps.Orders.UpdateStatus)
				r.Get("/{id}/timeline", deps.Orders.Timeline)
				r.Get("/tracking/{trackingNumber}", deps.Orders.GetByTracking)
				r.Get("/tracking/{trackingNumber}/intent", deps.Orders.Intent)
			})
		}
		if deps.Statuses != nil {
			r.Route("/statuses", func(r chi.Router) {
				r.Post("/", deps.Statuses.Create)
				r.Get("/", deps.Statuses.List)
				r.Put("/{id}", deps.Statuses.Update)
			})
		}
	})

	if deps.Webhooks != nil {
		r.Post("/webhooks/{gateway}", deps.Webhooks.Receive)
	}

	return r
}

// requestLogger логирует каждый запрос с итоговым статусом и длительностью.
func requestLogger(logger *log.Entry) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()

			next.ServeHTTP(ww, r)

			logger.WithFields(log.Fields{
				"method":     r.Method,
				"path":       r.URL.Path,
				"status":     ww.Status(),
				"bytes":      ww.BytesWritten(),
				"duration":   time.Since(start).String(),
				"request_id": middleware.GetReqID(r.Context()),
			}).Info("http request")
		})
	}
}
