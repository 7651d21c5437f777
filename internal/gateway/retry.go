package gateway

import (
	"context"
	"errors"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/checkout/internal/domain"
)

// RetryConfig конфигурация повторов идемпотентных запросов к шлюзу.
// Создание интента через этот механизм не проходит: повтор create
// защищён ключом идемпотентности на стороне шлюза, не слепым retry.
type RetryConfig struct {
	MaxAttempts   int
	InitialDelay  time.Duration
	MaxDelay      time.Duration
	BackoffFactor float64
}

// DefaultRetryConfig возвращает конфигурацию по умолчанию.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:   3,
		InitialDelay:  100 * time.Millisecond,
		MaxDelay:      2 * time.Second,
		BackoffFactor: 2.0,
	}
}

// Do выполняет идемпотентную операцию с exponential backoff.
// Повторяются только транзиентные ошибки (сеть, таймаут, 5xx шлюза).
func Do(ctx context.Context, logger *log.Entry, operation string, cfg RetryConfig, fn func() error) error {
	if logger == nil {
		logger = log.New().WithField("component", "gateway-retry")
	}
	if cfg.MaxAttempts <= 0 {
		cfg = DefaultRetryConfig()
	}

	var lastErr error
	delay := cfg.InitialDelay

	for attempt := 1; attempt <= cfg.MaxAttempts; attempt++ {
		lastErr = fn()
		if lastErr == nil {
			if attempt > 1 {
				logger.WithFields(log.Fields{
					"operation": operation,
					"attempt":   attempt,
				}).Info("gateway operation succeeded after retry")
			}
			return nil
		}

		if !isTransient(lastErr) {
			return lastErr
		}

		if attempt < cfg.MaxAttempts {
			logger.WithFields(log.Fields{
				"operation": operation,
				"attempt":   attempt,
				"delay":     delay,
				"error":     lastErr,
			}).Warn("gateway operation failed, retrying")

			select {
			case <-ctx.Done():
				return domain.NewGatewayError("", domain.GatewayErrTimeout, "context canceled during retry", ctx.Err())
			case <-time.After(delay):
			}

			delay = time.Duration(float64(delay) * cfg.BackoffFactor)
			if delay > cfg.MaxDelay {
				delay = cfg.MaxDelay
			}
		}
	}

	return lastErr
}

// isTransient определяет, имеет ли смысл повторять операцию.
func isTransient(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	if ge, ok := domain.IsGatewayError(err); ok {
		switch ge.Code {
		case domain.GatewayErrNetwork, domain.GatewayErrTimeout, domain.GatewayErrProvider:
			return true
		default:
			return false
		}
	}
	return false
}
