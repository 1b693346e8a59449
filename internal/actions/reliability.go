package actions

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/avast/retry-go/v5"
	"github.com/sony/gobreaker"
	"github.com/xela07ax/autoremedy/internal/connectors"
	"github.com/xela07ax/autoremedy/internal/engine"
	"golang.org/x/time/rate"
)

// ReliableSink — «укрепленный» порт: rate limiter, circuit breaker и ретраи
// вокруг любого EmitPort. Ядро диспетчера остается без ретраев и таймаутов —
// это слой внешних интеграций закрывает их здесь.
type ReliableSink struct {
	next    EmitPort
	cb      *gobreaker.CircuitBreaker
	limiter *rate.Limiter
}

func NewReliableSink(name string, next EmitPort, metrics *engine.Metrics) *ReliableSink {
	if metrics == nil {
		metrics = engine.NewMetrics(nil)
	}

	// Настройка предохранителя
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 3,
		Interval:    5 * time.Second,
		Timeout:     30 * time.Second, // Время, через которое CB попробует "закрыться"
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			// Если более 5 ошибок подряд — открываемся (блокируем трафик)
			return counts.ConsecutiveFailures > 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			if to == gobreaker.StateOpen {
				metrics.SinkBreakerState.WithLabelValues(name).Set(1)
			} else {
				metrics.SinkBreakerState.WithLabelValues(name).Set(0)
			}
		},
	})

	// Лимитер на канал доставки (защита внешней системы от шторма алертов)
	limiter := rate.NewLimiter(rate.Limit(100), 20)

	return &ReliableSink{
		next:    next,
		cb:      cb,
		limiter: limiter,
	}
}

func (w *ReliableSink) Emit(ctx context.Context, payload []byte) ([]byte, error) {
	// 1. Rate Limiter
	if err := w.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit exceeded: %w", err)
	}

	var finalData []byte

	// 2. Circuit Breaker
	cbResult, err := w.cb.Execute(func() (interface{}, error) {
		r := retry.New(
			retry.Context(ctx),
			retry.Attempts(3),
			// Умный расчет задержки
			retry.DelayType(func(n uint, err error, config retry.DelayContext) time.Duration {
				// Если sink вернул ThrottleError (например, считал Retry-After заголовок)
				var tErr *connectors.ThrottleError
				if errors.As(err, &tErr) {
					return tErr.RetryAfter
				}

				// В остальных случаях (сетевой лаг, 500-ка) — стандартный экспоненциальный бэкофф
				return retry.BackOffDelay(n, err, config)
			}),
		)

		retryErr := r.Do(func() error {
			tCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()

			var callErr error
			finalData, callErr = w.next.Emit(tCtx, payload)
			return callErr
		})

		return finalData, retryErr
	})

	if err != nil {
		return nil, err
	}

	return cbResult.([]byte), nil
}
