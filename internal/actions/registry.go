package actions

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/xela07ax/autoremedy/internal/domain"
	"github.com/xela07ax/autoremedy/internal/engine"
	"go.uber.org/zap"
)

// EmitPort — внешняя возможность, через которую хендлер производит свой
// побочный эффект (алертинг, тикетница, раннер скриптов, журнал).
// Поставляется при сборке; хендлер не знает, симуляция за ним или живая система.
type EmitPort interface {
	Emit(ctx context.Context, payload []byte) ([]byte, error)
}

// Handler — исполнитель одного идентификатора действия.
// Execute никогда не возвращает ошибку: любой внутренний сбой обязан
// превратиться в outcome с результатом FAILURE.
type Handler interface {
	Name() string
	Execute(ctx context.Context, actx domain.ActionContext) domain.ActionOutcome
}

// Registry хранит таблицу идентификатор -> хендлер и исполняет батчи.
// Таблица мутабельна только на этапе сборки; во время Dispatch — только чтение.
type Registry struct {
	handlers map[string]Handler
	metrics  *engine.Metrics
	logger   *zap.Logger
}

func NewRegistry(metrics *engine.Metrics, logger *zap.Logger) *Registry {
	if metrics == nil {
		metrics = engine.NewMetrics(nil)
	}
	return &Registry{
		handlers: make(map[string]Handler),
		metrics:  metrics,
		logger:   logger.Named("dispatcher"),
	}
}

func (r *Registry) Register(h Handler) {
	r.handlers[h.Name()] = h
}

// Dispatch исполняет идентификаторы строго по порядку. Ключевой инвариант:
// упавшее или незарегистрированное действие НИКОГДА не прерывает остальные —
// сорванное создание тикета не должно погасить уже подготовленный алерт.
// Длина и порядок результата всегда совпадают со входным списком.
func (r *Registry) Dispatch(ctx context.Context, names []string, actx domain.ActionContext) []domain.ActionOutcome {
	results := make([]domain.ActionOutcome, 0, len(names))

	for _, name := range names {
		handler, ok := r.handlers[name]
		if !ok {
			r.logger.Warn("action not found, skipping", zap.String("action", name))
			results = append(results, domain.ActionOutcome{
				Action:    name,
				Result:    domain.ResultSkipped,
				Message:   fmt.Sprintf("Action %q not found", name),
				Timestamp: time.Now().UTC(),
			})
			r.metrics.ActionOutcomes.WithLabelValues(name, string(domain.ResultSkipped)).Inc()
			continue
		}

		outcome := r.safeExecute(ctx, handler, actx)
		if outcome.Result == domain.ResultFailure {
			r.logger.Warn("action failed",
				zap.String("action", name),
				zap.String("message", outcome.Message),
			)
		}
		results = append(results, outcome)
		r.metrics.ActionOutcomes.WithLabelValues(name, string(outcome.Result)).Inc()
	}

	return results
}

// safeExecute — защитный периметр вокруг плагинных хендлеров: паника
// интегратора превращается в FAILURE, батч продолжается.
func (r *Registry) safeExecute(ctx context.Context, h Handler, actx domain.ActionContext) (out domain.ActionOutcome) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("handler panic recovered",
				zap.String("action", h.Name()),
				zap.Any("panic", rec),
			)
			out = domain.ActionOutcome{
				Action:    h.Name(),
				Result:    domain.ResultFailure,
				Message:   fmt.Sprintf("Unexpected error: %v", rec),
				Timestamp: time.Now().UTC(),
			}
		}
	}()
	return h.Execute(ctx, actx)
}

// Available возвращает зарегистрированные идентификаторы (для discovery).
func (r *Registry) Available() []string {
	names := make([]string, 0, len(r.handlers))
	for name := range r.handlers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
