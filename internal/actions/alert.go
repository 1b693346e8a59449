package actions

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/xela07ax/autoremedy/internal/connectors"
	"github.com/xela07ax/autoremedy/internal/domain"
	"go.uber.org/zap"
)

// AlertHandler собирает структурированный алерт и отдает его в канал
// алертинга. Вся бизнес-логика хендлера — построение payload; доставкой
// (почта, Pub/Sub, глушение) занимается порт.
type AlertHandler struct {
	port   EmitPort
	logger *zap.Logger
}

func NewAlertHandler(port EmitPort, logger *zap.Logger) *AlertHandler {
	return &AlertHandler{port: port, logger: logger.Named(domain.ActionSendAlert)}
}

func (h *AlertHandler) Name() string { return domain.ActionSendAlert }

func (h *AlertHandler) Execute(ctx context.Context, actx domain.ActionContext) domain.ActionOutcome {
	eventType := strField(actx.Event, "event_type")
	resource := strField(actx.Event, "resource")

	alert := map[string]any{
		"alert_type": "SYSTEM_ALERT",
		"event_type": eventType,
		"resource":   resource,
		"severity":   strField(actx.Event, "severity"),
		"decision":   string(actx.Decision),
		"risk_score": actx.Score,
		"timestamp":  time.Now().UTC(),
		"message":    fmt.Sprintf("Alert: %s detected on %s", eventType, resource),
	}

	payload, err := json.Marshal(alert)
	if err != nil {
		return failure(h.Name(), fmt.Sprintf("Alert failed: %v", err))
	}

	if _, err := h.port.Emit(ctx, payload); err != nil {
		if errors.Is(err, connectors.ErrSilenced) {
			// Ресурс заглушен оператором: payload построен, доставка подавлена
			return partial(h.Name(),
				fmt.Sprintf("Alert suppressed: resource %s is silenced", resource),
				map[string]any{"alert_data": alert})
		}
		h.logger.Error("failed to send alert", zap.Error(err))
		return failure(h.Name(), fmt.Sprintf("Alert failed: %v", err))
	}

	return success(h.Name(),
		fmt.Sprintf("Alert sent for %s on %s", eventType, resource),
		map[string]any{"alert_data": alert})
}
