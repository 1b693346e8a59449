package actions

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/xela07ax/autoremedy/internal/domain"
	"go.uber.org/zap"
)

// LogEventHandler фиксирует событие и принятое решение в журнальном порте.
type LogEventHandler struct {
	port   EmitPort
	logger *zap.Logger
}

func NewLogEventHandler(port EmitPort, logger *zap.Logger) *LogEventHandler {
	return &LogEventHandler{port: port, logger: logger.Named(domain.ActionLogEvent)}
}

func (h *LogEventHandler) Name() string { return domain.ActionLogEvent }

func (h *LogEventHandler) Execute(ctx context.Context, actx domain.ActionContext) domain.ActionOutcome {
	eventType := strField(actx.Event, "event_type")
	resource := strField(actx.Event, "resource")

	entry := map[string]any{
		"timestamp":       time.Now().UTC(),
		"event_type":      eventType,
		"resource":        resource,
		"severity":        strField(actx.Event, "severity"),
		"business_impact": strField(actx.Event, "business_impact"),
		"decision":        string(actx.Decision),
		"risk_score":      actx.Score,
		"confidence":      numField(actx.Event, "confidence"),
	}

	payload, err := json.Marshal(entry)
	if err != nil {
		return failure(h.Name(), fmt.Sprintf("Event logging failed: %v", err))
	}

	if _, err := h.port.Emit(ctx, payload); err != nil {
		h.logger.Error("failed to log event", zap.Error(err))
		return failure(h.Name(), fmt.Sprintf("Event logging failed: %v", err))
	}

	return success(h.Name(),
		fmt.Sprintf("Event logged: %s on %s", eventType, resource),
		map[string]any{"log_entry": entry})
}

// LogErrorHandler фиксирует сбой обработки события. Описание сбоя приходит
// в reasoning fallback-записи, исходный (невалидный) ввод — в контексте.
type LogErrorHandler struct {
	port   EmitPort
	logger *zap.Logger
}

func NewLogErrorHandler(port EmitPort, logger *zap.Logger) *LogErrorHandler {
	return &LogErrorHandler{port: port, logger: logger.Named(domain.ActionLogError)}
}

func (h *LogErrorHandler) Name() string { return domain.ActionLogError }

func (h *LogErrorHandler) Execute(ctx context.Context, actx domain.ActionContext) domain.ActionOutcome {
	entry := map[string]any{
		"timestamp":  time.Now().UTC(),
		"error_type": "PROCESSING_ERROR",
		"message":    actx.Reasoning,
		"event_data": actx.Event,
		"severity":   "HIGH",
	}

	payload, err := json.Marshal(entry)
	if err != nil {
		return failure(h.Name(), fmt.Sprintf("Error logging failed: %v", err))
	}

	if _, err := h.port.Emit(ctx, payload); err != nil {
		h.logger.Error("failed to log error", zap.Error(err))
		return failure(h.Name(), fmt.Sprintf("Error logging failed: %v", err))
	}

	return success(h.Name(),
		fmt.Sprintf("Error logged: %s", actx.Reasoning),
		map[string]any{"error_entry": entry})
}
