package actions

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/xela07ax/autoremedy/internal/domain"
	"go.uber.org/zap"
)

// ReviewHandler ставит флаг ручной проверки (HITL): событие с низкой
// уверенностью уходит в очередь оператора, а не в автоматику.
type ReviewHandler struct {
	port   EmitPort
	logger *zap.Logger
}

func NewReviewHandler(port EmitPort, logger *zap.Logger) *ReviewHandler {
	return &ReviewHandler{port: port, logger: logger.Named(domain.ActionFlagForReview)}
}

func (h *ReviewHandler) Name() string { return domain.ActionFlagForReview }

func (h *ReviewHandler) Execute(ctx context.Context, actx domain.ActionContext) domain.ActionOutcome {
	eventType := strField(actx.Event, "event_type")

	flag := map[string]any{
		"review_id":  fmt.Sprintf("RV-%d", time.Now().Unix()),
		"event_type": eventType,
		"resource":   strField(actx.Event, "resource"),
		"reason":     "Low confidence",
		"confidence": numField(actx.Event, "confidence"),
		"risk_score": actx.Score,
		"decision":   string(actx.Decision),
		"status":     "PENDING_REVIEW",
		"created_at": time.Now().UTC(),
	}

	payload, err := json.Marshal(flag)
	if err != nil {
		return failure(h.Name(), fmt.Sprintf("Review flagging failed: %v", err))
	}

	if _, err := h.port.Emit(ctx, payload); err != nil {
		h.logger.Error("failed to flag for review", zap.Error(err))
		return failure(h.Name(), fmt.Sprintf("Review flagging failed: %v", err))
	}

	return success(h.Name(),
		fmt.Sprintf("Event flagged for human review: %s", eventType),
		map[string]any{"review_data": flag})
}
