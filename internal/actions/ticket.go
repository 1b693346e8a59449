package actions

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/xela07ax/autoremedy/internal/domain"
	"go.uber.org/zap"
)

// TicketHandler создает инцидент-тикет через порт тикетницы.
type TicketHandler struct {
	port   EmitPort
	logger *zap.Logger
}

func NewTicketHandler(port EmitPort, logger *zap.Logger) *TicketHandler {
	return &TicketHandler{port: port, logger: logger.Named(domain.ActionCreateTicket)}
}

func (h *TicketHandler) Name() string { return domain.ActionCreateTicket }

func (h *TicketHandler) Execute(ctx context.Context, actx domain.ActionContext) domain.ActionOutcome {
	eventType := strField(actx.Event, "event_type")
	resource := strField(actx.Event, "resource")
	ticketID := fmt.Sprintf("TK-%d", time.Now().Unix())

	ticket := map[string]any{
		"ticket_id":       ticketID,
		"title":           fmt.Sprintf("Incident: %s on %s", eventType, resource),
		"description":     fmt.Sprintf("Event detected with risk score %.2f. Decision: %s", actx.Score, actx.Decision),
		"severity":        strField(actx.Event, "severity"),
		"business_impact": strField(actx.Event, "business_impact"),
		"resource":        resource,
		"status":          "OPEN",
		"created_at":      time.Now().UTC(),
		"priority":        ticketPriority(actx.Score),
	}

	payload, err := json.Marshal(ticket)
	if err != nil {
		return failure(h.Name(), fmt.Sprintf("Ticket creation failed: %v", err))
	}

	if _, err := h.port.Emit(ctx, payload); err != nil {
		h.logger.Error("failed to create ticket", zap.Error(err))
		return failure(h.Name(), fmt.Sprintf("Ticket creation failed: %v", err))
	}

	return success(h.Name(),
		fmt.Sprintf("Ticket %s created successfully", ticketID),
		map[string]any{"ticket_data": ticket})
}

// ticketPriority выводит приоритет тикета из риск-скора.
func ticketPriority(score float64) string {
	switch {
	case score >= 80:
		return "CRITICAL"
	case score >= 50:
		return "HIGH"
	default:
		return "MEDIUM"
	}
}
