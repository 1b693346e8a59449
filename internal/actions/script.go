package actions

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/xela07ax/autoremedy/internal/domain"
	"go.uber.org/zap"
)

// ScriptHandler формирует дескриптор запуска скрипта ремедиации и передает
// его раннеру автоматизации. Сам скрипт исполняет внешняя система.
type ScriptHandler struct {
	port   EmitPort
	logger *zap.Logger
}

func NewScriptHandler(port EmitPort, logger *zap.Logger) *ScriptHandler {
	return &ScriptHandler{port: port, logger: logger.Named(domain.ActionExecuteScript)}
}

func (h *ScriptHandler) Name() string { return domain.ActionExecuteScript }

func (h *ScriptHandler) Execute(ctx context.Context, actx domain.ActionContext) domain.ActionOutcome {
	eventType := strField(actx.Event, "event_type")
	resource := strField(actx.Event, "resource")
	scriptName := "remediate_" + strings.ToLower(eventType)

	invocation := map[string]any{
		"script_name":     scriptName,
		"target_resource": resource,
		"parameters": map[string]any{
			"severity":   strField(actx.Event, "severity"),
			"confidence": numField(actx.Event, "confidence"),
		},
		"execution_id": fmt.Sprintf("EXEC-%d", time.Now().Unix()),
		"started_at":   time.Now().UTC(),
	}

	payload, err := json.Marshal(invocation)
	if err != nil {
		return failure(h.Name(), fmt.Sprintf("Script execution failed: %v", err))
	}

	if _, err := h.port.Emit(ctx, payload); err != nil {
		h.logger.Error("failed to execute script", zap.Error(err))
		return failure(h.Name(), fmt.Sprintf("Script execution failed: %v", err))
	}

	return success(h.Name(),
		fmt.Sprintf("Script %s executed on %s", scriptName, resource),
		map[string]any{"script_data": invocation})
}
