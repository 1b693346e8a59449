package actions

import (
	"time"

	"github.com/xela07ax/autoremedy/internal/domain"
)

// strField достает строковое поле из сырого события. Контекст диспетчера
// несет событие как есть (в том числе невалидное при log_error), поэтому
// отсутствие поля — штатная ситуация, а не ошибка.
func strField(m map[string]any, key string) string {
	if m == nil {
		return "UNKNOWN"
	}
	if v, ok := m[key].(string); ok && v != "" {
		return v
	}
	return "UNKNOWN"
}

func numField(m map[string]any, key string) float64 {
	if m == nil {
		return 0
	}
	switch v := m[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	}
	return 0
}

func success(action, message string, details map[string]any) domain.ActionOutcome {
	return domain.ActionOutcome{
		Action:    action,
		Result:    domain.ResultSuccess,
		Message:   message,
		Timestamp: time.Now().UTC(),
		Details:   details,
	}
}

func failure(action, message string) domain.ActionOutcome {
	return domain.ActionOutcome{
		Action:    action,
		Result:    domain.ResultFailure,
		Message:   message,
		Timestamp: time.Now().UTC(),
	}
}

func partial(action, message string, details map[string]any) domain.ActionOutcome {
	return domain.ActionOutcome{
		Action:    action,
		Result:    domain.ResultPartial,
		Message:   message,
		Timestamp: time.Now().UTC(),
		Details:   details,
	}
}
