package domain

import "time"

// Идентификаторы действий, известные системе из коробки.
const (
	ActionSendAlert     = "send_alert"
	ActionCreateTicket  = "create_ticket"
	ActionExecuteScript = "execute_script"
	ActionLogEvent      = "log_event"
	ActionFlagForReview = "flag_for_review"
	ActionLogError      = "log_error"
)

// ActionResult — исход выполнения одного действия.
type ActionResult string

const (
	ResultSuccess ActionResult = "SUCCESS"
	ResultFailure ActionResult = "FAILURE"
	ResultPartial ActionResult = "PARTIAL"
	ResultSkipped ActionResult = "SKIPPED"
)

// ActionContext — транзитный вход диспетчера: исходное событие (как сырая
// структура транспорта, не обязательно провалидированный Event), решение,
// score и обоснование. Нигде не сохраняется.
type ActionContext struct {
	Event     map[string]any `json:"event"`
	Decision  Decision       `json:"decision"`
	Score     float64        `json:"score"`
	Reasoning string         `json:"reasoning"`
}

// ActionOutcome — результат одного действия. Диспетчер возвращает их строго
// в порядке входного списка идентификаторов, включая записи о неизвестных.
type ActionOutcome struct {
	Action    string         `json:"action"`
	Result    ActionResult   `json:"result"`
	Message   string         `json:"message"`
	Timestamp time.Time      `json:"timestamp"`
	Details   map[string]any `json:"details,omitempty"`
}
