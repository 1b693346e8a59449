package domain

import "time"

// Decision — категория, которую движок присвоил событию.
// По ядру всегда ходит типизированное значение; в текст его превращает
// только внешний транспорт при сериализации ответа.
type Decision string

const (
	DecisionExecuteImmediate Decision = "EXECUTE_IMMEDIATE"
	DecisionAlertAndTicket   Decision = "ALERT_AND_TICKET"
	DecisionLogOnly          Decision = "LOG_ONLY"
	DecisionHumanReview      Decision = "REQUIRES_HUMAN_REVIEW"
)

// Статусы обработки события.
const (
	RecordCompleted = "completed"
	RecordError     = "error"
)

// DecisionRecord — неизменяемая запись аудита. Создается ровно один раз
// на обработанное событие (включая событие, которое не прошло валидацию).
type DecisionRecord struct {
	ID        string    `json:"id"` // UUID записи
	Decision  Decision  `json:"decision"`
	Score     float64   `json:"score"`
	Actions   []string  `json:"actions_executed"` // упорядоченный список идентификаторов действий
	Status    string    `json:"status"`           // completed | error
	Reasoning string    `json:"reasoning"`
	Timestamp time.Time `json:"timestamp"`
}
