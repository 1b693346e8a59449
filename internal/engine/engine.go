package engine

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/xela07ax/autoremedy/internal/domain"
	"go.uber.org/zap"
)

// Policy — веса и пороги движка. Фиксируются при создании инстанса:
// менять политику на лету нельзя, только пересобрать движок с новым конфигом.
type Policy struct {
	SeverityWeights map[domain.Severity]float64       `json:"severity_weights"`
	ImpactWeights   map[domain.BusinessImpact]float64 `json:"impact_weights"`

	UrgencyWeight       float64 `json:"urgency_weight"`       // потолок вклада срочности
	ImmediateThreshold  float64 `json:"immediate_threshold"`  // score >= — немедленное исполнение
	AlertThreshold      float64 `json:"alert_threshold"`      // score >= — алерт + тикет
	ConfidenceThreshold float64 `json:"confidence_threshold"` // ниже — только человек

	HistoryLimit int `json:"history_limit"` // размер окна истории в памяти
}

// DefaultPolicy возвращает боевые значения по умолчанию.
func DefaultPolicy() Policy {
	return Policy{
		SeverityWeights: map[domain.Severity]float64{
			domain.SeverityLow:    10,
			domain.SeverityMedium: 25,
			domain.SeverityHigh:   40,
		},
		ImpactWeights: map[domain.BusinessImpact]float64{
			domain.ImpactLow:      10,
			domain.ImpactMedium:   25,
			domain.ImpactCritical: 40,
		},
		UrgencyWeight:       20,
		ImmediateThreshold:  80,
		AlertThreshold:      50,
		ConfidenceThreshold: 0.7,
		HistoryLimit:        10000,
	}
}

// Recorder — порт для внешней персистентности решений (decision trail).
// Ядро про его устройство ничего не знает: Record обязан быть неблокирующим.
type Recorder interface {
	Record(rec domain.DecisionRecord)
}

// Engine — автономный движок принятия решений. Считает риск события,
// выбирает категорию решения и ведет локальную историю для аудита.
// Безопасен для конкурентного использования.
type Engine struct {
	policy Policy

	mu      sync.Mutex
	history []domain.DecisionRecord

	recorder Recorder // опционален
	metrics  *Metrics
	logger   *zap.Logger
}

func New(policy Policy, recorder Recorder, metrics *Metrics, logger *zap.Logger) *Engine {
	if metrics == nil {
		metrics = NewMetrics(nil)
	}
	if policy.HistoryLimit <= 0 {
		policy.HistoryLimit = DefaultPolicy().HistoryLimit
	}
	return &Engine{
		policy:   policy,
		recorder: recorder,
		metrics:  metrics,
		logger:   logger.Named("engine"),
	}
}

// Score считает риск события: базовые веса серьезности и бизнес-влияния
// плюс ступенчатый вклад срочности, всё умноженное на confidence.
// Низкая уверенность пропорционально давит итоговый score, а не просто
// отсекается порогом. Результат всегда в [0, 100].
func (e *Engine) Score(ev domain.Event) float64 {
	severityScore := e.policy.SeverityWeights[ev.Severity]
	impactScore := e.policy.ImpactWeights[ev.BusinessImpact]
	urgencyScore := e.urgency(ev.TimeToImpact)

	total := (severityScore + impactScore + urgencyScore) * ev.Confidence

	if total < 0 {
		total = 0
	}
	if total > 100 {
		total = 100
	}
	return total
}

// urgency — монотонно невозрастающая ступенька от времени до импакта.
// Меньше времени — выше вклад.
func (e *Engine) urgency(minutes float64) float64 {
	u := e.policy.UrgencyWeight
	switch {
	case minutes <= 5:
		return u
	case minutes <= 30:
		return u * 0.7
	case minutes <= 120:
		return u * 0.4
	default:
		return u * 0.1
	}
}

// Decide выбирает категорию решения. Confidence проверяется ДО расчета
// score и закорачивает пороговую логику: срочное и серьезное событие
// с низкой уверенностью уходит человеку, а не в автоисполнение.
// Это осознанный контур политики, не упрощение.
func (e *Engine) Decide(ev domain.Event) domain.Decision {
	if ev.Confidence < e.policy.ConfidenceThreshold {
		e.logger.Warn("low confidence requires human review",
			zap.Float64("confidence", ev.Confidence),
			zap.String("event_type", ev.EventType),
		)
		return domain.DecisionHumanReview
	}
	return e.decideScored(ev, e.Score(ev))
}

// decideScored — пороговая часть Decide для случаев, когда score уже посчитан.
// Score — чистая функция события, поэтому переиспользование значения
// не меняет результат.
func (e *Engine) decideScored(ev domain.Event, score float64) domain.Decision {
	if ev.Confidence < e.policy.ConfidenceThreshold {
		return domain.DecisionHumanReview
	}
	switch {
	case score >= e.policy.ImmediateThreshold:
		return domain.DecisionExecuteImmediate
	case score >= e.policy.AlertThreshold:
		return domain.DecisionAlertAndTicket
	default:
		return domain.DecisionLogOnly
	}
}

// ActionsFor — статическая таблица решение -> упорядоченный список действий.
// Порядок значим: алерт всегда раньше тикета, лог всегда раньше флага ревью.
func (e *Engine) ActionsFor(decision domain.Decision) []string {
	switch decision {
	case domain.DecisionExecuteImmediate:
		return []string{domain.ActionSendAlert, domain.ActionCreateTicket, domain.ActionExecuteScript}
	case domain.DecisionAlertAndTicket:
		return []string{domain.ActionSendAlert, domain.ActionCreateTicket}
	case domain.DecisionLogOnly:
		return []string{domain.ActionLogEvent}
	case domain.DecisionHumanReview:
		return []string{domain.ActionLogEvent, domain.ActionFlagForReview}
	}
	return nil
}

// Reasoning собирает детерминированное текстовое обоснование решения.
// Используется только для аудита, никогда — для управления потоком.
func (e *Engine) Reasoning(ev domain.Event, score float64, decision domain.Decision) string {
	parts := []string{
		fmt.Sprintf("Event: %s on %s", ev.EventType, ev.Resource),
		fmt.Sprintf("Severity: %s, Impact: %s", ev.Severity, ev.BusinessImpact),
		fmt.Sprintf("Time to impact: %gmin, Confidence: %.2f", ev.TimeToImpact, ev.Confidence),
		fmt.Sprintf("Risk score: %.2f", score),
	}

	switch decision {
	case domain.DecisionHumanReview:
		parts = append(parts, "Low confidence triggered human review requirement")
	case domain.DecisionExecuteImmediate:
		parts = append(parts, fmt.Sprintf("High score (%.2f >= %g) requires immediate execution", score, e.policy.ImmediateThreshold))
	case domain.DecisionAlertAndTicket:
		parts = append(parts, fmt.Sprintf("Medium score (%.2f >= %g) requires alert and ticket", score, e.policy.AlertThreshold))
	default:
		parts = append(parts, fmt.Sprintf("Low score (%.2f < %g) only requires logging", score, e.policy.AlertThreshold))
	}

	out := parts[0]
	for _, p := range parts[1:] {
		out += " | " + p
	}
	return out
}

// Process — главная точка входа: валидирует сырое событие, принимает решение
// и возвращает запись аудита. Ошибка валидации НЕ поднимается наружу —
// она сама по себе результат решения и оформляется fallback-записью
// (LOG_ONLY / log_error / status=error), которая тоже попадает в историю.
func (e *Engine) Process(raw map[string]any) domain.DecisionRecord {
	ev, err := domain.EventFromMap(raw)
	if err != nil {
		e.logger.Error("event rejected", zap.Error(err))
		rec := domain.DecisionRecord{
			ID:        uuid.New().String(),
			Decision:  domain.DecisionLogOnly,
			Score:     0,
			Actions:   []string{domain.ActionLogError},
			Status:    domain.RecordError,
			Reasoning: fmt.Sprintf("Processing error: %v", err),
			Timestamp: time.Now().UTC(),
		}
		e.appendRecord(rec)
		return rec
	}

	// Score — чистая функция события, считаем один раз и переиспользуем
	// в пороговой логике. Численно эквивалентно повторному расчету.
	score := e.Score(ev)
	decision := e.decideScored(ev, score)
	actions := e.ActionsFor(decision)
	reasoning := e.Reasoning(ev, score, decision)

	rec := domain.DecisionRecord{
		ID:        uuid.New().String(),
		Decision:  decision,
		Score:     score,
		Actions:   actions,
		Status:    domain.RecordCompleted,
		Reasoning: reasoning,
		Timestamp: time.Now().UTC(),
	}
	e.appendRecord(rec)

	e.logger.Info("event processed",
		zap.String("event_type", ev.EventType),
		zap.String("resource", ev.Resource),
		zap.String("decision", string(decision)),
		zap.Float64("score", score),
	)
	return rec
}

func (e *Engine) appendRecord(rec domain.DecisionRecord) {
	e.mu.Lock()
	e.history = append(e.history, rec)
	// Окно истории ограничено: старье вытесняется, система записи —
	// внешний decision trail, а не эта память.
	if over := len(e.history) - e.policy.HistoryLimit; over > 0 {
		e.history = append(e.history[:0:0], e.history[over:]...)
	}
	e.mu.Unlock()

	if e.recorder != nil {
		e.recorder.Record(rec)
	}

	e.metrics.EventsProcessed.WithLabelValues(rec.Status).Inc()
	e.metrics.DecisionsTotal.WithLabelValues(string(rec.Decision)).Inc()
	e.metrics.RiskScore.Observe(rec.Score)
}

// History возвращает последние limit записей в хронологическом порядке
// (старейшая из окна — первой). limit <= 0 — пустой срез.
func (e *Engine) History(limit int) []domain.DecisionRecord {
	if limit <= 0 {
		return []domain.DecisionRecord{}
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	start := len(e.history) - limit
	if start < 0 {
		start = 0
	}
	out := make([]domain.DecisionRecord, len(e.history)-start)
	copy(out, e.history[start:])
	return out
}

// PolicySnapshot отдает копию действующей политики (для explain-эндпоинтов).
func (e *Engine) PolicySnapshot() Policy {
	p := e.policy
	p.SeverityWeights = make(map[domain.Severity]float64, len(e.policy.SeverityWeights))
	for k, v := range e.policy.SeverityWeights {
		p.SeverityWeights[k] = v
	}
	p.ImpactWeights = make(map[domain.BusinessImpact]float64, len(e.policy.ImpactWeights))
	for k, v := range e.policy.ImpactWeights {
		p.ImpactWeights[k] = v
	}
	return p
}
