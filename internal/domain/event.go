package domain

import (
	"errors"
	"fmt"
	"strconv"
)

// ErrValidation — маркер всех ошибок разбора входящего события.
// Позволяет вызывающему коду отличить битый ввод от системных сбоев через errors.Is.
var ErrValidation = errors.New("event validation failed")

// Severity — уровень серьезности события от мониторинга.
type Severity string

const (
	SeverityLow    Severity = "LOW"
	SeverityMedium Severity = "MEDIUM"
	SeverityHigh   Severity = "HIGH"
)

// ParseSeverity валидирует строковое значение. Неизвестные уровни — жесткий отказ,
// «угадывать» серьезность за монитор мы не имеем права.
func ParseSeverity(s string) (Severity, error) {
	switch Severity(s) {
	case SeverityLow, SeverityMedium, SeverityHigh:
		return Severity(s), nil
	}
	return "", fmt.Errorf("%w: unknown severity %q", ErrValidation, s)
}

// BusinessImpact — влияние события на бизнес.
type BusinessImpact string

const (
	ImpactLow      BusinessImpact = "LOW"
	ImpactMedium   BusinessImpact = "MEDIUM"
	ImpactCritical BusinessImpact = "CRITICAL"
)

func ParseBusinessImpact(s string) (BusinessImpact, error) {
	switch BusinessImpact(s) {
	case ImpactLow, ImpactMedium, ImpactCritical:
		return BusinessImpact(s), nil
	}
	return "", fmt.Errorf("%w: unknown business impact %q", ErrValidation, s)
}

// Event — провалидированное операционное событие. Создается один раз
// на входящий запрос и дальше по ядру ходит только по значению.
type Event struct {
	EventType      string         `json:"event_type"`
	Severity       Severity       `json:"severity"`
	Resource       string         `json:"resource"`
	TimeToImpact   float64        `json:"time_to_impact"` // минуты до наступления эффекта
	BusinessImpact BusinessImpact `json:"business_impact"`
	Confidence     float64        `json:"confidence"` // 0.0 — 1.0
}

// EventFromMap собирает Event из сырого JSON-подобного ввода транспорта.
// Любое отсутствующее поле, кривой enum или нечисловое число — ErrValidation.
func EventFromMap(raw map[string]any) (Event, error) {
	if raw == nil {
		return Event{}, fmt.Errorf("%w: event data is empty", ErrValidation)
	}

	eventType, err := stringField(raw, "event_type")
	if err != nil {
		return Event{}, err
	}
	resource, err := stringField(raw, "resource")
	if err != nil {
		return Event{}, err
	}

	sevRaw, err := stringField(raw, "severity")
	if err != nil {
		return Event{}, err
	}
	severity, err := ParseSeverity(sevRaw)
	if err != nil {
		return Event{}, err
	}

	impactRaw, err := stringField(raw, "business_impact")
	if err != nil {
		return Event{}, err
	}
	impact, err := ParseBusinessImpact(impactRaw)
	if err != nil {
		return Event{}, err
	}

	tti, err := numericField(raw, "time_to_impact")
	if err != nil {
		return Event{}, err
	}
	confidence, err := numericField(raw, "confidence")
	if err != nil {
		return Event{}, err
	}

	return Event{
		EventType:      eventType,
		Severity:       severity,
		Resource:       resource,
		TimeToImpact:   tti,
		BusinessImpact: impact,
		Confidence:     confidence,
	}, nil
}

func stringField(raw map[string]any, key string) (string, error) {
	v, ok := raw[key]
	if !ok {
		return "", fmt.Errorf("%w: missing field %q", ErrValidation, key)
	}
	s, ok := v.(string)
	if !ok || s == "" {
		return "", fmt.Errorf("%w: field %q must be a non-empty string", ErrValidation, key)
	}
	return s, nil
}

// numericField принимает float64 (стандарт для JSON), целые и числовые строки —
// агенты-поставщики событий любят слать числа как текст.
func numericField(raw map[string]any, key string) (float64, error) {
	v, ok := raw[key]
	if !ok {
		return 0, fmt.Errorf("%w: missing field %q", ErrValidation, key)
	}
	switch n := v.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case string:
		f, err := strconv.ParseFloat(n, 64)
		if err != nil {
			return 0, fmt.Errorf("%w: field %q is not numeric: %q", ErrValidation, key, n)
		}
		return f, nil
	}
	return 0, fmt.Errorf("%w: field %q has unsupported type %T", ErrValidation, key, v)
}
