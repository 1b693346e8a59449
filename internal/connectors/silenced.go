package connectors

import (
	"context"
	"encoding/json"
	"fmt"
)

// emitPort — локальное объявление порта, чтобы не тянуть пакет диспетчера.
type emitPort interface {
	Emit(ctx context.Context, payload []byte) ([]byte, error)
}

// SilenceChecker реализует control.SilenceManager.
type SilenceChecker interface {
	IsSilenced(resource string) bool
}

// SilencedSink — обертка над каналом алертов: перед доставкой сверяется
// со списком заглушенных ресурсов. Глушение живет здесь, в слое доставки,
// а не в хендлере — хендлер только строит payload.
type SilencedSink struct {
	next     emitPort
	silences SilenceChecker
}

func NewSilencedSink(next emitPort, silences SilenceChecker) *SilencedSink {
	return &SilencedSink{next: next, silences: silences}
}

func (s *SilencedSink) Emit(ctx context.Context, payload []byte) ([]byte, error) {
	var m map[string]any
	if err := json.Unmarshal(payload, &m); err == nil {
		if resource, ok := m["resource"].(string); ok && s.silences.IsSilenced(resource) {
			return nil, fmt.Errorf("%w: %s", ErrSilenced, resource)
		}
	}
	return s.next.Emit(ctx, payload)
}
