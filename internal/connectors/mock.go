package connectors

import (
	"context"
	"fmt"
	"math/rand/v2" // Используем v2 для Go 1.25
	"time"
)

// MockSink — симулированный бэкенд эффекта. Используется там, где реальная
// интеграция (тикетница, оркестратор скриптов) еще не подключена.
type MockSink struct {
	Channel string // alerting | ticketing | automation | logging
}

func NewMockSink(channel string) *MockSink {
	return &MockSink{Channel: channel}
}

func (s *MockSink) Emit(ctx context.Context, payload []byte) ([]byte, error) {
	// В v2 используется rand.IntN (с большой N)
	// Имитируем задержку 50-300мс
	latency := time.Duration(50+rand.IntN(250)) * time.Millisecond

	select {
	case <-time.After(latency):
		// Имитация работы
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	switch s.Channel {
	case "alerting":
		return []byte(`{"status": "queued", "integration": "alertmanager"}`), nil
	case "ticketing":
		return []byte(`{"status": "created", "integration": "jira"}`), nil
	case "automation":
		return []byte(`{"status": "executed", "integration": "runbook-runner"}`), nil
	case "logging":
		return []byte(`{"status": "stored", "integration": "loki"}`), nil

	// Специальный канал для демонстрации отказов (Circuit Breaker / Retry)
	case "unstable.sink":
		return nil, fmt.Errorf("sink internal error")

	default:
		return nil, fmt.Errorf("channel %s not supported by mock sink", s.Channel)
	}
}
