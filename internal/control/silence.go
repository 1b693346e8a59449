package control

import (
	"context"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"
	"github.com/xela07ax/autoremedy/internal/infra"
	"go.uber.org/zap"
)

// SilenceManager держит в памяти список заглушенных ресурсов: по ним алерты
// подавляются на уровне доставки. Источник правды — Redis Set, изменения
// прилетают через Pub/Sub. Hot Path (IsSilenced) работает только с RAM.
type SilenceManager struct {
	mu       sync.RWMutex
	silenced map[string]struct{}
	rdb      *redis.Client
	logger   *zap.Logger
}

func NewSilenceManager(rdb *redis.Client, logger *zap.Logger) *SilenceManager {
	return &SilenceManager{
		silenced: make(map[string]struct{}),
		rdb:      rdb,
		logger:   logger.With(zap.String("mod", "silence")),
	}
}

// Init загружает текущее состояние глушений при старте сервиса
func (m *SilenceManager) Init(ctx context.Context) error {
	resources, err := m.rdb.SMembers(ctx, infra.RedisKeySilencedResources).Result()
	if err != nil {
		return fmt.Errorf("failed to load silenced resources: %w", err)
	}

	m.mu.Lock()
	m.silenced = make(map[string]struct{}, len(resources))
	for _, id := range resources {
		m.silenced[id] = struct{}{}
	}
	m.mu.Unlock()

	m.logger.Info("silence state loaded", zap.Int("count", len(resources)))
	return nil
}

// StartListener подписывается на сигналы глушения в реальном времени.
// Формат сигнала: "resource:on" / "resource:off".
func (m *SilenceManager) StartListener(ctx context.Context) {
	ListenStateResilient(ctx, m.rdb, m.logger, infra.RedisChanSilenceSignal,
		func() error { return m.Init(ctx) }, // Синхронизация при переподключении
		func(resource string, on bool) {
			m.mu.Lock()
			defer m.mu.Unlock()
			if on {
				m.silenced[resource] = struct{}{}
			} else {
				delete(m.silenced, resource)
			}
		},
	)
}

// IsSilenced — максимально быстрый метод для проверки в Hot Path доставки.
func (m *SilenceManager) IsSilenced(resource string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.silenced[resource]
	return ok
}

// Silence глушит ресурс: пишет в Redis (источник правды) и рассылает сигнал
// остальным инстансам. Локальная мапа обновляется сразу, не дожидаясь Pub/Sub.
func (m *SilenceManager) Silence(ctx context.Context, resource string) error {
	if err := m.rdb.SAdd(ctx, infra.RedisKeySilencedResources, resource).Err(); err != nil {
		return fmt.Errorf("failed to persist silence: %w", err)
	}
	if err := m.rdb.Publish(ctx, infra.RedisChanSilenceSignal, resource+":on").Err(); err != nil {
		m.logger.Warn("silence signal publish failed", zap.Error(err))
	}

	m.mu.Lock()
	m.silenced[resource] = struct{}{}
	m.mu.Unlock()
	return nil
}

func (m *SilenceManager) Unsilence(ctx context.Context, resource string) error {
	if err := m.rdb.SRem(ctx, infra.RedisKeySilencedResources, resource).Err(); err != nil {
		return fmt.Errorf("failed to remove silence: %w", err)
	}
	if err := m.rdb.Publish(ctx, infra.RedisChanSilenceSignal, resource+":off").Err(); err != nil {
		m.logger.Warn("silence signal publish failed", zap.Error(err))
	}

	m.mu.Lock()
	delete(m.silenced, resource)
	m.mu.Unlock()
	return nil
}

// Snapshot возвращает копию списка для консольного API.
func (m *SilenceManager) Snapshot() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]string, 0, len(m.silenced))
	for id := range m.silenced {
		out = append(out, id)
	}
	return out
}
