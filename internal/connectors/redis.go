package connectors

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RedisPublisher транслирует payload в Pub/Sub канал. Подписчики (дежурные
// боты, внешние нотификаторы) разбирают поток сами.
type RedisPublisher struct {
	rdb     *redis.Client
	channel string
	logger  *zap.Logger
}

func NewRedisPublisher(rdb *redis.Client, channel string, logger *zap.Logger) *RedisPublisher {
	return &RedisPublisher{
		rdb:     rdb,
		channel: channel,
		logger:  logger.With(zap.String("mod", "redis-publisher"), zap.String("chan", channel)),
	}
}

func (p *RedisPublisher) Emit(ctx context.Context, payload []byte) ([]byte, error) {
	if err := p.rdb.Publish(ctx, p.channel, payload).Err(); err != nil {
		return nil, fmt.Errorf("redis publish failed: %w", err)
	}
	return []byte(`{"status": "published"}`), nil
}

// ReviewQueue — очередь флагов на ручную проверку (HITL). Пишущая сторона —
// действие flag_for_review, читающая — консольный API оператора.
type ReviewQueue struct {
	rdb    *redis.Client
	key    string
	maxLen int64
	logger *zap.Logger
}

func NewReviewQueue(rdb *redis.Client, key string, logger *zap.Logger) *ReviewQueue {
	return &ReviewQueue{
		rdb:    rdb,
		key:    key,
		maxLen: 1000, // старые флаги вытесняются, оператор работает с хвостом
		logger: logger.With(zap.String("mod", "review-queue")),
	}
}

func (q *ReviewQueue) Emit(ctx context.Context, payload []byte) ([]byte, error) {
	pipe := q.rdb.Pipeline()
	pipe.LPush(ctx, q.key, payload)
	pipe.LTrim(ctx, q.key, 0, q.maxLen-1)
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("review queue push failed: %w", err)
	}
	return []byte(`{"status": "enqueued"}`), nil
}

// Pending возвращает последние limit флагов (новейший первым — как в админке).
func (q *ReviewQueue) Pending(ctx context.Context, limit int64) ([]map[string]any, error) {
	if limit <= 0 {
		limit = 10
	}
	raw, err := q.rdb.LRange(ctx, q.key, 0, limit-1).Result()
	if err != nil {
		return nil, fmt.Errorf("review queue read failed: %w", err)
	}

	out := make([]map[string]any, 0, len(raw))
	for _, item := range raw {
		var m map[string]any
		if err := json.Unmarshal([]byte(item), &m); err != nil {
			q.logger.Warn("skipping malformed review flag", zap.Error(err))
			continue
		}
		out = append(out, m)
	}
	return out, nil
}
