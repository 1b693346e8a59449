package infra

const (
	// RedisNamespace Базовый префикс для изоляции данных проекта в Redis
	RedisNamespace = "remedy"
)

// Ключи состояния
const (
	// RedisKeySilencedResources — Set ресурсов, по которым алерты заглушены.
	RedisKeySilencedResources = RedisNamespace + ":alerts:silenced_set"
	// RedisKeyPendingReviews — очередь флагов ручной проверки (HITL).
	RedisKeyPendingReviews = RedisNamespace + ":reviews:pending"
)

// Каналы Pub/Sub (события)
const (
	// RedisChanSilenceSignal — сигналы включения/выключения глушений.
	RedisChanSilenceSignal = RedisNamespace + ":alerts:silence-signal"
	// RedisChanAlerts — поток алертов для внешних подписчиков (дежурные боты).
	RedisChanAlerts = RedisNamespace + ":alerts:stream"
)
