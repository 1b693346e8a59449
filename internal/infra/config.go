package infra

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config — корневая структура конфигурации сервиса.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Engine   EngineConfig   `mapstructure:"engine"`
	Email    EmailConfig    `mapstructure:"email"`
	Logger   LoggerConfig   `mapstructure:"logger"`
}

// ServerConfig описывает настройки HTTP-сервера.
type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	MetricsPort  int           `mapstructure:"metrics_port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// DatabaseConfig описывает подключение к PostgreSQL (decision trail).
type DatabaseConfig struct {
	URL      string `mapstructure:"url"`
	MaxConns int32  `mapstructure:"max_conns"`
	MinConns int32  `mapstructure:"min_conns"`
}

// RedisConfig описывает подключение к Redis (Pub/Sub, глушения, очередь ревью).
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// AuthConfig содержит пути к RSA ключам и учетку оператора консоли.
type AuthConfig struct {
	PublicKeyPath  string        `mapstructure:"public_key_path"`
	PrivateKeyPath string        `mapstructure:"private_key_path"`
	TokenTTL       time.Duration `mapstructure:"token_ttl"`

	// Единственная учетка оператора: логин и bcrypt-хеш пароля.
	// Пользовательской базы у сервиса нет — это не многопользовательская консоль.
	OperatorUser string `mapstructure:"operator_user"`
	OperatorHash string `mapstructure:"operator_hash"`

	PublicKey  []byte
	PrivateKey []byte
}

// EngineConfig — политика движка решений и настройки decision trail.
// Веса и пороги фиксируются на время жизни инстанса.
type EngineConfig struct {
	SeverityWeights map[string]float64 `mapstructure:"severity_weights"`
	ImpactWeights   map[string]float64 `mapstructure:"impact_weights"`

	UrgencyWeight       float64 `mapstructure:"urgency_weight"`
	ImmediateThreshold  float64 `mapstructure:"immediate_threshold"`
	AlertThreshold      float64 `mapstructure:"alert_threshold"`
	ConfidenceThreshold float64 `mapstructure:"confidence_threshold"`

	HistoryLimit int `mapstructure:"history_limit"`

	TrailBufferSize    int           `mapstructure:"trail_buffer_size"`
	TrailFlushInterval time.Duration `mapstructure:"trail_flush_interval"`
}

// EmailConfig — канал доставки алертов почтой. При Enabled=false алерты
// уходят в Pub/Sub канал вместо SMTP.
type EmailConfig struct {
	Enabled  bool     `mapstructure:"enabled"`
	SMTPHost string   `mapstructure:"smtp_host"`
	SMTPPort int      `mapstructure:"smtp_port"`
	From     string   `mapstructure:"from"`
	Password string   `mapstructure:"password"`
	To       []string `mapstructure:"to"`
}

// LoggerConfig настраивает поведение zap логгера.
type LoggerConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Format string `mapstructure:"format"` // json, console
}

// LoadConfig инициализирует конфигурацию, объединяя значения из файла и ENV.
func LoadConfig() (*Config, error) {
	v := viper.New()

	// 1. Настройка поиска файла
	v.SetConfigName("config")    // имя файла без расширения
	v.SetConfigType("yaml")      // формат
	v.AddConfigPath(".")         // ищем в корне
	v.AddConfigPath("./configs") // и в папке с конфигами

	// 2. Настройка переменных окружения (ENV)
	// Позволяет перекрывать конфиг: SERVER_PORT=9000 перекроет server.port
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// 3. Установка дефолтных значений
	setDefaults(v)

	// 4. Чтение файла
	if err := v.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFoundError) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Если файла нет — работаем на ENV и дефолтах
	}

	// 5. Маппинг в структуру
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode into struct: %w", err)
	}

	// 6. Загрузка ключей из Файла ИЛИ из ENV (PEM напрямую — для Docker/K8s)
	cfg.Auth.PublicKey = loadKeyResource(cfg.Auth.PublicKeyPath, "AUTH_PUBLIC_KEY_DATA")
	cfg.Auth.PrivateKey = loadKeyResource(cfg.Auth.PrivateKeyPath, "AUTH_PRIVATE_KEY_DATA")

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.metrics_port", 9090)
	v.SetDefault("server.read_timeout", 5*time.Second)
	v.SetDefault("server.write_timeout", 10*time.Second)
	v.SetDefault("database.max_conns", 15)
	v.SetDefault("database.min_conns", 5)
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("auth.token_ttl", 24*time.Hour)
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "json")

	// Боевая политика движка. Меняется только через конфиг + рестарт.
	v.SetDefault("engine.severity_weights", map[string]float64{"LOW": 10, "MEDIUM": 25, "HIGH": 40})
	v.SetDefault("engine.impact_weights", map[string]float64{"LOW": 10, "MEDIUM": 25, "CRITICAL": 40})
	v.SetDefault("engine.urgency_weight", 20.0)
	v.SetDefault("engine.immediate_threshold", 80.0)
	v.SetDefault("engine.alert_threshold", 50.0)
	v.SetDefault("engine.confidence_threshold", 0.7)
	v.SetDefault("engine.history_limit", 10000)
	v.SetDefault("engine.trail_buffer_size", 10000)
	v.SetDefault("engine.trail_flush_interval", 500*time.Millisecond)

	v.SetDefault("email.enabled", false)
	v.SetDefault("email.smtp_host", "smtp.gmail.com")
	v.SetDefault("email.smtp_port", 587)
}

// loadKeyResource — универсальный хелпер: ключ либо прилетает напрямую
// в ENV (Base64/PEM), либо читается из файла по пути из конфига.
func loadKeyResource(path string, envDataKey string) []byte {
	if data := os.Getenv(envDataKey); data != "" {
		return []byte(data)
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err == nil {
			return data
		}
	}
	return nil
}
